package ballot

import (
	"context"

	a "blockballot/modules/aggregate"
	"blockballot/modules/db"

	"go.mongodb.org/mongo-driver/bson"
)

type BallotDb struct {
	*db.DbInstance
}

var _ a.Plugin = &BallotDb{}

func New(d db.Db) *BallotDb {
	return &BallotDb{db.NewDbInstance(d, "blockballot")}
}

// Nuke drops every document in every collection. Devnet resets only.
func (db *BallotDb) Nuke() error {
	ctx := context.Background()

	colNames, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}

	for _, colName := range colNames {
		_, err := db.Collection(colName).DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
	}

	return nil
}
