package elections

import (
	"context"

	"blockballot/modules/db"
	"blockballot/modules/db/ballot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type elections struct {
	*db.Collection
}

func New(d *ballot.BallotDb) Elections {
	return &elections{db.NewCollection(d.DbInstance, "elections")}
}

// RegisterElection upserts the metadata written at contract deployment.
// Positions and candidates never change afterwards; re-registering the
// same election id overwrites in place.
func (e *elections) RegisterElection(election Election) error {
	ctx := context.Background()
	opts := options.FindOneAndUpdate().SetUpsert(true)
	filter := bson.M{
		"election_id": election.ElectionID,
	}
	updateQuery := bson.M{
		"$set": election,
	}
	result := e.FindOneAndUpdate(ctx, filter, updateQuery, opts)
	if result.Err() != nil && result.Err() != mongo.ErrNoDocuments {
		return result.Err()
	}
	return nil
}

func (e *elections) GetElection(electionID string) *Election {
	ctx := context.Background()
	findResult := e.FindOne(ctx, bson.M{
		"election_id": electionID,
	})

	if findResult.Err() != nil {
		return nil
	}
	election := Election{}
	findResult.Decode(&election)
	return &election
}

func (e *elections) GetElectionByCode(code string) *Election {
	ctx := context.Background()
	findResult := e.FindOne(ctx, bson.M{
		"code": code,
	})

	if findResult.Err() != nil {
		return nil
	}
	election := Election{}
	findResult.Decode(&election)
	return &election
}
