package eligibility

import (
	"context"
	"time"

	"blockballot/modules/db"
	"blockballot/modules/db/ballot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type eligibility struct {
	*db.Collection
}

func New(d *ballot.BallotDb) Eligibility {
	return &eligibility{db.NewCollection(d.DbInstance, "eligibility")}
}

func (e *eligibility) SetStatus(electionID string, contact string, status Status) error {
	ctx := context.Background()
	opts := options.FindOneAndUpdate().SetUpsert(true)
	filter := bson.M{
		"election_id": electionID,
		"contact":     contact,
	}
	updateQuery := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}
	result := e.FindOneAndUpdate(ctx, filter, updateQuery, opts)
	if result.Err() != nil && result.Err() != mongo.ErrNoDocuments {
		return result.Err()
	}
	return nil
}

func (e *eligibility) GetRecord(electionID string, contact string) *EligibilityRecord {
	ctx := context.Background()
	findResult := e.FindOne(ctx, bson.M{
		"election_id": electionID,
		"contact":     contact,
	})

	if findResult.Err() != nil {
		return nil
	}
	record := EligibilityRecord{}
	findResult.Decode(&record)
	return &record
}

func (e *eligibility) CountEligible(electionID string) (int64, error) {
	ctx := context.Background()
	return e.CountDocuments(ctx, bson.M{
		"election_id": electionID,
		"status": bson.M{
			"$in": bson.A{StatusPreapproved, StatusApproved},
		},
	})
}
