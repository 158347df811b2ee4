package finalvotes

import (
	"context"

	"blockballot/modules/db"
	"blockballot/modules/db/ballot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type finalVotes struct {
	*db.Collection
}

func New(d *ballot.BallotDb) FinalVotes {
	return &finalVotes{db.NewCollection(d.DbInstance, "final_votes")}
}

func (f *finalVotes) Record(record FinalVoteRecord) error {
	ctx := context.Background()
	_, err := f.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyVoted
	}
	return err
}

func (f *finalVotes) HasVoted(electionID string, voterID string) (bool, error) {
	ctx := context.Background()
	count, err := f.CountDocuments(ctx, bson.M{
		"_id": RecordID(electionID, voterID),
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (f *finalVotes) GetRecord(electionID string, voterID string) *FinalVoteRecord {
	ctx := context.Background()
	findResult := f.FindOne(ctx, bson.M{
		"_id": RecordID(electionID, voterID),
	})

	if findResult.Err() != nil {
		return nil
	}
	record := FinalVoteRecord{}
	findResult.Decode(&record)
	return &record
}

func (f *finalVotes) CountByElection(electionID string) (int64, error) {
	ctx := context.Background()
	return f.CountDocuments(ctx, bson.M{
		"election_id": electionID,
	})
}
