package votelocks

import (
	"context"
	"time"

	"blockballot/modules/db"
	"blockballot/modules/db/ballot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type voteLocks struct {
	*db.Collection
}

func New(d *ballot.BallotDb) VoteLocks {
	return &voteLocks{db.NewCollection(d.DbInstance, "vote_locks")}
}

func (v *voteLocks) Acquire(record LockRecord) error {
	ctx := context.Background()
	_, err := v.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return ErrLockHeld
	}
	return err
}

func (v *voteLocks) Release(electionID string, voterID string, nonce string) error {
	ctx := context.Background()
	_, err := v.DeleteOne(ctx, bson.M{
		"_id":   LockID(electionID, voterID),
		"nonce": nonce,
	})
	return err
}

func (v *voteLocks) IsHeld(electionID string, voterID string) (bool, error) {
	ctx := context.Background()
	count, err := v.CountDocuments(ctx, bson.M{
		"_id": LockID(electionID, voterID),
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (v *voteLocks) ListStuck(olderThan time.Time) ([]LockRecord, error) {
	ctx := context.Background()
	cursor, err := v.Find(ctx, bson.M{
		"created_at": bson.M{
			"$lt": olderThan,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]LockRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
