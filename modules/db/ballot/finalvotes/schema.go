package finalvotes

import "time"

// FinalVoteRecord is the durable proof that a voter completed voting
// in an election. At most one exists per (election, voter), enforced
// by the _id, and it is never updated or deleted.
type FinalVoteRecord struct {
	ID         string    `json:"id" bson:"_id"`
	ElectionID string    `json:"election_id" bson:"election_id"`
	VoterID    string    `json:"voter_id" bson:"voter_id"`
	TxHash     string    `json:"tx_hash" bson:"tx_hash"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func RecordID(electionID string, voterID string) string {
	return electionID + ":" + voterID
}
