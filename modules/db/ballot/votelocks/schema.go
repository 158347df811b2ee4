package votelocks

import "time"

// LockRecord marks a vote attempt in flight. The _id keys it to the
// (election, voter) pair so the unique index makes insertion the lock
// acquisition itself. The nonce identifies the attempt that owns the
// lock; a release only matches its own nonce.
//
// Locks are ephemeral. A record that outlives its request is a stuck
// lock and must be cleared by an operator, never reused.
type LockRecord struct {
	ID         string    `json:"id" bson:"_id"`
	ElectionID string    `json:"election_id" bson:"election_id"`
	VoterID    string    `json:"voter_id" bson:"voter_id"`
	Nonce      string    `json:"nonce" bson:"nonce"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func LockID(electionID string, voterID string) string {
	return electionID + ":" + voterID
}
