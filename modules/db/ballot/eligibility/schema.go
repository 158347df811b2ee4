package eligibility

import "time"

type Status string

const (
	StatusPreapproved Status = "preapproved"
	StatusApproved    Status = "approved"
	StatusDenied      Status = "denied"
)

func (s Status) CanVote() bool {
	return s == StatusPreapproved || s == StatusApproved
}

// EligibilityRecord authorizes one contact to vote in one election.
// Written by the admin workflow, read by the gate.
type EligibilityRecord struct {
	ElectionID string    `json:"election_id" bson:"election_id"`
	Contact    string    `json:"contact" bson:"contact"`
	Status     Status    `json:"status" bson:"status"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
