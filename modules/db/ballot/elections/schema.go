package elections

import "time"

type ElectionStatus string

const (
	StatusDraft  ElectionStatus = "draft"
	StatusActive ElectionStatus = "active"
	StatusEnded  ElectionStatus = "ended"
)

// CandidateMeta is display metadata only. The ledger contract keys
// tallies by the exact candidate name string.
type CandidateMeta struct {
	DisplayID   string `json:"display_id" bson:"display_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

type Position struct {
	Name       string          `json:"name" bson:"name"`
	Candidates []CandidateMeta `json:"candidates" bson:"candidates"`
}

type Election struct {
	ElectionID      string     `json:"election_id" bson:"election_id"`
	Code            string     `json:"code" bson:"code"`
	Title           string     `json:"title" bson:"title"`
	CreatorID       string     `json:"creator_id" bson:"creator_id"`
	ContractAddress string     `json:"contract_address" bson:"contract_address"`
	StartsAt        time.Time  `json:"starts_at" bson:"starts_at"`
	EndsAt          time.Time  `json:"ends_at" bson:"ends_at"`
	Positions       []Position `json:"positions" bson:"positions"`
}

// Status is derived from the clock against the voting window. It is
// never stored.
func (e Election) Status(now time.Time) ElectionStatus {
	if now.Before(e.StartsAt) {
		return StatusDraft
	}
	if now.After(e.EndsAt) {
		return StatusEnded
	}
	return StatusActive
}

func (e Election) WindowOpen(now time.Time) bool {
	return e.Status(now) == StatusActive
}

func (e Election) HasEnded(now time.Time) bool {
	return now.After(e.EndsAt)
}
