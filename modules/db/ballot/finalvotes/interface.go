package finalvotes

import (
	"errors"

	a "blockballot/modules/aggregate"
)

var ErrAlreadyVoted = errors.New("final vote already recorded")

type FinalVotes interface {
	a.Plugin
	// Record inserts the final vote, failing with ErrAlreadyVoted when
	// one already exists for the (election, voter) pair.
	Record(record FinalVoteRecord) error
	HasVoted(electionID string, voterID string) (bool, error)
	GetRecord(electionID string, voterID string) *FinalVoteRecord
	CountByElection(electionID string) (int64, error)
}
