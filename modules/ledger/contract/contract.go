package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BallotContract is the on-ledger record of positions, candidates and
// tallies for one election. It is constructed once and then only ever
// accepts castVotes calls; tallies never decrease and the validity set
// never changes.
//
// The contract itself is not safe for concurrent use. The chain
// executes writes on a single goroutine and serves reads under its own
// lock.
type BallotContract struct {
	submitter  common.Address
	positions  []string
	candidates map[string][]string
	tallies    map[string]map[string]uint64
}

// NewBallotContract validates the declared positions and initializes
// every (position, candidate) tally to zero. The creator becomes the
// sole authorized submitter for the contract's lifetime.
func NewBallotContract(creator common.Address, specs []PositionSpec) (*BallotContract, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no positions declared")
	}

	c := &BallotContract{
		submitter:  creator,
		positions:  make([]string, 0, len(specs)),
		candidates: make(map[string][]string, len(specs)),
		tallies:    make(map[string]map[string]uint64, len(specs)),
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("position name must not be empty")
		}
		if _, exists := c.candidates[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate position: %s", spec.Name)
		}
		if len(spec.Candidates) == 0 {
			return nil, fmt.Errorf("position %s has no candidates", spec.Name)
		}

		counts := make(map[string]uint64, len(spec.Candidates))
		for _, candidate := range spec.Candidates {
			if candidate == "" {
				return nil, fmt.Errorf("candidate name must not be empty in position %s", spec.Name)
			}
			if _, exists := counts[candidate]; exists {
				return nil, fmt.Errorf("duplicate candidate %s in position %s", candidate, spec.Name)
			}
			counts[candidate] = 0
		}

		c.positions = append(c.positions, spec.Name)
		c.candidates[spec.Name] = append([]string(nil), spec.Candidates...)
		c.tallies[spec.Name] = counts
	}

	return c, nil
}

// CastVotes records one vote per pair. The whole batch is validated
// against the validity set before any tally changes, so a single bad
// pair rejects the call with every count untouched. Returns the event
// the accepted batch emits.
func (c *BallotContract) CastVotes(sender common.Address, votes []VotePair) (*VoteCastEvent, error) {
	if sender != c.submitter {
		return nil, fmt.Errorf("unauthorized submitter")
	}
	if len(votes) == 0 {
		return nil, fmt.Errorf("empty vote batch")
	}

	// Stage increments first, commit only after the full batch passed.
	staged := make(map[string]map[string]uint64)
	for _, vote := range votes {
		counts, ok := c.tallies[vote.Position]
		if !ok {
			return nil, fmt.Errorf("unknown position: %s", vote.Position)
		}
		if _, ok := counts[vote.Candidate]; !ok {
			return nil, fmt.Errorf("unknown candidate %s for position %s", vote.Candidate, vote.Position)
		}
		if staged[vote.Position] == nil {
			staged[vote.Position] = make(map[string]uint64)
		}
		staged[vote.Position][vote.Candidate]++
	}

	for position, counts := range staged {
		for candidate, n := range counts {
			c.tallies[position][candidate] += n
		}
	}

	return &VoteCastEvent{
		Submitter: sender.Hex(),
		Votes:     append([]VotePair(nil), votes...),
	}, nil
}

// PositionList returns position names in registration order.
func (c *BallotContract) PositionList() []string {
	return append([]string(nil), c.positions...)
}

// CandidateList returns the candidates of a position in registration
// order.
func (c *BallotContract) CandidateList(position string) ([]string, error) {
	candidates, ok := c.candidates[position]
	if !ok {
		return nil, fmt.Errorf("unknown position: %s", position)
	}
	return append([]string(nil), candidates...), nil
}

func (c *BallotContract) VoteCount(position string, candidate string) (uint64, error) {
	counts, ok := c.tallies[position]
	if !ok {
		return 0, fmt.Errorf("unknown position: %s", position)
	}
	count, ok := counts[candidate]
	if !ok {
		return 0, fmt.Errorf("unknown candidate %s for position %s", candidate, position)
	}
	return count, nil
}

// Submitter returns the only account allowed to cast votes.
func (c *BallotContract) Submitter() common.Address {
	return c.submitter
}
