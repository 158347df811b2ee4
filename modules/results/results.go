package results

import (
	"context"
	"sort"
	"strconv"
	"time"

	"blockballot/lib/logger"
	"blockballot/lib/utils"
	"blockballot/modules/common"
	electionsDb "blockballot/modules/db/ballot/elections"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
	finalvotesDb "blockballot/modules/db/ballot/finalvotes"
	"blockballot/modules/ledger/client"

	"github.com/moznion/go-optional"
)

const (
	defaultCandidateDelay = 100 * time.Millisecond
	defaultPositionDelay  = 200 * time.Millisecond
)

// Aggregator assembles election results from the ledger tallies and the
// off-chain participation records.
type Aggregator struct {
	elections   electionsDb.Elections
	eligibility eligibilityDb.Eligibility
	finals      finalvotesDb.FinalVotes
	ledger      client.LedgerClient
	log         logger.Logger

	// Tally reads are paced so a wide ballot does not trip the ledger
	// provider's rate limit in one burst.
	candidateDelay time.Duration
	positionDelay  time.Duration
}

func New(elections electionsDb.Elections, eligibility eligibilityDb.Eligibility, finals finalvotesDb.FinalVotes, ledger client.LedgerClient, log logger.Logger) *Aggregator {
	return &Aggregator{
		elections:      elections,
		eligibility:    eligibility,
		finals:         finals,
		ledger:         ledger,
		log:            log,
		candidateDelay: defaultCandidateDelay,
		positionDelay:  defaultPositionDelay,
	}
}

// SetReadDelays overrides the inter-read pacing.
func (a *Aggregator) SetReadDelays(candidate time.Duration, position time.Duration) {
	a.candidateDelay = candidate
	a.positionDelay = position
}

type CandidateResult struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Votes       uint64 `json:"votes"`
	Percentage  string `json:"percentage"`
}

type PositionResult struct {
	PositionName string            `json:"position_name"`
	Candidates   []CandidateResult `json:"candidates"`
}

type ElectionResults struct {
	ElectionID        string                    `json:"election_id"`
	ElectionTitle     string                    `json:"election_title"`
	TotalVotes        int64                     `json:"total_votes"`
	EligibleVoters    int64                     `json:"eligible_voters"`
	TurnoutPercentage string                    `json:"turnout_percentage"`
	Results           map[string]PositionResult `json:"results"`
	HasEnded          bool                      `json:"has_ended"`
}

// Compute builds the full result set for an election. Until the voting
// window closes only the election's creator may see it.
func (a *Aggregator) Compute(ctx context.Context, electionID string, requester optional.Option[string]) (*ElectionResults, error) {
	election := a.elections.GetElection(electionID)
	if election == nil {
		return nil, common.NotFoundError{Resource: "election"}
	}

	hasEnded := election.HasEnded(time.Now())
	if !hasEnded && (requester.IsNone() || requester.Unwrap() != election.CreatorID) {
		return nil, common.ForbiddenError{Reason: "results not available yet"}
	}

	totalVotes, err := a.finals.CountByElection(electionID)
	if err != nil {
		return nil, err
	}
	eligibleVoters, err := a.eligibility.CountEligible(electionID)
	if err != nil {
		return nil, err
	}

	positions, err := a.ledger.GetPositionList(ctx, election.ContractAddress)
	if err != nil {
		return nil, err
	}

	results := make(map[string]PositionResult, len(positions))
	for i, position := range positions {
		if i > 0 {
			if err := a.pause(ctx, a.positionDelay); err != nil {
				return nil, err
			}
		}
		positionResult, err := a.computePosition(ctx, election, position)
		if err != nil {
			return nil, err
		}
		results[position] = *positionResult
	}

	return &ElectionResults{
		ElectionID:        electionID,
		ElectionTitle:     election.Title,
		TotalVotes:        totalVotes,
		EligibleVoters:    eligibleVoters,
		TurnoutPercentage: formatPercentage(float64(totalVotes), float64(eligibleVoters)),
		Results:           results,
		HasEnded:          hasEnded,
	}, nil
}

func (a *Aggregator) computePosition(ctx context.Context, election *electionsDb.Election, position string) (*PositionResult, error) {
	candidates, err := a.ledger.GetCandidateList(ctx, election.ContractAddress, position)
	if err != nil {
		return nil, err
	}
	meta := candidateMetaByName(election, position)

	// Candidates arrive in registration order; the stable sort below
	// keeps that order among equal tallies.
	entries := make([]CandidateResult, 0, len(candidates))
	var positionTotal uint64
	for i, candidate := range candidates {
		if i > 0 {
			if err := a.pause(ctx, a.candidateDelay); err != nil {
				return nil, err
			}
		}
		votes, err := a.ledger.GetVoteCount(ctx, election.ContractAddress, position, candidate)
		if err != nil {
			return nil, err
		}

		entry := CandidateResult{Name: candidate, Votes: votes}
		if m, ok := meta[candidate]; ok {
			entry.ID = m.DisplayID
			entry.Description = m.Description
		}
		positionTotal += votes
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Votes > entries[j].Votes
	})
	for i := range entries {
		entries[i].Percentage = formatPercentage(float64(entries[i].Votes), float64(positionTotal))
	}

	return &PositionResult{PositionName: position, Candidates: entries}, nil
}

func (a *Aggregator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := utils.Sleep(d).Await(ctx)
	return err
}

func candidateMetaByName(election *electionsDb.Election, position string) map[string]electionsDb.CandidateMeta {
	meta := make(map[string]electionsDb.CandidateMeta)
	for _, p := range election.Positions {
		if p.Name != position {
			continue
		}
		for _, candidate := range p.Candidates {
			meta[candidate.Name] = candidate
		}
	}
	return meta
}

func formatPercentage(part float64, whole float64) string {
	if whole == 0 {
		return "0.00"
	}
	return strconv.FormatFloat(part/whole*100, 'f', 2, 64)
}
