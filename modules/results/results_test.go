package results_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/common"
	electionsDb "blockballot/modules/db/ballot/elections"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
	finalvotesDb "blockballot/modules/db/ballot/finalvotes"
	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/contract"
	"blockballot/modules/results"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
)

// ===== in-memory stores =====

type memElections struct {
	electionsDb.Elections
	byID map[string]electionsDb.Election
}

func (m *memElections) GetElection(electionID string) *electionsDb.Election {
	election, ok := m.byID[electionID]
	if !ok {
		return nil
	}
	return &election
}

type memEligibility struct {
	eligibilityDb.Eligibility
	statuses map[string]eligibilityDb.Status
}

func (m *memEligibility) CountEligible(electionID string) (int64, error) {
	var count int64
	for key, status := range m.statuses {
		if strings.HasPrefix(key, electionID+":") && status.CanVote() {
			count++
		}
	}
	return count, nil
}

type memFinals struct {
	finalvotesDb.FinalVotes
	records map[string]finalvotesDb.FinalVoteRecord
}

func (m *memFinals) CountByElection(electionID string) (int64, error) {
	var count int64
	for _, record := range m.records {
		if record.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

// ===== fixture =====

const (
	electionID = "e1"
	creatorID  = "creator@example.com"
)

type fixture struct {
	agg         *results.Aggregator
	ledger      *client.MockLedgerClient
	finals      *memFinals
	eligibility *memEligibility
	addr        string
}

func newFixture(t *testing.T, ended bool, specs []contract.PositionSpec) *fixture {
	log := logger.PrefixedLogger{Prefix: "results-test"}

	ledger := client.NewMockLedgerClient()
	addr, _, err := ledger.Deploy(context.Background(), specs)
	assert.NoError(t, err)

	now := time.Now()
	election := electionsDb.Election{
		ElectionID:      electionID,
		Code:            "PRES26",
		Title:           "Presidential Election",
		CreatorID:       creatorID,
		ContractAddress: addr,
		StartsAt:        now.Add(-2 * time.Hour),
		EndsAt:          now.Add(time.Hour),
	}
	if ended {
		election.EndsAt = now.Add(-time.Hour)
	}
	for _, spec := range specs {
		position := electionsDb.Position{Name: spec.Name}
		for i, candidate := range spec.Candidates {
			position.Candidates = append(position.Candidates, electionsDb.CandidateMeta{
				DisplayID: fmt.Sprintf("%d", i+1),
				Name:      candidate,
			})
		}
		election.Positions = append(election.Positions, position)
	}

	elections := &memElections{byID: map[string]electionsDb.Election{electionID: election}}
	eligibility := &memEligibility{statuses: map[string]eligibilityDb.Status{}}
	finals := &memFinals{records: map[string]finalvotesDb.FinalVoteRecord{}}

	agg := results.New(elections, eligibility, finals, ledger, log)
	agg.SetReadDelays(0, 0)

	return &fixture{agg: agg, ledger: ledger, finals: finals, eligibility: eligibility, addr: addr}
}

func (f *fixture) approve(contact string, status eligibilityDb.Status) {
	f.eligibility.statuses[electionID+":"+contact] = status
}

func (f *fixture) recordFinal(voterID string) {
	id := finalvotesDb.RecordID(electionID, voterID)
	f.finals.records[id] = finalvotesDb.FinalVoteRecord{
		ID:         id,
		ElectionID: electionID,
		VoterID:    voterID,
		TxHash:     "0xdeadbeef",
		CreatedAt:  time.Now().UTC(),
	}
}

func (f *fixture) castBallots(t *testing.T, n int, position string, candidate string) {
	for i := 0; i < n; i++ {
		_, err := f.ledger.CastVotes(context.Background(), f.addr, []contract.VotePair{
			{Position: position, Candidate: candidate},
		})
		assert.NoError(t, err)
	}
}

func presidentialSpec() []contract.PositionSpec {
	return []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice", "Bob", "Carol"}},
	}
}

// ===== tests =====

func TestResultsForbiddenBeforeEnd(t *testing.T) {
	f := newFixture(t, false, presidentialSpec())

	_, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	var forbidden common.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "results not available yet", forbidden.Reason)

	_, err = f.agg.Compute(context.Background(), electionID, optional.Some("viewer@example.com"))
	assert.ErrorAs(t, err, &forbidden)
}

func TestCreatorSeesResultsBeforeEnd(t *testing.T) {
	f := newFixture(t, false, presidentialSpec())

	res, err := f.agg.Compute(context.Background(), electionID, optional.Some(creatorID))
	assert.NoError(t, err)
	assert.False(t, res.HasEnded)
	assert.Equal(t, "Presidential Election", res.ElectionTitle)
}

func TestAnyoneSeesResultsAfterEnd(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	assert.True(t, res.HasEnded)
}

func TestStableSortAndPercentages(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())
	f.castBallots(t, 5, "President", "Alice")
	f.castBallots(t, 5, "President", "Bob")
	f.castBallots(t, 3, "President", "Carol")

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)

	president := res.Results["President"]
	assert.Equal(t, "President", president.PositionName)
	assert.Len(t, president.Candidates, 3)

	// Ties keep registration order: Alice before Bob.
	assert.Equal(t, "Alice", president.Candidates[0].Name)
	assert.Equal(t, "Bob", president.Candidates[1].Name)
	assert.Equal(t, "Carol", president.Candidates[2].Name)

	assert.Equal(t, uint64(5), president.Candidates[0].Votes)
	assert.Equal(t, "38.46", president.Candidates[0].Percentage)
	assert.Equal(t, "38.46", president.Candidates[1].Percentage)
	assert.Equal(t, "23.08", president.Candidates[2].Percentage)
}

func TestLowerTallySortsLast(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())
	f.castBallots(t, 1, "President", "Alice")
	f.castBallots(t, 4, "President", "Carol")

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)

	president := res.Results["President"]
	assert.Equal(t, "Carol", president.Candidates[0].Name)
	assert.Equal(t, "Alice", president.Candidates[1].Name)
	assert.Equal(t, "Bob", president.Candidates[2].Name)
	assert.Equal(t, "80.00", president.Candidates[0].Percentage)
	assert.Equal(t, "20.00", president.Candidates[1].Percentage)
	assert.Equal(t, "0.00", president.Candidates[2].Percentage)
}

func TestTurnoutPercentage(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())
	f.approve("a@example.com", eligibilityDb.StatusApproved)
	f.approve("b@example.com", eligibilityDb.StatusApproved)
	f.approve("c@example.com", eligibilityDb.StatusPreapproved)
	f.approve("d@example.com", eligibilityDb.StatusApproved)
	f.approve("denied@example.com", eligibilityDb.StatusDenied)
	f.recordFinal("a@example.com")
	f.recordFinal("b@example.com")
	f.recordFinal("c@example.com")

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalVotes)
	assert.Equal(t, int64(4), res.EligibleVoters)
	assert.Equal(t, "75.00", res.TurnoutPercentage)
}

func TestZeroDenominators(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.TotalVotes)
	assert.Equal(t, int64(0), res.EligibleVoters)
	assert.Equal(t, "0.00", res.TurnoutPercentage)

	for _, candidate := range res.Results["President"].Candidates {
		assert.Equal(t, "0.00", candidate.Percentage)
	}
}

func TestCandidateMetadataMerged(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)

	president := res.Results["President"]
	assert.Equal(t, "1", president.Candidates[0].ID)
	assert.Equal(t, "Alice", president.Candidates[0].Name)
}

func TestMultiplePositions(t *testing.T) {
	f := newFixture(t, true, []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice", "Bob"}},
		{Name: "Treasurer", Candidates: []string{"Carol"}},
	})
	f.castBallots(t, 2, "President", "Alice")
	f.castBallots(t, 1, "Treasurer", "Carol")

	res, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	assert.Len(t, res.Results, 2)
	assert.Equal(t, uint64(2), res.Results["President"].Candidates[0].Votes)
	assert.Equal(t, uint64(1), res.Results["Treasurer"].Candidates[0].Votes)
	assert.Equal(t, "100.00", res.Results["Treasurer"].Candidates[0].Percentage)
}

func TestUnknownElection(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())

	_, err := f.agg.Compute(context.Background(), "missing", optional.None[string]())
	var notFound common.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRepeatedReadsAreIdempotent(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())
	f.castBallots(t, 2, "President", "Alice")
	f.recordFinal("a@example.com")

	first, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	second, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReadPacing(t *testing.T) {
	f := newFixture(t, true, presidentialSpec())
	f.agg.SetReadDelays(30*time.Millisecond, 0)

	start := time.Now()
	_, err := f.agg.Compute(context.Background(), electionID, optional.None[string]())
	assert.NoError(t, err)

	// Three candidates means two inter-read pauses.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
