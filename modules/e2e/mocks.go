package e2e

import (
	"sync"
	"time"

	"blockballot/lib/utils"
	electionsDb "blockballot/modules/db/ballot/elections"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
	finalvotesDb "blockballot/modules/db/ballot/finalvotes"
	votelocksDb "blockballot/modules/db/ballot/votelocks"

	"github.com/chebyrash/promise"
)

// In-memory stand-ins for the mongo collections so the flow runs
// without a database. They keep the same atomicity the real
// collections get from unique indexes.

type MockElections struct {
	mu   sync.Mutex
	byID map[string]electionsDb.Election
}

var _ electionsDb.Elections = &MockElections{}

func (m *MockElections) RegisterElection(election electionsDb.Election) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[election.ElectionID] = election
	return nil
}

func (m *MockElections) GetElection(electionID string) *electionsDb.Election {
	m.mu.Lock()
	defer m.mu.Unlock()
	election, ok := m.byID[electionID]
	if !ok {
		return nil
	}
	return &election
}

func (m *MockElections) GetElectionByCode(code string) *electionsDb.Election {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, election := range m.byID {
		if election.Code == code {
			found := election
			return &found
		}
	}
	return nil
}

func (m *MockElections) Init() error {
	m.byID = make(map[string]electionsDb.Election)
	return nil
}

func (m *MockElections) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (m *MockElections) Stop() error {
	return nil
}

type MockEligibility struct {
	mu      sync.Mutex
	records map[string]eligibilityDb.EligibilityRecord
}

var _ eligibilityDb.Eligibility = &MockEligibility{}

func (m *MockEligibility) SetStatus(electionID string, contact string, status eligibilityDb.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[electionID+":"+contact] = eligibilityDb.EligibilityRecord{
		ElectionID: electionID,
		Contact:    contact,
		Status:     status,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

func (m *MockEligibility) GetRecord(electionID string, contact string) *eligibilityDb.EligibilityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[electionID+":"+contact]
	if !ok {
		return nil
	}
	return &record
}

func (m *MockEligibility) CountEligible(electionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, record := range m.records {
		if record.ElectionID == electionID && record.Status.CanVote() {
			count++
		}
	}
	return count, nil
}

func (m *MockEligibility) Init() error {
	m.records = make(map[string]eligibilityDb.EligibilityRecord)
	return nil
}

func (m *MockEligibility) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (m *MockEligibility) Stop() error {
	return nil
}

type MockVoteLocks struct {
	mu      sync.Mutex
	records map[string]votelocksDb.LockRecord
}

var _ votelocksDb.VoteLocks = &MockVoteLocks{}

func (m *MockVoteLocks) Acquire(record votelocksDb.LockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.records[record.ID]; held {
		return votelocksDb.ErrLockHeld
	}
	m.records[record.ID] = record
	return nil
}

func (m *MockVoteLocks) Release(electionID string, voterID string, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := votelocksDb.LockID(electionID, voterID)
	if record, held := m.records[id]; held && record.Nonce == nonce {
		delete(m.records, id)
	}
	return nil
}

func (m *MockVoteLocks) IsHeld(electionID string, voterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.records[votelocksDb.LockID(electionID, voterID)]
	return held, nil
}

func (m *MockVoteLocks) ListStuck(olderThan time.Time) ([]votelocksDb.LockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stuck := []votelocksDb.LockRecord{}
	for _, record := range m.records {
		if record.CreatedAt.Before(olderThan) {
			stuck = append(stuck, record)
		}
	}
	return stuck, nil
}

func (m *MockVoteLocks) Init() error {
	m.records = make(map[string]votelocksDb.LockRecord)
	return nil
}

func (m *MockVoteLocks) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (m *MockVoteLocks) Stop() error {
	return nil
}

type MockFinalVotes struct {
	mu      sync.Mutex
	records map[string]finalvotesDb.FinalVoteRecord
}

var _ finalvotesDb.FinalVotes = &MockFinalVotes{}

func (m *MockFinalVotes) Record(record finalvotesDb.FinalVoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[record.ID]; exists {
		return finalvotesDb.ErrAlreadyVoted
	}
	m.records[record.ID] = record
	return nil
}

func (m *MockFinalVotes) HasVoted(electionID string, voterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, voted := m.records[finalvotesDb.RecordID(electionID, voterID)]
	return voted, nil
}

func (m *MockFinalVotes) GetRecord(electionID string, voterID string) *finalvotesDb.FinalVoteRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[finalvotesDb.RecordID(electionID, voterID)]
	if !ok {
		return nil
	}
	return &record
}

func (m *MockFinalVotes) CountByElection(electionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, record := range m.records {
		if record.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

func (m *MockFinalVotes) Init() error {
	m.records = make(map[string]finalvotesDb.FinalVoteRecord)
	return nil
}

func (m *MockFinalVotes) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (m *MockFinalVotes) Stop() error {
	return nil
}
