package voting

import (
	"errors"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/common"
	finalvotesDb "blockballot/modules/db/ballot/finalvotes"
	votelocksDb "blockballot/modules/db/ballot/votelocks"

	"github.com/google/uuid"
)

// Lock is the handle for one admitted vote attempt. The nonce ties
// release back to the attempt that acquired it.
type Lock struct {
	ElectionID string
	VoterID    string
	Nonce      string
}

// LockManager admits at most one vote attempt per (election, voter).
// Admission is the store's unique-key insert itself; there is no
// read-then-write window to race through.
type LockManager struct {
	locks  votelocksDb.VoteLocks
	finals finalvotesDb.FinalVotes
	log    logger.Logger
}

func NewLockManager(locks votelocksDb.VoteLocks, finals finalvotesDb.FinalVotes, log logger.Logger) *LockManager {
	return &LockManager{
		locks:  locks,
		finals: finals,
		log:    log,
	}
}

// Precheck fails fast when the voter already voted or an attempt is in
// flight. Courtesy only: Acquire re-establishes both facts atomically.
func (m *LockManager) Precheck(electionID string, voterID string) error {
	voted, err := m.finals.HasVoted(electionID, voterID)
	if err != nil {
		return err
	}
	if voted {
		return common.ConflictError{Reason: "already voted"}
	}

	held, err := m.locks.IsHeld(electionID, voterID)
	if err != nil {
		return err
	}
	if held {
		return common.ConflictError{Reason: "a vote attempt is already in progress"}
	}
	return nil
}

// Acquire inserts the lock record and verifies no final vote exists
// under it. On any failure the lock is not held afterwards.
func (m *LockManager) Acquire(electionID string, voterID string) (*Lock, error) {
	lock := &Lock{
		ElectionID: electionID,
		VoterID:    voterID,
		Nonce:      uuid.NewString(),
	}
	err := m.locks.Acquire(votelocksDb.LockRecord{
		ID:         votelocksDb.LockID(electionID, voterID),
		ElectionID: electionID,
		VoterID:    voterID,
		Nonce:      lock.Nonce,
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Is(err, votelocksDb.ErrLockHeld) {
		return nil, common.ConflictError{Reason: "a vote attempt is already in progress"}
	}
	if err != nil {
		return nil, err
	}

	// A finished attempt releases its lock, so the insert alone cannot
	// see past votes.
	voted, err := m.finals.HasVoted(electionID, voterID)
	if err != nil {
		m.release(lock)
		return nil, err
	}
	if voted {
		m.release(lock)
		return nil, common.ConflictError{Reason: "already voted"}
	}
	return lock, nil
}

// Finalize writes the durable vote record, then releases the lock. The
// order matters: a crash between the two leaves a stuck lock, never a
// voter who can vote twice.
func (m *LockManager) Finalize(lock *Lock, txHash string) error {
	err := m.finals.Record(finalvotesDb.FinalVoteRecord{
		ID:         finalvotesDb.RecordID(lock.ElectionID, lock.VoterID),
		ElectionID: lock.ElectionID,
		VoterID:    lock.VoterID,
		TxHash:     txHash,
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Is(err, finalvotesDb.ErrAlreadyVoted) {
		// A final record written outside the lock protocol. The pair is
		// permanently blocked either way, so the lock can go.
		m.log.Error("final vote already recorded for held lock", lock.ElectionID, lock.VoterID)
		m.release(lock)
		return common.ConflictError{Reason: "already voted"}
	}
	if err != nil {
		// The ledger accepted the vote but the record write failed. The
		// lock stays held so the voter cannot vote again before an
		// operator reconciles; the watchdog will report it.
		m.log.Error("final vote record write failed, lock kept", lock.ElectionID, lock.VoterID, err)
		return err
	}

	m.release(lock)
	return nil
}

// Rollback releases the lock after a failed attempt. Release errors are
// logged, never returned, so they cannot mask the failure that caused
// the rollback.
func (m *LockManager) Rollback(lock *Lock) {
	m.release(lock)
}

func (m *LockManager) release(lock *Lock) {
	if err := m.locks.Release(lock.ElectionID, lock.VoterID, lock.Nonce); err != nil {
		m.log.Error("vote lock release failed", lock.ElectionID, lock.VoterID, err)
	}
}
