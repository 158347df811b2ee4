package votelocks

import (
	"errors"
	"time"

	a "blockballot/modules/aggregate"
)

// ErrLockHeld reports that another attempt already holds the lock for
// the (election, voter) pair.
var ErrLockHeld = errors.New("vote lock already held")

type VoteLocks interface {
	a.Plugin
	// Acquire inserts the lock record, failing with ErrLockHeld when
	// one already exists. The insert is atomic at the store.
	Acquire(record LockRecord) error
	// Release deletes the lock only if it still carries the given
	// nonce, so a stale caller cannot release a racer's lock.
	Release(electionID string, voterID string, nonce string) error
	IsHeld(electionID string, voterID string) (bool, error)
	ListStuck(olderThan time.Time) ([]LockRecord, error)
}
