package coordinator

import (
	"log/slog"
	"sync"
	"time"
)

// lockRecord is one held lease: who holds it and when it lapses.
type lockRecord struct {
	holder  string
	expires time.Time
}

// LockManager grants exclusive per-filename leases. A lease that is
// never released self-heals via the periodic sweep once it expires;
// that sweep is the sole crash-recovery path for locks.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]lockRecord
	lease time.Duration
}

// NewLockManager creates a lock manager with the given lease length.
func NewLockManager(lease time.Duration) *LockManager {
	return &LockManager{
		locks: make(map[string]lockRecord),
		lease: lease,
	}
}

// Acquire grants the lock on filename to clientID if it is free or
// already held by the same client. A grant (re)sets the lease expiry.
// There is no queueing; a denied caller retries or fails fast.
func (lm *LockManager) Acquire(filename, clientID string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, held := lm.locks[filename]
	if held && rec.holder != clientID {
		return false
	}

	lm.locks[filename] = lockRecord{
		holder:  clientID,
		expires: time.Now().Add(lm.lease),
	}
	return true
}

// Release drops the lock on filename if clientID is the recorded
// holder. An unknown filename or a foreign holder reports false and
// leaves any existing lock intact.
func (lm *LockManager) Release(filename, clientID string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, held := lm.locks[filename]
	if !held || rec.holder != clientID {
		return false
	}

	delete(lm.locks, filename)
	return true
}

// Holder returns the current holder of filename, if any.
func (lm *LockManager) Holder(filename string) (string, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, held := lm.locks[filename]
	return rec.holder, held
}

// Sweep removes every lock whose lease expired at or before now and
// returns how many were dropped.
func (lm *LockManager) Sweep(now time.Time) int {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	removed := 0
	for filename, rec := range lm.locks {
		if !rec.expires.After(now) {
			delete(lm.locks, filename)
			removed++
			slog.Info("expired lock released", "filename", filename, "holder", rec.holder)
		}
	}
	return removed
}
