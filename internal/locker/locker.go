package locker

import (
	"context"
	"sync"
	"time"
)

// Locker guards a named run so only one holder proceeds at a time.
// TryLock returns a release function when the lock was acquired.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu       sync.Mutex
	held     map[string]time.Time
	now      func() time.Time
	sequence uint64
	owners   map[string]uint64
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:   make(map[string]time.Time),
		owners: make(map[string]uint64),
		now:    time.Now,
	}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isHeld(key) {
		return nil, false, nil
	}

	l.sequence++
	owner := l.sequence
	l.owners[key] = owner
	if ttl > 0 {
		l.held[key] = l.now().Add(ttl)
	} else {
		l.held[key] = time.Time{}
	}

	return func() { l.unlock(key, owner) }, true, nil
}

// unlock only releases the lock if owner still holds it; an expired and
// re-acquired lock belongs to someone else.
func (l *MemoryLocker) unlock(key string, owner uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owners[key] != owner {
		return
	}
	delete(l.held, key)
	delete(l.owners, key)
}

// IsLocked reports whether key is currently held.
func (l *MemoryLocker) IsLocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.isHeld(key)
}

// isHeld expects l.mu to be held. A zero expiry never lapses.
func (l *MemoryLocker) isHeld(key string) bool {
	expires, exists := l.held[key]
	if !exists {
		return false
	}
	return expires.IsZero() || l.now().Before(expires)
}
