package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/arbiter/pkg/ports"
)

// Locker implements ports.DistributedLocker for a single process.
// A held key is released by its UnlockFunc or when its TTL passes.
type Locker struct {
	mu    sync.Mutex
	held  map[string]lease
	seq   uint64
	retry time.Duration
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]lease),
		retry: 10 * time.Millisecond,
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		if token, ok := l.tryLock(key, ttl); ok {
			return func(context.Context) error {
				l.release(key, token)
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) tryLock(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.held[key]; ok && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return 0, false
	}

	l.seq++
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.held[key] = lease{token: l.seq, expires: expires}
	return l.seq, true
}

// release only drops the lease it was issued for, so a stale unlock after
// expiry cannot free someone else's lock.
func (l *Locker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && cur.token == token {
		delete(l.held, key)
	}
}
