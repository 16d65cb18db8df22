/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package lock provides a token-identity-checked distributed lock and an
// idempotency store, grounded on
// original_source/backend/app/db/distributed_lock.py's Redis
// SET-NX/EX-and-Lua-CAS scheme, reimplemented here over an in-memory
// Store interface (P8, P9).
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
)

// entry is one held lock: a token identifying its holder and the instant it
// auto-expires.
type entry struct {
	token     string
	expiresAt time.Time
}

// Store is the backing compare-and-swap primitive a DistributedLock calls
// into. InMemoryStore is the reference implementation; a Redis- or
// database-backed Store can satisfy the same interface without changing
// DistributedLock's logic.
type Store interface {
	// TryAcquire sets key to token with the given ttl iff key is unset or
	// expired. Returns true on success.
	TryAcquire(key, token string, ttl time.Duration) bool
	// Release deletes key iff its current token matches. Returns true on
	// success, false if the lock is held by a different token or absent.
	Release(key, token string) bool
	// Extend resets key's ttl iff its current token matches.
	Extend(key, token string, ttl time.Duration) bool
	// IsLocked reports whether key is currently held by anyone.
	IsLocked(key string) bool
}

// InMemoryStore is a Store backed by a mutex-guarded map, with a background
// sweep goroutine that clears expired entries.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewInMemoryStore starts a sweep goroutine that prunes expired entries
// every sweepInterval until ctx is cancelled.
func NewInMemoryStore(ctx context.Context, sweepInterval time.Duration) *InMemoryStore {
	s := &InMemoryStore{entries: make(map[string]entry)}
	go s.sweep(ctx, sweepInterval)
	return s
}

func (s *InMemoryStore) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *InMemoryStore) TryAcquire(key, token string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok && time.Now().Before(existing.expiresAt) {
		return false
	}
	s.entries[key] = entry{token: token, expiresAt: time.Now().Add(ttl)}
	return true
}

func (s *InMemoryStore) Release(key, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	if !ok || existing.token != token {
		return false
	}
	delete(s.entries, key)
	return true
}

func (s *InMemoryStore) Extend(key, token string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	if !ok || existing.token != token {
		return false
	}
	existing.expiresAt = time.Now().Add(ttl)
	s.entries[key] = existing
	return true
}

func (s *InMemoryStore) IsLocked(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	return ok && time.Now().Before(existing.expiresAt)
}

// DistributedLock wraps a Store with a single key and a unique token
// identifying this holder, so a release or extend only ever affects a lock
// this instance itself acquired (spec.md's P8: "only the acquirer with a
// matching token can release or extend").
type DistributedLock struct {
	store    Store
	key      string
	ttl      time.Duration
	token    string
	acquired bool

	// Logger receives the warning Release logs on a token mismatch. Callers
	// may assign it after New returns; a nil Logger discards the warning.
	Logger *zap.Logger
}

// New builds a lock over key with the given ttl, minting a fresh holder
// token.
func New(store Store, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{store: store, key: "lock:" + key, ttl: ttl, token: uuid.NewString(), Logger: zap.NewNop()}
}

func (l *DistributedLock) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Acquire attempts to claim the lock. When blocking, it retries with
// exponential backoff (bounded at 3 attempts, per the ambient retry
// policy) until ctx is cancelled or the attempts are exhausted.
func (l *DistributedLock) Acquire(ctx context.Context, blocking bool) error {
	if l.store.TryAcquire(l.key, l.token, l.ttl) {
		l.acquired = true
		return nil
	}
	if !blocking {
		return rerrors.New(rerrors.LockAcquisitionFailed, "lock "+l.key+" held by another holder")
	}

	err := retry.Do(
		func() error {
			if l.store.TryAcquire(l.key, l.token, l.ttl) {
				return nil
			}
			return rerrors.New(rerrors.LockAcquisitionFailed, "lock "+l.key+" still held")
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return rerrors.Wrap(rerrors.LockAcquisitionFailed, "could not acquire lock "+l.key, err)
	}
	l.acquired = true
	return nil
}

// Release frees the lock if this instance still holds it. A token mismatch
// (the TTL lapsed and another holder claimed the key before this call) is
// logged at warn and not returned as an error: release runs after the
// critical section is already finished, so the caller has no remaining
// work to gate on the outcome (spec.md §7).
func (l *DistributedLock) Release() error {
	if !l.acquired {
		return nil
	}
	if !l.store.Release(l.key, l.token) {
		l.logger().Warn("lock not held on release", zap.String("key", l.key))
		l.acquired = false
		return nil
	}
	l.acquired = false
	return nil
}

// Extend resets the lock's ttl, keeping it alive for a long-running
// operation.
func (l *DistributedLock) Extend(ttl time.Duration) error {
	if !l.acquired {
		return rerrors.New(rerrors.LockNotHeld, "cannot extend a lock that is not acquired")
	}
	if !l.store.Extend(l.key, l.token, ttl) {
		return rerrors.New(rerrors.LockNotHeld, "lock "+l.key+" is not held by this instance")
	}
	return nil
}

// IsLocked reports whether the lock is currently held by anyone.
func (l *DistributedLock) IsLocked() bool {
	return l.store.IsLocked(l.key)
}

// WithLock acquires key, runs fn, and releases the lock regardless of fn's
// outcome, mirroring the source's distributed_lock context manager.
func WithLock(ctx context.Context, store Store, key string, ttl time.Duration, fn func() error) error {
	l := New(store, key, ttl)
	if err := l.Acquire(ctx, true); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
