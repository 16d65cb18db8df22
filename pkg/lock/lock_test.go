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

package lock

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestAcquireNonBlockingFailsWhenHeldByAnother(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewInMemoryStore(ctx, time.Hour)

	first := New(store, "swap:1", 30*time.Second)
	g.Expect(first.Acquire(ctx, false)).To(Succeed())

	second := New(store, "swap:1", 30*time.Second)
	err := second.Acquire(ctx, false)

	g.Expect(err).ToNot(BeNil())
}

func TestReleaseOnlyAffectsOwnToken(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewInMemoryStore(ctx, time.Hour)

	first := New(store, "swap:2", 30*time.Second)
	g.Expect(first.Acquire(ctx, false)).To(Succeed())

	second := New(store, "swap:2", 30*time.Second)
	err := second.Release()

	g.Expect(err).To(BeNil()) // second never acquired, Release is a no-op
	g.Expect(store.IsLocked("lock:swap:2")).To(BeTrue())

	g.Expect(first.Release()).To(Succeed())
	g.Expect(store.IsLocked("lock:swap:2")).To(BeFalse())
}

func TestReleaseOnTokenMismatchIsLoggedNotRaised(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewInMemoryStore(ctx, time.Hour)

	first := New(store, "swap:5", 10*time.Millisecond)
	g.Expect(first.Acquire(ctx, false)).To(Succeed())
	time.Sleep(20 * time.Millisecond) // let the TTL lapse

	second := New(store, "swap:5", 30*time.Second)
	g.Expect(second.Acquire(ctx, false)).To(Succeed())

	// first still believes it holds the lock, but the store now holds
	// second's token: Release must warn, not raise, on this mismatch.
	err := first.Release()
	g.Expect(err).To(BeNil())
	g.Expect(store.IsLocked("lock:swap:5")).To(BeTrue(), "release on a mismatched token must not clear another holder's lock")
}

func TestExtendFailsWhenNotHeld(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewInMemoryStore(ctx, time.Hour)

	l := New(store, "swap:3", 30*time.Second)
	err := l.Extend(time.Minute)

	g.Expect(err).ToNot(BeNil())
}

func TestWithLockRunsFnAndReleases(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewInMemoryStore(ctx, time.Hour)

	ran := false
	err := WithLock(ctx, store, "swap:4", 30*time.Second, func() error {
		ran = true
		return nil
	})

	g.Expect(err).To(BeNil())
	g.Expect(ran).To(BeTrue())
	g.Expect(store.IsLocked("lock:swap:4")).To(BeFalse())
}

func TestIdempotencyStoreDetectsDuplicateByContentHash(t *testing.T) {
	g := NewWithT(t)

	store := NewIdempotencyStore()
	payload := map[string]string{"swap_id": "123"}

	_, duplicate := store.IsDuplicate("swap_execute_123", payload)
	g.Expect(duplicate).To(BeFalse())

	store.MarkCompleted("swap_execute_123", payload, "ok", time.Hour)

	result, duplicate := store.IsDuplicate("swap_execute_123", payload)
	g.Expect(duplicate).To(BeTrue())
	g.Expect(result).To(Equal("ok"))
}

func TestIdempotencyStoreTreatsDifferentPayloadAsNewOperation(t *testing.T) {
	g := NewWithT(t)

	store := NewIdempotencyStore()
	store.MarkCompleted("swap_execute_123", map[string]string{"swap_id": "123"}, "ok", time.Hour)

	_, duplicate := store.IsDuplicate("swap_execute_123", map[string]string{"swap_id": "456"})

	g.Expect(duplicate).To(BeFalse())
}
