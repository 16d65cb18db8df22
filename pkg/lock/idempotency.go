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
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// idempotencyRecord pairs a cached result with the content hash of the
// payload that produced it and the instant the record expires.
type idempotencyRecord struct {
	contentHash uint64
	result      any
	expiresAt   time.Time
}

// IdempotencyStore prevents duplicate execution of an operation keyed by an
// idempotency key plus a content hash of its payload (P9), ported from
// original_source/backend/app/db/distributed_lock.py's IdempotencyManager.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idempotencyRecord
}

// NewIdempotencyStore returns an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[string]idempotencyRecord)}
}

// IsDuplicate reports whether operationID was already marked complete with
// a payload hashing to the same content, and if so returns its cached
// result. A matching key with a different payload hash is treated as a new
// operation, not a duplicate.
func (s *IdempotencyStore) IsDuplicate(operationID string, payload any) (result any, duplicate bool) {
	hash, err := hashstructure.Hash(payload, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[operationID]
	if !ok || time.Now().After(record.expiresAt) {
		return nil, false
	}
	if record.contentHash != hash {
		return nil, false
	}
	return record.result, true
}

// MarkCompleted records operationID as done, caching result under
// operationID together with the payload's content hash for ttl. A later
// call for the same operationID replaces the record.
func (s *IdempotencyStore) MarkCompleted(operationID string, payload any, result any, ttl time.Duration) {
	hash, err := hashstructure.Hash(payload, hashstructure.FormatV2, nil)
	if err != nil {
		hash = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[operationID] = idempotencyRecord{
		contentHash: hash,
		result:      result,
		expiresAt:   time.Now().Add(ttl),
	}
}
