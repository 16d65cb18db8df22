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

// Package store defines the abstract persistence boundary. The HTTP route
// surface, a real database driver, and report-file emission are out of
// scope; this package ships only the interfaces those collaborators would
// implement plus an in-memory reference implementation sufficient for the
// CLI and for tests.
package store

import (
	"context"
	"sync"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
)

// Store is the abstract persistence boundary for domain entities. A real
// implementation would back onto a database; the in-memory reference
// implementation below backs onto maps guarded by a mutex.
type Store interface {
	PutPerson(ctx context.Context, p model.Person) error
	GetPerson(ctx context.Context, id string) (model.Person, error)
	ListPersons(ctx context.Context) ([]model.Person, error)

	PutBlock(ctx context.Context, b model.Block) error
	GetBlock(ctx context.Context, id string) (model.Block, error)
	ListBlocks(ctx context.Context) ([]model.Block, error)

	PutAssignment(ctx context.Context, a model.Assignment) error
	GetAssignment(ctx context.Context, id string) (model.Assignment, error)
	ListAssignments(ctx context.Context, runID string) ([]model.Assignment, error)

	PutRun(ctx context.Context, r model.ScheduleRun) error
	GetRun(ctx context.Context, id string) (model.ScheduleRun, error)

	AppendResilienceEvent(ctx context.Context, e model.ResilienceEvent) error
	ListResilienceEvents(ctx context.Context) ([]model.ResilienceEvent, error)
}

// InMemory is a reference Store implementation backed by plain maps. It is
// the only Store implementation this module ships; a real deployment would
// substitute a database-backed implementation against the same interface.
type InMemory struct {
	mu sync.RWMutex

	persons     map[string]model.Person
	blocks      map[string]model.Block
	assignments map[string]model.Assignment
	runs        map[string]model.ScheduleRun
	events      []model.ResilienceEvent
}

// NewInMemory constructs an empty in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{
		persons:     make(map[string]model.Person),
		blocks:      make(map[string]model.Block),
		assignments: make(map[string]model.Assignment),
		runs:        make(map[string]model.ScheduleRun),
	}
}

func (s *InMemory) PutPerson(_ context.Context, p model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
	return nil
}

func (s *InMemory) GetPerson(_ context.Context, id string) (model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return model.Person{}, rerrors.New(rerrors.InvalidInput, "person not found: "+id)
	}
	return p, nil
}

func (s *InMemory) ListPersons(_ context.Context) ([]model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Person, 0, len(s.persons))
	for _, p := range s.persons {
		out = append(out, p)
	}
	return out, nil
}

func (s *InMemory) PutBlock(_ context.Context, b model.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[b.ID] = b
	return nil
}

func (s *InMemory) GetBlock(_ context.Context, id string) (model.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return model.Block{}, rerrors.New(rerrors.InvalidInput, "block not found: "+id)
	}
	return b, nil
}

func (s *InMemory) ListBlocks(_ context.Context) ([]model.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	return out, nil
}

func (s *InMemory) PutAssignment(_ context.Context, a model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

func (s *InMemory) GetAssignment(_ context.Context, id string) (model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return model.Assignment{}, rerrors.New(rerrors.InvalidInput, "assignment not found: "+id)
	}
	return a, nil
}

// ListAssignments returns every assignment currently stored. The runID
// parameter is accepted for interface parity with a real store that would
// partition assignments by run; the in-memory reference keeps a single flat
// namespace and ignores it.
func (s *InMemory) ListAssignments(_ context.Context, _ string) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (s *InMemory) PutRun(_ context.Context, r model.ScheduleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

func (s *InMemory) GetRun(_ context.Context, id string) (model.ScheduleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return model.ScheduleRun{}, rerrors.New(rerrors.InvalidInput, "run not found: "+id)
	}
	return r, nil
}

func (s *InMemory) AppendResilienceEvent(_ context.Context, e model.ResilienceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *InMemory) ListResilienceEvents(_ context.Context) ([]model.ResilienceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ResilienceEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}
