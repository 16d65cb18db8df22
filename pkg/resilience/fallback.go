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

package resilience

import (
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
)

// AuditSink receives resilience audit records. Persistence is external to
// this module (spec.md §1 scope); the caller supplies a Store-backed
// implementation.
type AuditSink interface {
	RecordFallbackActivation(model.FallbackActivation)
	RecordSacrificeDecision(model.SacrificeDecision)
	RecordEvent(model.ResilienceEvent)
}

// FallbackRegistry holds pre-computed fallback schedules indexed by
// scenario tag (spec.md §4.5.4).
type FallbackRegistry struct {
	schedules map[string][]model.Assignment
	active    map[string]*model.FallbackActivation
	sink      AuditSink
}

// NewFallbackRegistry returns an empty registry emitting audit records
// through sink.
func NewFallbackRegistry(sink AuditSink) *FallbackRegistry {
	return &FallbackRegistry{
		schedules: make(map[string][]model.Assignment),
		active:    make(map[string]*model.FallbackActivation),
		sink:      sink,
	}
}

// Register stores a pre-computed fallback schedule under scenarioTag.
func (r *FallbackRegistry) Register(scenarioTag string, assignments []model.Assignment) {
	r.schedules[scenarioTag] = assignments
}

// Activate triggers the fallback schedule for scenarioTag, automatically
// (defense level ≥ CONTAINMENT) or manually. Returns the assignments to
// apply plus the FallbackActivation audit record (P10).
func (r *FallbackRegistry) Activate(scenarioTag string, coverageRate float64) (model.FallbackActivation, []model.Assignment, error) {
	schedule, ok := r.schedules[scenarioTag]
	if !ok {
		return model.FallbackActivation{}, nil, rerrors.New(rerrors.InvalidInput, "no fallback schedule registered for "+scenarioTag)
	}

	activation := model.FallbackActivation{
		ID:              uuid.NewString(),
		ScenarioTag:     scenarioTag,
		ActivatedAt:     time.Now(),
		AssignmentCount: len(schedule),
		CoverageRate:    coverageRate,
	}
	r.active[scenarioTag] = &activation
	if r.sink != nil {
		r.sink.RecordFallbackActivation(activation)
	}
	return activation, schedule, nil
}

// Deactivate restores the previous schedule (caller's responsibility) and
// records a deactivation reason, completing the FallbackActivation row
// (P10: activation-time ≤ deactivation-time).
func (r *FallbackRegistry) Deactivate(scenarioTag, reason string) (model.FallbackActivation, error) {
	activation, ok := r.active[scenarioTag]
	if !ok {
		return model.FallbackActivation{}, rerrors.New(rerrors.InvalidInput, "no active fallback for "+scenarioTag)
	}
	now := time.Now()
	activation.DeactivatedAt = &now
	activation.DeactivationReason = reason
	delete(r.active, scenarioTag)
	if r.sink != nil {
		r.sink.RecordFallbackActivation(*activation)
	}
	return *activation, nil
}

// HasActiveFallback reports whether any scenario currently has an active
// fallback, the signal DeriveDefenseLevel consumes.
func (r *FallbackRegistry) HasActiveFallback() bool {
	return len(r.active) > 0
}
