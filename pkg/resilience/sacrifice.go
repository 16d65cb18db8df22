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
)

// ProtectionTier is the closed, ordered set of activity classes the
// sacrifice hierarchy protects, tier 1 sheltered longest (spec.md §4.5.5).
type ProtectionTier int

const (
	TierDirectPatientCare ProtectionTier = iota + 1
	TierContinuityClinics
	TierScheduledProcedures
	TierEducationalConferences
	TierAdministrativeTime
	TierQualityImprovement
)

// loadSheddingOrder is the escalation ladder NORMAL → ... → CRITICAL.
var loadSheddingOrder = []model.LoadSheddingLevel{
	model.LoadSheddingNormal,
	model.LoadSheddingYellow,
	model.LoadSheddingOrange,
	model.LoadSheddingRed,
	model.LoadSheddingBlack,
	model.LoadSheddingCritical,
}

// tiersShedAtLevel maps each load-shedding level to the tiers suspended at
// or above that level, proceeding from tier 6 upward as the level
// escalates (spec.md §4.5.5).
var tiersShedAtLevel = map[model.LoadSheddingLevel][]ProtectionTier{
	model.LoadSheddingNormal:   {},
	model.LoadSheddingYellow:   {TierQualityImprovement},
	model.LoadSheddingOrange:   {TierQualityImprovement, TierAdministrativeTime},
	model.LoadSheddingRed:      {TierQualityImprovement, TierAdministrativeTime, TierEducationalConferences},
	model.LoadSheddingBlack:    {TierQualityImprovement, TierAdministrativeTime, TierEducationalConferences, TierScheduledProcedures},
	model.LoadSheddingCritical: {TierQualityImprovement, TierAdministrativeTime, TierEducationalConferences, TierScheduledProcedures, TierContinuityClinics},
}

// SacrificeHierarchy tracks the current load-shedding level and produces
// SacrificeDecision audit records on transition.
type SacrificeHierarchy struct {
	current model.LoadSheddingLevel
	sink    AuditSink
}

// NewSacrificeHierarchy starts at NORMAL.
func NewSacrificeHierarchy(sink AuditSink) *SacrificeHierarchy {
	return &SacrificeHierarchy{current: model.LoadSheddingNormal, sink: sink}
}

// Current reports the active load-shedding level.
func (h *SacrificeHierarchy) Current() model.LoadSheddingLevel { return h.current }

// Transition moves to target, recording a SacrificeDecision listing the
// activities suspended and protected at the new level.
func (h *SacrificeHierarchy) Transition(target model.LoadSheddingLevel, reason string, method model.SacrificeMethod, approver string) model.SacrificeDecision {
	suspended := tiersShedAtLevel[target]
	protected := protectedTiers(suspended)

	decision := model.SacrificeDecision{
		ID:                  uuid.NewString(),
		Timestamp:           time.Now(),
		FromLevel:           h.current,
		ToLevel:             target,
		Reason:              reason,
		Method:              method,
		Approver:            approver,
		ActivitiesSuspended: tierNames(suspended),
		ActivitiesProtected: tierNames(protected),
	}
	h.current = target
	if h.sink != nil {
		h.sink.RecordSacrificeDecision(decision)
	}
	return decision
}

func protectedTiers(suspended []ProtectionTier) []ProtectionTier {
	suspendedSet := make(map[ProtectionTier]bool, len(suspended))
	for _, t := range suspended {
		suspendedSet[t] = true
	}
	var out []ProtectionTier
	for t := TierDirectPatientCare; t <= TierQualityImprovement; t++ {
		if !suspendedSet[t] {
			out = append(out, t)
		}
	}
	return out
}

var tierDisplayNames = map[ProtectionTier]string{
	TierDirectPatientCare:      "direct-patient-care",
	TierContinuityClinics:      "continuity-clinics",
	TierScheduledProcedures:    "scheduled-procedures",
	TierEducationalConferences: "educational-conferences",
	TierAdministrativeTime:     "administrative-time",
	TierQualityImprovement:     "quality-improvement-projects",
}

func tierNames(tiers []ProtectionTier) []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierDisplayNames[t])
	}
	return out
}

// EscalationIndex returns target's position in loadSheddingOrder, or -1 if
// unrecognized. Exposed so callers can compare levels by severity.
func EscalationIndex(level model.LoadSheddingLevel) int {
	for i, l := range loadSheddingOrder {
		if l == level {
			return i
		}
	}
	return -1
}
