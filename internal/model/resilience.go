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

package model

import "time"

// UtilizationLevel is the closed set of traffic-intensity thresholds.
type UtilizationLevel string

const (
	UtilizationGreen  UtilizationLevel = "GREEN"
	UtilizationYellow UtilizationLevel = "YELLOW"
	UtilizationOrange UtilizationLevel = "ORANGE"
	UtilizationRed    UtilizationLevel = "RED"
	UtilizationBlack  UtilizationLevel = "BLACK"
)

// DefenseLevel is the closed set of defense-in-depth tiers.
type DefenseLevel string

const (
	DefensePrevention    DefenseLevel = "PREVENTION"
	DefenseControl       DefenseLevel = "CONTROL"
	DefenseSafetySystems DefenseLevel = "SAFETY-SYSTEMS"
	DefenseContainment   DefenseLevel = "CONTAINMENT"
	DefenseEmergency     DefenseLevel = "EMERGENCY"
)

// LoadSheddingLevel is the closed set of sacrifice-hierarchy escalation
// tiers.
type LoadSheddingLevel string

const (
	LoadSheddingNormal   LoadSheddingLevel = "NORMAL"
	LoadSheddingYellow   LoadSheddingLevel = "YELLOW"
	LoadSheddingOrange   LoadSheddingLevel = "ORANGE"
	LoadSheddingRed      LoadSheddingLevel = "RED"
	LoadSheddingBlack    LoadSheddingLevel = "BLACK"
	LoadSheddingCritical LoadSheddingLevel = "CRITICAL"
)

// ResilienceHealthCheck is a point-in-time snapshot of system health.
type ResilienceHealthCheck struct {
	ID                string
	Timestamp         time.Time
	UtilizationLevel  UtilizationLevel
	DefenseLevel      DefenseLevel
	LoadSheddingLevel LoadSheddingLevel
	N1Pass            bool
	N2Pass            bool
	ActiveFallbacks   []string
	Crisis            bool
	Metrics           map[string]any
}

// SacrificeMethod is the closed set of ways a SacrificeDecision can be
// triggered.
type SacrificeMethod string

const (
	SacrificeMethodAutomatic         SacrificeMethod = "automatic"
	SacrificeMethodManual            SacrificeMethod = "manual"
	SacrificeMethodEmergencyOverride SacrificeMethod = "emergency-override"
)

// SacrificeDecision audits a load-shedding transition.
type SacrificeDecision struct {
	ID                  string
	Timestamp           time.Time
	FromLevel           LoadSheddingLevel
	ToLevel             LoadSheddingLevel
	Reason              string
	Method              SacrificeMethod
	Approver            string
	ActivitiesSuspended []string
	ActivitiesProtected []string
	RecoveredAt         *time.Time
}

// FallbackActivation audits a fallback schedule activation/deactivation.
type FallbackActivation struct {
	ID                 string
	ScenarioTag        string
	ActivatedAt        time.Time
	AssignmentCount    int
	CoverageRate       float64
	DeactivatedAt      *time.Time
	DeactivationReason string
}

// VulnerabilityRecord audits a contingency (N-1/N-2) finding.
type VulnerabilityRecord struct {
	ID        string
	Timestamp time.Time
	PersonIDs []string // one entry for N-1, two for N-2
	Fatal     bool
	Evidence  string
}

// ResilienceEvent is a generic audit row for resilience-engine state
// transitions that are not already covered by the more specific record
// types above (e.g. defense-level transitions, tick summaries).
type ResilienceEvent struct {
	ID        string
	Timestamp time.Time
	Kind      string
	Message   string
	Metrics   map[string]any
}
