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

// Package homeostasis maintains a registry of named feedback loops, each
// with a target setpoint, a bounded value history, and a correction
// policy, ported from
// original_source/backend/app/services/resilience/homeostasis.py.
package homeostasis

import (
	"time"

	"github.com/google/uuid"
)

// historyCapacity bounds each loop's value_history ring buffer.
const historyCapacity = 90

// Setpoint is a named target value and the tolerance a FeedbackLoop
// considers in-range.
type Setpoint struct {
	Name        string
	TargetValue float64
	Tolerance   float64
}

// CheckDeviation reports the signed distance of value from TargetValue and
// whether it exceeds Tolerance.
func (s Setpoint) CheckDeviation(value float64) (deviation float64, outOfTolerance bool) {
	deviation = value - s.TargetValue
	abs := deviation
	if abs < 0 {
		abs = -abs
	}
	return deviation, abs > s.Tolerance
}

// DefaultSetpoints are the five recognized feedback loops from spec.md
// §4.6, unchanged from the source's target/tolerance pairs.
func DefaultSetpoints() []Setpoint {
	return []Setpoint{
		{Name: "coverage-rate", TargetValue: 0.95, Tolerance: 0.05},
		{Name: "faculty-utilization", TargetValue: 0.75, Tolerance: 0.10},
		{Name: "workload-balance", TargetValue: 0.15, Tolerance: 0.05},
		{Name: "schedule-stability", TargetValue: 0.95, Tolerance: 0.05},
		{Name: "acgme-compliance", TargetValue: 1.0, Tolerance: 0.02},
	}
}

// valueSample is one (timestamp, value) entry in a loop's history.
type valueSample struct {
	at    time.Time
	value float64
}

// FeedbackLoop tracks one Setpoint's history and correction state.
type FeedbackLoop struct {
	Setpoint              Setpoint
	CorrectionThreshold   int // consecutive deviations before a correction fires
	valueHistory          []valueSample
	ConsecutiveDeviations int
	TotalCorrections      int
	LastChecked           time.Time
}

// NewFeedbackLoop starts a loop at zero history, correcting after
// correctionThreshold consecutive out-of-tolerance observations.
func NewFeedbackLoop(setpoint Setpoint, correctionThreshold int) *FeedbackLoop {
	return &FeedbackLoop{Setpoint: setpoint, CorrectionThreshold: correctionThreshold}
}

// Record appends value to the history (bounded to historyCapacity),
// updates the consecutive-deviation counter, and reports whether this
// observation crossed the correction threshold.
func (l *FeedbackLoop) Record(now time.Time, value float64) (deviation float64, correctionFired bool) {
	l.valueHistory = append(l.valueHistory, valueSample{at: now, value: value})
	if len(l.valueHistory) > historyCapacity {
		l.valueHistory = l.valueHistory[len(l.valueHistory)-historyCapacity:]
	}
	l.LastChecked = now

	deviation, outOfTolerance := l.Setpoint.CheckDeviation(value)
	if outOfTolerance {
		l.ConsecutiveDeviations++
	} else {
		l.ConsecutiveDeviations = 0
	}

	if l.CorrectionThreshold > 0 && l.ConsecutiveDeviations >= l.CorrectionThreshold {
		l.TotalCorrections++
		l.ConsecutiveDeviations = 0
		correctionFired = true
	}
	return deviation, correctionFired
}

// CurrentValue returns the most recent recorded value, or (0, false) if
// the loop has no history yet.
func (l *FeedbackLoop) CurrentValue() (float64, bool) {
	if len(l.valueHistory) == 0 {
		return 0, false
	}
	return l.valueHistory[len(l.valueHistory)-1].value, true
}

// IsImproving reports true when the most recent value is within the
// setpoint's tolerance, or when it is out of tolerance but closer to the
// target than the one before it. Returns false with fewer than two samples.
func (l *FeedbackLoop) IsImproving() bool {
	if len(l.valueHistory) < 2 {
		return false
	}
	last := l.valueHistory[len(l.valueHistory)-1].value
	prev := l.valueHistory[len(l.valueHistory)-2].value
	_, lastOut := l.Setpoint.CheckDeviation(last)
	distLast := absFloat(last - l.Setpoint.TargetValue)
	distPrev := absFloat(prev - l.Setpoint.TargetValue)
	return lastOut && distLast < distPrev || !lastOut
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// AllostasisState is the closed set of overall system states, ordered from
// healthiest to most stressed.
type AllostasisState string

const (
	StateHomeostasis        AllostasisState = "homeostasis"
	StateAdapting           AllostasisState = "adapting"
	StateAllostaticLoad     AllostasisState = "allostatic-load"
	StateAllostaticOverload AllostasisState = "allostatic-overload"
)

// StressFactors are the inputs to AllostaticLoad calculation for a faculty
// member or the system as a whole (spec.md §4.6).
type StressFactors struct {
	ConsecutiveWeekendCalls int
	NightsPastMonth         int
	ScheduleChangesAbsorbed int
	HolidaysWorkedThisYear  int
	OvertimeHoursMonth      float64
	CoverageGapResponses    int
	CrossCoverageEvents     int
}

// AllostasisMetrics is the result of an AllostaticLoad calculation.
type AllostasisMetrics struct {
	EntityID   string
	EntityType string
	Load       float64
	State      AllostasisState
}

// allostasis factor weights: chronic stressors contribute more per unit
// than episodic ones, mirroring the source's weighting of sustained duty
// over one-off disruptions.
const (
	weightConsecutiveWeekendCalls = 0.15
	weightNightsPastMonth         = 0.05
	weightScheduleChangesAbsorbed = 0.08
	weightHolidaysWorkedThisYear  = 0.10
	weightOvertimeHoursMonth      = 0.02
	weightCoverageGapResponses    = 0.12
	weightCrossCoverageEvents     = 0.06
)

// AllostaticLoad computes a cumulative-stress score for entityID (faculty
// ID or "system") and classifies it into an AllostasisState.
func AllostaticLoad(entityID, entityType string, factors StressFactors) AllostasisMetrics {
	load := float64(factors.ConsecutiveWeekendCalls)*weightConsecutiveWeekendCalls +
		float64(factors.NightsPastMonth)*weightNightsPastMonth +
		float64(factors.ScheduleChangesAbsorbed)*weightScheduleChangesAbsorbed +
		float64(factors.HolidaysWorkedThisYear)*weightHolidaysWorkedThisYear +
		factors.OvertimeHoursMonth*weightOvertimeHoursMonth +
		float64(factors.CoverageGapResponses)*weightCoverageGapResponses +
		float64(factors.CrossCoverageEvents)*weightCrossCoverageEvents

	var state AllostasisState
	switch {
	case load >= 3.0:
		state = StateAllostaticOverload
	case load >= 1.5:
		state = StateAllostaticLoad
	case load >= 0.5:
		state = StateAdapting
	default:
		state = StateHomeostasis
	}

	return AllostasisMetrics{EntityID: entityID, EntityType: entityType, Load: load, State: state}
}

// PositiveFeedbackRisk records a detected chain of corrections where one
// loop's correction demonstrably worsened another loop's deviation.
type PositiveFeedbackRisk struct {
	ID            string
	Name          string
	Description   string
	DetectedAt    time.Time
	Trigger       string
	Amplification string
	Consequence   string
	Evidence      string
	Severity      string
	Intervention  string
}

// Status is the Monitor's point-in-time summary, the source of
// HomeostasisReport.
type Status struct {
	Timestamp              time.Time
	OverallState           AllostasisState
	FeedbackLoopsHealthy   int
	FeedbackLoopsDeviating int
	ActiveCorrections      int
	PositiveFeedbackRisks  int
	AverageAllostaticLoad  float64
	Recommendations        []string
}

// Monitor holds the registry of named FeedbackLoops and accumulates
// detected PositiveFeedbackRisks across checks.
type Monitor struct {
	loops                 map[string]*FeedbackLoop
	positiveFeedbackRisks []PositiveFeedbackRisk
	lastAverageLoad       float64
}

// NewMonitor registers DefaultSetpoints, each correcting after 3
// consecutive out-of-tolerance observations.
func NewMonitor() *Monitor {
	m := &Monitor{loops: make(map[string]*FeedbackLoop)}
	for _, sp := range DefaultSetpoints() {
		m.loops[sp.Name] = NewFeedbackLoop(sp, 3)
	}
	return m
}

// FeedbackLoopNames lists the registered loop names.
func (m *Monitor) FeedbackLoopNames() []string {
	names := make([]string, 0, len(m.loops))
	for name := range m.loops {
		names = append(names, name)
	}
	return names
}

// GetFeedbackLoop returns the named loop, or nil if unregistered.
func (m *Monitor) GetFeedbackLoop(name string) *FeedbackLoop {
	return m.loops[name]
}

// Check records currentValues against each matching registered loop,
// detects positive-feedback risk (a correction on one loop coinciding with
// a worsening deviation on another), and returns a Status summary.
func (m *Monitor) Check(now time.Time, currentValues map[string]float64) Status {
	var deviating, correctionsFired int
	correctedNames := make([]string, 0)
	deviationsBefore := make(map[string]float64, len(m.loops))
	for name, loop := range m.loops {
		deviationsBefore[name], _ = loop.Setpoint.CheckDeviation(valueOrTarget(loop))
	}

	for name, value := range currentValues {
		loop, ok := m.loops[name]
		if !ok {
			continue
		}
		deviation, fired := loop.Record(now, value)
		if _, outOfTolerance := loop.Setpoint.CheckDeviation(loop.Setpoint.TargetValue + deviation); outOfTolerance {
			deviating++
		}
		if fired {
			correctionsFired++
			correctedNames = append(correctedNames, name)
		}
	}

	m.detectPositiveFeedbackRisks(now, correctedNames, deviationsBefore)

	healthy := len(m.loops) - deviating
	avgLoad := m.lastAverageLoad

	state := StateHomeostasis
	switch {
	case len(m.positiveFeedbackRisks) > 0:
		state = StateAllostaticOverload
	case deviating > len(m.loops)/2:
		state = StateAllostaticLoad
	case deviating > 0:
		state = StateAdapting
	}

	return Status{
		Timestamp:              now,
		OverallState:           state,
		FeedbackLoopsHealthy:   healthy,
		FeedbackLoopsDeviating: deviating,
		ActiveCorrections:      correctionsFired,
		PositiveFeedbackRisks:  len(m.positiveFeedbackRisks),
		AverageAllostaticLoad:  avgLoad,
		Recommendations:        recommendationsFor(correctedNames),
	}
}

func valueOrTarget(loop *FeedbackLoop) float64 {
	if v, ok := loop.CurrentValue(); ok {
		return v
	}
	return loop.Setpoint.TargetValue
}

// detectPositiveFeedbackRisks flags a loop whose correction fired while
// another loop's deviation grew in the same check, the "chain of
// corrections that worsens another loop" pattern from the source.
func (m *Monitor) detectPositiveFeedbackRisks(now time.Time, correctedNames []string, deviationsBefore map[string]float64) {
	if len(correctedNames) == 0 {
		return
	}
	for name, loop := range m.loops {
		wasCorrected := false
		for _, c := range correctedNames {
			if c == name {
				wasCorrected = true
				break
			}
		}
		if wasCorrected {
			continue
		}
		after, _ := loop.Setpoint.CheckDeviation(valueOrTarget(loop))
		before := deviationsBefore[name]
		if absFloat(after) > absFloat(before)+loop.Setpoint.Tolerance {
			m.positiveFeedbackRisks = append(m.positiveFeedbackRisks, PositiveFeedbackRisk{
				ID:            uuid.NewString(),
				Name:          "correction-induced-deviation",
				Description:   "a correction on another loop coincided with worsening deviation on " + name,
				DetectedAt:    now,
				Trigger:       correctedNames[0],
				Amplification: name,
				Consequence:   "deviation growth exceeded tolerance",
				Evidence:      name,
				Severity:      "medium",
				Intervention:  "review correction policy for " + correctedNames[0],
			})
		}
	}
}

func recommendationsFor(correctedNames []string) []string {
	if len(correctedNames) == 0 {
		return nil
	}
	out := make([]string, 0, len(correctedNames))
	for _, name := range correctedNames {
		out = append(out, "monitor "+name+" after correction")
	}
	return out
}

// PositiveFeedbackRisks returns all detected risks across the Monitor's
// lifetime.
func (m *Monitor) PositiveFeedbackRisks() []PositiveFeedbackRisk {
	return m.positiveFeedbackRisks
}
