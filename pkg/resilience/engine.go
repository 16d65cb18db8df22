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
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
)

// MetricsSample is one tick's worth of observed system load, fed to Engine
// by whatever component tracks live bookings (spec.md §4.5.1).
type MetricsSample struct {
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalCapacity    float64
	UtilizedCapacity float64
	NumServers       int
	ArrivalRate      float64
	ServiceRate      float64
	N1Pass           bool
	N2Pass           bool
}

// Engine ties the utilization monitor, defense-level mapping, fallback
// registry, and sacrifice hierarchy into a single tick loop. A Run never
// returns an error: failures become ResilienceEvents on the output channel,
// never exceptions that propagate to the caller (spec.md §7).
type Engine struct {
	Monitor              UtilizationMonitor
	Fallbacks            *FallbackRegistry
	Sacrifice            *SacrificeHierarchy
	Sink                 AuditSink
	AutoFallbackScenario string // scenario tag auto-activated at CONTAINMENT+
	HistoryWindow        int    // snapshots retained for AnalyzeTrend, 0 or less means 28

	history []Snapshot
}

// NewEngine wires a Fallbacks registry and Sacrifice hierarchy sharing sink
// as their audit destination.
func NewEngine(sink AuditSink) *Engine {
	return &Engine{
		Fallbacks: NewFallbackRegistry(sink),
		Sacrifice: NewSacrificeHierarchy(sink),
		Sink:      sink,
	}
}

// Run consumes metricsCh until it closes or ctx is cancelled, emitting one
// ResilienceHealthCheck-derived event per sample on the returned channel.
// The returned channel closes when Run returns.
func (e *Engine) Run(ctx context.Context, metricsCh <-chan MetricsSample) <-chan model.ResilienceEvent {
	events := make(chan model.ResilienceEvent)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case sample, ok := <-metricsCh:
				if !ok {
					return
				}
				event := e.tick(sample)
				if e.Sink != nil {
					e.Sink.RecordEvent(event)
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}

// tick processes a single sample into a health check, auto-activating a
// fallback when defense escalates to CONTAINMENT or worse and a scenario is
// configured.
func (e *Engine) tick(sample MetricsSample) model.ResilienceEvent {
	snapshot := e.Monitor.CalculateSnapshot(sample.PeriodStart, sample.PeriodEnd, sample.TotalCapacity, sample.UtilizedCapacity, sample.NumServers, sample.ArrivalRate, sample.ServiceRate)
	e.recordSnapshot(snapshot)

	utilLevel := UtilizationLevelFor(snapshot.TrafficIntensity)
	hasFallback := e.Fallbacks != nil && e.Fallbacks.HasActiveFallback()
	defenseLevel := DeriveDefenseLevel(utilLevel, sample.N1Pass, sample.N2Pass, hasFallback)

	if defenseLevel == model.DefenseContainment || defenseLevel == model.DefenseEmergency {
		e.maybeAutoActivateFallback(snapshot)
	}

	check := model.ResilienceHealthCheck{
		ID:                uuid.NewString(),
		Timestamp:         snapshot.Timestamp,
		UtilizationLevel:  utilLevel,
		DefenseLevel:      defenseLevel,
		LoadSheddingLevel: e.currentLoadSheddingLevel(),
		N1Pass:            sample.N1Pass,
		N2Pass:            sample.N2Pass,
		ActiveFallbacks:   e.activeFallbackTags(),
		Crisis:            defenseLevel == model.DefenseEmergency,
		Metrics: map[string]any{
			"traffic_intensity": snapshot.TrafficIntensity,
			"queue_length":      snapshot.QueueLength,
			"wait_time":         snapshot.WaitTime,
		},
	}

	return model.ResilienceEvent{
		ID:        uuid.NewString(),
		Timestamp: check.Timestamp,
		Kind:      "health-check",
		Message:   string(defenseLevel),
		Metrics: map[string]any{
			"health_check": check,
		},
	}
}

func (e *Engine) maybeAutoActivateFallback(snapshot Snapshot) {
	if e.Fallbacks == nil || e.AutoFallbackScenario == "" || e.Fallbacks.HasActiveFallback() {
		return
	}
	_, _, _ = e.Fallbacks.Activate(e.AutoFallbackScenario, 1.0-snapshot.TrafficIntensity)
}

func (e *Engine) currentLoadSheddingLevel() model.LoadSheddingLevel {
	if e.Sacrifice == nil {
		return model.LoadSheddingNormal
	}
	return e.Sacrifice.Current()
}

func (e *Engine) activeFallbackTags() []string {
	if e.Fallbacks == nil {
		return nil
	}
	tags := make([]string, 0, len(e.Fallbacks.active))
	for tag := range e.Fallbacks.active {
		tags = append(tags, tag)
	}
	return tags
}

// recordSnapshot appends to the trend history, trimming to HistoryWindow
// (or 28 when unset) entries.
func (e *Engine) recordSnapshot(s Snapshot) {
	e.history = append(e.history, s)
	limit := e.HistoryWindow
	if limit <= 0 {
		limit = 28
	}
	if len(e.history) > limit {
		e.history = e.history[len(e.history)-limit:]
	}
}

// Trend reports AnalyzeTrend over the retained history.
func (e *Engine) Trend() Trend {
	return AnalyzeTrend(e.history)
}
