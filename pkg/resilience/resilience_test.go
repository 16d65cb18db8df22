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
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

func TestErlangCIsMonotonicInTrafficIntensity(t *testing.T) {
	g := NewWithT(t)

	low := ErlangC(3.0, 1.0, 5)
	high := ErlangC(4.8, 1.0, 5)

	g.Expect(high).To(BeNumerically(">", low))
}

func TestErlangCMatchesKnownScenario(t *testing.T) {
	g := NewWithT(t)

	// c=5, lambda=4.8/hr, mu=1.0/hr -> rho=0.96 -> RED, defense >= CONTAINMENT-eligible.
	rho := 4.8 / (5 * 1.0)
	level := UtilizationLevelFor(rho)

	g.Expect(rho).To(BeNumerically("~", 0.96, 0.001))
	g.Expect(level).To(Equal(model.UtilizationRed))
}

func TestUtilizationLevelThresholdLadder(t *testing.T) {
	g := NewWithT(t)

	g.Expect(UtilizationLevelFor(0.5)).To(Equal(model.UtilizationGreen))
	g.Expect(UtilizationLevelFor(0.80)).To(Equal(model.UtilizationYellow))
	g.Expect(UtilizationLevelFor(0.90)).To(Equal(model.UtilizationOrange))
	g.Expect(UtilizationLevelFor(0.95)).To(Equal(model.UtilizationRed))
	g.Expect(UtilizationLevelFor(0.98)).To(Equal(model.UtilizationBlack))
}

func TestDeriveDefenseLevelEscalatesOnBlackUtilization(t *testing.T) {
	g := NewWithT(t)

	level := DeriveDefenseLevel(model.UtilizationBlack, true, true, false)

	g.Expect(level).To(Equal(model.DefenseEmergency))
}

func TestDeriveDefenseLevelContainmentWhenFallbackActive(t *testing.T) {
	g := NewWithT(t)

	level := DeriveDefenseLevel(model.UtilizationGreen, true, true, true)

	g.Expect(level).To(Equal(model.DefenseContainment))
}

func contingencyFixture() constraint.Context {
	persons := map[string]model.Person{
		"fac-1": {ID: "fac-1", Kind: model.PersonKindFaculty, FacultyRole: model.FacultyRoleCoreFaculty},
		"fac-2": {ID: "fac-2", Kind: model.PersonKindFaculty, FacultyRole: model.FacultyRoleCoreFaculty},
	}
	blocks := map[string]model.Block{
		"b1": {ID: "b1", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), TimeOfDay: model.AM, BlockNumber: 1},
	}
	assignments := []model.Assignment{
		{ID: "a1", BlockID: "b1", PersonID: "fac-1", Role: model.RolePrimary},
	}
	return constraint.Context{Persons: persons, Blocks: blocks, Assignments: assignments}
}

func TestContingencyAnalyzerFlagsSinglePointOfCoverage(t *testing.T) {
	g := NewWithT(t)

	analyzer := ContingencyAnalyzer{}
	report := analyzer.Analyze(contingencyFixture())

	g.Expect(report.CentralityRank).ToNot(BeEmpty())
	g.Expect(report.CentralityRank[0].PersonID).To(Equal("fac-1"))
	g.Expect(report.CentralityRank[0].UniqueCoverage).To(Equal(1))
}

type recordingSink struct {
	activations []model.FallbackActivation
	decisions   []model.SacrificeDecision
	events      []model.ResilienceEvent
}

func (s *recordingSink) RecordFallbackActivation(a model.FallbackActivation) { s.activations = append(s.activations, a) }
func (s *recordingSink) RecordSacrificeDecision(d model.SacrificeDecision)   { s.decisions = append(s.decisions, d) }
func (s *recordingSink) RecordEvent(e model.ResilienceEvent)                { s.events = append(s.events, e) }

func TestFallbackActivateThenDeactivateOrdersTimestamps(t *testing.T) {
	g := NewWithT(t)

	sink := &recordingSink{}
	registry := NewFallbackRegistry(sink)
	registry.Register("single-faculty-loss", []model.Assignment{{ID: "a1"}})

	activation, schedule, err := registry.Activate("single-faculty-loss", 0.9)
	g.Expect(err).To(BeNil())
	g.Expect(schedule).To(HaveLen(1))
	g.Expect(registry.HasActiveFallback()).To(BeTrue())

	deactivation, err := registry.Deactivate("single-faculty-loss", "capacity restored")
	g.Expect(err).To(BeNil())
	g.Expect(deactivation.DeactivatedAt).ToNot(BeNil())
	g.Expect(deactivation.DeactivatedAt.Before(activation.ActivatedAt)).To(BeFalse())
	g.Expect(registry.HasActiveFallback()).To(BeFalse())
	g.Expect(sink.activations).To(HaveLen(2))
}

func TestFallbackActivateUnknownScenarioErrors(t *testing.T) {
	g := NewWithT(t)

	registry := NewFallbackRegistry(nil)
	_, _, err := registry.Activate("nonexistent", 0.5)

	g.Expect(err).ToNot(BeNil())
}

func TestSacrificeHierarchyEscalatesAndNeverShedsDirectPatientCare(t *testing.T) {
	g := NewWithT(t)

	sink := &recordingSink{}
	h := NewSacrificeHierarchy(sink)

	decision := h.Transition(model.LoadSheddingCritical, "mass casualty event", model.SacrificeMethodEmergencyOverride, "chief-resident")

	g.Expect(h.Current()).To(Equal(model.LoadSheddingCritical))
	g.Expect(decision.ActivitiesProtected).To(ContainElement("direct-patient-care"))
	g.Expect(decision.ActivitiesSuspended).ToNot(ContainElement("direct-patient-care"))
	g.Expect(sink.decisions).To(HaveLen(1))
}

func TestEscalationIndexOrdersLevels(t *testing.T) {
	g := NewWithT(t)

	g.Expect(EscalationIndex(model.LoadSheddingNormal)).To(Equal(0))
	g.Expect(EscalationIndex(model.LoadSheddingCritical)).To(BeNumerically(">", EscalationIndex(model.LoadSheddingRed)))
	g.Expect(EscalationIndex("unknown")).To(Equal(-1))
}

func TestSpinGlassOverlapOfIdenticalConfigurationsIsOne(t *testing.T) {
	g := NewWithT(t)

	spins := []int8{1, -1, 1, 1, -1}
	g.Expect(CalculateOverlap(spins, spins)).To(BeNumerically("~", 1.0, 1e-9))
}

func TestSpinGlassEnsembleProducesDiversityScore(t *testing.T) {
	g := NewWithT(t)

	generator := NewSpinGlassGenerator(12, 1.0, 0.3, 7)
	ensemble := generator.GenerateEnsemble(4, 200)

	g.Expect(ensemble.Configurations).To(HaveLen(4))
	g.Expect(ensemble.DiversityScore).To(BeNumerically(">=", 0.0))
	g.Expect(ensemble.DiversityScore).To(BeNumerically("<=", 1.0))
}

func TestSpinGlassGenerationIsDeterministicForFixedSeed(t *testing.T) {
	g := NewWithT(t)

	a := NewSpinGlassGenerator(10, 1.0, 0.3, 42).GenerateReplica(100, nil)
	b := NewSpinGlassGenerator(10, 1.0, 0.3, 42).GenerateReplica(100, nil)

	g.Expect(a.Spins).To(Equal(b.Spins))
	g.Expect(a.Energy).To(Equal(b.Energy))
}

func TestEngineRunEmitsEventsAndNeverPanicsOnContextCancel(t *testing.T) {
	g := NewWithT(t)

	sink := &recordingSink{}
	engine := NewEngine(sink)
	ctx, cancel := context.WithCancel(context.Background())
	metricsCh := make(chan MetricsSample, 1)

	metricsCh <- MetricsSample{
		PeriodStart: time.Now(), PeriodEnd: time.Now().Add(time.Hour),
		TotalCapacity: 100, UtilizedCapacity: 96,
		NumServers: 5, ArrivalRate: 4.8, ServiceRate: 1.0,
		N1Pass: true, N2Pass: true,
	}

	events := engine.Run(ctx, metricsCh)

	select {
	case ev := <-events:
		g.Expect(ev.Kind).To(Equal("health-check"))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for health check event")
	}

	cancel()
	close(metricsCh)

	_, stillOpen := <-events
	g.Expect(stillOpen).To(BeFalse())
}
