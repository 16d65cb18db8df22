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

package homeostasis

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestDefaultSetpointsMatchRecognizedLoops(t *testing.T) {
	g := NewWithT(t)

	sps := DefaultSetpoints()

	g.Expect(sps).To(HaveLen(5))
	names := make([]string, len(sps))
	for i, sp := range sps {
		names[i] = sp.Name
	}
	g.Expect(names).To(ContainElements("coverage-rate", "faculty-utilization", "workload-balance", "schedule-stability", "acgme-compliance"))
}

func TestSetpointCheckDeviationRespectsTolerance(t *testing.T) {
	g := NewWithT(t)

	sp := Setpoint{Name: "coverage-rate", TargetValue: 0.95, Tolerance: 0.05}

	_, outOfTolerance := sp.CheckDeviation(0.93)
	g.Expect(outOfTolerance).To(BeFalse())

	_, outOfTolerance = sp.CheckDeviation(0.80)
	g.Expect(outOfTolerance).To(BeTrue())
}

func TestFeedbackLoopFiresCorrectionAfterConsecutiveDeviations(t *testing.T) {
	g := NewWithT(t)

	loop := NewFeedbackLoop(Setpoint{Name: "coverage-rate", TargetValue: 0.95, Tolerance: 0.05}, 3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, fired := loop.Record(now, 0.80)
	g.Expect(fired).To(BeFalse())
	_, fired = loop.Record(now.Add(time.Hour), 0.80)
	g.Expect(fired).To(BeFalse())
	_, fired = loop.Record(now.Add(2*time.Hour), 0.80)
	g.Expect(fired).To(BeTrue())
	g.Expect(loop.TotalCorrections).To(Equal(1))
	g.Expect(loop.ConsecutiveDeviations).To(Equal(0))
}

func TestAllostaticLoadClassifiesOverload(t *testing.T) {
	g := NewWithT(t)

	metrics := AllostaticLoad("fac-1", "faculty", StressFactors{
		ConsecutiveWeekendCalls: 8,
		NightsPastMonth:         10,
		CoverageGapResponses:    12,
	})

	g.Expect(metrics.State).To(Equal(StateAllostaticOverload))
	g.Expect(metrics.Load).To(BeNumerically(">", 0))
}

func TestAllostaticLoadClassifiesHomeostasisWhenUnstressed(t *testing.T) {
	g := NewWithT(t)

	metrics := AllostaticLoad("system", "system", StressFactors{})

	g.Expect(metrics.State).To(Equal(StateHomeostasis))
	g.Expect(metrics.Load).To(Equal(0.0))
}

func TestMonitorCheckReportsDeviatingLoops(t *testing.T) {
	g := NewWithT(t)

	m := NewMonitor()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	status := m.Check(now, map[string]float64{
		"coverage-rate":       0.60,
		"faculty-utilization": 0.75,
	})

	g.Expect(status.FeedbackLoopsDeviating).To(Equal(1))
	g.Expect(status.OverallState).To(Equal(StateAdapting))
}

func TestMonitorCheckIgnoresUnregisteredLoopNames(t *testing.T) {
	g := NewWithT(t)

	m := NewMonitor()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	status := m.Check(now, map[string]float64{"not-a-real-loop": 1.0})

	g.Expect(status.FeedbackLoopsDeviating).To(Equal(0))
	g.Expect(status.OverallState).To(Equal(StateHomeostasis))
}
