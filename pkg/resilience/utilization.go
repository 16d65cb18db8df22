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

// Package resilience implements the queueing-theory utilization monitor,
// defense-in-depth mapping, contingency analyzer, fallback scheduler,
// sacrifice hierarchy, and spin-glass diversity generator, tied together by
// a channel-driven tick loop.
package resilience

import (
	"math"
	"sort"
	"time"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
)

// Traffic-intensity thresholds from queueing theory (spec.md §4.5.1),
// ported 1:1 from the original utilization monitor's constants.
const (
	SafeUtilization     = 0.80
	WarningUtilization  = 0.90
	DangerUtilization   = 0.95
	CriticalUtilization = 0.98
)

// TrendWindow is the 28-day rolling-window length chosen per spec.md §9
// Open Question #3. No computation in this package reads it: AnalyzeTrend
// summarizes whatever snapshots it is given, Engine retains a sample count
// (HistoryWindow, default 28), and the spin-glass model has no window.
const TrendWindow = 28 * 24 * time.Hour

// Snapshot is a point-in-time utilization measurement.
type Snapshot struct {
	Timestamp        time.Time
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalCapacity    float64
	UtilizedCapacity float64
	UtilizationRatio float64
	NumServers       int
	ArrivalRate      float64 // λ, requests per hour
	ServiceRate      float64 // μ, service per hour per server
	TrafficIntensity float64 // ρ = λ/(c·μ)
	QueueLength      float64 // L_q, Erlang-C
	WaitTime         float64 // W_q, Little's Law
}

// Trend is a statistical summary over a window of Snapshots.
type Trend struct {
	MeanUtilization  float64
	StdUtilization   float64
	TrendSlope       float64
	IsIncreasing     bool
	DaysAbove80Pct   int
	DaysAbove90Pct   int
	DaysAbove95Pct   int
	MaxUtilization   float64
	MaxUtilizationAt time.Time
}

// UtilizationMonitor computes M/M/c queueing metrics, ported 1:1 from
// original_source/backend/app/resilience/engine/utilization_monitor.py.
type UtilizationMonitor struct{}

// CalculateSnapshot computes a Snapshot for a period, including Erlang-C
// queue length and Little's-Law wait time when both rates are positive and
// the system is stable (ρ < 1).
func (UtilizationMonitor) CalculateSnapshot(periodStart, periodEnd time.Time, totalCapacity, utilizedCapacity float64, numServers int, arrivalRate, serviceRate float64) Snapshot {
	utilizationRatio := 0.0
	if totalCapacity > 0 {
		utilizationRatio = utilizedCapacity / totalCapacity
	}

	var trafficIntensity, queueLength, waitTime float64
	if serviceRate > 0 {
		trafficIntensity = arrivalRate / (float64(numServers) * serviceRate)
		if trafficIntensity < 1.0 {
			erlangC := ErlangC(arrivalRate, serviceRate, numServers)
			queueLength = erlangC * trafficIntensity / (1.0 - trafficIntensity)
			if arrivalRate > 0 {
				waitTime = queueLength / arrivalRate
			}
		}
	}

	return Snapshot{
		Timestamp:        time.Now(),
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		TotalCapacity:    totalCapacity,
		UtilizedCapacity: utilizedCapacity,
		UtilizationRatio: utilizationRatio,
		NumServers:       numServers,
		ArrivalRate:      arrivalRate,
		ServiceRate:      serviceRate,
		TrafficIntensity: trafficIntensity,
		QueueLength:      queueLength,
		WaitTime:         waitTime,
	}
}

// ErlangC computes the probability that an arriving request must wait in an
// M/M/c queue:
//
//	A = λ/μ
//	Erlang-C = [A^c/c! · c/(c-A)] / [Σ_{k=0}^{c-1} A^k/k! + A^c/c! · c/(c-A)]
//
// Returns 1.0 (certain queuing, infinite queue) when the system is
// unstable (c ≤ A).
func ErlangC(arrivalRate, serviceRate float64, numServers int) float64 {
	a := arrivalRate / serviceRate
	c := float64(numServers)
	if c <= a {
		return 1.0
	}

	numerator := (math.Pow(a, c) / factorial(numServers)) * (c / (c - a))
	var sumTerms float64
	for k := 0; k < numServers; k++ {
		sumTerms += math.Pow(a, float64(k)) / factorial(k)
	}
	denominator := sumTerms + numerator
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

// UtilizationLevelFor classifies a traffic intensity against the threshold
// ladder (spec.md §4.5.1, P11).
func UtilizationLevelFor(trafficIntensity float64) model.UtilizationLevel {
	switch {
	case trafficIntensity >= CriticalUtilization:
		return model.UtilizationBlack
	case trafficIntensity >= DangerUtilization:
		return model.UtilizationRed
	case trafficIntensity >= WarningUtilization:
		return model.UtilizationOrange
	case trafficIntensity >= SafeUtilization:
		return model.UtilizationYellow
	default:
		return model.UtilizationGreen
	}
}

// AnalyzeTrend computes statistics over snapshots, the basis for alerting
// (spec.md §4.5.1 "trends ... persisted for alerting").
func AnalyzeTrend(snapshots []Snapshot) Trend {
	if len(snapshots) == 0 {
		return Trend{MaxUtilizationAt: time.Time{}}
	}

	sorted := append([]Snapshot{}, snapshots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeriodStart.Before(sorted[j].PeriodStart) })

	var sum float64
	for _, s := range sorted {
		sum += s.UtilizationRatio
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, s := range sorted {
		d := s.UtilizationRatio - mean
		variance += d * d
	}
	variance /= float64(len(sorted))
	std := math.Sqrt(variance)

	var slope float64
	if len(sorted) > 1 {
		slope = leastSquaresSlope(sorted)
	}

	var above80, above90, above95 int
	maxUtil := sorted[0].UtilizationRatio
	maxAt := sorted[0].PeriodStart
	for _, s := range sorted {
		if s.UtilizationRatio >= 0.80 {
			above80++
		}
		if s.UtilizationRatio >= 0.90 {
			above90++
		}
		if s.UtilizationRatio >= 0.95 {
			above95++
		}
		if s.UtilizationRatio > maxUtil {
			maxUtil = s.UtilizationRatio
			maxAt = s.PeriodStart
		}
	}

	return Trend{
		MeanUtilization:  mean,
		StdUtilization:   std,
		TrendSlope:       slope,
		IsIncreasing:     slope > 0.001,
		DaysAbove80Pct:   above80,
		DaysAbove90Pct:   above90,
		DaysAbove95Pct:   above95,
		MaxUtilization:   maxUtil,
		MaxUtilizationAt: maxAt,
	}
}

// leastSquaresSlope fits a line to (index, utilization) pairs and returns
// its slope, mirroring np.polyfit(x, utilizations, 1)[0].
func leastSquaresSlope(sorted []Snapshot) float64 {
	n := float64(len(sorted))
	var sumX, sumY, sumXY, sumXX float64
	for i, s := range sorted {
		x := float64(i)
		y := s.UtilizationRatio
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// PredictQueueExplosion projects utilization forward at growthRate and
// reports whether/when it crosses DangerUtilization within daysAhead.
func PredictQueueExplosion(currentUtilization, growthRate float64, daysAhead int) (willExplode bool, daysUntil int) {
	if currentUtilization >= DangerUtilization {
		return true, 0
	}
	if growthRate <= 0 {
		return false, daysAhead + 1
	}
	for day := 1; day <= daysAhead; day++ {
		projected := currentUtilization * math.Pow(1+growthRate, float64(day))
		if projected >= DangerUtilization {
			return true, day
		}
	}
	return false, daysAhead + 1
}
