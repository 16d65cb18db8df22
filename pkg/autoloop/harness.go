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

package autoloop

import (
	"context"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
	"github.com/Euda1mon1a/residency-scheduler/pkg/scheduling"
	"github.com/Euda1mon1a/residency-scheduler/pkg/validate"
)

// ScenarioName is the closed set of resilience-harness failure scenarios
// (spec.md §4.4 "Resilience regression harness").
type ScenarioName string

const (
	ScenarioSingleFacultyLoss ScenarioName = "single-faculty-loss"
	ScenarioDoubleFacultyLoss ScenarioName = "double-faculty-loss"
	ScenarioPCSSeasonHalf     ScenarioName = "pcs-season-50-percent"
	ScenarioHolidaySkeleton   ScenarioName = "holiday-skeleton"
	ScenarioPandemicEssential ScenarioName = "pandemic-essential"
	ScenarioMassCasualty      ScenarioName = "mass-casualty"
	ScenarioWeatherEmergency  ScenarioName = "weather-emergency"
)

// AllScenarios is the fixed library of scenarios the harness runs.
var AllScenarios = []ScenarioName{
	ScenarioSingleFacultyLoss,
	ScenarioDoubleFacultyLoss,
	ScenarioPCSSeasonHalf,
	ScenarioHolidaySkeleton,
	ScenarioPandemicEssential,
	ScenarioMassCasualty,
	ScenarioWeatherEmergency,
}

// ScenarioOutcome records a single scenario's run.
type ScenarioOutcome struct {
	Scenario        ScenarioName
	Feasible        bool
	Score           float64
	ScoreDegradation float64
}

// HarnessResult is the resilience-harness verdict (spec.md §4.4 and S5).
type HarnessResult struct {
	Passed             bool
	Threshold          float64
	FeasibleCount      int
	TotalCount         int
	AverageDegradation float64
	Outcomes           []ScenarioOutcome
}

// RunHarness executes every scenario in AllScenarios against bundle,
// measuring each scenario's score degradation from a baseline score it
// computes from the unperturbed bundle, and returns pass/fail per threshold
// (fraction of feasible scenarios, spec.md S5).
func RunHarness(ctx context.Context, bundle scheduling.Bundle, weights ScoreWeights, threshold float64, cred validate.Credentialer) HarnessResult {
	runner := scheduling.NewRunner()
	baseline := runScenarioBundle(ctx, runner, bundle, weights, cred)

	var outcomes []ScenarioOutcome
	feasible := 0
	var degradationSum float64

	for _, name := range AllScenarios {
		perturbed := applyScenario(bundle, name)
		score := runScenarioBundle(ctx, runner, perturbed, weights, cred)
		ok := score > 0
		if ok {
			feasible++
		}
		degradation := baseline - score
		degradationSum += degradation
		outcomes = append(outcomes, ScenarioOutcome{
			Scenario: name, Feasible: ok, Score: score, ScoreDegradation: degradation,
		})
	}

	avgDegradation := 0.0
	if len(outcomes) > 0 {
		avgDegradation = degradationSum / float64(len(outcomes))
	}

	passRate := float64(feasible) / float64(len(AllScenarios))
	return HarnessResult{
		Passed:             passRate >= threshold,
		Threshold:          threshold,
		FeasibleCount:      feasible,
		TotalCount:         len(AllScenarios),
		AverageDegradation: avgDegradation,
		Outcomes:           outcomes,
	}
}

func runScenarioBundle(ctx context.Context, runner *scheduling.Runner, bundle scheduling.Bundle, weights ScoreWeights, cred validate.Credentialer) float64 {
	result, err := runner.Run(ctx, bundle)
	if err != nil || result.Status == model.RunFailed {
		return 0
	}
	report := validate.Run(constraint.Context{
		Persons:     bundle.Persons,
		Blocks:      bundle.Blocks,
		Templates:   bundle.Templates,
		Assignments: result.Assignments,
		Absences:    bundle.Absences,
	}, cred)
	return Score(weights, report, result.Violations)
}

// applyScenario perturbs bundle to simulate the named failure scenario.
// The perturbation removes or deactivates entries of a cloned Persons map
// and works on a copy of Absences, never mutating the original bundle's
// maps (callers must still treat the input bundle as immutable).
func applyScenario(bundle scheduling.Bundle, name ScenarioName) scheduling.Bundle {
	persons := clonePersons(bundle.Persons)
	absences := append([]model.Absence{}, bundle.Absences...)

	switch name {
	case ScenarioSingleFacultyLoss:
		removeNthFaculty(persons, 1)
	case ScenarioDoubleFacultyLoss:
		removeNthFaculty(persons, 2)
	case ScenarioPCSSeasonHalf:
		deactivateFraction(persons, 0.5)
	case ScenarioHolidaySkeleton:
		deactivateFraction(persons, 0.7)
	case ScenarioPandemicEssential:
		deactivateFraction(persons, 0.6)
	case ScenarioMassCasualty:
		removeNthFaculty(persons, 2)
		deactivateFraction(persons, 0.3)
	case ScenarioWeatherEmergency:
		deactivateFraction(persons, 0.4)
	}

	out := bundle
	out.Persons = persons
	out.Absences = absences
	return out
}

func clonePersons(in map[string]model.Person) map[string]model.Person {
	out := make(map[string]model.Person, len(in))
	for id, p := range in {
		out[id] = p
	}
	return out
}

func removeNthFaculty(persons map[string]model.Person, n int) {
	removed := 0
	for id, p := range persons {
		if removed >= n {
			return
		}
		if p.IsFaculty() {
			delete(persons, id)
			removed++
		}
	}
}

func deactivateFraction(persons map[string]model.Person, fraction float64) {
	total := len(persons)
	target := int(float64(total) * fraction)
	deactivated := 0
	for id, p := range persons {
		if deactivated >= target {
			return
		}
		p.Active = false
		persons[id] = p
		deactivated++
	}
}
