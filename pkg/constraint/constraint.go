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

// Package constraint defines the constraint objects the solver and
// validator evaluate against a candidate assignment set, and the violation
// records both produce.
package constraint

import "github.com/Euda1mon1a/residency-scheduler/internal/model"

// Severity is the closed set of violation severities.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityWeight is used by the loop's violation-penalty term (spec.md
// §4.4 step 2); critical violations dominate the score.
var severityWeight = map[Severity]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.5,
	SeverityMedium:   0.25,
	SeverityLow:      0.1,
}

// Weight returns the severity's contribution to a violation penalty sum.
func (s Severity) Weight() float64 {
	if w, ok := severityWeight[s]; ok {
		return w
	}
	return 0
}

// Hardness distinguishes constraints that must hold (abort on failure)
// from those whose violations are merely reported.
type Hardness string

const (
	Hard Hardness = "hard"
	Soft Hardness = "soft"
)

// Violation is a single constraint failure, uniform across the solver and
// the validator (spec.md §6 "Violation report").
type Violation struct {
	Type     string
	Severity Severity
	PersonID string // empty when not person-scoped
	Message  string
	Evidence string
}

// Constraint evaluates a candidate assignment set within the scope of a
// single person/interval and reports every violation it finds. Concrete
// rule families (weekly-hours ceiling, one-in-seven, consecutive-duty cap,
// supervision ratio, procedure credentials) each implement this interface.
type Constraint interface {
	Name() string
	Hardness() Hardness
	Evaluate(ctx Context) []Violation
}

// Context bundles the read-only data a Constraint needs to evaluate. It is
// never mutated by a Constraint (spec.md P6, validator purity).
type Context struct {
	Persons     map[string]model.Person
	Blocks      map[string]model.Block
	Templates   map[string]model.RotationTemplate
	Assignments []model.Assignment
	Absences    []model.Absence
}

// Penalty sums severity-weighted violation counts, the `violation_penalty`
// term of the loop's scalar score (spec.md §4.4 step 2).
func Penalty(violations []Violation) float64 {
	var total float64
	for _, v := range violations {
		total += v.Severity.Weight()
	}
	return total
}
