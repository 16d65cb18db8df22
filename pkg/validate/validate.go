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

// Package validate applies the duty-hour and supervision ruleset over a
// date interval of assignments. The validator is pure: Run never mutates
// its Context argument and returns structurally equal reports for
// structurally equal inputs (P6).
package validate

import (
	"fmt"
	"sort"
	"time"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

// WeeklyHoursCeiling is the ACGME 80-hour rule, averaged over 4 weeks.
const WeeklyHoursCeiling = 80.0

// ConsecutiveDutyCapHours bounds a single continuous duty period.
const ConsecutiveDutyCapHours = 24.0

// HoursPerHalfDay is the nominal duty-hour contribution of a single AM/PM
// assignment block, used to approximate weekly-hours totals from block
// counts absent an explicit duration field on Assignment.
const HoursPerHalfDay = 6.0

// Report is the validator's pure output (spec.md §4.3).
type Report struct {
	Compliant        bool
	CoverageRate     float64
	TotalViolations  int
	PerPersonReports map[string][]constraint.Violation
}

// Credentialer answers whether a faculty member holds an active procedure
// credential, the external collaborator for the procedure-credentials rule
// family. The CLI's reference wiring treats every core-faculty member as
// credentialed for every specialty they list.
type Credentialer interface {
	HasCredential(personID, procedure string) bool
}

// Run applies every required rule family over ctx and returns a Report. It
// never mutates ctx.Assignments, ctx.Persons, or any other field (P6).
func Run(ctx constraint.Context, cred Credentialer) Report {
	rules := []constraint.Constraint{
		weeklyHoursRule{},
		oneInSevenRule{},
		consecutiveDutyRule{},
		supervisionRatioRule{},
		procedureCredentialRule{cred: cred},
	}

	perPerson := make(map[string][]constraint.Violation)
	total := 0
	for _, rule := range rules {
		for _, v := range rule.Evaluate(ctx) {
			total++
			key := v.PersonID
			perPerson[key] = append(perPerson[key], v)
		}
	}

	required, covered := supervisionCoverageCounts(ctx)
	coverage := 1.0
	if required > 0 {
		coverage = float64(covered) / float64(required)
	}

	return Report{
		Compliant:        total == 0,
		CoverageRate:     coverage,
		TotalViolations:  total,
		PerPersonReports: perPerson,
	}
}

// sortedPersonIDs returns ctx.Persons keys in a stable order, so rule
// evaluation never depends on Go's randomized map iteration (needed for P6
// reproducibility of the resulting violation ordering).
func sortedPersonIDs(ctx constraint.Context) []string {
	ids := make([]string, 0, len(ctx.Persons))
	for id := range ctx.Persons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type weeklyHoursRule struct{}

func (weeklyHoursRule) Name() string { return "weekly-hours-ceiling" }
func (weeklyHoursRule) Hardness() constraint.Hardness { return constraint.Hard }

func (r weeklyHoursRule) Evaluate(ctx constraint.Context) []constraint.Violation {
	hoursByPerson := make(map[string]float64)
	for _, a := range ctx.Assignments {
		hoursByPerson[a.PersonID] += HoursPerHalfDay
	}
	var violations []constraint.Violation
	for _, id := range sortedPersonIDs(ctx) {
		hours := hoursByPerson[id]
		weeks := weeksInInterval(ctx)
		if weeks == 0 {
			continue
		}
		avg := hours / weeks
		if avg > WeeklyHoursCeiling {
			violations = append(violations, constraint.Violation{
				Type:     r.Name(),
				Severity: constraint.SeverityCritical,
				PersonID: id,
				Message:  fmt.Sprintf("average weekly hours %.1f exceeds ceiling %.1f", avg, WeeklyHoursCeiling),
				Evidence: fmt.Sprintf("total_hours=%.1f weeks=%.1f", hours, weeks),
			})
		}
	}
	return violations
}

func weeksInInterval(ctx constraint.Context) float64 {
	if len(ctx.Blocks) == 0 {
		return 0
	}
	return float64(len(ctx.Blocks)) / 2.0 / 7.0
}

type oneInSevenRule struct{}

func (oneInSevenRule) Name() string { return "one-in-seven" }
func (oneInSevenRule) Hardness() constraint.Hardness { return constraint.Hard }

// Evaluate checks that every rolling 7-day window contains at least one
// full 24-hour period with no assignment for the person.
func (r oneInSevenRule) Evaluate(ctx constraint.Context) []constraint.Violation {
	assignedDaysByPerson := make(map[string]map[int64]bool)
	for _, a := range ctx.Assignments {
		b, ok := ctx.Blocks[a.BlockID]
		if !ok {
			continue
		}
		day := b.Date.Truncate(24 * time.Hour)
		if assignedDaysByPerson[a.PersonID] == nil {
			assignedDaysByPerson[a.PersonID] = make(map[int64]bool)
		}
		assignedDaysByPerson[a.PersonID][day.Unix()] = true
	}

	var violations []constraint.Violation
	for _, id := range sortedPersonIDs(ctx) {
		days := assignedDaysByPerson[id]
		if hasSevenConsecutiveAssignedDays(days) {
			violations = append(violations, constraint.Violation{
				Type:     r.Name(),
				Severity: constraint.SeverityHigh,
				PersonID: id,
				Message:  "no 24-hour off period within a 7-day window",
			})
		}
	}
	return violations
}

func hasSevenConsecutiveAssignedDays(days map[int64]bool) bool {
	if len(days) < 7 {
		return false
	}
	const daySeconds = 24 * 60 * 60
	for start := range days {
		streak := 1
		for streak < 7 {
			if !days[start+int64(streak)*daySeconds] {
				break
			}
			streak++
		}
		if streak >= 7 {
			return true
		}
	}
	return false
}

type consecutiveDutyRule struct{}

func (consecutiveDutyRule) Name() string { return "consecutive-duty-cap" }
func (consecutiveDutyRule) Hardness() constraint.Hardness { return constraint.Hard }

// maxConsecutiveDutyHalfDays is ConsecutiveDutyCapHours expressed in
// half-day block units.
const maxConsecutiveDutyHalfDays = int(ConsecutiveDutyCapHours / HoursPerHalfDay)

// Evaluate walks each person's assigned half-day blocks in chronological
// order and flags any unbroken duty run longer than
// maxConsecutiveDutyHalfDays, regardless of which rotation produced it
// (clinic, inpatient, call, or the PCAT follow-up). Placeholder/absence
// assignments (day-off, leave, weekend, holiday, admin fill) end a run
// rather than extending it, since they represent time off duty.
func (r consecutiveDutyRule) Evaluate(ctx constraint.Context) []constraint.Violation {
	dutySlotsByPerson := make(map[string]map[int64]bool)
	for _, a := range ctx.Assignments {
		tmpl, ok := ctx.Templates[a.TemplateID]
		if !ok || tmpl.IsPlaceholder() || tmpl.Kind == model.ActivityAbsence {
			continue
		}
		b, ok := ctx.Blocks[a.BlockID]
		if !ok {
			continue
		}
		if dutySlotsByPerson[a.PersonID] == nil {
			dutySlotsByPerson[a.PersonID] = make(map[int64]bool)
		}
		dutySlotsByPerson[a.PersonID][halfDaySlotOrder(b)] = true
	}

	var violations []constraint.Violation
	for _, id := range sortedPersonIDs(ctx) {
		longest := longestConsecutiveRun(dutySlotsByPerson[id])
		if longest > maxConsecutiveDutyHalfDays {
			violations = append(violations, constraint.Violation{
				Type:     r.Name(),
				Severity: constraint.SeverityCritical,
				PersonID: id,
				Message:  fmt.Sprintf("%d consecutive half-day duty blocks exceed the %.0f-hour cap", longest, ConsecutiveDutyCapHours),
				Evidence: fmt.Sprintf("consecutive_half_days=%d cap_half_days=%d", longest, maxConsecutiveDutyHalfDays),
			})
		}
	}
	return violations
}

// halfDaySlotOrder maps a Block to a strictly increasing integer so that
// chronologically adjacent half-days (AM→PM same day, PM→next day's AM)
// differ by exactly 1.
func halfDaySlotOrder(b model.Block) int64 {
	day := b.Date.Truncate(24 * time.Hour).Unix() / int64(24*time.Hour/time.Second)
	if b.TimeOfDay == model.PM {
		return day*2 + 1
	}
	return day * 2
}

// longestConsecutiveRun returns the length of the longest run of
// consecutive integer keys present in slots.
func longestConsecutiveRun(slots map[int64]bool) int {
	if len(slots) == 0 {
		return 0
	}
	ordered := make([]int64, 0, len(slots))
	for o := range slots {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	longest, streak := 1, 1
	for i := 1; i < len(ordered); i++ {
		if ordered[i] == ordered[i-1]+1 {
			streak++
		} else {
			streak = 1
		}
		if streak > longest {
			longest = streak
		}
	}
	return longest
}

type supervisionRatioRule struct{}

func (supervisionRatioRule) Name() string { return "supervision-ratio" }
func (supervisionRatioRule) Hardness() constraint.Hardness { return constraint.Hard }

func (r supervisionRatioRule) Evaluate(ctx constraint.Context) []constraint.Violation {
	required, covered := supervisionCoverageCounts(ctx)
	if covered >= required {
		return nil
	}
	return []constraint.Violation{{
		Type:     r.Name(),
		Severity: constraint.SeverityCritical,
		Message:  fmt.Sprintf("supervision coverage %d/%d slots", covered, required),
		Evidence: fmt.Sprintf("required=%d covered=%d", required, covered),
	}}
}

// supervisionCoverageCounts reports the number of resident-clinic slots
// requiring supervision and the number actually covered, counting PCAT
// assignments as supervision coverage per spec.md §4.1 step 5.
func supervisionCoverageCounts(ctx constraint.Context) (required, covered int) {
	blockHasSupervision := make(map[string]bool)
	for _, a := range ctx.Assignments {
		tmpl, ok := ctx.Templates[a.TemplateID]
		if !ok {
			continue
		}
		if a.Role == model.RoleSupervision || tmpl.Kind == model.ActivitySupervision {
			blockHasSupervision[a.BlockID] = true
		}
	}
	for _, a := range ctx.Assignments {
		person, ok := ctx.Persons[a.PersonID]
		if !ok || !person.IsResident() {
			continue
		}
		tmpl, ok := ctx.Templates[a.TemplateID]
		if !ok || tmpl.Kind != model.ActivityClinic {
			continue
		}
		required++
		if blockHasSupervision[a.BlockID] {
			covered++
		}
	}
	return required, covered
}

type procedureCredentialRule struct {
	cred Credentialer
}

func (procedureCredentialRule) Name() string { return "procedure-credentials" }
func (procedureCredentialRule) Hardness() constraint.Hardness { return constraint.Hard }

func (r procedureCredentialRule) Evaluate(ctx constraint.Context) []constraint.Violation {
	if r.cred == nil {
		return nil
	}
	var violations []constraint.Violation
	for _, id := range sortedPersonIDs(ctx) {
		person := ctx.Persons[id]
		if !person.IsFaculty() {
			continue
		}
		for _, procedure := range person.Specialties {
			if !r.cred.HasCredential(id, procedure) {
				violations = append(violations, constraint.Violation{
					Type:     r.Name(),
					Severity: constraint.SeverityHigh,
					PersonID: id,
					Message:  fmt.Sprintf("no active credential for %s", procedure),
				})
			}
		}
	}
	return violations
}
