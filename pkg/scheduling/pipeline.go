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

// Package scheduling implements the ordered constraint-satisfaction
// pipeline: preload, expansion, call solving, PCAT/day-off synchronization,
// activity solving, and faculty half-day fill. Step order is itself a
// correctness property (P1) and is enforced by assertion, not convention.
package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
	"github.com/Euda1mon1a/residency-scheduler/pkg/solver"
)

// Step is the closed, ordered set of pipeline stages. The dependency chain
// `Call → PCAT/DO → AT-coverage → Resident clinic load → Faculty admin
// fill` is enforced by assertStepOrder against this exact ordering.
type Step string

const (
	StepPreloadNonCall  Step = "preload-non-call"
	StepExpansion       Step = "expansion"
	StepCallSolver      Step = "call-solver"
	StepPCATDOSync      Step = "pcat-do-sync"
	StepActivitySolver  Step = "activity-solver"
	StepFacultyHalfFill Step = "faculty-half-day-fill"
)

// stepOrder is the authoritative sequence; index comparisons back
// assertStepOrder.
var stepOrder = []Step{
	StepPreloadNonCall,
	StepExpansion,
	StepCallSolver,
	StepPCATDOSync,
	StepActivitySolver,
	StepFacultyHalfFill,
}

func stepIndex(s Step) int {
	for i, candidate := range stepOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// assertStepOrder panics if next does not immediately follow last in
// stepOrder. This is a programmer error, never a user-facing one (spec.md
// §4.1: "Any dependency inversion ... MUST be detected by assertion and
// raise a programmer error").
func assertStepOrder(last, next Step) {
	li, ni := stepIndex(last), stepIndex(next)
	if li < 0 || ni < 0 || ni != li+1 {
		panic(fmt.Sprintf("scheduling: step order violation: %s must not follow %s", next, last))
	}
}

// Bundle is the Run bundle input (spec.md §6).
type Bundle struct {
	Persons         map[string]model.Person
	Blocks          map[string]model.Block
	Templates       map[string]model.RotationTemplate
	Preloads        []model.Assignment
	Absences        []model.Absence
	Interval        model.DateInterval
	SolverParams    solver.Params
	SkipFacultyCall bool

	// PCATTemplateID and DayOffTemplateID pin the exact templates the
	// PCAT/day-off synchronization step (StepPCATDOSync) assigns against.
	// Left empty, the step falls back to the lowest-ID template of the
	// matching Kind, but a Templates map with more than one template of
	// that Kind (e.g. multiple ActivityAbsence placeholders) should set
	// these explicitly rather than rely on the fallback.
	PCATTemplateID   string
	DayOffTemplateID string
}

// Result is the pipeline's output: the final assignment set, accumulated
// violations, and per-step timestamps backing P1.
type Result struct {
	Assignments []model.Assignment
	Violations  []constraint.Violation
	Status      model.RunStatus
	Steps       []model.StepExecution
}

// Runner executes the six pipeline steps in the mandated order, recording a
// StepExecution per step.
type Runner struct {
	Solve func(ctx context.Context, input constraint.Context, params solver.Params) (solver.Result, error)
}

// NewRunner returns a Runner wired to the package-level solver dispatch
// table.
func NewRunner() *Runner {
	return &Runner{Solve: solver.Solve}
}

// Run executes the pipeline against bundle and returns a Result.
//
// Failure semantics: a preload that references an unknown template, a
// solver error, or cancellation during preload returns status `failed`
// with no assignments committed; a solver timeout returns status `partial`
// with the best feasible assignments and a timeout violation flagged
// (spec.md §4.1 "Failure semantics"). Run does not evaluate hard
// constraints itself; a schedule that breaks one still returns `success`
// and the violation appears only in validate.Run's Report.
func (r *Runner) Run(ctx context.Context, bundle Bundle) (Result, error) {
	var steps []model.StepExecution
	var violations []constraint.Violation
	var errs error

	record := func(step Step, start time.Time) {
		steps = append(steps, model.StepExecution{Step: string(step), StartedAt: start, EndedAt: time.Now()})
	}

	// Step 1: preload non-call.
	start := time.Now()
	assignments := append([]model.Assignment{}, bundle.Preloads...)
	record(StepPreloadNonCall, start)
	lastStep := StepPreloadNonCall

	select {
	case <-ctx.Done():
		return Result{Status: model.RunFailed, Steps: steps}, rerrors.New(rerrors.CancellationRequested, "cancelled during preload")
	default:
	}

	// Step 2: expansion.
	assertStepOrder(lastStep, StepExpansion)
	start = time.Now()
	// Expansion derives per-person, per-block slot candidates from rotation
	// templates; candidate generation itself is solver-internal (the
	// greedy/cp-sat/ilp back-ends consume bundle.Templates directly), so
	// this step only validates that every referenced template exists.
	for _, p := range bundle.Preloads {
		if _, ok := bundle.Templates[p.TemplateID]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("preload %s references unknown template %s", p.ID, p.TemplateID))
		}
	}
	record(StepExpansion, start)
	lastStep = StepExpansion

	// Step 3: call solver.
	assertStepOrder(lastStep, StepCallSolver)
	start = time.Now()
	callCtx := constraint.Context{
		Persons:     bundle.Persons,
		Blocks:      bundle.Blocks,
		Templates:   filterTemplates(bundle.Templates, model.ActivityCall),
		Assignments: assignments,
		Absences:    bundle.Absences,
	}
	callResult, err := r.Solve(ctx, callCtx, bundle.SolverParams)
	if err != nil {
		return Result{Status: model.RunFailed, Steps: steps}, err
	}
	if callResult.Status == solver.StatusTimeout {
		violations = append(violations, constraint.Violation{
			Type:     "solver-timeout",
			Severity: constraint.SeverityMedium,
			Message:  "call solver exceeded its time budget",
		})
	}
	callAssignments := callResult.Assignments
	assignments = append(assignments, callAssignments...)
	record(StepCallSolver, start)
	lastStep = StepCallSolver

	// Step 4: PCAT/day-off synchronization.
	assertStepOrder(lastStep, StepPCATDOSync)
	start = time.Now()
	pcatTemplate, hasPCAT := resolveTemplate(bundle.Templates, bundle.PCATTemplateID, model.ActivitySupervision)
	dayOffTemplate, hasDayOff := resolveTemplate(bundle.Templates, bundle.DayOffTemplateID, model.ActivityAbsence)
	for _, call := range callAssignments {
		callBlock, ok := bundle.Blocks[call.BlockID]
		if !ok {
			continue
		}
		nextDay := callBlock.NextDayDate()
		amBlock, amOK := findBlock(bundle.Blocks, nextDay, model.AM)
		pmBlock, pmOK := findBlock(bundle.Blocks, nextDay, model.PM)
		if amOK && hasPCAT {
			assignments = append(assignments, model.Assignment{
				ID:         uuid.NewString(),
				BlockID:    amBlock.ID,
				PersonID:   call.PersonID,
				TemplateID: pcatTemplate.ID,
				Role:       model.RoleSupervision,
				Locked:     true,
			})
		}
		if pmOK && hasDayOff {
			assignments = append(assignments, model.Assignment{
				ID:         uuid.NewString(),
				BlockID:    pmBlock.ID,
				PersonID:   call.PersonID,
				TemplateID: dayOffTemplate.ID,
				Role:       model.RolePrimary,
				Locked:     true,
			})
		}
	}
	record(StepPCATDOSync, start)
	lastStep = StepPCATDOSync

	// Step 5: activity solver. PCAT assignments are now visible as
	// supervision capacity.
	assertStepOrder(lastStep, StepActivitySolver)
	start = time.Now()
	activityCtx := constraint.Context{
		Persons:     bundle.Persons,
		Blocks:      bundle.Blocks,
		Templates:   bundle.Templates,
		Assignments: assignments,
		Absences:    bundle.Absences,
	}
	activityResult, err := r.Solve(ctx, activityCtx, bundle.SolverParams)
	if err != nil {
		return Result{Status: model.RunFailed, Steps: steps}, err
	}
	if activityResult.Status == solver.StatusTimeout {
		violations = append(violations, constraint.Violation{
			Type:     "solver-timeout",
			Severity: constraint.SeverityMedium,
			Message:  "activity solver exceeded its time budget",
		})
	}
	assignments = mergeLockAware(assignments, activityResult.Assignments)
	record(StepActivitySolver, start)
	lastStep = StepActivitySolver

	// Step 6: faculty half-day fill.
	assertStepOrder(lastStep, StepFacultyHalfFill)
	start = time.Now()
	assignments = fillFacultyHalfDays(bundle, assignments)
	record(StepFacultyHalfFill, start)

	status := model.RunSuccess
	if len(violations) > 0 {
		status = model.RunPartial
	}
	if errs != nil {
		return Result{Status: model.RunFailed, Steps: steps, Violations: violations}, errs
	}

	return Result{Assignments: assignments, Violations: violations, Status: status, Steps: steps}, nil
}

func filterTemplates(templates map[string]model.RotationTemplate, kind model.ActivityKind) map[string]model.RotationTemplate {
	out := make(map[string]model.RotationTemplate)
	for id, t := range templates {
		if t.Kind == kind {
			out[id] = t
		}
	}
	return out
}

// resolveTemplate returns the template at explicitID when set, otherwise
// the lowest-ID template of kind (a deterministic fallback; map iteration
// order is not, so ambiguity between same-Kind templates must be broken by
// sorting, not by visitation order).
func resolveTemplate(templates map[string]model.RotationTemplate, explicitID string, kind model.ActivityKind) (model.RotationTemplate, bool) {
	if explicitID != "" {
		t, ok := templates[explicitID]
		return t, ok
	}

	ids := make([]string, 0, len(templates))
	for id, t := range templates {
		if t.Kind == kind {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return model.RotationTemplate{}, false
	}
	sort.Strings(ids)
	return templates[ids[0]], true
}

func findBlock(blocks map[string]model.Block, date time.Time, tod model.TimeOfDay) (model.Block, bool) {
	for _, b := range blocks {
		if b.Date.Equal(date.Truncate(24*time.Hour)) && b.TimeOfDay == tod {
			return b, true
		}
	}
	return model.Block{}, false
}

// mergeLockAware overlays solved assignments onto existing ones without
// overwriting any assignment referring to a locked preload (spec.md §3
// Assignment invariant).
func mergeLockAware(existing []model.Assignment, solved []model.Assignment) []model.Assignment {
	lockedByBlock := make(map[string]bool)
	for _, a := range existing {
		if a.Locked {
			lockedByBlock[a.BlockID+"|"+a.PersonID] = true
		}
	}
	out := append([]model.Assignment{}, existing...)
	for _, a := range solved {
		if lockedByBlock[a.BlockID+"|"+a.PersonID] {
			continue
		}
		out = append(out, a)
	}
	return out
}
