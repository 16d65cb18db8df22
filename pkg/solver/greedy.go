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

package solver

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

// greedySolver assigns priority-ordered candidates to open clinic blocks in
// one chronological pass (spec.md §4.2). It does not backtrack: a block
// with no eligible resident is left unfilled and counted in
// Diagnostics.BacktrackCount. It assigns only the lowest-ID
// ActivityClinic template and returns no assignments when input.Templates
// holds none. Priority order is (PGY level descending, person ID
// ascending) so residents with more seniority claim open clinic slots
// first; ties are broken by ID for determinism (P7).
type greedySolver struct{}

func (greedySolver) Solve(ctx context.Context, input constraint.Context, params Params) (Result, error) {
	rng := rand.New(rand.NewSource(params.Seed))

	residents := priorityOrderedResidents(input.Persons)
	blocks := sortedBlockIDs(input.Blocks)

	occupied := make(map[model.BlockKey]bool)
	for _, a := range input.Assignments {
		if b, ok := input.Blocks[a.BlockID]; ok {
			occupied[model.KeyOf(b)] = true
		}
	}

	clinicTemplate, hasClinicTemplate := firstTemplateOfKind(input.Templates, model.ActivityClinic)

	var assignments []model.Assignment
	candidatesExplored := 0
	backtracks := 0

	for _, blockID := range blocks {
		select {
		case <-ctx.Done():
			return Result{Status: StatusTimeout, Diagnostics: Diagnostics{
				CandidatesExplored: candidatesExplored,
				BacktrackCount:     backtracks,
				InputHash:          inputHash(input, params),
			}}, nil
		default:
		}

		b := input.Blocks[blockID]
		if b.Weekend || b.Holiday || !hasClinicTemplate {
			continue
		}
		key := model.KeyOf(b)
		if occupied[key] {
			continue
		}

		placed := false
		for _, r := range residents {
			candidatesExplored++
			if hasBlockingAbsence(input.Absences, r.ID, b) {
				continue
			}
			assignments = append(assignments, model.Assignment{
				ID:         uuid.NewString(),
				BlockID:    blockID,
				PersonID:   r.ID,
				TemplateID: clinicTemplate.ID,
				Role:       model.RolePrimary,
			})
			occupied[key] = true
			placed = true
			break
		}
		if !placed {
			backtracks++
		}
	}

	_ = rng // reserved for future tie-break jitter; deterministic today without it

	return Result{
		Assignments: assignments,
		Status:      StatusOptimal,
		Diagnostics: Diagnostics{
			CandidatesExplored: candidatesExplored,
			BacktrackCount:     backtracks,
			InputHash:          inputHash(input, params),
		},
	}, nil
}

func priorityOrderedResidents(persons map[string]model.Person) []model.Person {
	var residents []model.Person
	for _, p := range persons {
		if p.IsResident() && p.Active {
			residents = append(residents, p)
		}
	}
	sort.Slice(residents, func(i, j int) bool {
		if residents[i].PGYLevel != residents[j].PGYLevel {
			return residents[i].PGYLevel > residents[j].PGYLevel
		}
		return residents[i].ID < residents[j].ID
	})
	return residents
}

func sortedBlockIDs(blocks map[string]model.Block) []string {
	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi, bj := blocks[ids[i]], blocks[ids[j]]
		if !bi.Date.Equal(bj.Date) {
			return bi.Date.Before(bj.Date)
		}
		return bi.TimeOfDay < bj.TimeOfDay
	})
	return ids
}

func firstTemplateOfKind(templates map[string]model.RotationTemplate, kind model.ActivityKind) (model.RotationTemplate, bool) {
	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if templates[id].Kind == kind {
			return templates[id], true
		}
	}
	return model.RotationTemplate{}, false
}

func hasBlockingAbsence(absences []model.Absence, personID string, b model.Block) bool {
	for _, a := range absences {
		if a.PersonID == personID && a.Blocking && a.Covers(b.Date) {
			return true
		}
	}
	return false
}
