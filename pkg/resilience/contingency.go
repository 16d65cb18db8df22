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
	"sort"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
	"github.com/Euda1mon1a/residency-scheduler/pkg/validate"
)

// ContingencyReport is the Contingency Analyzer's output (spec.md §4.5.3).
type ContingencyReport struct {
	Vulnerabilities []model.VulnerabilityRecord // single-losses causing hard failure (N-1)
	FatalPairs      []model.VulnerabilityRecord // pairs causing hard failure (N-2)
	CentralityRank  []CentralityScore
}

// CentralityScore ranks a faculty member by share of rotations they
// uniquely cover.
type CentralityScore struct {
	PersonID         string
	UniqueCoverage   int
	TotalAssignments int
}

// ContingencyAnalyzer simulates single- and pair-removal against a
// candidate assignment set and re-validates, keeping the Validator itself
// free of resilience-specific code (its only caller into validate.Run).
type ContingencyAnalyzer struct {
	Cred validate.Credentialer
}

// Analyze runs N-1 and N-2 simulations over ctx.
func (a ContingencyAnalyzer) Analyze(ctx constraint.Context) ContingencyReport {
	ids := personIDs(ctx.Persons)

	var report ContingencyReport
	for _, id := range ids {
		masked := maskPersons(ctx, id)
		r := validate.Run(masked, a.Cred)
		if !r.Compliant {
			report.Vulnerabilities = append(report.Vulnerabilities, model.VulnerabilityRecord{
				PersonIDs: []string{id},
				Fatal:     true,
				Evidence:  "validator non-compliant with person masked",
			})
		}
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			masked := maskPersons(ctx, ids[i], ids[j])
			r := validate.Run(masked, a.Cred)
			if !r.Compliant {
				report.FatalPairs = append(report.FatalPairs, model.VulnerabilityRecord{
					PersonIDs: []string{ids[i], ids[j]},
					Fatal:     true,
					Evidence:  "validator non-compliant with pair masked",
				})
			}
		}
	}

	report.CentralityRank = centralityRanking(ctx)
	return report
}

func personIDs(persons map[string]model.Person) []string {
	ids := make([]string, 0, len(persons))
	for id := range persons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// maskPersons returns a copy of ctx with the given person IDs removed from
// Persons and their assignments dropped, simulating their loss.
func maskPersons(ctx constraint.Context, removeIDs ...string) constraint.Context {
	remove := make(map[string]bool, len(removeIDs))
	for _, id := range removeIDs {
		remove[id] = true
	}

	persons := make(map[string]model.Person, len(ctx.Persons))
	for id, p := range ctx.Persons {
		if !remove[id] {
			persons[id] = p
		}
	}

	var assignments []model.Assignment
	for _, a := range ctx.Assignments {
		if !remove[a.PersonID] {
			assignments = append(assignments, a)
		}
	}

	return constraint.Context{
		Persons:     persons,
		Blocks:      ctx.Blocks,
		Templates:   ctx.Templates,
		Assignments: assignments,
		Absences:    ctx.Absences,
	}
}

// centralityRanking ranks faculty by the count of (block) slots that only
// they cover among faculty assignments, highest first.
func centralityRanking(ctx constraint.Context) []CentralityScore {
	coverageByBlock := make(map[string][]string)
	totalByPerson := make(map[string]int)
	for _, a := range ctx.Assignments {
		person, ok := ctx.Persons[a.PersonID]
		if !ok || !person.IsFaculty() {
			continue
		}
		coverageByBlock[a.BlockID] = append(coverageByBlock[a.BlockID], a.PersonID)
		totalByPerson[a.PersonID]++
	}

	unique := make(map[string]int)
	for _, coverers := range coverageByBlock {
		if len(coverers) == 1 {
			unique[coverers[0]]++
		}
	}

	ids := make([]string, 0, len(totalByPerson))
	for id := range totalByPerson {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if unique[ids[i]] != unique[ids[j]] {
			return unique[ids[i]] > unique[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make([]CentralityScore, 0, len(ids))
	for _, id := range ids {
		out = append(out, CentralityScore{PersonID: id, UniqueCoverage: unique[id], TotalAssignments: totalByPerson[id]})
	}
	return out
}
