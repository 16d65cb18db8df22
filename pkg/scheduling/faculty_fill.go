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

package scheduling

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
)

// fillFacultyHalfDays ensures every faculty member has an assignment for
// every half-day in the interval (spec.md §4.1 step 6). Every faculty
// member ends with exactly 56 assignments per 28-day block (P2).
//
// Fill precedence, checked in order for each (person, block) slot lacking
// an assignment:
//  1. already assigned — preserved, not touched here;
//  2. federal-holiday block — HOL-AM/HOL-PM, even when the holiday falls
//     on a weekend (spec.md §9 Open Question #2: holiday takes precedence
//     over the generic weekend placeholder);
//  3. weekend — W-AM/W-PM;
//  4. blocking absence covering the date — LV-AM/LV-PM;
//  5. otherwise — GME-AM/GME-PM (admin).
func fillFacultyHalfDays(bundle Bundle, assignments []model.Assignment) []model.Assignment {
	occupied := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		occupied[a.BlockID+"|"+a.PersonID] = true
	}

	placeholders := resolvePlaceholderTemplates(bundle.Templates)

	faculty := make([]model.Person, 0)
	for _, p := range bundle.Persons {
		if p.IsFaculty() && p.Active {
			faculty = append(faculty, p)
		}
	}
	sort.Slice(faculty, func(i, j int) bool { return faculty[i].ID < faculty[j].ID })

	blockIDs := sortedBlockIDs(bundle.Blocks)

	out := append([]model.Assignment{}, assignments...)
	for _, person := range faculty {
		for _, blockID := range blockIDs {
			key := blockID + "|" + person.ID
			if occupied[key] {
				continue
			}
			b := bundle.Blocks[blockID]
			templateID := placeholderFor(b, bundle.Absences, person.ID, placeholders)
			if templateID == "" {
				continue
			}
			out = append(out, model.Assignment{
				ID:         uuid.NewString(),
				BlockID:    blockID,
				PersonID:   person.ID,
				TemplateID: templateID,
				Role:       model.RolePrimary,
			})
			occupied[key] = true
		}
	}
	return out
}

// placeholderTemplates maps a reserved abbreviation to its template ID, so
// the fill step never guesses an ID and always references a template the
// bundle actually declared.
type placeholderTemplates map[string]string

func resolvePlaceholderTemplates(templates map[string]model.RotationTemplate) placeholderTemplates {
	out := make(placeholderTemplates)
	for _, t := range templates {
		if t.IsPlaceholder() {
			out[t.Abbreviation] = t.ID
		}
	}
	return out
}

func placeholderFor(b model.Block, absences []model.Absence, personID string, placeholders placeholderTemplates) string {
	amPM := func(am, pm string) string {
		if b.TimeOfDay == model.AM {
			return placeholders[am]
		}
		return placeholders[pm]
	}

	switch {
	case b.Holiday:
		return amPM(model.AbbrevHOLAM, model.AbbrevHOLPM)
	case b.Weekend:
		return amPM(model.AbbrevWAM, model.AbbrevWPM)
	case hasBlockingAbsence(absences, personID, b):
		return amPM(model.AbbrevLVAM, model.AbbrevLVPM)
	default:
		return amPM(model.AbbrevGMEAM, model.AbbrevGMEPM)
	}
}
