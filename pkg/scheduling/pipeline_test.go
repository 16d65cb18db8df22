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
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/solver"
)

// buildBundle constructs an nDays interval, 10 residents, 5 faculty,
// one clinic/call/supervision/absence template each, and every reserved
// placeholder template — the S1/S2 scenario fixture from spec.md §8.
func buildBundle(nDays int) Bundle {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	persons := make(map[string]model.Person)
	for i := 0; i < 10; i++ {
		id := "r" + string(rune('0'+i))
		persons[id] = model.Person{ID: id, Kind: model.PersonKindResident, PGYLevel: (i % 3) + 1, Active: true}
	}
	for i := 0; i < 5; i++ {
		id := "f" + string(rune('0'+i))
		persons[id] = model.Person{ID: id, Kind: model.PersonKindFaculty, FacultyRole: model.FacultyRoleCoreFaculty, Active: true}
	}

	blocks := make(map[string]model.Block)
	for d := 0; d < nDays; d++ {
		date := start.AddDate(0, 0, d)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		for _, tod := range []model.TimeOfDay{model.AM, model.PM} {
			id := date.Format("2006-01-02") + string(tod)
			blocks[id] = model.Block{ID: id, Date: date, TimeOfDay: tod, Weekend: weekend}
		}
	}

	templates := map[string]model.RotationTemplate{
		"clinic":       {ID: "clinic", Abbreviation: "CLINIC", Kind: model.ActivityClinic},
		"call":         {ID: "call", Abbreviation: "CALL", Kind: model.ActivityCall},
		"supervision":  {ID: "supervision", Abbreviation: "SUP", Kind: model.ActivitySupervision},
		"dayoff":       {ID: "dayoff", Abbreviation: "DO", Kind: model.ActivityAbsence},
		model.AbbrevGMEAM: {ID: model.AbbrevGMEAM, Abbreviation: model.AbbrevGMEAM, Kind: model.ActivityAdmin},
		model.AbbrevGMEPM: {ID: model.AbbrevGMEPM, Abbreviation: model.AbbrevGMEPM, Kind: model.ActivityAdmin},
		model.AbbrevWAM:   {ID: model.AbbrevWAM, Abbreviation: model.AbbrevWAM, Kind: model.ActivityAdmin},
		model.AbbrevWPM:   {ID: model.AbbrevWPM, Abbreviation: model.AbbrevWPM, Kind: model.ActivityAdmin},
		model.AbbrevLVAM:  {ID: model.AbbrevLVAM, Abbreviation: model.AbbrevLVAM, Kind: model.ActivityAbsence},
		model.AbbrevLVPM:  {ID: model.AbbrevLVPM, Abbreviation: model.AbbrevLVPM, Kind: model.ActivityAbsence},
		model.AbbrevHOLAM: {ID: model.AbbrevHOLAM, Abbreviation: model.AbbrevHOLAM, Kind: model.ActivityAdmin},
		model.AbbrevHOLPM: {ID: model.AbbrevHOLPM, Abbreviation: model.AbbrevHOLPM, Kind: model.ActivityAdmin},
	}

	return Bundle{
		Persons:          persons,
		Blocks:           blocks,
		Templates:        templates,
		Interval:         model.DateInterval{Start: start, End: start.AddDate(0, 0, nDays-1)},
		PCATTemplateID:   "supervision",
		DayOffTemplateID: "dayoff",
		SolverParams: solver.Params{
			Algorithm:  solver.AlgorithmGreedy,
			TimeoutSec: 5,
			Seed:       1,
		},
	}
}

func TestRunProducesSuccessWithFacultyFiftySixSlots(t *testing.T) {
	g := NewWithT(t)
	runner := NewRunner()

	result, err := runner.Run(context.Background(), buildBundle(28))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Status).To(BeElementOf(model.RunSuccess, model.RunPartial))

	perFaculty := make(map[string]int)
	for _, a := range result.Assignments {
		perFaculty[a.PersonID]++
	}
	for id, p := range buildBundle(28).Persons {
		if p.IsFaculty() {
			g.Expect(perFaculty[id]).To(Equal(56), "faculty %s should have exactly 56 assignments", id)
		}
	}
}

func TestRunStepTimestampsAreOrdered(t *testing.T) {
	g := NewWithT(t)
	runner := NewRunner()

	result, err := runner.Run(context.Background(), buildBundle(7))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Steps).To(HaveLen(6))

	for i := 1; i < len(result.Steps); i++ {
		g.Expect(result.Steps[i].StartedAt).To(BeTemporally(">=", result.Steps[i-1].StartedAt))
	}
}

func TestAssertStepOrderPanicsOnInversion(t *testing.T) {
	g := NewWithT(t)
	g.Expect(func() {
		assertStepOrder(StepActivitySolver, StepPCATDOSync)
	}).To(Panic())
}

func TestFillRespectsBlockingAbsenceWithLeavePlaceholder(t *testing.T) {
	g := NewWithT(t)
	bundle := buildBundle(7)
	bundle.Absences = []model.Absence{{
		PersonID: "f0",
		Start:    bundle.Interval.Start,
		End:      bundle.Interval.Start.AddDate(0, 0, 2),
		Blocking: true,
	}}

	runner := NewRunner()
	result, err := runner.Run(context.Background(), bundle)
	g.Expect(err).NotTo(HaveOccurred())

	found := false
	for _, a := range result.Assignments {
		if a.PersonID != "f0" {
			continue
		}
		b := bundle.Blocks[a.BlockID]
		if b.Date.Equal(bundle.Interval.Start) {
			g.Expect(a.TemplateID).To(BeElementOf(model.AbbrevLVAM, model.AbbrevLVPM))
			found = true
		}
	}
	g.Expect(found).To(BeTrue())
}

func TestPCATDOSyncUsesExplicitTemplateIDsOverAmbiguousKind(t *testing.T) {
	g := NewWithT(t)
	bundle := buildBundle(2)
	// buildBundle's Templates map has three ActivityAbsence-kind entries
	// (dayoff, LV-AM, LV-PM); only the explicit DayOffTemplateID must win.
	g.Expect(bundle.Templates[model.AbbrevLVAM].Kind).To(Equal(model.ActivityAbsence))
	g.Expect(bundle.Templates["dayoff"].Kind).To(Equal(model.ActivityAbsence))

	runner := NewRunner()
	result, err := runner.Run(context.Background(), bundle)
	g.Expect(err).NotTo(HaveOccurred())

	sawDayOff := false
	for _, a := range result.Assignments {
		if a.TemplateID == "dayoff" {
			sawDayOff = true
		}
		g.Expect(a.TemplateID).NotTo(BeElementOf(model.AbbrevLVAM, model.AbbrevLVPM),
			"PCAT/day-off sync must not fall onto an unrelated same-Kind placeholder")
	}
	g.Expect(sawDayOff).To(BeTrue())
}

func TestResolveTemplateFallsBackToLowestIDOfKindWhenUnset(t *testing.T) {
	g := NewWithT(t)
	templates := map[string]model.RotationTemplate{
		"zzz-absence": {ID: "zzz-absence", Kind: model.ActivityAbsence},
		"aaa-absence": {ID: "aaa-absence", Kind: model.ActivityAbsence},
	}

	t1, ok1 := resolveTemplate(templates, "", model.ActivityAbsence)
	g.Expect(ok1).To(BeTrue())
	g.Expect(t1.ID).To(Equal("aaa-absence"))

	t2, ok2 := resolveTemplate(templates, "zzz-absence", model.ActivityAbsence)
	g.Expect(ok2).To(BeTrue())
	g.Expect(t2.ID).To(Equal("zzz-absence"))
}
