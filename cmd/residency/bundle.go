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

package main

import (
	"fmt"
	"time"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/scheduling"
	"github.com/Euda1mon1a/residency-scheduler/pkg/solver"
)

// defaultResidentCount and defaultFacultyCount size the roster this
// command assembles when no Store-backed roster is wired in (persistence
// is external to this module.
const (
	defaultResidentCount = 12
	defaultFacultyCount  = 6
)

// loadBundle builds a scheduling.Bundle over [start, end] from a
// synthetic roster. Integrating a real roster/block source is the
// caller's responsibility via a Store implementation; this keeps the CLI
// runnable standalone for demonstration and the resilience harness.
func loadBundle(startStr, endStr, algorithm string, timeoutSec int, seed int64) (scheduling.Bundle, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return scheduling.Bundle{}, fmt.Errorf("parsing --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return scheduling.Bundle{}, fmt.Errorf("parsing --end: %w", err)
	}
	if end.Before(start) {
		return scheduling.Bundle{}, fmt.Errorf("--end %s is before --start %s", endStr, startStr)
	}

	persons := make(map[string]model.Person)
	for i := 0; i < defaultResidentCount; i++ {
		id := fmt.Sprintf("resident-%02d", i)
		persons[id] = model.Person{ID: id, Kind: model.PersonKindResident, PGYLevel: (i % 3) + 1, Active: true}
	}
	for i := 0; i < defaultFacultyCount; i++ {
		id := fmt.Sprintf("faculty-%02d", i)
		persons[id] = model.Person{ID: id, Kind: model.PersonKindFaculty, FacultyRole: model.FacultyRoleCoreFaculty, Active: true}
	}

	blocks := make(map[string]model.Block)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		weekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		for _, tod := range []model.TimeOfDay{model.AM, model.PM} {
			id := d.Format("2006-01-02") + string(tod)
			blocks[id] = model.Block{ID: id, Date: d, TimeOfDay: tod, Weekend: weekend}
		}
	}

	templates := map[string]model.RotationTemplate{
		"clinic":          {ID: "clinic", Abbreviation: "CLINIC", Kind: model.ActivityClinic},
		"call":            {ID: "call", Abbreviation: "CALL", Kind: model.ActivityCall},
		"supervision":     {ID: "supervision", Abbreviation: "SUP", Kind: model.ActivitySupervision},
		"dayoff":          {ID: "dayoff", Abbreviation: "DO", Kind: model.ActivityAbsence},
		model.AbbrevGMEAM: {ID: model.AbbrevGMEAM, Abbreviation: model.AbbrevGMEAM, Kind: model.ActivityAdmin},
		model.AbbrevGMEPM: {ID: model.AbbrevGMEPM, Abbreviation: model.AbbrevGMEPM, Kind: model.ActivityAdmin},
		model.AbbrevWAM:   {ID: model.AbbrevWAM, Abbreviation: model.AbbrevWAM, Kind: model.ActivityAdmin},
		model.AbbrevWPM:   {ID: model.AbbrevWPM, Abbreviation: model.AbbrevWPM, Kind: model.ActivityAdmin},
		model.AbbrevLVAM:  {ID: model.AbbrevLVAM, Abbreviation: model.AbbrevLVAM, Kind: model.ActivityAbsence},
		model.AbbrevLVPM:  {ID: model.AbbrevLVPM, Abbreviation: model.AbbrevLVPM, Kind: model.ActivityAbsence},
		model.AbbrevHOLAM: {ID: model.AbbrevHOLAM, Abbreviation: model.AbbrevHOLAM, Kind: model.ActivityAdmin},
		model.AbbrevHOLPM: {ID: model.AbbrevHOLPM, Abbreviation: model.AbbrevHOLPM, Kind: model.ActivityAdmin},
	}

	return scheduling.Bundle{
		Persons:          persons,
		Blocks:           blocks,
		Templates:        templates,
		Interval:         model.DateInterval{Start: start, End: end},
		PCATTemplateID:   "supervision",
		DayOffTemplateID: "dayoff",
		SolverParams: solver.Params{
			Algorithm:  algorithmFromFlag(algorithm),
			TimeoutSec: timeoutSec,
			Seed:       seed,
		},
	}, nil
}

func algorithmFromFlag(name string) solver.Algorithm {
	switch name {
	case "cp-sat":
		return solver.AlgorithmCPSAT
	case "ilp":
		return solver.AlgorithmILP
	case "hybrid":
		return solver.AlgorithmHybrid
	default:
		return solver.AlgorithmGreedy
	}
}
