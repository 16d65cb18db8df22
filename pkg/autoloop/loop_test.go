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
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/scheduling"
	"github.com/Euda1mon1a/residency-scheduler/pkg/solver"
)

func smallBundle() scheduling.Bundle {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	persons := map[string]model.Person{
		"r1": {ID: "r1", Kind: model.PersonKindResident, PGYLevel: 2, Active: true},
		"f1": {ID: "f1", Kind: model.PersonKindFaculty, FacultyRole: model.FacultyRoleCoreFaculty, Active: true},
	}
	blocks := map[string]model.Block{
		"b1am": {ID: "b1am", Date: start, TimeOfDay: model.AM},
		"b1pm": {ID: "b1pm", Date: start, TimeOfDay: model.PM},
	}
	templates := map[string]model.RotationTemplate{
		"clinic":          {ID: "clinic", Abbreviation: "CLINIC", Kind: model.ActivityClinic},
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
		Persons:   persons,
		Blocks:    blocks,
		Templates: templates,
		Interval:  model.DateInterval{Start: start, End: start},
	}
}

func TestBuilderRejectsWeightsNotSummingToOne(t *testing.T) {
	g := NewWithT(t)
	_, err := NewBuilder().WithWeights(ScoreWeights{Coverage: 0.5, Compliance: 0.5, Violation: 0.5}).Build()
	g.Expect(err).To(HaveOccurred())
}

func TestLoopStopsOnTargetReached(t *testing.T) {
	g := NewWithT(t)
	cfg, err := NewBuilder().WithTargetScore(0.0).WithMaxIterations(3).Build()
	g.Expect(err).NotTo(HaveOccurred())

	loop := NewLoop(cfg, nil)
	result, err := loop.Run(context.Background(), smallBundle())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.StopReason).To(Equal(StopTargetReached))
	g.Expect(result.Success).To(BeTrue())
}

func TestLoopStopsOnExhaustionWhenTargetUnreachable(t *testing.T) {
	g := NewWithT(t)
	cfg, err := NewBuilder().WithTargetScore(0.999999).WithMaxIterations(3).WithStagnationLimit(100).Build()
	g.Expect(err).NotTo(HaveOccurred())

	loop := NewLoop(cfg, nil)
	result, err := loop.Run(context.Background(), smallBundle())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.StopReason).To(BeElementOf(StopExhausted, StopStagnation))
	g.Expect(result.FinalIteration).To(BeNumerically("<=", 3))
}

func TestDirStoreRoundTripsHistory(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	g.Expect(err).NotTo(HaveOccurred())

	runID := "run-1"
	g.Expect(store.AppendHistory(runID, IterationRecord{Iteration: 1, Score: 0.5})).To(Succeed())
	g.Expect(store.AppendHistory(runID, IterationRecord{Iteration: 2, Score: 0.6})).To(Succeed())

	history, err := store.LoadHistory(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(history).To(HaveLen(2))
	g.Expect(history[1].Score).To(Equal(0.6))
}

func TestRunHarnessPassesAboveThreshold(t *testing.T) {
	g := NewWithT(t)
	result := RunHarness(context.Background(), smallBundle(), DefaultScoreWeights, 0.0, nil)
	g.Expect(result.TotalCount).To(Equal(len(AllScenarios)))
	g.Expect(result.Passed).To(BeTrue())
}

func TestScoreWeightsSumToOneByDefault(t *testing.T) {
	g := NewWithT(t)
	sum := DefaultScoreWeights.Coverage + DefaultScoreWeights.Compliance + DefaultScoreWeights.Violation
	g.Expect(sum).To(BeNumerically("~", 1.0, 0.001))
}

func TestResumeContinuesUnderSameRunIDFromPersistedState(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	g.Expect(err).NotTo(HaveOccurred())

	cfg1, err := NewBuilder().WithTargetScore(0.999999).WithMaxIterations(2).WithStagnationLimit(100).Build()
	g.Expect(err).NotTo(HaveOccurred())

	loop := NewLoop(cfg1, store)
	first, err := loop.Run(context.Background(), smallBundle())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.StopReason).To(Equal(StopExhausted))
	g.Expect(first.FinalIteration).To(Equal(2))

	// A resumed run is given a larger iteration budget, since the absolute
	// iteration counter it rehydrates (3) must still fit under MaxIterations.
	cfg2, err := NewBuilder().WithTargetScore(0.999999).WithMaxIterations(5).WithStagnationLimit(100).Build()
	g.Expect(err).NotTo(HaveOccurred())
	resumedLoop := NewLoop(cfg2, store)

	resumed, err := resumedLoop.Resume(context.Background(), first.RunID, smallBundle())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(resumed.RunID).To(Equal(first.RunID), "resume must continue under the same run ID")
	g.Expect(resumed.FinalIteration).To(BeNumerically(">", first.FinalIteration), "resume must continue past the prior run's last iteration")
	g.Expect(resumed.FinalScore).To(BeNumerically(">=", first.FinalScore), "resume must never discard the best-so-far score")

	history, err := store.LoadHistory(first.RunID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(len(history)).To(BeNumerically(">", 2), "resumed iterations must append to the same history log")
}

func TestResumeErrorsOnUnknownRunID(t *testing.T) {
	g := NewWithT(t)
	store, err := NewDirStore(t.TempDir())
	g.Expect(err).NotTo(HaveOccurred())

	cfg, err := NewBuilder().Build()
	g.Expect(err).NotTo(HaveOccurred())

	loop := NewLoop(cfg, store)
	_, err = loop.Resume(context.Background(), "does-not-exist", smallBundle())
	g.Expect(err).To(HaveOccurred())
}

func TestResumeRequiresConfiguredStore(t *testing.T) {
	g := NewWithT(t)
	cfg, err := NewBuilder().Build()
	g.Expect(err).NotTo(HaveOccurred())

	loop := NewLoop(cfg, nil)
	_, err = loop.Resume(context.Background(), "run-1", smallBundle())
	g.Expect(err).To(HaveOccurred())
}

func TestMutateAdvancesSeedAndGrowsTimeout(t *testing.T) {
	g := NewWithT(t)
	cfg := Config{MaxTimeoutSec: 60}
	algo, timeout, seed := mutate(cfg, solver.AlgorithmGreedy, 10, 5, 1)
	g.Expect(timeout).To(Equal(20))
	g.Expect(seed).To(Equal(int64(6)))
	g.Expect(algo).NotTo(Equal(solver.AlgorithmGreedy))
}
