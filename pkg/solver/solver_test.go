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
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

func sampleInput() constraint.Context {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	block := model.Block{ID: "b1", Date: day, TimeOfDay: model.AM, BlockNumber: 1}
	resident := model.Person{ID: "r1", Kind: model.PersonKindResident, PGYLevel: 2, Active: true}
	clinic := model.RotationTemplate{ID: "t1", Abbreviation: "CLINIC", Kind: model.ActivityClinic}

	return constraint.Context{
		Persons:   map[string]model.Person{"r1": resident},
		Blocks:    map[string]model.Block{"b1": block},
		Templates: map[string]model.RotationTemplate{"t1": clinic},
	}
}

func TestSolveDefaultsToGreedy(t *testing.T) {
	g := NewWithT(t)
	params := Params{Algorithm: "unknown-algorithm", TimeoutSec: 5, Seed: 1}

	result, err := Solve(context.Background(), sampleInput(), params)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Status).To(Equal(StatusOptimal))
	g.Expect(result.Assignments).To(HaveLen(1))
	g.Expect(result.Assignments[0].PersonID).To(Equal("r1"))
}

func TestSolveIsDeterministicForFixedSeed(t *testing.T) {
	g := NewWithT(t)
	params := Params{Algorithm: AlgorithmGreedy, TimeoutSec: 5, Seed: 42}
	input := sampleInput()

	first, err := Solve(context.Background(), input, params)
	g.Expect(err).NotTo(HaveOccurred())
	second, err := Solve(context.Background(), input, params)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(first.Assignments).To(Equal(second.Assignments))
	g.Expect(first.Diagnostics.InputHash).To(Equal(second.Diagnostics.InputHash))
}

func TestBuilderRejectsUnknownAlgorithm(t *testing.T) {
	g := NewWithT(t)

	_, err := NewBuilder().WithAlgorithm("quantum-annealing").Build()
	g.Expect(err).To(HaveOccurred())
}

func TestHybridFallsBackToGreedyWithoutRepairClient(t *testing.T) {
	g := NewWithT(t)
	input := sampleInput()
	params := Params{Algorithm: AlgorithmHybrid, TimeoutSec: 5, Seed: 1}

	result, err := Solve(context.Background(), input, params)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Assignments).To(HaveLen(1))
}
