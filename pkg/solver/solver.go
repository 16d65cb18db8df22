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

// Package solver defines the pluggable solver trait (spec.md §4.2) and its
// dispatch table. All variants share one contract and must be deterministic
// given identical input, constraints, and seed (P7).
package solver

import (
	"context"
	"sort"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

// Algorithm is the closed set of supported solver back-ends.
type Algorithm string

const (
	AlgorithmGreedy Algorithm = "greedy"
	AlgorithmCPSAT  Algorithm = "cp-sat"
	AlgorithmILP    Algorithm = "ilp"
	AlgorithmHybrid Algorithm = "hybrid"
)

// Status is the closed set of a SolverResult's outcome.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
)

// Params accumulates the solver configuration the pipeline and the
// autonomous loop build up across steps (spec.md Design Note §9, "Builder
// for solver configuration").
type Params struct {
	Algorithm  Algorithm
	TimeoutSec int
	Seed       int64
}

// Builder assembles Params with explicit defaults, validated at Build.
type Builder struct {
	params Params
}

// NewBuilder returns a Builder seeded with the greedy default and a 30s
// timeout, matching the CLI's default flags (spec.md §6).
func NewBuilder() *Builder {
	return &Builder{params: Params{Algorithm: AlgorithmGreedy, TimeoutSec: 30, Seed: 1}}
}

func (b *Builder) WithAlgorithm(a Algorithm) *Builder {
	b.params.Algorithm = a
	return b
}

func (b *Builder) WithTimeout(seconds int) *Builder {
	b.params.TimeoutSec = seconds
	return b
}

func (b *Builder) WithSeed(seed int64) *Builder {
	b.params.Seed = seed
	return b
}

// Build validates and returns the accumulated Params.
func (b *Builder) Build() (Params, error) {
	switch b.params.Algorithm {
	case AlgorithmGreedy, AlgorithmCPSAT, AlgorithmILP, AlgorithmHybrid:
	default:
		return Params{}, &invalidAlgorithmError{alg: b.params.Algorithm}
	}
	if b.params.TimeoutSec <= 0 {
		b.params.TimeoutSec = 30
	}
	return b.params, nil
}

type invalidAlgorithmError struct{ alg Algorithm }

func (e *invalidAlgorithmError) Error() string {
	return "solver: unsupported algorithm " + string(e.alg)
}

// Diagnostics carries solver-internal bookkeeping surfaced for audit/debug,
// never consulted for correctness.
type Diagnostics struct {
	CandidatesExplored int
	BacktrackCount     int
	InputHash          uint64
}

// Result is the solver's output contract.
type Result struct {
	Assignments []model.Assignment
	Violations  []constraint.Violation
	Status      Status
	Diagnostics Diagnostics
}

// Solver is the one trait every back-end implements (spec.md Design Note
// §9, "Pluggable solver back-ends behind one trait").
type Solver interface {
	Solve(ctx context.Context, input constraint.Context, params Params) (Result, error)
}

// dispatch is the table mapping Algorithm to a Solver implementation.
var dispatch = map[Algorithm]Solver{
	AlgorithmGreedy: greedySolver{},
	AlgorithmCPSAT:  externalSolver{variant: AlgorithmCPSAT},
	AlgorithmILP:    externalSolver{variant: AlgorithmILP},
	AlgorithmHybrid: hybridSolver{},
}

// Solve resolves params.Algorithm through the dispatch table and invokes it.
func Solve(ctx context.Context, input constraint.Context, params Params) (Result, error) {
	s, ok := dispatch[params.Algorithm]
	if !ok {
		s = dispatch[AlgorithmGreedy]
	}
	return s.Solve(ctx, input, params)
}

// inputHash derives a deterministic hash of the solve input and seed, used
// both for diagnostics and to prove P7 (structurally equal results across
// repeated runs with identical input and seed).
func inputHash(input constraint.Context, params Params) uint64 {
	h, err := hashstructure.Hash(struct {
		Persons     []model.Person
		Blocks      []model.Block
		Assignments []model.Assignment
		Seed        int64
	}{
		Persons:     sortedPersons(input.Persons),
		Blocks:      sortedBlocks(input.Blocks),
		Assignments: input.Assignments,
		Seed:        params.Seed,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

func sortedPersons(m map[string]model.Person) []model.Person {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Person, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func sortedBlocks(m map[string]model.Block) []model.Block {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Block, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
