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

	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
)

// ExternalSolverClient is the dependency-inversion seam for the cp-sat and
// ilp back-ends, which in a production deployment call out to a constraint
// solver process or library. No such process is in scope here: the
// reference implementation has no client wired in, so externalSolver always
// degrades to the greedy solver and returns greedy's Result, Diagnostics
// included, unchanged; nothing in the Result marks the fallback.
type ExternalSolverClient interface {
	Solve(ctx context.Context, input constraint.Context, params Params) (Result, error)
}

// externalSolver represents the cp-sat and ilp variants. Client is nil by
// default (no external solver process is part of this module); Solve falls
// back to greedy whenever Client is unset, which is always true today.
type externalSolver struct {
	variant Algorithm
	Client  ExternalSolverClient
}

func (s externalSolver) Solve(ctx context.Context, input constraint.Context, params Params) (Result, error) {
	if s.Client != nil {
		return s.Client.Solve(ctx, input, params)
	}
	return greedySolver{}.Solve(ctx, input, params)
}

// hybridSolver seeds with the greedy result then would hand off to a cp-sat
// repair pass (spec.md §4.2 "hybrid"). Absent a wired ExternalSolverClient,
// the repair pass is a no-op and the greedy seed is returned directly.
type hybridSolver struct {
	Repair ExternalSolverClient
}

func (s hybridSolver) Solve(ctx context.Context, input constraint.Context, params Params) (Result, error) {
	seed, err := greedySolver{}.Solve(ctx, input, params)
	if err != nil {
		return seed, err
	}
	if s.Repair == nil {
		return seed, nil
	}
	repaired, err := s.Repair.Solve(ctx, input, params)
	if err != nil {
		return seed, nil
	}
	return repaired, nil
}
