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

// Package autoloop implements the generate-evaluate-mutate control loop
// that iteratively drives schedule quality toward a target score.
package autoloop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
	"github.com/Euda1mon1a/residency-scheduler/pkg/constraint"
	"github.com/Euda1mon1a/residency-scheduler/pkg/scheduling"
	"github.com/Euda1mon1a/residency-scheduler/pkg/solver"
	"github.com/Euda1mon1a/residency-scheduler/pkg/validate"
)

// ScoreWeights are the per-term weights of the loop's scalar score. They
// must sum to 1 (validated by Builder.Build). Default {0.4, 0.4, 0.2} per
// DESIGN.md's resolution of the score-formula open question.
type ScoreWeights struct {
	Coverage   float64 // w_cov
	Compliance float64 // w_compliance
	Violation  float64 // w_viol
}

// DefaultScoreWeights is the documented default.
var DefaultScoreWeights = ScoreWeights{Coverage: 0.4, Compliance: 0.4, Violation: 0.2}

// StopReason is the closed set of reasons a Loop run terminates.
type StopReason string

const (
	StopTargetReached StopReason = "target-reached"
	StopExhausted     StopReason = "exhausted"
	StopStagnation    StopReason = "stagnation"
	StopTimedOut      StopReason = "timed-out"
	StopCancelled     StopReason = "cancelled"
)

// Config is the loop's tunable configuration (spec.md §4.4).
type Config struct {
	MaxIterations     int
	TargetScore       float64
	StagnationLimit   int
	TimeLimit         time.Duration
	CandidatesPerIter int
	Weights           ScoreWeights
	Epsilon           float64 // minimum strict-improvement delta
	InitialAlgorithm  solver.Algorithm
	InitialTimeoutSec int
	MaxTimeoutSec     int
	InitialSeed       int64
}

// Builder validates Config at finalization, per Design Note §9.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder seeded with documented defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		MaxIterations:     50,
		TargetScore:       0.95,
		StagnationLimit:   10,
		TimeLimit:         5 * time.Minute,
		CandidatesPerIter: 1,
		Weights:           DefaultScoreWeights,
		Epsilon:           1e-6,
		InitialAlgorithm:  solver.AlgorithmGreedy,
		InitialTimeoutSec: 30,
		MaxTimeoutSec:     300,
		InitialSeed:       1,
	}}
}

func (b *Builder) WithMaxIterations(n int) *Builder       { b.cfg.MaxIterations = n; return b }
func (b *Builder) WithTargetScore(s float64) *Builder     { b.cfg.TargetScore = s; return b }
func (b *Builder) WithStagnationLimit(n int) *Builder     { b.cfg.StagnationLimit = n; return b }
func (b *Builder) WithTimeLimit(d time.Duration) *Builder { b.cfg.TimeLimit = d; return b }
func (b *Builder) WithWeights(w ScoreWeights) *Builder    { b.cfg.Weights = w; return b }

// Build validates the accumulated Config.
func (b *Builder) Build() (Config, error) {
	sum := b.cfg.Weights.Coverage + b.cfg.Weights.Compliance + b.cfg.Weights.Violation
	if sum < 0.999 || sum > 1.001 {
		return Config{}, rerrors.New(rerrors.InvalidInput, fmt.Sprintf("score weights must sum to 1, got %.4f", sum))
	}
	if b.cfg.MaxIterations <= 0 {
		return Config{}, rerrors.New(rerrors.InvalidInput, "max iterations must be positive")
	}
	return b.cfg, nil
}

// IterationRecord is a single append-only history-log entry (spec.md §4.4
// step 5).
type IterationRecord struct {
	Iteration int       `json:"iteration"`
	Score     float64   `json:"score"`
	Algorithm string    `json:"algorithm"`
	TimeoutS  int       `json:"timeout_seconds"`
	Seed      int64     `json:"seed"`
	Timestamp time.Time `json:"timestamp"`
}

// RunResult is the loop's terminal output.
type RunResult struct {
	RunID          string
	Success        bool
	StopReason     StopReason
	FinalScore     float64
	FinalIteration int
	TotalTime      time.Duration
}

// RunStore persists the five per-run artifacts (spec.md §6): state,
// history, schedule, report, log. The Load* methods back Resume, which
// rehydrates a prior run's state, history, and best-so-far schedule/report
// before continuing it under the same run ID.
type RunStore interface {
	SaveState(runID string, result RunResult) error
	AppendHistory(runID string, record IterationRecord) error
	SaveSchedule(runID string, assignments []model.Assignment) error
	SaveReport(runID string, report validate.Report) error
	AppendLog(runID string, line string) error
	LoadHistory(runID string) ([]IterationRecord, error)
	LoadState(runID string) (RunResult, error)
	LoadSchedule(runID string) ([]model.Assignment, error)
	LoadReport(runID string) (validate.Report, error)
}

// Loop drives schedule quality toward Config.TargetScore.
type Loop struct {
	Config Config
	Store  RunStore
	Runner *scheduling.Runner
	Cred   validate.Credentialer
}

// NewLoop constructs a Loop with a default scheduling.Runner.
func NewLoop(cfg Config, store RunStore) *Loop {
	return &Loop{Config: cfg, Store: store, Runner: scheduling.NewRunner()}
}

// Run executes the generate-evaluate-mutate loop against bundle, persisting
// each iteration via Store, and returns a RunResult.
func (l *Loop) Run(ctx context.Context, bundle scheduling.Bundle) (RunResult, error) {
	return l.runFrom(ctx, uuid.NewString(), bundle, resumeState{
		startIteration: 1,
		algorithm:      l.Config.InitialAlgorithm,
		timeout:        l.Config.InitialTimeoutSec,
		seed:           l.Config.InitialSeed,
	})
}

// Resume rehydrates runID's persisted state, history, and best-so-far
// schedule/report from Store, then continues the loop from the next
// iteration under the same run ID (spec.md §4.4 "Resumption from an
// existing run-id rehydrates state, history, and best-so-far, then
// continues from the next iteration").
func (l *Loop) Resume(ctx context.Context, runID string, bundle scheduling.Bundle) (RunResult, error) {
	if l.Store == nil {
		return RunResult{}, rerrors.New(rerrors.InvalidInput, "resume requires a configured Store")
	}

	prior, err := l.Store.LoadState(runID)
	if err != nil {
		return RunResult{}, rerrors.Wrap(rerrors.StoreUnavailable, "loading prior state for "+runID, err)
	}
	history, err := l.Store.LoadHistory(runID)
	if err != nil {
		return RunResult{}, rerrors.Wrap(rerrors.StoreUnavailable, "loading history for "+runID, err)
	}
	bestAssignments, err := l.Store.LoadSchedule(runID)
	if err != nil {
		return RunResult{}, rerrors.Wrap(rerrors.StoreUnavailable, "loading schedule for "+runID, err)
	}
	bestReport, err := l.Store.LoadReport(runID)
	if err != nil {
		return RunResult{}, rerrors.Wrap(rerrors.StoreUnavailable, "loading report for "+runID, err)
	}

	algorithm := l.Config.InitialAlgorithm
	timeout := l.Config.InitialTimeoutSec
	seed := l.Config.InitialSeed
	stagnation := 0
	if last := lastRecord(history); last != nil {
		stagnation = trailingStagnation(history, prior.FinalScore, l.Config.Epsilon)
		algorithm, timeout, seed = mutate(l.Config, solver.Algorithm(last.Algorithm), last.TimeoutS, last.Seed, stagnation)
	}

	return l.runFrom(ctx, runID, bundle, resumeState{
		startIteration:  prior.FinalIteration + 1,
		algorithm:       algorithm,
		timeout:         timeout,
		seed:            seed,
		bestScore:       prior.FinalScore,
		bestAssignments: bestAssignments,
		bestReport:      bestReport,
		stagnation:      stagnation,
		elapsedOffset:   prior.TotalTime,
	})
}

// resumeState seeds runFrom, either freshly (Run) or rehydrated from a
// prior run's persisted artifacts (Resume).
type resumeState struct {
	startIteration  int
	algorithm       solver.Algorithm
	timeout         int
	seed            int64
	bestScore       float64
	bestAssignments []model.Assignment
	bestReport      validate.Report
	stagnation      int
	elapsedOffset   time.Duration
}

// lastRecord returns the most recent history entry, or nil if history is
// empty.
func lastRecord(history []IterationRecord) *IterationRecord {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}

// trailingStagnation reconstructs the stagnation counter from history: the
// number of trailing iterations since the one that reached bestScore.
func trailingStagnation(history []IterationRecord, bestScore, epsilon float64) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Score >= bestScore-epsilon {
			break
		}
		count++
	}
	return count
}

func (l *Loop) runFrom(ctx context.Context, runID string, bundle scheduling.Bundle, state resumeState) (RunResult, error) {
	start := time.Now()
	elapsed := func() time.Duration { return state.elapsedOffset + time.Since(start) }

	algorithm := state.algorithm
	timeout := state.timeout
	seed := state.seed

	bestScore := state.bestScore
	bestAssignments := state.bestAssignments
	bestReport := state.bestReport
	stagnation := state.stagnation

	for iteration := state.startIteration; iteration <= l.Config.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return l.finish(runID, false, StopCancelled, bestScore, iteration-1, elapsed())
		default:
		}
		if elapsed() >= l.Config.TimeLimit {
			return l.finish(runID, false, StopTimedOut, bestScore, iteration-1, elapsed())
		}

		bundle.SolverParams = solver.Params{Algorithm: algorithm, TimeoutSec: timeout, Seed: seed}

		pipelineResult, err := l.Runner.Run(ctx, bundle)
		if err != nil {
			l.appendLog(runID, fmt.Sprintf("iteration %d: pipeline error: %v", iteration, err))
			stagnation++
		} else {
			report := validate.Run(constraint.Context{
				Persons:     bundle.Persons,
				Blocks:      bundle.Blocks,
				Templates:   bundle.Templates,
				Assignments: pipelineResult.Assignments,
				Absences:    bundle.Absences,
			}, l.Cred)

			score := Score(l.Config.Weights, report, pipelineResult.Violations)
			l.appendHistory(runID, IterationRecord{
				Iteration: iteration, Score: score, Algorithm: string(algorithm),
				TimeoutS: timeout, Seed: seed, Timestamp: time.Now(),
			})

			if score > bestScore+l.Config.Epsilon {
				bestScore = score
				bestAssignments = pipelineResult.Assignments
				bestReport = report
				stagnation = 0
			} else {
				stagnation++
			}

			if bestScore >= l.Config.TargetScore {
				l.saveSchedule(runID, bestAssignments)
				l.saveReport(runID, bestReport)
				return l.finish(runID, true, StopTargetReached, bestScore, iteration, elapsed())
			}
		}

		if stagnation >= l.Config.StagnationLimit {
			l.saveSchedule(runID, bestAssignments)
			l.saveReport(runID, bestReport)
			return l.finish(runID, false, StopStagnation, bestScore, iteration, elapsed())
		}

		algorithm, timeout, seed = mutate(l.Config, algorithm, timeout, seed, stagnation)
	}

	l.saveSchedule(runID, bestAssignments)
	l.saveReport(runID, bestReport)
	return l.finish(runID, false, StopExhausted, bestScore, l.Config.MaxIterations, elapsed())
}

// Score implements spec.md §4.4 step 2's scalar score.
func Score(w ScoreWeights, report validate.Report, violations []constraint.Violation) float64 {
	compliance := 0.0
	if report.Compliant {
		compliance = 1.0
	}
	penalty := constraint.Penalty(violations)
	return w.Coverage*report.CoverageRate + w.Compliance*compliance - w.Violation*penalty
}

// mutate rotates algorithm selection on stagnation, grows the timeout
// geometrically bounded by MaxTimeoutSec, and advances the seed (spec.md
// §4.4 step 4).
func mutate(cfg Config, algorithm solver.Algorithm, timeout int, seed int64, stagnation int) (solver.Algorithm, int, int64) {
	rotation := []solver.Algorithm{solver.AlgorithmGreedy, solver.AlgorithmHybrid, solver.AlgorithmCPSAT, solver.AlgorithmILP}
	next := algorithm
	if stagnation > 0 {
		for i, a := range rotation {
			if a == algorithm {
				next = rotation[(i+1)%len(rotation)]
				break
			}
		}
	}
	newTimeout := timeout * 2
	if newTimeout > cfg.MaxTimeoutSec {
		newTimeout = cfg.MaxTimeoutSec
	}
	return next, newTimeout, seed + 1
}

func (l *Loop) finish(runID string, success bool, reason StopReason, score float64, iteration int, elapsed time.Duration) (RunResult, error) {
	result := RunResult{
		RunID: runID, Success: success, StopReason: reason,
		FinalScore: score, FinalIteration: iteration, TotalTime: elapsed,
	}
	if l.Store != nil {
		if err := l.Store.SaveState(runID, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (l *Loop) appendHistory(runID string, record IterationRecord) {
	if l.Store != nil {
		_ = l.Store.AppendHistory(runID, record)
	}
}

func (l *Loop) appendLog(runID string, line string) {
	if l.Store != nil {
		_ = l.Store.AppendLog(runID, line)
	}
}

func (l *Loop) saveSchedule(runID string, assignments []model.Assignment) {
	if l.Store != nil && assignments != nil {
		_ = l.Store.SaveSchedule(runID, assignments)
	}
}

func (l *Loop) saveReport(runID string, report validate.Report) {
	if l.Store != nil {
		_ = l.Store.SaveReport(runID, report)
	}
}
