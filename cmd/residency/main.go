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

// Command residency drives the autonomous schedule-generation loop and
// its resilience regression harness from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Euda1mon1a/residency-scheduler/internal/logging"
	"github.com/Euda1mon1a/residency-scheduler/pkg/autoloop"
)

// exit codes.
const (
	exitSuccess     = 0
	exitUnsatisfied = 1
	exitInterrupted = 130
)

// alwaysCredentialed treats every core faculty member as credentialed for
// every procedure they are asked about. A real credentialing source is
// external to this module.
type alwaysCredentialed struct{}

func (alwaysCredentialed) HasCredential(personID, procedure string) bool { return true }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: residency <generate|resume|resilience-harness> [flags]")
		return exitUnsatisfied
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "generate":
		return runGenerate(ctx, args[1:])
	case "resume":
		return runResume(ctx, args[1:])
	case "resilience-harness":
		return runHarness(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		return exitUnsatisfied
	}
}

func loggerFor(component string, quiet bool) *zap.Logger {
	if quiet {
		return logging.NewQuiet(component)
	}
	return logging.New(component, false)
}

func runGenerate(ctx context.Context, args []string) int {
	cfg, err := parseGenerateFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUnsatisfied
	}
	log := loggerFor("residency.generate", cfg.Quiet)
	defer log.Sync()

	bundle, err := loadBundle(cfg.Start, cfg.End, cfg.Algorithm, cfg.Timeout, 1)
	if err != nil {
		log.Error("building bundle", zap.Error(err))
		return exitUnsatisfied
	}

	store, err := autoloop.NewDirStore(cfg.RunsPath)
	if err != nil {
		log.Error("opening run store", zap.Error(err))
		return exitUnsatisfied
	}

	loopCfg, err := autoloop.NewBuilder().
		WithMaxIterations(cfg.MaxIters).
		WithTargetScore(cfg.TargetScore).
		WithStagnationLimit(cfg.Stagnation).
		WithTimeLimit(cfg.TimeLimit).
		Build()
	if err != nil {
		log.Error("building loop config", zap.Error(err))
		return exitUnsatisfied
	}
	loopCfg.CandidatesPerIter = cfg.Candidates
	loopCfg.InitialAlgorithm = bundle.SolverParams.Algorithm
	loopCfg.InitialTimeoutSec = cfg.Timeout

	loop := autoloop.NewLoop(loopCfg, store)
	loop.Cred = alwaysCredentialed{}

	result, runErr := loop.Run(ctx, bundle)
	return reportGenerateResult(log, cfg.JSONOutput, result, runErr)
}

func runResume(ctx context.Context, args []string) int {
	cfg, err := parseGenerateFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUnsatisfied
	}
	if cfg.ResumeRunID == "" {
		fmt.Fprintln(os.Stderr, "resume requires --resume <run-id>")
		return exitUnsatisfied
	}
	log := loggerFor("residency.resume", cfg.Quiet)
	defer log.Sync()

	bundle, err := loadBundle(cfg.Start, cfg.End, cfg.Algorithm, cfg.Timeout, 1)
	if err != nil {
		log.Error("building bundle", zap.Error(err))
		return exitUnsatisfied
	}

	store, err := autoloop.NewDirStore(cfg.RunsPath)
	if err != nil {
		log.Error("opening run store", zap.Error(err))
		return exitUnsatisfied
	}

	loopCfg, err := autoloop.NewBuilder().
		WithMaxIterations(cfg.MaxIters).
		WithTargetScore(cfg.TargetScore).
		WithStagnationLimit(cfg.Stagnation).
		WithTimeLimit(cfg.TimeLimit).
		Build()
	if err != nil {
		log.Error("building loop config", zap.Error(err))
		return exitUnsatisfied
	}

	loop := autoloop.NewLoop(loopCfg, store)
	loop.Cred = alwaysCredentialed{}

	log.Info("resuming run", zap.String("run_id", cfg.ResumeRunID))
	result, runErr := loop.Resume(ctx, cfg.ResumeRunID, bundle)
	return reportGenerateResult(log, cfg.JSONOutput, result, runErr)
}

func reportGenerateResult(log *zap.Logger, jsonOutput bool, result autoloop.RunResult, runErr error) int {
	if runErr != nil {
		log.Error("run failed", zap.Error(runErr))
		return exitUnsatisfied
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(result); err != nil {
			log.Error("encoding result", zap.Error(err))
			return exitUnsatisfied
		}
	} else {
		fmt.Printf("run %s: stop=%s score=%.4f iterations=%d elapsed=%s\n",
			result.RunID, result.StopReason, result.FinalScore, result.FinalIteration, result.TotalTime)
	}

	if result.StopReason == autoloop.StopCancelled {
		return exitInterrupted
	}
	if !result.Success {
		return exitUnsatisfied
	}
	return exitSuccess
}

func runHarness(ctx context.Context, args []string) int {
	cfg, err := parseHarnessFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUnsatisfied
	}
	log := loggerFor("residency.resilience-harness", cfg.Quiet)
	defer log.Sync()

	bundle, err := loadBundle(cfg.Start, cfg.End, "greedy", 30, 1)
	if err != nil {
		log.Error("building bundle", zap.Error(err))
		return exitUnsatisfied
	}

	harnessCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	result := autoloop.RunHarness(harnessCtx, bundle, autoloop.DefaultScoreWeights, cfg.Threshold, alwaysCredentialed{})

	if cfg.JSONOutput {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(result); err != nil {
			log.Error("encoding result", zap.Error(err))
			return exitUnsatisfied
		}
	} else {
		fmt.Printf("resilience harness: passed=%v feasible=%d/%d avg_degradation=%.4f\n",
			result.Passed, result.FeasibleCount, result.TotalCount, result.AverageDegradation)
		for _, outcome := range result.Outcomes {
			fmt.Printf("  %-24s feasible=%v score=%.4f degradation=%.4f\n",
				outcome.Scenario, outcome.Feasible, outcome.Score, outcome.ScoreDegradation)
		}
	}

	if ctx.Err() != nil {
		return exitInterrupted
	}
	if !result.Passed {
		return exitUnsatisfied
	}
	return exitSuccess
}
