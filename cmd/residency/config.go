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
	"flag"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// generateConfig collects the `generate` subcommand's flags.
type generateConfig struct {
	Scenario    string        `validate:"omitempty"`
	ResumeRunID string        `validate:"omitempty"`
	Start       string        `validate:"required"`
	End         string        `validate:"required"`
	MaxIters    int           `validate:"gt=0"`
	TargetScore float64       `validate:"gte=0,lte=1"`
	Stagnation  int           `validate:"gt=0"`
	TimeLimit   time.Duration `validate:"gt=0"`
	Algorithm   string        `validate:"oneof=greedy cp-sat ilp hybrid"`
	Timeout     int           `validate:"gt=0"`
	Candidates  int           `validate:"gt=0"`
	RunsPath    string        `validate:"required"`
	Quiet       bool
	JSONOutput  bool
}

// harnessConfig collects the `resilience-harness` subcommand's flags.
type harnessConfig struct {
	Start      string  `validate:"required"`
	End        string  `validate:"required"`
	Threshold  float64 `validate:"gte=0,lte=1"`
	RunsPath   string  `validate:"required"`
	Quiet      bool
	JSONOutput bool
}

func parseGenerateFlags(args []string) (generateConfig, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	cfg := generateConfig{}
	var timeLimitSeconds int

	fs.StringVar(&cfg.Scenario, "scenario", "", "named scenario to generate for")
	fs.StringVar(&cfg.ResumeRunID, "resume", "", "run ID to resume from persisted state")
	fs.StringVar(&cfg.Start, "start", "", "interval start date (YYYY-MM-DD)")
	fs.StringVar(&cfg.End, "end", "", "interval end date (YYYY-MM-DD)")
	fs.IntVar(&cfg.MaxIters, "max-iters", 50, "maximum autonomous-loop iterations")
	fs.Float64Var(&cfg.TargetScore, "target-score", 0.95, "score at which the loop stops successfully")
	fs.IntVar(&cfg.Stagnation, "stagnation", 10, "iterations without improvement before stopping")
	fs.IntVar(&timeLimitSeconds, "time-limit", 300, "wall-clock budget for the run, in seconds")
	fs.StringVar(&cfg.Algorithm, "algorithm", "greedy", "solver algorithm: greedy, cp-sat, ilp, hybrid")
	fs.IntVar(&cfg.Timeout, "timeout", 30, "initial per-solve timeout, in seconds")
	fs.IntVar(&cfg.Candidates, "candidates", 1, "candidate replicas per iteration")
	fs.StringVar(&cfg.RunsPath, "runs-path", "./runs", "directory for per-run persistence artifacts")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "suppress non-error log output")
	fs.BoolVar(&cfg.JSONOutput, "json-output", false, "emit the final result as JSON on stdout")

	if err := fs.Parse(args); err != nil {
		return generateConfig{}, err
	}
	cfg.TimeLimit = time.Duration(timeLimitSeconds) * time.Second

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, err
	}
	if cfg.End <= cfg.Start {
		return cfg, fmt.Errorf("--end %s must be after --start %s", cfg.End, cfg.Start)
	}
	return cfg, nil
}

func parseHarnessFlags(args []string) (harnessConfig, error) {
	fs := flag.NewFlagSet("resilience-harness", flag.ContinueOnError)
	cfg := harnessConfig{}

	fs.StringVar(&cfg.Start, "start", "", "interval start date (YYYY-MM-DD)")
	fs.StringVar(&cfg.End, "end", "", "interval end date (YYYY-MM-DD)")
	fs.Float64Var(&cfg.Threshold, "threshold", 0.80, "pass-rate threshold across scenarios")
	fs.StringVar(&cfg.RunsPath, "runs-path", "./runs", "directory for per-run persistence artifacts")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "suppress non-error log output")
	fs.BoolVar(&cfg.JSONOutput, "json-output", false, "emit the final result as JSON on stdout")

	if err := fs.Parse(args); err != nil {
		return harnessConfig{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, err
	}
	if cfg.End <= cfg.Start {
		return cfg, fmt.Errorf("--end %s must be after --start %s", cfg.End, cfg.Start)
	}
	return cfg, nil
}
