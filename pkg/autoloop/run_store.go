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
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Euda1mon1a/residency-scheduler/internal/model"
	"github.com/Euda1mon1a/residency-scheduler/internal/rerrors"
	"github.com/Euda1mon1a/residency-scheduler/pkg/validate"
)

// DirStore is the reference RunStore: one directory per run under Root,
// containing the five artifacts named in spec.md §6: state, schedule and
// report as single JSON documents, history as newline-delimited JSON, and
// log as plain text lines, matching the teacher's
// batcher/cache append-style persistence idiom translated to a flat
// filesystem layout for the CLI.
type DirStore struct {
	Root string
}

// NewDirStore returns a DirStore rooted at root, creating it if absent.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, rerrors.Wrap(rerrors.StoreUnavailable, "creating runs root", err)
	}
	return &DirStore{Root: root}, nil
}

func (s *DirStore) runDir(runID string) string {
	return filepath.Join(s.Root, runID)
}

func (s *DirStore) ensureDir(runID string) error {
	if err := os.MkdirAll(s.runDir(runID), 0o755); err != nil {
		return rerrors.Wrap(rerrors.StoreUnavailable, "creating run directory", err)
	}
	return nil
}

func (s *DirStore) writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return rerrors.Wrap(rerrors.StoreUnavailable, "writing "+path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	return enc.Encode(v)
}

func (s *DirStore) readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return rerrors.Wrap(rerrors.StoreUnavailable, "reading "+path, err)
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

func (s *DirStore) appendLine(path string, v any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return rerrors.Wrap(rerrors.StoreUnavailable, "appending to "+path, err)
	}
	defer f.Close()
	line, err := json.Marshal(v)
	if err != nil {
		return rerrors.Wrap(rerrors.InvalidInput, "marshalling record", err)
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *DirStore) SaveState(runID string, result RunResult) error {
	if err := s.ensureDir(runID); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.runDir(runID), "state"), result)
}

func (s *DirStore) AppendHistory(runID string, record IterationRecord) error {
	if err := s.ensureDir(runID); err != nil {
		return err
	}
	return s.appendLine(filepath.Join(s.runDir(runID), "history"), record)
}

func (s *DirStore) SaveSchedule(runID string, assignments []model.Assignment) error {
	if err := s.ensureDir(runID); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.runDir(runID), "schedule"), assignments)
}

func (s *DirStore) SaveReport(runID string, report validate.Report) error {
	if err := s.ensureDir(runID); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.runDir(runID), "report"), report)
}

func (s *DirStore) AppendLog(runID string, line string) error {
	if err := s.ensureDir(runID); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.runDir(runID), "log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return rerrors.Wrap(rerrors.StoreUnavailable, "appending log", err)
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// LoadState rehydrates the terminal RunResult of a prior run for resumption.
func (s *DirStore) LoadState(runID string) (RunResult, error) {
	var result RunResult
	if err := s.readJSON(filepath.Join(s.runDir(runID), "state"), &result); err != nil {
		return RunResult{}, err
	}
	return result, nil
}

// LoadSchedule rehydrates the best-so-far assignment set of a prior run. A
// run that never improved on its starting score saved no schedule; that
// case returns nil with no error.
func (s *DirStore) LoadSchedule(runID string) ([]model.Assignment, error) {
	path := filepath.Join(s.runDir(runID), "schedule")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var assignments []model.Assignment
	if err := s.readJSON(path, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// LoadReport rehydrates the best-so-far compliance report of a prior run.
func (s *DirStore) LoadReport(runID string) (validate.Report, error) {
	var report validate.Report
	if err := s.readJSON(filepath.Join(s.runDir(runID), "report"), &report); err != nil {
		return validate.Report{}, err
	}
	return report, nil
}

// LoadHistory rehydrates the iteration history for run resumption.
func (s *DirStore) LoadHistory(runID string) ([]IterationRecord, error) {
	path := filepath.Join(s.runDir(runID), "history")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, rerrors.Wrap(rerrors.StoreUnavailable, "reading history", err)
	}
	defer f.Close()

	var out []IterationRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record IterationRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		out = append(out, record)
	}
	return out, scanner.Err()
}
