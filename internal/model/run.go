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

package model

import "time"

// RunStatus is the closed set of ScheduleRun lifecycle states.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// DateInterval is an inclusive [Start, End] calendar interval.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// Days returns every calendar date in the interval, inclusive.
func (d DateInterval) Days() []time.Time {
	start := d.Start.Truncate(24 * time.Hour)
	end := d.End.Truncate(24 * time.Hour)
	var out []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}

// ScheduleRun is an attempt to generate a schedule for a date interval.
// Mutated only by status transitions after creation.
type ScheduleRun struct {
	ID        string
	Interval  DateInterval
	Algorithm string
	Status    RunStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	// RelativeShareMetrics records per-person share-of-load metrics,
	// keyed by person ID, as a fraction of total assignable slots.
	RelativeShareMetrics map[string]float64
}

// StepExecution records the start/end timestamps of a single pipeline step
// within a Run, the basis for property P1 (pipeline order).
type StepExecution struct {
	Step      string
	StartedAt time.Time
	EndedAt   time.Time
}
