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

// Absence is a person-dated interval, optionally blocking.
type Absence struct {
	ID       string
	PersonID string
	Start    time.Time
	End      time.Time
	Blocking bool
	Reason   string
}

// Covers reports whether the absence interval overlaps the given date
// (inclusive on both ends, matching a calendar-day absence window).
func (a Absence) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	start := a.Start.Truncate(24 * time.Hour)
	end := a.End.Truncate(24 * time.Hour)
	return !d.Before(start) && !d.After(end)
}
