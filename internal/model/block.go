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

// TimeOfDay is the half-day half of a Block.
type TimeOfDay string

const (
	AM TimeOfDay = "AM"
	PM TimeOfDay = "PM"
)

// Block is an assignable half-day slot. Blocks are created once per
// calendar period and are immutable thereafter.
type Block struct {
	ID          string
	Date        time.Time
	TimeOfDay   TimeOfDay
	BlockNumber int
	Weekend     bool
	Holiday     bool
}

// NextDayDate returns the calendar date following b.Date; callers resolve
// it, together with a time-of-day, against a Block lookup table keyed by
// (date, time-of-day).
func (b Block) NextDayDate() time.Time {
	return b.Date.AddDate(0, 0, 1)
}

// BlockKey uniquely identifies a (date, time-of-day) slot independent of
// BlockNumber, used for lookup tables built over an interval.
type BlockKey struct {
	Date      time.Time
	TimeOfDay TimeOfDay
}

// KeyOf returns the BlockKey for a block.
func KeyOf(b Block) BlockKey {
	return BlockKey{Date: b.Date.Truncate(24 * time.Hour), TimeOfDay: b.TimeOfDay}
}
