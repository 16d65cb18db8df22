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

// AssignmentRole is the closed set of roles an Assignment can carry.
type AssignmentRole string

const (
	RolePrimary     AssignmentRole = "primary"
	RoleBackup      AssignmentRole = "backup"
	RoleSupervision AssignmentRole = "supervision"
)

// Assignment is a (block, person, template) triple. Uniqueness is enforced
// on (BlockID, PersonID) by the pipeline and the store, never by this
// struct alone (P4).
type Assignment struct {
	ID         string
	BlockID    string
	PersonID   string
	TemplateID string
	Role       AssignmentRole
	Notes      string
	Locked     bool
	Version    int
}

// SortKey orders assignments by (block date, block time-of-day, person id)
// as required for the external Assignment-set interface (spec.md §6).
// Callers resolve BlockID against a Block lookup table to obtain the date
// and time-of-day before sorting.
type SortKey struct {
	Date      int64 // unix seconds, truncated to day
	TimeOfDay TimeOfDay
	PersonID  string
}
