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

// Package model defines the entities the scheduling pipeline, validator,
// autonomous loop, and resilience engine all operate over. Entities relate
// to each other by identifier (never by embedding or back-reference), so
// callers hold identifier-keyed lookup tables rather than object graphs.
package model

import "fmt"

// PersonKind distinguishes residents from faculty.
type PersonKind string

const (
	PersonKindResident PersonKind = "resident"
	PersonKindFaculty  PersonKind = "faculty"
)

// FacultyRole is the administrative tag carried by faculty members. It
// determines weekly and block clinic limits via WeeklyClinicLimit and
// BlockClinicLimit.
type FacultyRole string

const (
	FacultyRoleProgramDirector FacultyRole = "program-director"
	FacultyRoleAssistantPD     FacultyRole = "assistant-pd"
	FacultyRoleOfficerInCharge FacultyRole = "officer-in-charge"
	FacultyRoleDepartmentChief FacultyRole = "department-chief"
	FacultyRoleSportsMedicine  FacultyRole = "sports-medicine"
	FacultyRoleCoreFaculty     FacultyRole = "core-faculty"
)

// weeklyClinicLimits and blockClinicLimits implement the (0,1,2,2,0,4) and
// (0,4,8,8,0,16) limit tables from spec.md's Person invariants, indexed by
// FacultyRole. Program directors and sports-medicine faculty carry no
// clinic obligation (0 weekly, 0 per block); department chiefs share the
// officer-in-charge limits of 2 weekly and 8 per block.
var weeklyClinicLimits = map[FacultyRole]int{
	FacultyRoleProgramDirector: 0,
	FacultyRoleAssistantPD:     1,
	FacultyRoleOfficerInCharge: 2,
	FacultyRoleDepartmentChief: 2,
	FacultyRoleSportsMedicine:  0,
	FacultyRoleCoreFaculty:     4,
}

var blockClinicLimits = map[FacultyRole]int{
	FacultyRoleProgramDirector: 0,
	FacultyRoleAssistantPD:     4,
	FacultyRoleOfficerInCharge: 8,
	FacultyRoleDepartmentChief: 8,
	FacultyRoleSportsMedicine:  0,
	FacultyRoleCoreFaculty:     16,
}

// WeeklyClinicLimit returns the weekly clinic-slot limit for the role, or
// -1 if the role is unrecognized.
func WeeklyClinicLimit(role FacultyRole) int {
	if limit, ok := weeklyClinicLimits[role]; ok {
		return limit
	}
	return -1
}

// BlockClinicLimit returns the hard per-28-day-block clinic-slot limit for
// the role, or -1 if the role is unrecognized.
func BlockClinicLimit(role FacultyRole) int {
	if limit, ok := blockClinicLimits[role]; ok {
		return limit
	}
	return -1
}

// EquityCounters tracks the running totals used to balance undesirable
// duty across a roster.
type EquityCounters struct {
	SundayCallCount  int
	WeekdayCallCount int
	FMITWeekCount    int
}

// Person is a resident or faculty member. ID is immutable once minted.
type Person struct {
	ID          string
	Kind        PersonKind
	PGYLevel    int // 1-3 for residents, 0 (absent) for faculty
	FacultyRole FacultyRole
	Specialties []string
	Active      bool
	Equity      EquityCounters
}

// Validate enforces the Person invariants from spec.md §3: residents must
// carry a PGY level of 1-3, and a recognized faculty role implies derived
// clinic limits.
func (p Person) Validate() error {
	switch p.Kind {
	case PersonKindResident:
		if p.PGYLevel < 1 || p.PGYLevel > 3 {
			return fmt.Errorf("resident %s: pgy level %d out of range [1,3]", p.ID, p.PGYLevel)
		}
	case PersonKindFaculty:
		if p.FacultyRole != "" && WeeklyClinicLimit(p.FacultyRole) < 0 {
			return fmt.Errorf("faculty %s: unrecognized faculty role %q", p.ID, p.FacultyRole)
		}
	default:
		return fmt.Errorf("person %s: unrecognized kind %q", p.ID, p.Kind)
	}
	return nil
}

// IsFaculty reports whether the person is a faculty member.
func (p Person) IsFaculty() bool { return p.Kind == PersonKindFaculty }

// IsResident reports whether the person is a resident.
func (p Person) IsResident() bool { return p.Kind == PersonKindResident }
