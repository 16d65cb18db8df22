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

// CallAssignment specializes Assignment for call duties. Its creation
// deterministically implies two follow-up, LOCKED assignments for the
// person the next day: an AM post-call-attending (PCAT) slot and a PM
// day-off slot (spec.md §4.1 step 4, property P3).
type CallAssignment struct {
	Assignment
	FollowUpPCATAssignmentID   string
	FollowUpDayOffAssignmentID string
}
