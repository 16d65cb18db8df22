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

// ActivityKind is the closed set of rotation-template activity kinds.
type ActivityKind string

const (
	ActivityClinic      ActivityKind = "clinic"
	ActivityInpatient   ActivityKind = "inpatient"
	ActivityCall        ActivityKind = "call"
	ActivityAbsence     ActivityKind = "absence"
	ActivitySupervision ActivityKind = "supervision"
	ActivityAdmin       ActivityKind = "admin"
)

// Reserved placeholder abbreviations. These templates never represent real
// clinical activity; the faculty half-day fill step (spec.md §4.1 step 6)
// is the only step that creates assignments against them.
const (
	AbbrevGMEAM = "GME-AM"
	AbbrevGMEPM = "GME-PM"
	AbbrevWAM   = "W-AM"
	AbbrevWPM   = "W-PM"
	AbbrevLVAM  = "LV-AM"
	AbbrevLVPM  = "LV-PM"
	AbbrevHOLAM = "HOL-AM"
	AbbrevHOLPM = "HOL-PM"
)

var placeholderAbbreviations = map[string]bool{
	AbbrevGMEAM: true, AbbrevGMEPM: true,
	AbbrevWAM: true, AbbrevWPM: true,
	AbbrevLVAM: true, AbbrevLVPM: true,
	AbbrevHOLAM: true, AbbrevHOLPM: true,
}

// RotationTemplate is a typed activity slot.
type RotationTemplate struct {
	ID                  string
	Abbreviation        string
	DisplayAbbreviation string
	Kind                ActivityKind
	Category            string
}

// IsPlaceholder reports whether the template is one of the reserved
// admin/weekend/leave/holiday fill templates.
func (t RotationTemplate) IsPlaceholder() bool {
	return placeholderAbbreviations[t.Abbreviation]
}
