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

package resilience

import "github.com/Euda1mon1a/residency-scheduler/internal/model"

// DeriveDefenseLevel maps utilization level, N-1/N-2 pass, and active
// fallback presence to one of the five defense-in-depth tiers (spec.md
// §4.5.2). The mapping is a pure function, deterministic in its inputs.
func DeriveDefenseLevel(util model.UtilizationLevel, n1Pass, n2Pass, hasActiveFallback bool) model.DefenseLevel {
	switch {
	case util == model.UtilizationBlack || (!n1Pass && !n2Pass):
		return model.DefenseEmergency
	case hasActiveFallback || util == model.UtilizationRed:
		return model.DefenseContainment
	case !n2Pass:
		return model.DefenseSafetySystems
	case util == model.UtilizationOrange || util == model.UtilizationYellow || !n1Pass:
		return model.DefenseControl
	default:
		return model.DefensePrevention
	}
}
