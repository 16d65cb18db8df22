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

import (
	"math"
	"math/rand"
)

// SpinConfiguration is one schedule-diversity replica: a +1/-1 assignment
// vector plus the metrics computed over it, ported from
// original_source/backend/app/resilience/exotic/spin_glass.py.
type SpinConfiguration struct {
	Spins         []int8
	Energy        float64 // lower is a better-quality schedule variant
	Frustration   float64 // fraction of unsatisfied pairwise constraints (0-1)
	Magnetization float64 // mean spin, ~0 for a balanced configuration
	Overlap       float64 // overlap against the last-compared replica (0-1)
}

// ReplicaEnsemble summarizes a batch of replicas generated from the same
// coupling matrix.
type ReplicaEnsemble struct {
	Configurations []SpinConfiguration
	MeanEnergy     float64
	EnergyStd      float64
	MeanOverlap    float64
	DiversityScore float64 // 1 - MeanOverlap, higher is more diverse
}

// LandscapeRuggedness summarizes how many local minima the energy surface
// likely has, informing whether annealing needs more replicas or iterations.
type LandscapeRuggedness struct {
	EnergyRange          float64
	EnergyVariance       float64
	RuggednessScore      float64
	Difficulty           string
	EstimatedLocalMinima int
	MeanEnergy           float64
	StdEnergy            float64
}

// SpinGlassGenerator produces diverse, equally-valid schedule replicas by
// annealing an Ising model whose random couplings encode frustrated
// (mutually unsatisfiable) scheduling preferences (spec.md §4.5
// "Spin-Glass Diversity Model").
type SpinGlassGenerator struct {
	numSpins         int
	temperature      float64
	frustrationLevel float64
	couplings        [][]float64
	rng              *rand.Rand
}

// NewSpinGlassGenerator builds a generator over numSpins binary assignment
// slots with the given temperature and frustrationLevel (0-1 share of
// couplings whose sign is flipped to create conflicting constraints), seeded
// for determinism (P7).
func NewSpinGlassGenerator(numSpins int, temperature, frustrationLevel float64, seed int64) *SpinGlassGenerator {
	g := &SpinGlassGenerator{
		numSpins:         numSpins,
		temperature:      temperature,
		frustrationLevel: frustrationLevel,
		rng:              rand.New(rand.NewSource(seed)),
	}
	g.couplings = g.generateCouplings()
	return g
}

// generateCouplings builds a zero-diagonal coupling matrix from symmetrized
// Gaussian draws, then flips the sign of each off-diagonal entry with
// probability frustrationLevel. J[i][j] and J[j][i] are flipped
// independently, so the result is not in general symmetric.
func (g *SpinGlassGenerator) generateCouplings() [][]float64 {
	n := g.numSpins
	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = make([]float64, n)
		for j := range raw[i] {
			raw[i][j] = g.rng.NormFloat64()
		}
	}

	J := make([][]float64, n)
	for i := range J {
		J[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			J[i][j] = (raw[i][j] + raw[j][i]) / 2
			if g.rng.Float64() < g.frustrationLevel {
				J[i][j] = -J[i][j]
			}
		}
	}
	return J
}

// CalculateEnergy computes the Ising energy E = -1/2 Σ_ij J_ij s_i s_j.
func (g *SpinGlassGenerator) CalculateEnergy(spins []int8) float64 {
	var energy float64
	for i := 0; i < g.numSpins; i++ {
		for j := 0; j < g.numSpins; j++ {
			energy -= g.couplings[i][j] * float64(spins[i]) * float64(spins[j])
		}
	}
	return energy / 2
}

// CalculateFrustration reports the fraction of coupled pairs whose sign
// preference the configuration fails to satisfy.
func (g *SpinGlassGenerator) CalculateFrustration(spins []int8) float64 {
	var total, frustrated int
	for i := 0; i < g.numSpins; i++ {
		for j := i + 1; j < g.numSpins; j++ {
			if g.couplings[i][j] == 0 {
				continue
			}
			total++
			desired := 1.0
			if g.couplings[i][j] < 0 {
				desired = -1.0
			}
			actual := float64(spins[i]) * float64(spins[j])
			if desired*actual < 0 {
				frustrated++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(frustrated) / float64(total)
}

// GenerateReplica runs simulated annealing from a random (or given) initial
// configuration for numIterations Metropolis-Hastings steps, each step
// proposing a single spin flip.
func (g *SpinGlassGenerator) GenerateReplica(numIterations int, initial []int8) SpinConfiguration {
	spins := make([]int8, g.numSpins)
	if initial != nil {
		copy(spins, initial)
	} else {
		for i := range spins {
			spins[i] = randomSpin(g.rng)
		}
	}

	currentEnergy := g.CalculateEnergy(spins)

	for iteration := 0; iteration < numIterations; iteration++ {
		temperature := g.temperature * (1.0 - float64(iteration)/float64(numIterations))
		if temperature < 0.01 {
			temperature = 0.01
		}

		flipIdx := g.rng.Intn(g.numSpins)
		candidate := make([]int8, g.numSpins)
		copy(candidate, spins)
		candidate[flipIdx] = -candidate[flipIdx]

		candidateEnergy := g.CalculateEnergy(candidate)
		deltaE := candidateEnergy - currentEnergy

		if deltaE < 0 || g.rng.Float64() < math.Exp(-deltaE/temperature) {
			spins = candidate
			currentEnergy = candidateEnergy
		}
	}

	var sum int
	for _, s := range spins {
		sum += int(s)
	}
	magnetization := float64(sum) / float64(g.numSpins)

	return SpinConfiguration{
		Spins:         spins,
		Energy:        currentEnergy,
		Frustration:   g.CalculateFrustration(spins),
		Magnetization: magnetization,
	}
}

// GenerateEnsemble produces numReplicas independent replicas and reports
// their pairwise overlap statistics, the diversity signal the autonomous
// loop consumes when it wants several equally-good schedule alternatives.
func (g *SpinGlassGenerator) GenerateEnsemble(numReplicas, numIterations int) ReplicaEnsemble {
	replicas := make([]SpinConfiguration, numReplicas)
	for i := range replicas {
		replicas[i] = g.GenerateReplica(numIterations, nil)
	}

	var overlaps []float64
	for i := 0; i < len(replicas); i++ {
		for j := i + 1; j < len(replicas); j++ {
			overlap := CalculateOverlap(replicas[i].Spins, replicas[j].Spins)
			overlaps = append(overlaps, overlap)
			replicas[i].Overlap = overlap
		}
	}

	meanOverlap := mean(overlaps)

	energies := make([]float64, len(replicas))
	for i, r := range replicas {
		energies[i] = r.Energy
	}

	return ReplicaEnsemble{
		Configurations: replicas,
		MeanEnergy:     mean(energies),
		EnergyStd:      stddev(energies),
		MeanOverlap:    meanOverlap,
		DiversityScore: 1.0 - meanOverlap,
	}
}

// CalculateOverlap computes q = (1/N) Σ_i s1_i s2_i: 1 identical, 0
// orthogonal, -1 opposite.
func CalculateOverlap(spins1, spins2 []int8) float64 {
	if len(spins1) == 0 {
		return 0
	}
	var sum float64
	for i := range spins1 {
		sum += float64(spins1[i]) * float64(spins2[i])
	}
	return sum / float64(len(spins1))
}

// FindGroundState runs numAttempts independent annealing runs and returns
// the lowest-energy configuration found.
func (g *SpinGlassGenerator) FindGroundState(numAttempts, numIterations int) SpinConfiguration {
	best := g.GenerateReplica(numIterations, nil)
	for i := 1; i < numAttempts; i++ {
		candidate := g.GenerateReplica(numIterations, nil)
		if candidate.Energy < best.Energy {
			best = candidate
		}
	}
	return best
}

// AssessLandscapeRuggedness samples numSamples random configurations to
// estimate how rugged (multi-modal) the energy surface is, informing how
// many replicas a caller should request from GenerateEnsemble.
func (g *SpinGlassGenerator) AssessLandscapeRuggedness(numSamples int) LandscapeRuggedness {
	energies := make([]float64, numSamples)
	for i := range energies {
		spins := make([]int8, g.numSpins)
		for j := range spins {
			spins[j] = randomSpin(g.rng)
		}
		energies[i] = g.CalculateEnergy(spins)
	}

	minE, maxE := energies[0], energies[0]
	for _, e := range energies {
		if e < minE {
			minE = e
		}
		if e > maxE {
			maxE = e
		}
	}
	energyRange := maxE - minE
	variance := variance(energies)

	ruggedness := 0.0
	if energyRange > 0 {
		ruggedness = variance / (energyRange * energyRange)
		if ruggedness > 1.0 {
			ruggedness = 1.0
		}
	}

	var difficulty string
	switch {
	case ruggedness > 0.7:
		difficulty = "very_hard"
	case ruggedness > 0.4:
		difficulty = "hard"
	case ruggedness > 0.2:
		difficulty = "moderate"
	default:
		difficulty = "easy"
	}

	return LandscapeRuggedness{
		EnergyRange:          energyRange,
		EnergyVariance:       variance,
		RuggednessScore:      ruggedness,
		Difficulty:           difficulty,
		EstimatedLocalMinima: int(math.Sqrt(float64(numSamples))),
		MeanEnergy:           mean(energies),
		StdEnergy:            stddev(energies),
	}
}

func randomSpin(rng *rand.Rand) int8 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	return math.Sqrt(variance(values))
}
