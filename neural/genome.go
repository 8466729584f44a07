// Package neural provides the fixed-topology sensor-to-motor layer that
// drives a walker's joints, and the genetic operators over its weights.
package neural

import "math/rand"

// Genome is a fixed-size matrix of sensor-to-motor weights in [-1, 1].
// Its shape never changes after creation; crossover, mutation and
// randomization rewrite values in place.
type Genome struct {
	sensors int
	joints  int
	w       []float64 // indexed sensor + joint*sensors
}

// NewGenome creates a zero-weight genome of the given shape.
func NewGenome(sensors, joints int) *Genome {
	return &Genome{
		sensors: sensors,
		joints:  joints,
		w:       make([]float64, sensors*joints),
	}
}

// NewRandomGenome creates a genome with uniform random weights in [-1, 1].
func NewRandomGenome(sensors, joints int, rng *rand.Rand) *Genome {
	g := NewGenome(sensors, joints)
	g.Randomize(rng)
	return g
}

// Sensors returns the sensor dimension.
func (g *Genome) Sensors() int {
	return g.sensors
}

// Joints returns the joint dimension.
func (g *Genome) Joints() int {
	return g.joints
}

// At returns the weight from a sensor to a joint.
func (g *Genome) At(sensor, joint int) float64 {
	return g.w[sensor+joint*g.sensors]
}

// Randomize replaces every weight with a fresh uniform value in [-1, 1].
func (g *Genome) Randomize(rng *rand.Rand) {
	for i := range g.w {
		g.w[i] = rng.Float64()*2 - 1
	}
}

// Clone creates a deep copy of the genome.
func (g *Genome) Clone() *Genome {
	c := NewGenome(g.sensors, g.joints)
	copy(c.w, g.w)
	return c
}

// CopyFrom overwrites this genome's weights with src's. Shapes must match;
// the population never mixes shapes.
func (g *Genome) CopyFrom(src *Genome) {
	copy(g.w, src.w)
}

// Equal reports whether two genomes hold bit-identical weights.
func (g *Genome) Equal(other *Genome) bool {
	if g.sensors != other.sensors || g.joints != other.joints {
		return false
	}
	for i, v := range g.w {
		if v != other.w[i] {
			return false
		}
	}
	return true
}

// Crossover fills child with a per-weight uniform mix of mother and father:
// each position is an independent coin flip, never a blend.
func Crossover(mother, father, child *Genome, rng *rand.Rand) {
	for i := range child.w {
		if rng.Float64() < 0.5 {
			child.w[i] = mother.w[i]
		} else {
			child.w[i] = father.w[i]
		}
	}
}

// Mutate replaces each weight, with probability rate, by a fresh uniform
// value in [-1, 1]. Weights passing the coin flip are left untouched.
func (g *Genome) Mutate(rng *rand.Rand, rate float64) {
	for i := range g.w {
		if rng.Float64() < rate {
			g.w[i] = rng.Float64()*2 - 1
		}
	}
}
