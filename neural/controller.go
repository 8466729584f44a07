package neural

import "math"

// minTickDelta guards the velocity division against a zero or negative step.
const minTickDelta = 1e-4

// Activate computes the normalized joint targets for the current touch
// sensor state: weighted sum per joint, squashed by tanh into [0, 1].
// With all sensors low every target is exactly 0.5, the joint midpoint.
// Pure function of its inputs; out must have length Joints().
func (g *Genome) Activate(touch []bool, out []float64) {
	for j := 0; j < g.joints; j++ {
		raw := 0.0
		for s := 0; s < g.sensors; s++ {
			if touch[s] {
				raw += g.w[s+j*g.sensors]
			}
		}
		out[j] = (math.Tanh(raw) + 1) * 0.5
	}
}

// JointTarget maps a normalized target in [0, 1] into a hinge's limit range.
func JointTarget(normalized, lower, upper float64) float64 {
	return lower + normalized*(upper-lower)
}

// DesiredVelocity returns the angular velocity that closes the gap from the
// current angle to the target within dt.
func DesiredVelocity(target, current, dt float64) float64 {
	if dt < minTickDelta {
		dt = minTickDelta
	}
	return (target - current) / dt
}
