package neural

import (
	"math"
	"math/rand"
	"testing"
)

func TestActivateAllSensorsLow(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewRandomGenome(13, 12, rng)

	touch := make([]bool, g.Sensors())
	out := make([]float64, g.Joints())
	g.Activate(touch, out)

	for j, v := range out {
		if v != 0.5 {
			t.Errorf("joint %d: expected midpoint target 0.5 with silent sensors, got %g", j, v)
		}
	}
}

func TestActivateSingleSensor(t *testing.T) {
	g := NewGenome(3, 2)
	// Only sensor 1 wired: strongly positive to joint 0, negative to joint 1.
	g.w[1+0*3] = 5
	g.w[1+1*3] = -5

	touch := []bool{false, true, false}
	out := make([]float64, 2)
	g.Activate(touch, out)

	want0 := (math.Tanh(5) + 1) * 0.5
	want1 := (math.Tanh(-5) + 1) * 0.5
	if math.Abs(out[0]-want0) > 1e-15 {
		t.Errorf("joint 0: expected %g, got %g", want0, out[0])
	}
	if math.Abs(out[1]-want1) > 1e-15 {
		t.Errorf("joint 1: expected %g, got %g", want1, out[1])
	}
	if out[0] < 0 || out[0] > 1 || out[1] < 0 || out[1] > 1 {
		t.Error("targets escaped [0,1]")
	}
}

func TestActivateSumsContributions(t *testing.T) {
	g := NewGenome(2, 1)
	g.w[0] = 0.3
	g.w[1] = 0.4

	out := make([]float64, 1)
	g.Activate([]bool{true, true}, out)

	want := (math.Tanh(0.7) + 1) * 0.5
	if math.Abs(out[0]-want) > 1e-15 {
		t.Errorf("expected summed activation %g, got %g", want, out[0])
	}
}

func TestJointTargetMapsLimits(t *testing.T) {
	lower, upper := -0.6, 0.2

	if got := JointTarget(0, lower, upper); got != lower {
		t.Errorf("target 0 should hit lower limit, got %g", got)
	}
	if got := JointTarget(1, lower, upper); got != upper {
		t.Errorf("target 1 should hit upper limit, got %g", got)
	}
	mid := JointTarget(0.5, lower, upper)
	if math.Abs(mid-(-0.2)) > 1e-15 {
		t.Errorf("target 0.5 should hit midpoint -0.2, got %g", mid)
	}
}

func TestDesiredVelocity(t *testing.T) {
	if v := DesiredVelocity(1.0, 0.5, 0.1); math.Abs(v-5) > 1e-12 {
		t.Errorf("expected velocity 5, got %g", v)
	}

	// Zero and negative deltas fall back to the floor instead of dividing
	// by zero.
	v0 := DesiredVelocity(1.0, 0.0, 0)
	vneg := DesiredVelocity(1.0, 0.0, -0.5)
	want := 1.0 / 1e-4
	if v0 != want || vneg != want {
		t.Errorf("expected floored velocity %g, got %g and %g", want, v0, vneg)
	}
}
