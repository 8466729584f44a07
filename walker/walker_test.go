package walker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/world"
)

// fakeWorld is a minimal World for driving walkers directly in tests.
type fakeWorld struct {
	nextBody  world.Body
	nextJoint world.Joint
	pos       map[world.Body]world.Vec3
	owners    map[world.Body]world.Owner
	angles    map[world.Joint]float64
	motors    map[world.Joint][2]float64 // velocity, max force
	motorSets int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		pos:    make(map[world.Body]world.Vec3),
		owners: make(map[world.Body]world.Owner),
		angles: make(map[world.Joint]float64),
		motors: make(map[world.Joint][2]float64),
	}
}

func (f *fakeWorld) AddBody(def world.BodyDef) world.Body {
	b := f.nextBody
	f.nextBody++
	f.pos[b] = def.Pos
	f.owners[b] = def.Owner
	return b
}

func (f *fakeWorld) RemoveBody(b world.Body) {
	delete(f.pos, b)
	delete(f.owners, b)
}

func (f *fakeWorld) AddJoint(def world.JointDef) world.Joint {
	j := f.nextJoint
	f.nextJoint++
	f.angles[j] = 0
	return j
}

func (f *fakeWorld) RemoveJoint(j world.Joint) {
	delete(f.angles, j)
	delete(f.motors, j)
}

func (f *fakeWorld) BodyPosition(b world.Body) world.Vec3 { return f.pos[b] }
func (f *fakeWorld) Owner(b world.Body) world.Owner       { return f.owners[b] }
func (f *fakeWorld) JointAngle(j world.Joint) float64     { return f.angles[j] }

func (f *fakeWorld) SetJointMotor(j world.Joint, vel, maxForce float64) {
	f.motors[j] = [2]float64{vel, maxForce}
	f.motorSets++
}

func (f *fakeWorld) OnContact(fn world.ContactFunc) {}
func (f *fakeWorld) OnPreStep(fn world.StepFunc)    {}
func (f *fakeWorld) Step(dt float64)                {}

func testWalker(t *testing.T, index int) *Walker {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	plan := NewPlan(cfg.Walker)
	rng := rand.New(rand.NewSource(int64(index) + 7))
	genome := neural.NewRandomGenome(plan.SegmentCount(), plan.JointCount(), rng)
	return New(index, plan, genome, cfg.Control)
}

func TestIdleWalkerIsInert(t *testing.T) {
	wk := testWalker(t, 0)

	if wk.State() != Idle {
		t.Fatal("new walker should be idle")
	}

	// Defined no-ops, not errors.
	wk.Tick(0.1)
	wk.RecordTouch(0)

	if wk.EvaluationTime() != 0 {
		t.Error("tick on idle walker advanced the evaluation clock")
	}
	if wk.TouchSensor(0) {
		t.Error("touch recorded on idle walker")
	}
}

func TestActivateBuildsPhysicalRepresentation(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 2)

	wk.Activate(fw, world.Vec3{X: 1})

	if wk.State() != Evaluating {
		t.Fatal("expected Evaluating after activate")
	}
	if len(fw.pos) != wk.plan.SegmentCount() {
		t.Errorf("expected %d bodies registered, got %d", wk.plan.SegmentCount(), len(fw.pos))
	}
	if len(fw.angles) != wk.plan.JointCount() {
		t.Errorf("expected %d joints registered, got %d", wk.plan.JointCount(), len(fw.angles))
	}

	// Owner tags carry slot and segment identity.
	seen := make(map[int]bool)
	for _, o := range fw.owners {
		if o.Kind != world.OwnerWalker || o.Walker != 2 {
			t.Errorf("unexpected owner tag %+v", o)
		}
		seen[o.Segment] = true
	}
	if len(seen) != wk.plan.SegmentCount() {
		t.Errorf("expected %d distinct segments, got %d", wk.plan.SegmentCount(), len(seen))
	}

	// Re-activation rebuilds instead of leaking.
	wk.Activate(fw, world.Vec3{X: 2})
	if len(fw.pos) != wk.plan.SegmentCount() {
		t.Errorf("re-activation leaked bodies: %d", len(fw.pos))
	}
}

func TestDeactivateReleasesBodies(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 0)

	wk.Activate(fw, world.Vec3{})
	wk.Deactivate()

	if wk.State() != Idle {
		t.Fatal("expected Idle after deactivate")
	}
	if len(fw.pos) != 0 || len(fw.angles) != 0 {
		t.Errorf("deactivate left %d bodies and %d joints registered", len(fw.pos), len(fw.angles))
	}
}

func TestTickFiresControllerAtControlFrequency(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 0)
	wk.Activate(fw, world.Vec3{})

	// Control period is 1/3 s: the first 0.2 s tick stays below it.
	wk.Tick(0.2)
	if fw.motorSets != 0 {
		t.Fatalf("controller fired below the control period: %d motor commands", fw.motorSets)
	}

	// Second tick crosses the period: one command per joint.
	wk.Tick(0.2)
	if fw.motorSets != wk.plan.JointCount() {
		t.Fatalf("expected %d motor commands, got %d", wk.plan.JointCount(), fw.motorSets)
	}
	if math.Abs(wk.EvaluationTime()-0.4) > 1e-12 {
		t.Errorf("expected evaluation time 0.4, got %g", wk.EvaluationTime())
	}

	// Between ticks the previous command persists; no new ones yet.
	wk.Tick(0.2)
	if fw.motorSets != wk.plan.JointCount() {
		t.Errorf("controller fired again before the period elapsed")
	}
}

func TestSilentSensorsTargetJointMidpoints(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 0)
	wk.Activate(fw, world.Vec3{})

	dt := 0.4 // one tick past the control period
	wk.Tick(dt)

	for j := 0; j < wk.plan.JointCount(); j++ {
		lower, upper := wk.plan.JointLimits(j)
		mid := lower + 0.5*(upper-lower)
		wantVel := mid / dt // current angle is 0 in the fake world
		got := fw.motors[wk.joints[j]]
		if math.Abs(got[0]-wantVel) > 1e-9 {
			t.Errorf("joint %d: expected midpoint-seeking velocity %g, got %g", j, wantVel, got[0])
		}
		if got[1] != wk.motorStrength {
			t.Errorf("joint %d: expected max force %g, got %g", j, wk.motorStrength, got[1])
		}
	}
}

func TestTouchSensorsAccumulateAndClearOnTick(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 0)
	wk.Activate(fw, world.Vec3{})

	wk.RecordTouch(3)
	wk.RecordTouch(5)
	wk.Tick(0.1) // below control period: sensors persist
	if !wk.TouchSensor(3) || !wk.TouchSensor(5) {
		t.Fatal("sensors cleared before the controller consumed them")
	}

	wk.Tick(0.3) // crosses the period: controller consumes and clears
	if wk.TouchSensor(3) || wk.TouchSensor(5) {
		t.Error("sensors not cleared after controller tick")
	}

	// Out-of-range segments are ignored.
	wk.RecordTouch(-1)
	wk.RecordTouch(wk.plan.SegmentCount())
}

func TestFitnessIsSquaredDisplacement(t *testing.T) {
	fw := newFakeWorld()
	wk := testWalker(t, 0)
	wk.Activate(fw, world.Vec3{})

	if wk.Fitness() != 0 {
		t.Fatalf("expected zero fitness at start, got %g", wk.Fitness())
	}

	// Move every body 2 units along X.
	for b := range fw.pos {
		p := fw.pos[b]
		p.X += 2
		fw.pos[b] = p
	}

	if math.Abs(wk.Fitness()-4) > 1e-12 {
		t.Errorf("expected fitness 4, got %g", wk.Fitness())
	}
	if math.Abs(wk.Distance()-2) > 1e-12 {
		t.Errorf("expected distance 2, got %g", wk.Distance())
	}

	// Fitness stays queryable after deactivation.
	wk.Deactivate()
	if math.Abs(wk.Fitness()-4) > 1e-12 {
		t.Errorf("fitness lost on deactivate: got %g", wk.Fitness())
	}
}

func TestReplaceWeightsFrom(t *testing.T) {
	wk := testWalker(t, 0)
	src := testWalker(t, 1)

	wk.ReplaceWeightsFrom(src.Genome())
	if !wk.Genome().Equal(src.Genome()) {
		t.Error("weights not copied")
	}

	// Copy, not alias.
	rng := rand.New(rand.NewSource(99))
	src.Genome().Randomize(rng)
	if wk.Genome().Equal(src.Genome()) {
		t.Error("genome aliases the source")
	}
}
