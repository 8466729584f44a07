package walker

import (
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/world"
)

// State is the evaluation state of a walker slot.
type State uint8

const (
	Idle State = iota
	Evaluating
)

// Walker is one population slot: a genome, its touch sensors and evaluation
// clocks, and the physical representation it owns while under evaluation.
// The slot index is assigned once and never changes.
type Walker struct {
	index  int
	plan   Plan
	genome *neural.Genome

	state  State
	reaped bool

	touch        []bool
	evalTime     float64
	controlAccum float64
	startPos     world.Vec3
	lastPos      world.Vec3

	controlPeriod float64
	motorStrength float64

	w      world.World
	bodies []world.Body
	joints []world.Joint

	targets []float64 // controller output scratch
}

// New creates an idle walker for a population slot.
func New(index int, plan Plan, genome *neural.Genome, ctl config.ControlConfig) *Walker {
	return &Walker{
		index:         index,
		plan:          plan,
		genome:        genome,
		touch:         make([]bool, plan.SegmentCount()),
		controlPeriod: ctl.ControlPeriod(),
		motorStrength: ctl.MotorStrength,
		targets:       make([]float64, plan.JointCount()),
	}
}

// Index returns the walker's stable population slot index.
func (wk *Walker) Index() int {
	return wk.index
}

// State returns the current evaluation state.
func (wk *Walker) State() State {
	return wk.state
}

// Reaped reports whether the walker is marked for replacement.
func (wk *Walker) Reaped() bool {
	return wk.reaped
}

// SetReaped marks or clears the replacement flag. Orthogonal to State.
func (wk *Walker) SetReaped(reaped bool) {
	wk.reaped = reaped
}

// Genome returns the walker's weight matrix.
func (wk *Walker) Genome() *neural.Genome {
	return wk.genome
}

// ReplaceWeightsFrom overwrites the full weight matrix from src.
func (wk *Walker) ReplaceWeightsFrom(src *neural.Genome) {
	wk.genome.CopyFrom(src)
}

// EvaluationTime returns seconds accumulated in the current evaluation.
func (wk *Walker) EvaluationTime() float64 {
	return wk.evalTime
}

// ResetEvaluationTime zeroes the evaluation clock; the scheduler calls this
// on every slot when a new round begins.
func (wk *Walker) ResetEvaluationTime() {
	wk.evalTime = 0
}

// Activate transitions Idle -> Evaluating: builds a fresh physical
// representation at start and resets clocks and sensors. Any prior physical
// representation for this slot is torn down first, so activation after a
// genome replacement always runs the new weights in a clean body.
func (wk *Walker) Activate(w world.World, start world.Vec3) {
	wk.teardown()

	wk.w = w
	wk.bodies = make([]world.Body, 0, wk.plan.SegmentCount())
	wk.joints = make([]world.Joint, 0, wk.plan.JointCount())

	for seg, def := range wk.plan.segments {
		wk.bodies = append(wk.bodies, w.AddBody(world.BodyDef{
			Owner:  world.WalkerSegment(wk.index, seg),
			Pos:    start.Add(def.offset),
			Radius: def.radius,
			Length: def.length,
			Mass:   1,
		}))
	}
	for _, spec := range wk.plan.joints {
		wk.joints = append(wk.joints, w.AddJoint(world.JointDef{
			BodyA: wk.bodies[spec.bodyA],
			BodyB: wk.bodies[spec.bodyB],
			Lower: spec.lower,
			Upper: spec.upper,
		}))
	}

	wk.evalTime = 0
	wk.controlAccum = 0
	wk.clearTouchSensors()
	wk.state = Evaluating

	// Fitness measures displacement of the body centroid, so the reference
	// point is the centroid as built, not the raw reset position.
	wk.startPos = wk.Position()
	wk.lastPos = wk.startPos
}

// Deactivate transitions Evaluating -> Idle and releases the physical
// representation. The final position is cached so Fitness stays queryable
// until the next Activate.
func (wk *Walker) Deactivate() {
	if wk.state != Evaluating {
		return
	}
	wk.lastPos = wk.Position()
	wk.teardown()
	wk.state = Idle
}

func (wk *Walker) teardown() {
	if wk.w == nil {
		return
	}
	for _, j := range wk.joints {
		wk.w.RemoveJoint(j)
	}
	for _, b := range wk.bodies {
		wk.w.RemoveBody(b)
	}
	wk.joints = wk.joints[:0]
	wk.bodies = wk.bodies[:0]
}

// Tick advances the evaluation clock and, at the control frequency, runs the
// controller over the accumulated touch sensors. No-op when idle: physics
// callbacks may still reference a walker that left evaluation mid-step.
func (wk *Walker) Tick(dt float64) {
	if wk.state != Evaluating {
		return
	}

	wk.evalTime += dt
	wk.controlAccum += dt
	if wk.controlAccum < wk.controlPeriod {
		return
	}
	wk.controlAccum = 0

	wk.genome.Activate(wk.touch, wk.targets)
	for j, joint := range wk.joints {
		lower, upper := wk.plan.JointLimits(j)
		target := neural.JointTarget(wk.targets[j], lower, upper)
		current := wk.w.JointAngle(joint)
		wk.w.SetJointMotor(joint, neural.DesiredVelocity(target, current, dt), wk.motorStrength)
	}

	// Sensor state is consumed by the tick; contacts accumulate anew until
	// the next one.
	wk.clearTouchSensors()
}

// RecordTouch sets the touch sensor of a body segment. No-op when idle or
// for out-of-range segments.
func (wk *Walker) RecordTouch(segment int) {
	if wk.state != Evaluating || segment < 0 || segment >= len(wk.touch) {
		return
	}
	wk.touch[segment] = true
}

// TouchSensor returns the current state of one touch sensor.
func (wk *Walker) TouchSensor(segment int) bool {
	return wk.touch[segment]
}

func (wk *Walker) clearTouchSensors() {
	for i := range wk.touch {
		wk.touch[i] = false
	}
}

// Position returns the mean position of all body segments while evaluating,
// or the cached final position afterwards.
func (wk *Walker) Position() world.Vec3 {
	if wk.state != Evaluating || len(wk.bodies) == 0 {
		return wk.lastPos
	}
	var sum world.Vec3
	for _, b := range wk.bodies {
		sum = sum.Add(wk.w.BodyPosition(b))
	}
	return sum.Scale(1 / float64(len(wk.bodies)))
}

// Fitness returns the squared displacement from the evaluation start. Squared
// to keep the hot path free of square roots; Distance reports the root.
// Pure read with no side effects.
func (wk *Walker) Fitness() float64 {
	return wk.Position().Sub(wk.startPos).Len2()
}

// Distance returns the walked distance for reporting.
func (wk *Walker) Distance() float64 {
	return wk.Position().Sub(wk.startPos).Len()
}
