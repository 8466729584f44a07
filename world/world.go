// Package world defines the physics-world collaborator the evolution engine
// drives, plus an in-process kinematic reference backend. The engine only
// ever talks to the World interface; a full rigid-body engine can be swapped
// in behind it.
package world

import "math"

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len2 returns the squared length of v.
func (v Vec3) Len2() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len returns the length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Len2())
}

// OwnerKind discriminates what a registered body belongs to.
type OwnerKind uint8

const (
	OwnerGround OwnerKind = iota
	OwnerWalker
)

// Owner tags a body with what it belongs to. Walker bodies carry the
// population slot index and the segment index within the walker.
type Owner struct {
	Kind    OwnerKind
	Walker  int
	Segment int
}

// Ground returns the owner tag for the ground body.
func Ground() Owner {
	return Owner{Kind: OwnerGround}
}

// WalkerSegment returns the owner tag for one segment of a walker.
func WalkerSegment(walker, segment int) Owner {
	return Owner{Kind: OwnerWalker, Walker: walker, Segment: segment}
}

// ShouldCollide applies the collision rule: everything collides with ground,
// walker bodies only collide within the same walker. Walkers never interfere
// with each other even when evaluated in parallel.
func ShouldCollide(a, b Owner) bool {
	if a.Kind == OwnerGround || b.Kind == OwnerGround {
		return true
	}
	return a.Walker == b.Walker
}

// Body is an opaque handle to a registered rigid body.
type Body int

// Joint is an opaque handle to a registered hinge joint.
type Joint int

// BodyDef describes one capsule body at registration time.
type BodyDef struct {
	Owner  Owner
	Pos    Vec3
	Radius float64
	Length float64
	Mass   float64 // 0 marks a static body
}

// JointDef describes a hinge joint between two registered bodies.
type JointDef struct {
	BodyA Body
	BodyB Body
	Lower float64 // lower hinge limit in radians
	Upper float64 // upper hinge limit in radians
}

// ContactFunc receives the two bodies of every contact during a step.
type ContactFunc func(a, b Body)

// StepFunc runs synchronously before each integration step.
type StepFunc func(dt float64)

// World is the physics collaborator surface the engine needs. All methods
// are invoked from the single step-driven goroutine; implementations need no
// internal locking.
type World interface {
	AddBody(def BodyDef) Body
	RemoveBody(b Body)
	AddJoint(def JointDef) Joint
	RemoveJoint(j Joint)

	// BodyPosition returns the current world position of a body.
	BodyPosition(b Body) Vec3
	// Owner returns the tag a body was registered with.
	Owner(b Body) Owner

	// JointAngle returns the current hinge angle in radians.
	JointAngle(j Joint) float64
	// SetJointMotor commands a joint motor toward targetVelocity, limited by
	// maxForce. The command persists until the next one.
	SetJointMotor(j Joint, targetVelocity, maxForce float64)

	// OnContact registers the contact callback fired during Step.
	OnContact(fn ContactFunc)
	// OnPreStep registers the hook invoked once at the start of every Step,
	// before integration. The scheduler lives here.
	OnPreStep(fn StepFunc)

	// Step advances the world by dt seconds: contacts, pre-step hook, then
	// integration, in that order.
	Step(dt float64)
}
