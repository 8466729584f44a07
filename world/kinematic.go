package world

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/strider/config"
)

// Kinematic tuning constants.
const (
	// velPerForce converts a motor's max force into an angular velocity cap.
	velPerForce = 20.0
	// contactSlop is the tolerance for ground contact detection.
	contactSlop = 0.01
)

// capsule is the ECS component holding a body's physical state. Capsules are
// treated as vertically oriented; the lowest point is Pos.Y-(Length/2+Radius).
type capsule struct {
	Pos    Vec3
	Radius float64
	Length float64
	Mass   float64
}

// bodyTag is the ECS component holding a body's owner.
type bodyTag struct {
	Owner Owner
}

// hinge is one joint of the kinematic backend.
type hinge struct {
	bodyA   Body
	bodyB   Body
	lower   float64
	upper   float64
	angle   float64
	restY   float64 // bodyB center height at angle 0
	halfLen float64 // half capsule length of bodyB

	motorOn   bool
	targetVel float64
	maxForce  float64
}

// Kinematic is a deterministic in-process stand-in for a rigid-body engine.
// Joints integrate toward their motor targets, feet follow their hinge
// angles, grounded down-strokes propel the walker along +X, and ground
// contact is synthesized against a gradient-noise terrain height field. It is
// deliberately toy-grade: enough physics to give the evolution engine a
// fitness gradient and the full collaborator surface, nothing more.
type Kinematic struct {
	cfg     config.WorldConfig
	world   *ecs.World
	mapper  *ecs.Map2[capsule, bodyTag]
	filter  *ecs.Filter2[capsule, bodyTag]
	terrain *terrainNoise

	entities map[Body]ecs.Entity
	bodyIDs  []Body // registration order; drives deterministic iteration
	joints   map[Joint]*hinge
	jointIDs []Joint

	nextBody  Body
	nextJoint Joint

	ground   Body
	grounded map[Body]bool

	contact ContactFunc
	preStep StepFunc

	time float64
}

// NewKinematic creates a kinematic world with its ground body already
// registered.
func NewKinematic(cfg config.WorldConfig) *Kinematic {
	w := ecs.NewWorld()
	k := &Kinematic{
		cfg:      cfg,
		world:    w,
		mapper:   ecs.NewMap2[capsule, bodyTag](w),
		filter:   ecs.NewFilter2[capsule, bodyTag](w),
		terrain:  newTerrainNoise(cfg.Seed),
		entities: make(map[Body]ecs.Entity),
		joints:   make(map[Joint]*hinge),
		grounded: make(map[Body]bool),
	}
	k.ground = k.AddBody(BodyDef{Owner: Ground(), Radius: 200, Mass: 0})
	return k
}

// Ground returns the handle of the ground body.
func (k *Kinematic) Ground() Body {
	return k.ground
}

// Time returns the accumulated simulation time in seconds.
func (k *Kinematic) Time() float64 {
	return k.time
}

// TerrainHeight samples the ground height field at (x, z).
func (k *Kinematic) TerrainHeight(x, z float64) float64 {
	return k.terrain.Sample(x*k.cfg.TerrainScale, z*k.cfg.TerrainScale) * k.cfg.TerrainAmplitude
}

// AddBody registers a capsule body and returns its handle.
func (k *Kinematic) AddBody(def BodyDef) Body {
	id := k.nextBody
	k.nextBody++

	c := capsule{Pos: def.Pos, Radius: def.Radius, Length: def.Length, Mass: def.Mass}
	t := bodyTag{Owner: def.Owner}
	k.entities[id] = k.mapper.NewEntity(&c, &t)
	k.bodyIDs = append(k.bodyIDs, id)
	return id
}

// RemoveBody unregisters a body. Joints attached to it must be removed by
// the caller first; the walker teardown path does that.
func (k *Kinematic) RemoveBody(b Body) {
	e, ok := k.entities[b]
	if !ok {
		return
	}
	k.world.RemoveEntity(e)
	delete(k.entities, b)
	delete(k.grounded, b)
	for i, id := range k.bodyIDs {
		if id == b {
			k.bodyIDs = append(k.bodyIDs[:i], k.bodyIDs[i+1:]...)
			break
		}
	}
}

// AddJoint registers a hinge between two bodies.
func (k *Kinematic) AddJoint(def JointDef) Joint {
	id := k.nextJoint
	k.nextJoint++

	h := &hinge{
		bodyA: def.BodyA,
		bodyB: def.BodyB,
		lower: def.Lower,
		upper: def.Upper,
	}
	if e, ok := k.entities[def.BodyB]; ok {
		c, _ := k.mapper.Get(e)
		h.restY = c.Pos.Y
		h.halfLen = c.Length / 2
	}
	k.joints[id] = h
	k.jointIDs = append(k.jointIDs, id)
	return id
}

// RemoveJoint unregisters a hinge.
func (k *Kinematic) RemoveJoint(j Joint) {
	if _, ok := k.joints[j]; !ok {
		return
	}
	delete(k.joints, j)
	for i, id := range k.jointIDs {
		if id == j {
			k.jointIDs = append(k.jointIDs[:i], k.jointIDs[i+1:]...)
			break
		}
	}
}

// BodyPosition returns the current world position of a body.
func (k *Kinematic) BodyPosition(b Body) Vec3 {
	e, ok := k.entities[b]
	if !ok {
		return Vec3{}
	}
	c, _ := k.mapper.Get(e)
	return c.Pos
}

// Owner returns the tag a body was registered with.
func (k *Kinematic) Owner(b Body) Owner {
	e, ok := k.entities[b]
	if !ok {
		return Owner{}
	}
	_, t := k.mapper.Get(e)
	return t.Owner
}

// JointAngle returns the current hinge angle.
func (k *Kinematic) JointAngle(j Joint) float64 {
	if h, ok := k.joints[j]; ok {
		return h.angle
	}
	return 0
}

// SetJointMotor commands a hinge motor. The command persists until replaced.
func (k *Kinematic) SetJointMotor(j Joint, targetVelocity, maxForce float64) {
	h, ok := k.joints[j]
	if !ok {
		return
	}
	h.motorOn = true
	h.targetVel = targetVelocity
	h.maxForce = maxForce
}

// OnContact registers the contact callback.
func (k *Kinematic) OnContact(fn ContactFunc) {
	k.contact = fn
}

// OnPreStep registers the pre-step hook.
func (k *Kinematic) OnPreStep(fn StepFunc) {
	k.preStep = fn
}

// BodyCount returns the number of registered bodies, ground included.
func (k *Kinematic) BodyCount() int {
	n := 0
	query := k.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Step advances the world: synthesize contacts from current poses, run the
// pre-step hook, then integrate joint motors and walker displacement.
func (k *Kinematic) Step(dt float64) {
	// Contacts for this step come from the poses the previous step left
	// behind, so the pre-step hook (and its controller ticks) sees them.
	clear(k.grounded)
	for _, id := range k.bodyIDs {
		if id == k.ground {
			continue
		}
		c, t := k.mapper.Get(k.entities[id])
		if !ShouldCollide(t.Owner, Ground()) {
			continue
		}
		lowest := c.Pos.Y - (c.Length/2 + c.Radius)
		if lowest <= k.TerrainHeight(c.Pos.X, c.Pos.Z)+contactSlop {
			k.grounded[id] = true
			if k.contact != nil {
				k.contact(id, k.ground)
			}
		}
	}

	if k.preStep != nil {
		k.preStep(dt)
	}

	// Integrate hinges. Grounded down-strokes accumulate forward drive per
	// walker; lift strokes are free, like a paddle.
	drive := make(map[int]float64)
	for _, jid := range k.jointIDs {
		h := k.joints[jid]
		if !h.motorOn {
			continue
		}
		velCap := h.maxForce * velPerForce
		vel := clampAbs(h.targetVel, velCap)
		prev := h.angle
		h.angle = clampRange(h.angle+vel*dt, h.lower, h.upper)
		delta := h.angle - prev

		e, ok := k.entities[h.bodyB]
		if !ok {
			continue
		}
		c, t := k.mapper.Get(e)
		c.Pos.Y = h.restY + math.Sin(h.angle)*h.halfLen
		if delta < 0 && k.grounded[h.bodyB] && t.Owner.Kind == OwnerWalker {
			drive[t.Owner.Walker] -= delta
		}
	}

	// Advance every body of a driven walker together.
	if len(drive) > 0 {
		for _, id := range k.bodyIDs {
			c, t := k.mapper.Get(k.entities[id])
			if t.Owner.Kind != OwnerWalker {
				continue
			}
			if d, ok := drive[t.Owner.Walker]; ok && d != 0 {
				c.Pos.X += d * k.cfg.StrideGain
			}
		}
	}

	k.time += dt
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
