// Package walker implements one evolving legged agent: its body plan, touch
// sensors, evaluation lifecycle against the physics world, and fitness.
package walker

import (
	"math"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/world"
)

// Hinge limits of the reference walker, in radians.
const (
	hipLower  = -0.75 * (math.Pi / 4)
	hipUpper  = math.Pi / 8
	kneeLower = -math.Pi / 8
	kneeUpper = 0.2
)

// segmentDef places one capsule relative to the walker's reset position.
type segmentDef struct {
	offset world.Vec3
	radius float64
	length float64
}

// jointSpec connects two segments with a hinge.
type jointSpec struct {
	bodyA int
	bodyB int
	lower float64
	upper float64
}

// Plan is the walker body plan: a root capsule with legs distributed
// uniformly around it, each leg a thigh and a shin joined by hip and knee
// hinges. Segment 0 is the root, segments 1+2i and 2+2i are leg i's thigh
// and shin; joint 2i is leg i's hip, joint 1+2i its knee.
type Plan struct {
	segments []segmentDef
	joints   []jointSpec
}

// NewPlan builds the body plan for the configured dimensions.
func NewPlan(cfg config.WalkerConfig) Plan {
	rootHeight := cfg.ForeLegLength

	p := Plan{
		segments: make([]segmentDef, 0, cfg.BodyParts()),
		joints:   make([]jointSpec, 0, cfg.Joints()),
	}

	p.segments = append(p.segments, segmentDef{
		offset: world.Vec3{Y: rootHeight},
		radius: cfg.RootBodyRadius,
		length: cfg.RootBodyHeight,
	})

	for i := 0; i < cfg.Legs; i++ {
		legAngle := 2 * math.Pi * float64(i) / float64(cfg.Legs)
		ux := math.Cos(legAngle)
		uz := math.Sin(legAngle)

		thigh := len(p.segments)
		p.segments = append(p.segments, segmentDef{
			offset: world.Vec3{
				X: ux * (cfg.RootBodyRadius + 0.5*cfg.LegLength),
				Y: rootHeight,
				Z: uz * (cfg.RootBodyRadius + 0.5*cfg.LegLength),
			},
			radius: cfg.LegRadius,
			length: cfg.LegLength,
		})

		shin := len(p.segments)
		p.segments = append(p.segments, segmentDef{
			offset: world.Vec3{
				X: ux * (cfg.RootBodyRadius + cfg.LegLength),
				Y: rootHeight - 0.5*cfg.ForeLegLength,
				Z: uz * (cfg.RootBodyRadius + cfg.LegLength),
			},
			radius: cfg.ForeLegRadius,
			length: cfg.ForeLegLength,
		})

		p.joints = append(p.joints,
			jointSpec{bodyA: 0, bodyB: thigh, lower: hipLower, upper: hipUpper},
			jointSpec{bodyA: thigh, bodyB: shin, lower: kneeLower, upper: kneeUpper},
		)
	}

	return p
}

// SegmentCount returns the number of body segments.
func (p Plan) SegmentCount() int {
	return len(p.segments)
}

// JointCount returns the number of hinge joints.
func (p Plan) JointCount() int {
	return len(p.joints)
}

// JointLimits returns the hinge limits of joint j.
func (p Plan) JointLimits(j int) (lower, upper float64) {
	return p.joints[j].lower, p.joints[j].upper
}
