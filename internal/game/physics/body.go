// Package physics is the minimal rigid-body layer the skill components run
// on: bodies with kinematic and collider switches, velocity and force modes,
// parenting to a caster, and begin-contact callbacks. Broad-phase contact
// detection uses a resolv Space over the ground plane.
package physics

import (
	"github.com/solarlune/resolv"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
)

// ForceMode selects how AddForce changes a body's motion.
type ForceMode int

const (
	// Acceleration is integrated over the next step: v += a*dt.
	Acceleration ForceMode = iota
	// VelocityChange is applied at once: v += a.
	VelocityChange
)

// Body is a sphere that either simulates (dynamic) or is moved by its owner
// (kinematic).
type Body struct {
	// Owner is the game object the body belongs to. Contact handlers use it
	// to find out what they touched.
	Owner any

	radius    float64
	position  geom.Vec3
	velocity  geom.Vec3
	accel     geom.Vec3
	kinematic bool
	collider  bool
	gravity   bool

	parent *Body
	offset geom.Vec3

	onContact func(other *Body)
	touching  map[*Body]struct{}

	obj   *resolv.Object
	space *Space
}

// NewBody returns a dynamic body with its collider enabled.
//
// Precondition: radius > 0.
func NewBody(owner any, radius float64, tags ...string) *Body {
	if radius <= 0 {
		panic("physics.NewBody: radius must be > 0")
	}
	b := &Body{
		Owner:    owner,
		radius:   radius,
		collider: true,
		touching: make(map[*Body]struct{}),
	}
	b.obj = resolv.NewObject(0, 0, 2*radius, 2*radius, tags...)
	b.obj.Data = b
	return b
}

// Radius returns the collision radius.
func (b *Body) Radius() float64 { return b.radius }

// SetRadius resizes the collision sphere. Non-positive values are ignored.
func (b *Body) SetRadius(r float64) {
	if r <= 0 {
		return
	}
	b.radius = r
	b.obj.W = 2 * r
	b.obj.H = 2 * r
	b.sync()
}

// Position returns the world position.
func (b *Body) Position() geom.Vec3 { return b.position }

// SetPosition teleports the body.
func (b *Body) SetPosition(p geom.Vec3) {
	b.position = p
	b.sync()
}

// Velocity returns the current velocity.
func (b *Body) Velocity() geom.Vec3 { return b.velocity }

// SetVelocity replaces the velocity, discarding residual motion.
func (b *Body) SetVelocity(v geom.Vec3) { b.velocity = v }

// AddForce composes f with the existing motion. Kinematic bodies ignore forces.
func (b *Body) AddForce(f geom.Vec3, mode ForceMode) {
	if b.kinematic {
		return
	}
	switch mode {
	case VelocityChange:
		b.velocity = b.velocity.Add(f)
	default:
		b.accel = b.accel.Add(f)
	}
}

// Kinematic reports whether the body ignores simulation.
func (b *Body) Kinematic() bool { return b.kinematic }

// SetKinematic switches simulation off (true) or on (false).
func (b *Body) SetKinematic(k bool) {
	b.kinematic = k
	if k {
		b.accel = geom.Zero
	}
}

// ColliderEnabled reports whether the body takes part in contacts.
func (b *Body) ColliderEnabled() bool { return b.collider }

// SetColliderEnabled switches contact participation.
func (b *Body) SetColliderEnabled(on bool) {
	b.collider = on
	if !on {
		clear(b.touching)
	}
}

// SetUseGravity makes the space's gravity apply to this body.
func (b *Body) SetUseGravity(on bool) { b.gravity = on }

// OnContact installs the begin-contact handler. It fires once when another
// collider starts overlapping this one.
func (b *Body) OnContact(fn func(other *Body)) { b.onContact = fn }

// Attach parents the body to p at offset; it then follows p every step.
func (b *Body) Attach(p *Body, offset geom.Vec3) {
	b.parent = p
	b.offset = offset
	b.position = p.position.Add(offset)
	b.sync()
}

// Detach releases the body from its parent, keeping its world position.
func (b *Body) Detach() { b.parent = nil }

// Parent returns the body this one follows, or nil.
func (b *Body) Parent() *Body { return b.parent }

// InSpace reports whether the body is registered with a Space.
func (b *Body) InSpace() bool { return b.space != nil }

func (b *Body) overlaps(o *Body) bool {
	return geom.Distance(b.position, o.position) <= b.radius+o.radius
}

func (b *Body) sync() {
	if b.space == nil {
		return
	}
	b.obj.X = b.position.X - b.radius + b.space.halfWidth
	b.obj.Y = b.position.Z - b.radius + b.space.halfDepth
	b.obj.Update()
}
