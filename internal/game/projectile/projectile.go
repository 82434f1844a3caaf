// Package projectile implements the projectile skill component: a body that
// rides on its caster while armed, flies once shot, and either expires at the
// end of its range or explodes on impact.
package projectile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

// ErrNotArmed is returned by Shoot when no definition is bound or the
// projectile has already been shot.
var ErrNotArmed = errors.New("projectile: not armed")

// ErrSpent is returned by Arm once the projectile has left its caster.
var ErrSpent = errors.New("projectile: already shot")

// Tag marks projectile bodies in the physics space.
const Tag = "projectile"

// defaultRadius sizes the body before a definition is bound.
const defaultRadius = 0.25

// Phase is the lifecycle position of a projectile.
type Phase int

const (
	Unarmed Phase = iota
	Armed
	Shooting
	Expired
	Exploded
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Shooting:
		return "shooting"
	case Expired:
		return "expired"
	case Exploded:
		return "exploded"
	default:
		return "unknown"
	}
}

// Terminal reports whether the projectile has been destroyed.
func (p Phase) Terminal() bool { return p == Expired || p == Exploded }

// Env carries the world services a projectile uses.
type Env struct {
	Space   *physics.Space
	Clock   *schedule.Scheduler
	Effects vfx.Spawner
	// EffectCleanup is how long an impact effect lives, in unscaled time.
	EffectCleanup time.Duration
	Logger        *zap.Logger
}

// Component is one projectile instance. It implements skill.Component.
//
// Invariant: the body is kinematic with its collider off and parented to the
// caster in every phase before Shooting.
type Component struct {
	id     string
	env    Env
	caster skill.Caster
	def    *skill.Definition
	body   *physics.Body
	phase  Phase
	health float64
	origin geom.Vec3
	charge *skill.Charge
	// shotCharge freezes the charge fraction at launch; the caster's Charge
	// is reused by its next cast.
	shotCharge float64

	onDestroyed func(*Component)
	logger      *zap.Logger
}

var _ skill.Component = (*Component)(nil)

// New creates an unarmed projectile riding on caster and registers its body
// with env.Space.
//
// Precondition: caster, env.Space, env.Clock and env.Logger must not be nil.
func New(caster skill.Caster, env Env) *Component {
	if caster == nil || env.Space == nil || env.Clock == nil || env.Logger == nil {
		panic("projectile.New: caster and env services must not be nil")
	}
	c := &Component{
		id:     uuid.NewString(),
		env:    env,
		caster: caster,
	}
	c.logger = env.Logger.Named("projectile").With(zap.String("id", c.id), zap.String("caster", caster.ID()))
	c.body = physics.NewBody(c, defaultRadius, Tag)
	c.body.SetKinematic(true)
	c.body.SetColliderEnabled(false)
	c.body.OnContact(c.onContact)
	c.attach()
	env.Space.Add(c.body)
	return c
}

// ID returns the projectile's unique id.
func (c *Component) ID() string { return c.id }

// Body returns the projectile body.
func (c *Component) Body() *physics.Body { return c.body }

// Phase returns the lifecycle phase.
func (c *Component) Phase() Phase { return c.phase }

// Definition returns the bound definition, or nil while unarmed.
func (c *Component) Definition() *skill.Definition { return c.def }

// Health returns the remaining projectile health.
func (c *Component) Health() float64 { return c.health }

// Caster returns the actor that cast the projectile.
func (c *Component) Caster() skill.Caster { return c.caster }

// OnDestroyed installs fn to run once when the projectile expires or
// explodes.
func (c *Component) OnDestroyed(fn func(*Component)) { c.onDestroyed = fn }

// SetCharge marks the projectile as a charged cast; damage, force and damage
// to spells scale by ch's fraction from then on.
func (c *Component) SetCharge(ch *skill.Charge) { c.charge = ch }

// Arm binds def and resets the projectile's health to the definition's
// maximum.
//
// Postcondition: on success Phase() == Armed.
func (c *Component) Arm(def *skill.Definition) error {
	if def == nil || def.Kind != skill.KindProjectile || def.Projectile == nil {
		return fmt.Errorf("projectile.Arm: %w", skill.ErrWrongKind)
	}
	if c.phase >= Shooting {
		return fmt.Errorf("projectile.Arm %s: %w", def.ID, ErrSpent)
	}
	c.def = def
	c.health = def.Projectile.MaxHealth
	c.body.SetRadius(def.Projectile.Radius)
	c.attach()
	c.phase = Armed
	return nil
}

// Shoot launches the projectile along dir. A zero dir uses the caster's
// forward vector. With set_velocity the launch replaces any residual motion;
// otherwise it is added as an impulse.
//
// Precondition: Phase() == Armed.
// Postcondition: on success the body is dynamic, detached and collides.
func (c *Component) Shoot(dir geom.Vec3) error {
	if c.phase != Armed {
		return ErrNotArmed
	}
	if dir.IsZero() {
		dir = c.caster.Forward()
	}
	dir = dir.Normalize()

	c.body.Detach()
	c.body.SetKinematic(false)
	c.body.SetColliderEnabled(true)
	c.origin = c.body.Position()
	launch := dir.Scale(c.def.Projectile.Speed)
	if c.def.SetVelocity {
		c.body.SetVelocity(launch)
	} else {
		c.body.AddForce(launch, physics.VelocityChange)
	}
	c.freezeCharge()
	c.phase = Shooting
	c.logger.Debug("shot",
		zap.String("skill", c.def.ID),
		zap.Float64("charge", c.chargeFraction()),
	)
	return nil
}

// PlaceAt launches the projectile standing still at p, as spawn casts do.
//
// Precondition: Phase() == Armed.
func (c *Component) PlaceAt(p geom.Vec3) error {
	if c.phase != Armed {
		return ErrNotArmed
	}
	c.body.Detach()
	c.body.SetPosition(p)
	c.body.SetVelocity(geom.Zero)
	c.body.SetKinematic(false)
	c.body.SetColliderEnabled(true)
	c.origin = p
	c.freezeCharge()
	c.phase = Shooting
	return nil
}

// Update expires the projectile once it has travelled beyond its range.
func (c *Component) Update() {
	if c.phase != Shooting {
		return
	}
	if c.Travelled() > c.def.Projectile.Range {
		c.destroy(Expired)
	}
}

// Travelled returns the straight-line distance from the launch point.
func (c *Component) Travelled() float64 {
	if c.phase < Shooting {
		return 0
	}
	return geom.Distance(c.origin, c.body.Position())
}

// Release destroys the projectile without an impact effect. It is a no-op
// once the projectile is terminal.
func (c *Component) Release() {
	if c.phase.Terminal() {
		return
	}
	c.destroy(Expired)
}

// IsActive reports whether the projectile is in flight.
func (c *Component) IsActive() bool { return c.phase == Shooting }

// Damage returns the damage delivered to a struck actor.
func (c *Component) Damage() int {
	if c.def == nil {
		return 0
	}
	return combat.Scaled(c.def.Projectile.Damage, c.chargeFraction())
}

// Force returns the force delivered to a struck actor.
func (c *Component) Force() float64 {
	if c.def == nil {
		return 0
	}
	return c.def.Projectile.Force * c.chargeFraction()
}

// DamageToSpells returns the health this projectile removes from a
// destructible projectile it hits.
func (c *Component) DamageToSpells() float64 {
	if c.def == nil {
		return 0
	}
	p := c.def.Projectile
	return p.DamageToSpells * p.Damage * c.chargeFraction()
}

// Explode destroys the projectile and spawns its impact effect, if any. The
// effect is removed after EffectCleanup regardless of the time scale.
func (c *Component) Explode() {
	if c.phase.Terminal() {
		return
	}
	at := c.body.Position()
	c.destroy(Exploded)
	if c.def == nil || c.def.ImpactEffect == "" || c.env.Effects == nil {
		return
	}
	fx := c.env.Effects.Spawn(c.def.ImpactEffect, at)
	fx.Activate()
	fx.Destroy(c.env.EffectCleanup)
}

func (c *Component) onContact(other *physics.Body) {
	if c.phase != Shooting {
		return
	}
	if other == c.caster.Body() {
		return
	}
	if attacker, ok := other.Owner.(*Component); ok {
		if attacker.caster.ID() == c.caster.ID() {
			return
		}
		if c.def.Projectile.Destructible {
			c.health -= attacker.DamageToSpells()
			c.logger.Debug("struck by projectile",
				zap.String("attacker", attacker.id),
				zap.Float64("health", c.health),
			)
			if c.health <= 0 {
				c.Explode()
			}
			return
		}
		if c.def.DestroyOnImpact {
			c.Explode()
		}
		return
	}
	if target, ok := other.Owner.(combat.Damageable); ok && target.ID() != c.caster.ID() {
		target.TakeDamage(combat.Hit{
			Source:    c.caster.ID(),
			Amount:    c.Damage(),
			Force:     c.Force(),
			Point:     c.body.Position(),
			Direction: c.body.Velocity().Normalize(),
			Element:   c.def.ElementValue(),
		})
	}
	if c.def.DestroyOnImpact {
		c.Explode()
	}
}

func (c *Component) destroy(final Phase) {
	c.phase = final
	c.body.SetColliderEnabled(false)
	c.env.Space.Remove(c.body)
	c.logger.Debug("destroyed", zap.Stringer("phase", final))
	if c.onDestroyed != nil {
		c.onDestroyed(c)
	}
}

func (c *Component) attach() {
	cb := c.caster.Body()
	if cb == nil {
		return
	}
	offset := c.caster.Forward().Normalize().Scale(cb.Radius() + c.body.Radius())
	c.body.Attach(cb, offset)
}

func (c *Component) freezeCharge() {
	if c.charge == nil {
		return
	}
	c.charge.StopCharging()
	c.shotCharge = c.charge.Fraction()
}

func (c *Component) chargeFraction() float64 {
	switch {
	case c.charge == nil:
		return 1
	case c.phase >= Shooting:
		return c.shotCharge
	default:
		return c.charge.Fraction()
	}
}
