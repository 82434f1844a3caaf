// Package hover implements the hover movement skill: while its key is held a
// repeating loop pushes the owner up and along its movement direction, and
// releasing the key stops the loop after a short grace period unless the key
// is pressed again.
package hover

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

// Mover is the actor a hover skill pushes around.
type Mover interface {
	skill.Caster
	// MoveDirection is the current movement input in world space.
	MoveDirection() geom.Vec3
}

// Env carries the world services a hover component uses.
type Env struct {
	Clock   *schedule.Scheduler
	Effects vfx.Spawner
	// Grace is how long after key up the loop keeps running.
	Grace time.Duration
	// ReleaseCleanup delays destroying the hand effects on Release.
	ReleaseCleanup time.Duration
	Logger         *zap.Logger
}

// Component is one hover skill bound to its owner. It implements
// skill.Component.
//
// Invariant: at most one force loop and one pending stop exist at any time.
type Component struct {
	env   Env
	owner Mover
	def   *skill.Definition

	hovering bool
	loop     *schedule.Timer
	stop     *schedule.Timer
	hands    []vfx.Handle

	pulses int
	stops  int
	logger *zap.Logger
}

var _ skill.Component = (*Component)(nil)

// New returns an unarmed hover component for owner.
//
// Precondition: owner, env.Clock and env.Logger must not be nil.
func New(owner Mover, env Env) *Component {
	if owner == nil || env.Clock == nil || env.Logger == nil {
		panic("hover.New: owner, clock and logger must not be nil")
	}
	return &Component{
		env:    env,
		owner:  owner,
		logger: env.Logger.Named("hover").With(zap.String("owner", owner.ID())),
	}
}

// Arm binds def and spawns one inactive effect per hand.
func (c *Component) Arm(def *skill.Definition) error {
	if def == nil || def.Kind != skill.KindHover || def.Hover == nil {
		return fmt.Errorf("hover.Arm: %w", skill.ErrWrongKind)
	}
	if c.def != nil {
		c.Release()
	}
	c.def = def
	if def.Effect != "" && c.env.Effects != nil {
		at := c.owner.Body().Position()
		c.hands = []vfx.Handle{
			c.env.Effects.Spawn(def.Effect, at),
			c.env.Effects.Spawn(def.Effect, at),
		}
	}
	return nil
}

// OnKeyDown starts hovering. Any pending stop is cancelled and the force loop
// restarts with an immediate push.
func (c *Component) OnKeyDown() {
	if c.def == nil {
		return
	}
	c.hovering = true
	c.stop.Stop()
	c.stop = nil
	c.loop.Stop()
	for _, h := range c.hands {
		h.Activate()
	}
	c.push()
	c.loop = c.env.Clock.Every(c.def.Hover.UpdateRate.Std(), c.push)
}

// OnKeyUp schedules the stop. If the key is pressed again within the grace
// period the stop does nothing.
func (c *Component) OnKeyUp() {
	if c.def == nil {
		return
	}
	c.hovering = false
	c.stop.Stop()
	c.stop = c.env.Clock.After(c.env.Grace, func() {
		c.stop = nil
		if c.hovering || c.loop == nil {
			return
		}
		c.halt()
		c.stops++
		c.logger.Debug("hover stopped")
	})
}

// Update steers the hand effects with the owner's velocity while hovering.
func (c *Component) Update() {
	if !c.hovering {
		return
	}
	v := c.owner.Body().Velocity()
	for _, h := range c.hands {
		h.SetVelocity(v)
	}
}

// Release stops hovering at once, bypassing the grace period, and destroys
// the hand effects after ReleaseCleanup.
func (c *Component) Release() {
	c.hovering = false
	c.stop.Stop()
	c.stop = nil
	c.halt()
	for _, h := range c.hands {
		h.Destroy(c.env.ReleaseCleanup)
	}
	c.hands = nil
	c.def = nil
}

// IsActive reports whether the force loop is running.
func (c *Component) IsActive() bool { return c.loop.Active() }

// Hovering reports whether the key is held.
func (c *Component) Hovering() bool { return c.hovering }

// Pulses returns how many times force has been applied.
func (c *Component) Pulses() int { return c.pulses }

// Stops returns how many times a key release has stopped the loop.
func (c *Component) Stops() int { return c.stops }

func (c *Component) halt() {
	c.loop.Stop()
	c.loop = nil
	for _, h := range c.hands {
		h.Stop()
	}
}

func (c *Component) push() {
	stats := c.def.Hover
	body := c.owner.Body()
	body.AddForce(geom.Up.Scale(stats.UpwardForce), physics.Acceleration)
	dir := c.owner.MoveDirection().Flat().Normalize()
	body.AddForce(dir.Scale(stats.ForwardForce), physics.Acceleration)
	c.pulses++
}
