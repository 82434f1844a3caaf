package skill

import (
	"time"

	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// Cooldown gates how often a skill may fire.
type Cooldown struct {
	clock   *schedule.Scheduler
	timer   *schedule.Timer
	onReady func()
}

// NewCooldown returns a ready Cooldown on clock.
//
// Precondition: clock must not be nil.
func NewCooldown(clock *schedule.Scheduler) *Cooldown {
	if clock == nil {
		panic("skill.NewCooldown: clock must not be nil")
	}
	return &Cooldown{clock: clock}
}

// OnReady installs fn to run each time a running cooldown completes.
func (c *Cooldown) OnReady(fn func()) { c.onReady = fn }

// Ready reports whether no cooldown is running.
func (c *Cooldown) Ready() bool { return !c.timer.Active() }

// Trigger (re)starts the cooldown for d. d <= 0 leaves the skill ready.
func (c *Cooldown) Trigger(d time.Duration) {
	c.timer.Stop()
	c.timer = nil
	if d <= 0 {
		return
	}
	c.timer = c.clock.After(d, func() {
		if c.onReady != nil {
			c.onReady()
		}
	})
}

// Remaining returns the time left before Ready.
func (c *Cooldown) Remaining() time.Duration {
	if !c.timer.Active() {
		return 0
	}
	return c.timer.Due() - c.clock.Now()
}

// Reset cancels any running cooldown without calling OnReady.
func (c *Cooldown) Reset() {
	c.timer.Stop()
	c.timer = nil
}
