// Package vfx is the boundary to visual effects. The core only activates,
// stops, steers and destroys effect handles; Tracker is the headless
// implementation the simulation uses, which records effect lifetimes.
package vfx

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// Handle is one live effect instance.
type Handle interface {
	ID() string
	Activate()
	Stop()
	SetVelocity(v geom.Vec3)
	// Destroy removes the effect after delay of unscaled time; zero destroys
	// it immediately.
	Destroy(delay time.Duration)
}

// Spawner instantiates effects by content name.
type Spawner interface {
	Spawn(name string, at geom.Vec3) Handle
}

// Tracker is a Spawner that keeps every live effect in memory.
// It is not safe for concurrent use.
type Tracker struct {
	clock     *schedule.Scheduler
	logger    *zap.Logger
	live      map[string]*Effect
	spawned   int
	destroyed int
}

// NewTracker returns an empty Tracker.
//
// Precondition: clock and logger must not be nil.
func NewTracker(clock *schedule.Scheduler, logger *zap.Logger) *Tracker {
	return &Tracker{
		clock:  clock,
		logger: logger.Named("vfx"),
		live:   make(map[string]*Effect),
	}
}

// Spawn creates an inactive effect at at.
func (t *Tracker) Spawn(name string, at geom.Vec3) Handle {
	e := &Effect{id: uuid.NewString(), name: name, position: at, tracker: t}
	t.live[e.id] = e
	t.spawned++
	t.logger.Debug("effect spawned", zap.String("effect", name), zap.String("id", e.id))
	return e
}

// Live returns the number of effects not yet destroyed.
func (t *Tracker) Live() int { return len(t.live) }

// Spawned returns the total number of effects ever spawned.
func (t *Tracker) Spawned() int { return t.spawned }

// Destroyed returns the total number of effects destroyed.
func (t *Tracker) Destroyed() int { return t.destroyed }

// Get returns the live effect with id.
func (t *Tracker) Get(id string) (*Effect, bool) {
	e, ok := t.live[id]
	return e, ok
}

// Named returns the live effects spawned from the content name.
func (t *Tracker) Named(name string) []*Effect {
	var out []*Effect
	for _, e := range t.live {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func (t *Tracker) remove(e *Effect) {
	if _, ok := t.live[e.id]; !ok {
		return
	}
	delete(t.live, e.id)
	t.destroyed++
	t.logger.Debug("effect destroyed", zap.String("effect", e.name), zap.String("id", e.id))
}

// Effect is the Tracker's Handle.
type Effect struct {
	id       string
	name     string
	position geom.Vec3
	velocity geom.Vec3
	active   bool
	stops    int
	pending  *schedule.Timer
	tracker  *Tracker
}

// ID returns the effect's unique id.
func (e *Effect) ID() string { return e.id }

// Name returns the content name.
func (e *Effect) Name() string { return e.name }

// Activate starts playing the effect.
func (e *Effect) Activate() { e.active = true }

// Stop halts the effect without destroying it.
func (e *Effect) Stop() {
	e.active = false
	e.stops++
}

// SetVelocity steers particles.
func (e *Effect) SetVelocity(v geom.Vec3) { e.velocity = v }

// Destroy removes the effect after delay. A second call while one is pending
// is ignored.
func (e *Effect) Destroy(delay time.Duration) {
	if e.pending.Active() {
		return
	}
	if delay <= 0 {
		e.tracker.remove(e)
		return
	}
	e.pending = e.tracker.clock.AfterUnscaled(delay, func() { e.tracker.remove(e) })
}

// Active reports whether the effect is playing.
func (e *Effect) Active() bool { return e.active }

// Stops returns how many times Stop has been called.
func (e *Effect) Stops() int { return e.stops }

// Velocity returns the last velocity set.
func (e *Effect) Velocity() geom.Vec3 { return e.velocity }

// Position returns the spawn position.
func (e *Effect) Position() geom.Vec3 { return e.position }
