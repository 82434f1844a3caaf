// Package actor is the part every combatant shares: identity, a physics body,
// clamped health, a force-resistance threshold, the single state machine and
// damage-taken listeners. Enemy and player behaviour build on it.
package actor

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
)

// Config holds the numbers an actor is created with.
type Config struct {
	Name            string
	MaxHealth       int
	ForceResistance float64
	Radius          float64
}

// Outcome describes what one hit did to an actor.
type Outcome struct {
	// Lethal is true when this hit took health from above zero to zero.
	Lethal bool
	// Staggering is true when the hit's force reached the resistance
	// threshold.
	Staggering bool
}

// Actor is the shared core of every combatant.
//
// Invariant: 0 <= Status().Health() <= Status().MaxHealth().
type Actor struct {
	id              string
	name            string
	body            *physics.Body
	status          *combat.Status
	machine         *fsm.Machine
	forward         geom.Vec3
	forceResistance float64
	listeners       []damageListener
	nextListener    int
	logger          *zap.Logger
}

// New creates an actor with a fresh ID and full health. The body's Owner is
// left for the embedding type to set.
//
// Precondition: logger must not be nil.
// Postcondition: Returns an error if cfg is invalid.
func New(cfg Config, logger *zap.Logger) (*Actor, error) {
	if logger == nil {
		panic("actor.New: logger must not be nil")
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("actor.New %q: radius must be > 0", cfg.Name)
	}
	if cfg.ForceResistance < 0 {
		return nil, fmt.Errorf("actor.New %q: force_resistance must not be negative", cfg.Name)
	}
	status, err := combat.NewStatus(cfg.MaxHealth)
	if err != nil {
		return nil, fmt.Errorf("actor.New %q: %w", cfg.Name, err)
	}
	id := uuid.NewString()
	l := logger.With(zap.String("actor", id), zap.String("name", cfg.Name))
	return &Actor{
		id:              id,
		name:            cfg.Name,
		body:            physics.NewBody(nil, cfg.Radius, cfg.Name),
		status:          status,
		machine:         fsm.NewMachine(id, l),
		forward:         geom.Vec3{Z: 1},
		forceResistance: cfg.ForceResistance,
		logger:          l,
	}, nil
}

// ID returns the actor's unique ID.
func (a *Actor) ID() string { return a.id }

// Name returns the display name.
func (a *Actor) Name() string { return a.name }

// Body returns the physics body.
func (a *Actor) Body() *physics.Body { return a.body }

// Position returns the body position.
func (a *Actor) Position() geom.Vec3 { return a.body.Position() }

// Status returns the health status.
func (a *Actor) Status() *combat.Status { return a.status }

// Alive reports whether health is above zero.
func (a *Actor) Alive() bool { return a.status.Alive() }

// Machine returns the actor's state machine.
func (a *Actor) Machine() *fsm.Machine { return a.machine }

// Logger returns the actor-scoped logger.
func (a *Actor) Logger() *zap.Logger { return a.logger }

// Forward returns the facing direction on the ground plane.
func (a *Actor) Forward() geom.Vec3 { return a.forward }

// Face turns the actor toward dir. A zero or vertical dir is ignored.
func (a *Actor) Face(dir geom.Vec3) {
	if f := dir.Flat(); !f.IsZero() {
		a.forward = f.Normalize()
	}
}

// ForceResistance returns the knockdown threshold.
func (a *Actor) ForceResistance() float64 { return a.forceResistance }

// SetForceResistance changes the knockdown threshold. Negative values clamp
// to zero.
func (a *Actor) SetForceResistance(r float64) { a.forceResistance = max(0, r) }

type damageListener struct {
	id int
	fn func(combat.Hit)
}

// OnDamageTaken registers fn to run after every hit is applied, after the
// listeners registered before it, and returns the function that removes it.
// The returned function is idempotent.
//
// Precondition: fn must not be nil.
func (a *Actor) OnDamageTaken(fn func(combat.Hit)) (remove func()) {
	if fn == nil {
		panic("actor.Actor.OnDamageTaken: fn must not be nil")
	}
	a.nextListener++
	id := a.nextListener
	a.listeners = append(a.listeners, damageListener{id: id, fn: fn})
	return func() {
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

// ApplyHit clamps hit.Amount into health and notifies damage listeners.
// Dead actors ignore hits.
//
// Postcondition: health is in [0, max]; Outcome.Lethal is true at most once
// per actor life.
func (a *Actor) ApplyHit(hit combat.Hit) Outcome {
	if !a.status.Alive() {
		return Outcome{}
	}
	out := Outcome{
		Lethal:     a.status.Apply(hit.Amount),
		Staggering: hit.Force >= a.forceResistance,
	}
	a.logger.Debug("hit",
		zap.String("source", hit.Source),
		zap.Int("amount", hit.Amount),
		zap.Float64("force", hit.Force),
		zap.Stringer("element", hit.Element),
		zap.Int("health", a.status.Health()),
	)
	for _, l := range append([]damageListener(nil), a.listeners...) {
		l.fn(hit)
	}
	return out
}
