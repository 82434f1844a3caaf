// Package enemy implements enemy behaviour: the EnemyStates bundle built from
// an archetype's strategy identifiers, the Idle, Chase, Attack, Knockdown,
// Dead and MoveTo states, damage and death handling, and the spawner leash.
package enemy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/actor"
	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// Bundle holds the reusable states of one enemy configuration.
type Bundle struct {
	Idle   fsm.State
	Chase  fsm.State
	Attack fsm.State
}

func (b *Bundle) contains(s fsm.State) (Role, bool) {
	switch s {
	case nil:
		return "", false
	case b.Idle:
		return RoleIdle, true
	case b.Chase:
		return RoleChase, true
	case b.Attack:
		return RoleAttack, true
	}
	return "", false
}

func (b *Bundle) byRole(r Role) fsm.State {
	switch r {
	case RoleChase:
		return b.Chase
	case RoleAttack:
		return b.Attack
	default:
		return b.Idle
	}
}

// Enemy is one enemy actor.
//
// Invariant: once Dead is entered no further transition is accepted and the
// death is reported to the camp and registry exactly once.
type Enemy struct {
	*actor.Actor

	env    Env
	arch   *Archetype
	states *Bundle

	dying    bool
	notified bool
	leash    *schedule.Timer
	logger   *zap.Logger
}

// New builds an enemy from arch, enters Idle and starts the leash check.
//
// Postcondition: Returns an error wrapping ErrMissingCapability or
// ErrUnknownStrategy on configuration errors; no enemy is created then.
func New(arch *Archetype, env Env) (*Enemy, error) {
	if arch == nil {
		return nil, fmt.Errorf("enemy.New: archetype must not be nil")
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("enemy.New %s: %w", arch.ID, err)
	}
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("enemy.New: %w", err)
	}
	a, err := actor.New(actor.Config{
		Name:            arch.Name,
		MaxHealth:       arch.MaxHealth,
		ForceResistance: arch.ForceResistance,
		Radius:          arch.Radius,
	}, env.Logger.Named("enemy"))
	if err != nil {
		return nil, fmt.Errorf("enemy.New %s: %w", arch.ID, err)
	}
	e := &Enemy{Actor: a, env: env}
	e.logger = a.Logger()
	a.Body().Owner = e
	a.Body().SetKinematic(true)
	if err := e.SetArchetype(arch); err != nil {
		return nil, fmt.Errorf("enemy.New: %w", err)
	}
	e.Machine().ChangeState(e.states.Idle)
	if env.Camp != nil {
		e.leash = env.Clock.Every(env.LeashInterval, e.checkLeash)
	}
	return e, nil
}

// Archetype returns the current configuration.
func (e *Enemy) Archetype() *Archetype { return e.arch }

// States returns the current bundle.
func (e *Enemy) States() *Bundle { return e.states }

// Env returns the services the enemy runs on.
func (e *Enemy) Env() *Env { return &e.env }

// SetArchetype applies a configuration change: it builds a new bundle, then
// updates speed, health and sight. An active bundled state is replaced by
// the new bundle's state of the same role.
//
// Postcondition: on error the previous archetype and bundle stay in effect.
func (e *Enemy) SetArchetype(arch *Archetype) error {
	if err := arch.Validate(); err != nil {
		return fmt.Errorf("enemy.SetArchetype: %w", err)
	}
	// Build against the new archetype so constructors see its data.
	prev := e.arch
	e.arch = arch
	next, err := e.buildBundle()
	if err != nil {
		e.arch = prev
		return fmt.Errorf("enemy.SetArchetype %s: %w", arch.ID, err)
	}
	old := e.states
	e.states = next

	e.env.Nav.SetSpeed(arch.Speed)
	e.Status().SetMaxHealth(arch.MaxHealth)
	if !e.dying {
		e.Status().SetHealth(arch.MaxHealth)
	}
	e.SetForceResistance(arch.ForceResistance)
	e.Body().SetRadius(arch.Radius)
	if s, ok := e.env.Sensor.(sightAdjuster); ok {
		s.SetSightRange(arch.SightRange)
	}
	if old != nil {
		if role, ok := old.contains(e.Machine().Current()); ok {
			e.ChangeState(next.byRole(role))
		}
	}
	e.logger.Info("archetype applied", zap.String("archetype", arch.ID))
	return nil
}

// CheckArchetype builds arch's bundle against env without creating an enemy,
// reporting the configuration errors New and SetArchetype would return.
// arch.Skill must already be resolved.
func CheckArchetype(arch *Archetype, env Env) error {
	if arch == nil {
		return fmt.Errorf("enemy.CheckArchetype: archetype must not be nil")
	}
	if env.Strategies == nil {
		return fmt.Errorf("enemy.CheckArchetype %s: strategies: %w", arch.ID, ErrMissingCapability)
	}
	if err := arch.Validate(); err != nil {
		return fmt.Errorf("enemy.CheckArchetype: %w", err)
	}
	trial := &Enemy{env: env, arch: arch}
	if _, err := trial.buildBundle(); err != nil {
		return fmt.Errorf("enemy.CheckArchetype %s: %w", arch.ID, err)
	}
	return nil
}

func (e *Enemy) buildBundle() (*Bundle, error) {
	r := e.env.Strategies
	idle, err := r.Build(RoleIdle, e.arch.Strategies.Idle, e)
	if err != nil {
		return nil, err
	}
	chase, err := r.Build(RoleChase, e.arch.Strategies.Chase, e)
	if err != nil {
		return nil, err
	}
	attack, err := r.Build(RoleAttack, e.arch.Strategies.Attack, e)
	if err != nil {
		return nil, err
	}
	return &Bundle{Idle: idle, Chase: chase, Attack: attack}, nil
}

// Update runs the active state for one tick.
func (e *Enemy) Update() {
	e.Machine().Update()
}

// ChangeState requests a transition. Every request is refused once the enemy
// is dying, except the one into Dead.
//
// Postcondition: Returns true iff next is now the active state.
func (e *Enemy) ChangeState(next fsm.State) bool {
	if _, isDead := next.(*Dead); e.dying && !isDead {
		e.logger.Debug("transition refused while dead", zap.String("to", next.Name()))
		return false
	}
	return e.Machine().ChangeState(next)
}

// TakeDamage applies hit. A lethal hit kills; otherwise a hit whose force
// reaches the resistance threshold knocks the enemy down unless it is already
// down.
func (e *Enemy) TakeDamage(hit combat.Hit) {
	if e.dying {
		return
	}
	out := e.ApplyHit(hit)
	if out.Lethal {
		e.Die()
		return
	}
	if out.Staggering && !e.knockedDown() {
		e.logger.Info("knocked down", zap.Float64("force", hit.Force))
		e.ChangeState(newKnockdown(e, hit, e.Machine().Current()))
	}
}

// Die transitions into Dead. Further calls do nothing.
func (e *Enemy) Die() {
	if e.dying {
		return
	}
	e.dying = true
	e.leash.Stop()
	e.leash = nil
	e.ChangeState(newDead(e))
}

// Dead reports whether the enemy has died.
func (e *Enemy) Dead() bool { return e.dying }

// Release cancels the enemy's own timers. The world calls it when the
// enemy is removed.
func (e *Enemy) Release() {
	e.leash.Stop()
	e.leash = nil
	if cur := e.Machine().Current(); cur != nil {
		cur.Exit()
	}
}

func (e *Enemy) knockedDown() bool {
	_, now := e.Machine().Current().(*Knockdown)
	_, queued := e.Machine().Pending().(*Knockdown)
	return now || queued
}

func (e *Enemy) reportDeath() {
	if e.notified {
		return
	}
	e.notified = true
	if e.env.Camp != nil {
		e.env.Camp.NotifyDeath(e.ID())
	}
	e.env.Registry.NotifyDeath(e)
}

func (e *Enemy) checkLeash() {
	if e.dying {
		return
	}
	switch e.Machine().Current().(type) {
	case *Knockdown, *Dead, *MoveTo:
		return
	}
	if !e.env.Camp.Outside(e.Position()) {
		return
	}
	point := e.env.Scatter.Around(e.env.Camp.Home(), e.env.LeashScatter)
	if !e.env.Nav.SetTarget(point) {
		e.logger.Debug("leash target rejected, retrying next check")
		return
	}
	e.logger.Debug("leashed", zap.Float64("x", point.X), zap.Float64("z", point.Z))
	e.ChangeState(newMoveTo(e, point))
}

// distanceToPlayer returns the ground distance to the player and whether
// there is one.
func (e *Enemy) distanceToPlayer() (geom.Vec3, float64, bool) {
	pos, ok := e.env.Sensor.PlayerPosition()
	if !ok {
		return geom.Zero, 0, false
	}
	return pos, geom.Distance(e.Position().Flat(), pos.Flat()), true
}
