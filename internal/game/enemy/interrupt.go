package enemy

import (
	"time"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// Knockdown disables locomotion for a time scaled by the hit's force, then
// always recovers into Chase. The interrupted state is kept for inspection
// but not resumed.
type Knockdown struct {
	e        *Enemy
	hit      combat.Hit
	previous fsm.State
	duration time.Duration
	timer    *schedule.Timer
}

func newKnockdown(e *Enemy, hit combat.Hit, previous fsm.State) *Knockdown {
	return &Knockdown{e: e, hit: hit, previous: previous, duration: e.arch.KnockdownFor(hit.Force)}
}

// Name returns "knockdown".
func (s *Knockdown) Name() string { return "knockdown" }

// Enter stops the enemy and schedules recovery.
func (s *Knockdown) Enter() {
	e := s.e
	e.env.Nav.Stop()
	e.env.Animator.SetParameter(ParamKnockdown, 1)
	s.timer = e.env.Clock.After(s.duration, func() {
		s.timer = nil
		e.ChangeState(e.states.Chase)
	})
}

// Update does nothing while down.
func (s *Knockdown) Update() {}

// Exit cancels recovery.
func (s *Knockdown) Exit() {
	s.timer.Stop()
	s.timer = nil
	s.e.env.Animator.SetParameter(ParamKnockdown, 0)
}

// Hit returns the hit that caused the knockdown.
func (s *Knockdown) Hit() combat.Hit { return s.hit }

// Previous returns the state the knockdown interrupted.
func (s *Knockdown) Previous() fsm.State { return s.previous }

// Duration returns how long the enemy stays down.
func (s *Knockdown) Duration() time.Duration { return s.duration }

// Dead is terminal: it reports the death once and does nothing afterwards.
type Dead struct {
	e *Enemy
}

func newDead(e *Enemy) *Dead { return &Dead{e: e} }

// Name returns "dead".
func (s *Dead) Name() string { return "dead" }

// Enter stops the body and reports the death.
func (s *Dead) Enter() {
	e := s.e
	e.env.Nav.Stop()
	e.Body().SetColliderEnabled(false)
	e.env.Animator.SetParameter(ParamDead, 1)
	e.reportDeath()
}

// Update does nothing.
func (s *Dead) Update() {}

// Exit does nothing; Dead is never left.
func (s *Dead) Exit() {}

// MoveTo walks to a fixed point and returns to Idle on arrival.
type MoveTo struct {
	e        *Enemy
	target   geom.Vec3
	accepted bool
}

func newMoveTo(e *Enemy, target geom.Vec3) *MoveTo {
	return &MoveTo{e: e, target: target}
}

// Name returns "move_to".
func (s *MoveTo) Name() string { return "move_to" }

// Enter sets the navigation target.
func (s *MoveTo) Enter() {
	e := s.e
	e.env.Nav.SetSpeed(e.arch.Speed)
	e.env.Animator.SetParameter(ParamSpeed, e.arch.Speed)
	s.accepted = e.env.Nav.SetTarget(s.target)
	if d := s.target.Sub(e.Position()); !d.IsZero() {
		e.Face(d)
	}
}

// Update returns to Idle on arrival or when the target was refused.
func (s *MoveTo) Update() {
	if !s.accepted || s.e.env.Nav.HasArrived() {
		s.e.ChangeState(s.e.states.Idle)
	}
}

// Exit stops moving.
func (s *MoveTo) Exit() {
	s.e.env.Nav.Stop()
}

// Target returns the destination.
func (s *MoveTo) Target() geom.Vec3 { return s.target }
