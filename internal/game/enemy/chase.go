package enemy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// Chase walks toward the last known player position. It attacks once the
// player is within attack range and visible, and gives up after the lose
// target grace period.
type Chase struct {
	e         *Enemy
	lastKnown geom.Vec3
	hasTarget bool
	lose      *schedule.Timer
}

func newPursue(e *Enemy) (fsm.State, error) {
	return &Chase{e: e}, nil
}

// Name returns "chase".
func (s *Chase) Name() string { return "chase" }

// Enter starts moving at the archetype speed.
func (s *Chase) Enter() {
	s.hasTarget = false
	s.lose = nil
	s.e.env.Nav.SetSpeed(s.e.arch.Speed)
	s.e.env.Animator.SetParameter(ParamSpeed, s.e.arch.Speed)
}

// Update tracks the player or counts down the lose grace.
func (s *Chase) Update() {
	e := s.e
	sensor := e.env.Sensor
	pos, d, ok := e.distanceToPlayer()
	visible := ok && sensor.CanSeePlayer()
	if ok && (visible || d <= e.arch.AggroRange) {
		s.lastKnown = pos
		s.hasTarget = true
		s.lose.Stop()
		s.lose = nil
		if visible && d <= e.arch.AttackRange {
			e.ChangeState(e.states.Attack)
			return
		}
		e.Face(pos.Sub(e.Position()))
	} else if s.lose == nil {
		s.lose = e.env.Clock.After(e.arch.LoseTargetGrace.Std(), func() {
			s.lose = nil
			e.ChangeState(e.states.Idle)
		})
	}
	if s.hasTarget && !e.env.Nav.SetTarget(s.lastKnown) {
		e.logger.Debug("chase target rejected", zap.Float64("x", s.lastKnown.X), zap.Float64("z", s.lastKnown.Z))
	}
}

// Exit cancels the lose timer and stops moving.
func (s *Chase) Exit() {
	s.lose.Stop()
	s.lose = nil
	s.e.env.Nav.Stop()
}
