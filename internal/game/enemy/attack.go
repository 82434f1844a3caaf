package enemy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
)

// Attack uses the archetype's skill against the player whenever its
// cooldown allows. It falls back to Chase when the player leaves attack
// range or sight, and to Idle when the player is also beyond aggro range.
type Attack struct {
	e        *Enemy
	cooldown *skill.Cooldown
	strike   func(target geom.Vec3) error
	uses     int
}

func newRanged(e *Enemy) (fsm.State, error) {
	def := e.arch.Skill
	if def == nil || def.Kind != skill.KindProjectile {
		return nil, fmt.Errorf("ranged attack needs a projectile skill: %w", skill.ErrWrongKind)
	}
	if e.env.Projectiles == nil {
		return nil, fmt.Errorf("ranged attack needs a projectile factory: %w", ErrMissingCapability)
	}
	s := &Attack{e: e, cooldown: skill.NewCooldown(e.env.Clock)}
	s.strike = func(target geom.Vec3) error {
		dir := target.Sub(e.Position()).Flat()
		_, err := projectile.Fire(e.env.Projectiles, e, def, nil, dir)
		return err
	}
	return s, nil
}

func newMelee(e *Enemy) (fsm.State, error) {
	def := e.arch.Skill
	if def == nil || def.Kind != skill.KindMelee {
		return nil, fmt.Errorf("melee attack needs a melee skill: %w", skill.ErrWrongKind)
	}
	if e.env.Target == nil {
		return nil, fmt.Errorf("melee attack needs a target: %w", ErrMissingCapability)
	}
	s := &Attack{e: e, cooldown: skill.NewCooldown(e.env.Clock)}
	s.strike = func(target geom.Vec3) error {
		victim := e.env.Target()
		if victim == nil {
			return nil
		}
		if geom.Distance(e.Position().Flat(), target.Flat()) > def.Melee.Reach+e.Body().Radius() {
			return nil
		}
		victim.TakeDamage(combat.Hit{
			Source:    e.ID(),
			Amount:    combat.Scaled(def.Melee.Damage, 1),
			Force:     def.Melee.Force,
			Point:     target,
			Direction: target.Sub(e.Position()).Flat().Normalize(),
			Element:   def.ElementValue(),
		})
		return nil
	}
	return s, nil
}

// Name returns "attack".
func (s *Attack) Name() string { return "attack" }

// Enter stops moving; the first use happens on the next Update.
func (s *Attack) Enter() {
	s.cooldown.Reset()
	s.uses = 0
	s.e.env.Nav.Stop()
	s.e.env.Animator.SetParameter(ParamSpeed, 0)
}

// Update re-checks ranges and uses the skill when ready.
func (s *Attack) Update() {
	e := s.e
	pos, d, ok := e.distanceToPlayer()
	visible := ok && e.env.Sensor.CanSeePlayer()
	switch {
	case !ok || (!visible && d > e.arch.AggroRange):
		e.ChangeState(e.states.Idle)
		return
	case !visible || d > e.arch.AttackRange:
		e.ChangeState(e.states.Chase)
		return
	}
	e.Face(pos.Sub(e.Position()))
	if !s.cooldown.Ready() {
		return
	}
	if err := s.strike(pos); err != nil {
		e.logger.Debug("attack failed", zap.Error(err))
	}
	s.uses++
	s.cooldown.Trigger(e.arch.Skill.Cooldown.Std())
}

// Exit cancels the cooldown.
func (s *Attack) Exit() {
	s.cooldown.Reset()
}

// Uses returns how many times the skill was used since Enter.
func (s *Attack) Uses() int { return s.uses }
