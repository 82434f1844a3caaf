package player

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
)

// spawnReachFraction places spawn casts this far along the skill's range.
const spawnReachFraction = 0.5

// slot casts one projectile skill according to its cast type.
//
// Instant fires on key down. Charge arms a projectile on the caster on key
// down and shoots it on key up, scaled by how long the key was held. Hold
// fires on key down and then every repeat interval until key up.
// Spawn places a still projectile at the aim point on key up. The cooldown
// starts when the cast completes.
type slot struct {
	p        *Player
	def      *skill.Definition
	cooldown *skill.Cooldown
	charge   *skill.Charge
	held     bool
	repeat   *schedule.Timer
	armed    *projectile.Component
	casts    int
}

func newSlot(p *Player, def *skill.Definition) *slot {
	return &slot{
		p:        p,
		def:      def,
		cooldown: skill.NewCooldown(p.env.Clock),
		charge:   skill.NewCharge(def),
	}
}

func (s *slot) press() {
	if s.held || !s.cooldown.Ready() {
		return
	}
	s.held = true
	switch s.def.Cast {
	case skill.CastInstant:
		s.held = false
		s.fire()
		s.cooldown.Trigger(s.def.Cooldown.Std())
	case skill.CastCharge:
		if !s.arm() {
			s.held = false
			return
		}
		s.charge.Start()
	case skill.CastHold:
		s.fire()
		s.repeat = s.p.env.Clock.Every(s.def.RepeatInterval.Std(), func() { s.fire() })
	case skill.CastSpawn:
	}
}

func (s *slot) release() {
	if !s.held {
		return
	}
	s.held = false
	switch s.def.Cast {
	case skill.CastCharge:
		s.shootArmed()
	case skill.CastHold:
		s.repeat.Stop()
		s.repeat = nil
	case skill.CastSpawn:
		s.place()
	}
	s.cooldown.Trigger(s.def.Cooldown.Std())
}

func (s *slot) update(dt time.Duration) {
	s.charge.Update(dt)
}

// cancel abandons an in-progress cast without firing.
func (s *slot) cancel() {
	s.held = false
	s.repeat.Stop()
	s.repeat = nil
	s.charge.StopCharging()
	if s.armed != nil {
		s.armed.Release()
		s.armed = nil
	}
}

// arm readies a charged projectile on the caster. It stays inert until
// shootArmed.
func (s *slot) arm() bool {
	pr := s.p.env.Projectiles.NewProjectile(s.p)
	if err := pr.Arm(s.def); err != nil {
		pr.Release()
		s.p.logger.Warn("cast failed", zap.String("skill", s.def.ID), zap.Error(err))
		return false
	}
	pr.SetCharge(s.charge)
	s.armed = pr
	return true
}

func (s *slot) shootArmed() {
	pr := s.armed
	s.armed = nil
	if pr == nil {
		return
	}
	if err := pr.Shoot(s.p.Forward()); err != nil {
		pr.Release()
		s.p.logger.Warn("cast failed", zap.String("skill", s.def.ID), zap.Error(err))
		return
	}
	s.casts++
	s.p.emitNoise(s.def.Noise)
}

func (s *slot) fire() {
	if _, err := projectile.Fire(s.p.env.Projectiles, s.p, s.def, nil, s.p.Forward()); err != nil {
		s.p.logger.Warn("cast failed", zap.String("skill", s.def.ID), zap.Error(err))
		return
	}
	s.casts++
	s.p.emitNoise(s.def.Noise)
}

func (s *slot) place() {
	pr := s.p.env.Projectiles.NewProjectile(s.p)
	if err := pr.Arm(s.def); err != nil {
		pr.Release()
		s.p.logger.Warn("cast failed", zap.String("skill", s.def.ID), zap.Error(err))
		return
	}
	if err := pr.PlaceAt(s.p.aimPoint(s.def.Projectile.Range * spawnReachFraction)); err != nil {
		pr.Release()
		return
	}
	s.casts++
	s.p.emitNoise(s.def.Noise)
}
