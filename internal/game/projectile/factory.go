package projectile

import (
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
)

// Factory creates projectiles bound to a caster. The world implements it so
// that every projectile is tracked and updated each tick.
type Factory interface {
	NewProjectile(caster skill.Caster) *Component
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(caster skill.Caster) *Component

// NewProjectile calls f.
func (f FactoryFunc) NewProjectile(caster skill.Caster) *Component { return f(caster) }

// Fire creates, arms and shoots one projectile of def from caster along dir.
// ch, when non-nil, makes the shot a charged cast.
func Fire(f Factory, caster skill.Caster, def *skill.Definition, ch *skill.Charge, dir geom.Vec3) (*Component, error) {
	p := f.NewProjectile(caster)
	if err := p.Arm(def); err != nil {
		p.Release()
		return nil, err
	}
	p.SetCharge(ch)
	if err := p.Shoot(dir); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}
