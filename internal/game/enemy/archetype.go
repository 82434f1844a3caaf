package enemy

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/spellbound/internal/game/skill"
)

// Strategies names the concrete behaviour bound to each bundled role.
type Strategies struct {
	Idle   string `yaml:"idle"`
	Chase  string `yaml:"chase"`
	Attack string `yaml:"attack"`
}

// Archetype is one enemy configuration as authored in content. It is shared
// by every enemy spawned from it and must not be modified after loading.
type Archetype struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	MaxHealth       int     `yaml:"max_health"`
	ForceResistance float64 `yaml:"force_resistance"`
	Radius          float64 `yaml:"radius"`
	Speed           float64 `yaml:"speed"`

	AggroRange     float64 `yaml:"aggro_range"`
	AttackRange    float64 `yaml:"attack_range"`
	SightRange     float64 `yaml:"sight_range"`
	NoiseThreshold float64 `yaml:"noise_threshold"`
	// LoseTargetGrace is how long Chase keeps going after losing the player.
	LoseTargetGrace skill.Duration `yaml:"lose_target_grace"`

	// Knockdown lasts KnockdownBase plus KnockdownPerForce for every unit of
	// force, capped at KnockdownMax when that is set.
	KnockdownBase     skill.Duration `yaml:"knockdown_base"`
	KnockdownPerForce skill.Duration `yaml:"knockdown_per_force"`
	KnockdownMax      skill.Duration `yaml:"knockdown_max"`

	Strategies Strategies `yaml:"strategies"`
	// SkillID names the skill the attack strategy uses.
	SkillID string `yaml:"skill"`
	// Script is the Lua hook the scripted idle strategy calls.
	Script string `yaml:"script"`

	// Skill is SkillID resolved by the content layer.
	Skill *skill.Definition `yaml:"-"`
}

// Validate checks that the archetype is internally consistent. It does not
// check that strategy names are registered; enemy construction does.
func (a *Archetype) Validate() error {
	if a.ID == "" {
		return errors.New("archetype: id must not be empty")
	}
	var errs []error
	if a.MaxHealth < 1 {
		errs = append(errs, fmt.Errorf("max_health must be >= 1"))
	}
	if a.Radius <= 0 {
		errs = append(errs, fmt.Errorf("radius must be > 0"))
	}
	if a.Speed < 0 || a.AggroRange < 0 || a.AttackRange < 0 || a.SightRange < 0 || a.ForceResistance < 0 {
		errs = append(errs, fmt.Errorf("speeds, ranges and force_resistance must not be negative"))
	}
	if a.LoseTargetGrace < 0 || a.KnockdownBase < 0 || a.KnockdownPerForce < 0 || a.KnockdownMax < 0 {
		errs = append(errs, fmt.Errorf("durations must not be negative"))
	}
	if a.Strategies.Idle == "" || a.Strategies.Chase == "" || a.Strategies.Attack == "" {
		errs = append(errs, fmt.Errorf("strategies.idle, chase and attack are required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("archetype %q: %w", a.ID, errors.Join(errs...))
	}
	return nil
}

// KnockdownFor returns how long a hit of force keeps the enemy down.
//
// Postcondition: result >= 0 and, when KnockdownMax > 0, result <= KnockdownMax.
func (a *Archetype) KnockdownFor(force float64) time.Duration {
	d := a.KnockdownBase.Std() + time.Duration(max(0, force)*float64(a.KnockdownPerForce.Std()))
	if m := a.KnockdownMax.Std(); m > 0 && d > m {
		d = m
	}
	return d
}
