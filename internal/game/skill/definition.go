// Package skill holds the immutable skill definitions loaded from content and
// the pieces shared by every runtime skill component: the Component contract,
// charge accumulation and cooldowns.
package skill

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
)

// ErrWrongKind is returned when a component is armed with a definition of
// another kind.
var ErrWrongKind = errors.New("skill: definition has the wrong kind")

// Kind is the runtime archetype a definition instantiates.
type Kind string

const (
	KindProjectile Kind = "projectile"
	KindHover      Kind = "hover"
	KindMelee      Kind = "melee"
)

// Duration is a time.Duration written as a Go duration string in content.
type Duration time.Duration

// UnmarshalYAML parses strings such as "1.5s" or "250ms".
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProjectileStats are the numbers a projectile flies and hits with.
type ProjectileStats struct {
	Damage float64 `yaml:"damage"`
	Force  float64 `yaml:"force"`
	Range  float64 `yaml:"range"`
	Speed  float64 `yaml:"speed"`
	Radius float64 `yaml:"radius"`
	// MaxHealth is the projectile's own health when it is destructible.
	MaxHealth float64 `yaml:"max_health"`
	// Destructible projectiles lose health when other projectiles hit them.
	Destructible bool `yaml:"destructible"`
	// DamageToSpells multiplies Damage when this projectile hits another one.
	DamageToSpells float64 `yaml:"damage_to_spells"`
}

// HoverStats drive the sustained hover movement skill.
type HoverStats struct {
	UpwardForce  float64  `yaml:"upward_force"`
	ForwardForce float64  `yaml:"forward_force"`
	UpdateRate   Duration `yaml:"update_rate"`
}

// MeleeStats describe a direct strike.
type MeleeStats struct {
	Damage float64 `yaml:"damage"`
	Force  float64 `yaml:"force"`
	Reach  float64 `yaml:"reach"`
}

// Definition is one skill as authored in content. It is shared by every
// component instantiated from it and must not be modified after loading.
type Definition struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Kind    Kind     `yaml:"kind"`
	Cast    CastType `yaml:"cast"`
	Element string   `yaml:"element"`

	Cooldown       Duration `yaml:"cooldown"`
	ChargeTime     Duration `yaml:"charge_time"`
	ChargeCurve    string   `yaml:"charge_curve"`
	RepeatInterval Duration `yaml:"repeat_interval"`

	// SetVelocity launches by assigning velocity instead of adding an impulse.
	SetVelocity     bool   `yaml:"set_velocity"`
	DestroyOnImpact bool   `yaml:"destroy_on_impact"`
	ImpactEffect    string `yaml:"impact_effect"`
	Effect          string `yaml:"effect"`
	// Noise is how loud casting this skill is.
	Noise float64 `yaml:"noise"`

	Projectile *ProjectileStats `yaml:"projectile"`
	Hover      *HoverStats      `yaml:"hover"`
	Melee      *MeleeStats      `yaml:"melee"`
}

// Validate checks that the definition is internally consistent.
//
// Postcondition: nil return guarantees a non-empty ID, a known Kind with its
// matching stats block, non-negative timings and a known element.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New("skill definition: id must not be empty")
	}
	if _, ok := combat.ParseElement(d.Element); !ok {
		return fmt.Errorf("skill %q: unknown element %q", d.ID, d.Element)
	}
	if d.Cooldown < 0 || d.ChargeTime < 0 || d.RepeatInterval < 0 {
		return fmt.Errorf("skill %q: durations must not be negative", d.ID)
	}
	if d.Cast == CastHold && d.RepeatInterval <= 0 {
		return fmt.Errorf("skill %q: hold casts need repeat_interval > 0", d.ID)
	}
	if _, ok := curves[d.ChargeCurve]; !ok {
		return fmt.Errorf("skill %q: unknown charge_curve %q", d.ID, d.ChargeCurve)
	}
	switch d.Kind {
	case KindProjectile:
		p := d.Projectile
		if p == nil {
			return fmt.Errorf("skill %q: projectile kind requires a projectile block", d.ID)
		}
		if p.Range <= 0 {
			return fmt.Errorf("skill %q: projectile.range must be > 0", d.ID)
		}
		if p.Speed < 0 || p.Damage < 0 || p.Force < 0 || p.DamageToSpells < 0 {
			return fmt.Errorf("skill %q: projectile stats must not be negative", d.ID)
		}
		if p.Destructible && p.MaxHealth <= 0 {
			return fmt.Errorf("skill %q: destructible projectiles need max_health > 0", d.ID)
		}
	case KindHover:
		if d.Hover == nil {
			return fmt.Errorf("skill %q: hover kind requires a hover block", d.ID)
		}
		if d.Hover.UpdateRate <= 0 {
			return fmt.Errorf("skill %q: hover.update_rate must be > 0", d.ID)
		}
	case KindMelee:
		if d.Melee == nil {
			return fmt.Errorf("skill %q: melee kind requires a melee block", d.ID)
		}
		if d.Melee.Reach <= 0 {
			return fmt.Errorf("skill %q: melee.reach must be > 0", d.ID)
		}
	default:
		return fmt.Errorf("skill %q: unknown kind %q", d.ID, d.Kind)
	}
	return nil
}

// ElementValue returns the parsed element.
func (d *Definition) ElementValue() combat.Element {
	e, _ := combat.ParseElement(d.Element)
	return e
}

// Caster is the non-owning view a skill keeps of the actor that cast it.
type Caster interface {
	ID() string
	Body() *physics.Body
	Forward() geom.Vec3
}

// Component is the lifecycle every runtime skill implements.
//
// Arm binds a definition; Update runs once per tick; Release is the hard
// stop that cancels every timer the component started.
type Component interface {
	Arm(def *Definition) error
	Update()
	Release()
	IsActive() bool
}
