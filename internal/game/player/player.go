// Package player implements the player actor: casting the primary skill by
// its cast type, the hover movement skill, and the Playable, Menu and Dead
// states.
package player

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/actor"
	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/hover"
	"github.com/cory-johannsen/spellbound/internal/game/input"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/sense"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

// Config holds the player's numbers.
type Config struct {
	MaxHealth       int
	ForceResistance float64
	Speed           float64
	Radius          float64
}

// MenuUI opens and closes the in-game menu.
type MenuUI interface {
	OpenMenu(open bool)
}

// TimeScaler controls the world time scale.
type TimeScaler interface {
	SetTimeScale(scale float64)
}

// Env wires the player to the world.
type Env struct {
	Input       *input.Dispatcher
	Clock       *schedule.Scheduler
	Projectiles projectile.Factory
	Effects     vfx.Spawner
	Menu        MenuUI
	Time        TimeScaler
	// Noise, when set, hears every cast for NoiseDuration.
	Noise          *sense.NoiseBoard
	NoiseDuration  time.Duration
	HoverGrace     time.Duration
	ReleaseCleanup time.Duration
	Logger         *zap.Logger
}

// Player is the player actor.
type Player struct {
	*actor.Actor

	env     Env
	speed   float64
	moveDir geom.Vec3
	primary *slot
	hover   *hover.Component
	states  *Factory
	logger  *zap.Logger
}

// New creates a player in the Playable state.
//
// Precondition: env.Input, env.Clock and env.Logger must not be nil.
// Postcondition: Returns an error if cfg or a skill definition is invalid.
func New(cfg Config, primary, movement *skill.Definition, env Env) (*Player, error) {
	if env.Input == nil || env.Clock == nil || env.Logger == nil {
		panic("player.New: input, clock and logger must not be nil")
	}
	a, err := actor.New(actor.Config{
		Name:            "player",
		MaxHealth:       cfg.MaxHealth,
		ForceResistance: cfg.ForceResistance,
		Radius:          cfg.Radius,
	}, env.Logger.Named("player"))
	if err != nil {
		return nil, fmt.Errorf("player.New: %w", err)
	}
	p := &Player{Actor: a, env: env, speed: cfg.Speed, logger: a.Logger()}
	a.Body().Owner = p

	if primary != nil {
		if primary.Kind != skill.KindProjectile {
			return nil, fmt.Errorf("player.New: primary skill %q: %w", primary.ID, skill.ErrWrongKind)
		}
		if env.Projectiles == nil {
			return nil, fmt.Errorf("player.New: primary skill %q needs a projectile factory", primary.ID)
		}
		p.primary = newSlot(p, primary)
	}
	if movement != nil {
		p.hover = hover.New(p, hover.Env{
			Clock:          env.Clock,
			Effects:        env.Effects,
			Grace:          env.HoverGrace,
			ReleaseCleanup: env.ReleaseCleanup,
			Logger:         a.Logger(),
		})
		if err := p.hover.Arm(movement); err != nil {
			return nil, fmt.Errorf("player.New: movement skill %q: %w", movement.ID, err)
		}
	}
	p.states = &Factory{p: p}
	p.Machine().ChangeState(p.states.Playable())
	return p, nil
}

// States returns the state factory.
func (p *Player) States() *Factory { return p.states }

// Hover returns the movement skill component, or nil.
func (p *Player) Hover() *hover.Component { return p.hover }

// Speed returns the walking speed.
func (p *Player) Speed() float64 { return p.speed }

// MoveDirection returns the current movement input.
func (p *Player) MoveDirection() geom.Vec3 { return p.moveDir }

// SetMoveDirection sets the movement input; the player also turns to face it.
func (p *Player) SetMoveDirection(dir geom.Vec3) {
	p.moveDir = dir.Flat()
	p.Face(dir)
}

// Charge returns the charge fraction of the primary skill, 0 when idle.
func (p *Player) Charge() float64 {
	if p.primary == nil || !p.primary.charge.Charging() {
		return 0
	}
	return p.primary.charge.Fraction()
}

// Update runs one tick of length dt.
func (p *Player) Update(dt time.Duration) {
	p.Machine().Update()
	if p.primary != nil {
		p.primary.update(dt)
	}
	if p.hover != nil {
		p.hover.Update()
	}
}

// TakeDamage applies hit. A staggering hit shoves the player along the hit
// direction; a lethal hit moves the player to Dead.
func (p *Player) TakeDamage(hit combat.Hit) {
	out := p.ApplyHit(hit)
	if out.Lethal {
		p.Machine().ChangeState(p.states.Dead())
		return
	}
	if out.Staggering && !hit.Direction.IsZero() {
		p.Body().AddForce(hit.Direction.Flat().Normalize().Scale(hit.Force), physics.VelocityChange)
	}
}

// Release cancels every timer the player owns.
func (p *Player) Release() {
	if p.primary != nil {
		p.primary.cancel()
	}
	if p.hover != nil {
		p.hover.Release()
	}
}

func (p *Player) onKeyDown(ev input.Event) {
	switch ev.Action {
	case input.ActionPrimary:
		if p.primary != nil {
			p.primary.press()
		}
	case input.ActionMovement:
		if p.hover != nil {
			p.hover.OnKeyDown()
		}
	}
}

func (p *Player) onKeyUp(ev input.Event) {
	switch ev.Action {
	case input.ActionPrimary:
		if p.primary != nil {
			p.primary.release()
		}
	case input.ActionMovement:
		if p.hover != nil {
			p.hover.OnKeyUp()
		}
	}
}

// aimPoint is where spawn casts place their projectile.
func (p *Player) aimPoint(reach float64) geom.Vec3 {
	return p.Position().Add(p.Forward().Scale(reach))
}

func (p *Player) emitNoise(loudness float64) {
	if p.env.Noise == nil {
		return
	}
	p.env.Noise.Emit(p.Position(), loudness, p.env.NoiseDuration)
}
