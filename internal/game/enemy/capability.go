package enemy

import (
	"errors"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/dice"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/spawner"
)

// ErrMissingCapability is returned when an enemy is built without a service
// its behaviour needs.
var ErrMissingCapability = errors.New("enemy: missing capability")

// Navigator moves the enemy. Path quality is opaque.
type Navigator interface {
	SetTarget(p geom.Vec3) bool
	HasArrived() bool
	SetSpeed(s float64)
	Speed() float64
	Stop()
}

// Sensor answers perception questions about the player.
type Sensor interface {
	CanSeePlayer() bool
	HeardNoiseAbove(threshold float64) bool
	// PlayerPosition returns the player's position when there is a living
	// player.
	PlayerPosition() (geom.Vec3, bool)
}

// sightAdjuster is implemented by sensors whose sight range follows the
// archetype.
type sightAdjuster interface {
	SetSightRange(r float64)
}

// Home is the spawner side of the leash.
type Home interface {
	Home() geom.Vec3
	Outside(p geom.Vec3) bool
	NotifyDeath(id string) bool
}

// DeathRegistry is told about every death.
type DeathRegistry interface {
	NotifyDeath(m spawner.Member) bool
}

// ScriptCaller evaluates Lua hooks for scripted strategies.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Animator receives animation parameters by opaque ID.
type Animator interface {
	SetParameter(id string, value float64)
}

// Animation parameter IDs.
const (
	ParamSpeed     = "speed"
	ParamKnockdown = "knockdown"
	ParamDead      = "dead"
)

type noAnimator struct{}

func (noAnimator) SetParameter(string, float64) {}

// Env wires an enemy to the world.
type Env struct {
	Nav        Navigator
	Sensor     Sensor
	Registry   DeathRegistry
	Strategies *Registry
	Clock      *schedule.Scheduler
	Logger     *zap.Logger

	// Camp is the spawner the enemy is leashed to; nil disables the leash.
	Camp Home
	// Scatter picks leash return points; required when Camp is set.
	Scatter       *dice.Scatter
	LeashInterval time.Duration
	LeashScatter  float64

	// Projectiles creates projectiles for ranged attacks.
	Projectiles projectile.Factory
	// Target returns the player for direct strikes, or nil.
	Target   func() combat.Damageable
	Animator Animator
}

func (env *Env) validate() error {
	var missing []string
	if env.Nav == nil {
		missing = append(missing, "nav")
	}
	if env.Sensor == nil {
		missing = append(missing, "sensor")
	}
	if env.Registry == nil {
		missing = append(missing, "registry")
	}
	if env.Strategies == nil {
		missing = append(missing, "strategies")
	}
	if env.Clock == nil {
		missing = append(missing, "clock")
	}
	if env.Logger == nil {
		missing = append(missing, "logger")
	}
	if env.Camp != nil && (env.Scatter == nil || env.LeashInterval <= 0) {
		missing = append(missing, "leash scatter and interval")
	}
	if len(missing) > 0 {
		return &missingError{names: missing}
	}
	if env.Animator == nil {
		env.Animator = noAnimator{}
	}
	return nil
}

type missingError struct{ names []string }

func (e *missingError) Error() string {
	msg := "enemy: missing capability:"
	for _, n := range e.names {
		msg += " " + n
	}
	return msg
}

func (e *missingError) Unwrap() error { return ErrMissingCapability }
