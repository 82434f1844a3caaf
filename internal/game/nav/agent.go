// Package nav provides a straight-line navigation agent. Path quality is not
// modelled: the agent walks its body directly toward the target on the ground
// plane and refuses targets outside the arena.
package nav

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
)

// ArrivalDistance is how close to the target counts as arrived.
const ArrivalDistance = 0.1

// Agent drives one body. It is not safe for concurrent use.
type Agent struct {
	body      *physics.Body
	halfW     float64
	halfD     float64
	speed     float64
	target    geom.Vec3
	hasTarget bool
	logger    *zap.Logger
}

// NewAgent returns an idle agent for body in an arena of width x depth
// centred on the origin. body may be nil and bound later with Bind; an
// unbound agent accepts targets but never moves.
//
// Precondition: logger must not be nil; width and depth > 0.
func NewAgent(body *physics.Body, width, depth float64, logger *zap.Logger) *Agent {
	if logger == nil {
		panic("nav.NewAgent: logger must not be nil")
	}
	if width <= 0 || depth <= 0 {
		panic("nav.NewAgent: arena dimensions must be > 0")
	}
	return &Agent{body: body, halfW: width / 2, halfD: depth / 2, logger: logger.Named("nav")}
}

// Bind attaches the agent to body.
func (a *Agent) Bind(body *physics.Body) { a.body = body }

// SetTarget points the agent at p. Targets outside the arena are rejected.
//
// Postcondition: Returns true iff p is now the target.
func (a *Agent) SetTarget(p geom.Vec3) bool {
	if math.Abs(p.X) > a.halfW || math.Abs(p.Z) > a.halfD || math.IsNaN(p.X) || math.IsNaN(p.Z) {
		a.logger.Debug("target rejected", zap.Float64("x", p.X), zap.Float64("z", p.Z))
		return false
	}
	a.target = p
	a.hasTarget = true
	return true
}

// Target returns the current target and whether one is set.
func (a *Agent) Target() (geom.Vec3, bool) { return a.target, a.hasTarget }

// HasArrived reports whether the body is within ArrivalDistance of the target
// on the ground plane. An agent without a target has arrived.
func (a *Agent) HasArrived() bool {
	if !a.hasTarget || a.body == nil {
		return true
	}
	return geom.Distance(a.body.Position().Flat(), a.target.Flat()) <= ArrivalDistance
}

// SetSpeed sets the walking speed in units per second. Negative values are
// treated as zero.
func (a *Agent) SetSpeed(s float64) { a.speed = math.Max(0, s) }

// Speed returns the walking speed.
func (a *Agent) Speed() float64 { return a.speed }

// Stop clears the target; the body stays where it is.
func (a *Agent) Stop() { a.hasTarget = false }

// Step walks the body toward the target for dt.
func (a *Agent) Step(dt time.Duration) {
	if !a.hasTarget || a.HasArrived() {
		return
	}
	pos := a.body.Position()
	goal := geom.Vec3{X: a.target.X, Y: pos.Y, Z: a.target.Z}
	a.body.SetPosition(geom.MoveTowards(pos, goal, a.speed*dt.Seconds()))
}
