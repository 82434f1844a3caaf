// Package sense answers the perception questions enemy behaviour asks: can
// the player be seen, and was anything heard above a threshold.
package sense

import (
	"math"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
)

// Target is the perceived player.
type Target interface {
	Body() *physics.Body
	Alive() bool
}

// Proximity sees a target that is alive and within sight range, and hears
// the noise board at its own position.
type Proximity struct {
	self       *physics.Body
	board      *NoiseBoard
	target     Target
	sightRange float64
}

// NewProximity returns a sensor for self. board may be nil, in which case
// nothing is ever heard. self may be nil and bound later with Bind; an
// unbound sensor perceives nothing.
func NewProximity(self *physics.Body, board *NoiseBoard, sightRange float64) *Proximity {
	return &Proximity{self: self, board: board, sightRange: sightRange}
}

// Bind sets the body the sensor perceives from.
func (p *Proximity) Bind(self *physics.Body) { p.self = self }

// SetTarget replaces the perceived player; nil clears it.
func (p *Proximity) SetTarget(t Target) { p.target = t }

// SetSightRange changes how far the sensor sees.
func (p *Proximity) SetSightRange(r float64) { p.sightRange = r }

// CanSeePlayer reports whether a living target is within sight range.
func (p *Proximity) CanSeePlayer() bool {
	if p.target == nil || !p.target.Alive() {
		return false
	}
	return p.DistanceToPlayer() <= p.sightRange
}

// HeardNoiseAbove reports whether the loudest noise at the sensor's position
// is at least threshold.
func (p *Proximity) HeardNoiseAbove(threshold float64) bool {
	if p.board == nil || p.self == nil {
		return false
	}
	return p.board.LevelAt(p.self.Position()) >= threshold
}

// PlayerPosition returns the target's position, if there is a target.
func (p *Proximity) PlayerPosition() (geom.Vec3, bool) {
	if p.target == nil || !p.target.Alive() {
		return geom.Zero, false
	}
	return p.target.Body().Position(), true
}

// DistanceToPlayer returns the ground distance to the target, or +Inf when
// there is none.
func (p *Proximity) DistanceToPlayer() float64 {
	pos, ok := p.PlayerPosition()
	if !ok || p.self == nil {
		return math.Inf(1)
	}
	return geom.Distance(p.self.Position().Flat(), pos.Flat())
}
