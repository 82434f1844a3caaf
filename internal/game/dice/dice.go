// Package dice is the randomness abstraction of the simulation. Gameplay code
// never calls math/rand directly; it asks a Source, so tests can pin every
// random choice with a seeded source.
package dice

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
)

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// resolution is the number of steps Uniform divides its interval into.
const resolution = 10000

// Uniform returns a value in [lo, hi] drawn from src in resolution steps.
//
// Precondition: lo <= hi; src must be non-nil.
func Uniform(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	step := src.Intn(resolution + 1)
	return lo + (hi-lo)*float64(step)/resolution
}

// Scatter picks random points on the ground plane around a centre and logs
// each pick at debug level.
type Scatter struct {
	src    Source
	logger *zap.Logger
}

// NewScatter creates a Scatter drawing from src.
//
// Precondition: src and logger must be non-nil.
func NewScatter(src Source, logger *zap.Logger) *Scatter {
	if src == nil || logger == nil {
		panic("dice.NewScatter: src and logger must not be nil")
	}
	return &Scatter{src: src, logger: logger}
}

// Around returns centre offset by independent uniform values in
// [-spread, spread] on X and Z. Y is kept.
//
// Postcondition: |result.X-centre.X| <= spread and |result.Z-centre.Z| <= spread.
func (s *Scatter) Around(centre geom.Vec3, spread float64) geom.Vec3 {
	if spread < 0 {
		spread = -spread
	}
	p := geom.Vec3{
		X: centre.X + Uniform(s.src, -spread, spread),
		Y: centre.Y,
		Z: centre.Z + Uniform(s.src, -spread, spread),
	}
	s.logger.Debug("scatter",
		zap.Float64("spread", spread),
		zap.Float64("x", p.X),
		zap.Float64("z", p.Z),
	)
	return p
}
