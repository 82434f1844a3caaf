package sense

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// DefaultFalloff is the loudness lost per unit of distance.
const DefaultFalloff = 1.0

type noise struct {
	at       geom.Vec3
	loudness float64
}

// NoiseBoard holds the noises currently audible in the world. Each noise
// lasts for the duration it was emitted with.
type NoiseBoard struct {
	clock   *schedule.Scheduler
	falloff float64
	noises  map[*noise]struct{}
	logger  *zap.Logger
}

// NewNoiseBoard returns an empty board.
//
// Precondition: clock and logger must not be nil; falloff >= 0.
func NewNoiseBoard(clock *schedule.Scheduler, falloff float64, logger *zap.Logger) *NoiseBoard {
	if clock == nil || logger == nil {
		panic("sense.NewNoiseBoard: clock and logger must not be nil")
	}
	return &NoiseBoard{
		clock:   clock,
		falloff: math.Max(0, falloff),
		noises:  make(map[*noise]struct{}),
		logger:  logger.Named("noise"),
	}
}

// Emit makes a noise of loudness at position at, audible for d.
// Non-positive loudness or duration is ignored.
func (b *NoiseBoard) Emit(at geom.Vec3, loudness float64, d time.Duration) {
	if loudness <= 0 || d <= 0 {
		return
	}
	n := &noise{at: at, loudness: loudness}
	b.noises[n] = struct{}{}
	b.clock.After(d, func() { delete(b.noises, n) })
	b.logger.Debug("noise", zap.Float64("loudness", loudness), zap.Duration("duration", d))
}

// LevelAt returns the loudest noise heard at p after distance falloff, never
// below zero.
func (b *NoiseBoard) LevelAt(p geom.Vec3) float64 {
	level := 0.0
	for n := range b.noises {
		heard := n.loudness - b.falloff*geom.Distance(n.at.Flat(), p.Flat())
		level = math.Max(level, heard)
	}
	return level
}

// Len returns the number of audible noises.
func (b *NoiseBoard) Len() int { return len(b.noises) }
