package sense_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/sense"
)

type player struct {
	body  *physics.Body
	alive bool
}

func (p *player) Body() *physics.Body { return p.body }
func (p *player) Alive() bool         { return p.alive }

func TestProximity_SightRange(t *testing.T) {
	self := physics.NewBody(nil, 0.5)
	p := &player{body: physics.NewBody(nil, 0.5), alive: true}
	p.body.SetPosition(geom.Vec3{X: 30, Y: 5})
	s := sense.NewProximity(self, nil, 40)

	assert.False(t, s.CanSeePlayer(), "no target")
	assert.True(t, math.IsInf(s.DistanceToPlayer(), 1))

	s.SetTarget(p)
	assert.True(t, s.CanSeePlayer())
	assert.Equal(t, 30.0, s.DistanceToPlayer(), "height is ignored")

	s.SetSightRange(20)
	assert.False(t, s.CanSeePlayer())

	s.SetSightRange(40)
	p.alive = false
	assert.False(t, s.CanSeePlayer())
	_, ok := s.PlayerPosition()
	assert.False(t, ok)
}

func TestNoiseBoard_FalloffAndExpiry(t *testing.T) {
	clock := schedule.New()
	board := sense.NewNoiseBoard(clock, 1, zap.NewNop())
	self := physics.NewBody(nil, 0.5)
	s := sense.NewProximity(self, board, 10)

	board.Emit(geom.Vec3{X: 4}, 10, 2*time.Second)
	assert.InDelta(t, 6.0, board.LevelAt(geom.Zero), 1e-9)
	assert.True(t, s.HeardNoiseAbove(6))
	assert.False(t, s.HeardNoiseAbove(6.5))

	clock.Advance(2*time.Second, 1)
	assert.Equal(t, 0, board.Len())
	assert.False(t, s.HeardNoiseAbove(0.1))
}

func TestNoiseBoard_IgnoresSilentNoise(t *testing.T) {
	board := sense.NewNoiseBoard(schedule.New(), 1, zap.NewNop())
	board.Emit(geom.Zero, 0, time.Second)
	board.Emit(geom.Zero, 5, 0)
	assert.Equal(t, 0, board.Len())
}

func TestProximity_UnboundPerceivesNothing(t *testing.T) {
	clock := schedule.New()
	board := sense.NewNoiseBoard(clock, 1, zap.NewNop())
	board.Emit(geom.Zero, 100, time.Second)
	p := &player{body: physics.NewBody(nil, 0.5), alive: true}

	s := sense.NewProximity(nil, board, 40)
	s.SetTarget(p)
	assert.False(t, s.CanSeePlayer())
	assert.False(t, s.HeardNoiseAbove(1))

	s.Bind(physics.NewBody(nil, 0.5))
	assert.True(t, s.CanSeePlayer())
	assert.True(t, s.HeardNoiseAbove(1))
}
