package nav_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/nav"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
)

func TestAgent_WalksToTarget(t *testing.T) {
	body := physics.NewBody(nil, 0.5)
	a := nav.NewAgent(body, 100, 100, zap.NewNop())
	a.SetSpeed(2)
	assert.True(t, a.SetTarget(geom.Vec3{X: 3}))
	assert.False(t, a.HasArrived())

	a.Step(time.Second)
	assert.InDelta(t, 2.0, body.Position().X, 1e-9)
	a.Step(time.Second)
	assert.InDelta(t, 3.0, body.Position().X, 1e-9, "never overshoots")
	assert.True(t, a.HasArrived())
}

func TestAgent_RejectsTargetsOutsideArena(t *testing.T) {
	a := nav.NewAgent(physics.NewBody(nil, 0.5), 20, 20, zap.NewNop())
	assert.False(t, a.SetTarget(geom.Vec3{X: 11}))
	_, ok := a.Target()
	assert.False(t, ok)
	assert.True(t, a.SetTarget(geom.Vec3{X: 10, Z: -10}))
}

func TestAgent_StopHaltsMovement(t *testing.T) {
	body := physics.NewBody(nil, 0.5)
	a := nav.NewAgent(body, 100, 100, zap.NewNop())
	a.SetSpeed(1)
	a.SetTarget(geom.Vec3{Z: 10})
	a.Stop()
	a.Step(time.Second)
	assert.Equal(t, geom.Zero, body.Position())
	assert.True(t, a.HasArrived())
}

func TestAgent_NegativeSpeedClamps(t *testing.T) {
	a := nav.NewAgent(physics.NewBody(nil, 0.5), 10, 10, zap.NewNop())
	a.SetSpeed(-3)
	assert.Equal(t, 0.0, a.Speed())
}

func TestAgent_UnboundUntilBind(t *testing.T) {
	a := nav.NewAgent(nil, 100, 100, zap.NewNop())
	a.SetSpeed(1)
	assert.True(t, a.SetTarget(geom.Vec3{X: 5}))
	assert.True(t, a.HasArrived(), "an unbound agent has nowhere to walk")
	a.Step(time.Second)

	body := physics.NewBody(nil, 0.5)
	a.Bind(body)
	assert.False(t, a.HasArrived())
	a.Step(time.Second)
	assert.InDelta(t, 1.0, body.Position().X, 1e-9)
}
