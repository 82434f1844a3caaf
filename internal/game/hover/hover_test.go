package hover_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/hover"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

type mover struct {
	body *physics.Body
	dir  geom.Vec3
}

func (m *mover) ID() string               { return "player" }
func (m *mover) Body() *physics.Body      { return m.body }
func (m *mover) Forward() geom.Vec3       { return geom.Vec3{Z: 1} }
func (m *mover) MoveDirection() geom.Vec3 { return m.dir }

const tick = 10 * time.Millisecond

func setup(t *testing.T) (*hover.Component, *schedule.Scheduler, *vfx.Tracker, *mover) {
	t.Helper()
	clock := schedule.New()
	tracker := vfx.NewTracker(clock, zap.NewNop())
	m := &mover{dir: geom.Vec3{X: 1}}
	m.body = physics.NewBody(m, 0.5)
	c := hover.New(m, hover.Env{
		Clock:          clock,
		Effects:        tracker,
		Grace:          150 * time.Millisecond,
		ReleaseCleanup: 1500 * time.Millisecond,
		Logger:         zap.NewNop(),
	})
	require.NoError(t, c.Arm(&skill.Definition{
		ID:     "hover",
		Kind:   skill.KindHover,
		Effect: "hover_hand",
		Hover: &skill.HoverStats{
			UpwardForce:  12,
			ForwardForce: 4,
			UpdateRate:   skill.Duration(50 * time.Millisecond),
		},
	}))
	return c, clock, tracker, m
}

func advance(clock *schedule.Scheduler, d time.Duration, each func()) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += tick {
		clock.Advance(tick, 1)
		if each != nil {
			each()
		}
	}
}

func TestArm_RejectsOtherKinds(t *testing.T) {
	c, _, _, _ := setup(t)
	err := c.Arm(&skill.Definition{ID: "bolt", Kind: skill.KindProjectile, Projectile: &skill.ProjectileStats{}})
	assert.ErrorIs(t, err, skill.ErrWrongKind)
}

func TestKeyDown_PushesImmediatelyThenEveryInterval(t *testing.T) {
	c, clock, _, _ := setup(t)
	c.OnKeyDown()
	assert.True(t, c.IsActive())
	assert.Equal(t, 1, c.Pulses())
	advance(clock, 100*time.Millisecond, nil)
	assert.Equal(t, 3, c.Pulses())
}

func TestRepressWithinGrace_NeverStops(t *testing.T) {
	c, clock, _, _ := setup(t)
	c.OnKeyDown()
	advance(clock, 100*time.Millisecond, nil)
	c.OnKeyUp()
	advance(clock, 50*time.Millisecond, func() {
		require.True(t, c.IsActive(), "loop keeps running during the grace window")
	})
	c.OnKeyDown()
	advance(clock, time.Second, func() {
		require.True(t, c.IsActive())
	})
	assert.Equal(t, 0, c.Stops())
}

func TestKeyUpWithoutRepress_StopsExactlyOnce(t *testing.T) {
	c, clock, tracker, _ := setup(t)
	c.OnKeyDown()
	c.OnKeyUp()
	advance(clock, 140*time.Millisecond, nil)
	assert.True(t, c.IsActive())
	advance(clock, 20*time.Millisecond, nil)
	assert.False(t, c.IsActive())
	assert.Equal(t, 1, c.Stops())

	pulses := c.Pulses()
	c.OnKeyUp()
	advance(clock, time.Second, nil)
	assert.Equal(t, 1, c.Stops())
	assert.Equal(t, pulses, c.Pulses(), "no force after stop")
	assert.Equal(t, 2, tracker.Live(), "a key release keeps the hand effects")
}

func TestUpdate_HandsFollowVelocity(t *testing.T) {
	c, _, tracker, m := setup(t)
	m.body.SetVelocity(geom.Vec3{X: 2, Y: 1})
	c.OnKeyDown()
	c.Update()
	hands := tracker.Named("hover_hand")
	require.Len(t, hands, 2)
	for _, h := range hands {
		assert.True(t, h.Active())
		assert.Equal(t, geom.Vec3{X: 2, Y: 1}, h.Velocity())
	}
}

func TestRelease_HardStopAndDelayedCleanup(t *testing.T) {
	c, clock, tracker, _ := setup(t)
	c.OnKeyDown()
	c.OnKeyUp()
	c.Release()
	assert.False(t, c.IsActive())
	assert.False(t, c.Hovering())

	clock.Advance(time.Second, 0)
	assert.Equal(t, 2, tracker.Live())
	clock.Advance(500*time.Millisecond, 0)
	assert.Equal(t, 0, tracker.Live())
	assert.Equal(t, 0, c.Stops(), "the pending grace stop was cancelled")
}
