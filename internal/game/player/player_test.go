package player_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/input"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/player"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/sense"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

type menu struct{ open bool }

func (m *menu) OpenMenu(open bool) { m.open = open }

type timeScale struct{ scale float64 }

func (t *timeScale) SetTimeScale(s float64) { t.scale = s }

type rig struct {
	clock  *schedule.Scheduler
	space  *physics.Space
	in     *input.Dispatcher
	menu   *menu
	time   *timeScale
	noise  *sense.NoiseBoard
	fired  []*projectile.Component
	player *player.Player
}

func bolt(cast skill.CastType) *skill.Definition {
	return &skill.Definition{
		ID:             "bolt",
		Kind:           skill.KindProjectile,
		Cast:           cast,
		Cooldown:       skill.Duration(500 * time.Millisecond),
		ChargeTime:     skill.Duration(2 * time.Second),
		RepeatInterval: skill.Duration(100 * time.Millisecond),
		SetVelocity:    true,
		Noise:          8,
		Projectile:     &skill.ProjectileStats{Damage: 100, Force: 10, Range: 20, Speed: 10, Radius: 0.2},
	}
}

func hoverDef() *skill.Definition {
	return &skill.Definition{
		ID:    "hover",
		Kind:  skill.KindHover,
		Hover: &skill.HoverStats{UpwardForce: 10, UpdateRate: skill.Duration(50 * time.Millisecond)},
	}
}

func newRig(t *testing.T, primary *skill.Definition) *rig {
	t.Helper()
	r := &rig{
		clock: schedule.New(),
		space: physics.NewSpace(100, 100, 4, geom.Zero),
		in:    input.NewDispatcher(),
		menu:  &menu{},
		time:  &timeScale{scale: 1},
	}
	r.noise = sense.NewNoiseBoard(r.clock, 1, zap.NewNop())
	env := projectile.Env{
		Space:         r.space,
		Clock:         r.clock,
		Effects:       vfx.NewTracker(r.clock, zap.NewNop()),
		EffectCleanup: 3 * time.Second,
		Logger:        zap.NewNop(),
	}
	p, err := player.New(player.Config{MaxHealth: 50, ForceResistance: 15, Speed: 5, Radius: 0.5}, primary, hoverDef(), player.Env{
		Input: r.in,
		Clock: r.clock,
		Projectiles: projectile.FactoryFunc(func(c skill.Caster) *projectile.Component {
			pr := projectile.New(c, env)
			r.fired = append(r.fired, pr)
			return pr
		}),
		Menu:           r.menu,
		Time:           r.time,
		Noise:          r.noise,
		NoiseDuration:  time.Second,
		HoverGrace:     150 * time.Millisecond,
		ReleaseCleanup: 1500 * time.Millisecond,
		Logger:         zap.NewNop(),
	})
	require.NoError(t, err)
	r.player = p
	return r
}

func (r *rig) down(a input.Action) { r.in.Dispatch(input.Event{Kind: input.KeyDown, Action: a}) }
func (r *rig) up(a input.Action)   { r.in.Dispatch(input.Event{Kind: input.KeyUp, Action: a}) }

func TestNew_RejectsNonProjectilePrimary(t *testing.T) {
	_, err := player.New(player.Config{MaxHealth: 10, Radius: 0.5}, hoverDef(), nil, player.Env{
		Input:  input.NewDispatcher(),
		Clock:  schedule.New(),
		Logger: zap.NewNop(),
	})
	assert.ErrorIs(t, err, skill.ErrWrongKind)
}

func TestInstantCast_FiresAndCoolsDown(t *testing.T) {
	r := newRig(t, bolt(skill.CastInstant))
	assert.Equal(t, "playable", r.player.Machine().Current().Name())

	r.down(input.ActionPrimary)
	r.up(input.ActionPrimary)
	require.Len(t, r.fired, 1)
	assert.True(t, r.fired[0].IsActive())
	assert.Equal(t, 1, r.noise.Len(), "casting is heard")

	r.down(input.ActionPrimary)
	assert.Len(t, r.fired, 1, "cooldown running")
	r.clock.Advance(500*time.Millisecond, 1)
	r.down(input.ActionPrimary)
	assert.Len(t, r.fired, 2)
}

func TestChargeCast_ArmsOnPressFiresOnReleaseScaled(t *testing.T) {
	r := newRig(t, bolt(skill.CastCharge))
	r.down(input.ActionPrimary)
	require.Len(t, r.fired, 1, "the projectile is armed while charging")
	pr := r.fired[0]
	assert.Equal(t, projectile.Armed, pr.Phase())
	assert.Same(t, r.player.Body(), pr.Body().Parent(), "it rides on the caster")
	assert.False(t, pr.IsActive())
	assert.Equal(t, 0, r.noise.Len())

	r.player.Update(time.Second)
	assert.InDelta(t, 0.5, r.player.Charge(), 1e-4)

	r.up(input.ActionPrimary)
	require.Len(t, r.fired, 1, "release shoots the armed projectile")
	assert.Equal(t, projectile.Shooting, pr.Phase())
	assert.Nil(t, pr.Body().Parent())
	assert.Equal(t, 50, pr.Damage())
	assert.Equal(t, 0.0, r.player.Charge(), "charging stopped")
	assert.Equal(t, 1, r.noise.Len())

	r.clock.Advance(500*time.Millisecond, 1)
	r.down(input.ActionPrimary)
	require.Len(t, r.fired, 2)
	r.player.Update(2 * time.Second)
	assert.Equal(t, 50, pr.Damage(), "a new charge does not change a projectile in flight")
}

func TestChargeCast_MenuReleasesArmedProjectile(t *testing.T) {
	r := newRig(t, bolt(skill.CastCharge))
	r.down(input.ActionPrimary)
	require.Len(t, r.fired, 1)
	pr := r.fired[0]

	r.in.Dispatch(input.Event{Kind: input.MenuToggle})
	assert.Equal(t, projectile.Expired, pr.Phase())
	assert.Equal(t, 0.0, r.player.Charge())

	r.in.Dispatch(input.Event{Kind: input.MenuToggle})
	r.up(input.ActionPrimary)
	assert.Len(t, r.fired, 1, "a key up after cancelling fires nothing")
}

func TestHoldCast_RepeatsUntilRelease(t *testing.T) {
	r := newRig(t, bolt(skill.CastHold))
	r.down(input.ActionPrimary)
	r.clock.Advance(200*time.Millisecond, 1)
	assert.Len(t, r.fired, 3)
	r.up(input.ActionPrimary)
	r.clock.Advance(200*time.Millisecond, 1)
	assert.Len(t, r.fired, 3)
}

func TestSpawnCast_PlacesStillProjectile(t *testing.T) {
	r := newRig(t, bolt(skill.CastSpawn))
	r.player.SetMoveDirection(geom.Vec3{X: 1})
	r.down(input.ActionPrimary)
	assert.Empty(t, r.fired)
	r.up(input.ActionPrimary)
	require.Len(t, r.fired, 1)
	pr := r.fired[0]
	assert.Equal(t, projectile.Shooting, pr.Phase())
	assert.Equal(t, geom.Vec3{X: 10}, pr.Body().Position())
	assert.Equal(t, geom.Zero, pr.Body().Velocity())
}

func TestMenu_PausesAndRestores(t *testing.T) {
	r := newRig(t, bolt(skill.CastInstant))
	r.in.Dispatch(input.Event{Kind: input.MenuToggle})
	assert.Equal(t, "menu", r.player.Machine().Current().Name())
	assert.True(t, r.menu.open)
	assert.Equal(t, 0.0, r.time.scale)

	r.down(input.ActionPrimary)
	assert.Empty(t, r.fired, "skills ignore keys in the menu")

	r.in.Dispatch(input.Event{Kind: input.MenuToggle})
	assert.Equal(t, "playable", r.player.Machine().Current().Name())
	assert.False(t, r.menu.open)
	assert.Equal(t, 1.0, r.time.scale)
	assert.Equal(t, 3, r.in.Subscribers(), "only the new Playable is subscribed")
}

func TestMenu_ReleasesHeldHover(t *testing.T) {
	r := newRig(t, bolt(skill.CastInstant))
	r.down(input.ActionMovement)
	require.True(t, r.player.Hover().IsActive())
	r.in.Dispatch(input.Event{Kind: input.MenuToggle})
	r.clock.Advance(150*time.Millisecond, 1)
	assert.False(t, r.player.Hover().IsActive())
}

func TestTakeDamage_LethalKills(t *testing.T) {
	r := newRig(t, bolt(skill.CastHold))
	r.down(input.ActionPrimary)
	r.player.TakeDamage(combat.Hit{Amount: 10, Force: 20, Direction: geom.Vec3{X: 1}})
	assert.Equal(t, geom.Vec3{X: 20}, r.player.Body().Velocity(), "staggering hits shove")

	r.player.TakeDamage(combat.Hit{Amount: 100})
	assert.Equal(t, "dead", r.player.Machine().Current().Name())
	assert.False(t, r.player.Alive())
	assert.False(t, r.player.Body().ColliderEnabled())

	n := len(r.fired)
	r.clock.Advance(time.Second, 1)
	assert.Len(t, r.fired, n, "hold repeat cancelled on death")
}
