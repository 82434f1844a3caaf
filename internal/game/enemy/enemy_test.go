package enemy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/dice"
	"github.com/cory-johannsen/spellbound/internal/game/enemy"
	"github.com/cory-johannsen/spellbound/internal/game/fsm"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/spawner"
)

type fakeNav struct {
	target  geom.Vec3
	set     bool
	speed   float64
	arrived bool
	reject  bool
}

func (n *fakeNav) SetTarget(p geom.Vec3) bool {
	if n.reject {
		return false
	}
	n.target, n.set = p, true
	return true
}
func (n *fakeNav) HasArrived() bool   { return n.arrived }
func (n *fakeNav) SetSpeed(s float64) { n.speed = s }
func (n *fakeNav) Speed() float64     { return n.speed }
func (n *fakeNav) Stop()              { n.set = false }

type fakeSensor struct {
	visible bool
	present bool
	at      geom.Vec3
	noise   float64
}

func (s *fakeSensor) CanSeePlayer() bool                { return s.present && s.visible }
func (s *fakeSensor) HeardNoiseAbove(th float64) bool   { return s.noise >= th && s.noise > 0 }
func (s *fakeSensor) PlayerPosition() (geom.Vec3, bool) { return s.at, s.present }

func (s *fakeSensor) playerAt(x float64, visible bool) {
	s.present, s.visible, s.at = true, visible, geom.Vec3{X: x}
}

type fakeRegistry struct{ deaths map[string]int }

func (r *fakeRegistry) NotifyDeath(m spawner.Member) bool {
	r.deaths[m.ID()]++
	return r.deaths[m.ID()] == 1
}

type fakeCamp struct {
	home   geom.Vec3
	radius float64
	deaths int
}

func (c *fakeCamp) Home() geom.Vec3 { return c.home }
func (c *fakeCamp) Outside(p geom.Vec3) bool {
	return geom.Distance(c.home.Flat(), p.Flat()) > c.radius
}
func (c *fakeCamp) NotifyDeath(string) bool { c.deaths++; return true }

type dummy struct {
	hits []combat.Hit
}

func (d *dummy) ID() string              { return "player" }
func (d *dummy) TakeDamage(h combat.Hit) { d.hits = append(d.hits, h) }

type rig struct {
	clock    *schedule.Scheduler
	nav      *fakeNav
	sensor   *fakeSensor
	registry *fakeRegistry
	camp     *fakeCamp
	player   *dummy
	env      enemy.Env
}

func newRig() *rig {
	r := &rig{
		clock:    schedule.New(),
		nav:      &fakeNav{},
		sensor:   &fakeSensor{},
		registry: &fakeRegistry{deaths: map[string]int{}},
		player:   &dummy{},
	}
	r.env = enemy.Env{
		Nav:        r.nav,
		Sensor:     r.sensor,
		Registry:   r.registry,
		Strategies: enemy.DefaultRegistry(nil),
		Clock:      r.clock,
		Logger:     zap.NewNop(),
		Target:     func() combat.Damageable { return r.player },
	}
	return r
}

func (r *rig) withCamp(radius float64) *rig {
	r.camp = &fakeCamp{radius: radius}
	r.env.Camp = r.camp
	r.env.Scatter = dice.NewScatter(dice.NewSeededSource(7), zap.NewNop())
	r.env.LeashInterval = time.Second
	r.env.LeashScatter = 5
	return r
}

func claws() *skill.Definition {
	return &skill.Definition{
		ID:       "claws",
		Kind:     skill.KindMelee,
		Cooldown: skill.Duration(time.Second),
		Melee:    &skill.MeleeStats{Damage: 7, Force: 3, Reach: 2},
	}
}

func grunt() *enemy.Archetype {
	return &enemy.Archetype{
		ID:                "grunt",
		Name:              "Grunt",
		MaxHealth:         100,
		ForceResistance:   20,
		Radius:            0.5,
		Speed:             4,
		AggroRange:        40,
		AttackRange:       10,
		SightRange:        50,
		NoiseThreshold:    5,
		LoseTargetGrace:   skill.Duration(2 * time.Second),
		KnockdownBase:     skill.Duration(time.Second),
		KnockdownPerForce: skill.Duration(10 * time.Millisecond),
		KnockdownMax:      skill.Duration(3 * time.Second),
		Strategies:        enemy.Strategies{Idle: "sentry", Chase: "pursue", Attack: "melee"},
		Skill:             claws(),
	}
}

func spawn(t require.TestingT, r *rig, arch *enemy.Archetype) *enemy.Enemy {
	e, err := enemy.New(arch, r.env)
	require.NoError(t, err)
	return e
}

func stateName(e *enemy.Enemy) string { return e.Machine().Current().Name() }

func TestNew_StartsIdle(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	assert.Equal(t, "idle", stateName(e))
	assert.Equal(t, 4.0, r.nav.Speed())
	assert.Same(t, e, e.Body().Owner)
}

func TestNew_UnknownStrategyIsFatal(t *testing.T) {
	arch := grunt()
	arch.Strategies.Chase = "teleport"
	_, err := enemy.New(arch, newRig().env)
	assert.ErrorIs(t, err, enemy.ErrUnknownStrategy)
}

func TestNew_MissingCapabilityIsFatal(t *testing.T) {
	r := newRig()
	r.env.Nav = nil
	_, err := enemy.New(grunt(), r.env)
	assert.ErrorIs(t, err, enemy.ErrMissingCapability)

	r = newRig()
	arch := grunt()
	arch.Strategies.Attack = "ranged"
	_, err = enemy.New(arch, r.env)
	assert.ErrorIs(t, err, skill.ErrWrongKind, "ranged needs a projectile skill")
}

// TestScenario_AggroThenAttack covers the aggro 40 / attack 10 walkthrough.
func TestScenario_AggroThenAttack(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())

	r.sensor.playerAt(35, true)
	e.Update()
	require.Equal(t, "chase", stateName(e))
	e.Update()
	assert.Equal(t, geom.Vec3{X: 35}, r.nav.target)

	r.sensor.playerAt(8, true)
	e.Update()
	assert.Equal(t, "attack", stateName(e))
}

func TestIdle_WakesOnAggroRangeWithoutSight(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	r.sensor.playerAt(39, false)
	e.Update()
	assert.Equal(t, "chase", stateName(e))
}

func TestIdle_WakesOnNoise(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	r.sensor.playerAt(100, false)
	e.Update()
	require.Equal(t, "idle", stateName(e))
	r.sensor.noise = 5
	e.Update()
	assert.Equal(t, "chase", stateName(e))
}

func TestChase_GivesUpAfterGrace(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	r.sensor.playerAt(30, true)
	e.Update()
	require.Equal(t, "chase", stateName(e))

	r.sensor.present = false
	e.Update()
	r.clock.Advance(1500*time.Millisecond, 1)
	e.Update()
	assert.Equal(t, "chase", stateName(e), "within grace")

	r.sensor.playerAt(30, true)
	e.Update()
	r.clock.Advance(time.Second, 1)
	assert.Equal(t, "chase", stateName(e), "reacquiring cancels the grace timer")

	r.sensor.present = false
	e.Update()
	r.clock.Advance(2*time.Second, 1)
	assert.Equal(t, "idle", stateName(e))
}

func TestAttack_StrikesOnCooldownAndFallsBack(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	r.sensor.playerAt(2, true)
	e.Update()
	e.Update()
	require.Equal(t, "attack", stateName(e))

	e.Update()
	require.Len(t, r.player.hits, 1)
	assert.Equal(t, 7, r.player.hits[0].Amount)
	assert.Equal(t, e.ID(), r.player.hits[0].Source)

	e.Update()
	assert.Len(t, r.player.hits, 1, "cooldown running")
	r.clock.Advance(time.Second, 1)
	e.Update()
	assert.Len(t, r.player.hits, 2)

	r.sensor.playerAt(15, true)
	e.Update()
	assert.Equal(t, "chase", stateName(e))

	e.Update()
	r.sensor.playerAt(5, true)
	e.Update()
	require.Equal(t, "attack", stateName(e))
	r.sensor.playerAt(45, false)
	e.Update()
	assert.Equal(t, "idle", stateName(e))
}

func TestKnockdown_RecoversIntoChase(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	idle := e.Machine().Current()
	e.TakeDamage(combat.Hit{Amount: 1, Force: 50})

	kd, ok := e.Machine().Current().(*enemy.Knockdown)
	require.True(t, ok)
	assert.Same(t, idle, kd.Previous())
	assert.Equal(t, 1500*time.Millisecond, kd.Duration())
	assert.False(t, r.nav.set)

	e.TakeDamage(combat.Hit{Amount: 1, Force: 50})
	assert.Same(t, kd, e.Machine().Current(), "no knockdown while already down")

	r.clock.Advance(1500*time.Millisecond, 1)
	assert.Equal(t, "chase", stateName(e), "recovery never restores the previous state")
}

// TestKnockdown_Threshold verifies knockdown happens iff force >= resistance.
func TestKnockdown_Threshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		forces := rapid.SliceOfN(rapid.Float64Range(0, 40), 1, 10).Draw(rt, "forces")
		r := newRig()
		e := spawn(rt, r, grunt())
		want := false
		for _, f := range forces {
			e.TakeDamage(combat.Hit{Amount: 1, Force: f})
			if f >= 20 {
				want = true
			}
			_, down := e.Machine().Current().(*enemy.Knockdown)
			require.Equal(rt, want, down)
		}
	})
}

func TestKnockdown_DurationCapped(t *testing.T) {
	assert.Equal(t, 3*time.Second, grunt().KnockdownFor(1e6))
	assert.Equal(t, time.Second, grunt().KnockdownFor(-5))
}

func TestDie_ReportsExactlyOnce(t *testing.T) {
	r := newRig().withCamp(100)
	e := spawn(t, r, grunt())
	e.TakeDamage(combat.Hit{Amount: 500, Force: 500})
	require.Equal(t, "dead", stateName(e))
	e.Die()
	e.TakeDamage(combat.Hit{Amount: 500, Force: 500})
	e.Update()

	assert.Equal(t, 1, r.registry.deaths[e.ID()])
	assert.Equal(t, 1, r.camp.deaths)
	assert.False(t, e.Body().ColliderEnabled())
	assert.False(t, e.ChangeState(e.States().Chase), "dead enemies refuse transitions")
}

type trapState struct {
	e   *enemy.Enemy
	hit combat.Hit
}

func (s *trapState) Name() string { return "trap" }
func (s *trapState) Enter()       {}
func (s *trapState) Update()      {}
func (s *trapState) Exit()        { s.e.TakeDamage(s.hit) }

// TestDie_LethalHitDuringKnockdownTransition exercises the knockdown-during-
// death race: a lethal hit arrives from inside the Exit that a knockdown
// triggered.
func TestDie_LethalHitDuringKnockdownTransition(t *testing.T) {
	r := newRig().withCamp(100)
	var trap *trapState
	reg := enemy.DefaultRegistry(nil)
	require.NoError(t, reg.Register(enemy.RoleIdle, "trap", func(e *enemy.Enemy) (fsm.State, error) {
		trap = &trapState{e: e, hit: combat.Hit{Amount: 1000, Force: 1000}}
		return trap, nil
	}))
	r.env.Strategies = reg
	arch := grunt()
	arch.Strategies.Idle = "trap"
	e := spawn(t, r, arch)

	e.TakeDamage(combat.Hit{Amount: 1, Force: 50})
	assert.True(t, e.Dead())
	_, queued := e.Machine().Pending().(*enemy.Dead)
	require.True(t, queued)

	e.Update()
	assert.Equal(t, "dead", stateName(e))
	e.Update()
	assert.Equal(t, 1, r.registry.deaths[e.ID()])
	assert.Equal(t, 1, r.camp.deaths)
}

func TestLeash_ReturnsHomeAndRetries(t *testing.T) {
	r := newRig().withCamp(10)
	e := spawn(t, r, grunt())
	e.Body().SetPosition(geom.Vec3{X: 30})

	r.nav.reject = true
	r.clock.Advance(time.Second, 1)
	require.Equal(t, "idle", stateName(e), "rejected target retries on the next check")

	r.nav.reject = false
	r.clock.Advance(time.Second, 1)
	mt, ok := e.Machine().Current().(*enemy.MoveTo)
	require.True(t, ok)
	assert.LessOrEqual(t, abs(mt.Target().X), 5.0)
	assert.LessOrEqual(t, abs(mt.Target().Z), 5.0)

	e.Update()
	assert.Equal(t, "move_to", stateName(e))
	r.nav.arrived = true
	e.Update()
	assert.Equal(t, "idle", stateName(e))
}

func TestLeash_SkippedWhileKnockedDown(t *testing.T) {
	r := newRig().withCamp(10)
	arch := grunt()
	arch.KnockdownBase = skill.Duration(5 * time.Second)
	arch.KnockdownMax = 0
	e := spawn(t, r, arch)
	e.Body().SetPosition(geom.Vec3{X: 30})
	e.TakeDamage(combat.Hit{Amount: 1, Force: 20})
	r.clock.Advance(3*time.Second, 1)
	assert.Equal(t, "knockdown", stateName(e))
}

func TestSetArchetype_KeepsPreviousOnError(t *testing.T) {
	r := newRig()
	e := spawn(t, r, grunt())
	r.sensor.playerAt(30, true)
	e.Update()
	oldChase := e.States().Chase

	bad := grunt()
	bad.Strategies.Idle = "nope"
	require.ErrorIs(t, e.SetArchetype(bad), enemy.ErrUnknownStrategy)
	assert.Same(t, oldChase, e.States().Chase)
	assert.Equal(t, "grunt", e.Archetype().ID)

	better := grunt()
	better.ID = "brute"
	better.MaxHealth = 300
	better.Speed = 6
	require.NoError(t, e.SetArchetype(better))
	assert.NotSame(t, oldChase, e.States().Chase)
	assert.Same(t, e.States().Chase, e.Machine().Current(), "active role carries over")
	assert.Equal(t, 300, e.Status().Health())
	assert.Equal(t, 6.0, r.nav.Speed())
}

func TestCheckArchetype(t *testing.T) {
	r := newRig()
	require.NoError(t, enemy.CheckArchetype(grunt(), r.env))

	ranged := grunt()
	ranged.Strategies.Attack = "ranged"
	assert.ErrorIs(t, enemy.CheckArchetype(ranged, r.env), skill.ErrWrongKind)

	unknown := grunt()
	unknown.Strategies.Chase = "teleport"
	assert.ErrorIs(t, enemy.CheckArchetype(unknown, r.env), enemy.ErrUnknownStrategy)

	noTarget := r.env
	noTarget.Target = nil
	assert.ErrorIs(t, enemy.CheckArchetype(grunt(), noTarget), enemy.ErrMissingCapability)

	assert.Error(t, enemy.CheckArchetype(nil, r.env))
	assert.Equal(t, 0, r.clock.Pending(), "a trial build schedules nothing")
}

type fakeScripts struct {
	ret   lua.LValue
	err   error
	calls int
}

func (f *fakeScripts) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	f.calls++
	return f.ret, f.err
}

func TestScriptedIdle_UsesHookThenFallsBack(t *testing.T) {
	scripts := &fakeScripts{ret: lua.LTrue}
	r := newRig()
	r.env.Strategies = enemy.DefaultRegistry(scripts)
	arch := grunt()
	arch.Strategies.Idle = "scripted"
	arch.Script = "grunt_wake"
	e := spawn(t, r, arch)

	r.sensor.playerAt(90, false)
	e.Update()
	assert.Equal(t, "chase", stateName(e))
	assert.Equal(t, 1, scripts.calls)

	scripts.ret, scripts.err = lua.LNil, errors.New("boom")
	e2 := spawn(t, r, arch)
	e2.Update()
	assert.Equal(t, "idle", stateName(e2), "hook failure falls back to sensors")
}

func TestScriptedIdle_RequiresHook(t *testing.T) {
	r := newRig()
	r.env.Strategies = enemy.DefaultRegistry(&fakeScripts{})
	arch := grunt()
	arch.Strategies.Idle = "scripted"
	_, err := enemy.New(arch, r.env)
	assert.ErrorIs(t, err, enemy.ErrMissingCapability)
}

func TestRegistry_Names(t *testing.T) {
	reg := enemy.DefaultRegistry(nil)
	assert.Equal(t, []string{"melee", "ranged"}, reg.Names(enemy.RoleAttack))
	assert.Error(t, reg.Register(enemy.RoleChase, "pursue", func(*enemy.Enemy) (fsm.State, error) { return nil, nil }))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
