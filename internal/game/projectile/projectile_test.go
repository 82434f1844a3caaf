package projectile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
)

type fakeCaster struct {
	id   string
	body *physics.Body
}

func newCaster(id string) *fakeCaster {
	c := &fakeCaster{id: id}
	c.body = physics.NewBody(c, 0.5)
	return c
}

func (c *fakeCaster) ID() string            { return c.id }
func (c *fakeCaster) Body() *physics.Body   { return c.body }
func (c *fakeCaster) Forward() geom.Vec3    { return geom.Vec3{X: 1} }
func (c *fakeCaster) TakeDamage(combat.Hit) {}

type target struct {
	id   string
	body *physics.Body
	hits []combat.Hit
}

func (t *target) ID() string              { return t.id }
func (t *target) TakeDamage(h combat.Hit) { t.hits = append(t.hits, h) }

type world struct {
	space   *physics.Space
	clock   *schedule.Scheduler
	effects *vfx.Tracker
	env     projectile.Env
}

func newWorld() *world {
	w := &world{
		space: physics.NewSpace(200, 200, 4, geom.Zero),
		clock: schedule.New(),
	}
	w.effects = vfx.NewTracker(w.clock, zap.NewNop())
	w.env = projectile.Env{
		Space:         w.space,
		Clock:         w.clock,
		Effects:       w.effects,
		EffectCleanup: 3 * time.Second,
		Logger:        zap.NewNop(),
	}
	return w
}

func bolt(mutate func(*skill.Definition)) *skill.Definition {
	d := &skill.Definition{
		ID:              "bolt",
		Kind:            skill.KindProjectile,
		SetVelocity:     true,
		DestroyOnImpact: true,
		ImpactEffect:    "bolt_impact",
		Projectile: &skill.ProjectileStats{
			Damage: 100,
			Force:  10,
			Range:  20,
			Speed:  20,
			Radius: 0.25,
		},
	}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func TestArm_RejectsOtherKinds(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	err := p.Arm(&skill.Definition{ID: "hover", Kind: skill.KindHover, Hover: &skill.HoverStats{}})
	assert.ErrorIs(t, err, skill.ErrWrongKind)
	assert.Equal(t, projectile.Unarmed, p.Phase())
}

func TestArmed_IsInertAndRidesOnCaster(t *testing.T) {
	w := newWorld()
	c := newCaster("p")
	p := projectile.New(c, w.env)
	require.NoError(t, p.Arm(bolt(func(d *skill.Definition) {
		d.Projectile.Destructible = true
		d.Projectile.MaxHealth = 7
	})))
	assert.Equal(t, projectile.Armed, p.Phase())
	assert.Equal(t, 7.0, p.Health())
	assert.True(t, p.Body().Kinematic())
	assert.False(t, p.Body().ColliderEnabled())
	assert.Same(t, c.Body(), p.Body().Parent())
	assert.False(t, p.IsActive())
}

func TestShoot_RequiresArm(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	assert.ErrorIs(t, p.Shoot(geom.Vec3{X: 1}), projectile.ErrNotArmed)
}

func TestShoot_ActivatesAndDetaches(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	require.NoError(t, p.Arm(bolt(nil)))
	require.NoError(t, p.Shoot(geom.Vec3{X: 3}))
	assert.True(t, p.IsActive())
	assert.Nil(t, p.Body().Parent())
	assert.False(t, p.Body().Kinematic())
	assert.True(t, p.Body().ColliderEnabled())
	assert.Equal(t, geom.Vec3{X: 20}, p.Body().Velocity())
	assert.ErrorIs(t, p.Arm(bolt(nil)), projectile.ErrSpent)
}

func TestShoot_ImpulseComposesWithResidualMotion(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	require.NoError(t, p.Arm(bolt(func(d *skill.Definition) { d.SetVelocity = false })))
	p.Body().SetVelocity(geom.Vec3{Y: 2})
	require.NoError(t, p.Shoot(geom.Vec3{X: 1}))
	assert.Equal(t, geom.Vec3{X: 20, Y: 2}, p.Body().Velocity())
}

func TestUpdate_ExpiresPastRangeWithoutEffect(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	require.NoError(t, p.Arm(bolt(nil)))
	require.NoError(t, p.Shoot(geom.Vec3{X: 1}))

	w.space.Step(time.Second)
	p.Update()
	require.InDelta(t, 20.0, p.Travelled(), 1e-9)
	assert.Equal(t, projectile.Shooting, p.Phase(), "exactly at range is still in flight")

	w.space.Step(500 * time.Microsecond)
	require.InDelta(t, 20.01, p.Travelled(), 1e-9)
	p.Update()
	assert.Equal(t, projectile.Expired, p.Phase())
	assert.Equal(t, 0, w.effects.Spawned())
	assert.False(t, p.Body().InSpace())
}

func TestImpact_ChargedHitScalesDamage(t *testing.T) {
	w := newWorld()
	def := bolt(func(d *skill.Definition) {
		d.Cast = skill.CastCharge
		d.ChargeTime = skill.Duration(2 * time.Second)
	})
	ch := skill.NewCharge(def)
	ch.Start()
	ch.Update(time.Second)

	tgt := &target{id: "enemy"}
	tgt.body = physics.NewBody(tgt, 1)
	tgt.body.SetKinematic(true)
	tgt.body.SetPosition(geom.Vec3{X: 5})
	w.space.Add(tgt.body)

	p, err := projectile.Fire(projectile.FactoryFunc(func(c skill.Caster) *projectile.Component {
		return projectile.New(c, w.env)
	}), newCaster("p"), def, ch, geom.Vec3{X: 1})
	require.NoError(t, err)
	assert.False(t, ch.Charging(), "shooting stops the charge")

	for i := 0; i < 40 && len(tgt.hits) == 0; i++ {
		w.space.Step(10 * time.Millisecond)
	}
	require.Len(t, tgt.hits, 1)
	assert.Equal(t, 50, tgt.hits[0].Amount)
	assert.InDelta(t, 5.0, tgt.hits[0].Force, 1e-9)
	assert.Equal(t, "p", tgt.hits[0].Source)
	assert.Equal(t, projectile.Exploded, p.Phase())

	require.Equal(t, 1, w.effects.Live())
	w.clock.Advance(3*time.Second, 0)
	assert.Equal(t, 0, w.effects.Live(), "impact effect is cleaned up on unscaled time")
}

func TestImpact_NoEffectConfigured(t *testing.T) {
	w := newWorld()
	p := projectile.New(newCaster("p"), w.env)
	require.NoError(t, p.Arm(bolt(func(d *skill.Definition) { d.ImpactEffect = "" })))
	require.NoError(t, p.Shoot(geom.Vec3{X: 1}))
	p.Explode()
	p.Explode()
	assert.Equal(t, projectile.Exploded, p.Phase())
	assert.Equal(t, 0, w.effects.Spawned())
}

func TestDestructible_HealthDropsByDamageToSpellsPerHit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := rapid.IntRange(1, 100).Draw(rt, "health")
		v := rapid.IntRange(1, 10).Draw(rt, "damage")
		n := rapid.IntRange(0, 30).Draw(rt, "hits")

		w := newWorld()
		defender := projectile.New(newCaster("defender"), w.env)
		require.NoError(rt, defender.Arm(bolt(func(d *skill.Definition) {
			d.Projectile.Speed = 0
			d.Projectile.Destructible = true
			d.Projectile.MaxHealth = float64(h)
			d.DestroyOnImpact = false
		})))
		require.NoError(rt, defender.Shoot(geom.Vec3{X: 1}))

		attackers := newCaster("attacker")
		attackDef := bolt(func(d *skill.Definition) {
			d.Projectile.Damage = float64(v)
			d.Projectile.DamageToSpells = 1
			d.DestroyOnImpact = false
		})
		exploded := 0
		defender.OnDestroyed(func(*projectile.Component) { exploded++ })

		for i := 1; i <= n; i++ {
			a := projectile.New(attackers, w.env)
			require.NoError(rt, a.Arm(attackDef))
			require.NoError(rt, a.PlaceAt(defender.Body().Position()))
			w.space.Step(time.Millisecond)
			a.Release()

			want := float64(h - i*v)
			if want > 0 {
				require.Equal(rt, want, defender.Health())
				require.Equal(rt, projectile.Shooting, defender.Phase(), "never explodes early")
			} else {
				require.Equal(rt, projectile.Exploded, defender.Phase())
				break
			}
		}
		if h-n*v > 0 {
			assert.Equal(rt, 0, exploded)
		} else {
			assert.Equal(rt, 1, exploded)
		}
	})
}

func TestDamageToSpells_ScalesWithCharge(t *testing.T) {
	w := newWorld()
	def := bolt(func(d *skill.Definition) {
		d.Projectile.DamageToSpells = 0.5
		d.ChargeTime = skill.Duration(time.Second)
	})
	ch := skill.NewCharge(def)
	ch.Start()
	ch.Update(500 * time.Millisecond)
	p := projectile.New(newCaster("p"), w.env)
	require.NoError(t, p.Arm(def))
	p.SetCharge(ch)
	assert.InDelta(t, 25.0, p.DamageToSpells(), 1e-4)
}

func TestImpact_IgnoresOwnCaster(t *testing.T) {
	w := newWorld()
	c := newCaster("p")
	w.space.Add(c.Body())
	c.Body().SetKinematic(true)
	p := projectile.New(c, w.env)
	require.NoError(t, p.Arm(bolt(func(d *skill.Definition) { d.Projectile.Speed = 0 })))
	require.NoError(t, p.Shoot(geom.Vec3{X: 1}))
	w.space.Step(time.Millisecond)
	assert.Equal(t, projectile.Shooting, p.Phase())
}
