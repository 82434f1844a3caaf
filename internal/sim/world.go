// Package sim assembles the combat core into a running world: it owns the
// clocks, the physics space, the player, the camps and their enemies, and
// advances them in a fixed order every tick.
package sim

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/config"
	"github.com/cory-johannsen/spellbound/internal/content"
	"github.com/cory-johannsen/spellbound/internal/game/combat"
	"github.com/cory-johannsen/spellbound/internal/game/dice"
	"github.com/cory-johannsen/spellbound/internal/game/enemy"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/input"
	"github.com/cory-johannsen/spellbound/internal/game/nav"
	"github.com/cory-johannsen/spellbound/internal/game/physics"
	"github.com/cory-johannsen/spellbound/internal/game/player"
	"github.com/cory-johannsen/spellbound/internal/game/projectile"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
	"github.com/cory-johannsen/spellbound/internal/game/sense"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/spawner"
	"github.com/cory-johannsen/spellbound/internal/game/vfx"
	"github.com/cory-johannsen/spellbound/internal/scripting"
)

// groundFriction is the share of horizontal speed a grounded player without
// movement input loses per second.
const groundFriction = 6.0

// slot is one live enemy and the services built for it.
type slot struct {
	e      *enemy.Enemy
	agent  *nav.Agent
	sensor *sense.Proximity
}

// World is the whole simulation. It is not safe for concurrent use; Loop
// serializes access to it.
type World struct {
	cfg     config.Config
	lib     *content.Library
	scripts enemy.ScriptCaller

	clock      *schedule.Scheduler
	space      *physics.Space
	input      *input.Dispatcher
	effects    *vfx.Tracker
	noise      *sense.NoiseBoard
	registry   *spawner.Registry
	strategies *enemy.Registry
	scatter    *dice.Scatter

	player      *player.Player
	camps       []*spawner.Camp
	enemies     map[string]*slot
	projectiles map[string]*projectile.Component

	timeScale float64
	menuOpen  bool
	ticks     uint64
	logger    *zap.Logger
}

// New builds the world: the player at the origin and every camp populated.
// scripts may be nil, in which case archetypes using the scripted idle
// strategy fail to spawn.
//
// Precondition: cfg must pass Validate; lib, src and logger must not be nil.
// Postcondition: Returns an error if the player's skills are unknown or a camp
// cannot be built.
func New(cfg config.Config, lib *content.Library, scripts enemy.ScriptCaller, src dice.Source, logger *zap.Logger) (*World, error) {
	if lib == nil || src == nil || logger == nil {
		panic("sim.New: lib, src and logger must not be nil")
	}
	logger = logger.Named("world")
	clock := schedule.New()
	w := &World{
		cfg:     cfg,
		lib:     lib,
		scripts: scripts,
		clock:   clock,
		space: physics.NewSpace(
			int(math.Ceil(cfg.Arena.Width)), int(math.Ceil(cfg.Arena.Depth)),
			cfg.Arena.CellSize, geom.Vec3{Y: cfg.Arena.Gravity},
		),
		input:       input.NewDispatcher(),
		effects:     vfx.NewTracker(clock, logger),
		noise:       sense.NewNoiseBoard(clock, cfg.Simulation.NoiseFalloff, logger),
		registry:    spawner.NewRegistry(logger),
		strategies:  enemy.DefaultRegistry(scripts),
		scatter:     dice.NewScatter(src, logger),
		enemies:     make(map[string]*slot),
		projectiles: make(map[string]*projectile.Component),
		timeScale:   1,
		logger:      logger,
	}
	if err := w.spawnPlayer(); err != nil {
		return nil, err
	}
	for _, cc := range lib.Camps() {
		camp, err := spawner.NewCamp(cc, clock, w.spawnEnemy, logger)
		if err != nil {
			return nil, fmt.Errorf("sim.New: %w", err)
		}
		w.camps = append(w.camps, camp)
	}
	for _, camp := range w.camps {
		n := camp.Populate()
		logger.Info("camp populated", zap.String("camp", camp.ID()), zap.Int("enemies", n))
	}
	return w, nil
}

func (w *World) spawnPlayer() error {
	primary, err := w.lib.Skill(w.cfg.Player.PrimarySkill)
	if err != nil {
		return fmt.Errorf("sim.New: player primary skill: %w", err)
	}
	var movement *skill.Definition
	if id := w.cfg.Player.MovementSkill; id != "" {
		if movement, err = w.lib.Skill(id); err != nil {
			return fmt.Errorf("sim.New: player movement skill: %w", err)
		}
	}
	p, err := player.New(player.Config{
		MaxHealth:       w.cfg.Player.MaxHealth,
		ForceResistance: w.cfg.Player.ForceResistance,
		Speed:           w.cfg.Player.Speed,
		Radius:          w.cfg.Player.Radius,
	}, primary, movement, player.Env{
		Input:          w.input,
		Clock:          w.clock,
		Projectiles:    w,
		Effects:        w.effects,
		Menu:           w,
		Time:           w,
		Noise:          w.noise,
		NoiseDuration:  w.cfg.Simulation.NoiseDuration,
		HoverGrace:     w.cfg.Simulation.HoverGrace,
		ReleaseCleanup: w.cfg.Simulation.ReleaseCleanup,
		Logger:         w.logger,
	})
	if err != nil {
		return fmt.Errorf("sim.New: %w", err)
	}
	p.Body().SetUseGravity(true)
	w.space.Add(p.Body())
	w.player = p
	return nil
}

// spawnEnemy is the SpawnFunc every camp uses.
func (w *World) spawnEnemy(camp *spawner.Camp) (string, error) {
	arch, ok := w.lib.Archetype(camp.Archetype())
	if !ok {
		return "", fmt.Errorf("sim.spawnEnemy: camp %q: %w", camp.ID(), content.ErrUnknownArchetype)
	}
	agent := nav.NewAgent(nil, w.cfg.Arena.Width, w.cfg.Arena.Depth, w.logger)
	sensor := sense.NewProximity(nil, w.noise, arch.SightRange)
	sensor.SetTarget(w.player)
	env := w.enemyEnv(camp)
	env.Nav = agent
	env.Sensor = sensor
	e, err := enemy.New(arch, env)
	if err != nil {
		return "", err
	}
	agent.Bind(e.Body())
	sensor.Bind(e.Body())
	e.Body().SetPosition(w.scatter.Around(camp.Home(), camp.LeashRadius()/2))
	if err := w.registry.Add(e); err != nil {
		e.Release()
		return "", err
	}
	w.space.Add(e.Body())
	w.enemies[e.ID()] = &slot{e: e, agent: agent, sensor: sensor}
	return e.ID(), nil
}

// enemyEnv returns the world services every enemy of camp runs on. Nav and
// Sensor are per enemy and left for the caller.
func (w *World) enemyEnv(camp *spawner.Camp) enemy.Env {
	env := enemy.Env{
		Registry:      w.registry,
		Strategies:    w.strategies,
		Clock:         w.clock,
		Logger:        w.logger,
		Scatter:       w.scatter,
		LeashInterval: w.cfg.Simulation.LeashInterval,
		LeashScatter:  w.cfg.Simulation.LeashScatter,
		Projectiles:   w,
		Target:        w.target,
	}
	if camp != nil {
		env.Camp = camp
	}
	return env
}

// target is what melee strikes land on.
func (w *World) target() combat.Damageable {
	if w.player == nil || !w.player.Alive() {
		return nil
	}
	return w.player
}

// NewProjectile implements projectile.Factory. The world tracks every
// projectile until it is destroyed.
func (w *World) NewProjectile(caster skill.Caster) *projectile.Component {
	p := projectile.New(caster, projectile.Env{
		Space:         w.space,
		Clock:         w.clock,
		Effects:       w.effects,
		EffectCleanup: w.cfg.Simulation.EffectCleanup,
		Logger:        w.logger,
	})
	w.projectiles[p.ID()] = p
	p.OnDestroyed(func(c *projectile.Component) { delete(w.projectiles, c.ID()) })
	return p
}

// SetTimeScale implements player.TimeScaler. Negative values are treated as 0.
func (w *World) SetTimeScale(scale float64) {
	w.timeScale = math.Max(0, scale)
	w.logger.Debug("time scale", zap.Float64("scale", w.timeScale))
}

// OpenMenu implements player.MenuUI.
func (w *World) OpenMenu(open bool) { w.menuOpen = open }

// Tick advances the world by dt of wall time. Order: input already
// dispatched, player, enemies, projectiles, navigation and physics, dead
// enemies removed, then timers. While the time scale is 0 only the player
// and the unscaled clock run.
func (w *World) Tick(dt time.Duration) {
	scaled := time.Duration(float64(dt) * w.timeScale)

	w.player.Update(scaled)
	if scaled > 0 {
		for _, id := range w.enemyIDs() {
			if s, ok := w.enemies[id]; ok {
				s.e.Update()
			}
		}
		for _, id := range w.projectileIDs() {
			if p, ok := w.projectiles[id]; ok {
				p.Update()
			}
		}
		for _, id := range w.enemyIDs() {
			w.enemies[id].agent.Step(scaled)
		}
		w.walkPlayer(scaled)
		w.space.Step(scaled)
		w.groundPlayer()
	}
	w.reap()
	w.clock.Advance(dt, w.timeScale)
	w.ticks++
}

// Dispatch forwards an input event to the player's current state.
func (w *World) Dispatch(ev input.Event) { w.input.Dispatch(ev) }

// Move sets the player's movement input on the ground plane.
func (w *World) Move(dir geom.Vec3) { w.player.SetMoveDirection(dir) }

func (w *World) walkPlayer(dt time.Duration) {
	b := w.player.Body()
	v := b.Velocity()
	dir := w.player.MoveDirection()
	if w.player.Alive() && !dir.IsZero() {
		flat := dir.Normalize().Scale(w.player.Speed())
		b.SetVelocity(geom.Vec3{X: flat.X, Y: v.Y, Z: flat.Z})
		return
	}
	if b.Position().Y <= 0 {
		k := math.Max(0, 1-groundFriction*dt.Seconds())
		b.SetVelocity(geom.Vec3{X: v.X * k, Y: v.Y, Z: v.Z * k})
	}
}

// groundPlayer keeps the player on or above the ground plane.
func (w *World) groundPlayer() {
	b := w.player.Body()
	pos := b.Position()
	if pos.Y >= 0 {
		return
	}
	b.SetPosition(geom.Vec3{X: pos.X, Z: pos.Z})
	if v := b.Velocity(); v.Y < 0 {
		b.SetVelocity(geom.Vec3{X: v.X, Z: v.Z})
	}
}

// reap removes enemies that have settled into Dead.
func (w *World) reap() {
	for _, id := range w.enemyIDs() {
		s := w.enemies[id]
		if _, dead := s.e.Machine().Current().(*enemy.Dead); !dead {
			continue
		}
		s.e.Release()
		w.space.Remove(s.e.Body())
		delete(w.enemies, id)
		w.logger.Debug("enemy removed", zap.String("enemy", id))
	}
}

func (w *World) enemyIDs() []string {
	ids := make([]string, 0, len(w.enemies))
	for id := range w.enemies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) projectileIDs() []string {
	ids := make([]string, 0, len(w.projectiles))
	for id := range w.projectiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Player returns the player.
func (w *World) Player() *player.Player { return w.player }

// Enemy returns the live enemy with id.
func (w *World) Enemy(id string) (*enemy.Enemy, bool) {
	s, ok := w.enemies[id]
	if !ok {
		return nil, false
	}
	return s.e, true
}

// Enemies returns the live enemies sorted by ID.
func (w *World) Enemies() []*enemy.Enemy {
	out := make([]*enemy.Enemy, 0, len(w.enemies))
	for _, id := range w.enemyIDs() {
		out = append(out, w.enemies[id].e)
	}
	return out
}

// Camps returns the camps in ID order.
func (w *World) Camps() []*spawner.Camp { return w.camps }

// Projectiles returns the number of live projectiles.
func (w *World) Projectiles() int { return len(w.projectiles) }

// Effects returns the effect tracker.
func (w *World) Effects() *vfx.Tracker { return w.effects }

// Registry returns the enemy registry.
func (w *World) Registry() *spawner.Registry { return w.registry }

// Clock returns the world scheduler.
func (w *World) Clock() *schedule.Scheduler { return w.clock }

// TimeScale returns the current time scale.
func (w *World) TimeScale() float64 { return w.timeScale }

// MenuOpen reports whether the menu is showing.
func (w *World) MenuOpen() bool { return w.menuOpen }

// Ticks returns the number of ticks run.
func (w *World) Ticks() uint64 { return w.ticks }

// EnemyInfo snapshots an enemy for Lua. It returns nil for unknown IDs.
func (w *World) EnemyInfo(id string) *scripting.EnemyInfo {
	s, ok := w.enemies[id]
	if !ok {
		return nil
	}
	st := s.e.Status()
	state := "none"
	if cur := s.e.Machine().Current(); cur != nil {
		state = cur.Name()
	}
	return &scripting.EnemyInfo{
		ID:        id,
		Archetype: s.e.Archetype().ID,
		Health:    st.Health(),
		MaxHealth: st.MaxHealth(),
		State:     state,
	}
}

// Close cancels every camp respawn and releases every actor.
func (w *World) Close() {
	for _, c := range w.camps {
		c.Close()
	}
	for _, id := range w.enemyIDs() {
		w.enemies[id].e.Release()
	}
	for _, id := range w.projectileIDs() {
		w.projectiles[id].Release()
	}
	w.player.Release()
}
