package spawner

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/schedule"
)

// CampConfig is the resolved configuration of one camp.
//
// Invariant: Max >= 1; RespawnDelay == 0 means dead enemies are not replaced.
type CampConfig struct {
	ID        string
	Archetype string
	Home      geom.Vec3
	// LeashRadius is how far from Home an enemy may wander.
	LeashRadius  float64
	Max          int
	RespawnDelay time.Duration
}

// Validate checks the configuration.
func (c CampConfig) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("camp: id must not be empty")
	case c.Archetype == "":
		return fmt.Errorf("camp %q: archetype must not be empty", c.ID)
	case c.Max < 1:
		return fmt.Errorf("camp %q: max must be >= 1", c.ID)
	case c.LeashRadius <= 0:
		return fmt.Errorf("camp %q: leash_radius must be > 0", c.ID)
	case c.RespawnDelay < 0:
		return fmt.Errorf("camp %q: respawn_delay must not be negative", c.ID)
	}
	return nil
}

// SpawnFunc creates one enemy for camp and returns its ID.
type SpawnFunc func(camp *Camp) (string, error)

// Camp keeps up to Max enemies around its home position and replaces the
// dead after RespawnDelay.
//
// Camp is not safe for concurrent use; it runs on the simulation tick.
type Camp struct {
	cfg     CampConfig
	clock   *schedule.Scheduler
	spawn   SpawnFunc
	members map[string]struct{}
	pending map[*schedule.Timer]struct{}
	logger  *zap.Logger
}

// NewCamp creates an empty camp. Call Populate to fill it.
//
// Precondition: cfg must pass Validate; clock, spawn and logger must not be nil.
func NewCamp(cfg CampConfig, clock *schedule.Scheduler, spawn SpawnFunc, logger *zap.Logger) (*Camp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spawner.NewCamp: %w", err)
	}
	if clock == nil || spawn == nil || logger == nil {
		panic("spawner.NewCamp: clock, spawn and logger must not be nil")
	}
	return &Camp{
		cfg:     cfg,
		clock:   clock,
		spawn:   spawn,
		members: make(map[string]struct{}),
		pending: make(map[*schedule.Timer]struct{}),
		logger:  logger.Named("camp").With(zap.String("camp", cfg.ID)),
	}, nil
}

// ID returns the camp ID.
func (c *Camp) ID() string { return c.cfg.ID }

// Archetype returns the archetype the camp spawns.
func (c *Camp) Archetype() string { return c.cfg.Archetype }

// Home returns the leash centre.
func (c *Camp) Home() geom.Vec3 { return c.cfg.Home }

// LeashRadius returns the leash radius.
func (c *Camp) LeashRadius() float64 { return c.cfg.LeashRadius }

// Outside reports whether p is beyond the leash radius on the ground plane.
func (c *Camp) Outside(p geom.Vec3) bool {
	return geom.Distance(c.cfg.Home.Flat(), p.Flat()) > c.cfg.LeashRadius
}

// Populate spawns enemies until the camp holds Max. A failed spawn is logged
// and retried on the next Populate or respawn.
//
// Postcondition: Returns the number of enemies spawned.
func (c *Camp) Populate() int {
	spawned := 0
	for len(c.members) < c.cfg.Max {
		id, err := c.spawn(c)
		if err != nil {
			c.logger.Error("spawn failed", zap.Error(err))
			break
		}
		c.members[id] = struct{}{}
		spawned++
	}
	return spawned
}

// Members returns the IDs of the camp's living enemies, sorted.
func (c *Camp) Members() []string {
	out := make([]string, 0, len(c.members))
	for id := range c.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NotifyDeath detaches id from the camp and schedules its replacement.
//
// Postcondition: Returns true iff id was a member.
func (c *Camp) NotifyDeath(id string) bool {
	if _, ok := c.members[id]; !ok {
		return false
	}
	delete(c.members, id)
	if c.cfg.RespawnDelay <= 0 {
		return true
	}
	var t *schedule.Timer
	t = c.clock.After(c.cfg.RespawnDelay, func() {
		delete(c.pending, t)
		if n := c.Populate(); n > 0 {
			c.logger.Info("respawned", zap.Int("count", n))
		}
	})
	c.pending[t] = struct{}{}
	return true
}

// PendingRespawns returns the number of scheduled respawns.
func (c *Camp) PendingRespawns() int { return len(c.pending) }

// Close cancels every pending respawn.
func (c *Camp) Close() {
	for t := range c.pending {
		t.Stop()
	}
	clear(c.pending)
}
