// Package config provides Viper-based configuration loading for the simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the timing knobs of the world loop and its skills.
type SimulationConfig struct {
	// TickRate is the wall-clock period between world ticks.
	TickRate time.Duration `mapstructure:"tick_rate"`
	// MaxFrameTime caps the simulated step after a stall.
	MaxFrameTime time.Duration `mapstructure:"max_frame_time"`
	// HoverGrace is how long a released hover keeps pushing before it stops.
	HoverGrace time.Duration `mapstructure:"hover_grace"`
	// EffectCleanup is the unscaled delay before impact effects are destroyed.
	EffectCleanup time.Duration `mapstructure:"effect_cleanup"`
	// ReleaseCleanup is the unscaled delay before released skill effects are destroyed.
	ReleaseCleanup time.Duration `mapstructure:"release_cleanup"`
	// LeashInterval is the scaled period between leash checks.
	LeashInterval time.Duration `mapstructure:"leash_interval"`
	// LeashScatter is the radius of the random return point around a camp home.
	LeashScatter float64 `mapstructure:"leash_scatter"`
	// NoiseDuration is how long a cast's noise stays audible.
	NoiseDuration time.Duration `mapstructure:"noise_duration"`
	// NoiseFalloff is the loudness lost per unit of distance.
	NoiseFalloff float64 `mapstructure:"noise_falloff"`
	// Seed pins the random source; zero selects the crypto source.
	Seed uint64 `mapstructure:"seed"`
}

// ArenaConfig describes the simulated ground plane.
type ArenaConfig struct {
	Width    float64 `mapstructure:"width"`
	Depth    float64 `mapstructure:"depth"`
	CellSize int     `mapstructure:"cell_size"`
	// Gravity is the vertical acceleration applied to dynamic bodies.
	Gravity float64 `mapstructure:"gravity"`
}

// ContentConfig locates the YAML and Lua content.
type ContentConfig struct {
	SkillsDir  string `mapstructure:"skills_dir"`
	EnemiesDir string `mapstructure:"enemies_dir"`
	CampsDir   string `mapstructure:"camps_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Watch enables hot reload of enemy archetypes and scripts.
	Watch bool `mapstructure:"watch"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// PlayerConfig holds the player's stats and equipped skills.
type PlayerConfig struct {
	MaxHealth       int     `mapstructure:"max_health"`
	ForceResistance float64 `mapstructure:"force_resistance"`
	Speed           float64 `mapstructure:"speed"`
	Radius          float64 `mapstructure:"radius"`
	PrimarySkill    string  `mapstructure:"primary_skill"`
	MovementSkill   string  `mapstructure:"movement_skill"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Arena      ArenaConfig      `mapstructure:"arena"`
	Content    ContentConfig    `mapstructure:"content"`
	Player     PlayerConfig     `mapstructure:"player"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateArena(c.Arena),
		validateContent(c.Content),
		validatePlayer(c.Player),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRate <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate must be > 0, got %s", s.TickRate))
	}
	if s.MaxFrameTime < s.TickRate {
		errs = append(errs, "simulation.max_frame_time must be >= simulation.tick_rate")
	}
	for name, d := range map[string]time.Duration{
		"hover_grace":     s.HoverGrace,
		"effect_cleanup":  s.EffectCleanup,
		"release_cleanup": s.ReleaseCleanup,
		"noise_duration":  s.NoiseDuration,
	} {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("simulation.%s must not be negative", name))
		}
	}
	if s.LeashInterval <= 0 {
		errs = append(errs, "simulation.leash_interval must be > 0")
	}
	if s.LeashScatter < 0 || s.NoiseFalloff < 0 {
		errs = append(errs, "simulation.leash_scatter and simulation.noise_falloff must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.Width <= 0 || a.Depth <= 0 {
		errs = append(errs, fmt.Sprintf("arena.width and arena.depth must be > 0, got %gx%g", a.Width, a.Depth))
	}
	if a.CellSize < 1 {
		errs = append(errs, fmt.Sprintf("arena.cell_size must be >= 1, got %d", a.CellSize))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	for name, dir := range map[string]string{
		"skills_dir":  c.SkillsDir,
		"enemies_dir": c.EnemiesDir,
		"camps_dir":   c.CampsDir,
	} {
		if dir == "" {
			errs = append(errs, fmt.Sprintf("content.%s must not be empty", name))
		}
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, "content.instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validatePlayer(p PlayerConfig) error {
	var errs []string
	if p.MaxHealth < 1 {
		errs = append(errs, fmt.Sprintf("player.max_health must be >= 1, got %d", p.MaxHealth))
	}
	if p.ForceResistance < 0 || p.Speed < 0 {
		errs = append(errs, "player.force_resistance and player.speed must not be negative")
	}
	if p.Radius <= 0 {
		errs = append(errs, "player.radius must be > 0")
	}
	if p.PrimarySkill == "" {
		errs = append(errs, "player.primary_skill must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SPELLBOUND_ prefix
	v.SetEnvPrefix("SPELLBOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_rate", "16ms")
	v.SetDefault("simulation.max_frame_time", "100ms")
	v.SetDefault("simulation.hover_grace", "150ms")
	v.SetDefault("simulation.effect_cleanup", "3s")
	v.SetDefault("simulation.release_cleanup", "1.5s")
	v.SetDefault("simulation.leash_interval", "1s")
	v.SetDefault("simulation.leash_scatter", 3.0)
	v.SetDefault("simulation.noise_duration", "500ms")
	v.SetDefault("simulation.noise_falloff", 1.0)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("arena.width", 200.0)
	v.SetDefault("arena.depth", 200.0)
	v.SetDefault("arena.cell_size", 4)
	v.SetDefault("arena.gravity", -9.81)

	v.SetDefault("content.skills_dir", "content/skills")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.camps_dir", "content/camps")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.watch", false)
	v.SetDefault("content.instruction_limit", 0)

	v.SetDefault("player.max_health", 100)
	v.SetDefault("player.force_resistance", 5.0)
	v.SetDefault("player.speed", 6.0)
	v.SetDefault("player.radius", 0.5)
	v.SetDefault("player.primary_skill", "firebolt")
	v.SetDefault("player.movement_skill", "hover")
}
