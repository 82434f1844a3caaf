// Package main runs the combat simulation headless. The world ticks on a
// fixed interval while player commands arrive on stdin.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/config"
	"github.com/cory-johannsen/spellbound/internal/content"
	"github.com/cory-johannsen/spellbound/internal/game/dice"
	"github.com/cory-johannsen/spellbound/internal/game/enemy"
	"github.com/cory-johannsen/spellbound/internal/observability"
	"github.com/cory-johannsen/spellbound/internal/scripting"
	"github.com/cory-johannsen/spellbound/internal/server"
	"github.com/cory-johannsen/spellbound/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	console := flag.Bool("console", true, "read player commands from stdin")
	statusEvery := flag.Duration("status", 5*time.Second, "interval between status log lines; 0 disables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
		logger.Info("using seeded random source", zap.Uint64("seed", cfg.Simulation.Seed))
	} else {
		src = dice.NewCryptoSource()
	}

	contentStart := time.Now()
	lib, err := content.Load(content.Dirs{
		Skills:  cfg.Content.SkillsDir,
		Enemies: cfg.Content.EnemiesDir,
		Camps:   cfg.Content.CampsDir,
	})
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("skills", lib.SkillCount()),
		zap.Int("archetypes", lib.ArchetypeCount()),
		zap.Int("camps", len(lib.Camps())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	var mgr *scripting.Manager
	var scripts enemy.ScriptCaller
	if cfg.Content.ScriptsDir != "" {
		mgr = scripting.NewManager(src, logger, cfg.Content.InstructionLimit)
		if err := mgr.LoadScope(enemy.ScriptScope, cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading enemy scripts", zap.Error(err))
		}
		scripts = mgr
	}

	world, err := sim.New(cfg, lib, scripts, src, logger)
	if err != nil {
		logger.Fatal("creating world", zap.Error(err))
	}
	if mgr != nil {
		mgr.GetEnemy = world.EnemyInfo
	}

	loop := sim.NewLoop(world, cfg.Simulation.TickRate, cfg.Simulation.MaxFrameTime, logger)
	if *statusEvery > 0 {
		every := uint64(max(1, *statusEvery/cfg.Simulation.TickRate))
		loop.OnTick(func(w *sim.World) {
			if w.Ticks()%every != 0 {
				return
			}
			p := w.Player()
			logger.Info("status",
				zap.Uint64("tick", w.Ticks()),
				zap.Int("player_health", p.Status().Health()),
				zap.String("player_state", p.Machine().Current().Name()),
				zap.Int("enemies", len(w.Enemies())),
				zap.Int("projectiles", w.Projectiles()),
				zap.Float64("time_scale", w.TimeScale()),
			)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle := server.NewLifecycle(logger)

	loopCtx, stopLoop := context.WithCancel(ctx)
	lifecycle.Add("sim-loop", &server.FuncService{
		StartFn: func() error {
			loop.Start(loopCtx)
			<-loop.Done()
			return nil
		},
		StopFn: stopLoop,
	})

	if cfg.Content.Watch {
		dirs := []string{cfg.Content.EnemiesDir}
		if cfg.Content.ScriptsDir != "" {
			dirs = append(dirs, cfg.Content.ScriptsDir)
		}
		watcher, err := content.NewWatcher(logger, dirs...)
		if err != nil {
			logger.Fatal("watching content", zap.Error(err))
		}
		lifecycle.Add("content-watcher", &server.FuncService{
			StartFn: func() error {
				for path := range watcher.Events() {
					err := loop.Submit(ctx, func(w *sim.World) {
						if err := w.Reload(path); err != nil {
							logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
						}
					})
					if err != nil {
						return nil
					}
				}
				return nil
			},
			StopFn: func() { _ = watcher.Close() },
		})
	}

	if *console {
		consoleCtx, stopConsole := context.WithCancel(ctx)
		lifecycle.Add("console", &server.FuncService{
			StartFn: func() error { return runConsole(consoleCtx, os.Stdin, loop, logger) },
			StopFn:  stopConsole,
		})
	}

	logger.Info("simulation ready",
		zap.Duration("tick_rate", cfg.Simulation.TickRate),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("lifecycle error", zap.Error(err))
	}
	if mgr != nil {
		mgr.Close()
	}
}
