package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/content"
	"github.com/cory-johannsen/spellbound/internal/game/enemy"
)

// ScriptLoader reloads one Lua scope from a directory.
type ScriptLoader interface {
	LoadScope(scope, dir string) error
}

// Reload applies a changed content file. A Lua file reloads the enemy script
// scope from its directory. A YAML file in the enemies directory replaces
// that archetype in the library and in every live enemy built from it. Other
// paths are ignored.
//
// Postcondition: an archetype whose states cannot be built is rejected
// before the library changes; the library and every enemy keep the previous
// one.
func (w *World) Reload(path string) error {
	switch {
	case filepath.Ext(path) == ".lua":
		loader, ok := w.scripts.(ScriptLoader)
		if !ok {
			return nil
		}
		if err := loader.LoadScope(enemy.ScriptScope, filepath.Dir(path)); err != nil {
			return fmt.Errorf("sim.Reload: %w", err)
		}
		w.logger.Info("scripts reloaded", zap.String("path", path))
		return nil
	case sameDir(path, w.cfg.Content.EnemiesDir):
		return w.reloadArchetype(path)
	default:
		return nil
	}
}

func (w *World) reloadArchetype(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Info("archetype file removed; live enemies keep it", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("sim.Reload: reading %q: %w", path, err)
	}
	a, err := content.LoadArchetypeFromBytes(data)
	if err != nil {
		return fmt.Errorf("sim.Reload: loading %q: %w", path, err)
	}
	if err := w.lib.Resolve(a); err != nil {
		return fmt.Errorf("sim.Reload: %w", err)
	}
	if err := enemy.CheckArchetype(a, w.enemyEnv(nil)); err != nil {
		return fmt.Errorf("sim.Reload: %w", err)
	}
	if err := w.lib.Replace(a); err != nil {
		return fmt.Errorf("sim.Reload: %w", err)
	}

	var errs []error
	applied := 0
	for _, e := range w.Enemies() {
		if e.Archetype().ID != a.ID {
			continue
		}
		if err := e.SetArchetype(a); err != nil {
			errs = append(errs, fmt.Errorf("enemy %s: %w", e.ID(), err))
			continue
		}
		applied++
	}
	w.logger.Info("archetype reloaded",
		zap.String("archetype", a.ID),
		zap.Int("enemies", applied),
	)
	return errors.Join(errs...)
}

func sameDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	a, err1 := filepath.Abs(filepath.Dir(path))
	b, err2 := filepath.Abs(dir)
	return err1 == nil && err2 == nil && a == b
}
