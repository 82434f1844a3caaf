// Package content loads the static game data the simulation runs on: skill
// definitions, enemy archetypes and camps, each authored as one YAML document
// per file.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/spellbound/internal/game/enemy"
	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/spawner"
)

// LoadSkillFromBytes parses a single skill definition from raw YAML bytes.
//
// Postcondition: Returns a validated *skill.Definition, or an error.
func LoadSkillFromBytes(data []byte) (*skill.Definition, error) {
	var def skill.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing skill YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadArchetypeFromBytes parses a single enemy archetype from raw YAML bytes.
// The skill reference is left unresolved.
//
// Postcondition: Returns a validated *enemy.Archetype, or an error.
func LoadArchetypeFromBytes(data []byte) (*enemy.Archetype, error) {
	var a enemy.Archetype
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing archetype YAML: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// campFile is the YAML shape of one camp.
type campFile struct {
	ID           string         `yaml:"id"`
	Archetype    string         `yaml:"archetype"`
	Home         geom.Vec3      `yaml:"home"`
	LeashRadius  float64        `yaml:"leash_radius"`
	Max          int            `yaml:"max"`
	RespawnDelay skill.Duration `yaml:"respawn_delay"`
}

// LoadCampFromBytes parses a single camp from raw YAML bytes.
//
// Postcondition: Returns a validated spawner.CampConfig, or an error.
func LoadCampFromBytes(data []byte) (spawner.CampConfig, error) {
	var f campFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return spawner.CampConfig{}, fmt.Errorf("parsing camp YAML: %w", err)
	}
	cfg := spawner.CampConfig{
		ID:           f.ID,
		Archetype:    f.Archetype,
		Home:         f.Home,
		LeashRadius:  f.LeashRadius,
		Max:          f.Max,
		RespawnDelay: f.RespawnDelay.Std(),
	}
	if err := cfg.Validate(); err != nil {
		return spawner.CampConfig{}, err
	}
	return cfg, nil
}

// LoadSkills reads all *.yaml files in dir and returns the parsed skills.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all skills or an error on the first failure.
func LoadSkills(dir string) ([]*skill.Definition, error) {
	return loadDir(dir, "skill", LoadSkillFromBytes)
}

// LoadArchetypes reads all *.yaml files in dir and returns the parsed
// archetypes.
func LoadArchetypes(dir string) ([]*enemy.Archetype, error) {
	return loadDir(dir, "enemy", LoadArchetypeFromBytes)
}

// LoadCamps reads all *.yaml files in dir and returns the parsed camps.
func LoadCamps(dir string) ([]spawner.CampConfig, error) {
	return loadDir(dir, "camp", LoadCampFromBytes)
}

func loadDir[T any](dir, kind string, parse func([]byte) (T, error)) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s dir %q: %w", kind, dir, err)
	}
	var out []T
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		v, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
