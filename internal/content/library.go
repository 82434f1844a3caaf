package content

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/spellbound/internal/game/enemy"
	"github.com/cory-johannsen/spellbound/internal/game/skill"
	"github.com/cory-johannsen/spellbound/internal/game/spawner"
)

// ErrUnknownSkill is returned when content references a skill ID that was
// not loaded.
var ErrUnknownSkill = errors.New("content: unknown skill")

// ErrUnknownArchetype is returned when a camp references an archetype that
// was not loaded.
var ErrUnknownArchetype = errors.New("content: unknown archetype")

// Dirs locates each kind of content.
type Dirs struct {
	Skills  string
	Enemies string
	Camps   string
}

// Library is the resolved, immutable content set.
type Library struct {
	skills     map[string]*skill.Definition
	archetypes map[string]*enemy.Archetype
	camps      []spawner.CampConfig
}

// Load reads every content directory and resolves cross references.
//
// Postcondition: every archetype's Skill is set when SkillID is non-empty,
// and every camp names a loaded archetype.
func Load(d Dirs) (*Library, error) {
	skills, err := LoadSkills(d.Skills)
	if err != nil {
		return nil, err
	}
	archetypes, err := LoadArchetypes(d.Enemies)
	if err != nil {
		return nil, err
	}
	camps, err := LoadCamps(d.Camps)
	if err != nil {
		return nil, err
	}
	return NewLibrary(skills, archetypes, camps)
}

// NewLibrary indexes already parsed content and resolves references.
//
// Postcondition: Returns an error on duplicate IDs or dangling references.
func NewLibrary(skills []*skill.Definition, archetypes []*enemy.Archetype, camps []spawner.CampConfig) (*Library, error) {
	l := &Library{
		skills:     make(map[string]*skill.Definition, len(skills)),
		archetypes: make(map[string]*enemy.Archetype, len(archetypes)),
	}
	for _, s := range skills {
		if _, dup := l.skills[s.ID]; dup {
			return nil, fmt.Errorf("content: duplicate skill %q", s.ID)
		}
		l.skills[s.ID] = s
	}
	for _, a := range archetypes {
		if _, dup := l.archetypes[a.ID]; dup {
			return nil, fmt.Errorf("content: duplicate archetype %q", a.ID)
		}
		if err := l.Resolve(a); err != nil {
			return nil, err
		}
		l.archetypes[a.ID] = a
	}
	seen := make(map[string]bool, len(camps))
	for _, c := range camps {
		if seen[c.ID] {
			return nil, fmt.Errorf("content: duplicate camp %q", c.ID)
		}
		seen[c.ID] = true
		if _, ok := l.archetypes[c.Archetype]; !ok {
			return nil, fmt.Errorf("camp %q archetype %q: %w", c.ID, c.Archetype, ErrUnknownArchetype)
		}
	}
	l.camps = append(l.camps, camps...)
	sort.Slice(l.camps, func(i, j int) bool { return l.camps[i].ID < l.camps[j].ID })
	return l, nil
}

// Resolve binds a.SkillID to a loaded skill definition.
func (l *Library) Resolve(a *enemy.Archetype) error {
	if a.SkillID == "" {
		a.Skill = nil
		return nil
	}
	def, ok := l.skills[a.SkillID]
	if !ok {
		return fmt.Errorf("archetype %q skill %q: %w", a.ID, a.SkillID, ErrUnknownSkill)
	}
	a.Skill = def
	return nil
}

// Skill returns the skill with id.
func (l *Library) Skill(id string) (*skill.Definition, error) {
	def, ok := l.skills[id]
	if !ok {
		return nil, fmt.Errorf("skill %q: %w", id, ErrUnknownSkill)
	}
	return def, nil
}

// Archetype returns the archetype with id.
func (l *Library) Archetype(id string) (*enemy.Archetype, bool) {
	a, ok := l.archetypes[id]
	return a, ok
}

// Camps returns every camp sorted by ID.
func (l *Library) Camps() []spawner.CampConfig {
	return append([]spawner.CampConfig(nil), l.camps...)
}

// SkillCount returns the number of loaded skills.
func (l *Library) SkillCount() int { return len(l.skills) }

// ArchetypeCount returns the number of loaded archetypes.
func (l *Library) ArchetypeCount() int { return len(l.archetypes) }

// Replace resolves a and stores it in place of any archetype with the same ID.
// The library is unchanged on error.
func (l *Library) Replace(a *enemy.Archetype) error {
	if err := l.Resolve(a); err != nil {
		return err
	}
	l.archetypes[a.ID] = a
	return nil
}
