package skill

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CastType is how the input drives a skill.
type CastType int

const (
	// CastInstant applies the cooldown and fires immediately.
	CastInstant CastType = iota
	// CastCharge fires on release; the held time scales the effect.
	CastCharge
	// CastHold fires repeatedly while held; cooldown starts on release.
	CastHold
	// CastSpawn places the skill's object on release.
	CastSpawn
)

var castNames = map[CastType]string{
	CastInstant: "instant",
	CastCharge:  "charge",
	CastHold:    "hold",
	CastSpawn:   "spawn",
}

// String returns the content name of the cast type.
func (c CastType) String() string {
	if s, ok := castNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseCastType maps a content name to a CastType. Empty means instant.
func ParseCastType(s string) (CastType, error) {
	if s == "" {
		return CastInstant, nil
	}
	for c, name := range castNames {
		if name == s {
			return c, nil
		}
	}
	return CastInstant, fmt.Errorf("unknown cast type %q", s)
}

// UnmarshalYAML decodes a cast type name.
func (c *CastType) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCastType(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
