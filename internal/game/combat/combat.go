// Package combat defines the damage model shared by every actor: the Hit
// record delivered by skills, elements, and the clamped health Status.
package combat

import (
	"math"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
)

// Element is the elemental affinity of a hit.
type Element int

const (
	ElementNone Element = iota
	ElementFire
	ElementWater
	ElementEarth
	ElementAir
)

// String returns the element name used in content files.
func (e Element) String() string {
	switch e {
	case ElementNone:
		return "none"
	case ElementFire:
		return "fire"
	case ElementWater:
		return "water"
	case ElementEarth:
		return "earth"
	case ElementAir:
		return "air"
	default:
		return "unknown"
	}
}

// ParseElement maps a content name to an Element.
//
// Postcondition: Returns (ElementNone, false) for unknown names.
func ParseElement(s string) (Element, bool) {
	switch s {
	case "", "none":
		return ElementNone, true
	case "fire":
		return ElementFire, true
	case "water":
		return ElementWater, true
	case "earth":
		return ElementEarth, true
	case "air":
		return ElementAir, true
	default:
		return ElementNone, false
	}
}

// Hit is one application of damage and force to an actor.
type Hit struct {
	// Source is the ID of the actor credited with the hit; empty for the
	// environment.
	Source    string
	Amount    int
	Force     float64
	Point     geom.Vec3
	Direction geom.Vec3
	Element   Element
}

// Damageable is anything that can receive a Hit.
type Damageable interface {
	ID() string
	TakeDamage(hit Hit)
}

// Scaled returns base scaled by a charge fraction, rounded to the nearest
// integer. The fraction is clamped into [0, 1].
//
// Postcondition: 0 <= result <= base for base >= 0.
func Scaled(base float64, fraction float64) int {
	return int(math.Round(base * geom.Clamp01(fraction)))
}
