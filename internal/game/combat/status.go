package combat

import "fmt"

// Status holds an actor's health.
//
// Invariant: 0 <= Health() <= MaxHealth().
type Status struct {
	health    int
	maxHealth int
}

// NewStatus returns a Status at full health.
//
// Precondition: maxHealth >= 1.
func NewStatus(maxHealth int) (*Status, error) {
	if maxHealth < 1 {
		return nil, fmt.Errorf("combat.NewStatus: max health must be >= 1, got %d", maxHealth)
	}
	return &Status{health: maxHealth, maxHealth: maxHealth}, nil
}

// Health returns current health.
func (s *Status) Health() int { return s.health }

// MaxHealth returns maximum health.
func (s *Status) MaxHealth() int { return s.maxHealth }

// Alive reports whether health is above zero.
func (s *Status) Alive() bool { return s.health > 0 }

// SetMaxHealth changes the maximum, clamping current health into range.
//
// Precondition: max >= 1; smaller values are raised to 1.
func (s *Status) SetMaxHealth(max int) {
	if max < 1 {
		max = 1
	}
	s.maxHealth = max
	s.health = clamp(s.health, 0, max)
}

// SetHealth assigns health clamped into [0, MaxHealth()].
func (s *Status) SetHealth(h int) {
	s.health = clamp(h, 0, s.maxHealth)
}

// Apply subtracts amount from health. Negative amounts heal.
//
// Postcondition: Health() == max(0, min(MaxHealth(), old-amount)).
// Returns true iff this call took health from above zero to zero.
func (s *Status) Apply(amount int) (lethal bool) {
	wasAlive := s.health > 0
	s.health = clamp(s.health-amount, 0, s.maxHealth)
	return wasAlive && s.health == 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
