package skill

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
)

var curves = map[string]ease.TweenFunc{
	"":            ease.Linear,
	"linear":      ease.Linear,
	"in-quad":     ease.InQuad,
	"out-quad":    ease.OutQuad,
	"in-out-quad": ease.InOutQuad,
}

// Charge accumulates the charge fraction of a held cast from 0 to 1 over the
// definition's charge time.
//
// Invariant: 0 <= Fraction() <= 1.
type Charge struct {
	tween    *gween.Tween
	instant  bool
	current  float64
	charging bool
}

// NewCharge builds a Charge for def. A zero charge time charges instantly.
//
// Precondition: def must have passed Validate.
func NewCharge(def *Definition) *Charge {
	c := &Charge{}
	secs := float32(def.ChargeTime.Std().Seconds())
	if secs <= 0 {
		c.instant = true
		return c
	}
	c.tween = gween.New(0, 1, secs, curves[def.ChargeCurve])
	return c
}

// Start begins charging from zero.
func (c *Charge) Start() {
	c.charging = true
	if c.instant {
		c.current = 1
		return
	}
	c.tween.Reset()
	c.current = 0
}

// Update advances the charge by dt while charging.
func (c *Charge) Update(dt time.Duration) {
	if !c.charging || c.instant {
		return
	}
	v, _ := c.tween.Update(float32(dt.Seconds()))
	c.current = geom.Clamp01(float64(v))
}

// StopCharging freezes the fraction at its current value. Safe to call when
// not charging.
func (c *Charge) StopCharging() { c.charging = false }

// Charging reports whether the charge is still accumulating.
func (c *Charge) Charging() bool { return c.charging }

// Fraction returns the accumulated charge in [0, 1].
func (c *Charge) Fraction() float64 { return geom.Clamp01(c.current) }
