package physics

import (
	"time"

	"github.com/solarlune/resolv"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
)

// Space simulates a set of bodies. The world origin sits at the centre of a
// width x depth ground rectangle; bodies outside it still move but never
// produce contacts.
//
// Space is not safe for concurrent use.
type Space struct {
	grid      *resolv.Space
	bodies    []*Body
	gravity   geom.Vec3
	halfWidth float64
	halfDepth float64
}

// NewSpace creates an empty space.
//
// Precondition: width, depth and cellSize must be > 0.
func NewSpace(width, depth, cellSize int, gravity geom.Vec3) *Space {
	if width <= 0 || depth <= 0 || cellSize <= 0 {
		panic("physics.NewSpace: dimensions must be > 0")
	}
	return &Space{
		grid:      resolv.NewSpace(width, depth, cellSize, cellSize),
		gravity:   gravity,
		halfWidth: float64(width) / 2,
		halfDepth: float64(depth) / 2,
	}
}

// Add registers b. Adding a body twice is a no-op.
func (s *Space) Add(b *Body) {
	if b.space == s {
		return
	}
	b.space = s
	s.grid.Add(b.obj)
	s.bodies = append(s.bodies, b)
	b.sync()
}

// Remove unregisters b. Removing an unknown body is a no-op.
func (s *Space) Remove(b *Body) {
	if b.space != s {
		return
	}
	s.grid.Remove(b.obj)
	b.space = nil
	clear(b.touching)
	for i, o := range s.bodies {
		if o == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			break
		}
	}
	for _, o := range s.bodies {
		delete(o.touching, b)
	}
}

// Len returns the number of registered bodies.
func (s *Space) Len() int { return len(s.bodies) }

// Step integrates dynamic bodies over dt, moves parented bodies with their
// parents, then dispatches begin-contact callbacks.
//
// Postcondition: every handler installed with OnContact has been called once
// for each collider that started overlapping its body during this step.
func (s *Space) Step(dt time.Duration) {
	secs := dt.Seconds()
	bodies := append([]*Body(nil), s.bodies...)

	for _, b := range bodies {
		if b.parent != nil || b.kinematic {
			continue
		}
		a := b.accel
		if b.gravity {
			a = a.Add(s.gravity)
		}
		b.velocity = b.velocity.Add(a.Scale(secs))
		b.position = b.position.Add(b.velocity.Scale(secs))
		b.accel = geom.Zero
		b.sync()
	}
	for _, b := range bodies {
		if b.parent != nil {
			b.position = b.parent.position.Add(b.offset)
			b.sync()
		}
	}

	type contact struct{ self, other *Body }
	var begun []contact
	for _, b := range bodies {
		if b.space != s || b.onContact == nil || !b.collider {
			continue
		}
		for _, other := range s.detect(b) {
			begun = append(begun, contact{b, other})
		}
	}
	// Contacts that begin in the same step are simultaneous: a handler that
	// removes its own body does not hide it from the other party.
	for _, c := range begun {
		if c.self.space != s || !c.self.collider {
			continue
		}
		c.self.onContact(c.other)
	}
}

func (s *Space) detect(b *Body) []*Body {
	current := make(map[*Body]struct{})
	var begun []*Body
	if check := b.obj.Check(0, 0); check != nil {
		for _, obj := range check.Objects {
			other, ok := obj.Data.(*Body)
			if !ok || other == b || !other.collider || other.space != s {
				continue
			}
			if !b.overlaps(other) {
				continue
			}
			current[other] = struct{}{}
			if _, was := b.touching[other]; !was {
				begun = append(begun, other)
			}
		}
	}
	b.touching = current
	return begun
}
