// Package geom provides the small amount of 3-D vector math the combat core
// needs: positions, directions and distances on a Y-up world.
package geom

import "math"

// Vec3 is a point or direction in world space. Y is up; X and Z span the
// ground plane.
type Vec3 struct {
	X, Y, Z float64
}

// Zero is the origin.
var Zero = Vec3{}

// Up is the world up axis.
var Up = Vec3{Y: 1}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or Zero when v has no length.
//
// Postcondition: result.Len() is 1 or 0.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Zero
	}
	return v.Scale(1 / l)
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// IsZero reports whether every component is zero.
func (v Vec3) IsZero() bool { return v == Zero }

// Distance returns |a-b|.
func Distance(a, b Vec3) float64 { return a.Sub(b).Len() }

// MoveTowards steps from toward to by at most maxStep without overshooting.
//
// Precondition: maxStep >= 0.
// Postcondition: Distance(result, to) == max(0, Distance(from, to)-maxStep).
func MoveTowards(from, to Vec3, maxStep float64) Vec3 {
	delta := to.Sub(from)
	d := delta.Len()
	if d <= maxStep || d == 0 {
		return to
	}
	return from.Add(delta.Scale(maxStep / d))
}

// Clamp01 clamps f into [0, 1]. NaN maps to 0.
func Clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
