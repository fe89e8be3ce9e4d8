package game

import "math"

// Vec2 is a 2D point or vector in arena-local pixels.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / m, Y: v.Y / m}
}

func (v Vec2) LeftNormal() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Lerp interpolates from v to o by t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{X: v.X + (o.X-v.X)*t, Y: v.Y + (o.Y-v.Y)*t}
}

// Distance is the exact Euclidean distance. Reflection normals are derived
// from it, so no squared-distance shortcut.
func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ClosestPointOnSegment projects p onto [s1,s2], clamped to the segment.
// A degenerate segment collapses to s1.
func ClosestPointOnSegment(p, s1, s2 Vec2) Vec2 {
	seg := s2.Minus(s1)
	lenSq := seg.Dot(seg)
	if lenSq == 0 {
		return s1
	}
	t := p.Minus(s1).Dot(seg) / lenSq
	t = clamp01(t)
	return s1.Plus(seg.Times(t))
}

// IsNear is an axis-aligned box test, deliberately looser than a circle:
// corners of the box count as near. Placement pre-checks and obstacle tap
// targeting depend on that shape.
func IsNear(p Vec2, radius float64, q Vec2) bool {
	return math.Abs(p.X-q.X) < radius && math.Abs(p.Y-q.Y) < radius
}

// EaseOut is the 1-(1-t)^2 curve used by every glide animation.
func EaseOut(t float64) float64 {
	t = clamp01(t)
	return 1 - (1-t)*(1-t)
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
