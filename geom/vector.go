// Package geom provides the vector and rotation primitives shared by grids,
// mappings and field expressions.
package geom

import "math"

// Vector3d represents a vector (or a point) in 3-dimensional space.
type Vector3d struct {
	X float64
	Y float64
	Z float64
}

// Zero is the zero vector.
var Zero = Vector3d{}

// Vec returns the vector (x, y, z).
func Vec(x, y, z float64) Vector3d {
	return Vector3d{X: x, Y: y, Z: z}
}

// Add returns the sum of vectors a and b.
func (a Vector3d) Add(b Vector3d) Vector3d {
	return Vector3d{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// Sub returns the difference of vectors a and b.
func (a Vector3d) Sub(b Vector3d) Vector3d {
	return Vector3d{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Scale returns the vector a multiplied by the scalar s.
func (a Vector3d) Scale(s float64) Vector3d {
	return Vector3d{X: s * a.X, Y: s * a.Y, Z: s * a.Z}
}

// Mul returns the componentwise product of a and b.
func (a Vector3d) Mul(b Vector3d) Vector3d {
	return Vector3d{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// Div returns the componentwise quotient of a and b.
func (a Vector3d) Div(b Vector3d) Vector3d {
	return Vector3d{X: a.X / b.X, Y: a.Y / b.Y, Z: a.Z / b.Z}
}

// Dot returns the dot product of the vectors a and b.
func (a Vector3d) Dot(b Vector3d) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product of the vectors a and b.
func (a Vector3d) Cross(b Vector3d) Vector3d {
	return Vector3d{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}

// Norm returns the length of the vector a.
func (a Vector3d) Norm() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Norm2 returns the squared length of the vector a.
func (a Vector3d) Norm2() float64 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Normalized returns a unit vector parallel to a. The zero vector is returned unchanged.
func (a Vector3d) Normalized() Vector3d {
	n := a.Norm()
	if n == 0 {
		return a
	}
	return a.Scale(1 / n)
}

// Component returns the coordinate of a along axis.
func (a Vector3d) Component(axis Axis) float64 {
	switch axis {
	case X:
		return a.X
	case Y:
		return a.Y
	default:
		return a.Z
	}
}

// With returns a copy of a whose coordinate along axis is replaced by v.
func (a Vector3d) With(axis Axis, v float64) Vector3d {
	switch axis {
	case X:
		a.X = v
	case Y:
		a.Y = v
	default:
		a.Z = v
	}
	return a
}

// IsZero reports whether all components are exactly zero.
func (a Vector3d) IsZero() bool {
	return a.X == 0 && a.Y == 0 && a.Z == 0
}

// ApproxEqual reports whether every component of a and b differs by at most tol.
func (a Vector3d) ApproxEqual(b Vector3d, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// Array returns the components as an array indexed by Axis.
func (a Vector3d) Array() [3]float64 {
	return [3]float64{a.X, a.Y, a.Z}
}

// FromArray builds a vector from an array indexed by Axis.
func FromArray(v [3]float64) Vector3d {
	return Vector3d{X: v[0], Y: v[1], Z: v[2]}
}
