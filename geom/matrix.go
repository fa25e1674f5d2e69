package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix3 is a 3x3 matrix acting on column vectors, indexed [row][column].
// It is used for the orientation part of coordinate mappings.
type Matrix3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// RotationAbout returns the matrix rotating vectors by angle radians about
// axis according to the right-hand rule.
func RotationAbout(axis Axis, angle float64) Matrix3 {
	var m Matrix3
	a1 := axis.Next()
	a2 := a1.Next()
	sin, cos := math.Sincos(angle)
	m[a1][a1] = cos
	m[a1][a2] = -sin
	m[a2][a1] = sin
	m[a2][a2] = cos
	m[axis][axis] = 1
	return m
}

// RotationBetween returns the smallest rotation carrying the unit vector
// from onto the unit vector to (Rodrigues' formula). For opposite vectors
// it turns by π about an axis perpendicular to from.
func RotationBetween(from, to Vector3d) Matrix3 {
	v := from.Cross(to)
	c := from.Dot(to)
	if c < -1+1e-12 {
		u := from.Cross(Vec(1, 0, 0))
		if u.Norm2() < 1e-12 {
			u = from.Cross(Vec(0, 1, 0))
		}
		u = u.Normalized()
		uu := [3]float64{u.X, u.Y, u.Z}
		var r Matrix3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r[i][j] = 2 * uu[i] * uu[j]
			}
			r[i][i] -= 1
		}
		return r
	}
	vv := [3]float64{v.X, v.Y, v.Z}
	k := Matrix3{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
	f := 1 / (1 + c)
	r := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] += k[i][j] + f*vv[i]*vv[j]
		}
		r[i][i] -= f * v.Norm2()
	}
	return r
}

// Apply returns the product m·v.
func (m Matrix3) Apply(v Vector3d) Vector3d {
	return Vector3d{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns the matrix product m·n.
func (m Matrix3) Mul(n Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// Transpose returns the transpose of m, which is also the inverse of a rotation.
func (m Matrix3) Transpose() Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Matrix3) IsIdentity() bool {
	return m == Identity()
}

// ApproxEqual reports whether all entries of m and n differ by at most tol.
func (m Matrix3) ApproxEqual(n Matrix3, tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m[i][j]-n[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// Dense copies m into a gonum dense matrix.
func (m Matrix3) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

// FromDense copies the leading 3x3 block of a gonum matrix.
func FromDense(d mat.Matrix) Matrix3 {
	var m Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// OrthogonalPart returns the rotation factor R of the polar decomposition
// m = R·P, computed from the singular value decomposition m = U·Σ·Vᵀ as
// R = U·Vᵀ. A reflection is turned into a proper rotation by flipping the
// singular vector of the smallest singular value. ok is false if the
// factorization fails.
func (m Matrix3) OrthogonalPart() (r Matrix3, ok bool) {
	var svd mat.SVD
	if !svd.Factorize(m.Dense(), mat.SVDFull) {
		return Identity(), false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rot mat.Dense
	rot.Mul(&u, v.T())
	if mat.Det(&rot) < 0 {
		// Singular values come sorted in decreasing order, so the last
		// column belongs to the smallest one.
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		rot.Mul(&u, v.T())
	}
	return FromDense(&rot), true
}
