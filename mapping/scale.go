package mapping

import "hichi/geom"

// Scale stretches one coordinate: ToWorld multiplies the Axis coordinate by Coef.
type Scale struct {
	Axis geom.Axis
	Coef float64
}

// NewScale returns the scaling of axis by coef. coef must be non-zero.
func NewScale(axis geom.Axis, coef float64) *Scale {
	return &Scale{Axis: axis, Coef: coef}
}

// Kind returns KindScale.
func (m *Scale) Kind() Kind { return KindScale }

// ToWorld multiplies the Axis coordinate by Coef.
func (m *Scale) ToWorld(local geom.Vector3d) geom.Vector3d {
	return local.With(m.Axis, local.Component(m.Axis)*m.Coef)
}

// ToLocal divides the Axis coordinate by Coef.
func (m *Scale) ToLocal(world geom.Vector3d) geom.Vector3d {
	return world.With(m.Axis, world.Component(m.Axis)/m.Coef)
}

// IsValid is true everywhere unless Coef is zero.
func (m *Scale) IsValid(geom.Vector3d) bool { return m.Coef != 0 }

// RotationAt is the orthogonal part of the Jacobian, the identity for any
// positive coefficient.
func (m *Scale) RotationAt(world geom.Vector3d) geom.Matrix3 {
	return jacobianRotation(m, world, 1)
}
