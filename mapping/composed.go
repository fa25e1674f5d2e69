package mapping

import "hichi/geom"

// Composed applies Inner first and Outer second when going to world space:
// ToWorld = Outer.ToWorld ∘ Inner.ToWorld.
type Composed struct {
	Outer Mapping
	Inner Mapping
}

// NewComposed returns the composition outer ∘ inner.
func NewComposed(outer, inner Mapping) *Composed {
	return &Composed{Outer: outer, Inner: inner}
}

// Compose chains mappings in the order they are applied to local
// coordinates: Compose(a, b, c).ToWorld(p) = c.ToWorld(b.ToWorld(a.ToWorld(p))).
// With no arguments it returns the identity; a single mapping is returned as is.
func Compose(ms ...Mapping) Mapping {
	switch len(ms) {
	case 0:
		return NewIdentity()
	case 1:
		return ms[0]
	}
	result := ms[0]
	for _, m := range ms[1:] {
		result = NewComposed(m, result)
	}
	return result
}

// Kind returns KindComposed.
func (m *Composed) Kind() Kind { return KindComposed }

// ToWorld applies Inner, then Outer.
func (m *Composed) ToWorld(local geom.Vector3d) geom.Vector3d {
	return m.Outer.ToWorld(m.Inner.ToWorld(local))
}

// ToLocal undoes Outer, then Inner.
func (m *Composed) ToLocal(world geom.Vector3d) geom.Vector3d {
	return m.Inner.ToLocal(m.Outer.ToLocal(world))
}

// IsValid checks Outer on the world point and Inner on Outer's local image.
func (m *Composed) IsValid(world geom.Vector3d) bool {
	if !m.Outer.IsValid(world) {
		return false
	}
	return m.Inner.IsValid(m.Outer.ToLocal(world))
}

// RotationAt is the product of the rotation of Outer at world and the
// rotation of Inner at Outer's local image.
func (m *Composed) RotationAt(world geom.Vector3d) geom.Matrix3 {
	mid := m.Outer.ToLocal(world)
	return m.Outer.RotationAt(world).Mul(m.Inner.RotationAt(mid))
}
