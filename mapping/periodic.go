package mapping

import (
	"math"

	"hichi/geom"
)

// Periodic repeats the slab [CMin, CMax) along Axis over all of world space.
// ToLocal wraps the axis coordinate into the slab; ToWorld is the identity
// because the slab is its own representative.
type Periodic struct {
	Axis       geom.Axis
	CMin, CMax float64
}

// NewPeriodic returns the periodic mapping of [cMin, cMax) along axis.
func NewPeriodic(axis geom.Axis, cMin, cMax float64) *Periodic {
	return &Periodic{Axis: axis, CMin: cMin, CMax: cMax}
}

// Period returns CMax - CMin.
func (m *Periodic) Period() float64 { return m.CMax - m.CMin }

// Kind returns KindPeriodic.
func (m *Periodic) Kind() Kind { return KindPeriodic }

// ToWorld returns local unchanged.
func (m *Periodic) ToWorld(local geom.Vector3d) geom.Vector3d { return local }

// IsValid is true everywhere.
func (m *Periodic) IsValid(geom.Vector3d) bool { return true }

// RotationAt is the identity everywhere.
func (m *Periodic) RotationAt(geom.Vector3d) geom.Matrix3 { return geom.Identity() }

// ToLocal wraps the axis coordinate into [CMin, CMax).
func (m *Periodic) ToLocal(world geom.Vector3d) geom.Vector3d {
	return world.With(m.Axis, m.wrap(world.Component(m.Axis)))
}

// wrap folds c into [CMin, CMax).
func (m *Periodic) wrap(c float64) float64 {
	d := m.Period()
	frac := math.Mod((c-m.CMin)/d, 1)
	if frac < 0 {
		frac += 1
	}
	w := m.CMin + frac*d
	if w >= m.CMax {
		w = m.CMin
	}
	return w
}
