package mapping

import (
	"math"

	"hichi/geom"
)

// relativeStep scales the finite-difference step to the magnitude of the point.
const relativeStep = 1e-6

// jacobianRotation returns the orthogonal part of the Jacobian of ToWorld at
// the local image of world. It differentiates ToLocal numerically and
// inverts the resulting rotation, which avoids having to invert ToWorld.
//
// Mappings with folds (periodic wrapping) are only piecewise smooth, so for
// each direction the one-sided difference with the smaller magnitude is
// used: at most one side of an infinitesimal step can cross a fold.
func jacobianRotation(m Mapping, world geom.Vector3d, scale float64) geom.Matrix3 {
	h := relativeStep * math.Max(scale, world.Norm())
	if h == 0 {
		h = relativeStep
	}
	center := m.ToLocal(world)

	var jac geom.Matrix3
	for col, axis := range []geom.Axis{geom.X, geom.Y, geom.Z} {
		dp := geom.Zero.With(axis, h)
		fwd := m.ToLocal(world.Add(dp)).Sub(center)
		bwd := center.Sub(m.ToLocal(world.Sub(dp)))
		d := fwd
		if bwd.Norm2() < fwd.Norm2() {
			d = bwd
		}
		d = d.Scale(1 / h)
		jac[0][col] = d.X
		jac[1][col] = d.Y
		jac[2][col] = d.Z
	}

	r, ok := jac.OrthogonalPart()
	if !ok {
		return geom.Identity()
	}
	// jac is the Jacobian of ToLocal; the inverse of its rotation factor is
	// the rotation factor of ToWorld.
	return r.Transpose()
}
