package grid

import (
	"math"

	"hichi/geom"
)

// tap is one cell index along an axis and its interpolation weight.
type tap struct {
	idx int
	w   float64
}

// taps returns the two cell centres bracketing c on axis a. On an axis of
// one cell the whole weight goes to that cell.
func (g *Grid) taps(a geom.Axis, c float64) [2]tap {
	n := g.spec.size[a]
	if n == 1 {
		return [2]tap{{0, 1}, {0, 0}}
	}
	u := (c-g.spec.min.Component(a))/g.spec.step.Component(a) - 0.5
	f := math.Floor(u)
	lo := ((int(f) % n) + n) % n
	w := u - f
	return [2]tap{{lo, 1 - w}, {(lo + 1) % n, w}}
}

// Sample interpolates E and B trilinearly at the local point p. Between
// the last and first cell centre of an axis the grid wraps around. Points
// outside [Min, Max) give ok == false and zero vectors. Analytical grids
// are evaluated exactly at p.
func (g *Grid) Sample(p geom.Vector3d) (e, b geom.Vector3d, ok bool) {
	if !g.spec.Contains(p) {
		return geom.Zero, geom.Zero, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if a := g.analytic; a != nil {
		t := g.Time()
		return a.e(p, t), a.b(p, t), true
	}

	tx, ty, tz := g.taps(geom.X, p.X), g.taps(geom.Y, p.Y), g.taps(geom.Z, p.Z)
	for _, x := range tx {
		for _, y := range ty {
			for _, z := range tz {
				w := x.w * y.w * z.w
				if w == 0 {
					continue
				}
				idx := g.spec.index(x.idx, y.idx, z.idx)
				e = e.Add(g.e[idx].Scale(w))
				b = b.Add(g.b[idx].Scale(w))
			}
		}
	}
	return e, b, true
}
