package grid

import (
	"fmt"

	"hichi/geom"
	"hichi/internal/parallel"
)

// forEachCell calls fn with the flat index and local centre of every cell,
// spreading x-slabs over the workers.
func (g *Grid) forEachCell(fn func(idx int, p geom.Vector3d)) error {
	size := g.spec.Size()
	return parallel.For(g.workers, size[0], func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < size[1]; j++ {
				for k := 0; k < size[2]; k++ {
					fn(g.spec.index(i, j, k), g.CellCentre(i, j, k))
				}
			}
		}
	})
}

// SetField evaluates f once at every cell centre, in local coordinates, and
// stores the result in component c.
func (g *Grid) SetField(c Component, f VectorFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	dst, err := g.field(c)
	if err != nil {
		return err
	}
	return g.forEachCell(func(idx int, p geom.Vector3d) {
		dst[idx] = f(p)
	})
}

// SetFieldAtTime is SetField for a time-dependent f, evaluated at time t.
func (g *Grid) SetFieldAtTime(c Component, f TimeVectorFunc, t float64) error {
	return g.SetField(c, func(p geom.Vector3d) geom.Vector3d { return f(p, t) })
}

// SetFieldComponents is SetField with one function per component.
func (g *Grid) SetFieldComponents(c Component, fx, fy, fz ScalarFunc) error {
	return g.SetField(c, func(p geom.Vector3d) geom.Vector3d {
		return geom.Vec(fx(p), fy(p), fz(p))
	})
}

// SetEMField sets E and B from one function in a single pass.
func (g *Grid) SetEMField(f func(p geom.Vector3d) (e, b geom.Vector3d)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.forEachCell(func(idx int, p geom.Vector3d) {
		g.e[idx], g.b[idx] = f(p)
	})
}

// SetWorldField evaluates f at the world image of every cell centre under
// the grid mapping and stores the value rotated into the local frame. Cells
// whose image is not valid are set to zero.
func (g *Grid) SetWorldField(c Component, f VectorFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	dst, err := g.field(c)
	if err != nil {
		return err
	}
	m := g.Mapping()
	return g.forEachCell(func(idx int, p geom.Vector3d) {
		w := m.ToWorld(p)
		if !m.IsValid(w) {
			dst[idx] = geom.Zero
			return
		}
		dst[idx] = m.RotationAt(w).Transpose().Apply(f(w))
	})
}

type analytic struct {
	e, b TimeVectorFunc
}

// SetAnalytical makes g an analytical grid: E and B are given by e and b
// at the grid time instead of being advanced by the solver. Sample
// evaluates them exactly; the stored cell values are refreshed now and on
// every UpdateFields so that diagnostics see them. Passing nil for both
// restores spectral stepping from the current cell values.
func (g *Grid) SetAnalytical(e, b TimeVectorFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e == nil && b == nil {
		g.analytic = nil
		return nil
	}
	if e == nil || b == nil {
		return configErrorf("analytical", "both E and B functions are required")
	}
	g.analytic = &analytic{e: e, b: b}
	return g.refreshAnalytic()
}

// Analytical reports whether g holds closed-form fields.
func (g *Grid) Analytical() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.analytic != nil
}

// refreshAnalytic evaluates the analytical fields at every cell centre.
// The caller holds mu.
func (g *Grid) refreshAnalytic() error {
	a, t := g.analytic, g.Time()
	return g.forEachCell(func(idx int, p geom.Vector3d) {
		g.e[idx] = a.e(p, t)
		g.b[idx] = a.b(p, t)
	})
}

// SetChargeDensity sets the charge density used by the Poisson correction.
func (g *Grid) SetChargeDensity(rho ScalarFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.forEachCell(func(idx int, p geom.Vector3d) {
		g.rho[idx] = rho(p)
	})
}

// FieldAt returns component c of cell (i, j, k).
func (g *Grid) FieldAt(c Component, i, j, k int) (geom.Vector3d, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	src, err := g.field(c)
	if err != nil {
		return geom.Zero, err
	}
	size := g.spec.Size()
	if i < 0 || j < 0 || k < 0 || i >= size[0] || j >= size[1] || k >= size[2] {
		return geom.Zero, fmt.Errorf("%w: (%d, %d, %d) in %v", ErrIndexOutOfRange, i, j, k, size)
	}
	return src[g.spec.index(i, j, k)], nil
}
