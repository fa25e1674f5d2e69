package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"hichi/spectral"
)

// Energy returns the field energy Σ(|E|²+|B|²)/8π·dV over all cells.
func (g *Grid) Energy() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	density := make([]float64, len(g.e))
	for i := range density {
		density[i] = g.e[i].Norm2() + g.b[i].Norm2()
	}
	return floats.Sum(density) * g.spec.CellVolume() / (8 * math.Pi)
}

// Divergence returns the spectral divergence of component c at every cell,
// in flat index order.
func (g *Grid) Divergence(c Component) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, err := g.field(c)
	if err != nil {
		return nil, err
	}
	f := g.buf
	if err := g.load(f.E, src); err != nil {
		return nil, err
	}
	if err := g.tr.Forward(f.E[:]...); err != nil {
		return nil, fmt.Errorf("forward transform: %w", err)
	}
	if err := g.poisson.Divergence(f.Rho, f.E); err != nil {
		return nil, err
	}
	if err := g.tr.Inverse(f.Rho); err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}
	div := make([]float64, len(f.Rho))
	spectral.RealPart(div, f.Rho)
	return div, nil
}

// ChargeDensity returns a copy of the charge density in flat index order.
func (g *Grid) ChargeDensity() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]float64(nil), g.rho...)
}
