package spectral

import (
	"fmt"
	"math"
)

// Poisson projects E onto fields satisfying ∇·E = 4πρ.
type Poisson struct {
	waves   WaveVectors
	workers int
}

// NewPoisson returns a corrector for grids of the given dimensions and steps.
func NewPoisson(dims [3]int, steps [3]float64, workers int) *Poisson {
	return &Poisson{waves: NewWaveVectors(dims, steps), workers: workers}
}

// Correct replaces f.E by E - ∇φ with ∇²φ = ∇·E - 4πρ, using f.Rho as the
// charge density. Both must hold Fourier coefficients. The zero mode is left
// untouched, which fixes the gauge.
func (p *Poisson) Correct(f *Fields) error {
	if f.dims != p.waves.Dims {
		return fmt.Errorf("%w: fields %v, corrector %v", ErrInvalidParams, f.dims, p.waves.Dims)
	}
	return p.waves.forEachMode(p.workers, func(idx int, k [3]float64) {
		k2 := k[0]*k[0] + k[1]*k[1] + k[2]*k[2]
		if k2 == 0 {
			return
		}
		e := load(f.E, idx)
		div := complex(0, 1) * dotK(k, e)
		phi := -(div - 4*math.Pi*f.Rho[idx]) / complex(k2, 0)
		grad := cvec{complex(0, k[0]), complex(0, k[1]), complex(0, k[2])}.scale(phi)
		store(f.E, idx, e.sub(grad))
	})
}

// Divergence writes i k·v of the spectral vector field v into dst.
func (p *Poisson) Divergence(dst []complex128, v [3][]complex128) error {
	return p.waves.forEachMode(p.workers, func(idx int, k [3]float64) {
		dst[idx] = complex(0, 1) * dotK(k, load(v, idx))
	})
}
