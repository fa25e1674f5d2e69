package spectral

import "math"

type pstd struct {
	solverBase
}

func (s *pstd) Scheme() Scheme { return PSTD }

// Advance is a B/2, E, B/2 leapfrog step with the curl taken spectrally.
func (s *pstd) Advance(f *Fields, dt float64) error {
	if err := s.checkFields(f); err != nil {
		return err
	}
	half := complex(0, s.c*dt/2)
	full := complex(0, s.c*dt)
	return s.waves.forEachMode(s.workers, func(idx int, k [3]float64) {
		e := load(f.E, idx)
		b := load(f.B, idx)
		j := load(f.J, idx).scaleReal(4 * math.Pi)

		b = b.sub(crossK(k, e).scale(half))
		e = e.add(crossK(k, b).scale(full)).sub(j.scaleReal(dt))
		b = b.sub(crossK(k, e).scale(half))

		store(f.E, idx, e)
		store(f.B, idx, b)
	})
}
