package spectral

import "math"

type psatdStaggered struct {
	solverBase
	// prevJ holds 4πJ of the previous step.
	prevJ [3][]complex128
}

func (s *psatdStaggered) Scheme() Scheme { return PSATDTimeStaggered }

// Advance runs half B, full E, half B with sin(c|k|dt/2) coefficients. The
// B half steps also carry the change of J since the previous call; on the
// first call J is taken as constant.
func (s *psatdStaggered) Advance(f *Fields, dt float64) error {
	if err := s.checkFields(f); err != nil {
		return err
	}
	if s.prevJ[0] == nil {
		for a := 0; a < 3; a++ {
			s.prevJ[a] = make([]complex128, f.Len())
			for i, v := range f.J[a] {
				s.prevJ[a][i] = v * 4 * math.Pi
			}
		}
	}

	return s.waves.forEachMode(s.workers, func(idx int, k [3]float64) {
		e := load(f.E, idx)
		b := load(f.B, idx)
		j := load(f.J, idx).scaleReal(4 * math.Pi)
		dj := j.sub(load(s.prevJ, idx))
		store(s.prevJ, idx, j)

		kn := norm(k)
		if kn == 0 {
			store(f.E, idx, e.sub(j.scaleReal(dt)))
			return
		}
		kh := unit(k, kn)
		w := s.c * kn
		sn, cs := math.Sincos(w * dt / 2)
		is := complex(0, sn)
		jKick := crossK(kh, dj).scale(complex(0, (1-cs)/w))

		b = b.sub(crossK(kh, e).scale(is)).add(jKick)

		jL := along(kh, j)
		e = e.add(crossK(kh, b).scale(2 * is)).
			sub(j.sub(jL).scaleReal(2 * sn / w)).
			sub(jL.scaleReal(dt))

		b = b.sub(crossK(kh, e).scale(is)).add(jKick)

		store(f.E, idx, e)
		store(f.B, idx, b)
	})
}
