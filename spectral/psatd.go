package spectral

import (
	"math"
)

type psatd struct {
	solverBase
}

func (s *psatd) Scheme() Scheme { return PSATD }

// Advance applies the exact one-step propagator of every mode. The
// transverse parts of E and B rotate into each other with frequency c|k|,
// the longitudinal part of E is driven by J only.
func (s *psatd) Advance(f *Fields, dt float64) error {
	if err := s.checkFields(f); err != nil {
		return err
	}
	return s.waves.forEachMode(s.workers, func(idx int, k [3]float64) {
		e := load(f.E, idx)
		b := load(f.B, idx)
		j := load(f.J, idx).scaleReal(4 * math.Pi)

		kn := norm(k)
		if kn == 0 {
			store(f.E, idx, e.sub(j.scaleReal(dt)))
			return
		}
		kh := unit(k, kn)
		w := s.c * kn
		sn, cs := math.Sincos(w * dt)
		is := complex(0, sn)

		eL := along(kh, e)
		bL := along(kh, b)
		jL := along(kh, j)

		eNew := e.sub(eL).scaleReal(cs).
			add(eL).
			add(crossK(kh, b).scale(is)).
			sub(j.sub(jL).scaleReal(sn / w)).
			sub(jL.scaleReal(dt))
		bNew := b.sub(bL).scaleReal(cs).
			add(bL).
			sub(crossK(kh, e).scale(is)).
			add(crossK(kh, j).scale(complex(0, (1-cs)/w)))

		store(f.E, idx, eNew)
		store(f.B, idx, bNew)
	})
}
