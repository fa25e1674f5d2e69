package spectral

import (
	"math"

	"hichi/internal/parallel"
)

// WaveVectors holds the wavevector components of every mode of a grid.
// Index m of axis a is the frequency [0, 1, ..., n/2-1, -n/2, ..., -1][m]
// scaled by 2π/(n·d).
type WaveVectors struct {
	Dims [3]int
	K    [3][]float64
}

// NewWaveVectors computes the wavevectors for the given cell counts and
// cell steps.
func NewWaveVectors(dims [3]int, steps [3]float64) WaveVectors {
	w := WaveVectors{Dims: dims}
	for a := 0; a < 3; a++ {
		w.K[a] = kFreqs(dims[a], steps[a])
	}
	return w
}

func kFreqs(n int, d float64) []float64 {
	k := make([]float64, n)
	scale := 2 * math.Pi / (float64(n) * d)
	for i := 0; i < n; i++ {
		freq := float64(i)
		if i >= (n+1)/2 {
			freq = float64(i - n)
		}
		k[i] = freq * scale
	}
	return k
}

// At returns the wavevector of mode (i, j, l).
func (w WaveVectors) At(i, j, l int) [3]float64 {
	return [3]float64{w.K[0][i], w.K[1][j], w.K[2][l]}
}

// Len returns the number of modes.
func (w WaveVectors) Len() int { return w.Dims[0] * w.Dims[1] * w.Dims[2] }

// forEachMode calls fn for every mode with its flat index and wavevector.
// Work is split into x-slabs; fn must only touch index idx.
func (w WaveVectors) forEachMode(workers int, fn func(idx int, k [3]float64)) error {
	nx, ny, nz := w.Dims[0], w.Dims[1], w.Dims[2]
	return parallel.For(workers, nx, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < ny; j++ {
				for l := 0; l < nz; l++ {
					fn((i*ny+j)*nz+l, w.At(i, j, l))
				}
			}
		}
	})
}
