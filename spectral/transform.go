package spectral

import (
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"hichi/internal/parallel"
)

var pinFFTPool sync.Once

// Transformer runs 3D discrete Fourier transforms over flat arrays laid out
// as (i*ny+j)*nz+k. The transform is separable: one pass of 1D transforms
// per axis, with the lines of each pass spread over the workers. Axes of
// size 1 are skipped.
type Transformer struct {
	dims    [3]int
	strides [3]int
	workers int
}

// NewTransformer returns a transformer for arrays of the given dimensions.
// workers <= 0 selects GOMAXPROCS.
func NewTransformer(dims [3]int, workers int) *Transformer {
	// lines are already distributed, so go-dsp must not fan out again
	pinFFTPool.Do(func() { fft.SetWorkerPoolSize(1) })
	if workers <= 0 {
		workers = parallel.DefaultWorkers()
	}
	return &Transformer{
		dims:    dims,
		strides: [3]int{dims[1] * dims[2], dims[2], 1},
		workers: workers,
	}
}

// Dims returns the array dimensions.
func (t *Transformer) Dims() [3]int { return t.dims }

// Len returns the number of elements of one array.
func (t *Transformer) Len() int { return t.dims[0] * t.dims[1] * t.dims[2] }

// Forward transforms every array in place, along Z, then Y, then X.
func (t *Transformer) Forward(arrays ...[]complex128) error {
	for _, a := range arrays {
		for axis := 2; axis >= 0; axis-- {
			if err := t.pass(a, axis, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Inverse undoes Forward in place, along X, then Y, then Z. The result is
// normalised, so Inverse(Forward(a)) == a up to rounding.
func (t *Transformer) Inverse(arrays ...[]complex128) error {
	for _, a := range arrays {
		for axis := 0; axis < 3; axis++ {
			if err := t.pass(a, axis, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Transformer) pass(data []complex128, axis int, inverse bool) error {
	n := t.dims[axis]
	if n <= 1 {
		return nil
	}
	stride := t.strides[axis]
	lines := len(data) / n

	return parallel.For(t.workers, lines, func(lo, hi int) {
		line := make([]complex128, n)
		for l := lo; l < hi; l++ {
			base := t.lineStart(axis, l)
			for m := 0; m < n; m++ {
				line[m] = data[base+m*stride]
			}
			var out []complex128
			if inverse {
				out = fft.IFFT(line)
			} else {
				out = fft.FFT(line)
			}
			for m := 0; m < n; m++ {
				data[base+m*stride] = out[m]
			}
		}
	})
}

// lineStart returns the flat index of the first element of line l along axis.
func (t *Transformer) lineStart(axis, l int) int {
	nz := t.dims[2]
	switch axis {
	case 0:
		// lines enumerate (j, k)
		return l
	case 1:
		// lines enumerate (i, k)
		i, k := l/nz, l%nz
		return i*t.strides[0] + k
	default:
		// lines enumerate (i, j)
		return l * nz
	}
}

// ToComplex copies real values into dst.
func ToComplex(dst []complex128, src []float64) {
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
}

// RealPart copies the real part of src into dst.
func RealPart(dst []float64, src []complex128) {
	for i, v := range src {
		dst[i] = real(v)
	}
}
