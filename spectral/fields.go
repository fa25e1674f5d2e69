package spectral

import "math"

// Fields holds the complex work buffers of one grid: three components each
// of E, B and J plus a scalar buffer for the charge density. Between steps
// the contents are meaningless; the grid reloads them from real space.
type Fields struct {
	dims [3]int
	E    [3][]complex128
	B    [3][]complex128
	J    [3][]complex128
	Rho  []complex128
}

// NewFields allocates buffers for a grid of the given dimensions.
func NewFields(dims [3]int) *Fields {
	n := dims[0] * dims[1] * dims[2]
	f := &Fields{dims: dims, Rho: make([]complex128, n)}
	for a := 0; a < 3; a++ {
		f.E[a] = make([]complex128, n)
		f.B[a] = make([]complex128, n)
		f.J[a] = make([]complex128, n)
	}
	return f
}

// Dims returns the grid dimensions.
func (f *Fields) Dims() [3]int { return f.dims }

// Len returns the number of elements per component.
func (f *Fields) Len() int { return len(f.Rho) }

// cvec is one complex vector sample of a field.
type cvec [3]complex128

func load(c [3][]complex128, idx int) cvec {
	return cvec{c[0][idx], c[1][idx], c[2][idx]}
}

func store(c [3][]complex128, idx int, v cvec) {
	c[0][idx], c[1][idx], c[2][idx] = v[0], v[1], v[2]
}

func (a cvec) add(b cvec) cvec {
	return cvec{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a cvec) sub(b cvec) cvec {
	return cvec{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a cvec) scale(s complex128) cvec {
	return cvec{a[0] * s, a[1] * s, a[2] * s}
}

func (a cvec) scaleReal(s float64) cvec {
	return a.scale(complex(s, 0))
}

// crossK returns k × a for a real k.
func crossK(k [3]float64, a cvec) cvec {
	kx, ky, kz := complex(k[0], 0), complex(k[1], 0), complex(k[2], 0)
	return cvec{
		ky*a[2] - kz*a[1],
		kz*a[0] - kx*a[2],
		kx*a[1] - ky*a[0],
	}
}

// dotK returns k · a for a real k.
func dotK(k [3]float64, a cvec) complex128 {
	return complex(k[0], 0)*a[0] + complex(k[1], 0)*a[1] + complex(k[2], 0)*a[2]
}

// along returns the projection k(k·a) for a unit k.
func along(k [3]float64, a cvec) cvec {
	d := dotK(k, a)
	return cvec{complex(k[0], 0) * d, complex(k[1], 0) * d, complex(k[2], 0) * d}
}

func norm(k [3]float64) float64 {
	return math.Sqrt(k[0]*k[0] + k[1]*k[1] + k[2]*k[2])
}

func unit(k [3]float64, n float64) [3]float64 {
	return [3]float64{k[0] / n, k[1] / n, k[2] / n}
}
