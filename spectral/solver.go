// Package spectral advances electromagnetic fields in Fourier space.
//
// All schemes use Gaussian units:
//
//	∂B/∂t = -c ∇×E
//	∂E/∂t =  c ∇×B - 4πJ
//	∇·E   =  4πρ
//
// A solver only sees spectral buffers. The caller transforms the real-space
// fields with a Transformer, calls Advance, and transforms E and B back.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// LightSpeedCGS is the speed of light in cm/s.
const LightSpeedCGS = 29979245800.0

var (
	// ErrUnknownScheme is returned for scheme names that are not recognised.
	ErrUnknownScheme = errors.New("spectral: unknown scheme")
	// ErrInvalidParams is returned when solver parameters are unusable.
	ErrInvalidParams = errors.New("spectral: invalid parameters")
)

// Scheme identifies a time integration scheme.
type Scheme int

const (
	// PSATD integrates each mode analytically over one step.
	PSATD Scheme = iota
	// PSTD is a leapfrog scheme with spectral derivatives. It is only
	// stable below CourantLimit.
	PSTD
	// PSATDTimeStaggered splits the analytical step into half B steps
	// around a full E step.
	PSATDTimeStaggered
)

var schemeNames = map[Scheme]string{
	PSATD:              "psatd",
	PSTD:               "pstd",
	PSATDTimeStaggered: "psatd-staggered",
}

func (s Scheme) String() string {
	if n, ok := schemeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme returns the scheme with the given name, case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Params configures a solver.
type Params struct {
	Dims       [3]int
	Steps      [3]float64
	LightSpeed float64
	// Workers bounds the goroutines used per mode sweep; <= 0 means GOMAXPROCS.
	Workers int
}

func (p Params) validate() error {
	for a := 0; a < 3; a++ {
		if p.Dims[a] < 1 {
			return fmt.Errorf("%w: size[%d] = %d", ErrInvalidParams, a, p.Dims[a])
		}
		if !(p.Steps[a] > 0) {
			return fmt.Errorf("%w: step[%d] = %g", ErrInvalidParams, a, p.Steps[a])
		}
	}
	if !(p.LightSpeed > 0) {
		return fmt.Errorf("%w: light speed %g", ErrInvalidParams, p.LightSpeed)
	}
	return nil
}

// Solver advances spectral fields by one time step.
type Solver interface {
	Scheme() Scheme
	// Advance updates f.E and f.B in place from f.E, f.B and f.J, which
	// must already hold Fourier coefficients. J is multiplied by 4π
	// internally.
	Advance(f *Fields, dt float64) error
}

// NewSolver returns a solver for scheme.
func NewSolver(scheme Scheme, p Params) (Solver, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	base := solverBase{
		waves:   NewWaveVectors(p.Dims, p.Steps),
		c:       p.LightSpeed,
		workers: p.Workers,
	}
	switch scheme {
	case PSATD:
		return &psatd{solverBase: base}, nil
	case PSTD:
		return &pstd{solverBase: base}, nil
	case PSATDTimeStaggered:
		return &psatdStaggered{solverBase: base}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
}

type solverBase struct {
	waves   WaveVectors
	c       float64
	workers int
}

func (s *solverBase) checkFields(f *Fields) error {
	if f.dims != s.waves.Dims {
		return fmt.Errorf("%w: fields %v, solver %v", ErrInvalidParams, f.dims, s.waves.Dims)
	}
	return nil
}

// CourantLimit returns the largest stable PSTD time step,
// 2 / (c·π·sqrt(Σ 1/d²)), where the sum runs over axes with more than one
// cell. Infinity is returned when no axis qualifies.
func CourantLimit(steps [3]float64, sizes [3]int, c float64) float64 {
	var sum float64
	for a := 0; a < 3; a++ {
		if sizes[a] > 1 {
			sum += 1 / (steps[a] * steps[a])
		}
	}
	if sum == 0 {
		return math.Inf(1)
	}
	return 2 / (c * math.Pi * math.Sqrt(sum))
}
