package grid

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hichi/geom"
	"hichi/mapping"
)

// Component selects one of the vector fields stored by a grid.
type Component int

const (
	E Component = iota // electric field
	B                  // magnetic field
	J                  // current density
)

func (c Component) String() string {
	switch c {
	case E:
		return "E"
	case B:
		return "B"
	case J:
		return "J"
	default:
		return fmt.Sprintf("Component(%d)", int(c))
	}
}

// ParseComponent accepts "E", "B" or "J" in any case.
func ParseComponent(s string) (Component, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E":
		return E, nil
	case "B":
		return B, nil
	case "J":
		return J, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownComponent, s)
}

// VectorFunc gives a field value at a point.
type VectorFunc func(p geom.Vector3d) geom.Vector3d

// TimeVectorFunc gives a field value at a point and time.
type TimeVectorFunc func(p geom.Vector3d, t float64) geom.Vector3d

// ScalarFunc gives one field component at a point.
type ScalarFunc func(p geom.Vector3d) float64

// Option configures a Grid at construction.
type Option func(*Grid)

// WithLightSpeed sets the speed of light used by the solver. The default is
// spectral.LightSpeedCGS.
func WithLightSpeed(c float64) Option {
	return func(g *Grid) { g.c = c }
}

// WithWorkers bounds the goroutines used by FFTs, mode updates and field
// initialisation. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(g *Grid) { g.workers = n }
}

// WithLogger attaches a logger. Grids log nothing by default.
func WithLogger(l *zap.Logger) Option {
	return func(g *Grid) { g.log = l }
}

// WithMapping places the grid in world space. The default is the identity.
func WithMapping(m mapping.Mapping) Option {
	return func(g *Grid) { g.SetMapping(m) }
}

// WithInitialPoissonCorrection makes the first UpdateFields apply the
// Poisson correction before stepping.
func WithInitialPoissonCorrection(on bool) Option {
	return func(g *Grid) { g.initialPoisson = on }
}
