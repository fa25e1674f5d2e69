// Package grid stores electromagnetic fields on a periodic Cartesian grid
// and advances them with a spectral solver.
package grid

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"hichi/geom"
	"hichi/internal/logging"
	"hichi/internal/parallel"
	"hichi/mapping"
	"hichi/spectral"
)

// Grid holds E, B and J at the cell centres of a Spec together with an
// optional charge density. Real-space values are authoritative; spectral
// buffers are refilled at the start of every step.
type Grid struct {
	// mu guards the field arrays and spectral buffers. Readers (Sample,
	// FieldAt, Energy) may run concurrently; mutations are exclusive.
	mu sync.RWMutex

	spec    Spec
	scheme  spectral.Scheme
	c       float64
	workers int
	id      uuid.UUID
	log     *zap.Logger
	mapping atomic.Pointer[mappingRef]

	e, b, j []geom.Vector3d
	rho     []float64

	// iteration is read without mu so that mappings driven by the grid
	// clock can be evaluated while the fields are locked.
	iteration      atomic.Int64
	initialPoisson bool

	// analytic, when set, replaces the solver by closed-form fields.
	analytic *analytic

	centres [3][]float64
	tr      *spectral.Transformer
	solver  spectral.Solver
	poisson *spectral.Poisson
	buf     *spectral.Fields
}

// New allocates a grid for spec bound to scheme. All fields start at zero.
func New(spec Spec, scheme spectral.Scheme, opts ...Option) (*Grid, error) {
	if spec.CellCount() == 0 {
		return nil, configErrorf("spec", "zero value; use NewSpec or NewSpecWithStep")
	}
	g := &Grid{
		spec:   spec,
		scheme: scheme,
		c:      spectral.LightSpeedCGS,
		id:     uuid.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if !(g.c > 0) || !finite(g.c) {
		return nil, configErrorf("light_speed", "%g, must be positive", g.c)
	}
	if g.workers <= 0 {
		g.workers = parallel.DefaultWorkers()
	}
	g.log = logging.OrNop(g.log).With(zap.String("grid", g.id.String()))
	if g.mapping.Load() == nil {
		g.SetMapping(nil)
	}

	size := spec.Size()
	solver, err := spectral.NewSolver(scheme, spectral.Params{
		Dims:       size,
		Steps:      spec.steps(),
		LightSpeed: g.c,
		Workers:    g.workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %v solver: %w", scheme, err)
	}
	g.solver = solver
	g.tr = spectral.NewTransformer(size, g.workers)
	g.poisson = spectral.NewPoisson(size, spec.steps(), g.workers)
	g.buf = spectral.NewFields(size)

	n := spec.CellCount()
	g.e = make([]geom.Vector3d, n)
	g.b = make([]geom.Vector3d, n)
	g.j = make([]geom.Vector3d, n)
	g.rho = make([]float64, n)

	for a, axis := range geom.Axes {
		g.centres[a] = make([]float64, size[a])
		lo := spec.centre(axis, 0)
		if size[a] == 1 {
			g.centres[a][0] = lo
			continue
		}
		floats.Span(g.centres[a], lo, spec.centre(axis, size[a]-1))
	}

	g.log.Info("grid created",
		zap.Stringer("scheme", scheme),
		zap.Ints("size", size[:]),
		zap.Float64("time_step", spec.TimeStep()),
		zap.Float64("light_speed", g.c),
		zap.Int("workers", g.workers))
	return g, nil
}

// Spec returns the geometry the grid was built with.
func (g *Grid) Spec() Spec { return g.spec }

// Scheme returns the bound solver scheme.
func (g *Grid) Scheme() spectral.Scheme { return g.scheme }

// ID identifies the grid in log output.
func (g *Grid) ID() uuid.UUID { return g.id }

// LightSpeed returns the speed of light used by the solver.
func (g *Grid) LightSpeed() float64 { return g.c }

// Mapping returns the composition of the mapping stack, or the identity
// when the stack is empty.
func (g *Grid) Mapping() mapping.Mapping { return g.mapping.Load().m }

// Logger returns the grid's logger, tagged with its ID.
func (g *Grid) Logger() *zap.Logger { return g.log }

// CellCentre returns the local coordinates of the centre of cell (i, j, k).
func (g *Grid) CellCentre(i, j, k int) geom.Vector3d {
	return geom.Vec(g.centres[0][i], g.centres[1][j], g.centres[2][k])
}

// mappingRef is an immutable snapshot of the mapping stack.
type mappingRef struct {
	stack []mapping.Mapping
	m     mapping.Mapping
}

func newMappingRef(stack []mapping.Mapping) *mappingRef {
	return &mappingRef{stack: stack, m: mapping.Compose(stack...)}
}

// SetMapping replaces the mapping stack by m alone; nil clears it to the
// identity. It is safe to call while other goroutines sample the grid.
func (g *Grid) SetMapping(m mapping.Mapping) {
	if m == nil {
		g.mapping.Store(newMappingRef(nil))
		return
	}
	g.mapping.Store(newMappingRef([]mapping.Mapping{m}))
}

// PushMapping appends m to the mapping stack. Going to world space the
// pushed mapping is applied after the ones already on the stack.
func (g *Grid) PushMapping(m mapping.Mapping) {
	if m == nil {
		return
	}
	for {
		old := g.mapping.Load()
		n := len(old.stack)
		stack := append(old.stack[:n:n], m)
		if g.mapping.CompareAndSwap(old, newMappingRef(stack)) {
			return
		}
	}
}

// PopMapping removes and returns the most recently pushed mapping. ok is
// false when the stack is empty.
func (g *Grid) PopMapping() (m mapping.Mapping, ok bool) {
	for {
		old := g.mapping.Load()
		n := len(old.stack)
		if n == 0 {
			return nil, false
		}
		if g.mapping.CompareAndSwap(old, newMappingRef(old.stack[:n-1:n-1])) {
			return old.stack[n-1], true
		}
	}
}

// Iteration returns the number of completed steps.
func (g *Grid) Iteration() int {
	return int(g.iteration.Load())
}

// Time returns Iteration()·dt. Grids satisfy mapping.Clock.
func (g *Grid) Time() float64 {
	return float64(g.Iteration()) * g.spec.TimeStep()
}

var _ mapping.Clock = (*Grid)(nil)

// UpdateFields advances E and B by one time step with the bound scheme.
// On an analytical grid it advances the clock and re-evaluates the fields
// at the new time instead.
func (g *Grid) UpdateFields() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.analytic != nil {
		it := g.iteration.Add(1)
		g.log.Debug("analytical fields updated", zap.Int64("iteration", it))
		return g.refreshAnalytic()
	}

	it := g.iteration.Load()
	if g.initialPoisson && it == 0 {
		if err := g.poissonLocked(); err != nil {
			return err
		}
		g.initialPoisson = false
	}

	f := g.buf
	if err := g.load(f.E, g.e); err != nil {
		return err
	}
	if err := g.load(f.B, g.b); err != nil {
		return err
	}
	if err := g.load(f.J, g.j); err != nil {
		return err
	}
	if err := g.tr.Forward(append(append(f.E[:], f.B[:]...), f.J[:]...)...); err != nil {
		return fmt.Errorf("forward transform: %w", err)
	}
	if err := g.solver.Advance(f, g.spec.TimeStep()); err != nil {
		return fmt.Errorf("%v step %d: %w", g.scheme, it, err)
	}
	if err := g.tr.Inverse(append(f.E[:], f.B[:]...)...); err != nil {
		return fmt.Errorf("inverse transform: %w", err)
	}
	if err := g.storeReal(g.e, f.E); err != nil {
		return err
	}
	if err := g.storeReal(g.b, f.B); err != nil {
		return err
	}

	it = g.iteration.Add(1)
	g.log.Debug("fields updated",
		zap.Int64("iteration", it),
		zap.Float64("time", float64(it)*g.spec.TimeStep()))
	return nil
}

// ApplyPoissonCorrection replaces E by E - ∇φ so that ∇·E = 4πρ, with ρ
// from SetChargeDensity (zero unless set). It is only allowed before the
// first step.
func (g *Grid) ApplyPoissonCorrection() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if it := g.iteration.Load(); it > 0 {
		return fmt.Errorf("%w: iteration %d", ErrSteppingStarted, it)
	}
	return g.poissonLocked()
}

func (g *Grid) poissonLocked() error {
	f := g.buf
	if err := g.load(f.E, g.e); err != nil {
		return err
	}
	spectral.ToComplex(f.Rho, g.rho)
	if err := g.tr.Forward(append(f.E[:], f.Rho)...); err != nil {
		return fmt.Errorf("forward transform: %w", err)
	}
	if err := g.poisson.Correct(f); err != nil {
		return fmt.Errorf("poisson correction: %w", err)
	}
	if err := g.tr.Inverse(f.E[:]...); err != nil {
		return fmt.Errorf("inverse transform: %w", err)
	}
	if err := g.storeReal(g.e, f.E); err != nil {
		return err
	}
	g.log.Info("poisson correction applied")
	return nil
}

// load scatters a vector field into three complex component buffers.
func (g *Grid) load(dst [3][]complex128, src []geom.Vector3d) error {
	return parallel.For(g.workers, len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := src[i]
			dst[0][i] = complex(v.X, 0)
			dst[1][i] = complex(v.Y, 0)
			dst[2][i] = complex(v.Z, 0)
		}
	})
}

// storeReal gathers the real parts of three component buffers.
func (g *Grid) storeReal(dst []geom.Vector3d, src [3][]complex128) error {
	return parallel.For(g.workers, len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = geom.Vec(real(src[0][i]), real(src[1][i]), real(src[2][i]))
		}
	})
}

func (g *Grid) field(c Component) ([]geom.Vector3d, error) {
	switch c {
	case E:
		return g.e, nil
	case B:
		return g.b, nil
	case J:
		return g.j, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownComponent, c)
}
