package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hichi/config"
	"hichi/geom"
	"hichi/mapping"
	"hichi/spectral"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var allSchemes = []spectral.Scheme{spectral.PSATD, spectral.PSTD, spectral.PSATDTimeStaggered}

// line returns a grid of n unit cells along x starting at 0.
func line(t *testing.T, scheme spectral.Scheme, n int, dt float64, opts ...Option) *Grid {
	t.Helper()
	spec, err := NewSpecWithStep([3]int{n, 1, 1}, geom.Zero, geom.Vec(1, 1, 1), dt)
	require.NoError(t, err)
	g, err := New(spec, scheme, append([]Option{WithLightSpeed(1), WithWorkers(2)}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestNewSpec(t *testing.T) {
	spec, err := NewSpec([3]int{4, 2, 1}, geom.Vec(-1, 0, 0), geom.Vec(1, 1, 0.5), 0.1)
	require.NoError(t, err)
	assert.Equal(t, geom.Vec(0.5, 0.5, 0.5), spec.Step())
	assert.Equal(t, geom.Vec(1, 1, 0.5), spec.Max())
	assert.Equal(t, 8, spec.CellCount())
	assert.Equal(t, 0.125, spec.CellVolume())
	assert.Equal(t, geom.Vec(-0.75, 0.25, 0.25), spec.CellCentre(0, 0, 0))

	assert.True(t, spec.Contains(geom.Vec(-1, 0, 0)))
	assert.True(t, spec.Contains(geom.Vec(0.99, 0.5, 0.49)))
	assert.False(t, spec.Contains(geom.Vec(1, 0.5, 0.25)), "upper bound is exclusive")
	assert.False(t, spec.Contains(geom.Vec(0, -0.01, 0.25)))
}

func TestNewSpecRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		field string
		build func() (Spec, error)
	}{
		"zero size": {"size", func() (Spec, error) {
			return NewSpec([3]int{4, 0, 1}, geom.Zero, geom.Vec(1, 1, 1), 1)
		}},
		"inverted box": {"max", func() (Spec, error) {
			return NewSpec([3]int{4, 4, 1}, geom.Vec(0, 2, 0), geom.Vec(1, 1, 1), 1)
		}},
		"negative step": {"step", func() (Spec, error) {
			return NewSpecWithStep([3]int{4, 4, 1}, geom.Zero, geom.Vec(1, -1, 1), 1)
		}},
		"nan min": {"min", func() (Spec, error) {
			return NewSpecWithStep([3]int{4, 4, 1}, geom.Vec(math.NaN(), 0, 0), geom.Vec(1, 1, 1), 1)
		}},
		"zero dt": {"time_step", func() (Spec, error) {
			return NewSpecWithStep([3]int{4, 4, 1}, geom.Zero, geom.Vec(1, 1, 1), 0)
		}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tc.build()
			require.ErrorIs(t, err, ErrInvalidConfig)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Spec{}, spectral.PSATD)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	spec, err := NewSpecWithStep([3]int{2, 2, 2}, geom.Zero, geom.Vec(1, 1, 1), 1)
	require.NoError(t, err)
	_, err = New(spec, spectral.PSATD, WithLightSpeed(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(spec, spectral.Scheme(17))
	assert.ErrorIs(t, err, spectral.ErrUnknownScheme)
}

func TestComponents(t *testing.T) {
	for _, c := range []Component{E, B, J} {
		got, err := ParseComponent(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseComponent("H")
	assert.ErrorIs(t, err, ErrUnknownComponent)

	g := line(t, spectral.PSATD, 4, 0.1)
	assert.ErrorIs(t, g.SetField(Component(5), func(geom.Vector3d) geom.Vector3d { return geom.Zero }), ErrUnknownComponent)
	_, err = g.FieldAt(Component(5), 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownComponent)
	_, err = g.FieldAt(E, 4, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestZeroFieldStaysZero(t *testing.T) {
	for _, scheme := range allSchemes {
		t.Run(scheme.String(), func(t *testing.T) {
			spec, err := NewSpec([3]int{8, 4, 2}, geom.Zero, geom.Vec(1, 1, 1), 0.01)
			require.NoError(t, err)
			g, err := New(spec, scheme, WithLightSpeed(1))
			require.NoError(t, err)
			assert.Equal(t, scheme, g.Scheme())

			for i := 0; i < 4; i++ {
				require.NoError(t, g.UpdateFields())
			}
			assert.Equal(t, 4, g.Iteration())
			assert.InDelta(t, 0.04, g.Time(), 1e-15)
			assert.Zero(t, g.Energy())
			e, b, ok := g.Sample(geom.Vec(0.3, 0.6, 0.9))
			assert.True(t, ok)
			assert.True(t, e.IsZero())
			assert.True(t, b.IsZero())
		})
	}
}

func TestPSATDPlaneWavePhase(t *testing.T) {
	const n, dt, steps = 32, 2.0, 15
	g := line(t, spectral.PSATD, n, dt)
	k := 2 * math.Pi * 2 / n
	wave := func(p geom.Vector3d) (geom.Vector3d, geom.Vector3d) {
		s := math.Sin(k * p.X)
		return geom.Vec(0, s, 0), geom.Vec(0, 0, s)
	}
	require.NoError(t, g.SetEMField(wave))
	e0 := g.Energy()

	for i := 0; i < steps; i++ {
		require.NoError(t, g.UpdateFields())
	}
	ct := g.LightSpeed() * g.Time()
	for i := 0; i < n; i++ {
		p := g.CellCentre(i, 0, 0)
		e, b, ok := g.Sample(p)
		require.True(t, ok)
		want := math.Sin(k * (p.X - ct))
		assert.InDelta(t, want, e.Y, 1e-9, "E_y at x=%g", p.X)
		assert.InDelta(t, want, b.Z, 1e-9, "B_z at x=%g", p.X)
		assert.InDelta(t, 0, e.X, 1e-12)
	}
	assert.InEpsilon(t, e0, g.Energy(), 1e-9)
}

func TestPSTDCourantLimit(t *testing.T) {
	const n = 16
	limit := spectral.CourantLimit([3]float64{1, 1, 1}, [3]int{n, 1, 1}, 1)
	init := func(p geom.Vector3d) geom.Vector3d {
		return geom.Vec(0, math.Sin(2*math.Pi*7*p.X/n)+math.Sin(2*math.Pi*p.X/n), 0)
	}

	t.Run("unstable above", func(t *testing.T) {
		g := line(t, spectral.PSTD, n, 1.5*limit)
		require.NoError(t, g.SetField(E, init))
		e0 := g.Energy()
		for i := 0; i < 30; i++ {
			require.NoError(t, g.UpdateFields())
		}
		assert.Greater(t, g.Energy(), 1e6*e0)
	})

	t.Run("stable below", func(t *testing.T) {
		g := line(t, spectral.PSTD, n, 0.9*limit)
		require.NoError(t, g.SetField(E, init))
		e0 := g.Energy()
		for i := 0; i < 200; i++ {
			require.NoError(t, g.UpdateFields())
			require.Less(t, g.Energy(), 5*e0, "step %d", i)
		}
	})
}

func TestStaggeredEnergyBounded(t *testing.T) {
	const n = 16
	g := line(t, spectral.PSATDTimeStaggered, n, 0.5)
	require.NoError(t, g.SetEMField(func(p geom.Vector3d) (geom.Vector3d, geom.Vector3d) {
		s := math.Sin(2 * math.Pi * p.X / n)
		return geom.Vec(0, s, 0), geom.Vec(0, 0, s)
	}))
	e0 := g.Energy()
	for i := 0; i < 200; i++ {
		require.NoError(t, g.UpdateFields())
	}
	assert.InEpsilon(t, e0, g.Energy(), 0.05)
}

func plane(t *testing.T, n int) *Grid {
	t.Helper()
	spec, err := NewSpecWithStep([3]int{n, n, 1}, geom.Zero, geom.Vec(1, 1, 1), 0.1)
	require.NoError(t, err)
	g, err := New(spec, spectral.PSATD, WithLightSpeed(1), WithWorkers(3))
	require.NoError(t, err)
	return g
}

func TestPoissonCorrectionRemovesDivergence(t *testing.T) {
	const n = 16
	g := plane(t, n)
	k := 2 * math.Pi / n
	require.NoError(t, g.SetField(E, func(p geom.Vector3d) geom.Vector3d {
		return geom.Vec(math.Sin(k*p.Y)+math.Cos(k*p.X), math.Sin(k*p.X), 0)
	}))

	div, err := g.Divergence(E)
	require.NoError(t, err)
	assert.Greater(t, maxAbs(div), 0.1)

	require.NoError(t, g.ApplyPoissonCorrection())
	div, err = g.Divergence(E)
	require.NoError(t, err)
	assert.Less(t, maxAbs(div), 1e-12)

	// central differences agree for the smooth corrected field
	assert.Less(t, maxAbs(finiteDivergence(t, g)), 1e-12)

	before := snapshot(t, g, E)
	require.NoError(t, g.ApplyPoissonCorrection())
	after := snapshot(t, g, E)
	for i := range before {
		assert.True(t, before[i].ApproxEqual(after[i], 1e-12), "correction is idempotent at %d", i)
	}
	for i := 0; i < n; i++ {
		v, err := g.FieldAt(E, i, 3, 0)
		require.NoError(t, err)
		p := g.CellCentre(i, 3, 0)
		assert.InDelta(t, math.Sin(k*p.Y), v.X, 1e-12)
		assert.InDelta(t, math.Sin(k*p.X), v.Y, 1e-12)
	}
}

func TestPoissonCorrectionWithCharge(t *testing.T) {
	const n, rho0 = 16, 0.01
	g := plane(t, n)
	k := 2 * math.Pi / n
	require.NoError(t, g.SetChargeDensity(func(p geom.Vector3d) float64 {
		return rho0 * math.Sin(k*p.X)
	}))
	require.NoError(t, g.ApplyPoissonCorrection())

	div, err := g.Divergence(E)
	require.NoError(t, err)
	rho := g.ChargeDensity()
	for i := range div {
		assert.InDelta(t, 4*math.Pi*rho[i], div[i], 1e-12)
	}
	v, err := g.FieldAt(E, 5, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -4*math.Pi*rho0*math.Cos(k*5.5)/k, v.X, 1e-12)
}

func TestPoissonCorrectionAfterStepping(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.1)
	require.NoError(t, g.UpdateFields())
	assert.ErrorIs(t, g.ApplyPoissonCorrection(), ErrSteppingStarted)
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// finiteDivergence is the central-difference divergence of E on a grid
// with a single cell along z.
func finiteDivergence(t *testing.T, g *Grid) []float64 {
	t.Helper()
	size := g.Spec().Size()
	nx, ny := size[0], size[1]
	at := func(i, j int) geom.Vector3d {
		v, err := g.FieldAt(E, (i+nx)%nx, (j+ny)%ny, 0)
		require.NoError(t, err)
		return v
	}
	out := make([]float64, 0, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			dx := (at(i+1, j).X - at(i-1, j).X) / 2
			dy := (at(i, j+1).Y - at(i, j-1).Y) / 2
			out = append(out, dx+dy)
		}
	}
	return out
}

func snapshot(t *testing.T, g *Grid, c Component) []geom.Vector3d {
	t.Helper()
	size := g.Spec().Size()
	var out []geom.Vector3d
	for i := 0; i < size[0]; i++ {
		for j := 0; j < size[1]; j++ {
			for k := 0; k < size[2]; k++ {
				v, err := g.FieldAt(c, i, j, k)
				require.NoError(t, err)
				out = append(out, v)
			}
		}
	}
	return out
}

func TestSampleInterpolatesAndWraps(t *testing.T) {
	g := line(t, spectral.PSATD, 8, 0.1)
	require.NoError(t, g.SetFieldComponents(E,
		func(p geom.Vector3d) float64 { return p.X },
		func(geom.Vector3d) float64 { return 2 },
		func(geom.Vector3d) float64 { return 0 },
	))

	cases := map[float64]float64{
		3.25: 3.25,
		2.5:  2.5,
		7.75: 0.75*7.5 + 0.25*0.5,
		0.25: 0.25*7.5 + 0.75*0.5,
	}
	for x, want := range cases {
		e, b, ok := g.Sample(geom.Vec(x, 0.5, 0.5))
		require.True(t, ok)
		assert.InDelta(t, want, e.X, 1e-12, "x=%g", x)
		assert.InDelta(t, 2, e.Y, 1e-12)
		assert.True(t, b.IsZero())
	}

	for _, p := range []geom.Vector3d{{X: 8, Y: 0.5}, {X: -0.1, Y: 0.5}, {X: 1, Y: 1.5}} {
		e, b, ok := g.Sample(p)
		assert.False(t, ok, "%v is outside", p)
		assert.True(t, e.IsZero())
		assert.True(t, b.IsZero())
	}
}

func TestSetWorldFieldRotatesIntoLocalFrame(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.1,
		WithMapping(mapping.Compose(mapping.NewRotation(geom.Z, math.Pi/2), mapping.NewShift(geom.Vec(10, 0, 0)))))

	require.NoError(t, g.SetWorldField(E, func(w geom.Vector3d) geom.Vector3d {
		return geom.Vec(1, 0, w.X)
	}))
	for i := 0; i < 4; i++ {
		v, err := g.FieldAt(E, i, 0, 0)
		require.NoError(t, err)
		c := g.CellCentre(i, 0, 0)
		world := g.Mapping().ToWorld(c)
		assert.InDelta(t, 10-c.Y, world.X, 1e-12)
		assert.True(t, v.ApproxEqual(geom.Vec(0, -1, world.X), 1e-12), "cell %d: %v", i, v)
	}
}

func TestSetWorldFieldZeroesInvalidImages(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.1,
		WithMapping(mapping.NewBoundedIdentity(geom.Vec(0, 0, 0), geom.Vec(2, 1, 1))))
	require.NoError(t, g.SetWorldField(B, func(geom.Vector3d) geom.Vector3d { return geom.Vec(1, 1, 1) }))
	for i, want := range []geom.Vector3d{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {}, {}} {
		v, err := g.FieldAt(B, i, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestGridIsMappingClock(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 5)
	tf, err := mapping.NewTightFocusing(mapping.TightFocusingParams{
		FocalRadius: 16, PulseLength: 2, BandWidth: 7, Axis: geom.X, LightSpeed: 1,
	}, g)
	require.NoError(t, err)
	g.SetMapping(tf)

	p := geom.Vec(4, 0.5, 0)
	assert.False(t, tf.IsValid(p))
	for i := 0; i < 4; i++ {
		require.NoError(t, g.UpdateFields())
	}
	assert.Equal(t, 20.0, g.Time())
	assert.True(t, tf.IsValid(p))

	// the mapping reads the clock while the grid holds its field lock
	require.NoError(t, g.SetWorldField(E, func(geom.Vector3d) geom.Vector3d { return geom.Vec(0, 1, 0) }))
}

func TestUniformCurrent(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.5)
	require.NoError(t, g.SetField(J, func(geom.Vector3d) geom.Vector3d { return geom.Vec(0, 0, 2) }))
	require.NoError(t, g.UpdateFields())
	v, err := g.FieldAt(E, 1, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -4*math.Pi, v.Z, 1e-12)
}

func TestEnergy(t *testing.T) {
	spec, err := NewSpec([3]int{2, 2, 2}, geom.Zero, geom.Vec(2, 4, 1), 1)
	require.NoError(t, err)
	g, err := New(spec, spectral.PSATD)
	require.NoError(t, err)
	require.NoError(t, g.SetEMField(func(geom.Vector3d) (geom.Vector3d, geom.Vector3d) {
		return geom.Vec(1, 0, 0), geom.Vec(0, 2, 0)
	}))
	assert.InDelta(t, 5*8/(8*math.Pi), g.Energy(), 1e-12)
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Physics.LightSpeed = 1
	cfg.Solver.Workers = 2
	gc := config.GridConfig{
		Name: "box", Scheme: "psatd",
		Size: [3]int{8, 8, 1}, Min: [3]float64{0, 0, 0}, Max: [3]float64{8, 8, 1},
		TimeStep: 0.5, Poisson: true,
	}

	g, err := FromConfig(gc, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, spectral.PSATD, g.Scheme())
	assert.Equal(t, 1.0, g.LightSpeed())
	assert.Equal(t, geom.Vec(1, 1, 1), g.Spec().Step())

	k := 2 * math.Pi / 8
	require.NoError(t, g.SetField(E, func(p geom.Vector3d) geom.Vector3d {
		return geom.Vec(math.Cos(k*p.X), 0, 0)
	}))
	require.NoError(t, g.UpdateFields())
	div, err := g.Divergence(E)
	require.NoError(t, err)
	assert.Less(t, maxAbs(div), 1e-12, "initial correction removed the longitudinal field")

	gc.Scheme = "yee"
	_, err = FromConfig(gc, cfg, nil)
	assert.ErrorIs(t, err, spectral.ErrUnknownScheme)

	gc.Scheme = "psatd"
	gc.Size[0] = 0
	_, err = FromConfig(gc, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromConfigWarnsAboveCourantLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.DefaultConfig()
	cfg.Physics.LightSpeed = 1
	gc := config.GridConfig{
		Name: "fast", Scheme: "pstd",
		Size: [3]int{16, 1, 1}, Max: [3]float64{16, 1, 1},
		TimeStep: 1,
	}
	_, err := FromConfig(gc, cfg, zap.New(core))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Contains(t, entry.Message, "Courant")
	assert.Equal(t, "fast", entry.ContextMap()["name"])

	gc.TimeStep = 0.5
	_, err = FromConfig(gc, cfg, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestMappingStack(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.1, WithMapping(mapping.NewShift(geom.Vec(1, 0, 0))))
	assert.Equal(t, mapping.KindShift, g.Mapping().Kind())

	g.PushMapping(mapping.NewRotation(geom.Z, math.Pi/2))
	assert.Equal(t, mapping.KindComposed, g.Mapping().Kind())
	// shift first, then rotate
	assert.True(t, g.Mapping().ToWorld(geom.Vec(1, 0, 0)).ApproxEqual(geom.Vec(0, 2, 0), 1e-12))

	m, ok := g.PopMapping()
	require.True(t, ok)
	assert.Equal(t, mapping.KindRotation, m.Kind())
	assert.Equal(t, mapping.KindShift, g.Mapping().Kind())

	_, ok = g.PopMapping()
	require.True(t, ok)
	assert.Equal(t, mapping.KindIdentity, g.Mapping().Kind())
	_, ok = g.PopMapping()
	assert.False(t, ok)

	g.PushMapping(mapping.NewShift(geom.Vec(0, 0, 1)))
	g.SetMapping(nil)
	assert.Equal(t, mapping.KindIdentity, g.Mapping().Kind())
	_, ok = g.PopMapping()
	assert.False(t, ok)
}

func TestSetFieldAtTime(t *testing.T) {
	g := line(t, spectral.PSATD, 4, 0.1)
	require.NoError(t, g.SetFieldAtTime(J, func(p geom.Vector3d, t float64) geom.Vector3d {
		return p.Scale(t)
	}, 2))
	v, err := g.FieldAt(J, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, geom.Vec(3, 1, 1), v)
}

func TestAnalyticalGrid(t *testing.T) {
	g := line(t, spectral.PSATD, 8, 0.25)
	wave := func(p geom.Vector3d, t float64) geom.Vector3d { return geom.Vec(0, math.Sin(p.X-t), 0) }
	still := func(geom.Vector3d, float64) geom.Vector3d { return geom.Vec(0, 0, 1) }
	require.NoError(t, g.SetAnalytical(wave, still))
	assert.True(t, g.Analytical())

	for i := 0; i < 3; i++ {
		require.NoError(t, g.UpdateFields())
	}
	assert.Equal(t, 3, g.Iteration())

	e, b, ok := g.Sample(geom.Vec(2.3, 0.5, 0.5))
	require.True(t, ok)
	assert.InDelta(t, math.Sin(2.3-0.75), e.Y, 1e-15)
	assert.Equal(t, geom.Vec(0, 0, 1), b)

	v, err := g.FieldAt(E, 5, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sin(5.5-0.75), v.Y, 1e-15)

	assert.ErrorIs(t, g.SetAnalytical(wave, nil), ErrInvalidConfig)
	require.NoError(t, g.SetAnalytical(nil, nil))
	assert.False(t, g.Analytical())
}
