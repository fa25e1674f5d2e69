package grid

import (
	"fmt"

	"go.uber.org/zap"

	"hichi/config"
	"hichi/geom"
	"hichi/internal/logging"
	"hichi/spectral"
)

// FromConfig builds the grid described by gc using the physics and solver
// settings of cfg. A PSTD grid whose time step reaches the Courant limit is
// built anyway; the risk is logged as a warning.
func FromConfig(gc config.GridConfig, cfg *config.Config, log *zap.Logger, opts ...Option) (*Grid, error) {
	log = logging.OrNop(log).With(zap.String("name", gc.Name))

	scheme, err := spectral.ParseScheme(gc.Scheme)
	if err != nil {
		return nil, fmt.Errorf("grid %q: %w", gc.Name, err)
	}
	spec, err := NewSpec(gc.Size, geom.FromArray(gc.Min), geom.FromArray(gc.Max), gc.TimeStep)
	if err != nil {
		return nil, fmt.Errorf("grid %q: %w", gc.Name, err)
	}

	if scheme == spectral.PSTD {
		limit := spectral.CourantLimit(spec.steps(), spec.Size(), cfg.Physics.LightSpeed)
		if spec.TimeStep() >= limit {
			log.Warn("time step exceeds the PSTD Courant limit",
				zap.Float64("time_step", spec.TimeStep()),
				zap.Float64("limit", limit))
		}
	}

	base := []Option{
		WithLightSpeed(cfg.Physics.LightSpeed),
		WithWorkers(cfg.Solver.Workers),
		WithLogger(log),
		WithInitialPoissonCorrection(gc.Poisson),
	}
	g, err := New(spec, scheme, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("grid %q: %w", gc.Name, err)
	}
	return g, nil
}
