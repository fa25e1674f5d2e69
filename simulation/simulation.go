// Package simulation drives a set of grids through time.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hichi/config"
	"hichi/grid"
	"hichi/internal/logging"
)

// ErrNoGrids is returned when a simulation is built without grids.
var ErrNoGrids = errors.New("simulation: no grids")

// Frame reports the state after one step of every grid.
type Frame struct {
	// Iteration counts completed simulation steps.
	Iteration int
	// Time holds the clock of each grid, in the order of Names.
	Time []float64
	// Energy holds the field energy of each grid, in the order of Names.
	Energy []float64
}

// Simulation advances named grids in lockstep: each step updates all of
// them concurrently and waits for every update before the next step.
type Simulation struct {
	names []string
	grids []*grid.Grid
	log   *zap.Logger

	iteration int
}

// New wraps existing grids. names and grids must have the same length and
// names must be unique.
func New(names []string, grids []*grid.Grid, log *zap.Logger) (*Simulation, error) {
	if len(grids) == 0 {
		return nil, ErrNoGrids
	}
	if len(names) != len(grids) {
		return nil, fmt.Errorf("simulation: %d names for %d grids", len(names), len(grids))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("simulation: duplicate grid name %q", n)
		}
		seen[n] = true
	}
	return &Simulation{
		names: append([]string(nil), names...),
		grids: append([]*grid.Grid(nil), grids...),
		log:   logging.OrNop(log),
	}, nil
}

// FromConfig validates cfg and builds every grid it describes.
func FromConfig(cfg *config.Config, log *zap.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logging.OrNop(log)
	names := make([]string, 0, len(cfg.Grids))
	grids := make([]*grid.Grid, 0, len(cfg.Grids))
	for _, gc := range cfg.Grids {
		g, err := grid.FromConfig(gc, cfg, log)
		if err != nil {
			return nil, err
		}
		names = append(names, gc.Name)
		grids = append(grids, g)
	}
	return New(names, grids, log)
}

// Names returns the grid names in order.
func (s *Simulation) Names() []string { return append([]string(nil), s.names...) }

// Iteration returns the number of completed steps.
func (s *Simulation) Iteration() int { return s.iteration }

// Grid returns the grid with the given name.
func (s *Simulation) Grid(name string) (*grid.Grid, bool) {
	for i, n := range s.names {
		if n == name {
			return s.grids[i], true
		}
	}
	return nil, false
}

// Step advances every grid by one of its time steps. ctx is checked once
// before any grid moves; once started, every grid completes the step so the
// grids stay in lockstep.
func (s *Simulation) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var g errgroup.Group
	for i, gr := range s.grids {
		gr := gr
		name := s.names[i]
		g.Go(func() error {
			if err := gr.UpdateFields(); err != nil {
				return fmt.Errorf("grid %q: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.iteration++
	return nil
}

// Frame returns the current state.
func (s *Simulation) Frame() Frame {
	f := Frame{
		Iteration: s.iteration,
		Time:      make([]float64, len(s.grids)),
		Energy:    make([]float64, len(s.grids)),
	}
	for i, g := range s.grids {
		f.Time[i] = g.Time()
		f.Energy[i] = g.Energy()
	}
	return f
}

// Run performs steps until ctx is done or, when steps > 0, until that many
// steps have been taken. After every step a Frame is offered to frames
// without blocking; frames is optional and is not closed. The returned
// error is nil on completion and ctx.Err() on cancellation.
func (s *Simulation) Run(ctx context.Context, steps int, frames chan<- Frame) error {
	s.log.Info("simulation started", zap.Strings("grids", s.names), zap.Int("steps", steps))
	for n := 0; steps <= 0 || n < steps; n++ {
		select {
		case <-ctx.Done():
			s.log.Info("simulation cancelled", zap.Int("iteration", s.iteration))
			return ctx.Err()
		default:
		}

		if err := s.Step(ctx); err != nil {
			s.log.Error("step failed", zap.Int("iteration", s.iteration), zap.Error(err))
			return err
		}
		if frames == nil {
			continue
		}
		select {
		case frames <- s.Frame():
		default:
			s.log.Debug("frame channel full, skipping frame", zap.Int("iteration", s.iteration))
		}
	}
	s.log.Info("simulation finished", zap.Int("iteration", s.iteration))
	return nil
}
