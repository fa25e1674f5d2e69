package grid

import (
	"math"

	"hichi/geom"
)

// Spec is the immutable geometry and time step of a grid.
type Spec struct {
	size     [3]int
	min      geom.Vector3d
	step     geom.Vector3d
	timeStep float64
}

// NewSpec describes a grid of size cells spanning [min, max) with time step
// dt. The cell step is (max-min)/size.
func NewSpec(size [3]int, min, max geom.Vector3d, dt float64) (Spec, error) {
	if err := checkSize(size); err != nil {
		return Spec{}, err
	}
	for _, a := range geom.Axes {
		lo, hi := min.Component(a), max.Component(a)
		if !finite(lo) || !finite(hi) || !(hi > lo) {
			return Spec{}, configErrorf("max", "%v: max %g must exceed min %g", a, hi, lo)
		}
	}
	step := max.Sub(min).Div(geom.Vec(float64(size[0]), float64(size[1]), float64(size[2])))
	return NewSpecWithStep(size, min, step, dt)
}

// NewSpecWithStep describes a grid of size cells of the given step starting
// at min, with time step dt.
func NewSpecWithStep(size [3]int, min, step geom.Vector3d, dt float64) (Spec, error) {
	if err := checkSize(size); err != nil {
		return Spec{}, err
	}
	for _, a := range geom.Axes {
		if !finite(min.Component(a)) {
			return Spec{}, configErrorf("min", "%v is %g", a, min.Component(a))
		}
		if s := step.Component(a); !finite(s) || s <= 0 {
			return Spec{}, configErrorf("step", "%v is %g, must be positive", a, s)
		}
	}
	if !finite(dt) || dt <= 0 {
		return Spec{}, configErrorf("time_step", "%g, must be positive", dt)
	}
	return Spec{size: size, min: min, step: step, timeStep: dt}, nil
}

func checkSize(size [3]int) error {
	for a, n := range size {
		if n < 1 {
			return configErrorf("size", "%v has %d cells", geom.Axis(a), n)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Size returns the number of cells per axis.
func (s Spec) Size() [3]int { return s.size }

// Min returns the lower corner of the grid in local coordinates.
func (s Spec) Min() geom.Vector3d { return s.min }

// Step returns the cell size per axis.
func (s Spec) Step() geom.Vector3d { return s.step }

// TimeStep returns dt.
func (s Spec) TimeStep() float64 { return s.timeStep }

// CellCount returns the total number of cells.
func (s Spec) CellCount() int { return s.size[0] * s.size[1] * s.size[2] }

// CellVolume returns dV.
func (s Spec) CellVolume() float64 { return s.step.X * s.step.Y * s.step.Z }

func (s Spec) steps() [3]float64     { return s.step.Array() }
func (s Spec) index(i, j, k int) int { return (i*s.size[1]+j)*s.size[2] + k }

// centre returns the coordinate of cell idx along a.
func (s Spec) centre(a geom.Axis, idx int) float64 {
	return s.min.Component(a) + (float64(idx)+0.5)*s.step.Component(a)
}

// Max returns the upper corner min + size·step.
func (s Spec) Max() geom.Vector3d {
	return s.min.Add(s.step.Mul(geom.Vec(float64(s.size[0]), float64(s.size[1]), float64(s.size[2]))))
}

// Contains reports whether p lies in [Min, Max) on every axis.
func (s Spec) Contains(p geom.Vector3d) bool {
	max := s.Max()
	for _, a := range geom.Axes {
		c := p.Component(a)
		if c < s.min.Component(a) || c >= max.Component(a) {
			return false
		}
	}
	return true
}

// CellCentre returns the local coordinates of the centre of cell (i, j, k).
func (s Spec) CellCentre(i, j, k int) geom.Vector3d {
	return geom.Vec(s.centre(geom.X, i), s.centre(geom.Y, j), s.centre(geom.Z, k))
}
