package expr

import (
	"fmt"
	"math"

	"hichi/geom"
	"hichi/internal/parallel"
)

// Plane is a rectangular lattice of world points: point (r, c) is
// Origin + r·Row + c·Col.
type Plane struct {
	Origin     geom.Vector3d
	Row, Col   geom.Vector3d
	Rows, Cols int
}

// At returns the world point of lattice node (r, c).
func (p Plane) At(r, c int) geom.Vector3d {
	return p.Origin.Add(p.Row.Scale(float64(r))).Add(p.Col.Scale(float64(c)))
}

// AxisPlane returns the plane normal to axis at coordinate coord, covering
// the box [min, max) with rows × cols cell-centred points. Rows run along
// the first remaining axis in x, y, z order and columns along the second,
// so a z-plane has rows along x and columns along y. Extent is
// [rowMin, rowMax, colMin, colMax].
func AxisPlane(axis geom.Axis, coord float64, min, max geom.Vector3d, rows, cols int) (Plane, [4]float64) {
	ra, ca := planeAxes(axis)
	dr := (max.Component(ra) - min.Component(ra)) / float64(rows)
	dc := (max.Component(ca) - min.Component(ca)) / float64(cols)

	origin := min.With(axis, coord).
		With(ra, min.Component(ra)+dr/2).
		With(ca, min.Component(ca)+dc/2)
	p := Plane{
		Origin: origin,
		Row:    geom.Zero.With(ra, dr),
		Col:    geom.Zero.With(ca, dc),
		Rows:   rows,
		Cols:   cols,
	}
	extent := [4]float64{min.Component(ra), max.Component(ra), min.Component(ca), max.Component(ca)}
	return p, extent
}

// planeAxes returns the row and column axes of a plane normal to axis.
func planeAxes(axis geom.Axis) (row, col geom.Axis) {
	switch axis {
	case geom.X:
		return geom.Y, geom.Z
	case geom.Y:
		return geom.X, geom.Z
	default:
		return geom.X, geom.Y
	}
}

// SamplePlane samples f at every node of p. Rows are evaluated
// concurrently on at most workers goroutines (<= 0 means GOMAXPROCS).
func SamplePlane(f Field, p Plane, workers int) ([][]Sample, error) {
	if p.Rows <= 0 || p.Cols <= 0 {
		return nil, fmt.Errorf("expr: plane of %d×%d points", p.Rows, p.Cols)
	}
	out := make([][]Sample, p.Rows)
	for r := range out {
		out[r] = make([]Sample, p.Cols)
	}
	err := parallel.For(workers, p.Rows, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			for c := 0; c < p.Cols; c++ {
				out[r][c] = f.Sample(p.At(r, c))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SampleLine samples f at n evenly spaced points from `from` to `to`
// inclusive.
func SampleLine(f Field, from, to geom.Vector3d, n, workers int) ([]Sample, error) {
	if n < 2 {
		return nil, fmt.Errorf("expr: line needs at least 2 points, got %d", n)
	}
	step := to.Sub(from).Scale(1 / float64(n-1))
	p := Plane{Origin: from, Row: step, Rows: n, Cols: 1}
	rows, err := SamplePlane(f, p, workers)
	if err != nil {
		return nil, err
	}
	out := make([]Sample, n)
	for i := range rows {
		out[i] = rows[i][0]
	}
	return out, nil
}

// Project maps each sample through pick. Invalid samples become NaN so
// renderers can mask them.
func Project(samples [][]Sample, pick func(Sample) float64) [][]float64 {
	out := make([][]float64, len(samples))
	for r, row := range samples {
		out[r] = make([]float64, len(row))
		for c, s := range row {
			if !s.Valid {
				out[r][c] = math.NaN()
				continue
			}
			out[r][c] = pick(s)
		}
	}
	return out
}

// Transpose swaps rows and columns of a rectangular slice.
func Transpose(in [][]float64) [][]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([][]float64, len(in[0]))
	for c := range out {
		out[c] = make([]float64, len(in))
		for r := range in {
			out[c][r] = in[r][c]
		}
	}
	return out
}
