package mapping

import (
	"errors"
	"fmt"
	"math"

	"hichi/geom"
)

// imageTolerance is the relative distance, in band periods, below which two
// periodic images are the same point.
const imageTolerance = 1e-9

// ErrInvalidParameter is returned when a mapping is constructed with
// parameters that do not describe a usable transform.
var ErrInvalidParameter = errors.New("mapping: invalid parameter")

// TightFocusingParams describes a spherical pulse converging to the origin
// along Axis (from the negative side), computed in a narrow periodic band.
type TightFocusingParams struct {
	// FocalRadius is the distance R0 from the pulse centre to the focus at t = 0.
	FocalRadius float64
	// PulseLength is the radial thickness L of the pulse.
	PulseLength float64
	// BandWidth is the extent D of the computational band along Axis.
	BandWidth float64
	// CutAngle, when positive, discards points whose angle to the axis line
	// exceeds it, which removes the secondary images near the equator.
	CutAngle float64
	// Axis is the propagation axis.
	Axis geom.Axis
	// LightSpeed converts the clock time into the pulse displacement.
	LightSpeed float64
}

// TightFocusing maps the thin band [XMin, XMax) along the propagation axis
// onto the spherical shell swept by a focusing pulse. World points are
// folded periodically into the band; a band point is sent back to the
// periodic image that lies inside the pulse area at the current time.
type TightFocusing struct {
	params   TightFocusingParams
	rMax     float64
	band     Periodic
	cut      bool
	cosLimit float64
	clock    Clock
}

// NewTightFocusing validates p and returns the mapping. clock supplies the
// simulation time (usually the grid the mapping is attached to); a nil clock
// freezes the mapping at t = 0.
func NewTightFocusing(p TightFocusingParams, clock Clock) (*TightFocusing, error) {
	switch {
	case p.FocalRadius <= 0:
		return nil, fmt.Errorf("%w: focal radius %g must be positive", ErrInvalidParameter, p.FocalRadius)
	case p.PulseLength <= 0:
		return nil, fmt.Errorf("%w: pulse length %g must be positive", ErrInvalidParameter, p.PulseLength)
	case p.BandWidth <= 0:
		return nil, fmt.Errorf("%w: band width %g must be positive", ErrInvalidParameter, p.BandWidth)
	case p.LightSpeed <= 0:
		return nil, fmt.Errorf("%w: light speed %g must be positive", ErrInvalidParameter, p.LightSpeed)
	case p.CutAngle < 0 || p.CutAngle > math.Pi/2:
		return nil, fmt.Errorf("%w: cut angle %g outside [0, π/2]", ErrInvalidParameter, p.CutAngle)
	case !p.Axis.Valid():
		return nil, fmt.Errorf("%w: axis %v", ErrInvalidParameter, p.Axis)
	}
	if clock == nil {
		clock = staticClock(0)
	}
	cMax := -p.FocalRadius + 0.5*p.PulseLength
	return &TightFocusing{
		params:   p,
		rMax:     p.FocalRadius + 0.5*p.PulseLength,
		band:     Periodic{Axis: p.Axis, CMin: cMax - p.BandWidth, CMax: cMax},
		cut:      true,
		cosLimit: math.Cos(p.CutAngle),
		clock:    clock,
	}, nil
}

// Params returns the construction parameters.
func (m *TightFocusing) Params() TightFocusingParams { return m.params }

// XMin returns the lower bound of the band along the propagation axis.
func (m *TightFocusing) XMin() float64 { return m.band.CMin }

// XMax returns the upper bound of the band along the propagation axis.
func (m *TightFocusing) XMax() float64 { return m.band.CMax }

// SetCut enables or disables clipping to the pulse area. With clipping
// disabled every world point is valid and the secondary periodic images
// of the pulse remain visible.
func (m *TightFocusing) SetCut(cut bool) { m.cut = cut }

// Cut reports whether clipping to the pulse area is enabled.
func (m *TightFocusing) Cut() bool { return m.cut }

// Kind returns KindTightFocusing.
func (m *TightFocusing) Kind() Kind { return KindTightFocusing }

// ToLocal folds world into the band.
func (m *TightFocusing) ToLocal(world geom.Vector3d) geom.Vector3d {
	return m.band.ToLocal(world)
}

// ToWorld returns the periodic image of local nearest to the band that
// lies in the pulse area. If there is none, local is returned unchanged
// and IsValid on the result is false.
func (m *TightFocusing) ToWorld(local geom.Vector3d) geom.Vector3d {
	ct := m.params.LightSpeed * m.clock.Time()
	d := m.band.Period()
	reach := m.rMax + math.Abs(ct) + math.Abs(m.band.CMin)
	maxPeriods := int(math.Ceil(reach/d)) + 1

	c := local.Component(m.params.Axis)
	for n := 0; n <= maxPeriods; n++ {
		for _, sign := range []float64{1, -1} {
			if n == 0 && sign < 0 {
				continue
			}
			p := local.With(m.params.Axis, c+sign*float64(n)*d)
			if m.inArea(p, ct) {
				return p
			}
		}
	}
	return local
}

// IsValid reports whether world lies in the pulse area and is the image
// that ToWorld picks for its band point. Each band point therefore has
// exactly one valid world image.
func (m *TightFocusing) IsValid(world geom.Vector3d) bool {
	if !m.cut {
		return true
	}
	if !m.inArea(world, m.params.LightSpeed*m.clock.Time()) {
		return false
	}
	return m.ToWorld(m.ToLocal(world)).ApproxEqual(world, imageTolerance*m.band.Period())
}

// RotationAt turns the band frame so that its propagation axis follows the
// wavefront normal at world: towards the focus on the converging side and
// away from it on the diverging side. It is the identity on the axis line,
// at the focus and outside the pulse area.
func (m *TightFocusing) RotationAt(world geom.Vector3d) geom.Matrix3 {
	if !m.IsValid(world) {
		return geom.Identity()
	}
	r := world.Norm()
	if r == 0 {
		return geom.Identity()
	}
	normal := world.Scale(1 / r)
	if world.Component(m.params.Axis) < 0 {
		normal = normal.Scale(-1)
	}
	return geom.RotationBetween(geom.Zero.With(m.params.Axis, 1), normal)
}

// inArea reports whether p lies inside the pulse at displacement ct.
func (m *TightFocusing) inArea(p geom.Vector3d, ct float64) bool {
	r := p.Norm()
	a := p.Component(m.params.Axis)
	cMax := m.band.CMax

	switch {
	case cMax+ct < 0:
		// converging towards the focus
		if r >= m.rMax-ct || r < -cMax-ct || a > 0 {
			return false
		}
	case -m.rMax+ct <= 0:
		// passing through the focus
		if a < 0 && r > cMax+m.rMax {
			return false
		}
		if a >= 0 && r > cMax+ct {
			return false
		}
	default:
		// diverging after the focus
		if r <= -m.rMax+ct || r > cMax+ct || a < 0 {
			return false
		}
	}

	if m.params.CutAngle > 0 && r > 0 {
		if math.Abs(a)/r < m.cosLimit {
			return false
		}
	}
	return true
}
