// Package mapping implements invertible coordinate transforms between the
// local frame of a grid and world space.
//
// Every mapping provides the forward transform (ToWorld), its inverse
// (ToLocal), a validity check on world points and the rotation that carries
// vectors sampled in the local frame into world orientation. Points outside
// a mapping's validity domain are not an error: IsValid reports false and
// the caller treats the point as carrying no field.
package mapping

import (
	"fmt"

	"hichi/geom"
)

// Kind tags the closed set of mapping variants.
type Kind int

const (
	KindIdentity Kind = iota
	KindShift
	KindRotation
	KindTightFocusing
	KindComposed
	KindScale
	KindPeriodic
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindShift:
		return "shift"
	case KindRotation:
		return "rotation"
	case KindTightFocusing:
		return "tight-focusing"
	case KindComposed:
		return "composed"
	case KindScale:
		return "scale"
	case KindPeriodic:
		return "periodic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Mapping is the contract shared by all variants.
type Mapping interface {
	// Kind returns the variant tag.
	Kind() Kind
	// ToWorld maps a point of the local frame into world space.
	ToWorld(local geom.Vector3d) geom.Vector3d
	// ToLocal maps a world point into the local frame.
	ToLocal(world geom.Vector3d) geom.Vector3d
	// IsValid reports whether world lies inside the domain where ToLocal is meaningful.
	IsValid(world geom.Vector3d) bool
	// RotationAt returns the matrix turning local-frame vectors sampled at
	// ToLocal(world) into world orientation.
	RotationAt(world geom.Vector3d) geom.Matrix3
}

// Clock supplies the simulation time for time-dependent mappings.
// Grids implement it.
type Clock interface {
	Time() float64
}

// staticClock is used when a time-dependent mapping is built without a clock.
type staticClock float64

func (c staticClock) Time() float64 { return float64(c) }

// Identity leaves coordinates unchanged. When bounded it is valid only
// inside the half-open box [Min, Max).
type Identity struct {
	bounded  bool
	min, max geom.Vector3d
}

// NewIdentity returns the unbounded identity mapping.
func NewIdentity() *Identity {
	return &Identity{}
}

// NewBoundedIdentity returns an identity mapping valid only on [min, max).
func NewBoundedIdentity(min, max geom.Vector3d) *Identity {
	return &Identity{bounded: true, min: min, max: max}
}

// Kind returns KindIdentity.
func (m *Identity) Kind() Kind { return KindIdentity }

// ToWorld returns local unchanged.
func (m *Identity) ToWorld(local geom.Vector3d) geom.Vector3d { return local }

// ToLocal returns world unchanged.
func (m *Identity) ToLocal(world geom.Vector3d) geom.Vector3d { return world }

// RotationAt is the identity everywhere.
func (m *Identity) RotationAt(geom.Vector3d) geom.Matrix3 { return geom.Identity() }

func (m *Identity) IsValid(world geom.Vector3d) bool {
	if !m.bounded {
		return true
	}
	return world.X >= m.min.X && world.X < m.max.X &&
		world.Y >= m.min.Y && world.Y < m.max.Y &&
		world.Z >= m.min.Z && world.Z < m.max.Z
}

// Shift translates the local frame by Offset.
type Shift struct {
	Offset geom.Vector3d
}

// NewShift returns a mapping with ToWorld(p) = p + offset.
func NewShift(offset geom.Vector3d) *Shift {
	return &Shift{Offset: offset}
}

// Kind returns KindShift.
func (m *Shift) Kind() Kind { return KindShift }

// ToWorld adds the offset.
func (m *Shift) ToWorld(local geom.Vector3d) geom.Vector3d { return local.Add(m.Offset) }

// ToLocal subtracts the offset.
func (m *Shift) ToLocal(world geom.Vector3d) geom.Vector3d { return world.Sub(m.Offset) }

// IsValid is true everywhere.
func (m *Shift) IsValid(geom.Vector3d) bool { return true }

// RotationAt is the identity everywhere.
func (m *Shift) RotationAt(geom.Vector3d) geom.Matrix3 { return geom.Identity() }

// Rotation turns the local frame about a coordinate axis by Angle radians
// according to the right-hand rule.
type Rotation struct {
	Axis  geom.Axis
	Angle float64

	matrix geom.Matrix3
}

// NewRotation returns the rotation about axis by angle radians.
func NewRotation(axis geom.Axis, angle float64) *Rotation {
	return &Rotation{Axis: axis, Angle: angle, matrix: geom.RotationAbout(axis, angle)}
}

// Kind returns KindRotation.
func (m *Rotation) Kind() Kind { return KindRotation }

// ToWorld rotates local by the angle.
func (m *Rotation) ToWorld(local geom.Vector3d) geom.Vector3d { return m.matrix.Apply(local) }

// ToLocal rotates world back by the transpose.
func (m *Rotation) ToLocal(world geom.Vector3d) geom.Vector3d { return m.matrix.Transpose().Apply(world) }

// IsValid is true everywhere.
func (m *Rotation) IsValid(geom.Vector3d) bool { return true }

// RotationAt returns the rotation matrix at every point.
func (m *Rotation) RotationAt(geom.Vector3d) geom.Matrix3 { return m.matrix }

// Matrix returns the rotation matrix.
func (m *Rotation) Matrix() geom.Matrix3 { return m.matrix }
