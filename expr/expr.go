// Package expr combines grids into lazily evaluated field expressions.
//
// An expression is a tree of immutable nodes: grid leaves, scalings, sums
// and mapped subtrees. Nothing is computed until Sample is called at a
// world point; grids are referenced, never copied, so an expression always
// sees their current state.
package expr

import (
	"hichi/geom"
	"hichi/mapping"
)

// Sample is the field value at one world point. Invalid samples carry zero
// vectors.
type Sample struct {
	E, B  geom.Vector3d
	Valid bool
}

// Field is anything that can be sampled in world coordinates.
type Field interface {
	Sample(world geom.Vector3d) Sample
}

// Source is a grid as seen by a leaf: a mapping into its local frame and
// interpolation in that frame. *grid.Grid implements it.
type Source interface {
	Mapping() mapping.Mapping
	Sample(local geom.Vector3d) (e, b geom.Vector3d, ok bool)
}

// Expr is a handle on an expression node. Its methods return new handles
// and never modify the receiver.
type Expr struct {
	node Field
}

// Of returns the leaf expression for src.
func Of(src Source) Expr { return Expr{node: leaf{src: src}} }

// Wrap returns a handle for any Field.
func Wrap(f Field) Expr {
	if e, ok := f.(Expr); ok {
		return e
	}
	return Expr{node: f}
}

// Sample evaluates the expression at world.
func (x Expr) Sample(world geom.Vector3d) Sample {
	if x.node == nil {
		return Sample{}
	}
	return x.node.Sample(world)
}

// Scale multiplies E and B by s.
func (x Expr) Scale(s float64) Expr { return Scale(x, s) }

// Add sums x and other.
func (x Expr) Add(other Field) Expr { return Add(x, other) }

// Apply places x in world space through m.
func (x Expr) Apply(m mapping.Mapping) Expr { return ApplyMapping(x, m) }

// Scale returns f·s.
func Scale(f Field, s float64) Expr { return Expr{node: scaled{child: f, s: s}} }

// Add returns a + b. Where only one operand is valid the other contributes
// zero; the sum is invalid only where both are.
func Add(a, b Field) Expr { return Expr{node: sum{a: a, b: b}} }

// ApplyMapping evaluates f in the local frame of m and rotates the result
// back into world space.
func ApplyMapping(f Field, m mapping.Mapping) Expr {
	return Expr{node: mapped{child: f, m: m}}
}

type leaf struct {
	src Source
}

func (n leaf) Sample(world geom.Vector3d) Sample {
	m := n.src.Mapping()
	if !m.IsValid(world) {
		return Sample{}
	}
	e, b, ok := n.src.Sample(m.ToLocal(world))
	if !ok {
		return Sample{}
	}
	return rotate(m.RotationAt(world), e, b)
}

type scaled struct {
	child Field
	s     float64
}

func (n scaled) Sample(world geom.Vector3d) Sample {
	v := n.child.Sample(world)
	if !v.Valid {
		return Sample{}
	}
	return Sample{E: v.E.Scale(n.s), B: v.B.Scale(n.s), Valid: true}
}

type sum struct {
	a, b Field
}

func (n sum) Sample(world geom.Vector3d) Sample {
	va, vb := n.a.Sample(world), n.b.Sample(world)
	var out Sample
	if va.Valid {
		out = va
	}
	if vb.Valid {
		out.E = out.E.Add(vb.E)
		out.B = out.B.Add(vb.B)
		out.Valid = true
	}
	return out
}

type mapped struct {
	child Field
	m     mapping.Mapping
}

func (n mapped) Sample(world geom.Vector3d) Sample {
	if !n.m.IsValid(world) {
		return Sample{}
	}
	v := n.child.Sample(n.m.ToLocal(world))
	if !v.Valid {
		return Sample{}
	}
	return rotate(n.m.RotationAt(world), v.E, v.B)
}

func rotate(r geom.Matrix3, e, b geom.Vector3d) Sample {
	return Sample{E: r.Apply(e), B: r.Apply(b), Valid: true}
}
