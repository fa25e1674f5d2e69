package geom

import (
	"fmt"
	"strings"
)

// Axis names one of the three Cartesian coordinate axes.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists X, Y, Z in order.
var Axes = [3]Axis{X, Y, Z}

// String returns the lower-case axis name.
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a is one of X, Y, Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// Next returns the axis following a in the cyclic order x → y → z → x.
func (a Axis) Next() Axis {
	return (a + 1) % 3
}

// ParseAxis converts "x", "y" or "z" (any case) into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}
