// Package dims converts between logical (Z, C, T) plane coordinates and
// linear plane indices for a declared dimension order, and detects whether
// a document indexes those axes from zero or from one.
package dims

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOrder      = errors.New("invalid dimension order")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// Axis is one of the plane axes.
type Axis byte

const (
	Z Axis = 'Z'
	C Axis = 'C'
	T Axis = 'T'
)

// String returns the axis letter.
func (a Axis) String() string { return string(rune(a)) }

// Order is a validated dimension order such as "XYZCT". The three plane
// axes are listed fastest-varying first.
type Order string

// XYZCT is the default order and the one forced by the legacy-export fix.
const (
	XYZCT Order = "XYZCT"
	XYCZT Order = "XYCZT"
)

// ParseOrder validates a dimension order string. Matching is case-insensitive.
func ParseOrder(s string) (Order, error) {
	o := strings.ToUpper(strings.TrimSpace(s))
	if len(o) != 5 || !strings.HasPrefix(o, "XY") {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
	rest := o[2:]
	for _, axis := range "ZCT" {
		if strings.Count(rest, string(axis)) != 1 {
			return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
		}
	}
	return Order(o), nil
}

// Axes returns the plane axes from fastest to slowest.
func (o Order) Axes() [3]Axis {
	return [3]Axis{Axis(o[2]), Axis(o[3]), Axis(o[4])}
}

// Sizes holds the extents of the plane axes.
type Sizes struct {
	Z, C, T int
}

// PlaneCount returns Z*C*T.
func (s Sizes) PlaneCount() int { return s.Z * s.C * s.T }

// Of returns the extent of one axis.
func (s Sizes) Of(a Axis) int {
	switch a {
	case Z:
		return s.Z
	case C:
		return s.C
	default:
		return s.T
	}
}

// Coord is a plane position.
type Coord struct {
	Z, C, T int
}

// Of returns the value of one axis.
func (c Coord) Of(a Axis) int {
	switch a {
	case Z:
		return c.Z
	case C:
		return c.C
	default:
		return c.T
	}
}

func (c *Coord) set(a Axis, v int) {
	switch a {
	case Z:
		c.Z = v
	case C:
		c.C = v
	default:
		c.T = v
	}
}

// Index returns the linear plane index of c.
func (o Order) Index(s Sizes, c Coord) (int, error) {
	axes := o.Axes()
	index, stride := 0, 1
	for _, a := range axes {
		v, n := c.Of(a), s.Of(a)
		if n <= 0 {
			return 0, fmt.Errorf("%w: size %s is %d", ErrInvalidCoordinate, a, n)
		}
		if v < 0 || v >= n {
			return 0, fmt.Errorf("%w: %s=%d not in [0,%d)", ErrInvalidCoordinate, a, v, n)
		}
		index += v * stride
		stride *= n
	}
	return index, nil
}

// Coords is the inverse of Index.
func (o Order) Coords(s Sizes, index int) (Coord, error) {
	total := s.PlaneCount()
	if s.Z <= 0 || s.C <= 0 || s.T <= 0 {
		return Coord{}, fmt.Errorf("%w: sizes %+v", ErrInvalidCoordinate, s)
	}
	if index < 0 || index >= total {
		return Coord{}, fmt.Errorf("%w: index %d not in [0,%d)", ErrInvalidCoordinate, index, total)
	}
	var c Coord
	for _, a := range o.Axes() {
		n := s.Of(a)
		c.set(a, index%n)
		index /= n
	}
	return c, nil
}
