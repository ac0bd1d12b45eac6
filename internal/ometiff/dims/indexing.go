package dims

// Indexing is what a document's raw coordinates on one axis appear to count from.
type Indexing int

const (
	Unknown Indexing = iota
	ZeroIndexed
	OneIndexed
)

// String returns a readable name.
func (i Indexing) String() string {
	switch i {
	case ZeroIndexed:
		return "zero-indexed"
	case OneIndexed:
		return "one-indexed"
	default:
		return "unknown"
	}
}

// AxisIndexing holds the convention per axis. Unknown behaves as ZeroIndexed.
type AxisIndexing struct {
	Z, C, T Indexing
}

// RawStart is a reference's start coordinate as written in the document.
// Absent coordinates are not evidence and are skipped.
type RawStart struct {
	Z, C, T    int
	HasZ, HasC bool
	HasT       bool
}

// DetectIndexing guesses, per axis, whether the raw coordinates are one-indexed.
//
// This is a heuristic over partial evidence. A value equal to the axis size
// can only be valid if counting starts at one; a value of zero can only be
// valid if it starts at zero. The first such observation on an axis decides
// it and later ones are ignored. Axes with neither kind of observation stay
// Unknown.
func DetectIndexing(s Sizes, refs []RawStart) AxisIndexing {
	var ax AxisIndexing
	for _, r := range refs {
		if r.HasZ {
			ax.Z = observe(ax.Z, r.Z, s.Z)
		}
		if r.HasC {
			ax.C = observe(ax.C, r.C, s.C)
		}
		if r.HasT {
			ax.T = observe(ax.T, r.T, s.T)
		}
	}
	return ax
}

func observe(current Indexing, value, size int) Indexing {
	if current != Unknown {
		return current
	}
	switch {
	case value >= size:
		return OneIndexed
	case value == 0:
		return ZeroIndexed
	default:
		return Unknown
	}
}

// Normalize converts a raw start into zero-based coordinates. Absent
// coordinates become 0.
func (ax AxisIndexing) Normalize(r RawStart) Coord {
	return Coord{
		Z: shift(ax.Z, r.Z, r.HasZ),
		C: shift(ax.C, r.C, r.HasC),
		T: shift(ax.T, r.T, r.HasT),
	}
}

func shift(ix Indexing, v int, present bool) int {
	if !present {
		return 0
	}
	if ix == OneIndexed {
		return v - 1
	}
	return v
}
