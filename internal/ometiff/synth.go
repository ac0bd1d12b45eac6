package ometiff

import (
	"fmt"
	"maps"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
)

// IFDCounters maps a destination filename to the IFD index its next plane
// will be written at. It is carried between write sessions.
type IFDCounters map[string]int

// PlaneKey addresses one logical plane.
type PlaneKey struct {
	Series int
	Plane  int
}

// Assignment maps the planes written so far to their destination file.
type Assignment map[PlaneKey]string

// SynthesisResult holds the TiffData built for each series.
type SynthesisResult struct {
	TiffData [][]ome.TiffData
	// Emitted is the sum of the PlaneCount of this session's references.
	Emitted int
	// Counters are the input counters advanced past every emitted plane.
	Counters IFDCounters
}

// Synthesize builds one TiffData with PlaneCount 1 per assigned plane, in
// plane order, numbering IFDs per destination from counters. ref returns the
// UUID element for a destination and must return the same value for the same
// filename. A series without planes gets a single PlaneCount 0 reference.
// counters is not modified.
func Synthesize(layouts []SeriesLayout, assign Assignment, counters IFDCounters, ref func(filename string) ome.UUIDRef) (SynthesisResult, error) {
	for key := range assign {
		if key.Series < 0 || key.Series >= len(layouts) {
			return SynthesisResult{}, fmt.Errorf("%w: series %d not in [0,%d)", dims.ErrInvalidCoordinate, key.Series, len(layouts))
		}
		if n := layouts[key.Series].Sizes.PlaneCount(); key.Plane < 0 || key.Plane >= n {
			return SynthesisResult{}, seriesError("synthesize", key.Series,
				fmt.Errorf("%w: plane %d not in [0,%d)", dims.ErrInvalidCoordinate, key.Plane, n))
		}
	}

	next := maps.Clone(counters)
	if next == nil {
		next = IFDCounters{}
	}
	res := SynthesisResult{TiffData: make([][]ome.TiffData, len(layouts))}

	for s, l := range layouts {
		n := l.Sizes.PlaneCount()
		if n == 0 {
			res.TiffData[s] = []ome.TiffData{{PlaneCount: ome.Int(0)}}
			continue
		}
		for no := 0; no < n; no++ {
			file, ok := assign[PlaneKey{Series: s, Plane: no}]
			if !ok {
				continue
			}
			c, err := l.Order.Coords(l.Sizes, no)
			if err != nil {
				return SynthesisResult{}, seriesError("synthesize", s, err)
			}
			u := ref(file)
			res.TiffData[s] = append(res.TiffData[s], ome.TiffData{
				IFD:        ome.Int(next[file]),
				FirstZ:     ome.Int(c.Z),
				FirstC:     ome.Int(c.C),
				FirstT:     ome.Int(c.T),
				PlaneCount: ome.Int(1),
				UUID:       &u,
			})
			next[file]++
			res.Emitted++
		}
	}
	res.Counters = next
	return res, nil
}

// ExpectedPlanes is the number of planes a complete set of layouts holds.
func ExpectedPlanes(layouts []SeriesLayout) int {
	total := 0
	for _, l := range layouts {
		total += l.Sizes.PlaneCount()
	}
	return total
}

// Finalize returns the counters to persist after a session: none once every
// expected plane has been written across all sessions, otherwise the
// advanced counters so the next session keeps numbering IFDs where this one
// stopped. Every written plane advances exactly one counter, so their sum is
// the number of planes written so far.
func Finalize(res SynthesisResult, layouts []SeriesLayout) IFDCounters {
	if Written(res.Counters) >= ExpectedPlanes(layouts) {
		return IFDCounters{}
	}
	return res.Counters
}

// Written is the number of planes the counters account for.
func Written(counters IFDCounters) int {
	total := 0
	for _, n := range counters {
		total += n
	}
	return total
}
