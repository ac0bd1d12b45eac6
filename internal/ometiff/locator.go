package ometiff

import (
	"log/slog"

	"github.com/mrsinham/omeforge/internal/ometiff/dims"
)

// PlaneSlot is where one logical plane lives. Certain slots were named by a
// TiffData element; the others were filled forward from an earlier one.
type PlaneSlot struct {
	File    FileID
	IFD     int
	Certain bool
}

func zeroCount(r reference) bool { return r.HasCount && r.Count == 0 }

func emptySlots(n int) []PlaneSlot {
	slots := make([]PlaneSlot, n)
	for i := range slots {
		slots[i] = PlaneSlot{File: NoFile}
	}
	return slots
}

// locate builds the plane table of one series from its TiffData references.
// files holds the resolved file of each reference. It returns the table and
// the first plane left unassigned, or -1 when every plane has a location.
// s.PlaneCount is set from the reconciled sizes, and s.Empty when the only
// reference declares zero planes. A zero count next to other references is
// dropped.
func locate(log *slog.Logger, series int, s *Series, d declaration, files []FileID) ([]PlaneSlot, int) {
	sizes := s.Sizes()
	s.PlaneCount = sizes.PlaneCount()

	if len(d.Refs) == 1 && zeroCount(d.Refs[0]) {
		s.Empty = true
		s.PlaneCount = 0
		return nil, -1
	}

	starts := make([]dims.RawStart, 0, len(d.Refs))
	for _, r := range d.Refs {
		if !zeroCount(r) {
			starts = append(starts, r.Start)
		}
	}
	indexing := dims.DetectIndexing(sizes, starts)
	if indexing != (dims.AxisIndexing{}) {
		log.Debug("detected TiffData indexing", "series", series,
			"z", indexing.Z, "c", indexing.C, "t", indexing.T)
	}

	slots := emptySlots(s.PlaneCount)
	for k, r := range d.Refs {
		if zeroCount(r) {
			log.Warn("dropping TiffData", "series", series, "tiffdata", k,
				"error", ErrInvalidCoordinateReference, "detail", "zero plane count beside other references")
			continue
		}
		start := indexing.Normalize(r.Start)
		index, err := s.DimensionOrder.Index(sizes, start)
		if err != nil {
			log.Warn("dropping TiffData", "series", series, "tiffdata", k,
				"error", ErrInvalidCoordinateReference, "detail", err)
			continue
		}

		count := 1
		if r.HasCount {
			count = r.Count
			if index+count > len(slots) {
				log.Warn("TiffData plane count exceeds image", "series", series, "tiffdata", k,
					"first", index, "count", count, "planes", len(slots))
				count = len(slots) - index
			}
		}
		for q := 0; q < count; q++ {
			slots[index+q] = PlaneSlot{File: files[k], IFD: r.IFD + q, Certain: true}
		}

		if r.HasCount {
			// A known count ends the run: clear guesses an earlier reference made past it.
			for no := index + count; no < len(slots) && !slots[no].Certain; no++ {
				slots[no] = PlaneSlot{File: NoFile}
			}
			continue
		}
		for no := index + 1; no < len(slots) && !slots[no].Certain; no++ {
			slots[no] = PlaneSlot{File: files[k], IFD: slots[no-1].IFD + 1}
		}
	}

	for no, slot := range slots {
		if slot.File == NoFile {
			return slots, no
		}
	}
	return slots, -1
}

// enumerate is the fallback table: one plane per IFD of file, in file order.
func enumerate(file FileID, headers int) []PlaneSlot {
	slots := make([]PlaneSlot, headers)
	for i := range slots {
		slots[i] = PlaneSlot{File: file, IFD: i, Certain: true}
	}
	return slots
}
