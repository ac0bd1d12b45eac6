package ometiff

import (
	"log/slog"
	"strings"

	"github.com/mrsinham/omeforge/internal/ometiff/dims"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// legacyExportMarker appears in the file names written by an OMERO export
// path whose dimension order is known to be wrong.
const legacyExportMarker = "__omero_export"

// reconcileSamples settles samples per pixel and the effective channel count
// against the first physical header. It runs before planes are located since
// the plane table is sized from its result. Running it again is a no-op.
func reconcileSamples(log *slog.Logger, series int, s *Series, d declaration, first tiff.Header) {
	if s.SamplesPerPixel != first.SamplesPerPixel {
		if s.SamplesPerPixel > 0 {
			log.Warn("SamplesPerPixel mismatch", "series", series,
				"ome", s.SamplesPerPixel, "tiff", first.SamplesPerPixel)
		}
		s.SamplesPerPixel = first.SamplesPerPixel
		s.AdjustedSamples = true
	}
	if d.ChannelCount <= 1 {
		s.AdjustedSamples = false
	}

	effC := s.DeclaredSizeC
	if !s.AdjustedSamples && s.SamplesPerPixel > 0 {
		effC /= s.SamplesPerPixel
	}
	if effC*s.SamplesPerPixel != s.DeclaredSizeC {
		effC = s.DeclaredSizeC
	}
	if effC == 0 {
		effC = 1
	}
	s.EffectiveSizeC = effC
	s.RGB = s.SamplesPerPixel > 1

	if legacyExport(d) && s.DimensionOrder != dims.XYZCT {
		log.Warn("overriding dimension order of legacy export", "series", series,
			"declared", s.DimensionOrder, "using", dims.XYZCT)
		s.DimensionOrder = dims.XYZCT
	}
}

// legacyExport matches files from one exporter that wrote unnamed channels
// and a bad dimension order. The match is intentionally narrow.
func legacyExport(d declaration) bool {
	return d.ChannelCount > 0 && d.FirstChannelName == "" &&
		len(d.Refs) > 0 && strings.Contains(d.Refs[0].FileName, legacyExportMarker)
}

// finalize cross-checks the located series against the physical header and
// collapses axes the plane count cannot support. Running it again is a no-op.
func finalize(log *slog.Logger, series int, s *Series, first tiff.Header) {
	if first.Width != s.SizeX || first.Height != s.SizeY {
		log.Warn("image size mismatch", "series", series,
			"ome", [2]int{s.SizeX, s.SizeY}, "tiff", [2]int{first.Width, first.Height})
	}
	s.PhysicalSizeX, s.PhysicalSizeY = first.Width, first.Height

	if pt, err := first.PixelType(); err == nil {
		if s.PixelType == "" {
			s.PixelType = pt
		} else if pt != s.PixelType {
			log.Warn("pixel type mismatch", "series", series, "ome", s.PixelType, "tiff", pt)
		}
		s.PhysicalPixelType = pt
	} else if s.PhysicalPixelType == "" {
		s.PhysicalPixelType = s.PixelType
	}

	if s.Empty || s.RGB || s.SizeZ*s.SizeT*s.EffectiveSizeC <= s.PlaneCount {
		return
	}
	switch s.PlaneCount {
	case s.SizeZ:
		s.SizeT = 1
		s.collapseC()
	case s.SizeT:
		s.SizeZ = 1
		s.collapseC()
	case s.EffectiveSizeC:
		s.SizeZ, s.SizeT = 1, 1
	default:
		return
	}
	log.Warn("collapsed dimensions to plane count", "series", series, "planes", s.PlaneCount,
		"z", s.SizeZ, "c", s.EffectiveSizeC, "t", s.SizeT)
}

// collapseC reduces the channel axis to one plane, keeping the declared size
// consistent so reconcileSamples derives the same effective count.
func (s *Series) collapseC() {
	s.EffectiveSizeC = 1
	if s.AdjustedSamples || s.SamplesPerPixel < 1 {
		s.DeclaredSizeC = 1
	} else {
		s.DeclaredSizeC = s.SamplesPerPixel
	}
}
