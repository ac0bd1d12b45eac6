// Package ometiff maps the logical planes of an OME-TIFF file set to the
// files and IFDs that hold them, and builds the reverse mapping on write.
package ometiff

import (
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
)

// Series is the reconciled geometry of one image.
type Series struct {
	ImageID string
	Name    string

	SizeX, SizeY int
	SizeZ, SizeT int
	// DeclaredSizeC is the document's SizeC; EffectiveSizeC is the channel
	// extent used for plane indexing once samples per pixel are accounted for.
	DeclaredSizeC   int
	EffectiveSizeC  int
	SamplesPerPixel int
	DimensionOrder  dims.Order

	PixelType         ome.PixelType
	PhysicalPixelType ome.PixelType
	PhysicalSizeX     int
	PhysicalSizeY     int

	PlaneCount      int
	AdjustedSamples bool
	RGB             bool
	// Empty is set for series declared with a zero plane count.
	Empty bool
}

// Sizes returns the plane axis extents used for indexing.
func (s Series) Sizes() dims.Sizes {
	return dims.Sizes{Z: s.SizeZ, C: s.EffectiveSizeC, T: s.SizeT}
}

// PlaneIndex returns the linear plane number of (z, c, t).
func (s Series) PlaneIndex(z, c, t int) (int, error) {
	return s.DimensionOrder.Index(s.Sizes(), dims.Coord{Z: z, C: c, T: t})
}

// PlaneCoord is the inverse of PlaneIndex.
func (s Series) PlaneCoord(no int) (dims.Coord, error) {
	return s.DimensionOrder.Coords(s.Sizes(), no)
}

func newSeries(d declaration) Series {
	return Series{
		ImageID:         d.ImageID,
		Name:            d.Name,
		SizeX:           d.SizeX,
		SizeY:           d.SizeY,
		SizeZ:           d.SizeZ,
		SizeT:           d.SizeT,
		DeclaredSizeC:   d.SizeC,
		EffectiveSizeC:  d.SizeC,
		SamplesPerPixel: d.SamplesPerPixel,
		DimensionOrder:  d.Order,
		PixelType:       d.PixelType,
	}
}
