package ometiff

import (
	"fmt"
	"path/filepath"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// reference is one TiffData element as declared in the document.
type reference struct {
	Index    int
	Start    dims.RawStart
	IFD      int
	Count    int
	HasCount bool
	UUID     string
	FileName string
}

// declaration is what the document says about one series.
type declaration struct {
	ImageID          string
	Name             string
	SizeX, SizeY     int
	SizeZ, SizeC     int
	SizeT            int
	Order            dims.Order
	PixelType        ome.PixelType
	SamplesPerPixel  int
	ChannelCount     int
	FirstChannelName string
	Refs             []reference
}

// declarations reads every series of the store. Axis sizes below one are
// raised to one; an empty dimension order defaults to XYZCT.
func declarations(store ome.MetadataStore) ([]declaration, error) {
	out := make([]declaration, store.ImageCount())
	for i := range out {
		d := declaration{
			ImageID:      store.ImageID(i),
			Name:         store.ImageName(i),
			SizeX:        store.PixelsSizeX(i),
			SizeY:        store.PixelsSizeY(i),
			SizeZ:        atLeastOne(store.PixelsSizeZ(i)),
			SizeC:        atLeastOne(store.PixelsSizeC(i)),
			SizeT:        atLeastOne(store.PixelsSizeT(i)),
			ChannelCount: store.ChannelCount(i),
		}

		order := dims.XYZCT
		if raw := store.PixelsDimensionOrder(i); raw != "" {
			o, err := dims.ParseOrder(raw)
			if err != nil {
				return nil, seriesError("read metadata", i, fmt.Errorf("%w: %w", ErrMetadataParse, err))
			}
			order = o
		}
		d.Order = order

		if raw := store.PixelsType(i); raw != "" {
			pt, err := ome.ParsePixelType(raw)
			if err != nil {
				return nil, seriesError("read metadata", i, fmt.Errorf("%w: %w", ErrMetadataParse, err))
			}
			d.PixelType = pt
		}

		if d.ChannelCount > 0 {
			d.FirstChannelName = store.ChannelName(i, 0)
			if spp, ok := store.ChannelSamplesPerPixel(i, 0); ok {
				d.SamplesPerPixel = spp
			}
		}

		for td := 0; td < store.TiffDataCount(i); td++ {
			r := reference{Index: td}
			r.Start.Z, r.Start.HasZ = store.TiffDataFirstZ(i, td)
			r.Start.C, r.Start.HasC = store.TiffDataFirstC(i, td)
			r.Start.T, r.Start.HasT = store.TiffDataFirstT(i, td)
			r.IFD, _ = store.TiffDataIFD(i, td)
			r.Count, r.HasCount = store.TiffDataPlaneCount(i, td)
			if r.Count < 0 {
				r.Count, r.HasCount = 0, false
			}
			r.UUID, _ = store.UUIDValue(i, td)
			r.FileName, _ = store.UUIDFileName(i, td)
			d.Refs = append(d.Refs, r)
		}
		out[i] = d
	}
	return out, nil
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// writeBack stores reconciled geometry into the document.
func writeBack(doc *ome.Document, series []Series) {
	for i, s := range series {
		doc.SetPixelsSizes(i, s.SizeX, s.SizeY, s.SizeZ, s.DeclaredSizeC, s.SizeT)
		doc.SetPixelsDimensionOrder(i, string(s.DimensionOrder))
	}
}

// SeriesLayout is the write-side geometry of one series.
type SeriesLayout struct {
	Order dims.Order
	// Sizes uses the effective channel count: one plane per Z, C, T triple.
	Sizes dims.Sizes
	Plane tiff.PlaneSpec
}

// Layouts derives the write-side geometry of every image in doc. Channels
// whose SamplesPerPixel is above one are stored as interleaved planes.
func Layouts(doc *ome.Document) ([]SeriesLayout, error) {
	decls, err := declarations(doc)
	if err != nil {
		return nil, err
	}
	out := make([]SeriesLayout, len(decls))
	for i, d := range decls {
		spp := d.SamplesPerPixel
		if spp < 1 {
			spp = 1
		}
		effC := d.SizeC / spp
		if effC*spp != d.SizeC {
			return nil, seriesError("layout", i, fmt.Errorf("%w: SizeC %d is not a multiple of SamplesPerPixel %d",
				ErrMetadataParse, d.SizeC, spp))
		}
		if d.PixelType == "" {
			return nil, seriesError("layout", i, fmt.Errorf("%w: missing pixel type", ErrMetadataParse))
		}
		out[i] = SeriesLayout{
			Order: d.Order,
			Sizes: dims.Sizes{
				Z: doc.PixelsSizeZ(i),
				C: effC,
				T: doc.PixelsSizeT(i),
			},
			Plane: tiff.PlaneSpec{
				Width:           d.SizeX,
				Height:          d.SizeY,
				SamplesPerPixel: spp,
				PixelType:       d.PixelType,
			},
		}
		if doc.PixelsSizeC(i) == 0 {
			out[i].Sizes.C = 0
		}
	}
	return out, nil
}

// applyTiffData stores synthesized references into the document.
func applyTiffData(doc *ome.Document, tds [][]ome.TiffData) {
	for i, list := range tds {
		doc.SetTiffData(i, list)
	}
}

// relativeName is the FileName recorded in a UUID element: the base name,
// since a file set lives in one directory.
func relativeName(path string) string {
	return filepath.Base(path)
}
