// Package tiff is the container codec for OME-TIFF: it enumerates IFDs,
// decodes sample regions, assembles multi-IFD files and rewrites the
// ImageDescription comment that carries the OME-XML document.
package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/garyhouston/tiff66"

	"github.com/mrsinham/omeforge/internal/ome"
)

var (
	ErrNotTIFF      = errors.New("not a TIFF file")
	ErrUnsupported  = errors.New("unsupported TIFF layout")
	ErrHeaderRange  = errors.New("IFD index out of range")
	ErrRegionBounds = errors.New("region outside image bounds")
	ErrClosed       = errors.New("file is closed")
)

// TIFF code values used by the codec.
const (
	compressionNone = 1
	planarChunky    = 1
	planarSeparate  = 2
	photometricMin  = 1
	photometricRGB  = 2
)

// Header describes one IFD (one physical plane).
type Header struct {
	Index           int
	Width           int
	Height          int
	SamplesPerPixel int
	BitsPerSample   int
	SampleFormat    int
	Compression     int
	Planar          int
	Photometric     int
	Tiled           bool
	Description     string

	node *tiff66.IFDNode
}

// PixelType maps the header's sample layout to an OME pixel type.
func (h Header) PixelType() (ome.PixelType, error) {
	return ome.PixelTypeFor(h.BitsPerSample, h.SampleFormat)
}

// File is a parsed TIFF held in memory.
type File struct {
	path    string
	data    []byte
	order   binary.ByteOrder
	headers []Header
}

// IsTIFF reports whether buf starts with a structurally valid TIFF header.
func IsTIFF(buf []byte) bool {
	ok, _, _ := tiff66.GetHeader(buf)
	return ok
}

// Open reads and parses a TIFF file.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	return f, nil
}

// Parse parses an in-memory TIFF.
func Parse(data []byte) (*File, error) {
	ok, order, pos := tiff66.GetHeader(data)
	if !ok {
		return nil, ErrNotTIFF
	}
	root, err := tiff66.GetIFDTree(data, order, pos, tiff66.TIFFSpace)
	if root == nil || len(root.Fields) == 0 {
		if err == nil {
			err = errors.New("first IFD has no fields")
		}
		return nil, fmt.Errorf("%w: %v", ErrNotTIFF, err)
	}
	// Damage past the first IFD is tolerated; the chain stops at the last
	// readable node.
	f := &File{data: data, order: order}
	for n := root; n != nil; n = n.Next {
		if len(n.Fields) == 0 {
			break
		}
		f.headers = append(f.headers, headerFrom(len(f.headers), n))
	}
	return f, nil
}

func headerFrom(index int, n *tiff66.IFDNode) Header {
	h := Header{
		Index:           index,
		SamplesPerPixel: 1,
		BitsPerSample:   1,
		SampleFormat:    1,
		Compression:     compressionNone,
		Planar:          planarChunky,
		node:            n,
	}
	for _, field := range n.Fields {
		switch field.Tag {
		case tiff66.ImageWidth:
			h.Width = intValue(field, n.Order)
		case tiff66.ImageLength:
			h.Height = intValue(field, n.Order)
		case tiff66.SamplesPerPixel:
			h.SamplesPerPixel = intValue(field, n.Order)
		case tiff66.BitsPerSample:
			h.BitsPerSample = intValue(field, n.Order)
		case tiff66.SampleFormat:
			h.SampleFormat = intValue(field, n.Order)
		case tiff66.Compression:
			h.Compression = intValue(field, n.Order)
		case tiff66.PlanarConfiguration:
			h.Planar = intValue(field, n.Order)
		case tiff66.PhotometricInterpretation:
			h.Photometric = intValue(field, n.Order)
		case tiff66.TileWidth:
			h.Tiled = true
		case tiff66.ImageDescription:
			if field.Type == tiff66.ASCII {
				h.Description = field.ASCII()
			}
		}
	}
	return h
}

func intValue(field tiff66.Field, order binary.ByteOrder) int {
	if field.Count == 0 || !field.Type.IsIntegral() {
		return 0
	}
	return int(field.AnyInteger(0, order))
}

// Path returns the file path, empty for in-memory files.
func (f *File) Path() string { return f.path }

// ByteOrder returns the byte order declared in the TIFF header.
func (f *File) ByteOrder() binary.ByteOrder { return f.order }

// HeaderCount returns the number of IFDs.
func (f *File) HeaderCount() int { return len(f.headers) }

// Headers returns all IFD headers in file order.
func (f *File) Headers() []Header { return f.headers }

// Header returns the IFD at index i.
func (f *File) Header(i int) (Header, error) {
	if f.data == nil {
		return Header{}, ErrClosed
	}
	if i < 0 || i >= len(f.headers) {
		return Header{}, fmt.Errorf("%w: %d of %d", ErrHeaderRange, i, len(f.headers))
	}
	return f.headers[i], nil
}

// Comment returns the trimmed ImageDescription of the first IFD.
func (f *File) Comment() string {
	if len(f.headers) == 0 {
		return ""
	}
	return strings.TrimSpace(f.headers[0].Description)
}

// Close releases the file contents. Further reads fail with ErrClosed.
func (f *File) Close() error {
	if f.data == nil {
		return ErrClosed
	}
	f.data = nil
	return nil
}
