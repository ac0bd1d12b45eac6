package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/garyhouston/tiff66"
	xtiff "golang.org/x/image/tiff"

	"github.com/mrsinham/omeforge/internal/ome"
)

// Compression selects how appended planes are stored.
type Compression int

const (
	None Compression = iota
	Deflate
)

// String returns the configuration name of the compression.
func (c Compression) String() string {
	switch c {
	case Deflate:
		return "deflate"
	default:
		return "none"
	}
}

// ParseCompression parses a compression name ("none", "deflate").
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "uncompressed":
		return None, nil
	case "deflate", "zlib":
		return Deflate, nil
	default:
		return None, fmt.Errorf("invalid compression %q (valid: none, deflate)", s)
	}
}

// PlaneSpec is the geometry of one plane handed to a Builder.
type PlaneSpec struct {
	Width           int
	Height          int
	SamplesPerPixel int
	PixelType       ome.PixelType
}

// Size returns the byte length of a plane with this geometry.
func (s PlaneSpec) Size() int {
	return s.Width * s.Height * s.SamplesPerPixel * s.PixelType.BytesPerSample()
}

func (s PlaneSpec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid plane dimensions: %dx%d", s.Width, s.Height)
	}
	if s.SamplesPerPixel <= 0 {
		return fmt.Errorf("invalid samples per pixel: %d", s.SamplesPerPixel)
	}
	if s.PixelType.BytesPerSample() == 0 {
		return fmt.Errorf("%w: pixel type %q", ErrUnsupported, s.PixelType)
	}
	return nil
}

// Builder assembles a multi-IFD TIFF in memory.
type Builder struct {
	order   binary.ByteOrder
	nodes   []*tiff66.IFDNode
	comment *string
}

// NewBuilder returns an empty little-endian builder.
func NewBuilder() *Builder {
	return &Builder{order: binary.LittleEndian}
}

// Extend returns a builder seeded with the IFDs of f, so planes can be
// appended to an existing file. The builder takes ownership of f's IFDs.
func Extend(f *File) (*Builder, error) {
	if f.data == nil {
		return nil, ErrClosed
	}
	b := &Builder{order: f.order}
	for _, h := range f.headers {
		b.nodes = append(b.nodes, h.node)
	}
	return b, nil
}

// Len returns the number of IFDs in the builder.
func (b *Builder) Len() int { return len(b.nodes) }

// SetComment sets the ImageDescription written on the first IFD.
func (b *Builder) SetComment(text string) {
	b.comment = &text
}

// AppendPlane appends one IFD holding data, which must be interleaved
// little-endian samples matching spec.
func (b *Builder) AppendPlane(spec PlaneSpec, data []byte, c Compression) error {
	if err := spec.validate(); err != nil {
		return err
	}
	if len(data) != spec.Size() {
		return fmt.Errorf("plane data is %d bytes, %dx%dx%d %s needs %d",
			len(data), spec.Width, spec.Height, spec.SamplesPerPixel, spec.PixelType, spec.Size())
	}

	var (
		node *tiff66.IFDNode
		err  error
	)
	switch c {
	case Deflate:
		node, err = b.deflateNode(spec, data)
	default:
		node, err = rawNode(b.order, spec, data)
	}
	if err != nil {
		return err
	}
	b.nodes = append(b.nodes, node)
	return nil
}

// Bytes serializes the IFD chain.
func (b *Builder) Bytes() ([]byte, error) {
	if len(b.nodes) == 0 {
		return nil, errors.New("TIFF must contain at least one IFD")
	}
	for i, n := range b.nodes {
		if i+1 < len(b.nodes) {
			n.Next = b.nodes[i+1]
		} else {
			n.Next = nil
		}
	}
	root := b.nodes[0]
	if b.comment != nil {
		setDescription(root, *b.comment)
	}

	buf := make([]byte, tiff66.HeaderSize+root.TreeSize())
	tiff66.PutHeader(buf, b.order, tiff66.HeaderSize)
	end, err := root.PutIFDTree(buf, tiff66.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("serialize IFDs: %w", err)
	}
	return buf[:end], nil
}

// WriteFile serializes the builder to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RewriteComment replaces the first IFD's ImageDescription of the file at
// path. The file is read, its IFD chain re-serialized with the new
// description and written back whole; image data is carried over unchanged.
func RewriteComment(path, text string) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := Extend(f)
	if err != nil {
		return err
	}
	b.SetComment(text)
	return b.WriteFile(path)
}

func setDescription(n *tiff66.IFDNode, text string) {
	n.DeleteFields([]tiff66.Tag{tiff66.ImageDescription})
	field := tiff66.Field{Tag: tiff66.ImageDescription, Type: tiff66.ASCII}
	field.PutASCII(text)
	field.Count = uint32(len(field.Data))
	n.AddFields([]tiff66.Field{field})
}

// rawNode lays out a one-IFD TIFF holding a single uncompressed strip and
// parses it back, so the node carries its image data like a read node does.
func rawNode(order binary.ByteOrder, spec PlaneSpec, data []byte) (*tiff66.IFDNode, error) {
	pixels := data
	if bps := spec.PixelType.BytesPerSample(); order == binary.BigEndian && bps > 1 {
		pixels = append([]byte(nil), data...)
		swapBytes(pixels, bps)
	}

	spp := spec.SamplesPerPixel
	bits := make([]uint32, spp)
	formats := make([]uint32, spp)
	for i := range bits {
		bits[i] = uint32(spec.PixelType.BitsPerSample())
		formats[i] = uint32(spec.PixelType.SampleFormat())
	}
	photometric := uint32(photometricMin)
	if spp >= 3 {
		photometric = photometricRGB
	}

	n := tiff66.NewIFDNode(tiff66.TIFFSpace)
	n.Order = order
	n.AddFields([]tiff66.Field{
		longField(order, tiff66.ImageWidth, uint32(spec.Width)),
		longField(order, tiff66.ImageLength, uint32(spec.Height)),
		shortField(order, tiff66.BitsPerSample, bits...),
		shortField(order, tiff66.Compression, compressionNone),
		shortField(order, tiff66.PhotometricInterpretation, photometric),
		longField(order, tiff66.StripOffsets, tiff66.HeaderSize),
		shortField(order, tiff66.SamplesPerPixel, uint32(spp)),
		longField(order, tiff66.RowsPerStrip, uint32(spec.Height)),
		longField(order, tiff66.StripByteCounts, uint32(len(pixels))),
		shortField(order, tiff66.PlanarConfiguration, planarChunky),
		shortField(order, tiff66.SampleFormat, formats...),
	})

	ifdPos := tiff66.Align(tiff66.HeaderSize + uint32(len(pixels)))
	buf := make([]byte, ifdPos+n.TreeSize())
	tiff66.PutHeader(buf, order, ifdPos)
	copy(buf[tiff66.HeaderSize:], pixels)
	if _, err := n.PutIFDTree(buf, ifdPos); err != nil {
		return nil, fmt.Errorf("serialize plane IFD: %w", err)
	}
	return reparse(buf)
}

// deflateNode encodes single-sample 8/16-bit planes with x/image/tiff.
func (b *Builder) deflateNode(spec PlaneSpec, data []byte) (*tiff66.IFDNode, error) {
	if spec.SamplesPerPixel != 1 || b.order != binary.LittleEndian {
		return nil, fmt.Errorf("%w: deflate needs single-sample planes in a little-endian file", ErrUnsupported)
	}
	rect := image.Rect(0, 0, spec.Width, spec.Height)
	var img image.Image
	switch spec.PixelType {
	case ome.Uint8:
		g := image.NewGray(rect)
		copy(g.Pix, data)
		img = g
	case ome.Uint16:
		g := image.NewGray16(rect)
		for i := 0; i+1 < len(data); i += 2 {
			g.Pix[i], g.Pix[i+1] = data[i+1], data[i]
		}
		img = g
	default:
		return nil, fmt.Errorf("%w: deflate supports uint8 and uint16, got %s", ErrUnsupported, spec.PixelType)
	}

	var out bytes.Buffer
	if err := xtiff.Encode(&out, img, &xtiff.Options{Compression: xtiff.Deflate}); err != nil {
		return nil, fmt.Errorf("encode plane: %w", err)
	}
	return reparse(out.Bytes())
}

func reparse(buf []byte) (*tiff66.IFDNode, error) {
	ok, order, pos := tiff66.GetHeader(buf)
	if !ok {
		return nil, ErrNotTIFF
	}
	n, err := tiff66.GetIFDTree(buf, order, pos, tiff66.TIFFSpace)
	if err != nil {
		return nil, fmt.Errorf("reparse plane IFD: %w", err)
	}
	n.Next = nil
	return n, nil
}

func longField(order binary.ByteOrder, tag tiff66.Tag, vals ...uint32) tiff66.Field {
	f := tiff66.Field{Tag: tag, Type: tiff66.LONG, Count: uint32(len(vals)), Data: make([]byte, 4*len(vals))}
	for i, v := range vals {
		f.PutLong(v, uint32(i), order)
	}
	return f
}

func shortField(order binary.ByteOrder, tag tiff66.Tag, vals ...uint32) tiff66.Field {
	f := tiff66.Field{Tag: tag, Type: tiff66.SHORT, Count: uint32(len(vals)), Data: make([]byte, 2*len(vals))}
	for i, v := range vals {
		f.PutShort(uint16(v), uint32(i), order)
	}
	return f
}
