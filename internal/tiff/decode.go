package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/garyhouston/tiff66"
	xtiff "golang.org/x/image/tiff"
)

// ReadRegion decodes a rectangle of samples from IFD i. The result is
// row-major with interleaved samples; multi-byte samples are little-endian
// regardless of the file's byte order.
func (f *File) ReadRegion(i, x, y, w, h int) ([]byte, error) {
	hd, err := f.Header(i)
	if err != nil {
		return nil, err
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > hd.Width || y+h > hd.Height {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d IFD %d",
			ErrRegionBounds, w, h, x, y, hd.Width, hd.Height, i)
	}
	if hd.BitsPerSample%8 != 0 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupported, hd.BitsPerSample)
	}

	var plane []byte
	if hd.Compression == compressionNone && !hd.Tiled {
		plane, err = f.rawPlane(hd)
	} else {
		plane, err = f.decodePlane(hd)
	}
	if err != nil {
		return nil, err
	}
	pixelBytes := hd.SamplesPerPixel * hd.BitsPerSample / 8
	return crop(plane, hd.Width, pixelBytes, x, y, w, h), nil
}

// ReadPlane decodes the whole of IFD i.
func (f *File) ReadPlane(i int) ([]byte, error) {
	hd, err := f.Header(i)
	if err != nil {
		return nil, err
	}
	return f.ReadRegion(i, 0, 0, hd.Width, hd.Height)
}

// rawPlane concatenates uncompressed strips.
func (f *File) rawPlane(h Header) ([]byte, error) {
	bps := h.BitsPerSample / 8
	size := h.Width * h.Height * h.SamplesPerPixel * bps

	var strips []byte
	for _, id := range h.node.GetImageData() {
		if id.OffsetTag != tiff66.StripOffsets {
			continue
		}
		for _, seg := range id.Segments {
			strips = append(strips, seg...)
		}
	}
	if len(strips) < size {
		return nil, fmt.Errorf("IFD %d: strips hold %d bytes, expected %d", h.Index, len(strips), size)
	}

	out := make([]byte, size)
	if h.Planar == planarSeparate && h.SamplesPerPixel > 1 {
		interleave(out, strips[:size], h.Width*h.Height, h.SamplesPerPixel, bps)
	} else {
		copy(out, strips)
	}
	if f.order == binary.BigEndian && bps > 1 {
		swapBytes(out, bps)
	}
	return out, nil
}

// decodePlane serializes the IFD on its own and hands it to x/image/tiff,
// which handles compression, predictors and tiling.
func (f *File) decodePlane(h Header) ([]byte, error) {
	single := *h.node
	single.Next = nil
	buf := make([]byte, tiff66.HeaderSize+single.TreeSize())
	tiff66.PutHeader(buf, f.order, tiff66.HeaderSize)
	if _, err := single.PutIFDTree(buf, tiff66.HeaderSize); err != nil {
		return nil, fmt.Errorf("isolate IFD %d: %w", h.Index, err)
	}
	img, err := xtiff.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode IFD %d: %w", h.Index, err)
	}
	return samplesOf(img, h.SamplesPerPixel)
}

// samplesOf flattens a decoded image back into interleaved little-endian samples.
func samplesOf(img image.Image, spp int) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch m := img.(type) {
	case *image.Gray:
		return rows(m.Pix, m.Stride, w, h, 1, 1, 1), nil
	case *image.Paletted:
		return rows(m.Pix, m.Stride, w, h, 1, 1, 1), nil
	case *image.Gray16:
		out := rows(m.Pix, m.Stride, w, h, 2, 1, 1)
		swapBytes(out, 2)
		return out, nil
	case *image.RGBA:
		return rows(m.Pix, m.Stride, w, h, 1, 4, spp), nil
	case *image.NRGBA:
		return rows(m.Pix, m.Stride, w, h, 1, 4, spp), nil
	case *image.RGBA64:
		out := rows(m.Pix, m.Stride, w, h, 2, 4, spp)
		swapBytes(out, 2)
		return out, nil
	case *image.NRGBA64:
		out := rows(m.Pix, m.Stride, w, h, 2, 4, spp)
		swapBytes(out, 2)
		return out, nil
	}
	return nil, fmt.Errorf("%w: decoded image type %T", ErrUnsupported, img)
}

// rows copies w*h pixels of `have` samples each, keeping the first `keep`
// samples per pixel.
func rows(pix []byte, stride, w, h, bps, have, keep int) []byte {
	if keep > have || keep <= 0 {
		keep = have
	}
	out := make([]byte, 0, w*h*keep*bps)
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			px := row[x*have*bps:]
			out = append(out, px[:keep*bps]...)
		}
	}
	return out
}

func crop(plane []byte, width, pixelBytes, x, y, w, h int) []byte {
	if x == 0 && w == width && y == 0 && len(plane) == w*h*pixelBytes {
		return plane
	}
	out := make([]byte, 0, w*h*pixelBytes)
	for row := y; row < y+h; row++ {
		start := (row*width + x) * pixelBytes
		out = append(out, plane[start:start+w*pixelBytes]...)
	}
	return out
}

func interleave(dst, src []byte, pixels, spp, bps int) {
	for s := 0; s < spp; s++ {
		plane := src[s*pixels*bps:]
		for p := 0; p < pixels; p++ {
			copy(dst[(p*spp+s)*bps:], plane[p*bps:(p+1)*bps])
		}
	}
}

func swapBytes(buf []byte, width int) {
	for i := 0; i+width <= len(buf); i += width {
		for a, b := i, i+width-1; a < b; a, b = a+1, b-1 {
			buf[a], buf[b] = buf[b], buf[a]
		}
	}
}
