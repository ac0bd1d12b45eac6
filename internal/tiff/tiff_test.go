package tiff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/omeforge/internal/ome"
)

// ramp returns a deterministic plane whose bytes depend on seed.
func ramp(spec PlaneSpec, seed int) []byte {
	data := make([]byte, spec.Size())
	for i := range data {
		data[i] = byte(i*7 + seed*31)
	}
	return data
}

func TestBuilder_RoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		spec        PlaneSpec
		compression Compression
	}{
		{"uint8 raw", PlaneSpec{Width: 17, Height: 9, SamplesPerPixel: 1, PixelType: ome.Uint8}, None},
		{"uint16 raw", PlaneSpec{Width: 8, Height: 5, SamplesPerPixel: 1, PixelType: ome.Uint16}, None},
		{"rgb raw", PlaneSpec{Width: 6, Height: 4, SamplesPerPixel: 3, PixelType: ome.Uint8}, None},
		{"float raw", PlaneSpec{Width: 3, Height: 3, SamplesPerPixel: 1, PixelType: ome.Float}, None},
		{"uint8 deflate", PlaneSpec{Width: 16, Height: 16, SamplesPerPixel: 1, PixelType: ome.Uint8}, Deflate},
		{"uint16 deflate", PlaneSpec{Width: 10, Height: 7, SamplesPerPixel: 1, PixelType: ome.Uint16}, Deflate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			planes := make([][]byte, 3)
			for i := range planes {
				planes[i] = ramp(tt.spec, i)
				require.NoError(t, b.AppendPlane(tt.spec, planes[i], tt.compression))
			}
			b.SetComment("<OME/>")

			data, err := b.Bytes()
			require.NoError(t, err)
			require.True(t, IsTIFF(data))

			f, err := Parse(data)
			require.NoError(t, err)
			require.Equal(t, 3, f.HeaderCount())
			assert.Equal(t, "<OME/>", f.Comment())

			for i, want := range planes {
				h, err := f.Header(i)
				require.NoError(t, err)
				assert.Equal(t, tt.spec.Width, h.Width)
				assert.Equal(t, tt.spec.Height, h.Height)
				assert.Equal(t, tt.spec.SamplesPerPixel, h.SamplesPerPixel)
				pt, err := h.PixelType()
				require.NoError(t, err)
				assert.Equal(t, tt.spec.PixelType, pt)

				got, err := f.ReadPlane(i)
				require.NoError(t, err)
				assert.Equal(t, want, got, "plane %d", i)
			}
		})
	}
}

func TestReadRegion(t *testing.T) {
	spec := PlaneSpec{Width: 4, Height: 3, SamplesPerPixel: 1, PixelType: ome.Uint16}
	data := make([]byte, spec.Size())
	for i := 0; i < 12; i++ {
		data[2*i] = byte(i)
	}
	b := NewBuilder()
	require.NoError(t, b.AppendPlane(spec, data, None))
	buf, err := b.Bytes()
	require.NoError(t, err)
	f, err := Parse(buf)
	require.NoError(t, err)

	got, err := f.ReadRegion(0, 1, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 0, 6, 0, 9, 0, 10, 0}, got)

	_, err = f.ReadRegion(0, 3, 0, 2, 1)
	assert.ErrorIs(t, err, ErrRegionBounds)
	_, err = f.ReadRegion(1, 0, 0, 1, 1)
	assert.ErrorIs(t, err, ErrHeaderRange)
}

func TestRewriteComment(t *testing.T) {
	spec := PlaneSpec{Width: 5, Height: 5, SamplesPerPixel: 1, PixelType: ome.Uint8}
	path := filepath.Join(t.TempDir(), "a.ome.tif")

	b := NewBuilder()
	first, second := ramp(spec, 1), ramp(spec, 2)
	require.NoError(t, b.AppendPlane(spec, first, None))
	require.NoError(t, b.AppendPlane(spec, second, Deflate))
	b.SetComment("placeholder")
	require.NoError(t, b.WriteFile(path))

	require.NoError(t, RewriteComment(path, "<OME>replaced</OME>"))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.Equal(t, "<OME>replaced</OME>", f.Comment())
	require.Equal(t, 2, f.HeaderCount())
	got, err := f.ReadPlane(1)
	require.NoError(t, err)
	assert.Equal(t, second, got)
	require.NoError(t, f.Close())

	require.NoError(t, RewriteComment(path, "<OME>again</OME>"))
	f, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, "<OME>again</OME>", f.Comment())
	assert.Equal(t, 2, f.HeaderCount())

	assert.Error(t, RewriteComment(filepath.Join(t.TempDir(), "missing.ome.tif"), "x"))
}

func TestExtend_AppendsAfterExistingIFDs(t *testing.T) {
	spec := PlaneSpec{Width: 2, Height: 2, SamplesPerPixel: 1, PixelType: ome.Uint8}
	path := filepath.Join(t.TempDir(), "grow.ome.tif")

	b := NewBuilder()
	require.NoError(t, b.AppendPlane(spec, []byte{1, 2, 3, 4}, None))
	require.NoError(t, b.WriteFile(path))

	f, err := Open(path)
	require.NoError(t, err)
	ext, err := Extend(f)
	require.NoError(t, err)
	require.NoError(t, ext.AppendPlane(spec, []byte{5, 6, 7, 8}, None))
	assert.Equal(t, 2, ext.Len())
	require.NoError(t, ext.WriteFile(path))

	f, err = Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, f.HeaderCount())
	got, err := f.ReadPlane(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7, 8}, got)
}

func TestParse_NotTIFF(t *testing.T) {
	_, err := Parse([]byte("GIF89a not a tiff"))
	assert.ErrorIs(t, err, ErrNotTIFF)
	assert.False(t, IsTIFF([]byte("II")))

	path := filepath.Join(t.TempDir(), "text.tif")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	_, err = Open(path)
	assert.ErrorIs(t, err, ErrNotTIFF)
}

func TestAppendPlane_Validation(t *testing.T) {
	b := NewBuilder()
	spec := PlaneSpec{Width: 2, Height: 2, SamplesPerPixel: 1, PixelType: ome.Uint8}
	assert.Error(t, b.AppendPlane(spec, []byte{1}, None), "short data")
	assert.Error(t, b.AppendPlane(PlaneSpec{Width: 0, Height: 2, SamplesPerPixel: 1, PixelType: ome.Uint8}, nil, None))
	assert.ErrorIs(t, b.AppendPlane(PlaneSpec{Width: 8, Height: 1, SamplesPerPixel: 1, PixelType: ome.Bit}, []byte{0}, None), ErrUnsupported)

	rgb := PlaneSpec{Width: 1, Height: 1, SamplesPerPixel: 3, PixelType: ome.Uint8}
	assert.ErrorIs(t, b.AppendPlane(rgb, []byte{1, 2, 3}, Deflate), ErrUnsupported)

	_, err := b.Bytes()
	assert.Error(t, err, "empty builder")
}

func TestFile_Close(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AppendPlane(PlaneSpec{Width: 1, Height: 1, SamplesPerPixel: 1, PixelType: ome.Uint8}, []byte{9}, None))
	data, err := b.Bytes()
	require.NoError(t, err)
	f, err := Parse(data)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	_, err = f.ReadPlane(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		input   string
		want    Compression
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Deflate", Deflate, false},
		{"zlib", Deflate, false},
		{"jpeg", None, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
