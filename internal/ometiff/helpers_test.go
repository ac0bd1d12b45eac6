package ometiff

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/tiff"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// planeBytes returns a plane whose content identifies (series, no).
func planeBytes(spec tiff.PlaneSpec, series, no int) []byte {
	data := make([]byte, spec.Size())
	for i := range data {
		data[i] = byte(series*53 + no*11 + i)
	}
	return data
}

// image builds an Image with a single-sample uint8 Pixels block.
func image(id string, x, y, z, c, t int, order string, tds ...ome.TiffData) ome.Image {
	img := ome.Image{
		ID: id,
		Pixels: ome.Pixels{
			ID:             id + ":Pixels",
			DimensionOrder: order,
			Type:           string(ome.Uint8),
			SizeX:          x,
			SizeY:          y,
			SizeZ:          z,
			SizeC:          c,
			SizeT:          t,
			TiffData:       tds,
		},
	}
	for i := 0; i < c; i++ {
		img.Pixels.Channels = append(img.Pixels.Channels, ome.Channel{
			ID:              id + ":Channel",
			Name:            "ch",
			SamplesPerPixel: 1,
		})
	}
	return img
}

// writeRaw writes a TIFF with ifds uint8 planes of w x h and doc as its comment.
// Plane i of the file is planeBytes(spec, 0, i).
func writeRaw(t *testing.T, path string, doc *ome.Document, ifds, w, h int) string {
	t.Helper()
	spec := tiff.PlaneSpec{Width: w, Height: h, SamplesPerPixel: 1, PixelType: ome.Uint8}
	b := tiff.NewBuilder()
	for i := 0; i < ifds; i++ {
		require.NoError(t, b.AppendPlane(spec, planeBytes(spec, 0, i), tiff.None))
	}
	if doc != nil {
		text, err := doc.Marshal()
		require.NoError(t, err)
		b.SetComment(text)
	}
	require.NoError(t, b.WriteFile(path))
	return path
}

func tempPath(t *testing.T, name string) string {
	return filepath.Join(t.TempDir(), name)
}
