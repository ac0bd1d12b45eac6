package generator

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/image"
	"github.com/mrsinham/omeforge/internal/logging"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/ometiff/defects"
)

// testConfig has a 3x2x2 uint16 stack in XYCZT (12 planes) and a 2-timepoint
// RGB series in XYZTC (2 planes).
func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.Dir = dir
	cfg.Output.Basename = "cells"
	cfg.Seed = 42
	cfg.Series = []config.SeriesConfig{
		{Name: "Stack", SizeX: 24, SizeY: 16, SizeZ: 3, SizeC: 2, SizeT: 2, DimensionOrder: "XYCZT", PixelType: "uint16", SamplesPerPixel: 1},
		{Name: "RGB", SizeX: 8, SizeY: 8, SizeZ: 1, SizeC: 3, SizeT: 2, DimensionOrder: "XYZTC", PixelType: "uint8", SamplesPerPixel: 3, Channels: []string{"Brightfield"}},
	}
	return cfg
}

func quiet(cfg *config.Config, statePath string) Options {
	return Options{Config: cfg, StatePath: statePath, Workers: 2, Quiet: true, Logger: logging.Discard()}
}

func TestBuildDocument(t *testing.T) {
	cfg := testConfig(t.TempDir())
	doc, err := BuildDocument(cfg, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	assert.Equal(t, Creator, doc.Creator)
	require.Len(t, doc.Images, 2)

	stack := doc.Images[0].Pixels
	assert.Equal(t, "Stack", doc.Images[0].Name)
	assert.Equal(t, "XYCZT", stack.DimensionOrder)
	require.Len(t, stack.Channels, 2)
	assert.NotEqual(t, stack.Channels[0].Name, stack.Channels[1].Name)

	rgb := doc.Images[1].Pixels
	require.Len(t, rgb.Channels, 1)
	assert.Equal(t, "Brightfield", rgb.Channels[0].Name)
	assert.Equal(t, 3, rgb.Channels[0].SamplesPerPixel)
	assert.Equal(t, 3, rgb.SizeC)

	again, err := BuildDocument(cfg, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestPlan_Splits(t *testing.T) {
	tests := []struct {
		split string
		files []string
	}{
		{"none", []string{"cells"}},
		{"series", []string{"cells_s0", "cells_s1"}},
		{"c", []string{"cells_s0_c0", "cells_s0_c1", "cells_s1_c0"}},
		{"z", []string{"cells_s0_z0", "cells_s0_z1", "cells_s0_z2", "cells_s1_z0"}},
		{"t", []string{"cells_s0_t0", "cells_s0_t1", "cells_s1_t0", "cells_s1_t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.split, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig(dir)
			cfg.Output.Split = tt.split
			doc, err := BuildDocument(cfg, nil)
			require.NoError(t, err)

			planes, err := Plan(cfg, doc)
			require.NoError(t, err)
			assert.Len(t, planes, 14)

			var want []string
			for _, f := range tt.files {
				want = append(want, filepath.Join(dir, f+".ome.tif"))
			}
			assert.Equal(t, want, Files(planes))
		})
	}
}

func TestPlan_CoordinatesFollowOrder(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Output.Split = "z"
	doc, err := BuildDocument(cfg, nil)
	require.NoError(t, err)
	planes, err := Plan(cfg, doc)
	require.NoError(t, err)

	// XYCZT: plane 3 is c=1 z=1 t=0, plane 7 is c=1 z=0 t=1
	assert.Equal(t, 1, planes[3].Coord.Z)
	assert.Equal(t, 1, planes[3].Coord.C)
	assert.Equal(t, 1, planes[7].Coord.T)
	assert.Equal(t, "cells_s0_z0.ome.tif", filepath.Base(planes[7].File))

	last := planes[13]
	assert.Equal(t, 1, last.Series)
	assert.Equal(t, 1, last.Plane)
	assert.Equal(t, 1, last.Coord.T)
}

func TestPlan_MaxFileSize(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Series = cfg.Series[:1]
	// 768-byte planes: two fit in 2KB, the third starts a new part
	cfg.Output.MaxFileSize = "2KB"
	doc, err := BuildDocument(cfg, nil)
	require.NoError(t, err)

	planes, err := Plan(cfg, doc)
	require.NoError(t, err)
	files := Files(planes)
	require.Len(t, files, 6)
	assert.Equal(t, filepath.Join(dir, "cells.ome.tif"), files[0])
	assert.Equal(t, filepath.Join(dir, "cells_part5.ome.tif"), files[5])
	assert.Equal(t, planes[0].File, planes[1].File)
	assert.NotEqual(t, planes[1].File, planes[2].File)
}

func TestResolveSeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Seed = 99
	assert.Equal(t, int64(99), ResolveSeed(cfg))

	cfg.Seed = 0
	cfg.Output.Dir = "run-a"
	a := ResolveSeed(cfg)
	assert.Equal(t, a, ResolveSeed(cfg))
	cfg.Output.Dir = "run-b"
	assert.NotEqual(t, a, ResolveSeed(cfg))
}

// verifySet opens every file of the plan and checks that each plane is found
// where the plan put it, holding the pixels generated for it.
func verifySet(t *testing.T, cfg *config.Config, seed int64) {
	t.Helper()
	doc, err := BuildDocument(cfg, nil)
	require.NoError(t, err)
	planes, err := Plan(cfg, doc)
	require.NoError(t, err)
	layouts, err := ometiff.Layouts(doc)
	require.NoError(t, err)
	pattern, err := image.ParsePattern(cfg.Pattern)
	require.NoError(t, err)

	for _, path := range Files(planes) {
		r, err := ometiff.Open(path, ometiff.WithLogger(logging.Discard()))
		require.NoError(t, err, path)

		require.Equal(t, len(cfg.Series), r.SeriesCount())
		for _, p := range planes {
			_, file, err := r.Plane(p.Series, p.Plane)
			require.NoError(t, err)
			assert.Equal(t, p.File, file, "series %d plane %d", p.Series, p.Plane)

			want, err := image.GeneratePlane(planeParams(cfg, layouts[p.Series], pattern, seed, p))
			require.NoError(t, err)
			got, err := r.ReadPlane(p.Series, p.Plane)
			require.NoError(t, err)
			assert.Equal(t, want, got, "series %d plane %d", p.Series, p.Plane)
		}

		rgb, err := r.Series(1)
		require.NoError(t, err)
		assert.True(t, rgb.RGB)
		assert.Equal(t, 1, rgb.EffectiveSizeC)
		assert.Equal(t, 2, rgb.PlaneCount)
		require.NoError(t, r.Close())
	}
}

func TestGenerate_ReadBack(t *testing.T) {
	for _, compression := range []string{"none", "deflate"} {
		t.Run(compression, func(t *testing.T) {
			cfg := testConfig(t.TempDir())
			cfg.Output.Split = "c"
			cfg.Output.Compression = compression

			var calls, last int
			opts := quiet(cfg, "")
			opts.ProgressCallback = func(current, total int) {
				calls++
				last = current
				assert.Equal(t, 14, total)
			}

			res, err := Generate(opts)
			require.NoError(t, err)
			assert.True(t, res.Complete)
			assert.Equal(t, 14, res.Written)
			assert.Equal(t, 14, res.Total)
			assert.Equal(t, 14, calls)
			assert.Equal(t, 14, last)

			require.Len(t, res.Files, 3)
			assert.Equal(t, 6, res.Files[0].Planes)
			for _, f := range res.Files {
				assert.Positive(t, f.Size, f.Path)
			}

			verifySet(t, cfg, res.Seed)
		})
	}
}

func TestGenerate_IncrementalSessions(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "out"))
	cfg.Output.Split = "z"
	cfg.Output.PlanesPerSession = 5
	statePath := filepath.Join(dir, "state.yaml")

	var written []int
	for session := 0; session < 10; session++ {
		res, err := Generate(quiet(cfg, statePath))
		require.NoError(t, err)
		written = append(written, res.Written)
		if res.Complete {
			break
		}
		st, err := config.LoadState(statePath)
		require.NoError(t, err)
		assert.NotEmpty(t, st.Counters)
	}
	assert.Equal(t, []int{5, 5, 4}, written)

	st, err := config.LoadState(statePath)
	require.NoError(t, err)
	assert.True(t, st.Done(14))

	verifySet(t, cfg, cfg.Seed)

	res, err := Generate(quiet(cfg, statePath))
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, 0, res.Written)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(Options{})
	assert.Error(t, err)

	cfg := testConfig(t.TempDir())
	cfg.Output.PlanesPerSession = 3
	_, err = Generate(quiet(cfg, ""))
	assert.ErrorContains(t, err, "requires a state file")

	cfg = testConfig(t.TempDir())
	cfg.Output.Split = "channels"
	_, err = Generate(quiet(cfg, ""))
	assert.ErrorContains(t, err, "invalid config")
}

func TestGenerate_Defects(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "out"))
	cfg.Output.Split = "z"
	cfg.Defects = []string{"one-indexed"}

	res, err := Generate(quiet(cfg, ""))
	require.NoError(t, err)
	require.Len(t, res.Defects, 1)
	assert.Equal(t, defects.OneIndexed, res.Defects[0].Type)

	// One-based TiffData coordinates are detected and map to the same planes.
	verifySet(t, cfg, cfg.Seed)

	cfg = testConfig(filepath.Join(t.TempDir(), "out"))
	cfg.Output.Split = "z"
	cfg.Defects = []string{"missing-file"}

	res, err = Generate(quiet(cfg, ""))
	require.NoError(t, err)
	require.Len(t, res.Defects, 1)
	missing := res.Defects[0].File
	assert.NotEqual(t, res.Files[0].Path, missing)
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
}
