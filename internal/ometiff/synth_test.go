package ometiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
)

func refByName(filename string) ome.UUIDRef {
	return ome.UUIDRef{FileName: filename, Value: "urn:uuid:" + filename}
}

func layout(order dims.Order, z, c, t int) SeriesLayout {
	return SeriesLayout{Order: order, Sizes: dims.Sizes{Z: z, C: c, T: t}}
}

func TestSynthesize_NumbersIFDsPerFile(t *testing.T) {
	layouts := []SeriesLayout{layout(dims.XYZCT, 2, 2, 1)}
	assign := Assignment{
		{0, 0}: "a.tif",
		{0, 1}: "b.tif",
		{0, 2}: "a.tif",
		{0, 3}: "b.tif",
	}
	counters := IFDCounters{"b.tif": 4}

	res, err := Synthesize(layouts, assign, counters, refByName)
	require.NoError(t, err)

	tds := res.TiffData[0]
	require.Len(t, tds, 4)
	wantIFD := []int{0, 4, 1, 5}
	wantFile := []string{"a.tif", "b.tif", "a.tif", "b.tif"}
	for no, td := range tds {
		c, err := dims.XYZCT.Coords(layouts[0].Sizes, no)
		require.NoError(t, err)
		assert.Equal(t, wantIFD[no], *td.IFD, "plane %d", no)
		assert.Equal(t, c.Z, *td.FirstZ)
		assert.Equal(t, c.C, *td.FirstC)
		assert.Equal(t, c.T, *td.FirstT)
		assert.Equal(t, 1, *td.PlaneCount)
		assert.Equal(t, wantFile[no], td.UUID.FileName)
		assert.Equal(t, "urn:uuid:"+wantFile[no], td.UUID.Value)
	}
	assert.Equal(t, 4, res.Emitted)
	assert.Equal(t, IFDCounters{"a.tif": 2, "b.tif": 6}, res.Counters)
	assert.Equal(t, IFDCounters{"b.tif": 4}, counters, "input counters must not change")
}

func TestSynthesize_SkipsUnassignedPlanes(t *testing.T) {
	layouts := []SeriesLayout{layout(dims.XYZCT, 3, 1, 1)}
	res, err := Synthesize(layouts, Assignment{{0, 2}: "a.tif"}, nil, refByName)
	require.NoError(t, err)

	require.Len(t, res.TiffData[0], 1)
	assert.Equal(t, 2, *res.TiffData[0][0].FirstZ)
	assert.Equal(t, 0, *res.TiffData[0][0].IFD)
	assert.Equal(t, 1, res.Emitted)
}

func TestSynthesize_EmptySeries(t *testing.T) {
	layouts := []SeriesLayout{layout(dims.XYZCT, 0, 1, 1), layout(dims.XYZCT, 1, 1, 1)}
	res, err := Synthesize(layouts, Assignment{{1, 0}: "a.tif"}, nil, refByName)
	require.NoError(t, err)

	require.Len(t, res.TiffData[0], 1)
	empty := res.TiffData[0][0]
	assert.Equal(t, 0, *empty.PlaneCount)
	assert.Nil(t, empty.FirstZ)
	assert.Nil(t, empty.FirstC)
	assert.Nil(t, empty.FirstT)
	assert.Nil(t, empty.UUID)
	assert.Equal(t, 1, res.Emitted)
}

func TestWritten(t *testing.T) {
	assert.Equal(t, 0, Written(nil))
	assert.Equal(t, 7, Written(IFDCounters{"a.tif": 3, "b.tif": 4}))
}

func TestSynthesize_RejectsUnknownPlanes(t *testing.T) {
	layouts := []SeriesLayout{layout(dims.XYZCT, 2, 1, 1)}
	for _, key := range []PlaneKey{{0, 2}, {1, 0}, {0, -1}} {
		_, err := Synthesize(layouts, Assignment{key: "a.tif"}, nil, refByName)
		assert.ErrorIs(t, err, dims.ErrInvalidCoordinate, "key %+v", key)
	}
}

func TestFinalize_CounterLifecycle(t *testing.T) {
	layouts := []SeriesLayout{layout(dims.XYZCT, 2, 1, 1), layout(dims.XYCZT, 1, 3, 1)}

	partial, err := Synthesize(layouts, Assignment{{0, 0}: "a.tif", {1, 0}: "a.tif"}, nil, refByName)
	require.NoError(t, err)
	kept := Finalize(partial, layouts)
	assert.Equal(t, IFDCounters{"a.tif": 2}, kept)

	rest := Assignment{{0, 1}: "a.tif", {1, 1}: "a.tif", {1, 2}: "a.tif"}
	second, err := Synthesize(layouts, rest, kept, refByName)
	require.NoError(t, err)
	assert.Equal(t, 2, *second.TiffData[0][0].IFD)
	assert.Equal(t, IFDCounters{"a.tif": 5}, second.Counters)
	assert.Equal(t, 3, second.Emitted)
	assert.Empty(t, Finalize(second, layouts), "the session completing the set releases its counters")

	split, err := Synthesize(layouts, Assignment{{0, 0}: "a.tif", {1, 0}: "b.tif"}, nil, refByName)
	require.NoError(t, err)
	kept = Finalize(split, layouts)
	assert.Equal(t, IFDCounters{"a.tif": 1, "b.tif": 1}, kept)
	last, err := Synthesize(layouts, Assignment{{0, 1}: "b.tif", {1, 1}: "c.tif", {1, 2}: "c.tif"}, kept, refByName)
	require.NoError(t, err)
	assert.Empty(t, Finalize(last, layouts), "planes spread over several files still count")

	all := Assignment{}
	for s, l := range layouts {
		for no := 0; no < l.Sizes.PlaneCount(); no++ {
			all[PlaneKey{s, no}] = "b.tif"
		}
	}
	full, err := Synthesize(layouts, all, nil, refByName)
	require.NoError(t, err)
	assert.Equal(t, 5, full.Emitted)
	assert.Empty(t, Finalize(full, layouts))
}
