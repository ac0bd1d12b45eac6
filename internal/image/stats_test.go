package image

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/omeforge/internal/ome"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]byte{0, 255, 255, 0}, ome.Uint8)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 255.0, s.Max)
	assert.Equal(t, 127.5, s.Mean)
	assert.InDelta(t, math.Sqrt(4*127.5*127.5/3), s.StdDev, 1e-9)
}

func TestSummarize_Signed(t *testing.T) {
	data, err := Encode([]float64{0, 1}, ome.Int16)
	require.NoError(t, err)
	s, err := Summarize(data, ome.Int16)
	require.NoError(t, err)
	assert.Equal(t, -32768.0, s.Min)
	assert.Equal(t, 32767.0, s.Max)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil, ome.Uint8)
	assert.Error(t, err)
	_, err = Summarize([]byte{1, 2, 3}, ome.Uint16)
	assert.Error(t, err)
}
