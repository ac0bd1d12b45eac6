// Package image synthesizes plane pixel data for the OME-TIFF generator.
package image

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/util"
)

// Pattern selects the synthetic content of a plane.
type Pattern string

const (
	// PatternGradient is a radial gradient with layered noise.
	PatternGradient Pattern = "gradient"
	// PatternNoise is uniform noise.
	PatternNoise Pattern = "noise"
	// PatternRamp is a noiseless diagonal ramp.
	PatternRamp Pattern = "ramp"
)

// AllPatterns returns every pattern.
func AllPatterns() []Pattern {
	return []Pattern{PatternGradient, PatternNoise, PatternRamp}
}

// ParsePattern parses a pattern name. The empty string means PatternGradient.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PatternGradient, nil
	}
	for _, valid := range AllPatterns() {
		if p == valid {
			return p, nil
		}
	}
	names := make([]string, 0, len(AllPatterns()))
	for _, valid := range AllPatterns() {
		names = append(names, string(valid))
	}
	return PatternGradient, util.UnknownValueError("pattern", s, names)
}

// PlaneParams describes one plane to synthesize.
type PlaneParams struct {
	Width           int
	Height          int
	SamplesPerPixel int
	PixelType       ome.PixelType
	Pattern         Pattern
	Seed            uint64
	// Label is drawn centered on every sample when not empty.
	Label string
}

// GeneratePlane returns the interleaved little-endian samples of a plane.
// The same parameters always produce the same bytes.
func GeneratePlane(p PlaneParams) ([]byte, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", p.Width, p.Height)
	}
	if p.SamplesPerPixel <= 0 {
		return nil, fmt.Errorf("invalid samples per pixel: %d", p.SamplesPerPixel)
	}
	if p.PixelType == ome.Bit || p.PixelType.BytesPerSample() == 0 {
		return nil, fmt.Errorf("cannot generate pixel type %q", p.PixelType)
	}

	values := make([]float64, p.Width*p.Height*p.SamplesPerPixel)
	switch p.Pattern {
	case PatternNoise:
		noise(values, p.Seed)
	case PatternRamp:
		ramp(values, p.Width, p.Height, p.SamplesPerPixel)
	case PatternGradient, "":
		gradient(values, p.Width, p.Height, p.SamplesPerPixel, p.Seed)
	default:
		return nil, fmt.Errorf("unknown pattern %q", p.Pattern)
	}

	if p.Label != "" {
		drawLabel(values, p.Width, p.Height, p.SamplesPerPixel, p.Label)
	}
	return Encode(values, p.PixelType)
}

// gradient fills values with a radial gradient centered differently for each
// sample, plus three octaves of noise.
func gradient(values []float64, width, height, spp int, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))

	const baseValue = 0.35
	for s := 0; s < spp; s++ {
		centerX := float64(width) * float64(s+1) / float64(spp+1)
		centerY := float64(height) / 2
		maxDist := math.Hypot(math.Max(centerX, float64(width)-centerX), centerY)

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dist := math.Hypot(float64(x)-centerX, float64(y)-centerY)
				normalizedDist := dist / maxDist
				baseIntensity := baseValue + (1.0-normalizedDist)*0.3

				largeNoise := (rng.Float64() - 0.5) * 0.3
				mediumNoise := (rng.Float64() - 0.5) * 0.15
				fineNoise := (rng.Float64() - 0.5) * 0.075

				intensity := baseIntensity + largeNoise + mediumNoise + fineNoise
				values[(y*width+x)*spp+s] = math.Max(0, math.Min(1, intensity))
			}
		}
	}
}

func noise(values []float64, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range values {
		values[i] = rng.Float64()
	}
}

func ramp(values []float64, width, height, spp int) {
	span := float64(max(width+height-2, 1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(x+y) / span
			for s := 0; s < spp; s++ {
				values[(y*width+x)*spp+s] = v
			}
		}
	}
}

// Encode converts intensities in [0,1] to little-endian samples of pt,
// spanning the full range of integer types.
func Encode(values []float64, pt ome.PixelType) ([]byte, error) {
	bps := pt.BytesPerSample()
	if pt == ome.Bit || bps == 0 {
		return nil, fmt.Errorf("cannot encode pixel type %q", pt)
	}

	out := make([]byte, len(values)*bps)
	le := binary.LittleEndian
	for i, v := range values {
		v = math.Max(0, math.Min(1, v))
		b := out[i*bps:]
		switch pt {
		case ome.Uint8:
			b[0] = uint8(math.Round(v * math.MaxUint8))
		case ome.Int8:
			b[0] = uint8(int8(math.Round(v*math.MaxUint8) + math.MinInt8))
		case ome.Uint16:
			le.PutUint16(b, uint16(math.Round(v*math.MaxUint16)))
		case ome.Int16:
			le.PutUint16(b, uint16(int16(math.Round(v*math.MaxUint16)+math.MinInt16)))
		case ome.Uint32:
			le.PutUint32(b, uint32(math.Round(v*math.MaxUint32)))
		case ome.Int32:
			le.PutUint32(b, uint32(int32(math.Round(v*math.MaxUint32)+math.MinInt32)))
		case ome.Float:
			le.PutUint32(b, math.Float32bits(float32(v)))
		case ome.Double:
			le.PutUint64(b, math.Float64bits(v))
		}
	}
	return out, nil
}

// Decode converts little-endian samples of pt to their numeric values.
func Decode(data []byte, pt ome.PixelType) ([]float64, error) {
	bps := pt.BytesPerSample()
	if pt == ome.Bit || bps == 0 {
		return nil, fmt.Errorf("cannot decode pixel type %q", pt)
	}
	if len(data)%bps != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %s samples", len(data), pt)
	}

	out := make([]float64, len(data)/bps)
	le := binary.LittleEndian
	for i := range out {
		b := data[i*bps:]
		switch pt {
		case ome.Uint8:
			out[i] = float64(b[0])
		case ome.Int8:
			out[i] = float64(int8(b[0]))
		case ome.Uint16:
			out[i] = float64(le.Uint16(b))
		case ome.Int16:
			out[i] = float64(int16(le.Uint16(b)))
		case ome.Uint32:
			out[i] = float64(le.Uint32(b))
		case ome.Int32:
			out[i] = float64(int32(le.Uint32(b)))
		case ome.Float:
			out[i] = float64(math.Float32frombits(le.Uint32(b)))
		case ome.Double:
			out[i] = math.Float64frombits(le.Uint64(b))
		}
	}
	return out, nil
}
