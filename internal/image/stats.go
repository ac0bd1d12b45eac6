package image

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mrsinham/omeforge/internal/ome"
)

// Summary holds descriptive statistics of a plane's samples.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize decodes a plane of pt samples and computes its statistics.
func Summarize(data []byte, pt ome.PixelType) (Summary, error) {
	values, err := Decode(data, pt)
	if err != nil {
		return Summary{}, err
	}
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("empty plane")
	}
	mean, std := stat.MeanStdDev(values, nil)
	return Summary{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}, nil
}
