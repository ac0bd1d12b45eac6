// Package util provides helpers shared by the OME-TIFF generator and the CLI.
package util

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Package-level default RNG to avoid allocations when rng is nil
var defaultRNG = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

// FluorescentProteinProbability is the probability (0.0-1.0) of naming a
// channel after a fluorescent protein rather than a dye
const FluorescentProteinProbability = 0.20

var (
	// DyeNames is the list of common fluorescent dye channel names
	DyeNames = []string{
		"DAPI", "Hoechst", "FITC", "TRITC", "Texas Red", "Cy2", "Cy3", "Cy5", "Cy7",
		"Alexa Fluor 405", "Alexa Fluor 488", "Alexa Fluor 546", "Alexa Fluor 555",
		"Alexa Fluor 568", "Alexa Fluor 594", "Alexa Fluor 647", "Alexa Fluor 680",
		"Atto 488", "Atto 565", "Atto 647N", "Rhodamine", "Propidium Iodide",
		"MitoTracker Red", "LysoTracker Green", "Phalloidin", "SiR-Actin",
	}

	// FluorescentProteinNames is the list of fluorescent protein channel names
	FluorescentProteinNames = []string{
		"GFP", "EGFP", "mEmerald", "YFP", "EYFP", "mVenus", "mCitrine", "CFP", "ECFP",
		"mCerulean", "mTurquoise2", "BFP", "mTagBFP", "RFP", "mCherry", "tdTomato",
		"mKate2", "mScarlet", "mNeonGreen", "iRFP670",
	}

	// ContrastNames is used for transmitted-light channels
	ContrastNames = []string{"Brightfield", "DIC", "Phase"}
)

// GenerateChannelName returns a realistic channel name.
// Names are 80% dyes and 20% fluorescent proteins.
//
// If rng is nil, uses shared default RNG.
func GenerateChannelName(rng *rand.Rand) string {
	if rng == nil {
		rng = defaultRNG
	}

	if rng.Float64() < FluorescentProteinProbability {
		return FluorescentProteinNames[rng.IntN(len(FluorescentProteinNames))]
	}
	return DyeNames[rng.IntN(len(DyeNames))]
}

// ChannelNames returns n distinct channel names. The first channel of a
// series with more than two channels is a transmitted-light channel.
// Names repeat with a numeric suffix once the pools are exhausted.
func ChannelNames(n int, rng *rand.Rand) []string {
	if rng == nil {
		rng = defaultRNG
	}

	names := make([]string, 0, n)
	used := make(map[string]int)
	for i := 0; i < n; i++ {
		var name string
		if i == 0 && n > 2 {
			name = ContrastNames[rng.IntN(len(ContrastNames))]
		} else {
			name = GenerateChannelName(rng)
		}
		used[name]++
		if k := used[name]; k > 1 {
			name = fmt.Sprintf("%s (%d)", name, k)
		}
		names = append(names, name)
	}
	return names
}
