package util

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestGenerateChannelName_Deterministic(t *testing.T) {
	// Test that same seed produces same name
	name1 := GenerateChannelName(rand.New(rand.NewPCG(42, 42)))
	name2 := GenerateChannelName(rand.New(rand.NewPCG(42, 42)))

	if name1 != name2 {
		t.Errorf("Same seed should produce same name: %s != %s", name1, name2)
	}
}

func TestGenerateChannelName_FromPools(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	proteins := 0
	const n = 2000
	for i := 0; i < n; i++ {
		name := GenerateChannelName(rng)
		switch {
		case slices.Contains(FluorescentProteinNames, name):
			proteins++
		case slices.Contains(DyeNames, name):
		default:
			t.Fatalf("GenerateChannelName() = %q, not in any pool", name)
		}
	}

	ratio := float64(proteins) / n
	if ratio < 0.15 || ratio > 0.25 {
		t.Errorf("fluorescent protein ratio = %.2f, want about %.2f", ratio, FluorescentProteinProbability)
	}
}

func TestChannelNames(t *testing.T) {
	tests := []struct {
		n            int
		wantContrast bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{60, true},
	}

	for _, tt := range tests {
		names := ChannelNames(tt.n, rand.New(rand.NewPCG(1, 2)))
		if len(names) != tt.n {
			t.Fatalf("ChannelNames(%d) returned %d names", tt.n, len(names))
		}
		if tt.n > 0 && slices.Contains(ContrastNames, names[0]) != tt.wantContrast {
			t.Errorf("ChannelNames(%d)[0] = %q, contrast channel = %v", tt.n, names[0], tt.wantContrast)
		}
		seen := make(map[string]bool)
		for _, name := range names {
			if seen[name] {
				t.Errorf("ChannelNames(%d) repeats %q", tt.n, name)
			}
			seen[name] = true
		}
	}
}
