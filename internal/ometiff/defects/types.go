// Package defects damages the metadata of a generated OME-TIFF set the way
// real acquisition and export tools do, so that readers can be tested on
// the recovery and failure paths of plane mapping.
package defects

import (
	"fmt"
	"strings"

	"github.com/mrsinham/omeforge/internal/util"
)

// Type is a category of defect.
type Type string

const (
	// DropReference removes one TiffData element, leaving a plane unmapped.
	DropReference Type = "drop-reference"
	// MissingFile deletes one companion file of the set.
	MissingFile Type = "missing-file"
	// UUIDConflict gives two files the same UUID value.
	UUIDConflict Type = "uuid-conflict"
	// BareUUID strips the FileName of the references to one companion file.
	BareUUID Type = "bare-uuid"
	// OneIndexed shifts every FirstZ, FirstC and FirstT by one.
	OneIndexed Type = "one-indexed"
	// UnsetSamples removes SamplesPerPixel from every channel.
	UnsetSamples Type = "unset-samples"
)

// AllTypes returns all valid defect types.
func AllTypes() []Type {
	return []Type{DropReference, MissingFile, UUIDConflict, BareUUID, OneIndexed, UnsetSamples}
}

// NeedsCompanion reports whether t needs a set of at least two files.
func (t Type) NeedsCompanion() bool {
	switch t {
	case MissingFile, UUIDConflict, BareUUID:
		return true
	}
	return false
}

// Config holds defect injection settings.
type Config struct {
	Types []Type `yaml:"types,omitempty"`
}

// ParseTypes parses comma-separated defect types.
// The special value "all" enables every type.
func ParseTypes(input string) ([]Type, error) {
	if input == "" {
		return nil, nil
	}

	valid := make([]string, 0, len(AllTypes()))
	for _, t := range AllTypes() {
		valid = append(valid, string(t))
	}

	var result []Type
	seen := make(map[Type]bool)
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if p == "all" {
			return AllTypes(), nil
		}
		t := Type(p)
		if !t.valid() {
			return nil, util.UnknownValueError("defect type", p, append(valid, "all"))
		}
		if !seen[t] {
			result = append(result, t)
			seen[t] = true
		}
	}
	return result, nil
}

func (t Type) valid() bool {
	for _, v := range AllTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	for _, t := range c.Types {
		if !t.valid() {
			return fmt.Errorf("unknown defect type %q", t)
		}
	}
	return nil
}

// IsEnabled returns true if any defect is enabled
func (c *Config) IsEnabled() bool {
	return len(c.Types) > 0
}

// HasType checks if a specific defect type is enabled
func (c *Config) HasType(t Type) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}
