// Package config loads the YAML configuration of the OME-TIFF generator and
// persists the IFD counters carried between incremental write sessions.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/omeforge/internal/image"
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff/defects"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
	"github.com/mrsinham/omeforge/internal/tiff"
	"github.com/mrsinham/omeforge/internal/util"
)

// Split selects how planes are distributed over files.
type Split string

const (
	SplitNone   Split = "none"
	SplitZ      Split = "z"
	SplitC      Split = "c"
	SplitT      Split = "t"
	SplitSeries Split = "series"
)

// AllSplits returns every split policy.
func AllSplits() []Split {
	return []Split{SplitNone, SplitZ, SplitC, SplitT, SplitSeries}
}

// ParseSplit parses a split policy name. The empty string means SplitNone.
func ParseSplit(s string) (Split, error) {
	v := Split(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return SplitNone, nil
	}
	for _, split := range AllSplits() {
		if v == split {
			return v, nil
		}
	}
	names := make([]string, 0, len(AllSplits()))
	for _, split := range AllSplits() {
		names = append(names, string(split))
	}
	return SplitNone, util.UnknownValueError("split", s, names)
}

// Config represents the complete generator configuration for YAML serialization.
type Config struct {
	Output  OutputConfig   `yaml:"output"`
	Series  []SeriesConfig `yaml:"series"`
	Seed    int64          `yaml:"seed"`
	Overlay bool           `yaml:"overlay"`
	Pattern string         `yaml:"pattern,omitempty"` // gradient, noise or ramp
	Defects []string       `yaml:"defects,omitempty"`
	Logging LoggingConfig  `yaml:"logging"`
}

// DefectTypes parses the defects to inject into the finished set.
func (c *Config) DefectTypes() ([]defects.Type, error) {
	return defects.ParseTypes(strings.Join(c.Defects, ","))
}

// OutputConfig controls where and how files are written.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Basename    string `yaml:"basename"`
	Split       string `yaml:"split"`
	Compression string `yaml:"compression"`
	// MaxFileSize starts a new file once a file's planes would exceed it,
	// e.g. "100MB". Empty means unlimited.
	MaxFileSize string `yaml:"max_file_size,omitempty"`
	// PlanesPerSession limits how many planes one run writes. Later runs
	// with the same state file continue where the last one stopped.
	PlanesPerSession int `yaml:"planes_per_session,omitempty"`
}

// SeriesConfig describes one image of the set.
type SeriesConfig struct {
	Name            string   `yaml:"name"`
	SizeX           int      `yaml:"size_x"`
	SizeY           int      `yaml:"size_y"`
	SizeZ           int      `yaml:"size_z"`
	SizeC           int      `yaml:"size_c"`
	SizeT           int      `yaml:"size_t"`
	DimensionOrder  string   `yaml:"dimension_order"`
	PixelType       string   `yaml:"pixel_type"`
	SamplesPerPixel int      `yaml:"samples_per_pixel"`
	Channels        []string `yaml:"channels,omitempty"`
}

// LoggingConfig holds the slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:         "ome-output",
			Basename:    "image",
			Split:       string(SplitNone),
			Compression: tiff.None.String(),
		},
		Series:  []SeriesConfig{DefaultSeries(0)},
		Overlay: true,
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// DefaultSeries returns the geometry used for series that leave fields unset.
func DefaultSeries(index int) SeriesConfig {
	return SeriesConfig{
		Name:            fmt.Sprintf("Series %d", index+1),
		SizeX:           256,
		SizeY:           256,
		SizeZ:           5,
		SizeC:           3,
		SizeT:           1,
		DimensionOrder:  string(dims.XYZCT),
		PixelType:       string(ome.Uint16),
		SamplesPerPixel: 1,
	}
}

// Load reads a YAML configuration. Unset series fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Series {
		s := &c.Series[i]
		def := DefaultSeries(i)
		if s.Name == "" {
			s.Name = def.Name
		}
		if s.SizeZ == 0 {
			s.SizeZ = 1
		}
		if s.SizeC == 0 {
			s.SizeC = 1
		}
		if s.SizeT == 0 {
			s.SizeT = 1
		}
		if s.DimensionOrder == "" {
			s.DimensionOrder = def.DimensionOrder
		}
		if s.PixelType == "" {
			s.PixelType = def.PixelType
		}
		if s.SamplesPerPixel == 0 {
			s.SamplesPerPixel = 1
		}
	}
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if c.Output.Dir == "" {
		add("output.dir must be set")
	}
	if c.Output.Basename == "" || strings.ContainsAny(c.Output.Basename, `/\`) {
		add("output.basename %q must be a plain file name", c.Output.Basename)
	}
	if _, err := ParseSplit(c.Output.Split); err != nil {
		add("output.split: %w", err)
	}
	if _, err := tiff.ParseCompression(c.Output.Compression); err != nil {
		add("output.compression: %w", err)
	}
	if c.Output.MaxFileSize != "" {
		if _, err := util.ParseSize(c.Output.MaxFileSize); err != nil {
			add("output.max_file_size: %w", err)
		}
	}
	if c.Output.PlanesPerSession < 0 {
		add("output.planes_per_session must be >= 0, got %d", c.Output.PlanesPerSession)
	}
	if _, err := image.ParsePattern(c.Pattern); err != nil {
		add("pattern: %w", err)
	}
	if _, err := c.DefectTypes(); err != nil {
		add("defects: %w", err)
	}
	if len(c.Series) == 0 {
		add("at least one series is required")
	}

	for i, s := range c.Series {
		prefix := fmt.Sprintf("series[%d]", i)
		if s.SizeX <= 0 || s.SizeY <= 0 {
			add("%s: size_x and size_y must be > 0, got %dx%d", prefix, s.SizeX, s.SizeY)
		}
		if s.SizeZ < 0 || s.SizeC <= 0 || s.SizeT < 0 {
			add("%s: invalid sizes z=%d c=%d t=%d", prefix, s.SizeZ, s.SizeC, s.SizeT)
		}
		if _, err := dims.ParseOrder(s.DimensionOrder); err != nil {
			add("%s: %w", prefix, err)
		}
		pt, err := ome.ParsePixelType(s.PixelType)
		if err != nil {
			add("%s: %w", prefix, err)
		} else if pt == ome.Bit {
			add("%s: pixel type bit cannot be generated", prefix)
		}
		if s.SamplesPerPixel <= 0 {
			add("%s: samples_per_pixel must be > 0", prefix)
		} else if s.SizeC%s.SamplesPerPixel != 0 {
			add("%s: size_c %d is not a multiple of samples_per_pixel %d", prefix, s.SizeC, s.SamplesPerPixel)
		}
		if len(s.Channels) > 0 && len(s.Channels) != s.SizeC/max(s.SamplesPerPixel, 1) {
			add("%s: %d channel names for %d channels", prefix, len(s.Channels), s.SizeC/max(s.SamplesPerPixel, 1))
		}
	}

	return result.ErrorOrNil()
}
