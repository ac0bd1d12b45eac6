package generator

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/ometiff/dims"
	"github.com/mrsinham/omeforge/internal/util"
)

// Creator is written in the Creator attribute of generated documents.
const Creator = "omeforge"

// PlannedPlane is one plane of the generated set and the file it goes to.
type PlannedPlane struct {
	Series int
	Plane  int
	Coord  dims.Coord
	File   string
}

// BuildDocument builds the OME-XML document described by cfg. Channel names
// missing from the configuration are drawn from rng.
func BuildDocument(cfg *config.Config, rng *rand.Rand) (*ome.Document, error) {
	doc := &ome.Document{Creator: Creator}
	for i, s := range cfg.Series {
		order, err := dims.ParseOrder(s.DimensionOrder)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		pt, err := ome.ParsePixelType(s.PixelType)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		spp := max(s.SamplesPerPixel, 1)

		names := s.Channels
		if len(names) == 0 {
			names = util.ChannelNames(s.SizeC/spp, rng)
		}

		img := ome.Image{
			ID:   fmt.Sprintf("Image:%d", i),
			Name: s.Name,
			Pixels: ome.Pixels{
				ID:             fmt.Sprintf("Pixels:%d", i),
				DimensionOrder: string(order),
				Type:           string(pt),
				SizeX:          s.SizeX,
				SizeY:          s.SizeY,
				SizeZ:          s.SizeZ,
				SizeC:          s.SizeC,
				SizeT:          s.SizeT,
			},
		}
		for k, name := range names {
			img.Pixels.Channels = append(img.Pixels.Channels, ome.Channel{
				ID:              fmt.Sprintf("Channel:%d:%d", i, k),
				Name:            name,
				SamplesPerPixel: spp,
			})
		}
		doc.Images = append(doc.Images, img)
	}
	return doc, nil
}

// Plan assigns every plane of doc to a file of the output directory, in
// series then plane order. The assignment depends only on the configuration,
// so every session of an incremental generation computes the same plan.
func Plan(cfg *config.Config, doc *ome.Document) ([]PlannedPlane, error) {
	split, err := config.ParseSplit(cfg.Output.Split)
	if err != nil {
		return nil, err
	}
	var maxSize int64
	if cfg.Output.MaxFileSize != "" {
		if maxSize, err = util.ParseSize(cfg.Output.MaxFileSize); err != nil {
			return nil, fmt.Errorf("invalid max file size: %w", err)
		}
	}
	dir, err := filepath.Abs(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	layouts, err := ometiff.Layouts(doc)
	if err != nil {
		return nil, err
	}

	multi := len(layouts) > 1
	sizes := make(map[string]int64)
	parts := make(map[string]int)

	var planes []PlannedPlane
	for s, l := range layouts {
		planeSize := int64(l.Plane.Size())
		for no := 0; no < l.Sizes.PlaneCount(); no++ {
			c, err := l.Order.Coords(l.Sizes, no)
			if err != nil {
				return nil, err
			}
			stem := fileStem(cfg.Output.Basename, split, multi, s, c)
			if maxSize > 0 && sizes[stem] > 0 && sizes[stem]+planeSize > maxSize {
				parts[stem]++
				sizes[stem] = 0
			}
			sizes[stem] += planeSize

			name := stem
			if p := parts[stem]; p > 0 {
				name = fmt.Sprintf("%s_part%d", stem, p)
			}
			planes = append(planes, PlannedPlane{
				Series: s,
				Plane:  no,
				Coord:  c,
				File:   filepath.Join(dir, name+".ome.tif"),
			})
		}
	}
	return planes, nil
}

func fileStem(base string, split config.Split, multi bool, series int, c dims.Coord) string {
	switch split {
	case config.SplitSeries:
		return fmt.Sprintf("%s_s%d", base, series)
	case config.SplitZ, config.SplitC, config.SplitT:
		if multi {
			base = fmt.Sprintf("%s_s%d", base, series)
		}
		switch split {
		case config.SplitZ:
			return fmt.Sprintf("%s_z%d", base, c.Z)
		case config.SplitC:
			return fmt.Sprintf("%s_c%d", base, c.C)
		default:
			return fmt.Sprintf("%s_t%d", base, c.T)
		}
	default:
		return base
	}
}

// Files returns the distinct files of a plan, in order of first use.
func Files(planes []PlannedPlane) []string {
	var files []string
	seen := make(map[string]bool)
	for _, p := range planes {
		if !seen[p.File] {
			seen[p.File] = true
			files = append(files, p.File)
		}
	}
	return files
}
