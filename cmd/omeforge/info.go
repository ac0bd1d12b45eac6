package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/image"
	"github.com/mrsinham/omeforge/internal/logging"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)

	planes := fs.Bool("planes", false, "List the file and IFD of every plane")
	stats := fs.Bool("stats", false, "Show pixel statistics of each plane")
	maxPlanes := fs.Int("max-planes", 16, "Limit --planes and --stats to N planes per series")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("info requires exactly one file argument")
	}
	path := fs.Arg(0)

	log := logging.Setup(stderr, *logLevel, *logFormat)
	if !ometiff.HasOMESuffix(path) {
		log.Warn("file name has no OME-TIFF suffix", "file", path)
	}

	r, err := ometiff.Open(path, ometiff.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	doc := r.Metadata()
	fmt.Fprintln(stdout, titleStyle.Render(filepath.Base(path)))
	field(stdout, "UUID", doc.UUID)
	if doc.Creator != "" {
		field(stdout, "Creator", doc.Creator)
	}
	if r.IsHCS() {
		field(stdout, "Plate", "yes")
	}

	uuids := make(map[string]string)
	for _, e := range r.FileEntries() {
		uuids[e.Filename] = e.UUID
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, headingStyle.Render(fmt.Sprintf("Files (%d)", len(r.UsedFiles()))))
	for _, f := range r.UsedFiles() {
		size := "missing"
		if info, err := os.Stat(f); err == nil {
			size = util.FormatSize(info.Size())
		}
		line := fmt.Sprintf("  %s  %s", filepath.Base(f), labelStyle.Render(size))
		if u := uuids[f]; u != "" {
			line += "  " + labelStyle.Render(u)
		}
		fmt.Fprintln(stdout, line)
	}

	for i := 0; i < r.SeriesCount(); i++ {
		s, err := r.Series(i)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, headingStyle.Render(fmt.Sprintf("Series %d: %s", i, seriesName(s))))
		field(stdout, "Dimensions", fmt.Sprintf("%dx%d, Z=%d C=%d T=%d (%s)",
			s.SizeX, s.SizeY, s.SizeZ, s.EffectiveSizeC, s.SizeT, s.DimensionOrder))
		pixelType := string(s.PixelType)
		if s.PhysicalPixelType != "" && s.PhysicalPixelType != s.PixelType {
			pixelType += warnStyle.Render(fmt.Sprintf(" (stored as %s)", s.PhysicalPixelType))
		}
		field(stdout, "Pixel type", pixelType)
		if s.PhysicalSizeX != s.SizeX || s.PhysicalSizeY != s.SizeY {
			field(stdout, "Stored size", warnStyle.Render(fmt.Sprintf("%dx%d", s.PhysicalSizeX, s.PhysicalSizeY)))
		}
		samples := fmt.Sprintf("%d per pixel", s.SamplesPerPixel)
		if s.RGB {
			samples += ", RGB"
		}
		if s.AdjustedSamples {
			samples += warnStyle.Render(", adjusted from file")
		}
		field(stdout, "Samples", samples)
		if s.Empty {
			field(stdout, "Planes", "none (empty series)")
			continue
		}
		field(stdout, "Planes", fmt.Sprint(s.PlaneCount))

		var names []string
		for _, f := range r.SeriesUsedFiles(i) {
			names = append(names, filepath.Base(f))
		}
		field(stdout, "Files", fmt.Sprint(names))

		if !*planes && !*stats {
			continue
		}
		n := s.PlaneCount
		if *maxPlanes > 0 {
			n = min(n, *maxPlanes)
		}
		for no := 0; no < n; no++ {
			if err := printPlane(stdout, r, i, no, s, *planes, *stats); err != nil {
				return err
			}
		}
		if n < s.PlaneCount {
			fmt.Fprintln(stdout, labelStyle.Render(fmt.Sprintf("    ... %d more", s.PlaneCount-n)))
		}
	}
	return nil
}

func printPlane(w io.Writer, r *ometiff.Reader, series, no int, s ometiff.Series, planes, stats bool) error {
	c, err := s.PlaneCoord(no)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("    #%-4d %s", no, image.PlaneLabel(c.Z, c.C, c.T))

	if planes {
		slot, file, err := r.Plane(series, no)
		if err != nil {
			return err
		}
		line += fmt.Sprintf("  %s IFD %d", filepath.Base(file), slot.IFD)
		if !slot.Certain {
			line += warnStyle.Render(" (inferred)")
		}
	}

	if stats {
		data, err := r.ReadPlane(series, no)
		if err != nil {
			return err
		}
		pt := s.PixelType
		if s.PhysicalPixelType != "" {
			pt = s.PhysicalPixelType
		}
		sum, err := image.Summarize(data, pt)
		if err != nil {
			return err
		}
		line += labelStyle.Render(fmt.Sprintf("  min=%g max=%g mean=%.2f sd=%.2f", sum.Min, sum.Max, sum.Mean, sum.StdDev))
	}

	fmt.Fprintln(w, line)
	return nil
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
}

func seriesName(s ometiff.Series) string {
	if s.Name == "" {
		return s.ImageID
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.ImageID)
}
