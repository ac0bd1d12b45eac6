// Package generator writes synthetic OME-TIFF file sets described by a
// configuration, optionally over several incremental sessions.
package generator

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"sync"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/image"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/ometiff/defects"
	"github.com/mrsinham/omeforge/internal/tiff"
	"github.com/mrsinham/omeforge/internal/util"
)

// Options configures a generation run.
type Options struct {
	Config *config.Config
	// StatePath persists the IFD counters and progress between sessions.
	// Required when Config.Output.PlanesPerSession is set.
	StatePath string
	Workers   int // Number of parallel workers (0 = auto-detect based on CPU cores)

	// Output control
	Quiet            bool
	Out              io.Writer                // Progress output (default os.Stdout)
	Logger           *slog.Logger             // Debug logging (default slog.Default())
	ProgressCallback func(current, total int) // Optional callback for progress updates
	NewUUID          func() string            // Per-file UUID source (default ometiff.NewUUID)
}

// GeneratedFile describes one file of the set.
type GeneratedFile struct {
	Path   string
	Planes int
	Size   int64
}

// Result summarizes a run.
type Result struct {
	Files    []GeneratedFile
	Seed     int64
	Written  int // Planes written by this run
	Total    int // Planes of the complete set
	Complete bool
	Defects  []defects.Applied
}

// defectStream keeps defect choices independent of the pixel and name streams.
const defectStream = 0xdefec7

// ResolveSeed returns the configured seed, or one derived from the output
// directory so that the same directory always gets the same content.
func ResolveSeed(cfg *config.Config) int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(cfg.Output.Dir)) // hash.Write never returns an error
	return int64(h.Sum64())
}

// Generate writes the planes of the configured set that are still missing,
// at most Config.Output.PlanesPerSession of them when that is set.
func Generate(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	defectTypes, err := cfg.DefectTypes()
	if err != nil {
		return nil, err
	}
	if cfg.Output.PlanesPerSession > 0 && opts.StatePath == "" {
		return nil, errors.New("planes_per_session requires a state file")
	}
	compression, err := tiff.ParseCompression(cfg.Output.Compression)
	if err != nil {
		return nil, err
	}
	pattern, err := image.ParsePattern(cfg.Pattern)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Quiet {
		out = io.Discard
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	seed := ResolveSeed(cfg)
	if cfg.Seed != 0 {
		fmt.Fprintf(out, "Using seed: %d\n", seed)
	} else {
		fmt.Fprintf(out, "Auto-generated seed from '%s': %d\n", cfg.Output.Dir, seed)
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	doc, err := BuildDocument(cfg, rng)
	if err != nil {
		return nil, err
	}
	planes, err := Plan(cfg, doc)
	if err != nil {
		return nil, err
	}
	layouts, err := ometiff.Layouts(doc)
	if err != nil {
		return nil, err
	}

	state := &config.State{Counters: map[string]int{}}
	if opts.StatePath != "" {
		if state, err = config.LoadState(opts.StatePath); err != nil {
			return nil, err
		}
	}

	total := len(planes)
	start := min(state.NextPlane, total)
	end := total
	if n := cfg.Output.PlanesPerSession; n > 0 {
		end = min(start+n, total)
	}
	res := &Result{Seed: seed, Total: total}

	if start >= total {
		fmt.Fprintf(out, "Nothing to do: all %d planes already written\n", total)
		res.Complete = true
		res.Files = describe(planes)
		return res, nil
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	batch := planes[start:end]
	if start > 0 || end < total {
		fmt.Fprintf(out, "Session: planes %d-%d of %d\n", start+1, end, total)
	}

	data, err := render(opts, cfg, layouts, pattern, seed, batch, out)
	if err != nil {
		return nil, err
	}

	writerOpts := []ometiff.WriterOption{
		ometiff.WithCompression(compression),
		ometiff.WithWriterLogger(log),
	}
	if opts.NewUUID != nil {
		writerOpts = append(writerOpts, ometiff.WithUUIDSource(opts.NewUUID))
	}
	w, err := ometiff.NewWriter(doc, state.Counters, writerOpts...)
	if err != nil {
		return nil, err
	}
	for i, p := range batch {
		if err := w.WritePlane(p.Series, p.Plane, p.File, data[i]); err != nil {
			w.Abort()
			return nil, err
		}
	}
	counters, err := w.Close()
	if err != nil {
		return nil, err
	}

	res.Written = len(batch)
	res.Complete = end == total
	if res.Complete && start > 0 {
		// Files of earlier sessions only reference their own session's planes.
		log.Debug("consolidating file set", "files", len(Files(planes)))
		if err := ometiff.Consolidate(Files(planes)); err != nil {
			return nil, err
		}
	}

	if res.Complete && len(defectTypes) > 0 {
		rng := rand.New(rand.NewPCG(uint64(seed), defectStream))
		a := defects.NewApplicator(defects.Config{Types: defectTypes}, rng, log)
		if res.Defects, err = a.Apply(Files(planes)); err != nil {
			return nil, fmt.Errorf("injecting defects: %w", err)
		}
		for _, d := range res.Defects {
			if d.File != "" {
				fmt.Fprintf(out, "⚠ Injected %s in %s: %s\n", d.Type, d.File, d.Detail)
			} else {
				fmt.Fprintf(out, "⚠ Injected %s: %s\n", d.Type, d.Detail)
			}
		}
	}

	if opts.StatePath != "" {
		state.Counters = counters
		state.NextPlane = end
		if err := config.SaveState(opts.StatePath, state); err != nil {
			return nil, err
		}
	}

	res.Files = describe(planes)
	var size int64
	for _, f := range res.Files {
		size += f.Size
	}
	if res.Complete {
		fmt.Fprintf(out, "\n✓ %d planes in %d OME-TIFF files (%s) created in: %s/\n",
			total, len(res.Files), util.FormatSize(size), cfg.Output.Dir)
	} else {
		fmt.Fprintf(out, "\n%d of %d planes written, run again to continue\n", end, total)
	}
	return res, nil
}

type renderTask struct {
	index int
	plane PlannedPlane
}

type renderResult struct {
	index int
	data  []byte
	err   error
}

// render synthesizes the pixel data of planes in parallel. The result is
// indexed like planes.
func render(opts Options, cfg *config.Config, layouts []ometiff.SeriesLayout, pattern image.Pattern, seed int64, planes []PlannedPlane, out io.Writer) ([][]byte, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	// Don't use more workers than tasks
	if numWorkers > len(planes) {
		numWorkers = len(planes)
	}

	fmt.Fprintf(out, "\nGenerating %d planes with %d parallel workers...\n", len(planes), numWorkers)

	taskChan := make(chan renderTask, len(planes))
	resultChan := make(chan renderResult, len(planes))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				data, err := image.GeneratePlane(planeParams(cfg, layouts[task.plane.Series], pattern, seed, task.plane))
				resultChan <- renderResult{task.index, data, err}
			}
		}()
	}

	for i, p := range planes {
		taskChan <- renderTask{i, p}
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	data := make([][]byte, len(planes))
	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			p := planes[result.index]
			firstErr = fmt.Errorf("generate series %d plane %d: %w", p.Series, p.Plane, result.err)
		}
		data[result.index] = result.data
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(planes))
		}
		if completed%10 == 0 || completed == len(planes) {
			progress := float64(completed) / float64(len(planes)) * 100
			fmt.Fprintf(out, "  Progress: %d/%d (%.0f%%)\n", completed, len(planes), progress)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return data, nil
}

// planeParams derives the synthesis parameters of one plane. The pixel seed
// depends only on the run seed and the plane's position.
func planeParams(cfg *config.Config, l ometiff.SeriesLayout, pattern image.Pattern, seed int64, p PlannedPlane) image.PlaneParams {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d_pixel_%d_%d", seed, p.Series, p.Plane)

	params := image.PlaneParams{
		Width:           l.Plane.Width,
		Height:          l.Plane.Height,
		SamplesPerPixel: l.Plane.SamplesPerPixel,
		PixelType:       l.Plane.PixelType,
		Pattern:         pattern,
		Seed:            h.Sum64(),
	}
	if cfg.Overlay {
		params.Label = image.PlaneLabel(p.Coord.Z, p.Coord.C, p.Coord.T)
	}
	return params
}

func describe(planes []PlannedPlane) []GeneratedFile {
	counts := make(map[string]int)
	for _, p := range planes {
		counts[p.File]++
	}
	var files []GeneratedFile
	for _, path := range Files(planes) {
		f := GeneratedFile{Path: path, Planes: counts[path]}
		if info, err := os.Stat(path); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
	}
	return files
}
