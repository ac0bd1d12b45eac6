package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mrsinham/omeforge/cmd/omeforge/wizard"
	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/generator"
	"github.com/mrsinham/omeforge/internal/logging"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stdout)
		return 1
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:], stdout, stderr)
	case "info":
		err = runInfo(args[1:], stdout, stderr)
	case "wizard":
		err = runWizard(args[1:], stderr)
	case "version", "--version", "-version":
		fmt.Fprintf(stdout, "omeforge %s\n", version)
	case "help", "--help", "-help", "-h":
		printHelp(stdout)
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
		printHelp(stderr)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runGenerate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Load configuration from YAML file")
	saveConfig := fs.String("save-config", "", "Save the effective configuration to YAML file")
	statePath := fs.String("state", "", "State file for incremental sessions")
	outputDir := fs.String("output", "", "Output directory (overrides config)")
	seed := fs.Int64("seed", 0, "Seed for reproducibility (overrides config)")
	split := fs.String("split", "", "Plane distribution: none, z, c, t, series (overrides config)")
	compression := fs.String("compression", "", "Plane compression: none, deflate (overrides config)")
	planesPerSession := fs.Int("planes-per-session", 0, "Write at most N planes per run (requires --state)")
	defectList := fs.String("defects", "", "Inject metadata defects once the set is complete (comma-separated, or 'all')")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	// Explicit flags win over the configuration file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.Output.Dir = *outputDir
		case "seed":
			cfg.Seed = *seed
		case "split":
			cfg.Output.Split = *split
		case "compression":
			cfg.Output.Compression = *compression
		case "planes-per-session":
			cfg.Output.PlanesPerSession = *planesPerSession
		case "defects":
			cfg.Defects = strings.Split(*defectList, ",")
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})

	log := logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)

	if !*quiet {
		fmt.Fprintln(stdout, "omeforge")
		fmt.Fprintln(stdout, "========")
		if *configFile != "" {
			fmt.Fprintf(stdout, "Loading config from %s\n", *configFile)
		}
	}

	res, err := generator.Generate(generator.Options{
		Config:    cfg,
		StatePath: *statePath,
		Workers:   *workers,
		Quiet:     *quiet,
		Out:       stdout,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("generating OME-TIFF set: %w", err)
	}

	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			fmt.Fprintf(stderr, "Warning: could not save config: %v\n", err)
		} else if !*quiet {
			fmt.Fprintf(stdout, "Configuration saved to %s\n", *saveConfig)
		}
	}

	if !*quiet && res.Complete && res.Written > 0 {
		fmt.Fprintln(stdout, "\n✓ Generation complete!")
		fmt.Fprintf(stdout, "  Open any file of the set, e.g. %s\n", res.Files[0].Path)
	}
	return nil
}

func runWizard(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("wizard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "Pre-fill the wizard from a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return wizard.Run(*from)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "omeforge")
	fmt.Fprintln(w, "========")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate and inspect multi-file OME-TIFF datasets.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  omeforge generate [options]     Write a synthetic OME-TIFF file set")
	fmt.Fprintln(w, "  omeforge info [options] <FILE>  Show how the planes of a set map to files")
	fmt.Fprintln(w, "  omeforge wizard [--from FILE]   Describe a set interactively, then generate it")
	fmt.Fprintln(w, "  omeforge version                Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate options:")
	fmt.Fprintln(w, "  --config <FILE>       Load configuration from YAML file")
	fmt.Fprintln(w, "  --save-config <FILE>  Save the effective configuration after generation")
	fmt.Fprintln(w, "  --output <DIR>        Output directory (default: 'ome-output')")
	fmt.Fprintln(w, "  --seed <N>            Seed for reproducibility (derived from --output if not specified)")
	fmt.Fprintln(w, "  --split <POLICY>      One file per: none, z, c, t, series (default: none)")
	fmt.Fprintln(w, "  --compression <C>     none or deflate (default: none)")
	fmt.Fprintln(w, "  --state <FILE>        Resume an interrupted generation from FILE")
	fmt.Fprintln(w, "  --planes-per-session <N>")
	fmt.Fprintln(w, "                        Write at most N planes per run (requires --state)")
	fmt.Fprintln(w, "  --defects <TYPES>     Damage the finished set's metadata (comma-separated, or 'all'):")
	fmt.Fprintln(w, "                        drop-reference, missing-file, uuid-conflict,")
	fmt.Fprintln(w, "                        bare-uuid, one-indexed, unset-samples")
	fmt.Fprintf(w, "  --workers <N>         Number of parallel workers (default: %d = CPU cores)\n", runtime.NumCPU())
	fmt.Fprintln(w, "  --quiet               Suppress progress output")
	fmt.Fprintln(w, "  --log-level <LEVEL>   debug, info, warn, error (default: info)")
	fmt.Fprintln(w, "  --log-format <F>      text or json (default: text)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Info options:")
	fmt.Fprintln(w, "  --planes              List the file and IFD of every plane")
	fmt.Fprintln(w, "  --stats               Show pixel statistics of each plane")
	fmt.Fprintln(w, "  --max-planes <N>      Limit --planes and --stats to N planes per series (default: 16)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # One file per channel, deflate compressed")
	fmt.Fprintln(w, "  omeforge generate --output cells --split c --compression deflate")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Write a large set over several runs")
	fmt.Fprintln(w, "  omeforge generate --config big.yaml --state big.state --planes-per-session 100")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # A set whose TiffData use one-based coordinates")
	fmt.Fprintln(w, "  omeforge generate --output legacy --split z --defects one-indexed")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Inspect the set")
	fmt.Fprintln(w, "  omeforge info --planes cells/image_c0.ome.tif")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reproducibility:")
	fmt.Fprintln(w, "  Using the same seed ensures identical channel names and pixels across runs.")
	fmt.Fprintln(w, "  Same output directory name also generates consistent content.")
}
