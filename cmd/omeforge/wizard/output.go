package wizard

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/image"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// OutputScreen is the first wizard screen: where and how files are written
type OutputScreen struct {
	form      *huh.Form
	helpPanel *HelpPanel
	cfg       *config.Config
	done      bool
	cancelled bool

	// String versions for form binding (huh binds to strings)
	seedStr        string
	seriesCountStr string
}

// NewOutputScreen creates the output configuration screen for cfg
func NewOutputScreen(cfg *config.Config) *OutputScreen {
	if cfg.Output.Split == "" {
		cfg.Output.Split = string(config.SplitNone)
	}
	if cfg.Output.Compression == "" {
		cfg.Output.Compression = tiff.None.String()
	}
	if cfg.Pattern == "" {
		cfg.Pattern = string(image.PatternGradient)
	}

	s := &OutputScreen{
		helpPanel:      NewHelpPanel(),
		cfg:            cfg,
		seedStr:        strconv.FormatInt(cfg.Seed, 10),
		seriesCountStr: strconv.Itoa(max(len(cfg.Series), 1)),
	}

	splitOptions := make([]huh.Option[string], 0, len(config.AllSplits()))
	for _, split := range config.AllSplits() {
		splitOptions = append(splitOptions, huh.NewOption(string(split), string(split)))
	}
	patternOptions := make([]huh.Option[string], 0, len(image.AllPatterns()))
	for _, p := range image.AllPatterns() {
		patternOptions = append(patternOptions, huh.NewOption(string(p), string(p)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output Directory").
				Value(&cfg.Output.Dir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output directory is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("basename").
				Title("Base Name").
				Value(&cfg.Output.Basename).
				Validate(validateBasename),

			huh.NewSelect[string]().
				Key("split").
				Title("Split Policy").
				Options(splitOptions...).
				Value(&cfg.Output.Split),

			huh.NewSelect[string]().
				Key("compression").
				Title("Compression").
				Options(
					huh.NewOption("None", tiff.None.String()),
					huh.NewOption("Deflate", tiff.Deflate.String()),
				).
				Value(&cfg.Output.Compression),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("seed").
				Title("Seed").
				Placeholder("0 = derived from the output directory").
				Value(&s.seedStr).
				Validate(validateSeed),

			huh.NewInput().
				Key("series_count").
				Title("Number of Series").
				Value(&s.seriesCountStr).
				Validate(validatePositiveInt),

			huh.NewSelect[string]().
				Key("pattern").
				Title("Pixel Pattern").
				Options(patternOptions...).
				Value(&cfg.Pattern),

			huh.NewConfirm().
				Key("overlay").
				Title("Label planes with their Z/C/T position?").
				Value(&cfg.Overlay),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateSeed(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

func validateBasename(s string) error {
	if s == "" {
		return fmt.Errorf("base name is required")
	}
	if strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("base name cannot contain a path separator")
	}
	return nil
}

// Init implements tea.Model
func (s *OutputScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *OutputScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.helpPanel.SetSize(msg.Width/3, msg.Height/2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
		s.apply()
	}

	return s, cmd
}

// apply parses form strings back into the configuration and resizes the
// series list.
func (s *OutputScreen) apply() {
	if n, err := strconv.ParseInt(strings.TrimSpace(s.seedStr), 10, 64); err == nil {
		s.cfg.Seed = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s.seriesCountStr)); err == nil && n > 0 {
		resizeSeries(s.cfg, n)
	}
}

// resizeSeries keeps the first n series of cfg, appending defaults as needed.
func resizeSeries(cfg *config.Config, n int) {
	for len(cfg.Series) < n {
		cfg.Series = append(cfg.Series, config.DefaultSeries(len(cfg.Series)))
	}
	cfg.Series = cfg.Series[:n]
}

// View implements tea.Model
func (s *OutputScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("OMEFORGE WIZARD - Output"),
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		hintStyle.Render("Tab: Next field | Enter: Submit | Esc: Cancel"),
	)
}

// Done returns true if the form was completed
func (s *OutputScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *OutputScreen) Cancelled() bool { return s.cancelled }
