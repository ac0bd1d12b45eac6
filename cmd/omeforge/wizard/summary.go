package wizard

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/generator"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/util"
)

// SummaryAction represents the action selected on the summary screen
type SummaryAction int

const (
	// SummaryActionBack returns to the output screen
	SummaryActionBack SummaryAction = iota
	// SummaryActionGenerate starts generation
	SummaryActionGenerate
	// SummaryActionSaveConfig saves configuration to YAML file
	SummaryActionSaveConfig
	// SummaryActionCancel exits the wizard
	SummaryActionCancel
)

const (
	actionBack       = "back"
	actionGenerate   = "generate"
	actionSaveConfig = "save_config"
	actionCancel     = "cancel"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	cliCommandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// SummaryScreen displays the configuration before generation
type SummaryScreen struct {
	form      *huh.Form
	cfg       *config.Config
	action    string
	done      bool
	cancelled bool
	width     int
}

// NewSummaryScreen creates a new summary screen
func NewSummaryScreen(cfg *config.Config) *SummaryScreen {
	s := &SummaryScreen{
		cfg:    cfg,
		action: actionGenerate,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Select an action").
				Options(
					huh.NewOption("Generate OME-TIFF files", actionGenerate),
					huh.NewOption("Save configuration to YAML", actionSaveConfig),
					huh.NewOption("Back to edit", actionBack),
					huh.NewOption("Cancel and exit", actionCancel),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *SummaryScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SummaryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.action = actionBack
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *SummaryScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	panel := summaryPanelStyle.Width(60).Render(s.buildParameterSummary())

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("SUMMARY - Review Configuration"),
		"",
		panel,
		"",
		s.buildCLICommand(),
		"",
		s.form.View(),
		"",
		hintStyle.Render("Enter: Select action | Esc: Back"),
	)
}

// Totals describes what a configuration will produce.
type Totals struct {
	Planes int
	Files  int
	Bytes  int64
}

// ComputeTotals plans cfg without writing anything.
func ComputeTotals(cfg *config.Config) (Totals, error) {
	doc, err := generator.BuildDocument(cfg, rand.New(rand.NewPCG(0, 0)))
	if err != nil {
		return Totals{}, err
	}
	planes, err := generator.Plan(cfg, doc)
	if err != nil {
		return Totals{}, err
	}
	layouts, err := ometiff.Layouts(doc)
	if err != nil {
		return Totals{}, err
	}
	t := Totals{Planes: len(planes), Files: len(generator.Files(planes))}
	for _, p := range planes {
		t.Bytes += int64(layouts[p.Series].Plane.Size())
	}
	return t, nil
}

func (s *SummaryScreen) buildParameterSummary() string {
	var sb strings.Builder

	sb.WriteString(summaryTitleStyle.Render("Configuration Summary"))
	sb.WriteString("\n\n")

	row := func(label, value string) {
		sb.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-14s", label+":")))
		sb.WriteString(" ")
		sb.WriteString(summaryValueStyle.Render(value))
		sb.WriteString("\n")
	}

	seed := "auto"
	if s.cfg.Seed != 0 {
		seed = fmt.Sprintf("%d", s.cfg.Seed)
	}

	row("Output", filepath.Join(s.cfg.Output.Dir, s.cfg.Output.Basename+"*.ome.tif"))
	row("Split", s.cfg.Output.Split)
	row("Compression", s.cfg.Output.Compression)
	row("Seed", seed)
	row("Pattern", s.cfg.Pattern)

	if totals, err := ComputeTotals(s.cfg); err != nil {
		row("Error", err.Error())
	} else {
		row("Planes", fmt.Sprintf("%d", totals.Planes))
		row("Files", fmt.Sprintf("%d", totals.Files))
		row("Pixel data", util.FormatSize(totals.Bytes))
	}

	sb.WriteString("\n")
	for i, series := range s.cfg.Series {
		sb.WriteString(fmt.Sprintf("%d. %s  %dx%d Z=%d C=%d T=%d %s %s\n",
			i+1, series.Name, series.SizeX, series.SizeY,
			series.SizeZ, series.SizeC, series.SizeT,
			series.DimensionOrder, series.PixelType))
	}

	return sb.String()
}

// buildCLICommand shows the equivalent non-interactive command.
func (s *SummaryScreen) buildCLICommand() string {
	return summaryLabelStyle.Render("Equivalent command (after saving the configuration):") + "\n" +
		cliCommandStyle.Render(CLICommand(s.cfg, "wizard-config.yaml"))
}

// CLICommand returns the generate invocation for a configuration saved to path.
func CLICommand(cfg *config.Config, path string) string {
	parts := []string{"omeforge", "generate", "--config", path}
	if cfg.Seed == 0 {
		// Pin the seed derived for this run so reruns match
		parts = append(parts, "--seed", fmt.Sprintf("%d", generator.ResolveSeed(cfg)))
	}
	if cfg.Output.PlanesPerSession > 0 {
		parts = append(parts, "--state", StatePath(cfg))
	}
	return strings.Join(parts, " ")
}

// Action returns the selected action
func (s *SummaryScreen) Action() SummaryAction {
	switch s.action {
	case actionGenerate:
		return SummaryActionGenerate
	case actionSaveConfig:
		return SummaryActionSaveConfig
	case actionCancel:
		return SummaryActionCancel
	default:
		return SummaryActionBack
	}
}

// Done returns true if an action was selected
func (s *SummaryScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *SummaryScreen) Cancelled() bool { return s.cancelled }
