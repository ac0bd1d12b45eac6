// Package wizard implements the interactive terminal interface used to
// describe an OME-TIFF set before generating it.
package wizard

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/generator"
)

// StateFileName is the state file the wizard keeps in the output directory
// when generation runs in sessions.
const StateFileName = ".omeforge-state.yaml"

// StatePath returns the state file used for cfg.
func StatePath(cfg *config.Config) string {
	return filepath.Join(cfg.Output.Dir, StateFileName)
}

// Phase represents the current screen of the wizard.
type Phase int

const (
	PhaseOutput Phase = iota
	PhaseSeries
	PhaseSummary
	PhaseSaveConfig
	PhaseProgress
	PhaseComplete
	PhaseError
)

// Wizard is the main orchestrator for the wizard interface.
type Wizard struct {
	cfg   *config.Config
	phase Phase

	outputScreen  *OutputScreen
	seriesScreen  *SeriesScreen
	summaryScreen *SummaryScreen
	run           *RunScreen

	saveConfigForm *huh.Form
	configPath     string
	savedPath      string

	currentSeriesIndex int

	// Generation progress flows through this channel into Update
	progress chan tea.Msg

	cancelled bool
	finished  bool
	err       error
}

// NewWizard creates a new wizard editing cfg, or the defaults when nil.
func NewWizard(cfg *config.Config) *Wizard {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Wizard{
		cfg:          cfg,
		phase:        PhaseOutput,
		outputScreen: NewOutputScreen(cfg),
	}
}

// Config returns the configuration being edited.
func (w *Wizard) Config() *config.Config { return w.cfg }

// Phase returns the current phase.
func (w *Wizard) Phase() Phase { return w.phase }

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.outputScreen.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch w.phase {
	case PhaseOutput:
		return w.updateOutput(msg)
	case PhaseSeries:
		return w.updateSeries(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	case PhaseSaveConfig:
		return w.updateSaveConfig(msg)
	case PhaseProgress:
		return w.updateProgress(msg)
	case PhaseComplete, PhaseError:
		return w.updateOutcome(msg)
	}
	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseOutput:
		return w.outputScreen.View()
	case PhaseSeries:
		return w.seriesScreen.View()
	case PhaseSummary:
		view := w.summaryScreen.View()
		if w.savedPath != "" {
			view += "\n" + subtitleStyle.Render("Configuration saved to "+w.savedPath)
		}
		return view
	case PhaseSaveConfig:
		return w.viewSaveConfig()
	case PhaseProgress, PhaseComplete, PhaseError:
		return w.run.View()
	}
	return ""
}

func (w *Wizard) updateOutput(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.outputScreen.Update(msg)
	if screen, ok := model.(*OutputScreen); ok {
		w.outputScreen = screen
	}

	if w.outputScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.outputScreen.Done() {
		w.transitionToSeries(0)
		return w, w.seriesScreen.Init()
	}

	return w, cmd
}

func (w *Wizard) transitionToSeries(index int) {
	w.currentSeriesIndex = index
	w.phase = PhaseSeries
	w.seriesScreen = NewSeriesScreen(&w.cfg.Series[index], index, len(w.cfg.Series))
}

func (w *Wizard) updateSeries(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.seriesScreen.Update(msg)
	if ss, ok := model.(*SeriesScreen); ok {
		w.seriesScreen = ss
	}

	if w.seriesScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.seriesScreen.Done() {
		if next := w.currentSeriesIndex + 1; next < len(w.cfg.Series) {
			w.transitionToSeries(next)
			return w, w.seriesScreen.Init()
		}
		return w.transitionToSummary()
	}

	return w, cmd
}

func (w *Wizard) transitionToSummary() (tea.Model, tea.Cmd) {
	w.phase = PhaseSummary
	w.summaryScreen = NewSummaryScreen(w.cfg)
	return w, w.summaryScreen.Init()
}

func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summaryScreen.Update(msg)
	if ss, ok := model.(*SummaryScreen); ok {
		w.summaryScreen = ss
	}

	if w.summaryScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.summaryScreen.Done() {
		switch w.summaryScreen.Action() {
		case SummaryActionBack:
			w.phase = PhaseOutput
			w.outputScreen = NewOutputScreen(w.cfg)
			return w, w.outputScreen.Init()
		case SummaryActionGenerate:
			return w.startGeneration()
		case SummaryActionSaveConfig:
			return w.transitionToSaveConfig()
		case SummaryActionCancel:
			w.cancelled = true
			return w, tea.Quit
		}
	}

	return w, cmd
}

func (w *Wizard) transitionToSaveConfig() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveConfig
	if w.configPath == "" {
		w.configPath = "wizard-config.yaml"
	}

	w.saveConfigForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Save configuration to").
				Description("Enter the path for the YAML config file").
				Value(&w.configPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return w, w.saveConfigForm.Init()
}

func (w *Wizard) updateSaveConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return w.transitionToSummary()
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		}
	}

	form, cmd := w.saveConfigForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveConfigForm = f
	}

	if w.saveConfigForm.State == huh.StateCompleted {
		if err := w.cfg.Save(w.configPath); err != nil {
			w.err = err
			w.phase = PhaseError
			w.run = failedRun(err)
			return w, nil
		}
		w.savedPath = w.configPath
		return w.transitionToSummary()
	}

	return w, cmd
}

func (w *Wizard) viewSaveConfig() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Save Configuration"),
		"",
		w.saveConfigForm.View(),
		"",
		hintStyle.Render("Enter: Save | Esc: Back"),
	)
}

// startGeneration runs the generator in a command. Progress updates are
// relayed through w.progress and picked up by waitForProgress.
func (w *Wizard) startGeneration() (tea.Model, tea.Cmd) {
	total := 0
	if totals, err := ComputeTotals(w.cfg); err == nil {
		total = totals.Planes
	}
	w.phase = PhaseProgress
	w.run = NewRunScreen(total)
	w.progress = make(chan tea.Msg, 64)

	cfg := w.cfg
	progress := w.progress
	generate := func() tea.Msg {
		defer close(progress)
		msg := runGeneration(cfg, func(current, total int) {
			select {
			case progress <- ProgressMsg{Current: current, Total: total}:
			default: // the screen only needs the latest value
			}
		})
		progress <- msg
		return nil
	}

	return w, tea.Batch(generate, waitForProgress(progress))
}

// waitForProgress returns the next message sent by the generation command.
func waitForProgress(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// runGeneration generates the set described by cfg and reports the outcome
// as a CompletionMsg or an ErrorMsg.
func runGeneration(cfg *config.Config, onProgress func(current, total int)) tea.Msg {
	start := time.Now()

	opts := generator.Options{
		Config:           cfg,
		Quiet:            true,
		ProgressCallback: onProgress,
	}
	if cfg.Output.PlanesPerSession > 0 {
		opts.StatePath = StatePath(cfg)
	}

	res, err := generator.Generate(opts)
	if err != nil {
		return ErrorMsg{Error: err}
	}

	msg := CompletionMsg{
		TotalFiles: len(res.Files),
		Planes:     res.Total,
		Written:    res.Written,
		Complete:   res.Complete,
		Duration:   time.Since(start),
		OutputDir:  cfg.Output.Dir,
		Seed:       res.Seed,
	}
	for _, f := range res.Files {
		msg.TotalSize += f.Size
	}
	if len(res.Files) > 0 {
		msg.FirstFile = res.Files[0].Path
	}
	for _, d := range res.Defects {
		if d.File != "" {
			msg.Defects = append(msg.Defects, fmt.Sprintf("%s in %s: %s", d.Type, filepath.Base(d.File), d.Detail))
		} else {
			msg.Defects = append(msg.Defects, fmt.Sprintf("%s: %s", d.Type, d.Detail))
		}
	}
	return msg
}

func (w *Wizard) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.run.Update(msg)
	if rs, ok := model.(*RunScreen); ok {
		w.run = rs
	}

	switch msg := msg.(type) {
	case ProgressMsg:
		return w, waitForProgress(w.progress)
	case CompletionMsg:
		w.phase = PhaseComplete
		return w, nil
	case ErrorMsg:
		w.phase = PhaseError
		w.err = msg.Error
		return w, nil
	}

	if w.run.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	return w, cmd
}

func (w *Wizard) updateOutcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.run.Update(msg)
	if rs, ok := model.(*RunScreen); ok {
		w.run = rs
	}

	if w.run.Done() {
		w.finished = true
		return w, tea.Quit
	}
	return w, cmd
}

// Run starts the interactive wizard. If fromConfig is provided, the
// configuration is loaded from that YAML file.
func Run(fromConfig string) error {
	var cfg *config.Config

	if fromConfig != "" {
		absPath, err := filepath.Abs(fromConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		if cfg, err = config.Load(absPath); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	wizard := NewWizard(cfg)
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil // User cancelled, not an error
		}
		if w.err != nil {
			return w.err
		}
	}

	return nil
}
