package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrsinham/omeforge/internal/config"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.Basename = "wiz"
	cfg.Seed = 11
	cfg.Overlay = false
	cfg.Series = []config.SeriesConfig{{
		Name:            "Small",
		SizeX:           8,
		SizeY:           4,
		SizeZ:           2,
		SizeC:           1,
		SizeT:           2,
		DimensionOrder:  "XYZCT",
		PixelType:       "uint8",
		SamplesPerPixel: 1,
	}}
	return cfg
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1", false},
		{" 12 ", false},
		{"0", true},
		{"-3", true},
		{"abc", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validatePositiveInt(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePositiveInt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSeedAndBasename(t *testing.T) {
	if err := validateSeed(""); err != nil {
		t.Errorf("empty seed should be accepted: %v", err)
	}
	if err := validateSeed("-42"); err != nil {
		t.Errorf("negative seed should be accepted: %v", err)
	}
	if err := validateSeed("x"); err == nil {
		t.Error("non numeric seed should be rejected")
	}
	if err := validateBasename("image"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "a/b", `a\b`} {
		if err := validateBasename(bad); err == nil {
			t.Errorf("validateBasename(%q) should fail", bad)
		}
	}
}

func TestValidateSamples(t *testing.T) {
	tests := []struct {
		sizeC, samples string
		wantErr        bool
	}{
		{"3", "3", false},
		{"6", "3", false},
		{"4", "3", true},
		{"4", "1", false},
		{"x", "3", false}, // reported by the C field itself
		{"3", "0", true},
	}
	for _, tt := range tests {
		err := validateSamples(tt.sizeC, tt.samples)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateSamples(%q, %q) error = %v, wantErr %v", tt.sizeC, tt.samples, err, tt.wantErr)
		}
	}
}

func TestResizeSeries(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Series[0].Name = "Kept"

	resizeSeries(cfg, 3)
	if len(cfg.Series) != 3 {
		t.Fatalf("got %d series, want 3", len(cfg.Series))
	}
	if cfg.Series[0].Name != "Kept" {
		t.Errorf("first series renamed to %q", cfg.Series[0].Name)
	}
	if cfg.Series[2].Name != "Series 3" {
		t.Errorf("appended series name = %q, want %q", cfg.Series[2].Name, "Series 3")
	}

	resizeSeries(cfg, 1)
	if len(cfg.Series) != 1 || cfg.Series[0].Name != "Kept" {
		t.Errorf("shrinking kept %+v", cfg.Series)
	}
}

func TestOutputScreenApply(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewOutputScreen(cfg)
	s.seedStr = "99"
	s.seriesCountStr = "2"
	s.apply()

	if cfg.Seed != 99 {
		t.Errorf("seed = %d, want 99", cfg.Seed)
	}
	if len(cfg.Series) != 2 {
		t.Errorf("got %d series, want 2", len(cfg.Series))
	}
}

func TestSeriesScreenApply(t *testing.T) {
	series := config.DefaultSeries(0)
	series.Channels = []string{"a", "b", "c"}
	s := NewSeriesScreen(&series, 0, 1)
	s.sizeXStr = "64"
	s.sizeCStr = "6"
	s.samplesStr = "3"
	s.apply()

	if series.SizeX != 64 || series.SizeC != 6 || series.SamplesPerPixel != 3 {
		t.Errorf("apply gave %+v", series)
	}
	if series.Channels != nil {
		t.Errorf("channel names for another channel count were kept: %v", series.Channels)
	}
}

func TestComputeTotals(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Output.Split = "t"

	totals, err := ComputeTotals(cfg)
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if totals.Planes != 4 {
		t.Errorf("planes = %d, want 4", totals.Planes)
	}
	if totals.Files != 2 {
		t.Errorf("files = %d, want 2", totals.Files)
	}
	if totals.Bytes != 4*8*4 {
		t.Errorf("bytes = %d, want %d", totals.Bytes, 4*8*4)
	}
}

func TestCLICommand(t *testing.T) {
	cfg := smallConfig(t)
	if got := CLICommand(cfg, "c.yaml"); got != "omeforge generate --config c.yaml" {
		t.Errorf("CLICommand = %q", got)
	}

	cfg.Seed = 0
	cfg.Output.PlanesPerSession = 2
	got := CLICommand(cfg, "c.yaml")
	if !strings.Contains(got, "--seed ") {
		t.Errorf("derived seed not pinned: %q", got)
	}
	if !strings.Contains(got, "--state "+StatePath(cfg)) {
		t.Errorf("state file missing: %q", got)
	}
}

func TestSummaryAction(t *testing.T) {
	s := NewSummaryScreen(config.DefaultConfig())
	tests := []struct {
		action string
		want   SummaryAction
	}{
		{actionGenerate, SummaryActionGenerate},
		{actionSaveConfig, SummaryActionSaveConfig},
		{actionCancel, SummaryActionCancel},
		{actionBack, SummaryActionBack},
	}
	for _, tt := range tests {
		s.action = tt.action
		if got := s.Action(); got != tt.want {
			t.Errorf("Action() for %q = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestSummaryView(t *testing.T) {
	s := NewSummaryScreen(smallConfig(t))
	view := s.View()
	for _, want := range []string{"Configuration Summary", "Small", "XYZCT", "Planes"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary view missing %q", want)
		}
	}
}

func TestNewWizardDefaults(t *testing.T) {
	w := NewWizard(nil)
	if w.Phase() != PhaseOutput {
		t.Errorf("phase = %v, want PhaseOutput", w.Phase())
	}
	if err := w.Config().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestWizardEscCancels(t *testing.T) {
	w := NewWizard(nil)
	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !w.cancelled {
		t.Error("esc on the output screen should cancel the wizard")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestWizardSummaryEscGoesBack(t *testing.T) {
	w := NewWizard(smallConfig(t))
	w.transitionToSummary()

	w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if w.Phase() != PhaseOutput {
		t.Errorf("phase = %v, want PhaseOutput", w.Phase())
	}
	if w.cancelled {
		t.Error("going back should not cancel")
	}
}

func TestWizardProgressRouting(t *testing.T) {
	w := NewWizard(smallConfig(t))
	w.phase = PhaseProgress
	w.run = NewRunScreen(4)
	w.progress = make(chan tea.Msg, 1)

	w.Update(ProgressMsg{Current: 2, Total: 4})
	if w.run.current != 2 {
		t.Errorf("progress = %d, want 2", w.run.current)
	}

	w.Update(CompletionMsg{TotalFiles: 1, Planes: 4, Written: 4, Complete: true})
	if w.Phase() != PhaseComplete {
		t.Fatalf("phase = %v, want PhaseComplete", w.Phase())
	}
	if !strings.Contains(w.View(), "Generation complete!") {
		t.Error("completion view missing header")
	}

	w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !w.finished {
		t.Error("enter on the completion screen should finish")
	}
}

func TestWizardErrorRouting(t *testing.T) {
	w := NewWizard(smallConfig(t))
	w.phase = PhaseProgress
	w.run = NewRunScreen(4)

	w.Update(ErrorMsg{Error: errors.New("disk full")})
	if w.Phase() != PhaseError {
		t.Fatalf("phase = %v, want PhaseError", w.Phase())
	}
	if !strings.Contains(w.View(), "disk full") {
		t.Error("error view missing message")
	}
}

func TestRunGeneration(t *testing.T) {
	cfg := smallConfig(t)
	var calls int
	msg := runGeneration(cfg, func(current, total int) { calls++ })

	done, ok := msg.(CompletionMsg)
	if !ok {
		t.Fatalf("got %T (%v), want CompletionMsg", msg, msg)
	}
	if !done.Complete || done.Planes != 4 || done.TotalFiles != 1 {
		t.Errorf("unexpected completion %+v", done)
	}
	if calls != 4 {
		t.Errorf("progress called %d times, want 4", calls)
	}
	if done.Seed != 11 {
		t.Errorf("seed = %d, want 11", done.Seed)
	}
	if _, err := os.Stat(done.FirstFile); err != nil {
		t.Errorf("first file: %v", err)
	}
}

func TestRunGenerationSessions(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Output.PlanesPerSession = 3

	first, ok := runGeneration(cfg, nil).(CompletionMsg)
	if !ok || first.Complete || first.Written != 3 {
		t.Fatalf("first session = %+v", first)
	}
	if _, err := os.Stat(StatePath(cfg)); err != nil {
		t.Fatalf("state file: %v", err)
	}
	second, ok := runGeneration(cfg, nil).(CompletionMsg)
	if !ok || !second.Complete || second.Written != 1 {
		t.Fatalf("second session = %+v", second)
	}
}

func TestRunGenerationError(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Series = nil
	if _, ok := runGeneration(cfg, nil).(ErrorMsg); !ok {
		t.Error("expected an ErrorMsg for a config without series")
	}
}

func TestHelpPanelKnowsEveryField(t *testing.T) {
	keys := []string{"output", "basename", "split", "compression", "seed",
		"series_count", "pattern", "overlay", "size_xy", "size_zct", "order",
		"pixel_type", "samples"}
	for _, k := range keys {
		if _, ok := helpTexts[k]; !ok {
			t.Errorf("no help text for %q", k)
		}
	}
}

func TestRunScreen_Generating(t *testing.T) {
	s := NewRunScreen(8)
	s.Update(ProgressMsg{Current: 2, Total: 8})
	if got := s.percent(); got != 25 {
		t.Errorf("percent = %d, want 25", got)
	}
	if !strings.Contains(s.View(), "2/8") {
		t.Error("progress view missing plane counter")
	}

	s.Update(ProgressMsg{Current: 9, Total: 8})
	if got := s.percent(); got != 100 {
		t.Errorf("percent = %d, want it clamped to 100", got)
	}

	s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if s.Done() {
		t.Error("enter must not dismiss a running generation")
	}
	s.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !s.Cancelled() {
		t.Error("ctrl+c should cancel")
	}
}

func TestRunScreen_SessionOutcome(t *testing.T) {
	s := NewRunScreen(4)
	s.Update(CompletionMsg{
		TotalFiles: 2, Planes: 4, Written: 2, Seed: 7,
		Defects: []string{"one-indexed: FirstZ/C/T shifted"},
	})
	view := s.View()
	for _, want := range []string{"Session done, 2 of 4 planes written", "run the wizard again", "one-indexed", "Seed:"} {
		if !strings.Contains(strings.ToLower(view), strings.ToLower(want)) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !s.Done() {
		t.Error("q should acknowledge the outcome")
	}
}

func TestWizardSaveConfigFailureShowsError(t *testing.T) {
	w := NewWizard(smallConfig(t))
	w.phase = PhaseError
	w.run = failedRun(errors.New("read-only file system"))

	if !strings.Contains(w.View(), "read-only file system") {
		t.Error("error view missing message")
	}
	w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !w.finished {
		t.Error("esc on the error screen should finish")
	}
}
