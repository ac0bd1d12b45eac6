package wizard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/util"
)

// ProgressMsg reports the planes rendered so far in this run.
type ProgressMsg struct {
	Current int
	Total   int
}

// CompletionMsg is sent when a generation session finished.
type CompletionMsg struct {
	TotalFiles int
	Planes     int
	Written    int
	Complete   bool
	TotalSize  int64
	Duration   time.Duration
	OutputDir  string
	FirstFile  string
	Seed       int64
	// Defects lists the metadata defects injected into the finished set.
	Defects    []string
}

// ErrorMsg is sent when generation or saving fails.
type ErrorMsg struct {
	Error error
}

type runState int

const (
	runGenerating runState = iota
	runFinished
	runFailed
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	commandStyle  = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// RunScreen follows one generation session: the plane progress while it
// runs, then its outcome. It quits the program once the outcome has been
// acknowledged.
type RunScreen struct {
	state     runState
	current   int
	total     int
	started   time.Time
	width     int
	result    CompletionMsg
	err       error
	cancelled bool
	done      bool
}

// NewRunScreen starts tracking a session expected to render total planes.
func NewRunScreen(total int) *RunScreen {
	return &RunScreen{total: total, started: time.Now()}
}

func failedRun(err error) *RunScreen {
	return &RunScreen{state: runFailed, err: err}
}

// Init implements tea.Model.
func (s *RunScreen) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (s *RunScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		s.current, s.total = msg.Current, msg.Total
	case CompletionMsg:
		s.state, s.result = runFinished, msg
	case ErrorMsg:
		s.state, s.err = runFailed, msg.Error
	case tea.WindowSizeMsg:
		s.width = msg.Width
	case tea.KeyMsg:
		key := msg.String()
		if s.state == runGenerating {
			if key == "ctrl+c" {
				s.cancelled = true
				return s, tea.Quit
			}
			return s, nil
		}
		switch key {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model.
func (s *RunScreen) View() string {
	switch {
	case s.cancelled:
		return "Cancelled.\n"
	case s.state == runFinished:
		return s.viewFinished()
	case s.state == runFailed:
		return s.viewFailed()
	}
	return s.viewGenerating()
}

func (s *RunScreen) viewGenerating() string {
	width := 40
	if s.width > 60 {
		width = min(s.width/2, 60)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Generating OME-TIFF planes..."),
		s.bar(width)+" "+valueStyle.Render(fmt.Sprintf("%d%%", s.percent())),
		"",
		field("Planes", fmt.Sprintf("%d/%d", s.current, s.total)),
		field("Elapsed", fmt.Sprintf("%.1fs", time.Since(s.started).Seconds())),
		"",
		hintStyle.Render("Press Ctrl+C to cancel"),
	)
}

func (s *RunScreen) percent() int {
	if s.total <= 0 {
		return 0
	}
	return min(s.current*100/s.total, 100)
}

func (s *RunScreen) bar(width int) string {
	filled := s.percent() * width / 100
	return barFullStyle.Render("["+strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled)+"]")
}

func (s *RunScreen) viewFinished() string {
	r := s.result
	header := okStyle.Render("✓ Generation complete!")
	if !r.Complete {
		header = okStyle.Render(fmt.Sprintf("✓ Session done, %d of %d planes written", r.Written, r.Planes))
	}

	lines := []string{
		header,
		"",
		field("Files", fmt.Sprintf("%d", r.TotalFiles)),
		field("Planes", fmt.Sprintf("%d written, %d in the set", r.Written, r.Planes)),
		field("Total size", util.FormatSize(r.TotalSize)),
		field("Seed", fmt.Sprintf("%d", r.Seed)),
		field("Duration", fmt.Sprintf("%.1fs", r.Duration.Seconds())),
		field("Output", r.OutputDir),
	}
	for _, d := range r.Defects {
		lines = append(lines, warnStyle.Render("⚠ "+d))
	}
	if !r.Complete {
		lines = append(lines, "", subtitleStyle.Render("Run the wizard again with the same output to continue."))
	}
	if r.FirstFile != "" {
		lines = append(lines, "", "Inspect: "+commandStyle.Render("omeforge info --planes "+r.FirstFile))
	}
	lines = append(lines, "", hintStyle.Render("Press Enter or q to exit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (s *RunScreen) viewFailed() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		failStyle.Render("✗ Generation failed"),
		"",
		"  "+valueStyle.Render(s.err.Error()),
		"",
		hintStyle.Render("Press Enter or q to exit"),
	)
}

func field(label, value string) string {
	return "  " + labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// Cancelled reports whether generation was interrupted.
func (s *RunScreen) Cancelled() bool { return s.cancelled }

// Done reports whether the outcome was acknowledged.
func (s *RunScreen) Done() bool { return s.done }
