package wizard

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/ome"
)

// dimensionOrders lists every valid order.
var dimensionOrders = []string{"XYZCT", "XYZTC", "XYCZT", "XYCTZ", "XYTZC", "XYTCZ"}

// SeriesScreen configures one series
type SeriesScreen struct {
	form      *huh.Form
	helpPanel *HelpPanel
	series    *config.SeriesConfig
	index     int
	total     int
	done      bool
	cancelled bool

	sizeXStr, sizeYStr           string
	sizeZStr, sizeCStr, sizeTStr string
	samplesStr                   string
}

// NewSeriesScreen creates the screen for series index of total
func NewSeriesScreen(series *config.SeriesConfig, index, total int) *SeriesScreen {
	s := &SeriesScreen{
		helpPanel:  NewHelpPanel(),
		series:     series,
		index:      index,
		total:      total,
		sizeXStr:   strconv.Itoa(series.SizeX),
		sizeYStr:   strconv.Itoa(series.SizeY),
		sizeZStr:   strconv.Itoa(series.SizeZ),
		sizeCStr:   strconv.Itoa(series.SizeC),
		sizeTStr:   strconv.Itoa(series.SizeT),
		samplesStr: strconv.Itoa(max(series.SamplesPerPixel, 1)),
	}

	var typeOptions []huh.Option[string]
	for _, pt := range ome.AllPixelTypes() {
		if pt == ome.Bit {
			continue
		}
		typeOptions = append(typeOptions, huh.NewOption(string(pt), string(pt)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&series.Name),

			huh.NewInput().
				Key("size_xy").
				Title("Width").
				Value(&s.sizeXStr).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("size_xy").
				Title("Height").
				Value(&s.sizeYStr).
				Validate(validatePositiveInt),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("size_zct").
				Title("Z (focal planes)").
				Value(&s.sizeZStr).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("size_zct").
				Title("C (channels x samples)").
				Value(&s.sizeCStr).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("size_zct").
				Title("T (timepoints)").
				Value(&s.sizeTStr).
				Validate(validatePositiveInt),

			huh.NewSelect[string]().
				Key("samples").
				Title("Samples per Pixel").
				Options(
					huh.NewOption("1 (grayscale)", "1"),
					huh.NewOption("3 (RGB)", "3"),
				).
				Value(&s.samplesStr).
				Validate(func(v string) error {
					return validateSamples(s.sizeCStr, v)
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("order").
				Title("Dimension Order").
				Options(huh.NewOptions(dimensionOrders...)...).
				Value(&series.DimensionOrder),

			huh.NewSelect[string]().
				Key("pixel_type").
				Title("Pixel Type").
				Options(typeOptions...).
				Value(&series.PixelType),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// validateSamples checks that the channel count is a multiple of samples.
func validateSamples(sizeC, samples string) error {
	c, err := strconv.Atoi(strings.TrimSpace(sizeC))
	if err != nil {
		return nil // reported on the C field
	}
	spp, err := strconv.Atoi(samples)
	if err != nil || spp <= 0 {
		return fmt.Errorf("invalid samples per pixel")
	}
	if c%spp != 0 {
		return fmt.Errorf("C (%d) must be a multiple of %d", c, spp)
	}
	return nil
}

// Init implements tea.Model
func (s *SeriesScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SeriesScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

// apply parses form strings back into the series
func (s *SeriesScreen) apply() {
	for _, f := range []struct {
		str string
		dst *int
	}{
		{s.sizeXStr, &s.series.SizeX},
		{s.sizeYStr, &s.series.SizeY},
		{s.sizeZStr, &s.series.SizeZ},
		{s.sizeCStr, &s.series.SizeC},
		{s.sizeTStr, &s.series.SizeT},
		{s.samplesStr, &s.series.SamplesPerPixel},
	} {
		if n, err := strconv.Atoi(strings.TrimSpace(f.str)); err == nil {
			*f.dst = n
		}
	}
	// Names typed for another channel count no longer apply
	if len(s.series.Channels) != s.series.SizeC/max(s.series.SamplesPerPixel, 1) {
		s.series.Channels = nil
	}
}

// View implements tea.Model
func (s *SeriesScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("OMEFORGE WIZARD - Series %d/%d", s.index+1, s.total)),
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		hintStyle.Render("Tab: Next field | Enter: Submit | Esc: Cancel"),
	)
}

// Done returns true if the form was completed
func (s *SeriesScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *SeriesScreen) Cancelled() bool { return s.cancelled }
