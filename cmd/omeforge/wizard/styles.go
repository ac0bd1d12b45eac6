package wizard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			MarginBottom(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	helpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Width(60)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// HelpText describes one form field.
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// helpTexts is keyed by form field key.
var helpTexts = map[string]HelpText{
	"output": {
		Title:       "Output Directory",
		Description: "Directory receiving the OME-TIFF files.",
		Details:     "All files of a set live in one directory. When no seed is given, the directory name seeds the generation.",
	},
	"basename": {
		Title:       "Base Name",
		Description: "Prefix of every file name.",
		Details:     "Files are named <base>[_s<series>][_z|_c|_t<index>][_part<n>].ome.tif",
	},
	"split": {
		Title:       "Split Policy",
		Description: "How planes are distributed over files.",
		Details:     "none: one file\nseries: one file per series\nz, c, t: one file per index along that axis",
	},
	"compression": {
		Title:       "Compression",
		Description: "Storage of plane data.",
		Details:     "deflate compresses planes with zlib. Planes that cannot be compressed are stored as is.",
	},
	"seed": {
		Title:       "Seed",
		Description: "Seed for channel names and pixel content.",
		Details:     "0 derives the seed from the output directory.",
	},
	"series_count": {
		Title:       "Number of Series",
		Description: "Images in the set, each with its own geometry.",
		Details:     "Every series is configured on the next screens.",
	},
	"pattern": {
		Title:       "Pixel Pattern",
		Description: "Synthetic content of each plane.",
		Details:     "gradient: radial gradient with noise\nnoise: uniform noise\nramp: noiseless diagonal ramp",
	},
	"overlay": {
		Title:       "Plane Labels",
		Description: "Burn the Z/C/T position into each plane.",
		Details:     "Makes misplaced planes visible in any viewer.",
	},
	"size_xy": {
		Title:       "Plane Size",
		Description: "Width and height of a plane in pixels.",
	},
	"size_zct": {
		Title:       "Z, C, T",
		Description: "Focal planes, channels and timepoints.",
		Details:     "C counts samples: an RGB series with one channel has C = 3 and 3 samples per pixel.",
	},
	"order": {
		Title:       "Dimension Order",
		Description: "Rasterization order of the planes, fastest axis first after XY.",
	},
	"pixel_type": {
		Title:       "Pixel Type",
		Description: "Sample type of the planes.",
	},
	"samples": {
		Title:       "Samples per Pixel",
		Description: "3 stores interleaved RGB planes.",
		Details:     "C must be a multiple of the samples per pixel.",
	},
}

// HelpPanel displays contextual help for the current field
type HelpPanel struct {
	currentField string
	width        int
	height       int
}

// NewHelpPanel creates a new help panel
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{
		width:  60,
		height: 10,
	}
}

// SetField updates which field's help to display
func (h *HelpPanel) SetField(field string) {
	h.currentField = field
}

// SetSize updates panel dimensions
func (h *HelpPanel) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help panel
func (h *HelpPanel) View() string {
	style := helpPanelStyle.Width(max(h.width-4, 20)) // Compute locally, don't mutate global

	text, ok := helpTexts[h.currentField]
	if !ok {
		return style.Render("Select a field to see help")
	}

	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render(text.Title))
	sb.WriteString("\n\n")
	sb.WriteString(helpDescStyle.Render(text.Description))
	if text.Details != "" {
		sb.WriteString("\n\n")
		sb.WriteString(helpDetailStyle.Render(text.Details))
	}

	return style.Render(sb.String())
}
