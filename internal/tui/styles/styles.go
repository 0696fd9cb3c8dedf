package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette: old paper and ink.
var (
	Sepia     = lipgloss.Color("#D4A35A")
	Ink       = lipgloss.Color("#1C1917")
	Highlight = lipgloss.Color("#44403C")
	Dust      = lipgloss.Color("#78716C")
	Faded     = lipgloss.Color("#A8A29E")
	Paper     = lipgloss.Color("#FAF7F0")
	Moss      = lipgloss.Color("#84A98C")
	Rust      = lipgloss.Color("#C8553D")
	River     = lipgloss.Color("#6B9AC4")
)

var (
	TitleStyle    = lipgloss.NewStyle().Foreground(Paper).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(Faded)
	DimStyle      = lipgloss.NewStyle().Foreground(Dust)
	AccentStyle   = lipgloss.NewStyle().Foreground(Sepia)
	ErrorStyle    = lipgloss.NewStyle().Foreground(Rust)
)

// Offline markers: absent, in flight, saved.
const (
	AbsentChar   = "○"
	InFlightChar = "◐"
	SavedChar    = "●"
)

// Layout sections
var (
	HeaderStyle = lipgloss.NewStyle().Padding(0, 1)

	KaraokeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(Dust).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().Foreground(Faded).Padding(0, 1)
)

// Karaoke lines
var (
	ActiveLineStyle   = lipgloss.NewStyle().Foreground(Sepia).Bold(true)
	InactiveLineStyle = lipgloss.NewStyle().Foreground(Dust)
)

var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Sepia).
			Padding(1, 3).
			Background(Ink)

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Sepia).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(Faded)

	// Filter toggles in the header
	BadgeStyle    = lipgloss.NewStyle().Foreground(Ink).Background(Sepia).Padding(0, 1)
	DimBadgeStyle = lipgloss.NewStyle().Foreground(Faded).Background(Highlight).Padding(0, 1)

	SpinnerStyle      = lipgloss.NewStyle().Foreground(Sepia)
	FilterPromptStyle = lipgloss.NewStyle().Foreground(Sepia).Bold(true)
)

// Truncate shortens s to width display cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 3 {
		return string(r[:min(width, len(r))])
	}
	for len(r) > 0 && lipgloss.Width(string(r)) > width-3 {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// Cell is one colored span of a list row. An empty Color uses the row
// default.
type Cell struct {
	Text  string
	Color lipgloss.Color
}

// Row renders cells on one line padded to width. A selected row carries
// the highlight background across its full width.
func Row(cells []Cell, selected bool, width int) string {
	base := lipgloss.NewStyle().Foreground(Faded)
	if selected {
		base = base.Foreground(Paper).Background(Highlight)
	}

	var b strings.Builder
	b.WriteString(base.Render(" "))
	for _, c := range cells {
		st := base
		if c.Color != "" {
			st = st.Foreground(c.Color)
		}
		b.WriteString(st.Render(c.Text))
	}

	line := b.String()
	if pad := width - lipgloss.Width(line); pad > 0 {
		line += base.Render(strings.Repeat(" ", pad))
	}
	return line
}
