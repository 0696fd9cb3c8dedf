package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/session"
	"github.com/mmcdole/vdp/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Cargando..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center,
			styles.ModalStyle.Render(fmt.Sprintf("¿Borrar %s? (y/n)", session.OfflineLabel(m.backend.OfflineCount()))))
	}

	sections := []string{m.renderHeader(), m.renderList()}
	if m.Playback != nil {
		sections = append(sections, m.renderKaraoke())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	facet := func(label, value string) string {
		if value == "" {
			value = "todos"
		}
		return styles.DimStyle.Render(label+": ") + styles.AccentStyle.Render(value)
	}
	toggle := func(label string, on bool) string {
		if on {
			return styles.BadgeStyle.Render(label)
		}
		return styles.DimBadgeStyle.Render(label)
	}

	filters := strings.Join([]string{
		facet("Año", m.Query.Year),
		facet("Mes", m.Query.Month),
		toggle("Solo offline", m.Query.OfflineOnly),
		toggle("Transcripciones", m.Query.IncludeTranscripts),
	}, "  ")

	shown, more := m.visible()
	counts := session.ResultsLabel(len(m.Results)) + " · " + session.OfflineLabel(m.backend.OfflineCount())
	if more {
		counts += styles.DimStyle.Render(fmt.Sprintf(" · mostrando %d (+ para cargar mas)", len(shown)))
	}

	return styles.HeaderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.Input.View(),
		filters,
		styles.SubtitleStyle.Render(counts),
	))
}

func (m Model) renderList() string {
	h := m.listHeight()
	shown, _ := m.visible()

	lines := make([]string, 0, h)
	if len(shown) == 0 {
		lines = append(lines, styles.DimStyle.Render("  Sin resultados."))
	}
	for i := m.Offset; i < len(shown) && len(lines) < h; i++ {
		ep := shown[i]
		resume := ""
		if pos, ok := m.backend.Resume(ep.ID); ok {
			resume = session.ResumeLabel(domain.FormatTime(pos))
		}
		lines = append(lines, RenderEpisodeRow(ep, m.backend.OfflineState(ep), resume, i == m.Cursor, m.Width))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// RenderEpisodeRow renders one result line.
func RenderEpisodeRow(ep domain.Episode, state domain.OfflineState, resume string, selected bool, width int) string {
	dot, dotColor := styles.AbsentChar, styles.Dust
	switch {
	case state == domain.OfflineSaved:
		dot, dotColor = styles.SavedChar, styles.Moss
	case state.InFlight():
		dot, dotColor = styles.InFlightChar, styles.Sepia
	}

	badge := " "
	if ep.HasTranscript {
		badge = "T"
	}

	suffix := ""
	if resume != "" {
		suffix = "  " + resume
	}
	if !ep.HasAudio() {
		suffix += "  sin audio"
	}

	fixed := lipgloss.Width(dot) + 1 + 10 + 2 + 1 + 2 + lipgloss.Width(suffix) + 2
	title := styles.Truncate(ep.Title, max(width-fixed, 8))

	date := fmt.Sprintf("%-10s", ep.DisplayDate())
	cells := []styles.Cell{
		{Text: dot + " ", Color: dotColor},
		{Text: date + "  "},
		{Text: badge + "  ", Color: styles.River},
		{Text: title},
	}
	if suffix != "" {
		cells = append(cells, styles.Cell{Text: suffix, Color: styles.Sepia})
	}
	return styles.Row(cells, selected, width)
}

func (m Model) renderKaraoke() string {
	pb := m.Playback
	ep := pb.Episode()
	clock := pb.Clock()

	state := "▶"
	if !pb.Playing() {
		state = "⏸"
	}
	pos := domain.FormatTime(clock.Position())
	if d := clock.Duration(); d > 0 {
		pos += " / " + domain.FormatTime(d)
	}
	title := styles.TitleStyle.Render(styles.Truncate(ep.Title, max(m.Width-20, 10)))
	head := fmt.Sprintf("%s %s  %s", styles.AccentStyle.Render(state), title, styles.SubtitleStyle.Render(pos))

	lines := []string{head}
	lines = append(lines, RenderKaraoke(pb.Transcript(), m.Active, KaraokeLines, max(m.Width-4, 10))...)
	for len(lines) < KaraokeHeight-1 {
		lines = append(lines, "")
	}
	return styles.KaraokeStyle.Width(m.Width).Render(strings.Join(lines, "\n"))
}

// RenderKaraoke renders a window of transcript lines around the active
// segment. Without segments it shows the plain text, if any.
func RenderKaraoke(tr domain.Transcript, active, height, width int) []string {
	if !tr.HasSegments() {
		if tr.Text == "" {
			return []string{styles.DimStyle.Render("Sin transcripcion.")}
		}
		wrapped := strings.Split(wordWrap(tr.Text, width), "\n")
		if len(wrapped) > height {
			wrapped = wrapped[:height]
		}
		for i := range wrapped {
			wrapped[i] = styles.InactiveLineStyle.Render(wrapped[i])
		}
		return wrapped
	}

	start := 0
	if active >= 0 {
		start = active - height/2
	}
	start = max(min(start, len(tr.Segments)-height), 0)

	lines := make([]string, 0, height)
	for i := start; i < len(tr.Segments) && len(lines) < height; i++ {
		seg := tr.Segments[i]
		text := styles.Truncate(fmt.Sprintf("%8s  %s", seg.Label, seg.Text), width)
		if i == active {
			lines = append(lines, styles.ActiveLineStyle.Render(text))
		} else {
			lines = append(lines, styles.InactiveLineStyle.Render(text))
		}
	}
	return lines
}

func (m Model) renderFooter() string {
	status := m.StatusMsg
	if m.StatusIsErr {
		status = styles.ErrorStyle.Render(status)
	}
	if ep, ok := m.Selected(); ok && m.backend.OfflineState(ep).InFlight() {
		status = RenderSpinner(m.SpinnerFrame) + " " + status
	}

	bindings := []key.Binding{Keys.Search, Keys.Play, Keys.Offline, Keys.Year, Keys.Month, Keys.OfflineOnly, Keys.Help, Keys.Quit}
	if m.Playback != nil {
		bindings = []key.Binding{Keys.Toggle, Keys.Back, Keys.Forward, Keys.PrevSegment, Keys.NextSegment, Keys.Stop, Keys.Finish, Keys.Help}
	}
	return styles.FooterStyle.Render(lipgloss.JoinVertical(lipgloss.Left, status, renderBindings(bindings)))
}

func renderBindings(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderHelp() string {
	groups := [][]key.Binding{
		{Keys.Up, Keys.Down, Keys.PageUp, Keys.PageDown, Keys.Home, Keys.End, Keys.LoadMore},
		{Keys.Search, Keys.Year, Keys.Month, Keys.OfflineOnly, Keys.Transcripts, Keys.Reset},
		{Keys.Play, Keys.Offline, Keys.ClearOffline, Keys.Quit},
		{Keys.Toggle, Keys.Back, Keys.Forward, Keys.PrevSegment, Keys.NextSegment, Keys.Stop, Keys.Finish},
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Atajos") + "\n\n")
	for _, group := range groups {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n", styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)), styles.HelpDescStyle.Render(h.Desc)))
		}
		b.WriteString("\n")
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, styles.ModalStyle.Render(b.String()))
}

func errorStatus(msg ErrMsg) string {
	if errors.Is(msg.Err, domain.ErrNoAudio) {
		return session.MsgNoAudio
	}
	return msg.Error()
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wordLen := lipgloss.Width(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}
