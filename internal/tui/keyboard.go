package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vdp/internal/session"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmClear:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, ClearOfflineCmd(m.backend)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateSearching:
		return m.handleSearchKey(msg)
	}

	// Playback keys take precedence while following an episode
	if m.Playback != nil {
		if handled, cmd := m.handlePlaybackKey(msg); handled {
			return m, cmd
		}
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if !m.Query.IsEmpty() || m.Query.IncludeTranscripts {
			m.resetFilters()
		}
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		return m, m.Input.Focus()

	case key.Matches(msg, Keys.Year):
		m.Query.Year = cycle(m.Years, m.Query.Year)
		m.applyFilter()
		return m, nil

	case key.Matches(msg, Keys.Month):
		m.Query.Month = cycle(m.Months, m.Query.Month)
		m.applyFilter()
		return m, nil

	case key.Matches(msg, Keys.OfflineOnly):
		m.Query.OfflineOnly = !m.Query.OfflineOnly
		m.applyFilter()
		return m, nil

	case key.Matches(msg, Keys.Transcripts):
		m.Query.IncludeTranscripts = !m.Query.IncludeTranscripts
		if m.Query.IncludeTranscripts {
			m.backend.RetryTranscripts()
		}
		m.applyFilter()
		return m, nil

	case key.Matches(msg, Keys.Reset):
		m.resetFilters()
		return m, nil

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, Keys.PageUp):
		m.moveCursor(-m.listHeight())
		return m, nil

	case key.Matches(msg, Keys.PageDown):
		m.moveCursor(m.listHeight())
		return m, nil

	case key.Matches(msg, Keys.Home):
		m.Cursor = 0
		m.ensureVisible()
		return m, nil

	case key.Matches(msg, Keys.End):
		m.Cursor = max(m.shownCount()-1, 0)
		m.ensureVisible()
		return m, nil

	case key.Matches(msg, Keys.LoadMore):
		m.loadMore()
		return m, nil

	case key.Matches(msg, Keys.Play):
		if ep, ok := m.Selected(); ok {
			if !ep.HasAudio() {
				m.StatusMsg = session.MsgNoAudio
				m.StatusIsErr = true
				return m, nil
			}
			return m, PlayCmd(m.backend, m.launcher, ep)
		}
		return m, nil

	case key.Matches(msg, Keys.Offline):
		if ep, ok := m.Selected(); ok {
			if m.backend.OfflineState(ep).InFlight() {
				m.StatusMsg = session.MsgBusy
				return m, nil
			}
			return m, ToggleOfflineCmd(m.backend, ep.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.ClearOffline):
		if m.backend.OfflineCount() > 0 {
			m.State = StateConfirmClear
		}
		return m, nil
	}

	return m, nil
}

// handleSearchKey routes keys to the search input while it has focus.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		// Apply right away instead of waiting for the quiet period
		m.debouncer.Cancel()
		m.Input.Blur()
		m.State = StateBrowsing
		m.applyFilter()
		return m, nil
	case tea.KeyEsc:
		m.Input.Blur()
		m.State = StateBrowsing
		return m, nil
	case tea.KeyCtrlC:
		m.shutdown()
		return m, tea.Quit
	}

	before := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if m.Input.Value() != before {
		m.scheduleFilter()
	}
	return m, cmd
}

// handlePlaybackKey handles follow-clock controls. It reports whether the
// key was consumed.
func (m *Model) handlePlaybackKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Toggle):
		u := m.Playback.Toggle()
		m.Active = u.Active
	case key.Matches(msg, Keys.Back):
		m.Active = m.Playback.SeekBy(-SeekStep).Active
	case key.Matches(msg, Keys.Forward):
		m.Active = m.Playback.SeekBy(SeekStep).Active
	case key.Matches(msg, Keys.PrevSegment):
		if m.Active > 0 {
			m.Active = m.Playback.SeekSegment(m.Active - 1).Active
		} else {
			m.Active = m.Playback.SeekSegment(0).Active
		}
	case key.Matches(msg, Keys.NextSegment):
		m.Active = m.Playback.SeekSegment(m.Active + 1).Active
	case key.Matches(msg, Keys.Stop):
		m.stopPlayback()
		m.ensureVisible()
	case key.Matches(msg, Keys.Finish):
		// Drops the resume record
		m.Playback.End()
		m.Playback = nil
		m.Active = -1
		m.StatusMsg = MsgFinished
		m.StatusIsErr = false
		m.ensureVisible()
	default:
		return false, nil
	}
	return true, nil
}
