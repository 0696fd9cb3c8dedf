package tui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/vdp/internal/debounce"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/player"
	"github.com/mmcdole/vdp/internal/search"
	"github.com/mmcdole/vdp/internal/session"
	"github.com/mmcdole/vdp/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateHelp
	StateConfirmClear
)

// Vertical layout
const (
	HeaderHeight  = 3
	FooterHeight  = 2
	KaraokeHeight = 8
	KaraokeLines  = 5
	SeekStep      = 10.0
)

// Playback status lines
const (
	MsgPlaybackEnded = "Reproduccion terminada."
	MsgFinished      = "Episodio terminado; se borro el punto de reanudacion."
)

// Backend is what the UI needs from a session.
type Backend interface {
	Filter(q domain.SearchQuery) []domain.Episode
	RetryTranscripts()
	Facets() (years, months []string)
	OfflineState(ep domain.Episode) domain.OfflineState
	OfflineCount() int
	ToggleOffline(ctx context.Context, id string) error
	ClearOffline(ctx context.Context) error
	Resume(id string) (float64, bool)
	ResumeOffset(id string) time.Duration
	PlaybackTarget(ep domain.Episode) (string, error)
	Play(id string, duration float64) (*player.Playback, error)
	Probe(ctx context.Context) bool
	Status() string
}

// Launcher starts an external audio player.
type Launcher interface {
	Launch(target string, offset time.Duration) error
}

// Options tunes the UI.
type Options struct {
	PageSize       int
	SearchDebounce time.Duration
	TickInterval   time.Duration
	ProbeInterval  time.Duration // Zero disables connectivity checks
}

// Bridge forwards messages from background goroutines (debounce timers,
// session callbacks) into a running program.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach sets the delivery function, usually (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

// Send delivers msg if a program is attached.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	fn := b.send
	b.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	backend   Backend
	launcher  Launcher
	bridge    *Bridge
	debouncer *debounce.Debouncer
	opts      Options
	logger    *slog.Logger

	// Query state
	Input  textinput.Model
	Query  domain.SearchQuery
	Years  []string
	Months []string

	// Results
	Results []domain.Episode
	Page    int
	Cursor  int
	Offset  int

	// Follow clock for the episode handed to the external player
	Playback *player.Playback
	Active   int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model and runs the initial query.
func NewModel(backend Backend, launcher Launcher, bridge *Bridge, opts Options, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if bridge == nil {
		bridge = &Bridge{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = search.DefaultPageSize
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 250 * time.Millisecond
	}

	ti := textinput.New()
	ti.Placeholder = "Buscar por titulo, fecha o palabra clave"
	ti.CharLimit = 200
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.Paper)
	ti.PlaceholderStyle = styles.DimStyle

	years, months := backend.Facets()
	m := Model{
		State:     StateBrowsing,
		backend:   backend,
		launcher:  launcher,
		bridge:    bridge,
		debouncer: debounce.New(opts.SearchDebounce),
		opts:      opts,
		logger:    logger,
		Input:     ti,
		Years:     years,
		Months:    months,
		Active:    -1,
		StatusMsg: backend.Status(),
	}
	m.applyFilter()
	return m
}

// Run wires a session to a full-screen program and blocks until the user quits.
func Run(sess *session.Session, launcher Launcher, opts Options, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	bridge := &Bridge{}
	sess.OnStatus(func(text string) { bridge.Send(StatusMsg{Text: text}) })
	sess.OnRefilter(func() { bridge.Send(RefilterMsg{}) })
	defer func() {
		sess.OnStatus(nil)
		sess.OnRefilter(nil)
	}()

	model := NewModel(sess, launcher, bridge, opts, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	bridge.Attach(p.Send)
	defer bridge.Attach(nil)

	logger.Info("starting TUI", "episodes", len(model.Results))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{TickCmd(m.opts.TickInterval)}
	if m.opts.ProbeInterval > 0 {
		cmds = append(cmds, ProbeCmd(m.backend))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Input.Width = max(msg.Width-6, 10)
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		if m.Playback != nil {
			u := m.Playback.Tick()
			m.Active = u.Active
			if u.Ended {
				m.StatusMsg = MsgPlaybackEnded
				m.StatusIsErr = false
				m.Playback = nil
				m.Active = -1
			}
		}
		return m, TickCmd(m.opts.TickInterval)

	case FilterMsg:
		m.applyFilter()
		return m, nil

	case RefilterMsg:
		m.refilter()
		return m, nil

	case StatusMsg:
		m.StatusMsg = msg.Text
		m.StatusIsErr = false
		return m, nil

	case OfflineDoneMsg:
		m.StatusMsg = m.backend.Status()
		m.StatusIsErr = msg.Err != nil
		if msg.Err != nil {
			m.logger.Warn("offline operation failed", "id", msg.ID, "error", msg.Err)
		}
		m.refilter()
		return m, nil

	case PlaybackStartedMsg:
		m.stopPlayback()
		m.Playback = msg.Playback
		u := m.Playback.Play()
		m.Active = u.Active
		m.StatusMsg = "Reproduciendo: " + msg.Episode.Title
		m.StatusIsErr = false
		m.ensureVisible()
		return m, nil

	case ProbeMsg:
		return m, ProbeCmd(m.backend)

	case ProbeDoneMsg:
		if m.opts.ProbeInterval > 0 {
			return m, ProbeAfterCmd(m.opts.ProbeInterval)
		}
		return m, nil

	case ErrMsg:
		m.StatusMsg = errorStatus(msg)
		m.StatusIsErr = true
		m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		return m, ClearStatusCmd(5 * time.Second)

	case ClearStatusMsg:
		if m.StatusIsErr {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

// applyFilter re-runs the query from the current inputs and resets paging.
func (m *Model) applyFilter() {
	m.Query.Text = m.Input.Value()
	m.Results = m.backend.Filter(m.Query)
	m.Page = 0
	m.Cursor = 0
	m.Offset = 0
}

// refilter re-runs the query keeping the page and the selected episode
// when it is still in the results.
func (m *Model) refilter() {
	selected, hasSelection := m.Selected()
	m.Query.Text = m.Input.Value()
	m.Results = m.backend.Filter(m.Query)
	m.Cursor = 0
	if hasSelection {
		for i, ep := range m.Results {
			if ep.ID == selected.ID {
				m.Cursor = i
				break
			}
		}
	}
	for m.Cursor >= m.shownCount() && m.Cursor > 0 {
		if _, more := m.visible(); !more {
			m.Cursor = m.shownCount() - 1
			break
		}
		m.Page++
	}
	m.ensureVisible()
}

// scheduleFilter coalesces keystrokes into one query after the quiet period.
func (m Model) scheduleFilter() {
	bridge := m.bridge
	m.debouncer.Trigger(func() { bridge.Send(FilterMsg{}) })
}

// resetFilters clears the query, facets and toggles.
func (m *Model) resetFilters() {
	m.debouncer.Cancel()
	m.Input.SetValue("")
	m.Query = domain.SearchQuery{}
	m.applyFilter()
}

func (m Model) visible() ([]domain.Episode, bool) {
	return search.Page(m.Results, m.Page, m.opts.PageSize)
}

func (m Model) shownCount() int {
	shown, _ := m.visible()
	return len(shown)
}

// Selected returns the episode under the cursor.
func (m Model) Selected() (domain.Episode, bool) {
	shown, _ := m.visible()
	if m.Cursor < 0 || m.Cursor >= len(shown) {
		return domain.Episode{}, false
	}
	return shown[m.Cursor], true
}

func (m Model) listHeight() int {
	h := m.Height - HeaderHeight - FooterHeight
	if m.Playback != nil {
		h -= KaraokeHeight
	}
	return max(h, 1)
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+h {
		m.Offset = m.Cursor - h + 1
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// moveCursor moves by delta, loading the next page when the cursor runs
// past the shown results.
func (m *Model) moveCursor(delta int) {
	target := m.Cursor + delta
	for target >= m.shownCount() {
		if _, more := m.visible(); !more {
			break
		}
		m.Page++
	}
	m.Cursor = min(max(target, 0), max(m.shownCount()-1, 0))
	m.ensureVisible()
}

func (m *Model) loadMore() bool {
	if _, more := m.visible(); !more {
		return false
	}
	m.Page++
	return true
}

// stopPlayback pauses the follow clock, persisting the position.
func (m *Model) stopPlayback() {
	if m.Playback == nil {
		return
	}
	m.Playback.Pause()
	m.Playback = nil
	m.Active = -1
}

func (m *Model) shutdown() {
	m.debouncer.Cancel()
	m.stopPlayback()
}

// cycle steps through "" (any) followed by each value.
func cycle(values []string, current string) string {
	if len(values) == 0 {
		return ""
	}
	if current == "" {
		return values[0]
	}
	for i, v := range values {
		if v == current {
			if i+1 < len(values) {
				return values[i+1]
			}
			return ""
		}
	}
	return ""
}
