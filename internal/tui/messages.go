package tui

import (
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/player"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StatusMsg carries a status line from the session
type StatusMsg struct {
	Text string
}

// RefilterMsg asks the model to re-run the current query, e.g. after
// transcripts finished loading or the offline set changed
type RefilterMsg struct{}

// FilterMsg fires when the search input has been quiet long enough
type FilterMsg struct{}

// OfflineDoneMsg signals that a save, remove or clear finished
type OfflineDoneMsg struct {
	ID  string // Empty for clear-all
	Err error
}

// PlaybackStartedMsg signals that the external player was launched and
// the follow clock is ready
type PlaybackStartedMsg struct {
	Episode  domain.Episode
	Playback *player.Playback
}

// TickMsg drives the spinner and the follow clock
type TickMsg struct{}

// ProbeMsg triggers a connectivity check
type ProbeMsg struct{}

// ProbeDoneMsg reports the outcome of a connectivity check
type ProbeDoneMsg struct {
	Online bool
}

// ClearStatusMsg clears a transient status line
type ClearStatusMsg struct{}
