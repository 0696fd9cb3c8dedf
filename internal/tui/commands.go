package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vdp/internal/domain"
)

// Command factories for async operations

// ToggleOfflineCmd saves or removes an episode's offline copy
func ToggleOfflineCmd(b Backend, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		return OfflineDoneMsg{ID: id, Err: b.ToggleOffline(ctx, id)}
	}
}

// ClearOfflineCmd deletes every offline copy
func ClearOfflineCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return OfflineDoneMsg{Err: b.ClearOffline(ctx)}
	}
}

// PlayCmd hands the episode to the external player, starting at the
// resume point, and prepares the follow clock for karaoke highlighting
func PlayCmd(b Backend, l Launcher, ep domain.Episode) tea.Cmd {
	return func() tea.Msg {
		target, err := b.PlaybackTarget(ep)
		if err != nil {
			return ErrMsg{Err: err, Context: "iniciando reproduccion"}
		}
		if l != nil {
			if err := l.Launch(target, b.ResumeOffset(ep.ID)); err != nil {
				return ErrMsg{Err: err, Context: "iniciando reproduccion"}
			}
		}
		pb, err := b.Play(ep.ID, 0)
		if err != nil {
			return ErrMsg{Err: err, Context: "iniciando reproduccion"}
		}
		return PlaybackStartedMsg{Episode: ep, Playback: pb}
	}
}

// ProbeCmd checks connectivity to the catalog source
func ProbeCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ProbeDoneMsg{Online: b.Probe(ctx)}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ProbeAfterCmd schedules the next connectivity check
func ProbeAfterCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ProbeMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
