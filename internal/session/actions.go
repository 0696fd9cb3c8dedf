package session

import (
	"context"
	"errors"
	"time"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/player"
	"github.com/mmcdole/vdp/internal/transcript"
)

// Filter runs a query against the catalog. When transcripts are requested
// but not loaded yet, loading starts in the background, the current
// results use whatever is loaded, and OnRefilter fires once it finishes.
func (s *Session) Filter(q domain.SearchQuery) []domain.Episode {
	var tr *transcript.Bundle
	if q.IncludeTranscripts {
		if b, ok := s.transcripts.Loaded(); ok {
			tr = b
		} else {
			s.loadTranscriptsAsync()
		}
	}
	return s.engine.Filter(q, tr)
}

func (s *Session) loadTranscriptsAsync() {
	s.mu.Lock()
	if s.loadingTr || s.trMissing {
		s.mu.Unlock()
		return
	}
	s.loadingTr = true
	s.mu.Unlock()

	go func() {
		err := s.LoadTranscripts(context.Background())

		s.mu.Lock()
		s.loadingTr = false
		// A missing bundle is not fetched again until RetryTranscripts
		s.trMissing = transcript.Unavailable(err)
		fn := s.onRefilter
		s.mu.Unlock()
		if err == nil && fn != nil {
			fn()
		}
	}()
}

// RetryTranscripts allows the next transcript query to fetch the bundle
// again after it was found missing.
func (s *Session) RetryTranscripts() {
	s.mu.Lock()
	s.trMissing = false
	s.mu.Unlock()
}

// LoadTranscripts loads the transcript bundle, reporting progress through
// the status line. A missing bundle is reported, not fatal.
func (s *Session) LoadTranscripts(ctx context.Context) error {
	if _, ok := s.transcripts.Loaded(); ok {
		return nil
	}
	s.setStatus(MsgLoadingTranscript)
	if _, err := s.transcripts.Load(ctx); err != nil {
		s.setStatus(MsgNoTranscripts)
		return err
	}
	s.setStatus(MsgTranscriptsReady)
	return nil
}

// Transcript returns the loaded transcript for an episode, if any.
func (s *Session) Transcript(id string) (domain.Transcript, bool) {
	b, ok := s.transcripts.Loaded()
	if !ok {
		return domain.Transcript{}, false
	}
	return b.Get(id)
}

// SaveOffline downloads an episode for offline use.
func (s *Session) SaveOffline(ctx context.Context, id string) error {
	ep, err := s.Episode(id)
	if err != nil {
		return err
	}
	if !s.offline.Supported() {
		s.setStatus(MsgOfflineUnsupported)
		return domain.ErrBlobStoreUnavailable
	}

	s.setStatus(MsgSaving)
	if err := s.offline.Save(ctx, ep); err != nil {
		s.fail("save offline", err, MsgSaveFailed)
		return err
	}
	s.setStatus(MsgSaved)
	s.refilter()
	return nil
}

// RemoveOffline drops an episode's offline copy.
func (s *Session) RemoveOffline(ctx context.Context, id string) error {
	ep, err := s.Episode(id)
	if err != nil {
		return err
	}
	if !s.offline.Supported() {
		s.setStatus(MsgOfflineUnsupported)
		return domain.ErrBlobStoreUnavailable
	}

	if err := s.offline.Remove(ctx, ep); err != nil {
		s.fail("remove offline", err, MsgRemoveFailed)
		return err
	}
	s.setStatus(MsgRemoved)
	s.refilter()
	return nil
}

// ToggleOffline saves an absent episode or removes a saved one.
func (s *Session) ToggleOffline(ctx context.Context, id string) error {
	ep, err := s.Episode(id)
	if err != nil {
		return err
	}
	if s.offline.IsSaved(ep) {
		return s.RemoveOffline(ctx, id)
	}
	return s.SaveOffline(ctx, id)
}

// ClearOffline deletes every offline copy.
func (s *Session) ClearOffline(ctx context.Context) error {
	if !s.offline.Supported() {
		s.setStatus(MsgOfflineUnsupported)
		return domain.ErrBlobStoreUnavailable
	}
	if err := s.offline.ClearAll(ctx); err != nil {
		s.fail("clear offline", err, MsgClearFailed)
		return err
	}
	s.setStatus(MsgCleared)
	s.refilter()
	return nil
}

// OfflineState returns the offline state of an episode.
func (s *Session) OfflineState(ep domain.Episode) domain.OfflineState {
	return s.offline.State(ep)
}

func (s *Session) refilter() {
	s.mu.Lock()
	fn := s.onRefilter
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// fail puts a failed operation on the status line. Recoverable errors
// (network, busy, no audio) get the operation's message; anything else is
// a local storage problem.
func (s *Session) fail(op string, err error, fallback string) {
	if domain.IsRecoverable(err) {
		s.logger.Warn(op+" failed", "error", err)
	} else {
		s.logger.Error(op+" failed", "error", err)
	}
	s.setStatus(failureMessage(err, fallback))
}

func failureMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrOperationInFlight):
		return MsgBusy
	case errors.Is(err, domain.ErrNoAudio):
		return MsgNoAudio
	case errors.Is(err, domain.ErrBlobStoreUnavailable):
		return MsgOfflineUnsupported
	case !domain.IsRecoverable(err):
		return MsgStorageFailed
	default:
		return fallback
	}
}

// Resume returns the resume position for an episode when one is offered.
func (s *Session) Resume(id string) (float64, bool) {
	return s.progress.Resume(id)
}

// PlaybackTarget returns what a player should open: the saved local copy
// when the episode is available offline, the remote URL otherwise.
func (s *Session) PlaybackTarget(ep domain.Episode) (string, error) {
	if !ep.HasAudio() {
		return "", domain.ErrNoAudio
	}
	if s.blobs != nil && s.offline.IsSaved(ep) {
		if path, ok := s.blobs.Path(ep.AudioURL); ok {
			return path, nil
		}
	}
	return ep.AudioURL, nil
}

// Play prepares a playback for an episode, positioned at the resume point
// when one is offered. duration may be zero when unknown.
func (s *Session) Play(id string, duration float64) (*player.Playback, error) {
	ep, err := s.Episode(id)
	if err != nil {
		return nil, err
	}
	if !ep.HasAudio() {
		s.setStatus(MsgNoAudio)
		return nil, domain.ErrNoAudio
	}

	tr, _ := s.Transcript(id)
	pb := player.NewPlayback(ep, tr, player.NewClock(duration), s.progress.Start(id), s.opts.Lookahead, s.logger)
	if pos, ok := s.progress.Resume(id); ok {
		pb.Seek(pos)
	}
	return pb, nil
}

// ResumeOffset returns the resume position as a duration, zero if none.
func (s *Session) ResumeOffset(id string) time.Duration {
	pos, ok := s.progress.Resume(id)
	if !ok {
		return 0
	}
	return time.Duration(pos * float64(time.Second))
}

// InstallShell precaches the shell assets for offline startup.
func (s *Session) InstallShell(ctx context.Context) error {
	assets := []string{s.opts.Catalog}
	if s.opts.Transcripts != "" {
		assets = append(assets, s.opts.Transcripts)
	}
	if err := s.shell.Install(ctx, assets); err != nil {
		// Transcripts are optional; retry with the catalog alone
		if len(assets) > 1 {
			s.logger.Warn("shell install without transcripts", "error", err)
			return s.shell.Install(ctx, assets[:1])
		}
		return err
	}
	return nil
}

// ActivateShell evicts cache generations other than the current shell and
// offline audio namespaces.
func (s *Session) ActivateShell() ([]string, error) {
	return s.shell.Activate(s.opts.OfflineCache)
}
