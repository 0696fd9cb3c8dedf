package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/vdp/internal/domain"
)

// Status describes the loader's progress.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusUnavailable
)

// String returns the status line shown to users.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Transcripciones sin cargar"
	case StatusLoading:
		return "Cargando transcripciones..."
	case StatusReady:
		return "Transcripciones listas."
	case StatusUnavailable:
		return "Transcripciones no disponibles."
	default:
		return "Desconocido"
	}
}

// Loader fetches the bundle lazily. Concurrent Load calls share one fetch;
// a successful result is memoized, a failure is not.
type Loader struct {
	fetcher  domain.Fetcher
	location string
	logger   *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	bundle *Bundle
	status Status
	err    error
}

// NewLoader creates a loader for the bundle at location.
func NewLoader(fetcher domain.Fetcher, location string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, location: location, logger: logger}
}

// Load returns the bundle, fetching it on first use. A missing bundle
// returns domain.ErrTranscriptsUnavailable; a later Load retries.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	if b, ok := l.Loaded(); ok {
		return b, nil
	}

	ch := l.group.DoChan("bundle", func() (interface{}, error) {
		// A previous flight may have finished between the check and here
		if b, ok := l.Loaded(); ok {
			return b, nil
		}
		l.setStatus(StatusLoading, nil)
		// Detached so one caller's cancellation does not fail the others
		b, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			l.setStatus(StatusUnavailable, err)
			return nil, err
		}
		l.mu.Lock()
		l.bundle = b
		l.status = StatusReady
		l.err = nil
		l.mu.Unlock()
		return b, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Bundle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) fetch(ctx context.Context) (*Bundle, error) {
	if l.location == "" {
		return nil, fmt.Errorf("%w: no bundle configured", domain.ErrTranscriptsUnavailable)
	}

	data, err := l.fetcher.Fetch(ctx, l.location)
	if err != nil {
		l.logger.Warn("transcript bundle unavailable", "location", l.location, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptsUnavailable, err)
	}

	transcripts, err := ParseBundle(data, l.logger)
	if err != nil {
		l.logger.Warn("transcript bundle unreadable", "location", l.location, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptsUnavailable, err)
	}

	b := NewBundle(transcripts)
	l.logger.Info("loaded transcripts", "location", l.location, "count", b.Len())
	return b, nil
}

func (l *Loader) setStatus(s Status, err error) {
	l.mu.Lock()
	l.status = s
	l.err = err
	l.mu.Unlock()
}

// Loaded returns the bundle without blocking, if one has been loaded.
func (l *Loader) Loaded() (*Bundle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bundle, l.bundle != nil
}

// Status returns the current load status and the last error, if any.
func (l *Loader) Status() (Status, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status, l.err
}

// Unavailable reports whether err means the bundle is missing rather than
// the caller giving up.
func Unavailable(err error) bool {
	return errors.Is(err, domain.ErrTranscriptsUnavailable)
}
