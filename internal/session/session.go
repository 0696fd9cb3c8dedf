// Package session owns every piece of engine state for one running
// instance: the catalog, the registries, the blob store, the shell cache
// and the transcript loader. Callers talk to the session, never to globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/blobstore"
	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/offline"
	"github.com/mmcdole/vdp/internal/progress"
	"github.com/mmcdole/vdp/internal/search"
	"github.com/mmcdole/vdp/internal/shellcache"
	"github.com/mmcdole/vdp/internal/store"
	"github.com/mmcdole/vdp/internal/transcript"
)

// ErrLocked means another process holds the data directory.
var ErrLocked = errors.New("another vdp instance is using the data directory")

// Options configures a session.
type Options struct {
	DataDir      string
	RegistryPath string // empty keeps registries in memory
	CacheDir     string
	ShellCache   string
	OfflineCache string

	Catalog     string // catalog location (path or URL)
	Transcripts string // transcript bundle location, empty to disable

	ProgressInterval float64
	ResumeThreshold  float64
	Lookahead        float64

	HTTPClient     *http.Client
	Network        domain.Fetcher // defaults to an adapter.Fetcher
	DisableOffline bool           // run without a blob store
}

// OptionsFromConfig maps application config onto session options.
func OptionsFromConfig(cfg *adapter.Config) Options {
	return Options{
		DataDir:          cfg.Storage.DataDir,
		RegistryPath:     cfg.RegistryPath(),
		CacheDir:         cfg.CacheDir(),
		ShellCache:       cfg.Catalog.ShellCache,
		OfflineCache:     cfg.Storage.OfflineCache,
		Catalog:          cfg.Catalog.Index,
		Transcripts:      cfg.Catalog.Transcripts,
		ProgressInterval: cfg.Playback.ProgressInterval,
		ResumeThreshold:  cfg.Playback.ResumeThreshold,
		Lookahead:        cfg.Playback.Lookahead,
	}
}

// Session coordinates the engine components.
type Session struct {
	opts   Options
	logger *slog.Logger

	lock        *flock.Flock
	store       *store.Store
	blobs       *blobstore.Store
	shell       *shellcache.Cache
	index       *catalog.Index
	engine      *search.Engine
	offline     *offline.Manager
	progress    *progress.Tracker
	transcripts *transcript.Loader
	network     domain.Fetcher

	mu         sync.Mutex
	offlineNet bool
	status     string
	onStatus   func(string)
	onRefilter func()
	loadingTr  bool
	trMissing  bool
}

// Open acquires the data directory, opens the registries and loads the
// catalog. A catalog failure is not an error: the session starts empty
// and the status explains why.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.OfflineCache == "" {
		opts.OfflineCache = blobstore.DefaultNamespace
	}
	if opts.ShellCache == "" {
		opts.ShellCache = shellcache.DefaultName
	}

	s := &Session{opts: opts, logger: logger}

	if opts.DataDir != "" {
		if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		s.lock = flock.New(filepath.Join(opts.DataDir, "vdp.lock"))
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, ErrLocked
		}
	}

	st, err := store.NewStore(opts.RegistryPath, logger)
	if err != nil {
		s.unlock()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	s.store = st

	network := opts.Network
	if network == nil {
		network = adapter.NewFetcher(opts.HTTPClient, "", 3, logger)
	}
	s.network = network
	s.shell = shellcache.New(opts.CacheDir, opts.ShellCache, network, logger)

	var blobs domain.BlobStore
	if !opts.DisableOffline && opts.CacheDir != "" {
		s.blobs = blobstore.New(opts.CacheDir, opts.OfflineCache, opts.HTTPClient, logger)
		blobs = s.blobs
	}

	s.offline = offline.NewManager(st, blobs, logger)
	s.progress = progress.NewTracker(st, opts.ProgressInterval, opts.ResumeThreshold, logger)
	s.transcripts = transcript.NewLoader(s.shell, opts.Transcripts, logger)

	s.setStatus(MsgLoadingIndex)
	index, err := catalog.Load(ctx, s.shell, opts.Catalog, logger)
	s.index = index
	s.engine = search.NewEngine(index, s.offline, logger)
	if err != nil {
		s.setStatus(MsgIndexFailed)
	} else {
		s.setStatus(MsgIndexReady)
		if s.offline.Supported() {
			if n, err := s.offline.Reconcile(ctx, index.Episodes()); err != nil {
				logger.Warn("offline reconcile failed", "error", err)
			} else if n > 0 {
				logger.Info("offline registry reconciled", "dropped", n)
			}
		}
	}

	return s, nil
}

func (s *Session) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release data dir lock", "error", err)
	}
}

// Close releases the registries and the data directory lock.
func (s *Session) Close() error {
	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	s.unlock()
	return err
}

// OnStatus registers a callback for status changes.
func (s *Session) OnStatus(fn func(string)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// OnRefilter registers a callback fired when results may have changed
// without user input, e.g. transcripts finished loading.
func (s *Session) OnRefilter(fn func()) {
	s.mu.Lock()
	s.onRefilter = fn
	s.mu.Unlock()
}

func (s *Session) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	fn := s.onStatus
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Notify sets a status line from outside the session.
func (s *Session) Notify(msg string) { s.setStatus(msg) }

// Status returns the latest status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Probe checks whether the catalog source is reachable and reports a
// status line when connectivity changes. Local catalogs are always online.
func (s *Session) Probe(ctx context.Context) bool {
	if !adapter.IsRemote(s.opts.Catalog) {
		return true
	}
	_, err := s.network.Fetch(ctx, s.opts.Catalog)
	online := err == nil

	s.mu.Lock()
	changed := online == s.offlineNet
	s.offlineNet = !online
	s.mu.Unlock()

	if changed {
		if online {
			s.setStatus(MsgOnline)
		} else {
			s.setStatus(MsgOffline)
		}
	}
	return online
}

// Index returns the catalog.
func (s *Session) Index() *catalog.Index { return s.index }

// Offline returns the offline manager.
func (s *Session) Offline() *offline.Manager { return s.offline }

// Progress returns the progress tracker.
func (s *Session) Progress() *progress.Tracker { return s.progress }

// Transcripts returns the transcript loader.
func (s *Session) Transcripts() *transcript.Loader { return s.transcripts }

// Shell returns the shell cache.
func (s *Session) Shell() *shellcache.Cache { return s.shell }

// Blobs returns the blob store, or nil when offline storage is disabled.
func (s *Session) Blobs() *blobstore.Store { return s.blobs }

// Facets returns the year values (newest first) and month values present
// in the catalog.
func (s *Session) Facets() (years, months []string) {
	return s.index.Years(), s.index.Months()
}

// OfflineCount returns how many episodes are recorded as saved offline.
func (s *Session) OfflineCount() int { return s.offline.Count() }

// Episode looks up an episode by ID.
func (s *Session) Episode(id string) (domain.Episode, error) {
	ep, ok := s.index.Get(id)
	if !ok {
		return domain.Episode{}, fmt.Errorf("%w: %s", domain.ErrEpisodeNotFound, id)
	}
	return ep, nil
}
