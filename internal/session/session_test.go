package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/blobstore"
	"github.com/mmcdole/vdp/internal/domain"
)

type fixture struct {
	dir  string
	srv  *httptest.Server
	opts Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	index := fmt.Sprintf(`{
  "generated_at": "2025-01-01T00:00:00Z",
  "source": "test",
  "posts": [
    {"id": "rev-mayo", "title": "La Revolución de Mayo", "date": "2024-05-25", "year": "2024", "month": "05", "audio_url": "%[1]s/rev-mayo.mp3", "has_transcription": "1"},
    {"id": "belgrano", "title": "Manuel Belgrano", "date": "2023-06-20", "year": "2023", "month": "06", "audio_url": "%[1]s/belgrano.mp3", "has_transcription": "0"},
    {"id": "sin-audio", "title": "Episodio perdido", "date": "", "year": "", "month": "", "audio_url": "", "has_transcription": "0"}
  ],
  "new_posts": 0
}`, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(index), 0644))

	transcripts := `{
  "rev-mayo": {"text": "El cabildo abierto", "segments": [{"label": "0:00", "t": 0, "text": "El cabildo"}, {"label": "0:10", "t": 10, "text": "abierto"}]}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcripts.json"), []byte(transcripts), 0644))

	data := filepath.Join(dir, "state")
	return &fixture{
		dir: dir,
		srv: srv,
		opts: Options{
			DataDir:      data,
			RegistryPath: filepath.Join(data, "registry.db"),
			CacheDir:     filepath.Join(data, "caches"),
			Catalog:      filepath.Join(dir, "index.json"),
			Transcripts:  filepath.Join(dir, "transcripts.json"),
			Lookahead:    0.2,
			HTTPClient:   srv.Client(),
		},
	}
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), f.opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ids(eps []domain.Episode) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.ID
	}
	return out
}

func TestOpenLoadsCatalog(t *testing.T) {
	s := newFixture(t).open(t)
	assert.Equal(t, MsgIndexReady, s.Status())
	assert.Equal(t, 3, s.Index().Len())

	got := s.Filter(domain.SearchQuery{Text: "revolucion"})
	assert.Equal(t, []string{"rev-mayo"}, ids(got))

	_, err := s.Episode("nope")
	assert.ErrorIs(t, err, domain.ErrEpisodeNotFound)
}

func TestOpenWithMissingCatalog(t *testing.T) {
	f := newFixture(t)
	f.opts.Catalog = filepath.Join(f.dir, "missing.json")
	s := f.open(t)

	assert.Equal(t, MsgIndexFailed, s.Status())
	assert.Zero(t, s.Index().Len())
	assert.Empty(t, s.Filter(domain.SearchQuery{}))
}

func TestDataDirIsLocked(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)

	_, err := Open(context.Background(), f.opts, nil)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, s.Close())
	again, err := Open(context.Background(), f.opts, nil)
	require.NoError(t, err)
	again.Close()
}

func TestOfflineLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t).open(t)

	var statuses []string
	var mu sync.Mutex
	s.OnStatus(func(msg string) {
		mu.Lock()
		statuses = append(statuses, msg)
		mu.Unlock()
	})

	require.NoError(t, s.SaveOffline(ctx, "rev-mayo"))
	assert.Equal(t, []string{MsgSaving, MsgSaved}, statuses)

	ep, _ := s.Episode("rev-mayo")
	assert.Equal(t, domain.OfflineSaved, s.OfflineState(ep))
	assert.Equal(t, []string{"rev-mayo"}, ids(s.Filter(domain.SearchQuery{OfflineOnly: true})))

	target, err := s.PlaybackTarget(ep)
	require.NoError(t, err)
	assert.FileExists(t, target, "saved episodes play from the local copy")

	require.NoError(t, s.ClearOffline(ctx))
	assert.Equal(t, MsgCleared, s.Status())
	assert.Empty(t, s.Filter(domain.SearchQuery{OfflineOnly: true}))

	target, err = s.PlaybackTarget(ep)
	require.NoError(t, err)
	assert.Equal(t, ep.AudioURL, target)
}

func TestSaveWithoutAudio(t *testing.T) {
	s := newFixture(t).open(t)
	err := s.SaveOffline(context.Background(), "sin-audio")
	assert.ErrorIs(t, err, domain.ErrNoAudio)
	assert.Equal(t, MsgNoAudio, s.Status())
}

func TestOfflineDisabled(t *testing.T) {
	f := newFixture(t)
	f.opts.DisableOffline = true
	s := f.open(t)

	err := s.SaveOffline(context.Background(), "rev-mayo")
	assert.ErrorIs(t, err, domain.ErrBlobStoreUnavailable)
	assert.Equal(t, MsgOfflineUnsupported, s.Status())

	// Search still works
	assert.Len(t, s.Filter(domain.SearchQuery{}), 3)
}

func TestOfflineSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := Open(ctx, f.opts, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveOffline(ctx, "belgrano"))
	require.NoError(t, s.Close())

	s = f.open(t)
	ep, _ := s.Episode("belgrano")
	assert.True(t, s.Offline().IsSaved(ep))
}

func TestTranscriptSearchRefilters(t *testing.T) {
	s := newFixture(t).open(t)

	refiltered := make(chan struct{}, 1)
	s.OnRefilter(func() { refiltered <- struct{}{} })

	q := domain.SearchQuery{Text: "cabildo", IncludeTranscripts: true}
	assert.Empty(t, s.Filter(q), "first pass runs before transcripts load")

	select {
	case <-refiltered:
	case <-time.After(5 * time.Second):
		t.Fatal("transcripts never finished loading")
	}

	assert.Equal(t, []string{"rev-mayo"}, ids(s.Filter(q)))
	assert.Empty(t, s.Filter(domain.SearchQuery{Text: "cabildo"}), "transcripts only widen when asked")
}

func TestMissingTranscriptsAreReported(t *testing.T) {
	f := newFixture(t)
	f.opts.Transcripts = filepath.Join(f.dir, "nope.json")
	s := f.open(t)

	err := s.LoadTranscripts(context.Background())
	assert.ErrorIs(t, err, domain.ErrTranscriptsUnavailable)
	assert.Equal(t, MsgNoTranscripts, s.Status())
}

func TestPlayResumesAndHighlights(t *testing.T) {
	s := newFixture(t).open(t)
	require.NoError(t, s.LoadTranscripts(context.Background()))

	_, err := s.Progress().Save("rev-mayo", 42)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, s.ResumeOffset("rev-mayo"))

	pb, err := s.Play("rev-mayo", 0)
	require.NoError(t, err)
	u := pb.Tick()
	assert.InDelta(t, 42, u.Position, 0.01)
	assert.Equal(t, 1, u.Active)

	_, err = s.Play("sin-audio", 0)
	assert.ErrorIs(t, err, domain.ErrNoAudio)
}

func TestShellInstallServesCatalogOffline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := Open(ctx, f.opts, nil)
	require.NoError(t, err)
	require.NoError(t, s.InstallShell(ctx))
	require.NoError(t, os.MkdirAll(filepath.Join(f.opts.CacheDir, "vdp-shell-v0"), 0755))
	evicted, err := s.ActivateShell()
	require.NoError(t, err)
	assert.Equal(t, []string{"vdp-shell-v0"}, evicted)
	require.NoError(t, s.Close())

	// Source file gone; the shell cache still has it
	require.NoError(t, os.Remove(f.opts.Catalog))
	s = f.open(t)
	assert.Equal(t, MsgIndexReady, s.Status())
	assert.Equal(t, 3, s.Index().Len())
}

func TestProbe(t *testing.T) {
	f := newFixture(t)
	catalog := http.NewServeMux()
	up := true
	var mu sync.Mutex
	catalog.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if !up {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		data, _ := os.ReadFile(filepath.Join(f.dir, "index.json"))
		w.Write(data)
	})
	srv := httptest.NewServer(catalog)
	t.Cleanup(srv.Close)
	f.opts.Catalog = srv.URL + "/index.json"
	f.opts.Network = adapter.NewFetcher(srv.Client(), "", 1, nil)

	s := f.open(t)
	assert.True(t, s.Probe(context.Background()))

	mu.Lock()
	up = false
	mu.Unlock()
	assert.False(t, s.Probe(context.Background()))
	assert.Equal(t, MsgOffline, s.Status())

	mu.Lock()
	up = true
	mu.Unlock()
	assert.True(t, s.Probe(context.Background()))
	assert.Equal(t, MsgOnline, s.Status())
}

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	next  domain.Fetcher
}

func (c *countingFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	c.mu.Lock()
	c.calls[location]++
	c.mu.Unlock()
	return c.next.Fetch(ctx, location)
}

func (c *countingFetcher) count(location string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[location]
}

func TestMissingTranscriptsAreNotRefetchedOnEveryFilter(t *testing.T) {
	f := newFixture(t)
	f.opts.Transcripts = filepath.Join(f.dir, "nope.json")
	fetcher := &countingFetcher{calls: make(map[string]int), next: adapter.NewFetcher(nil, "", 1, nil)}
	f.opts.Network = fetcher
	s := f.open(t)

	settled := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.loadingTr && s.trMissing
	}

	q := domain.SearchQuery{Text: "cabildo", IncludeTranscripts: true}
	s.Filter(q)
	require.Eventually(t, settled, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, fetcher.count(f.opts.Transcripts))

	require.NoError(t, s.SaveOffline(context.Background(), "rev-mayo"))
	for i := 0; i < 4; i++ {
		s.Filter(q)
	}
	assert.Equal(t, 1, fetcher.count(f.opts.Transcripts))
	assert.Equal(t, MsgSaved, s.Status(), "the status line is left alone")

	s.RetryTranscripts()
	s.Filter(q)
	require.Eventually(t, func() bool { return fetcher.count(f.opts.Transcripts) == 2 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, settled, 5*time.Second, 10*time.Millisecond)
}

func TestSaveFailureMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("storage", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(f.opts.CacheDir, 0755))
		// A file where the namespace directory should go
		require.NoError(t, os.WriteFile(filepath.Join(f.opts.CacheDir, blobstore.DefaultNamespace), nil, 0644))
		s := f.open(t)

		err := s.SaveOffline(ctx, "rev-mayo")
		require.Error(t, err)
		assert.False(t, domain.IsRecoverable(err))
		assert.Equal(t, MsgStorageFailed, s.Status())
	})

	t.Run("network", func(t *testing.T) {
		f := newFixture(t)
		s := f.open(t)
		f.srv.Close()

		err := s.SaveOffline(ctx, "rev-mayo")
		require.ErrorIs(t, err, domain.ErrFetchFailed)
		assert.True(t, domain.IsRecoverable(err))
		assert.Equal(t, MsgSaveFailed, s.Status())

		ep, _ := s.Episode("rev-mayo")
		assert.Equal(t, domain.OfflineAbsent, s.OfflineState(ep))
	})
}
