package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vdp/internal/adapter"
	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/session"
)

type cliEnv struct {
	dir    string
	config string
	cfg    *adapter.Config
	audio  *httptest.Server
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio:" + r.URL.Path))
	}))
	t.Cleanup(audio.Close)

	dir := t.TempDir()
	index := fmt.Sprintf(`{
  "generated_at": "2025-01-01T00:00:00Z",
  "source": "test",
  "posts": [
    {"id": "rev-mayo", "title": "La Revolución de Mayo", "date": "2024-05-25", "year": "2024", "month": "05", "audio_url": "%[1]s/rev-mayo.mp3", "has_transcription": "1"},
    {"id": "belgrano", "title": "Manuel Belgrano", "date": "2023-06-20", "year": "2023", "month": "06", "audio_url": "%[1]s/belgrano.mp3", "has_transcription": "0"}
  ],
  "new_posts": 0
}`, audio.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(index), 0644))

	transcripts := `{
  "rev-mayo": {"text": "El cabildo abierto", "segments": [{"label": "0:00", "t": 0, "text": "El cabildo"}, {"label": "0:10", "t": 10, "text": "abierto"}]}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcripts.json"), []byte(transcripts), 0644))

	cfg := adapter.DefaultConfig()
	cfg.Catalog.Index = filepath.Join(dir, "index.json")
	cfg.Catalog.Transcripts = filepath.Join(dir, "transcripts.json")
	cfg.Storage.DataDir = filepath.Join(dir, "state")
	cfg.Logging.File = filepath.Join(dir, "vdp.log")
	cfg.Build.Output = filepath.Join(dir, "build")
	cfg.Build.Delay = 0
	cfg.Build.Retries = 0

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, adapter.SaveConfig(cfg, path))

	loaded, err := adapter.LoadConfig(path)
	require.NoError(t, err)
	return &cliEnv{dir: dir, config: path, cfg: loaded, audio: audio}
}

// run executes the CLI with the env's config and returns stdout.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.config}, args...)...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) openSession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.Open(context.Background(), session.OptionsFromConfig(e.cfg), nil)
	require.NoError(t, err)
	return sess
}

func TestVersionSkipsConfig(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing", "bad.yaml"), "version")
	require.NoError(t, err)
	assert.Equal(t, "vdp dev\n", out)
}

func TestSearch(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "search", "revolucion")
	require.NoError(t, err)
	assert.Contains(t, out, "rev-mayo")
	assert.NotContains(t, out, "belgrano")
	assert.Contains(t, out, "1 resultados")

	out, err = env.run(t, "search", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "belgrano")
	assert.NotContains(t, out, "rev-mayo")

	out, err = env.run(t, "search", "--month", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "rev-mayo")
	assert.NotContains(t, out, "belgrano")
}

func TestSearchTranscripts(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "search", "cabildo")
	require.NoError(t, err)
	assert.Contains(t, out, "0 resultados")

	out, err = env.run(t, "search", "--transcripts", "cabildo")
	require.NoError(t, err)
	assert.Contains(t, out, "rev-mayo")
	assert.Contains(t, out, "1 resultados")
}

func TestProgressListAndClear(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "progress", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Sin progreso guardado.")

	sess := env.openSession(t)
	_, err = sess.Progress().Save("rev-mayo", 42)
	require.NoError(t, err)
	_, err = sess.Progress().Save("belgrano", 125)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	out, err = env.run(t, "progress", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "La Revolución de Mayo")
	assert.Contains(t, out, "0:42")
	assert.Contains(t, out, "2:05")

	out, err = env.run(t, "progress", "clear", "rev-mayo")
	require.NoError(t, err)
	assert.Contains(t, out, "Progreso de rev-mayo eliminado.")

	out, err = env.run(t, "progress", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "rev-mayo")
	assert.Contains(t, out, "belgrano")

	_, err = env.run(t, "progress", "clear")
	require.NoError(t, err)
	out, err = env.run(t, "progress", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Sin progreso guardado.")
}

func TestTranscriptShow(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "transcript", "show", "rev-mayo", "--at", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "    0:00  El cabildo")
	assert.Contains(t, out, ">     0:10  abierto")

	_, err = env.run(t, "transcript", "show", "belgrano")
	assert.Error(t, err)

	_, err = env.run(t, "transcript", "show", "nope")
	assert.Error(t, err)
}

func TestOfflineSaveListRemove(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "offline", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0 descargados")

	_, err = env.run(t, "offline", "save", "rev-mayo")
	require.NoError(t, err)

	out, err = env.run(t, "offline", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rev-mayo")
	assert.Contains(t, out, "1 descargados")

	out, err = env.run(t, "search", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "rev-mayo")
	assert.NotContains(t, out, "belgrano")

	_, err = env.run(t, "offline", "remove", "rev-mayo")
	require.NoError(t, err)
	out, err = env.run(t, "offline", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0 descargados")
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "config.yaml")

	out, err := execute(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	cfg, err := adapter.LoadConfig(target)
	require.NoError(t, err)
	assert.Equal(t, adapter.DefaultConfig().Player.Command, cfg.Player.Command)

	_, err = execute(t, "config", "init", "--path", target)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--path", target, "--overwrite")
	assert.NoError(t, err)
}

func TestBuildScrape(t *testing.T) {
	env := newCLIEnv(t)

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.RequestURI() {
		case "/posts/2024":
			fmt.Fprint(w, `<turbo-stream action="update" target="months"><a href="/posts/2024/5">Mayo</a></turbo-stream>`)
		case "/posts/2024/5":
			fmt.Fprintf(w, `<article class="post"><h3 class="title"><a href="/posts/rev">Revolución 25/05/2024</a></h3>
				<a href="%s/rev.mp3">mp3</a><a href="/posts/rev?transcription=true">t</a></article>`, srv.URL)
		case "/posts/rev?transcription=true":
			fmt.Fprint(w, `<div class="post-transcription"><p><a>0:00</a> Hola <a>0:30</a> Mayo</p></div>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	out, err := env.run(t, "build", "scrape", "--base-url", srv.URL, "--years", "2024", "--with-transcripts", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "1 episodios (1 nuevos), 1 transcripciones")

	data, err := os.ReadFile(filepath.Join(env.cfg.Build.Output, "index.json"))
	require.NoError(t, err)
	doc, err := catalog.ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, "rev", doc.Posts[0].ID)
	assert.Equal(t, "2024-05-25", doc.Posts[0].Date)
	assert.FileExists(t, filepath.Join(env.cfg.Build.Output, "transcripts.json"))
}

func TestBuildScrapeRejectsBadYears(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "build", "scrape", "--years", "abc", "--quiet")
	assert.Error(t, err)
}

func TestBuildFeed(t *testing.T) {
	env := newCLIEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Venganzas del Pasado</title>
  <link>https://archivo.example</link>
  <item>
    <title>Belgrano</title>
    <guid>https://archivo.example/posts/bel</guid>
    <pubDate>Thu, 20 Jun 2024 10:00:00 GMT</pubDate>
    <enclosure url="https://cdn.example/bel.mp3" length="1000" type="audio/mpeg"/>
  </item>
</channel></rss>`)
	}))
	t.Cleanup(srv.Close)

	out, err := env.run(t, "build", "feed", srv.URL, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "1 episodios (1 nuevos)")

	data, err := os.ReadFile(filepath.Join(env.cfg.Build.Output, "index.json"))
	require.NoError(t, err)
	doc, err := catalog.ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, "bel", doc.Posts[0].ID)
}

func TestTUINeedsTerminal(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "tui")
	assert.ErrorIs(t, err, errNoTerminal)
}
