package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vdp/internal/domain"
)

func noBackoff(int) time.Duration { return 0 }

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"posts":[]}`), 0644))

	f := NewFetcher(nil, "", 1, nil)
	data, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `{"posts":[]}`, string(data))

	_, err = f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vdp-test", r.Header.Get("User-Agent"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client(), "vdp-test", 3, nil).WithBackoff(noBackoff)
	data, err := f.Fetch(context.Background(), srv.URL+"/index.json")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client(), "", 2, nil).WithBackoff(noBackoff)
	_, err := f.Fetch(context.Background(), srv.URL+"/transcripts.json")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.True(t, domain.IsRecoverable(err))
}

func TestGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("Accept")))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client(), "", 1, nil)
	data, err := f.Get(context.Background(), srv.URL, http.Header{"Accept": {"text/vnd.turbo-stream.html"}})
	require.NoError(t, err)
	assert.Equal(t, "text/vnd.turbo-stream.html", string(data))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.json"))
	assert.True(t, IsRemote("http://example.com/a.json"))
	assert.False(t, IsRemote("data/index.json"))
	assert.False(t, IsRemote("file:///tmp/index.json"))
}
