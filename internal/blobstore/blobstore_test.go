package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vdp/internal/domain"
)

func audioServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.mp3":
			w.Write([]byte("ID3-audio-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAddOpenDelete(t *testing.T) {
	srv := audioServer(t)
	s := New(t.TempDir(), "", srv.Client(), nil)
	url := srv.URL + "/ok.mp3"

	require.NoError(t, s.Add(context.Background(), url))
	assert.True(t, s.Has(url))

	rc, err := s.Open(url)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio-bytes", string(data))

	size, err := s.Size(url)
	require.NoError(t, err)
	assert.Equal(t, int64(len("ID3-audio-bytes")), size)

	require.NoError(t, s.Delete(url))
	assert.False(t, s.Has(url))
	require.NoError(t, s.Delete(url), "deleting a missing blob is not an error")

	_, err = s.Open(url)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestAddFailureLeavesNothing(t *testing.T) {
	srv := audioServer(t)
	s := New(t.TempDir(), "", srv.Client(), nil)
	url := srv.URL + "/missing.mp3"

	err := s.Add(context.Background(), url)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.False(t, s.Has(url))

	entries, _ := os.ReadDir(s.Dir())
	assert.Empty(t, entries)
}

func TestClearRemovesNamespace(t *testing.T) {
	srv := audioServer(t)
	s := New(t.TempDir(), "ns", srv.Client(), nil)
	url := srv.URL + "/ok.mp3"

	require.NoError(t, s.Add(context.Background(), url))
	usage, err := s.Usage()
	require.NoError(t, err)
	assert.Positive(t, usage)

	require.NoError(t, s.Clear())
	assert.False(t, s.Has(url))
	_, err = os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err))

	usage, err = s.Usage()
	require.NoError(t, err)
	assert.Zero(t, usage)
}

func TestKeyIsStablePerURL(t *testing.T) {
	assert.Equal(t, Key("https://a/b.mp3"), Key("https://a/b.mp3"))
	assert.NotEqual(t, Key("https://a/b.mp3"), Key("https://a/b.mp3?v=2"))
}
