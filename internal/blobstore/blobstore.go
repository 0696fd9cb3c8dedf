// Package blobstore keeps downloaded media bytes on disk, one file per exact
// URL, under a named namespace directory.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mmcdole/vdp/internal/domain"
)

// DefaultNamespace names the offline audio generation.
const DefaultNamespace = "vdp-offline-audio-v1"

// Store implements domain.BlobStore on the filesystem.
type Store struct {
	dir    string // root/<namespace>
	client *http.Client
	logger *slog.Logger
}

var _ domain.BlobStore = (*Store)(nil)

// New creates a blob store rooted at root/namespace. The directory is
// created lazily on first Add.
func New(root, namespace string, client *http.Client, logger *slog.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    filepath.Join(root, namespace),
		client: client,
		logger: logger,
	}
}

// Dir returns the namespace directory.
func (s *Store) Dir() string { return s.dir }

// Key returns the file name used for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(url string) string {
	return filepath.Join(s.dir, Key(url))
}

// Add downloads url into the store. The file only appears under its final
// name once the whole body has been written, so a failed or interrupted
// download leaves nothing behind.
func (s *Store) Add(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", domain.ErrFetchFailed, url, resp.StatusCode)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, syncErr, closeErr); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store %s: %w", url, err)
	}

	if err := os.Rename(tmpName, s.path(url)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", url, err)
	}

	s.logger.Debug("stored blob", "url", url, "bytes", n)
	return nil
}

// Open returns a reader over the stored bytes for url.
func (s *Store) Open(url string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(url))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, err
	}
	return f, nil
}

// Path returns the local file path for url if it is stored.
func (s *Store) Path(url string) (string, bool) {
	p := s.path(url)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Has reports whether bytes for url are stored.
func (s *Store) Has(url string) bool {
	_, ok := s.Path(url)
	return ok
}

// Size returns the stored byte count for url.
func (s *Store) Size(url string) (int64, error) {
	info, err := os.Stat(s.path(url))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.ErrBlobNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

// Usage returns the total bytes held in the namespace.
func (s *Store) Usage() (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if info, err := e.Info(); err == nil && !e.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}

// Delete removes the bytes for url. Missing entries are not an error.
func (s *Store) Delete(url string) error {
	if err := os.Remove(s.path(url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", url, err)
	}
	return nil
}

// Clear removes the whole namespace directory.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", s.dir, err)
	}
	s.logger.Info("cleared blob namespace", "dir", s.dir)
	return nil
}
