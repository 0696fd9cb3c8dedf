// Package shellcache keeps the application shell assets (the catalog file)
// available offline, one directory per cache generation.
package shellcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mmcdole/vdp/internal/blobstore"
	"github.com/mmcdole/vdp/internal/domain"
)

// DefaultName names the current shell generation.
const DefaultName = "vdp-shell-v1"

// Cache serves assets cache-first with a network fallback. Installing
// replaces the generation as a whole; activating evicts other generations.
type Cache struct {
	root    string
	name    string
	network domain.Fetcher
	logger  *slog.Logger
}

var _ domain.Fetcher = (*Cache)(nil)

// New creates a cache for generation name under root.
func New(root, name string, network domain.Fetcher, logger *slog.Logger) *Cache {
	if name == "" {
		name = DefaultName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{root: root, name: name, network: network, logger: logger}
}

// Name returns the generation name.
func (c *Cache) Name() string { return c.name }

// Dir returns the generation directory.
func (c *Cache) Dir() string { return filepath.Join(c.root, c.name) }

func (c *Cache) path(location string) string {
	return filepath.Join(c.Dir(), blobstore.Key(location))
}

// Lookup returns a cached asset without touching the network.
func (c *Cache) Lookup(location string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(location))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Fetch returns the cached asset, or fetches it from the network when the
// cache has no entry. Network responses are not stored.
func (c *Cache) Fetch(ctx context.Context, location string) ([]byte, error) {
	if data, ok := c.Lookup(location); ok {
		c.logger.Debug("shell cache hit", "location", location)
		return data, nil
	}
	return c.network.Fetch(ctx, location)
}

// Install fetches every asset and replaces the generation. If any asset
// fails the previous generation is left untouched.
func (c *Cache) Install(ctx context.Context, assets []string) error {
	if err := os.MkdirAll(c.root, 0755); err != nil {
		return fmt.Errorf("failed to create cache root: %w", err)
	}

	staging, err := os.MkdirTemp(c.root, ".install-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, asset := range assets {
		data, err := c.network.Fetch(ctx, asset)
		if err != nil {
			c.logger.Error("failed to precache asset", "asset", asset, "error", err)
			return fmt.Errorf("install %s: %w", asset, err)
		}
		if err := os.WriteFile(filepath.Join(staging, blobstore.Key(asset)), data, 0644); err != nil {
			return fmt.Errorf("install %s: %w", asset, err)
		}
	}

	if err := os.RemoveAll(c.Dir()); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c.name, err)
	}
	if err := os.Rename(staging, c.Dir()); err != nil {
		return fmt.Errorf("failed to commit %s: %w", c.name, err)
	}

	c.logger.Info("installed shell cache", "name", c.name, "assets", len(assets))
	return nil
}

// Activate deletes every generation under root other than this one and
// the names in keep. It returns the evicted names.
func (c *Cache) Activate(keep ...string) ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	allowed := map[string]bool{c.name: true}
	for _, k := range keep {
		allowed[k] = true
	}

	var evicted []string
	var errs error
	for _, e := range entries {
		if !e.IsDir() || allowed[e.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.root, e.Name())); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		evicted = append(evicted, e.Name())
	}
	if len(evicted) > 0 {
		c.logger.Info("evicted stale cache generations", "names", evicted)
	}
	return evicted, errs
}
