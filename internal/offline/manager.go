// Package offline keeps the offline registry and the blob store consistent.
//
// The registry must never claim an episode is saved when the blob store
// cannot produce its bytes. Every path favors under-claiming: Save writes
// the registry only after the blob is stored, Remove clears the registry
// even when the blob delete fails, and ClearAll empties the registry even
// when clearing the namespace fails.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/vdp/internal/domain"
)

// Manager performs add/remove operations and answers saved-state queries.
// At most one operation runs per episode; a concurrent second request for
// the same episode fails with domain.ErrOperationInFlight.
type Manager struct {
	registry domain.OfflineRegistry
	blobs    domain.BlobStore // nil when the environment has no blob storage
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]domain.OfflineState
}

// NewManager creates a new offline manager. blobs may be nil, in which case
// every offline feature degrades to domain.ErrBlobStoreUnavailable.
func NewManager(registry domain.OfflineRegistry, blobs domain.BlobStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]domain.OfflineState),
	}
}

// Supported reports whether a blob store is available.
func (m *Manager) Supported() bool {
	return m.blobs != nil
}

func (m *Manager) begin(id string, state domain.OfflineState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[id]; busy {
		return domain.ErrOperationInFlight
	}
	m.inflight[id] = state
	return nil
}

func (m *Manager) end(id string) {
	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
}

// Save stores the episode's audio and then records it. On any failure the
// episode stays Absent and no registry entry is written.
func (m *Manager) Save(ctx context.Context, ep domain.Episode) error {
	if !ep.HasAudio() {
		return domain.ErrNoAudio
	}
	if m.blobs == nil {
		return domain.ErrBlobStoreUnavailable
	}
	if err := m.begin(ep.ID, domain.OfflineSaving); err != nil {
		return err
	}
	defer m.end(ep.ID)

	m.logger.Info("saving episode offline", "id", ep.ID, "url", ep.AudioURL)

	if err := m.blobs.Add(ctx, ep.AudioURL); err != nil {
		m.logger.Error("failed to store audio", "id", ep.ID, "error", err)
		return fmt.Errorf("save %s: %w", ep.ID, err)
	}

	rec := domain.OfflineRecord{URL: ep.AudioURL, SavedAt: m.now().UnixMilli()}
	if err := m.registry.SetOffline(ep.ID, rec); err != nil {
		// Unrecorded bytes only waste space; drop them anyway
		if delErr := m.blobs.Delete(ep.AudioURL); delErr != nil {
			m.logger.Warn("failed to drop unrecorded blob", "id", ep.ID, "error", delErr)
		}
		m.logger.Error("failed to record offline episode", "id", ep.ID, "error", err)
		return fmt.Errorf("save %s: %w", ep.ID, err)
	}

	m.logger.Info("saved episode offline", "id", ep.ID)
	return nil
}

// Remove deletes the stored audio, then the registry entry regardless of
// whether the blob delete succeeded. Removing an absent episode is a no-op.
func (m *Manager) Remove(ctx context.Context, ep domain.Episode) error {
	if m.blobs == nil {
		return domain.ErrBlobStoreUnavailable
	}
	if err := m.begin(ep.ID, domain.OfflineRemoving); err != nil {
		return err
	}
	defer m.end(ep.ID)

	var blobErr error
	urls := []string{ep.AudioURL}
	if rec, ok := m.registry.GetOffline(ep.ID); ok && rec.URL != ep.AudioURL {
		urls = append(urls, rec.URL)
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := m.blobs.Delete(url); err != nil {
			blobErr = errors.Join(blobErr, err)
		}
	}
	if blobErr != nil {
		m.logger.Warn("failed to delete audio, clearing record anyway", "id", ep.ID, "error", blobErr)
	}

	if err := m.registry.DeleteOffline(ep.ID); err != nil {
		m.logger.Error("failed to clear offline record", "id", ep.ID, "error", err)
		return fmt.Errorf("remove %s: %w", ep.ID, err)
	}

	m.logger.Info("removed offline episode", "id", ep.ID)
	return nil
}

// IsSaved reports whether a valid record exists: its URL equals the
// episode's current audio URL and a blob store is available.
func (m *Manager) IsSaved(ep domain.Episode) bool {
	if m.blobs == nil {
		return false
	}
	rec, ok := m.registry.GetOffline(ep.ID)
	return ok && rec.ValidFor(ep)
}

// State returns the caller-visible offline state.
func (m *Manager) State(ep domain.Episode) domain.OfflineState {
	m.mu.Lock()
	state, busy := m.inflight[ep.ID]
	m.mu.Unlock()
	if busy {
		return state
	}
	if m.IsSaved(ep) {
		return domain.OfflineSaved
	}
	return domain.OfflineAbsent
}

// Count returns the number of registry entries. It is derived from the
// registry, not from the blob store.
func (m *Manager) Count() int {
	return m.registry.CountOffline()
}

// Records returns a copy of the registry.
func (m *Manager) Records() map[string]domain.OfflineRecord {
	return m.registry.AllOffline()
}

// Open returns the stored audio for a saved episode.
func (m *Manager) Open(ep domain.Episode) (io.ReadCloser, error) {
	if !m.IsSaved(ep) {
		return nil, domain.ErrBlobNotFound
	}
	return m.blobs.Open(ep.AudioURL)
}

// ClearAll deletes the whole blob namespace and empties the registry. The
// registry is emptied even if the namespace delete fails.
func (m *Manager) ClearAll(ctx context.Context) error {
	if m.blobs == nil {
		return domain.ErrBlobStoreUnavailable
	}

	blobErr := m.blobs.Clear()
	if blobErr != nil {
		m.logger.Error("failed to clear offline audio", "error", blobErr)
	}
	if err := m.registry.ClearOffline(); err != nil {
		return errors.Join(blobErr, fmt.Errorf("clear offline registry: %w", err))
	}
	if blobErr != nil {
		return fmt.Errorf("clear offline audio: %w", blobErr)
	}

	m.logger.Info("cleared offline downloads")
	return nil
}

// Reconcile drops registry entries the blob store can no longer back, and
// entries whose URL no longer matches the catalog (their bytes are deleted
// too). It returns how many entries were dropped.
func (m *Manager) Reconcile(ctx context.Context, episodes []domain.Episode) (int, error) {
	if m.blobs == nil {
		return 0, domain.ErrBlobStoreUnavailable
	}

	current := make(map[string]string, len(episodes))
	for _, ep := range episodes {
		current[ep.ID] = ep.AudioURL
	}

	dropped := 0
	var errs error
	for id, rec := range m.registry.AllOffline() {
		if err := ctx.Err(); err != nil {
			return dropped, err
		}

		url, known := current[id]
		stale := known && url != rec.URL
		if !stale && m.blobs.Has(rec.URL) {
			continue
		}
		if stale {
			if err := m.blobs.Delete(rec.URL); err != nil {
				m.logger.Warn("failed to delete stale blob", "id", id, "error", err)
			}
		}
		if err := m.registry.DeleteOffline(id); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		dropped++
		m.logger.Info("dropped offline record", "id", id, "stale", stale)
	}
	return dropped, errs
}
