// Package progress persists resumable playback positions.
package progress

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mmcdole/vdp/internal/domain"
)

const (
	// DefaultInterval is the minimum advance, in seconds, between
	// persisted positions while playing.
	DefaultInterval = 8.0

	// DefaultResumeThreshold is the position, in seconds, a saved record
	// must exceed before resume is offered.
	DefaultResumeThreshold = 5.0
)

// Tracker reads and writes progress records for all episodes.
type Tracker struct {
	store     domain.ProgressStore
	interval  float64
	threshold float64
	logger    *slog.Logger
	now       func() time.Time
}

// NewTracker creates a tracker. Non-positive interval or threshold fall
// back to the defaults.
func NewTracker(store domain.ProgressStore, interval, threshold float64, logger *slog.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold <= 0 {
		threshold = DefaultResumeThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:     store,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Resume returns the saved position for an episode when it is past the
// resume threshold.
func (t *Tracker) Resume(id string) (float64, bool) {
	rec, ok := t.store.GetProgress(id)
	if !ok || !(rec.Time > t.threshold) {
		return 0, false
	}
	return rec.Time, true
}

// Record returns the raw saved record for an episode.
func (t *Tracker) Record(id string) (domain.ProgressRecord, bool) {
	return t.store.GetProgress(id)
}

// All returns a copy of every saved record.
func (t *Tracker) All() map[string]domain.ProgressRecord {
	return t.store.AllProgress()
}

// Save persists a position. Non-finite and non-positive positions are
// ignored and report false.
func (t *Tracker) Save(id string, pos float64) (bool, error) {
	if !valid(pos) {
		return false, nil
	}
	rec := domain.ProgressRecord{Time: pos, UpdatedAt: t.now().UnixMilli()}
	if err := t.store.SetProgress(id, rec); err != nil {
		t.logger.Error("failed to save progress", "id", id, "error", err)
		return false, fmt.Errorf("save progress %s: %w", id, err)
	}
	t.logger.Debug("saved progress", "id", id, "time", pos)
	return true, nil
}

// Forget deletes the record for an episode.
func (t *Tracker) Forget(id string) error {
	if err := t.store.DeleteProgress(id); err != nil {
		return fmt.Errorf("delete progress %s: %w", id, err)
	}
	return nil
}

// ClearAll deletes every record.
func (t *Tracker) ClearAll() error {
	return t.store.ClearProgress()
}

// Start begins tracking one playback of an episode.
func (t *Tracker) Start(id string) *Checkpoint {
	return &Checkpoint{tracker: t, id: id}
}

func valid(pos float64) bool {
	return !math.IsNaN(pos) && !math.IsInf(pos, 0) && pos > 0
}

// Checkpoint tracks one playback. It throttles writes while playing and
// flushes on pause.
type Checkpoint struct {
	tracker *Tracker
	id      string

	mu        sync.Mutex
	lastSaved float64
}

// ID returns the episode being tracked.
func (c *Checkpoint) ID() string { return c.id }

// Update is called on every time tick. It persists only when pos has
// advanced more than the interval past the last throttled save.
func (c *Checkpoint) Update(pos float64) (bool, error) {
	c.mu.Lock()
	if !(pos-c.lastSaved > c.tracker.interval) {
		c.mu.Unlock()
		return false, nil
	}
	c.lastSaved = pos
	c.mu.Unlock()

	return c.tracker.Save(c.id, pos)
}

// Pause always persists the current position.
func (c *Checkpoint) Pause(pos float64) (bool, error) {
	return c.tracker.Save(c.id, pos)
}

// End deletes the record; a finished episode has nothing to resume.
func (c *Checkpoint) End() error {
	c.mu.Lock()
	c.lastSaved = 0
	c.mu.Unlock()
	return c.tracker.Forget(c.id)
}
