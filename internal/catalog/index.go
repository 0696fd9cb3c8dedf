// Package catalog loads the static episode list and derives the normalized
// search blobs and facet values the search engine works on.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/textutil"
)

// Index owns the episode list for the session. Episodes are handed out by
// value; nothing in the index changes after construction.
type Index struct {
	episodes []domain.Episode
	byID     map[string]int
	years    []string
	months   []string

	GeneratedAt string
	Source      string
}

// NewIndex builds an index from episodes in catalog order, deriving each
// search blob once.
func NewIndex(episodes []domain.Episode) *Index {
	ix := &Index{
		episodes: make([]domain.Episode, 0, len(episodes)),
		byID:     make(map[string]int, len(episodes)),
	}

	yearSet := make(map[string]bool)
	monthSet := make(map[string]bool)

	for _, ep := range episodes {
		if _, dup := ix.byID[ep.ID]; dup {
			continue
		}
		ep.SearchBlob = SearchBlob(ep)
		ix.byID[ep.ID] = len(ix.episodes)
		ix.episodes = append(ix.episodes, ep)

		if ep.Year != "" {
			yearSet[ep.Year] = true
		}
		if ep.Month != "" {
			monthSet[ep.Month] = true
		}
	}

	ix.years = sortedKeys(yearSet, true)
	ix.months = sortedKeys(monthSet, false)
	return ix
}

// FromDocument builds an index from a decoded index.json.
func FromDocument(doc *Document) *Index {
	episodes := make([]domain.Episode, len(doc.Posts))
	for i, p := range doc.Posts {
		episodes[i] = p.Episode()
	}
	ix := NewIndex(episodes)
	ix.GeneratedAt = doc.GeneratedAt
	ix.Source = doc.Source
	return ix
}

// Load fetches and parses the catalog. Any failure is reported as
// ErrCatalogUnavailable so callers can show a status and continue empty.
func Load(ctx context.Context, fetcher domain.Fetcher, location string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		logger.Error("failed to fetch catalog", "location", location, "error", err)
		return NewIndex(nil), fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		logger.Error("failed to parse catalog", "location", location, "error", err)
		return NewIndex(nil), fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	ix := FromDocument(doc)
	logger.Info("loaded catalog", "location", location, "episodes", ix.Len())
	return ix, nil
}

// SearchBlob returns the normalized text an episode is matched against.
func SearchBlob(ep domain.Episode) string {
	return textutil.Join(ep.Title, ep.Date, ep.Year, ep.Month, ep.ID)
}

// Episodes returns the catalog in source order. The slice is a copy.
func (ix *Index) Episodes() []domain.Episode {
	out := make([]domain.Episode, len(ix.episodes))
	copy(out, ix.episodes)
	return out
}

// Len returns the number of episodes.
func (ix *Index) Len() int { return len(ix.episodes) }

// Get returns an episode by ID.
func (ix *Index) Get(id string) (domain.Episode, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return domain.Episode{}, false
	}
	return ix.episodes[i], true
}

// Years returns distinct year facet values, newest first.
func (ix *Index) Years() []string { return append([]string(nil), ix.years...) }

// Months returns distinct month facet values in calendar order.
func (ix *Index) Months() []string { return append([]string(nil), ix.months...) }

func sortedKeys(set map[string]bool, desc bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			if desc {
				return keys[i] > keys[j]
			}
			return keys[i] < keys[j]
		}
		if desc {
			return a > b
		}
		return a < b
	})
	return keys
}
