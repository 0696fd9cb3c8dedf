// Package search implements the boolean filter over the catalog: facet
// exact-match plus per-token substring containment against normalized
// search blobs. There is no ranking; catalog order is preserved.
package search

import (
	"log/slog"
	"strings"

	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/textutil"
)

// OfflineChecker reports whether an episode has a valid offline record.
type OfflineChecker interface {
	IsSaved(ep domain.Episode) bool
}

// TranscriptIndex exposes normalized transcript text per episode.
type TranscriptIndex interface {
	NormalizedText(id string) (string, bool)
}

// Engine re-derives the result set on every call. The corpus is small and
// static, so a full rescan is the whole strategy.
type Engine struct {
	index   *catalog.Index
	offline OfflineChecker
	logger  *slog.Logger
}

// NewEngine creates a new search engine over the index.
// offline may be nil, in which case offline-only queries match nothing.
func NewEngine(index *catalog.Index, offline OfflineChecker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{index: index, offline: offline, logger: logger}
}

// Filter returns the episodes matching every active constraint of q, in
// catalog order. transcripts may be nil or partially loaded; it is only
// consulted when q.IncludeTranscripts is set.
func (e *Engine) Filter(q domain.SearchQuery, transcripts TranscriptIndex) []domain.Episode {
	results := Filter(e.index.Episodes(), q, e.offline, transcripts)
	e.logger.Debug("filtered catalog",
		"query", q.Text, "year", q.Year, "month", q.Month,
		"offlineOnly", q.OfflineOnly, "transcripts", q.IncludeTranscripts,
		"results", len(results))
	return results
}

// Filter is the pure form of Engine.Filter.
func Filter(episodes []domain.Episode, q domain.SearchQuery, offline OfflineChecker, transcripts TranscriptIndex) []domain.Episode {
	tokens := textutil.Tokens(q.Text)

	out := make([]domain.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if matches(ep, q, tokens, offline, transcripts) {
			out = append(out, ep)
		}
	}
	return out
}

func matches(ep domain.Episode, q domain.SearchQuery, tokens []string, offline OfflineChecker, transcripts TranscriptIndex) bool {
	if q.OfflineOnly && (offline == nil || !offline.IsSaved(ep)) {
		return false
	}
	if q.Year != "" && ep.Year != q.Year {
		return false
	}
	if q.Month != "" && ep.Month != q.Month {
		return false
	}
	if len(tokens) == 0 {
		return true
	}

	haystack := ep.SearchBlob
	if haystack == "" {
		haystack = catalog.SearchBlob(ep)
	}
	if q.IncludeTranscripts && transcripts != nil {
		if text, ok := transcripts.NormalizedText(ep.ID); ok && text != "" {
			haystack = haystack + " " + text
		}
	}

	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}
