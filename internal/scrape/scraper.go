package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/vdp/internal/catalog"
)

// turboStream is the Accept header the archive needs to return month links.
const turboStream = "text/vnd.turbo-stream.html"

// Getter performs HTTP GETs; adapter.Fetcher implements it with retries.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// Scraper reads the archive site.
type Scraper struct {
	base   string
	get    Getter
	logger *slog.Logger
}

// NewScraper creates a scraper for the site at base.
func NewScraper(base string, get Getter, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{base: strings.TrimSuffix(base, "/"), get: get, logger: logger}
}

// Base returns the site root.
func (s *Scraper) Base() string { return s.base }

// Years lists the archive years, newest first.
func (s *Scraper) Years(ctx context.Context) ([]int, error) {
	html, err := s.get.Get(ctx, s.base+"/posts", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	return ParseYearLinks(html)
}

// Months lists a year's month pages, newest first.
func (s *Scraper) Months(ctx context.Context, year int) ([]MonthLink, error) {
	url := s.base + "/posts/" + strconv.Itoa(year)
	html, err := s.get.Get(ctx, url, http.Header{"Accept": {turboStream}})
	if err != nil {
		return nil, fmt.Errorf("fetch year %d: %w", year, err)
	}
	return ParseMonthLinks(html, s.base)
}

// Posts extracts the posts on a month page.
func (s *Scraper) Posts(ctx context.Context, monthURL string) ([]catalog.Post, error) {
	html, err := s.get.Get(ctx, monthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch month: %w", err)
	}
	return ParseMonthPosts(html, s.base)
}

// Transcript fetches a post's transcript page.
func (s *Scraper) Transcript(ctx context.Context, postURL string) (TranscriptEntry, bool, error) {
	html, err := s.get.Get(ctx, postURL+"?transcription=true", nil)
	if err != nil {
		return TranscriptEntry{}, false, fmt.Errorf("fetch transcript: %w", err)
	}
	return ParseTranscript(html)
}
