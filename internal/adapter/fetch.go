package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/vdp/internal/domain"
)

// Fetcher reads resources from local paths or http(s) URLs. HTTP requests
// are retried with a linear backoff.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   func(attempt int) time.Duration
	logger    *slog.Logger
}

var _ domain.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher. retries below one means a single attempt.
func NewFetcher(client *http.Client, userAgent string, retries int, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if retries < 1 {
		retries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		retries:   retries,
		backoff:   defaultBackoff,
		logger:    logger,
	}
}

func defaultBackoff(attempt int) time.Duration {
	return 500*time.Millisecond + time.Duration(attempt)*750*time.Millisecond
}

// WithBackoff replaces the retry backoff; used by tests.
func (f *Fetcher) WithBackoff(backoff func(attempt int) time.Duration) *Fetcher {
	f.backoff = backoff
	return f
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the bytes at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
		return data, nil
	}
	return f.Get(ctx, location, nil)
}

// Get performs an HTTP GET with optional extra headers.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		data, err := f.get(ctx, url, header)
		if err == nil {
			return data, nil
		}
		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", url, "attempt", attempt+1, "error", err)

		if attempt == f.retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.backoff(attempt)):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", domain.ErrFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return data, nil
}
