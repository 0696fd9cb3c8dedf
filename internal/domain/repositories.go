package domain

import (
	"context"
	"io"
)

// ProgressStore persists per-episode resume points.
type ProgressStore interface {
	// GetProgress returns the record for an episode, if any
	GetProgress(id string) (ProgressRecord, bool)

	// SetProgress creates or replaces the record for an episode
	SetProgress(id string, rec ProgressRecord) error

	// DeleteProgress removes the record; deleting a missing record is not an error
	DeleteProgress(id string) error

	// AllProgress returns a copy of every record
	AllProgress() map[string]ProgressRecord

	// ClearProgress empties the registry
	ClearProgress() error
}

// OfflineRegistry persists which episodes have audio in the blob store.
type OfflineRegistry interface {
	// GetOffline returns the record for an episode, if any
	GetOffline(id string) (OfflineRecord, bool)

	// SetOffline creates or replaces the record for an episode
	SetOffline(id string, rec OfflineRecord) error

	// DeleteOffline removes the record; deleting a missing record is not an error
	DeleteOffline(id string) error

	// AllOffline returns a copy of every record
	AllOffline() map[string]OfflineRecord

	// CountOffline returns the number of records
	CountOffline() int

	// ClearOffline empties the registry
	ClearOffline() error
}

// BlobStore is a named store of media bytes keyed by exact URL.
type BlobStore interface {
	// Add fetches url and stores its bytes. Nothing is stored on failure.
	Add(ctx context.Context, url string) error

	// Open returns a reader for stored bytes, or ErrBlobNotFound
	Open(url string) (io.ReadCloser, error)

	// Has reports whether bytes for url are present
	Has(url string) bool

	// Delete removes bytes for url; deleting a missing key is not an error
	Delete(url string) error

	// Clear deletes the whole namespace
	Clear() error
}

// Fetcher retrieves a read-only resource by location (URL or path).
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}
