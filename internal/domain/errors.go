package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrEpisodeNotFound indicates the requested episode is not in the catalog
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrNoAudio indicates the episode has no playable media
	ErrNoAudio = errors.New("episode has no audio")

	// ErrBlobStoreUnavailable indicates offline storage is not supported here
	ErrBlobStoreUnavailable = errors.New("offline storage is not available")

	// ErrBlobNotFound indicates the blob store holds no bytes for a URL
	ErrBlobNotFound = errors.New("blob not found")

	// ErrOperationInFlight indicates an add/remove is already running for the episode
	ErrOperationInFlight = errors.New("offline operation already in progress")

	// ErrCatalogUnavailable indicates the catalog could not be fetched or parsed
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrTranscriptsUnavailable indicates the transcript bundle is missing
	ErrTranscriptsUnavailable = errors.New("transcripts unavailable")

	// ErrTranscriptNotFound indicates the bundle holds no transcript for an episode
	ErrTranscriptNotFound = errors.New("transcript not found")

	// ErrFetchFailed indicates a network fetch returned a non-success status
	ErrFetchFailed = errors.New("fetch failed")
)

// IsRecoverable reports whether err is a transient condition that should be
// surfaced as a status message rather than aborting the session.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrFetchFailed) ||
		errors.Is(err, ErrBlobStoreUnavailable) ||
		errors.Is(err, ErrBlobNotFound) ||
		errors.Is(err, ErrTranscriptsUnavailable) ||
		errors.Is(err, ErrCatalogUnavailable) ||
		errors.Is(err, ErrOperationInFlight) ||
		errors.Is(err, ErrNoAudio)
}
