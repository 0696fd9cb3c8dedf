package domain

import (
	"fmt"
	"math"
	"time"
)

// Episode is an immutable catalog record. Created at catalog load and
// never mutated afterwards.
type Episode struct {
	ID            string // Stable unique identifier (post slug)
	Title         string // Display title
	Date          string // Publish date as a display string (yyyy-mm-dd)
	Year          string // Facet value, e.g. "2024"
	Month         string // Facet value, e.g. "03"
	HasTranscript bool   // Whether a transcription was published
	AudioURL      string // Empty means no playable media
	PostURL       string // Canonical post URL

	// SearchBlob is the normalized concatenation of title, date, year,
	// month and ID. Derived once by the catalog index.
	SearchBlob string
}

// HasAudio reports whether the episode has playable media.
func (e Episode) HasAudio() bool {
	return e.AudioURL != ""
}

// DisplayDate returns the date or a placeholder when unknown.
func (e Episode) DisplayDate() string {
	if e.Date == "" {
		return "Fecha sin datos"
	}
	return e.Date
}

// OfflineRecord marks an episode's audio as stored in the blob store.
type OfflineRecord struct {
	URL     string `json:"url"`      // Exact audio URL that was cached
	SavedAt int64  `json:"saved_at"` // Unix milliseconds
}

// ValidFor reports whether the record still matches the episode's
// current audio URL. Stale records (catalog URL changed) are not valid.
func (r OfflineRecord) ValidFor(ep Episode) bool {
	return ep.AudioURL != "" && r.URL == ep.AudioURL
}

// ProgressRecord is a resume point for one episode.
type ProgressRecord struct {
	Time      float64 `json:"time"`       // Playback position in seconds
	UpdatedAt int64   `json:"updated_at"` // Unix milliseconds
}

// Position returns the saved playback position as a duration.
func (r ProgressRecord) Position() time.Duration {
	return time.Duration(r.Time * float64(time.Second))
}

// Segment is one timed line of a transcript.
type Segment struct {
	Start float64 // Seconds from the start of the episode
	Label string  // Display label, e.g. "1:02:05"
	Text  string
}

// Transcript is the raw per-episode transcript payload.
type Transcript struct {
	Text     string
	Segments []Segment // Ordered by Start; may be empty
}

// HasSegments reports whether the transcript can drive karaoke sync.
func (t Transcript) HasSegments() bool {
	return len(t.Segments) > 0
}

// Starts returns the segment start times in order.
func (t Transcript) Starts() []float64 {
	starts := make([]float64, len(t.Segments))
	for i, seg := range t.Segments {
		starts[i] = seg.Start
	}
	return starts
}

// SearchQuery is an ephemeral filter request.
type SearchQuery struct {
	Text               string // Raw user input; normalized by the engine
	Year               string // Empty = any
	Month              string // Empty = any
	OfflineOnly        bool
	IncludeTranscripts bool
}

// IsEmpty reports whether the query constrains nothing.
func (q SearchQuery) IsEmpty() bool {
	return q.Text == "" && q.Year == "" && q.Month == "" && !q.OfflineOnly
}

// OfflineState is the caller-visible offline status of an episode.
type OfflineState int

const (
	OfflineAbsent OfflineState = iota
	OfflineSaving
	OfflineSaved
	OfflineRemoving
)

// String returns a human-readable representation of the offline state
func (s OfflineState) String() string {
	switch s {
	case OfflineAbsent:
		return "No descargado"
	case OfflineSaving:
		return "Descargando"
	case OfflineSaved:
		return "Disponible offline"
	case OfflineRemoving:
		return "Eliminando"
	default:
		return "Desconocido"
	}
}

// InFlight reports whether an add/remove is running.
func (s OfflineState) InFlight() bool {
	return s == OfflineSaving || s == OfflineRemoving
}

// FormatTime renders seconds as m:ss. Non-finite or negative values
// render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
