// Package transcript loads the transcript bundle and maps playback time to
// the active transcript segment.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/textutil"
)

// Bundle holds every transcript plus a normalized-text index for search.
// A nil *Bundle behaves as an empty bundle.
type Bundle struct {
	transcripts map[string]domain.Transcript
	normalized  map[string]string
}

// NewBundle builds the normalized index over raw transcripts.
func NewBundle(transcripts map[string]domain.Transcript) *Bundle {
	b := &Bundle{
		transcripts: transcripts,
		normalized:  make(map[string]string, len(transcripts)),
	}
	if b.transcripts == nil {
		b.transcripts = make(map[string]domain.Transcript)
	}
	for id, tr := range b.transcripts {
		if text := textutil.Normalize(plainText(tr)); text != "" {
			b.normalized[id] = text
		}
	}
	return b
}

// Get returns the raw transcript for an episode.
func (b *Bundle) Get(id string) (domain.Transcript, bool) {
	if b == nil {
		return domain.Transcript{}, false
	}
	tr, ok := b.transcripts[id]
	return tr, ok
}

// NormalizedText returns the normalized transcript text for an episode.
func (b *Bundle) NormalizedText(id string) (string, bool) {
	if b == nil {
		return "", false
	}
	text, ok := b.normalized[id]
	return text, ok
}

// Len returns the number of transcripts.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.transcripts)
}

// IDs returns the episode IDs with transcripts, sorted.
func (b *Bundle) IDs() []string {
	if b == nil {
		return nil
	}
	ids := make([]string, 0, len(b.transcripts))
	for id := range b.transcripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func plainText(tr domain.Transcript) string {
	if tr.Text != "" {
		return tr.Text
	}
	parts := make([]string, len(tr.Segments))
	for i, seg := range tr.Segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}

// rawPayload is the structured per-episode form.
type rawPayload struct {
	Text     string       `json:"text"`
	Segments []rawSegment `json:"segments"`
}

type rawSegment struct {
	T     json.RawMessage `json:"t"`
	Start json.RawMessage `json:"start"`
	Label string          `json:"label"`
	Text  string          `json:"text"`
}

func (s rawSegment) start() float64 {
	for _, raw := range []json.RawMessage{s.Start, s.T} {
		if len(raw) == 0 {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			if secs, ok := ParseLabel(str); ok {
				return secs
			}
			if f, err := strconv.ParseFloat(str, 64); err == nil {
				return f
			}
		}
	}
	if secs, ok := ParseLabel(s.Label); ok {
		return secs
	}
	return 0
}

// ParseBundle decodes a transcript bundle: a map of episode ID to either a
// plain string or {text, segments}. Entries that match neither shape are
// skipped with a warning. Out-of-order segments are stably sorted by start.
func ParseBundle(data []byte, logger *slog.Logger) (map[string]domain.Transcript, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode transcript bundle: %w", err)
	}

	out := make(map[string]domain.Transcript, len(raw))
	for id, entry := range raw {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			out[id] = domain.Transcript{Text: text}
			continue
		}

		var payload rawPayload
		if err := json.Unmarshal(entry, &payload); err != nil {
			logger.Warn("skipping malformed transcript", "id", id, "error", err)
			continue
		}

		tr := domain.Transcript{Text: payload.Text}
		if len(payload.Segments) > 0 {
			tr.Segments = make([]domain.Segment, len(payload.Segments))
			for i, seg := range payload.Segments {
				tr.Segments[i] = domain.Segment{Start: seg.start(), Label: seg.Label, Text: seg.Text}
			}
			if !sort.SliceIsSorted(tr.Segments, func(i, j int) bool {
				return tr.Segments[i].Start < tr.Segments[j].Start
			}) {
				logger.Warn("transcript segments out of order, sorting", "id", id)
				sort.SliceStable(tr.Segments, func(i, j int) bool {
					return tr.Segments[i].Start < tr.Segments[j].Start
				})
			}
		}
		out[id] = tr
	}
	return out, nil
}

var labelRe = regexp.MustCompile(`^(\d{1,2}:)?\d{1,2}:\d{2}$`)

// ParseLabel converts an "m:ss" or "h:mm:ss" label to seconds.
func ParseLabel(label string) (float64, bool) {
	label = strings.TrimSpace(label)
	if !labelRe.MatchString(label) {
		return 0, false
	}
	total := 0
	for _, part := range strings.Split(label, ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, false
		}
		total = total*60 + n
	}
	return float64(total), true
}
