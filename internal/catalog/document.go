package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/mmcdole/vdp/internal/domain"
)

// Document is the on-disk shape of index.json.
type Document struct {
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
	Posts       []Post `json:"posts"`
	NewPosts    int    `json:"new_posts"`
}

// Post is one catalog entry as serialized by the builder.
type Post struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Date             string `json:"date"`
	Year             string `json:"year"`
	Month            string `json:"month"`
	PostURL          string `json:"post_url"`
	AudioURL         string `json:"audio_url"`
	HasTranscription flag   `json:"has_transcription"`
}

// flag accepts "1"/"0" strings (builder output) as well as JSON booleans.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"1"`, `"true"`, "true", "1":
		*f = true
	case `"0"`, `"false"`, `""`, "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid transcription flag %s", data)
	}
	return nil
}

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"1"`), nil
	}
	return []byte(`"0"`), nil
}

// HasTranscript reports the transcription flag.
func (p Post) HasTranscript() bool { return bool(p.HasTranscription) }

// SetHasTranscription sets the transcription flag.
func (p *Post) SetHasTranscription(v bool) { p.HasTranscription = flag(v) }

// Episode converts a post to a domain episode (without search blob).
func (p Post) Episode() domain.Episode {
	return domain.Episode{
		ID:            p.ID,
		Title:         p.Title,
		Date:          p.Date,
		Year:          p.Year,
		Month:         p.Month,
		HasTranscript: bool(p.HasTranscription),
		AudioURL:      p.AudioURL,
		PostURL:       p.PostURL,
	}
}

// PostFromEpisode converts a domain episode back to its wire form.
func PostFromEpisode(ep domain.Episode) Post {
	return Post{
		ID:               ep.ID,
		Title:            ep.Title,
		Date:             ep.Date,
		Year:             ep.Year,
		Month:            ep.Month,
		PostURL:          ep.PostURL,
		AudioURL:         ep.AudioURL,
		HasTranscription: flag(ep.HasTranscript),
	}
}

// ParseDocument decodes index.json.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &doc, nil
}

// Encode serializes a document with stable indentation.
func (d *Document) Encode() ([]byte, error) {
	if d.Posts == nil {
		d.Posts = []Post{}
	}
	return json.MarshalIndent(d, "", "  ")
}
