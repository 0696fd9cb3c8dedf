package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/domain"
)

// Output file names inside the build directory.
const (
	IndexFile       = "index.json"
	TranscriptsFile = "transcripts.json"
)

// Options controls an archive build.
type Options struct {
	Years           []int // empty means every year the archive lists
	MaxMonths       int   // per year, zero for all
	WithTranscripts bool
	Delay           time.Duration // pause between month pages

	Progress domain.ProgressFunc
	Status   domain.StatusFunc
}

// Builder merges scraped posts into the catalog files in a directory.
type Builder struct {
	outDir string
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a builder writing to outDir.
func NewBuilder(outDir string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{outDir: outDir, logger: logger, now: time.Now}
}

// IndexPath returns the catalog file path.
func (b *Builder) IndexPath() string { return filepath.Join(b.outDir, IndexFile) }

// TranscriptsPath returns the transcript bundle path.
func (b *Builder) TranscriptsPath() string { return filepath.Join(b.outDir, TranscriptsFile) }

// merged is the working set of a build: existing posts updated in place,
// new posts appended.
type merged struct {
	posts map[string]*catalog.Post
	order []string
	added int
}

func (m *merged) add(p catalog.Post) {
	if cur, ok := m.posts[p.ID]; ok {
		mergePost(cur, p)
		return
	}
	m.posts[p.ID] = &p
	m.order = append(m.order, p.ID)
	m.added++
}

// mergePost copies the non-empty fields of p onto cur. The transcription
// flag is always taken from the fresh scrape.
func mergePost(cur *catalog.Post, p catalog.Post) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cur.Title, p.Title)
	set(&cur.Date, p.Date)
	set(&cur.Year, p.Year)
	set(&cur.Month, p.Month)
	set(&cur.PostURL, p.PostURL)
	set(&cur.AudioURL, p.AudioURL)
	cur.HasTranscription = p.HasTranscription
}

// sorted returns posts by date, newest first; ties keep merge order.
func (m *merged) sorted() []catalog.Post {
	out := make([]catalog.Post, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.posts[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (b *Builder) loadExisting() (*merged, error) {
	m := &merged{posts: make(map[string]*catalog.Post)}

	data, err := os.ReadFile(b.IndexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := catalog.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	for _, p := range doc.Posts {
		p := p
		if _, dup := m.posts[p.ID]; dup {
			continue
		}
		m.posts[p.ID] = &p
		m.order = append(m.order, p.ID)
	}
	return m, nil
}

func (b *Builder) loadTranscripts() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	data, err := os.ReadFile(b.TranscriptsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TranscriptsFile, err)
	}
	return out, nil
}

func hasEntry(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "{}":
		return false
	}
	return true
}

// Build scrapes the archive and writes the merged catalog.
func (b *Builder) Build(ctx context.Context, s *Scraper, opts Options) (domain.BuildResult, error) {
	var result domain.BuildResult
	status := opts.Status
	if status == nil {
		status = func(string) {}
	}

	years := opts.Years
	if len(years) == 0 {
		status("Buscando años del archivo...")
		var err error
		if years, err = s.Years(ctx); err != nil {
			return result, err
		}
	}

	var months []MonthLink
	for _, year := range years {
		links, err := s.Months(ctx, year)
		if err != nil {
			return result, err
		}
		if opts.MaxMonths > 0 && len(links) > opts.MaxMonths {
			links = links[:opts.MaxMonths]
		}
		months = append(months, links...)
	}
	b.logger.Info("scraping archive", "years", len(years), "months", len(months))

	m, err := b.loadExisting()
	if err != nil {
		return result, fmt.Errorf("load existing index: %w", err)
	}

	var transcripts map[string]json.RawMessage
	if opts.WithTranscripts {
		if transcripts, err = b.loadTranscripts(); err != nil {
			return result, fmt.Errorf("load existing transcripts: %w", err)
		}
	}

	for i, month := range months {
		status(fmt.Sprintf("Mes %d/%02d", month.Year, month.Month))
		posts, err := s.Posts(ctx, month.URL)
		if err != nil {
			return result, err
		}

		for _, post := range posts {
			m.add(post)
			if !opts.WithTranscripts || !post.HasTranscript() || hasEntry(transcripts[post.ID]) {
				continue
			}
			entry, ok, err := s.Transcript(ctx, post.PostURL)
			if err != nil {
				b.logger.Warn("transcript fetch failed", "id", post.ID, "error", err)
				continue
			}
			if !ok {
				continue
			}
			raw, err := json.Marshal(entry)
			if err != nil {
				return result, err
			}
			transcripts[post.ID] = raw
			result.Transcripts++
			status(fmt.Sprintf("Transcripciones %d", result.Transcripts))
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(months))
		}
		if err := sleep(ctx, opts.Delay); err != nil {
			return result, err
		}
	}

	result.New = m.added
	if err := b.write(m, s.Base(), transcripts); err != nil {
		return result, err
	}
	result.Episodes = len(m.order)
	return result, nil
}

func (b *Builder) write(m *merged, source string, transcripts map[string]json.RawMessage) error {
	doc := &catalog.Document{
		GeneratedAt: b.now().UTC().Format(time.RFC3339),
		Source:      source,
		Posts:       m.sorted(),
		NewPosts:    m.added,
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := writeFile(b.IndexPath(), data); err != nil {
		return err
	}
	b.logger.Info("wrote catalog", "path", b.IndexPath(), "episodes", len(doc.Posts), "new", m.added)

	if transcripts == nil {
		return nil
	}
	data, err = json.MarshalIndent(transcripts, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(b.TranscriptsPath(), data); err != nil {
		return err
	}
	b.logger.Info("wrote transcripts", "path", b.TranscriptsPath(), "count", len(transcripts))
	return nil
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
