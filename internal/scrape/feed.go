package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/textutil"
)

// ParseFeed converts podcast feed items into catalog posts. Items without
// a usable identifier are skipped.
func ParseFeed(data []byte) ([]catalog.Post, string, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, "", fmt.Errorf("feed contains no items")
	}

	posts := make([]catalog.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if post, ok := postFromItem(item); ok {
			posts = append(posts, post)
		}
	}
	return posts, feed.Link, nil
}

func postFromItem(item *gofeed.Item) (catalog.Post, bool) {
	audio := ""
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") || strings.HasSuffix(strings.ToLower(enc.URL), ".mp3") {
			audio = enc.URL
			break
		}
	}

	id := itemSlug(item.Link)
	if id == "" {
		id = itemSlug(item.GUID)
	}
	if id == "" && audio != "" {
		id = strings.TrimSuffix(itemSlug(audio), path.Ext(audio))
	}
	if id == "" {
		return catalog.Post{}, false
	}

	title := textutil.Squash(item.Title)
	date := ParseDate(title, audio)
	if date == "" && item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC().Format("2006-01-02")
	}

	post := catalog.Post{
		ID:       id,
		Title:    title,
		Date:     date,
		PostURL:  item.Link,
		AudioURL: audio,
	}
	if date != "" {
		post.Year = date[:4]
		post.Month = date[5:7]
	}
	return post, true
}

func itemSlug(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	return slug(raw)
}

// ImportFeed fetches a podcast feed and merges its items into the catalog.
func (b *Builder) ImportFeed(ctx context.Context, get Getter, feedURL string, status domain.StatusFunc) (domain.BuildResult, error) {
	var result domain.BuildResult
	if status != nil {
		status("Leyendo feed...")
	}

	data, err := get.Get(ctx, feedURL, nil)
	if err != nil {
		return result, fmt.Errorf("fetch feed: %w", err)
	}
	posts, source, err := ParseFeed(data)
	if err != nil {
		return result, err
	}
	if source == "" {
		source = feedURL
	}

	m, err := b.loadExisting()
	if err != nil {
		return result, fmt.Errorf("load existing index: %w", err)
	}
	for _, p := range posts {
		// Feeds do not know about transcripts
		if cur, ok := m.posts[p.ID]; ok {
			p.HasTranscription = cur.HasTranscription
		}
		m.add(p)
	}

	result.New = m.added
	if err := b.write(m, source, nil); err != nil {
		return result, err
	}
	result.Episodes = len(m.order)
	return result, nil
}
