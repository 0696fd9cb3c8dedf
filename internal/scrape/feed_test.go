package scrape

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Venganzas del Pasado</title>
  <link>https://archivo.example</link>
  <item>
    <title>La Revolución de Mayo 25/05/2024</title>
    <link>https://archivo.example/posts/rev</link>
    <guid>rev-guid</guid>
    <pubDate>Sat, 25 May 2024 10:00:00 GMT</pubDate>
    <enclosure url="https://cdn.example/rev.mp3" length="1000" type="audio/mpeg"/>
  </item>
  <item>
    <title>Belgrano</title>
    <guid>https://archivo.example/posts/bel</guid>
    <pubDate>Thu, 20 Jun 2024 10:00:00 GMT</pubDate>
    <enclosure url="https://cdn.example/bel.mp3" length="1000" type="audio/mpeg"/>
  </item>
  <item>
    <title>Sin identificador</title>
  </item>
</channel>
</rss>`

func TestParseFeed(t *testing.T) {
	posts, source, err := ParseFeed([]byte(feedXML))
	require.NoError(t, err)
	assert.Equal(t, "https://archivo.example", source)
	require.Len(t, posts, 2)

	assert.Equal(t, "rev", posts[0].ID)
	assert.Equal(t, "2024-05-25", posts[0].Date)
	assert.Equal(t, "https://cdn.example/rev.mp3", posts[0].AudioURL)

	assert.Equal(t, "bel", posts[1].ID, "GUID used when there is no link")
	assert.Equal(t, "2024-06-20", posts[1].Date, "date from pubDate")
	assert.Equal(t, "2024", posts[1].Year)
	assert.Equal(t, "06", posts[1].Month)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	_, _, err := ParseFeed([]byte("not a feed"))
	assert.Error(t, err)
}

func TestImportFeedKeepsTranscriptFlag(t *testing.T) {
	dir := t.TempDir()
	existing := `{"posts":[{"id":"rev","title":"Rev","date":"2024-05-25","year":"2024","month":"05","post_url":"","audio_url":"","has_transcription":"1"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte(existing), 0644))

	site := &fakeSite{pages: map[string]string{"https://feed.example/rss": feedXML}}
	b := NewBuilder(dir, nil)
	res, err := b.ImportFeed(context.Background(), site, "https://feed.example/rss", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 2, res.Episodes)

	doc := readIndex(t, b)
	assert.Equal(t, []string{"bel", "rev"}, postIDs(doc))
	assert.True(t, doc.Posts[1].HasTranscript())
	assert.Equal(t, "https://cdn.example/rev.mp3", doc.Posts[1].AudioURL)
	assert.Equal(t, "https://archivo.example", doc.Source)
}
