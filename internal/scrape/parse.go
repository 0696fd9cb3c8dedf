// Package scrape builds the static catalog artifacts: it walks the archive
// site's year and month pages, extracts posts and transcripts, imports
// podcast feeds, and merges everything into index.json and transcripts.json.
package scrape

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/textutil"
	"github.com/mmcdole/vdp/internal/transcript"
)

var (
	yearLinkRe  = regexp.MustCompile(`/posts/(\d{4})$`)
	monthLinkRe = regexp.MustCompile(`/posts/(\d{4})/(\d{1,2})$`)
	titleDateRe = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	audioDateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// MonthLink is one month page of the archive.
type MonthLink struct {
	Year  int
	Month int
	URL   string
}

// Segment is the builder's serialized transcript segment.
type Segment struct {
	Label string `json:"label"`
	T     int    `json:"t"`
	Text  string `json:"text"`
}

// TranscriptEntry is one episode's serialized transcript.
type TranscriptEntry struct {
	Segments []Segment `json:"segments,omitempty"`
	Text     string    `json:"text"`
}

func parseHTML(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func absolute(base, href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(base, "/") + href
	}
	return href
}

// spacedText joins the trimmed text nodes under sel with single spaces.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return textutil.Squash(strings.Join(parts, " "))
}

// ParseYearLinks returns the archive years, newest first.
func ParseYearLinks(html []byte) ([]int, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	doc.Find("ul.archive-years a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if m := yearLinkRe.FindStringSubmatch(href); m != nil {
			y, _ := strconv.Atoi(m[1])
			seen[y] = true
		}
	})

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// ParseMonthLinks returns a year page's month links, newest first.
func ParseMonthLinks(html []byte, base string) ([]MonthLink, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	seen := make(map[MonthLink]bool)
	var links []MonthLink
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := monthLinkRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		link := MonthLink{Year: y, Month: mo, URL: absolute(base, href)}
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Year != links[j].Year {
			return links[i].Year > links[j].Year
		}
		if links[i].Month != links[j].Month {
			return links[i].Month > links[j].Month
		}
		return links[i].URL > links[j].URL
	})
	return links, nil
}

// ParseDate finds a dd/mm/yyyy date in the title, falling back to a
// yyyy-mm-dd date in the audio URL. It returns yyyy-mm-dd or "".
func ParseDate(title, audioURL string) string {
	if m := titleDateRe.FindStringSubmatch(title); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := audioDateRe.FindStringSubmatch(audioURL); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}

// ParseMonthPosts extracts the posts listed on a month page.
func ParseMonthPosts(html []byte, base string) ([]catalog.Post, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	var posts []catalog.Post
	doc.Find("article.post").Each(func(_ int, article *goquery.Selection) {
		titleLink := article.Find("h3.title a[href]").First()
		if titleLink.Length() == 0 {
			return
		}
		href, _ := titleLink.Attr("href")
		audio, _ := article.Find("a[href$='.mp3']").First().Attr("href")
		hasTranscript := article.Find("a[href*='transcription=true']").Length() > 0

		title := spacedText(titleLink)
		post := catalog.Post{
			ID:       slug(href),
			Title:    title,
			Date:     ParseDate(title, audio),
			PostURL:  absolute(base, href),
			AudioURL: audio,
		}
		post.SetHasTranscription(hasTranscript)
		if post.Date != "" {
			post.Year = post.Date[:4]
			post.Month = post.Date[5:7]
		}
		posts = append(posts, post)
	})
	return posts, nil
}

func slug(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

// ParseTranscript extracts a post's transcript. Paragraph anchors start
// timed segments and <br> ends them; a transcript without anchors falls
// back to its whole text. It reports false when there is no transcript.
func ParseTranscript(html []byte) (TranscriptEntry, bool, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return TranscriptEntry{}, false, err
	}

	container := doc.Find("div.post-transcription").First()
	if container.Length() == 0 {
		return TranscriptEntry{}, false, nil
	}

	segments := parseSegments(container)
	if len(segments) == 0 {
		text := strings.ReplaceAll(spacedText(container), "Transcripción automática", "")
		text = textutil.Squash(text)
		if text == "" {
			return TranscriptEntry{}, false, nil
		}
		return TranscriptEntry{Text: text}, true, nil
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return TranscriptEntry{Segments: segments, Text: textutil.Squash(strings.Join(texts, " "))}, true, nil
}

func parseSegments(container *goquery.Selection) []Segment {
	var segments []Segment

	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		var (
			open  bool
			label string
			start int
			text  []string
		)
		flush := func() {
			if !open {
				return
			}
			if t := textutil.Squash(strings.Join(text, " ")); t != "" {
				segments = append(segments, Segment{Label: label, T: start, Text: t})
			}
			open, label, start, text = false, "", 0, nil
		}

		p.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "a":
				flush()
				open = true
				label = strings.TrimSpace(node.Text())
				if secs, ok := transcript.ParseLabel(label); ok {
					start = int(secs)
				}
			case "br":
				flush()
			case "#text":
				if open {
					text = append(text, node.Text())
				}
			case "#comment":
			default:
				if open {
					text = append(text, spacedText(node))
				}
			}
		})
		flush()
	})
	return segments
}
