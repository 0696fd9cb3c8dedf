package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/vdp/internal/catalog"
	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/textutil"
)

type savedSet map[string]bool

func (s savedSet) IsSaved(ep domain.Episode) bool { return s[ep.ID] }

type transcriptMap map[string]string

func (m transcriptMap) NormalizedText(id string) (string, bool) {
	t, ok := m[id]
	return t, ok
}

func testIndex() *catalog.Index {
	return catalog.NewIndex([]domain.Episode{
		{ID: "rev-mayo", Title: "La Revolución de Mayo", Date: "2024-05-25", Year: "2024", Month: "05", AudioURL: "a1"},
		{ID: "peron", Title: "Perón y el 17 de Octubre", Date: "2023-10-17", Year: "2023", Month: "10", AudioURL: "a2"},
		{ID: "belgrano", Title: "Belgrano y la bandera", Date: "2024-06-20", Year: "2024", Month: "06", AudioURL: "a3"},
		{ID: "san-martin", Title: "San Martín cruza los Andes", Date: "2023-01-18", Year: "2023", Month: "01"},
	})
}

func ids(eps []domain.Episode) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.ID
	}
	return out
}

func TestFilterNoConstraintsReturnsCatalogOrder(t *testing.T) {
	e := NewEngine(testIndex(), nil, nil)
	got := e.Filter(domain.SearchQuery{}, nil)
	assert.Equal(t, []string{"rev-mayo", "peron", "belgrano", "san-martin"}, ids(got))
}

func TestFilterTokens(t *testing.T) {
	e := NewEngine(testIndex(), nil, nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"accent-insensitive", "PERON", []string{"peron"}},
		{"accented query", "revolución", []string{"rev-mayo"}},
		{"substring not word", "volu", []string{"rev-mayo"}},
		{"all tokens required", "la mayo", []string{"rev-mayo"}},
		{"token order irrelevant", "bandera belgrano", []string{"belgrano"}},
		{"matches date", "2023-10", []string{"peron"}},
		{"matches id", "san-martin", []string{"san-martin"}},
		{"shared token", "y", []string{"rev-mayo", "peron", "belgrano"}},
		{"no match", "zzz", []string{}},
		{"blank query", "   ", []string{"rev-mayo", "peron", "belgrano", "san-martin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Filter(domain.SearchQuery{Text: tt.query}, nil)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterFacets(t *testing.T) {
	e := NewEngine(testIndex(), nil, nil)

	assert.Equal(t, []string{"rev-mayo", "belgrano"}, ids(e.Filter(domain.SearchQuery{Year: "2024"}, nil)))
	assert.Equal(t, []string{"peron"}, ids(e.Filter(domain.SearchQuery{Month: "10"}, nil)))
	assert.Equal(t, []string{"belgrano"}, ids(e.Filter(domain.SearchQuery{Year: "2024", Text: "bandera"}, nil)))
	assert.Empty(t, e.Filter(domain.SearchQuery{Year: "2024", Month: "10"}, nil))
}

func TestFilterOfflineOnly(t *testing.T) {
	e := NewEngine(testIndex(), savedSet{"peron": true, "belgrano": true}, nil)
	assert.Equal(t, []string{"peron", "belgrano"}, ids(e.Filter(domain.SearchQuery{OfflineOnly: true}, nil)))
	assert.Equal(t, []string{"belgrano"}, ids(e.Filter(domain.SearchQuery{OfflineOnly: true, Year: "2024"}, nil)))

	noChecker := NewEngine(testIndex(), nil, nil)
	assert.Empty(t, noChecker.Filter(domain.SearchQuery{OfflineOnly: true}, nil))
}

func TestFilterTranscriptAugmentation(t *testing.T) {
	e := NewEngine(testIndex(), nil, nil)
	transcripts := transcriptMap{"belgrano": textutil.Normalize("Hablamos de Rosario y del río Paraná")}

	q := domain.SearchQuery{Text: "parana"}
	assert.Empty(t, e.Filter(q, transcripts), "transcripts ignored unless requested")

	q.IncludeTranscripts = true
	assert.Equal(t, []string{"belgrano"}, ids(e.Filter(q, transcripts)))

	// Base blob and transcript combine for multi-token queries.
	q.Text = "bandera rosario"
	assert.Equal(t, []string{"belgrano"}, ids(e.Filter(q, transcripts)))

	// Missing transcript state degrades to the base blob.
	assert.Empty(t, e.Filter(domain.SearchQuery{Text: "parana", IncludeTranscripts: true}, nil))
}

// The result must be exactly the set defined by the matching rules.
func TestFilterMatchesDefinition(t *testing.T) {
	ix := testIndex()
	offline := savedSet{"rev-mayo": true, "san-martin": true}
	transcripts := transcriptMap{"peron": "plaza de mayo"}

	queries := []domain.SearchQuery{
		{Text: "mayo"},
		{Text: "mayo", IncludeTranscripts: true},
		{Text: "de", Year: "2023"},
		{Text: "a", OfflineOnly: true},
		{Month: "05", OfflineOnly: true},
		{Text: "y la", IncludeTranscripts: true},
	}

	for _, q := range queries {
		got := Filter(ix.Episodes(), q, offline, transcripts)

		var want []string
		for _, ep := range ix.Episodes() {
			if q.OfflineOnly && !offline[ep.ID] {
				continue
			}
			if q.Year != "" && q.Year != ep.Year {
				continue
			}
			if q.Month != "" && q.Month != ep.Month {
				continue
			}
			hay := ep.SearchBlob
			if q.IncludeTranscripts {
				if tx, ok := transcripts[ep.ID]; ok {
					hay += " " + tx
				}
			}
			all := true
			for _, tok := range textutil.Tokens(q.Text) {
				if !strings.Contains(hay, tok) {
					all = false
					break
				}
			}
			if all {
				want = append(want, ep.ID)
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, ids(got), "query %+v", q)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, more := Page(items, 0, 2)
	assert.Equal(t, []int{1, 2}, got)
	assert.True(t, more)

	got, more = Page(items, 1, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, got)
	assert.True(t, more)

	got, more = Page(items, 2, 2)
	assert.Equal(t, items, got)
	assert.False(t, more)

	got, more = Page(items, 0, 0)
	assert.Equal(t, items, got)
	assert.False(t, more)
}
