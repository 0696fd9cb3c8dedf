package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/vdp/internal/domain"
)

func TestActiveIndex(t *testing.T) {
	starts := []float64{0, 5, 12, 12, 20}

	assert.Equal(t, 1, ActiveIndex(starts, 11.9))
	assert.Equal(t, 3, ActiveIndex(starts, 12.1), "last of tied duplicates")
	assert.Equal(t, -1, ActiveIndex(starts, -1))
	assert.Equal(t, 0, ActiveIndex(starts, 0))
	assert.Equal(t, 3, ActiveIndex(starts, 12))
	assert.Equal(t, 4, ActiveIndex(starts, 1e6))
	assert.Equal(t, -1, ActiveIndex(nil, 3))
}

func TestActiveIndexMatchesLinearScan(t *testing.T) {
	starts := []float64{1, 1, 2.5, 4, 4, 4, 9, 15.25}
	linear := func(t float64) int {
		idx := -1
		for i, s := range starts {
			if s <= t {
				idx = i
			}
		}
		return idx
	}
	for tm := -2.0; tm < 20; tm += 0.05 {
		assert.Equal(t, linear(tm), ActiveIndex(starts, tm), "t=%v", tm)
	}
}

func followerFor(starts ...float64) *Follower {
	tr := domain.Transcript{}
	for _, s := range starts {
		tr.Segments = append(tr.Segments, domain.Segment{Start: s})
	}
	return NewFollower(tr, DefaultLookahead)
}

func TestFollowerReportsOnlyChanges(t *testing.T) {
	f := followerFor(0, 5, 12, 20)

	idx, changed := f.Update(0.5)
	assert.Equal(t, 0, idx)
	assert.True(t, changed)

	_, changed = f.Update(1.0)
	assert.False(t, changed)

	// Lookahead highlights the next line slightly early
	idx, changed = f.Update(4.85)
	assert.Equal(t, 1, idx)
	assert.True(t, changed)
	assert.Equal(t, 1, f.Current())
}

func TestFollowerSeek(t *testing.T) {
	f := followerFor(0, 5, 12, 20)
	f.Update(1)

	idx, changed := f.Update(25)
	assert.Equal(t, 3, idx)
	assert.True(t, changed)

	idx, changed = f.Update(6)
	assert.Equal(t, 1, idx)
	assert.True(t, changed)

	f.Reset()
	assert.Equal(t, -1, f.Current())
	_, changed = f.Update(6)
	assert.True(t, changed)
}

func TestFollowerBeforeFirstSegment(t *testing.T) {
	f := followerFor(10, 20)
	idx, changed := f.Update(2)
	assert.Equal(t, -1, idx)
	assert.False(t, changed, "already at no active line")
}
