package transcript

import (
	"sort"
	"sync"

	"github.com/mmcdole/vdp/internal/domain"
)

// DefaultLookahead shifts playback time forward so the highlighted line
// does not trail the audio.
const DefaultLookahead = 0.2

// ActiveIndex returns the greatest i with starts[i] <= t, or -1 when t is
// before the first start. starts must be non-decreasing.
func ActiveIndex(starts []float64, t float64) int {
	// First index whose start is past t; its predecessor is active
	return sort.Search(len(starts), func(i int) bool { return starts[i] > t }) - 1
}

// Follower tracks the active segment of one transcript across time
// updates and seeks. It only reports a change when the index moves.
type Follower struct {
	starts    []float64
	lookahead float64

	mu      sync.Mutex
	current int
}

// NewFollower creates a follower for tr. A negative lookahead uses
// DefaultLookahead.
func NewFollower(tr domain.Transcript, lookahead float64) *Follower {
	if lookahead < 0 {
		lookahead = DefaultLookahead
	}
	return &Follower{starts: tr.Starts(), lookahead: lookahead, current: -1}
}

// Update recomputes the active index for playback time t. Seeks go through
// the same path since only the time value matters.
func (f *Follower) Update(t float64) (int, bool) {
	idx := ActiveIndex(f.starts, t+f.lookahead)

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx == f.current {
		return idx, false
	}
	f.current = idx
	return idx, true
}

// Current returns the last computed index.
func (f *Follower) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Reset forgets the active line.
func (f *Follower) Reset() {
	f.mu.Lock()
	f.current = -1
	f.mu.Unlock()
}
