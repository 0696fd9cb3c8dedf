// Package player models one playback: a position clock that drives the
// progress checkpoint and the transcript follower.
package player

import (
	"sync"
	"time"
)

// Clock is a wall-clock backed playback position. Duration zero means
// the length is unknown and the clock never ends on its own.
type Clock struct {
	mu        sync.Mutex
	now       func() time.Time
	duration  float64
	base      float64   // position when last started or seeked
	startedAt time.Time // zero while paused
}

// NewClock creates a paused clock at position zero.
func NewClock(duration float64) *Clock {
	return newClock(duration, time.Now)
}

func newClock(duration float64, now func() time.Time) *Clock {
	if duration < 0 {
		duration = 0
	}
	return &Clock{now: now, duration: duration}
}

func (c *Clock) position() float64 {
	pos := c.base
	if !c.startedAt.IsZero() {
		pos += c.now().Sub(c.startedAt).Seconds()
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	return pos
}

// Position returns the current playback position in seconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

// Duration returns the known length, or zero.
func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.startedAt.IsZero()
}

// Ended reports whether a known duration has been reached.
func (c *Clock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration > 0 && c.position() >= c.duration
}

// Play starts or resumes the clock.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startedAt.IsZero() {
		c.startedAt = c.now()
	}
}

// Pause stops the clock and returns the position.
func (c *Clock) Pause() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.position()
	c.startedAt = time.Time{}
	return c.base
}

// Seek jumps to pos, clamped to the known range, keeping the play state.
func (c *Clock) Seek(pos float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.base = pos
	if !c.startedAt.IsZero() {
		c.startedAt = c.now()
	}
	return pos
}
