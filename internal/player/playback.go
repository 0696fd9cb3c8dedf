package player

import (
	"log/slog"

	"github.com/mmcdole/vdp/internal/domain"
	"github.com/mmcdole/vdp/internal/progress"
	"github.com/mmcdole/vdp/internal/transcript"
)

// Update is the result of one tick, seek or state change.
type Update struct {
	Position      float64
	Active        int  // Active transcript segment, -1 for none
	ActiveChanged bool // Active moved since the previous update
	Saved         bool // Progress was persisted
	Ended         bool
}

// Playback ties a clock to progress persistence and karaoke highlighting.
type Playback struct {
	episode    domain.Episode
	transcript domain.Transcript
	clock      *Clock
	checkpoint *progress.Checkpoint
	follower   *transcript.Follower
	logger     *slog.Logger
	ended      bool
}

// NewPlayback creates a playback. tr may be empty, in which case no
// segment is ever active.
func NewPlayback(ep domain.Episode, tr domain.Transcript, clock *Clock, checkpoint *progress.Checkpoint, lookahead float64, logger *slog.Logger) *Playback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Playback{
		episode:    ep,
		transcript: tr,
		clock:      clock,
		checkpoint: checkpoint,
		follower:   transcript.NewFollower(tr, lookahead),
		logger:     logger,
	}
}

func (p *Playback) Episode() domain.Episode       { return p.episode }
func (p *Playback) Transcript() domain.Transcript { return p.transcript }
func (p *Playback) Clock() *Clock                 { return p.clock }

// Playing reports whether the clock is running.
func (p *Playback) Playing() bool { return p.clock.Playing() }

func (p *Playback) sync(pos float64) Update {
	idx, changed := p.follower.Update(pos)
	return Update{Position: pos, Active: idx, ActiveChanged: changed}
}

// Play starts or resumes playback.
func (p *Playback) Play() Update {
	p.ended = false
	p.clock.Play()
	return p.sync(p.clock.Position())
}

// Tick advances highlighting and the throttled checkpoint.
func (p *Playback) Tick() Update {
	if p.ended {
		return Update{Position: p.clock.Position(), Active: p.follower.Current(), Ended: true}
	}
	if p.clock.Ended() {
		return p.End()
	}

	pos := p.clock.Position()
	u := p.sync(pos)
	if p.clock.Playing() {
		saved, err := p.checkpoint.Update(pos)
		if err != nil {
			p.logger.Warn("progress update failed", "id", p.episode.ID, "error", err)
		}
		u.Saved = saved
	}
	return u
}

// Pause stops playback and persists the position.
func (p *Playback) Pause() Update {
	pos := p.clock.Pause()
	u := p.sync(pos)
	saved, err := p.checkpoint.Pause(pos)
	if err != nil {
		p.logger.Warn("progress save failed", "id", p.episode.ID, "error", err)
	}
	u.Saved = saved
	return u
}

// Toggle flips between playing and paused.
func (p *Playback) Toggle() Update {
	if p.clock.Playing() {
		return p.Pause()
	}
	return p.Play()
}

// Seek jumps to pos. Highlighting recomputes from the new time.
func (p *Playback) Seek(pos float64) Update {
	return p.sync(p.clock.Seek(pos))
}

// SeekBy moves relative to the current position.
func (p *Playback) SeekBy(delta float64) Update {
	return p.Seek(p.clock.Position() + delta)
}

// SeekSegment jumps to the start of segment i.
func (p *Playback) SeekSegment(i int) Update {
	if i < 0 || i >= len(p.transcript.Segments) {
		return p.sync(p.clock.Position())
	}
	return p.Seek(p.transcript.Segments[i].Start)
}

// End finishes playback and drops the saved position.
func (p *Playback) End() Update {
	pos := p.clock.Pause()
	p.ended = true
	if err := p.checkpoint.End(); err != nil {
		p.logger.Warn("progress delete failed", "id", p.episode.ID, "error", err)
	}
	u := p.sync(pos)
	u.Ended = true
	return u
}
