package framestream

import (
	"sync"
	"time"
)

// Clock is the playback time source.
type Clock interface {
	// Position returns the current playback position.
	Position() time.Duration
	// Paused reports whether playback is paused.
	Paused() bool
}

// WallClock is a Clock driven by the system clock. It starts paused at the
// beginning of the clip.
type WallClock struct {
	mu     sync.Mutex
	start  time.Time
	offset time.Duration
	paused bool
	now    func() time.Time
}

// NewWallClock returns a paused WallClock at position zero.
func NewWallClock() *WallClock {
	return &WallClock{
		paused: true,
		now:    time.Now,
	}
}

// Position implements Clock.
func (c *WallClock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *WallClock) position() time.Duration {
	if c.paused {
		return c.offset
	}
	return c.offset + c.now().Sub(c.start)
}

// Paused implements Clock.
func (c *WallClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Play resumes playback.
func (c *WallClock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.start = c.now()
		c.paused = false
	}
}

// Pause stops playback at the current position.
func (c *WallClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.offset = c.position()
		c.paused = true
	}
}

// Toggle switches between playing and paused, returning true if now
// paused.
func (c *WallClock) Toggle() bool {
	if c.Paused() {
		c.Play()
		return false
	}
	c.Pause()
	return true
}

// Seek moves the position, clamped at zero.
func (c *WallClock) Seek(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = pos
	c.start = c.now()
}
