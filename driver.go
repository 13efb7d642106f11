package framestream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/bodgit/framestream/render"
	"github.com/hashicorp/go-hclog"
)

// DefaultFrameOffset is the number of frames the picture leads the clock by
// for the shipped clip.
const DefaultFrameOffset = 6

const defaultStallTimeout = 10 * time.Second

// ErrStalled is returned by Driver.Run when no frame could be drawn for
// longer than the stall timeout.
var ErrStalled = errors.New("framestream: playback stalled")

// Seeker is implemented by clocks that can change position.
type Seeker interface {
	Seek(pos time.Duration)
}

// DriverOptions configures a Driver.
type DriverOptions struct {
	// FPS defaults to 30
	FPS float64
	// FrameOffset is added to the frame index derived from the clock
	FrameOffset float64
	// StallTimeout bounds how long playback may wait for a chunk
	StallTimeout time.Duration
	// Present is called after each frame is drawn
	Present func(frame int) error
	Logger  hclog.Logger
}

// Driver maps a Clock to frame indices and renders a frame on every tick.
type Driver struct {
	store    *Store
	renderer *render.Renderer
	surface  render.Surface
	clock    Clock
	opts     DriverOptions
	logger   hclog.Logger

	kick    chan struct{}
	warned  ChunkError
	frame   atomic.Int64
	stalled time.Time
	now     func() time.Time
}

// NewDriver returns a Driver drawing frames from store onto surface.
func NewDriver(store *Store, renderer *render.Renderer, surface render.Surface, clock Clock, opts DriverOptions) *Driver {
	if opts.FPS <= 0 {
		opts.FPS = FPS
	}
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = defaultStallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	d := &Driver{
		store:    store,
		renderer: renderer,
		surface:  surface,
		clock:    clock,
		opts:     opts,
		logger:   opts.Logger,
		kick:     make(chan struct{}, 1),
		now:      time.Now,
	}
	d.frame.Store(-1)

	return d
}

// FrameIndex returns the frame to show at playback position pos.
func (d *Driver) FrameIndex(pos time.Duration) int {
	i := int(math.Floor(pos.Seconds()*d.opts.FPS + d.opts.FrameOffset))
	if i < 0 {
		return 0
	}
	return i
}

// Frame returns the index of the last frame drawn, or -1.
func (d *Driver) Frame() int {
	return int(d.frame.Load())
}

// Seek moves the clock, if it supports it, and redraws the whole frame at
// the new position on the next tick even when paused.
func (d *Driver) Seek(pos time.Duration) {
	if s, ok := d.clock.(Seeker); ok {
		s.Seek(pos)
	}
	d.store.RequestForFrame(d.FrameIndex(pos))
	d.Redraw()
}

// Redraw draws the whole frame at the current position on the next tick
// even when paused.
func (d *Driver) Redraw() {
	d.renderer.ForceRedraw()

	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Tick renders the frame for the current clock position unless paused.
func (d *Driver) Tick() error {
	if d.clock.Paused() {
		return nil
	}
	return d.renderAt(d.FrameIndex(d.clock.Position()))
}

func (d *Driver) stall(i int, err error) error {
	d.store.RequestForFrame(i)

	now := d.now()
	if d.stalled.IsZero() {
		d.stalled = now
		d.logger.Debug("waiting for chunk", "frame", i, "error", err)
		return nil
	}

	if wait := now.Sub(d.stalled); wait > d.opts.StallTimeout {
		return fmt.Errorf("%w: frame %d after %s: %v", ErrStalled, i, wait.Round(time.Millisecond), err)
	}
	return nil
}

func (d *Driver) renderAt(i int) error {
	err := d.renderer.Render(i, d.surface)

	var ce *ChunkError
	switch {
	case err == nil:
	case errors.Is(err, ErrChunkPending):
		return d.stall(i, err)
	case errors.Is(err, ErrEndOfClip), errors.Is(err, ErrChunkFailed):
		return err
	case errors.As(err, &ce):
		if d.warned.Index != ce.Index || d.warned.Attempt != ce.Attempt {
			d.logger.Warn("chunk load failed, retrying", "chunk", ce.Index, "attempt", ce.Attempt, "error", ce.Err)
			d.warned = ChunkError{Index: ce.Index, Attempt: ce.Attempt}
		}
		return d.stall(i, err)
	default:
		return err
	}

	d.stalled = time.Time{}
	d.frame.Store(int64(i))

	if d.opts.Present != nil {
		return d.opts.Present(i)
	}
	return nil
}

// Run ticks at the configured frame rate until ctx is cancelled, the clip
// ends, or an error occurs. Reaching the end of the clip returns nil.
func (d *Driver) Run(ctx context.Context) error {
	d.store.RequestForFrame(d.FrameIndex(d.clock.Position()))

	t := time.NewTicker(time.Duration(float64(time.Second) / d.opts.FPS))
	defer t.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.kick:
			err = d.renderAt(d.FrameIndex(d.clock.Position()))
		case <-t.C:
			err = d.Tick()
		}

		switch {
		case errors.Is(err, ErrEndOfClip):
			d.logger.Info("end of clip", "frame", d.Frame())
			return nil
		case err != nil:
			return err
		}
	}
}
