package framestream

import (
	"context"
	"image"
	"time"

	"github.com/bodgit/framestream/render"
	"github.com/hashicorp/go-hclog"
)

const maxScale = 16

// Status describes the state of a Player.
type Status struct {
	Frame    int
	Position time.Duration
	Paused   bool
	Mode     render.Mode
	Scale    int
}

// PlayerOptions configures a Player.
type PlayerOptions struct {
	Geometry     Geometry
	FPS          float64
	FrameOffset  float64
	Mode         render.Mode
	Scale        int
	MaxChunks    int
	MaxRetries   int
	StallTimeout time.Duration
	// Present is called with the canvas after each frame is drawn. The
	// image must not be retained after it returns.
	Present func(m *image.RGBA, st Status) error
	Logger  hclog.Logger
}

// Player plays a clip from a Source onto an in-memory canvas.
type Player struct {
	store    *Store
	renderer *render.Renderer
	canvas   *render.Canvas
	clock    *WallClock
	driver   *Driver
	present  func(*image.RGBA, Status) error
	logger   hclog.Logger
}

// NewPlayer returns a Player reading chunks from src. Playback starts
// paused at the beginning of the clip.
func NewPlayer(src Source, opts PlayerOptions) (*Player, error) {
	if opts.Geometry == (Geometry{}) {
		opts.Geometry = DefaultGeometry
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	p := &Player{
		clock:   NewWallClock(),
		present: opts.Present,
		logger:  opts.Logger,
	}

	p.store = NewStore(src, StoreOptions{
		Geometry:   opts.Geometry,
		MaxChunks:  opts.MaxChunks,
		MaxRetries: opts.MaxRetries,
		Logger:     opts.Logger.Named("store"),
	})

	var err error
	p.renderer, err = render.New(p.store, render.Options{
		Width:  opts.Geometry.Width,
		Height: opts.Geometry.Height,
		Scale:  opts.Scale,
		Mode:   opts.Mode,
		Logger: opts.Logger.Named("render"),
	})
	if err != nil {
		p.store.Close()
		return nil, err
	}

	b := p.renderer.Bounds()
	if p.canvas, err = render.NewCanvas(b.Dx(), b.Dy()); err != nil {
		p.store.Close()
		return nil, err
	}

	p.driver = NewDriver(p.store, p.renderer, p.canvas, p.clock, DriverOptions{
		FPS:          opts.FPS,
		FrameOffset:  opts.FrameOffset,
		StallTimeout: opts.StallTimeout,
		Present:      p.presentFrame,
		Logger:       opts.Logger.Named("driver"),
	})

	return p, nil
}

func (p *Player) presentFrame(int) error {
	if p.present == nil {
		return nil
	}
	return p.present(p.canvas.Image(), p.Status())
}

// Status returns the current playback state.
func (p *Player) Status() Status {
	return Status{
		Frame:    p.driver.Frame(),
		Position: p.clock.Position(),
		Paused:   p.clock.Paused(),
		Mode:     p.renderer.Mode(),
		Scale:    p.renderer.Scale(),
	}
}

// Run starts the clock and plays until the end of the clip or ctx is
// cancelled.
func (p *Player) Run(ctx context.Context) error {
	p.clock.Play()
	defer p.clock.Pause()

	return p.driver.Run(ctx)
}

// Toggle pauses or resumes playback and reports whether it is now paused.
func (p *Player) Toggle() bool {
	paused := p.clock.Toggle()
	p.logger.Debug("playback toggled", "paused", paused)
	p.driver.Redraw()
	return paused
}

// CycleMode switches to the next render mode.
func (p *Player) CycleMode() (render.Mode, error) {
	m := p.renderer.Mode().Next()
	if err := p.renderer.SetMode(m); err != nil {
		return p.renderer.Mode(), err
	}
	p.driver.Redraw()
	return m, nil
}

// Zoom changes the scale by delta, clamped to a sensible range.
func (p *Player) Zoom(delta int) (int, error) {
	s := p.renderer.Scale() + delta
	switch {
	case s < 1:
		s = 1
	case s > maxScale:
		s = maxScale
	}
	if err := p.renderer.SetScale(s); err != nil {
		return p.renderer.Scale(), err
	}
	p.driver.Redraw()
	return s, nil
}

// SeekBy moves playback by d, which may be negative.
func (p *Player) SeekBy(d time.Duration) {
	pos := p.clock.Position() + d
	if pos < 0 {
		pos = 0
	}
	p.logger.Debug("seeking", "position", pos)
	p.driver.Seek(pos)
}

// Close stops any chunk loads in progress.
func (p *Player) Close() error {
	return p.store.Close()
}
