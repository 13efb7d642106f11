package render

import (
	"image"
	"sync"

	"github.com/bodgit/framestream/palette"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/image/font/basicfont"
)

// Defaults used for zero Options fields.
const (
	DefaultWidth  = 160
	DefaultHeight = 120
	DefaultScale  = 6
)

// FrameSource supplies frames by index.
type FrameSource interface {
	// Frame returns the cells of frame i, row-major.
	Frame(i int) ([]byte, error)
	// Prefetch is called after frame i has been drawn.
	Prefetch(i int)
}

// Options configures a Renderer.
type Options struct {
	Width  int
	Height int
	Scale  int
	Mode   Mode
	Logger hclog.Logger
}

// Renderer draws frames incrementally, redrawing only cells that changed
// since the previous call.
type Renderer struct {
	mu sync.Mutex

	src           FrameSource
	width, height int
	scale         int
	mode          Mode
	force         bool

	prev    []byte
	hasPrev bool

	sprites *SpriteCache
	logger  hclog.Logger
}

// New returns a Renderer reading frames from src.
func New(src FrameSource, opts Options) (*Renderer, error) {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if opts.Scale < 0 || opts.Width < 0 || opts.Height < 0 {
		return nil, errBadScale
	}
	if opts.Mode < 0 || opts.Mode >= numModes {
		opts.Mode = Block
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	r := &Renderer{
		src:     src,
		width:   opts.Width,
		height:  opts.Height,
		scale:   opts.Scale,
		mode:    opts.Mode,
		force:   true,
		prev:    make([]byte, opts.Width*opts.Height),
		sprites: NewSpriteCache(palette.Glyphs(), basicfont.Face7x13),
		logger:  opts.Logger,
	}

	if r.mode.text() {
		if err := r.sprites.Rebuild(r.scale, r.mode.style()); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Mode returns the current render mode.
func (r *Renderer) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Scale returns the current number of pixels per cell.
func (r *Renderer) Scale() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scale
}

// Bounds returns the size of the drawn area at the current scale.
func (r *Renderer) Bounds() image.Rectangle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return image.Rect(0, 0, r.width*r.scale, r.height*r.scale)
}

// ForceRedraw makes the next Render draw every cell.
func (r *Renderer) ForceRedraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.force = true
}

// SetMode changes the render mode. The next Render clears the surface and
// draws every cell.
func (r *Renderer) SetMode(m Mode) error {
	if m < 0 || m >= numModes {
		m = Block
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reconfigure(m, r.scale)
}

// SetScale changes the number of pixels per cell. The next Render resizes
// the surface if it supports it, clears it, and draws every cell.
func (r *Renderer) SetScale(scale int) error {
	if scale <= 0 {
		return errBadScale
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reconfigure(r.mode, scale)
}

func (r *Renderer) reconfigure(m Mode, scale int) error {
	if m.text() && !r.sprites.Valid(scale, m.style()) {
		if err := r.sprites.Rebuild(scale, m.style()); err != nil {
			return err
		}
	}

	if m != r.mode || scale != r.scale {
		r.logger.Debug("render configuration changed", "mode", m, "scale", scale)
	}

	r.mode = m
	r.scale = scale
	r.force = true

	return nil
}

// Render draws frame i onto dst. If the frame cannot be resolved the error
// from the FrameSource is returned and nothing is drawn.
func (r *Renderer) Render(i int, dst Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame, err := r.src.Frame(i)
	if err != nil {
		return err
	}

	if r.mode.text() && !r.sprites.Valid(r.scale, r.mode.style()) {
		return ErrMissingAtlas
	}

	s := r.scale
	bounds := image.Rect(0, 0, r.width*s, r.height*s)

	if r.force {
		if rs, ok := dst.(Resizer); ok {
			if err := rs.Resize(bounds.Dx(), bounds.Dy()); err != nil {
				return err
			}
		}
		if bd, ok := dst.(Backdrop); ok {
			bd.SetBackground(r.mode.background())
		}
		r.hasPrev = false
	}

	if r.force || r.mode == Differential || !r.hasPrev {
		dst.ClearRect(bounds)
	}
	r.force = false

	var prev []byte
	if r.hasPrev {
		prev = r.prev
	}

	fn := strategies[r.mode]
	n := r.width * r.height
	if len(frame) < n {
		n = len(frame)
	}

	for j := 0; j < n; j++ {
		c := frame[j]
		if c == 0 {
			continue
		}

		x, y := j%r.width, j/r.width
		cell := image.Rect(x*s, y*s, x*s+s, y*s+s)

		if prev != nil && prev[j] == c {
			if r.mode != Differential {
				continue
			}
		} else if r.mode == Differential {
			dst.FillRect(cell, markerColor)
		} else {
			dst.ClearRect(cell)
		}

		if err := fn(r, dst, cell, c); err != nil {
			r.hasPrev = false
			return err
		}
	}

	copy(r.prev, frame)
	r.hasPrev = true

	r.src.Prefetch(i)

	return nil
}
