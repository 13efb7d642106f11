package framestream

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/bodgit/framestream/render"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultExportScale = 2
	maxColors          = 256
)

var errNoFrames = errors.New("framestream: no frames to export")

// ExportOptions configures Export.
type ExportOptions struct {
	// Start is the first frame to export.
	Start int
	// Count is the number of frames to export, zero means until the end
	// of the clip.
	Count int
	Mode  render.Mode
	// Scale defaults to 2.
	Scale  int
	FPS    int
	Logger hclog.Logger
}

// Return the colors used in m if there are no more than maxColors of them
func uniqueColors(m *image.RGBA) (color.Palette, bool) {
	seen := make(map[color.RGBA]struct{})
	p := make(color.Palette, 0, maxColors)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.RGBAAt(x, y)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(p) == maxColors {
				return nil, false
			}
			seen[c] = struct{}{}
			p = append(p, c)
		}
	}
	return p, true
}

func paletted(m *image.RGBA) *image.Paletted {
	b := m.Bounds()

	p, ok := uniqueColors(m)
	if !ok {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, maxColors), m)
	}

	pm := image.NewPaletted(b, p)
	draw.Draw(pm, b, m, b.Min, draw.Src)

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		pm.Rect = pm.Rect.Sub(pm.Rect.Min)
	}

	return pm
}

// frameDelay returns the delay of frame n in 100ths of a second, spreading
// the rounding error so the average matches fps.
func frameDelay(n, fps int) int {
	return (n+1)*100/fps - n*100/fps
}

// Export renders a range of frames from s and writes them to w as an
// animated GIF. It returns the number of frames written.
func Export(ctx context.Context, w io.Writer, s *Store, opts ExportOptions) (int, error) {
	if opts.Scale == 0 {
		opts.Scale = defaultExportScale
	}
	if opts.FPS == 0 {
		opts.FPS = FPS
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	g := s.Geometry()

	r, err := render.New(s, render.Options{
		Width:  g.Width,
		Height: g.Height,
		Scale:  opts.Scale,
		Mode:   opts.Mode,
		Logger: opts.Logger,
	})
	if err != nil {
		return 0, err
	}

	canvas, err := render.NewCanvas(r.Bounds().Dx(), r.Bounds().Dy())
	if err != nil {
		return 0, err
	}

	anim := &gif.GIF{}

	for n := 0; opts.Count == 0 || n < opts.Count; n++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		i := opts.Start + n

		// A missing chunk shows up as the end of the clip when rendering
		if err := s.Load(ctx, g.ChunkIndex(i)); err != nil && !errors.Is(err, ErrNoChunk) {
			return 0, err
		}

		if err := r.Render(i, canvas); err != nil {
			if errors.Is(err, ErrEndOfClip) {
				break
			}
			return 0, err
		}

		anim.Image = append(anim.Image, paletted(canvas.Image()))
		anim.Delay = append(anim.Delay, frameDelay(n, opts.FPS))

		opts.Logger.Trace("frame exported", "frame", i)
	}

	if len(anim.Image) == 0 {
		return 0, errNoFrames
	}

	opts.Logger.Debug("encoding gif", "frames", len(anim.Image))

	if err := gif.EncodeAll(w, anim); err != nil {
		return 0, err
	}

	return len(anim.Image), nil
}
