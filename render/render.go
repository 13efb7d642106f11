/*
Package render draws palette-indexed frames onto a raster surface.

Only cells that changed since the previously drawn frame are redrawn, using
one of several render modes. The surface needs to support just three
operations: clearing a region, filling a region with a solid color, and
copying a region from another image.
*/
package render

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	// ErrMissingAtlas is returned when a glyph is drawn without a sprite
	// atlas built for the current scale and style.
	ErrMissingAtlas = errors.New("render: no sprite atlas for current scale and style")
	// ErrSurfaceUnavailable is returned when a drawing surface cannot be
	// created.
	ErrSurfaceUnavailable = errors.New("render: surface unavailable")

	errBadScale = errors.New("render: scale must be positive")
)

// Surface is a raster drawing target.
type Surface interface {
	// ClearRect resets r to the surface background.
	ClearRect(r image.Rectangle)
	// FillRect fills r with a solid color.
	FillRect(r image.Rectangle, c color.Color)
	// Blit copies sr from src onto the surface with sr.Min at dp,
	// compositing over the existing pixels.
	Blit(src image.Image, sr image.Rectangle, dp image.Point)
}

// Backdrop is implemented by surfaces with a configurable background.
type Backdrop interface {
	SetBackground(c color.Color)
}

// Resizer is implemented by surfaces that can change size.
type Resizer interface {
	Resize(width, height int) error
}

// Canvas is a Surface backed by an in-memory RGBA image.
type Canvas struct {
	img        *image.RGBA
	background image.Image
}

// NewCanvas returns a canvas width by height pixels with a white background.
func NewCanvas(width, height int) (*Canvas, error) {
	c := &Canvas{
		background: image.NewUniform(color.White),
	}
	if err := c.Resize(width, height); err != nil {
		return nil, err
	}
	return c, nil
}

// Resize reallocates the canvas if the size differs, clearing it.
func (c *Canvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrSurfaceUnavailable
	}
	if c.img != nil && c.img.Rect.Dx() == width && c.img.Rect.Dy() == height {
		return nil
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.ClearRect(c.img.Rect)
	return nil
}

// SetBackground changes the color used by ClearRect.
func (c *Canvas) SetBackground(bg color.Color) {
	c.background = image.NewUniform(bg)
}

// ClearRect implements Surface.
func (c *Canvas) ClearRect(r image.Rectangle) {
	draw.Draw(c.img, r, c.background, image.Point{}, draw.Src)
}

// FillRect implements Surface.
func (c *Canvas) FillRect(r image.Rectangle, fill color.Color) {
	draw.Draw(c.img, r, image.NewUniform(fill), image.Point{}, draw.Src)
}

// Blit implements Surface.
func (c *Canvas) Blit(src image.Image, sr image.Rectangle, dp image.Point) {
	draw.Draw(c.img, image.Rectangle{dp, dp.Add(sr.Size())}, src, sr.Min, draw.Over)
}

// Image returns the underlying image. It is reallocated by Resize.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Rect
}
