package render

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Style selects the glyph foreground color.
type Style int

// Glyph styles.
const (
	// Normal glyphs are dark, for light backgrounds.
	Normal Style = iota
	// Inverse glyphs are light, for dark backgrounds.
	Inverse
)

func (s Style) foreground() color.Color {
	if s == Inverse {
		return lightColor
	}
	return darkColor
}

var errGlyphRange = errors.New("render: glyph index out of range")

// SpriteCache holds every glyph of a ramp pre-rasterized into a single atlas
// strip, one scale by scale cell per glyph.
type SpriteCache struct {
	glyphs []rune
	face   font.Face

	atlas *image.RGBA
	scale int
	style Style
}

// NewSpriteCache returns an empty cache for glyphs drawn with face. Rebuild
// must be called before Blit.
func NewSpriteCache(glyphs []rune, face font.Face) *SpriteCache {
	return &SpriteCache{
		glyphs: glyphs,
		face:   face,
	}
}

// Rebuild rasterizes every glyph at the given scale and style, replacing
// the previous atlas.
func (c *SpriteCache) Rebuild(scale int, style Style) error {
	if scale <= 0 {
		return errBadScale
	}

	m := c.face.Metrics()
	adv, _ := c.face.GlyphAdvance('M')
	gw, gh := adv.Ceil(), m.Height.Ceil()

	glyph := image.NewRGBA(image.Rect(0, 0, gw, gh))
	d := font.Drawer{
		Dst:  glyph,
		Src:  image.NewUniform(style.foreground()),
		Face: c.face,
	}

	// Keep the aspect ratio of the face, centered in the cell
	w := (scale*gw + gh/2) / gh
	if w < 1 {
		w = 1
	}
	if w > scale {
		w = scale
	}
	pad := (scale - w) / 2

	atlas := image.NewRGBA(image.Rect(0, 0, scale*len(c.glyphs), scale))
	for i, g := range c.glyphs {
		draw.Draw(glyph, glyph.Rect, image.Transparent, image.Point{}, draw.Src)
		d.Dot = fixed.Point26_6{X: 0, Y: m.Ascent}
		d.DrawString(string(g))

		dr := image.Rect(i*scale+pad, 0, i*scale+pad+w, scale)
		draw.ApproxBiLinear.Scale(atlas, dr, glyph, glyph.Rect, draw.Over, nil)
	}

	c.atlas = atlas
	c.scale = scale
	c.style = style

	return nil
}

// Valid reports whether the atlas was built for scale and style.
func (c *SpriteCache) Valid(scale int, style Style) bool {
	return c.atlas != nil && c.scale == scale && c.style == style
}

// Atlas returns the current atlas, or nil.
func (c *SpriteCache) Atlas() *image.RGBA {
	return c.atlas
}

// Blit copies glyph i from the atlas to dst with its cell origin at x, y.
func (c *SpriteCache) Blit(dst Surface, i, x, y, scale int) error {
	if c.atlas == nil || c.scale != scale {
		return ErrMissingAtlas
	}
	if i < 0 || i >= len(c.glyphs) {
		return errGlyphRange
	}
	dst.Blit(c.atlas, image.Rect(i*scale, 0, i*scale+scale, scale), image.Pt(x, y))
	return nil
}
