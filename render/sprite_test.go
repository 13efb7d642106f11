package render

import (
	"image"
	"testing"

	"github.com/bodgit/framestream/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

func ink(m *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			n += int(m.RGBAAt(x, y).A)
		}
	}
	return n
}

func TestSpriteCache(t *testing.T) {
	glyphs := palette.Glyphs()
	c := NewSpriteCache(glyphs, basicfont.Face7x13)

	s := new(recorder)
	assert.Equal(t, ErrMissingAtlas, c.Blit(s, 0, 0, 0, 6))
	assert.False(t, c.Valid(6, Normal))

	assert.Error(t, c.Rebuild(0, Normal))

	require.NoError(t, c.Rebuild(6, Normal))
	assert.True(t, c.Valid(6, Normal))
	assert.False(t, c.Valid(6, Inverse))
	assert.False(t, c.Valid(8, Normal))
	assert.Equal(t, image.Rect(0, 0, 6*len(glyphs), 6), c.Atlas().Rect)

	dense := ink(c.Atlas(), image.Rect(0, 0, 6, 6))
	blank := ink(c.Atlas(), image.Rect(6*(len(glyphs)-1), 0, 6*len(glyphs), 6))
	assert.Greater(t, dense, 0)
	assert.Equal(t, 0, blank)

	require.NoError(t, c.Blit(s, 3, 12, 18, 6))
	assert.Equal(t, []op{{"blit", image.Rect(12, 18, 18, 24), nil}}, s.ops)

	assert.Equal(t, ErrMissingAtlas, c.Blit(s, 3, 0, 0, 8))
	assert.Error(t, c.Blit(s, len(glyphs), 0, 0, 6))
}

func TestSpriteCacheStyle(t *testing.T) {
	c := NewSpriteCache([]rune{'@'}, basicfont.Face7x13)

	require.NoError(t, c.Rebuild(13, Normal))
	normal := c.Atlas()

	require.NoError(t, c.Rebuild(13, Inverse))
	inverse := c.Atlas()

	var dark, light bool
	for y := 0; y < 13; y++ {
		for x := 0; x < 13; x++ {
			if p := normal.RGBAAt(x, y); p.A == 0xff && p.R == 0 {
				dark = true
			}
			if p := inverse.RGBAAt(x, y); p.A == 0xff && p.R == 0xff {
				light = true
			}
		}
	}
	assert.True(t, dark)
	assert.True(t, light)
}
