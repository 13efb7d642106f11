package palette

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font/basicfont"
)

func TestColor(t *testing.T) {
	tables := []struct {
		index byte
		color color.RGBA
	}{
		{0, color.RGBA{0x00, 0x00, 0x00, 0xff}},
		{15, color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{16, color.RGBA{0x00, 0x00, 0x00, 0xff}},
		{196, color.RGBA{0xff, 0x00, 0x00, 0xff}},
		{231, color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{232, color.RGBA{0x08, 0x08, 0x08, 0xff}},
		{255, color.RGBA{0xee, 0xee, 0xee, 0xff}},
	}

	for _, table := range tables {
		assert.Equal(t, table.color, Color(table.index))
	}
}

func TestLuminance(t *testing.T) {
	for i := 0; i < Size; i++ {
		l := Luminance(byte(i))
		assert.GreaterOrEqual(t, l, 0.0)
		assert.LessOrEqual(t, l, 1.0)
	}

	assert.Equal(t, 0.0, Luminance(16))
	assert.InDelta(t, 1.0, Luminance(231), 1e-9)

	// The grey ramp is monotonic
	for i := 233; i < Size; i++ {
		assert.Greater(t, Luminance(byte(i)), Luminance(byte(i-1)))
	}
}

func TestPalette(t *testing.T) {
	p := Palette()
	assert.Len(t, p, Size)
	assert.Equal(t, Color(100), p[100])

	// Returned palette is a copy
	p[100] = color.RGBA{}
	assert.NotEqual(t, color.RGBA{}, Color(100))
}

func TestBucket(t *testing.T) {
	n := RampLength()

	assert.Equal(t, 0, Bucket(0))
	assert.Equal(t, 0, Bucket(-1))
	assert.Equal(t, n-1, Bucket(1))
	assert.Equal(t, n-1, Bucket(2))
	assert.Equal(t, n/2, Bucket(0.5))

	assert.True(t, IsBlank(Bucket(1)))
	assert.False(t, IsBlank(Bucket(0)))
	assert.Equal(t, ' ', GlyphAt(n-1))
	assert.Equal(t, ' ', GlyphAt(n+10))
	assert.Equal(t, '@', GlyphAt(-3))
}

func TestRampUnique(t *testing.T) {
	seen := make(map[rune]struct{})
	for _, g := range Glyphs() {
		_, ok := seen[g]
		assert.False(t, ok, "duplicate glyph %q", g)
		seen[g] = struct{}{}
	}
	assert.True(t, strings.HasSuffix(Ramp, " "))
}

func TestRankGlyphs(t *testing.T) {
	ranked := RankGlyphs(basicfont.Face7x13, " .#")
	assert.Equal(t, "#. ", ranked)

	ranked = RankGlyphs(basicfont.Face7x13, Ramp)
	assert.Len(t, []rune(ranked), RampLength())
	assert.True(t, strings.HasSuffix(ranked, " "))
}
