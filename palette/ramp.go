package palette

import (
	"image"
	"image/draw"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Ramp is the default glyph ramp ordered from the densest glyph to the
// lightest. The final entry is always a space.
const Ramp = "@MW#BNQ&%$gR8mHDE0bdqpOKAGU9X6PS5Z4khaVe3yF2CxfoYsTnuJ1zjI[]lctL7ri{}v?=<>+|)(/*!;\"^:,~-_'.` "

var ramp = []rune(Ramp)

// RampLength returns the number of glyphs in the ramp.
func RampLength() int {
	return len(ramp)
}

// Glyphs returns the ramp as a slice of runes.
func Glyphs() []rune {
	return append([]rune(nil), ramp...)
}

// Bucket maps a luminance value to a ramp position, clamped to the ramp.
func Bucket(l float64) int {
	b := int(l * float64(len(ramp)))
	switch {
	case b < 0:
		return 0
	case b >= len(ramp):
		return len(ramp) - 1
	}
	return b
}

// GlyphAt returns the glyph at ramp position b, clamped to the ramp.
func GlyphAt(b int) rune {
	switch {
	case b < 0:
		b = 0
	case b >= len(ramp):
		b = len(ramp) - 1
	}
	return ramp[b]
}

// IsBlank reports whether ramp position b is the terminal blank glyph.
func IsBlank(b int) bool {
	return b >= len(ramp)-1
}

type coverage struct {
	glyph rune
	ink   int
}

// RankGlyphs orders glyphs by how much ink they leave when drawn with face,
// densest first. Glyphs with equal coverage keep their original order.
func RankGlyphs(face font.Face, glyphs string) string {
	m := face.Metrics()
	adv, _ := face.GlyphAdvance('M')
	w, h := adv.Ceil()+2, m.Height.Ceil()+2

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  dst,
		Src:  image.Opaque,
		Face: face,
	}

	var ranked []coverage
	for _, g := range glyphs {
		draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
		d.Dot = fixed.Point26_6{X: fixed.I(1), Y: m.Ascent + fixed.I(1)}
		d.DrawString(string(g))

		ink := 0
		for _, a := range dst.Pix {
			ink += int(a)
		}
		ranked = append(ranked, coverage{g, ink})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ink > ranked[j].ink
	})

	out := make([]rune, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, c.glyph)
	}
	return string(out)
}
