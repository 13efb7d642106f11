/*
Package palette implements the fixed xterm 256 color palette used by
palette-indexed frames along with the luminance of each entry and the glyph
ramp used by the text render modes.

Index 0 is reserved by the renderer as the transparent cell and is never
drawn; it still maps to a well-defined color and luminance here so that every
lookup is total over the byte domain.
*/
package palette

import (
	"image/color"
	"math"
)

// Size is the number of palette entries.
const Size = 256

var (
	colors    [Size]color.RGBA
	luminance [Size]float64
)

// The sixteen system colors as rendered by xterm.
var system = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0x80, 0x00, 0x00, 0xff},
	{0x00, 0x80, 0x00, 0xff},
	{0x80, 0x80, 0x00, 0xff},
	{0x00, 0x00, 0x80, 0xff},
	{0x80, 0x00, 0x80, 0xff},
	{0x00, 0x80, 0x80, 0xff},
	{0xc0, 0xc0, 0xc0, 0xff},
	{0x80, 0x80, 0x80, 0xff},
	{0xff, 0x00, 0x00, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0x00, 0x00, 0xff, 0xff},
	{0xff, 0x00, 0xff, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0xff, 0xff, 0xff, 0xff},
}

var cubeLevels = [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

func init() {
	copy(colors[:], system[:])

	// 6x6x6 color cube
	for i := 0; i < 216; i++ {
		colors[16+i] = color.RGBA{cubeLevels[i/36], cubeLevels[i/6%6], cubeLevels[i%6], 0xff}
	}

	// 24 step grey ramp
	for i := 0; i < 24; i++ {
		v := uint8(8 + 10*i)
		colors[232+i] = color.RGBA{v, v, v, 0xff}
	}

	for i, c := range colors {
		luminance[i] = relativeLuminance(c)
	}
}

func linearize(v uint8) float64 {
	c := float64(v) / 0xff
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// Rec. 709 relative luminance of an sRGB color
func relativeLuminance(c color.RGBA) float64 {
	l := 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
	return math.Max(0, math.Min(1, l))
}

// Color returns the display color of palette index i.
func Color(i byte) color.RGBA {
	return colors[i]
}

// Luminance returns the luminance of palette index i in the range [0, 1].
func Luminance(i byte) float64 {
	return luminance[i]
}

// Palette returns a copy of the full palette, suitable for use with
// image.Paletted.
func Palette() color.Palette {
	p := make(color.Palette, Size)
	for i, c := range colors {
		p[i] = c
	}
	return p
}
