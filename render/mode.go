package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/bodgit/framestream/palette"
)

// Mode selects how cells are drawn.
type Mode int

// Render modes.
const (
	// Block fills each cell with its palette color.
	Block Mode = iota
	// Text draws a glyph chosen by luminance, dark on light.
	Text
	// TextInverse draws a glyph chosen by inverted luminance, light on
	// dark.
	TextInverse
	// Size draws a dark square that shrinks as luminance rises.
	Size
	// SizeInverse draws a light square that grows with luminance.
	SizeInverse
	// Differential redraws every cell with a marker behind changed cells.
	Differential
	numModes
)

var tokens = [numModes]string{
	Block:        "block",
	Text:         "text",
	TextInverse:  "text_inverse",
	Size:         "size",
	SizeInverse:  "size_inverse",
	Differential: "diff",
}

// ParseMode returns the mode for a token. Unknown tokens select Block.
func ParseMode(s string) Mode {
	for m, t := range tokens {
		if strings.EqualFold(t, s) {
			return Mode(m)
		}
	}
	return Block
}

// Modes returns every mode token in order.
func Modes() []string {
	return append([]string(nil), tokens[:]...)
}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return tokens[Block]
	}
	return tokens[m]
}

// Next returns the following mode, wrapping around.
func (m Mode) Next() Mode {
	return (m + 1) % numModes
}

func (m Mode) text() bool {
	return m == Text || m == TextInverse
}

func (m Mode) style() Style {
	if m == TextInverse {
		return Inverse
	}
	return Normal
}

func (m Mode) background() color.Color {
	switch m {
	case TextInverse, SizeInverse:
		return color.Black
	}
	return color.White
}

var (
	markerColor = color.RGBA{0xff, 0x00, 0x00, 0xff}
	darkColor   = color.Black
	lightColor  = color.White
)

// A strategy draws a single non-transparent cell.
type strategy func(r *Renderer, dst Surface, cell image.Rectangle, index byte) error

var strategies = [numModes]strategy{
	Block:        drawBlock,
	Text:         drawText,
	TextInverse:  drawTextInverse,
	Size:         drawSize,
	SizeInverse:  drawSizeInverse,
	Differential: drawDifferential,
}

func drawBlock(_ *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	dst.FillRect(cell, palette.Color(index))
	return nil
}

func drawGlyph(r *Renderer, dst Surface, cell image.Rectangle, l float64) error {
	b := palette.Bucket(l)
	if palette.IsBlank(b) {
		return nil
	}
	return r.sprites.Blit(dst, b, cell.Min.X, cell.Min.Y, r.scale)
}

func drawText(r *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	return drawGlyph(r, dst, cell, palette.Luminance(index))
}

func drawTextInverse(r *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	return drawGlyph(r, dst, cell, 1-palette.Luminance(index))
}

// Centered square with a side of l * cell size
func square(cell image.Rectangle, l float64) image.Rectangle {
	size := cell.Dx()
	side := int(math.Round(float64(size) * l))
	pad := (size - side) / 2
	min := cell.Min.Add(image.Pt(pad, pad))
	return image.Rectangle{min, min.Add(image.Pt(side, side))}
}

func drawSize(_ *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	if sq := square(cell, 1-palette.Luminance(index)); !sq.Empty() {
		dst.FillRect(sq, darkColor)
	}
	return nil
}

func drawSizeInverse(_ *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	if sq := square(cell, palette.Luminance(index)); !sq.Empty() {
		dst.FillRect(sq, lightColor)
	}
	return nil
}

func drawDifferential(_ *Renderer, dst Surface, cell image.Rectangle, index byte) error {
	n := cell.Dx() / 6
	if n == 0 && cell.Dx() > 2 {
		n = 1
	}
	inset := cell.Inset(n)
	if inset.Empty() {
		inset = cell
	}
	dst.FillRect(inset, palette.Color(index))
	return nil
}
