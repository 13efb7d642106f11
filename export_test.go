package framestream

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/bodgit/framestream/palette"
	"github.com/bodgit/framestream/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDelay(t *testing.T) {
	total := 0
	for n := 0; n < 30; n++ {
		d := frameDelay(n, 30)
		assert.Contains(t, []int{3, 4}, d)
		total += d
	}
	assert.Equal(t, 100, total)
}

func TestPaletted(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			m.SetRGBA(x, y, color.RGBA{byte(x * 8), byte(y * 8), 0, 0xff})
		}
	}

	// 1024 distinct colors need quantizing
	pm := paletted(m)
	assert.LessOrEqual(t, len(pm.Palette), maxColors)
	assert.Equal(t, m.Bounds(), pm.Bounds())

	// Few enough colors are kept exactly
	small := image.NewRGBA(image.Rect(4, 4, 8, 8))
	small.SetRGBA(4, 4, color.RGBA{1, 2, 3, 0xff})
	pm = paletted(small)
	assert.Equal(t, image.Rect(0, 0, 4, 4), pm.Bounds())
	assert.Len(t, pm.Palette, 2)
	assert.Equal(t, color.RGBA{1, 2, 3, 0xff}, pm.At(0, 0))
}

func TestExport(t *testing.T) {
	src := newMemSource()
	src.add(t, 0, toyChunk(1))
	src.add(t, 1, toyChunk(100)[:2*toy.FrameSize()])

	s := newToyStore(src, StoreOptions{MaxRetries: 1})
	defer s.Close()

	var b bytes.Buffer
	n, err := Export(context.Background(), &b, s, ExportOptions{
		Start:  3,
		Mode:   render.Block,
		Scale:  2,
		Logger: testLogger,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	anim, err := gif.DecodeAll(&b)
	require.NoError(t, err)
	require.Len(t, anim.Image, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 2), anim.Image[0].Bounds())

	// Frame 3 starts at cell value 1+12
	r, g, bl, _ := anim.Image[0].At(0, 0).RGBA()
	er, eg, eb, _ := palette.Color(13).RGBA()
	assert.Equal(t, []uint32{er, eg, eb}, []uint32{r, g, bl})
}

func TestExportCount(t *testing.T) {
	src := newMemSource()
	src.add(t, 0, toyChunk(1))

	s := newToyStore(src, StoreOptions{MaxRetries: 1})
	defer s.Close()

	var b bytes.Buffer
	n, err := Export(context.Background(), &b, s, ExportOptions{Count: 2, Logger: testLogger})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExportNoFrames(t *testing.T) {
	s := newToyStore(newMemSource(), StoreOptions{MaxRetries: 1})
	defer s.Close()

	var b bytes.Buffer
	_, err := Export(context.Background(), &b, s, ExportOptions{Logger: testLogger})
	assert.Equal(t, errNoFrames, err)
}
