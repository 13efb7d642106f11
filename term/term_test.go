package term

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScreen(t *testing.T, w, h int) (*Screen, tcell.SimulationScreen) {
	sim := tcell.NewSimulationScreen("UTF-8")
	sc, err := newScreen(sim)
	require.NoError(t, err)
	sim.SetSize(w, h)
	t.Cleanup(sc.Close)
	return sc, sim
}

func TestPresent(t *testing.T) {
	sc, sim := newTestScreen(t, 20, 11)

	m := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		m.SetRGBA(x, 0, color.RGBA{0xff, 0, 0, 0xff})
		m.SetRGBA(x, 1, color.RGBA{0, 0, 0xff, 0xff})
	}

	sc.Status("frame 1")
	sc.Present(m)

	red, blue := tcell.NewRGBColor(0xff, 0, 0), tcell.NewRGBColor(0, 0, 0xff)

	tables := []struct {
		x, y   int
		fg, bg tcell.Color
	}{
		{0, 0, red, red},
		{19, 1, red, red},
		{5, 2, red, blue},
		{0, 4, blue, blue},
	}

	for _, table := range tables {
		r, _, style, _ := sim.GetContent(table.x, table.y)
		assert.Equal(t, upperHalfBlock, r)
		fg, bg, _ := style.Decompose()
		assert.Equal(t, table.fg, fg)
		assert.Equal(t, table.bg, bg)
	}

	// Below the picture is left blank
	r, _, _, _ := sim.GetContent(0, 5)
	assert.Equal(t, ' ', r)

	for i, ch := range "frame 1" {
		r, _, _, _ := sim.GetContent(i, 10)
		assert.Equal(t, ch, r)
	}
}

func TestPresentLetterbox(t *testing.T) {
	sc, sim := newTestScreen(t, 20, 5)

	m := image.NewRGBA(image.Rect(0, 0, 2, 2))
	sc.Present(m)

	// 2x2 pixels fit an 8x8 area centered in 20 columns
	r, _, _, _ := sim.GetContent(5, 0)
	assert.Equal(t, ' ', r)
	r, _, _, _ = sim.GetContent(6, 0)
	assert.Equal(t, upperHalfBlock, r)
	r, _, _, _ = sim.GetContent(13, 3)
	assert.Equal(t, upperHalfBlock, r)
	r, _, _, _ = sim.GetContent(14, 3)
	assert.Equal(t, ' ', r)
}

func TestActions(t *testing.T) {
	sc, sim := newTestScreen(t, 10, 10)

	tables := []struct {
		key  tcell.Key
		ch   rune
		want Action
	}{
		{tcell.KeyRune, ' ', Toggle},
		{tcell.KeyRune, 'm', Mode},
		{tcell.KeyRune, '+', ScaleUp},
		{tcell.KeyRune, '-', ScaleDown},
		{tcell.KeyLeft, 0, SeekBack},
		{tcell.KeyRight, 0, SeekForward},
		{tcell.KeyRune, 'q', Quit},
		{tcell.KeyEscape, 0, Quit},
	}

	for _, table := range tables {
		sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
		sim.InjectKey(table.key, table.ch, tcell.ModNone)
		select {
		case a := <-sc.Actions():
			assert.Equal(t, table.want, a, table.want.String())
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for", table.want)
		}
	}
}

func TestClose(t *testing.T) {
	sc, _ := newTestScreen(t, 10, 10)
	sc.Close()

	select {
	case _, ok := <-sc.Actions():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("actions not closed")
	}
}
