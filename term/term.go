/*
Package term presents frames on a text terminal.

Each character cell shows two vertically stacked pixels using an upper half
block glyph, the foreground color painting the upper pixel and the
background color the lower one. The bottom line of the terminal is kept for
a status message.
*/
package term

import (
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
)

const upperHalfBlock = '▀'

// Action is a user request read from the keyboard.
type Action int

// Supported actions.
const (
	Quit Action = iota
	Toggle
	Mode
	ScaleUp
	ScaleDown
	SeekBack
	SeekForward
)

var actionNames = [...]string{
	Quit:        "quit",
	Toggle:      "toggle",
	Mode:        "mode",
	ScaleUp:     "scale up",
	ScaleDown:   "scale down",
	SeekBack:    "seek back",
	SeekForward: "seek forward",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Screen is a terminal that frames can be presented on.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	status string

	actions chan Action
	done    chan struct{}
	once    sync.Once
}

// Open initializes the controlling terminal.
func Open() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newScreen(s)
}

func newScreen(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	s.SetStyle(tcell.StyleDefault)
	s.Clear()

	sc := &Screen{
		screen:  s,
		actions: make(chan Action, 8),
		done:    make(chan struct{}),
	}
	go sc.poll()

	return sc, nil
}

func keyAction(ev *tcell.EventKey) (Action, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Quit, true
	case tcell.KeyLeft:
		return SeekBack, true
	case tcell.KeyRight:
		return SeekForward, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return Quit, true
		case ' ':
			return Toggle, true
		case 'm', 'M':
			return Mode, true
		case '+', '=':
			return ScaleUp, true
		case '-', '_':
			return ScaleDown, true
		}
	}
	return 0, false
}

func (sc *Screen) poll() {
	defer close(sc.actions)
	for {
		switch ev := sc.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			sc.screen.Sync()
		case *tcell.EventKey:
			a, ok := keyAction(ev)
			if !ok {
				continue
			}
			select {
			case sc.actions <- a:
			case <-sc.done:
				return
			}
		}
	}
}

// Actions returns the channel of keyboard actions. It is closed when the
// screen is closed.
func (sc *Screen) Actions() <-chan Action {
	return sc.actions
}

// Status sets the message shown on the bottom line from the next Present.
func (sc *Screen) Status(text string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.status = text
}

func rgb(m *image.RGBA, x, y int) tcell.Color {
	c := m.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Present scales m to fit the terminal, preserving its aspect ratio, and
// draws it.
func (sc *Screen) Present(m *image.RGBA) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	s := sc.screen
	s.Clear()

	cols, rows := s.Size()
	rows--

	b := m.Bounds()
	if cols > 0 && rows > 0 && !b.Empty() {
		f := float64(cols) / float64(b.Dx())
		if v := float64(rows*2) / float64(b.Dy()); v < f {
			f = v
		}

		ow, oh := int(float64(b.Dx())*f), int(float64(b.Dy())*f)
		ox := (cols - ow) / 2

		for cy := 0; cy < (oh+1)/2; cy++ {
			y0 := b.Min.Y + int(float64(cy*2)/f)
			y1 := b.Min.Y + int(float64(cy*2+1)/f)
			if y1 >= b.Max.Y {
				y1 = b.Max.Y - 1
			}
			for cx := 0; cx < ow; cx++ {
				x := b.Min.X + int(float64(cx)/f)
				style := tcell.StyleDefault.Foreground(rgb(m, x, y0)).Background(rgb(m, x, y1))
				s.SetContent(ox+cx, cy, upperHalfBlock, nil, style)
			}
		}
	}

	for i, ch := range []rune(sc.status) {
		if i >= cols {
			break
		}
		s.SetContent(i, rows, ch, nil, tcell.StyleDefault)
	}

	s.Show()
}

// Close restores the terminal.
func (sc *Screen) Close() {
	sc.once.Do(func() {
		close(sc.done)
		sc.screen.Fini()
	})
}
