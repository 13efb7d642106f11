/*
Package ansi implements a decoder for terminal video streams drawn with
xterm 256 color half blocks.

Each terminal line holds two rows of cells: the background color of a cell
paints the upper row and the foreground color of the lower half block glyph
paints the lower row. A cursor jump back to the first line of the picture
marks the start of the next frame.
*/
package ansi

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const esc = 0x1b

var (
	errBadSequence = errors.New("ansi: unsupported escape sequence")

	lowerHalfBlock = []byte("▄")
	fgPrefix       = []byte("[38;5;")
	bgPrefix       = []byte("[48;5;")
)

// Sequences that carry no picture information.
var ignored = [][]byte{
	[]byte("[?25l"),
	[]byte("[?25h"),
	[]byte("[2J"),
	[]byte("[0m"),
	[]byte("[H"),
}

// Decoder reads frames from a terminal stream.
type Decoder struct {
	r             *bufio.Reader
	width, height int

	// Origin is the terminal line holding the top of the picture. If
	// zero it is taken from the first cursor movement.
	Origin int

	frame   []byte
	cmd     []byte
	line    int
	x       int
	painted bool
	done    bool
}

// NewDecoder returns a decoder for frames width by height cells.
func NewDecoder(r io.Reader, width, height int) *Decoder {
	return &Decoder{
		r:      bufio.NewReader(r),
		width:  width,
		height: height,
		frame:  make([]byte, width*height),
	}
}

func (d *Decoder) emit() []byte {
	d.painted = false
	return append([]byte(nil), d.frame...)
}

// Next returns the next complete frame, or io.EOF when the stream is
// exhausted. Cells not painted in a frame keep their previous value.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	for {
		b, err := d.r.ReadByte()
		if err == io.EOF {
			d.done = true
			if _, err := d.process(); err != nil {
				return nil, err
			}
			if d.painted {
				return d.emit(), nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		if b != esc {
			d.cmd = append(d.cmd, b)
			continue
		}

		eof, err := d.process()
		if err != nil {
			return nil, err
		}
		if eof {
			return d.emit(), nil
		}
	}
}

// process interprets the buffered sequence and reports whether it ended a
// frame.
func (d *Decoder) process() (bool, error) {
	cmd := bytes.TrimRight(d.cmd, "\r\n")
	defer func() {
		d.cmd = d.cmd[:0]
	}()

	if len(cmd) == 0 {
		return false, nil
	}

	for _, seq := range ignored {
		if bytes.Equal(cmd, seq) {
			return false, nil
		}
	}

	switch {
	case cmd[len(cmd)-1] == 'f':
		return d.moveCursor(cmd)
	case bytes.HasPrefix(cmd, fgPrefix):
		return false, d.paint(cmd, true)
	case bytes.HasPrefix(cmd, bgPrefix):
		return false, d.paint(cmd, false)
	}

	return false, fmt.Errorf("%w: %q", errBadSequence, cmd)
}

func (d *Decoder) moveCursor(cmd []byte) (bool, error) {
	if len(cmd) < 3 || cmd[0] != '[' {
		return false, fmt.Errorf("%w: %q", errBadSequence, cmd)
	}

	fields := bytes.Split(cmd[1:len(cmd)-1], []byte(";"))
	if len(fields) != 2 {
		return false, fmt.Errorf("%w: %q", errBadSequence, cmd)
	}

	line, err := strconv.Atoi(string(fields[0]))
	if err != nil {
		return false, fmt.Errorf("%w: %q", errBadSequence, cmd)
	}

	if d.Origin == 0 {
		d.Origin = line
	}
	d.line = line
	d.x = 0

	return line == d.Origin && d.painted, nil
}

func (d *Decoder) paint(cmd []byte, fg bool) error {
	cmd = bytes.TrimSuffix(cmd, lowerHalfBlock)
	if cmd[len(cmd)-1] != 'm' {
		return fmt.Errorf("%w: %q", errBadSequence, cmd)
	}

	c, err := strconv.Atoi(string(cmd[len(fgPrefix) : len(cmd)-1]))
	if err != nil || c < 0 || c > 0xff {
		return fmt.Errorf("%w: %q", errBadSequence, cmd)
	}

	y := (d.line - d.Origin) * 2
	if fg {
		y++
	}

	if d.x >= 0 && d.x < d.width && y >= 0 && y < d.height {
		d.frame[y*d.width+d.x] = byte(c)
	}
	d.painted = true

	if fg {
		d.x++
	}

	return nil
}
