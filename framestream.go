/*
Package framestream is a library for streaming palette-indexed video stored
as fixed-size compressed chunks and rendering it incrementally.

A frame is a Width by Height grid of palette indices, one byte per cell.
FramesPerChunk consecutive frames are concatenated and compressed into a
chunk, and chunks are fetched, decompressed and cached on demand as playback
progresses.
*/
package framestream

import (
	"errors"
	"fmt"
)

// Default dimensions of the shipped clip.
const (
	Width          = 160
	Height         = 120
	FramesPerChunk = 30 * 10
	FPS            = 30
)

// DefaultPrefix is the resource prefix used when naming chunks.
const DefaultPrefix = "bad_apple_160x120_xterm256_chunk"

var (
	// ErrChunkPending is returned when the chunk owning a frame has not
	// finished loading yet. The caller should try again later.
	ErrChunkPending = errors.New("framestream: chunk not yet loaded")
	// ErrChunkFailed is wrapped by errors for chunks that could not be
	// loaded and will not be retried.
	ErrChunkFailed = errors.New("framestream: chunk failed to load")
	// ErrEndOfClip is returned for frames beyond the end of the clip.
	ErrEndOfClip = errors.New("framestream: end of clip")
	// ErrNoChunk is returned by a Source when a chunk does not exist.
	ErrNoChunk = errors.New("framestream: no such chunk")

	errBadChunkSize = errors.New("framestream: bad chunk size")
)

// ChunkError records a failed attempt at loading a chunk.
type ChunkError struct {
	Index   int
	Attempt int
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (attempt %d): %v", e.Index, e.Attempt, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Geometry describes the frame grid and how frames are grouped into chunks.
type Geometry struct {
	Width          int
	Height         int
	FramesPerChunk int
}

// DefaultGeometry is the geometry of the shipped clip.
var DefaultGeometry = Geometry{
	Width:          Width,
	Height:         Height,
	FramesPerChunk: FramesPerChunk,
}

// FrameSize returns the number of bytes in a frame.
func (g Geometry) FrameSize() int {
	return g.Width * g.Height
}

// ChunkSize returns the number of bytes in a full chunk.
func (g Geometry) ChunkSize() int {
	return g.FramesPerChunk * g.FrameSize()
}

// ChunkIndex returns the index of the chunk holding frame i.
func (g Geometry) ChunkIndex(i int) int {
	return i / g.FramesPerChunk
}

// Offset returns the position of frame i within its chunk.
func (g Geometry) Offset(i int) int {
	return i % g.FramesPerChunk
}

// Span returns the byte range of frame i within its chunk.
func (g Geometry) Span(i int) (int, int) {
	start := g.Offset(i) * g.FrameSize()
	return start, start + g.FrameSize()
}

// ChunkName formats the resource name of a chunk.
func ChunkName(prefix string, index int, suffix string) string {
	return fmt.Sprintf("%s%02d%s", prefix, index, suffix)
}
