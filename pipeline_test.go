package framestream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/framestream/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	dir := t.TempDir()

	// Two full chunks and one short chunk of two frames
	raw := make([]byte, 12*toy.FrameSize())
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	n, err := Pack(context.Background(), bytes.NewReader(raw), dir, PackOptions{
		Geometry: toy,
		Prefix:   "clip",
		Codec:    codec.Gzip,
		Workers:  2,
		Logger:   testLogger,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for i := 0; i < 3; i++ {
		assert.FileExists(t, filepath.Join(dir, ChunkName("clip", i, ".gz")))
	}

	s := newToyStore(NewSource(dir, "clip", codec.Gzip), StoreOptions{MaxRetries: 1})
	defer s.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Load(context.Background(), i))
	}

	for i := 0; i < 12; i++ {
		frame, err := s.Frame(i)
		require.NoError(t, err)
		assert.Equal(t, raw[i*toy.FrameSize():(i+1)*toy.FrameSize()], frame)
	}

	_, err = s.Frame(12)
	assert.Equal(t, ErrEndOfClip, err)
}

func TestPackANSI(t *testing.T) {
	dir := t.TempDir()

	g := Geometry{Width: 2, Height: 2, FramesPerChunk: 2}

	var b bytes.Buffer
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "\x1b[5;1f\x1b[48;5;%dm\x1b[38;5;%dm▄\x1b[48;5;%dm\x1b[38;5;%dm▄", i+1, i+2, i+3, i+4)
	}

	n, err := Pack(context.Background(), &b, dir, PackOptions{
		Geometry: g,
		Codec:    codec.Zstd,
		ANSI:     true,
		Logger:   testLogger,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s := NewStore(NewSource(dir, DefaultPrefix, codec.Zstd), StoreOptions{Geometry: g, Logger: testLogger})
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), 1))
	frame, err := s.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 5, 4, 6}, frame)
}

func TestPackTruncated(t *testing.T) {
	dir := t.TempDir()

	raw := make([]byte, 3*toy.FrameSize()+1)

	_, err := Pack(context.Background(), bytes.NewReader(raw), dir, PackOptions{
		Geometry: toy,
		Codec:    codec.Zstd,
		Logger:   testLogger,
	})
	assert.True(t, errors.Is(err, errShortFrame))
}

func TestPackCancelled(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := make([]byte, 20*toy.FrameSize())

	_, err := Pack(ctx, bytes.NewReader(raw), dir, PackOptions{
		Geometry: toy,
		Codec:    codec.Zstd,
		Logger:   testLogger,
	})
	assert.Error(t, err)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
