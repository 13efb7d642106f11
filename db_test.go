package framestream

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/framestream/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChunk(t *testing.T, dir, name string, c codec.Codec, plain []byte) {
	var b bytes.Buffer
	require.NoError(t, c.Compress(&b, plain))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), b.Bytes(), 0o644))
}

func TestDB(t *testing.T) {
	dir := t.TempDir()

	writeChunk(t, dir, "clip00.zst", codec.Zstd, toyChunk(1))
	writeChunk(t, dir, "clip01.gz", codec.Gzip, toyChunk(1))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "clip.txt"), []byte("hello"), 0o644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "clipXX.zst"), []byte("hello"), 0o644))

	db, err := NewDB(filepath.Join(dir, "chunks.db"), testLogger)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.ImportDir(dir, "clip")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Importing again replaces rather than duplicates
	_, err = db.ImportDir(dir, "clip")
	require.NoError(t, err)
	n, err = db.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s := newToyStore(db, StoreOptions{MaxRetries: 1})
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), 0))
	require.NoError(t, s.Load(context.Background(), 1))

	a, err := s.Frame(2)
	require.NoError(t, err)
	b, err := s.Frame(7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	err = s.Load(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrNoChunk))
}

func TestDBChecksum(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "chunks.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	var b bytes.Buffer
	require.NoError(t, codec.Zstd.Compress(&b, toyChunk(1)))
	require.NoError(t, db.Add(0, codec.Zstd, b.Bytes()))

	rc, c, err := db.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, codec.Zstd, c)
	rc.Close()

	_, err = db.db.Exec("UPDATE chunk SET payload = ? WHERE idx = 0", []byte("tampered"))
	require.NoError(t, err)

	_, _, err = db.Fetch(context.Background(), 0)
	assert.Equal(t, errChecksum, err)
}
