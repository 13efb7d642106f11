package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte{0, 5, 5, 200, 16, 231}, 4096)

	for _, c := range []Codec{Zstd, Gzip, Bzip2} {
		t.Run(c.String(), func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, c.Compress(&b, plain))
			assert.Less(t, b.Len(), len(plain))

			out, err := c.Decompress(&b)
			require.NoError(t, err)
			assert.Equal(t, plain, out)
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	for _, c := range []Codec{Zstd, Gzip, Bzip2} {
		_, err := c.Decompress(strings.NewReader("definitely not compressed"))
		assert.Error(t, err, c.String())
	}
}

func TestParse(t *testing.T) {
	tables := []struct {
		name   string
		suffix string
		codec  Codec
	}{
		{"zstd", ".zst", Zstd},
		{"gzip", ".gz", Gzip},
		{"BZIP2", ".BZ2", Bzip2},
	}

	for _, table := range tables {
		c, err := ParseCodec(table.name)
		require.NoError(t, err)
		assert.Equal(t, table.codec, c)

		c, err = ForSuffix(table.suffix)
		require.NoError(t, err)
		assert.Equal(t, table.codec, c)
	}

	_, err := ParseCodec("lz4")
	assert.Error(t, err)

	_, err = ForSuffix(".xz")
	assert.Error(t, err)

	assert.Equal(t, ".zst", Zstd.Suffix())
	assert.Equal(t, "Codec(9)", Codec(9).String())
}
