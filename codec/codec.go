/*
Package codec implements the compression formats used for chunk payloads.

A chunk payload is a plain compressed byte stream with no additional framing;
the codec is identified by the resource suffix.
*/
package codec

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"sync"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
)

// Codec identifies a payload compression format.
type Codec int

// Supported codecs.
const (
	Zstd Codec = iota
	Gzip
	Bzip2
)

var errUnknown = errors.New("codec: unknown codec")

var names = map[Codec]string{
	Zstd:  "zstd",
	Gzip:  "gzip",
	Bzip2: "bzip2",
}

var suffixes = map[Codec]string{
	Zstd:  ".zst",
	Gzip:  ".gz",
	Bzip2: ".bz2",
}

func (c Codec) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Codec(%d)", int(c))
}

// Suffix returns the resource suffix including the leading dot.
func (c Codec) Suffix() string {
	return suffixes[c]
}

// ParseCodec returns the codec with the given name.
func ParseCodec(s string) (Codec, error) {
	for c, n := range names {
		if strings.EqualFold(n, s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknown, s)
}

// ForSuffix returns the codec used for resources ending in suffix.
func ForSuffix(suffix string) (Codec, error) {
	for c, s := range suffixes {
		if strings.EqualFold(s, suffix) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: suffix %q", errUnknown, suffix)
}

var zstdDecoders = sync.Pool{
	New: func() interface{} {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

var zstdEncoders = sync.Pool{
	New: func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		return enc
	},
}

// Decompress reads the whole compressed stream from r.
func (c Codec) Decompress(r io.Reader) ([]byte, error) {
	switch c {
	case Zstd:
		dec := zstdDecoders.Get().(*zstd.Decoder)
		defer zstdDecoders.Put(dec)

		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(dec); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return ioutil.ReadAll(zr)
	case Bzip2:
		br, err := bzip2.NewReader(r, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, err
		}
		defer br.Close()
		return ioutil.ReadAll(br)
	}
	return nil, errUnknown
}

// Compress writes p to w as a single compressed stream.
func (c Codec) Compress(w io.Writer, p []byte) error {
	var wc io.WriteCloser
	switch c {
	case Zstd:
		enc := zstdEncoders.Get().(*zstd.Encoder)
		defer zstdEncoders.Put(enc)

		enc.Reset(w)
		wc = enc
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		wc = zw
	case Bzip2:
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: 9})
		if err != nil {
			return err
		}
		wc = bw
	default:
		return errUnknown
	}

	if _, err := wc.Write(p); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}
