package framestream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/framestream/codec"
)

const mediaDir = "media"

// Source retrieves the compressed payload of a chunk.
type Source interface {
	// Fetch returns the compressed payload of the chunk along with the
	// codec needed to decompress it. A missing chunk is reported with
	// ErrNoChunk.
	Fetch(ctx context.Context, index int) (io.ReadCloser, codec.Codec, error)
}

// HTTPSource fetches chunks from a web server. Chunks are expected at
// <Base>/media/<Prefix><NN><suffix>.
type HTTPSource struct {
	Base   string
	Prefix string
	Codec  codec.Codec
	Client *http.Client
}

// URL returns the location of the chunk.
func (s *HTTPSource) URL(index int) (string, error) {
	u, err := url.Parse(s.Base)
	if err != nil {
		return "", err
	}
	u.Path = path.Join("/", u.Path, mediaDir, ChunkName(s.Prefix, index, s.Codec.Suffix()))
	return u.String(), nil
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, index int) (io.ReadCloser, codec.Codec, error) {
	u, err := s.URL(index)
	if err != nil {
		return nil, s.Codec, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, s.Codec, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, s.Codec, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, s.Codec, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, s.Codec, ErrNoChunk
	default:
		resp.Body.Close()
		return nil, s.Codec, fmt.Errorf("fetching %s: %s", u, resp.Status)
	}
}

// DirSource reads chunks from a local directory laid out the same way as an
// HTTPSource; a "media" subdirectory is used if present.
type DirSource struct {
	Dir    string
	Prefix string
	Codec  codec.Codec
}

// Path returns the filename of the chunk.
func (s *DirSource) Path(index int) string {
	dir := s.Dir
	if info, err := os.Stat(filepath.Join(dir, mediaDir)); err == nil && info.IsDir() {
		dir = filepath.Join(dir, mediaDir)
	}
	return filepath.Join(dir, ChunkName(s.Prefix, index, s.Codec.Suffix()))
}

// Fetch implements Source.
func (s *DirSource) Fetch(ctx context.Context, index int) (io.ReadCloser, codec.Codec, error) {
	f, err := os.Open(s.Path(index))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, s.Codec, ErrNoChunk
		}
		return nil, s.Codec, err
	}
	return f, s.Codec, nil
}

// NewSource returns an HTTPSource if base looks like a URL, otherwise a
// DirSource.
func NewSource(base, prefix string, c codec.Codec) Source {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return &HTTPSource{
			Base:   base,
			Prefix: prefix,
			Codec:  c,
		}
	}
	return &DirSource{
		Dir:    base,
		Prefix: prefix,
		Codec:  c,
	}
}
