package framestream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bodgit/framestream/ansi"
	"github.com/bodgit/framestream/codec"
	"github.com/hashicorp/go-hclog"
)

const defaultWorkers = 4

var (
	errPackCancelled = errors.New("framestream: pack cancelled")
	errShortFrame    = errors.New("framestream: truncated frame")
)

// PackOptions configures Pack.
type PackOptions struct {
	Geometry Geometry
	Prefix   string
	Codec    codec.Codec
	// Workers is the number of concurrent compressors, defaults to 4.
	Workers int
	// ANSI selects an xterm 256 color half block terminal stream as
	// input rather than raw frames.
	ANSI   bool
	Logger hclog.Logger
}

type rawChunk struct {
	index int
	data  []byte
}

type frameReader interface {
	Next() ([]byte, error)
}

type rawReader struct {
	r    io.Reader
	size int
}

func (r *rawReader) Next() ([]byte, error) {
	b := make([]byte, r.size)
	switch _, err := io.ReadFull(r.r, b); err {
	case nil:
		return b, nil
	case io.ErrUnexpectedEOF:
		return nil, errShortFrame
	default:
		return nil, err
	}
}

func readChunks(ctx context.Context, fr frameReader, g Geometry, logger hclog.Logger) (<-chan rawChunk, <-chan error, error) {
	out := make(chan rawChunk)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		send := func(c rawChunk) error {
			logger.Debug("chunk read", "index", c.index, "frames", len(c.data)/g.FrameSize())
			select {
			case out <- c:
				return nil
			case <-ctx.Done():
				return errPackCancelled
			}
		}

		var (
			buf    = make([]byte, 0, g.ChunkSize())
			index  int
			frames int
		)
		for {
			frame, err := fr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				errc <- fmt.Errorf("frame %d: %w", frames, err)
				return
			}
			if len(frame) != g.FrameSize() {
				errc <- fmt.Errorf("frame %d: %w", frames, errBadChunkSize)
				return
			}

			buf = append(buf, frame...)
			frames++

			if len(buf) == g.ChunkSize() {
				if err := send(rawChunk{index, buf}); err != nil {
					errc <- err
					return
				}
				buf = make([]byte, 0, g.ChunkSize())
				index++
			}
		}

		if len(buf) > 0 {
			if err := send(rawChunk{index, buf}); err != nil {
				errc <- err
			}
		}
	}()
	return out, errc, nil
}

func writeChunkFile(file string, c codec.Codec, data []byte) error {
	var b bytes.Buffer
	if err := c.Compress(&b, data); err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(b.Bytes()); err != nil {
		return err
	}

	return f.Close()
}

func chunkWorker(ctx context.Context, in <-chan rawChunk, dir string, opts PackOptions, n *atomic.Int64) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for c := range in {
			file := filepath.Join(dir, ChunkName(opts.Prefix, c.index, opts.Codec.Suffix()))
			if err := writeChunkFile(file, opts.Codec, c.data); err != nil {
				errc <- &ChunkError{Index: c.index, Attempt: 1, Err: err}
				return
			}
			opts.Logger.Info("chunk written", "index", c.index, "file", file)
			n.Add(1)

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Pack reads frames from r, groups them into chunks and writes each chunk
// compressed into dir. It returns the number of chunks written. The final
// chunk may hold fewer frames than the rest.
func Pack(ctx context.Context, r io.Reader, dir string, opts PackOptions) (int, error) {
	if opts.Geometry == (Geometry{}) {
		opts.Geometry = DefaultGeometry
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	var fr frameReader = &rawReader{r: r, size: opts.Geometry.FrameSize()}
	if opts.ANSI {
		fr = ansi.NewDecoder(r, opts.Geometry.Width, opts.Geometry.Height)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	chunks, errc, err := readChunks(ctx, fr, opts.Geometry, opts.Logger)
	if err != nil {
		return 0, err
	}
	errcList = append(errcList, errc)

	var n atomic.Int64
	for i := 0; i < opts.Workers; i++ {
		errc, err := chunkWorker(ctx, chunks, dir, opts, &n)
		if err != nil {
			return 0, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return int(n.Load()), err
	}

	return int(n.Load()), ctx.Err()
}
