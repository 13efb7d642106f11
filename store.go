package framestream

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ChunkState is the load state of a chunk.
type ChunkState int

// Chunk states.
const (
	Absent ChunkState = iota
	Pending
	Ready
	Failed
)

func (s ChunkState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("ChunkState(%d)", int(s))
}

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	prefetchFraction  = 0.6
	minChunks         = 2
)

var errNegativeFrame = errors.New("framestream: negative frame index")

// StoreOptions configures a Store. The zero value is usable.
type StoreOptions struct {
	// Geometry defaults to DefaultGeometry
	Geometry Geometry
	// MaxChunks bounds the number of decompressed chunks kept in memory,
	// least recently used first out. Zero keeps every chunk, otherwise
	// at least two are kept so the current and prefetched chunks fit.
	MaxChunks int
	// MaxRetries is the number of load attempts before a chunk is
	// considered permanently failed.
	MaxRetries int
	// RetryDelay is the minimum time between load attempts.
	RetryDelay time.Duration
	Logger     hclog.Logger
}

type entry struct {
	index    int
	state    ChunkState
	data     []byte
	err      error
	attempts int
	failedAt time.Time
	done     chan struct{}
	elem     *list.Element
}

// Store fetches, decompresses and caches chunks.
type Store struct {
	src    Source
	geom   Geometry
	opts   StoreOptions
	logger hclog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	chunks map[int]*entry
	lru    *list.List

	now func() time.Time
}

// NewStore returns a Store reading chunks from src.
func NewStore(src Source, opts StoreOptions) *Store {
	if opts.Geometry == (Geometry{}) {
		opts.Geometry = DefaultGeometry
	}
	if opts.MaxChunks > 0 && opts.MaxChunks < minChunks {
		opts.MaxChunks = minChunks
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		src:    src,
		geom:   opts.Geometry,
		opts:   opts,
		logger: opts.Logger,
		ctx:    ctx,
		cancel: cancel,
		chunks: make(map[int]*entry),
		lru:    list.New(),
		now:    time.Now,
	}
}

// Geometry returns the frame geometry used by the store.
func (s *Store) Geometry() Geometry {
	return s.geom
}

// Request starts loading a chunk unless it is already pending or ready. A
// failed chunk is retried once RetryDelay has passed, up to MaxRetries
// attempts.
func (s *Store) Request(index int) {
	if index < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.chunks[index]
	switch {
	case !ok:
		e = &entry{index: index}
		s.chunks[index] = e
	case e.state == Failed && s.retryable(e):
		s.logger.Debug("retrying chunk", "chunk", index, "attempt", e.attempts+1)
	default:
		return
	}

	e.state = Pending
	e.err = nil
	e.attempts++
	e.done = make(chan struct{})

	s.wg.Add(1)
	go s.load(e, e.attempts)
}

// RequestForFrame requests the chunk holding frame i.
func (s *Store) RequestForFrame(i int) {
	s.Request(s.geom.ChunkIndex(i))
}

func (s *Store) retryable(e *entry) bool {
	if errors.Is(e.err, ErrNoChunk) || e.attempts >= s.opts.MaxRetries {
		return false
	}
	return s.now().Sub(e.failedAt) >= s.opts.RetryDelay
}

func (s *Store) fetch(index int) ([]byte, error) {
	rc, c, err := s.src.Fetch(s.ctx, index)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := c.Decompress(rc)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}

	if n := len(b); n == 0 || n > s.geom.ChunkSize() || n%s.geom.FrameSize() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", errBadChunkSize, n)
	}

	return b, nil
}

func (s *Store) load(e *entry, attempt int) {
	defer s.wg.Done()

	s.logger.Debug("loading chunk", "chunk", e.index, "attempt", attempt)

	b, err := s.fetch(e.index)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(e.done)

	if err != nil {
		e.state = Failed
		e.err = &ChunkError{Index: e.index, Attempt: attempt, Err: err}
		e.failedAt = s.now()
		if errors.Is(err, ErrNoChunk) {
			s.logger.Debug("chunk does not exist", "chunk", e.index)
		} else {
			s.logger.Error("chunk failed to load", "chunk", e.index, "attempt", attempt, "error", err)
		}
		return
	}

	e.state = Ready
	e.data = b
	e.elem = s.lru.PushFront(e)
	s.logger.Debug("chunk ready", "chunk", e.index, "bytes", len(b))

	s.evict()
}

func (s *Store) evict() {
	if s.opts.MaxChunks <= 0 {
		return
	}
	for s.lru.Len() > s.opts.MaxChunks {
		e := s.lru.Remove(s.lru.Back()).(*entry)
		delete(s.chunks, e.index)
		s.logger.Debug("evicted chunk", "chunk", e.index)
	}
}

// Frame returns frame i as a slice of its chunk. The slice must not be
// modified.
func (s *Store) Frame(i int) ([]byte, error) {
	if i < 0 {
		return nil, errNegativeFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.chunks[s.geom.ChunkIndex(i)]
	if !ok {
		return nil, ErrChunkPending
	}

	switch e.state {
	case Ready:
		start, stop := s.geom.Span(i)
		if stop > len(e.data) {
			return nil, ErrEndOfClip
		}
		s.lru.MoveToFront(e.elem)
		return e.data[start:stop:stop], nil
	case Failed:
		switch {
		case errors.Is(e.err, ErrNoChunk):
			return nil, ErrEndOfClip
		case e.attempts >= s.opts.MaxRetries:
			return nil, fmt.Errorf("%w: %w", ErrChunkFailed, e.err)
		}
		return nil, e.err
	}

	return nil, ErrChunkPending
}

// Prefetch requests the chunk after the one holding frame i once playback
// is far enough into the current chunk.
func (s *Store) Prefetch(i int) {
	if i < 0 || float64(s.geom.Offset(i)) <= prefetchFraction*float64(s.geom.FramesPerChunk) {
		return
	}

	next := s.geom.ChunkIndex(i) + 1

	s.mu.Lock()
	_, ok := s.chunks[next]
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("prefetching chunk", "chunk", next, "frame", i)
		s.Request(next)
	}
}

// Load requests a chunk and waits until it is ready or has failed.
func (s *Store) Load(ctx context.Context, index int) error {
	s.Request(index)

	s.mu.Lock()
	e, ok := s.chunks[index]
	var done chan struct{}
	if ok {
		done = e.done
	}
	s.mu.Unlock()

	if !ok {
		// Negative index, or already evicted again
		return fmt.Errorf("%w: chunk %d", ErrChunkPending, index)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case e.state == Ready:
		return nil
	case e.err != nil:
		return e.err
	}
	return ErrChunkPending
}

// State returns the load state of a chunk.
func (s *Store) State(index int) ChunkState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.chunks[index]; ok {
		return e.state
	}
	return Absent
}

// Err returns the most recent load error of a chunk, if any.
func (s *Store) Err(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.chunks[index]; ok {
		return e.err
	}
	return nil
}

// Close cancels any fetches in flight and waits for them to finish.
func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
