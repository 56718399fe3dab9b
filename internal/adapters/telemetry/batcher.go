// Package telemetry turns process runs into spans and streams their output
// to the active renderer.
package telemetry

import (
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// ErrBatcherClosed is returned when writing to a closed OutputBatcher.
var ErrBatcherClosed = zerr.New("output batcher is closed")

const (
	defaultChunkSize = 4096
	defaultLinger    = 50 * time.Millisecond
)

// OutputBatcher coalesces the small writes of a child process into chunks.
// A chunk is emitted once it reaches the chunk size, or once linger has
// passed since its first byte was written. Chunks are emitted in write order.
type OutputBatcher struct {
	chunkSize int
	linger    time.Duration
	emit      func([]byte)

	mu     sync.Mutex
	buf    []byte
	timer  *time.Timer
	closed bool
}

// NewOutputBatcher returns a batcher calling emit for every chunk. A
// non-positive chunkSize or linger selects the defaults. emit runs with the
// batcher locked and must not block.
func NewOutputBatcher(chunkSize int, linger time.Duration, emit func([]byte)) *OutputBatcher {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if linger <= 0 {
		linger = defaultLinger
	}
	return &OutputBatcher{
		chunkSize: chunkSize,
		linger:    linger,
		emit:      emit,
	}
}

// Write buffers p. It never blocks on the consumer.
func (b *OutputBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBatcherClosed
	}

	b.buf = append(b.buf, p...)
	if len(b.buf) >= b.chunkSize {
		b.emitLocked()
		return len(p), nil
	}

	if b.timer == nil && len(b.buf) > 0 {
		b.timer = time.AfterFunc(b.linger, b.Flush)
	}
	return len(p), nil
}

// Flush emits whatever is buffered.
func (b *OutputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.emitLocked()
	}
}

// Close emits the remaining output. Later writes fail with ErrBatcherClosed.
func (b *OutputBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.emitLocked()
	b.closed = true
	return nil
}

func (b *OutputBatcher) emitLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.buf) == 0 {
		return
	}

	chunk := b.buf
	b.buf = nil
	if b.emit != nil {
		b.emit(chunk)
	}
}
