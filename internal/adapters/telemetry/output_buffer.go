package telemetry

import (
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// ErrSpanEnded is returned when an action writes to the output of a span that has ended.
var ErrSpanEnded = zerr.New("span output is closed")

const (
	// DefaultChunkSize is how many bytes of action output are held before they are forwarded.
	DefaultChunkSize = 4096
	// DefaultFlushDelay is how long output may wait before it is forwarded.
	DefaultFlushDelay = 50 * time.Millisecond
)

// OutputBuffer coalesces an action's output into chunks for the renderer.
// A chunk is forwarded once it reaches the chunk size, or once the flush delay has
// passed since the first byte was buffered. No goroutine runs while the buffer is empty.
type OutputBuffer struct {
	chunkSize int
	delay     time.Duration
	forward   func([]byte)

	mu     sync.Mutex
	buf    []byte
	timer  *time.Timer
	closed bool
}

// NewOutputBuffer creates a buffer calling forward with each chunk.
// Non-positive limits select the defaults.
func NewOutputBuffer(chunkSize int, delay time.Duration, forward func([]byte)) *OutputBuffer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	return &OutputBuffer{chunkSize: chunkSize, delay: delay, forward: forward}
}

// Write buffers p, forwarding the buffer when it is full.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrSpanEnded
	}

	b.buf = append(b.buf, p...)
	if len(b.buf) >= b.chunkSize {
		b.flushLocked()
		return len(p), nil
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, b.Flush)
	}
	return len(p), nil
}

// Flush forwards whatever is buffered.
func (b *OutputBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.flushLocked()
	}
}

// Close forwards the remaining output. Later writes fail with ErrSpanEnded.
func (b *OutputBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.flushLocked()
	b.closed = true
	return nil
}

// flushLocked runs with mu held so chunks reach forward in order; forward must not block.
func (b *OutputBuffer) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.buf) == 0 {
		return
	}

	chunk := b.buf
	b.buf = nil
	if b.forward != nil {
		b.forward(chunk)
	}
}
