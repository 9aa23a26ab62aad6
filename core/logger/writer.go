package logger

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// asyncWriter buffers log lines and flushes them to all sinks in the
// background so handlers never block on slow file writes.
type asyncWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

func newAsyncWriter(outputs []io.Writer, size int) *asyncWriter {
	if size <= 0 {
		size = 32 * 1024
	}
	var out io.Writer
	switch len(outputs) {
	case 0:
		out = io.Discard
	case 1:
		out = outputs[0]
	default:
		out = io.MultiWriter(outputs...)
	}
	w := &asyncWriter{
		buf:  bufio.NewWriterSize(out, size),
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.flushLoop()
	return w
}

func (w *asyncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

// Flush forces buffered output to the underlying sinks.
func (w *asyncWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close stops the background flusher and drains the buffer.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	err := w.buf.Flush()
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return err
}

func (w *asyncWriter) flushLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			if !w.closed {
				_ = w.buf.Flush()
			}
			w.mu.Unlock()
		}
	}
}
