package logger

import (
	"bufio"
	"io"
	"sync"
	"time"
)

const flushEvery = 200 * time.Millisecond

// asyncWriter buffers log lines in memory and pushes them to every sink
// from a background goroutine. Callers never wait on disk or stdout
// unless the buffer fills up.
type asyncWriter struct {
	mu   sync.Mutex
	buf  *bufio.Writer
	err  error
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, w)
		}
	}
	w := &asyncWriter{
		buf:  bufio.NewWriterSize(io.MultiWriter(sinks...), bufSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	t := time.NewTicker(flushEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = w.Flush()
		case <-w.stop:
			_ = w.Flush()
			return
		}
	}
}

// Write appends one record. The first sink error sticks and is returned by
// every later call.
func (w *asyncWriter) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if _, err := w.buf.Write(p); err != nil {
		w.err = err
	}
	return w.err
}

// Flush pushes buffered records to the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if err := w.buf.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Close stops the flusher after a final flush.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.stop) })
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
