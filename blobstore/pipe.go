package blobstore

import (
	"context"
	"io"
	"os"
	"sync"
)

// PipeWriter streams writes into an upload running in its own goroutine.
// Remote stores use it to turn an SDK call that consumes an io.Reader into a
// WritableBlob.
type PipeWriter struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	mu       sync.Mutex
	finished bool
	err      error
}

// NewPipeWriter starts upload with the read side of the pipe. The blob is
// published when upload returns nil.
func NewPipeWriter(ctx context.Context, upload func(ctx context.Context, r io.Reader) error) *PipeWriter {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	w := &PipeWriter{pw: pw, cancel: cancel, done: make(chan error, 1)}

	go func() {
		err := upload(ctx, pr)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *PipeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	finished := w.finished
	w.mu.Unlock()
	if finished {
		return 0, os.ErrClosed
	}
	return w.pw.Write(p)
}

// Close ends the stream and waits for the upload. Later calls return the
// same result.
func (w *PipeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return w.err
	}
	w.finished = true
	_ = w.pw.Close()
	w.err = <-w.done
	w.cancel()
	return w.err
}

// Abort fails the stream with ErrAborted and cancels the upload.
func (w *PipeWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return nil
	}
	w.finished = true
	w.cancel()
	_ = w.pw.CloseWithError(ErrAborted)
	<-w.done
	return nil
}
