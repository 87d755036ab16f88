package resource

import (
	"context"
	"io"
)

// RateLimitedReader wraps an io.Reader with the controller's IO limit.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

// Read waits for tokens covering len(p), capped at the limiter's burst.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if burst := r.rc.ioBurst(); burst > 0 && len(p) > burst {
		p = p[:burst]
	}
	if err := r.rc.waitIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Close closes the underlying reader if it is an io.Closer.
func (r *RateLimitedReader) Close() error {
	if c, ok := r.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
