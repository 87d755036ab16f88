package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Reserve(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := context.Background()

	r60, err := c.Reserve(ctx, 60)
	require.NoError(t, err)
	r40, err := c.Reserve(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(100), c.Queued())

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.Reserve(timeout, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	r40()
	r40()
	assert.Equal(t, int64(60), c.Queued(), "release is idempotent")

	r30, err := c.Reserve(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.Queued())
	r30()
	r60()
	assert.Equal(t, int64(0), c.Queued())

	_, err = c.Reserve(ctx, 101)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.ErrorContains(t, err, "101 bytes")
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})
	release, err := c.Reserve(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.Queued())
	release()
	assert.Equal(t, int64(0), c.Queued())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.MaxWorkers())
	assert.Equal(t, 1, NewController(Config{MaxWorkers: -3}).MaxWorkers())

	r1, err := c.Worker(t.Context())
	require.NoError(t, err)
	_, err = c.Worker(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Worker(ctx)
	assert.Error(t, err)

	r1()
	_, err = c.Worker(t.Context())
	require.NoError(t, err)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	release, err := c.Reserve(ctx, 10)
	require.NoError(t, err)
	release()
	release, err = c.Worker(ctx)
	require.NoError(t, err)
	release()
	assert.NoError(t, c.waitIO(ctx, 1<<30))
	assert.Equal(t, 1, c.MaxWorkers())
	assert.Equal(t, int64(0), c.Queued())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	data := strings.Repeat("x", 3<<20)

	r := NewRateLimitedReader(context.Background(), io.NopCloser(strings.NewReader(data)), c)
	buf := make([]byte, 2<<20)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 1<<20, "reads are capped at the burst size")
	require.NoError(t, r.Close())

	unlimited := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("abc")), nil)
	got, err := io.ReadAll(unlimited)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.NoError(t, unlimited.Close())
}

func TestRateLimitedReader_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRateLimitedReader(ctx, strings.NewReader("abcdef"), c)
	_, err := r.Read(make([]byte, 4))
	assert.Error(t, err)
}
