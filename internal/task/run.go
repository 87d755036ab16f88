package task

import (
	"context"

	"github.com/hupe1980/xref/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Handler processes one message.
type Handler func(ctx context.Context, msg *Message) error

// Run starts the reader and rc.MaxWorkers() workers draining its channel
// through fn. It returns the first error of the reader or any worker.
func Run(ctx context.Context, reader *RecordFileReader, rc *resource.Controller, queueSize int, fn Handler) error {
	ch := NewChannel(queueSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reader.Run(ctx, ch)
	})

	for i := 0; i < rc.MaxWorkers(); i++ {
		g.Go(func() error {
			release, err := rc.Worker(ctx)
			if err != nil {
				return err
			}
			defer release()
			return Drain(ctx, ch, fn)
		})
	}

	return g.Wait()
}

// Drain processes messages from ch until it is closed or ctx is done.
func Drain(ctx context.Context, ch *Channel, fn Handler) error {
	for {
		select {
		case msg, ok := <-ch.Receive():
			if !ok {
				return nil
			}
			err := fn(ctx, msg)
			msg.Release()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
