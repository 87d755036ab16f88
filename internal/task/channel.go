package task

import (
	"context"
	"sync"
)

// Message is one record delivered to a worker.
type Message struct {
	Key     []byte
	Version uint64
	Value   []byte

	release func()
}

// Size returns the number of key and value bytes.
func (m *Message) Size() int64 { return int64(len(m.Key) + len(m.Value)) }

// Release returns the message's reserved memory. It is idempotent.
func (m *Message) Release() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

// Channel is a buffered message queue with an idempotent Close.
type Channel struct {
	ch   chan *Message
	once sync.Once
}

// NewChannel returns a channel buffering up to size messages.
func NewChannel(size int) *Channel {
	if size < 0 {
		size = 0
	}
	return &Channel{ch: make(chan *Message, size)}
}

// Send delivers msg, blocking while the channel is full.
func (c *Channel) Send(ctx context.Context, msg *Message) error {
	select {
	case c.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the receive side of the channel.
func (c *Channel) Receive() <-chan *Message { return c.ch }

// Close closes the channel. Sending after Close panics.
func (c *Channel) Close() {
	c.once.Do(func() { close(c.ch) })
}
