package blocksync

import (
	"errors"
	"sync"
)

var (
	// ErrSyncChannelClosed is returned by TrySend once the channel is closed.
	ErrSyncChannelClosed = errors.New("sync channel closed")
	// ErrSyncChannelFull is returned by TrySend when the buffer is full.
	ErrSyncChannelFull = errors.New("sync channel full")
)

// SyncChannel carries SyncMessages from any number of block processor
// workers to a single consumer. Sends never block and never panic, even
// after Close.
type SyncChannel struct {
	mtx    sync.RWMutex
	closed bool
	ch     chan SyncMessage
}

// NewSyncChannel returns a channel buffering up to capacity messages. A
// capacity below 1 is raised to 1, as an unbuffered channel would drop every
// message sent before its consumer is waiting.
func NewSyncChannel(capacity int) *SyncChannel {
	if capacity < 1 {
		capacity = 1
	}
	return &SyncChannel{ch: make(chan SyncMessage, capacity)}
}

// TrySend delivers msg if there is room, and fails otherwise.
func (c *SyncChannel) TrySend(msg SyncMessage) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.closed {
		return ErrSyncChannelClosed
	}
	select {
	case c.ch <- msg:
		return nil
	default:
		return ErrSyncChannelFull
	}
}

// Out returns the receive side. It is closed, after the buffered messages
// are drained, once Close has been called.
func (c *SyncChannel) Out() <-chan SyncMessage { return c.ch }

// Len returns the number of buffered messages.
func (c *SyncChannel) Len() int { return len(c.ch) }

// Close stops accepting messages. It is safe to call more than once.
func (c *SyncChannel) Close() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
