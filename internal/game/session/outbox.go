// Package session tracks the connected map viewers and the areas they are looking at.
package session

import (
	"fmt"
	"sync"
)

// Outbox queues messages for a viewer's writer goroutine. Ordinary messages
// wait in a bounded FIFO. Frames are full snapshots of the view, so only the
// newest undelivered one is kept.
type Outbox struct {
	id       string
	messages chan []byte
	frame    chan []byte
	mu       sync.Mutex
	closed   bool
}

// NewOutbox creates an Outbox for the given viewer ID with room for
// bufferSize ordinary messages.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an open Outbox.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Outbox{
		id:       id,
		messages: make(chan []byte, bufferSize),
		frame:    make(chan []byte, 1),
	}
}

// ID returns the owning viewer's ID.
func (o *Outbox) ID() string {
	return o.id
}

// Push enqueues an ordinary message.
//
// Precondition: msg must be non-nil.
// Postcondition: msg is enqueued, or an error is returned if the outbox is closed or full.
func (o *Outbox) Push(msg []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.messages <- msg:
		return nil
	default:
		return fmt.Errorf("outbox %s message buffer full", o.id)
	}
}

// PushFrame makes frame the next frame the writer sends, replacing any frame
// it has not taken yet. replaced reports whether one was discarded.
//
// Postcondition: unless the outbox is closed, frame is pending delivery.
func (o *Outbox) PushFrame(frame []byte) (replaced bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false, fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case <-o.frame:
		replaced = true
	default:
	}
	// Only the writer receives, and the slot was just emptied under mu.
	o.frame <- frame
	return replaced, nil
}

// Messages returns the ordinary message channel. It is closed by Close.
func (o *Outbox) Messages() <-chan []byte {
	return o.messages
}

// Frames returns the latest-frame channel. It is closed by Close.
func (o *Outbox) Frames() <-chan []byte {
	return o.frame
}

// Close marks the outbox closed and closes both channels.
//
// Postcondition: Further pushes return an error. Close is idempotent.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.messages)
		close(o.frame)
	}
	return nil
}
