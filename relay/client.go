package relay

import (
	"errors"
	"log"
	"sync"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSendBuffer   = errors.New("send buffer full")
)

// Client is one transport connection as seen by the relay. Outbound
// messages are queued on a buffered channel drained by the transport's
// write loop; a full queue drops the message rather than blocking the relay.
type Client struct {
	ID        string
	Transport string

	// Only touched from the relay goroutine.
	roomID string
	name   string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id, transport string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		ID:        id,
		Transport: transport,
		out:       make(chan []byte, buffer),
		done:      make(chan struct{}),
	}
}

// Send queues b for delivery without blocking.
func (c *Client) Send(b []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.out <- b:
		return nil
	default:
		log.Printf("Dropping message for %s: send buffer full", c.ID)
		return ErrSendBuffer
	}
}

// Close marks the client closed. The write loop flushes what is already
// queued and then shuts the transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Outbound is the queue the transport's write loop drains.
func (c *Client) Outbound() <-chan []byte {
	return c.out
}

// Done is closed once the relay or the transport closes the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
