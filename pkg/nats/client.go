// Package nats wraps a NATS connection for publishing order events and
// subscribing to them.
package nats

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// conn is the part of *nats.Conn the client uses.
type conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

type Client struct {
	conn conn
}

// New connects to the server at url. An empty url falls back to nats.DefaultURL.
func New(url string, opts ...nats.Option) (*Client, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts = append([]nats.Option{
		nats.Name("frameshop"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats %s: %w", url, err)
	}
	return &Client{conn: nc}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject; the subscription lives until Close.
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) error {
	if _, err := c.conn.Subscribe(subject, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection: every subscription stops taking new messages,
// pending ones are still handled, and the connection is closed afterwards.
func (c *Client) Close() error {
	if err := c.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}
