// Package client implements the single-connection counterpart to package
// server: the same init/open/closed state machine as a single-slot
// Server, driven by direct blocking calls instead of a readiness
// notifier, since exactly one socket needs no multiplexing.
package client

import (
	"log"
	"net"
	"time"

	"github.com/arcway-io/slotconn/codec"
	"github.com/arcway-io/slotconn/conn"
	"github.com/arcway-io/slotconn/errs"
	"github.com/arcway-io/slotconn/message"
)

// Config holds the parameters for one Client connection.
type Config struct {
	// DialTimeout bounds the initial TCP connect.
	DialTimeout time.Duration
}

// DefaultConfig returns conservative client defaults.
func DefaultConfig() *Config {
	return &Config{DialTimeout: 5 * time.Second}
}

// Option customizes a Client[Args, Result, Message] at construction time.
type Option[Args any, Result any, Message any] func(*Client[Args, Result, Message])

// WithDialTimeout overrides the initial TCP connect deadline.
func WithDialTimeout[Args any, Result any, Message any](d time.Duration) Option[Args, Result, Message] {
	return func(c *Client[Args, Result, Message]) { c.cfg.DialTimeout = d }
}

// Client drives one Connection[Args, Result] state machine. Go's net.Dial
// is synchronous, so the `connecting` intermediate state (for
// platforms with nonblocking connect) collapses here: Connect either
// returns with the connection already in state init, or fails outright.
type Client[Args any, Result any, Message any] struct {
	cfg      *Config
	newCodec func() codec.Codec[Args, Result]
	msgCodec message.Codec[Message]

	conn *conn.Connection[Args, Result]
}

// New constructs a Client. newCodec must return a fresh codec instance.
func New[Args any, Result any, Message any](
	cfg *Config,
	newCodec func() codec.Codec[Args, Result],
	msgCodec message.Codec[Message],
	opts ...Option[Args, Result, Message],
) *Client[Args, Result, Message] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Client[Args, Result, Message]{cfg: cfg, newCodec: newCodec, msgCodec: msgCodec}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect dials addr and drives the initiator side of the handshake's
// first round, landing in state init (or open for a zero-round-trip
// codec).
func (c *Client[Args, Result, Message]) Connect(addr string, args Args) error {
	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	sock, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	c.conn = conn.New[Args, Result](sock, c.newCodec(), c.msgCodec.Size())
	return c.conn.Connect(args)
}

// State reports the underlying Connection's lifecycle state.
func (c *Client[Args, Result, Message]) State() conn.State {
	if c.conn == nil {
		return conn.StateClosed
	}
	return c.conn.State()
}

// Send serializes msg and hands it to the underlying Connection.
func (c *Client[Args, Result, Message]) Send(msg Message) error {
	if c.conn == nil {
		return errs.ErrNotReady
	}
	buf := make([]byte, c.msgCodec.Size())
	c.msgCodec.Serialize(msg, buf)
	return c.conn.Send(buf)
}

// Poll performs one blocking Recv and dispatches it to the relevant
// single-connection callback (no handle is passed: there is
// only ever one connection).
func (c *Client[Args, Result, Message]) Poll(
	onOpen func(Result),
	onMessage func(Message),
	onClose func(),
) error {
	if c.conn == nil {
		return errs.ErrNotReady
	}
	ev, err := c.conn.Recv()
	if err != nil {
		if _, ok := err.(*conn.RecvError); !ok {
			return err
		}
	}

	switch ev.Kind {
	case conn.EventOpen:
		if onOpen != nil {
			onOpen(ev.Result)
		}
	case conn.EventMessage:
		msg, derr := c.msgCodec.Deserialize(ev.Body)
		if derr != nil {
			log.Printf("slotconn/client: deserialize error: %v", derr)
			return nil
		}
		if onMessage != nil {
			onMessage(msg)
		}
	case conn.EventClose, conn.EventFail:
		if onClose != nil {
			onClose()
		}
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client[Args, Result, Message]) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
