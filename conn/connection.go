// Package conn implements the per-connection protocol state machine: a
// handshake phase driven by a pluggable codec.Codec, followed by
// fixed-size framed message exchange, over a single blocking net.Conn.
// Grounded on the teacher's protocol/connection.go and protocol/wsconn.go,
// rewritten around one blocking socket per connection instead of the
// teacher's per-connection inbox/outbox goroutines: this design drives
// every connection from a single thread and one readiness loop, so there
// is no recvLoop/sendLoop here — recv is called synchronously from
// Server.Poll.
package conn

import (
	"errors"
	"io"
	"net"

	"github.com/arcway-io/slotconn/codec"
	"github.com/arcway-io/slotconn/errs"
	"github.com/arcway-io/slotconn/wirebuf"
)

// State is a Connection's position in the init → open → closed lifecycle.
type State int

const (
	StateInit State = iota
	StateOpen
	StateClosed
)

// EventKind tags what recv produced.
type EventKind int

const (
	EventNone EventKind = iota
	EventOpen
	EventMessage
	EventClose
	EventFail
)

// Event is the nondestructive value recv yields. Body is a view into the
// connection's internal protocol buffer: it is only valid until the next
// recv call, which may clear or overwrite it.
type Event[R any] struct {
	Kind   EventKind
	Result R
	Body   []byte
}

// RecvError wraps a handshake or steady-state decode failure surfaced by
// recv without closing the connection (steady-state) or while closing it
// (handshake). Callers distinguish the two via the returned EventKind.
type RecvError struct {
	Err error
}

func (e *RecvError) Error() string { return e.Err.Error() }
func (e *RecvError) Unwrap() error { return e.Err }

// Connection drives one codec.Codec[A, R] handshake to completion and then
// exchanges fixed-size M-byte application messages over conn.
type Connection[A any, R any] struct {
	sock  net.Conn
	codec codec.Codec[A, R]

	state State
	hbuf  *wirebuf.HandshakeBuffer
	pbuf  *wirebuf.ProtocolBuffer

	messageLen int
	scratch    []byte
	result     R

	sendHeaderLen int
	sendBuf       []byte
}

// New constructs a Connection in state init, with scratch space sized for
// the codec's handshake needs and a steady-state frame sized for messageLen
// application bytes.
func New[A any, R any](sock net.Conn, cd codec.Codec[A, R], messageLen int) *Connection[A, R] {
	space := cd.MinHandshakeSpace()
	return &Connection[A, R]{
		sock:       sock,
		codec:      cd,
		state:      StateInit,
		hbuf:       wirebuf.NewHandshakeBuffer(space),
		messageLen: messageLen,
		scratch:    make([]byte, space),
	}
}

func (c *Connection[A, R]) State() State { return c.state }

// Accept runs the acceptor side of the handshake. A codec that needs no
// handshake bytes (Accept returns 0) transitions straight to open.
func (c *Connection[A, R]) Accept(args A) error {
	n := c.codec.Accept(args)
	if n == 0 {
		c.enterOpen()
		return nil
	}
	c.hbuf.Resize(n)
	return nil
}

// Connect runs the initiator side of the handshake, sending its first
// message atomically. A short write closes the connection.
func (c *Connection[A, R]) Connect(args A) error {
	ev := c.codec.Connect(c.scratch, args)
	if ev.OutLen > 0 {
		if err := c.writeFull(c.scratch[:ev.OutLen]); err != nil {
			c.Close()
			return errs.ErrClosed
		}
	}
	if ev.NextLen == 0 {
		c.enterOpen()
		return nil
	}
	c.hbuf.Resize(ev.NextLen)
	return nil
}

// Send requires state open; it frames message_bytes with the codec and
// writes header‖body atomically. A short write closes the connection.
func (c *Connection[A, R]) Send(messageBytes []byte) error {
	switch c.state {
	case StateClosed:
		return errs.ErrClosed
	case StateInit:
		return errs.ErrNotReady
	}
	if len(messageBytes) != c.messageLen {
		return errs.New(errs.CodeNotReady, "message length %d != configured %d", len(messageBytes), c.messageLen)
	}
	body := c.sendBuf[c.sendHeaderLen:]
	copy(body, messageBytes)
	if err := c.codec.Encode(c.sendBuf[:c.sendHeaderLen], body); err != nil {
		return err
	}
	if err := c.writeFull(c.sendBuf); err != nil {
		c.Close()
		return errs.ErrClosed
	}
	return nil
}

// Recv is a nondestructive event producer: it performs at most one
// underlying socket read and advances the handshake/protocol buffer by
// however many bytes that read delivered.
func (c *Connection[A, R]) Recv() (Event[R], error) {
	switch c.state {
	case StateClosed:
		return Event[R]{Kind: EventClose}, nil
	case StateInit:
		return c.recvHandshake()
	default:
		return c.recvOpen()
	}
}

func (c *Connection[A, R]) recvHandshake() (Event[R], error) {
	n, err := c.sock.Read(c.hbuf.ReadSlice())
	if err != nil {
		c.Close()
		if errors.Is(err, io.EOF) {
			return Event[R]{Kind: EventFail}, nil
		}
		return Event[R]{Kind: EventFail}, err
	}
	c.hbuf.Increment(n)

	ev, ok, herr := c.codec.Handshake(c.scratch, c.hbuf.AsSlice())
	if herr != nil {
		c.Close()
		return Event[R]{Kind: EventFail}, &RecvError{Err: herr}
	}
	if !ok {
		return Event[R]{Kind: EventNone}, nil
	}

	if ev.OutLen > 0 {
		if err := c.writeFull(c.scratch[:ev.OutLen]); err != nil {
			c.Close()
			return Event[R]{Kind: EventFail}, nil
		}
	}

	if ev.NextLen == 0 {
		c.enterOpen()
		return Event[R]{Kind: EventOpen, Result: c.result}, nil
	}

	if ev.RemLen > 0 {
		c.hbuf.ShiftTail(ev.RemLen)
	}
	c.hbuf.Resize(ev.NextLen)
	c.hbuf.Seek(ev.RemLen)
	return Event[R]{Kind: EventNone}, nil
}

func (c *Connection[A, R]) recvOpen() (Event[R], error) {
	if c.pbuf.Full() {
		c.pbuf.Clear()
	}

	n, err := c.sock.Read(c.pbuf.RemainingFromCursor())
	if err != nil {
		c.Close()
		return Event[R]{Kind: EventClose}, nil
	}
	c.pbuf.Advance(n)

	if !c.pbuf.Full() {
		return Event[R]{Kind: EventNone}, nil
	}

	if err := c.codec.Decode(c.pbuf.Header(), c.pbuf.Body()); err != nil {
		return Event[R]{Kind: EventNone}, &RecvError{Err: err}
	}
	return Event[R]{Kind: EventMessage, Body: c.pbuf.Body()}, nil
}

func (c *Connection[A, R]) enterOpen() {
	c.result = c.codec.Result()
	headerIn := c.codec.HeaderInLen(c.messageLen)
	headerOut := c.codec.HeaderOutLen(c.messageLen)
	c.pbuf = wirebuf.NewProtocolBuffer(headerIn, c.messageLen)
	c.sendHeaderLen = headerOut
	c.sendBuf = make([]byte, headerOut+c.messageLen)
	c.state = StateOpen
}

// Close closes the underlying socket exactly once, per testable property 6.
func (c *Connection[A, R]) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	return c.sock.Close()
}

func (c *Connection[A, R]) writeFull(b []byte) error {
	n, err := c.sock.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errs.ErrClosed
	}
	return nil
}
