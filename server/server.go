package server

import (
	"log"
	"net"
	"time"

	"github.com/arcway-io/slotconn/codec"
	"github.com/arcway-io/slotconn/conn"
	"github.com/arcway-io/slotconn/errs"
	"github.com/arcway-io/slotconn/message"
	"github.com/arcway-io/slotconn/pool"
	"github.com/arcway-io/slotconn/reactor"
)

// Handle identifies a live connection within one Server.
type Handle = pool.Index

type entry[A any, R any] struct {
	c  *conn.Connection[A, R]
	fd uintptr
}

type timerSlot struct {
	handle   Handle
	active   bool
	admitted time.Time
}

// OpenFunc is invoked once a connection's handshake completes.
type OpenFunc[R any] func(handle Handle, result R)

// MessageFunc is invoked once per successfully decoded and deserialized
// application message.
type MessageFunc[T any] func(handle Handle, msg T)

// CloseFunc is invoked exactly once when a connection is destroyed via a
// clean close (not on handshake failure or timeout).
type CloseFunc func(handle Handle)

// Server drives up to Config.MaxConnections connection state machines from
// a single readiness-notification loop. Args is the per-connection
// handshake argument type; Result is the codec's handshake-completion
// value; Message is the fixed-size application message type.
type Server[Args any, Result any, Message any] struct {
	cfg        *Config
	newCodec   func() codec.Codec[Args, Result]
	msgCodec   message.Codec[Message]
	acceptArgs Args

	ln        *net.TCPListener
	rx        reactor.Reactor
	pool      *pool.Pool[entry[Args, Result]]
	timers    []timerSlot
	listening bool
}

// New constructs a Server. newCodec must return a fresh codec instance per
// call: handshake scratch state lives on the codec value itself, so every
// connection needs its own.
func New[Args any, Result any, Message any](
	cfg *Config,
	newCodec func() codec.Codec[Args, Result],
	msgCodec message.Codec[Message],
	opts ...Option[Args, Result, Message],
) *Server[Args, Result, Message] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server[Args, Result, Message]{
		cfg:      cfg,
		newCodec: newCodec,
		msgCodec: msgCodec,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Listen creates a TCP listener on cfg.ListenAddr, registers it
// under reactor.ListenToken, and readies the connection pool and
// handshake-timer table. args is the handshake Args supplied to every
// subsequently accepted connection.
func (s *Server[Args, Result, Message]) Listen(args Args) error {
	if s.listening {
		return errs.ErrAlreadyListening
	}

	tcpLn, err := listenTCP(s.cfg.ListenAddr, s.cfg.Backlog)
	if err != nil {
		return err
	}

	rx, err := reactor.New()
	if err != nil {
		tcpLn.Close()
		return err
	}

	fd, err := fdOf(tcpLn)
	if err != nil {
		rx.Close()
		tcpLn.Close()
		return err
	}
	if err := rx.Register(fd, reactor.ListenToken); err != nil {
		rx.Close()
		tcpLn.Close()
		return err
	}

	s.ln = tcpLn
	s.rx = rx
	s.pool = pool.New[entry[Args, Result]](s.cfg.MaxConnections)
	s.timers = make([]timerSlot, s.cfg.MaxActiveHandshakes)
	s.acceptArgs = args
	s.listening = true
	return nil
}

// Addr returns the listener's bound address, useful when ListenAddr used
// port 0 to let the OS choose one.
func (s *Server[Args, Result, Message]) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Connect synchronously dials ip:port, inserts the connection into the
// pool as an initiator, and drives the first handshake write.
func (s *Server[Args, Result, Message]) Connect(ip string, port int, args Args) (Handle, error) {
	if !s.listening {
		return 0, errs.ErrNotListening
	}
	sock, err := net.Dial("tcp", net.JoinHostPort(ip, itoa(port)))
	if err != nil {
		return 0, err
	}
	return s.admit(sock, args, false)
}

func (s *Server[Args, Result, Message]) accept() {
	sock, err := s.ln.AcceptTCP()
	if err != nil {
		log.Printf("slotconn/server: accept error: %v", err)
		return
	}
	if _, err := s.admit(sock, s.acceptArgs, true); err != nil {
		log.Printf("slotconn/server: admission failed: %v", err)
	}
}

// admit finds a free handshake-timer slot, inserts a new Connection into
// the pool, registers its socket, and starts the handshake.
func (s *Server[Args, Result, Message]) admit(sock net.Conn, args Args, accepting bool) (Handle, error) {
	slot := -1
	for i := range s.timers {
		if !s.timers[i].active {
			slot = i
			break
		}
	}
	if slot == -1 {
		sock.Close()
		return 0, errs.ErrHandshakeQueueFull.Clone().WithContext("remote", sock.RemoteAddr())
	}

	c := conn.New[Args, Result](sock, s.newCodec(), s.msgCodec.Size())
	idx, ok := s.pool.Create(entry[Args, Result]{c: c})
	if !ok {
		sock.Close()
		return 0, errs.ErrOutOfSpace.Clone().WithContext("remote", sock.RemoteAddr())
	}

	fd, err := fdOf(sock)
	if err != nil {
		s.pool.Destroy(idx)
		sock.Close()
		return 0, err
	}
	if e, ok := s.pool.Get(idx); ok {
		e.fd = fd
	}

	if accepting {
		if err := c.Accept(args); err != nil {
			s.pool.Destroy(idx)
			return 0, err
		}
	} else {
		if err := c.Connect(args); err != nil {
			s.pool.Destroy(idx)
			return 0, err
		}
	}

	s.timers[slot] = timerSlot{handle: idx, active: true, admitted: time.Now()}
	if err := s.rx.Register(fd, int(idx)); err != nil {
		s.pool.Destroy(idx)
		return 0, err
	}
	return idx, nil
}

// Send serializes msg into a stack-sized buffer and delegates to the
// connection's Send.
func (s *Server[Args, Result, Message]) Send(handle Handle, msg Message) error {
	e, ok := s.pool.Get(handle)
	if !ok {
		return errs.ErrInvalidHandle.Clone().WithContext("handle", handle)
	}
	buf := make([]byte, s.msgCodec.Size())
	s.msgCodec.Serialize(msg, buf)
	return e.c.Send(buf)
}

// Poll blocks up to cfg.WaitMs on the readiness notifier, dispatches every
// resulting event, then sweeps expired handshake timers. All readiness
// events for this call are processed before the timeout sweep.
func (s *Server[Args, Result, Message]) Poll(
	onOpen OpenFunc[Result],
	onMessage MessageFunc[Message],
	onClose CloseFunc,
) error {
	if !s.listening {
		return errs.ErrNotListening
	}

	events := make([]reactor.Event, s.cfg.MaxEvents)
	n, err := s.rx.Wait(events, s.cfg.WaitMs)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		if ev.Token == reactor.ListenToken {
			s.accept()
			continue
		}
		s.dispatch(Handle(ev.Token), onOpen, onMessage, onClose)
	}

	s.sweepTimers(onClose)
	return nil
}

func (s *Server[Args, Result, Message]) dispatch(
	handle Handle,
	onOpen OpenFunc[Result],
	onMessage MessageFunc[Message],
	onClose CloseFunc,
) {
	e, ok := s.pool.Get(handle)
	if !ok {
		return
	}

	rev, err := e.c.Recv()
	if err != nil {
		var re *conn.RecvError
		if asRecvError(err, &re) {
			log.Printf("slotconn/server: recv error on handle %d: %v", handle, re)
		}
	}

	switch rev.Kind {
	case conn.EventOpen:
		s.clearTimer(handle)
		if onOpen != nil {
			onOpen(handle, rev.Result)
		}
	case conn.EventMessage:
		msg, derr := s.msgCodec.Deserialize(rev.Body)
		if derr != nil {
			log.Printf("slotconn/server: deserialize error on handle %d: %v", handle, derr)
			return
		}
		if onMessage != nil {
			onMessage(handle, msg)
		}
	case conn.EventFail:
		s.clearTimer(handle)
		s.destroy(handle)
	case conn.EventClose:
		s.destroy(handle)
		if onClose != nil {
			onClose(handle)
		}
	}
}

func (s *Server[Args, Result, Message]) destroy(handle Handle) {
	if e, ok := s.pool.Get(handle); ok {
		s.rx.Unregister(e.fd)
	}
	s.pool.Destroy(handle)
}

func (s *Server[Args, Result, Message]) clearTimer(handle Handle) {
	for i := range s.timers {
		if s.timers[i].active && s.timers[i].handle == handle {
			s.timers[i].active = false
		}
	}
}

func (s *Server[Args, Result, Message]) sweepTimers(onClose CloseFunc) {
	now := time.Now()
	for i := range s.timers {
		t := &s.timers[i]
		if !t.active {
			continue
		}
		if now.Sub(t.admitted) < s.cfg.HandshakeTimeout {
			continue
		}
		handle := t.handle
		t.active = false
		if e, ok := s.pool.Get(handle); ok {
			e.c.Close()
		}
		s.destroy(handle)
	}
}

// Halt closes every live connection then the listening socket.
func (s *Server[Args, Result, Message]) Halt() {
	s.pool.Iterate(func(idx pool.Index, e *entry[Args, Result]) bool {
		e.c.Close()
		return true
	})
	if s.ln != nil {
		s.ln.Close()
	}
}

// Deinit releases the readiness-notifier descriptor. Call after Halt.
func (s *Server[Args, Result, Message]) Deinit() error {
	if s.rx == nil {
		return nil
	}
	return s.rx.Close()
}
