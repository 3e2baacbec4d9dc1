// Package server implements a multi-connection acceptor: one
// readiness-driven poll loop admitting, driving, and timing out many
// Connection state machines from a single thread, built around
// conn.Connection and reactor.Reactor rather than per-connection
// goroutines, since a single poll thread with no shared mutable state is
// the whole point of this design.
package server

import "time"

// Config holds the parameters for one listening Server.
type Config struct {
	// ListenAddr is the IPv4 host:port to bind; an empty host (as in the
	// default ":8081") binds 0.0.0.0.
	ListenAddr string
	// Backlog is the listen(2) backlog passed straight through.
	Backlog int
	// MaxConnections sizes the connection pool (and so bounds memory).
	MaxConnections int
	// MaxActiveHandshakes sizes the handshake-timer table.
	MaxActiveHandshakes int
	// HandshakeTimeout closes a connection that has not reached open
	// within this duration of being admitted.
	HandshakeTimeout time.Duration
	// MaxEvents bounds how many readiness events one poll() call drains.
	MaxEvents int
	// WaitMs bounds how long poll() blocks on the readiness notifier.
	WaitMs int
}

// DefaultConfig returns conservative defaults sized for small interactive
// game sessions.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:          ":8081",
		Backlog:             128,
		MaxConnections:      1024,
		MaxActiveHandshakes: 32,
		HandshakeTimeout:    5 * time.Second,
		MaxEvents:           128,
		WaitMs:              1000,
	}
}
