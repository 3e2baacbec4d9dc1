//go:build !linux

// File: server/listen_other.go
//
// Non-Linux platforms have no wired raw-socket backend yet (same split as
// reactor/reactor_other.go): Config.Backlog is accepted but not honored,
// since there is no portable way to pass a caller-chosen listen(2) backlog
// through net.Listen.

package server

import "net"

func listenTCP(addr string, backlog int) (*net.TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return ln.(*net.TCPListener), nil
}
