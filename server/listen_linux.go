//go:build linux

// File: server/listen_linux.go
//
// Raw socket(2)/bind(2)/listen(2) setup so Config.Backlog actually reaches
// the kernel's listen() backlog argument: net.Listen has no portable way
// to pass a caller-chosen backlog (it derives one from somaxconn), so this
// bypasses it the same way util.go's fdOf already reaches past net into
// syscall/x/sys/unix for the reactor registration boundary.

package server

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP binds an IPv4 TCP socket to addr with SO_REUSEADDR set and the
// given listen(2) backlog, per spec.md §4.5/§6 ("Backlog supplied by
// user"), returning it as a *net.TCPListener so the rest of Server can
// keep treating it like any other Go listener.
func listenTCP(addr string, backlog int) (*net.TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, err
	}

	var sa unix.SockaddrInet4
	sa.Port = tcpAddr.Port
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// os.NewFile takes ownership of fd; net.FileListener dup's it
	// internally, so closing f afterward releases our copy without
	// touching the kernel socket the returned listener now owns.
	f := os.NewFile(uintptr(fd), "slotconn-listener")
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("listenTCP: unexpected listener type %T", ln)
	}
	return tcpLn, nil
}
