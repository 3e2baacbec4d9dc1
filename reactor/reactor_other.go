//go:build !linux

// File: reactor/reactor_other.go
//
// Non-Linux platforms have no epoll-equivalent wired in yet.

package reactor

import "errors"

// New returns an error: only the Linux epoll backend is implemented.
func New() (Reactor, error) {
	return nil, errors.New("reactor: no backend for this platform")
}
