//go:build linux

// File: reactor/epoll_linux.go
//
// Linux epoll(7)-based Reactor. The connection token is stashed directly
// in the epoll_event's padding field, avoiding a separate fd→token lookup
// table on the hot path.

package reactor

import (
	"golang.org/x/sys/unix"
)

type epollReactor struct {
	epfd int
}

// New constructs the platform Reactor for Linux.
func New() (Reactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollReactor{epfd: epfd}, nil
}

func (r *epollReactor) Register(fd uintptr, token int) error {
	var ev unix.EpollEvent
	ev.Events = unix.EPOLLIN
	ev.Fd = int32(fd)
	ev.Pad = int32(token)
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
}

func (r *epollReactor) Unregister(fd uintptr) error {
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (r *epollReactor) Wait(events []Event, waitMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(events))
	n, err := unix.EpollWait(r.epfd, raw, waitMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		var kind EventKind
		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			kind |= EventError
		}
		if raw[i].Events&unix.EPOLLIN != 0 {
			kind |= EventReadable
		}
		events[i] = Event{
			Token: int(raw[i].Pad),
			Kind:  kind,
		}
	}
	return n, nil
}

func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
