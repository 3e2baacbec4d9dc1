package server

import (
	"fmt"
	"strconv"
	"syscall"

	"github.com/arcway-io/slotconn/conn"
)

// syscallConner is satisfied by *net.TCPConn and *net.TCPListener.
type syscallConner interface {
	SyscallConn() (syscall.RawConn, error)
}

// fdOf extracts the raw file descriptor backing a TCP socket. c is
// typically a net.Conn or net.Listener whose concrete type implements
// syscallConner.
func fdOf(c any) (uintptr, error) {
	sc, ok := c.(syscallConner)
	if !ok {
		return 0, fmt.Errorf("fdOf: %T does not support SyscallConn", c)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	ctrlErr := raw.Control(func(f uintptr) { fd = f })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func asRecvError(err error, target **conn.RecvError) bool {
	re, ok := err.(*conn.RecvError)
	if !ok {
		return false
	}
	*target = re
	return true
}
