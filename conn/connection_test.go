package conn

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/arcway-io/slotconn/codec"
)

var errFailEvent = errors.New("handshake failed")

func TestConnectionCodedHandshakeAndEcho(t *testing.T) {
	serverSock, clientSock := net.Pipe()
	defer serverSock.Close()
	defer clientSock.Close()

	var code [16]byte
	copy(code[:], "sixteen byte key")
	const messageLen = 4

	server := New[*[16]byte, struct{}](serverSock, &codec.Coded{}, messageLen)
	client := New[*[16]byte, struct{}](clientSock, &codec.Coded{}, messageLen)

	if err := server.Accept(&code); err != nil {
		t.Fatalf("server Accept: %v", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		for server.State() != StateOpen {
			ev, err := server.Recv()
			if err != nil {
				serverDone <- err
				return
			}
			if ev.Kind == EventFail {
				serverDone <- errFailEvent
				return
			}
		}
		serverDone <- nil
	}()

	connectErrs := make(chan error, 1)
	go func() { connectErrs <- client.Connect(&code) }()
	if err := <-connectErrs; err != nil {
		t.Fatalf("client Connect: %v", err)
	}

	for client.State() != StateOpen {
		ev, err := client.Recv()
		if err != nil {
			t.Fatalf("client recv error: %v", err)
		}
		if ev.Kind == EventFail {
			t.Fatalf("client handshake failed")
		}
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server handshake error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for server to reach open")
	}

	payload := []byte("ping")
	sendErrs := make(chan error, 1)
	go func() { sendErrs <- client.Send(payload) }()

	ev, err := server.Recv()
	if err != nil {
		t.Fatalf("server recv error: %v", err)
	}
	if ev.Kind != EventMessage {
		t.Fatalf("expected EventMessage, got %v", ev.Kind)
	}
	if string(ev.Body) != string(payload) {
		t.Fatalf("got body %q, want %q", ev.Body, payload)
	}
	if err := <-sendErrs; err != nil {
		t.Fatalf("client send error: %v", err)
	}
}
