package codec

import "testing"

// TestWebsockifyCodedHandshakeAndSteadyState drives a full accept/connect
// handshake for Coded tunneled inside Websocket framing, then exercises
// the steady-state Encode/Decode composition.
func TestWebsockifyCodedHandshakeAndSteadyState(t *testing.T) {
	var code [16]byte
	copy(code[:], "sixteen byte key")

	acceptor := NewWebsockify[*[16]byte, struct{}](&Coded{})
	initiator := NewWebsockify[*[16]byte, struct{}](&Coded{})

	acceptor.Accept(&code)

	connOut := make([]byte, initiator.MinHandshakeSpace())
	connEv := initiator.Connect(connOut, &code)

	acceptOut := make([]byte, acceptor.MinHandshakeSpace())
	aEv, ok, err := acceptor.Handshake(acceptOut, connOut[:connEv.OutLen])
	if err != nil || !ok {
		t.Fatalf("acceptor WS-phase handshake failed: ok=%v err=%v", ok, err)
	}
	if aEv.Done() {
		t.Fatalf("acceptor should still await the inner Coded exchange")
	}

	initOut := make([]byte, initiator.MinHandshakeSpace())
	iEv, ok, err := initiator.Handshake(initOut, acceptOut[:aEv.OutLen])
	if err != nil || !ok {
		t.Fatalf("initiator WS-phase handshake failed: ok=%v err=%v", ok, err)
	}
	if iEv.Done() {
		t.Fatalf("initiator should still await the acceptor's Coded reply")
	}

	acceptOut2 := make([]byte, acceptor.MinHandshakeSpace())
	aEv2, ok, err := acceptor.Handshake(acceptOut2, initOut[:iEv.OutLen])
	if err != nil || !ok {
		t.Fatalf("acceptor inner handshake failed: ok=%v err=%v", ok, err)
	}
	if !aEv2.Done() {
		t.Fatalf("acceptor handshake should be complete, got %+v", aEv2)
	}

	initOut2 := make([]byte, initiator.MinHandshakeSpace())
	iEv2, ok, err := initiator.Handshake(initOut2, acceptOut2[:aEv2.OutLen])
	if err != nil || !ok {
		t.Fatalf("initiator inner handshake failed: ok=%v err=%v", ok, err)
	}
	if !iEv2.Done() {
		t.Fatalf("initiator handshake should be complete, got %+v", iEv2)
	}

	body := []byte("websockified payload")
	plain := append([]byte(nil), body...)
	header := make([]byte, acceptor.HeaderOutLen(len(plain)))
	if err := acceptor.Encode(header, plain); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := initiator.Decode(header, plain); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(plain) != string(body) {
		t.Fatalf("round trip mismatch: got %q, want %q", plain, body)
	}
}
