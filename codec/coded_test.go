package codec

import "testing"

func TestCodedMatchingCodeCompletesHandshake(t *testing.T) {
	var code [16]byte
	copy(code[:], "sixteen byte key")

	var acceptor, initiator Coded
	inNeed := acceptor.Accept(&code)
	out := make([]byte, 64)
	connectEv := initiator.Connect(out, &code)
	if connectEv.NextLen != codedLen {
		t.Fatalf("Connect NextLen = %d, want %d", connectEv.NextLen, codedLen)
	}
	if inNeed != codedLen {
		t.Fatalf("Accept next in len = %d, want %d", inNeed, codedLen)
	}

	acceptOut := make([]byte, 64)
	ev, ok, err := acceptor.Handshake(acceptOut, out[:connectEv.OutLen])
	if err != nil || !ok {
		t.Fatalf("acceptor handshake failed: ok=%v err=%v", ok, err)
	}
	if !ev.Done() {
		t.Fatalf("expected acceptor handshake done in one round")
	}

	ev2, ok, err := initiator.Handshake(nil, acceptOut[:ev.OutLen])
	if err != nil || !ok {
		t.Fatalf("initiator handshake failed: ok=%v err=%v", ok, err)
	}
	if !ev2.Done() {
		t.Fatalf("expected initiator handshake done")
	}
}

func TestCodedMismatchFails(t *testing.T) {
	var acceptCode, connectCode [16]byte
	copy(acceptCode[:], "aaaaaaaaaaaaaaaa")
	copy(connectCode[:], "bbbbbbbbbbbbbbbb")

	var acceptor, initiator Coded
	acceptor.Accept(&acceptCode)
	out := make([]byte, 64)
	ev := initiator.Connect(out, &connectCode)

	_, _, err := acceptor.Handshake(make([]byte, 64), out[:ev.OutLen])
	if err == nil {
		t.Fatalf("expected WrongCode error on mismatched codes")
	}
	var ce *Error
	if !asCodecError(err, &ce) || ce.Kind != ErrWrongCode {
		t.Fatalf("expected ErrWrongCode, got %v", err)
	}
}

func asCodecError(err error, target **Error) bool {
	ce, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = ce
	return true
}
