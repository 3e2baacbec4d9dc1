package wirebuf

import "testing"

func TestHandshakeBufferAccumulate(t *testing.T) {
	b := NewHandshakeBuffer(32)
	b.Resize(16)
	if got := len(b.ReadSlice()); got != 16 {
		t.Fatalf("ReadSlice len = %d, want 16", got)
	}
	copy(b.ReadSlice(), []byte{1, 2, 3})
	b.Increment(3)
	if b.Pos() != 3 {
		t.Fatalf("Pos = %d, want 3", b.Pos())
	}
	if got := len(b.ReadSlice()); got != 13 {
		t.Fatalf("ReadSlice len after increment = %d, want 13", got)
	}
	if got := len(b.AsSlice()); got != 3 {
		t.Fatalf("AsSlice len = %d, want 3", got)
	}
}

func TestHandshakeBufferResizeDoesNotResetPos(t *testing.T) {
	b := NewHandshakeBuffer(32)
	b.Resize(8)
	b.Increment(8)
	b.Resize(20)
	if b.Pos() != 8 {
		t.Fatalf("Resize must not reset pos: got %d, want 8", b.Pos())
	}
}

func TestHandshakeBufferShiftTailAndSeek(t *testing.T) {
	b := NewHandshakeBuffer(32)
	b.Resize(10)
	copy(b.ReadSlice(), []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	b.Increment(10)
	b.ShiftTail(3) // last 3 bytes (7,8,9) move to front
	b.Resize(3 + 5)
	b.Seek(3)
	if got := b.bytes[0]; got != 7 {
		t.Fatalf("shifted byte 0 = %d, want 7", got)
	}
	if b.Pos() != 3 {
		t.Fatalf("Pos after seek = %d, want 3", b.Pos())
	}
}

func TestProtocolBufferViews(t *testing.T) {
	b := NewProtocolBuffer(4, 10)
	if len(b.Header()) != 4 {
		t.Fatalf("Header len = %d, want 4", len(b.Header()))
	}
	if len(b.Body()) != 10 {
		t.Fatalf("Body len = %d, want 10", len(b.Body()))
	}
	if len(b.Whole()) != 14 {
		t.Fatalf("Whole len = %d, want 14", len(b.Whole()))
	}
	if b.Full() {
		t.Fatalf("expected not full initially")
	}
	b.Advance(14)
	if !b.Full() {
		t.Fatalf("expected full after advancing to end")
	}
	b.Clear()
	if b.Pos() != 0 {
		t.Fatalf("Pos after Clear = %d, want 0", b.Pos())
	}
}
