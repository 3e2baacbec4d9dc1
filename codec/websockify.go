package codec

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// wsifyPhase tracks which sub-handshake Websockify is currently driving.
type wsifyPhase int

const (
	wsifyPhaseWS wsifyPhase = iota
	wsifyPhaseInner
)

// Websockify composes Websocket with an arbitrary inner Codec[A, R]:
// every inner handshake message and every steady-state frame is
// tunneled inside exactly one WS binary frame. The accepting role reuses
// Websocket directly for its HTTP upgrade parsing; the initiator role
// issues its own upgrade request and masked frames, since Websocket is
// server-side only.
type Websockify[A any, R any] struct {
	inner Codec[A, R]
	ws    Websocket

	phase     wsifyPhase
	accepting bool
	innerArgs A
	clientKey string

	wantIn int // inner bytes awaited by the next Inner-phase Handshake call
}

// NewWebsockify wraps inner in a WS tunnel.
func NewWebsockify[A any, R any](inner Codec[A, R]) *Websockify[A, R] {
	return &Websockify[A, R]{inner: inner}
}

var _ Codec[struct{}, struct{}] = (*Websockify[struct{}, struct{}])(nil)

func (w *Websockify[A, R]) maskedIncoming() bool { return w.accepting }
func (w *Websockify[A, R]) maskedOutgoing() bool { return !w.accepting }

// headerLenFor is the WS frame header size for a payload of payloadLen
// bytes, with or without the 4-byte mask key.
func headerLenFor(payloadLen int, masked bool) int {
	base := 2
	if payloadLen > 125 {
		base = 4
	}
	if masked {
		base += 4
	}
	return base
}

func (w *Websockify[A, R]) Accept(args A) int {
	w.accepting = true
	w.innerArgs = args
	w.phase = wsifyPhaseWS
	return w.ws.Accept(struct{}{})
}

func (w *Websockify[A, R]) Connect(out []byte, args A) HandshakeEvent {
	w.accepting = false
	w.innerArgs = args
	w.phase = wsifyPhaseWS

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(err)
	}
	w.clientKey = base64.StdEncoding.EncodeToString(raw[:])

	req := "GET / HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + w.clientKey + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	n := copy(out, req)
	return HandshakeEvent{OutLen: n, NextLen: wsMinHandshakeSpace}
}

func (w *Websockify[A, R]) Handshake(out []byte, in []byte) (HandshakeEvent, bool, error) {
	switch w.phase {
	case wsifyPhaseWS:
		if w.accepting {
			return w.handshakeWSAccept(out, in)
		}
		return w.handshakeWSConnect(out, in)
	default:
		return w.handshakeInner(out, in)
	}
}

func (w *Websockify[A, R]) handshakeWSAccept(out, in []byte) (HandshakeEvent, bool, error) {
	ev, ok, err := w.ws.Handshake(out, in)
	if err != nil || !ok {
		return ev, ok, err
	}
	nextIn := w.inner.Accept(w.innerArgs)
	w.phase = wsifyPhaseInner
	w.wantIn = nextIn
	next := 0
	if nextIn > 0 {
		next = headerLenFor(nextIn, w.maskedIncoming()) + nextIn
	}
	return HandshakeEvent{OutLen: ev.OutLen, NextLen: next}, true, nil
}

func (w *Websockify[A, R]) handshakeWSConnect(out, in []byte) (HandshakeEvent, bool, error) {
	end := bytes.Index(in, []byte("\r\n\r\n"))
	if end == -1 {
		return HandshakeEvent{}, false, nil
	}
	if !validUpgradeResponse(in[:end], w.clientKey) {
		return HandshakeEvent{}, false, newErr(ErrHandshakeFailed)
	}

	innerOut := make([]byte, w.inner.MinHandshakeSpace())
	innerEv := w.inner.Connect(innerOut, w.innerArgs)
	w.phase = wsifyPhaseInner

	hlen := headerLenFor(innerEv.OutLen, w.maskedOutgoing())
	var mask [4]byte
	if _, err := rand.Read(mask[:]); err != nil {
		panic(err)
	}
	if err := writeFrameHeader(out[:hlen], innerEv.OutLen, true, mask); err != nil {
		return HandshakeEvent{}, false, err
	}
	copy(out[hlen:], innerOut[:innerEv.OutLen])
	xorMask(mask, 0, out[hlen:hlen+innerEv.OutLen])

	w.wantIn = innerEv.NextLen
	next := 0
	if innerEv.NextLen > 0 {
		next = headerLenFor(innerEv.NextLen, w.maskedIncoming()) + innerEv.NextLen
	}
	return HandshakeEvent{OutLen: hlen + innerEv.OutLen, NextLen: next}, true, nil
}

func (w *Websockify[A, R]) handshakeInner(out, in []byte) (HandshakeEvent, bool, error) {
	hlenIn := headerLenFor(w.wantIn, w.maskedIncoming())
	total := hlenIn + w.wantIn
	if len(in) < total {
		return HandshakeEvent{}, false, nil
	}
	header := in[:hlenIn]
	body := in[hlenIn:total]
	mask, err := validateAndExtractMask(header, w.maskedIncoming())
	if err != nil {
		return HandshakeEvent{}, false, err
	}
	if w.maskedIncoming() {
		xorMask(mask, 0, body)
	}

	innerOut := make([]byte, w.inner.MinHandshakeSpace())
	ev, ok, err := w.inner.Handshake(innerOut, body)
	if err != nil {
		return HandshakeEvent{}, false, err
	}
	if !ok {
		return HandshakeEvent{}, false, nil
	}

	hlenOut := 0
	if ev.OutLen > 0 {
		hlenOut = headerLenFor(ev.OutLen, w.maskedOutgoing())
		var outMask [4]byte
		if w.maskedOutgoing() {
			if _, err := rand.Read(outMask[:]); err != nil {
				panic(err)
			}
		}
		if err := writeFrameHeader(out[:hlenOut], ev.OutLen, w.maskedOutgoing(), outMask); err != nil {
			return HandshakeEvent{}, false, err
		}
		copy(out[hlenOut:], innerOut[:ev.OutLen])
		if w.maskedOutgoing() {
			xorMask(outMask, 0, out[hlenOut:hlenOut+ev.OutLen])
		}
	}

	w.wantIn = ev.NextLen
	next := 0
	if ev.NextLen > 0 {
		next = headerLenFor(ev.NextLen, w.maskedIncoming()) + ev.NextLen
	}
	return HandshakeEvent{OutLen: hlenOut + ev.OutLen, NextLen: next}, true, nil
}

// validUpgradeResponse checks that resp is a 101 response whose
// Sec-WebSocket-Accept header matches the key computed from clientKey.
func validUpgradeResponse(resp []byte, clientKey string) bool {
	lines := bytes.Split(resp, []byte("\r\n"))
	if len(lines) == 0 || !bytes.Contains(lines[0], []byte("101")) {
		return false
	}
	want := computeAcceptKey(clientKey)
	for _, raw := range lines[1:] {
		line := string(raw)
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		if name != "sec-websocket-accept" {
			continue
		}
		return strings.TrimSpace(line[colon+1:]) == want
	}
	return false
}

func (w *Websockify[A, R]) Result() R {
	return w.inner.Result()
}

func (w *Websockify[A, R]) HeaderInLen(m int) int {
	innerHlen := w.inner.HeaderInLen(m)
	return headerLenFor(innerHlen+m, w.maskedIncoming()) + innerHlen
}

func (w *Websockify[A, R]) HeaderOutLen(m int) int {
	innerHlen := w.inner.HeaderOutLen(m)
	return headerLenFor(innerHlen+m, w.maskedOutgoing()) + innerHlen
}

func (w *Websockify[A, R]) MinHandshakeSpace() int {
	need := w.inner.MinHandshakeSpace() + 8
	if need < wsMinHandshakeSpace {
		return wsMinHandshakeSpace
	}
	return need
}

// Encode wraps the inner codec's own header+body framing in one outer WS
// binary frame, masking the whole payload in one pass when sending as the
// initiator (client→server frames are always masked per RFC 6455).
func (w *Websockify[A, R]) Encode(headerOut, body []byte) error {
	innerHlen := w.inner.HeaderOutLen(len(body))
	wsHlen := len(headerOut) - innerHlen
	innerHeader := headerOut[wsHlen:]

	if err := w.inner.Encode(innerHeader, body); err != nil {
		return err
	}

	var mask [4]byte
	masked := w.maskedOutgoing()
	if masked {
		if _, err := rand.Read(mask[:]); err != nil {
			return err
		}
	}
	if err := writeFrameHeader(headerOut[:wsHlen], innerHlen+len(body), masked, mask); err != nil {
		return err
	}
	if masked {
		xorMask(mask, 0, innerHeader, body)
	}
	return nil
}

// Decode unwraps the outer WS frame (unmasking the inner header+body as one
// contiguous stream when required) then hands the inner header/body to the
// inner codec's own Decode.
func (w *Websockify[A, R]) Decode(headerIn, body []byte) error {
	innerHlen := w.inner.HeaderInLen(len(body))
	wsHlen := len(headerIn) - innerHlen
	wsHeader := headerIn[:wsHlen]
	innerHeader := headerIn[wsHlen:]

	masked := w.maskedIncoming()
	mask, err := validateAndExtractMask(wsHeader, masked)
	if err != nil {
		return err
	}
	if masked {
		xorMask(mask, 0, innerHeader, body)
	}
	return w.inner.Decode(innerHeader, body)
}
