package codec

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"strings"
)

// websocketGUID is RFC 6455's fixed accept-key salt.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const wsMinHandshakeSpace = 4096

// Websocket bits for the headersFound bitmask.
const (
	wsBitHTTP11 = 1 << iota
	wsBitVersion
	wsBitConnection
	wsBitKey
	wsBitUpgrade
	wsBitsRequired = wsBitHTTP11 | wsBitVersion | wsBitConnection | wsBitKey | wsBitUpgrade
)

// Websocket implements the HTTP upgrade + binary frame codec.
// Server-side only: Connect is unsupported. Grounded on the teacher's
// protocol/handshake.go (accept-key computation), rewritten to re-scan the
// accumulated handshake buffer on every call instead of the teacher's
// bufio.Reader-based net/http parse.
type Websocket struct {
	headersFound uint8
	key          [24]byte
}

var _ Codec[struct{}, struct{}] = (*Websocket)(nil)

func (w *Websocket) Accept(args struct{}) int {
	w.headersFound = 0
	return wsMinHandshakeSpace
}

func (w *Websocket) Connect(out []byte, args struct{}) HandshakeEvent {
	panic("codec: Websocket.Connect is unsupported; Websocket is server-side only")
}

// Handshake parses the request only once the terminating blank line
// ("\r\n\r\n") is present in in, and then parses every header line at
// once; no line of an incomplete request is parsed and no unparsed tail is
// carried forward. While the blank line has not yet been seen, Handshake
// always asks for more bytes (returns ok=false) rather than distinguishing
// "no \r yet" from "partial headers";
// a pathological peer that never completes the request is bounded by the
// server's handshake timeout, not by this codec.
func (w *Websocket) Handshake(out []byte, in []byte) (HandshakeEvent, bool, error) {
	end := bytes.Index(in, []byte("\r\n\r\n"))
	if end == -1 {
		return HandshakeEvent{}, false, nil
	}

	lines := bytes.Split(in[:end], []byte("\r\n"))
	if len(lines) == 0 {
		return HandshakeEvent{}, false, newErr(ErrInvalidRequest)
	}

	firstLine := strings.ToLower(strings.TrimSpace(string(lines[0])))
	if strings.HasSuffix(firstLine, "http/1.1") {
		w.headersFound |= wsBitHTTP11
	}

	for _, raw := range lines[1:] {
		line := string(raw)
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])

		switch name {
		case "upgrade":
			if strings.EqualFold(value, "websocket") {
				w.headersFound |= wsBitUpgrade
			}
		case "sec-websocket-version":
			if value == "13" {
				w.headersFound |= wsBitVersion
			}
		case "connection":
			if strings.Contains(strings.ToLower(value), "upgrade") {
				w.headersFound |= wsBitConnection
			}
		case "sec-websocket-key":
			if len(value) == 24 {
				copy(w.key[:], value)
				w.headersFound |= wsBitKey
			}
		}
	}

	if w.headersFound&wsBitsRequired != wsBitsRequired {
		return HandshakeEvent{}, false, newErr(ErrMissingLine)
	}

	accept := computeAcceptKey(string(w.key[:]))
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n"
	n := copy(out, resp)
	return HandshakeEvent{OutLen: n, NextLen: 0}, true, nil
}

func computeAcceptKey(key string) string {
	h := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(h[:])
}

func (w *Websocket) Result() struct{} {
	return struct{}{}
}

func (w *Websocket) HeaderInLen(m int) int {
	if m <= 125 {
		return 6
	}
	return 8
}

func (w *Websocket) HeaderOutLen(m int) int {
	if m <= 125 {
		return 2
	}
	return 4
}

func (w *Websocket) MinHandshakeSpace() int { return wsMinHandshakeSpace }

// Encode writes a single-fragment binary frame header (FIN=1, opcode=0x2,
// unmasked) for a message of len(body) bytes.
func (w *Websocket) Encode(headerOut, body []byte) error {
	return writeFrameHeader(headerOut, len(body), false, [4]byte{})
}

// Decode validates a single-fragment masked binary frame header and
// XOR-unmasks body in place.
func (w *Websocket) Decode(headerIn, body []byte) error {
	mask, err := validateAndExtractMask(headerIn, true)
	if err != nil {
		return err
	}
	xorMask(mask, 0, body)
	return nil
}

// writeFrameHeader writes an RFC 6455 binary-data frame header (FIN=1,
// opcode=0x2) for a payload of payloadLen bytes, with or without a 4-byte
// mask key trailing the length field. It never reads payload bytes: frame
// masking, when requested, is applied separately via xorMask.
func writeFrameHeader(dst []byte, payloadLen int, masked bool, mask [4]byte) error {
	var maskBit byte
	if masked {
		maskBit = 0x80
	}
	dst[0] = 0x82
	switch {
	case payloadLen <= 125:
		dst[1] = byte(payloadLen) | maskBit
		if masked {
			copy(dst[2:6], mask[:])
		}
	case payloadLen <= 0xFFFF:
		dst[1] = 126 | maskBit
		binary.BigEndian.PutUint16(dst[2:4], uint16(payloadLen))
		if masked {
			copy(dst[4:8], mask[:])
		}
	default:
		return newErr(ErrFrameLengthTooLong)
	}
	return nil
}

// validateAndExtractMask validates a binary-data frame header
// and returns its mask key. requireMasked enforces the mask bit's expected
// state (set for client→server frames, clear for server→client frames).
func validateAndExtractMask(header []byte, requireMasked bool) ([4]byte, error) {
	var mask [4]byte
	if len(header) < 2 {
		return mask, newErr(ErrFrameLengthInvalid)
	}
	b0, b1 := header[0], header[1]
	if b0&0x80 == 0 {
		return mask, newErr(ErrMultiFrameMessage)
	}
	if b0&0x70 != 0 {
		return mask, newErr(ErrReservedBitSet)
	}
	if b0&0x0F != 0x2 {
		return mask, newErr(ErrOpcodeNotBinary)
	}
	masked := b1&0x80 != 0
	if masked != requireMasked {
		return mask, newErr(ErrNotMasked)
	}

	lenField := b1 & 0x7F
	var maskOff int
	switch {
	case lenField == 127:
		return mask, newErr(ErrFrameLengthTooLong)
	case lenField == 126:
		maskOff = 4
	default:
		maskOff = 2
	}
	if len(header) < maskOff {
		return mask, newErr(ErrFrameLengthInvalid)
	}
	if !masked {
		return mask, nil
	}
	if len(header) < maskOff+4 {
		return mask, newErr(ErrFrameLengthInvalid)
	}
	copy(mask[:], header[maskOff:maskOff+4])
	return mask, nil
}

// xorMask applies the rolling 4-byte WS mask across one or more slices
// treated as one contiguous logical payload starting at startOffset.
func xorMask(mask [4]byte, startOffset int, parts ...[]byte) {
	off := startOffset
	for _, p := range parts {
		for i := range p {
			p[i] ^= mask[(off+i)%4]
		}
		off += len(p)
	}
}
