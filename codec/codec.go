// Package codec implements the protocol capability: a closed set
// of pluggable handshake/framing codecs (Coded, AE, Websocket, Websockify)
// sharing one generic contract.
//
// Codec[A, R] is parameterized by the externally supplied Args type A and
// the handshake Result type R. Per-connection handshake scratch state
// lives as struct fields on the concrete codec value itself, rather than
// threaded through as separate mutable state on every call.
package codec

// HandshakeEvent is returned by Connect/Handshake to describe what the
// caller must do next: send out_len bytes of the out buffer, expect the
// next inbound chunk to be next_len bytes (0 meaning handshake complete),
// and carry forward rem_len unconsumed tail bytes of the input buffer.
type HandshakeEvent struct {
	OutLen  int
	NextLen int
	RemLen  int
}

// Done reports whether this event signals handshake completion.
func (e HandshakeEvent) Done() bool {
	return e.NextLen == 0
}

// Codec is the contract every handshake/framing codec implements.
type Codec[A any, R any] interface {
	// Accept initializes acceptor-side state, returning the number of
	// bytes wanted for the first inbound chunk.
	Accept(args A) (nextInLen int)

	// Connect initializes initiator-side state and populates the first
	// outbound chunk into out (len(out) >= the codec's MinHandshakeSpace).
	Connect(out []byte, args A) HandshakeEvent

	// Handshake consumes the inbound chunk in, populating out with any
	// reply. ok=false means "need more bytes" (partial consumption); a
	// non-nil error means the handshake has failed.
	Handshake(out []byte, in []byte) (ev HandshakeEvent, ok bool, err error)

	// Result returns the finalization value once the handshake completes.
	Result() R

	// HeaderInLen/HeaderOutLen are the per-frame prefix sizes for
	// received vs sent frames, given the fixed message size m.
	HeaderInLen(m int) int
	HeaderOutLen(m int) int

	// MinHandshakeSpace upper-bounds the scratch bytes any single
	// handshake exchange needs.
	MinHandshakeSpace() int

	// Encode frames a single outbound message in place.
	Encode(headerOut, body []byte) error

	// Decode validates/decrypts a single inbound frame in place.
	Decode(headerIn, body []byte) error
}

// ErrorKind is the closed set of handshake/decode failure kinds.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrWrongCode
	ErrHandshakeFailed
	ErrMessageCorrupted
	ErrInvalidHeader
	ErrInvalidUpgrade
	ErrInvalidConnection
	ErrInvalidLineBreak
	ErrInvalidVersion
	ErrInvalidRequest
	ErrInvalidKey
	ErrMissingLine
	ErrFrameLengthInvalid
	ErrFrameLengthTooLong
	ErrNotMasked
	ErrReservedBitSet
	ErrOpcodeNotBinary
	ErrMultiFrameMessage
)

func (k ErrorKind) String() string {
	switch k {
	case ErrWrongCode:
		return "WrongCode"
	case ErrHandshakeFailed:
		return "HandshakeFailed"
	case ErrMessageCorrupted:
		return "MessageCorrupted"
	case ErrInvalidHeader:
		return "InvalidHeader"
	case ErrInvalidUpgrade:
		return "InvalidUpgrade"
	case ErrInvalidConnection:
		return "InvalidConnection"
	case ErrInvalidLineBreak:
		return "InvalidLineBreak"
	case ErrInvalidVersion:
		return "InvalidVersion"
	case ErrInvalidRequest:
		return "InvalidRequest"
	case ErrInvalidKey:
		return "InvalidKey"
	case ErrMissingLine:
		return "MissingLine"
	case ErrFrameLengthInvalid:
		return "FrameLengthInvalid"
	case ErrFrameLengthTooLong:
		return "FrameLengthTooLong"
	case ErrNotMasked:
		return "NotMasked"
	case ErrReservedBitSet:
		return "ReservedBitSet"
	case ErrOpcodeNotBinary:
		return "OpcodeNotBinary"
	case ErrMultiFrameMessage:
		return "MultiFrameMessage"
	default:
		return "None"
	}
}

// Error is the codec-level structured error carrying a closed-set Kind.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return e.Kind.String()
}

func newErr(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}
