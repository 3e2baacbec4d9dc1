package codec

import (
	"crypto/ed25519"
	"crypto/rand"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// AE implements the authenticated encrypted channel: an
// X25519 Diffie-Hellman key exchange with Ed25519-signed identity,
// deriving a shared key via a keyed Blake2b-256 hash and framing data
// with XChaCha20-Poly1305. Grounded on the DH+signature composition in
// other_examples' gosuda-portal cryptoops-handshaker.go and the keyed
// AEAD handshake in other_examples' wireguard-go noise-protocol.go.
type AE struct {
	acceptNonce [32]byte
	acceptDH    [32]byte
	connectNonce [32]byte
	connectDH    [32]byte

	foreignEdDSA [32]byte
	localKeyPair ed25519.PrivateKey

	ownScalar [32]byte

	sending   aeMsgKind
	awaiting  aeMsgKind
	accepting bool

	sharedKey [32]byte
}

type aeMsgKind int

const (
	aeNone aeMsgKind = iota
	aeKeys
	aeSignature
)

func (k aeMsgKind) size() int {
	switch k {
	case aeKeys:
		return aeKeysLen
	case aeSignature:
		return aeSigLen
	default:
		return 0
	}
}

const (
	aeKeysLen = 64
	aeSigLen  = 96
)

var _ Codec[ed25519.PrivateKey, [32]byte] = (*AE)(nil)

// genDH draws a random 32-byte scalar and computes its X25519 public key,
// retrying on a low-order result.
func genDH() (scalar, public [32]byte, err error) {
	for {
		if _, err = rand.Read(scalar[:]); err != nil {
			return
		}
		pub, derr := curve25519.X25519(scalar[:], curve25519.Basepoint)
		if derr != nil {
			continue // low-order point; retry with a fresh scalar
		}
		copy(public[:], pub)
		return scalar, public, nil
	}
}

func (a *AE) Accept(args ed25519.PrivateKey) int {
	a.localKeyPair = args
	a.accepting = true
	if _, err := rand.Read(a.acceptNonce[:]); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	scalar, pub, err := genDH()
	if err != nil {
		panic(err)
	}
	a.ownScalar = scalar
	a.acceptDH = pub
	a.sending = aeKeys
	a.awaiting = aeKeys
	return aeKeysLen
}

func (a *AE) Connect(out []byte, args ed25519.PrivateKey) HandshakeEvent {
	a.localKeyPair = args
	a.accepting = false
	if _, err := rand.Read(a.connectNonce[:]); err != nil {
		panic(err)
	}
	scalar, pub, err := genDH()
	if err != nil {
		panic(err)
	}
	a.ownScalar = scalar
	a.connectDH = pub
	a.sending = aeSignature
	a.awaiting = aeKeys

	n := copy(out, a.ownKeysBytes())
	return HandshakeEvent{OutLen: n, NextLen: aeKeysLen}
}

// ownKeysBytes returns this side's own M_keys view, laid out per its role.
func (a *AE) ownKeysBytes() []byte {
	buf := make([]byte, aeKeysLen)
	if a.accepting {
		copy(buf[:32], a.acceptNonce[:])
		copy(buf[32:], a.acceptDH[:])
	} else {
		copy(buf[:32], a.connectDH[:])
		copy(buf[32:], a.connectNonce[:])
	}
	return buf
}

// peerKeysBytes returns the peer's M_keys view, laid out per the peer's
// (opposite) role.
func (a *AE) peerKeysBytes() []byte {
	buf := make([]byte, aeKeysLen)
	if a.accepting {
		// peer is the initiator: layout {key, nonce}
		copy(buf[:32], a.connectDH[:])
		copy(buf[32:], a.connectNonce[:])
	} else {
		// peer is the acceptor: layout {nonce, key}
		copy(buf[:32], a.acceptNonce[:])
		copy(buf[32:], a.acceptDH[:])
	}
	return buf
}

// peerDH returns the peer's X25519 public key.
func (a *AE) peerDH() [32]byte {
	if a.accepting {
		return a.connectDH
	}
	return a.acceptDH
}

func (a *AE) storePeerKeys(msg []byte) {
	if a.accepting {
		// peer (initiator) layout: {key, nonce}
		copy(a.connectDH[:], msg[:32])
		copy(a.connectNonce[:], msg[32:])
	} else {
		// peer (acceptor) layout: {nonce, key}
		copy(a.acceptNonce[:], msg[:32])
		copy(a.acceptDH[:], msg[32:])
	}
}

func (a *AE) deriveSharedKey() error {
	raw, err := curve25519.X25519(a.ownScalar[:], a.peerDH()[:])
	if err != nil {
		return newErr(ErrHandshakeFailed)
	}
	// Blake2b's keyed-hash key is capped at 64 bytes, half the 128-byte
	// span of the four 32-byte fields named in the handshake's key
	// derivation. To mix all four contributions within that cap, each
	// half of the 64-byte key XOR-folds the acceptor's and initiator's
	// same-kind field: (accept_dh^connect_dh) ‖ (accept_nonce^connect_nonce).
	// See DESIGN.md for the Open Question resolution.
	key := make([]byte, 64)
	for i := 0; i < 32; i++ {
		key[i] = a.acceptDH[i] ^ a.connectDH[i]
		key[32+i] = a.acceptNonce[i] ^ a.connectNonce[i]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return newErr(ErrHandshakeFailed)
	}
	h.Write(raw)
	copy(a.sharedKey[:], h.Sum(nil))
	return nil
}

func (a *AE) Handshake(out []byte, in []byte) (HandshakeEvent, bool, error) {
	need := a.awaiting.size()
	if need == 0 {
		return HandshakeEvent{}, false, nil
	}
	if len(in) < need {
		return HandshakeEvent{}, false, nil
	}

	switch a.awaiting {
	case aeKeys:
		a.storePeerKeys(in[:aeKeysLen])
		a.awaiting = aeSignature
	case aeSignature:
		sig := in[:64]
		verifyKey := in[64:96]
		if !ed25519.Verify(verifyKey, a.peerKeysBytes(), sig) {
			return HandshakeEvent{}, false, newErr(ErrHandshakeFailed)
		}
		copy(a.foreignEdDSA[:], verifyKey)
		if err := a.deriveSharedKey(); err != nil {
			return HandshakeEvent{}, false, err
		}
		a.awaiting = aeNone
	}

	outLen := 0
	switch a.sending {
	case aeKeys:
		outLen = copy(out, a.ownKeysBytes())
		a.sending = aeSignature
	case aeSignature:
		sig := ed25519.Sign(a.localKeyPair, a.ownKeysBytes())
		msg := make([]byte, aeSigLen)
		copy(msg[:64], sig)
		copy(msg[64:], a.localKeyPair.Public().(ed25519.PublicKey))
		outLen = copy(out, msg)
		a.sending = aeNone
	}

	ev := HandshakeEvent{
		OutLen:  outLen,
		NextLen: a.awaiting.size(),
	}
	return ev, true, nil
}

func (a *AE) Result() [32]byte {
	return a.foreignEdDSA
}

func (a *AE) HeaderInLen(m int) int  { return 40 }
func (a *AE) HeaderOutLen(m int) int { return 40 }
func (a *AE) MinHandshakeSpace() int { return aeSigLen }

// Encode draws a random 24-byte nonce, XChaCha20-Poly1305 encrypts body in
// place, and writes nonce‖mac into headerOut.
func (a *AE) Encode(headerOut, body []byte) error {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(a.sharedKey[:])
	if err != nil {
		return err
	}
	sealed := aead.Seal(nil, nonce[:], body, nil)
	// Seal appends ciphertext+tag; split the tag into the header's mac
	// slot so body holds exactly M bytes of ciphertext.
	tag := sealed[len(sealed)-aead.Overhead():]
	copy(headerOut[:24], nonce[:])
	copy(headerOut[24:40], tag)
	copy(body, sealed[:len(sealed)-aead.Overhead()])
	return nil
}

// Decode authenticates and decrypts body in place using headerIn's
// nonce‖mac; a MAC failure surfaces MessageCorrupted.
func (a *AE) Decode(headerIn, body []byte) error {
	nonce := headerIn[:24]
	tag := headerIn[24:40]
	aead, err := chacha20poly1305.NewX(a.sharedKey[:])
	if err != nil {
		return err
	}
	sealed := make([]byte, len(body)+len(tag))
	copy(sealed, body)
	copy(sealed[len(body):], tag)
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return newErr(ErrMessageCorrupted)
	}
	copy(body, plain)
	return nil
}
