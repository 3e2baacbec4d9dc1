// Package message is the external application-serializer contract: a
// fixed-size, compile-time-known byte shape with a serialize/deserialize
// bijection on well-formed input, consumed generically by the connection
// and server layers.
package message

import "fmt"

// Codec serializes and deserializes a fixed-size application message type
// T to and from exactly Size() bytes.
type Codec[T any] interface {
	// Size is M, the compile-time-constant serialized length.
	Size() int
	// Serialize writes v into dst, which is exactly Size() bytes long.
	Serialize(v T, dst []byte)
	// Deserialize parses src (exactly Size() bytes) into a T, or returns
	// UnexpectedData if src is not well-formed.
	Deserialize(src []byte) (T, error)
}

// ErrUnexpectedData is returned by a Codec when src cannot be parsed into
// a well-formed T.
var ErrUnexpectedData = fmt.Errorf("message: unexpected data")
