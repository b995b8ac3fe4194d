// Package valuecodec converts application values to the bytes and flags stored in memcached and back.
package valuecodec

import (
	"errors"
)

// Flags is the 32-bit flags field stored next to a value.
type Flags uint32

const (
	// FlagCompressed marks gzip-compressed data.
	FlagCompressed Flags = 2
	// FlagSerialized marks data produced by a Serializer.
	FlagSerialized Flags = 8
)

// DefaultCompressThreshold is the payload size in bytes above which values are compressed.
const DefaultCompressThreshold = 30720

var (
	// ErrEncode means the value could not be turned into bytes, nothing is written.
	ErrEncode = errors.New("gomemcached: failed to encode value")
	// ErrDecode means data read from the server could not be decoded.
	ErrDecode = errors.New("gomemcached: failed to decode value")
	// ErrUnknownEncoding is returned for an unsupported text encoding name.
	ErrUnknownEncoding = errors.New("gomemcached: unknown text encoding")
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Value is the wire form of a cached value.
type Value struct {
	Flags Flags
	Data  []byte
}

// DecodeContext carries per-call decode hints.
type DecodeContext struct {
	// AsString returns non-serialized values as text.
	AsString bool
	// Target returns a pointer to decode a serialized value of key into, or nil.
	Target func(key string) any
}

func (dc DecodeContext) target(key string) any {
	if dc.Target == nil {
		return nil
	}
	return dc.Target(key)
}
