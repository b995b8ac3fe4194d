package consistenthash

import (
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf16"

	"github.com/cespare/xxhash"
)

// HashAlg names a key hashing algorithm.
type HashAlg string

const (
	// AlgCompat is CRC32 based and gives the same buckets as other text protocol clients.
	AlgCompat HashAlg = "compat"
	// AlgOldCompat is the legacy multiplicative string hash, kept for old deployments.
	AlgOldCompat HashAlg = "old_compat"
	// AlgNative is the String.hashCode of the JVM clients.
	AlgNative HashAlg = "native"
	// AlgXXHash is xxhash64 of the key bytes.
	AlgXXHash HashAlg = "xxhash"
	// AlgConsistent routes keys over a hash ring, buckets move less when servers change.
	AlgConsistent HashAlg = "consistent"
)

// ParseHashAlg returns an algorithm by its name, empty means AlgCompat.
func ParseHashAlg(name string) (HashAlg, error) {
	switch alg := HashAlg(strings.ToLower(strings.TrimSpace(name))); alg {
	case "":
		return AlgCompat, nil
	case AlgCompat, AlgOldCompat, AlgNative, AlgXXHash, AlgConsistent:
		return alg, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// Func returns the key hash function of the algorithm.
// AlgConsistent hashes with xxhash.
func (a HashAlg) Func() Func {
	switch a {
	case AlgOldCompat:
		return OldCompatHash
	case AlgNative:
		return NativeHash
	case AlgXXHash, AlgConsistent:
		return Hash
	default:
		return CompatHash
	}
}

// Hash returns the hash value of data.
func Hash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// CompatHash is "(crc32 >> 16) & 0x7fff" of the key bytes.
func CompatHash(data []byte) uint64 {
	crc := crc32.ChecksumIEEE(data)
	return uint64((crc >> 16) & 0x7fff)
}

// OldCompatHash is "h = h*33 + c" over the UTF-16 code units of the key, as a signed 64-bit value.
func OldCompatHash(data []byte) uint64 {
	var h int64
	for _, c := range utf16.Encode([]rune(string(data))) {
		h = h*33 + int64(c)
	}
	return Abs(h)
}

// NativeHash is "h = 31*h + c" over the UTF-16 code units of the key, as a signed 32-bit value.
func NativeHash(data []byte) uint64 {
	var h int32
	for _, c := range utf16.Encode([]rune(string(data))) {
		h = 31*h + int32(c)
	}
	return Abs(int64(h))
}

// Abs is the magnitude of a signed hash value.
// Buckets of negative hashes are mirrored, bucket(-h) == bucket(h).
func Abs(h int64) uint64 {
	if h < 0 {
		return uint64(-(h + 1)) + 1
	}
	return uint64(h)
}
