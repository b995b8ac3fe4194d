package consistenthash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatHash(t *testing.T) {
	tests := map[string]uint64{
		"":      0,
		"foo":   3187,
		"hello": 13840,
		"key:1": 2927,
		"a":     26807,
		"ключ":  3247,
	}
	for key, want := range tests {
		assert.Equalf(t, want, CompatHash([]byte(key)), "CompatHash(%q)", key)
	}
}

func TestNativeHash(t *testing.T) {
	tests := map[string]uint64{
		"":                   0,
		"foo":                101574,
		"hello":              99162322,
		"Aa":                 2112,
		"BB":                 2112,
		"ключ":               33309882,
		"😀x":                 54959989,
		"polygenelubricants": 2147483648,
	}
	for key, want := range tests {
		assert.Equalf(t, want, NativeHash([]byte(key)), "NativeHash(%q)", key)
	}
}

func TestOldCompatHash(t *testing.T) {
	tests := map[string]uint64{
		"":                   0,
		"foo":                114852,
		"Aa":                 2242,
		"BB":                 2244,
		"polygenelubricants": 8136042914648030586,
	}
	for key, want := range tests {
		assert.Equalf(t, want, OldCompatHash([]byte(key)), "OldCompatHash(%q)", key)
	}
}

func TestAbs(t *testing.T) {
	assert.Equal(t, uint64(0), Abs(0))
	assert.Equal(t, uint64(5), Abs(-5))
	assert.Equal(t, uint64(5), Abs(5))
	assert.Equal(t, uint64(math.MaxInt64)+1, Abs(math.MinInt64))
}

func TestParseHashAlg(t *testing.T) {
	for name, want := range map[string]HashAlg{
		"":           AlgCompat,
		"compat":     AlgCompat,
		" NATIVE ":   AlgNative,
		"old_compat": AlgOldCompat,
		"xxhash":     AlgXXHash,
		"consistent": AlgConsistent,
	} {
		got, err := ParseHashAlg(name)
		require.NoErrorf(t, err, "ParseHashAlg(%q)", name)
		assert.Equal(t, want, got)
	}

	_, err := ParseHashAlg("md5")
	assert.Error(t, err)
}

func TestHashAlgFunc(t *testing.T) {
	key := []byte("some-key")
	assert.Equal(t, CompatHash(key), AlgCompat.Func()(key))
	assert.Equal(t, NativeHash(key), AlgNative.Func()(key))
	assert.Equal(t, OldCompatHash(key), AlgOldCompat.Func()(key))
	assert.Equal(t, Hash(key), AlgXXHash.Func()(key))
	assert.Equal(t, Hash(key), AlgConsistent.Func()(key))
	assert.Equal(t, CompatHash(key), HashAlg("unknown").Func()(key))
}
