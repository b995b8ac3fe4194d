package consistenthash

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuloSelector(t *testing.T) {
	s := NewModuloSelector(3, nil)
	assert.Equal(t, 3, s.Len())

	// CompatHash("foo") == 3187
	assert.Equal(t, 3187%3, s.Select("foo", nil))
	for i := 0; i < 100; i++ {
		key := "k" + strconv.Itoa(i)
		assert.Equal(t, s.Select(key, nil), s.Select(key, nil), "selection must be deterministic")
	}

	hint := 7
	assert.Equal(t, 1, s.Select("foo", &hint), "hint is the hash value")
	neg := -7
	assert.Equal(t, 1, s.Select("foo", &neg), "negative hint is mirrored")

	assert.Equal(t, -1, NewModuloSelector(0, nil).Select("foo", nil))

	native := NewModuloSelector(10, NativeHash)
	// NativeHash("hello") == 99162322
	assert.Equal(t, 2, native.Select("hello", nil))
}

func TestRingSelector(t *testing.T) {
	ids := []string{"a:1", "b:1", "c:1"}
	s := NewRingSelector(ids)
	assert.Equal(t, 3, s.Len())

	seen := map[int]bool{}
	for i := 0; i < 300; i++ {
		idx := s.Select("key"+strconv.Itoa(i), nil)
		assert.True(t, idx >= 0 && idx < 3)
		seen[idx] = true
	}
	assert.Len(t, seen, 3)

	hint := 12
	assert.Equal(t, s.Select("other", &hint), s.Select("anything", &hint))

	empty := NewRingSelector(nil)
	assert.Equal(t, -1, empty.Select("key", nil))
}

func TestNewSelector(t *testing.T) {
	ids := []string{"a:1", "b:1"}
	assert.IsType(t, &RingSelector{}, NewSelector(AlgConsistent, ids))
	assert.IsType(t, &ModuloSelector{}, NewSelector(AlgCompat, ids))
	assert.IsType(t, &ModuloSelector{}, NewSelector(AlgNative, ids))
}
