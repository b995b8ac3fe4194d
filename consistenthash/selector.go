package consistenthash

import (
	"strconv"
)

// Selector maps a key to a bucket in [0, Len()).
// The mapping depends only on the key, the hint and the bucket list given at construction.
type Selector interface {
	// Select returns the bucket of key. A non-nil hint replaces the key as the hash input.
	Select(key string, hint *int) int
	Len() int
}

// ModuloSelector is "hash mod N".
type ModuloSelector struct {
	hashFunc Func
	n        int
}

// NewModuloSelector returns a selector over n buckets using fn, CompatHash when fn is nil.
func NewModuloSelector(n int, fn Func) *ModuloSelector {
	if fn == nil {
		fn = CompatHash
	}
	return &ModuloSelector{hashFunc: fn, n: n}
}

// Select implements Selector. The hint is used as the hash value itself.
func (s *ModuloSelector) Select(key string, hint *int) int {
	if s.n <= 0 {
		return -1
	}
	var hash uint64
	if hint != nil {
		hash = Abs(int64(*hint))
	} else {
		hash = s.hashFunc([]byte(key))
	}
	return int(hash % uint64(s.n))
}

func (s *ModuloSelector) Len() int { return s.n }

// RingSelector places buckets on a HashRing by their ids.
type RingSelector struct {
	ring  *HashRing[string]
	index map[string]int
}

// NewRingSelector returns a ring over the bucket ids, the bucket number is the position in ids.
func NewRingSelector(ids []string) *RingSelector {
	s := &RingSelector{
		ring:  NewHashRing(ids),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if _, ok := s.index[id]; !ok {
			s.index[id] = i
		}
	}
	return s
}

// Select implements Selector. The hint is hashed in its decimal form.
func (s *RingSelector) Select(key string, hint *int) int {
	input := []byte(key)
	if hint != nil {
		input = strconv.AppendInt(nil, int64(*hint), 10)
	}
	id, ok := s.ring.Get(input)
	if !ok {
		return -1
	}
	return s.index[id]
}

func (s *RingSelector) Len() int { return len(s.index) }

// NewSelector builds the selector for an algorithm over the bucket ids.
func NewSelector(alg HashAlg, ids []string) Selector {
	if alg == AlgConsistent {
		return NewRingSelector(ids)
	}
	return NewModuloSelector(len(ids), alg.Func())
}
