package consistenthash

import (
	"slices"
	"sort"
	"strconv"

	"github.com/aliexpressru/gomemcached-text/utils"
)

const (
	// DefaultReplicas is the number of virtual points of every node.
	DefaultReplicas = 256

	prime = 18245165
)

type (
	// Func defines the hash method.
	Func func(data []byte) uint64

	// A HashRing is an immutable consistent hash ring.
	// Nodes are placed on the ring by their utils.Repr, so the ring
	// depends on the node set only and not on the order of the nodes.
	HashRing[N comparable] struct {
		hashFunc Func
		points   []uint64
		owners   map[uint64][]N
		nodes    []N
	}
)

// NewHashRing returns a HashRing over nodes with DefaultReplicas points per node.
func NewHashRing[N comparable](nodes []N) *HashRing[N] {
	return NewCustomHashRing(nodes, DefaultReplicas, Hash)
}

// NewCustomHashRing returns a HashRing with given replicas and hash func.
// Duplicate nodes are placed once.
func NewCustomHashRing[N comparable](nodes []N, replicas int, fn Func) *HashRing[N] {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	if fn == nil {
		fn = Hash
	}

	h := &HashRing[N]{
		hashFunc: fn,
		owners:   make(map[uint64][]N, len(nodes)*replicas),
	}

	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		repr := utils.Repr(node)
		if _, dup := seen[repr]; dup {
			continue
		}
		seen[repr] = struct{}{}
		h.nodes = append(h.nodes, node)

		for i := 0; i < replicas; i++ {
			point := fn([]byte(replicaRepr(repr, i)))
			if _, taken := h.owners[point]; !taken {
				h.points = append(h.points, point)
			}
			h.owners[point] = append(h.owners[point], node)
		}
	}
	slices.Sort(h.points)

	return h
}

// Get returns the node owning the key.
func (h *HashRing[N]) Get(key []byte) (N, bool) {
	return h.GetByHash(h.hashFunc(key), key)
}

// GetByHash returns the node owning the ring position hash.
// key only breaks ties between nodes sharing a virtual point.
func (h *HashRing[N]) GetByHash(hash uint64, key []byte) (N, bool) {
	var zero N
	if len(h.points) == 0 {
		return zero, false
	}

	idx := sort.Search(len(h.points), func(i int) bool {
		return h.points[i] >= hash
	}) % len(h.points)

	owners := h.owners[h.points[idx]]
	if len(owners) == 1 {
		return owners[0], true
	}
	tie := h.hashFunc(append(strconv.AppendInt(nil, prime, 10), key...))
	return owners[tie%uint64(len(owners))], true
}

// Nodes returns the distinct nodes of the ring in insertion order.
func (h *HashRing[N]) Nodes() []N {
	return slices.Clone(h.nodes)
}

func replicaRepr(nodeRepr string, replicaNumber int) string {
	return nodeRepr + "_virtual" + strconv.Itoa(replicaNumber)
}
