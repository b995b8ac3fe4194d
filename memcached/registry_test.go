package memcached

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliexpressru/gomemcached-text/consistenthash"
	"github.com/aliexpressru/gomemcached-text/utils"
)

var registryServers = []string{"127.0.0.1:21001", "127.0.0.1:21002", "127.0.0.1:21003"}

func newIdleRegistry(t *testing.T, cfg registryConfig) *Registry {
	t.Helper()
	cfg.disableMaintenance = true
	return newMockRegistry(t, &network{}, cfg, registryServers...)
}

func TestRegistryRoute(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{failover: true})

	assert.Equal(t, registryServers, r.Servers())

	// deterministic for the same key
	first, err := r.Route("user:42", nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		id, rErr := r.Route("user:42", nil)
		require.NoError(t, rErr)
		assert.Equal(t, first, id)
	}

	// the key goes to the compat hash bucket
	want := registryServers[consistenthash.CompatHash([]byte("user:42"))%3]
	assert.Equal(t, want, first)

	// a hint is the hash value itself
	for hint, idx := range map[int]int{0: 0, 1: 1, 5: 2, -4: 1} {
		id, rErr := r.Route("ignored", &hint)
		require.NoError(t, rErr)
		assert.Equalf(t, registryServers[idx], id, "hint %d", hint)
	}
}

func TestRegistryFailover(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{failover: true})
	hint := 1

	require.NoError(t, r.MarkDown(registryServers[1]))
	id, err := r.Route("k", &hint)
	require.NoError(t, err)
	assert.Equal(t, registryServers[2], id, "the next server takes over")

	require.NoError(t, r.MarkDown(registryServers[2]))
	id, err = r.Route("k", &hint)
	require.NoError(t, err)
	assert.Equal(t, registryServers[0], id, "the probe wraps around")

	// keys of live servers do not move
	zero := 0
	id, err = r.Route("k", &zero)
	require.NoError(t, err)
	assert.Equal(t, registryServers[0], id)

	require.NoError(t, r.MarkDown(registryServers[0]))
	_, err = r.Route("k", &hint)
	assert.ErrorIs(t, err, ErrNoAvailableShard)

	assert.Equal(t, map[string]bool{
		registryServers[0]: false,
		registryServers[1]: false,
		registryServers[2]: false,
	}, r.Status())
}

func TestRegistryNoFailover(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{failover: false})
	hint := 2

	require.NoError(t, r.MarkDown(registryServers[2]))
	_, err := r.Route("k", &hint)
	assert.ErrorIs(t, err, ErrNoAvailableShard)

	hint = 0
	id, err := r.Route("k", &hint)
	require.NoError(t, err)
	assert.Equal(t, registryServers[0], id)
}

func TestRegistryRing(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{hashAlg: consistenthash.AlgConsistent})

	a, err := r.Route("foo", nil)
	require.NoError(t, err)
	b, err := r.Route("foo", nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, registryServers, a)
}

func TestRegistryShardLookup(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{})

	shards, err := r.shardsFor(nil)
	require.NoError(t, err)
	assert.Len(t, shards, 3)

	shards, err = r.shardsFor([]string{registryServers[1], "127.0.0.1:1"})
	assert.ErrorIs(t, err, ErrUnknownServer)
	require.Len(t, shards, 1)
	assert.Equal(t, registryServers[1], shards[0].id)

	assert.ErrorIs(t, r.MarkDown("nope:1"), ErrUnknownServer)
}

func TestRegistryInvalid(t *testing.T) {
	_, err := newRegistry(context.Background(), &network{}, nil, registryConfig{maxConns: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)

	spec, _ := utils.ParseServerSpec("127.0.0.1:21001")
	_, err = newRegistry(context.Background(), &network{}, []utils.ServerSpec{spec, spec},
		registryConfig{maxConns: 1, disableMaintenance: true})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegistryClose(t *testing.T) {
	r := newIdleRegistry(t, registryConfig{})
	r.Close()
	r.Close()

	_, err := r.Route("k", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.shardsFor(nil)
	assert.ErrorIs(t, err, ErrClosed)
}
