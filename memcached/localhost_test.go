package memcached

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localhostTCPAddr = "localhost:11211"

func TestLocalhost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	nc, err := net.DialTimeout("tcp", localhostTCPAddr, time.Second)
	if err != nil {
		t.Skipf("skipping test; no server running at %s", localhostTCPAddr)
	}
	_ = nc.Close()

	c := newTestClient(t, []string{localhostTCPAddr}, WithAliveCheck(true))
	prefix := "gomemcached-text:" + strconv.FormatInt(time.Now().UnixNano(), 36) + ":"

	ok, err := c.Set(prefix+"foo", "bar", WithExpiration(60))
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := c.Get(prefix + "foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar", v)

	ok, err = c.Delete(prefix + "foo")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Delete(prefix + "foo")
	require.NoError(t, err)
	assert.False(t, ok, "delete of a missing key")

	_, err = c.StoreCounter(prefix+"counter", 10, WithExpiration(60))
	require.NoError(t, err)
	n, err := c.Incr(prefix+"counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)
	n, err = c.Decr(prefix+"counter", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	big := strings.Repeat("x", 100*1024)
	_, err = c.Set(prefix+"big", big, WithExpiration(60))
	require.NoError(t, err)
	v, _, err = c.Get(prefix + "big")
	require.NoError(t, err)
	assert.Equal(t, big, v)

	for _, k := range []string{"a", "b", "c"} {
		_, err = c.Set(prefix+k, k, WithExpiration(60))
		require.NoError(t, err)
	}
	values, err := c.GetMulti([]string{prefix + "a", prefix + "b", prefix + "c", prefix + "d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{prefix + "a": "a", prefix + "b": "b", prefix + "c": "c"}, values)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.NotEmpty(t, stats[localhostTCPAddr]["version"])
}
