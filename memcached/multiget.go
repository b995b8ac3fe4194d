package memcached

import (
	"errors"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

type (
	// batch is the keys of one multiget routed to the same server.
	batch struct {
		shard *shardPool
		// keys as sent on the wire
		keys []string
	}

	// fetched is one message from a batch worker to the coordinator.
	// Exactly one of val and err is set.
	fetched struct {
		wireKey string
		val     valuecodec.Value
		err     error
		keys    []string
	}
)

// GetMulti fetches many keys with one request per server, the servers are queried in parallel.
// Missing keys are absent from the result. A failing server only loses its own keys,
// the failure is reported to the ErrorObserver and the log. The error is non-nil only
// if every key is malformed.
func (c *Client) GetMulti(keys []string, opts ...CallOption) (_ map[string]any, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpGet, "GetMulti", timer, &err, keys...)

	result := make(map[string]any, len(keys))
	err = c.getMulti(keys, newCallOptions(opts), func(key string, v any) {
		result[key] = v
	})
	return result, err
}

// GetMultiArray is GetMulti with the values in the order of keys, nil for a missing key.
func (c *Client) GetMultiArray(keys []string, opts ...CallOption) (_ []any, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpGet, "GetMultiArray", timer, &err, keys...)

	result := make(map[string]any, len(keys))
	if err = c.getMulti(keys, newCallOptions(opts), func(key string, v any) {
		result[key] = v
	}); err != nil {
		return nil, err
	}

	values := make([]any, len(keys))
	for i, key := range keys {
		values[i] = result[key]
	}
	return values, nil
}

// getMulti calls fn from the calling goroutine for every decoded value.
func (c *Client) getMulti(keys []string, co callOptions, fn func(key string, v any)) error {
	if len(keys) == 0 {
		return nil
	}

	var (
		// original key by wire key
		origin    = make(map[string]string, len(keys))
		batches   = make(map[*shardPool]*batch)
		order     []*shardPool
		malformed error
		nMalform  int
	)

	for i, key := range keys {
		skey, kErr := c.prepareKey(key)
		if kErr != nil {
			nMalform++
			malformed = errors.Join(malformed, kErr)
			continue
		}
		if _, dup := origin[skey]; dup {
			continue
		}

		s, rErr := c.reg.route(skey, co.hintFor(i))
		if rErr != nil {
			c.observeError(OpGet, "GetMulti", rErr, key)
			continue
		}

		origin[skey] = key
		b, ok := batches[s]
		if !ok {
			b = &batch{shard: s}
			batches[s] = b
			order = append(order, s)
		}
		b.keys = append(b.keys, skey)
	}

	if nMalform == len(keys) {
		return malformed
	}
	if malformed != nil {
		c.observeError(OpGet, "GetMulti", malformed)
	}

	var (
		wg  sync.WaitGroup
		out = make(chan fetched, len(origin))
	)
	for _, s := range order {
		b := batches[s]
		cn, cErr := s.checkout()
		if cErr != nil {
			c.observeError(OpGet, "GetMulti", cErr, originalKeys(b.keys, origin)...)
			continue
		}

		wg.Add(1)
		go fetchBatch(cn, b.keys, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	dc := co.decodeContext()
	for f := range out {
		if f.err != nil {
			c.observeError(OpGet, "GetMulti", f.err, originalKeys(f.keys, origin)...)
			continue
		}

		key, ok := origin[f.wireKey]
		if !ok {
			continue
		}
		v, dErr := c.tc.Decode(key, f.val, dc)
		if dErr != nil {
			c.observeError(OpGet, "GetMulti", dErr, key)
			continue
		}
		fn(key, v)
	}

	return nil
}

// fetchBatch is the per server worker of a multiget. Values read before a failure are kept.
func fetchBatch(cn *conn, keys []string, out chan<- fetched, wg *sync.WaitGroup) {
	defer wg.Done()

	var err error
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendGetCommand(b, keys)
	}); err == nil {
		err = cn.readValues(func(wireKey string, val valuecodec.Value) {
			out <- fetched{wireKey: wireKey, val: val}
		})
	}

	if err != nil {
		out <- fetched{err: err, keys: keys}
	}
}

func originalKeys(wireKeys []string, origin map[string]string) []string {
	keys := make([]string, len(wireKeys))
	for i, k := range wireKeys {
		keys[i] = origin[k]
	}
	return keys
}
