package memcached

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StoreCounter sets the key to the decimal text form of counter, usable by Incr and Decr.
func (c *Client) StoreCounter(key string, counter int64, opts ...CallOption) (bool, error) {
	co := newCallOptions(opts)
	return c.Store(Set, key, co.exp, counter, append(opts[:len(opts):len(opts)], AsString())...)
}

// GetCounter reads a counter, -1 when the key is absent.
func (c *Client) GetCounter(key string, opts ...CallOption) (_ int64, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpGet, "GetCounter", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return -1, err
	}

	val, found, err := c.get(skey, co.hint)
	if err != nil || !found {
		return -1, err
	}

	dc := co.decodeContext()
	dc.AsString = true
	v, err := c.tc.Decode(key, val, dc)
	if err != nil {
		return -1, err
	}
	s, ok := v.(string)
	if !ok {
		return -1, fmt.Errorf("%w: counter %s holds %T", ErrDecode, key, v)
	}
	// decr keeps the stored length and pads with spaces
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return -1, fmt.Errorf("%w: counter %s: %w", ErrDecode, key, err)
	}
	return n, nil
}

// AddOrIncr stores delta when the key is absent, otherwise increments the counter.
// Returns the counter value.
func (c *Client) AddOrIncr(key string, delta uint64, opts ...CallOption) (int64, error) {
	return c.addOrDelta(Increment, key, delta, opts)
}

// AddOrDecr stores delta when the key is absent, otherwise decrements the counter.
// Returns the counter value.
func (c *Client) AddOrDecr(key string, delta uint64, opts ...CallOption) (int64, error) {
	return c.addOrDelta(Decrement, key, delta, opts)
}

func (c *Client) addOrDelta(deltaMode DeltaMode, key string, delta uint64, opts []CallOption) (int64, error) {
	co := newCallOptions(opts)

	stored, err := c.Store(Add, key, co.exp, delta, append(opts[:len(opts):len(opts)], AsString())...)
	if err != nil {
		return -1, err
	}
	if stored {
		if delta > math.MaxInt64 {
			return -1, fmt.Errorf("%w: counter %d overflows int64", ErrDecode, delta)
		}
		return int64(delta), nil
	}
	return c.Delta(deltaMode, key, delta, opts...)
}
