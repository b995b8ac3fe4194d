package memcached

import (
	"context"
	"time"

	"github.com/aliexpressru/gomemcached-text/consistenthash"
	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

type options struct {
	Client
	cfg           *config
	disableLogger bool
	native        valuecodec.NativeValueCodec
	serializer    valuecodec.Serializer
}

type Option func(*options)

// WithContext sets the parent context of the maintenance goroutine.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.Client.ctx = ctx
	}
}

// WithHeadlessServiceAddress sets the headless service whose addresses are used as servers.
// It takes precedence over the server list.
func WithHeadlessServiceAddress(addr string) Option {
	return func(o *options) {
		o.cfg.HeadlessServiceAddress = addr
	}
}

// WithMaxConns is sets a custom value of open connections per address.
// By default, DefaultMaxConns will be used.
func WithMaxConns(num int) Option {
	return func(o *options) {
		o.cfg.MaxConns = num
	}
}

// WithMinConns is sets the number of connections the maintenance keeps open per address.
func WithMinConns(num int) Option {
	return func(o *options) {
		o.cfg.MinConns = num
	}
}

// WithInitConns is sets the number of connections opened per address on start.
func WithInitConns(num int) Option {
	return func(o *options) {
		o.cfg.InitConns = num
	}
}

// WithTimeout is sets custom read/write timeout for connections.
// By default, DefaultTimeout will be used.
func WithTimeout(tm time.Duration) Option {
	return func(o *options) {
		o.cfg.SocketTimeout = tm
	}
}

// WithConnectTimeout is sets custom dial timeout.
// By default, DefaultConnectTimeout will be used.
func WithConnectTimeout(tm time.Duration) Option {
	return func(o *options) {
		o.cfg.ConnectTimeout = tm
	}
}

// WithPeriodForMaintenance is sets a custom frequency for probing down servers and topping up pools.
// By default, DefaultMaintenancePeriod will be used.
func WithPeriodForMaintenance(t time.Duration) Option {
	return func(o *options) {
		o.cfg.MaintPeriod = t
	}
}

// WithNoDelay sets TCP_NODELAY on new connections.
func WithNoDelay(enable bool) Option {
	return func(o *options) {
		o.cfg.NoDelay = enable
	}
}

// WithAliveCheck turns on a "version" round trip before a pooled connection is reused.
func WithAliveCheck(enable bool) Option {
	return func(o *options) {
		o.cfg.AliveCheck = enable
	}
}

// WithFailover sets whether keys of a down server go to the next live one.
func WithFailover(enable bool) Option {
	return func(o *options) {
		o.cfg.Failover = enable
	}
}

// WithCompression sets gzip compression for values longer than threshold bytes.
func WithCompression(enable bool, threshold int) Option {
	return func(o *options) {
		o.cfg.CompressEnable = enable
		o.cfg.CompressThreshold = threshold
	}
}

// WithDefaultEncoding sets the text encoding of strings, e.g. "UTF-8" or "ISO-8859-1".
func WithDefaultEncoding(name string) Option {
	return func(o *options) {
		o.cfg.DefaultEncoding = name
	}
}

// WithPrimitiveAsString stores and reads all primitive values as plain text.
func WithPrimitiveAsString() Option {
	return func(o *options) {
		o.cfg.PrimitiveAsString = true
	}
}

// WithDisableKeySanitizing sends keys as is, they must be valid memcached keys.
func WithDisableKeySanitizing() Option {
	return func(o *options) {
		o.cfg.SanitizeKeys = false
	}
}

// WithHashAlg sets the server selection algorithm.
func WithHashAlg(alg consistenthash.HashAlg) Option {
	return func(o *options) {
		o.cfg.Hashing = string(alg)
	}
}

// WithSerializer sets the codec of non primitive values.
func WithSerializer(s valuecodec.Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// WithNativeCodec sets the codec of primitive values.
func WithNativeCodec(nc valuecodec.NativeValueCodec) Option {
	return func(o *options) {
		o.native = nc
	}
}

// WithErrorObserver sets the observer notified about failed operations.
func WithErrorObserver(obs ErrorObserver) Option {
	return func(o *options) {
		o.Client.observer = obs
	}
}

// WithDisableNodeProvider is disabled the maintenance of servers and pools.
func WithDisableNodeProvider() Option {
	return func(o *options) {
		o.Client.disableNodeProvider = true
	}
}

// WithDisableRefreshConnsInPool is disabled auto close some connections in pool in maintenance.
// This is done to refresh connections in the pool.
func WithDisableRefreshConnsInPool() Option {
	return func(o *options) {
		o.Client.disableRefreshConns = true
	}
}

// WithDisableMemcachedDiagnostic is disabled write library metrics.
//
//	gomemcached_text_method_duration_seconds
//	gomemcached_text_shard_up
func WithDisableMemcachedDiagnostic() Option {
	return func(o *options) {
		o.Client.disableMemcachedDiagnostic = true
	}
}

// WithDisableLogger is disabled internal library logs.
func WithDisableLogger() Option {
	return func(o *options) {
		o.disableLogger = true
	}
}

func withNetwork(nw *network) Option {
	return func(o *options) {
		o.Client.nw = nw
	}
}

type callOptions struct {
	hint     *int
	hints    []int
	exp      uint32
	asString bool
	target   func(key string) any
}

// CallOption tunes a single operation.
type CallOption func(*callOptions)

func newCallOptions(opts []CallOption) callOptions {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

// hintFor returns the hint of the i-th key of a multi-key call.
func (co callOptions) hintFor(i int) *int {
	if i < len(co.hints) {
		return &co.hints[i]
	}
	return co.hint
}

// WithHashHint routes the key by hint instead of the key hash.
func WithHashHint(hint int) CallOption {
	return func(co *callOptions) {
		co.hint = &hint
	}
}

// WithHashHints gives per key hints to a multi-key call, in the order of the keys.
func WithHashHints(hints []int) CallOption {
	return func(co *callOptions) {
		co.hints = hints
	}
}

// WithExpiration sets the expiration of a stored item, seconds or a unix time.
func WithExpiration(exp uint32) CallOption {
	return func(co *callOptions) {
		co.exp = exp
	}
}

// AsString stores a primitive as plain text or reads a value as text.
func AsString() CallOption {
	return func(co *callOptions) {
		co.asString = true
	}
}

// WithDecodeTarget decodes serialized values into ptr.
func WithDecodeTarget(ptr any) CallOption {
	return func(co *callOptions) {
		co.target = func(string) any { return ptr }
	}
}

// WithDecodeTargets returns a fresh pointer to decode the serialized value of a key into.
func WithDecodeTargets(fn func(key string) any) CallOption {
	return func(co *callOptions) {
		co.target = fn
	}
}

func (co callOptions) decodeContext() valuecodec.DecodeContext {
	return valuecodec.DecodeContext{AsString: co.asString, Target: co.target}
}
