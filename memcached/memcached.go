package memcached

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/valyala/bytebufferpool"

	"github.com/aliexpressru/gomemcached-text/consistenthash"
	"github.com/aliexpressru/gomemcached-text/logger"
	"github.com/aliexpressru/gomemcached-text/utils"
	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

const (
	// DefaultTimeout is the default socket read/write timeout.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultConnectTimeout is the default dial timeout.
	DefaultConnectTimeout = 500 * time.Millisecond

	// DefaultMaxConns is the default maximum number of connections
	// kept for any single address.
	DefaultMaxConns = 100

	// DefaultMinConns is the default number of connections the maintenance keeps open.
	DefaultMinConns = 1

	// DefaultInitConns is the default number of connections opened on start.
	DefaultInitConns = 1

	// DefaultMaintenancePeriod is the default time period of server probing and pool maintenance.
	DefaultMaintenancePeriod = 15 * time.Second

	// DefaultRetryCountForConn is a default number of connection retries before return i/o timeout error
	DefaultRetryCountForConn = uint8(3)

	// DefaultOfNumberConnsToRefreshPerPeriod is number of idle connections in pool closed in every maintenance cycle
	DefaultOfNumberConnsToRefreshPerPeriod = 1
)

var _ Memcached = (*Client)(nil)

type (
	Memcached interface {
		Store(storeMode StoreMode, key string, exp uint32, value any, opts ...CallOption) (bool, error)
		Set(key string, value any, opts ...CallOption) (bool, error)
		Add(key string, value any, opts ...CallOption) (bool, error)
		Replace(key string, value any, opts ...CallOption) (bool, error)
		Append(appendMode AppendMode, key string, data []byte, opts ...CallOption) (bool, error)
		Get(key string, opts ...CallOption) (any, bool, error)
		KeyExists(key string, opts ...CallOption) (bool, error)
		Delete(key string, opts ...CallOption) (bool, error)
		DeleteWithExpiry(key string, exp uint32, opts ...CallOption) (bool, error)
		Delta(deltaMode DeltaMode, key string, delta uint64, opts ...CallOption) (int64, error)
		Incr(key string, delta uint64, opts ...CallOption) (int64, error)
		Decr(key string, delta uint64, opts ...CallOption) (int64, error)
		StoreCounter(key string, counter int64, opts ...CallOption) (bool, error)
		GetCounter(key string, opts ...CallOption) (int64, error)
		AddOrIncr(key string, delta uint64, opts ...CallOption) (int64, error)
		AddOrDecr(key string, delta uint64, opts ...CallOption) (int64, error)
		GetMulti(keys []string, opts ...CallOption) (map[string]any, error)
		GetMultiArray(keys []string, opts ...CallOption) ([]any, error)
		FlushAll(servers ...string) (bool, error)
		FlushAllWithDelay(delay uint32, servers ...string) (bool, error)
		Stats(servers ...string) (map[string]map[string]string, error)
		StatsItems(servers ...string) (map[string]map[string]string, error)
		StatsSlabs(servers ...string) (map[string]map[string]string, error)
		StatsCacheDump(slab, limit int, servers ...string) (map[string]map[string]string, error)

		Registry() *Registry
		Servers() []string
		Close()
		CloseAvailableConnsInAllShardPools(numOfClose int) int
	}

	// Client is a memcached text protocol client over a fixed list of servers.
	// It is safe for unlocked use by multiple concurrent goroutines.
	Client struct {
		ctx context.Context
		nw  *network
		cfg *config

		reg *Registry
		tc  *valuecodec.Transcoder

		observer     ErrorObserver
		sanitizeKeys bool

		// disableMemcachedDiagnostic - is flag for turn off write metrics from lib.
		disableMemcachedDiagnostic bool
		// disableNodeProvider - is flag for turn off probing of servers and pool maintenance.
		disableNodeProvider bool
		// disableRefreshConns - is flag for turn off to refresh conns in the pool.
		disableRefreshConns bool
	}

	network struct {
		dial        func(network string, address string) (net.Conn, error)
		dialTimeout func(network string, address string, timeout time.Duration) (net.Conn, error)
		lookupHost  func(host string) (addrs []string, err error)
	}

	config struct {
		// HeadlessServiceAddress Headless service to lookup all the memcached ip addresses.
		HeadlessServiceAddress string `envconfig:"MEMCACHED_HEADLESS_SERVICE_ADDRESS"`
		// Servers List of servers with hosted memcached
		Servers []string `envconfig:"MEMCACHED_SERVERS"`
		// MemcachedPort The optional port override for cases when memcached IP addresses are obtained from headless service.
		MemcachedPort int `envconfig:"MEMCACHED_PORT" default:"11211"`

		InitConns      int           `envconfig:"MEMCACHED_INIT_CONNS" default:"1"`
		MinConns       int           `envconfig:"MEMCACHED_MIN_CONNS" default:"1"`
		MaxConns       int           `envconfig:"MEMCACHED_MAX_CONNS" default:"100"`
		MaintPeriod    time.Duration `envconfig:"MEMCACHED_MAINT_PERIOD" default:"15s"`
		NoDelay        bool          `envconfig:"MEMCACHED_NO_DELAY" default:"true"`
		SocketTimeout  time.Duration `envconfig:"MEMCACHED_SOCKET_TIMEOUT" default:"500ms"`
		ConnectTimeout time.Duration `envconfig:"MEMCACHED_CONNECT_TIMEOUT" default:"500ms"`
		AliveCheck     bool          `envconfig:"MEMCACHED_ALIVE_CHECK" default:"false"`
		Failover       bool          `envconfig:"MEMCACHED_FAILOVER" default:"true"`

		CompressEnable    bool   `envconfig:"MEMCACHED_COMPRESS_ENABLE" default:"true"`
		CompressThreshold int    `envconfig:"MEMCACHED_COMPRESS_THRESHOLD" default:"30720"`
		DefaultEncoding   string `envconfig:"MEMCACHED_DEFAULT_ENCODING" default:"UTF-8"`
		PrimitiveAsString bool   `envconfig:"MEMCACHED_PRIMITIVE_AS_STRING" default:"false"`
		SanitizeKeys      bool   `envconfig:"MEMCACHED_SANITIZE_KEYS" default:"true"`
		Hashing           string `envconfig:"MEMCACHED_HASHING" default:"compat"`
		Serializer        string `envconfig:"MEMCACHED_SERIALIZER" default:"gob"`
	}
)

func defaultConfig() *config {
	return &config{
		MemcachedPort:     utils.DefaultPort,
		InitConns:         DefaultInitConns,
		MinConns:          DefaultMinConns,
		MaxConns:          DefaultMaxConns,
		MaintPeriod:       DefaultMaintenancePeriod,
		NoDelay:           true,
		SocketTimeout:     DefaultTimeout,
		ConnectTimeout:    DefaultConnectTimeout,
		Failover:          true,
		CompressEnable:    true,
		CompressThreshold: valuecodec.DefaultCompressThreshold,
		DefaultEncoding:   "UTF-8",
		SanitizeKeys:      true,
		Hashing:           string(consistenthash.AlgCompat),
		Serializer:        "gob",
	}
}

func (cfg *config) validate() error {
	switch {
	case cfg.MaxConns <= 0:
		return fmt.Errorf("%w: max conns must be positive, got %d", ErrInvalidConfig, cfg.MaxConns)
	case cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns:
		return fmt.Errorf("%w: min conns %d must be in [0, %d]", ErrInvalidConfig, cfg.MinConns, cfg.MaxConns)
	case cfg.InitConns < 0 || cfg.InitConns > cfg.MaxConns:
		return fmt.Errorf("%w: init conns %d must be in [0, %d]", ErrInvalidConfig, cfg.InitConns, cfg.MaxConns)
	case cfg.MaintPeriod <= 0:
		return fmt.Errorf("%w: maintenance period must be positive", ErrInvalidConfig)
	case cfg.CompressThreshold < 0:
		return fmt.Errorf("%w: compress threshold must not be negative", ErrInvalidConfig)
	}
	return nil
}

// InitFromEnv returns a memcached client using the config.HeadlessServiceAddress or config.Servers,
// the rest of the configuration is read from MEMCACHED_* environment variables.
// Options take precedence over the environment.
func InitFromEnv(opts ...Option) (*Client, error) {
	cfg := new(config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("%s: client init err: %s", libPrefix, err.Error())
	}
	return newFromConfig(cfg, opts...)
}

// New returns a memcached client for servers in "host[:port]" form with the default configuration.
func New(servers []string, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	cfg.Servers = servers
	return newFromConfig(cfg, opts...)
}

func newFromConfig(cfg *config, opts ...Option) (*Client, error) {
	op := &options{cfg: cfg}
	for _, opt := range opts {
		opt(op)
	}

	if op.Client.nw == nil {
		op.Client.nw = &network{
			dial:        net.Dial,
			dialTimeout: net.DialTimeout,
			lookupHost:  net.LookupHost,
		}
	}
	if op.Client.ctx == nil {
		op.Client.ctx = context.Background()
	}
	if op.Client.observer == nil {
		op.Client.observer = nopObserver{}
	}
	if op.disableLogger {
		logger.DisableLogger()
	}

	if !(cfg.HeadlessServiceAddress != "" || len(cfg.Servers) != 0) {
		return nil, fmt.Errorf("%w, you must fill in either MEMCACHED_HEADLESS_SERVICE_ADDRESS or MEMCACHED_SERVERS", ErrNotConfigured)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	alg, err := consistenthash.ParseHashAlg(cfg.Hashing)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	nodes, err := getNodes(op.nw.lookupHost, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w, %s", ErrInvalidAddr, err.Error())
	}
	specs := make([]utils.ServerSpec, 0, len(nodes))
	for _, n := range nodes {
		spec, sErr := utils.ParseServerSpec(n)
		if sErr != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidAddr, n, sErr.Error())
		}
		specs = append(specs, spec)
	}

	serializer := op.serializer
	if serializer == nil {
		if serializer, err = valuecodec.NewSerializer(cfg.Serializer); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
	}
	tc, err := valuecodec.New(valuecodec.Config{
		CompressEnable:    cfg.CompressEnable,
		CompressThreshold: cfg.CompressThreshold,
		PrimitiveAsString: cfg.PrimitiveAsString,
		DefaultEncoding:   cfg.DefaultEncoding,
		Native:            op.native,
		Serializer:        serializer,
		OnCompressError: func(err error) {
			logger.Warnf("%s: compression failed, value is stored uncompressed - %s", libPrefix, err.Error())
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	mc := &op.Client
	mc.cfg = cfg
	mc.tc = tc
	mc.sanitizeKeys = cfg.SanitizeKeys

	mc.reg, err = newRegistry(mc.ctx, mc.nw, specs, registryConfig{
		initConns:          cfg.InitConns,
		minConns:           cfg.MinConns,
		maxConns:           cfg.MaxConns,
		maintPeriod:        cfg.MaintPeriod,
		socketTimeout:      cfg.SocketTimeout,
		connectTimeout:     cfg.ConnectTimeout,
		noDelay:            cfg.NoDelay,
		aliveCheck:         cfg.AliveCheck,
		failover:           cfg.Failover,
		hashAlg:            alg,
		disableMaintenance: mc.disableNodeProvider,
		disableRefresh:     mc.disableRefreshConns,
		disableDiagnostic:  mc.disableMemcachedDiagnostic,
	})
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// Registry returns the server registry of the client.
func (c *Client) Registry() *Registry {
	return c.reg
}

// Servers returns the server ids in configuration order.
func (c *Client) Servers() []string {
	return c.reg.Servers()
}

// Close stops the maintenance and closes all connections.
func (c *Client) Close() {
	c.reg.Close()
}

// CloseAvailableConnsInAllShardPools closes at most numOfClose idle connections per server.
// Returns the number of closed connections.
func (c *Client) CloseAvailableConnsInAllShardPools(numOfClose int) int {
	var closed int
	for _, s := range c.reg.shards {
		closed += s.refreshIdle(numOfClose, 0)
	}
	return closed
}

// Store writes the value with expiration in the given mode.
// false and a nil error means that the server did not store the value (e.g. add of an existing key).
func (c *Client) Store(storeMode StoreMode, key string, exp uint32, value any, opts ...CallOption) (_ bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpSet, "Store", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return false, err
	}

	val, err := c.tc.Encode(value, co.asString)
	if err != nil {
		return false, err
	}

	return c.store(skey, co.hint, storeMode.Resolve(), uint32(val.Flags), exp, val.Data)
}

// Set stores the value unconditionally.
func (c *Client) Set(key string, value any, opts ...CallOption) (bool, error) {
	return c.Store(Set, key, newCallOptions(opts).exp, value, opts...)
}

// Add stores the value only if the key is absent.
func (c *Client) Add(key string, value any, opts ...CallOption) (bool, error) {
	return c.Store(Add, key, newCallOptions(opts).exp, value, opts...)
}

// Replace stores the value only if the key is present.
func (c *Client) Replace(key string, value any, opts ...CallOption) (bool, error) {
	return c.Store(Replace, key, newCallOptions(opts).exp, value, opts...)
}

// Append adds raw data after or before the existing value, false when the key is absent.
func (c *Client) Append(appendMode AppendMode, key string, data []byte, opts ...CallOption) (_ bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpSet, "Append", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return false, err
	}

	return c.store(skey, co.hint, appendMode.Resolve(), 0, 0, data)
}

func (c *Client) store(skey string, hint *int, verb string, flags, exp uint32, data []byte) (_ bool, err error) {
	cn, err := c.checkout(skey, hint)
	if err != nil {
		return false, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendStorageCommand(b, verb, skey, flags, exp, data)
	}); err != nil {
		return false, err
	}

	line, err := cn.readLine()
	if err != nil {
		return false, err
	}
	return parseStorageReply(line)
}

// Get returns the value for the key, found is false on a cache miss.
func (c *Client) Get(key string, opts ...CallOption) (_ any, found bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpGet, "Get", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return nil, false, err
	}

	val, found, err := c.get(skey, co.hint)
	if err != nil || !found {
		return nil, false, err
	}

	v, err := c.tc.Decode(key, val, co.decodeContext())
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *Client) get(skey string, hint *int) (val valuecodec.Value, found bool, err error) {
	cn, err := c.checkout(skey, hint)
	if err != nil {
		return val, false, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendGetCommand(b, []string{skey})
	}); err != nil {
		return val, false, err
	}

	err = cn.readValues(func(wireKey string, v valuecodec.Value) {
		if wireKey == skey {
			val, found = v, true
		}
	})
	return val, found, err
}

// KeyExists reports whether the key is stored, without decoding the value.
func (c *Client) KeyExists(key string, opts ...CallOption) (_ bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpGet, "KeyExists", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return false, err
	}

	_, found, err := c.get(skey, co.hint)
	return found, err
}

// Delete removes the key, false when it was not stored.
func (c *Client) Delete(key string, opts ...CallOption) (bool, error) {
	return c.delete("Delete", key, 0, false, opts)
}

// DeleteWithExpiry sends a delete with a hold time.
// Servers from 1.4 on reject it with ErrClientError.
func (c *Client) DeleteWithExpiry(key string, exp uint32, opts ...CallOption) (bool, error) {
	return c.delete("DeleteWithExpiry", key, exp, true, opts)
}

func (c *Client) delete(method, key string, exp uint32, withExp bool, opts []CallOption) (_ bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpDelete, method, timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return false, err
	}

	cn, err := c.checkout(skey, co.hint)
	if err != nil {
		return false, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendDeleteCommand(b, skey, exp, withExp)
	}); err != nil {
		return false, err
	}

	line, err := cn.readLine()
	if err != nil {
		return false, err
	}
	return parseDeleteReply(line)
}

// Delta changes a counter stored as decimal text.
// Returns the new value, -1 if the key is absent or on error.
func (c *Client) Delta(deltaMode DeltaMode, key string, delta uint64, opts ...CallOption) (_ int64, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpIncrDecr, "Delta", timer, &err, key)

	co := newCallOptions(opts)

	skey, err := c.prepareKey(key)
	if err != nil {
		return -1, err
	}

	cn, err := c.checkout(skey, co.hint)
	if err != nil {
		return -1, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendDeltaCommand(b, deltaMode.Resolve(), skey, delta)
	}); err != nil {
		return -1, err
	}

	line, err := cn.readLine()
	if err != nil {
		return -1, err
	}
	return parseDeltaReply(line)
}

// Incr increases the counter by delta.
func (c *Client) Incr(key string, delta uint64, opts ...CallOption) (int64, error) {
	return c.Delta(Increment, key, delta, opts...)
}

// Decr decreases the counter by delta, the server never goes below zero.
func (c *Client) Decr(key string, delta uint64, opts ...CallOption) (int64, error) {
	return c.Delta(Decrement, key, delta, opts...)
}

func (c *Client) checkout(skey string, hint *int) (*conn, error) {
	s, err := c.reg.route(skey, hint)
	if err != nil {
		return nil, err
	}
	return s.checkout()
}

func (c *Client) observeError(op Operation, method string, err error, keys ...string) {
	c.observer.ObserveError(op, err, keys...)
	logger.Errorw(libPrefix+": "+method+" failed", "error", err.Error(), "op", op.String(), "keys", keys)
}

func (c *Client) writeMethodDiagnostics(op Operation, methodName string, timer time.Time, err *error, keys ...string) {
	if *err != nil {
		c.observeError(op, methodName, *err, keys...)
	}

	if methodName == "" || c.disableMemcachedDiagnostic {
		return
	}

	observeMethodDurationSeconds(methodName, time.Since(timer).Seconds(), *err == nil)
}
