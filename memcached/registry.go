package memcached

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aliexpressru/gomemcached-text/consistenthash"
	"github.com/aliexpressru/gomemcached-text/logger"
	"github.com/aliexpressru/gomemcached-text/utils"
)

type (
	registryConfig struct {
		initConns      int
		minConns       int
		maxConns       int
		maintPeriod    time.Duration
		socketTimeout  time.Duration
		connectTimeout time.Duration
		noDelay        bool
		aliveCheck     bool
		failover       bool
		hashAlg        consistenthash.HashAlg

		disableMaintenance bool
		disableRefresh     bool
		disableDiagnostic  bool
	}

	// Registry routes keys to servers and owns their connection pools.
	// The server list is fixed for the lifetime of the registry.
	Registry struct {
		ctx    context.Context
		cancel context.CancelFunc
		nw     *network
		cfg    registryConfig

		shards   []*shardPool
		byID     map[string]*shardPool
		selector consistenthash.Selector

		closed atomic.Bool
		// wg - maintenance goroutine
		wg sync.WaitGroup
	}
)

func newRegistry(ctx context.Context, nw *network, servers []utils.ServerSpec, cfg registryConfig) (*Registry, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: empty server list", ErrNotConfigured)
	}

	r := &Registry{
		nw:     nw,
		cfg:    cfg,
		shards: make([]*shardPool, 0, len(servers)),
		byID:   make(map[string]*shardPool, len(servers)),
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	ids := make([]string, 0, len(servers))
	for _, spec := range servers {
		id := spec.String()
		if _, dup := r.byID[id]; dup {
			r.cancel()
			return nil, fmt.Errorf("%w: server %s is listed twice", ErrInvalidConfig, id)
		}
		addr, err := spec.Addr()
		if err != nil {
			r.cancel()
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddr, err.Error())
		}

		s := newShardPool(r, spec, addr)
		r.shards = append(r.shards, s)
		r.byID[id] = s
		ids = append(ids, id)
	}
	r.selector = consistenthash.NewSelector(cfg.hashAlg, ids)

	for _, s := range r.shards {
		if err := s.pool.Fill(cfg.initConns); err != nil {
			s.markDown(err)
		}
	}

	if !cfg.disableMaintenance {
		r.startMaintenance()
	}
	return r, nil
}

// route returns the server for the key.
// A down server is skipped for the next live one when failover is on.
func (r *Registry) route(key string, hint *int) (*shardPool, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	idx := r.selector.Select(key, hint)
	if idx < 0 || idx >= len(r.shards) {
		return nil, ErrNoAvailableShard
	}

	primary := r.shards[idx]
	if primary.isUp() {
		return primary, nil
	}
	if !r.cfg.failover {
		return nil, fmt.Errorf("%w: %s is down and failover is disabled", ErrNoAvailableShard, primary.id)
	}

	for i := 1; i < len(r.shards); i++ {
		if s := r.shards[(idx+i)%len(r.shards)]; s.isUp() {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: all %d servers are down", ErrNoAvailableShard, len(r.shards))
}

// Route returns the id of the server the key is stored on, or an error if no server is available.
func (r *Registry) Route(key string, hint *int) (string, error) {
	s, err := r.route(key, hint)
	if err != nil {
		return "", err
	}
	return s.id, nil
}

func (r *Registry) shard(id string) (*shardPool, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if s, ok := r.byID[id]; ok {
		return s, nil
	}
	spec, err := utils.ParseServerSpec(id)
	if err == nil {
		if s, ok := r.byID[spec.String()]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownServer, id)
}

// shardsFor resolves server ids, all servers when ids is empty.
func (r *Registry) shardsFor(ids []string) ([]*shardPool, error) {
	if len(ids) == 0 {
		if r.closed.Load() {
			return nil, ErrClosed
		}
		return r.shards, nil
	}

	var (
		shards = make([]*shardPool, 0, len(ids))
		errs   error
	)
	for _, id := range ids {
		s, err := r.shard(id)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		shards = append(shards, s)
	}
	return shards, errs
}

// Servers returns the server ids in configuration order.
func (r *Registry) Servers() []string {
	ids := make([]string, len(r.shards))
	for i, s := range r.shards {
		ids[i] = s.id
	}
	return ids
}

// Status reports for every server whether it is up.
func (r *Registry) Status() map[string]bool {
	status := make(map[string]bool, len(r.shards))
	for _, s := range r.shards {
		status[s.id] = s.isUp()
	}
	return status
}

// MarkDown excludes a server from routing until the maintenance probe reaches it again.
func (r *Registry) MarkDown(id string) error {
	s, err := r.shard(id)
	if err != nil {
		return err
	}
	s.markDown(errors.New("marked down manually"))
	return nil
}

// Close stops the maintenance and closes all connections. It is idempotent.
func (r *Registry) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	r.wg.Wait()

	for _, s := range r.shards {
		s.pool.Destroy()
	}
	logger.Debugf("%s: registry closed, %d servers", libPrefix, len(r.shards))
}

func (r *Registry) dial(addr net.Addr) (net.Conn, error) {
	if r.cfg.connectTimeout > 0 {
		nc, err := r.nw.dialTimeout(addr.Network(), addr.String(), r.cfg.connectTimeout)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, &ConnectTimeoutError{addr}
			}
			return nil, err
		}
		return nc, nil
	}
	return r.nw.dial(addr.Network(), addr.String())
}

func (r *Registry) setShardUpMetric(id string, up bool) {
	if r.cfg.disableDiagnostic {
		return
	}
	setShardUp(id, up)
}
