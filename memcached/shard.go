package memcached

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/aliexpressru/gomemcached-text/logger"
	"github.com/aliexpressru/gomemcached-text/pool"
	"github.com/aliexpressru/gomemcached-text/utils"
)

// shardPool holds the connections to one server and its up/down status.
type shardPool struct {
	spec utils.ServerSpec
	// id - canonical "host:port" of the server
	id   string
	addr net.Addr
	reg  *Registry
	pool *pool.Pool[*conn]
	up   atomic.Bool
}

func newShardPool(reg *Registry, spec utils.ServerSpec, addr net.Addr) *shardPool {
	s := &shardPool{
		spec: spec,
		id:   spec.String(),
		addr: addr,
		reg:  reg,
	}

	var check func(*conn) bool
	if reg.cfg.aliveCheck {
		check = func(cn *conn) bool { return cn.alive() }
	}
	closeConn := func(cn *conn) {
		cn.state.Store(int32(connDead))
		_ = cn.nc.Close()
	}

	s.pool = pool.New[*conn](int32(reg.cfg.maxConns), s.dial, closeConn, check)
	s.up.Store(true)
	reg.setShardUpMetric(s.id, true)
	return s
}

func (s *shardPool) dial() (*conn, error) {
	nc, err := s.reg.dial(s.addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := nc.(interface{ SetNoDelay(bool) error }); ok {
		if err = tc.SetNoDelay(s.reg.cfg.noDelay); err != nil {
			logger.Debugf("%s: set nodelay for %s: %s", libPrefix, s.id, err.Error())
		}
	}
	return newConn(nc, s, s.reg.cfg.socketTimeout), nil
}

func (s *shardPool) isUp() bool {
	return s.up.Load()
}

// checkout returns a connection for exclusive use.
// A failure to open a new connection marks the server down.
func (s *shardPool) checkout() (*conn, error) {
	if !s.isUp() {
		return nil, fmt.Errorf("%w: %s", ErrShardDown, s.id)
	}

	cn, _, err := s.pool.Get()
	if err != nil {
		switch {
		case errors.Is(err, pool.ErrPoolExhausted):
			return nil, fmt.Errorf("%w: %s, max conns %d", ErrPoolExhausted, s.id, s.pool.Cap())
		case errors.Is(err, pool.ErrClosedPool):
			return nil, ErrClosed
		}
		s.markDown(err)
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailure, s.id, err)
	}

	cn.state.Store(int32(connCheckedOut))
	return cn, nil
}

func (s *shardPool) checkin(cn *conn) {
	s.pool.Put(cn)
}

func (s *shardPool) discard(cn *conn) {
	s.pool.Discard(cn)
}

// markDown excludes the server from routing and drops its idle connections.
func (s *shardPool) markDown(cause error) {
	if !s.up.CompareAndSwap(true, false) {
		return
	}
	logger.Warnf("%s: server %s is marked down: %v", libPrefix, s.id, cause)
	s.reg.setShardUpMetric(s.id, false)

	for {
		cn, ok := s.pool.Pop()
		if !ok {
			return
		}
		cn.close()
	}
}

func (s *shardPool) markUp() {
	if !s.up.CompareAndSwap(false, true) {
		return
	}
	logger.Infof("%s: server %s is up again", libPrefix, s.id)
	s.reg.setShardUpMetric(s.id, true)
}

// refreshIdle closes at most n idle connections while the pool holds more than keep of them.
func (s *shardPool) refreshIdle(n, keep int) int {
	var closed int
	for closed < n && s.pool.Size() > keep {
		cn, ok := s.pool.Pop()
		if !ok {
			break
		}
		cn.close()
		closed++
	}
	return closed
}
