package memcached

import (
	"errors"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aliexpressru/gomemcached-text/logger"
)

func (r *Registry) startMaintenance() {
	var (
		period = r.cfg.maintPeriod
		t      = time.NewTimer(period)
	)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-t.C:
				r.maintain()
				t.Reset(period)
			case <-r.ctx.Done():
				t.Stop()
				return
			}
		}
	}()
}

// maintain runs one maintenance cycle over all servers concurrently:
// down servers are probed and brought back, live pools are topped up to the minimum
// and idle connections above it are refreshed.
func (r *Registry) maintain() {
	wg := sync.WaitGroup{}
	for _, s := range r.shards {
		wg.Add(1)
		go func(s *shardPool) {
			defer wg.Done()

			if !s.isUp() {
				if r.nodeIsDead(s.addr) {
					return
				}
				s.markUp()
			}

			if err := s.pool.Fill(r.cfg.minConns); err != nil {
				s.markDown(err)
				return
			}

			if !r.cfg.disableRefresh {
				s.refreshIdle(DefaultOfNumberConnsToRefreshPerPeriod, r.cfg.minConns)
			}
		}(s)
	}
	wg.Wait()
}

// nodeIsDead opens and closes a plain connection to addr.
func (r *Registry) nodeIsDead(addr net.Addr) bool {
	var (
		countRetry uint8
		cn         net.Conn
		err        error
	)

	for {
		cn, err = r.dial(addr)
		if err != nil {
			var tErr *ConnectTimeoutError
			if errors.As(err, &tErr) {
				if countRetry < DefaultRetryCountForConn {
					countRetry++
					continue
				}
				logger.Errorf("%s: node health check failed. error - %s, with timeout - %s",
					libPrefix, err.Error(), r.cfg.connectTimeout,
				)
				return true
			}
			logger.Debugf("%s: node %s is still down - %s", libPrefix, addr, err.Error())
			return true
		}
		_ = cn.Close()
		break
	}

	return false
}

func getNodes(lookup func(host string) (addrs []string, err error), cfg *config) ([]string, error) {
	if cfg != nil {
		if cfg.HeadlessServiceAddress != "" {
			nodes, err := lookup(cfg.HeadlessServiceAddress)
			if err != nil {
				return nil, err
			}

			nodesWithHost := make([]string, len(nodes))
			for i := range nodes {
				nodesWithHost[i] = net.JoinHostPort(nodes[i], strconv.Itoa(cfg.MemcachedPort))
			}
			// resolver order is not stable, routing depends on the list order
			slices.Sort(nodesWithHost)

			return nodesWithHost, nil
		} else if len(cfg.Servers) != 0 {
			return cfg.Servers, nil
		}
	}

	return []string{}, nil
}
