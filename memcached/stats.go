package memcached

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/valyala/bytebufferpool"
)

// FlushAll invalidates all items on the servers, all servers when none are given.
// Returns true only if every server replied OK.
func (c *Client) FlushAll(servers ...string) (bool, error) {
	return c.FlushAllWithDelay(0, servers...)
}

// FlushAllWithDelay is FlushAll executed by the servers after delay seconds.
func (c *Client) FlushAllWithDelay(delay uint32, servers ...string) (_ bool, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpFlush, "FlushAll", timer, &err)

	shards, err := c.reg.shardsFor(servers)
	if len(shards) == 0 {
		return false, err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   = err == nil
		errs = err
	)
	for _, s := range shards {
		wg.Add(1)
		go func(s *shardPool) {
			defer wg.Done()

			flushed, fErr := flushShard(s, delay)
			mu.Lock()
			defer mu.Unlock()
			ok = ok && flushed
			if fErr != nil {
				errs = errors.Join(errs, fmt.Errorf("%s: %w", s.id, fErr))
			}
		}(s)
	}
	wg.Wait()

	return ok, errs
}

func flushShard(s *shardPool, delay uint32) (_ bool, err error) {
	cn, err := s.checkout()
	if err != nil {
		return false, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendFlushAllCommand(b, delay)
	}); err != nil {
		return false, err
	}

	line, err := cn.readLine()
	if err != nil {
		return false, err
	}
	return parseOKReply(line)
}

// Stats returns "stats" of the servers, all servers when none are given, keyed by server id.
// Servers that fail are absent from the result and reported in the error.
func (c *Client) Stats(servers ...string) (map[string]map[string]string, error) {
	return c.stats("Stats", servers)
}

// StatsItems returns "stats items" of the servers.
func (c *Client) StatsItems(servers ...string) (map[string]map[string]string, error) {
	return c.stats("StatsItems", servers, statsItems)
}

// StatsSlabs returns "stats slabs" of the servers.
func (c *Client) StatsSlabs(servers ...string) (map[string]map[string]string, error) {
	return c.stats("StatsSlabs", servers, statsSlabs)
}

// StatsCacheDump returns up to limit items of the slab class, 0 means all of them.
// The item key maps to "[<size> b; <expiration> s]".
func (c *Client) StatsCacheDump(slab, limit int, servers ...string) (map[string]map[string]string, error) {
	return c.stats("StatsCacheDump", servers, statsCacheDump, strconv.Itoa(slab), strconv.Itoa(limit))
}

func (c *Client) stats(method string, servers []string, args ...string) (_ map[string]map[string]string, err error) {
	timer := time.Now()
	defer c.writeMethodDiagnostics(OpStats, method, timer, &err)

	shards, err := c.reg.shardsFor(servers)

	var (
		wg      sync.WaitGroup
		results = xsync.NewMapOf[string, map[string]string]()
		errs    = xsync.NewMapOf[string, error]()
	)
	for _, s := range shards {
		wg.Add(1)
		go func(s *shardPool) {
			defer wg.Done()

			st, sErr := statsShard(s, args)
			if sErr != nil {
				errs.Store(s.id, sErr)
				return
			}
			results.Store(s.id, st)
		}(s)
	}
	wg.Wait()

	errs.Range(func(id string, sErr error) bool {
		err = errors.Join(err, fmt.Errorf("%s: %w", id, sErr))
		return true
	})

	out := make(map[string]map[string]string, results.Size())
	results.Range(func(id string, st map[string]string) bool {
		out[id] = st
		return true
	})
	return out, err
}

func statsShard(s *shardPool, args []string) (_ map[string]string, err error) {
	cn, err := s.checkout()
	if err != nil {
		return nil, err
	}
	defer cn.condRelease(&err)

	if err = cn.send(func(b *bytebufferpool.ByteBuffer) {
		appendStatsCommand(b, args...)
	}); err != nil {
		return nil, err
	}
	return cn.readStats()
}
