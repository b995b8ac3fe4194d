package memcached

import (
	"bufio"
	"net"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/aliexpressru/gomemcached-text/logger"
	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

type connState int32

const (
	connFree connState = iota
	connCheckedOut
	connDead
)

func (s connState) String() string {
	switch s {
	case connFree:
		return "free"
	case connCheckedOut:
		return "checked_out"
	default:
		return "dead"
	}
}

// conn is one socket to a server. It is used by a single goroutine between checkout and checkin.
type conn struct {
	nc    net.Conn
	r     *bufio.Reader
	w     *bufio.Writer
	shard *shardPool
	// timeout is the deadline of one exchange, zero means no deadline.
	timeout time.Duration
	state   atomic.Int32
}

func newConn(nc net.Conn, shard *shardPool, timeout time.Duration) *conn {
	cn := &conn{
		nc:      nc,
		r:       bufio.NewReader(nc),
		w:       bufio.NewWriter(nc),
		shard:   shard,
		timeout: timeout,
	}
	cn.state.Store(int32(connFree))
	return cn
}

func (cn *conn) getState() connState {
	return connState(cn.state.Load())
}

func (cn *conn) extendDeadline() {
	if cn.timeout <= 0 {
		return
	}
	_ = cn.nc.SetDeadline(time.Now().Add(cn.timeout))
}

// send builds a request into a pooled buffer and flushes it.
func (cn *conn) send(build func(b *bytebufferpool.ByteBuffer)) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	build(buf)

	cn.extendDeadline()
	if _, err := cn.w.Write(buf.B); err != nil {
		return wrapIOError(err)
	}
	return wrapIOError(cn.w.Flush())
}

func (cn *conn) readLine() ([]byte, error) {
	return readLine(cn.r)
}

// readValues reads a get reply, the deadline is extended before every block.
func (cn *conn) readValues(fn func(key string, val valuecodec.Value)) error {
	return readValues(cn.r, func(key string, val valuecodec.Value) {
		fn(key, val)
		cn.extendDeadline()
	})
}

func (cn *conn) readStats() (map[string]string, error) {
	return readStats(cn.r)
}

// alive sends "version" and expects a VERSION reply.
func (cn *conn) alive() bool {
	if err := cn.send(appendVersionCommand); err != nil {
		return false
	}
	line, err := cn.readLine()
	if err != nil {
		return false
	}
	_, err = parseVersionReply(line)
	return err == nil
}

// release returns this connection to its shard pool.
func (cn *conn) release() {
	if !cn.state.CompareAndSwap(int32(connCheckedOut), int32(connFree)) {
		logger.Warnf("%s: release of a connection to %s in state %s", libPrefix, cn.shard.id, cn.getState())
		return
	}
	cn.shard.checkin(cn)
}

// close discards this connection, a dead connection is never reused.
func (cn *conn) close() {
	if connState(cn.state.Swap(int32(connDead))) == connDead {
		return
	}
	cn.shard.discard(cn)
}

// condRelease releases this connection if the error pointed to by err
// is nil (not an error) or is only a protocol level error (e.g. a
// server error). The purpose is to not recycle TCP connections that
// are bad.
func (cn *conn) condRelease(err *error) {
	if *err == nil || resumableError(*err) {
		cn.release()
	} else {
		cn.close()
	}
}
