package memcached

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	flags uint32
	exp   string
	data  []byte
}

// fakeServer is an in-process text protocol memcached.
type fakeServer struct {
	t  *testing.T
	ln net.Listener

	mu    sync.Mutex
	items map[string]fakeItem
	conns map[net.Conn]struct{}

	accepted atomic.Int32
	commands atomic.Int32

	// getHook replaces the get handler when set, returning false closes the connection.
	getHook func(keys []string, w *bufio.Writer) bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fs := &fakeServer{
		t:     t,
		ln:    ln,
		items: make(map[string]fakeItem),
		conns: make(map[net.Conn]struct{}),
	}
	go fs.serve()
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) addr() string {
	return fs.ln.Addr().String()
}

func (fs *fakeServer) Close() {
	_ = fs.ln.Close()
	fs.mu.Lock()
	for c := range fs.conns {
		_ = c.Close()
	}
	fs.mu.Unlock()
}

func (fs *fakeServer) setGetHook(hook func(keys []string, w *bufio.Writer) bool) {
	fs.mu.Lock()
	fs.getHook = hook
	fs.mu.Unlock()
}

func (fs *fakeServer) item(key string) (fakeItem, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	it, ok := fs.items[key]
	return it, ok
}

func (fs *fakeServer) serve() {
	for {
		c, err := fs.ln.Accept()
		if err != nil {
			return
		}
		fs.accepted.Add(1)
		fs.mu.Lock()
		fs.conns[c] = struct{}{}
		fs.mu.Unlock()
		go fs.handle(c)
	}
}

func (fs *fakeServer) handle(c net.Conn) {
	defer func() {
		fs.mu.Lock()
		delete(fs.conns, c)
		fs.mu.Unlock()
		_ = c.Close()
	}()

	var (
		r = bufio.NewReader(c)
		w = bufio.NewWriter(c)
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		fs.commands.Add(1)

		fields := strings.Fields(strings.TrimRight(line, "\r\n"))
		if len(fields) == 0 {
			_, _ = w.WriteString("ERROR\r\n")
			_ = w.Flush()
			continue
		}

		if !fs.dispatch(fields, r, w) {
			return
		}
		if w.Flush() != nil {
			return
		}
	}
}

func (fs *fakeServer) dispatch(fields []string, r *bufio.Reader, w *bufio.Writer) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch cmd := fields[0]; cmd {
	case "get", "gets":
		if fs.getHook != nil {
			return fs.getHook(fields[1:], w)
		}
		for _, key := range fields[1:] {
			if it, ok := fs.items[key]; ok {
				fmt.Fprintf(w, "VALUE %s %d %d\r\n", key, it.flags, len(it.data))
				_, _ = w.Write(it.data)
				_, _ = w.WriteString("\r\n")
			}
		}
		_, _ = w.WriteString("END\r\n")

	case "set", "add", "replace", "append", "prepend":
		if len(fields) != 5 {
			_, _ = w.WriteString("CLIENT_ERROR bad command line format\r\n")
			return true
		}
		flags, _ := strconv.ParseUint(fields[2], 10, 32)
		size, err := strconv.Atoi(fields[4])
		if err != nil {
			_, _ = w.WriteString("CLIENT_ERROR bad data chunk\r\n")
			return false
		}
		data := make([]byte, size+2)
		if _, err = io.ReadFull(r, data); err != nil {
			return false
		}
		data = data[:size]

		key := fields[1]
		old, exists := fs.items[key]
		switch {
		case cmd == "add" && exists,
			cmd == "replace" && !exists,
			(cmd == "append" || cmd == "prepend") && !exists:
			_, _ = w.WriteString("NOT_STORED\r\n")
			return true
		case cmd == "append":
			data = append(old.data, data...)
			flags = uint64(old.flags)
		case cmd == "prepend":
			data = append(data, old.data...)
			flags = uint64(old.flags)
		}
		fs.items[key] = fakeItem{flags: uint32(flags), exp: fields[3], data: data}
		_, _ = w.WriteString("STORED\r\n")

	case "delete":
		if len(fields) == 3 {
			_, _ = w.WriteString("CLIENT_ERROR bad command line format.  Usage: delete <key> [noreply]\r\n")
			return true
		}
		if _, ok := fs.items[fields[1]]; !ok {
			_, _ = w.WriteString("NOT_FOUND\r\n")
			return true
		}
		delete(fs.items, fields[1])
		_, _ = w.WriteString("DELETED\r\n")

	case "incr", "decr":
		it, ok := fs.items[fields[1]]
		if !ok {
			_, _ = w.WriteString("NOT_FOUND\r\n")
			return true
		}
		cur, err := strconv.ParseUint(strings.TrimSpace(string(it.data)), 10, 64)
		if err != nil {
			_, _ = w.WriteString("CLIENT_ERROR cannot increment or decrement non-numeric value\r\n")
			return true
		}
		delta, _ := strconv.ParseUint(fields[2], 10, 64)
		if cmd == "incr" {
			cur += delta
		} else if delta > cur {
			cur = 0
		} else {
			cur -= delta
		}
		it.data = []byte(strconv.FormatUint(cur, 10))
		fs.items[fields[1]] = it
		fmt.Fprintf(w, "%d\r\n", cur)

	case "flush_all":
		fs.items = make(map[string]fakeItem)
		_, _ = w.WriteString("OK\r\n")

	case "stats":
		switch {
		case len(fields) == 1:
			fmt.Fprintf(w, "STAT pid 42\r\nSTAT curr_items %d\r\nSTAT version 1.6.21\r\n", len(fs.items))
		case fields[1] == "items":
			fmt.Fprintf(w, "STAT items:1:number %d\r\n", len(fs.items))
		case fields[1] == "slabs":
			_, _ = w.WriteString("STAT 1:chunk_size 96\r\nSTAT active_slabs 1\r\n")
		case fields[1] == "cachedump":
			for key, it := range fs.items {
				fmt.Fprintf(w, "ITEM %s [%d b; 0 s]\r\n", key, len(it.data))
			}
		default:
			_, _ = w.WriteString("ERROR\r\n")
			return true
		}
		_, _ = w.WriteString("END\r\n")

	case "version":
		_, _ = w.WriteString("VERSION 1.6.21\r\n")

	case "quit":
		return false

	default:
		_, _ = w.WriteString("ERROR\r\n")
	}
	return true
}
