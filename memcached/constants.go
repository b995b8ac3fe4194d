// Package memcached text protocol client: routing, pooling, wire codec and operations.
package memcached

import "fmt"

// command verbs
const (
	cmdGet      = "get"
	cmdSet      = "set"
	cmdAdd      = "add"
	cmdReplace  = "replace"
	cmdAppend   = "append"
	cmdPrepend  = "prepend"
	cmdDelete   = "delete"
	cmdIncr     = "incr"
	cmdDecr     = "decr"
	cmdFlushAll = "flush_all"
	cmdStats    = "stats"
	cmdVersion  = "version"
)

// stats sub commands
const (
	statsItems     = "items"
	statsSlabs     = "slabs"
	statsCacheDump = "cachedump"
)

// reply tokens
var (
	crlf             = []byte("\r\n")
	replyStored      = []byte("STORED")
	replyNotStored   = []byte("NOT_STORED")
	replyExists      = []byte("EXISTS")
	replyNotFound    = []byte("NOT_FOUND")
	replyDeleted     = []byte("DELETED")
	replyOK          = []byte("OK")
	replyEnd         = []byte("END")
	replyError       = []byte("ERROR")
	replyClientError = []byte("CLIENT_ERROR")
	replyServerError = []byte("SERVER_ERROR")
	prefixValue      = []byte("VALUE ")
	prefixStat       = []byte("STAT ")
	prefixItem       = []byte("ITEM ")
	prefixVersion    = []byte("VERSION ")
)

// maxKeyLength is the longest key the server accepts.
const maxKeyLength = 250

type (
	StoreMode  uint8
	DeltaMode  uint8
	AppendMode uint8
)

const (
	// Set - Store the data
	Set StoreMode = iota
	// Add - Store the data, but only if the server does not already hold data for a given key
	Add
	// Replace - Store the data, but only if the server does already hold data for a given key
	Replace
)

const (
	// Increment - increases the counter by delta
	Increment DeltaMode = iota
	// Decrement - decreases the counter by delta, a counter is never below zero
	Decrement
)

const (
	// Append - adds data after the existing value
	Append AppendMode = iota
	// Prepend - adds data before the existing value
	Prepend
)

// Resolve returns the command verb of the mode.
func (sm StoreMode) Resolve() string {
	switch sm {
	case Add:
		return cmdAdd
	case Replace:
		return cmdReplace
	default:
		return cmdSet
	}
}

func (sm StoreMode) String() string {
	switch sm {
	case Set, Add, Replace:
		return sm.Resolve()
	default:
		return fmt.Sprintf("StoreMode(%d)", uint8(sm))
	}
}

// Resolve returns the command verb of the mode.
func (dm DeltaMode) Resolve() string {
	if dm == Decrement {
		return cmdDecr
	}
	return cmdIncr
}

func (dm DeltaMode) String() string {
	return dm.Resolve()
}

// Resolve returns the command verb of the mode.
func (am AppendMode) Resolve() string {
	if am == Prepend {
		return cmdPrepend
	}
	return cmdAppend
}

func (am AppendMode) String() string {
	return am.Resolve()
}
