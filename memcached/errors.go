package memcached

import (
	"errors"
	"fmt"
	"net"

	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

const libPrefix = "gomemcached"

var (
	// ErrNoAvailableShard means that no live server could be selected for a key.
	ErrNoAvailableShard = errors.New("gomemcached: no available shard for key")

	// ErrShardDown means that the selected server is marked down.
	ErrShardDown = errors.New("gomemcached: server is marked down")

	// ErrPoolExhausted means that all connections to a server are in use.
	ErrPoolExhausted = errors.New("gomemcached: connection pool exhausted")

	// ErrConnectFailure means that a new connection could not be opened. The server is marked down.
	ErrConnectFailure = errors.New("gomemcached: failed to connect to server")

	// ErrProtocolDesync means that the server reply could not be parsed.
	// The connection is discarded.
	ErrProtocolDesync = errors.New("gomemcached: unexpected reply, protocol out of sync")

	// ErrTimeout means that the socket read/write deadline was exceeded.
	ErrTimeout = errors.New("gomemcached: i/o timeout")

	// ErrEncode means that the value could not be encoded and nothing was written.
	ErrEncode = valuecodec.ErrEncode

	// ErrDecode means that the value read from the server could not be decoded.
	ErrDecode = valuecodec.ErrDecode

	// ErrServerError means that a server error occurred (SERVER_ERROR).
	ErrServerError = errors.New("gomemcached: server error")

	// ErrClientError means that the server rejected the request (CLIENT_ERROR).
	ErrClientError = errors.New("gomemcached: client error")

	// ErrUnknownCommand means that the server does not know the command (ERROR).
	ErrUnknownCommand = errors.New("gomemcached: unknown command")

	// ErrMalformedKey is returned when an invalid key is used.
	// Keys must be at maximum 250 bytes long and not
	// contain whitespace or control characters.
	ErrMalformedKey = errors.New("gomemcached: key is too long or contains invalid characters")

	// ErrInvalidAddr means that an incorrect address was passed and could not be cast to net.Addr
	ErrInvalidAddr = errors.New("gomemcached: invalid address for server")

	// ErrNotConfigured means that some required parameter is not set in the configuration
	ErrNotConfigured = errors.New("gomemcached: not complete configuration")

	// ErrInvalidConfig means that the configuration has inconsistent values.
	ErrInvalidConfig = errors.New("gomemcached: invalid configuration")

	// ErrUnknownServer means that a server id is not part of the client configuration.
	ErrUnknownServer = errors.New("gomemcached: unknown server")

	// ErrClosed means that the client was closed.
	ErrClosed = errors.New("gomemcached: client is closed")
)

// resumableError returns true if err leaves the connection in a known state.
// This is used to determine whether a server connection should
// be re-used or not. If an error occurs, by default we don't reuse the
// connection, unless it was just a server side or value error.
func resumableError(err error) bool {
	switch {
	case errors.Is(err, ErrServerError), errors.Is(err, ErrDecode),
		errors.Is(err, ErrEncode), errors.Is(err, ErrMalformedKey):
		return true
	}
	return false
}

// wrapIOError maps socket deadline errors to ErrTimeout.
func wrapIOError(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// ConnectTimeoutError is the error type used when it takes
// too long to connect to the desired host. This level of
// detail can generally be ignored.
type ConnectTimeoutError struct {
	Addr net.Addr
}

func (cte *ConnectTimeoutError) Error() string {
	return "connect timeout to " + cte.Addr.String()
}

// Timeout makes ConnectTimeoutError a net.Error timeout.
func (cte *ConnectTimeoutError) Timeout() bool { return true }

// Temporary implements net.Error.
func (cte *ConnectTimeoutError) Temporary() bool { return true }
