package memcached

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/aliexpressru/gomemcached-text/valuecodec"
)

// readLine returns the next reply line without its CRLF.
// The slice is only valid until the next read from r.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("%w: reply line is too long", ErrProtocolDesync)
		}
		return nil, wrapIOError(err)
	}
	if !bytes.HasSuffix(line, crlf) {
		return nil, fmt.Errorf("%w: reply line without CRLF %q", ErrProtocolDesync, line)
	}
	return line[:len(line)-len(crlf)], nil
}

// replyLineError converts ERROR, CLIENT_ERROR and SERVER_ERROR lines to errors, nil for any other line.
func replyLineError(line []byte) error {
	switch {
	case bytes.HasPrefix(line, replyClientError):
		return fmt.Errorf("%w: %s", ErrClientError, bytes.TrimSpace(line[len(replyClientError):]))
	case bytes.HasPrefix(line, replyServerError):
		return fmt.Errorf("%w: %s", ErrServerError, bytes.TrimSpace(line[len(replyServerError):]))
	case bytes.HasPrefix(line, replyError):
		return ErrUnknownCommand
	}
	return nil
}

func unexpectedReply(line []byte) error {
	if err := replyLineError(line); err != nil {
		return err
	}
	return fmt.Errorf("%w: %q", ErrProtocolDesync, line)
}

// parseStorageReply returns true for STORED and false for the other well-formed replies.
func parseStorageReply(line []byte) (bool, error) {
	switch {
	case bytes.Equal(line, replyStored):
		return true, nil
	case bytes.Equal(line, replyNotStored), bytes.Equal(line, replyExists), bytes.Equal(line, replyNotFound):
		return false, nil
	}
	return false, unexpectedReply(line)
}

func parseDeleteReply(line []byte) (bool, error) {
	switch {
	case bytes.Equal(line, replyDeleted):
		return true, nil
	case bytes.Equal(line, replyNotFound):
		return false, nil
	}
	return false, unexpectedReply(line)
}

// parseDeltaReply returns the new counter value or -1 for NOT_FOUND.
func parseDeltaReply(line []byte) (int64, error) {
	if bytes.Equal(line, replyNotFound) {
		return -1, nil
	}
	digits := bytes.TrimSpace(line)
	if len(digits) == 0 || digits[0] < '0' || digits[0] > '9' {
		return -1, unexpectedReply(line)
	}
	v, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return -1, fmt.Errorf("%w: %q", ErrProtocolDesync, line)
	}
	if v > math.MaxInt64 {
		return -1, fmt.Errorf("%w: counter %d overflows int64", ErrDecode, v)
	}
	return int64(v), nil
}

func parseOKReply(line []byte) (bool, error) {
	if bytes.Equal(line, replyOK) {
		return true, nil
	}
	return false, unexpectedReply(line)
}

func parseVersionReply(line []byte) (string, error) {
	if !bytes.HasPrefix(line, prefixVersion) {
		return "", unexpectedReply(line)
	}
	return string(line[len(prefixVersion):]), nil
}

// parseValueHeader parses "VALUE <key> <flags> <bytes> [<cas>]".
func parseValueHeader(line []byte) (key string, flags uint32, size int, err error) {
	fields := bytes.Fields(line[len(prefixValue):])
	if len(fields) != 3 && len(fields) != 4 {
		return "", 0, 0, fmt.Errorf("%w: malformed value header %q", ErrProtocolDesync, line)
	}

	f, err := strconv.ParseUint(string(fields[1]), 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: bad flags in %q", ErrProtocolDesync, line)
	}
	size, err = strconv.Atoi(string(fields[2]))
	if err != nil || size < 0 {
		return "", 0, 0, fmt.Errorf("%w: bad length in %q", ErrProtocolDesync, line)
	}

	return string(fields[0]), uint32(f), size, nil
}

// readValues reads VALUE blocks until END and calls fn for each of them.
// fn may keep val.Data.
func readValues(r *bufio.Reader, fn func(key string, val valuecodec.Value)) error {
	for {
		line, err := readLine(r)
		if err != nil {
			return err
		}

		switch {
		case bytes.Equal(line, replyEnd):
			return nil
		case bytes.HasPrefix(line, prefixValue):
			key, flags, size, hErr := parseValueHeader(line)
			if hErr != nil {
				return hErr
			}

			data := make([]byte, size+len(crlf))
			if _, err = io.ReadFull(r, data); err != nil {
				return wrapIOError(err)
			}
			if !bytes.HasSuffix(data, crlf) {
				return fmt.Errorf("%w: value of %s is not terminated by CRLF", ErrProtocolDesync, key)
			}

			fn(key, valuecodec.Value{Flags: valuecodec.Flags(flags), Data: data[:size]})
		default:
			return unexpectedReply(line)
		}
	}
}

// readStats reads STAT and ITEM lines until END.
func readStats(r *bufio.Reader) (map[string]string, error) {
	stats := make(map[string]string)
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}

		switch {
		case bytes.Equal(line, replyEnd):
			return stats, nil
		case bytes.HasPrefix(line, prefixStat), bytes.HasPrefix(line, prefixItem):
			name, value, _ := bytes.Cut(line[len(prefixStat):], []byte{' '})
			stats[string(name)] = string(value)
		default:
			return nil, unexpectedReply(line)
		}
	}
}
