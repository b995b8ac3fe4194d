package memcached

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Command builders append one complete text protocol request to b.
// Keys are expected to be validated with legalKey beforehand.

func appendStorageCommand(b *bytebufferpool.ByteBuffer, verb, key string, flags, exp uint32, data []byte) {
	b.B = append(b.B, verb...)
	b.B = append(b.B, ' ')
	b.B = append(b.B, key...)
	b.B = append(b.B, ' ')
	b.B = strconv.AppendUint(b.B, uint64(flags), 10)
	b.B = append(b.B, ' ')
	b.B = strconv.AppendUint(b.B, uint64(exp), 10)
	b.B = append(b.B, ' ')
	b.B = strconv.AppendInt(b.B, int64(len(data)), 10)
	b.B = append(b.B, crlf...)
	b.B = append(b.B, data...)
	b.B = append(b.B, crlf...)
}

func appendGetCommand(b *bytebufferpool.ByteBuffer, keys []string) {
	b.B = append(b.B, cmdGet...)
	for _, key := range keys {
		b.B = append(b.B, ' ')
		b.B = append(b.B, key...)
	}
	b.B = append(b.B, crlf...)
}

// appendDeleteCommand writes "delete <key> [<exp>]", the expiry is sent only when withExp is set.
func appendDeleteCommand(b *bytebufferpool.ByteBuffer, key string, exp uint32, withExp bool) {
	b.B = append(b.B, cmdDelete...)
	b.B = append(b.B, ' ')
	b.B = append(b.B, key...)
	if withExp {
		b.B = append(b.B, ' ')
		b.B = strconv.AppendUint(b.B, uint64(exp), 10)
	}
	b.B = append(b.B, crlf...)
}

func appendDeltaCommand(b *bytebufferpool.ByteBuffer, verb, key string, delta uint64) {
	b.B = append(b.B, verb...)
	b.B = append(b.B, ' ')
	b.B = append(b.B, key...)
	b.B = append(b.B, ' ')
	b.B = strconv.AppendUint(b.B, delta, 10)
	b.B = append(b.B, crlf...)
}

func appendFlushAllCommand(b *bytebufferpool.ByteBuffer, delay uint32) {
	b.B = append(b.B, cmdFlushAll...)
	if delay > 0 {
		b.B = append(b.B, ' ')
		b.B = strconv.AppendUint(b.B, uint64(delay), 10)
	}
	b.B = append(b.B, crlf...)
}

func appendStatsCommand(b *bytebufferpool.ByteBuffer, args ...string) {
	b.B = append(b.B, cmdStats...)
	for _, arg := range args {
		b.B = append(b.B, ' ')
		b.B = append(b.B, arg...)
	}
	b.B = append(b.B, crlf...)
}

func appendVersionCommand(b *bytebufferpool.ByteBuffer) {
	b.B = append(b.B, cmdVersion...)
	b.B = append(b.B, crlf...)
}
