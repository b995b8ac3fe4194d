package memcached

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/bytebufferpool"
)

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *bytebufferpool.ByteBuffer)
		want  string
	}{
		{
			name: "set",
			build: func(b *bytebufferpool.ByteBuffer) {
				appendStorageCommand(b, Set.Resolve(), "foo", 8, 3600, []byte("bar"))
			},
			want: "set foo 8 3600 3\r\nbar\r\n",
		},
		{
			name: "append empty",
			build: func(b *bytebufferpool.ByteBuffer) {
				appendStorageCommand(b, Append.Resolve(), "k", 0, 0, nil)
			},
			want: "append k 0 0 0\r\n\r\n",
		},
		{
			name: "binary data",
			build: func(b *bytebufferpool.ByteBuffer) {
				appendStorageCommand(b, Add.Resolve(), "k", 0, 0, []byte{'\r', '\n', 0})
			},
			want: "add k 0 0 3\r\n\r\n\x00\r\n",
		},
		{
			name:  "get",
			build: func(b *bytebufferpool.ByteBuffer) { appendGetCommand(b, []string{"a", "b", "c"}) },
			want:  "get a b c\r\n",
		},
		{
			name:  "delete",
			build: func(b *bytebufferpool.ByteBuffer) { appendDeleteCommand(b, "foo", 0, false) },
			want:  "delete foo\r\n",
		},
		{
			name:  "delete with hold time",
			build: func(b *bytebufferpool.ByteBuffer) { appendDeleteCommand(b, "foo", 10, true) },
			want:  "delete foo 10\r\n",
		},
		{
			name:  "incr",
			build: func(b *bytebufferpool.ByteBuffer) { appendDeltaCommand(b, Increment.Resolve(), "n", 18446744073709551615) },
			want:  "incr n 18446744073709551615\r\n",
		},
		{
			name:  "flush_all",
			build: func(b *bytebufferpool.ByteBuffer) { appendFlushAllCommand(b, 0) },
			want:  "flush_all\r\n",
		},
		{
			name:  "flush_all delayed",
			build: func(b *bytebufferpool.ByteBuffer) { appendFlushAllCommand(b, 30) },
			want:  "flush_all 30\r\n",
		},
		{
			name:  "stats",
			build: func(b *bytebufferpool.ByteBuffer) { appendStatsCommand(b) },
			want:  "stats\r\n",
		},
		{
			name:  "stats cachedump",
			build: func(b *bytebufferpool.ByteBuffer) { appendStatsCommand(b, statsCacheDump, "1", "100") },
			want:  "stats cachedump 1 100\r\n",
		},
		{
			name:  "version",
			build: appendVersionCommand,
			want:  "version\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bytebufferpool.Get()
			defer bytebufferpool.Put(b)

			tt.build(b)
			assert.Equal(t, tt.want, b.String())
		})
	}
}
