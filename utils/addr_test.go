package utils

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStaticAddr(t *testing.T) {
	tcpAddr := &net.TCPAddr{
		IP:   net.IPv4(127, 0, 0, 1),
		Port: 8080,
	}
	staticAddr := newStaticAddr(tcpAddr)
	if staticAddr.Network() != tcpAddr.Network() {
		t.Errorf("Expected Network() to be %s, got %s", tcpAddr.Network(), staticAddr.Network())
	}
	if staticAddr.String() != tcpAddr.String() {
		t.Errorf("Expected String() to be %s, got %s", tcpAddr.String(), staticAddr.String())
	}
}

func TestAddrRepr(t *testing.T) {
	type args struct {
		server string
	}
	tests := []struct {
		name    string
		args    args
		want    net.Addr
		wantErr bool
	}{
		{
			name:    "invalid address",
			args:    args{server: "invalid-address"},
			want:    nil,
			wantErr: true,
		},
		{
			name: "unix",
			args: args{server: "/var/unix.sock"},
			want: &staticAddr{
				ntw: "unix",
				str: "/var/unix.sock",
			},
			wantErr: false,
		},
		{
			name: "tcp",
			args: args{server: "127.0.0.1:8080"},
			want: &staticAddr{
				ntw: "tcp",
				str: "127.0.0.1:8080",
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddrRepr(tt.args.server)
			if tt.wantErr {
				assert.NotNilf(t, err, fmt.Sprintf("AddrRepr(%v) Expected an error, got nil", tt.args.server))
			}
			assert.Equalf(t, tt.want, got, "AddrRepr(%v)", tt.args.server)
		})
	}
}

func TestParseServerSpec(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		want    ServerSpec
		wantErr bool
	}{
		{name: "host and port", server: "10.0.0.1:11212", want: ServerSpec{Host: "10.0.0.1", Port: 11212}},
		{name: "default port", server: "cache-1", want: ServerSpec{Host: "cache-1", Port: DefaultPort}},
		{name: "trim spaces", server: "  localhost:11211 ", want: ServerSpec{Host: "localhost", Port: 11211}},
		{name: "ipv6", server: "[::1]:11211", want: ServerSpec{Host: "::1", Port: 11211}},
		{name: "empty", server: "", wantErr: true},
		{name: "empty host", server: ":11211", wantErr: true},
		{name: "bad port", server: "localhost:port", wantErr: true},
		{name: "port out of range", server: "localhost:70000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServerSpec(tt.server)
			if tt.wantErr {
				assert.Errorf(t, err, "ParseServerSpec(%q) expected an error", tt.server)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerSpecString(t *testing.T) {
	assert.Equal(t, "localhost:11211", ServerSpec{Host: "localhost", Port: 11211}.String())
	assert.Equal(t, "[::1]:11211", ServerSpec{Host: "::1", Port: 11211}.String())

	addr, err := ServerSpec{Host: "127.0.0.1", Port: 11211}.Addr()
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1:11211", addr.String())
	assert.Equal(t, "tcp", addr.Network())
}

func TestRepr(t *testing.T) {
	tcpAddr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 11211}

	assert.Equal(t, "", Repr(nil))
	assert.Equal(t, "node", Repr("node"))
	assert.Equal(t, "127.0.0.1:11211", Repr(tcpAddr))
	assert.Equal(t, "raw", Repr([]byte("raw")))
	assert.Equal(t, "42", Repr(42))
	assert.Equal(t, "-7", Repr(int64(-7)))
	assert.Equal(t, "7", Repr(uint64(7)))
	assert.Equal(t, "1.5", Repr(1.5))
}
