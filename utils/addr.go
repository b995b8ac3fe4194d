package utils

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is used for a server spec given without an explicit port.
const DefaultPort = 11211

var errEmptyHost = errors.New("empty host")

// staticAddr caches the Network() and String() values from any net.Addr.
type staticAddr struct {
	ntw, str string
}

func newStaticAddr(a net.Addr) net.Addr {
	return &staticAddr{
		ntw: a.Network(),
		str: a.String(),
	}
}

func (s *staticAddr) Network() string { return s.ntw }
func (s *staticAddr) String() string  { return s.str }

// ServerSpec identifies one cache server. The canonical id is "host:port".
type ServerSpec struct {
	Host string
	Port int
}

// String returns the canonical "host:port" id of the server.
func (s ServerSpec) String() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Addr resolves the spec into a net.Addr for dialing.
func (s ServerSpec) Addr() (net.Addr, error) {
	return AddrRepr(s.String())
}

// ParseServerSpec parses "host:port" or a bare "host" (DefaultPort is assumed).
func ParseServerSpec(server string) (ServerSpec, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return ServerSpec{}, errEmptyHost
	}

	host, portStr, err := net.SplitHostPort(server)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			return ServerSpec{Host: strings.Trim(server, "[]"), Port: DefaultPort}, nil
		}
		return ServerSpec{}, err
	}
	if host == "" {
		return ServerSpec{}, errEmptyHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return ServerSpec{}, fmt.Errorf("invalid port %q", portStr)
	}

	return ServerSpec{Host: host, Port: port}, nil
}

// AddrRepr a string representation of the server address implements net.Addr
func AddrRepr(server string) (net.Addr, error) {
	var nAddr net.Addr
	if strings.Contains(server, "/") {
		addr, _ := net.ResolveUnixAddr("unix", server)
		nAddr = newStaticAddr(addr)
	} else {
		tcpAddr, err := net.ResolveTCPAddr("tcp", server)
		if err != nil {
			return nil, err
		}
		nAddr = newStaticAddr(tcpAddr)
	}

	return nAddr, nil
}

// Repr returns the string form of a node used as a hash ring member.
func Repr(node any) string {
	switch v := node.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
