package usbmux

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/go-idevice/idevice/transport"
)

// Addr is a tagged union of the two ways to reach the multiplexer broker:
// a local-domain socket path, or a TCP endpoint. It is derived once at
// startup and is immutable thereafter.
type Addr struct {
	unixPath string
	tcpAddr  string
	isTCP    bool
}

const (
	defaultSocketPath = "/var/run/usbmuxd"
	defaultTCPAddr    = "127.0.0.1:27015"
	envOverride       = "USBMUXD_SOCKET_ADDRESS"
)

// UnixAddr builds a local-domain-socket address.
func UnixAddr(path string) Addr { return Addr{unixPath: path} }

// TCPAddr builds a TCP address (host:port).
func TCPAddr(hostPort string) Addr { return Addr{tcpAddr: hostPort, isTCP: true} }

// DefaultAddr returns the platform default: TCP loopback on Windows, a
// local-domain socket on every other host.
func DefaultAddr() Addr {
	if runtime.GOOS == "windows" {
		return TCPAddr(defaultTCPAddr)
	}
	return UnixAddr(defaultSocketPath)
}

// AddrFromEnv honors USBMUXD_SOCKET_ADDRESS: a value containing ':' is a
// TCP endpoint, otherwise it is a local socket path. Falls back to
// DefaultAddr when unset.
func AddrFromEnv() Addr {
	v, ok := os.LookupEnv(envOverride)
	if !ok || v == "" {
		return DefaultAddr()
	}
	if strings.Contains(v, ":") {
		return TCPAddr(v)
	}
	return UnixAddr(v)
}

func (a Addr) dial(ctx context.Context) (transport.Stream, error) {
	if a.isTCP {
		return transport.DialTCP(ctx, a.tcpAddr)
	}
	return transport.DialUnix(ctx, a.unixPath)
}
