package transport

import (
	"context"
	"net"
)

// DialUnix connects to a local-domain socket path. Used for the default
// usbmuxd broker endpoint on Unix-like hosts.
func DialUnix(ctx context.Context, path string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}

// DialTCP connects to a host:port TCP endpoint. Used both for the
// non-Unix usbmuxd fallback and for direct-TCP service providers.
func DialTCP(ctx context.Context, addr string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}
