// Package transport abstracts over the byte-stream endpoints this module
// dials: a local-domain socket (for the usbmuxd broker) or a plain TCP
// connection (for a direct-TCP service provider). Selection happens once,
// at construction, never at runtime.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/go-idevice/idevice/ideviceerr"
)

// Stream is an owned bidirectional byte stream. Every service engine in
// this module is given exactly one Stream and is its sole owner: closing
// the engine closes the Stream, and no other code may read or write it
// concurrently.
type Stream interface {
	ReadExact(ctx context.Context, n int) ([]byte, error)
	Write(ctx context.Context, p []byte) error
	Close() error

	// Raw exposes the underlying net.Conn for protocols (TLS upgrade,
	// websocket bridging) that need it directly. Callers that take Raw
	// must not also call ReadExact/Write concurrently with their own use
	// of it.
	Raw() net.Conn
}

const defaultIOTimeout = 0 // no implicit timeout; callers supply ctx deadlines.

type connStream struct {
	conn net.Conn
}

// Wrap adapts a net.Conn (already dialed, by DialUnix or DialTCP) into a
// Stream.
func Wrap(conn net.Conn) Stream {
	return &connStream{conn: conn}
}

func (s *connStream) Raw() net.Conn { return s.conn }

func (s *connStream) ReadExact(ctx context.Context, n int) ([]byte, error) {
	if err := s.applyDeadline(ctx); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := readFull(s.conn, buf); err != nil {
		return nil, ideviceerr.IoErr(err)
	}
	return buf, nil
}

func (s *connStream) Write(ctx context.Context, p []byte) error {
	if err := s.applyDeadline(ctx); err != nil {
		return err
	}
	if _, err := writeAll(s.conn, p); err != nil {
		return ideviceerr.IoErr(err)
	}
	return nil
}

func (s *connStream) Close() error {
	return s.conn.Close()
}

func (s *connStream) applyDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return s.conn.SetDeadline(time.Time{})
	}
	return s.conn.SetDeadline(deadline)
}

func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func writeAll(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Write(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
