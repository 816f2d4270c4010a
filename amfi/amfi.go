// Package amfi implements the Apple Mobile File Integrity query service: a
// single 1-byte command framing, with no plist involved at all.
package amfi

import (
	"context"

	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for AMFI.
const ServiceName = "com.apple.amfi"

// Client is an AMFI session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected AMFI channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

// QueryDeveloperModeStatus asks the device whether Developer Mode is
// currently enabled. The wire exchange is a single 'Q' byte out and a
// 4-byte reply in, of which only the first byte is meaningful.
func (c *Client) QueryDeveloperModeStatus(ctx context.Context) (bool, error) {
	entry := oplog.Start("amfi", "QueryDeveloperModeStatus", "")
	defer entry.Finish()

	if err := c.stream.Write(ctx, []byte{'Q'}); err != nil {
		return false, entry.Error(err)
	}
	res, err := c.stream.ReadExact(ctx, 4)
	if err != nil {
		return false, entry.Error(err)
	}
	on := res[0] != 0
	entry.Result("%v", on)
	return on, nil
}
