// Package screenshot implements the screenshotr service: a single
// plist-framed request/response exchange that returns a PNG or TIFF
// capture of the device's current screen contents.
package screenshot

import (
	"context"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for screenshotr.
const ServiceName = "com.apple.screenshotr"

// Client is a screenshotr session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected screenshotr channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

type takeRequest struct{}

type takeResponse struct {
	Status    string `plist:"Status"`
	Error     string `plist:"Error"`
	ImageData []byte `plist:"ImageData"`
}

// Take captures the device's current screen and returns the raw image
// bytes (TIFF on older devices, PNG on newer ones — the caller is
// expected to sniff the magic bytes rather than assume a format).
func (c *Client) Take(ctx context.Context) ([]byte, error) {
	entry := oplog.Start("screenshot", "Take", "")
	defer entry.Finish()

	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), takeRequest{}); err != nil {
		return nil, entry.Error(err)
	}
	var res takeResponse
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Status != "" && res.Status != "Success" {
		return nil, entry.Error(ideviceerr.Protocolf("screenshot", "Take: %s", res.Error))
	}
	if len(res.ImageData) == 0 {
		return nil, entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "screenshot: no image data received"))
	}
	entry.Result("%d bytes", len(res.ImageData))
	return res.ImageData, nil
}
