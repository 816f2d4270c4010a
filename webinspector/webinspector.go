// Package webinspector implements the Web Inspector service: single-byte
// commands ('L' to list inspectable applications, 'C' to connect to one)
// each followed by a length-prefixed plist response, with the actual
// DevTools traffic bridged over a WebSocket the response names.
package webinspector

import (
	"context"
	"encoding/binary"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/gorilla/websocket"
)

// ServiceName is the lockdown service identifier for Web Inspector.
const ServiceName = "com.apple.webinspector"

// Client is a Web Inspector session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected Web Inspector channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

type applicationListResponse struct {
	Applications []struct {
		Name string `plist:"Name"`
	} `plist:"Applications"`
}

func (c *Client) readLengthPrefixed(ctx context.Context, v interface{}) error {
	r := transport.AsReader(ctx, c.stream)
	return plistwire.ReadMessage(ctx, r, v)
}

// ListApplications returns the names of applications currently available
// for inspection.
func (c *Client) ListApplications(ctx context.Context) ([]string, error) {
	entry := oplog.Start("webinspector", "ListApplications", "")
	defer entry.Finish()

	if err := c.stream.Write(ctx, []byte{'L'}); err != nil {
		return nil, entry.Error(err)
	}
	var res applicationListResponse
	if err := c.readLengthPrefixed(ctx, &res); err != nil {
		return nil, entry.Error(err)
	}
	names := make([]string, 0, len(res.Applications))
	for _, app := range res.Applications {
		names = append(names, app.Name)
	}
	return names, nil
}

type connectResponse struct {
	WebSocketURL string `plist:"WebSocketURL"`
}

// webSocketURL sends the 'C' connect command for appID and returns the
// WebSocket URL the device wants the DevTools session bridged over.
func (c *Client) webSocketURL(ctx context.Context, appID string) (string, error) {
	if err := c.stream.Write(ctx, []byte{'C'}); err != nil {
		return "", err
	}
	body := []byte(appID)
	lbuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lbuf, uint32(len(body)))
	if err := c.stream.Write(ctx, append(lbuf, body...)); err != nil {
		return "", err
	}
	var res connectResponse
	if err := c.readLengthPrefixed(ctx, &res); err != nil {
		return "", err
	}
	if res.WebSocketURL == "" {
		return "", ideviceerr.New(ideviceerr.UnexpectedResponse, "webinspector: missing WebSocket URL")
	}
	return res.WebSocketURL, nil
}

// ConnectToWebView connects to appID's web view and returns a live
// *websocket.Conn bridging DevTools protocol traffic. The caller owns the
// connection's lifecycle (reading, writing, closing) from there.
func (c *Client) ConnectToWebView(ctx context.Context, appID string) (*websocket.Conn, error) {
	entry := oplog.Start("webinspector", "ConnectToWebView", appID)
	defer entry.Finish()

	url, err := c.webSocketURL(ctx, appID)
	if err != nil {
		return nil, entry.Error(err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, entry.Error(ideviceerr.Wrap(ideviceerr.Io, "dial webview websocket", err))
	}
	return conn, nil
}
