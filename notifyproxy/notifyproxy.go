// Package notifyproxy implements the Notification Proxy service: a
// 2-byte-command, length-prefixed protocol for observing and posting
// Darwin notifications on the device.
package notifyproxy

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for Notification Proxy.
const ServiceName = "com.apple.mobile.notification_proxy"

// Well-known notification names. Any other string is a valid, unregistered
// notification that Observe/Post will send as-is.
const (
	SyncWillStart       = "com.apple.itunes-client.syncWillStart"
	SyncDidFinish       = "com.apple.itunes-client.syncDidFinish"
	BackupWillStart     = "com.apple.itunes-client.backupWillStart"
	BackupDidFinish     = "com.apple.itunes-client.backupDidFinish"
	RestoreWillStart    = "com.apple.itunes-client.restoreWillStart"
	RestoreDidFinish    = "com.apple.itunes-client.restoreDidFinish"
	AppInstalled        = "com.apple.mobile.application_installed"
	PairingSucceeded    = "com.apple.mobile.paired"
	ITunesSyncWillStart = "com.apple.itunes-mobdev.syncWillStart"
	ITunesSyncDidFinish = "com.apple.itunes-mobdev.syncDidFinish"
	DownloadWillStart   = "com.apple.mobile.data_sync.willStart"
	DownloadDidFinish   = "com.apple.mobile.data_sync.didFinish"
)

const subscriberBuffer = 16

// Client is a Notification Proxy session. The read half of the channel is
// owned exclusively by a single background goroutine started by the first
// call to Listen: the underlying transport.Stream cannot be duplicated the
// way a file descriptor can, so there is no way to hand a second reader
// its own copy of the connection. Posting and observing write on the same
// Client concurrently with that goroutine, serialized by writeMu.
type Client struct {
	stream transport.Stream

	writeMu sync.Mutex

	observedMu sync.Mutex
	observed   map[string]struct{}

	mu          sync.Mutex
	subscribers map[chan string]struct{}
	cancelRead  context.CancelFunc
	readDone    chan struct{}
}

// New wraps an already-connected Notification Proxy channel.
func New(stream transport.Stream) *Client {
	return &Client{
		stream:      stream,
		observed:    make(map[string]struct{}),
		subscribers: make(map[chan string]struct{}),
	}
}

// Close stops the background reader, if running, and closes the channel.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancelRead != nil {
		c.cancelRead()
	}
	c.mu.Unlock()
	return c.stream.Close()
}

func (c *Client) sendCommand(ctx context.Context, cmd string, notification string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	body := []byte(notification)
	buf := make([]byte, 2+4+len(body))
	buf[0], buf[1] = cmd[0], cmd[1]
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(body)))
	copy(buf[6:], body)
	return c.stream.Write(ctx, buf)
}

// Observe registers interest in notification. Calling it again for a
// notification already observed on this client is a no-op: the device
// does not need to be told twice, and every duplicate registration would
// otherwise cost a wire round trip for nothing.
func (c *Client) Observe(ctx context.Context, notification string) error {
	c.observedMu.Lock()
	_, already := c.observed[notification]
	c.observedMu.Unlock()
	if already {
		return nil
	}

	entry := oplog.Start("notifyproxy", "Observe", notification)
	defer entry.Finish()

	if err := c.sendCommand(ctx, "ON", notification); err != nil {
		return entry.Error(err)
	}

	c.observedMu.Lock()
	c.observed[notification] = struct{}{}
	c.observedMu.Unlock()
	return nil
}

// ObserveAll observes every notification in notifications, stopping at the
// first failure.
func (c *Client) ObserveAll(ctx context.Context, notifications []string) error {
	for _, n := range notifications {
		if err := c.Observe(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// Post sends notification to the device.
func (c *Client) Post(ctx context.Context, notification string) error {
	entry := oplog.Start("notifyproxy", "Post", notification)
	defer entry.Finish()
	return entry.Error(c.sendCommand(ctx, "PN", notification))
}

// Listen registers a subscriber for incoming notifications and, on the
// first call, starts the single background goroutine that owns the read
// half of the channel. The returned channel is buffered; a subscriber that
// falls behind drops notifications rather than blocking the reader, since
// the reader is shared and must keep consuming frames for every other
// subscriber.
func (c *Client) Listen() <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan string, subscriberBuffer)
	c.subscribers[ch] = struct{}{}

	if c.cancelRead == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelRead = cancel
		c.readDone = make(chan struct{})
		go c.readLoop(ctx)
	}
	return ch
}

// StopListening unregisters and closes ch. The background reader keeps
// running even after the last subscriber is removed; only Close stops it.
func (c *Client) StopListening(ch <-chan string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subscribers {
		if sub == ch {
			delete(c.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.readDone)
	for {
		cmd, err := c.stream.ReadExact(ctx, 2)
		if err != nil {
			return
		}
		if cmd[0] != 'N' || cmd[1] != 'P' {
			continue
		}
		lenBuf, err := c.stream.ReadExact(ctx, 4)
		if err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf)
		body, err := c.stream.ReadExact(ctx, int(n))
		if err != nil {
			return
		}
		c.fanOut(string(body))
	}
}

func (c *Client) fanOut(notification string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subscribers {
		select {
		case sub <- notification:
		default:
		}
	}
}

// WaitClosed blocks until the background reader has exited, used by
// callers that want to confirm Close has fully torn down the read side
// before reusing the stream for anything else.
func (c *Client) WaitClosed(ctx context.Context) error {
	c.mu.Lock()
	done := c.readDone
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ideviceerr.New(ideviceerr.Cancelled, "notifyproxy: wait for reader shutdown cancelled")
	}
}
