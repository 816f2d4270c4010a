// Package companionproxy implements the Companion Proxy service. The
// upstream protocol documents no verbs beyond connecting to the relay, so
// this client only offers the generic plist forward/subscribe shape every
// watch-companion message fits: Dispatch to send a command, Listen to
// receive whatever the relay forwards back.
package companionproxy

import (
	"context"
	"sync"

	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for Companion Proxy.
const ServiceName = "com.apple.companion_proxy"

const subscriberBuffer = 16

// Client is a Companion Proxy session. As with notifyproxy, the channel's
// read half can only be owned by a single goroutine, so Listen starts one
// background reader shared by every subscriber.
type Client struct {
	stream transport.Stream

	writeMu sync.Mutex

	mu          sync.Mutex
	subscribers map[chan plistwire.Dict]struct{}
	cancelRead  context.CancelFunc
	readDone    chan struct{}
}

// New wraps an already-connected Companion Proxy channel.
func New(stream transport.Stream) *Client {
	return &Client{
		stream:      stream,
		subscribers: make(map[chan plistwire.Dict]struct{}),
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

// Dispatch forwards an arbitrary command dictionary to the relay.
func (c *Client) Dispatch(ctx context.Context, dict plistwire.Dict) error {
	entry := oplog.Start("companionproxy", "Dispatch", "")
	defer entry.Finish()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return entry.Error(plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), dict))
}

// Listen registers a subscriber for inbound relay messages, starting the
// shared background reader on first use.
func (c *Client) Listen() <-chan plistwire.Dict {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan plistwire.Dict, subscriberBuffer)
	c.subscribers[ch] = struct{}{}

	if c.cancelRead == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelRead = cancel
		c.readDone = make(chan struct{})
		go c.readLoop(ctx)
	}
	return ch
}

// StopListening unregisters ch.
func (c *Client) StopListening(ch <-chan plistwire.Dict) {
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
	r := transport.AsReader(ctx, c.stream)
	for {
		var dict plistwire.Dict
		if err := plistwire.ReadMessage(ctx, r, &dict); err != nil {
			return
		}
		c.fanOut(dict)
	}
}

func (c *Client) fanOut(dict plistwire.Dict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subscribers {
		select {
		case sub <- dict:
		default:
		}
	}
}
