// Package provider implements the lockdown StartService handshake that
// turns a service name into an authenticated byte-stream channel, either
// through the usbmux broker or directly over TCP.
package provider

import (
	"context"

	"github.com/go-idevice/idevice/transport"
)

// lockdownPort is the well-known TCP port lockdownd listens on, both over
// usbmux and over a network connection to a paired device.
const lockdownPort = 62078

// Provider turns a lockdown service name into a connected, framing-ready
// channel. MultiplexedProvider and DirectTCPProvider are the two concrete
// implementations; callers depend only on this interface so that service
// clients (AFC, Notification Proxy, the C8 thin clients) work unchanged
// against either transport.
type Provider interface {
	// StartService performs the lockdown handshake for name and returns
	// the resulting channel, already TLS-wrapped if the service demanded
	// it.
	StartService(ctx context.Context, name string) (transport.Stream, error)
}
