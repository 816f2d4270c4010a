// Package diagnostics implements the diagnostics relay service: plist
// requests for device diagnostics, I/O registry dumps, network interface
// listings, and the power-state verbs (restart/shutdown/sleep).
package diagnostics

import (
	"context"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for the diagnostics relay.
const ServiceName = "com.apple.mobile.diagnostics_relay"

// Domain scopes a Diagnostics request to one subsystem.
type Domain string

const (
	DomainWiFi     Domain = "com.apple.mobile.wifi"
	DomainGasGauge Domain = "com.apple.mobile.gas_gauge"
	DomainNAND     Domain = "com.apple.mobile.NAND"
	DomainHDMI     Domain = "com.apple.mobile.HDMI"
)

// Client is a diagnostics relay session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected diagnostics relay channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

type request struct {
	Request string `plist:"Request"`
	Domain  string `plist:"Domain,omitempty"`
}

type reply struct {
	Status      string                 `plist:"Status"`
	Error       string                 `plist:"Error"`
	Diagnostics map[string]interface{} `plist:"Diagnostics"`
}

func (c *Client) send(ctx context.Context, op string, req request) (map[string]interface{}, error) {
	entry := oplog.Start("diagnostics", op, req.Domain)
	defer entry.Finish()

	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), req); err != nil {
		return nil, entry.Error(err)
	}
	var res reply
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Status != "" && res.Status != "Success" {
		return nil, entry.Error(ideviceerr.Protocolf("diagnostics", "%s: %s", op, res.Error))
	}
	if res.Diagnostics != nil {
		return res.Diagnostics, nil
	}
	return nil, nil
}

// All requests the full diagnostics dictionary, which doubles as the
// device's general info report.
func (c *Client) All(ctx context.Context) (map[string]interface{}, error) {
	return c.send(ctx, "All", request{Request: "All"})
}

// ForDomain requests diagnostics scoped to a single subsystem.
func (c *Client) ForDomain(ctx context.Context, domain Domain) (map[string]interface{}, error) {
	return c.send(ctx, "Diagnostics", request{Request: "Diagnostics", Domain: string(domain)})
}

// IORegistry requests a dump of the device's I/O Registry.
func (c *Client) IORegistry(ctx context.Context) (map[string]interface{}, error) {
	return c.send(ctx, "IORegistry", request{Request: "IORegistry"})
}

// NetworkInterfaces requests the device's network interface listing.
func (c *Client) NetworkInterfaces(ctx context.Context) (map[string]interface{}, error) {
	return c.send(ctx, "NetworkInterfaces", request{Request: "NetworkInterfaces"})
}

// Restart reboots the device immediately.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.send(ctx, "Restart", request{Request: "Restart"})
	return err
}

// Shutdown powers the device off.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.send(ctx, "Shutdown", request{Request: "Shutdown"})
	return err
}

// Sleep puts the device to sleep.
func (c *Client) Sleep(ctx context.Context) error {
	_, err := c.send(ctx, "Sleep", request{Request: "Sleep"})
	return err
}
