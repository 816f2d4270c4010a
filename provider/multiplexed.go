package provider

import (
	"context"

	"github.com/go-idevice/idevice/transport"
	"github.com/go-idevice/idevice/usbmux"
)

// MultiplexedProvider starts services by routing through the usbmux
// broker: a fresh channel per call, connected first to lockdown to
// negotiate the real service port, then reconnected to that port.
type MultiplexedProvider struct {
	Addr       usbmux.Addr
	DeviceID   uint32
	PairRecord []byte
	Label      string
}

// NewMultiplexedProvider builds a provider bound to a specific broker-
// enumerated device. label identifies the caller in lockdown's logs
// (typically the binary name).
func NewMultiplexedProvider(addr usbmux.Addr, deviceID uint32, pairRecord []byte, label string) *MultiplexedProvider {
	return &MultiplexedProvider{Addr: addr, DeviceID: deviceID, PairRecord: pairRecord, Label: label}
}

// StartService implements Provider.
func (p *MultiplexedProvider) StartService(ctx context.Context, name string) (transport.Stream, error) {
	lockdownMux, err := usbmux.Connect(ctx, p.Addr)
	if err != nil {
		return nil, err
	}
	lockdownChan, err := lockdownMux.Connect(ctx, p.DeviceID, lockdownPort, p.Label)
	if err != nil {
		return nil, err
	}

	port, enableSSL, err := startService(ctx, lockdownChan, name, p.Label)
	_ = lockdownChan.Close()
	if err != nil {
		return nil, err
	}

	serviceMux, err := usbmux.Connect(ctx, p.Addr)
	if err != nil {
		return nil, err
	}
	serviceChan, err := serviceMux.Connect(ctx, p.DeviceID, port, p.Label)
	if err != nil {
		return nil, err
	}

	if !enableSSL {
		return serviceChan, nil
	}
	tlsChan, err := wrapTLS(ctx, serviceChan, p.PairRecord)
	if err != nil {
		_ = serviceChan.Close()
		return nil, err
	}
	return tlsChan, nil
}
