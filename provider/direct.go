package provider

import (
	"context"
	"net"
	"strconv"

	"github.com/go-idevice/idevice/transport"
)

// DirectTCPProvider starts services against a device reachable directly
// over TCP (network pairing), with no usbmux hop: the same StartService
// contract, against a host the caller already knows how to reach.
type DirectTCPProvider struct {
	Host       string
	PairRecord []byte
	Label      string
}

// NewDirectTCPProvider builds a provider bound to host.
func NewDirectTCPProvider(host string, pairRecord []byte, label string) *DirectTCPProvider {
	return &DirectTCPProvider{Host: host, PairRecord: pairRecord, Label: label}
}

// StartService implements Provider.
func (p *DirectTCPProvider) StartService(ctx context.Context, name string) (transport.Stream, error) {
	lockdownChan, err := transport.DialTCP(ctx, net.JoinHostPort(p.Host, strconv.Itoa(lockdownPort)))
	if err != nil {
		return nil, err
	}

	port, enableSSL, err := startService(ctx, lockdownChan, name, p.Label)
	_ = lockdownChan.Close()
	if err != nil {
		return nil, err
	}

	serviceChan, err := transport.DialTCP(ctx, net.JoinHostPort(p.Host, strconv.Itoa(int(port))))
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
