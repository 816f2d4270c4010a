package provider

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// defaultTLSHandshakeTimeout bounds wrapTLS's handshake when the caller's
// ctx carries no deadline of its own, so a silent device never hangs a
// service connection forever.
const defaultTLSHandshakeTimeout = 30 * time.Second

type startServiceRequest struct {
	Request string `plist:"Request"`
	Service string `plist:"Service"`
	Label   string `plist:"Label"`
}

type startServiceResponse struct {
	Port             uint16 `plist:"Port"`
	EnableServiceSSL bool   `plist:"EnableServiceSSL"`
	Error            string `plist:"Error"`
}

// startService performs the lockdown StartService dialogue on an
// already-connected channel to the lockdown port and returns the service
// port to reconnect to, and whether TLS must be negotiated on it.
func startService(ctx context.Context, lockdownChan transport.Stream, name, label string) (port uint16, enableSSL bool, err error) {
	req := startServiceRequest{Request: "StartService", Service: name, Label: label}
	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, lockdownChan), req); err != nil {
		return 0, false, err
	}
	var res startServiceResponse
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, lockdownChan), &res); err != nil {
		return 0, false, err
	}
	if res.Error != "" {
		return 0, false, ideviceerr.New(ideviceerr.ServiceNotAvailable, "lockdown StartService: "+res.Error)
	}
	if res.Port == 0 {
		return 0, false, ideviceerr.New(ideviceerr.UnexpectedResponse, "lockdown StartService returned no port")
	}
	return res.Port, res.EnableServiceSSL, nil
}

// wrapTLS negotiates TLS on top of an already-connected service channel,
// presenting the host certificate and key from pairRecord. Lockdown
// services use certificates self-signed per pairing rather than a CA
// chain; the device's certificate is not verified, neither against a
// trust root nor against the pair record.
func wrapTLS(ctx context.Context, s transport.Stream, pairRecord []byte) (transport.Stream, error) {
	cert, err := pairingCertificate(pairRecord)
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Client(s.Raw(), &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
	})

	handshakeCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, defaultTLSHandshakeTimeout)
		defer cancel()
	}
	if deadline, ok := handshakeCtx.Deadline(); ok {
		_ = tlsConn.SetDeadline(deadline)
	}
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		return nil, ideviceerr.Wrap(ideviceerr.Tls, "handshake", err)
	}
	return transport.Wrap(tlsConn), nil
}
