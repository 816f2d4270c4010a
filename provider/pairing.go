package provider

import (
	"crypto/tls"

	"github.com/go-idevice/idevice/ideviceerr"
	"howett.net/plist"
)

// pairRecordFields mirrors the subset of the opaque pairing blob this
// package needs: the host's PEM certificate and private key, used to
// authenticate to lockdown services that demand TLS.
type pairRecordFields struct {
	HostCertificate []byte `plist:"HostCertificate"`
	HostPrivateKey  []byte `plist:"HostPrivateKey"`
}

func pairingCertificate(pairRecord []byte) (tls.Certificate, error) {
	var fields pairRecordFields
	if _, err := plist.Unmarshal(pairRecord, &fields); err != nil {
		return tls.Certificate{}, ideviceerr.Wrap(ideviceerr.PlistMalformed, "decode pair record", err)
	}
	if len(fields.HostCertificate) == 0 || len(fields.HostPrivateKey) == 0 {
		return tls.Certificate{}, ideviceerr.New(ideviceerr.AuthRequired, "pair record missing host certificate or key")
	}
	cert, err := tls.X509KeyPair(fields.HostCertificate, fields.HostPrivateKey)
	if err != nil {
		return tls.Certificate{}, ideviceerr.Wrap(ideviceerr.AuthRequired, "parse host certificate", err)
	}
	return cert, nil
}
