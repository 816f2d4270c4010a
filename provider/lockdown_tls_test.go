package provider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

// selfSignedPairRecord builds a pair-record plist carrying a freshly
// generated self-signed certificate and key, PEM-encoded the way a real
// pairing record stores them.
func selfSignedPairRecord(t *testing.T) ([]byte, tls.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-device"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	record, err := plist.MarshalIndent(pairRecordFields{HostCertificate: certPEM, HostPrivateKey: keyPEM}, plist.XMLFormat, "")
	require.NoError(t, err)

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)
	return record, cert
}

func TestWrapTLS_SucceedsWithoutCallerDeadline(t *testing.T) {
	pairRecord, cert := selfSignedPairRecord(t)

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	serverDone := make(chan error, 1)
	go func() {
		tlsServer := tls.Server(serverConn, &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientAuth:   tls.RequireAnyClientCert,
		})
		serverDone <- tlsServer.Handshake()
	}()

	s, err := wrapTLS(context.Background(), transport.Wrap(clientConn), pairRecord)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, <-serverDone)
}

func TestWrapTLS_RespectsCallerDeadline(t *testing.T) {
	pairRecord, cert := selfSignedPairRecord(t)
	_ = cert

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	// No peer ever completes the handshake; a short caller-supplied
	// deadline must still bound wrapTLS rather than hang forever.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := wrapTLS(ctx, transport.Wrap(clientConn), pairRecord)
	assert.Error(t, err)
}
