package provider

import (
	"context"
	"testing"
	"time"

	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartService_Success(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()

	go func() {
		var req startServiceRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, startServiceResponse{
			Port:             62079,
			EnableServiceSSL: true,
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	port, enableSSL, err := startService(ctx, stream, "com.apple.afc", "idevice-afc")
	require.NoError(t, err)
	assert.EqualValues(t, 62079, port)
	assert.True(t, enableSSL)
}

func TestStartService_ErrorField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()

	go func() {
		var req startServiceRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, startServiceResponse{
			Error: "ServiceProhibited",
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := startService(ctx, stream, "com.apple.afc", "idevice-afc")
	require.Error(t, err)
}
