package diagnostics

import (
	"context"
	"testing"
	"time"

	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDomain_SendsDomainField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req request
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		assert.Equal(t, "Diagnostics", req.Request)
		assert.Equal(t, string(DomainWiFi), req.Domain)
		_ = plistwire.WriteMessage(context.Background(), server, reply{
			Status:      "Success",
			Diagnostics: map[string]interface{}{"RSSI": -40},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	diag, err := c.ForDomain(ctx, DomainWiFi)
	require.NoError(t, err)
	assert.NotNil(t, diag["RSSI"])
}

func TestRestart_PropagatesErrorField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req request
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		assert.Equal(t, "Restart", req.Request)
		_ = plistwire.WriteMessage(context.Background(), server, reply{Status: "Failed", Error: "denied"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Restart(ctx)
	require.Error(t, err)
}
