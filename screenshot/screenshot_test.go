package screenshot

import (
	"context"
	"testing"
	"time"

	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake_ReturnsImageData(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req takeRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, takeResponse{Status: "Success", ImageData: []byte("PNGDATA")})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNGDATA"), data)
}

func TestTake_ErrorStatus(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req takeRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, takeResponse{Status: "Failed", Error: "no display"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Take(ctx)
	require.Error(t, err)
}
