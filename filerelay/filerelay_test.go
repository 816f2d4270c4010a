package filerelay

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFiles_DedupesSourcesAndReturnsBlob(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req request
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		assert.Equal(t, []string{"Logs", "Wifi"}, req.Sources)
		_ = plistwire.WriteMessage(context.Background(), server, reply{Status: "Complete"})

		blob := []byte("cpio-gzip-bytes")
		lbuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lbuf, uint32(len(blob)))
		_, err := server.Write(lbuf)
		require.NoError(t, err)
		_, err = server.Write(blob)
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := c.RequestFiles(ctx, []Source{SourceLogs, SourceWifi, SourceLogs})
	require.NoError(t, err)
	assert.Equal(t, "cpio-gzip-bytes", string(data))
}

func TestRequestFiles_ErrorField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req request
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, reply{Error: "InvalidSource"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.RequestFiles(ctx, []Source{SourceAll})
	require.Error(t, err)
}
