package webinspector

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

func TestListApplications_SendsLCommand(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		cmd := make([]byte, 1)
		n, err := server.Read(cmd)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, byte('L'), cmd[0])

		_ = plistwire.WriteMessage(context.Background(), server, applicationListResponse{
			Applications: []struct {
				Name string `plist:"Name"`
			}{{Name: "Safari"}, {Name: "Mail"}},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	names, err := c.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Safari", "Mail"}, names)
}

func TestWebSocketURL_SendsAppIDAndParsesResponse(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		cmd := make([]byte, 1)
		_, err := server.Read(cmd)
		require.NoError(t, err)
		assert.Equal(t, byte('C'), cmd[0])

		lbuf := make([]byte, 4)
		total := 0
		for total < 4 {
			n, rerr := server.Read(lbuf[total:])
			require.NoError(t, rerr)
			total += n
		}
		length := binary.BigEndian.Uint32(lbuf)
		body := make([]byte, length)
		total = 0
		for total < len(body) {
			n, rerr := server.Read(body[total:])
			require.NoError(t, rerr)
			total += n
		}
		assert.Equal(t, "com.example.safari", string(body))

		_ = plistwire.WriteMessage(context.Background(), server, connectResponse{WebSocketURL: "ws://localhost:9222/devtools"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url, err := c.webSocketURL(ctx, "com.example.safari")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:9222/devtools", url)
}

func TestWebSocketURL_MissingURLIsError(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		cmd := make([]byte, 1)
		_, _ = server.Read(cmd)
		lbuf := make([]byte, 4)
		total := 0
		for total < 4 {
			n, _ := server.Read(lbuf[total:])
			total += n
		}
		length := binary.BigEndian.Uint32(lbuf)
		body := make([]byte, length)
		total = 0
		for total < len(body) {
			n, _ := server.Read(body[total:])
			total += n
		}
		_ = plistwire.WriteMessage(context.Background(), server, connectResponse{})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.webSocketURL(ctx, "com.example.missing")
	require.Error(t, err)
}
