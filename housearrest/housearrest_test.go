package housearrest

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

type fakeProvider struct {
	stream transport.Stream
}

func (p fakeProvider) StartService(ctx context.Context, name string) (transport.Stream, error) {
	return p.stream, nil
}

// TestDocuments_HandoffToAFC verifies the documented fix: after a
// successful VendDocuments exchange, the same channel is wrapped by a new
// AFC client rather than swapped for a dummy socket, and AFC traffic flows
// on it immediately.
func TestDocuments_HandoffToAFC(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()

	go func() {
		var req vendRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, vendResponse{Status: "Complete"})

		// Next bytes on the same connection are AFC framing: a
		// GetDeviceInfo request, answered as AFC would.
		hbuf := make([]byte, 40)
		total := 0
		for total < len(hbuf) {
			n, err := server.Read(hbuf[total:])
			require.NoError(t, err)
			total += n
		}
		entireLength := binary.LittleEndian.Uint64(hbuf[0:8])
		assert.Equal(t, uint64(40), entireLength)

		resp := make([]byte, 40)
		binary.LittleEndian.PutUint64(resp[0:8], 40)
		binary.LittleEndian.PutUint64(resp[24:32], 0x0B) // GetDeviceInfo echoed back as its own op, no payload
		_, err := server.Write(resp)
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Documents(ctx, fakeProvider{stream: stream}, "com.example.app")
	require.NoError(t, err)

	info, err := client.GetDeviceInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestDocuments_ErrorField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()

	go func() {
		var req vendRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, vendResponse{Error: "InstallationLookupFailed"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Documents(ctx, fakeProvider{stream: stream}, "com.example.missing")
	require.Error(t, err)
}
