package mounter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCopyDevices_UnwrapsEntryList verifies the documented fix: the
// mounted-image list lives under the response's EntryList field, not at
// the top level.
func TestCopyDevices_UnwrapsEntryList(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var req copyDevicesRequest
		_ = plistwire.ReadMessage(context.Background(), server, &req)
		_ = plistwire.WriteMessage(context.Background(), server, copyDevicesResponse{
			EntryList: []map[string]interface{}{
				{"ImageSignature": []byte{1, 2, 3}},
			},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	devices, err := c.CopyDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
}

func TestLookupImage_ReturnsSignature(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var got lookupImageRequest
		_ = plistwire.ReadMessage(context.Background(), server, &got)
		assert.Equal(t, "Developer", got.ImageType)
		_ = plistwire.WriteMessage(context.Background(), server, lookupImageResponse{ImageSignature: []byte("sig")})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sig, err := c.LookupImage(ctx, "Developer")
	require.NoError(t, err)
	assert.Equal(t, []byte("sig"), sig)
}

func TestUploadImage_SendsRawBytesBetweenAckAndComplete(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	payload := bytes.Repeat([]byte("x"), 10)

	go func() {
		var got receiveBytesRequest
		_ = plistwire.ReadMessage(context.Background(), server, &got)
		assert.Equal(t, uint64(len(payload)), got.ImageSize)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "ReceiveBytesAck"})

		buf := make([]byte, len(payload))
		total := 0
		for total < len(buf) {
			n, err := server.Read(buf[total:])
			require.NoError(t, err)
			total += n
		}
		assert.Equal(t, payload, buf)

		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})
	}()

	var progressed int64
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.UploadImage(ctx, "Developer", bytes.NewReader(payload), int64(len(payload)), nil, func(transferred, total int64) {
		progressed = transferred
	})
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), progressed)
}

func TestMountImage_PropagatesErrorField(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var got mountImageRequest
		_ = plistwire.ReadMessage(context.Background(), server, &got)
		_ = plistwire.WriteMessage(context.Background(), server, response{Error: "ImageMountFailed"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.MountImage(ctx, "Developer", []byte("sig"), nil, nil)
	require.Error(t, err)
}

// TestUploadThenMount_ReachesMountedPhase exercises the documented
// Idle -> Uploaded -> Mounted session-state progression end to end: a 1
// MiB zero-filled image is uploaded and mounted, and the client's Phase
// reaches Mounted with a final progress snapshot of (1 MiB, 1 MiB).
func TestUploadThenMount_ReachesMountedPhase(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)
	assert.Equal(t, PhaseIdle, c.Phase())

	const size = 1 << 20
	image := make([]byte, size)
	sig := []byte("sig")

	go func() {
		var recv receiveBytesRequest
		_ = plistwire.ReadMessage(context.Background(), server, &recv)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "ReceiveBytesAck"})

		buf := make([]byte, size)
		total := 0
		for total < len(buf) {
			n, err := server.Read(buf[total:])
			require.NoError(t, err)
			total += n
		}
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})

		var mountReq mountImageRequest
		_ = plistwire.ReadMessage(context.Background(), server, &mountReq)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c.UploadImage(ctx, "Developer", bytes.NewReader(image), size, sig, nil))
	assert.Equal(t, PhaseUploaded, c.Phase())
	assert.Equal(t, ProgressSnapshot{Transferred: size, Total: size}, c.LastProgress())

	require.NoError(t, c.MountImage(ctx, "Developer", sig, nil, nil))
	assert.Equal(t, PhaseMounted, c.Phase())
	assert.Equal(t, "Developer", c.ImageType())
}

func TestUnmountImage_ResetsPhaseToIdle(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)
	c.setPhase(PhaseMounted, "Developer")

	go func() {
		var got unmountImageRequest
		_ = plistwire.ReadMessage(context.Background(), server, &got)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.UnmountImage(ctx, "/dev/disk1"))
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestQueryDeveloperModeStatus(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		var got queryDeveloperModeRequest
		_ = plistwire.ReadMessage(context.Background(), server, &got)
		_ = plistwire.WriteMessage(context.Background(), server, queryDeveloperModeResponse{DeveloperModeStatus: true})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	on, err := c.QueryDeveloperModeStatus(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

type fakeTSS struct{}

func (fakeTSS) FetchManifest(ctx context.Context, uniqueChipID uint64, nonce []byte, identifiers map[string]interface{}, buildManifest []byte) ([]byte, error) {
	return []byte("manifest"), nil
}

func TestMountPersonalized_FullFlow(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	image := bytes.Repeat([]byte("y"), 5)

	go func() {
		var nonceReq queryNonceRequest
		_ = plistwire.ReadMessage(context.Background(), server, &nonceReq)
		_ = plistwire.WriteMessage(context.Background(), server, queryNonceResponse{PersonalizationNonce: []byte("nonce")})

		var idReq queryPersonalizationIdentifiersRequest
		_ = plistwire.ReadMessage(context.Background(), server, &idReq)
		_ = plistwire.WriteMessage(context.Background(), server, queryPersonalizationIdentifiersResponse{
			PersonalizationIdentifiers: map[string]interface{}{"BoardId": 8},
		})

		var recv receiveBytesRequest
		_ = plistwire.ReadMessage(context.Background(), server, &recv)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "ReceiveBytesAck"})

		buf := make([]byte, len(image))
		total := 0
		for total < len(buf) {
			n, err := server.Read(buf[total:])
			require.NoError(t, err)
			total += n
		}
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})

		var mountReq mountImageRequest
		_ = plistwire.ReadMessage(context.Background(), server, &mountReq)
		assert.Equal(t, []byte("manifest"), mountReq.ImageSignature)
		_ = plistwire.WriteMessage(context.Background(), server, response{Status: "Complete"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.MountPersonalized(ctx, fakeTSS{}, "Developer", bytes.NewReader(image), int64(len(image)), nil, []byte("buildmanifest"), nil, 0x8110, nil)
	require.NoError(t, err)
}
