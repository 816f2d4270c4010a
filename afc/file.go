package afc

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
)

// FileHandle is an open file reference on the device, returned by Open.
// It is only ever valid for the Client that produced it.
type FileHandle struct {
	client *Client
	handle uint64
}

// Open opens path in the given mode and returns a handle for subsequent
// Read/Write/Seek/Close calls.
//
// The FILE_REF_OPEN payload is mode (8-byte little-endian) followed by the
// NUL-terminated path. Some implementations of this protocol send the path
// first and the mode second — that ordering does not match what the
// device's AFC server actually parses, and opens silently fail or target
// the wrong mode. The payload here is built mode-first.
func (c *Client) Open(ctx context.Context, path string, mode FileMode) (*FileHandle, error) {
	entry := oplog.Start("afc", "Open", path)
	defer entry.Finish()

	pathBytes := encodePath(path)
	payload := make([]byte, 8+len(pathBytes))
	binary.LittleEndian.PutUint64(payload[:8], uint64(mode))
	copy(payload[8:], pathBytes)

	_, data, err := c.roundTrip(ctx, opFileRefOpen, payload)
	if err != nil {
		return nil, entry.Error(err)
	}
	if len(data) < 8 {
		return nil, entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "afc: open response missing handle"))
	}
	handle := binary.LittleEndian.Uint64(data[:8])
	c.handles.open(handle)
	entry.Result("handle=%d", handle)
	return &FileHandle{client: c, handle: handle}, nil
}

// Read fills buf with up to len(buf) bytes from the file's current
// position, splitting the request into the client's chunk size.
func (h *FileHandle) Read(ctx context.Context, buf []byte) (int, error) {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return 0, err
	}

	total := 0
	for total < len(buf) {
		want := len(buf) - total
		if want > h.client.chunkSize {
			want = h.client.chunkSize
		}

		payload := make([]byte, 16)
		binary.LittleEndian.PutUint64(payload[:8], h.handle)
		binary.LittleEndian.PutUint64(payload[8:], uint64(want))

		_, chunk, err := h.client.roundTrip(ctx, opFileRefRead, payload)
		if err != nil {
			return total, err
		}
		n := copy(buf[total:], chunk)
		total += n

		if len(chunk) < want {
			if total == 0 {
				return 0, io.EOF
			}
			return total, nil
		}
	}
	return total, nil
}

// Write sends all of data to the file at its current position, splitting
// into the client's chunk size.
func (h *FileHandle) Write(ctx context.Context, data []byte) error {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return err
	}

	for offset := 0; offset < len(data); {
		end := offset + h.client.chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]

		payload := make([]byte, 8+len(chunk))
		binary.LittleEndian.PutUint64(payload[:8], h.handle)
		copy(payload[8:], chunk)

		if _, _, err := h.client.roundTrip(ctx, opFileRefWrite, payload); err != nil {
			return err
		}
		offset = end
	}
	return nil
}

// Seek repositions the file per whence (0=start, 1=current, 2=end),
// matching io.Seeker's convention.
func (h *FileHandle) Seek(ctx context.Context, offset int64, whence int) error {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return err
	}
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint64(payload[:8], h.handle)
	binary.LittleEndian.PutUint64(payload[8:16], uint64(whence))
	binary.LittleEndian.PutUint64(payload[16:], uint64(offset))

	_, _, err := h.client.roundTrip(ctx, opFileRefSeek, payload)
	return err
}

// Tell returns the file's current position.
func (h *FileHandle) Tell(ctx context.Context) (int64, error) {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return 0, err
	}
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, h.handle)

	_, data, err := h.client.roundTrip(ctx, opFileRefTell, payload)
	if err != nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, ideviceerr.New(ideviceerr.UnexpectedResponse, "afc: tell response missing offset")
	}
	return int64(binary.LittleEndian.Uint64(data[:8])), nil
}

// SetSize truncates or extends the file to size bytes.
func (h *FileHandle) SetSize(ctx context.Context, size int64) error {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return err
	}
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint64(payload[:8], h.handle)
	binary.LittleEndian.PutUint64(payload[8:], uint64(size))

	_, _, err := h.client.roundTrip(ctx, opFileRefSetSize, payload)
	return err
}

// Lock applies flock-style advisory locking semantics to the handle.
func (h *FileHandle) Lock(ctx context.Context, op LockOperation) error {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return err
	}
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint64(payload[:8], h.handle)
	binary.LittleEndian.PutUint64(payload[8:], uint64(op))

	_, _, err := h.client.roundTrip(ctx, opFileRefLock, payload)
	return err
}

// Close releases the handle. A second Close on the same handle returns an
// error locally (no further round trip), matching the documented
// idempotence: callers on a cleanup path may ignore it.
func (h *FileHandle) Close(ctx context.Context) error {
	if err := h.client.handles.checkOpen(h.handle); err != nil {
		return err
	}
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, h.handle)

	_, _, err := h.client.roundTrip(ctx, opFileRefClose, payload)
	h.client.handles.close(h.handle)
	return err
}

// ReadFile is a convenience wrapper: open path read-only, drain it
// entirely, close.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	entry := oplog.Start("afc", "ReadFile", path)
	defer entry.Finish()

	h, err := c.Open(ctx, path, ModeRead)
	if err != nil {
		return nil, entry.Error(err)
	}
	defer h.Close(ctx)

	var out []byte
	buf := make([]byte, c.chunkSize)
	for {
		n, err := h.Read(ctx, buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, entry.Error(err)
		}
		if n < len(buf) {
			break
		}
	}
	entry.Result("%d bytes", len(out))
	return out, nil
}

// WriteFile is a convenience wrapper: open path write (creating and
// truncating it), write all of data, close.
func (c *Client) WriteFile(ctx context.Context, path string, data []byte) error {
	entry := oplog.Start("afc", "WriteFile", path)
	defer entry.Finish()

	h, err := c.Open(ctx, path, ModeWrite)
	if err != nil {
		return entry.Error(err)
	}
	defer h.Close(ctx)

	if err := h.Write(ctx, data); err != nil {
		return entry.Error(err)
	}
	entry.Result("%d bytes", len(data))
	return nil
}
