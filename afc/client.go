// Package afc implements the Apple File Conduit protocol: a 40-byte
// little-endian packet header framing NUL-terminated path arguments and
// file-handle-based chunked I/O over a single-threaded session.
package afc

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for AFC.
const ServiceName = "com.apple.afc"

// DefaultChunkSize is the default maximum per-request transfer size for
// FileRefRead/FileRefWrite, matching the device's own default.
const DefaultChunkSize = 64 * 1024

// Client is a single AFC session. An AFC session is logically
// single-threaded — exactly one outstanding request at a time — so every
// public method serializes on mu; a caller needing parallel filesystem
// access must open multiple sessions (multiple Clients over separate
// channels).
type Client struct {
	mu         sync.Mutex
	stream     transport.Stream
	packetNum  uint64
	chunkSize  int
	handles    *handleTracker
}

// New wraps an already-connected AFC channel (typically obtained via
// provider.Provider.StartService(ctx, afc.ServiceName)).
func New(stream transport.Stream) *Client {
	return &Client{stream: stream, chunkSize: DefaultChunkSize, handles: newHandleTracker()}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

func (c *Client) roundTrip(ctx context.Context, op operation, payload []byte) (operation, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	num := c.packetNum
	c.packetNum++
	if err := sendPacket(ctx, c.stream, num, op, payload); err != nil {
		return 0, nil, err
	}
	return recvPacket(ctx, c.stream)
}

// GetDeviceInfo returns the device's filesystem info (model, free space,
// block size, and similar) as a flat key/value map.
func (c *Client) GetDeviceInfo(ctx context.Context) (map[string]string, error) {
	entry := oplog.Start("afc", "GetDeviceInfo", "")
	defer entry.Finish()

	_, data, err := c.roundTrip(ctx, opGetDeviceInfo, nil)
	if err != nil {
		return nil, entry.Error(err)
	}
	return parseKeyValueTokens(data), nil
}

// ReadDir lists the entries of path (names only, including "." and "..").
func (c *Client) ReadDir(ctx context.Context, path string) ([]string, error) {
	entry := oplog.Start("afc", "ReadDir", path)
	defer entry.Finish()

	_, data, err := c.roundTrip(ctx, opReadDir, encodePath(path))
	if err != nil {
		return nil, entry.Error(err)
	}
	return splitTokens(data), nil
}

// GetFileInfo returns path's stat-like attributes as a flat key/value map
// (st_size, st_blocks, st_nlink, st_ifmt, st_mtime, and similar).
func (c *Client) GetFileInfo(ctx context.Context, path string) (map[string]string, error) {
	entry := oplog.Start("afc", "GetFileInfo", path)
	defer entry.Finish()

	_, data, err := c.roundTrip(ctx, opGetFileInfo, encodePath(path))
	if err != nil {
		return nil, entry.Error(err)
	}
	return parseKeyValueTokens(data), nil
}

// MakeDir creates path as a directory.
func (c *Client) MakeDir(ctx context.Context, path string) error {
	entry := oplog.Start("afc", "MakeDir", path)
	defer entry.Finish()

	_, _, err := c.roundTrip(ctx, opMakeDir, encodePath(path))
	if err != nil {
		return entry.Error(err)
	}
	return nil
}

// RemovePath removes a single file or empty directory.
func (c *Client) RemovePath(ctx context.Context, path string) error {
	entry := oplog.Start("afc", "RemovePath", path)
	defer entry.Finish()

	_, _, err := c.roundTrip(ctx, opRemovePath, encodePath(path))
	if err != nil {
		return entry.Error(err)
	}
	return nil
}

// RemovePathAndContents recursively removes path and everything under it.
func (c *Client) RemovePathAndContents(ctx context.Context, path string) error {
	entry := oplog.Start("afc", "RemovePathAndContents", path)
	defer entry.Finish()

	_, _, err := c.roundTrip(ctx, opRemovePathAndContents, encodePath(path))
	if err != nil {
		return entry.Error(err)
	}
	return nil
}

// RenamePath moves from to to.
func (c *Client) RenamePath(ctx context.Context, from, to string) error {
	entry := oplog.Start("afc", "RenamePath", from+" -> "+to)
	defer entry.Finish()

	_, _, err := c.roundTrip(ctx, opRenamePath, encodePathPair(from, to))
	if err != nil {
		return entry.Error(err)
	}
	return nil
}

// MakeLink creates a symlink named linkPath pointing at target.
func (c *Client) MakeLink(ctx context.Context, target, linkPath string) error {
	entry := oplog.Start("afc", "MakeLink", target+" -> "+linkPath)
	defer entry.Finish()

	// Link type 2 = symlink, encoded as an 8-byte LE word ahead of the
	// NUL-terminated target/link pair.
	payload := make([]byte, 0, 8+len(target)+1+len(linkPath)+1)
	var linkType [8]byte
	binary.LittleEndian.PutUint64(linkType[:], 2)
	payload = append(payload, linkType[:]...)
	payload = append(payload, encodePathPair(target, linkPath)...)

	_, _, err := c.roundTrip(ctx, opMakeLink, payload)
	if err != nil {
		return entry.Error(err)
	}
	return nil
}

// GetSizeOfPathContents returns the recursive size in bytes of path.
func (c *Client) GetSizeOfPathContents(ctx context.Context, path string) (uint64, error) {
	entry := oplog.Start("afc", "GetSizeOfPathContents", path)
	defer entry.Finish()

	_, data, err := c.roundTrip(ctx, opGetSizeOfPathContents, encodePath(path))
	if err != nil {
		return 0, entry.Error(err)
	}
	if len(data) < 8 {
		return 0, entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "afc: short size response"))
	}
	return binary.LittleEndian.Uint64(data[:8]), nil
}

// GetFileHash returns the device's digest of path's contents. The digest
// algorithm is device-chosen; callers should treat the result as an opaque
// fingerprint rather than assume a specific hash function.
func (c *Client) GetFileHash(ctx context.Context, path string) ([]byte, error) {
	entry := oplog.Start("afc", "GetFileHash", path)
	defer entry.Finish()

	_, data, err := c.roundTrip(ctx, opGetFileHash, encodePath(path))
	if err != nil {
		return nil, entry.Error(err)
	}
	return data, nil
}

// SetModTime sets path's modification time to mtimeNanos (nanoseconds
// since the Unix epoch, the device's native unit for this operation).
func (c *Client) SetModTime(ctx context.Context, path string, mtimeNanos int64) error {
	entry := oplog.Start("afc", "SetModTime", path)
	defer entry.Finish()

	pathBytes := encodePath(path)
	payload := make([]byte, 8+len(pathBytes))
	binary.LittleEndian.PutUint64(payload[:8], uint64(mtimeNanos))
	copy(payload[8:], pathBytes)

	_, _, err := c.roundTrip(ctx, opSetModTime, payload)
	if err != nil {
		return entry.Error(err)
	}
	return nil
}
