// Package filerelay implements the File Relay service: a plist-framed
// request naming a set of log/diagnostic sources, followed by a raw
// length-prefixed CPIO-gzip archive of whatever the device collected.
package filerelay

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/internal/oplog"
	"github.com/go-idevice/idevice/plistwire"
	"github.com/go-idevice/idevice/transport"
)

// ServiceName is the lockdown service identifier for File Relay.
const ServiceName = "com.apple.mobile.file_relay"

// Source names a collectible log/diagnostic bundle on the device.
type Source string

const (
	SourceAppleSupport           Source = "AppleSupport"
	SourceNetwork                Source = "Network"
	SourceVPN                    Source = "VPN"
	SourceWifi                   Source = "Wifi"
	SourceUserDatabases          Source = "UserDatabases"
	SourceCrashReporter          Source = "CrashReporter"
	SourceTmp                    Source = "Tmp"
	SourceSystemConfiguration    Source = "SystemConfiguration"
	SourceKeyboard               Source = "Keyboard"
	SourceLogs                   Source = "Logs"
	SourceLockdown               Source = "Lockdown"
	SourceMobileInstallation     Source = "MobileInstallation"
	SourceCrashReporterClearable Source = "CrashReporter-Clearable"
	SourceDiagnostics            Source = "Diagnostics"
	SourceAll                    Source = "All"
)

// Client is a File Relay session.
type Client struct {
	stream transport.Stream
}

// New wraps an already-connected File Relay channel.
func New(stream transport.Stream) *Client {
	return &Client{stream: stream}
}

// Close releases the underlying channel.
func (c *Client) Close() error {
	return c.stream.Close()
}

type request struct {
	Sources []string `plist:"Sources"`
}

type reply struct {
	Status string `plist:"Status"`
	Error  string `plist:"Error"`
}

// RequestFiles asks the device to collect the named sources and returns
// the resulting archive as raw bytes (CPIO, gzip-compressed). Duplicate
// sources are collapsed before the request is sent.
func (c *Client) RequestFiles(ctx context.Context, sources []Source) ([]byte, error) {
	entry := oplog.Start("filerelay", "RequestFiles", "")
	defer entry.Finish()

	seen := make(map[Source]struct{}, len(sources))
	unique := make([]string, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, string(s))
	}

	if err := plistwire.WriteMessage(ctx, transport.AsWriter(ctx, c.stream), request{Sources: unique}); err != nil {
		return nil, entry.Error(err)
	}

	var res reply
	if err := plistwire.ReadMessage(ctx, transport.AsReader(ctx, c.stream), &res); err != nil {
		return nil, entry.Error(err)
	}
	if res.Error != "" {
		return nil, entry.Error(ideviceerr.Protocolf("filerelay", "RequestFiles: %s", res.Error))
	}
	if res.Status != "" && res.Status != "Complete" {
		return nil, entry.Error(ideviceerr.New(ideviceerr.UnexpectedResponse, "filerelay: unexpected status "+res.Status))
	}

	r := transport.AsReader(ctx, c.stream)
	var lbuf [4]byte
	if _, err := io.ReadFull(r, lbuf[:]); err != nil {
		return nil, entry.Error(ideviceerr.IoErr(err))
	}
	length := binary.BigEndian.Uint32(lbuf[:])
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, entry.Error(ideviceerr.IoErr(err))
	}
	entry.Result("%d bytes", len(data))
	return data, nil
}
