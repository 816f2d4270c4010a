// Package usbmux implements the framed control protocol spoken to the
// local usbmuxd broker: device enumeration, pairing-record retrieval, and
// handing off a raw channel to a (device, port) pair.
package usbmux

import (
	"context"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/transport"
)

const clientVersionString = "go-idevice"
const libUSBMuxVersion = 3

// Client is a connection to the broker. After a successful Connect the
// Client is spent: its shell is dissolved and only the raw Stream it
// returns remains meaningful. Every other method may be called any
// number of times before that happens.
type Client struct {
	stream transport.Stream
	tag    uint32
}

// Connect dials the broker at addr and returns a fresh control-channel
// Client.
func Connect(ctx context.Context, addr Addr) (*Client, error) {
	s, err := addr.dial(ctx)
	if err != nil {
		return nil, ideviceerr.IoErr(err)
	}
	return &Client{stream: s}, nil
}

// NewClient wraps an already-dialed Stream, primarily for tests.
func NewClient(s transport.Stream) *Client {
	return &Client{stream: s}
}

// Close releases the underlying connection. Calling it after Connect has
// handed off the stream is a caller error (the Client no longer owns
// anything), but is harmless since Close on the same *transport.Stream
// twice just returns whatever the second close returns.
func (c *Client) Close() error {
	return c.stream.Close()
}

func (c *Client) nextTag() uint32 {
	c.tag++
	return c.tag
}

func (c *Client) roundTrip(ctx context.Context, req interface{}, out interface{}) error {
	tag := c.nextTag()
	frame, err := encodeFrame(tag, req)
	if err != nil {
		return err
	}
	if err := c.stream.Write(ctx, frame); err != nil {
		return err
	}
	if _, err := readFrame(ctx, c.stream, out); err != nil {
		return err
	}
	return nil
}

// ListDevices enumerates devices currently visible to the broker.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	req := listDevicesRequest{
		MessageType:         "ListDevices",
		ClientVersionString: clientVersionString,
		LibUSBMuxVersion:    libUSBMuxVersion,
	}
	var res listDevicesResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(res.DeviceList))
	for _, rec := range res.DeviceList {
		var conn Connection
		switch rec.Properties.ConnectionType {
		case "USB":
			conn = Connection{Kind: USB}
		case "Network":
			ip, tag, err := decodeNetworkAddress(rec.Properties.NetworkAddress)
			if err != nil {
				return nil, ideviceerr.New(ideviceerr.UnexpectedResponse, "truncated network device address")
			}
			if ip != nil {
				conn = Connection{Kind: Network, Addr: ip}
			} else {
				conn = Connection{Kind: UnknownConnection, Tag: tag}
			}
		default:
			conn = Connection{Kind: UnknownConnection, Tag: rec.Properties.ConnectionType}
		}

		devices = append(devices, Device{
			UDID:       rec.Properties.SerialNumber,
			DeviceID:   rec.DeviceID,
			Connection: conn,
		})
	}
	return devices, nil
}

type readPairRecordRequest struct {
	MessageType  string `plist:"MessageType"`
	PairRecordID string `plist:"PairRecordID"`
}

type readPairRecordResponse struct {
	PairRecordData []byte `plist:"PairRecordData"`
}

// ReadPairRecord fetches the opaque pairing bytes for udid.
func (c *Client) ReadPairRecord(ctx context.Context, udid string) ([]byte, error) {
	req := readPairRecordRequest{MessageType: "ReadPairRecord", PairRecordID: udid}
	var res readPairRecordResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, err
	}
	if len(res.PairRecordData) == 0 {
		return nil, ideviceerr.New(ideviceerr.DeviceNotFound, "no pair record for "+udid)
	}
	return res.PairRecordData, nil
}

type readBUIDRequest struct {
	MessageType string `plist:"MessageType"`
}

type readBUIDResponse struct {
	BUID string `plist:"BUID"`
}

// ReadBUID returns the broker-unique identifier.
func (c *Client) ReadBUID(ctx context.Context) (string, error) {
	var res readBUIDResponse
	if err := c.roundTrip(ctx, readBUIDRequest{MessageType: "ReadBUID"}, &res); err != nil {
		return "", err
	}
	if res.BUID == "" {
		return "", ideviceerr.New(ideviceerr.UnexpectedResponse, "empty BUID")
	}
	return res.BUID, nil
}

type connectRequest struct {
	MessageType string `plist:"MessageType"`
	DeviceID    uint32 `plist:"DeviceID"`
	PortNumber  uint32 `plist:"PortNumber"`
}

type connectResponse struct {
	Number int64 `plist:"Number"`
}

// Connect asks the broker to open a raw channel to (deviceID, port) and,
// on success, returns that channel. The Client must not be used again
// afterward: the multiplexer shell is dissolved once the channel hands
// off.
//
// port is written to the wire in network byte order inside the plist
// integer field — this looks like a bug at the call site (why byte-swap
// before putting it in a structured field?) but it is the documented
// wire behavior of the broker's Connect command.
func (c *Client) Connect(ctx context.Context, deviceID uint32, port uint16, label string) (transport.Stream, error) {
	// Byte-swap the 16-bit port and carry it in a plain integer field:
	// the broker reads PortNumber as a native-endian u16 inside a u32, so
	// the value we must send is port's bytes reversed, not port itself.
	swapped := (port&0xFF)<<8 | (port >> 8)
	networkOrderPort := uint32(swapped)
	_ = label // label is carried by the caller's provider layer, not the wire protocol.

	req := connectRequest{
		MessageType: "Connect",
		DeviceID:    deviceID,
		PortNumber:  networkOrderPort,
	}
	var res connectResponse
	if err := c.roundTrip(ctx, req, &res); err != nil {
		return nil, err
	}
	if err := connectError(res.Number); err != nil {
		_ = c.stream.Close()
		return nil, err
	}
	return c.stream, nil
}
