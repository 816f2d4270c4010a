package usbmux

import (
	"context"
	"encoding/binary"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/transport"
	"howett.net/plist"
)

// Message types used on the multiplexer control channel.
const (
	typeResult = 1
	typePlist  = 8
)

// Plist format versions. The client always emits XML (version 1) and
// accepts either back.
const (
	versionBinaryPlist = 0
	versionXMLPlist    = 1
)

const headerLen = 16

// header is the 16-byte little-endian frame header: length (including
// itself), version, message type, and a tag the broker echoes back
// unchanged so responses can be correlated with requests.
type header struct {
	length  uint32
	version uint32
	msgType uint32
	tag     uint32
}

func encodeFrame(tag uint32, req interface{}) ([]byte, error) {
	xml, err := plist.MarshalIndent(req, plist.XMLFormat, "")
	if err != nil {
		return nil, ideviceerr.Wrap(ideviceerr.PlistMalformed, "encode usbmux request", err)
	}

	buf := make([]byte, headerLen+len(xml))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(headerLen+len(xml)))
	binary.LittleEndian.PutUint32(buf[4:8], versionXMLPlist)
	binary.LittleEndian.PutUint32(buf[8:12], typePlist)
	binary.LittleEndian.PutUint32(buf[12:16], tag)
	copy(buf[headerLen:], xml)
	return buf, nil
}

// readFrame reads one framed response and unmarshals its plist payload
// into out. The header's length field covers the whole frame, itself
// included.
func readFrame(ctx context.Context, s transport.Stream, out interface{}) (header, error) {
	raw, err := s.ReadExact(ctx, headerLen)
	if err != nil {
		return header{}, err
	}
	h := header{
		length:  binary.LittleEndian.Uint32(raw[0:4]),
		version: binary.LittleEndian.Uint32(raw[4:8]),
		msgType: binary.LittleEndian.Uint32(raw[8:12]),
		tag:     binary.LittleEndian.Uint32(raw[12:16]),
	}
	if h.length < headerLen {
		return header{}, ideviceerr.New(ideviceerr.UnexpectedResponse, "usbmux frame shorter than header")
	}

	body, err := s.ReadExact(ctx, int(h.length-headerLen))
	if err != nil {
		return header{}, err
	}

	if h.msgType != typePlist && h.msgType != typeResult {
		return header{}, ideviceerr.New(ideviceerr.UnexpectedResponse, "unexpected usbmux message type")
	}

	if out != nil {
		if _, err := plist.Unmarshal(body, out); err != nil {
			return header{}, ideviceerr.Wrap(ideviceerr.PlistMalformed, "decode usbmux response", err)
		}
	}
	return h, nil
}
