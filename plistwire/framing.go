// Package plistwire implements the length-prefixed plist framing spoken by
// lockdown and most lockdown-started services: a 4-byte big-endian length
// followed by a plist body, binary or XML. This is distinct from usbmux's
// own 16-byte versioned header (package usbmux handles that one itself).
package plistwire

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/go-idevice/idevice/ideviceerr"
	"howett.net/plist"
)

// MaxMessageSize bounds the length prefix accepted from a peer. Nothing in
// this protocol family ever legitimately sends more; it exists to keep a
// confused or hostile peer from making a reader allocate without limit.
const MaxMessageSize = 64 * 1024 * 1024

const lengthPrefixSize = 4

// Dict is the generic decoded shape for services whose messages don't
// warrant a dedicated Go struct — callers that do benefit from one
// (mounter, diagnostics, filerelay, housearrest) define their own
// request/response types instead.
type Dict = map[string]interface{}

var binaryPlistMagic = []byte("bplist00")
var xmlPlistPrefix = []byte("<?xml")

// WriteMessage encodes v as an XML plist and writes it to w as a 4-byte
// big-endian length followed by the plist bytes. Outbound messages are
// always XML: every peer in this family accepts it, and it is what the
// reference broker itself emits.
func WriteMessage(ctx context.Context, w io.Writer, v interface{}) error {
	body, err := plist.MarshalIndent(v, plist.XMLFormat, "")
	if err != nil {
		return ideviceerr.Wrap(ideviceerr.PlistMalformed, "encode message", err)
	}
	buf := make([]byte, lengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(buf[:lengthPrefixSize], uint32(len(body)))
	copy(buf[lengthPrefixSize:], body)
	if _, err := w.Write(buf); err != nil {
		return ideviceerr.IoErr(err)
	}
	return nil
}

// ReadMessage reads one length-prefixed plist message from r and unmarshals
// it into v (which may be nil to discard the body while still consuming the
// frame). The body may be binary or XML; plist.Unmarshal detects the
// format itself.
func ReadMessage(ctx context.Context, r io.Reader, v interface{}) error {
	var lbuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lbuf[:]); err != nil {
		return ideviceerr.IoErr(err)
	}
	length := binary.BigEndian.Uint32(lbuf[:])
	if length > MaxMessageSize {
		return ideviceerr.New(ideviceerr.Protocol, "message exceeds maximum size")
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return ideviceerr.IoErr(err)
	}
	if v == nil {
		return nil
	}
	if _, err := plist.Unmarshal(body, v); err != nil {
		return ideviceerr.Wrap(ideviceerr.PlistMalformed, "decode message", err)
	}
	return nil
}

// Sniff reports whether body looks like a binary or XML plist, for callers
// that branch on format rather than just decoding.
func Sniff(body []byte) (binaryFormat bool, recognized bool) {
	if bytes.HasPrefix(body, binaryPlistMagic) {
		return true, true
	}
	if bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), xmlPlistPrefix) {
		return false, true
	}
	return false, false
}
