package usbmux

import (
	"errors"

	"github.com/go-idevice/idevice/ideviceerr"
)

// errShortAddress is wrapped into UnexpectedResponse at the call site; it
// never escapes this package on its own.
var errShortAddress = errors.New("usbmux: truncated network address")

// connectResult codes returned in a Connect response's "Number" field.
const (
	connectOK         = 0
	connectBadCommand = 1
	connectBadDevice  = 2
	connectRefused    = 3
	connectBadVersion = 6
)

func connectError(code int64) error {
	switch code {
	case connectOK:
		return nil
	case connectBadCommand:
		return ideviceerr.Protocolf("usbmux", "bad command")
	case connectBadDevice:
		return ideviceerr.New(ideviceerr.DeviceNotFound, "usbmux reported bad device")
	case connectRefused:
		return ideviceerr.New(ideviceerr.ServiceNotAvailable, "usbmux connection refused")
	case connectBadVersion:
		return ideviceerr.Protocolf("usbmux", "bad protocol version")
	default:
		return ideviceerr.New(ideviceerr.UnexpectedResponse, "unrecognized usbmux Connect result")
	}
}
