package afc

import (
	"errors"
	"fmt"

	"github.com/go-idevice/idevice/ideviceerr"
)

// statusCode is the AFC protocol's own numeric error space, carried in a
// STATUS packet. It is distinct from ideviceerr.Kind: a non-zero code maps
// to ideviceerr.InvalidArg (invalid argument, operation header invalid),
// ideviceerr.Timeout (operation timeout) or otherwise ideviceerr.Protocol,
// carrying the code's name as detail and wrapping a *StatusError so callers
// that care can still branch on the raw code via errors.As.
type statusCode uint64

const (
	statusSuccess             statusCode = 0
	statusUnknownError        statusCode = 1
	statusOperationHeaderInvalid statusCode = 2
	statusNoResources         statusCode = 3
	statusReadError           statusCode = 4
	statusWriteError          statusCode = 5
	statusUnknownPacketType   statusCode = 6
	statusInvalidArg          statusCode = 7
	statusObjectNotFound      statusCode = 8
	statusObjectIsDir         statusCode = 9
	statusPermDenied          statusCode = 10
	statusServiceNotConnected statusCode = 11
	statusOperationTimeout    statusCode = 12
	statusTooMuchData         statusCode = 13
	statusEndOfData           statusCode = 14
	statusOperationNotSupported statusCode = 15
	statusObjectExists        statusCode = 16
	statusObjectBusy          statusCode = 17
	statusNoSpaceLeft         statusCode = 18
	statusOperationWouldBlock statusCode = 19
	statusIOError             statusCode = 20
	statusOperationInterrupted statusCode = 21
	statusOperationInProgress statusCode = 22
	statusInternalError       statusCode = 23
	statusMuxError            statusCode = 30
	statusNoMemory            statusCode = 31
	statusNotEnoughData       statusCode = 32
	statusDirNotEmpty         statusCode = 33
	statusForceSignedType     statusCode = 34
)

var statusNames = map[statusCode]string{
	statusUnknownError:           "unknown error",
	statusOperationHeaderInvalid: "operation header invalid",
	statusNoResources:            "no resources",
	statusReadError:              "read error",
	statusWriteError:             "write error",
	statusUnknownPacketType:      "unknown packet type",
	statusInvalidArg:             "invalid argument",
	statusObjectNotFound:         "object not found",
	statusObjectIsDir:            "object is a directory",
	statusPermDenied:             "permission denied",
	statusServiceNotConnected:    "service not connected",
	statusOperationTimeout:       "operation timeout",
	statusTooMuchData:            "too much data",
	statusEndOfData:              "end of data",
	statusOperationNotSupported:  "operation not supported",
	statusObjectExists:           "object exists",
	statusObjectBusy:             "object busy",
	statusNoSpaceLeft:            "no space left",
	statusOperationWouldBlock:    "operation would block",
	statusIOError:                "io error",
	statusOperationInterrupted:   "operation interrupted",
	statusOperationInProgress:    "operation in progress",
	statusInternalError:          "internal error",
	statusMuxError:               "mux error",
	statusNoMemory:               "no memory",
	statusNotEnoughData:          "not enough data",
	statusDirNotEmpty:            "directory not empty",
	statusForceSignedType:        "force signed type required",
}

// StatusError carries the raw AFC status code alongside the generic error
// wrapper, so callers doing protocol-aware handling (IsNotFound, retry on
// ObjectBusy) can recover it with errors.As.
type StatusError struct {
	code statusCode
}

func (e *StatusError) Error() string {
	if name, ok := statusNames[e.code]; ok {
		return fmt.Sprintf("afc: %s (%d)", name, e.code)
	}
	return fmt.Sprintf("afc: unrecognized status %d", e.code)
}

func statusError(code uint64) error {
	sc := statusCode(code)
	kind := ideviceerr.Protocol
	switch sc {
	case statusInvalidArg, statusOperationHeaderInvalid:
		kind = ideviceerr.InvalidArg
	case statusOperationTimeout:
		kind = ideviceerr.Timeout
	}
	detail, ok := statusNames[sc]
	if !ok {
		detail = fmt.Sprintf("AFC code %d", sc)
	}
	return ideviceerr.Wrap(kind, detail, &StatusError{code: sc})
}

// IsNotFound reports whether err is an AFC status error for a missing path.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.code == statusObjectNotFound
}

// IsObjectExists reports whether err is an AFC status error for a path that
// already exists.
func IsObjectExists(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.code == statusObjectExists
}
