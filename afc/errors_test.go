package afc

import (
	"testing"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError_UnrecognizedCodeDetailIsAFCCodeN(t *testing.T) {
	err := statusError(99)
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.Protocol, kind)
	assert.Equal(t, "Protocol(AFC code 99)", err.Error())
}

func TestStatusError_KnownCodeUsesItsName(t *testing.T) {
	err := statusError(uint64(statusObjectNotFound))
	assert.Equal(t, "Protocol(object not found)", err.Error())
}

func TestStatusError_MapsInvalidArgAndTimeoutKinds(t *testing.T) {
	kind, ok := ideviceerr.KindOf(statusError(uint64(statusInvalidArg)))
	require.True(t, ok)
	assert.Equal(t, ideviceerr.InvalidArg, kind)

	kind, ok = ideviceerr.KindOf(statusError(uint64(statusOperationTimeout)))
	require.True(t, ok)
	assert.Equal(t, ideviceerr.Timeout, kind)
}

func TestIsNotFound_MatchesObjectNotFoundStatus(t *testing.T) {
	assert.True(t, IsNotFound(statusError(uint64(statusObjectNotFound))))
	assert.False(t, IsNotFound(statusError(uint64(statusObjectExists))))
}
