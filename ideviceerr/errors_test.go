package ideviceerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_FormatsWithoutService(t *testing.T) {
	err := New(Timeout, "waiting for response")
	assert.Equal(t, "Timeout(waiting for response)", err.Error())
}

func TestError_FormatsWithService(t *testing.T) {
	err := Protocolf("afc", "unexpected opcode %d", 7)
	assert.Equal(t, "Protocol{service:afc, detail:unexpected opcode 7}", err.Error())
}

func TestError_FormatsBareKind(t *testing.T) {
	err := New(Cancelled, "")
	assert.Equal(t, "Cancelled", err.Error())
}

func TestKindOf_IgnoresKindOnlyPresentInMessageText(t *testing.T) {
	inner := New(DeviceNotFound, "no such UDID")
	wrapped := errors.New("resolve device: " + inner.Error())
	_, ok := KindOf(wrapped)
	assert.False(t, ok)

	kind, ok := KindOf(inner)
	assert.True(t, ok)
	assert.Equal(t, DeviceNotFound, kind)
}

func TestIs_MatchesOnKindOnly(t *testing.T) {
	a := New(Timeout, "read timed out")
	b := New(Timeout, "write timed out")
	c := New(Io, "write timed out")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestIoErr_CarriesCauseAndDetail(t *testing.T) {
	cause := errors.New("broken pipe")
	err := IoErr(cause)
	assert.Equal(t, Io, err.Kind)
	assert.Equal(t, "broken pipe", err.Detail)
	assert.Same(t, cause, errors.Unwrap(err))
}
