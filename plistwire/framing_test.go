package plistwire

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	type payload struct {
		Request string `plist:"Request"`
		Value   int    `plist:"Value"`
	}
	in := payload{Request: "Ping", Value: 42}
	require.NoError(t, WriteMessage(ctx, &buf, in))

	var out payload
	require.NoError(t, ReadMessage(ctx, &buf, &out))
	assert.Equal(t, in, out)
}

func TestReadMessage_OversizedRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	err := ReadMessage(context.Background(), &buf, &struct{}{})
	require.Error(t, err)
	kind, ok := ideviceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ideviceerr.Protocol, kind)
}

func TestSniff(t *testing.T) {
	binFormat, ok := Sniff([]byte("bplist00\x00\x00"))
	assert.True(t, ok)
	assert.True(t, binFormat)

	binFormat, ok = Sniff([]byte("<?xml version=\"1.0\"?>"))
	assert.True(t, ok)
	assert.False(t, binFormat)

	_, ok = Sniff([]byte("garbage"))
	assert.False(t, ok)
}
