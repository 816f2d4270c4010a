package amfi

import (
	"context"
	"testing"
	"time"

	"github.com/go-idevice/idevice/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDeveloperModeStatus_True(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		cmd := make([]byte, 1)
		n, err := server.Read(cmd)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, byte('Q'), cmd[0])

		_, err = server.Write([]byte{1, 0, 0, 0})
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	on, err := c.QueryDeveloperModeStatus(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestQueryDeveloperModeStatus_False(t *testing.T) {
	stream, server := transport.Pipe()
	defer server.Close()
	c := New(stream)

	go func() {
		cmd := make([]byte, 1)
		_, err := server.Read(cmd)
		require.NoError(t, err)
		_, err = server.Write([]byte{0, 0, 0, 0})
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	on, err := c.QueryDeveloperModeStatus(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}
