package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_WriteThenReadExact(t *testing.T) {
	s, raw := Pipe()
	defer s.Close()
	defer raw.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 5)
		_, err := io.ReadFull(raw, buf)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(buf))
	}()

	require.NoError(t, s.Write(context.Background(), []byte("hello")))
	<-done
}

func TestReadExact_ReturnsExactlyRequestedBytes(t *testing.T) {
	s, raw := Pipe()
	defer s.Close()
	defer raw.Close()

	go func() {
		_, _ = raw.Write([]byte("0123456789"))
	}()

	got, err := s.ReadExact(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), got)
}

func TestReadExact_DeadlineExceededReturnsError(t *testing.T) {
	s, raw := Pipe()
	defer s.Close()
	defer raw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.ReadExact(ctx, 4)
	assert.Error(t, err)
}

func TestAsReaderAsWriter_RoundTripThroughIOInterfaces(t *testing.T) {
	s, raw := Pipe()
	defer s.Close()
	defer raw.Close()

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 3)
		_, err := io.ReadFull(raw, buf)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(buf))
	}()

	w := AsWriter(ctx, s)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	<-done
}

func TestAsReader_FillsProvidedBuffer(t *testing.T) {
	s, raw := Pipe()
	defer s.Close()
	defer raw.Close()

	go func() {
		_, _ = raw.Write([]byte("xyz"))
	}()

	r := AsReader(context.Background(), s)
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "xyz", string(buf))
}
