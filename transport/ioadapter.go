package transport

import "context"

// AsReader adapts a Stream's context-taking ReadExact into a plain
// io.Reader bound to ctx, for framing codecs (plistwire, and anything
// else built on encoding/io-shaped APIs) that want ordinary io.Reader/
// io.Writer rather than threading a context through every call.
func AsReader(ctx context.Context, s Stream) interface{ Read([]byte) (int, error) } {
	return reader{s, ctx}
}

// AsWriter is AsReader's write-side counterpart.
func AsWriter(ctx context.Context, s Stream) interface{ Write([]byte) (int, error) } {
	return writer{s, ctx}
}

type reader struct {
	s   Stream
	ctx context.Context
}

func (r reader) Read(p []byte) (int, error) {
	b, err := r.s.ReadExact(r.ctx, len(p))
	if err != nil {
		return 0, err
	}
	copy(p, b)
	return len(b), nil
}

type writer struct {
	s   Stream
	ctx context.Context
}

func (w writer) Write(p []byte) (int, error) {
	if err := w.s.Write(w.ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
