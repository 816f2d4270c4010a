package afc

import (
	"sync"

	"github.com/go-idevice/idevice/ideviceerr"
)

// handleState is Closed, Opened, or (after a FileRefClose round-trip)
// Closed again — the per-handle state machine this package enforces
// locally so that a caller's bug (double close, read after close) fails
// fast with a clear error rather than confusing the device. A handle with
// no entry in the tracker is Closed.
type handleState int

const (
	handleOpened handleState = iota
	handleClosed
)

// handleTracker records which handles this client believes are live, so
// Close/Read/Write on a handle the caller already closed (or never
// opened) is rejected locally instead of round-tripping to the device.
type handleTracker struct {
	mu     sync.Mutex
	states map[uint64]handleState
}

func newHandleTracker() *handleTracker {
	return &handleTracker{states: make(map[uint64]handleState)}
}

func (t *handleTracker) open(handle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[handle] = handleOpened
}

func (t *handleTracker) checkOpen(handle uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.states[handle]; !ok || state != handleOpened {
		return ideviceerr.New(ideviceerr.InvalidArg, "afc: handle not open")
	}
	return nil
}

func (t *handleTracker) close(handle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, handle)
}
