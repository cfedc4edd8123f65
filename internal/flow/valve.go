package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrValveFinalized is returned by Wait once the valve has been finalized.
var ErrValveFinalized = errors.New("valve finalized")

// Valve is an open/closed gate. It starts open.
type Valve struct {
	mu        sync.Mutex
	open      bool
	finalized bool
	// changed is closed and replaced on every state change
	changed chan struct{}
}

// NewValve creates an open valve.
func NewValve() *Valve {
	return &Valve{
		open:    true,
		changed: make(chan struct{}),
	}
}

// Set opens or closes the valve. Setting the current state again is a no-op.
// It reports whether the state changed.
func (v *Valve) Set(open bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.finalized || v.open == open {
		return false
	}
	v.open = open
	close(v.changed)
	v.changed = make(chan struct{})
	return true
}

// IsOpen reports the current state.
func (v *Valve) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// Wait blocks until the valve is open, the valve is finalized or ctx ends.
func (v *Valve) Wait(ctx context.Context) error {
	for {
		v.mu.Lock()
		if v.finalized {
			v.mu.Unlock()
			return ErrValveFinalized
		}
		if v.open {
			v.mu.Unlock()
			return nil
		}
		changed := v.changed
		v.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Finalize ends the valve's signaling and releases every pending Wait.
// Finalize is idempotent.
func (v *Valve) Finalize() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.finalized {
		return
	}
	v.finalized = true
	close(v.changed)
}

// Finalized reports whether Finalize has been called.
func (v *Valve) Finalized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.finalized
}
