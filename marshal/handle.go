// Package marshal wraps native values in reference-counted handles that can
// live in a scene node's metadata slot while the ECS world holds them too.
package marshal

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrReleased     = errors.New("marshal: handle released")
	ErrTypeMismatch = errors.New("marshal: handle type mismatch")
	ErrNilHandle    = errors.New("marshal: nil handle")
)

// Handle shares one value between several holders. The value is cleared, and
// the release callback runs, when the last holder calls Release.
type Handle[T any] struct {
	value     T
	refs      atomic.Int32
	onRelease func(T)
}

// Wrap returns a handle holding v with one reference owned by the caller.
func Wrap[T any](v T) *Handle[T] {
	return WrapWithRelease(v, nil)
}

// WrapWithRelease is Wrap with a callback invoked once the last reference is
// dropped.
func WrapWithRelease[T any](v T, onRelease func(T)) *Handle[T] {
	h := &Handle[T]{value: v, onRelease: onRelease}
	h.refs.Store(1)
	return h
}

// Retain adds a holder. Retaining a released handle has no effect.
func (h *Handle[T]) Retain() {
	if h == nil {
		return
	}
	for {
		n := h.refs.Load()
		if n <= 0 {
			return
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// Release drops a holder. Extra releases after the last one are ignored.
func (h *Handle[T]) Release() {
	if h == nil {
		return
	}
	for {
		n := h.refs.Load()
		if n <= 0 {
			return
		}
		if !h.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n == 1 {
			v := h.value
			var zero T
			h.value = zero
			if h.onRelease != nil {
				h.onRelease(v)
			}
		}
		return
	}
}

// Refs returns the current number of holders.
func (h *Handle[T]) Refs() int {
	if h == nil {
		return 0
	}
	return int(h.refs.Load())
}

func (h *Handle[T]) Released() bool {
	return h.Refs() == 0
}

// Value returns the wrapped value while at least one holder remains.
func (h *Handle[T]) Value() (T, error) {
	var zero T
	if h == nil {
		return zero, ErrNilHandle
	}
	if h.Released() {
		return zero, ErrReleased
	}
	return h.value, nil
}

// Unwrap extracts a T from a value read back out of a metadata slot.
func Unwrap[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, ErrNilHandle
	}
	h, ok := v.(*Handle[T])
	if !ok {
		return zero, fmt.Errorf("%w: want *marshal.Handle[%T], got %T", ErrTypeMismatch, zero, v)
	}
	return h.Value()
}
