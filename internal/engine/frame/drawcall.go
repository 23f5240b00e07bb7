// Package frame holds the per-tick data shared between simulation and rendering.
package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/ga-engine/internal/engine/gpu"
	"github.com/Faultbox/ga-engine/internal/engine/material"
)

// DrawCall is one indexed draw of static geometry. Material is borrowed from the
// mesh that produced the call and must not be released by the consumer.
type DrawCall struct {
	Name       string
	VAO        uint32
	IndexCount int32
	Mode       gpu.DrawMode
	Material   material.Material
	Transform  mgl32.Mat4
}

// DrawList accumulates draw calls from concurrent producers.
// Producers only Append; the renderer drains it once per frame.
type DrawList struct {
	lock  SpinLock
	calls []DrawCall
}

// NewDrawList returns a list with room for capacity calls.
func NewDrawList(capacity int) *DrawList {
	return &DrawList{calls: make([]DrawCall, 0, capacity)}
}

// Append adds a draw call.
func (l *DrawList) Append(dc DrawCall) {
	l.lock.Lock()
	l.calls = append(l.calls, dc)
	l.lock.Unlock()
}

// Len returns the number of queued calls.
func (l *DrawList) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.calls)
}

// Snapshot returns a copy of the queued calls.
func (l *DrawList) Snapshot() []DrawCall {
	l.lock.Lock()
	defer l.lock.Unlock()
	out := make([]DrawCall, len(l.calls))
	copy(out, l.calls)
	return out
}

// Drain returns the queued calls and leaves the list empty. The returned slice is
// owned by the caller.
func (l *DrawList) Drain() []DrawCall {
	l.lock.Lock()
	defer l.lock.Unlock()
	out := l.calls
	l.calls = make([]DrawCall, 0, cap(out))
	return out
}

// Reset empties the list and keeps its storage.
func (l *DrawList) Reset() {
	l.lock.Lock()
	clear(l.calls)
	l.calls = l.calls[:0]
	l.lock.Unlock()
}
