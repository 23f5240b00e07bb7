// Package gpu defines the subset of the graphics API the engine's geometry code uses.
//
// The OpenGL implementation lives in gpu/opengl; gpu/gputest provides a recording
// device for tests that run without a GL context.
package gpu

import "fmt"

// BufferTarget selects the binding point a buffer is uploaded to.
type BufferTarget uint32

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "ARRAY_BUFFER"
	case ElementArrayBuffer:
		return "ELEMENT_ARRAY_BUFFER"
	default:
		return fmt.Sprintf("BufferTarget(%d)", uint32(t))
	}
}

// Usage is the expected update frequency of a buffer's contents.
type Usage uint32

const (
	// StaticDraw contents are uploaded once and drawn many times.
	StaticDraw Usage = iota
	DynamicDraw
)

// DrawMode is the primitive topology of a draw call.
type DrawMode uint32

const (
	Triangles DrawMode = iota
	Lines
	Points
)

func (m DrawMode) String() string {
	switch m {
	case Triangles:
		return "TRIANGLES"
	case Lines:
		return "LINES"
	case Points:
		return "POINTS"
	default:
		return fmt.Sprintf("DrawMode(%d)", uint32(m))
	}
}

// ErrorCode mirrors the graphics API error flag.
type ErrorCode uint32

// NoError means no error has been recorded since the last query.
const NoError ErrorCode = 0

// Vertex attribute slots used by mesh geometry. Slot 1 is reserved for the index
// buffer binding and carries no attribute.
const (
	SlotPosition uint32 = 0
	SlotTexCoord uint32 = 2
	SlotNormal   uint32 = 3
)

// Device is the graphics API surface used to build and release mesh geometry.
// Implementations are not safe for concurrent use; they must be driven from the
// thread that owns the graphics context.
type Device interface {
	// GenVertexArray allocates a geometry object.
	GenVertexArray() uint32
	// BindVertexArray binds a geometry object; 0 unbinds.
	BindVertexArray(vao uint32)
	// DeleteVertexArray releases a geometry object.
	DeleteVertexArray(vao uint32)

	// GenBuffers allocates n buffer objects.
	GenBuffers(n int) []uint32
	// DeleteBuffers releases buffer objects.
	DeleteBuffers(ids []uint32)
	// BufferData binds id to target and uploads data. data is a slice of a
	// fixed-size element type ([3]float32, [2]float32, uint16, ...).
	BufferData(target BufferTarget, id uint32, data any, usage Usage)

	// VertexAttribPointer describes a tightly packed float attribute of the given
	// component count, sourced from the currently bound array buffer.
	VertexAttribPointer(slot uint32, components int32)
	// EnableVertexAttribArray enables an attribute slot on the bound geometry object.
	EnableVertexAttribArray(slot uint32)

	// Error returns and clears the pending error flag.
	Error() ErrorCode
}
