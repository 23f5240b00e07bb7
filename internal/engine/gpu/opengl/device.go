// Package opengl implements gpu.Device on top of OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/ga-engine/internal/engine/gpu"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// Device issues gl calls. The zero value is usable once Init has succeeded.
type Device struct{}

var _ gpu.Device = Device{}

// Init loads the OpenGL function pointers.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return nil
}

func (Device) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (Device) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (Device) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (Device) GenBuffers(n int) []uint32 {
	ids := make([]uint32, n)
	if n > 0 {
		gl.GenBuffers(int32(n), &ids[0])
	}
	return ids
}

func (Device) DeleteBuffers(ids []uint32) {
	if len(ids) > 0 {
		gl.DeleteBuffers(int32(len(ids)), &ids[0])
	}
}

func (Device) BufferData(target gpu.BufferTarget, id uint32, data any, usage gpu.Usage) {
	glTarget := glBufferTarget(target)
	ptr, size := bytesOf(data)
	gl.BindBuffer(glTarget, id)
	gl.BufferData(glTarget, size, ptr, glUsage(usage))
}

func (Device) VertexAttribPointer(slot uint32, components int32) {
	gl.VertexAttribPointerWithOffset(slot, components, gl.FLOAT, false, 0, 0)
}

func (Device) EnableVertexAttribArray(slot uint32) {
	gl.EnableVertexAttribArray(slot)
}

func (Device) Error() gpu.ErrorCode {
	return gpu.ErrorCode(gl.GetError())
}

// DrawMode converts an engine topology into the gl enum.
func DrawMode(m gpu.DrawMode) uint32 {
	switch m {
	case gpu.Lines:
		return gl.LINES
	case gpu.Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func glBufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glUsage(u gpu.Usage) uint32 {
	if u == gpu.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

// bytesOf returns a pointer to the first element and the byte size of a slice.
func bytesOf(data any) (unsafe.Pointer, int) {
	switch d := data.(type) {
	case []mgl32.Vec3:
		if len(d) == 0 {
			return nil, 0
		}
		return unsafe.Pointer(&d[0]), len(d) * int(unsafe.Sizeof(d[0]))
	case []mgl32.Vec2:
		if len(d) == 0 {
			return nil, 0
		}
		return unsafe.Pointer(&d[0]), len(d) * int(unsafe.Sizeof(d[0]))
	case []uint16:
		if len(d) == 0 {
			return nil, 0
		}
		return unsafe.Pointer(&d[0]), len(d) * 2
	case []uint32:
		if len(d) == 0 {
			return nil, 0
		}
		return unsafe.Pointer(&d[0]), len(d) * 4
	case []float32:
		if len(d) == 0 {
			return nil, 0
		}
		return unsafe.Pointer(&d[0]), len(d) * 4
	default:
		panic(fmt.Sprintf("opengl: unsupported buffer data type %T", data))
	}
}
