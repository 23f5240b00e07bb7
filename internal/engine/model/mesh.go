package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/gpu"
	"github.com/Faultbox/ga-engine/internal/engine/importer"
	"github.com/Faultbox/ga-engine/internal/engine/material"
)

// ErrMalformedMesh is wrapped by every mesh validation failure.
var ErrMalformedMesh = errors.New("malformed mesh")

// Buffer slots in Mesh.buffers.
const (
	bufPositions = iota
	bufIndices
	bufTexCoords
	bufNormals
	bufCount
)

// Mesh is one drawable sub-mesh with its GPU geometry.
//
// The CPU-side arrays are parallel: Positions, TexCoords and Normals all have one
// entry per vertex. Indices are 16-bit and every value is below len(Positions).
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Normals   []mgl32.Vec3
	Indices   []uint16

	indexCount int32
	vao        uint32
	buffers    []uint32
	material   *material.Lit
	device     gpu.Device
	released   bool
}

// NewMesh builds the geometry for src and uploads it to dev.
//
// The imported mesh is validated before anything is allocated; a malformed mesh
// returns an error wrapping ErrMalformedMesh. A graphics error after upload is a
// programming error and panics.
func NewMesh(dev gpu.Device, src *importer.Mesh, scene *importer.Scene) (*Mesh, error) {
	if err := validate(src, scene); err != nil {
		return nil, err
	}

	m := &Mesh{device: dev}

	m.vao = dev.GenVertexArray()
	dev.BindVertexArray(m.vao)
	m.buffers = dev.GenBuffers(bufCount)

	m.extract(src)

	mat := material.NewLit()
	if err := mat.Init(); err != nil {
		dev.BindVertexArray(0)
		m.Release()
		return nil, fmt.Errorf("mesh %q material: %w", src.Name, err)
	}
	d := scene.Materials[src.MaterialIndex].Diffuse
	mat.SetDiffuse(mgl32.Vec3{d[0], d[1], d[2]})
	m.material = mat

	m.upload()

	dev.BindVertexArray(0)

	if code := dev.Error(); code != gpu.NoError {
		panic(fmt.Sprintf("model: graphics error 0x%x building mesh %q", uint32(code), m.Name))
	}
	return m, nil
}

// validate checks the guarantees the importer's triangulation is supposed to give.
func validate(src *importer.Mesh, scene *importer.Scene) error {
	if len(src.Vertices) > math.MaxUint16+1 {
		return fmt.Errorf("%w: %q has %d vertices, 16-bit indices address at most %d",
			ErrMalformedMesh, src.Name, len(src.Vertices), math.MaxUint16+1)
	}
	for i, f := range src.Faces {
		if len(f.Indices) != 3 {
			return fmt.Errorf("%w: %q face %d has %d indices, want 3", ErrMalformedMesh, src.Name, i, len(f.Indices))
		}
		for _, idx := range f.Indices {
			if int(idx) >= len(src.Vertices) {
				return fmt.Errorf("%w: %q face %d index %d out of range [0,%d)",
					ErrMalformedMesh, src.Name, i, idx, len(src.Vertices))
			}
		}
	}
	if src.MaterialIndex < 0 || src.MaterialIndex >= len(scene.Materials) {
		return fmt.Errorf("%w: %q material index %d out of range [0,%d)",
			ErrMalformedMesh, src.Name, src.MaterialIndex, len(scene.Materials))
	}
	return nil
}

// extract copies vertex attributes into parallel arrays and flattens faces.
func (m *Mesh) extract(src *importer.Mesh) {
	m.Name = src.Name

	n := len(src.Vertices)
	m.Positions = append(make([]mgl32.Vec3, 0, n), src.Vertices...)

	m.TexCoords = make([]mgl32.Vec2, n)
	if src.HasTextureCoords(0) {
		copy(m.TexCoords, src.TexCoords[0])
	}

	// Missing normals are zero-filled so every attribute stream has n entries.
	m.Normals = make([]mgl32.Vec3, n)
	if src.HasNormals() {
		copy(m.Normals, src.Normals)
	}

	m.Indices = make([]uint16, 0, len(src.Faces)*3)
	for _, f := range src.Faces {
		for _, idx := range f.Indices {
			m.Indices = append(m.Indices, uint16(idx))
		}
	}
	m.indexCount = int32(len(m.Indices))
}

// upload fills the buffers and sets the attribute layout on the bound geometry object.
func (m *Mesh) upload() {
	dev := m.device

	dev.BufferData(gpu.ArrayBuffer, m.buffers[bufPositions], m.Positions, gpu.StaticDraw)
	dev.VertexAttribPointer(gpu.SlotPosition, 3)
	dev.EnableVertexAttribArray(gpu.SlotPosition)

	dev.BufferData(gpu.ElementArrayBuffer, m.buffers[bufIndices], m.Indices, gpu.StaticDraw)

	dev.BufferData(gpu.ArrayBuffer, m.buffers[bufTexCoords], m.TexCoords, gpu.StaticDraw)
	dev.VertexAttribPointer(gpu.SlotTexCoord, 2)
	dev.EnableVertexAttribArray(gpu.SlotTexCoord)

	dev.BufferData(gpu.ArrayBuffer, m.buffers[bufNormals], m.Normals, gpu.StaticDraw)
	dev.VertexAttribPointer(gpu.SlotNormal, 3)
	dev.EnableVertexAttribArray(gpu.SlotNormal)
}

// AssembleDrawCall fills the geometry part of dc. Name and Transform are left to
// the caller.
func (m *Mesh) AssembleDrawCall(dc *frame.DrawCall) {
	dc.VAO = m.vao
	dc.IndexCount = m.indexCount
	dc.Mode = gpu.Triangles
	dc.Material = m.material
}

// IndexCount returns the number of indices drawn.
func (m *Mesh) IndexCount() int32 { return m.indexCount }

// VAO returns the geometry object handle.
func (m *Mesh) VAO() uint32 { return m.vao }

// Buffers returns the position, index, texcoord and normal buffer handles.
func (m *Mesh) Buffers() []uint32 { return m.buffers }

// Material returns the mesh's material.
func (m *Mesh) Material() *material.Lit { return m.material }

// Release frees the GPU handles and the material. Subsequent calls do nothing.
func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true

	if len(m.buffers) > 0 {
		m.device.DeleteBuffers(m.buffers)
	}
	if m.vao != 0 {
		m.device.DeleteVertexArray(m.vao)
	}
	if m.material != nil {
		m.material.Release()
	}
}
