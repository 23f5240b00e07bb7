// Package importer loads model assets into an in-memory scene tree.
//
// A Scene has a single root Node, a mesh table and a material table. Nodes refer
// to meshes by index into the table, so a mesh may be instanced by many nodes.
package importer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoScene is returned when a file parsed but holds nothing to walk.
var ErrNoScene = errors.New("importer: file contains no scene")

// Primitive is the topology of an imported mesh.
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
	PrimitivePoints
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveLineLoop
)

var primitiveNames = [...]string{
	PrimitiveTriangles:     "triangles",
	PrimitiveTriangleStrip: "tri-strip",
	PrimitiveTriangleFan:   "tri-fan",
	PrimitivePoints:        "points",
	PrimitiveLines:         "lines",
	PrimitiveLineStrip:     "line-strip",
	PrimitiveLineLoop:      "line-loop",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// IsPolygon reports whether the primitive covers an area.
func (p Primitive) IsPolygon() bool {
	return p <= PrimitiveTriangleFan
}

// Face is one polygon as a list of vertex indices.
type Face struct {
	Indices []uint32
}

// Scene is the result of an import.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
}

// Node is one entry of the scene hierarchy.
type Node struct {
	Name     string
	Meshes   []int // indices into Scene.Meshes
	Children []*Node
}

// Mesh holds per-vertex attribute streams and faces.
// All attribute slices, when present, have len(Vertices) entries.
type Mesh struct {
	Name          string
	Primitive     Primitive
	Vertices      []mgl32.Vec3
	Normals       []mgl32.Vec3
	Tangents      []mgl32.Vec3
	Bitangents    []mgl32.Vec3
	TexCoords     [][]mgl32.Vec2 // per channel
	Faces         []Face
	MaterialIndex int
}

// Material is the imported surface description.
type Material struct {
	Name    string
	Diffuse mgl32.Vec4
}

// DefaultMaterial is used when an asset defines none.
func DefaultMaterial() *Material {
	return &Material{Name: "default", Diffuse: mgl32.Vec4{1, 1, 1, 1}}
}

// HasNormals reports whether the mesh carries a normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// HasTextureCoords reports whether texture channel ch is populated.
func (m *Mesh) HasTextureCoords(ch int) bool {
	return ch >= 0 && ch < len(m.TexCoords) && len(m.TexCoords[ch]) == len(m.Vertices) && len(m.Vertices) > 0
}

// HasTangents reports whether tangent space was generated.
func (m *Mesh) HasTangents() bool {
	return len(m.Tangents) > 0 && len(m.Tangents) == len(m.Vertices)
}

// IndexCount returns the number of face indices.
func (m *Mesh) IndexCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f.Indices)
	}
	return n
}

// Walk visits every node depth-first, parent before children.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// CountMeshReferences returns the number of mesh references summed over all nodes.
func (s *Scene) CountMeshReferences() int {
	total := 0
	s.Root.Walk(func(n *Node) { total += len(n.Meshes) })
	return total
}

// CountNodes returns the number of nodes in the hierarchy.
func (s *Scene) CountNodes() int {
	total := 0
	s.Root.Walk(func(*Node) { total++ })
	return total
}
