package importer

import (
	"strings"
)

// Flags selects post-processing steps applied after a file is parsed.
type Flags uint32

const (
	// CalcTangentSpace generates per-vertex tangents and bitangents from UV channel 0.
	CalcTangentSpace Flags = 1 << iota
	// Triangulate splits strips, fans and polygons into independent triangles.
	Triangulate
	// JoinIdenticalVertices merges vertices whose attributes are bit-identical.
	JoinIdenticalVertices
	// SortByPType removes point and line meshes so every remaining mesh is triangles.
	SortByPType
)

// DefaultFlags is the set used for static models.
const DefaultFlags = CalcTangentSpace | Triangulate | JoinIdenticalVertices | SortByPType

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, step := range []struct {
		flag Flags
		name string
	}{
		{CalcTangentSpace, "tangents"},
		{Triangulate, "triangulate"},
		{JoinIdenticalVertices, "join"},
		{SortByPType, "sort-ptype"},
	} {
		if f.Has(step.flag) {
			parts = append(parts, step.name)
		}
	}
	return strings.Join(parts, "|")
}

// Importer turns an asset file into a Scene.
type Importer interface {
	Import(path string, flags Flags) (*Scene, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(path string, flags Flags) (*Scene, error)

// Import calls f.
func (f ImporterFunc) Import(path string, flags Flags) (*Scene, error) {
	return f(path, flags)
}

// PostProcess applies the steps selected by flags to scene in place.
// Steps run in a fixed order: triangulate, sort by primitive type, join identical
// vertices, tangent space.
func PostProcess(scene *Scene, flags Flags) {
	if flags.Has(Triangulate) {
		for _, m := range scene.Meshes {
			triangulate(m)
		}
	}
	if flags.Has(SortByPType) {
		removeNonPolygonMeshes(scene)
	}
	if flags.Has(JoinIdenticalVertices) {
		for _, m := range scene.Meshes {
			joinIdenticalVertices(m)
		}
	}
	if flags.Has(CalcTangentSpace) {
		for _, m := range scene.Meshes {
			calcTangentSpace(m)
		}
	}
}
