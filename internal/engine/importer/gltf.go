package importer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// maxTexCoordChannels bounds how many TEXCOORD_n attributes are read.
const maxTexCoordChannels = 4

// GLTF imports .gltf and .glb files.
//
// Each glTF primitive becomes one scene mesh, and a node that instances a glTF mesh
// references all of its primitives. The roots of the default glTF scene hang off a
// synthetic root node named after the file.
type GLTF struct{}

var _ Importer = GLTF{}

// Import parses path and applies flags.
func (GLTF) Import(path string, flags Flags) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	scene, err := FromDocument(doc, path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	PostProcess(scene, flags)
	return scene, nil
}

// FromDocument converts an already decoded glTF document.
func FromDocument(doc *gltf.Document, name string) (*Scene, error) {
	if len(doc.Meshes) == 0 && len(doc.Nodes) == 0 {
		return nil, ErrNoScene
	}

	scene := &Scene{Root: &Node{Name: name}}

	for _, m := range doc.Materials {
		scene.Materials = append(scene.Materials, convertMaterial(m))
	}
	defaultMat := -1
	materialIndex := func(p *gltf.Primitive) int {
		if p.Material != nil && *p.Material < len(scene.Materials) {
			return *p.Material
		}
		if defaultMat < 0 {
			defaultMat = len(scene.Materials)
			scene.Materials = append(scene.Materials, DefaultMaterial())
		}
		return defaultMat
	}

	// glTF mesh index -> scene mesh indices, one per primitive.
	primitives := make([][]int, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			mesh, err := convertPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			mesh.Name = gm.Name
			if len(gm.Primitives) > 1 {
				mesh.Name = fmt.Sprintf("%s_%d", gm.Name, pi)
			}
			mesh.MaterialIndex = materialIndex(prim)
			primitives[mi] = append(primitives[mi], len(scene.Meshes))
			scene.Meshes = append(scene.Meshes, mesh)
		}
	}

	if len(doc.Nodes) == 0 {
		for _, refs := range primitives {
			scene.Root.Meshes = append(scene.Root.Meshes, refs...)
		}
		return scene, nil
	}

	claimed := make([]bool, len(doc.Nodes))
	var build func(i int) *Node
	build = func(i int) *Node {
		claimed[i] = true
		gn := doc.Nodes[i]
		n := &Node{Name: gn.Name}
		if gn.Mesh != nil && *gn.Mesh < len(primitives) {
			n.Meshes = append(n.Meshes, primitives[*gn.Mesh]...)
		}
		for _, c := range gn.Children {
			// A node has at most one parent; a repeat would be a cycle or a DAG.
			if c < 0 || c >= len(doc.Nodes) || claimed[c] {
				continue
			}
			n.Children = append(n.Children, build(c))
		}
		return n
	}

	for _, r := range sceneRoots(doc) {
		if r >= 0 && r < len(doc.Nodes) && !claimed[r] {
			scene.Root.Children = append(scene.Root.Children, build(r))
		}
	}
	return scene, nil
}

// sceneRoots returns the root nodes of the default scene, or every node that is
// nobody's child when the document declares no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

func convertMaterial(m *gltf.Material) *Material {
	out := &Material{Name: m.Name, Diffuse: mgl32.Vec4{1, 1, 1, 1}}
	if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		c := *pbr.BaseColorFactor
		out.Diffuse = mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
	}
	return out
}

func convertPrimitive(doc *gltf.Document, p *gltf.Primitive) (*Mesh, error) {
	mesh := &Mesh{Primitive: convertMode(p.Mode)}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no %s attribute", gltf.POSITION)
	}
	acc, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	mesh.Vertices = make([]mgl32.Vec3, len(positions))
	for i, v := range positions {
		mesh.Vertices[i] = v
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		mesh.Normals = make([]mgl32.Vec3, len(normals))
		for i, v := range normals {
			mesh.Normals[i] = v
		}
	}

	for ch := 0; ch < maxTexCoordChannels; ch++ {
		idx, ok := p.Attributes[fmt.Sprintf("TEXCOORD_%d", ch)]
		if !ok {
			break
		}
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read texcoord %d: %w", ch, err)
		}
		channel := make([]mgl32.Vec2, len(uvs))
		for i, v := range uvs {
			channel[i] = v
		}
		mesh.TexCoords = append(mesh.TexCoords, channel)
	}

	var indices []uint32
	if p.Indices != nil {
		acc, err := accessor(doc, *p.Indices)
		if err != nil {
			return nil, err
		}
		indices, err = modeler.ReadIndices(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(mesh.Vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	mesh.Faces = buildFaces(mesh.Primitive, indices)

	return mesh, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func convertMode(mode gltf.PrimitiveMode) Primitive {
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		return PrimitiveTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return PrimitiveTriangleFan
	case gltf.PrimitivePoints:
		return PrimitivePoints
	case gltf.PrimitiveLines:
		return PrimitiveLines
	case gltf.PrimitiveLineStrip:
		return PrimitiveLineStrip
	case gltf.PrimitiveLineLoop:
		return PrimitiveLineLoop
	default:
		return PrimitiveTriangles
	}
}

// buildFaces groups a flat index list by topology. Strips, fans and line strips
// stay as one face each until a post-process step splits them.
func buildFaces(prim Primitive, indices []uint32) []Face {
	var per int
	switch prim {
	case PrimitiveTriangles:
		per = 3
	case PrimitiveLines:
		per = 2
	case PrimitivePoints:
		per = 1
	default:
		if len(indices) == 0 {
			return nil
		}
		return []Face{{Indices: append([]uint32(nil), indices...)}}
	}

	faces := make([]Face, 0, (len(indices)+per-1)/per)
	for i := 0; i < len(indices); i += per {
		end := min(i+per, len(indices))
		faces = append(faces, Face{Indices: append([]uint32(nil), indices[i:end]...)})
	}
	return faces
}
