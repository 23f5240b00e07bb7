package importer

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// triangulate rewrites strip, fan and polygon faces as triangle lists.
func triangulate(m *Mesh) {
	if !m.Primitive.IsPolygon() {
		return
	}

	faces := make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		idx := f.Indices
		switch {
		case m.Primitive == PrimitiveTriangleStrip:
			for i := 0; i+2 < len(idx); i++ {
				a, b, c := idx[i], idx[i+1], idx[i+2]
				if a == b || b == c || a == c {
					continue
				}
				// Every other strip triangle is wound the other way.
				if i%2 == 1 {
					a, b = b, a
				}
				faces = append(faces, Face{Indices: []uint32{a, b, c}})
			}
		case len(idx) > 3:
			// Fans and convex polygons.
			for i := 1; i+1 < len(idx); i++ {
				faces = append(faces, Face{Indices: []uint32{idx[0], idx[i], idx[i+1]}})
			}
		default:
			faces = append(faces, f)
		}
	}
	m.Faces = faces
	m.Primitive = PrimitiveTriangles
}

// removeNonPolygonMeshes drops point and line meshes and the node references to them.
func removeNonPolygonMeshes(scene *Scene) {
	remap := make([]int, len(scene.Meshes))
	kept := scene.Meshes[:0]
	for i, m := range scene.Meshes {
		if m.Primitive.IsPolygon() {
			remap[i] = len(kept)
			kept = append(kept, m)
		} else {
			remap[i] = -1
		}
	}
	for i := len(kept); i < len(scene.Meshes); i++ {
		scene.Meshes[i] = nil
	}
	scene.Meshes = kept

	scene.Root.Walk(func(n *Node) {
		refs := n.Meshes[:0]
		for _, idx := range n.Meshes {
			if idx >= 0 && idx < len(remap) && remap[idx] >= 0 {
				refs = append(refs, remap[idx])
			}
		}
		n.Meshes = refs
	})
}

// joinIdenticalVertices merges vertices with identical attribute bits and
// rewrites faces to the surviving indices.
func joinIdenticalVertices(m *Mesh) {
	n := len(m.Vertices)
	if n == 0 {
		return
	}

	seen := make(map[string]uint32, n)
	remap := make([]uint32, n)
	var order []int
	key := make([]byte, 0, 64)

	for i := 0; i < n; i++ {
		key = key[:0]
		key = appendVec3(key, m.Vertices[i])
		if m.HasNormals() {
			key = appendVec3(key, m.Normals[i])
		}
		for ch := range m.TexCoords {
			if m.HasTextureCoords(ch) {
				uv := m.TexCoords[ch][i]
				key = binary.LittleEndian.AppendUint32(key, math.Float32bits(uv[0]))
				key = binary.LittleEndian.AppendUint32(key, math.Float32bits(uv[1]))
			}
		}
		if idx, ok := seen[string(key)]; ok {
			remap[i] = idx
			continue
		}
		idx := uint32(len(order))
		seen[string(key)] = idx
		remap[i] = idx
		order = append(order, i)
	}

	if len(order) == n {
		return
	}

	m.Vertices = gather(m.Vertices, order)
	if len(m.Normals) == n {
		m.Normals = gather(m.Normals, order)
	}
	if len(m.Tangents) == n {
		m.Tangents = gather(m.Tangents, order)
	}
	if len(m.Bitangents) == n {
		m.Bitangents = gather(m.Bitangents, order)
	}
	for ch := range m.TexCoords {
		if len(m.TexCoords[ch]) == n {
			m.TexCoords[ch] = gather(m.TexCoords[ch], order)
		}
	}
	for fi := range m.Faces {
		for j, idx := range m.Faces[fi].Indices {
			if int(idx) < n {
				m.Faces[fi].Indices[j] = remap[idx]
			}
		}
	}
}

// calcTangentSpace derives per-vertex tangents and bitangents from positions,
// normals and UV channel 0. Meshes lacking either input are left unchanged.
func calcTangentSpace(m *Mesh) {
	if m.Primitive != PrimitiveTriangles || !m.HasNormals() || !m.HasTextureCoords(0) {
		return
	}

	n := len(m.Vertices)
	uv := m.TexCoords[0]
	tan := make([]mgl32.Vec3, n)
	bit := make([]mgl32.Vec3, n)

	for _, f := range m.Faces {
		if len(f.Indices) != 3 {
			continue
		}
		i0, i1, i2 := f.Indices[0], f.Indices[1], f.Indices[2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		e1 := m.Vertices[i1].Sub(m.Vertices[i0])
		e2 := m.Vertices[i2].Sub(m.Vertices[i0])
		du1, dv1 := uv[i1][0]-uv[i0][0], uv[i1][1]-uv[i0][1]
		du2, dv2 := uv[i2][0]-uv[i0][0], uv[i2][1]-uv[i0][1]

		det := du1*dv2 - du2*dv1
		if mgl32.Abs(det) < 1e-12 {
			continue
		}
		r := 1 / det
		t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		b := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)

		for _, i := range f.Indices {
			tan[i] = tan[i].Add(t)
			bit[i] = bit[i].Add(b)
		}
	}

	for i := 0; i < n; i++ {
		nrm := m.Normals[i]
		// Gram-Schmidt against the normal.
		t := tan[i].Sub(nrm.Mul(nrm.Dot(tan[i])))
		if t.Len() < 1e-8 {
			t = anyPerpendicular(nrm)
		}
		if t.Len() < 1e-8 {
			tan[i], bit[i] = mgl32.Vec3{}, mgl32.Vec3{}
			continue
		}
		t = t.Normalize()
		b := nrm.Cross(t)
		if b.Dot(bit[i]) < 0 {
			b = b.Mul(-1)
		}
		tan[i] = t
		bit[i] = b
	}

	m.Tangents = tan
	m.Bitangents = bit
}

func anyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if mgl32.Abs(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return n.Cross(axis)
}

func appendVec3(b []byte, v mgl32.Vec3) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v[0]))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v[1]))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v[2]))
}

func gather[T any](src []T, order []int) []T {
	out := make([]T, len(order))
	for i, j := range order {
		out[i] = src[j]
	}
	return out
}
