package model

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/ga-engine/internal/engine/entity"
	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/gpu"
	"github.com/Faultbox/ga-engine/internal/engine/gpu/gputest"
	"github.com/Faultbox/ga-engine/internal/engine/importer"
)

func triangle(name string, material int) *importer.Mesh {
	return &importer.Mesh{
		Name:          name,
		Vertices:      []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:       []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords:     [][]mgl32.Vec2{{{0, 0}, {1, 0}, {0, 1}}},
		Faces:         []importer.Face{{Indices: []uint32{0, 1, 2}}},
		MaterialIndex: material,
	}
}

func quad(name string) *importer.Mesh {
	return &importer.Mesh{
		Name:     name,
		Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Faces: []importer.Face{
			{Indices: []uint32{0, 1, 2}},
			{Indices: []uint32{0, 2, 3}},
		},
	}
}

// testScene: root(tri) -> [a(quad, tri) -> [c(quad)], b(tri)]
func testScene() *importer.Scene {
	return &importer.Scene{
		Root: &importer.Node{
			Name:   "root",
			Meshes: []int{0},
			Children: []*importer.Node{
				{
					Name:     "a",
					Meshes:   []int{1, 0},
					Children: []*importer.Node{{Name: "c", Meshes: []int{2}}},
				},
				{Name: "b", Meshes: []int{3}},
			},
		},
		Meshes: []*importer.Mesh{
			triangle("tri", 1),
			quad("quad-a"),
			quad("quad-c"),
			triangle("tri-b", 0),
		},
		Materials: []*importer.Material{
			{Name: "white", Diffuse: mgl32.Vec4{1, 1, 1, 1}},
			{Name: "green", Diffuse: mgl32.Vec4{0, 0.5, 0, 1}},
		},
	}
}

func sceneImporter(scene *importer.Scene) importer.Importer {
	return importer.ImporterFunc(func(string, importer.Flags) (*importer.Scene, error) {
		return scene, nil
	})
}

func newTestComponent(t *testing.T, scene *importer.Scene) (*Component, *gputest.Recorder) {
	t.Helper()
	dev := gputest.NewRecorder()
	ent := entity.New("test")
	c := NewComponent(ent, Options{Device: dev, Importer: sceneImporter(scene)}, "test.glb")
	return c, dev
}

func TestComponentPaths(t *testing.T) {
	var gotPath string
	var gotFlags importer.Flags
	imp := importer.ImporterFunc(func(path string, flags importer.Flags) (*importer.Scene, error) {
		gotPath, gotFlags = path, flags
		return testScene(), nil
	})

	NewComponent(entity.New("e"), Options{
		Device:    gputest.NewRecorder(),
		Importer:  imp,
		AssetRoot: "/assets",
	}, "models/duck.glb")

	if gotPath != filepath.Join("/assets", "models/duck.glb") {
		t.Errorf("import path = %q", gotPath)
	}
	if gotFlags != importer.DefaultFlags {
		t.Errorf("flags = %v, want %v", gotFlags, importer.DefaultFlags)
	}
}

func TestWalkPreOrder(t *testing.T) {
	c, _ := newTestComponent(t, testScene())

	want := []string{"tri", "quad-a", "tri", "quad-c", "tri-b"}
	meshes := c.Meshes()
	if len(meshes) != len(want) {
		t.Fatalf("got %d meshes, want %d", len(meshes), len(want))
	}
	for i, m := range meshes {
		if m.Name != want[i] {
			t.Errorf("mesh %d = %q, want %q", i, m.Name, want[i])
		}
	}
	if got := c.Scene().CountMeshReferences(); got != len(meshes) {
		t.Errorf("mesh count %d != scene references %d", len(meshes), got)
	}
}

func TestMeshInvariants(t *testing.T) {
	c, dev := newTestComponent(t, testScene())

	for _, m := range c.Meshes() {
		if m.IndexCount()%3 != 0 {
			t.Errorf("%s: index count %d not divisible by 3", m.Name, m.IndexCount())
		}
		if int(m.IndexCount()) != len(m.Indices) {
			t.Errorf("%s: index count %d != len(indices) %d", m.Name, m.IndexCount(), len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Positions) {
				t.Errorf("%s: index %d out of range %d", m.Name, idx, len(m.Positions))
			}
		}
		if len(m.TexCoords) != len(m.Positions) || len(m.Normals) != len(m.Positions) {
			t.Errorf("%s: attribute arrays not parallel: %d/%d/%d",
				m.Name, len(m.Positions), len(m.TexCoords), len(m.Normals))
		}
		if len(m.Buffers()) != 4 || m.VAO() == 0 {
			t.Errorf("%s: expected 1 vao and 4 buffers", m.Name)
		}
	}

	vaos, buffers := dev.Live()
	if vaos != 5 || buffers != 20 {
		t.Errorf("live handles = %d vaos/%d buffers, want 5/20", vaos, buffers)
	}
	if dev.BoundVAO() != 0 {
		t.Error("geometry object left bound after build")
	}
}

func TestMeshAttributeLayout(t *testing.T) {
	dev := gputest.NewRecorder()
	scene := testScene()
	m, err := NewMesh(dev, scene.Meshes[0], scene)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}

	slots := dev.Attribs[m.VAO()]
	want := map[uint32]struct {
		components int32
		buffer     uint32
	}{
		gpu.SlotPosition: {3, m.Buffers()[bufPositions]},
		gpu.SlotTexCoord: {2, m.Buffers()[bufTexCoords]},
		gpu.SlotNormal:   {3, m.Buffers()[bufNormals]},
	}
	for slot, w := range want {
		a, ok := slots[slot]
		if !ok || !a.Enabled {
			t.Errorf("slot %d not enabled", slot)
			continue
		}
		if a.Components != w.components || a.Buffer != w.buffer {
			t.Errorf("slot %d = %+v, want %d comps from buffer %d", slot, a, w.components, w.buffer)
		}
	}
	if _, ok := slots[1]; ok {
		t.Error("slot 1 must carry no attribute")
	}

	uploads := dev.UploadsFor(m.VAO())
	if len(uploads) != 4 {
		t.Fatalf("expected 4 uploads, got %d", len(uploads))
	}
	for _, u := range uploads {
		if u.Usage != gpu.StaticDraw {
			t.Errorf("buffer %d uploaded with usage %v", u.Buffer, u.Usage)
		}
	}
	if uploads[1].Target != gpu.ElementArrayBuffer || uploads[1].Buffer != m.Buffers()[bufIndices] {
		t.Errorf("second upload should be the index buffer, got %+v", uploads[1])
	}
	if idx, ok := uploads[1].Data.([]uint16); !ok || len(idx) != 3 {
		t.Errorf("index upload = %T %v", uploads[1].Data, uploads[1].Data)
	}

	// Handles are allocated before anything is uploaded.
	if dev.Calls[0] != "GenVertexArray" || dev.Calls[2] != "GenBuffers" {
		t.Errorf("unexpected call order %v", dev.Calls[:3])
	}
}

func TestMeshMaterial(t *testing.T) {
	dev := gputest.NewRecorder()
	scene := testScene()
	m, err := NewMesh(dev, scene.Meshes[0], scene)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	mat := m.Material()
	if !mat.Ready() {
		t.Error("material should be initialized")
	}
	if mat.Diffuse() != (mgl32.Vec3{0, 0.5, 0}) {
		t.Errorf("diffuse = %v, want green", mat.Diffuse())
	}

	other, _ := NewMesh(dev, scene.Meshes[0], scene)
	if other.Material() == mat {
		t.Error("each mesh must own its material")
	}
}

func TestMeshMissingAttributes(t *testing.T) {
	dev := gputest.NewRecorder()
	scene := testScene()
	src := scene.Meshes[1] // quad without normals or uvs

	m, err := NewMesh(dev, src, scene)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	if len(m.Normals) != 4 || len(m.TexCoords) != 4 {
		t.Fatalf("expected padded attributes, got %d normals %d uvs", len(m.Normals), len(m.TexCoords))
	}
	for i := range m.Positions {
		if m.Normals[i] != (mgl32.Vec3{}) || m.TexCoords[i] != (mgl32.Vec2{}) {
			t.Errorf("vertex %d: normal %v uv %v, want zero", i, m.Normals[i], m.TexCoords[i])
		}
	}
}

func TestMeshTexCoordsFromChannelZero(t *testing.T) {
	// Only part of the vertex range is referenced by faces; uvs are still copied
	// for every vertex.
	src := &importer.Mesh{
		Name:      "wide",
		Vertices:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 2, 0}},
		TexCoords: [][]mgl32.Vec2{{{0.1, 0.1}, {0.2, 0.2}, {0.3, 0.3}, {0.4, 0.4}, {0.5, 0.5}}},
		Faces:     []importer.Face{{Indices: []uint32{2, 3, 4}}},
	}
	scene := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.Mesh{src},
		Materials: []*importer.Material{importer.DefaultMaterial()},
	}

	m, err := NewMesh(gputest.NewRecorder(), src, scene)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	if m.TexCoords[4] != (mgl32.Vec2{0.5, 0.5}) {
		t.Errorf("uv[4] = %v, want (0.5, 0.5)", m.TexCoords[4])
	}
}

func TestMalformedMeshes(t *testing.T) {
	materials := []*importer.Material{importer.DefaultMaterial()}
	tests := []struct {
		name string
		mesh *importer.Mesh
	}{
		{
			name: "quad face",
			mesh: &importer.Mesh{
				Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
				Faces:    []importer.Face{{Indices: []uint32{0, 1, 2, 3}}},
			},
		},
		{
			name: "line face",
			mesh: &importer.Mesh{
				Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}},
				Faces:    []importer.Face{{Indices: []uint32{0, 1}}},
			},
		},
		{
			name: "index out of range",
			mesh: &importer.Mesh{
				Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
				Faces:    []importer.Face{{Indices: []uint32{0, 1, 3}}},
			},
		},
		{
			name: "material out of range",
			mesh: &importer.Mesh{
				Vertices:      []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
				Faces:         []importer.Face{{Indices: []uint32{0, 1, 2}}},
				MaterialIndex: 5,
			},
		},
		{
			name: "too many vertices",
			mesh: &importer.Mesh{Vertices: make([]mgl32.Vec3, math.MaxUint16+2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.NewRecorder()
			scene := &importer.Scene{Meshes: []*importer.Mesh{tt.mesh}, Materials: materials}
			_, err := NewMesh(dev, tt.mesh, scene)
			if !errors.Is(err, ErrMalformedMesh) {
				t.Errorf("NewMesh() error = %v, want ErrMalformedMesh", err)
			}
			if vaos, buffers := dev.Live(); vaos != 0 || buffers != 0 {
				t.Errorf("malformed mesh allocated %d vaos/%d buffers", vaos, buffers)
			}
		})
	}
}

func TestMalformedMeshSkippedByWalk(t *testing.T) {
	scene := testScene()
	scene.Meshes[2].Faces = append(scene.Meshes[2].Faces, importer.Face{Indices: []uint32{0, 1}})
	scene.Root.Children[1].Meshes = append(scene.Root.Children[1].Meshes, 42)

	c, _ := newTestComponent(t, scene)
	if got := len(c.Meshes()); got != 4 {
		t.Errorf("expected the bad mesh and dangling reference to be skipped, got %d meshes", got)
	}
}

func TestGraphicsErrorPanics(t *testing.T) {
	dev := gputest.NewRecorder()
	dev.FailNext(gpu.ErrorCode(0x0502))
	scene := testScene()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on graphics error")
		}
	}()
	_, _ = NewMesh(dev, scene.Meshes[0], scene)
}

func TestImportFailure(t *testing.T) {
	dev := gputest.NewRecorder()
	ent := entity.New("broken")
	imp := importer.ImporterFunc(func(string, importer.Flags) (*importer.Scene, error) {
		return nil, errors.New("corrupt file")
	})

	c := NewComponent(ent, Options{Device: dev, Importer: imp}, "missing.glb")

	if len(c.Meshes()) != 0 {
		t.Errorf("expected no meshes, got %d", len(c.Meshes()))
	}
	if c.Scene() != nil {
		t.Error("scene should be nil after failed import")
	}
	if vaos, buffers := dev.Live(); vaos != 0 || buffers != 0 || len(dev.Calls) != 0 {
		t.Errorf("failed import touched the device: %v", dev.Calls)
	}
	if len(ent.Components()) != 1 {
		t.Error("component should still be attached")
	}

	params := frame.NewParams(0, time.Second, nil)
	ent.Update(params)
	if params.StaticDrawCalls.Len() != 0 {
		t.Error("empty component submitted draw calls")
	}
	if got := ent.Rotation()[1]; got != DegreesPerSecond {
		t.Errorf("entity should still spin, yaw = %v", got)
	}
}

func TestImportMissingFileRealImporter(t *testing.T) {
	dev := gputest.NewRecorder()
	c := NewComponent(entity.New("e"), Options{
		Device:    dev,
		Importer:  importer.GLTF{},
		AssetRoot: t.TempDir(),
	}, "does-not-exist.glb")

	if len(c.Meshes()) != 0 {
		t.Errorf("expected no meshes, got %d", len(c.Meshes()))
	}
	if vaos, buffers := dev.Live(); vaos != 0 || buffers != 0 {
		t.Errorf("allocated %d vaos/%d buffers for a missing file", vaos, buffers)
	}
}

func TestUpdateEmitsOneCallPerMesh(t *testing.T) {
	c, _ := newTestComponent(t, testScene())
	params := frame.NewParams(0, 500*time.Millisecond, nil)

	c.Update(params)

	calls := params.StaticDrawCalls.Drain()
	meshes := c.Meshes()
	if len(calls) != len(meshes) {
		t.Fatalf("got %d draw calls, want %d", len(calls), len(meshes))
	}

	transform := c.Entity().Transform()
	for i, dc := range calls {
		if dc.Name != DrawCallName {
			t.Errorf("call %d name = %q", i, dc.Name)
		}
		if dc.VAO != meshes[i].VAO() || dc.IndexCount != meshes[i].IndexCount() {
			t.Errorf("call %d does not match mesh %d", i, i)
		}
		if dc.Mode != gpu.Triangles {
			t.Errorf("call %d mode = %v", i, dc.Mode)
		}
		if dc.Material != meshes[i].Material() {
			t.Errorf("call %d material is not the mesh's", i)
		}
		if dc.Transform != transform {
			t.Errorf("call %d transform differs from the tick snapshot", i)
		}
	}
}

func TestRotationAccumulates(t *testing.T) {
	c, _ := newTestComponent(t, testScene())
	steps := []time.Duration{
		16 * time.Millisecond,
		33 * time.Millisecond,
		1 * time.Second,
		4 * time.Second,
		250 * time.Millisecond,
	}

	var total float64
	list := frame.NewDrawList(0)
	for i, dt := range steps {
		c.Update(frame.NewParams(uint64(i), dt, list))
		list.Reset()
		total += dt.Seconds()
	}

	want := math.Mod(DegreesPerSecond*total, 360)
	got := float64(c.Entity().Rotation()[1])
	if math.Abs(got-want) > 1e-2 {
		t.Errorf("yaw = %v, want %v", got, want)
	}
}

func TestConcurrentSubmitters(t *testing.T) {
	const components = 8
	const ticks = 50

	list := frame.NewDrawList(0)
	var comps []*Component
	want := 0
	for i := 0; i < components; i++ {
		c, _ := newTestComponent(t, testScene())
		comps = append(comps, c)
		want += len(c.Meshes()) * ticks
	}

	var wg sync.WaitGroup
	for _, c := range comps {
		wg.Add(1)
		go func(c *Component) {
			defer wg.Done()
			for tick := 0; tick < ticks; tick++ {
				c.Update(frame.NewParams(uint64(tick), time.Millisecond, list))
			}
		}(c)
	}
	wg.Wait()

	if got := list.Len(); got != want {
		t.Errorf("list has %d calls, want %d", got, want)
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	c, dev := newTestComponent(t, testScene())
	meshes := c.Meshes()

	c.Entity().Close()
	c.Close()

	if vaos, buffers := dev.Live(); vaos != 0 || buffers != 0 {
		t.Errorf("live handles after close: %d vaos/%d buffers", vaos, buffers)
	}
	for _, m := range meshes {
		if n := dev.Deletions(m.VAO()); n != 1 {
			t.Errorf("%s: vao deleted %d times", m.Name, n)
		}
		for _, b := range m.Buffers() {
			if n := dev.Deletions(b); n != 1 {
				t.Errorf("%s: buffer %d deleted %d times", m.Name, b, n)
			}
		}
		if m.Material().Ready() {
			t.Errorf("%s: material not released", m.Name)
		}
	}
}

func TestRadius(t *testing.T) {
	c, _ := newTestComponent(t, testScene())
	// The quads reach (1,1,0).
	if r := c.Radius(); math.Abs(float64(r)-math.Sqrt2) > 1e-5 {
		t.Errorf("Radius() = %v, want sqrt(2)", r)
	}

	empty := NewComponent(entity.New("e"), Options{
		Device:   gputest.NewRecorder(),
		Importer: importer.ImporterFunc(func(string, importer.Flags) (*importer.Scene, error) {
			return nil, importer.ErrNoScene
		}),
	}, "x.glb")
	if empty.Radius() != 0 {
		t.Error("empty component should have zero radius")
	}
}
