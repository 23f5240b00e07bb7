// Package model loads model assets into GPU meshes and submits them for drawing.
package model

import (
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/ga-engine/internal/engine/entity"
	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/gpu"
	"github.com/Faultbox/ga-engine/internal/engine/importer"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// DegreesPerSecond is the yaw rate applied to the owning entity every tick.
const DegreesPerSecond = 60

// DrawCallName tags every draw call submitted by a model component.
const DrawCallName = "model"

// Options configures a model component.
type Options struct {
	Device   gpu.Device
	Importer importer.Importer
	// AssetRoot is joined with the model file name.
	AssetRoot string
	// Flags defaults to importer.DefaultFlags when zero.
	Flags importer.Flags
}

// Component renders an imported model on its entity and spins the entity about Y.
type Component struct {
	entity *entity.Entity
	scene  *importer.Scene
	meshes []*Mesh
}

var _ entity.Component = (*Component)(nil)

// NewComponent imports file and attaches the component to ent.
//
// An import failure is logged and leaves the component with no meshes.
// The component is attached either way.
func NewComponent(ent *entity.Entity, opts Options, file string) *Component {
	c := &Component{entity: ent}
	ent.AddComponent(c)

	flags := opts.Flags
	if flags == 0 {
		flags = importer.DefaultFlags
	}
	path := filepath.Join(opts.AssetRoot, file)

	scene, err := opts.Importer.Import(path, flags)
	if err != nil {
		logger.Error("couldn't load model", zap.String("path", path), zap.Error(err))
		return c
	}
	if scene == nil || scene.Root == nil {
		logger.Error("couldn't load model", zap.String("path", path), zap.Error(importer.ErrNoScene))
		return c
	}

	c.scene = scene
	c.processNode(opts.Device, scene.Root, scene)

	logger.Debug("model loaded",
		zap.String("path", path),
		zap.String("entity", ent.Name),
		zap.Int("meshes", len(c.meshes)),
		zap.Stringer("flags", flags),
	)
	return c
}

// processNode builds the node's own meshes, then descends into its children.
func (c *Component) processNode(dev gpu.Device, node *importer.Node, scene *importer.Scene) {
	for _, idx := range node.Meshes {
		if idx < 0 || idx >= len(scene.Meshes) {
			logger.Warn("node references missing mesh",
				zap.String("node", node.Name), zap.Int("mesh", idx))
			continue
		}
		mesh, err := NewMesh(dev, scene.Meshes[idx], scene)
		if err != nil {
			logger.Error("skipping mesh", zap.String("node", node.Name), zap.Error(err))
			continue
		}
		c.meshes = append(c.meshes, mesh)
	}
	for _, child := range node.Children {
		c.processNode(dev, child, scene)
	}
}

// Update spins the entity and queues one draw call per mesh.
func (c *Component) Update(params *frame.Params) {
	dt := params.Seconds()
	c.entity.Rotate(mgl32.Vec3{0, DegreesPerSecond * dt, 0})

	transform := c.entity.Transform()
	for _, m := range c.meshes {
		dc := frame.DrawCall{Name: DrawCallName, Transform: transform}
		m.AssembleDrawCall(&dc)
		params.StaticDrawCalls.Append(dc)
	}
}

// Close releases every mesh.
func (c *Component) Close() {
	for _, m := range c.meshes {
		m.Release()
	}
	c.meshes = nil
}

// Meshes returns the meshes in scene walk order.
func (c *Component) Meshes() []*Mesh { return c.meshes }

// Scene returns the imported scene, or nil if the import failed.
func (c *Component) Scene() *importer.Scene { return c.scene }

// Radius returns the distance from the model origin to its farthest vertex.
func (c *Component) Radius() float32 {
	var r float32
	for _, m := range c.meshes {
		for _, p := range m.Positions {
			r = max(r, p.Len())
		}
	}
	return r
}

// Entity returns the owning entity.
func (c *Component) Entity() *entity.Entity { return c.entity }
