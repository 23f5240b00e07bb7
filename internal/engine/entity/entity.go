// Package entity implements transformable scene objects that own components.
package entity

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
)

// Component is attached to an entity and updated once per tick.
type Component interface {
	Update(params *frame.Params)
	// Close releases everything the component owns.
	Close()
}

// Entity is a named transform with attached components.
//
// Rotation is kept as Euler angles in degrees, each wrapped into [0, 360).
// The world transform is Translate * RotY * RotX * RotZ * Scale.
type Entity struct {
	ID   uuid.UUID
	Name string

	mu         sync.RWMutex
	position   mgl32.Vec3
	rotation   mgl32.Vec3
	scale      mgl32.Vec3
	components []Component
	closed     bool
}

// New creates an entity at the origin with unit scale.
func New(name string) *Entity {
	return &Entity{
		ID:    uuid.New(),
		Name:  name,
		scale: mgl32.Vec3{1, 1, 1},
	}
}

// AddComponent attaches c. Components update in attachment order.
func (e *Entity) AddComponent(c Component) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.components = append(e.components, c)
}

// Components returns the attached components.
func (e *Entity) Components() []Component {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Component(nil), e.components...)
}

// Update runs every component's update.
func (e *Entity) Update(params *frame.Params) {
	for _, c := range e.Components() {
		c.Update(params)
	}
}

// Close closes every component once, in reverse attachment order.
func (e *Entity) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	comps := e.components
	e.components = nil
	e.mu.Unlock()

	for i := len(comps) - 1; i >= 0; i-- {
		comps[i].Close()
	}
}

// Translate moves the entity by d.
func (e *Entity) Translate(d mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = e.position.Add(d)
}

// SetPosition places the entity at p.
func (e *Entity) SetPosition(p mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = p
}

// SetScale sets the per-axis scale.
func (e *Entity) SetScale(s mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scale = s
}

// Rotate adds Euler angles in degrees (pitch about X, yaw about Y, roll about Z).
func (e *Entity) Rotate(deg mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rotation {
		e.rotation[i] = wrapDegrees(e.rotation[i] + deg[i])
	}
}

// Position returns the entity position.
func (e *Entity) Position() mgl32.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// Rotation returns the wrapped Euler angles in degrees.
func (e *Entity) Rotation() mgl32.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rotation
}

// Transform returns the current world matrix.
func (e *Entity) Transform() mgl32.Mat4 {
	e.mu.RLock()
	pos, rot, scale := e.position, e.rotation, e.scale
	e.mu.RUnlock()

	m := mgl32.Translate3D(pos[0], pos[1], pos[2])
	m = m.Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rot[1])))
	m = m.Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rot[0])))
	m = m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rot[2])))
	return m.Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func wrapDegrees(d float32) float32 {
	d = float32(math.Mod(float64(d), 360))
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}
