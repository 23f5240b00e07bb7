// Package material describes how submitted geometry is shaded.
package material

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind selects the shader path a material is drawn with.
type Kind uint8

const (
	KindUnlit Kind = iota
	KindLit
)

// ErrReleased is returned when a released material is initialized again.
var ErrReleased = errors.New("material: released")

// Material is implemented by every shading model the renderer knows.
type Material interface {
	// Init prepares the material for drawing.
	Init() error
	Kind() Kind
	// Release drops any resources held by the material. Safe to call twice.
	Release()
}

// Lit is a diffuse/specular material for lit rendering.
type Lit struct {
	diffuse   mgl32.Vec3
	ambient   mgl32.Vec3
	specular  mgl32.Vec3
	shininess float32

	diffuseSet bool
	ready      bool
	released   bool
}

var _ Material = (*Lit)(nil)

// NewLit returns an uninitialized lit material.
func NewLit() *Lit {
	return &Lit{}
}

// Init fills lighting defaults. The diffuse color survives Init, so it may be set
// either before or after.
func (m *Lit) Init() error {
	if m.released {
		return ErrReleased
	}
	if !m.diffuseSet {
		m.diffuse = mgl32.Vec3{1, 1, 1}
	}
	m.ambient = mgl32.Vec3{0.1, 0.1, 0.1}
	m.specular = mgl32.Vec3{0.2, 0.2, 0.2}
	m.shininess = 16
	m.ready = true
	return nil
}

func (m *Lit) Kind() Kind { return KindLit }

func (m *Lit) Release() {
	m.released = true
	m.ready = false
}

// SetDiffuse sets the base surface color.
func (m *Lit) SetDiffuse(c mgl32.Vec3) {
	m.diffuse = c
	m.diffuseSet = true
}

func (m *Lit) Diffuse() mgl32.Vec3  { return m.diffuse }
func (m *Lit) Ambient() mgl32.Vec3  { return m.ambient }
func (m *Lit) Specular() mgl32.Vec3 { return m.specular }
func (m *Lit) Shininess() float32   { return m.shininess }
func (m *Lit) Ready() bool          { return m.ready }
