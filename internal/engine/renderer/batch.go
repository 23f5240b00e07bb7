package renderer

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/material"
)

// Stats summarizes one Render call.
type Stats struct {
	Calls     int
	Triangles int
	Skipped   int
}

// drawUniforms is everything the lit program needs for one call.
type drawUniforms struct {
	MVP       mgl32.Mat4
	Model     mgl32.Mat4
	Normal    mgl32.Mat3
	Diffuse   mgl32.Vec3
	Ambient   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
	Lit       bool
}

var unlitDiffuse = mgl32.Vec3{1, 1, 1}

func uniformsFor(dc *frame.DrawCall, viewProj mgl32.Mat4) drawUniforms {
	u := drawUniforms{
		MVP:     viewProj.Mul4(dc.Transform),
		Model:   dc.Transform,
		Normal:  dc.Transform.Mat3().Inv().Transpose(),
		Diffuse: unlitDiffuse,
	}
	if lit, ok := dc.Material.(*material.Lit); ok && lit.Ready() {
		u.Lit = true
		u.Diffuse = lit.Diffuse()
		u.Ambient = lit.Ambient()
		u.Specular = lit.Specular()
		u.Shininess = lit.Shininess()
	}
	return u
}

// drawable reports whether dc refers to real geometry.
func drawable(dc *frame.DrawCall) bool {
	return dc.VAO != 0 && dc.IndexCount > 0
}

// order groups calls by geometry object so consecutive draws share a binding.
// The sort is stable, so submission order is kept within a group.
func order(calls []frame.DrawCall) {
	slices.SortStableFunc(calls, func(a, b frame.DrawCall) int {
		return cmp.Compare(a.VAO, b.VAO)
	})
}
