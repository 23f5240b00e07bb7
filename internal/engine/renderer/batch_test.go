package renderer

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/material"
)

// nearMat3 compares element-wise with an absolute tolerance, so zero entries
// are not held to float epsilon.
func nearMat3(a, b mgl32.Mat3) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

func TestUniformsForLit(t *testing.T) {
	mat := material.NewLit()
	mat.SetDiffuse(mgl32.Vec3{1, 0, 0})
	if err := mat.Init(); err != nil {
		t.Fatal(err)
	}

	model := mgl32.Translate3D(1, 2, 3)
	viewProj := mgl32.Scale3D(2, 2, 2)
	u := uniformsFor(&frame.DrawCall{Transform: model, Material: mat}, viewProj)

	if !u.Lit {
		t.Error("initialized lit material should take the lit path")
	}
	if u.Diffuse != (mgl32.Vec3{1, 0, 0}) || u.Shininess != 16 {
		t.Errorf("material not copied: %+v", u)
	}
	if !u.MVP.ApproxEqual(viewProj.Mul4(model)) {
		t.Errorf("MVP = %v", u.MVP)
	}
	// A pure translation leaves normals untouched.
	if !nearMat3(u.Normal, mgl32.Ident3()) {
		t.Errorf("normal matrix = %v, want identity", u.Normal)
	}
}

func TestUniformsForNonUniformScale(t *testing.T) {
	u := uniformsFor(&frame.DrawCall{Transform: mgl32.Scale3D(2, 1, 1)}, mgl32.Ident4())

	n := u.Normal.Mul3x1(mgl32.Vec3{1, 0, 0})
	if n.Sub(mgl32.Vec3{0.5, 0, 0}).Len() > 1e-5 {
		t.Errorf("normal = %v, want inverse-transpose scaling", n)
	}
}

func TestUniformsForUnlit(t *testing.T) {
	tests := []struct {
		name string
		mat  material.Material
	}{
		{"nil material", nil},
		{"uninitialized", material.NewLit()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := uniformsFor(&frame.DrawCall{Transform: mgl32.Ident4(), Material: tt.mat}, mgl32.Ident4())
			if u.Lit {
				t.Error("expected unlit path")
			}
			if u.Diffuse != unlitDiffuse {
				t.Errorf("diffuse = %v", u.Diffuse)
			}
		})
	}
}

func TestDrawable(t *testing.T) {
	tests := []struct {
		dc   frame.DrawCall
		want bool
	}{
		{frame.DrawCall{VAO: 1, IndexCount: 3}, true},
		{frame.DrawCall{VAO: 0, IndexCount: 3}, false},
		{frame.DrawCall{VAO: 1, IndexCount: 0}, false},
	}
	for _, tt := range tests {
		if got := drawable(&tt.dc); got != tt.want {
			t.Errorf("drawable(%+v) = %v", tt.dc, got)
		}
	}
}

func TestOrderGroupsByVAOStable(t *testing.T) {
	calls := []frame.DrawCall{
		{Name: "a", VAO: 3},
		{Name: "b", VAO: 1},
		{Name: "c", VAO: 3},
		{Name: "d", VAO: 1},
	}
	order(calls)

	want := []string{"b", "d", "a", "c"}
	for i, dc := range calls {
		if dc.Name != want[i] {
			t.Fatalf("order = %v, want %v", names(calls), want)
		}
	}
}

func names(calls []frame.DrawCall) []string {
	out := make([]string, len(calls))
	for i, dc := range calls {
		out[i] = dc.Name
	}
	return out
}

func TestShadersDeclareNoDeadVaryings(t *testing.T) {
	// Every varying the vertex stage writes must be read by the fragment stage.
	for _, v := range []string{"vWorldPos", "vNormal"} {
		if !strings.Contains(vertexShader, "out vec3 "+v) || !strings.Contains(fragmentShader, "in vec3 "+v) {
			t.Errorf("varying %s not linked between stages", v)
		}
	}
	for _, src := range []string{vertexShader, fragmentShader} {
		if strings.Contains(src, "vTexCoord") {
			t.Error("texture coordinates should not be passed to the fragment stage until sampled")
		}
	}
}
