package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPosition(t *testing.T) {
	c := NewOrbitCamera(60)
	c.Pitch, c.Yaw, c.Distance = 0, 0, 10
	c.Center = mgl32.Vec3{1, 2, 3}

	if got := c.Position(); got.Sub(mgl32.Vec3{1, 2, 13}).Len() > 1e-5 {
		t.Errorf("Position() = %v", got)
	}
}

func TestViewMatrixMapsCenterAhead(t *testing.T) {
	c := NewOrbitCamera(60)
	c.Distance = 7

	p := mgl32.TransformCoordinate(c.Center, c.ViewMatrix())
	if p.Sub(mgl32.Vec3{0, 0, -7}).Len() > 1e-4 {
		t.Errorf("center in view space = %v, want (0,0,-7)", p)
	}
}

func TestDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(60)
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
}

func TestZoomClamps(t *testing.T) {
	c := NewOrbitCamera(60)
	for i := 0; i < 200; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MinDistance)
	}
}

func TestFitRadius(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitRadius(1)
	// sin(30 deg) = 0.5
	if d := c.Distance; d < 1.999 || d > 2.001 {
		t.Errorf("distance = %v, want 2", d)
	}
	c.FitRadius(0)
	if d := c.Distance; d < 1.999 || d > 2.001 {
		t.Error("zero radius should leave distance unchanged")
	}
}

func TestViewProjectionZeroHeight(t *testing.T) {
	c := NewOrbitCamera(60)
	if got, want := c.ViewProjection(100, 0), c.ProjectionMatrix(1).Mul4(c.ViewMatrix()); got != want {
		t.Error("zero height should fall back to a square aspect")
	}
}
