// Package lighting describes the scene light the renderer shades with.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a directional light.
type Sun struct {
	// Direction points from the surface toward the light.
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	// Ambient is added to every lit surface regardless of orientation.
	Ambient mgl32.Vec3
}

// DefaultSun lights the scene from above and slightly in front.
func DefaultSun() Sun {
	return Sun{
		Direction: SunDirection(30, 50),
		Color:     mgl32.Vec3{1, 1, 1},
		Ambient:   mgl32.Vec3{0.15, 0.15, 0.18},
	}
}

// SunDirection converts longitude (rotation about Y, degrees) and latitude
// (elevation above the horizon, degrees) into a unit vector toward the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := float64(mgl32.DegToRad(longitude))
	lat := float64(mgl32.DegToRad(latitude))

	return mgl32.Vec3{
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(math.Cos(lat) * math.Cos(lon)),
	}
}
