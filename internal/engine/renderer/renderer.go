// Package renderer draws the frame's draw list with OpenGL.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/engine/gpu/opengl"
	"github.com/Faultbox/ga-engine/internal/engine/lighting"
	"github.com/Faultbox/ga-engine/internal/engine/shader"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	Sun    lighting.Sun
}

// Renderer draws submitted geometry with a single lit program.
type Renderer struct {
	config  Config
	program uint32
	loc     locations
}

type locations struct {
	mvp       int32
	model     int32
	normal    int32
	diffuse   int32
	ambient   int32
	specular  int32
	shininess int32
	lit       int32

	lightDir     int32
	lightColor   int32
	lightAmbient int32
	eye          int32
}

// New compiles the lit program.
// IMPORTANT: Must be called AFTER opengl.Init!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	p := r.program
	r.loc = locations{
		mvp:          shader.MustUniform(p, "uMVP"),
		model:        shader.Uniform(p, "uModel"),
		normal:       shader.Uniform(p, "uNormalMatrix"),
		diffuse:      shader.MustUniform(p, "uDiffuse"),
		ambient:      shader.Uniform(p, "uAmbient"),
		specular:     shader.Uniform(p, "uSpecular"),
		shininess:    shader.Uniform(p, "uShininess"),
		lit:          shader.Uniform(p, "uLit"),
		lightDir:     shader.Uniform(p, "uLightDir"),
		lightColor:   shader.Uniform(p, "uLightColor"),
		lightAmbient: shader.Uniform(p, "uLightAmbient"),
		eye:          shader.Uniform(p, "uEye"),
	}

	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	logger.Info("renderer ready",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)
	return r, nil
}

// Close deletes the program.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the viewport size.
func (r *Renderer) Size() (int, int) { return r.config.Width, r.config.Height }

// Begin clears the frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Render drains list and draws every call.
func (r *Renderer) Render(list *frame.DrawList, viewProj mgl32.Mat4, eye mgl32.Vec3) Stats {
	calls := list.Drain()
	order(calls)

	gl.UseProgram(r.program)
	sun := r.config.Sun
	gl.Uniform3fv(r.loc.lightDir, 1, &sun.Direction[0])
	gl.Uniform3fv(r.loc.lightColor, 1, &sun.Color[0])
	gl.Uniform3fv(r.loc.lightAmbient, 1, &sun.Ambient[0])
	gl.Uniform3fv(r.loc.eye, 1, &eye[0])

	var stats Stats
	var bound uint32
	for i := range calls {
		dc := &calls[i]
		if !drawable(dc) {
			stats.Skipped++
			continue
		}
		u := uniformsFor(dc, viewProj)
		r.apply(&u)

		if dc.VAO != bound {
			gl.BindVertexArray(dc.VAO)
			bound = dc.VAO
		}
		gl.DrawElements(opengl.DrawMode(dc.Mode), dc.IndexCount, gl.UNSIGNED_SHORT, nil)

		stats.Calls++
		stats.Triangles += int(dc.IndexCount) / 3
	}
	gl.BindVertexArray(0)
	return stats
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

func (r *Renderer) apply(u *drawUniforms) {
	gl.UniformMatrix4fv(r.loc.mvp, 1, false, &u.MVP[0])
	gl.UniformMatrix4fv(r.loc.model, 1, false, &u.Model[0])
	gl.UniformMatrix3fv(r.loc.normal, 1, false, &u.Normal[0])
	gl.Uniform3fv(r.loc.diffuse, 1, &u.Diffuse[0])
	gl.Uniform3fv(r.loc.ambient, 1, &u.Ambient[0])
	gl.Uniform3fv(r.loc.specular, 1, &u.Specular[0])
	gl.Uniform1f(r.loc.shininess, u.Shininess)
	lit := int32(0)
	if u.Lit {
		lit = 1
	}
	gl.Uniform1i(r.loc.lit, lit)
}

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
// Texture coordinates are bound by every mesh but not sampled yet.
layout (location = 2) in vec2 aTexCoord;
layout (location = 3) in vec3 aNormal;

uniform mat4 uMVP;
uniform mat4 uModel;
uniform mat3 uNormalMatrix;

out vec3 vWorldPos;
out vec3 vNormal;

void main() {
	vWorldPos = vec3(uModel * vec4(aPosition, 1.0));
	vNormal = uNormalMatrix * aNormal;
	gl_Position = uMVP * vec4(aPosition, 1.0);
}
`

const fragmentShader = `
#version 410 core

in vec3 vWorldPos;
in vec3 vNormal;

uniform vec3 uDiffuse;
uniform vec3 uAmbient;
uniform vec3 uSpecular;
uniform float uShininess;
uniform int uLit;

uniform vec3 uLightDir;
uniform vec3 uLightColor;
uniform vec3 uLightAmbient;
uniform vec3 uEye;

out vec4 FragColor;

void main() {
	if (uLit == 0) {
		FragColor = vec4(uDiffuse, 1.0);
		return;
	}

	// Zero normals come from meshes imported without them.
	vec3 n = length(vNormal) > 0.0 ? normalize(vNormal) : vec3(0.0);
	vec3 l = normalize(uLightDir);
	vec3 v = normalize(uEye - vWorldPos);
	vec3 h = normalize(l + v);

	float diff = max(dot(n, l), 0.0);
	float spec = diff > 0.0 ? pow(max(dot(n, h), 0.0), uShininess) : 0.0;

	vec3 color = (uAmbient + uLightAmbient) * uDiffuse
		+ diff * uLightColor * uDiffuse
		+ spec * uLightColor * uSpecular;
	FragColor = vec4(color, 1.0);
}
`
