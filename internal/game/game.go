// Package game runs the model viewer: window, world and render loop.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/ga-engine/internal/assets"
	"github.com/Faultbox/ga-engine/internal/config"
	"github.com/Faultbox/ga-engine/internal/engine/camera"
	"github.com/Faultbox/ga-engine/internal/engine/debug"
	"github.com/Faultbox/ga-engine/internal/engine/gpu/opengl"
	"github.com/Faultbox/ga-engine/internal/engine/importer"
	"github.com/Faultbox/ga-engine/internal/engine/input"
	"github.com/Faultbox/ga-engine/internal/engine/lighting"
	"github.com/Faultbox/ga-engine/internal/engine/model"
	"github.com/Faultbox/ga-engine/internal/engine/renderer"
	"github.com/Faultbox/ga-engine/internal/engine/window"
	"github.com/Faultbox/ga-engine/internal/engine/world"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// Title is the window title.
const Title = "GA Engine"

// maxFrameTime caps dt so a stall (window drag, breakpoint) doesn't spin models wildly.
const maxFrameTime = 250 * time.Millisecond

// Game is the viewer instance.
type Game struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	world    *world.World
	camera   *camera.OrbitCamera

	scenes      *assets.Cache
	models      []*model.Component
	screenshots *debug.Screenshots

	// Paths picked in the file dialog; models are built on the main thread.
	pendingModels chan string
}

// New opens the window, initializes OpenGL and spawns the configured models.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Strings("models", cfg.Assets.Models),
	)

	g := &Game{
		config:        cfg,
		scenes:        assets.NewCache(importer.GLTF{}),
		screenshots:   debug.NewScreenshots(cfg.Graphics.ScreenshotDir, "viewer"),
		pendingModels: make(chan string, 4),
	}

	var err error
	g.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL function pointers need the context the window just made current.
	if err := opengl.Init(); err != nil {
		g.window.Close()
		return nil, err
	}

	width, height := g.window.DrawableSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:  width,
		Height: height,
		Sun:    lighting.DefaultSun(),
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()
	g.camera = camera.NewOrbitCamera(cfg.Graphics.FOV)
	g.world = world.New(cfg.Simulation.Workers)
	g.spawn()

	logger.Info("viewer initialized", zap.Int("entities", len(g.world.Entities())))
	return g, nil
}

// spawn creates Simulation.Entities copies of every configured model.
func (g *Game) spawn() {
	for _, file := range g.config.Assets.Models {
		for i := 0; i < g.config.Simulation.Entities; i++ {
			g.addModel(g.config.Assets.Root, file, i)
		}
	}
	g.layout()
}

func (g *Game) addModel(root, file string, copyIndex int) {
	opts := model.Options{
		Device:    opengl.Device{},
		Importer:  g.scenes,
		AssetRoot: root,
	}
	ent := g.world.Spawn(fmt.Sprintf("%s#%d", file, copyIndex))
	g.models = append(g.models, model.NewComponent(ent, opts, file))
}

// layout spaces the models along X and frames them all.
func (g *Game) layout() {
	var radius float32
	for _, c := range g.models {
		radius = max(radius, c.Radius())
	}
	if radius == 0 {
		radius = 1
	}

	spacing := 2.5 * radius
	offset := -spacing * float32(len(g.models)-1) / 2
	for i, c := range g.models {
		c.Entity().SetPosition(mgl32.Vec3{offset + spacing*float32(i), 0, 0})
	}
	g.camera.FitRadius(radius - offset)
}

// openFileDialog asks for a model file without blocking the loop.
func (g *Game) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("glTF Models", "glb", "gltf").
			Filter("All Files", "*").
			Title("Open Model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case g.pendingModels <- filename:
		default:
			logger.Warn("dropping model selection, too many pending", zap.String("path", filename))
		}
	}()
}

func (g *Game) loadPending() {
	for {
		select {
		case path := <-g.pendingModels:
			logger.Info("opening model", zap.String("path", path))
			g.addModel("", path, 0)
			g.layout()
		default:
			return
		}
	}
}

func (g *Game) captureScreenshot() {
	pixels, width, height := g.renderer.ReadPixels()
	path, err := g.screenshots.SavePixels(pixels, width, height)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Run runs the main loop until the window closes or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var stats renderer.Stats

	logger.Info("starting main loop")

	for g.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		dt := min(now.Sub(lastTime), maxFrameTime)
		lastTime = now

		if g.input.Update() {
			g.running = false
			break
		}
		g.handleEvents()
		g.loadPending()

		if _, err := g.world.Tick(ctx, dt); err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("tick: %w", err)
		}

		g.renderer.Begin()
		width, height := g.renderer.Size()
		stats = g.renderer.Render(g.world.DrawList(), g.camera.ViewProjection(width, height), g.camera.Position())

		// Read back before the swap; the back buffer is undefined afterwards.
		if g.input.IsKeyPressed(sdl.SCANCODE_F12) {
			g.captureScreenshot()
		}

		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
				zap.Int("draw_calls", stats.Calls),
				zap.Int("triangles", stats.Triangles),
				zap.Int("skipped", stats.Skipped),
			)
			hits, misses := g.scenes.Stats()
			logger.Debug("scene cache", zap.Int("scenes", g.scenes.Len()), zap.Int("hits", hits), zap.Int("misses", misses))
			g.window.SetTitle(fmt.Sprintf("%s - %d fps", Title, frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			g.renderer.Resize(g.window.DrawableSize())
		case input.EventMouseDrag:
			g.camera.HandleDrag(event.DX, event.DY)
		case input.EventMouseWheel:
			g.camera.HandleZoom(event.DY)
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				g.running = false
			case sdl.SCANCODE_O:
				g.openFileDialog()
			}
		}
	}
}

// Close releases the world's GPU resources before the context goes away.
func (g *Game) Close() {
	logger.Info("closing viewer")

	if g.world != nil {
		g.world.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
