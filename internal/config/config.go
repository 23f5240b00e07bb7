// Package config handles engine configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all engine settings.
type Config struct {
	Assets     AssetsConfig     `yaml:"assets"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Root   string   `yaml:"root"`   // Directory model paths are resolved against
	Models []string `yaml:"models"` // Model files to spawn, relative to Root
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // Vertical field of view in degrees

	ScreenshotDir string `yaml:"screenshot_dir"` // F12 captures land here
}

// SimulationConfig holds tick scheduling settings.
type SimulationConfig struct {
	Workers  int `yaml:"workers"`  // Concurrent entity updates per tick
	Entities int `yaml:"entities"` // Copies of each model to spawn
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Root:   "data",
			Models: []string{"models/duck.glb"},
		},
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    60,

			ScreenshotDir: "screenshots",
		},
		Simulation: SimulationConfig{
			Workers:  4,
			Entities: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings that cannot be used to start the engine.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180 {
		errs = append(errs, fmt.Errorf("graphics: fov %v out of range (0, 180)", c.Graphics.FOV))
	}
	if c.Simulation.Workers < 1 {
		errs = append(errs, fmt.Errorf("simulation: workers must be >= 1, got %d", c.Simulation.Workers))
	}
	if c.Simulation.Entities < 0 {
		errs = append(errs, fmt.Errorf("simulation: entities must be >= 0, got %d", c.Simulation.Entities))
	}
	return errors.Join(errs...)
}
