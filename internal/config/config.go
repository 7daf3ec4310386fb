package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"bvh-pose-renderer/internal/imageout"
	"bvh-pose-renderer/internal/viewmatrix"
)

// Config holds input/output paths plus render and server settings.
type Config struct {
	// Paths
	Input     string `json:"input" toml:"input"`
	OutputDir string `json:"output_dir" toml:"output_dir"`

	// Frame range: Count 0 means through the last frame.
	StartFrame int `json:"start_frame" toml:"start_frame"`
	FrameCount int `json:"frame_count" toml:"frame_count"`
	FrameStep  int `json:"frame_step" toml:"frame_step"`

	// Render settings
	RenderSize  int     `json:"render_size" toml:"render_size"`
	Supersample int     `json:"supersample" toml:"supersample"`
	Format      string  `json:"format" toml:"format"`
	Workers     int     `json:"workers" toml:"workers"`
	Camera      string  `json:"camera" toml:"camera"`
	Yaw         float64 `json:"yaw" toml:"yaw"`
	Pitch       float64 `json:"pitch" toml:"pitch"`
	Perspective bool    `json:"perspective" toml:"perspective"`
	FOV         float64 `json:"fov" toml:"fov"`

	// Server
	Listen string `json:"listen" toml:"listen"`
}

// Load reads a JSON or TOML config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Input     string
	OutputDir string
	Format    string
	Camera    string
	Size      int
	Workers   int
	Listen    string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Input != "" {
		c.Input = flags.Input
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Camera != "" {
		c.Camera = flags.Camera
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Listen != "" {
		c.Listen = flags.Listen
	}

	// Frames go next to the input unless told otherwise.
	if c.OutputDir == "" && c.Input != "" {
		base := strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))
		c.OutputDir = filepath.Join(filepath.Dir(c.Input), base+"-frames")
	}

	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Format == "" {
		c.Format = imageout.FormatWebP
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Camera == "" {
		c.Camera = viewmatrix.CameraFront
	}
	if c.FrameStep <= 0 {
		c.FrameStep = 1
	}
	if c.StartFrame < 0 {
		c.StartFrame = 0
	}
	if c.Listen == "" {
		c.Listen = ":8000"
	}
}

// Validate checks the settings that Resolve cannot default.
func (c *Config) Validate() error {
	f, err := imageout.Normalize(c.Format)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Format = f
	if _, err := viewmatrix.ForCamera(c.Camera, c.Yaw, c.Pitch); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.FrameCount < 0 {
		return fmt.Errorf("config: negative frame_count %d", c.FrameCount)
	}
	return nil
}

// FrameRange lists the frames selected by StartFrame, FrameCount and
// FrameStep, clipped to numFrames.
func (c *Config) FrameRange(numFrames int) []int {
	step := c.FrameStep
	if step <= 0 {
		step = 1
	}
	end := numFrames
	if c.FrameCount > 0 && c.StartFrame+c.FrameCount*step < end {
		end = c.StartFrame + c.FrameCount*step
	}
	var frames []int
	for f := c.StartFrame; f < end; f += step {
		frames = append(frames, f)
	}
	return frames
}
