package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/batch"
	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/config"
	"bvh-pose-renderer/internal/logging"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/viewmatrix"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .json or .toml config file")
	outputDir := flag.String("output", "", "Output directory (default: <input>-frames)")
	format := flag.String("format", "", "Image format: webp or tga (default: webp)")
	camera := flag.String("camera", "", "Camera: front, side, three-quarter or orbit")
	size := flag.Int("size", 0, "Output image size in pixels (default: 512)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Render only the first N selected frames")
	logLevel := flag.String("log-level", "", "Log level (default: $"+logging.EnvLevel+" or info)")

	flag.Parse()

	if _, err := logging.InitLogger("bvh-render", *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}

	cfg.Resolve(config.Flags{
		Input:     flag.Arg(0),
		OutputDir: *outputDir,
		Format:    *format,
		Camera:    *camera,
		Size:      *size,
		Workers:   *workers,
	})
	if cfg.Input == "" {
		fmt.Fprintln(os.Stderr, "usage: render [flags] file.bvh")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	sk, err := bvh.ParseFile(cfg.Input)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load BVH")
	}
	log.Info().
		Str("path", cfg.Input).
		Int("joints", sk.Len()).
		Int("frames", sk.NumFrames()).
		Float64("frame_time", sk.FrameTime()).
		Msg("loaded BVH")

	frames := cfg.FrameRange(sk.NumFrames())
	if *testN > 0 && *testN < len(frames) {
		frames = frames[:*testN]
	}
	if len(frames) == 0 {
		fmt.Println("No frames to render.")
		os.Exit(0)
	}

	view, _ := viewmatrix.ForCamera(cfg.Camera, cfg.Yaw, cfg.Pitch)
	runID := batch.NewRunID()
	batchCfg := batch.Config{
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
		Workers:   cfg.Workers,
		Render: raster.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			View:        view,
			Perspective: cfg.Perspective,
			FOV:         cfg.FOV,
			Style:       raster.DefaultStyle(),
			Light:       raster.DefaultLightConfig(),
		},
	}

	fmt.Printf("BVH pose renderer -> %s\n", cfg.Format)
	fmt.Printf("Frames: %d, Workers: %d, Camera: %s\n", len(frames), cfg.Workers, cfg.Camera)
	fmt.Printf("Output: %s (run %s)\n", cfg.OutputDir, runID)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, sk, frames, batchCfg)
	elapsed := time.Since(start)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	success, failed := 0, 0
	var errs []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errs = append(errs, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(frames))

	if len(errs) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errs) < limit {
			limit = len(errs)
		}
		for _, e := range errs[:limit] {
			fmt.Printf("  frame %d: %s\n", e.Frame, e.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Warn().Err(err).Msg("cannot create output directory")
	}
	m := batch.BuildManifest(runID, cfg.Input, sk, results)
	if err := batch.WriteManifest(manifestPath, m); err != nil {
		log.Warn().Err(err).Msg("manifest write failed")
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
