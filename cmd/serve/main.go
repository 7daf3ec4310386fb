package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/config"
	"bvh-pose-renderer/internal/logging"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/viewmatrix"
	"bvh-pose-renderer/internal/web"
)

func main() {
	configFile := flag.String("config", "", "Path to a .json or .toml config file")
	listen := flag.String("listen", "", "Listen address (default: :8000)")
	camera := flag.String("camera", "", "Default camera for /render")
	size := flag.Int("size", 0, "Default image size for /render")
	logLevel := flag.String("log-level", "", "Log level")
	flag.Parse()

	if _, err := logging.InitLogger("bvh-serve", *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}
	cfg.Resolve(config.Flags{Input: flag.Arg(0), Listen: *listen, Camera: *camera, Size: *size})
	if cfg.Input == "" {
		fmt.Fprintln(os.Stderr, "usage: serve [flags] file.bvh")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	sk, err := bvh.ParseFile(cfg.Input)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load BVH")
	}

	view, _ := viewmatrix.ForCamera(cfg.Camera, cfg.Yaw, cfg.Pitch)
	srv := web.NewServer(sk, cfg.Input, raster.Options{
		Size:        cfg.RenderSize,
		Supersample: cfg.Supersample,
		View:        view,
		Perspective: cfg.Perspective,
		FOV:         cfg.FOV,
		Style:       raster.DefaultStyle(),
		Light:       raster.DefaultLightConfig(),
	}, cfg.Camera)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
