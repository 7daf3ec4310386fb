package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/imageout"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/postprocess"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/skeleton"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir string
	Format    string
	Render    raster.Options
	Workers   int
	// ProgressEvery is the progress log interval; 0 means two seconds.
	ProgressEvery time.Duration
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Frame   int
	Image   string // path relative to OutputDir
	Root    mathutil.Vec3
	Success bool
	Error   string
}

// FrameFile is the output file name for frame.
func FrameFile(frame int, format string) string {
	return fmt.Sprintf("frame_%05d%s", frame, imageout.Ext(format))
}

// Run renders frames using a worker pool. Every worker handles distinct
// frames of the shared skeleton. Frames not started before ctx is done are
// reported with the context error.
func Run(ctx context.Context, sk *skeleton.Skeleton, frames []int, cfg Config) []Result {
	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info().Int64("done", p).Int("total", total).Float64("fps", rate).Msg("rendering")
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range frameChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Frame: frames[idx], Error: err.Error()}
				} else {
					results[idx] = processFrame(sk, frames[idx], cfg)
				}
				processed.Add(1)
			}
		}()
	}

	for i := range frames {
		frameChan <- i
	}
	close(frameChan)

	wg.Wait()
	close(done)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			log.Warn().Int("frame", r.Frame).Str("error", r.Error).Msg("frame failed")
		}
	}
	log.Info().Int("frames", total).Int("failed", failed).Dur("elapsed", time.Since(start)).Msg("batch finished")
	return results
}

func processFrame(sk *skeleton.Skeleton, frame int, cfg Config) Result {
	res := Result{Frame: frame}
	if err := sk.RecalculateAll(frame); err != nil {
		res.Error = err.Error()
		return res
	}
	if root := sk.RootJoint(); root != nil {
		if g, err := root.GlobalTransform(frame); err == nil {
			res.Root = g.Translation()
		}
	}

	img, err := raster.RenderPose(sk, frame, cfg.Render)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if cfg.Render.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Render.Size)
	}

	res.Image = FrameFile(frame, cfg.Format)
	if err := imageout.WriteFile(filepath.Join(cfg.OutputDir, res.Image), img, cfg.Format); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}
