package batch

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"bvh-pose-renderer/internal/skeleton"
)

// Manifest describes one batch run's output directory.
type Manifest struct {
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Joints    int             `json:"joints"`
	NumFrames int             `json:"num_frames"`
	FrameTime float64         `json:"frame_time"`
	Frames    []ManifestEntry `json:"frames"`
}

// ManifestEntry represents one rendered frame.
type ManifestEntry struct {
	Frame int        `json:"frame"`
	Time  float64    `json:"time"`
	Image string     `json:"image"`
	Root  [3]float64 `json:"root"`
}

// NewRunID returns a fresh identifier for a batch run.
func NewRunID() string {
	return uuid.NewString()
}

// BuildManifest lists the successful results in frame order of the input.
func BuildManifest(runID, source string, sk *skeleton.Skeleton, results []Result) Manifest {
	m := Manifest{
		RunID:     runID,
		Source:    source,
		Joints:    sk.Len(),
		NumFrames: sk.NumFrames(),
		FrameTime: sk.FrameTime(),
		Frames:    make([]ManifestEntry, 0, len(results)),
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Frame: r.Frame,
			Time:  float64(r.Frame) * sk.FrameTime(),
			Image: r.Image,
			Root:  r.Root,
		})
	}
	return m
}

// WriteManifest writes manifest.json to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
