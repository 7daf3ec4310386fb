package web

import (
	"bytes"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/gltfexport"
	"bvh-pose-renderer/internal/imageout"
	"bvh-pose-renderer/internal/postprocess"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/viewmatrix"
)

type JointInfo struct {
	Index    int        `json:"index"`
	Name     string     `json:"name"`
	Parent   int        `json:"parent"`
	Children []int      `json:"children"`
	Offset   [3]float64 `json:"offset"`
	Channels []string   `json:"channels"`
}

type SkeletonInfo struct {
	Source      string      `json:"source"`
	Root        int         `json:"root"`
	NumFrames   int         `json:"num_frames"`
	FrameTime   float64     `json:"frame_time"`
	NumChannels int         `json:"num_channels"`
	Joints      []JointInfo `json:"joints"`
}

type JointPose struct {
	Name     string      `json:"name"`
	Position [3]float64  `json:"position"`
	Global   [16]float64 `json:"global"`
}

type PoseInfo struct {
	Frame  int         `json:"frame"`
	Time   float64     `json:"time"`
	Joints []JointPose `json:"joints"`
}

func (s *Server) HandlerSkeleton(w http.ResponseWriter, r *http.Request) {
	info := SkeletonInfo{
		Source:      s.source,
		Root:        s.sk.RootIndex(),
		NumFrames:   s.sk.NumFrames(),
		FrameTime:   s.sk.FrameTime(),
		NumChannels: s.sk.NumChannels(),
	}
	for _, j := range s.sk.Joints() {
		ji := JointInfo{
			Index:    j.Index(),
			Name:     j.Name(),
			Parent:   j.Parent(),
			Children: j.Children(),
			Offset:   j.Offset(),
			Channels: make([]string, 0, j.ChannelCount()),
		}
		for _, c := range j.Channels() {
			ji.Channels = append(ji.Channels, c.String())
		}
		info.Joints = append(info.Joints, ji)
	}
	WriteJson(w, info)
}

func (s *Server) HandlerPose(w http.ResponseWriter, r *http.Request) {
	frame, err := frameParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	info := PoseInfo{Frame: frame, Time: float64(frame) * s.sk.FrameTime()}
	err = s.pose(frame, func() error {
		for _, j := range s.sk.Joints() {
			g, err := j.GlobalTransform(frame)
			if err != nil {
				return err
			}
			info.Joints = append(info.Joints, JointPose{
				Name:     j.Name(),
				Position: g.Translation(),
				Global:   g,
			})
		}
		return nil
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJson(w, info)
}

func (s *Server) HandlerFrameAt(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.ParseFloat(mux.Vars(r)["seconds"], 64)
	if err != nil {
		WriteError(w, badRequest{errors.Errorf("seconds %q is not a number", mux.Vars(r)["seconds"])})
		return
	}
	frame, err := s.sk.FrameAt(seconds)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJson(w, map[string]int{"frame": frame})
}

// HandlerRender returns a WebP image. Optional query: size, camera, yaw, pitch.
func (s *Server) HandlerRender(w http.ResponseWriter, r *http.Request) {
	frame, err := frameParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	opts := s.render
	q := r.URL.Query()
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > 4096 {
			WriteError(w, badRequest{errors.Errorf("bad size %q", v)})
			return
		}
		opts.Size = size
	}
	if q.Get("camera") != "" || q.Get("yaw") != "" || q.Get("pitch") != "" {
		camera := q.Get("camera")
		if camera == "" {
			camera = s.camera
		}
		yaw, err := angleParam(q.Get("yaw"))
		if err != nil {
			WriteError(w, err)
			return
		}
		pitch, err := angleParam(q.Get("pitch"))
		if err != nil {
			WriteError(w, err)
			return
		}
		view, err := viewmatrix.ForCamera(camera, yaw, pitch)
		if err != nil {
			WriteError(w, badRequest{err})
			return
		}
		opts.View = view
	}

	var buf bytes.Buffer
	err = s.pose(frame, func() error {
		img, err := raster.RenderPose(s.sk, frame, opts)
		if err != nil {
			return err
		}
		if opts.Supersample > 1 {
			img = postprocess.Downsample(img, opts.Size)
		}
		return imageout.Encode(&buf, img, imageout.FormatWebP)
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/webp")
	WriteResult(w, buf.Bytes())
}

func (s *Server) HandlerExport(w http.ResponseWriter, r *http.Request) {
	frame, err := frameParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	err = s.pose(frame, func() error {
		doc, err := gltfexport.Build(s.sk, frame, gltfexport.Options{})
		if err != nil {
			return err
		}
		return gltfexport.Encode(&buf, doc, true)
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "model/gltf-binary")
	WriteResult(w, buf.Bytes())
}

func frameParam(r *http.Request) (int, error) {
	v := mux.Vars(r)["frame"]
	frame, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest{errors.Errorf("frame %q is not an integer", v)}
	}
	return frame, nil
}

// angleParam parses an optional angle in degrees; empty means 0.
func angleParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	a, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, badRequest{errors.Errorf("bad angle %q", v)}
	}
	return a, nil
}
