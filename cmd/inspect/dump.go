package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"bvh-pose-renderer/internal/skeleton"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
}

// writeTree prints the hierarchy one joint per line, indented by depth.
func writeTree(w io.Writer, sk *skeleton.Skeleton) error {
	return sk.Walk(func(j *skeleton.Joint, depth int) error {
		chans := make([]string, 0, j.ChannelCount())
		for _, c := range j.Channels() {
			chans = append(chans, c.String())
		}
		o := j.Offset()
		_, err := fmt.Fprintf(w, "%s%s [%d] offset=(%.3f, %.3f, %.3f) channels=%s\n",
			strings.Repeat("  ", depth), j.Name(), j.Index(), o[0], o[1], o[2], strings.Join(chans, ","))
		return err
	})
}

type jointPose struct {
	Name     string      `yaml:"name"`
	Parent   string      `yaml:"parent,omitempty"`
	Position [3]float64  `yaml:"position,flow"`
	Local    [16]float64 `yaml:"local,flow"`
}

type poseReport struct {
	Frame  int         `yaml:"frame"`
	Time   float64     `yaml:"time"`
	Joints []jointPose `yaml:"joints"`
}

// buildPose recalculates frame and collects every joint's transforms.
func buildPose(sk *skeleton.Skeleton, frame int) (poseReport, error) {
	rep := poseReport{Frame: frame, Time: float64(frame) * sk.FrameTime()}
	if err := sk.RecalculateAll(frame); err != nil {
		return rep, err
	}
	joints := sk.Joints()
	for _, j := range joints {
		local, err := j.LocalTransform(frame)
		if err != nil {
			return rep, err
		}
		global, err := j.GlobalTransform(frame)
		if err != nil {
			return rep, err
		}
		jp := jointPose{Name: j.Name(), Position: global.Translation(), Local: local}
		if p := j.Parent(); p != skeleton.NoParent {
			jp.Parent = joints[p].Name()
		}
		rep.Joints = append(rep.Joints, jp)
	}
	return rep, nil
}

func writeYAML(w io.Writer, rep poseReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func writeSpew(w io.Writer, a ...interface{}) error {
	_, err := io.WriteString(w, spewConfig.Sdump(a...))
	return err
}
