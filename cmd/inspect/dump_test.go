package main

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"bvh-pose-renderer/internal/bvh"
)

func TestWriteTree(t *testing.T) {
	sk, err := bvh.ParseFile("../../internal/bvh/testdata/walk.bvh")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeTree(&buf, sk); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Hips [0]") || !strings.HasPrefix(lines[3], "      Neck_End [3]") {
		t.Fatalf("unexpected tree:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[4], "  LeftHip [4]") {
		t.Fatalf("sibling order:\n%s", buf.String())
	}
}

func TestPoseYAML(t *testing.T) {
	sk, err := bvh.ParseFile("../../internal/bvh/testdata/walk.bvh")
	if err != nil {
		t.Fatal(err)
	}
	rep, err := buildPose(sk, 1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeYAML(&buf, rep); err != nil {
		t.Fatal(err)
	}

	var back poseReport
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.Frame != 1 || len(back.Joints) != 6 || back.Joints[4].Parent != "Hips" {
		t.Fatalf("report = %+v", back)
	}
	if back.Joints[0].Position != [3]float64{1, 100, 0} {
		t.Fatalf("root position = %v", back.Joints[0].Position)
	}

	if _, err := buildPose(sk, 7); err == nil {
		t.Fatal("frame 7 accepted")
	}
}

func TestWriteSpew(t *testing.T) {
	sk, err := bvh.ParseFile("../../internal/bvh/testdata/walk.bvh")
	if err != nil {
		t.Fatal(err)
	}
	j, _ := sk.GetJoint("Chest")
	var buf bytes.Buffer
	if err := writeSpew(&buf, j); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Chest") {
		t.Fatalf("dump missing joint name:\n%s", buf.String())
	}
}
