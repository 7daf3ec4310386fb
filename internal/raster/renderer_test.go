package raster

import (
	"image/color"
	"testing"

	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
)

func twoBone(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	s := skeleton.New()
	root, err := skeleton.NewJoint("Hips", mathutil.Vec3{}, skeleton.Yposition)
	if err != nil {
		t.Fatal(err)
	}
	head, _ := skeleton.NewJoint("Head", mathutil.Vec3{0, 10, 0})
	s.AddJoint(root)
	s.AddJoint(head)
	if err := s.Attach(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRootJoint(0); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMotion([][]float64{{0}, {3}}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRenderPose(t *testing.T) {
	s := twoBone(t)
	if err := s.RecalculateAll(0); err != nil {
		t.Fatal(err)
	}
	img, err := RenderPose(s, 0, Options{
		Size:        64,
		Supersample: 2,
		View:        mathutil.ViewFront,
		Style:       DefaultStyle(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("bounds = %v", b)
	}
	if a := img.NRGBAAt(64, 64).A; a != 255 {
		t.Fatalf("bone midpoint alpha = %d", a)
	}
	if a := img.NRGBAAt(2, 2).A; a != 0 {
		t.Fatalf("corner alpha = %d", a)
	}
	// Joint squares are drawn over the bone in the joint color.
	top := img.NRGBAAt(64, 32)
	if top.R <= top.B {
		t.Fatalf("joint color at head = %v", top)
	}
}

func TestRenderPoseBackground(t *testing.T) {
	s := twoBone(t)
	s.RecalculateAll(1)
	style := DefaultStyle()
	style.Background = color.NRGBA{10, 20, 30, 255}
	img, err := RenderPose(s, 1, Options{Size: 32, View: mathutil.ViewSide, Style: style})
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c != style.Background {
		t.Fatalf("background = %v", c)
	}
}

func TestRenderPoseRequiresRecalculation(t *testing.T) {
	s := twoBone(t)
	_, err := RenderPose(s, 1, Options{Size: 32, View: mathutil.ViewFront, Style: DefaultStyle()})
	if !errors.Is(err, skeleton.ErrNotPosed) {
		t.Fatalf("got %v, want ErrNotPosed", err)
	}
}

func TestComputeShadeDepthCue(t *testing.T) {
	lc := DefaultLightConfig()
	dir := mathutil.Vec3{0, 1, 0}
	if near, far := lc.ComputeShade(dir, 1), lc.ComputeShade(dir, 0); near <= far {
		t.Fatalf("near %v not brighter than far %v", near, far)
	}
	c := lc.Apply(color.NRGBA{200, 200, 200, 128}, 1)
	if c.A != 128 {
		t.Fatalf("alpha changed: %v", c)
	}
}
