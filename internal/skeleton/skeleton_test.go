package skeleton

import (
	"testing"

	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/mathutil"
)

var rootChannels = []Channel{Xposition, Yposition, Zposition, Zrotation, Xrotation, Yrotation}
var rotChannels = []Channel{Zrotation, Xrotation, Yrotation}

func mustJoint(t *testing.T, name string, offset mathutil.Vec3, channels ...Channel) *Joint {
	t.Helper()
	j, err := NewJoint(name, offset, channels...)
	if err != nil {
		t.Fatalf("new joint %q: %v", name, err)
	}
	return j
}

// hipsSpine builds Hips(6ch) -> Spine(3ch) with one frame, Hips Ypos = 100.
func hipsSpine(t *testing.T) *Skeleton {
	t.Helper()
	s := New()
	hips := mustJoint(t, "Hips", mathutil.Vec3{}, rootChannels...)
	spine := mustJoint(t, "Spine", mathutil.Vec3{0, 5.21, -1.5}, rotChannels...)
	if _, err := s.AddJoint(hips); err != nil {
		t.Fatalf("add hips: %v", err)
	}
	if _, err := s.AddJoint(spine); err != nil {
		t.Fatalf("add spine: %v", err)
	}
	if err := s.Attach(0, 1); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := s.SetRootJoint(0); err != nil {
		t.Fatalf("set root: %v", err)
	}
	s.SetFrameTime(1.0 / 30)
	if err := s.LoadMotion([][]float64{{0, 100, 0, 0, 0, 0, 0, 0, 0}}); err != nil {
		t.Fatalf("load motion: %v", err)
	}
	return s
}

// chain builds a three-joint chain with two frames of non-trivial rotations.
func chain(t *testing.T) *Skeleton {
	t.Helper()
	s := New()
	names := []string{"Hips", "Chest", "Neck", "LeftHip"}
	offsets := []mathutil.Vec3{{1, 2, 3}, {0, 10, 0}, {0, 8, 1}, {-4, 0, 0}}
	for i, n := range names {
		ch := rotChannels
		if i == 0 {
			ch = rootChannels
		}
		if _, err := s.AddJoint(mustJoint(t, n, offsets[i], ch...)); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	for _, link := range [][2]int{{0, 1}, {1, 2}, {0, 3}} {
		if err := s.Attach(link[0], link[1]); err != nil {
			t.Fatalf("attach %v: %v", link, err)
		}
	}
	if err := s.SetRootJoint(0); err != nil {
		t.Fatalf("set root: %v", err)
	}
	rows := [][]float64{
		{5, 90, -2, 10, 20, 30, 15, -5, 45, 30, 0, 0, 0, 90, 0},
		{6, 91, -1, 0, 0, 90, 45, 45, 0, -30, 10, 5, 12, 0, 7},
	}
	if err := s.LoadMotion(rows); err != nil {
		t.Fatalf("load motion: %v", err)
	}
	return s
}

func TestHipsSpineScenario(t *testing.T) {
	s := hipsSpine(t)
	if err := s.RecalculateAll(0); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	hips, _ := s.GetJoint("Hips")
	g, err := hips.GlobalTransform(0)
	if err != nil {
		t.Fatalf("hips global: %v", err)
	}
	if want := mathutil.Translate(mathutil.Vec3{0, 100, 0}); g != want {
		t.Fatalf("hips global = %v, want %v", g, want)
	}

	spine, _ := s.GetJoint("Spine")
	sg, err := spine.GlobalTransform(0)
	if err != nil {
		t.Fatalf("spine global: %v", err)
	}
	want := mathutil.Translate(mathutil.Vec3{0, 100, 0}.Add(spine.Offset()))
	if sg != want {
		t.Fatalf("spine global = %v, want %v", sg, want)
	}
}

func TestRootGlobalEqualsLocal(t *testing.T) {
	s := chain(t)
	for f := 0; f < s.NumFrames(); f++ {
		if err := s.RecalculateAll(f); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		root := s.RootJoint()
		l, _ := root.LocalTransform(f)
		g, _ := root.GlobalTransform(f)
		if l != g {
			t.Fatalf("frame %d: root global %v != local %v", f, g, l)
		}
	}
}

func TestCompositionLaw(t *testing.T) {
	s := chain(t)
	for f := 0; f < s.NumFrames(); f++ {
		if err := s.RecalculateAll(f); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		for _, j := range s.Joints() {
			if j.Parent() == NoParent {
				continue
			}
			p, _ := s.JointAt(j.Parent())
			pg, _ := p.GlobalTransform(f)
			l, _ := j.LocalTransform(f)
			g, _ := j.GlobalTransform(f)
			if want := mathutil.Mat4Mul(pg, l); g != want {
				t.Fatalf("frame %d joint %s: global %v, want %v", f, j.Name(), g, want)
			}
		}
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	s := chain(t)
	if err := s.RecalculateAll(1); err != nil {
		t.Fatal(err)
	}
	first := make([]mathutil.Mat4, s.Len())
	for i, j := range s.Joints() {
		first[i], _ = j.GlobalTransform(1)
	}
	if err := s.RecalculateAll(1); err != nil {
		t.Fatal(err)
	}
	for i, j := range s.Joints() {
		g, _ := j.GlobalTransform(1)
		if g != first[i] {
			t.Fatalf("joint %s changed between passes", j.Name())
		}
	}
}

func TestRecalculateOutOfRange(t *testing.T) {
	s := New()
	if _, err := s.AddJoint(mustJoint(t, "Hips", mathutil.Vec3{}, rootChannels...)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRootJoint(0); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMotion(make([][]float64, 3)); err == nil {
		t.Fatal("expected layout error for empty rows")
	}
	rows := [][]float64{make([]float64, 6), make([]float64, 6), make([]float64, 6)}
	if err := s.LoadMotion(rows); err != nil {
		t.Fatal(err)
	}

	for _, f := range []int{5, 3, -1} {
		if err := s.RecalculateAll(f); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("frame %d: got %v, want ErrOutOfRange", f, err)
		}
	}
}

func TestAddJointDuplicateName(t *testing.T) {
	s := hipsSpine(t)
	before, channels := s.Len(), s.NumChannels()

	dup := mustJoint(t, "Spine", mathutil.Vec3{}, Xrotation)
	if _, err := s.AddJoint(dup); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
	if s.Len() != before || s.NumChannels() != channels {
		t.Fatalf("state changed: len %d->%d channels %d->%d", before, s.Len(), channels, s.NumChannels())
	}
	if dup.Index() != NoParent {
		t.Fatalf("rejected joint got index %d", dup.Index())
	}
}

func TestLookup(t *testing.T) {
	s := hipsSpine(t)

	if _, err := s.GetJoint("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if s.HaveJoint("nonexistent") {
		t.Fatal("HaveJoint reported a missing joint")
	}
	if !s.HaveJoint("Spine") {
		t.Fatal("HaveJoint missed Spine")
	}
	idx, err := s.IndexOf("Spine")
	if err != nil || idx != 1 {
		t.Fatalf("IndexOf(Spine) = %d, %v", idx, err)
	}
	if _, err := s.JointAt(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("JointAt(7): got %v", err)
	}
	if s.NumChannels() != 9 {
		t.Fatalf("NumChannels = %d, want 9", s.NumChannels())
	}
}

func TestSubtreeRecalculation(t *testing.T) {
	s := chain(t)
	chest, _ := s.IndexOf("Chest")

	if err := s.RecalculateJointTransforms(0, chest); !errors.Is(err, ErrParentNotPosed) {
		t.Fatalf("got %v, want ErrParentNotPosed", err)
	}

	if err := s.RecalculateAll(0); err != nil {
		t.Fatal(err)
	}
	neck, _ := s.GetJoint("Neck")
	want, _ := neck.GlobalTransform(0)

	if err := neck.SetGlobalTransform(0, mathutil.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if err := s.RecalculateJointTransforms(0, chest); err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if got, _ := neck.GlobalTransform(0); got != want {
		t.Fatalf("neck after subtree pass = %v, want %v", got, want)
	}
}

func TestTraversalParentBeforeChild(t *testing.T) {
	s := chain(t)
	var order []string
	depths := map[string]int{}
	err := s.Walk(func(j *Joint, depth int) error {
		order = append(order, j.Name())
		depths[j.Name()] = depth
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Hips", "Chest", "Neck", "LeftHip"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if depths["Neck"] != 2 || depths["LeftHip"] != 1 {
		t.Fatalf("depths = %v", depths)
	}
}

func TestStructuralViolation(t *testing.T) {
	s := hipsSpine(t)
	hips := s.RootJoint()
	hips.addChild(9)
	if err := s.RecalculateAll(0); !errors.Is(err, ErrStructure) {
		t.Fatalf("missing child: got %v, want ErrStructure", err)
	}

	s = hipsSpine(t)
	s.RootJoint().addChild(1) // Spine listed twice
	if err := s.RecalculateAll(0); !errors.Is(err, ErrStructure) {
		t.Fatalf("shared child: got %v, want ErrStructure", err)
	}

	s = hipsSpine(t)
	extra := mustJoint(t, "Orphan", mathutil.Vec3{})
	idx, _ := s.AddJoint(extra)
	s.RootJoint().addChild(idx) // back-link never set
	if err := s.RecalculateAll(0); !errors.Is(err, ErrStructure) {
		t.Fatalf("one-way link: got %v, want ErrStructure", err)
	}

	if err := New().RecalculateAll(0); !errors.Is(err, ErrStructure) {
		t.Fatalf("no root: got %v", err)
	}
}

func TestAttachRules(t *testing.T) {
	s := hipsSpine(t)
	if err := s.Attach(1, 1); !errors.Is(err, ErrStructure) {
		t.Fatalf("self attach: %v", err)
	}
	if err := s.Attach(0, 1); !errors.Is(err, ErrStructure) {
		t.Fatalf("second parent: %v", err)
	}
	if err := s.Attach(1, 0); !errors.Is(err, ErrStructure) {
		t.Fatalf("root under child: %v", err)
	}
	if err := s.SetRootJoint(1); !errors.Is(err, ErrStructure) {
		t.Fatalf("root with parent: %v", err)
	}
	if err := s.Attach(0, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing child index: %v", err)
	}
}

func TestSetJoints(t *testing.T) {
	s := New()
	s.SetNumFrames(2)
	a := mustJoint(t, "A", mathutil.Vec3{}, Xrotation)
	b := mustJoint(t, "B", mathutil.Vec3{}, Xrotation, Yrotation)
	if err := s.SetJoints([]*Joint{a, b}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.NumChannels() != 3 || !s.HaveJoint("B") {
		t.Fatalf("len %d channels %d", s.Len(), s.NumChannels())
	}
	if b.Index() != 1 {
		t.Fatalf("B index = %d", b.Index())
	}

	c := mustJoint(t, "A", mathutil.Vec3{})
	if err := s.SetJoints([]*Joint{c, c}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v", err)
	}
	if s.Len() != 2 || s.NumChannels() != 3 {
		t.Fatal("failed SetJoints changed the skeleton")
	}
}

func TestFrameTiming(t *testing.T) {
	s := chain(t)
	s.SetFrameTime(0.5)
	if d := s.Duration(); d != 1 {
		t.Fatalf("duration = %v", d)
	}
	cases := []struct {
		at   float64
		want int
		err  error
	}{
		{0, 0, nil},
		{0.49, 0, nil},
		{0.5, 1, nil},
		{0.99, 1, nil},
		{1.0, 0, ErrOutOfRange},
		{-0.1, 0, ErrOutOfRange},
	}
	for _, c := range cases {
		got, err := s.FrameAt(c.at)
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Fatalf("FrameAt(%v): got %v, want %v", c.at, err, c.err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("FrameAt(%v) = %d, %v; want %d", c.at, got, err, c.want)
		}
	}

	s.SetFrameTime(0)
	if _, err := s.FrameAt(0); !errors.Is(err, ErrMotionLayout) {
		t.Fatalf("zero frame time: %v", err)
	}
}

func TestMotionLayout(t *testing.T) {
	s := hipsSpine(t)
	if err := s.CheckMotion(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := s.LoadMotion([][]float64{{1, 2, 3}}); !errors.Is(err, ErrMotionLayout) {
		t.Fatalf("short row: %v", err)
	}

	spine, _ := s.GetJoint("Spine")
	if err := spine.AppendFrame([]float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckMotion(); !errors.Is(err, ErrMotionLayout) {
		t.Fatalf("extra frame: %v", err)
	}
}

func TestPositionsRequireRecalculation(t *testing.T) {
	s := hipsSpine(t)
	if _, err := s.Positions(0); !errors.Is(err, ErrNotPosed) {
		t.Fatalf("got %v, want ErrNotPosed", err)
	}
	if err := s.RecalculateAll(0); err != nil {
		t.Fatal(err)
	}
	pos, err := s.Positions(0)
	if err != nil {
		t.Fatal(err)
	}
	spine, _ := s.GetJoint("Spine")
	if pos[0] != (mathutil.Vec3{0, 100, 0}) || pos[1] != (mathutil.Vec3{0, 100, 0}).Add(spine.Offset()) {
		t.Fatalf("positions = %v", pos)
	}
}

func TestConcurrentDistinctFrames(t *testing.T) {
	s := chain(t)
	done := make(chan error, s.NumFrames())
	for f := 0; f < s.NumFrames(); f++ {
		go func(f int) { done <- s.RecalculateAll(f) }(f)
	}
	for f := 0; f < s.NumFrames(); f++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
	for f := 0; f < s.NumFrames(); f++ {
		for _, j := range s.Joints() {
			if !j.Posed(f) {
				t.Fatalf("joint %s not posed for frame %d", j.Name(), f)
			}
		}
	}
}

func TestFailedPassLeavesFrameUnposed(t *testing.T) {
	s := hipsSpine(t)
	s.RootJoint().addChild(9)
	if err := s.RecalculateAll(0); !errors.Is(err, ErrStructure) {
		t.Fatalf("got %v, want ErrStructure", err)
	}
	if s.RootJoint().Posed(0) {
		t.Fatal("root left posed after a failed pass")
	}

	// Hips gets a second row, Spine does not: frame 1 fails below the root.
	s = hipsSpine(t)
	s.SetNumFrames(2)
	if err := s.RootJoint().AppendFrame([]float64{0, 50, 0, 0, 0, 0}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.RecalculateAll(1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
	if s.RootJoint().Posed(1) {
		t.Fatal("root left posed after a failed pass")
	}
	if _, err := s.RootJoint().GlobalTransform(1); !errors.Is(err, ErrNotPosed) {
		t.Fatalf("got %v, want ErrNotPosed", err)
	}

	if err := s.RecalculateAll(0); err != nil {
		t.Fatalf("frame 0: %v", err)
	}
	if !s.RootJoint().Posed(0) {
		t.Fatal("frame 0 not posed")
	}
}
