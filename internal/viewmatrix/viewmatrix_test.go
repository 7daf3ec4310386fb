package viewmatrix

import (
	"math"
	"testing"

	"bvh-pose-renderer/internal/mathutil"
)

func TestForCamera(t *testing.T) {
	for _, name := range []string{"", "front", "Side", "three-quarter", "orbit"} {
		if _, err := ForCamera(name, 30, 5); err != nil {
			t.Fatalf("ForCamera(%q): %v", name, err)
		}
	}
	if _, err := ForCamera("top", 0, 0); err == nil {
		t.Fatal("unknown camera accepted")
	}
	r, _ := ForCamera("front", 0, 0)
	if r != mathutil.Mat3Identity() {
		t.Fatalf("front = %v", r)
	}
}

func TestFitCentersAndFills(t *testing.T) {
	points := []mathutil.Vec3{{0, 100, 0}, {0, 200, 0}, {-10, 150, 5}}
	p := Fit(points, mathutil.ViewFront, 256, Options{Margin: 16})

	x, y, _ := p.Project(mathutil.Vec3{0, 150, 0})
	if math.Abs(y-128) > 1e-9 {
		t.Fatalf("center y = %v", y)
	}
	if math.Abs(x-(128+5*p.Scale)) > 1e-9 {
		t.Fatalf("center x = %v", x)
	}

	_, top, _ := p.Project(mathutil.Vec3{0, 200, 0})
	_, bottom, _ := p.Project(mathutil.Vec3{0, 100, 0})
	if math.Abs(top-16) > 1e-9 || math.Abs(bottom-240) > 1e-9 {
		t.Fatalf("top %v bottom %v", top, bottom)
	}
}

func TestFitPerspectiveStaysInside(t *testing.T) {
	points := []mathutil.Vec3{{-50, 0, -50}, {50, 100, 50}, {0, 50, 0}}
	p := Fit(points, mathutil.ViewThreeQuarter, 200, Options{Margin: 10, Perspective: true})
	px, py, _ := ProjectPoints(points, p)
	for i := range px {
		if px[i] < 0 || px[i] > 200 || py[i] < 0 || py[i] > 200 {
			t.Fatalf("point %d projected to (%v, %v)", i, px[i], py[i])
		}
	}
}

func TestFitEmpty(t *testing.T) {
	p := Fit(nil, mathutil.ViewFront, 64, Options{})
	x, y, _ := p.Project(mathutil.Vec3{})
	if x != 32 || y != 32 {
		t.Fatalf("empty fit projects origin to (%v, %v)", x, y)
	}
}
