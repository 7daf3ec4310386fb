package viewmatrix

import (
	"fmt"
	"math"
	"strings"

	"bvh-pose-renderer/internal/mathutil"
)

// Camera preset names accepted by ForCamera.
const (
	CameraFront        = "front"
	CameraSide         = "side"
	CameraThreeQuarter = "three-quarter"
	CameraOrbit        = "orbit"
)

// DefaultFOV is the vertical field of view used when perspective is on and no FOV is given.
const DefaultFOV = 35.0

// ForCamera builds the 3×3 view matrix for a camera preset.
// yaw and pitch (degrees) are only read for CameraOrbit.
func ForCamera(name string, yaw, pitch float64) (mathutil.Mat3, error) {
	switch strings.ToLower(name) {
	case "", CameraFront:
		return mathutil.ViewFront, nil
	case CameraSide:
		return mathutil.ViewSide, nil
	case CameraThreeQuarter:
		return mathutil.ViewThreeQuarter, nil
	case CameraOrbit:
		return mathutil.ViewOrbit(yaw, pitch), nil
	}
	return mathutil.Mat3{}, fmt.Errorf("viewmatrix: unknown camera %q", name)
}

// Options control how a pose is fitted to the canvas.
type Options struct {
	Margin      int // pixels kept clear on each side
	Perspective bool
	FOV         float64
}

// Projection maps view-space points to screen pixels.
type Projection struct {
	R      mathutil.Mat3
	Center [3]float64
	Scale  float64
	Half   float64

	perspective  bool
	camDist      float64
	perspZCenter float64
}

// Fit computes a projection that centers the view-space bounding box of
// points in a renderSize square, leaving opts.Margin pixels on each side.
func Fit(points []mathutil.Vec3, R mathutil.Mat3, renderSize int, opts Options) Projection {
	p := Projection{R: R, Half: float64(renderSize) / 2, Scale: 1}
	if len(points) == 0 {
		return p
	}

	allMin := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	allMax := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range points {
		tv := R.MulVec3(v)
		for k := 0; k < 3; k++ {
			if tv[k] < allMin[k] {
				allMin[k] = tv[k]
			}
			if tv[k] > allMax[k] {
				allMax[k] = tv[k]
			}
		}
	}
	for k := 0; k < 3; k++ {
		p.Center[k] = (allMin[k] + allMax[k]) / 2
	}

	span := math.Max(allMax[0]-allMin[0], allMax[1]-allMin[1])
	if span < 0.001 {
		span = 0.001
	}

	if opts.Perspective {
		fov := opts.FOV
		if fov <= 0 {
			fov = DefaultFOV
		}
		xyMax := span / 2
		p.perspective = true
		p.perspZCenter = p.Center[2]
		p.camDist = xyMax / math.Tan(mathutil.Deg2Rad(fov/2))
		// Near points grow by up to camDist/(camDist-zHalf); widen the span to match.
		zHalf := (allMax[2] - allMin[2]) / 2
		if near := p.camDist - zHalf; near > 0.1 {
			span *= p.camDist / near
		}
	}

	usable := renderSize - 2*opts.Margin
	if usable < 1 {
		usable = 1
	}
	p.Scale = float64(usable) / span
	return p
}

// Project returns screen x, y and view depth for a world-space point.
// Larger depth is closer to the camera.
func (p Projection) Project(v mathutil.Vec3) (x, y, z float64) {
	t := p.R.MulVec3(v)
	if p.perspective {
		zOff := t[2] - p.perspZCenter
		depth := math.Max(p.camDist-zOff, 0.1)
		factor := p.camDist / depth
		t[0] = (t[0]-p.Center[0])*factor + p.Center[0]
		t[1] = (t[1]-p.Center[1])*factor + p.Center[1]
	}
	x = (t[0]-p.Center[0])*p.Scale + p.Half
	y = -(t[1]-p.Center[1])*p.Scale + p.Half
	return x, y, t[2]
}

// ProjectPoints transforms world points to screen coordinates.
// Returns px, py, pz slices (screen X, screen Y, depth).
func ProjectPoints(points []mathutil.Vec3, p Projection) ([]float64, []float64, []float64) {
	n := len(points)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	for i, v := range points {
		px[i], py[i], pz[i] = p.Project(v)
	}
	return px, py, pz
}
