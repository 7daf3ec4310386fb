package raster

import (
	"image/color"
	"math"

	"bvh-pose-renderer/internal/mathutil"
)

// LightConfig holds precomputed shading parameters for bone segments.
type LightConfig struct {
	LightDir  mathutil.Vec3
	RimDir    mathutil.Vec3
	Ambient   float64
	Direct    float64
	Rim       float64
	DepthCue  float64 // how much the farthest bone is darkened, 0..1
	Exposure  float64
	SRGBGamma float64
	InvGamma  float64
}

// DefaultLightConfig returns the standard three-quarter key light with a cool rim.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir:  mathutil.Vec3{180, 260, 140}.Normalize(),
		RimDir:    mathutil.Vec3{-160, 130, -210}.Normalize(),
		Ambient:   0.55,
		Direct:    0.90,
		Rim:       0.35,
		DepthCue:  0.45,
		Exposure:  1.05,
		SRGBGamma: 2.2,
		InvGamma:  1.0 / 2.2,
	}
}

// ComputeShade returns the lighting scalar for a bone with view-space
// direction dir. depthT is 0 for the farthest bone and 1 for the nearest.
func (lc *LightConfig) ComputeShade(dir mathutil.Vec3, depthT float64) float64 {
	// A thin cylinder is lit by the component of the light across its axis.
	across := func(l mathutil.Vec3) float64 {
		d := dir.Dot(l)
		return math.Sqrt(math.Max(0, 1-d*d))
	}
	shade := lc.Ambient + across(lc.LightDir)*lc.Direct + across(lc.RimDir)*lc.Rim
	cue := 1 - lc.DepthCue*(1-clamp01(depthT))
	return shade * cue
}

// Apply scales an sRGB base color by shade in linear space with tone mapping.
func (lc *LightConfig) Apply(c color.NRGBA, shade float64) color.NRGBA {
	ch := func(v uint8) uint8 {
		lin := srgbToLinear[v] * shade * lc.Exposure
		out := math.Pow(ACESTonemap(lin), lc.InvGamma)
		return uint8(clamp01(out)*255 + 0.5)
	}
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: c.A}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
