package raster

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/vector"

	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
	"bvh-pose-renderer/internal/viewmatrix"
)

// Style sets the stick-figure look. Widths are in output pixels and are
// multiplied by the supersample factor.
type Style struct {
	BoneWidth  float64
	JointSize  float64
	BoneColor  color.NRGBA
	JointColor color.NRGBA
	Background color.NRGBA
}

func DefaultStyle() Style {
	return Style{
		BoneWidth:  4,
		JointSize:  6,
		BoneColor:  color.NRGBA{200, 200, 210, 255},
		JointColor: color.NRGBA{230, 90, 60, 255},
	}
}

// Options for RenderPose.
type Options struct {
	Size        int
	Supersample int
	View        mathutil.Mat3
	Perspective bool
	FOV         float64
	Style       Style
	Light       LightConfig
}

type segment struct {
	x0, y0, x1, y1 float64
	depth          float64
	dir            mathutil.Vec3
}

// RenderPose draws an already recalculated frame of sk as a stick figure.
// The image is Size*Supersample pixels square; the caller downsamples.
func RenderPose(sk *skeleton.Skeleton, frame int, opts Options) (*image.NRGBA, error) {
	positions, err := sk.Positions(frame)
	if err != nil {
		return nil, err
	}
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	renderSize := opts.Size * ss
	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	if opts.Style.Background.A > 0 {
		fill(img, opts.Style.Background)
	}
	if len(positions) == 0 || renderSize == 0 {
		return img, nil
	}

	margin := 16 * ss
	proj := viewmatrix.Fit(positions, opts.View, renderSize, viewmatrix.Options{
		Margin:      margin,
		Perspective: opts.Perspective,
		FOV:         opts.FOV,
	})
	px, py, pz := viewmatrix.ProjectPoints(positions, proj)

	zMin, zMax := math.Inf(1), math.Inf(-1)
	for _, z := range pz {
		zMin = math.Min(zMin, z)
		zMax = math.Max(zMax, z)
	}
	depthT := func(z float64) float64 {
		if zMax-zMin < 1e-9 {
			return 1
		}
		return (z - zMin) / (zMax - zMin)
	}

	var segs []segment
	for i, j := range sk.Joints() {
		p := j.Parent()
		if p == skeleton.NoParent {
			continue
		}
		dir := opts.View.MulVec3(positions[i].Sub(positions[p])).Normalize()
		segs = append(segs, segment{
			x0: px[p], y0: py[p], x1: px[i], y1: py[i],
			depth: (pz[p] + pz[i]) / 2,
			dir:   dir,
		})
	}
	// Painter's order: far first.
	sort.SliceStable(segs, func(a, b int) bool { return segs[a].depth < segs[b].depth })

	lc := opts.Light
	if lc.Exposure == 0 {
		lc = DefaultLightConfig()
	}
	z := vector.NewRasterizer(renderSize, renderSize)
	halfW := opts.Style.BoneWidth * float64(ss) / 2
	for _, s := range segs {
		if !thickLine(z, s.x0, s.y0, s.x1, s.y1, halfW) {
			continue
		}
		col := lc.Apply(opts.Style.BoneColor, lc.ComputeShade(s.dir, depthT(s.depth)))
		z.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{})
		z.Reset(renderSize, renderSize)
	}

	order := make([]int, len(positions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return pz[order[a]] < pz[order[b]] })
	half := opts.Style.JointSize * float64(ss) / 2
	for _, i := range order {
		if half <= 0 {
			break
		}
		square(z, px[i], py[i], half)
		cue := 1 - lc.DepthCue*(1-depthT(pz[i]))
		col := lc.Apply(opts.Style.JointColor, (lc.Ambient+lc.Direct)*cue)
		z.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{})
		z.Reset(renderSize, renderSize)
	}
	return img, nil
}

// thickLine adds a quad of half-width hw around the segment. It reports
// false for degenerate segments.
func thickLine(z *vector.Rasterizer, x0, y0, x1, y1, hw float64) bool {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l < 1e-6 || hw <= 0 {
		return false
	}
	nx, ny := -dy/l*hw, dx/l*hw
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
	return true
}

func square(z *vector.Rasterizer, cx, cy, h float64) {
	z.MoveTo(float32(cx-h), float32(cy-h))
	z.LineTo(float32(cx+h), float32(cy-h))
	z.LineTo(float32(cx+h), float32(cy+h))
	z.LineTo(float32(cx-h), float32(cy+h))
	z.ClosePath()
}

func fill(img *image.NRGBA, c color.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}
