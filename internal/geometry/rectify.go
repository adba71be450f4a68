package geometry

import (
	"image"
	"image/draw"
	"math"
)

// Rectify resamples the quadrilateral delimited by c out of src into a flat
// W×H frame, where W and H follow from TargetSize. Pixels that map outside
// the source bounds come out black.
func Rectify(src image.Image, c Corners, ar AspectRatio) (*image.RGBA, error) {
	w, h, err := TargetSize(c, ar)
	if err != nil {
		return nil, err
	}

	// Inverse mapping: solve for the transform that carries target corners
	// back onto the source quadrilateral, then pull each target pixel from
	// its source position.
	target := [4]Point{
		{0, 0},
		{float64(w), 0},
		{float64(w), float64(h)},
		{0, float64(h)},
	}
	inv, err := solveHomography(target, c.points())
	if err != nil {
		return nil, err
	}

	rgba := toRGBA(src)
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			r, g, b := sampleBilinear(rgba, sx, sy)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 0xff
		}
	}
	return out, nil
}

// toRGBA normalises any image to RGBA with its origin at (0, 0).
func toRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok && r.Bounds().Min == image.Pt(0, 0) {
		return r
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// sampleBilinear reads src at a fractional position, blending the four
// surrounding pixels. Positions outside the bounds contribute black.
func sampleBilinear(src *image.RGBA, x, y float64) (r, g, b uint8) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	var acc [3]float64
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			wx := fx
			if dx == 0 {
				wx = 1 - fx
			}
			wy := fy
			if dy == 0 {
				wy = 1 - fy
			}
			weight := wx * wy
			if weight == 0 {
				continue
			}
			pr, pg, pb := pixelAt(src, x0+dx, y0+dy)
			acc[0] += weight * float64(pr)
			acc[1] += weight * float64(pg)
			acc[2] += weight * float64(pb)
		}
	}
	return uint8(acc[0] + 0.5), uint8(acc[1] + 0.5), uint8(acc[2] + 0.5)
}

func pixelAt(src *image.RGBA, x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= src.Rect.Dx() || y >= src.Rect.Dy() {
		return 0, 0, 0
	}
	i := src.PixOffset(x, y)
	return src.Pix[i], src.Pix[i+1], src.Pix[i+2]
}
