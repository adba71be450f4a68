package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Homography is a 3x3 planar projective transform stored row-major.
type Homography [9]float64

// Apply maps (x, y) through the transform, returning the projected point.
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// solveHomography computes the transform mapping each src[i] to dst[i] for
// four point correspondences. The eight unknowns (the ninth entry is fixed to
// 1) come from the standard direct linear system; a singular system means the
// points are collinear or coincident.
func solveHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		u, v := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{u, v, 1, 0, 0, 0, -u * x, -v * x})
		a.SetRow(2*i+1, []float64{0, 0, 0, u, v, 1, -u * y, -v * y})
		b.SetVec(2*i, x)
		b.SetVec(2*i+1, y)
	}

	var p mat.VecDense
	if err := p.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = p.AtVec(i)
	}
	h[8] = 1
	return h, nil
}
