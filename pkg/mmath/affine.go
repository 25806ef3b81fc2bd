package mmath

// 2D affine transforms, used to describe frame-to-mosaic motion

import(
	"fmt"
	"math"

	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point, hopefully
)

// Use a local type so we can hang methods off it. Layout is the top two
// rows of a 3x3 matrix in row-major order; the bottom row is implicitly
// [0 0 1].
type Aff3 f64.Aff3

// Cut-n-pasted from image@0.7.0/draw/scale:matMul. Composes back to
// front: (p.Mult(q)).Apply(v) == p.Apply(q.Apply(v)), so q is applied
// first.
func (p Aff3)Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

func Identity() Aff3 {
	return Aff3{1, 0, 0,   0, 1, 0}
}

func (m1 Aff3)Translate(tx, ty float64) Aff3 {
	return m1.Mult(Aff3{1, 0, tx,   0, 1, ty})
}

func (m1 Aff3)Rotate(thetaDeg float64) Aff3 {
	cosTheta := math.Cos(thetaDeg * math.Pi / 180.0)
	sinTheta := math.Sin(thetaDeg * math.Pi / 180.0)
	return m1.Mult(Aff3{cosTheta, -1*sinTheta, 0,    sinTheta, cosTheta, 0})
}

func (m1 Aff3)Scale(s float64) Aff3 {
	return m1.Mult(Aff3{s, 0, 0,   0, s, 0})
}

func RotateAbout(thetaDeg, x, y float64) Aff3 {
	// Remember they compose back to front - rightmost operations performed first
	return Identity().Translate(x, y).Rotate(thetaDeg).Translate(-1*x, -1*y)
}

func (m Aff3)Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2],   m[3]*x + m[4]*y + m[5]
}

// Det is the determinant of the linear part; zero means the transform
// collapses the plane and cannot be inverted.
func (m Aff3)Det() float64 {
	return m[0]*m[4] - m[1]*m[3]
}

// Invert returns the inverse transform, or an error if the matrix is
// singular (or near enough that the inverse would be numeric garbage).
func (m Aff3)Invert() (Aff3, error) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Identity(), fmt.Errorf("affine invert: determinant %g too close to zero", det)
	}

	inv := Aff3{
		m[4] / det,   -m[1] / det,   0,
		-m[3] / det,   m[0] / det,   0,
	}
	inv[2] = -(inv[0]*m[2] + inv[1]*m[5])
	inv[5] = -(inv[3]*m[2] + inv[4]*m[5])
	return inv, nil
}

// Homog lifts the affine transform into the full 3x3 projective form.
func (m Aff3)Homog() Homog {
	return Homog{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
		0,    0,    1,
	}
}

func (m Aff3)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[0], m[1], m[2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3], m[4], m[5])
	return str
}
