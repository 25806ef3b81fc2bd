package mmath

// 3x3 homographies, for motion models with perspective terms

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A Homog is a full 3x3 projective transform, row-major.
type Homog [9]float64

func HomogIdentity() Homog {
	return Homog{1, 0, 0,   0, 1, 0,   0, 0, 1}
}

// Mult composes back to front, same convention as Aff3:
// (p.Mult(q)).Apply(v) == p.Apply(q.Apply(v)).
func (p Homog)Mult(q Homog) Homog {
	out := Homog{}
	for r:=0; r<3; r++ {
		for c:=0; c<3; c++ {
			out[3*r+c] = p[3*r+0]*q[3*0+c] + p[3*r+1]*q[3*1+c] + p[3*r+2]*q[3*2+c]
		}
	}
	return out
}

// Apply maps a point through the homography, with the perspective
// divide. A zero denominator maps the point far out of any plausible
// image, so pull-based resamplers will just skip it.
func (h Homog)Apply(x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return -1e12, -1e12
	}
	return (h[0]*x + h[1]*y + h[2]) / denom,   (h[3]*x + h[4]*y + h[5]) / denom
}

// Invert returns the inverse homography, or an error if the matrix is
// singular. gonum does the heavy lifting and the singularity test.
func (h Homog)Invert() (Homog, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); err != nil {
		return HomogIdentity(), fmt.Errorf("homography invert: %v", err)
	}

	out := Homog{}
	for r:=0; r<3; r++ {
		for c:=0; c<3; c++ {
			out[3*r+c] = inv.At(r, c)
		}
	}
	return out, nil
}

// IsAffine reports whether the perspective row is (0, 0, nonzero).
func (h Homog)IsAffine() bool {
	return h[6] == 0 && h[7] == 0 && h[8] != 0
}

// Normalize scales the matrix so the bottom-right element is 1, which
// makes homographies comparable. A zero there is left untouched.
func (h Homog)Normalize() Homog {
	if h[8] == 0 || h[8] == 1 {
		return h
	}
	out := Homog{}
	for i:=0; i<9; i++ {
		out[i] = h[i] / h[8]
	}
	return out
}

// Aff3 drops the perspective row. Only sensible when IsAffine().
func (h Homog)Aff3() Aff3 {
	n := h.Normalize()
	return Aff3{n[0], n[1], n[2],   n[3], n[4], n[5]}
}

func (h Homog)Det() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) - h[1]*(h[3]*h[8]-h[5]*h[6]) + h[2]*(h[3]*h[7]-h[4]*h[6])
}

// EqualsApprox compares element-wise after normalization.
func (p Homog)EqualsApprox(q Homog, tol float64) bool {
	pn, qn := p.Normalize(), q.Normalize()
	for i:=0; i<9; i++ {
		if math.Abs(pn[i]-qn[i]) > tol { return false }
	}
	return true
}

func (h Homog)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", h[0], h[1], h[2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", h[3], h[4], h[5])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", h[6], h[7], h[8])
	return str
}
