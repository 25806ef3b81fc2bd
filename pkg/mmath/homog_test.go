package mmath

import (
	"math"
	"testing"
)

func TestHomogComposeMatchesAffine(t *testing.T) {
	a := Identity().Translate(3, -2).Rotate(15)
	b := Identity().Scale(1.2).Translate(-7, 4)

	ha := a.Homog().Mult(b.Homog())
	aa := a.Mult(b).Homog()
	if !ha.EqualsApprox(aa, 1e-9) {
		t.Errorf("homog composition disagrees with affine:\n%s\nvs\n%s", ha, aa)
	}
}

func TestHomogApplyPerspective(t *testing.T) {
	// Pure perspective term: w = 1 + 0.01x
	h := Homog{1, 0, 0,   0, 1, 0,   0.01, 0, 1}

	x, y := h.Apply(100, 50)
	if math.Abs(x-50) > 1e-9 || math.Abs(y-25) > 1e-9 {
		t.Errorf("got (%f,%f), want (50,25)", x, y)
	}
}

func TestHomogApplyZeroDenominator(t *testing.T) {
	h := Homog{1, 0, 0,   0, 1, 0,   1, 0, -10}

	x, y := h.Apply(10, 3)
	if x > -1e6 || y > -1e6 {
		t.Errorf("degenerate point should map far out of frame, got (%f,%f)", x, y)
	}
}

func TestHomogInvertRoundTrip(t *testing.T) {
	h := Homog{1.1, 0.05, 12,   -0.04, 0.95, -6,   0.0002, -0.0001, 1}

	inv, err := h.Invert()
	if err != nil {
		t.Fatalf("invert: %v", err)
	}
	if round := h.Mult(inv); !round.EqualsApprox(HomogIdentity(), 1e-9) {
		t.Errorf("h * h^-1 != identity:\n%s", round)
	}
}

func TestHomogInvertSingular(t *testing.T) {
	if _, err := (Homog{1, 2, 3,   2, 4, 6,   0, 0, 1}).Invert(); err == nil {
		t.Error("expected error inverting a rank-deficient homography")
	}
}

func TestHomogIsAffine(t *testing.T) {
	if !Identity().Translate(4, 4).Homog().IsAffine() {
		t.Error("lifted affine should report IsAffine")
	}
	if (Homog{1, 0, 0,   0, 1, 0,   0.01, 0, 1}).IsAffine() {
		t.Error("perspective transform should not report IsAffine")
	}
}

func TestHomogNormalize(t *testing.T) {
	h := Homog{2, 0, 6,   0, 2, -4,   0, 0, 2}

	n := h.Normalize()
	if n[8] != 1 || n[0] != 1 || n[2] != 3 || n[5] != -2 {
		t.Errorf("bad normalization: %s", n)
	}
}

func TestHomogAff3Drop(t *testing.T) {
	m := Identity().Translate(8, -3).Rotate(40)

	back := m.Homog().Aff3()
	for i:=0; i<6; i++ {
		if math.Abs(back[i]-m[i]) > 1e-9 {
			t.Fatalf("round trip through Homog lost precision: %s vs %s", back, m)
		}
	}
}
