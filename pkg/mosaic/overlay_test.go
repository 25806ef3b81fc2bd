package mosaic

import "testing"

func TestDrawCorners(t *testing.T) {
	base := solidRGBA(60, 60, white)
	quads := []Corners{
		{Point{5, 5}, Point{55, 5}, Point{55, 55}, Point{5, 55}},
		{Point{10, 10}, Point{50, 12}, Point{48, 50}, Point{12, 48}},
	}

	out := DrawCorners(base, quads, true)
	if out.Bounds() != base.Bounds() {
		t.Errorf("overlay changed dimensions: %v", out.Bounds())
	}
	if base.RGBAAt(30, 5) != white {
		t.Error("overlay drew on the input image, not a copy")
	}
}

func TestDrawCornersNoQuads(t *testing.T) {
	out := DrawCorners(solidRGBA(10, 10, white), nil, false)
	if out.Bounds().Dx() != 10 {
		t.Errorf("got %v", out.Bounds())
	}
}
