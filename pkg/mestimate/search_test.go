package mestimate

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/abworrall/video-mosaic/pkg/mmath"
)

// patternVal is a smooth texture built from two sine waves whose
// periods are not integers and point in different directions: no
// integer translation inside the search window maps it onto itself, so
// the error surface has exactly one zero, at the true offset, and grows
// smoothly away from it - which is what the coarse pass needs to steer
// the fine pass correctly.
func patternVal(x, y float64) uint8 {
	return uint8(128 + 50*math.Sin(x*0.37+y*0.21) + 50*math.Sin(x*0.11-y*0.33))
}

// patternGray renders the texture with its origin shifted by (dx,dy):
// pix(x,y) = pattern(x-dx, y-dy), so the content moves by +(dx,dy) and
// the match at that offset is exact.
func patternGray(w, h, dx, dy int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			g.SetGray(x, y, color.Gray{Y: patternVal(float64(x-dx), float64(y-dy))})
		}
	}
	return g
}

func TestSearchFirstFrameAnchors(t *testing.T) {
	sm := NewSearchMotion(6)

	if err := sm.Process(patternGray(64, 64, 0, 0)); err != nil {
		t.Fatal(err)
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity())
}

func TestSearchRecoversTranslation(t *testing.T) {
	sm := NewSearchMotion(6)

	if err := sm.Process(patternGray(64, 64, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := sm.Process(patternGray(64, 64, 3, 2)); err != nil {
		t.Fatal(err)
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity().Translate(3, 2))
}

func TestSearchAccumulates(t *testing.T) {
	sm := NewSearchMotion(6)

	shifts := [][2]int{{0, 0}, {4, 0}, {8, -2}} // cumulative content offsets
	for _, s := range shifts {
		if err := sm.Process(patternGray(64, 64, s[0], s[1])); err != nil {
			t.Fatal(err)
		}
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity().Translate(8, -2))
}

func TestSearchNonGrayInput(t *testing.T) {
	rgb := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y:=0; y<64; y++ {
		for x:=0; x<64; x++ {
			v := patternVal(float64(x), float64(y))
			rgb.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}

	sm := NewSearchMotion(6)
	if err := sm.Process(rgb); err != nil {
		t.Fatal(err)
	}
	if err := sm.Process(rgb); err != nil {
		t.Fatal(err)
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity())
}

func TestSearchInsufficientOverlap(t *testing.T) {
	sm := NewSearchMotion(6)
	sm.MinOverlap = 1.5 // unattainable: every candidate gets rejected

	if err := sm.Process(patternGray(64, 64, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := sm.Process(patternGray(64, 64, 1, 0)); err == nil {
		t.Error("expected an estimation failure with no usable overlap")
	}
}

func TestSearchReset(t *testing.T) {
	sm := NewSearchMotion(6)

	if err := sm.Process(patternGray(64, 64, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := sm.Process(patternGray(64, 64, 3, 0)); err != nil {
		t.Fatal(err)
	}

	sm.Reset()
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity())

	// After Reset the next frame anchors again
	if err := sm.Process(patternGray(64, 64, 5, 5)); err != nil {
		t.Fatal(err)
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity())
}

func TestSearchSetToFirst(t *testing.T) {
	sm := NewSearchMotion(6)

	if err := sm.Process(patternGray(64, 64, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := sm.Process(patternGray(64, 64, 3, 0)); err != nil {
		t.Fatal(err)
	}

	sm.SetToFirst()
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity())

	// prev is kept: further motion is measured from the re-anchored frame
	if err := sm.Process(patternGray(64, 64, 5, 0)); err != nil {
		t.Fatal(err)
	}
	approxEq(t, aff(sm.FirstToCurrent()), mmath.Identity().Translate(2, 0))
}
