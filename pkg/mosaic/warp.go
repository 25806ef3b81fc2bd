package mosaic

// Pull-based resampling of a frame into a region of the mosaic

import(
	"image"
	"image/color"
	"math"
)

// A Warper renders src into a rectangular region of dst, by pulling:
// for each dst pixel, the model maps its coordinates into src and the
// warper samples there. Destination pixels whose source sample falls
// outside src are left unchanged, so repeated warps accumulate onto
// whatever is already in dst.
type Warper interface {
	SetModel(m PixelMap)
	Apply(src image.Image, dst *image.RGBA, x0, y0, x1, y1 int)
	ApplyAll(src image.Image, dst *image.RGBA)
}

// A BilinearWarper interpolates between the four source pixels around
// each sample point.
type BilinearWarper struct {
	m PixelMap
}

func NewBilinearWarper() *BilinearWarper { return &BilinearWarper{} }

func (w *BilinearWarper)SetModel(m PixelMap) { w.m = m }

func (w *BilinearWarper)ApplyAll(src image.Image, dst *image.RGBA) {
	b := dst.Bounds()
	w.Apply(src, dst, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

func (w *BilinearWarper)Apply(src image.Image, dst *image.RGBA, x0, y0, x1, y1 int) {
	if w.m == nil { return }

	sb := src.Bounds()
	for y:=y0; y<y1; y++ {
		for x:=x0; x<x1; x++ {
			sx, sy := w.m(float64(x), float64(y))
			if sx < float64(sb.Min.X) || sy < float64(sb.Min.Y) ||
				sx > float64(sb.Max.X-1) || sy > float64(sb.Max.Y-1) {
				continue
			}
			dst.SetRGBA(x, y, bilinearSample(src, sx, sy))
		}
	}
}

// A NearestWarper snaps to the nearest source pixel. Faster, blockier.
type NearestWarper struct {
	m PixelMap
}

func NewNearestWarper() *NearestWarper { return &NearestWarper{} }

func (w *NearestWarper)SetModel(m PixelMap) { w.m = m }

func (w *NearestWarper)ApplyAll(src image.Image, dst *image.RGBA) {
	b := dst.Bounds()
	w.Apply(src, dst, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

func (w *NearestWarper)Apply(src image.Image, dst *image.RGBA, x0, y0, x1, y1 int) {
	if w.m == nil { return }

	sb := src.Bounds()
	for y:=y0; y<y1; y++ {
		for x:=x0; x<x1; x++ {
			sx, sy := w.m(float64(x), float64(y))
			ix, iy := int(sx+0.5), int(sy+0.5)
			if ix < sb.Min.X || iy < sb.Min.Y || ix >= sb.Max.X || iy >= sb.Max.Y {
				continue
			}
			r, g, b, a := src.At(ix, iy).RGBA()
			dst.SetRGBA(x, y, color.RGBA{uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)})
		}
	}
}

func bilinearSample(src image.Image, x, y float64) color.RGBA {
	b := src.Bounds()

	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	ix1, iy1 := ix+1, iy+1
	if ix1 >= b.Max.X { ix1 = b.Max.X-1 }
	if iy1 >= b.Max.Y { iy1 = b.Max.Y-1 }
	fx, fy := x-float64(ix), y-float64(iy)

	r00, g00, b00, a00 := src.At(ix,  iy ).RGBA()
	r10, g10, b10, a10 := src.At(ix1, iy ).RGBA()
	r01, g01, b01, a01 := src.At(ix,  iy1).RGBA()
	r11, g11, b11, a11 := src.At(ix1, iy1).RGBA()

	lerp2 := func(v00, v10, v01, v11 uint32) uint8 {
		top := float64(v00) + (float64(v10)-float64(v00))*fx
		bot := float64(v01) + (float64(v11)-float64(v01))*fx
		return uint8(uint32(top + (bot-top)*fy + 0.5) >> 8)
	}

	return color.RGBA{
		lerp2(r00, r10, r01, r11),
		lerp2(g00, g10, g01, g11),
		lerp2(b00, b10, b01, b11),
		lerp2(a00, a10, a01, a11),
	}
}

// BoundBox is the axis-aligned box, in dst pixel coordinates, that the
// whole src image lands in after mapping through currToDst, clipped to
// the dst bounds. Only the four corners are projected; for the affine
// and homography families the image of a rectangle is a convex quad, so
// the corners bound it.
func BoundBox(srcW, srcH, dstW, dstH int, currToDst PixelMap) image.Rectangle {
	xs := [4]float64{0, float64(srcW), float64(srcW), 0}
	ys := [4]float64{0, 0, float64(srcH), float64(srcH)}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i:=0; i<4; i++ {
		x, y := currToDst(xs[i], ys[i])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	return box.Intersect(image.Rect(0, 0, dstW, dstH))
}

// Fill sets every channel of every pixel to v; v=0 is the transparent
// black background the mosaic starts from.
func Fill(img *image.RGBA, v uint8) {
	pix := img.Pix
	for i:=range pix {
		pix[i] = v
	}
}
