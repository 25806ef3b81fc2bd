package mosaic

import(
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// DrawCorners renders the tracked corner quads on top of a copy of the
// mosaic - a cheap way to see where each frame thought it landed, and
// to eyeball a drifting or faulting sequence. Each quad gets a stepped
// hue so neighbouring frames stay distinguishable.
func DrawCorners(mosaic image.Image, quads []Corners, label bool) image.Image {
	dc := gg.NewContextForImage(mosaic)
	dc.SetLineWidth(1.5)

	for i, q := range quads {
		dc.SetColor(colorful.Hsv(float64((i*47)%360), 0.85, 0.95))
		dc.MoveTo(q.P0.X, q.P0.Y)
		dc.LineTo(q.P1.X, q.P1.Y)
		dc.LineTo(q.P2.X, q.P2.Y)
		dc.LineTo(q.P3.X, q.P3.Y)
		dc.ClosePath()
		dc.Stroke()

		if label {
			dc.DrawString(fmt.Sprintf("%d", i), q.P0.X+4, q.P0.Y+13)
		}
	}

	return dc.Image()
}
