package mosaic

// Frame corner tracking, used to catch runaway motion estimates

import "fmt"

type Point struct {
	X, Y float64
}

func (p Point)dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Corners are the mosaic-space locations of the four frame corners, in
// the fixed order top-left, top-right, bottom-right, bottom-left. The
// order matters: the fault check compares corner to corner.
type Corners struct {
	P0, P1, P2, P3 Point
}

func (c Corners)String() string {
	return fmt.Sprintf("[(%.1f,%.1f) (%.1f,%.1f) (%.1f,%.1f) (%.1f,%.1f)]",
		c.P0.X, c.P0.Y, c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y)
}

// mapCorners projects the frame corners (0,0) (w,0) (w,h) (0,h) through
// currToWorld into the reused output quad.
func mapCorners(currToWorld PixelMap, width, height int, out *Corners) {
	w, h := float64(width), float64(height)
	out.P0.X, out.P0.Y = currToWorld(0, 0)
	out.P1.X, out.P1.Y = currToWorld(w, 0)
	out.P2.X, out.P2.Y = currToWorld(w, h)
	out.P3.X, out.P3.Y = currToWorld(0, h)
}

// maxCornerDist2 is the largest squared displacement across the four
// corner pairs.
func maxCornerDist2(prev, curr *Corners) float64 {
	d2 := prev.P0.dist2(curr.P0)
	if d := prev.P1.dist2(curr.P1); d > d2 { d2 = d }
	if d := prev.P2.dist2(curr.P2); d > d2 { d2 = d }
	if d := prev.P3.dist2(curr.P3); d > d2 { d2 = d }
	return d2
}

// jumpThreshold2 is the squared fault threshold: a fraction of the
// larger frame dimension, squared so the per-corner compare avoids a
// square root.
func jumpThreshold2(width, height int, maxJumpFraction float64) float64 {
	size := width
	if height > size { size = height }
	t := float64(size) * maxJumpFraction
	return t * t
}
