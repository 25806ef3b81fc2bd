package mosaic

// Diagnostics on frame-to-frame corner displacement

import(
	"fmt"

	"github.com/skypies/util/histogram"
)

// JumpStats accumulates the per-frame maximum corner displacement, in
// pixels. Large-but-under-threshold jumps showing up here are usually
// the first sign that MaxJumpFraction needs tuning for a scene.
type JumpStats struct {
	Frames   int      // frames whose jump was measured; priming frames have no baseline so don't count
	Faults   int      // frames rejected for jumping too far
	MaxJump  float64  // largest displacement seen, pixels
	hist     histogram.Histogram
	maxPix   int
}

func NewJumpStats(maxPix int) *JumpStats {
	if maxPix <= 0 { maxPix = 256 }
	return &JumpStats{
		hist:   histogram.Histogram{NumBuckets: 64, ValMin: 0, ValMax: histogram.ScalarVal(maxPix)},
		maxPix: maxPix,
	}
}

func (js *JumpStats)Record(jumpPix float64, fault bool) {
	js.Frames++
	if fault { js.Faults++ }
	if jumpPix > js.MaxJump { js.MaxJump = jumpPix }
	js.hist.Add(histogram.ScalarVal(int(jumpPix)))
}

func (js *JumpStats)Reset() {
	js.Frames, js.Faults, js.MaxJump = 0, 0, 0
	js.hist = histogram.Histogram{NumBuckets: 64, ValMin: 0, ValMax: histogram.ScalarVal(js.maxPix)}
}

func (js *JumpStats)String() string {
	return fmt.Sprintf("JumpStats[%d frames, %d faults, max %.1fpx] %s",
		js.Frames, js.Faults, js.MaxJump, js.hist.String())
}
