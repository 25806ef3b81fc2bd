package mosaic

// Stitches a sequence of frames into one persistent mosaic image, given
// an external estimate of the motion between them.

import(
	"fmt"
	"image"
	"log"
	"math"

	"github.com/abworrall/video-mosaic/pkg/mmath"
)

// A MotionEstimator is the external collaborator that tracks
// accumulated 2D motion across a frame sequence.
type MotionEstimator interface {
	// Process ingests the next frame; an error means no motion could be
	// estimated for it.
	Process(frame image.Image) error
	// FirstToCurrent is the accumulated transform from the first
	// processed frame to the most recent one.
	FirstToCurrent() Model
	// Reset throws all accumulated state away.
	Reset()
	// SetToFirst re-anchors the accumulated motion so the current frame
	// becomes the first.
	SetToFirst()
}

type trackState int

const(
	statePriming  trackState = iota // no corner history yet
	stateTracking                   // previous corners are valid
)

// A Stitcher incrementally composes per-frame motion estimates into a
// single mosaic, rejecting frames whose motion looks like an estimation
// fault. Not safe for concurrent use: every method mutates shared
// buffers and transform state. One stitching session, one Stitcher.
type Stitcher struct {
	cfg    Config
	motion MotionEstimator
	warper Warper
	conv   Converter

	worldToInit Model // fixed at construction
	worldToCurr Model // working copy, overwritten every Process
	currToWorld Model // scratch for inversions
	rebaseModel Model // scratch for SetOriginToCurrent

	pixWorldToCurr PixelMap // most recent derived pixel transforms
	pixCurrToWorld PixelMap

	prevCorners *Corners
	currCorners *Corners

	// images[live] is the mosaic; the other is scratch for re-basing.
	// Both are allocated together, on the first Process call.
	images [2]*image.RGBA
	live   int

	state  trackState
	frames int // successful frames since construction/Reset
	stats  *JumpStats
}

// NewStitcher wires the engine to its collaborators. The config's
// dimensions, jump fraction and initial transform are fixed from here
// on. The motion estimator's model family must match cfg.Model.
func NewStitcher(cfg Config, motion MotionEstimator, warper Warper, conv Converter) *Stitcher {
	init := cfg.WorldToInit()
	return &Stitcher{
		cfg:         cfg,
		motion:      motion,
		warper:      warper,
		conv:        conv,
		worldToInit: init,
		worldToCurr: init.Clone(),
		currToWorld: init.Clone(),
		rebaseModel: init.Clone(),
		prevCorners: &Corners{},
		currCorners: &Corners{},
		state:       statePriming,
		stats:       NewJumpStats(max(cfg.WidthStitch, cfg.HeightStitch)),
	}
}

// New builds a Stitcher with the warper and converter the config names.
func New(cfg Config, motion MotionEstimator) *Stitcher {
	return NewStitcher(cfg, motion, cfg.GetWarper(), ModelConverter{})
}

// Process estimates the frame's motion and blends it into the mosaic.
//
// Two failures can come back, and they differ in what they leave
// behind. ErrEstimation means the estimator gave up; the mosaic is
// untouched. ErrLargeMotion means the frame's corners jumped
// improbably far; the mosaic has ALREADY been updated with the suspect
// frame - the update happens before the geometric check, exactly as the
// fault-free path requires - and the caller is expected to Reset() to
// recover a clean mosaic.
func (s *Stitcher)Process(frame image.Image) error {
	s.ensureBuffers()

	if err := s.motion.Process(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrEstimation, err)
	}

	if err := s.deriveTransforms(); err != nil {
		return err
	}

	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	s.blend(frame, fw, fh)

	if err := s.checkLargeMotion(fw, fh); err != nil {
		return err
	}

	s.frames++
	s.state = stateTracking
	return nil
}

// deriveTransforms recomputes worldToCurr (in place - the same model is
// reused every call) and the two pixel transforms, from the estimator's
// current accumulated motion.
func (s *Stitcher)deriveTransforms() error {
	if err := s.worldToInit.Concat(s.motion.FirstToCurrent(), s.worldToCurr); err != nil {
		return fmt.Errorf("compose worldToCurr: %v", err)
	}

	pixWC, err := s.conv.ConvertPixel(s.worldToCurr)
	if err != nil {
		return fmt.Errorf("convert worldToCurr: %v", err)
	}

	if err := s.worldToCurr.Invert(s.currToWorld); err != nil {
		return err // ErrDegenerateTransform
	}
	pixCW, err := s.conv.ConvertPixel(s.currToWorld)
	if err != nil {
		return fmt.Errorf("convert currToWorld: %v", err)
	}

	s.pixWorldToCurr, s.pixCurrToWorld = pixWC, pixCW
	return nil
}

// blend warps the frame into the mosaic, cropped to the box the frame
// actually lands in - the mosaic can be far larger than a frame, and
// resampling the rest of it would dominate the frame budget.
func (s *Stitcher)blend(frame image.Image, fw, fh int) {
	mosaic := s.images[s.live]
	box := BoundBox(fw, fh, s.cfg.WidthStitch, s.cfg.HeightStitch, s.pixCurrToWorld)

	s.warper.SetModel(s.pixWorldToCurr)
	if !box.Empty() {
		s.warper.Apply(frame, mosaic, box.Min.X, box.Min.Y, box.Max.X, box.Max.Y)
	}
}

// checkLargeMotion looks for a sudden jump in the mapped corner
// positions. On the first call after construction/Reset/re-basing there
// is no history, so it just primes. On a clean call it swaps the two
// corner quads rather than copying; on a fault it leaves them alone, so
// the last known-good corners remain the baseline.
func (s *Stitcher)checkLargeMotion(fw, fh int) error {
	if s.state == statePriming {
		mapCorners(s.pixCurrToWorld, fw, fh, s.prevCorners)
		return nil
	}

	mapCorners(s.pixCurrToWorld, fw, fh, s.currCorners)
	d2 := maxCornerDist2(s.prevCorners, s.currCorners)
	threshold2 := jumpThreshold2(fw, fh, s.cfg.MaxJumpFraction)

	fault := d2 > threshold2
	s.stats.Record(math.Sqrt(d2), fault)

	if fault {
		if s.cfg.Verbosity > 0 {
			log.Printf("large motion fault: corners %s -> %s\n", s.prevCorners, s.currCorners)
		}
		return fmt.Errorf("%w: corner moved %.1fpx, threshold %.1fpx",
			ErrLargeMotion, math.Sqrt(d2), math.Sqrt(threshold2))
	}

	s.prevCorners, s.currCorners = s.currCorners, s.prevCorners
	return nil
}

// Reset throws away the mosaic and all tracking state, ready to start a
// new sequence. Safe to call at any time; calling it twice is the same
// as calling it once.
func (s *Stitcher)Reset() {
	if s.images[0] != nil {
		Fill(s.images[s.live], 0)
	}
	s.motion.Reset()
	s.worldToCurr.Reset()
	s.pixWorldToCurr, s.pixCurrToWorld = nil, nil
	s.state = statePriming
	s.frames = 0
	s.stats.Reset()
}

// SetOriginToCurrent redefines the mosaic's coordinate origin to the
// current frame, bounding the numerical drift that builds up in long
// sequences. The whole existing mosaic is re-rendered into the scratch
// buffer under the new origin, the buffers swap roles, and the motion
// estimator is told to re-anchor. Must follow a successful Process.
func (s *Stitcher)SetOriginToCurrent() error {
	if s.frames == 0 {
		return fmt.Errorf("%w: SetOriginToCurrent needs a stitched frame", ErrNotReady)
	}

	if err := s.worldToCurr.Invert(s.currToWorld); err != nil {
		return err // ErrDegenerateTransform
	}
	// oldWorldToNewWorld: new-mosaic pixel -> init frame (the current
	// frame, under the new origin) -> old-mosaic pixel.
	if err := s.worldToInit.Concat(s.currToWorld, s.rebaseModel); err != nil {
		return fmt.Errorf("compose rebase transform: %v", err)
	}
	newToOld, err := s.conv.ConvertPixel(s.rebaseModel)
	if err != nil {
		return fmt.Errorf("convert rebase transform: %v", err)
	}

	scratch := s.images[1-s.live]
	Fill(scratch, 0)
	s.warper.SetModel(newToOld)
	s.warper.ApplyAll(s.images[s.live], scratch)
	s.live = 1 - s.live

	// Future motion estimates are relative to this frame, which now sits
	// at the origin - so the working transform goes back to identity and
	// the fault check re-primes.
	s.motion.SetToFirst()
	s.worldToCurr.Reset()
	s.state = statePriming

	if s.cfg.Verbosity > 0 {
		log.Printf("mosaic origin re-based to current frame\n")
	}
	return nil
}

// ensureBuffers lazily allocates the mosaic and scratch buffers, which
// always share the configured dimensions.
func (s *Stitcher)ensureBuffers() {
	if s.images[0] != nil {
		return
	}
	s.images[0] = image.NewRGBA(image.Rect(0, 0, s.cfg.WidthStitch, s.cfg.HeightStitch))
	s.images[1] = image.NewRGBA(image.Rect(0, 0, s.cfg.WidthStitch, s.cfg.HeightStitch))
	if s.cfg.Verbosity > 0 {
		log.Printf("allocated %dx%d mosaic + scratch\n", s.cfg.WidthStitch, s.cfg.HeightStitch)
	}
}

// StitchedImage is the live mosaic buffer. Callers must not hold the
// pointer across Process/Reset/SetOriginToCurrent calls: re-basing
// swaps which of the two buffers is live.
func (s *Stitcher)StitchedImage() *image.RGBA {
	s.ensureBuffers()
	return s.images[s.live]
}

// WorldToCurr is the engine's working copy of the world-to-current
// transform. Read-only for callers; it is overwritten on every Process.
func (s *Stitcher)WorldToCurr() Model {
	return s.worldToCurr
}

// WorldToCurrHomog is the canonical form of WorldToCurr.
func (s *Stitcher)WorldToCurrHomog() (mmath.Homog, error) {
	return s.conv.ConvertHomog(s.worldToCurr)
}

// FrameCorners maps the corners of a width x height frame into mosaic
// coordinates under the current transform. ok is false before the first
// frame of a sequence has been processed.
func (s *Stitcher)FrameCorners(width, height int) (c Corners, ok bool) {
	if s.pixCurrToWorld == nil {
		return
	}
	mapCorners(s.pixCurrToWorld, width, height, &c)
	return c, true
}

func (s *Stitcher)Stats() *JumpStats { return s.stats }
