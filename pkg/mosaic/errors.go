package mosaic

import "errors"

var(
	// ErrEstimation means the motion estimator could not process the
	// frame. The mosaic is untouched; retry with the next frame, or Reset.
	ErrEstimation = errors.New("motion estimation failed")

	// ErrLargeMotion means a frame's corners jumped further than the
	// configured fraction of the frame size. The mosaic has already been
	// updated with the suspect frame; callers are expected to Reset.
	ErrLargeMotion = errors.New("improbably large motion")

	// ErrDegenerateTransform means a motion model could not be inverted.
	ErrDegenerateTransform = errors.New("degenerate motion transform")

	// ErrNotReady means SetOriginToCurrent was called before any frame
	// had been stitched successfully.
	ErrNotReady = errors.New("no frame stitched yet")

	errModelFamily = errors.New("mismatched motion model family")
)
