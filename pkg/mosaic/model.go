package mosaic

import(
	"fmt"

	"github.com/abworrall/video-mosaic/pkg/mmath"
)

// A Model is an invertible 2D transform describing accumulated camera
// motion. The family is deliberately closed: affine covers
// stabilization-style motion, homography covers full perspective
// mosaics. Models are mutable so the hot path can reuse them call after
// call instead of allocating.
type Model interface {
	// Reset sets the model to identity.
	Reset()
	// Set copies src into the receiver. Fails if src is a different family.
	Set(src Model) error
	// Concat writes (next after the receiver) into dst: the receiver is
	// applied first. dst must not alias the receiver or next.
	Concat(next, dst Model) error
	// Invert writes the inverse into dst, or fails with
	// ErrDegenerateTransform if the model is (numerically) singular.
	Invert(dst Model) error
	// Clone allocates a fresh same-family copy.
	Clone() Model
}

// An AffineModel wraps an mmath.Aff3.
type AffineModel struct {
	M mmath.Aff3
}

func NewAffineModel() *AffineModel {
	return &AffineModel{M: mmath.Identity()}
}

func (a *AffineModel)Reset() { a.M = mmath.Identity() }

func (a *AffineModel)Set(src Model) error {
	s, ok := src.(*AffineModel)
	if !ok {
		return fmt.Errorf("affine Set: %w (got %T)", errModelFamily, src)
	}
	a.M = s.M
	return nil
}

func (a *AffineModel)Concat(next, dst Model) error {
	n, ok1 := next.(*AffineModel)
	d, ok2 := dst.(*AffineModel)
	if !ok1 || !ok2 {
		return fmt.Errorf("affine Concat: %w (got %T, %T)", errModelFamily, next, dst)
	}
	d.M = n.M.Mult(a.M) // receiver applied first
	return nil
}

func (a *AffineModel)Invert(dst Model) error {
	d, ok := dst.(*AffineModel)
	if !ok {
		return fmt.Errorf("affine Invert: %w (got %T)", errModelFamily, dst)
	}
	inv, err := a.M.Invert()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateTransform, err)
	}
	d.M = inv
	return nil
}

func (a *AffineModel)Clone() Model { return &AffineModel{M: a.M} }

// A HomogModel wraps an mmath.Homog.
type HomogModel struct {
	H mmath.Homog
}

func NewHomogModel() *HomogModel {
	return &HomogModel{H: mmath.HomogIdentity()}
}

func (h *HomogModel)Reset() { h.H = mmath.HomogIdentity() }

func (h *HomogModel)Set(src Model) error {
	s, ok := src.(*HomogModel)
	if !ok {
		return fmt.Errorf("homog Set: %w (got %T)", errModelFamily, src)
	}
	h.H = s.H
	return nil
}

func (h *HomogModel)Concat(next, dst Model) error {
	n, ok1 := next.(*HomogModel)
	d, ok2 := dst.(*HomogModel)
	if !ok1 || !ok2 {
		return fmt.Errorf("homog Concat: %w (got %T, %T)", errModelFamily, next, dst)
	}
	d.H = n.H.Mult(h.H) // receiver applied first
	return nil
}

func (h *HomogModel)Invert(dst Model) error {
	d, ok := dst.(*HomogModel)
	if !ok {
		return fmt.Errorf("homog Invert: %w (got %T)", errModelFamily, dst)
	}
	inv, err := h.H.Invert()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateTransform, err)
	}
	d.H = inv
	return nil
}

func (h *HomogModel)Clone() Model { return &HomogModel{H: h.H} }

// A PixelMap maps destination pixel coordinates to (floating point)
// source coordinates - the pull direction used by resamplers.
type PixelMap func(x, y float64) (float64, float64)

// A Converter turns a Model into the representations consumed outside
// the composition algebra: a PixelMap for the per-pixel hot path, and a
// canonical homography for callers. Each family gets its own pixel map
// so the affine path never pays for a perspective divide.
type Converter interface {
	ConvertPixel(m Model) (PixelMap, error)
	ConvertHomog(m Model) (mmath.Homog, error)
}

// ModelConverter handles the whole closed model family.
type ModelConverter struct{}

func (ModelConverter)ConvertPixel(m Model) (PixelMap, error) {
	switch t := m.(type) {
	case *AffineModel:
		mat := t.M
		return func(x, y float64) (float64, float64) { return mat.Apply(x, y) }, nil
	case *HomogModel:
		h := t.H
		return func(x, y float64) (float64, float64) { return h.Apply(x, y) }, nil
	}
	return nil, fmt.Errorf("ConvertPixel: %w (got %T)", errModelFamily, m)
}

func (ModelConverter)ConvertHomog(m Model) (mmath.Homog, error) {
	switch t := m.(type) {
	case *AffineModel:
		return t.M.Homog(), nil
	case *HomogModel:
		return t.H, nil
	}
	return mmath.HomogIdentity(), fmt.Errorf("ConvertHomog: %w (got %T)", errModelFamily, m)
}
