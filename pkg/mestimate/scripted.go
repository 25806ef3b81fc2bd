// Package mestimate provides MotionEstimator collaborators for the
// stitching engine: a scripted replay of known motion, and a simple
// translation search. The engine itself never depends on either; it
// only sees the interface.
package mestimate

import(
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/video-mosaic/pkg/mmath"
	"github.com/abworrall/video-mosaic/pkg/mosaic"
)

// A Step is the motion from the previous frame to this one. The first
// step in a script is normally all-zero.
type Step struct {
	DX, DY float64 // translation, pixels
	RotDeg float64 // rotation about the frame origin, degrees
	Scale  float64 // zoom; zero means 1.0
	Fail   bool    // simulate an estimation failure on this frame
}

func (st Step)toAff3() mmath.Aff3 {
	scale := st.Scale
	if scale == 0 { scale = 1.0 }
	// compose back to front: scale, then rotate, then translate
	return mmath.Identity().Translate(st.DX, st.DY).Rotate(st.RotDeg).Scale(scale)
}

// LoadScript reads a yaml file holding a `steps:` list.
func LoadScript(filename string) ([]Step, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("script read %s: %v", filename, err)
	}

	script := struct {
		Steps []Step
	}{}
	if err := yaml.Unmarshal(contents, &script); err != nil {
		return nil, fmt.Errorf("script parse %s: %v", filename, err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script %s: no steps", filename)
	}
	return script.Steps, nil
}

// ScriptedMotion replays a fixed per-frame motion sequence - regression
// runs, demos, and any pipeline where motion was estimated offline.
// Running past the end of the script is an estimation failure.
type ScriptedMotion struct {
	steps       []Step
	next        int
	firstToCurr mmath.Aff3
	model       *mosaic.AffineModel // reused output
}

func NewScriptedMotion(steps []Step) *ScriptedMotion {
	return &ScriptedMotion{
		steps:       steps,
		firstToCurr: mmath.Identity(),
		model:       mosaic.NewAffineModel(),
	}
}

func (sm *ScriptedMotion)Process(frame image.Image) error {
	if sm.next >= len(sm.steps) {
		return fmt.Errorf("script exhausted after %d steps", len(sm.steps))
	}
	step := sm.steps[sm.next]
	sm.next++

	if step.Fail {
		return fmt.Errorf("scripted failure at step %d", sm.next-1)
	}

	sm.firstToCurr = step.toAff3().Mult(sm.firstToCurr)
	return nil
}

func (sm *ScriptedMotion)FirstToCurrent() mosaic.Model {
	sm.model.M = sm.firstToCurr
	return sm.model
}

func (sm *ScriptedMotion)Reset() {
	sm.next = 0
	sm.firstToCurr = mmath.Identity()
}

func (sm *ScriptedMotion)SetToFirst() {
	// keep our position in the script; motion is now relative to here
	sm.firstToCurr = mmath.Identity()
}
