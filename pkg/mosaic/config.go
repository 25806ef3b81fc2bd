package mosaic

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/video-mosaic/pkg/mmath"
)

type Config struct {
	Verbosity       int

	WidthStitch     int      // mosaic buffer width, fixed for the life of the stitcher
	HeightStitch    int      // mosaic buffer height
	MaxJumpFraction float64  // fault threshold, as a fraction of max(frame w, frame h)

	Model           string   // "affine" or "homography"
	Interp          string   // "bilinear" or "nearest"

	// How the first frame lands in the mosaic: scaled, then translated.
	// Typically centers the first frame on a larger canvas.
	InitScale       float64
	InitTranslateX  float64
	InitTranslateY  float64
}

func NewConfig() Config {
	return Config{
		WidthStitch:     1000,
		HeightStitch:    800,
		MaxJumpFraction: 0.3,
		Model:           "affine",
		Interp:          "bilinear",
		InitScale:       1.0,
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	if err == nil {
		err = c.Validate()
	}
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	return NewConfigFromYaml(contents)
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config)Validate() error {
	if c.WidthStitch <= 0 || c.HeightStitch <= 0 {
		return fmt.Errorf("config: stitch size %dx%d must be positive", c.WidthStitch, c.HeightStitch)
	}
	if c.MaxJumpFraction <= 0 {
		return fmt.Errorf("config: maxjumpfraction %f must be positive", c.MaxJumpFraction)
	}
	if c.InitScale == 0 {
		return fmt.Errorf("config: initscale must be nonzero")
	}
	switch c.Model {
	case "affine", "homography":
	default:
		return fmt.Errorf("config: no motion model family named '%s'", c.Model)
	}
	switch c.Interp {
	case "bilinear", "nearest":
	default:
		return fmt.Errorf("config: no interpolation named '%s'", c.Interp)
	}
	return nil
}

// NewModel returns a fresh identity model of the configured family.
func (c Config)NewModel() Model {
	switch c.Model {
	case "homography": return NewHomogModel()
	default:           return NewAffineModel()
	}
}

// WorldToInit is the configured initial transform: scale first, then
// translate, mapping first-frame pixels into mosaic pixels.
func (c Config)WorldToInit() Model {
	aff := mmath.Identity().Translate(c.InitTranslateX, c.InitTranslateY).Scale(c.InitScale)
	// Hmm - WorldToInit maps world (mosaic) coords to first-frame coords,
	// so it is the inverse of "place the frame at scale s, offset t".
	inv, err := aff.Invert()
	if err != nil {
		log.Fatalf("config worldToInit not invertible: %v", err)
	}

	switch c.Model {
	case "homography": return &HomogModel{H: inv.Homog()}
	default:           return &AffineModel{M: inv}
	}
}

func (c Config)GetWarper() Warper {
	switch c.Interp {
	case "nearest":  return NewNearestWarper()
	case "bilinear": return NewBilinearWarper()
	default:
		log.Fatalf("no interpolation strategy named '%s'", c.Interp)
		return nil
	}
}
