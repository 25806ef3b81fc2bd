package mestimate

import(
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"
	"sync"

	"github.com/abworrall/video-mosaic/pkg/mmath"
	"github.com/abworrall/video-mosaic/pkg/mosaic"
)

// SearchMotion estimates pure-translation motion between consecutive
// frames by trying candidate offsets and keeping the one with the
// lowest mean absolute gray difference. Coarse pass over the whole
// radius, fine pass around the winner. It is deliberately dumb - no
// features, no pyramid - but it makes the CLI usable on real footage
// where the camera pans without rotating.
type SearchMotion struct {
	Radius     int     // how far to look, pixels
	Workers    int     // goroutines scoring candidates
	MinOverlap float64 // candidates comparing fewer pixels than this fraction are ignored
	Verbosity  int

	prev        *image.Gray
	firstToCurr mmath.Aff3
	model       *mosaic.AffineModel // reused output
}

func NewSearchMotion(radius int) *SearchMotion {
	if radius <= 0 { radius = 32 }
	return &SearchMotion{
		Radius:      radius,
		Workers:     8,
		MinOverlap:  0.25,
		firstToCurr: mmath.Identity(),
		model:       mosaic.NewAffineModel(),
	}
}

func (sm *SearchMotion)Process(frame image.Image) error {
	g := toGray(frame)

	if sm.prev == nil {
		// first frame just anchors the sequence
		sm.prev = g
		return nil
	}

	// Pass 1: whole-radius search at step 2.
	cands := []image.Point{}
	for dy:=-sm.Radius; dy<=sm.Radius; dy+=2 {
		for dx:=-sm.Radius; dx<=sm.Radius; dx+=2 {
			cands = append(cands, image.Point{dx, dy})
		}
	}
	best, bestErr := sm.scoreOffsets(sm.prev, g, cands)

	// Pass 2: pixel-level around the winner.
	cands = cands[:0]
	for dy:=best.Y-2; dy<=best.Y+2; dy++ {
		for dx:=best.X-2; dx<=best.X+2; dx++ {
			cands = append(cands, image.Point{dx, dy})
		}
	}
	best, bestErr = sm.scoreOffsets(sm.prev, g, cands)

	if math.IsInf(bestErr, 1) {
		return fmt.Errorf("translation search: no candidate offset had %.0f%% overlap",
			sm.MinOverlap*100)
	}
	if sm.Verbosity > 0 {
		log.Printf("translation search: (%d,%d) err %.2f\n", best.X, best.Y, bestErr)
	}

	sm.prev = g
	sm.firstToCurr = mmath.Identity().Translate(float64(best.X), float64(best.Y)).Mult(sm.firstToCurr)
	return nil
}

func (sm *SearchMotion)FirstToCurrent() mosaic.Model {
	sm.model.M = sm.firstToCurr
	return sm.model
}

func (sm *SearchMotion)Reset() {
	sm.prev = nil
	sm.firstToCurr = mmath.Identity()
}

func (sm *SearchMotion)SetToFirst() {
	// prev stays: it IS the new first frame
	sm.firstToCurr = mmath.Identity()
}

type searchJob struct {
	Offset image.Point
	Err    float64
}

// scoreOffsets uses a pool of goroutines to compute the error metric
// for each candidate offset, and returns the one with the lowest error.
func (sm *SearchMotion)scoreOffsets(prev, curr *image.Gray, cands []image.Point) (image.Point, float64) {
	var wg sync.WaitGroup
	jobsChan    := make(chan searchJob, len(cands))
	resultsChan := make(chan searchJob, len(cands))

	nWorkers := sm.Workers
	if nWorkers < 1 { nWorkers = 1 }
	for i:=0; i<nWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			for job := range jobsChan {
				job.Err = sm.offsetErr(prev, curr, job.Offset)
				resultsChan<- job
			}
		}()
	}

	for _, cand := range cands {
		jobsChan<- searchJob{Offset: cand}
	}

	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	best := searchJob{Err: math.Inf(1)}
	for result := range resultsChan {
		if result.Err < best.Err {
			best = result
		}
	}
	return best.Offset, best.Err
}

// offsetErr is the mean absolute gray difference between curr and prev
// shifted by the candidate prev-to-curr translation, sampled on a
// 2-pixel grid over the overlap. +Inf when the overlap is too thin to
// trust.
func (sm *SearchMotion)offsetErr(prev, curr *image.Gray, d image.Point) float64 {
	b := curr.Bounds()
	pb := prev.Bounds()

	totErr, n, samples := 0, 0, 0
	for y:=b.Min.Y; y<b.Max.Y; y+=2 {
		for x:=b.Min.X; x<b.Max.X; x+=2 {
			samples++
			px, py := x-d.X, y-d.Y
			if px < pb.Min.X || py < pb.Min.Y || px >= pb.Max.X || py >= pb.Max.Y {
				continue
			}
			diff := int(curr.GrayAt(x, y).Y) - int(prev.GrayAt(px, py).Y)
			if diff < 0 { diff = -diff }
			totErr += diff
			n++
		}
	}

	if samples == 0 || float64(n)/float64(samples) < sm.MinOverlap {
		return math.Inf(1)
	}
	return float64(totErr) / float64(n)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g
}
