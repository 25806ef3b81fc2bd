package main

import(
	"errors"
	"flag"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"

	"github.com/abworrall/video-mosaic/pkg/mestimate"
	"github.com/abworrall/video-mosaic/pkg/monitor"
	"github.com/abworrall/video-mosaic/pkg/mosaic"
)

var(
	fVerbosity int
	fConfig string
	fOutput string
	fOutline string
	fScript string
	fWatch string
	fHTTP string
	fRadius int
	fRebaseEvery int
	fWidth int
	fHeight int
	fMaxJump float64
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fConfig, "config", "", "yaml config file")
	flag.StringVar(&fOutput, "o", "mosaic.png", "where to write the stitched mosaic")
	flag.StringVar(&fOutline, "outline", "", "also write a copy with per-frame corner outlines to this file")
	flag.StringVar(&fScript, "script", "", "yaml motion script; when unset, estimate translation by search")
	flag.StringVar(&fWatch, "watch", "", "watch this dir and stitch frames as they arrive (until interrupted)")
	flag.StringVar(&fHTTP, "http", "", "serve live mosaic/stats on this address, e.g. :8087")
	flag.IntVar(&fRadius, "radius", 32, "translation search radius, pixels")
	flag.IntVar(&fRebaseEvery, "rebase", 0, "re-base the mosaic origin every N frames (0 = never)")
	flag.IntVar(&fWidth, "width", 0, "override mosaic width")
	flag.IntVar(&fHeight, "height", 0, "override mosaic height")
	flag.Float64Var(&fMaxJump, "maxjump", 0, "override max jump fraction")
	flag.Parse()

	log.Printf("video-mosaic starting\n")
}

func main() {
	cfg := loadConfig()

	var motion mosaic.MotionEstimator
	if fScript != "" {
		steps, err := mestimate.LoadScript(fScript)
		if err != nil {
			log.Fatal(err)
		}
		motion = mestimate.NewScriptedMotion(steps)
	} else {
		search := mestimate.NewSearchMotion(fRadius)
		search.Verbosity = cfg.Verbosity
		motion = search
	}

	st := mosaic.New(cfg, motion)
	srv := monitor.NewServer(st)
	if fHTTP != "" {
		go func() {
			if err := srv.ListenAndServe(fHTTP); err != nil {
				log.Fatal(err)
			}
		}()
	}

	quads := []mosaic.Corners{}
	stitchOne := func(f mosaic.Frame) {
		fw, fh := f.Image.Bounds().Dx(), f.Image.Bounds().Dy()
		srv.NoteFrameSize(fw, fh)

		err := srv.Do(func(st *mosaic.Stitcher) error { return st.Process(f.Image) })
		switch {
		case err == nil:
			if c, ok := cornersOf(srv, fw, fh); ok {
				quads = append(quads, c)
			}
		case errors.Is(err, mosaic.ErrLargeMotion):
			// the blend already happened; throw the sequence away and re-anchor
			log.Printf("%s: %v - resetting\n", f.Filename, err)
			srv.Do(func(st *mosaic.Stitcher) error { st.Reset(); return nil })
			quads = quads[:0]
		default:
			log.Printf("%s: %v - skipping\n", f.Filename, err)
		}
	}

	n := 0
	rebase := func() {
		n++
		if fRebaseEvery > 0 && n%fRebaseEvery == 0 {
			if err := srv.Do(func(st *mosaic.Stitcher) error { return st.SetOriginToCurrent() }); err != nil {
				log.Printf("rebase: %v\n", err)
			}
		}
	}

	if fWatch != "" {
		watchLoop(stitchOne, rebase)
	} else {
		frames, err := mosaic.LoadFrames(flag.Args()...)
		if err != nil {
			log.Fatal(err)
		}
		if len(frames) == 0 {
			log.Fatal("no frames to stitch")
		}
		for _, f := range frames {
			stitchOne(f)
			rebase()
		}
	}

	writeOutputs(srv, quads)

	log.Printf("%s\n", st.Stats())
}

func loadConfig() mosaic.Config {
	cfg := mosaic.NewConfig()
	if fConfig != "" {
		var err error
		if cfg, err = mosaic.LoadConfig(fConfig); err != nil {
			log.Fatal(err)
		}
		log.Printf("Loaded base configuration from %s\n", fConfig)
	}

	cfg.Verbosity = fVerbosity
	if fWidth > 0   { cfg.WidthStitch = fWidth }
	if fHeight > 0  { cfg.HeightStitch = fHeight }
	if fMaxJump > 0 { cfg.MaxJumpFraction = fMaxJump }

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}
	return cfg
}

func watchLoop(stitchOne func(mosaic.Frame), rebase func()) {
	fw, err := mosaic.NewFrameWatcher(fWatch, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer fw.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	log.Printf("watching %s for frames; interrupt to finish\n", fWatch)
	for {
		select {
		case f, ok := <-fw.Frames:
			if !ok {
				return
			}
			stitchOne(f)
			rebase()
		case <-interrupt:
			return
		}
	}
}

func cornersOf(srv *monitor.Server, fw, fh int) (c mosaic.Corners, ok bool) {
	srv.Do(func(st *mosaic.Stitcher) error {
		c, ok = st.FrameCorners(fw, fh)
		return nil
	})
	return
}

func writeOutputs(srv *monitor.Server, quads []mosaic.Corners) {
	var img *image.RGBA
	srv.Do(func(st *mosaic.Stitcher) error {
		src := st.StitchedImage()
		img = image.NewRGBA(src.Bounds())
		copy(img.Pix, src.Pix)
		return nil
	})

	if err := savePNG(fOutput, img); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s\n", fOutput)

	if fOutline != "" {
		if err := savePNG(fOutline, mosaic.DrawCorners(img, quads, true)); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%d frame outlines)\n", fOutline, len(quads))
	}
}

func savePNG(filename string, img image.Image) error {
	writer, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer writer.Close()
	return png.Encode(writer, img)
}
