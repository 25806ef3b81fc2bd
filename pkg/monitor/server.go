// Package monitor serves the live state of a stitching session over
// HTTP: the mosaic itself, scaled previews, the tracked corners, and
// jump statistics. The engine is single-threaded by contract, so the
// server owns the lock that serialises HTTP reads against the frame
// loop - hosts feed frames through Do.
package monitor

import(
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/image/draw"

	"github.com/abworrall/video-mosaic/pkg/mosaic"
)

type Server struct {
	mu      sync.Mutex
	st      *mosaic.Stitcher
	frameW  int // size of the most recent frame, for corner queries
	frameH  int
}

func NewServer(st *mosaic.Stitcher) *Server {
	return &Server{st: st}
}

// Do runs f with exclusive access to the stitcher. The host's frame
// loop wraps every Process/Reset/SetOriginToCurrent call in this.
func (s *Server)Do(f func(*mosaic.Stitcher) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.st)
}

// NoteFrameSize records the dimensions of the latest frame, which the
// corners endpoint needs to phrase its query.
func (s *Server)NoteFrameSize(w, h int) {
	s.mu.Lock()
	s.frameW, s.frameH = w, h
	s.mu.Unlock()
}

func (s *Server)Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/mosaic.png", s.handleMosaic).Methods("GET")
	r.HandleFunc("/preview.png", s.handlePreview).Methods("GET")
	r.HandleFunc("/corners.json", s.handleCorners).Methods("GET")
	r.HandleFunc("/stats", s.handleStats).Methods("GET")
	r.HandleFunc("/reset", s.handleReset).Methods("POST")
	r.HandleFunc("/rebase", s.handleRebase).Methods("POST")
	return r
}

func (s *Server)ListenAndServe(addr string) error {
	log.Printf("mosaic monitor listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Router())
}

// snapshotMosaic copies the live buffer under the lock, so encoding
// can happen without stalling the frame loop.
func (s *Server)snapshotMosaic() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.st.StitchedImage()
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func (s *Server)handleMosaic(w http.ResponseWriter, r *http.Request) {
	img := s.snapshotMosaic()
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Printf("monitor: encoding mosaic: %v\n", err)
	}
}

// handlePreview serves a scaled-down mosaic; ?scale=4 means quarter
// size. Handy when the mosaic is large and the poll is frequent.
func (s *Server)handlePreview(w http.ResponseWriter, r *http.Request) {
	scale := 2
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 32 {
			http.Error(w, fmt.Sprintf("bad scale '%s'", v), http.StatusBadRequest)
			return
		}
		scale = n
	}

	img := s.snapshotMosaic()
	b := img.Bounds()
	small := image.NewRGBA(image.Rect(0, 0, b.Dx()/scale, b.Dy()/scale))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, small); err != nil {
		log.Printf("monitor: encoding preview: %v\n", err)
	}
}

func (s *Server)handleCorners(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	corners, ok := s.st.FrameCorners(s.frameW, s.frameH)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Tracking bool
		Corners  mosaic.Corners
	}{ok, corners})
}

func (s *Server)handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	str := s.st.Stats().String()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s\n", str)
}

func (s *Server)handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.st.Reset()
	s.mu.Unlock()
	fmt.Fprintf(w, "reset\n")
}

func (s *Server)handleRebase(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.st.SetOriginToCurrent()
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	fmt.Fprintf(w, "origin re-based\n")
}
