package monitor

import (
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/video-mosaic/pkg/mestimate"
	"github.com/abworrall/video-mosaic/pkg/mosaic"
)

func newTestServer(t *testing.T, steps []mestimate.Step) *Server {
	t.Helper()
	cfg := mosaic.NewConfig()
	cfg.WidthStitch, cfg.HeightStitch = 120, 80
	st := mosaic.New(cfg, mestimate.NewScriptedMotion(steps))
	return NewServer(st)
}

func grayFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img
}

func doReq(srv *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func stitchFrame(t *testing.T, srv *Server) {
	t.Helper()
	frame := grayFrame(100, 100)
	srv.NoteFrameSize(100, 100)
	require.NoError(t, srv.Do(func(st *mosaic.Stitcher) error {
		return st.Process(frame)
	}))
}

func TestMosaicEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})

	w := doReq(srv, "GET", "/mosaic.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestPreviewEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})

	w := doReq(srv, "GET", "/preview.png?scale=4")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	assert.Equal(t, http.StatusBadRequest, doReq(srv, "GET", "/preview.png?scale=0").Code)
	assert.Equal(t, http.StatusBadRequest, doReq(srv, "GET", "/preview.png?scale=junk").Code)
}

func TestCornersEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})

	var out struct {
		Tracking bool
		Corners  mosaic.Corners
	}

	w := doReq(srv, "GET", "/corners.json")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.False(t, out.Tracking, "no corners before any frame")

	stitchFrame(t, srv)

	w = doReq(srv, "GET", "/corners.json")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.True(t, out.Tracking)
	assert.InDelta(t, 100.0, out.Corners.P1.X, 1e-9)
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})

	w := doReq(srv, "GET", "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "frames"), "got: %s", w.Body.String())
}

func TestResetEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})
	stitchFrame(t, srv)

	assert.Equal(t, http.StatusOK, doReq(srv, "POST", "/reset").Code)

	// Reset is POST-only
	assert.Equal(t, http.StatusMethodNotAllowed, doReq(srv, "GET", "/reset").Code)
}

func TestRebaseEndpoint(t *testing.T) {
	srv := newTestServer(t, []mestimate.Step{{}})

	// Nothing stitched yet: conflict, not success
	assert.Equal(t, http.StatusConflict, doReq(srv, "POST", "/rebase").Code)

	stitchFrame(t, srv)
	assert.Equal(t, http.StatusOK, doReq(srv, "POST", "/rebase").Code)
}
