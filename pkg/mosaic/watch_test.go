package mosaic

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestFrameWatcherDeliversNewFiles(t *testing.T) {
	dir := t.TempDir()

	fw, err := NewFrameWatcher(dir, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Close()

	writeTestPNG(t, filepath.Join(dir, "f1.png"), time.Now())

	select {
	case f := <-fw.Frames:
		if filepath.Base(f.Filename) != "f1.png" {
			t.Errorf("got %s", f.Filename)
		}
		if f.Image == nil {
			t.Error("frame arrived undecoded")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame delivered")
	}
}

// The pump must shut down even when nobody is draining Frames and its
// buffer has filled up.
func TestFrameWatcherCloseWithFullBuffer(t *testing.T) {
	dir := t.TempDir()
	before := runtime.NumGoroutine()

	fw, err := NewFrameWatcher(dir, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	// More frames than the channel buffer holds, and no reader
	for i:=0; i<20; i++ {
		writeTestPNG(t, filepath.Join(dir, fmt.Sprintf("f%02d.png", i)), time.Now())
	}
	time.Sleep(500 * time.Millisecond) // let the pump fill the buffer and block

	fw.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("pump still running after Close: %d goroutines, started with %d",
		runtime.NumGoroutine(), before)
}

func TestFrameWatcherMissingDir(t *testing.T) {
	if _, err := NewFrameWatcher("/no/such/dir", 0); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
