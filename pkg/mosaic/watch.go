package mosaic

// Watch-folder frame source, for stitching sequences as they arrive

import(
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// A FrameWatcher watches a directory and delivers newly created frame
// files on Frames, in arrival order. It exists so a capture process can
// drop files into a folder and have the mosaic grow live.
type FrameWatcher struct {
	Frames  chan Frame

	watcher *fsnotify.Watcher
	dir     string
	settle  time.Duration
	done    chan struct{}
}

// NewFrameWatcher starts watching dir. settle is how long a new file
// must be left alone before we trust the writer has finished with it;
// zero picks a sane default.
func NewFrameWatcher(dir string, settle time.Duration) (*FrameWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %v", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %v", dir, err)
	}
	if settle == 0 {
		settle = 200 * time.Millisecond
	}

	fw := &FrameWatcher{
		Frames:  make(chan Frame, 16),
		watcher: watcher,
		dir:     dir,
		settle:  settle,
		done:    make(chan struct{}),
	}
	go fw.run()
	return fw, nil
}

func (fw *FrameWatcher)run() {
	defer close(fw.Frames)

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			// Give the writer a moment to finish the file before decoding it
			time.Sleep(fw.settle)
			f, recognised, err := LoadFrame(event.Name)
			if err != nil {
				log.Printf("watched frame %s: %v\n", event.Name, err)
				continue
			}
			if recognised {
				// The consumer may have stopped reading; don't let a full
				// buffer pin this goroutine past Close
				select {
				case fw.Frames <- f:
				case <-fw.done:
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watching %s: %v\n", fw.dir, err)
		}
	}
}

// Close stops the watcher; Frames is closed once the pump drains.
func (fw *FrameWatcher)Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
