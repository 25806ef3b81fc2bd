package mosaic

import(
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
)

// A Frame is one input image, tagged with enough metadata to put the
// sequence in capture order.
type Frame struct {
	Filename string
	Taken    int64 // unix nanos; EXIF capture time when present, file mtime otherwise
	Image    image.Image
}

// LoadFrames loads every frame found in the given files and
// directories (recursing into directories), and returns them sorted by
// capture time, then filename. Unrecognised files are skipped.
func LoadFrames(args ...string) ([]Frame, error) {
	frames := []Frame{}

	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return nil, fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				sub, err := LoadFrames(filepath.Join(arg, content.Name()))
				if err != nil {
					return nil, err
				}
				frames = append(frames, sub...)
			}

		default: // is a file, load it if we recognise it
			f, ok, err := LoadFrame(arg)
			if err != nil {
				return nil, err
			}
			if ok {
				frames = append(frames, f)
			}
		}
	}

	sort.Slice(frames, func(i, j int) bool {
		if frames[i].Taken != frames[j].Taken {
			return frames[i].Taken < frames[j].Taken
		}
		return frames[i].Filename < frames[j].Filename
	})
	return frames, nil
}

// LoadFrame loads a single image file. ok is false for extensions we
// don't handle, which is not an error - input dirs can hold yaml etc.
func LoadFrame(filename string) (Frame, bool, error) {
	f := Frame{Filename: filename}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return f, false, nil
	}

	reader, err := os.Open(filename)
	if err != nil {
		return f, false, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	switch ext {
	case ".tif", ".tiff":
		f.Image, err = tiff.Decode(reader)
	default:
		f.Image, _, err = image.Decode(reader)
	}
	if err != nil {
		return f, false, fmt.Errorf("decoding '%s': %v", filename, err)
	}

	f.Taken = captureTime(filename)
	return f, true, nil
}

// captureTime digs the capture time out of EXIF where there is any,
// falling back to the file modification time. Best effort only; frame
// ordering is the caller lining its inputs up, not ground truth.
func captureTime(filename string) int64 {
	if reader, err := os.Open(filename); err == nil {
		defer reader.Close()
		if ex, err := exif.Decode(reader); err == nil {
			if when, err := ex.DateTime(); err == nil {
				return when.UnixNano()
			}
		}
	}

	if item, err := os.Stat(filename); err == nil {
		return item.ModTime().UnixNano()
	}
	return 0
}
