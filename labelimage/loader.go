package labelimage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

// LoadOptions describe how mask files are named.
type LoadOptions struct {
	// Substring that marks a mask file. Default "_cp_masks"
	Suffix string
	// Number of characters right before Suffix holding the timepoint. Default 4
	TimeStringLength int
}

// DefaultLoadOptions matches the file naming of cellpose mask exports, e.g. "xy01_t0042_cp_masks.tif"
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Suffix:           "_cp_masks",
		TimeStringLength: 4,
	}
}

// FrameIndex extracts the timepoint encoded in a mask file name
func (opts LoadOptions) FrameIndex(name string) (int, error) {
	pos := strings.Index(name, opts.Suffix)
	if pos < 0 {
		return 0, errors.Errorf("%q does not contain %q", name, opts.Suffix)
	}
	if pos < opts.TimeStringLength {
		return 0, errors.Errorf("%q has no %d-character timepoint before %q", name, opts.TimeStringLength, opts.Suffix)
	}
	tm := name[pos-opts.TimeStringLength : pos]
	frame, err := strconv.Atoi(tm)
	if err != nil {
		return 0, errors.Wrapf(err, "bad timepoint %q in %q", tm, name)
	}
	return frame, nil
}

// LoadDir reads every mask file of dir, keyed by frame index.
// Two files mapping to one frame is an error.
func LoadDir(log logs.Log, dir string, opts LoadOptions) (map[int]*LabelImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't list %v", dir)
	}
	images := make(map[int]*LabelImage)
	sources := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), opts.Suffix) {
			continue
		}
		frame, err := opts.FrameIndex(entry.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := sources[frame]; ok {
			return nil, errors.Errorf("timepoint %d found in both %v and %v", frame, prev, entry.Name())
		}
		if log != nil {
			log.Debugf("Reading image timepoint %04d from %v", frame, entry.Name())
		}
		img, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		images[frame] = img
		sources[frame] = entry.Name()
	}
	if log != nil {
		log.Infof("Read %d label masks from %v", len(images), dir)
	}
	return images, nil
}

func loadFile(path string) (*LabelImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %v", path)
	}
	defer f.Close()
	img, err := DecodeTIFF(f)
	if err != nil {
		return nil, errors.Wrapf(err, "file %v", path)
	}
	return img, nil
}
