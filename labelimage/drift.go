package labelimage

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// Drift holds cumulative per-frame drift in whole pixels. Entry i belongs to
// the i-th frame in increasing frame order.
type Drift struct {
	X []int `json:"cum_drift_x"`
	Y []int `json:"cum_drift_y"`
}

// LoadDrift reads drift statistics from a JSON file
func LoadDrift(path string) (*Drift, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read drift statistics %v", path)
	}
	drift := &Drift{}
	if err := json.Unmarshal(raw, drift); err != nil {
		return nil, errors.Wrapf(err, "can't parse drift statistics %v", path)
	}
	if len(drift.X) != len(drift.Y) {
		return nil, errors.Errorf("drift statistics %v: %d x drifts vs %d y drifts", path, len(drift.X), len(drift.Y))
	}
	return drift, nil
}

// ApplyDriftCorrection crops every frame to the window all frames share once
// their drift is undone, so that a fixed object keeps its coordinates.
// All images must have the size of the first frame.
func ApplyDriftCorrection(images map[int]*LabelImage, drift *Drift) (map[int]*LabelImage, error) {
	keys := make([]int, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) == 0 {
		return map[int]*LabelImage{}, nil
	}
	if len(drift.X) != len(keys) || len(drift.Y) != len(keys) {
		return nil, errors.Errorf("%d frames but %d/%d drift values", len(keys), len(drift.X), len(drift.Y))
	}

	H, W := images[keys[0]].Height, images[keys[0]].Width
	y0 := maxOf(drift.Y)
	y1 := H + minOf(drift.Y)
	x0 := maxOf(drift.X)
	x1 := W + minOf(drift.X)

	aligned := make(map[int]*LabelImage, len(keys))
	for i, k := range keys {
		img := images[k]
		if img.Width != W || img.Height != H {
			return nil, errors.Errorf("frame %d is %dx%d, expected %dx%d", k, img.Width, img.Height, W, H)
		}
		cropped, err := img.Crop(x0-drift.X[i], y0-drift.Y[i], x1-drift.X[i], y1-drift.Y[i])
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", k)
		}
		aligned[k] = cropped
	}
	return aligned, nil
}

func maxOf(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
