package storage

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Experiment identifies the acquisition a run was computed from
type Experiment struct {
	ID         string
	XYPosition int
}

// ParseExperiment extracts the experiment id (text before "_xy") and the two digit
// stage position following it from a file or directory name, e.g. "ecoli_run3_xy07".
func ParseExperiment(name string) (Experiment, error) {
	base := filepath.Base(filepath.Clean(name))
	idx := strings.Index(base, "_xy")
	if idx <= 0 {
		return Experiment{}, errors.Errorf("no experiment id in %q", name)
	}
	digits := base[idx+3:]
	if len(digits) < 2 {
		return Experiment{}, errors.Errorf("no xy position in %q", name)
	}
	xy, err := strconv.Atoi(digits[:2])
	if err != nil {
		return Experiment{}, errors.Wrapf(err, "bad xy position in %q", name)
	}
	return Experiment{ID: base[:idx], XYPosition: xy}, nil
}
