package lineage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ObjectID identifies one segmented region across the whole run.
// The zero value (label 0) is never a valid object and stands for "none".
type ObjectID struct {
	Frame int
	Label int
}

// NoObject is the "none" link target
var NoObject = ObjectID{}

func NewObjectID(label, frame int) ObjectID {
	return ObjectID{
		Frame: frame,
		Label: label,
	}
}

// IsNone reports whether id is the "none" value
func (id ObjectID) IsNone() bool {
	return id.Label == 0
}

// String returns "<label>_<frame>" or "none"
func (id ObjectID) String() string {
	if id.IsNone() {
		return "none"
	}
	return strconv.Itoa(id.Label) + "_" + strconv.Itoa(id.Frame)
}

// ParseObjectID is the inverse of ObjectID.String
func ParseObjectID(s string) (ObjectID, error) {
	if s == "none" || s == "" {
		return NoObject, nil
	}
	labelStr, frameStr, ok := strings.Cut(s, "_")
	if !ok {
		return NoObject, errors.Errorf("malformed object id %q", s)
	}
	label, err := strconv.Atoi(labelStr)
	if err != nil {
		return NoObject, errors.Wrapf(err, "malformed label in object id %q", s)
	}
	frame, err := strconv.Atoi(frameStr)
	if err != nil {
		return NoObject, errors.Wrapf(err, "malformed frame in object id %q", s)
	}
	if label <= 0 {
		return NoObject, errors.Wrapf(ErrInvalidLabel, "object id %q", s)
	}
	return NewObjectID(label, frame), nil
}

// TrajectoryID is an opaque, monotonically minted trajectory identifier.
type TrajectoryID uint64

func (id TrajectoryID) String() string {
	return fmt.Sprintf("traj_%d", uint64(id))
}

// Object is one region observed in one frame, as produced by descriptor extraction.
type Object struct {
	ID ObjectID
	// Centroid in pixels
	Centroid Point
	// Major axis angle in radians, not wrapped
	Orientation float64
	AxisMajor   float64
	AxisMinor   float64
	// Pixel count, must be positive and finite
	Area float64
}

// Frame returns the time index the object was observed at
func (obj Object) Frame() int {
	return obj.ID.Frame
}

// Label returns the per-frame label
func (obj Object) Label() int {
	return obj.ID.Label
}

// validate checks the per-object invariants that linkage relies on
func (obj Object) validate() error {
	if obj.ID.Label <= 0 {
		return errors.Wrapf(ErrInvalidLabel, "object %s has label %d", obj.ID, obj.ID.Label)
	}
	if math.IsNaN(obj.Area) || math.IsInf(obj.Area, 0) || obj.Area <= 0 {
		return errors.Wrapf(ErrInvalidArea, "object %s has area %v", obj.ID, obj.Area)
	}
	if !obj.Centroid.finite() {
		return errors.Wrapf(ErrInvalidCentroid, "object %s has centroid (%v, %v)", obj.ID, obj.Centroid.X, obj.Centroid.Y)
	}
	if math.IsNaN(obj.Orientation) {
		return errors.Wrapf(ErrInvalidOrientation, "object %s has NaN orientation", obj.ID)
	}
	return nil
}
