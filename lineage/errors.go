package lineage

import "github.com/pkg/errors"

var (
	// ErrInvalidArea is returned when an object has zero, negative or non-finite area
	ErrInvalidArea = errors.New("invalid area measurement")
	// ErrInvalidCentroid is returned when a centroid coordinate is NaN or infinite
	ErrInvalidCentroid = errors.New("invalid centroid")
	// ErrInvalidOrientation is returned for a NaN orientation
	ErrInvalidOrientation = errors.New("invalid orientation")
	// ErrNonContiguousFrames is returned when the frame index set has a gap
	ErrNonContiguousFrames = errors.New("non-contiguous frame sequence")
	// ErrDuplicateObjectID is returned when two objects share (label, frame)
	ErrDuplicateObjectID = errors.New("duplicate object identifier")
	// ErrInvalidLabel is returned for labels <= 0 (0 is background)
	ErrInvalidLabel = errors.New("invalid object label")
	// ErrFrameMismatch is returned when an object is filed under another frame's table
	ErrFrameMismatch = errors.New("object frame does not match its table")
	// ErrInvalidConstraints is returned for unusable linkage parameters
	ErrInvalidConstraints = errors.New("invalid linkage constraints")
)
