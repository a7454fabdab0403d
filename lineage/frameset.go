package lineage

import (
	"sort"

	"github.com/pkg/errors"
)

// Frame is the descriptor table of one time index. Objects keep their input order.
type Frame struct {
	Index   int
	Objects []Object
}

// FrameSet is a validated, contiguous, frame-ordered collection of descriptor tables.
type FrameSet struct {
	frames []Frame
	total  int
}

// NewFrameSet validates per-frame descriptor tables and orders them by frame index.
// Checks run eagerly and in this order: object labels, frame consistency,
// duplicate identifiers, areas, and finally contiguity of the frame index set.
// An empty table is a valid frame.
func NewFrameSet(tables map[int][]Object) (*FrameSet, error) {
	indices := make([]int, 0, len(tables))
	for idx := range tables {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	seen := make(map[ObjectID]struct{})
	fs := &FrameSet{
		frames: make([]Frame, 0, len(indices)),
	}
	for _, idx := range indices {
		if idx < 0 {
			return nil, errors.Errorf("negative frame index %d", idx)
		}
		objects := tables[idx]
		for _, obj := range objects {
			if obj.ID.Label <= 0 {
				return nil, errors.Wrapf(ErrInvalidLabel, "frame %d: label %d", idx, obj.ID.Label)
			}
			if obj.ID.Frame != idx {
				return nil, errors.Wrapf(ErrFrameMismatch, "object %s filed under frame %d", obj.ID, idx)
			}
			if _, ok := seen[obj.ID]; ok {
				return nil, errors.Wrapf(ErrDuplicateObjectID, "object %s", obj.ID)
			}
			seen[obj.ID] = struct{}{}
			if err := obj.validate(); err != nil {
				return nil, err
			}
		}
		copied := make([]Object, len(objects))
		copy(copied, objects)
		fs.frames = append(fs.frames, Frame{Index: idx, Objects: copied})
		fs.total += len(objects)
	}
	for i := 1; i < len(fs.frames); i++ {
		prev, cur := fs.frames[i-1].Index, fs.frames[i].Index
		if cur != prev+1 {
			return nil, errors.Wrapf(ErrNonContiguousFrames, "frame %d is followed by frame %d", prev, cur)
		}
	}
	return fs, nil
}

// NewFrameSetFromObjects groups a flat list of objects by frame. Frames listed in
// emptyFrames are registered even if no object refers to them.
func NewFrameSetFromObjects(objects []Object, emptyFrames ...int) (*FrameSet, error) {
	tables := make(map[int][]Object)
	for _, idx := range emptyFrames {
		if _, ok := tables[idx]; !ok {
			tables[idx] = nil
		}
	}
	for _, obj := range objects {
		tables[obj.ID.Frame] = append(tables[obj.ID.Frame], obj)
	}
	return NewFrameSet(tables)
}

// Frames returns the frames in increasing index order. The slice must not be modified.
func (fs *FrameSet) Frames() []Frame {
	return fs.frames
}

// Len returns number of frames
func (fs *FrameSet) Len() int {
	return len(fs.frames)
}

// NumObjects returns total number of objects over all frames
func (fs *FrameSet) NumObjects() int {
	return fs.total
}

// FirstFrame returns the minimum frame index, or -1 when there are no frames
func (fs *FrameSet) FirstFrame() int {
	if len(fs.frames) == 0 {
		return -1
	}
	return fs.frames[0].Index
}

// LastFrame returns the maximum frame index, or -1 when there are no frames
func (fs *FrameSet) LastFrame() int {
	if len(fs.frames) == 0 {
		return -1
	}
	return fs.frames[len(fs.frames)-1].Index
}
