package lineage

import (
	"github.com/pkg/errors"
)

// Record is one row of the merged table: an observed object plus its link and trajectory columns.
type Record struct {
	Object
	// Successor in the next frame, NoObject when unmatched
	LinkID ObjectID
	TrajID TrajectoryID
	// Number of records sharing TrajID over the whole run
	TrajLength int
}

// Assembly is the outcome of the trajectory pass.
type Assembly struct {
	// Records in frame order, then table order. One per input object.
	Records []Record
	// Number of trajectories minted
	Births int
}

// Assemble walks frames in increasing order and assigns trajectory ids.
// An object keeps the id pushed onto it by a predecessor's link; otherwise it
// gets a fresh id (a birth). Then its id is pushed onto its successor, replacing
// whatever id the successor held. pairs[i] must link frame i to frame i+1 of fs.
func Assemble(fs *FrameSet, pairs []*PairLinks) (*Assembly, error) {
	frames := fs.Frames()
	expectedPairs := len(frames) - 1
	if expectedPairs < 0 {
		expectedPairs = 0
	}
	if len(pairs) != expectedPairs {
		return nil, errors.Errorf("expected %d frame pairs, got %d", expectedPairs, len(pairs))
	}
	for i, pl := range pairs {
		if pl == nil || pl.From != frames[i].Index {
			return nil, errors.Errorf("frame pair %d does not start at frame %d", i, frames[i].Index)
		}
	}

	trajOf := make(map[ObjectID]TrajectoryID, fs.NumObjects())
	linkOf := make(map[ObjectID]ObjectID, fs.NumObjects())
	var next TrajectoryID
	births := 0
	for i, frame := range frames {
		var pl *PairLinks
		if i < len(pairs) {
			pl = pairs[i]
		}
		for _, obj := range frame.Objects {
			traj, inherited := trajOf[obj.ID]
			if !inherited {
				traj = next
				next++
				births++
				trajOf[obj.ID] = traj
			}
			if pl == nil {
				continue
			}
			if succ, ok := pl.Successor(obj.ID); ok {
				linkOf[obj.ID] = succ
				trajOf[succ] = traj
			}
		}
	}

	lengths := make(map[TrajectoryID]int)
	for _, traj := range trajOf {
		lengths[traj]++
	}

	records := make([]Record, 0, fs.NumObjects())
	for _, frame := range frames {
		for _, obj := range frame.Objects {
			link, ok := linkOf[obj.ID]
			if !ok {
				link = NoObject
			}
			traj := trajOf[obj.ID]
			records = append(records, Record{
				Object:     obj,
				LinkID:     link,
				TrajID:     traj,
				TrajLength: lengths[traj],
			})
		}
	}
	return &Assembly{
		Records: records,
		Births:  births,
	}, nil
}
