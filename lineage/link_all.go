package lineage

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// LinkAll runs LinkPair for every consecutive frame pair of fs.
// Pairs are independent, so up to workers of them run at once (workers <= 0 means GOMAXPROCS).
// Result i links frame i to frame i+1 of fs.Frames().
func LinkAll(fs *FrameSet, constraints Constraints, policy CollisionPolicy, workers int) ([]*PairLinks, error) {
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	frames := fs.Frames()
	if len(frames) < 2 {
		return []*PairLinks{}, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*PairLinks, len(frames)-1)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < len(frames)-1; i++ {
		g.Go(func() error {
			links, err := LinkPair(frames[i], frames[i+1], constraints, policy)
			if err != nil {
				return errors.Wrapf(err, "can't link frame %d to frame %d", frames[i].Index, frames[i+1].Index)
			}
			results[i] = links
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
