package lineage

import (
	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Tracker links objects of consecutive frames and assembles trajectories.
type Tracker struct {
	constraints Constraints
	policy      CollisionPolicy
	// Concurrent frame pairs during linkage. Default is GOMAXPROCS
	workers int
	log     logs.Log
}

// NewDefaultTracker creates a tracker with DefaultConstraints and CollisionOverwrite
func NewDefaultTracker() *Tracker {
	return &Tracker{
		constraints: DefaultConstraints(),
		policy:      CollisionOverwrite,
	}
}

// NewTracker creates a tracker with the given gates and collision policy
func NewTracker(constraints Constraints, policy CollisionPolicy) (*Tracker, error) {
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	if policy.String() == "unknown" {
		return nil, errors.Errorf("unknown collision policy %d", policy)
	}
	return &Tracker{
		constraints: constraints,
		policy:      policy,
	}, nil
}

// SetLogger sets the logger. nil disables logging
func (tracker *Tracker) SetLogger(log logs.Log) {
	tracker.log = log
}

// SetWorkers sets how many frame pairs may be linked concurrently
func (tracker *Tracker) SetWorkers(workers int) {
	tracker.workers = workers
}

// GetConstraints returns tracker's gates
func (tracker *Tracker) GetConstraints() Constraints {
	return tracker.constraints
}

// GetPolicy returns tracker's collision policy
func (tracker *Tracker) GetPolicy() CollisionPolicy {
	return tracker.policy
}

// Result is the merged table of one tracking run.
type Result struct {
	RunID       uuid.UUID
	Constraints Constraints
	Policy      CollisionPolicy
	Records     []Record
	Births      int
	Collisions  []Collision
}

// Track validates the descriptor tables, links all frame pairs and assembles trajectories.
// Nothing is returned unless every check passes.
func (tracker *Tracker) Track(tables map[int][]Object) (*Result, error) {
	fs, err := NewFrameSet(tables)
	if err != nil {
		return nil, errors.Wrap(err, "can't ingest descriptor tables")
	}
	return tracker.TrackFrames(fs)
}

// TrackFrames is Track for an already validated FrameSet
func (tracker *Tracker) TrackFrames(fs *FrameSet) (*Result, error) {
	tracker.infof("Linking %d objects over %d frames (%s, policy %s)", fs.NumObjects(), fs.Len(), tracker.constraints, tracker.policy)
	pairs, err := LinkAll(fs, tracker.constraints, tracker.policy, tracker.workers)
	if err != nil {
		return nil, err
	}

	var collisions []Collision
	for _, pl := range pairs {
		for _, c := range pl.Collisions() {
			tracker.warnf("Successor %s claimed by %d predecessors %v", c.Target, len(c.Sources), c.Sources)
			collisions = append(collisions, c)
		}
	}

	assembly, err := Assemble(fs, pairs)
	if err != nil {
		return nil, errors.Wrap(err, "can't assemble trajectories")
	}
	tracker.infof("Assembled %d records into %d trajectories", len(assembly.Records), assembly.Births)

	return &Result{
		RunID:       uuid.New(),
		Constraints: tracker.constraints,
		Policy:      tracker.policy,
		Records:     assembly.Records,
		Births:      assembly.Births,
		Collisions:  collisions,
	}, nil
}

func (tracker *Tracker) infof(format string, args ...any) {
	if tracker.log != nil {
		tracker.log.Infof(format, args...)
	}
}

func (tracker *Tracker) warnf(format string, args ...any) {
	if tracker.log != nil {
		tracker.log.Warnf(format, args...)
	}
}

// Trajectories groups records by trajectory, each group in frame order
func (result *Result) Trajectories() map[TrajectoryID][]Record {
	groups := make(map[TrajectoryID][]Record)
	for _, rec := range result.Records {
		groups[rec.TrajID] = append(groups[rec.TrajID], rec)
	}
	return groups
}

// FilterByLength returns records whose trajectory has at least minLength records
func (result *Result) FilterByLength(minLength int) []Record {
	kept := make([]Record, 0, len(result.Records))
	for _, rec := range result.Records {
		if rec.TrajLength >= minLength {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Lookup returns the record of id
func (result *Result) Lookup(id ObjectID) (Record, bool) {
	for _, rec := range result.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}
