package lineage

import (
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
	"github.com/pkg/errors"
)

// CollisionPolicy decides what happens when several predecessors pick the same successor
type CollisionPolicy uint16

const (
	// CollisionOverwrite lets every predecessor keep its nearest feasible successor.
	// A contested successor inherits the trajectory of the last predecessor in table order.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionExclusive builds a one-to-one matching greedily, shortest feasible edges first
	CollisionExclusive
	// CollisionOptimal builds the one-to-one matching maximizing total (radius - distance), Kuhn-Munkres algorithm
	CollisionOptimal
)

func (p CollisionPolicy) String() string {
	switch p {
	case CollisionOverwrite:
		return "overwrite"
	case CollisionExclusive:
		return "exclusive"
	case CollisionOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// ParseCollisionPolicy is the inverse of CollisionPolicy.String
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "overwrite", "":
		return CollisionOverwrite, nil
	case "exclusive":
		return CollisionExclusive, nil
	case "optimal":
		return CollisionOptimal, nil
	default:
		return CollisionOverwrite, errors.Errorf("unknown collision policy %q", s)
	}
}

// Collision is a successor that was the nearest feasible candidate of more than one predecessor
type Collision struct {
	Target ObjectID
	// Contending predecessors, in table order
	Sources []ObjectID
}

// PairLinks is the linkage result of frame From to frame From+1. It is not modified after LinkPair returns.
type PairLinks struct {
	From       int
	links      map[ObjectID]ObjectID
	collisions []Collision
}

// Successor returns the successor of id in frame From+1, if any
func (pl *PairLinks) Successor(id ObjectID) (ObjectID, bool) {
	succ, ok := pl.links[id]
	return succ, ok
}

// Len returns number of predecessors that found a successor
func (pl *PairLinks) Len() int {
	return len(pl.links)
}

// Collisions returns successors contested by several predecessors, ordered by successor label
func (pl *PairLinks) Collisions() []Collision {
	return pl.collisions
}

// LinkPair proposes at most one successor in next for every object of current.
//
// A candidate is feasible when its centroid distance is strictly below
// SearchRadius and both the area ratio and the orientation difference fall
// inside their inclusive bounds. Each predecessor prefers its nearest feasible
// candidate; exact distance ties go to the lowest successor label. How
// contested successors are resolved depends on policy.
func LinkPair(current, next Frame, constraints Constraints, policy CollisionPolicy) (*PairLinks, error) {
	if next.Index != current.Index+1 {
		return nil, errors.Wrapf(ErrNonContiguousFrames, "cannot link frame %d to frame %d", current.Index, next.Index)
	}
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	for i := range current.Objects {
		if err := current.Objects[i].validate(); err != nil {
			return nil, err
		}
	}
	for i := range next.Objects {
		if err := next.Objects[i].validate(); err != nil {
			return nil, err
		}
	}

	result := &PairLinks{
		From:  current.Index,
		links: make(map[ObjectID]ObjectID),
	}
	if len(current.Objects) == 0 || len(next.Objects) == 0 {
		return result, nil
	}

	candidates := feasibleEdges(current.Objects, next.Objects, constraints)
	nearest := nearestEdges(candidates)
	result.collisions = findCollisions(nearest, current.Objects, next.Objects)

	var accepted []*edge
	switch policy {
	case CollisionOverwrite:
		accepted = nearest
	case CollisionExclusive:
		accepted = greedyAssignment(candidates)
	case CollisionOptimal:
		accepted = optimalAssignment(candidates, len(current.Objects), len(next.Objects), constraints.SearchRadius)
	default:
		return nil, errors.Errorf("unknown collision policy %d", policy)
	}
	for _, e := range accepted {
		if e == nil {
			continue
		}
		result.links[current.Objects[e.source].ID] = next.Objects[e.target].ID
	}
	return result, nil
}

// feasibleEdges returns, per predecessor, every candidate that passes all gates.
// Candidates are looked up in a spatial index by the square circumscribing the search radius.
func feasibleEdges(current, next []Object, constraints Constraints) [][]*edge {
	fb := flatbush.NewFlatbush[float64]()
	fb.Reserve(len(next))
	for i := range next {
		c := next[i].Centroid
		fb.Add(c.X, c.Y, c.X, c.Y)
	}
	fb.Finish()

	edges := make([][]*edge, len(current))
	for i := range current {
		src := &current[i]
		hits := fb.Search(searchBox(src.Centroid, constraints.SearchRadius))
		// The index returns hits in tree order; sort so results never depend on it
		sort.Ints(hits)
		for _, j := range hits {
			cand := &next[j]
			dist, ok := constraints.admits(src, cand)
			if !ok {
				continue
			}
			edges[i] = append(edges[i], &edge{
				source:      i,
				target:      j,
				sourceLabel: src.ID.Label,
				targetLabel: cand.ID.Label,
				distance:    dist,
			})
		}
	}
	return edges
}

// nearestEdges picks the best edge of every predecessor, nil when it has none
func nearestEdges(candidates [][]*edge) []*edge {
	nearest := make([]*edge, len(candidates))
	for i, row := range candidates {
		for _, e := range row {
			if nearest[i] == nil || e.before(nearest[i]) {
				nearest[i] = e
			}
		}
	}
	return nearest
}

func findCollisions(nearest []*edge, current, next []Object) []Collision {
	byTarget := make(map[int][]int)
	for _, e := range nearest {
		if e == nil {
			continue
		}
		byTarget[e.target] = append(byTarget[e.target], e.source)
	}
	var collisions []Collision
	for target, sources := range byTarget {
		if len(sources) < 2 {
			continue
		}
		sort.Ints(sources)
		ids := make([]ObjectID, len(sources))
		for k, s := range sources {
			ids[k] = current[s].ID
		}
		collisions = append(collisions, Collision{Target: next[target].ID, Sources: ids})
	}
	sort.Slice(collisions, func(a, b int) bool {
		return collisions[a].Target.Label < collisions[b].Target.Label
	})
	return collisions
}

// greedyAssignment takes feasible edges shortest first and accepts an edge
// when neither endpoint is already reserved.
func greedyAssignment(candidates [][]*edge) []*edge {
	pq := make(edgeHeap, 0)
	for _, row := range candidates {
		for _, e := range row {
			pq.Push(e)
		}
	}
	accepted := make([]*edge, len(candidates))
	reservedTargets := make(map[int]struct{})
	for pq.Len() > 0 {
		e := pq.Pop()
		if accepted[e.source] != nil {
			continue
		}
		if _, ok := reservedTargets[e.target]; ok {
			continue
		}
		accepted[e.source] = e
		reservedTargets[e.target] = struct{}{}
	}
	return accepted
}
