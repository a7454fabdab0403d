package lineage

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func frameOf(index int, objects ...Object) Frame {
	return Frame{Index: index, Objects: objects}
}

func TestLinkPairUniqueCandidate(t *testing.T) {
	current := frameOf(0, cell(0, 1, 10, 10, 100))
	next := frameOf(1, cell(1, 7, 12, 12, 100), cell(1, 8, 40, 40, 100))

	links, err := LinkPair(current, next, testConstraints(), CollisionOverwrite)
	require.NoError(t, err)

	succ, ok := links.Successor(NewObjectID(1, 0))
	require.True(t, ok)
	assert.Equal(t, NewObjectID(7, 1), succ)
	assert.Equal(t, 1, links.Len())
	assert.Empty(t, links.Collisions())
}

func TestLinkPairAmbiguousCandidates(t *testing.T) {
	// Farther candidate has the lower label, so label order alone would pick the wrong one
	current := frameOf(3, cell(3, 1, 0, 0, 100))
	next := frameOf(4, cell(4, 1, 0, 4, 100), cell(4, 2, 2, 0, 100))

	links, err := LinkPair(current, next, testConstraints(), CollisionOverwrite)
	require.NoError(t, err)

	succ, ok := links.Successor(NewObjectID(1, 3))
	require.True(t, ok)
	assert.Equal(t, NewObjectID(2, 4), succ)
}

func TestLinkPairEqualDistanceTieGoesToLowestLabel(t *testing.T) {
	current := frameOf(0, cell(0, 1, 0, 0, 100))
	orders := [][]Object{
		{cell(1, 5, 3, 0, 100), cell(1, 3, -3, 0, 100)},
		{cell(1, 3, -3, 0, 100), cell(1, 5, 3, 0, 100)},
	}
	for _, objects := range orders {
		links, err := LinkPair(current, frameOf(1, objects...), testConstraints(), CollisionOverwrite)
		require.NoError(t, err)
		succ, ok := links.Successor(NewObjectID(1, 0))
		require.True(t, ok)
		assert.Equal(t, NewObjectID(3, 1), succ)
	}
}

func TestLinkPairGates(t *testing.T) {
	src := cell(0, 1, 0, 0, 100)
	tests := []struct {
		name      string
		candidate Object
		linked    bool
	}{
		{"inside all gates", cell(1, 1, 1, 1, 100), true},
		{"distance equal to radius", cell(1, 1, 3, 4, 100), false},
		{"distance just below radius", cell(1, 1, 3, 3.99, 100), true},
		{"area ratio at upper bound", cell(1, 1, 1, 1, 110), true},
		{"area ratio above upper bound", cell(1, 1, 1, 1, 111), false},
		{"area ratio at lower bound", cell(1, 1, 1, 1, 90), true},
		{"area ratio below lower bound", cell(1, 1, 1, 1, 89), false},
		{"orientation at upper bound", withOrientation(cell(1, 1, 1, 1, 100), 0.1), true},
		{"orientation above upper bound", withOrientation(cell(1, 1, 1, 1, 100), 0.11), false},
		{"orientation below lower bound", withOrientation(cell(1, 1, 1, 1, 100), -0.2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := LinkPair(frameOf(0, src), frameOf(1, tt.candidate), testConstraints(), CollisionOverwrite)
			require.NoError(t, err)
			_, ok := links.Successor(src.ID)
			assert.Equal(t, tt.linked, ok)
		})
	}
}

func withOrientation(obj Object, orientation float64) Object {
	obj.Orientation = orientation
	return obj
}

func TestLinkPairOrientationIsNotWrapped(t *testing.T) {
	// pi/2 and -pi/2 describe the same axis, but the difference is taken as is
	src := withOrientation(cell(0, 1, 0, 0, 100), 1.5707)
	cand := withOrientation(cell(1, 1, 1, 0, 100), -1.5707)
	links, err := LinkPair(frameOf(0, src), frameOf(1, cand), testConstraints(), CollisionOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 0, links.Len())
}

func TestLinkPairInvalidArea(t *testing.T) {
	_, err := LinkPair(frameOf(0, cell(0, 1, 0, 0, 0)), frameOf(1, cell(1, 1, 0, 0, 100)), testConstraints(), CollisionOverwrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArea))

	_, err = LinkPair(frameOf(0, cell(0, 1, 0, 0, 100)), frameOf(1, cell(1, 1, 0, 0, -5)), testConstraints(), CollisionOverwrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArea))

	// Inf/Inf would make the ratio NaN and silently drop the link
	_, err = LinkPair(frameOf(0, cell(0, 1, 0, 0, math.Inf(1))), frameOf(1, cell(1, 1, 0, 0, math.Inf(1))), testConstraints(), CollisionOverwrite)
	assert.True(t, errors.Is(err, ErrInvalidArea))

	_, err = LinkPair(frameOf(0, cell(0, 1, 0, 0, 100)), frameOf(1, cell(1, 1, math.NaN(), 0, 100)), testConstraints(), CollisionOverwrite)
	assert.True(t, errors.Is(err, ErrInvalidCentroid))
}

func TestLinkPairOpenGates(t *testing.T) {
	constraints := Constraints{
		SearchRadius:   5,
		AreaRatio:      NewRange(math.Inf(-1), math.Inf(1)),
		OrientationDif: NewRange(math.Inf(-1), math.Inf(1)),
	}
	require.NoError(t, constraints.Validate())
	src := cell(0, 1, 0, 0, 100)
	candidate := withOrientation(cell(1, 4, 1, 1, 900), 3)
	links, err := LinkPair(frameOf(0, src), frameOf(1, candidate), constraints, CollisionOverwrite)
	require.NoError(t, err)
	succ, ok := links.Successor(src.ID)
	require.True(t, ok)
	assert.Equal(t, candidate.ID, succ)

	constraints.SearchRadius = math.Inf(1)
	assert.True(t, errors.Is(constraints.Validate(), ErrInvalidConstraints))
}

func TestLinkPairGap(t *testing.T) {
	_, err := LinkPair(frameOf(0, cell(0, 1, 0, 0, 100)), frameOf(2, cell(2, 1, 0, 0, 100)), testConstraints(), CollisionOverwrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonContiguousFrames))
}

func TestLinkPairEmptyFrames(t *testing.T) {
	links, err := LinkPair(frameOf(0), frameOf(1, cell(1, 1, 0, 0, 100)), testConstraints(), CollisionOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 0, links.Len())

	links, err = LinkPair(frameOf(0, cell(0, 1, 0, 0, 100)), frameOf(1), testConstraints(), CollisionOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 0, links.Len())
}

func TestLinkPairCollisionPolicies(t *testing.T) {
	// Both predecessors are 2px away from the single successor
	current := frameOf(0, cell(0, 1, 0, 0, 100), cell(0, 2, 4, 0, 100))
	next := frameOf(1, cell(1, 1, 2, 0, 100))
	a, b, c := NewObjectID(1, 0), NewObjectID(2, 0), NewObjectID(1, 1)

	overwrite, err := LinkPair(current, next, testConstraints(), CollisionOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 2, overwrite.Len())
	require.Len(t, overwrite.Collisions(), 1)
	assert.Equal(t, c, overwrite.Collisions()[0].Target)
	assert.Equal(t, []ObjectID{a, b}, overwrite.Collisions()[0].Sources)

	exclusive, err := LinkPair(current, next, testConstraints(), CollisionExclusive)
	require.NoError(t, err)
	assert.Equal(t, 1, exclusive.Len())
	succ, ok := exclusive.Successor(a)
	require.True(t, ok)
	assert.Equal(t, c, succ)
	_, ok = exclusive.Successor(b)
	assert.False(t, ok)
	// Contention is reported whatever the policy
	assert.Len(t, exclusive.Collisions(), 1)

	optimal, err := LinkPair(current, next, testConstraints(), CollisionOptimal)
	require.NoError(t, err)
	assert.Equal(t, 1, optimal.Len())
}

func TestLinkPairOptimalBeatsGreedy(t *testing.T) {
	// B-C is the shortest edge, but taking it leaves A without any successor
	current := frameOf(0, cell(0, 1, 0, 0, 100), cell(0, 2, 3, 0, 100))
	next := frameOf(1, cell(1, 1, 2, 0, 100), cell(1, 2, 6, 0, 100))
	a, b := NewObjectID(1, 0), NewObjectID(2, 0)
	c, d := NewObjectID(1, 1), NewObjectID(2, 1)

	greedy, err := LinkPair(current, next, testConstraints(), CollisionExclusive)
	require.NoError(t, err)
	assert.Equal(t, 1, greedy.Len())
	succ, ok := greedy.Successor(b)
	require.True(t, ok)
	assert.Equal(t, c, succ)

	optimal, err := LinkPair(current, next, testConstraints(), CollisionOptimal)
	require.NoError(t, err)
	require.Equal(t, 2, optimal.Len())
	succ, _ = optimal.Successor(a)
	assert.Equal(t, c, succ)
	succ, _ = optimal.Successor(b)
	assert.Equal(t, d, succ)
}

// bestMatchingScore is an exhaustive search over one-to-one matchings of feasible edges
func bestMatchingScore(candidates [][]*edge, radius float64, source int, usedTargets map[int]bool) float64 {
	if source == len(candidates) {
		return 0
	}
	best := bestMatchingScore(candidates, radius, source+1, usedTargets)
	for _, e := range candidates[source] {
		if usedTargets[e.target] {
			continue
		}
		usedTargets[e.target] = true
		score := radius - e.distance + bestMatchingScore(candidates, radius, source+1, usedTargets)
		usedTargets[e.target] = false
		if score > best {
			best = score
		}
	}
	return best
}

func TestLinkPairOptimalMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	constraints := testConstraints()
	randomFrame := func(index int) Frame {
		n := 1 + rng.Intn(5)
		objects := make([]Object, n)
		for i := range objects {
			objects[i] = cell(index, i+1, rng.Float64()*12, rng.Float64()*12, 95+rng.Float64()*10)
		}
		return frameOf(index, objects...)
	}

	for iter := 0; iter < 2000; iter++ {
		current, next := randomFrame(0), randomFrame(1)
		links, err := LinkPair(current, next, constraints, CollisionOptimal)
		require.NoError(t, err)

		got := 0.0
		seen := make(map[ObjectID]bool)
		for i := range current.Objects {
			succ, ok := links.Successor(current.Objects[i].ID)
			if !ok {
				continue
			}
			require.False(t, seen[succ], "iter %d: successor %s assigned twice", iter, succ)
			seen[succ] = true
			target := &next.Objects[succ.Label-1]
			dist, feasible := constraints.admits(&current.Objects[i], target)
			require.True(t, feasible, "iter %d: infeasible link %s -> %s", iter, current.Objects[i].ID, succ)
			got += constraints.SearchRadius - dist
		}

		candidates := feasibleEdges(current.Objects, next.Objects, constraints)
		want := bestMatchingScore(candidates, constraints.SearchRadius, 0, make(map[int]bool))
		if math.Abs(got-want) > eps {
			t.Fatalf("iter %d: total score %v, best possible %v", iter, got, want)
		}
	}
}

func TestMinCostAssignment(t *testing.T) {
	// Optimal: row0->col0 (1), row1->col1 (4), row2->col2 (5) = 10
	costs := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 4, 6,
		9, 8, 5,
	})
	assert.Equal(t, []int{0, 1, 2}, minCostAssignment(costs))

	// Complement of a score matrix a greedy row scan gets wrong
	scores := []float64{
		3.24, 0, 2.98,
		0, 0, 2.54,
		4.05, 0, 0.41,
	}
	complement := make([]float64, len(scores))
	for i, s := range scores {
		complement[i] = 5 - s
	}
	assignment := minCostAssignment(mat.NewDense(3, 3, complement))
	total := 0.0
	for r, c := range assignment {
		total += scores[r*3+c]
	}
	assert.InDelta(t, 7.03, total, eps)

	assert.Nil(t, minCostAssignment(&mat.Dense{}))
}

func TestParseCollisionPolicy(t *testing.T) {
	for _, p := range []CollisionPolicy{CollisionOverwrite, CollisionExclusive, CollisionOptimal} {
		parsed, err := ParseCollisionPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParseCollisionPolicy("bipartite")
	assert.Error(t, err)
}

func TestEdgeHeapOrder(t *testing.T) {
	h := make(edgeHeap, 0)
	h.Push(&edge{distance: 3, sourceLabel: 1, targetLabel: 1})
	h.Push(&edge{distance: 1, sourceLabel: 2, targetLabel: 4})
	h.Push(&edge{distance: 1, sourceLabel: 1, targetLabel: 4})
	h.Push(&edge{distance: 1, sourceLabel: 9, targetLabel: 2})
	h.Push(&edge{distance: 2, sourceLabel: 1, targetLabel: 1})

	expected := [][3]float64{{1, 9, 2}, {1, 1, 4}, {1, 2, 4}, {2, 1, 1}, {3, 1, 1}}
	for _, exp := range expected {
		e := h.Pop()
		assert.Equal(t, exp, [3]float64{e.distance, float64(e.sourceLabel), float64(e.targetLabel)})
	}
	assert.Equal(t, 0, h.Len())
}
