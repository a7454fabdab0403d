package lineage

// edge is one feasible (predecessor, successor) pair of a frame pair.
// source and target index into the predecessor and successor frame tables.
type edge struct {
	source      int
	target      int
	sourceLabel int
	targetLabel int
	distance    float64
}

// before is the total order used everywhere an edge has to win over another:
// smaller distance, then lower successor label, then lower predecessor label
func (e *edge) before(other *edge) bool {
	if e.distance != other.distance {
		return e.distance < other.distance
	}
	if e.targetLabel != other.targetLabel {
		return e.targetLabel < other.targetLabel
	}
	return e.sourceLabel < other.sourceLabel
}

// Same approach as container/heap - https://golang.org/pkg/container/heap/
// but typed, so no interface{} conversion on every Push/Pop

type edgeHeap []*edge

func (h edgeHeap) Len() int           { return len(h) }
func (h edgeHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h edgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *edgeHeap) Push(x *edge) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *edgeHeap) Pop() *edge {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	last := (*h)[n]
	(*h)[n] = nil
	*h = (*h)[:n]
	return last
}

func (h edgeHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h edgeHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}
