package lineage

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// optimalAssignment solves the one-to-one matching of a frame pair that
// maximizes total (radius - distance) over feasible edges.
//
// Only predecessors and successors owning at least one feasible edge enter the
// matrix. It is padded square and solved as a min-cost perfect assignment:
// a feasible cell costs its distance, any other cell costs radius. Since every
// feasible distance is below radius, minimizing total cost maximizes total
// score, and assignments landing on non-feasible cells are dropped.
func optimalAssignment(candidates [][]*edge, numSources, numTargets int, radius float64) []*edge {
	accepted := make([]*edge, numSources)

	rows := make([]int, 0)
	targetSet := make(map[int]struct{})
	for i, row := range candidates {
		if len(row) == 0 {
			continue
		}
		rows = append(rows, i)
		for _, e := range row {
			targetSet[e.target] = struct{}{}
		}
	}
	if len(rows) == 0 {
		return accepted
	}
	cols := make([]int, 0, len(targetSet))
	for j := range targetSet {
		cols = append(cols, j)
	}
	sort.Ints(cols)
	colOf := make(map[int]int, len(cols))
	for k, j := range cols {
		colOf[j] = k
	}

	size := maxInt(len(rows), len(cols))
	costs := mat.NewDense(size, size, nil)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			costs.Set(r, c, radius)
		}
	}
	edgeAt := make(map[[2]int]*edge)
	for r, i := range rows {
		for _, e := range candidates[i] {
			c := colOf[e.target]
			costs.Set(r, c, e.distance)
			edgeAt[[2]int{r, c}] = e
		}
	}

	for r, c := range minCostAssignment(costs) {
		if r >= len(rows) || c < 0 || c >= len(cols) {
			continue
		}
		e, ok := edgeAt[[2]int{r, c}]
		if !ok {
			continue
		}
		accepted[rows[r]] = e
	}
	return accepted
}

// minCostAssignment is the Kuhn-Munkres algorithm with row and column
// potentials for a square cost matrix, O(n^3). Result r holds the column
// assigned to row r.
func minCostAssignment(costs mat.Matrix) []int {
	n, _ := costs.Dims()
	if n == 0 {
		return nil
	}
	inf := math.MaxFloat64 / 2

	// 1-indexed; column 0 and row 0 are virtual
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= n; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := costs.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
