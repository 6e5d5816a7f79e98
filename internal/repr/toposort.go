package repr

import (
	"sort"
	"strings"

	"bridgegen/internal/errors"
)

// topoSort returns node indices so that every node comes after the nodes it
// depends on. depsFn(i) yields the indices i depends on.
//
// The result is deterministic: when multiple nodes are available, the
// smallest index is picked. A cycle returns an error listing the indices
// that could not be placed.
func topoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, errors.AssertionFailedf("dependency index out of range: %d depends on %d", i, d)
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)

		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) != n {
		var stuck []int

		for i := range n {
			if indeg[i] > 0 {
				stuck = append(stuck, i)
			}
		}

		return nil, &CycleError{Nodes: stuck}
	}

	return order, nil
}

// CycleError reports nodes that embed each other by value.
type CycleError struct {
	Nodes []int
	Names []string
}

func (e *CycleError) Error() string {
	if len(e.Names) > 0 {
		return "cycle detected between " + strings.Join(e.Names, ", ")
	}

	return "cycle detected"
}
