package dag

import "slices"

// TopoSort returns node IDs ordered so that every node follows all of its
// children: dependencies come before their dependents. Among nodes that are
// ready at the same time, insertion order wins, so the result is stable.
//
// Returns ErrGraphHasCycle if some nodes can never become ready.
func (d *DAG) TopoSort() ([]string, error) {
	pos := make(map[string]int, len(d.order))
	for i, id := range d.order {
		pos[id] = i
	}

	pending := make(map[string]int, len(d.order))
	var ready []int
	for i, id := range d.order {
		pending[id] = len(d.out[id])
		if pending[id] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]string, 0, len(d.order))
	for len(ready) > 0 {
		id := d.order[ready[0]]
		ready = ready[1:]
		out = append(out, id)

		for _, parent := range d.in[id] {
			pending[parent]--
			if pending[parent] == 0 {
				p := pos[parent]
				i, _ := slices.BinarySearch(ready, p)
				ready = slices.Insert(ready, i, p)
			}
		}
	}

	if len(out) != len(d.order) {
		return nil, ErrGraphHasCycle
	}
	return out, nil
}
