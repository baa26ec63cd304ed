package linear

import "github.com/YuminosukeSato/golinear/core/sparse"

// classGroups is the result of grouping samples by label.
type classGroups struct {
	label []int
	start []int
	count []int
	// perm lists sample indices grouped by class: class i occupies
	// perm[start[i]:start[i]+count[i]].
	perm []int
}

func (g *classGroups) nrClass() int { return len(g.label) }

// groupClasses orders classes by first occurrence. For exactly the labels
// -1 and +1 the order is swapped so that +1 is class 0.
func groupClasses(prob *sparse.Problem) classGroups {
	l := prob.L
	var label, count []int
	index := make(map[int]int)
	dataLabel := make([]int, l)

	for i := 0; i < l; i++ {
		this := int(prob.Y[i])
		j, ok := index[this]
		if !ok {
			j = len(label)
			index[this] = j
			label = append(label, this)
			count = append(count, 0)
		}
		count[j]++
		dataLabel[i] = j
	}

	if len(label) == 2 && label[0] == -1 && label[1] == 1 {
		label[0], label[1] = label[1], label[0]
		count[0], count[1] = count[1], count[0]
		for i := range dataLabel {
			dataLabel[i] = 1 - dataLabel[i]
		}
	}

	nrClass := len(label)
	start := make([]int, nrClass)
	for i := 1; i < nrClass; i++ {
		start[i] = start[i-1] + count[i-1]
	}
	perm := make([]int, l)
	next := append([]int(nil), start...)
	for i := 0; i < l; i++ {
		perm[next[dataLabel[i]]] = i
		next[dataLabel[i]]++
	}

	return classGroups{label: label, start: start, count: count, perm: perm}
}

// ClassLabels returns the labels of prob in the order Train assigns them to
// decision functions.
func ClassLabels(prob *sparse.Problem) []int {
	return groupClasses(prob).label
}
