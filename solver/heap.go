package solver

import "container/heap"

type node struct {
	index int
	value float64
}

// boundedHeap keeps the k most extreme nodes seen. A min-heap keeps the k
// largest values (its top is the smallest kept); a max-heap keeps the k
// smallest.
type boundedHeap struct {
	nodes []node
	max   bool
	limit int
}

func newBoundedHeap(limit int, isMax bool) *boundedHeap {
	return &boundedHeap{nodes: make([]node, 0, limit), max: isMax, limit: limit}
}

func (h *boundedHeap) Len() int { return len(h.nodes) }

func (h *boundedHeap) Less(i, j int) bool {
	if h.max {
		return h.nodes[i].value > h.nodes[j].value
	}
	return h.nodes[i].value < h.nodes[j].value
}

func (h *boundedHeap) Swap(i, j int) { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *boundedHeap) Push(x any) { h.nodes = append(h.nodes, x.(node)) }

func (h *boundedHeap) Pop() any {
	n := len(h.nodes)
	x := h.nodes[n-1]
	h.nodes = h.nodes[:n-1]
	return x
}

func (h *boundedHeap) top() node { return h.nodes[0] }

// offer inserts n, evicting the top when the heap is full and n is more
// extreme than it.
func (h *boundedHeap) offer(n node) {
	if h.Len() < h.limit {
		heap.Push(h, n)
		return
	}
	t := h.top()
	if (!h.max && t.value < n.value) || (h.max && t.value > n.value) {
		heap.Pop(h)
		heap.Push(h, n)
	}
}

func (h *boundedHeap) pop() node {
	return heap.Pop(h).(node)
}
