package datastructure

import "errors"

var ErrEmptyHeap = errors.New("heap is empty")

// PriorityQueueNode ordered by (Rank, seq). seq is the insertion counter, so equal ranks pop in
// insertion order and the queue never has to compare items.
type PriorityQueueNode[T any] struct {
	Rank float64
	Item T
	seq  uint64
}

// MinHeap binary heap priority queue.
type MinHeap[T any] struct {
	heap    []PriorityQueueNode[T]
	nextSeq uint64
}

func NewMinHeap[T any]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0, 64),
	}
}

func (h *MinHeap[T]) less(i, j int) bool {
	if h.heap[i].Rank != h.heap[j].Rank {
		return h.heap[i].Rank < h.heap[j].Rank
	}
	return h.heap[i].seq < h.heap[j].seq
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Insert(rank float64, item T) {
	h.heap = append(h.heap, PriorityQueueNode[T]{Rank: rank, Item: item, seq: h.nextSeq})
	h.nextSeq++

	index := len(h.heap) - 1
	for index > 0 {
		parent := (index - 1) / 2
		if !h.less(index, parent) {
			break
		}
		h.heap[parent], h.heap[index] = h.heap[index], h.heap[parent]
		index = parent
	}
}

// ExtractMin pop the minimum. O(logN)
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if len(h.heap) == 0 {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]

	index := 0
	for {
		smallest := index
		left := index*2 + 1
		right := index*2 + 2
		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			break
		}
		h.heap[smallest], h.heap[index] = h.heap[index], h.heap[smallest]
		index = smallest
	}
	return root, nil
}
