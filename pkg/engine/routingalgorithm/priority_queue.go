package routingalgorithm

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var ErrHeapEmpty = errors.New("heap is empty")

// PriorityQueueNode Rank = f (g+h). Tiebreak = h, kalau Rank sama node yang lebih dekat ke tujuan duluan,
// kalau masih sama pakai urutan insert (FIFO).
type PriorityQueueNode[T constraints.Integer] struct {
	Rank     float64
	Tiebreak float64
	Item     T
	seq      uint64
}

// MinHeap binary heap priorityqueue dengan decrease key.
type MinHeap[T constraints.Integer] struct {
	heap    []PriorityQueueNode[T]
	pos     map[T]int
	counter uint64
}

func NewMinHeap[T constraints.Integer]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) less(i, j int) bool {
	a, b := h.heap[i], h.heap[j]
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	if a.Tiebreak != b.Tiebreak {
		return a.Tiebreak < b.Tiebreak
	}
	return a.seq < b.seq
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

// heapifyUp swap dengan parent selama parent lebih besar. O(logN).
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.less(index, h.parent(index)) {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown swap dengan child terkecil selama child lebih kecil. O(logN).
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	return h.heap[0], nil
}

// Insert item baru. Kalau item sudah ada di heap, pakai DecreaseKey.
func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	key.seq = h.counter
	h.counter++
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.Item] = index
	h.heapifyUp(index)
}

// ExtractMin ambil & pop nilai minimum (index 0). O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	h.heapifyDown(0)
	return root, nil
}

// DecreaseKey update Rank & Tiebreak item yang sudah ada di heap. Urutan insert (seq) tetap. O(logN).
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	index, ok := h.pos[item.Item]
	if !ok {
		return errors.New("item not found in the heap")
	}
	if item.Rank > h.heap[index].Rank {
		return errors.New("new rank is greater than the current rank")
	}
	item.seq = h.heap[index].seq
	h.heap[index] = item
	h.heapifyUp(index)
	return nil
}

func (h *MinHeap[T]) GetItem(item T) (PriorityQueueNode[T], bool) {
	index, ok := h.pos[item]
	if !ok {
		return PriorityQueueNode[T]{}, false
	}
	return h.heap[index], true
}
