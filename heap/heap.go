// Package heap implements a binary heap ordered by a caller-supplied
// comparator.
//
// The element for which the comparator reports "sorts first" sits at the
// top: an ascending comparator yields a min-heap, a descending one a
// max-heap. Equal elements come out in no particular order.
package heap

import "github.com/hupe1980/blobkv/vector"

// Heap is a binary heap stored densely in a Vector.
// It is not safe for concurrent use.
type Heap[T any] struct {
	items *vector.Vector[T]
	cmp   func(a, b T) int
}

// New returns an empty heap ordered by cmp.
func New[T any](cmp func(a, b T) int) *Heap[T] {
	return &Heap[T]{
		items: vector.New[T](0),
		cmp:   cmp,
	}
}

// Len returns the number of elements.
func (h *Heap[T]) Len() int { return h.items.Len() }

// Empty reports whether the heap holds no elements.
func (h *Heap[T]) Empty() bool { return h.items.Len() == 0 }

// Top returns the first element without removing it.
func (h *Heap[T]) Top() (x T, ok bool) {
	if h.items.Len() == 0 {
		return x, false
	}
	return h.items.At(0), true
}

// Push inserts x.
func (h *Heap[T]) Push(x T) {
	h.items.PushBack(x)
	h.siftUp(h.items.Len() - 1)
}

// Pop removes and returns the first element.
func (h *Heap[T]) Pop() (x T, ok bool) {
	n := h.items.Len()
	if n == 0 {
		return x, false
	}
	x = h.items.At(0)
	h.items.Set(0, h.items.At(n-1))
	h.items.Pop()
	h.siftDown(0)
	return x, true
}

// Drain pops every element and returns them in heap order.
func (h *Heap[T]) Drain() []T {
	out := make([]T, 0, h.items.Len())
	for {
		x, ok := h.Pop()
		if !ok {
			return out
		}
		out = append(out, x)
	}
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if h.cmp(h.items.At(p), h.items.At(i)) <= 0 {
			return
		}
		h.items.Swap(i, p)
		i = p
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := h.items.Len()
	for {
		best := 2*i + 1
		if best >= n {
			return
		}
		if r := best + 1; r < n && h.cmp(h.items.At(best), h.items.At(r)) > 0 {
			best = r
		}
		if h.cmp(h.items.At(i), h.items.At(best)) <= 0 {
			return
		}
		h.items.Swap(i, best)
		i = best
	}
}
