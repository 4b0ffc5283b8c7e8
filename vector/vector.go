// Package vector implements a growable contiguous array.
package vector

import "slices"

// Vector is a growable array with explicit length and capacity.
// It is not safe for concurrent use.
type Vector[T any] struct {
	arr []T // len(arr) is the capacity; elements past n are unused
	n   int
}

// New returns a vector of the given length with capacity equal to length.
func New[T any](length int) *Vector[T] {
	return &Vector[T]{arr: make([]T, length), n: length}
}

// FromSlice returns a vector holding a copy of s.
func FromSlice[T any](s []T) *Vector[T] {
	v := New[T](len(s))
	copy(v.arr, s)
	return v
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return v.n }

// Cap returns the size of the backing storage.
func (v *Vector[T]) Cap() int { return len(v.arr) }

// Resize sets the length, growing the backing storage if needed.
// Shrinking never reallocates.
func (v *Vector[T]) Resize(length int) {
	if length > len(v.arr) {
		v.Reserve(length)
	}
	if length < v.n {
		clear(v.arr[length:v.n])
	}
	v.n = length
}

// Reserve resizes the backing storage to exactly capacity elements.
// It is a no-op when the vector holds more than capacity elements.
func (v *Vector[T]) Reserve(capacity int) {
	if v.n > capacity {
		return
	}
	arr := make([]T, capacity)
	copy(arr, v.arr[:v.n])
	v.arr = arr
}

// PushBack appends x, doubling the capacity when full.
func (v *Vector[T]) PushBack(x T) {
	for v.n == len(v.arr) {
		v.Reserve((len(v.arr) + 1) * 2)
	}
	v.arr[v.n] = x
	v.n++
}

// Pop removes and returns the last element. ok is false when empty.
func (v *Vector[T]) Pop() (x T, ok bool) {
	if v.n == 0 {
		return x, false
	}
	v.n--
	x = v.arr[v.n]
	var zero T
	v.arr[v.n] = zero
	return x, true
}

// Last returns the last element without removing it. ok is false when empty.
func (v *Vector[T]) Last() (x T, ok bool) {
	if v.n == 0 {
		return x, false
	}
	return v.arr[v.n-1], true
}

// At returns the element at index i. It panics if i is out of range.
func (v *Vector[T]) At(i int) T {
	return v.arr[:v.n][i]
}

// Set stores x at index i. It panics if i is out of range.
func (v *Vector[T]) Set(i int, x T) {
	v.arr[:v.n][i] = x
}

// Swap exchanges the elements at i and j.
func (v *Vector[T]) Swap(i, j int) {
	s := v.arr[:v.n]
	s[i], s[j] = s[j], s[i]
}

// Slice returns the live elements. The slice aliases the vector's storage
// and is invalidated by the next growth.
func (v *Vector[T]) Slice() []T {
	return v.arr[:v.n]
}

// SortStableFunc sorts the elements with cmp, keeping equal elements in
// their original order.
func (v *Vector[T]) SortStableFunc(cmp func(a, b T) int) {
	slices.SortStableFunc(v.arr[:v.n], cmp)
}

// Destroy releases the backing storage. Elements are not visited.
func (v *Vector[T]) Destroy() {
	v.arr = nil
	v.n = 0
}
