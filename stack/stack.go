// Package stack implements a LIFO stack that is safe for concurrent use.
//
// It is the only container in this module with internal locking. Concurrent
// callers are serialized; no ordering between goroutines is promised beyond
// that.
package stack

import (
	"github.com/hupe1980/blobkv/internal/guard"
	"github.com/hupe1980/blobkv/vector"
)

const initialCapacity = 1024

// Stack is a mutex-guarded vector.
type Stack[T any] struct {
	g *guard.Guarded[vector.Vector[T]]
}

// New returns an empty stack.
func New[T any]() *Stack[T] {
	v := vector.New[T](0)
	v.Reserve(initialCapacity)
	return &Stack[T]{g: guard.New(*v)}
}

// Push adds x on top of the stack.
func (s *Stack[T]) Push(x T) {
	s.g.Do(func(v *vector.Vector[T]) { v.PushBack(x) })
}

// Pop removes and returns the top element. ok is false when empty.
func (s *Stack[T]) Pop() (T, bool) {
	return guard.With(s.g, func(v *vector.Vector[T]) (T, bool) { return v.Pop() })
}

// Peek returns the top element without removing it. ok is false when empty.
func (s *Stack[T]) Peek() (T, bool) {
	return guard.With(s.g, func(v *vector.Vector[T]) (T, bool) { return v.Last() })
}

// Len returns the number of elements.
func (s *Stack[T]) Len() int {
	n, _ := guard.With(s.g, func(v *vector.Vector[T]) (int, bool) { return v.Len(), true })
	return n
}

// Destroy releases the backing storage.
func (s *Stack[T]) Destroy() {
	s.g.Do(func(v *vector.Vector[T]) { v.Destroy() })
}
