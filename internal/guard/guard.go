// Package guard provides scoped exclusive access to a value.
package guard

import "sync"

// Guarded owns a value of type T and serializes every access to it.
// The lock is not reentrant: fn must not call back into the same Guarded.
type Guarded[T any] struct {
	mu sync.Mutex
	v  T
}

// New returns a Guarded holding v.
func New[T any](v T) *Guarded[T] {
	return &Guarded[T]{v: v}
}

// Do runs fn with exclusive access to the guarded value.
func (g *Guarded[T]) Do(fn func(v *T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.v)
}

// With runs fn with exclusive access and returns its results.
func With[T, R any](g *Guarded[T], fn func(v *T) (R, bool)) (R, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&g.v)
}
