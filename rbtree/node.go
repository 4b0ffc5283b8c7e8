package rbtree

// Node is a handle to an entry of a Tree. The zero Node is invalid.
type Node[K, V any] struct {
	t   *Tree[K, V]
	idx int32
}

// Valid reports whether the handle refers to an entry.
func (n Node[K, V]) Valid() bool { return n.t != nil && n.idx != null }

// Key returns the entry's key.
func (n Node[K, V]) Key() K { return n.t.at(n.idx).key }

// Value returns the entry's value.
func (n Node[K, V]) Value() V { return n.t.at(n.idx).val }

// Ref returns a pointer to the entry's value.
func (n Node[K, V]) Ref() *V { return &n.t.at(n.idx).val }

// Red reports whether the node is colored red.
func (n Node[K, V]) Red() bool { return n.t.at(n.idx).color == red }

// Next returns the in-order successor, or an invalid Node at the end.
func (n Node[K, V]) Next() Node[K, V] {
	if !n.Valid() {
		return n
	}

	return n.t.handle(n.t.next(n.idx))
}

// Prev returns the in-order predecessor, or an invalid Node at the start.
func (n Node[K, V]) Prev() Node[K, V] {
	if !n.Valid() {
		return n
	}

	return n.t.handle(n.t.prev(n.idx))
}
