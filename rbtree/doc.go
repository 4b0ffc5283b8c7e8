// Package rbtree implements an ordered map as a red-black tree.
//
// Nodes live in a paged arena and refer to each other by int32 index, so
// rotations only rewrite indices and removed slots are recycled through a
// free list. A [Node] is a lightweight handle into the arena; it stays
// valid until its key is removed from the tree.
//
// Bounds follow floor/ceiling semantics:
//
//	LowerBound(k)  greatest key <= k
//	UpperBound(k)  least key >= k
//	AnyBound(k)    LowerBound(k), or Min when no key <= k exists
//
// A Tree is not safe for concurrent use.
package rbtree
