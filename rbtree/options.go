package rbtree

import "github.com/hupe1980/blobkv/value"

type options[K, V any] struct {
	keyDestroy   value.Destroy[K]
	valueDestroy value.Destroy[V]
}

// Option configures a Tree.
type Option[K, V any] func(*options[K, V])

// WithKeyDestroy sets a callback invoked once for every key the tree drops.
func WithKeyDestroy[K, V any](fn value.Destroy[K]) Option[K, V] {
	return func(o *options[K, V]) {
		o.keyDestroy = fn
	}
}

// WithValueDestroy sets a callback invoked once for every value the tree
// drops, including values replaced by Set.
func WithValueDestroy[K, V any](fn value.Destroy[V]) Option[K, V] {
	return func(o *options[K, V]) {
		o.valueDestroy = fn
	}
}
