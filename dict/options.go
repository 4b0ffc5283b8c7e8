package dict

import "github.com/hupe1980/blobkv/value"

// DefaultSize is used when a table is created with size 0.
const DefaultSize = 4096

type options[K, V any] struct {
	keyDestroy   value.Destroy[K]
	valueDestroy value.Destroy[V]
}

// Option configures a table at construction time.
type Option[K, V any] func(*options[K, V])

// WithKeyDestroy sets a callback invoked once for every key the table drops.
func WithKeyDestroy[K, V any](fn value.Destroy[K]) Option[K, V] {
	return func(o *options[K, V]) {
		o.keyDestroy = fn
	}
}

// WithValueDestroy sets a callback invoked once for every value the table
// drops, including values replaced by Set.
func WithValueDestroy[K, V any](fn value.Destroy[V]) Option[K, V] {
	return func(o *options[K, V]) {
		o.valueDestroy = fn
	}
}

func applyOptions[K, V any](opts []Option[K, V]) options[K, V] {
	var o options[K, V]
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o *options[K, V]) destroyValue(v V) {
	if o.valueDestroy != nil {
		o.valueDestroy(v)
	}
}

func (o *options[K, V]) destroyEntry(e *entry[K, V]) {
	if o.keyDestroy != nil {
		o.keyDestroy(e.key)
	}
	if o.valueDestroy != nil {
		o.valueDestroy(e.val)
	}
}
