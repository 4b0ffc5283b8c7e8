package dict

import (
	"iter"

	"github.com/hupe1980/blobkv/value"
)

// Chained is a separate-chaining hash table. The bucket count is fixed at
// construction; chains simply grow as entries are added.
type Chained[K, V any] struct {
	buckets []*entry[K, V]
	policy  value.KeyPolicy[K]
	order   orderList[K, V]
	opts    options[K, V]
}

// NewChained creates a table with the given number of buckets. A bucket
// count of 0 selects DefaultSize.
func NewChained[K, V any](buckets int, policy value.KeyPolicy[K], optFns ...Option[K, V]) *Chained[K, V] {
	if buckets <= 0 {
		buckets = DefaultSize
	}

	return &Chained[K, V]{
		buckets: make([]*entry[K, V], buckets),
		policy:  policy,
		opts:    applyOptions(optFns),
	}
}

// Len returns the number of live entries.
func (d *Chained[K, V]) Len() int { return d.order.n }

// Buckets returns the fixed bucket count.
func (d *Chained[K, V]) Buckets() int { return len(d.buckets) }

func (d *Chained[K, V]) bucket(hash uint64) int {
	return int(hash % uint64(len(d.buckets)))
}

// lookup returns the matching entry and the entry before it in the chain.
func (d *Chained[K, V]) lookup(key K, hash uint64) (e, before *entry[K, V]) {
	for e = d.buckets[d.bucket(hash)]; e != nil; before, e = e, e.chain {
		if e.hash == hash && d.policy.Compare(key, e.key) == 0 {
			return e, before
		}
	}

	return nil, nil
}

// Set associates val with key. An existing value is destroyed and replaced;
// the entry keeps its position in insertion order.
func (d *Chained[K, V]) Set(key K, val V) {
	hash := d.policy.Hash(key)
	if e, _ := d.lookup(key, hash); e != nil {
		d.opts.destroyValue(e.val)
		e.val = val

		return
	}

	b := d.bucket(hash)
	e := &entry[K, V]{key: key, val: val, hash: hash}

	// Append to the chain tail so chains keep insertion order as well.
	if tail := d.buckets[b]; tail == nil {
		d.buckets[b] = e
	} else {
		for tail.chain != nil {
			tail = tail.chain
		}
		tail.chain = e
	}

	d.order.pushBack(e)
}

// Get returns the value stored under key.
func (d *Chained[K, V]) Get(key K) (V, bool) {
	if e, _ := d.lookup(key, d.policy.Hash(key)); e != nil {
		return e.val, true
	}

	var zero V

	return zero, false
}

// Ref returns a pointer to the value stored under key, or nil. The pointer
// stays valid until the entry is removed.
func (d *Chained[K, V]) Ref(key K) *V {
	if e, _ := d.lookup(key, d.policy.Hash(key)); e != nil {
		return &e.val
	}

	return nil
}

// Contains reports whether key is present.
func (d *Chained[K, V]) Contains(key K) bool {
	e, _ := d.lookup(key, d.policy.Hash(key))
	return e != nil
}

// Remove deletes key and runs the destructors. It reports whether the key
// was present.
func (d *Chained[K, V]) Remove(key K) bool {
	hash := d.policy.Hash(key)

	e, before := d.lookup(key, hash)
	if e == nil {
		return false
	}

	d.order.unlink(e)

	if before == nil {
		d.buckets[d.bucket(hash)] = e.chain
	} else {
		before.chain = e.chain
	}

	e.chain = nil
	d.opts.destroyEntry(e)

	return true
}

// All iterates over entries in insertion order. The table must not be
// modified during iteration, except for removing the entry just yielded.
func (d *Chained[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := d.order.head; e != nil; {
			next := e.next
			if !yield(e.key, e.val) {
				return
			}
			e = next
		}
	}
}

// Keys iterates over keys in insertion order.
func (d *Chained[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range d.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Destroy removes every entry, oldest first, running each destructor exactly
// once. The table is empty afterwards but remains usable.
func (d *Chained[K, V]) Destroy() {
	for d.order.head != nil {
		d.Remove(d.order.head.key)
	}

	clear(d.buckets)
}
