package dict

import (
	"fmt"
	"iter"

	"github.com/hupe1980/blobkv/value"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotOccupied
)

type slot[K, V any] struct {
	state slotState
	e     *entry[K, V]
}

// Open is a linear-probing hash table. Removal leaves a tombstone that
// lookups probe past. The table doubles when an insert finds no empty slot
// along its full probe sequence; rebuilding discards tombstones.
type Open[K, V any] struct {
	slots  []slot[K, V]
	policy value.KeyPolicy[K]
	order  orderList[K, V]
	opts   options[K, V]
}

// NewOpen creates a table with the given number of slots. A size of 0
// selects DefaultSize.
func NewOpen[K, V any](size int, policy value.KeyPolicy[K], optFns ...Option[K, V]) *Open[K, V] {
	if size <= 0 {
		size = DefaultSize
	}

	return &Open[K, V]{
		slots:  make([]slot[K, V], size),
		policy: policy,
		opts:   applyOptions(optFns),
	}
}

// Len returns the number of live entries.
func (d *Open[K, V]) Len() int { return d.order.n }

// Cap returns the current number of slots.
func (d *Open[K, V]) Cap() int { return len(d.slots) }

// find probes for key. It stops at a match, an empty slot, or after one
// full wrap; tombstones are skipped.
func (d *Open[K, V]) find(key K, hash uint64) int {
	size := uint64(len(d.slots))
	start := hash % size

	for h := start; ; {
		s := &d.slots[h]
		switch s.state {
		case slotEmpty:
			return -1
		case slotOccupied:
			if s.e.hash == hash && d.policy.Compare(key, s.e.key) == 0 {
				return int(h)
			}
		}

		if h = (h + 1) % size; h == start {
			return -1
		}
	}
}

// Set associates val with key. An existing value is destroyed and replaced.
func (d *Open[K, V]) Set(key K, val V) {
	hash := d.policy.Hash(key)

	for {
		size := uint64(len(d.slots))
		start := hash % size
		free := -1

		h := start
		for {
			s := &d.slots[h]
			if s.state == slotOccupied {
				if s.e.hash == hash && d.policy.Compare(key, s.e.key) == 0 {
					d.opts.destroyValue(s.e.val)
					s.e.val = val

					return
				}
			} else {
				if free < 0 {
					free = int(h)
				}
				if s.state == slotEmpty {
					break
				}
			}

			if h = (h + 1) % size; h == start {
				free = -1 // wrapped without reaching an empty slot
				break
			}
		}

		if free >= 0 {
			e := &entry[K, V]{key: key, val: val, hash: hash}
			d.slots[free] = slot[K, V]{state: slotOccupied, e: e}
			d.order.pushBack(e)

			return
		}

		d.Rebuild(len(d.slots) * 2)
	}
}

// Get returns the value stored under key.
func (d *Open[K, V]) Get(key K) (V, bool) {
	if i := d.find(key, d.policy.Hash(key)); i >= 0 {
		return d.slots[i].e.val, true
	}

	var zero V

	return zero, false
}

// Ref returns a pointer to the value stored under key, or nil. The pointer
// stays valid until the entry is removed; rebuilds do not move entries.
func (d *Open[K, V]) Ref(key K) *V {
	if i := d.find(key, d.policy.Hash(key)); i >= 0 {
		return &d.slots[i].e.val
	}

	return nil
}

// Contains reports whether key is present.
func (d *Open[K, V]) Contains(key K) bool {
	return d.find(key, d.policy.Hash(key)) >= 0
}

// Remove deletes key, leaving a tombstone in its slot, and runs the
// destructors. It reports whether the key was present.
func (d *Open[K, V]) Remove(key K) bool {
	i := d.find(key, d.policy.Hash(key))
	if i < 0 {
		return false
	}

	e := d.slots[i].e
	d.order.unlink(e)
	d.slots[i] = slot[K, V]{state: slotTombstone}
	d.opts.destroyEntry(e)

	return true
}

// Rebuild re-inserts every live entry into a fresh table of size slots,
// walking entries in insertion order. A size of 0 selects
// max(DefaultSize, Len()). It panics with ErrShrinkBelowLive if size is
// negative or smaller than Len().
func (d *Open[K, V]) Rebuild(size int) {
	if size == 0 {
		size = max(DefaultSize, d.order.n)
	}

	if size < 0 || size < d.order.n {
		panic(fmt.Errorf("%w: %d entries, size %d", ErrShrinkBelowLive, d.order.n, size))
	}

	slots := make([]slot[K, V], size)
	n := uint64(size)

	for e := d.order.head; e != nil; e = e.next {
		h := e.hash % n
		for slots[h].state != slotEmpty {
			h = (h + 1) % n
		}
		slots[h] = slot[K, V]{state: slotOccupied, e: e}
	}

	d.slots = slots
}

// All iterates over entries in insertion order. The table must not be
// modified during iteration, except for removing the entry just yielded.
func (d *Open[K, V]) All() iter.Seq2[K, V] {
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
func (d *Open[K, V]) Keys() iter.Seq[K] {
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
func (d *Open[K, V]) Destroy() {
	for d.order.head != nil {
		d.Remove(d.order.head.key)
	}

	clear(d.slots)
}
