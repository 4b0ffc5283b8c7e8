package bloblog

import (
	"iter"
	"math"

	"github.com/hupe1980/blobkv/dict"
	"github.com/hupe1980/blobkv/value"
)

const remapBuckets = 1024

// Remap maps the offsets of records moved by a compaction to their new
// offsets. Tombstoned records have no entry.
type Remap struct {
	moved *dict.Chained[uint64, uint64]
	// stop is where an interrupted compaction left off; records at or
	// beyond it kept their offsets.
	stop uint64
}

func newRemap() *Remap {
	return &Remap{
		moved: dict.NewChained[uint64, uint64](remapBuckets, value.Uint64{}),
		stop:  math.MaxUint64,
	}
}

// Translate returns the new handle for a handle taken before compaction.
// It reports false for records the compaction dropped.
func (r *Remap) Translate(h Handle) (Handle, bool) {
	if to, ok := r.moved.Get(uint64(h)); ok {
		return Handle(to), true
	}

	if uint64(h) >= r.stop {
		return h, true
	}

	return 0, false
}

// Len returns the number of live records the compaction visited.
func (r *Remap) Len() int { return r.moved.Len() }

// Complete reports whether the compaction ran to the end of the log.
func (r *Remap) Complete() bool { return r.stop == math.MaxUint64 }

// All iterates over old and new handles in log order.
func (r *Remap) All() iter.Seq2[Handle, Handle] {
	return func(yield func(Handle, Handle) bool) {
		for from, to := range r.moved.All() {
			if !yield(Handle(from), Handle(to)) {
				return
			}
		}
	}
}
