package blobkv

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/blobkv/bloblog"
	"github.com/hupe1980/blobkv/dict"
	"github.com/hupe1980/blobkv/internal/conv"
	"github.com/hupe1980/blobkv/internal/fs"
	"github.com/hupe1980/blobkv/internal/resource"
	"github.com/hupe1980/blobkv/value"
)

const (
	// LogFileName holds the info payloads.
	LogFileName = "info.log"
	// KeyFileName holds the index, rewritten by every Save.
	KeyFileName = "keys.bin"

	// AnyVersion matches every version of a key pair.
	AnyVersion = -1
)

// Item is one versioned entry of the table.
type Item struct {
	Key1    int64
	Key2    int64
	Version int
	Info    string
}

// item is shared by both indexes.
type item struct {
	key1, key2 int64
	version    int
	h          bloblog.Handle
}

// Store is a two-key versioned table. Info strings live in an append-only
// log on disk; the key1 and key2 indexes live in memory and are persisted
// to the key file by Save.
//
// A Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex
	// snapMu serializes Snapshot from choosing a generation through
	// publishing CURRENT.
	snapMu sync.Mutex

	dir    string
	opts   options
	logger *Logger
	rc     *resource.Controller

	log  *bloblog.Log
	key1 *dict.Open[int64, []*item]
	key2 *dict.Chained[int64, []*item]

	// cascadeErr collects tombstone failures raised inside index destructors.
	cascadeErr error
	// closing disables the destructor cascade while the indexes are torn down.
	closing bool
	closed  bool
}

// Open opens the store in dir, creating it if needed. Keys saved by the
// last Save are reloaded; keys whose record is gone are dropped and live
// records no key refers to are tombstoned.
func Open(dir string, optFns ...Option) (*Store, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrIO, dir, err)
	}

	limits := resource.Config{}
	if opts.limits != nil {
		limits = *opts.limits
	}

	s := &Store{
		dir:    dir,
		opts:   opts,
		logger: opts.logger.WithDir(dir),
		rc:     resource.NewController(limits),
	}

	log, err := bloblog.Open(filepath.Join(dir, LogFileName),
		bloblog.WithFileSystem(opts.fs),
		bloblog.WithLogger(s.logger.Logger),
		bloblog.WithMetrics(opts.metricsCollector),
		bloblog.WithCompression(opts.compression),
		bloblog.WithReadCache(opts.readCacheBytes),
		bloblog.WithResourceController(s.rc),
	)
	if err != nil {
		return nil, err
	}
	s.log = log

	s.key1 = dict.NewOpen(opts.key1Size, value.KeyPolicy[int64](value.Int64{}),
		dict.WithValueDestroy[int64, []*item](s.dropKey1))
	s.key2 = dict.NewChained(opts.key2Buckets, value.KeyPolicy[int64](value.Int64{}),
		dict.WithValueDestroy[int64, []*item](s.dropKey2))

	if err := s.load(); err != nil {
		_ = log.Close()
		return nil, err
	}

	return s, nil
}

// Dir returns the directory the store lives in.
func (s *Store) Dir() string { return s.dir }

func (s *Store) keyPath() string { return filepath.Join(s.dir, KeyFileName) }

func (s *Store) load() error {
	data, err := fs.ReadFile(s.opts.fs, s.keyPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: read key file: %w", ErrIO, err)
	}

	recs, err := decodeKeyFile(data)
	if err != nil {
		return err
	}

	live, err := s.log.LiveSet()
	if err != nil {
		return err
	}

	dangling := 0
	for _, r := range recs {
		if !live.Contains(uint64(r.handle)) {
			dangling++
			continue
		}
		version, err := conv.Uint32ToInt(r.version)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptKeyFile, err)
		}
		live.Remove(uint64(r.handle))
		s.insert(&item{key1: r.key1, key2: r.key2, version: version, h: r.handle})
	}

	orphaned := int(live.GetCardinality())
	for it := live.Iterator(); it.HasNext(); {
		if err := s.log.Tombstone(bloblog.Handle(it.Next())); err != nil {
			return err
		}
	}

	s.logger.LogRecovery(context.Background(), len(recs)-dangling, dangling, orphaned)

	return nil
}

func (s *Store) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// insert links it at the tail of both index lists.
func (s *Store) insert(it *item) {
	if ref := s.key1.Ref(it.key1); ref != nil {
		*ref = append(*ref, it)
	} else {
		s.key1.Set(it.key1, []*item{it})
	}

	if ref := s.key2.Ref(it.key2); ref != nil {
		*ref = append(*ref, it)
	} else {
		s.key2.Set(it.key2, []*item{it})
	}
}

func (s *Store) nextVersion(key1, key2 int64) int {
	version := -1
	list, _ := s.key1.Get(key1)
	for _, it := range list {
		if it.key2 == key2 {
			version = max(version, it.version)
		}
	}
	return version + 1
}

// Set appends info to the log and indexes it under both keys. The version
// is one more than the highest version of the same key pair, starting at 0.
func (s *Store) Set(key1, key2 int64, info string) (int, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.set(key1, key2, info)
	s.opts.metricsCollector.RecordSet(time.Since(start), err)

	return version, err
}

func (s *Store) set(key1, key2 int64, info string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	h, err := s.log.AppendString(info)
	if err != nil {
		return 0, err
	}

	it := &item{key1: key1, key2: key2, version: s.nextVersion(key1, key2), h: h}
	s.insert(it)

	return it.version, nil
}

func (s *Store) materialize(list []*item, match func(*item) bool) ([]Item, error) {
	var out []Item
	for _, it := range list {
		if !match(it) {
			continue
		}
		info, err := s.log.ReadString(it.h)
		if err != nil {
			return nil, fmt.Errorf("read info of %d/%d v%d: %w", it.key1, it.key2, it.version, err)
		}
		out = append(out, Item{Key1: it.key1, Key2: it.key2, Version: it.version, Info: info})
	}
	return out, nil
}

func all(*item) bool { return true }

func (s *Store) lookup(fn func() ([]Item, error)) ([]Item, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		items []Item
		err   = s.check()
	)
	if err == nil {
		items, err = fn()
	}
	s.opts.metricsCollector.RecordGet(len(items), time.Since(start), err)

	return items, err
}

// Get returns the items stored under the key pair, oldest first. version
// selects one version or AnyVersion for all of them.
func (s *Store) Get(key1, key2 int64, version int) ([]Item, error) {
	if version < AnyVersion {
		return nil, &ErrInvalidVersion{Version: version}
	}

	return s.lookup(func() ([]Item, error) {
		list, _ := s.key1.Get(key1)
		return s.materialize(list, func(it *item) bool {
			return it.key2 == key2 && (version == AnyVersion || it.version == version)
		})
	})
}

// FindKey1 returns every item with the given key1 in insertion order.
func (s *Store) FindKey1(key1 int64) ([]Item, error) {
	return s.lookup(func() ([]Item, error) {
		list, _ := s.key1.Get(key1)
		return s.materialize(list, all)
	})
}

// FindKey2 returns every item with the given key2 in insertion order.
func (s *Store) FindKey2(key2 int64) ([]Item, error) {
	return s.lookup(func() ([]Item, error) {
		list, _ := s.key2.Get(key2)
		return s.materialize(list, all)
	})
}

// All returns every item, grouped by key1 in the order the key1 values
// were first inserted.
func (s *Store) All() ([]Item, error) {
	return s.lookup(func() ([]Item, error) {
		var out []Item
		for _, list := range s.key1.All() {
			items, err := s.materialize(list, all)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		}
		return out, nil
	})
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, list := range s.key1.All() {
		n += len(list)
	}
	return n
}

func (s *Store) removal(fn func() (int, error)) (int, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		n   int
		err = s.check()
	)
	if err == nil {
		n, err = fn()
	}
	s.opts.metricsCollector.RecordRemove(n, time.Since(start), err)

	return n, err
}

// Remove deletes the items of a key pair, one version or AnyVersion, and
// tombstones their info records. It fails with *ErrKeyNotFound when either
// key is not in the table.
func (s *Store) Remove(key1, key2 int64, version int) (int, error) {
	if version < AnyVersion {
		return 0, &ErrInvalidVersion{Version: version}
	}

	return s.removal(func() (int, error) {
		ref1 := s.key1.Ref(key1)
		if ref1 == nil {
			return 0, &ErrKeyNotFound{Space: Key1, Key: key1}
		}
		ref2 := s.key2.Ref(key2)
		if ref2 == nil {
			return 0, &ErrKeyNotFound{Space: Key2, Key: key2}
		}

		var removed []*item
		*ref1 = slices.DeleteFunc(*ref1, func(it *item) bool {
			if it.key2 == key2 && (version == AnyVersion || it.version == version) {
				removed = append(removed, it)
				return true
			}
			return false
		})
		*ref2 = slices.DeleteFunc(*ref2, func(it *item) bool {
			return slices.Contains(removed, it)
		})

		if len(*ref1) == 0 {
			s.key1.Remove(key1)
		}
		if len(*ref2) == 0 {
			s.key2.Remove(key2)
		}

		var errs []error
		for _, it := range removed {
			errs = append(errs, s.log.Tombstone(it.h))
		}

		return len(removed), errors.Join(errs...)
	})
}

// RemoveKey1 deletes every item with the given key1 from both indexes.
func (s *Store) RemoveKey1(key1 int64) (int, error) {
	return s.removal(func() (int, error) {
		list, ok := s.key1.Get(key1)
		if !ok {
			return 0, &ErrKeyNotFound{Space: Key1, Key: key1}
		}
		s.key1.Remove(key1)
		return len(list), s.takeCascadeErr()
	})
}

// RemoveKey2 deletes every item with the given key2 from both indexes.
func (s *Store) RemoveKey2(key2 int64) (int, error) {
	return s.removal(func() (int, error) {
		list, ok := s.key2.Get(key2)
		if !ok {
			return 0, &ErrKeyNotFound{Space: Key2, Key: key2}
		}
		s.key2.Remove(key2)
		return len(list), s.takeCascadeErr()
	})
}

func (s *Store) takeCascadeErr() error {
	err := s.cascadeErr
	s.cascadeErr = nil
	return err
}

// dropKey1 runs when a key1 entry leaves its index: the items are unlinked
// from the key2 index and their records tombstoned.
func (s *Store) dropKey1(list []*item) {
	if s.closing {
		return
	}
	for _, it := range list {
		if ref := s.key2.Ref(it.key2); ref != nil {
			*ref = slices.DeleteFunc(*ref, func(o *item) bool { return o == it })
			if len(*ref) == 0 {
				s.key2.Remove(it.key2)
			}
		}
		s.cascadeErr = errors.Join(s.cascadeErr, s.log.Tombstone(it.h))
	}
}

// dropKey2 mirrors dropKey1 for the key2 index.
func (s *Store) dropKey2(list []*item) {
	if s.closing {
		return
	}
	for _, it := range list {
		if ref := s.key1.Ref(it.key1); ref != nil {
			*ref = slices.DeleteFunc(*ref, func(o *item) bool { return o == it })
			if len(*ref) == 0 {
				s.key1.Remove(it.key1)
			}
		}
		s.cascadeErr = errors.Join(s.cascadeErr, s.log.Tombstone(it.h))
	}
}

// Save compacts the log, rewrites every in-memory handle through the remap
// and writes the key file. When compaction is interrupted the handles are
// still rewritten, so the store stays usable, but the key file is left as
// it was.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return err
	}

	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	start := time.Now()

	n, err := s.persist(ctx)
	s.opts.metricsCollector.RecordSave(n, time.Since(start), err)
	s.logger.LogSave(ctx, n, s.log.Size(), err)

	return err
}

func (s *Store) persist(ctx context.Context) (int, error) {
	remap, cerr := s.log.Compact(ctx)

	var (
		recs []keyRecord
		lost int
		verr error
	)
	for _, list := range s.key1.All() {
		for _, it := range list {
			h, ok := remap.Translate(it.h)
			if !ok {
				lost++
				continue
			}
			it.h = h
			version, err := conv.IntToUint32(it.version)
			if err != nil {
				verr = cmp.Or(verr, fmt.Errorf("version of %d/%d: %w", it.key1, it.key2, err))
				continue
			}
			recs = append(recs, keyRecord{key1: it.key1, key2: it.key2, version: version, handle: h})
		}
	}

	s.logger.LogCompaction(ctx, remap.Len(), len(recs), cerr)

	if lost > 0 {
		return len(recs), fmt.Errorf("%w: %d items lost their record in compaction", ErrDanglingHandle, lost)
	}
	if cerr != nil {
		return len(recs), cerr
	}
	if verr != nil {
		return len(recs), verr
	}

	if err := s.log.Truncate(); err != nil {
		return len(recs), err
	}
	if err := s.log.Sync(); err != nil {
		return len(recs), err
	}

	if err := fs.WriteFile(s.opts.fs, s.keyPath(), encodeKeyFile(recs), 0o644); err != nil {
		return len(recs), fmt.Errorf("%w: write key file: %w", ErrIO, err)
	}

	return len(recs), nil
}

// Check verifies that every indexed item refers to a live record and that
// the two indexes hold the same items.
func (s *Store) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return err
	}

	live, err := s.log.LiveSet()
	if err != nil {
		return err
	}

	seen := make(map[*item]struct{})
	for key1, list := range s.key1.All() {
		if len(list) == 0 {
			return fmt.Errorf("%w: empty key1 entry %d", ErrIndexMismatch, key1)
		}
		for _, it := range list {
			if !live.Contains(uint64(it.h)) {
				return fmt.Errorf("%w: %d/%d v%d at offset %d", ErrDanglingHandle, it.key1, it.key2, it.version, it.h.Offset())
			}
			seen[it] = struct{}{}
		}
	}

	n := 0
	for key2, list := range s.key2.All() {
		if len(list) == 0 {
			return fmt.Errorf("%w: empty key2 entry %d", ErrIndexMismatch, key2)
		}
		for _, it := range list {
			if _, ok := seen[it]; !ok {
				return fmt.Errorf("%w: %d/%d v%d only in key2", ErrIndexMismatch, it.key1, it.key2, it.version)
			}
			n++
		}
	}
	if n != len(seen) {
		return fmt.Errorf("%w: key1 holds %d items, key2 %d", ErrIndexMismatch, len(seen), n)
	}

	return nil
}

// LogStats reports live and dead records in the info log.
func (s *Store) LogStats() (bloblog.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(); err != nil {
		return bloblog.Stats{}, err
	}

	return s.log.Stats()
}
