package bloblog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/blobkv/internal/cache"
	"github.com/hupe1980/blobkv/internal/compress"
	"github.com/hupe1980/blobkv/internal/fs"
)

// Log is an append-only blob log backed by a single file.
type Log struct {
	file fs.File
	opts options

	// end is the logical end: appends go here and scans stop here.
	end int64
	// size is the physical file size, which exceeds end after compaction
	// until the file is truncated.
	size int64

	cache  *cache.LRU[Handle]
	closed bool
	// failed is set when a compaction write failed midway; the file then
	// needs recovery by reopening.
	failed error
}

// Open opens or creates the log at path.
func Open(path string, optFns ...Option) (*Log, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	f, err := opts.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}

	l, err := newLog(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return l, nil
}

// New wraps an already open file. The log takes ownership of f.
func New(f fs.File, optFns ...Option) (*Log, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return newLog(f, opts)
}

func newLog(f fs.File, opts options) (*Log, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, f.Name(), err)
	}

	l := &Log{
		file: f,
		opts: opts,
		size: st.Size(),
	}

	if opts.cacheBytes > 0 {
		l.cache = cache.NewLRU[Handle](opts.cacheBytes, opts.rc)
	}

	if err := l.recover(); err != nil {
		return nil, err
	}

	return l, nil
}

// recover finds the logical end by walking the headers. A torn record at
// the tail, left by an interrupted append, is excluded.
func (l *Log) recover() error {
	var off int64

	for off < l.size {
		h, err := readHeader(l.file, off, l.size)
		if err != nil {
			if isIOError(err) {
				return err
			}

			l.opts.logger.Warn("ignoring torn tail",
				slog.String("path", l.file.Name()),
				slog.Int64("offset", off),
				slog.Int64("size", l.size),
				slog.String("reason", err.Error()))

			break
		}

		off += int64(h.length)
	}

	l.end = off

	return nil
}

func (l *Log) check() error {
	if l.closed {
		return ErrClosed
	}

	return l.failed
}

// Path returns the name of the backing file.
func (l *Log) Path() string { return l.file.Name() }

// Size returns the logical end of the log in bytes.
func (l *Log) Size() int64 { return l.end }

// Append writes payload as a new live record at the end of the log.
func (l *Log) Append(payload []byte) (Handle, error) {
	start := time.Now()

	h, err := l.append(payload)
	l.opts.metrics.RecordAppend(len(payload), time.Since(start), err)

	return h, err
}

func (l *Log) append(payload []byte) (Handle, error) {
	if err := l.check(); err != nil {
		return 0, err
	}

	stored, err := compress.Encode(l.opts.compression, payload)
	if err != nil {
		return 0, err
	}

	if l.size > l.end {
		if err := l.Truncate(); err != nil {
			return 0, err
		}
	}

	off := l.end
	length := uint64(HeaderSize + len(stored))

	buf := make([]byte, length)
	header{live: true, offset: uint64(off), length: length}.encode(buf)
	copy(buf[HeaderSize:], stored)

	if _, err := l.file.WriteAt(buf, off); err != nil {
		return 0, ioError("append", off, err)
	}

	l.end += int64(length)
	l.size = max(l.size, l.end)

	return Handle(off), nil
}

// AppendString appends s.
func (l *Log) AppendString(s string) (Handle, error) {
	return l.Append([]byte(s))
}

// Tombstone marks the record at h dead. Its bytes stay in place until the
// next compaction.
func (l *Log) Tombstone(h Handle) error {
	err := l.tombstone(h)
	l.opts.metrics.RecordTombstone(err)

	return err
}

func (l *Log) tombstone(h Handle) error {
	if err := l.check(); err != nil {
		return err
	}

	hdr, err := readHeader(l.file, h.Offset(), l.end)
	if err != nil {
		return err
	}

	if !hdr.live {
		return fmt.Errorf("%w: %d", ErrTombstoned, h)
	}

	if _, err := l.file.WriteAt([]byte{tagDead}, h.Offset()); err != nil {
		return ioError("tombstone", h.Offset(), err)
	}

	if l.cache != nil {
		l.cache.Delete(h)
	}

	return nil
}

// Read returns the payload of the live record at h. The caller owns the
// returned slice.
func (l *Log) Read(h Handle) ([]byte, error) {
	start := time.Now()

	if l.cache != nil {
		if b, ok := l.cache.Get(h); ok {
			l.opts.metrics.RecordRead(len(b), true, time.Since(start), nil)
			return bytes.Clone(b), nil
		}
	}

	b, err := l.read(h)
	l.opts.metrics.RecordRead(len(b), false, time.Since(start), err)

	if err == nil && l.cache != nil {
		l.cache.Set(h, bytes.Clone(b))
	}

	return b, err
}

func (l *Log) read(h Handle) ([]byte, error) {
	if err := l.check(); err != nil {
		return nil, err
	}

	hdr, err := readHeader(l.file, h.Offset(), l.end)
	if err != nil {
		return nil, err
	}

	if !hdr.live {
		return nil, fmt.Errorf("%w: %d", ErrTombstoned, h)
	}

	stored, err := readPayload(l.file, hdr)
	if err != nil {
		return nil, err
	}

	return compress.Decode(l.opts.compression, stored)
}

// ReadString reads the payload at h as a string.
func (l *Log) ReadString(h Handle) (string, error) {
	b, err := l.Read(h)
	return string(b), err
}

// Scan calls fn for every record up to the logical end, live or not.
// A non-nil error from fn stops the scan and is returned.
func (l *Log) Scan(fn func(RecordInfo) error) error {
	if err := l.check(); err != nil {
		return err
	}

	return scan(l.file, l.end, fn)
}

// LiveSet returns the handles of all live records.
func (l *Log) LiveSet() (*roaring64.Bitmap, error) {
	bm := roaring64.New()

	err := l.Scan(func(ri RecordInfo) error {
		if ri.Live {
			bm.Add(uint64(ri.Handle))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// Stats summarizes the records up to the logical end.
type Stats struct {
	Live, Dead           int
	LiveBytes, DeadBytes int64
	// Size is the logical end; FileSize is what the file occupies on disk.
	Size, FileSize int64
}

// Stats walks the log and counts live and dead records.
func (l *Log) Stats() (Stats, error) {
	st := Stats{Size: l.end, FileSize: l.size}

	err := l.Scan(func(ri RecordInfo) error {
		if ri.Live {
			st.Live++
			st.LiveBytes += int64(ri.Length)
		} else {
			st.Dead++
			st.DeadBytes += int64(ri.Length)
		}

		return nil
	})

	return st, err
}

// Truncate cuts the file down to the logical end.
func (l *Log) Truncate() error {
	if err := l.check(); err != nil {
		return err
	}

	if l.size == l.end {
		return nil
	}

	if err := l.file.Truncate(l.end); err != nil {
		return ioError("truncate", l.end, err)
	}

	l.size = l.end

	return nil
}

// Sync flushes the file to stable storage.
func (l *Log) Sync() error {
	if l.closed {
		return ErrClosed
	}

	if err := l.file.Sync(); err != nil {
		return ioError("sync", l.end, err)
	}

	return nil
}

// Close truncates the file to the logical end, syncs and closes it.
func (l *Log) Close() error {
	if l.closed {
		return nil
	}

	var err error
	if l.failed == nil {
		err = l.Truncate()
		if err == nil {
			err = l.Sync()
		}
	}

	l.closed = true

	if l.cache != nil {
		l.cache.Purge()
	}

	if cerr := l.file.Close(); cerr != nil && err == nil {
		err = ioError("close", l.end, cerr)
	}

	return err
}

// Compact rewrites the log so that live records are contiguous from
// offset 0, in one forward pass over the file. The write position never
// passes the read position, so the copy is done in place.
//
// ctx is checked between records. When it is cancelled the pass stops,
// the gap between the compacted prefix and the untouched rest is covered
// by a tombstoned filler record, and the partial Remap is returned with
// ctx.Err().
func (l *Log) Compact(ctx context.Context) (*Remap, error) {
	start := time.Now()
	before := l.end

	remap, dropped, err := l.compact(ctx)

	reclaimed := before - l.end
	l.opts.metrics.RecordCompaction(remap.Len(), dropped, reclaimed, time.Since(start), err)

	attrs := []slog.Attr{
		slog.String("path", l.file.Name()),
		slog.Int("moved", remap.Len()),
		slog.Int("dropped", dropped),
		slog.Int64("reclaimed_bytes", reclaimed),
		slog.Duration("duration", time.Since(start)),
	}

	if err != nil {
		l.opts.logger.LogAttrs(ctx, slog.LevelWarn, "compaction stopped", append(attrs, slog.Any("error", err))...)
	} else {
		l.opts.logger.LogAttrs(ctx, slog.LevelInfo, "compaction finished", attrs...)
	}

	return remap, err
}

func (l *Log) compact(ctx context.Context) (*Remap, int, error) {
	remap := newRemap()
	if err := l.check(); err != nil {
		return remap, 0, err
	}

	if l.cache != nil {
		l.cache.Purge()
	}

	var (
		r, w    int64
		dropped int
	)

	// stop records an early exit and keeps the file a valid log.
	stop := func(err error) (*Remap, int, error) {
		remap.stop = uint64(r)
		if ferr := l.fill(w, r); ferr != nil {
			return remap, dropped, ferr
		}

		return remap, dropped, err
	}

	for r < l.end {
		if err := ctx.Err(); err != nil {
			return stop(err)
		}

		hdr, err := readHeader(l.file, r, l.end)
		if err != nil {
			return stop(err)
		}

		if !hdr.live {
			dropped++
			r += int64(hdr.length)

			continue
		}

		if err := l.opts.rc.AcquireIO(ctx, int(hdr.length)); err != nil {
			return stop(err)
		}

		if w != r {
			if err := l.move(hdr, w); err != nil {
				// The record may be half written at w and may have
				// clobbered the head of its own source.
				remap.stop = uint64(r)
				l.failed = fmt.Errorf("%w: compaction interrupted at %d: %w", ErrIO, r, err)

				return remap, dropped, err
			}
		}

		remap.moved.Set(uint64(r), uint64(w))
		w += int64(hdr.length)
		r += int64(hdr.length)
	}

	err := l.fill(w, l.end)
	l.end = w

	return remap, dropped, err
}

// move copies the record described by hdr to offset to, rewriting its
// self offset.
func (l *Log) move(hdr header, to int64) error {
	buf := make([]byte, hdr.length)
	if _, err := l.file.ReadAt(buf, int64(hdr.offset)); err != nil {
		return ioError("compact read", int64(hdr.offset), err)
	}

	header{live: true, offset: uint64(to), length: hdr.length}.encode(buf)

	if _, err := l.file.WriteAt(buf, to); err != nil {
		return ioError("compact write", to, err)
	}

	return nil
}

// fill covers [from, to) with one tombstoned record. Gaps are always at
// least one header long because every dropped record is.
func (l *Log) fill(from, to int64) error {
	if to <= from {
		return nil
	}

	var buf [HeaderSize]byte
	header{offset: uint64(from), length: uint64(to - from)}.encode(buf[:])

	if _, err := l.file.WriteAt(buf[:], from); err != nil {
		return ioError("compact fill", from, err)
	}

	return nil
}
