package bloblog

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blobkv/internal/compress"
	"github.com/hupe1980/blobkv/internal/fs"
	"github.com/hupe1980/blobkv/internal/resource"
)

func openTemp(t *testing.T, opts ...Option) (*Log, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "info.log")

	l, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l, path
}

func appendAll(t *testing.T, l *Log, payloads ...string) []Handle {
	t.Helper()

	hs := make([]Handle, len(payloads))
	for i, p := range payloads {
		h, err := l.AppendString(p)
		require.NoError(t, err)
		hs[i] = h
	}

	return hs
}

func TestRoundTripTombstoneCompact(t *testing.T) {
	l, _ := openTemp(t)

	keep, err := l.AppendString("keep")
	require.NoError(t, err)
	h, err := l.AppendString("hello")
	require.NoError(t, err)

	got, err := l.ReadString(h)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.NoError(t, l.Tombstone(h))

	_, err = l.Read(h)
	assert.ErrorIs(t, err, ErrTombstoned)

	remap, err := l.Compact(context.Background())
	require.NoError(t, err)
	assert.True(t, remap.Complete())
	assert.Equal(t, 1, remap.Len())

	_, ok := remap.Translate(h)
	assert.False(t, ok)

	nk, ok := remap.Translate(keep)
	require.True(t, ok)
	got, err = l.ReadString(nk)
	require.NoError(t, err)
	assert.Equal(t, "keep", got)

	assert.Equal(t, int64(HeaderSize+len("keep")), l.Size())
}

func TestRecordLayout(t *testing.T) {
	l, path := openTemp(t)

	appendAll(t, l, "hi", "there")
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 2*HeaderSize+len("hi")+len("there"))

	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[1:]))
	assert.Equal(t, uint64(HeaderSize+2), binary.LittleEndian.Uint64(raw[9:]))
	assert.Equal(t, "hi", string(raw[HeaderSize:HeaderSize+2]))

	second := raw[HeaderSize+2:]
	assert.Equal(t, byte(1), second[0])
	assert.Equal(t, uint64(HeaderSize+2), binary.LittleEndian.Uint64(second[1:]))
	assert.Equal(t, uint64(HeaderSize+5), binary.LittleEndian.Uint64(second[9:]))
}

func TestCompactionKeepsExactlyLiveRecords(t *testing.T) {
	const n = 200

	l, path := openTemp(t)

	payloads := make([]string, n)
	for i := range payloads {
		payloads[i] = fmt.Sprintf("payload-%d-%s", i, string(make([]byte, i%13)))
	}

	hs := appendAll(t, l, payloads...)

	dead := map[int]bool{}
	for i := 0; i < n; i += 3 {
		require.NoError(t, l.Tombstone(hs[i]))
		dead[i] = true
	}

	remap, err := l.Compact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n-len(dead), remap.Len())

	for i, h := range hs {
		nh, ok := remap.Translate(h)
		if dead[i] {
			assert.False(t, ok, "record %d", i)
			continue
		}

		require.True(t, ok, "record %d", i)
		got, err := l.ReadString(nh)
		require.NoError(t, err)
		require.Equal(t, payloads[i], got)
	}

	var records int
	require.NoError(t, l.Scan(func(ri RecordInfo) error {
		assert.True(t, ri.Live)
		records++
		return nil
	}))
	assert.Equal(t, n-len(dead), records)

	live, err := l.LiveSet()
	require.NoError(t, err)
	assert.Equal(t, uint64(n-len(dead)), live.GetCardinality())
	for _, to := range remap.All() {
		assert.True(t, live.Contains(uint64(to)))
	}

	require.NoError(t, l.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, l.Size(), info.Size())
}

func TestCompactLeavesFillerUntilTruncate(t *testing.T) {
	l, path := openTemp(t)

	hs := appendAll(t, l, "aaaa", "bbbb", "cccc")
	require.NoError(t, l.Tombstone(hs[1]))

	_, err := l.Compact(context.Background())
	require.NoError(t, err)

	st, err := l.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Live: 2, LiveBytes: 42, Size: 42, FileSize: 63}, st)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 63)
	assert.Equal(t, byte(0), raw[42])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(raw[43:]))
	assert.Equal(t, uint64(21), binary.LittleEndian.Uint64(raw[51:]))

	// A crash here still leaves a valid log.
	reopened, err := Open(path)
	require.NoError(t, err)
	st, err = reopened.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Live)
	assert.Equal(t, 1, st.Dead)
	require.NoError(t, reopened.Close())

	require.NoError(t, l.Truncate())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.Size())
}

func TestAppendAfterCompactDropsGarbage(t *testing.T) {
	l, path := openTemp(t)

	hs := appendAll(t, l, "aaaa", "bbbb", "cccc")
	require.NoError(t, l.Tombstone(hs[0]))
	require.NoError(t, l.Tombstone(hs[1]))

	_, err := l.Compact(context.Background())
	require.NoError(t, err)

	h, err := l.AppendString("dd")
	require.NoError(t, err)
	assert.Equal(t, Handle(21), h)
	require.NoError(t, l.Sync())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(21+19), info.Size())
}

type countdownCtx struct {
	context.Context
	n int
}

func (c *countdownCtx) Err() error {
	c.n--
	if c.n < 0 {
		return context.Canceled
	}

	return nil
}

func TestCompactCancelledMidway(t *testing.T) {
	l, _ := openTemp(t)

	hs := appendAll(t, l, "aaaa", "bbbb", "cccc", "dddd")
	require.NoError(t, l.Tombstone(hs[1]))

	ctx := &countdownCtx{Context: context.Background(), n: 3}
	remap, err := l.Compact(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, remap.Complete())
	assert.Equal(t, 2, remap.Len())

	_, ok := remap.Translate(hs[1])
	assert.False(t, ok)

	for i, want := range []string{"aaaa", "", "cccc", "dddd"} {
		if want == "" {
			continue
		}

		nh, ok := remap.Translate(hs[i])
		require.True(t, ok)
		got, err := l.ReadString(nh)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	nd, _ := remap.Translate(hs[3])
	assert.Equal(t, hs[3], nd)

	st, err := l.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Live)
	assert.Equal(t, 1, st.Dead)

	remap, err = l.Compact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, remap.Len())
	assert.Equal(t, int64(63), l.Size())

	nd, ok = remap.Translate(nd)
	require.True(t, ok)
	got, err := l.ReadString(nd)
	require.NoError(t, err)
	assert.Equal(t, "dddd", got)
}

func TestCompactCancelledBeforeStart(t *testing.T) {
	l, _ := openTemp(t)
	hs := appendAll(t, l, "x", "y")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remap, err := l.Compact(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, remap.Len())

	for _, h := range hs {
		nh, ok := remap.Translate(h)
		require.True(t, ok)
		assert.Equal(t, h, nh)
	}
}

func TestReopenRecoversTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.log")

	l, err := Open(path)
	require.NoError(t, err)
	h := appendAll(t, l, "intact")[0]
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, int64(HeaderSize+len("intact")), l.Size())

	got, err := l.ReadString(h)
	require.NoError(t, err)
	assert.Equal(t, "intact", got)

	h2, err := l.AppendString("next")
	require.NoError(t, err)
	assert.Equal(t, Handle(l.Size()-HeaderSize-4), h2)
}

func TestTombstoneErrors(t *testing.T) {
	l, _ := openTemp(t)
	h := appendAll(t, l, "only")[0]

	require.NoError(t, l.Tombstone(h))
	assert.ErrorIs(t, l.Tombstone(h), ErrTombstoned)

	assert.ErrorIs(t, l.Tombstone(Handle(3)), ErrCorruptRecord)
	assert.ErrorIs(t, l.Tombstone(Handle(1000)), ErrCorruptRecord)

	_, err := l.Read(Handle(5))
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestClosedLog(t *testing.T) {
	l, _ := openTemp(t)
	h := appendAll(t, l, "x")[0]
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err := l.Append([]byte("y"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = l.Read(h)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, l.Tombstone(h), ErrClosed)
	_, err = l.Compact(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, l.Sync(), ErrClosed)
}

func TestInjectedWriteFailureSurfacesErrIO(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("info.log", fs.Fault{FailAfterBytes: 30})

	l, _ := openTemp(t, WithFileSystem(ffs))

	_, err := l.AppendString("fits")
	require.NoError(t, err)

	_, err = l.AppendString("does not fit")
	require.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(HeaderSize+4), l.Size())
}

func TestInjectedReadFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.log")

	l, err := Open(path)
	require.NoError(t, err)
	h := appendAll(t, l, "data")[0]
	require.NoError(t, l.Close())

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("info.log", fs.Fault{FailAfterBytes: -1, FailOnRead: true})

	_, err = Open(path, WithFileSystem(ffs))
	require.ErrorIs(t, err, ErrIO)

	ffs.ClearRules()
	l, err = Open(path, WithFileSystem(ffs))
	require.NoError(t, err)
	defer l.Close()

	got, err := l.ReadString(h)
	require.NoError(t, err)
	assert.Equal(t, "data", got)
}

func TestCompressedLog(t *testing.T) {
	for _, typ := range []compress.Type{compress.LZ4, compress.ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "info.log")
			big := string(make([]byte, 4096))

			l, err := Open(path, WithCompression(typ))
			require.NoError(t, err)

			hs := appendAll(t, l, big, "small", big+"tail")
			assert.Less(t, l.Size(), int64(4096))

			require.NoError(t, l.Tombstone(hs[0]))
			remap, err := l.Compact(context.Background())
			require.NoError(t, err)
			require.NoError(t, l.Close())

			l, err = Open(path, WithCompression(typ))
			require.NoError(t, err)
			defer l.Close()

			h, ok := remap.Translate(hs[2])
			require.True(t, ok)
			got, err := l.ReadString(h)
			require.NoError(t, err)
			assert.Equal(t, big+"tail", got)
		})
	}
}

type countingMetrics struct {
	NoopMetrics
	appends, reads, cached, tombstones, compactions int
}

func (m *countingMetrics) RecordAppend(int, time.Duration, error) { m.appends++ }
func (m *countingMetrics) RecordRead(_ int, cached bool, _ time.Duration, _ error) {
	m.reads++
	if cached {
		m.cached++
	}
}
func (m *countingMetrics) RecordTombstone(error) { m.tombstones++ }
func (m *countingMetrics) RecordCompaction(int, int, int64, time.Duration, error) {
	m.compactions++
}

func TestReadCacheAndMetrics(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	m := &countingMetrics{}

	l, _ := openTemp(t, WithReadCache(1024), WithResourceController(rc), WithMetrics(m))

	hs := appendAll(t, l, "one", "two")
	for i := 0; i < 3; i++ {
		_, err := l.Read(hs[0])
		require.NoError(t, err)
	}

	assert.Equal(t, 2, m.appends)
	assert.Equal(t, 3, m.reads)
	assert.Equal(t, 2, m.cached)
	assert.Equal(t, int64(3), rc.MemoryUsage())

	require.NoError(t, l.Tombstone(hs[0]))
	_, err := l.Read(hs[0])
	assert.ErrorIs(t, err, ErrTombstoned)
	assert.Zero(t, rc.MemoryUsage())

	_, err = l.Compact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.tombstones)
	assert.Equal(t, 1, m.compactions)
}

func TestReadReturnsPrivateCopy(t *testing.T) {
	l, _ := openTemp(t, WithReadCache(1024))
	h := appendAll(t, l, "hello")[0]

	miss, err := l.Read(h)
	require.NoError(t, err)
	miss[0] = 'J'

	hit, err := l.Read(h)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(hit))
	hit[0] = 'Y'

	got, err := l.ReadString(h)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestSnapshotView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.log")

	l, err := Open(path, WithCompression(compress.ZSTD))
	require.NoError(t, err)
	hs := appendAll(t, l, "alpha", "beta")
	require.NoError(t, l.Tombstone(hs[0]))
	require.NoError(t, l.Close())

	s, err := OpenSnapshot(path, WithCompression(compress.ZSTD))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Read(hs[1])
	require.NoError(t, err)
	assert.Equal(t, "beta", string(got))

	_, err = s.Read(hs[0])
	assert.ErrorIs(t, err, ErrTombstoned)

	var live []Handle
	require.NoError(t, s.Scan(func(ri RecordInfo) error {
		if ri.Live {
			live = append(live, ri.Handle)
		}
		return nil
	}))
	assert.Equal(t, []Handle{hs[1]}, live)
	assert.Equal(t, l.Size(), s.Size())
}
