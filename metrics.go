package blobkv

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/blobkv/bloblog"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// The embedded bloblog.Metrics receives the log's own events (appends,
// reads, tombstones, compactions).
type MetricsCollector interface {
	bloblog.Metrics

	// RecordSet is called after each Set.
	RecordSet(duration time.Duration, err error)

	// RecordGet is called after each lookup with the number of items found.
	RecordGet(found int, duration time.Duration, err error)

	// RecordRemove is called after each removal with the number of items removed.
	RecordRemove(removed int, duration time.Duration, err error)

	// RecordSave is called after each Save.
	RecordSave(items int, duration time.Duration, err error)

	// RecordSnapshot is called after each Snapshot with the uploaded byte count.
	RecordSnapshot(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct {
	bloblog.NoopMetrics
}

func (NoopMetricsCollector) RecordSet(time.Duration, error)             {}
func (NoopMetricsCollector) RecordGet(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordRemove(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SetCount        atomic.Int64
	SetErrors       atomic.Int64
	SetTotalNanos   atomic.Int64
	GetCount        atomic.Int64
	GetErrors       atomic.Int64
	GetItems        atomic.Int64
	RemoveCount     atomic.Int64
	RemoveErrors    atomic.Int64
	RemovedItems    atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
	SnapshotBytes   atomic.Int64
	AppendCount     atomic.Int64
	AppendBytes     atomic.Int64
	ReadCount       atomic.Int64
	ReadCacheHits   atomic.Int64
	IOErrors        atomic.Int64
	TombstoneCount  atomic.Int64
	CompactionCount atomic.Int64
	ReclaimedBytes  atomic.Int64
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	b.SetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(found int, _ time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetItems.Add(int64(found))
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(removed int, _ time.Duration, err error) {
	b.RemoveCount.Add(1)
	b.RemovedItems.Add(int64(removed))
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// RecordAppend implements bloblog.Metrics.
func (b *BasicMetricsCollector) RecordAppend(bytes int, _ time.Duration, err error) {
	if err != nil {
		b.IOErrors.Add(1)
		return
	}
	b.AppendCount.Add(1)
	b.AppendBytes.Add(int64(bytes))
}

// RecordRead implements bloblog.Metrics.
func (b *BasicMetricsCollector) RecordRead(_ int, cached bool, _ time.Duration, err error) {
	b.ReadCount.Add(1)
	if cached {
		b.ReadCacheHits.Add(1)
	}
	if err != nil {
		b.IOErrors.Add(1)
	}
}

// RecordTombstone implements bloblog.Metrics.
func (b *BasicMetricsCollector) RecordTombstone(err error) {
	if err != nil {
		b.IOErrors.Add(1)
		return
	}
	b.TombstoneCount.Add(1)
}

// RecordCompaction implements bloblog.Metrics.
func (b *BasicMetricsCollector) RecordCompaction(_, _ int, reclaimed int64, _ time.Duration, err error) {
	b.CompactionCount.Add(1)
	b.ReclaimedBytes.Add(reclaimed)
	if err != nil {
		b.IOErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SetCount:        b.SetCount.Load(),
		SetErrors:       b.SetErrors.Load(),
		SetAvgNanos:     b.getAvgSetNanos(),
		GetCount:        b.GetCount.Load(),
		GetItems:        b.GetItems.Load(),
		GetErrors:       b.GetErrors.Load(),
		RemoveCount:     b.RemoveCount.Load(),
		RemovedItems:    b.RemovedItems.Load(),
		RemoveErrors:    b.RemoveErrors.Load(),
		SaveCount:       b.SaveCount.Load(),
		SaveErrors:      b.SaveErrors.Load(),
		SnapshotCount:   b.SnapshotCount.Load(),
		SnapshotErrors:  b.SnapshotErrors.Load(),
		SnapshotBytes:   b.SnapshotBytes.Load(),
		AppendCount:     b.AppendCount.Load(),
		AppendBytes:     b.AppendBytes.Load(),
		ReadCount:       b.ReadCount.Load(),
		ReadCacheHits:   b.ReadCacheHits.Load(),
		IOErrors:        b.IOErrors.Load(),
		TombstoneCount:  b.TombstoneCount.Load(),
		CompactionCount: b.CompactionCount.Load(),
		ReclaimedBytes:  b.ReclaimedBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSetNanos() int64 {
	count := b.SetCount.Load()
	if count == 0 {
		return 0
	}
	return b.SetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SetCount        int64
	SetErrors       int64
	SetAvgNanos     int64
	GetCount        int64
	GetItems        int64
	GetErrors       int64
	RemoveCount     int64
	RemovedItems    int64
	RemoveErrors    int64
	SaveCount       int64
	SaveErrors      int64
	SnapshotCount   int64
	SnapshotErrors  int64
	SnapshotBytes   int64
	AppendCount     int64
	AppendBytes     int64
	ReadCount       int64
	ReadCacheHits   int64
	IOErrors        int64
	TombstoneCount  int64
	CompactionCount int64
	ReclaimedBytes  int64
}
