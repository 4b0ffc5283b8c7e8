package bloblog

import "time"

// Metrics receives log activity. Implementations must be cheap; they are
// called inline.
type Metrics interface {
	RecordAppend(bytes int, duration time.Duration, err error)
	RecordRead(bytes int, cached bool, duration time.Duration, err error)
	RecordTombstone(err error)
	RecordCompaction(moved, dropped int, reclaimed int64, duration time.Duration, err error)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordAppend(int, time.Duration, error)                 {}
func (NoopMetrics) RecordRead(int, bool, time.Duration, error)             {}
func (NoopMetrics) RecordTombstone(error)                                  {}
func (NoopMetrics) RecordCompaction(int, int, int64, time.Duration, error) {}
