package bloblog

import "errors"

var (
	// ErrIO wraps failures of the underlying file.
	ErrIO = errors.New("bloblog: i/o error")
	// ErrCorruptRecord is returned when a record header is inconsistent
	// with its position or the log bounds.
	ErrCorruptRecord = errors.New("bloblog: corrupt record")
	// ErrTombstoned is returned when reading or tombstoning a dead record.
	ErrTombstoned = errors.New("bloblog: record is tombstoned")
	// ErrClosed is returned by operations on a closed log.
	ErrClosed = errors.New("bloblog: log is closed")
)

func isIOError(err error) bool { return errors.Is(err, ErrIO) }
