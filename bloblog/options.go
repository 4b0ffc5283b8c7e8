package bloblog

import (
	"log/slog"

	"github.com/hupe1980/blobkv/internal/compress"
	"github.com/hupe1980/blobkv/internal/fs"
	"github.com/hupe1980/blobkv/internal/resource"
)

type options struct {
	fs          fs.FileSystem
	logger      *slog.Logger
	metrics     Metrics
	compression compress.Type
	cacheBytes  int64
	rc          *resource.Controller
}

func defaultOptions() options {
	return options{
		fs:      fs.Default,
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetrics{},
	}
}

// Option configures a Log or Snapshot.
type Option func(*options)

// WithFileSystem sets the file system the log is opened on.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithLogger sets the logger for recovery and compaction events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithCompression encodes payloads with codec t. The record layout is
// unchanged; only the payload bytes are transformed. A log must always be
// reopened with the codec it was written with.
func WithCompression(t compress.Type) Option {
	return func(o *options) {
		o.compression = t
	}
}

// WithReadCache keeps up to bytes of decoded payloads in an LRU cache.
func WithReadCache(bytes int64) Option {
	return func(o *options) {
		o.cacheBytes = bytes
	}
}

// WithResourceController charges cache memory and throttles compaction
// I/O against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
