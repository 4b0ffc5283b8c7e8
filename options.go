package blobkv

import (
	"github.com/hupe1980/blobkv/dict"
	"github.com/hupe1980/blobkv/internal/compress"
	"github.com/hupe1980/blobkv/internal/fs"
	"github.com/hupe1980/blobkv/internal/resource"
)

// Compression selects the codec applied to info payloads in the log.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ResourceLimits bounds cache memory, concurrent snapshot uploads and
// compaction I/O.
type ResourceLimits = resource.Config

// FileSystem is the file system a Store keeps its files on.
type FileSystem = fs.FileSystem

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	fs               fs.FileSystem
	compression      compress.Type
	readCacheBytes   int64
	limits           *resource.Config
	key1Size         int
	key2Buckets      int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fs:               fs.Default,
		key1Size:         dict.DefaultSize,
		key2Buckets:      dict.DefaultSize,
	}
}

// Option configures Open and Restore.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink. It also receives the log's
// append, read and compaction events.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithFileSystem sets the file system. Mostly useful for fault injection
// in tests.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithCompression compresses info payloads. A store must always be reopened
// with the codec it was written with.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithReadCache caches up to bytes of info payloads in memory.
func WithReadCache(bytes int64) Option {
	return func(o *options) {
		o.readCacheBytes = bytes
	}
}

// WithResourceLimits enforces limits on cache memory, snapshot upload
// concurrency and compaction throughput.
func WithResourceLimits(limits ResourceLimits) Option {
	return func(o *options) {
		o.limits = &limits
	}
}

// WithIndexSizes sets the initial slot count of the key1 index and the
// bucket count of the key2 index. Zero keeps the default of 4096.
func WithIndexSizes(key1Slots, key2Buckets int) Option {
	return func(o *options) {
		if key1Slots > 0 {
			o.key1Size = key1Slots
		}
		if key2Buckets > 0 {
			o.key2Buckets = key2Buckets
		}
	}
}
