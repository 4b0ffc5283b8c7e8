package bloblog

import (
	"fmt"

	"github.com/hupe1980/blobkv/internal/compress"
	"github.com/hupe1980/blobkv/internal/mmap"
)

// Snapshot is a read-only, memory-mapped view of a log file. It sees the
// file as it was when opened.
type Snapshot struct {
	m           *mmap.Mapping
	end         int64
	compression compress.Type
}

// OpenSnapshot maps the log at path. Only WithCompression is honored.
func OpenSnapshot(path string, optFns ...Option) (*Snapshot, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %w", ErrIO, path, err)
	}

	_ = m.Advise(mmap.AdviseRandom)

	return &Snapshot{m: m, end: int64(m.Size()), compression: opts.compression}, nil
}

// Size returns the mapped length.
func (s *Snapshot) Size() int64 { return s.end }

// Read returns the payload of the live record at h.
func (s *Snapshot) Read(h Handle) ([]byte, error) {
	hdr, err := readHeader(s.m, h.Offset(), s.end)
	if err != nil {
		return nil, err
	}

	if !hdr.live {
		return nil, fmt.Errorf("%w: %d", ErrTombstoned, h)
	}

	stored, err := readPayload(s.m, hdr)
	if err != nil {
		return nil, err
	}

	return compress.Decode(s.compression, stored)
}

// Scan calls fn for every record in the snapshot.
func (s *Snapshot) Scan(fn func(RecordInfo) error) error {
	return scan(s.m, s.end, fn)
}

// Close unmaps the file.
func (s *Snapshot) Close() error {
	return s.m.Close()
}
