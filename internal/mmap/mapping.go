package mmap

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// Mapping is a read-only view of a whole file. A zero-length file maps to
// an empty view without touching the kernel.
type Mapping struct {
	mu   sync.RWMutex
	data []byte
	done bool
}

// Open maps the file at path.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	switch n := fi.Size(); {
	case n == 0:
		return &Mapping{}, nil
	case n > math.MaxInt:
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, n)
	default:
		data, err := mapFile(f, int(n))
		if err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
		return &Mapping{data: data}, nil
	}
}

// Close releases the view. Calling it twice is harmless.
func (m *Mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil
	}
	m.done = true

	data := m.data
	m.data = nil
	if len(data) == 0 {
		return nil
	}
	return unmapFile(data)
}

// Bytes returns the mapped contents, nil once closed. The slice must not
// be used after Close.
func (m *Mapping) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Size is the mapped length.
func (m *Mapping) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Advise forwards a read pattern hint to the kernel.
func (m *Mapping) Advise(a Advice) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.done {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return advise(m.data, a)
}

// ReadAt implements io.ReaderAt over the view.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.done:
		return 0, ErrClosed
	case off < 0:
		return 0, ErrNegativeOffset
	case off >= int64(len(m.data)):
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
