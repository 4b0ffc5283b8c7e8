package blobkv

import (
	"context"
	"errors"
)

// Close saves the store and releases its files. Close is idempotent.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	err := s.save(context.Background())

	s.closing = true
	s.key1.Destroy()
	s.key2.Destroy()

	if cerr := s.log.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	s.closed = true

	return err
}
