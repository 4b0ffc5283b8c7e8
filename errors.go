package blobkv

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blobkv/bloblog"
)

var (
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("blobkv: store closed")

	// ErrCorruptKeyFile is returned when the key file is truncated or its
	// checksum does not match.
	ErrCorruptKeyFile = errors.New("blobkv: corrupt key file")

	// ErrDanglingHandle is returned by Check when an indexed item points
	// at a record that is not live.
	ErrDanglingHandle = errors.New("blobkv: item references a dead record")

	// ErrIndexMismatch is returned by Check when the two indexes disagree.
	ErrIndexMismatch = errors.New("blobkv: key1 and key2 indexes disagree")

	// ErrNoSnapshot is returned by Restore when the blob store has no
	// CURRENT pointer.
	ErrNoSnapshot = errors.New("blobkv: no snapshot")

	// ErrIO is the log's I/O error; every persistence failure wraps it.
	ErrIO = bloblog.ErrIO
)

// KeySpace names one of the two indexes.
type KeySpace int

const (
	// Key1 is the primary index, an open-addressing table.
	Key1 KeySpace = 1
	// Key2 is the secondary index, a chained table.
	Key2 KeySpace = 2
)

func (k KeySpace) String() string {
	switch k {
	case Key1:
		return "key1"
	case Key2:
		return "key2"
	default:
		return fmt.Sprintf("KeySpace(%d)", int(k))
	}
}

// ErrKeyNotFound indicates that a key is absent from one of the indexes.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrKeyNotFound struct {
	Space KeySpace
	Key   int64
	cause error
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("blobkv: %s %d not in table", e.Space, e.Key)
}

func (e *ErrKeyNotFound) Unwrap() error { return e.cause }

// ErrInvalidVersion indicates a version below AnyVersion.
type ErrInvalidVersion struct {
	Version int
}

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("blobkv: invalid version %d", e.Version)
}
