package mmap

import "errors"

// Advice tells the kernel how a snapshot will be read.
type Advice uint8

const (
	// AdviseNormal restores the default read-ahead.
	AdviseNormal Advice = iota
	// AdviseSequential suits whole-file scans and uploads.
	AdviseSequential
	// AdviseRandom suits point reads by record handle.
	AdviseRandom
)

var (
	ErrClosed         = errors.New("mmap: mapping is closed")
	ErrTooLarge       = errors.New("mmap: file too large to map")
	ErrNegativeOffset = errors.New("mmap: negative offset")
)
