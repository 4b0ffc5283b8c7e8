// Package mmap maps a log file read-only so snapshots can be inspected
// without opening the file for writing.
//
//	m, err := mmap.Open("info.log")
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.AdviseSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile, where
// Advise is a no-op. Reads are safe for concurrent use; callers must not
// touch Bytes after Close.
package mmap
