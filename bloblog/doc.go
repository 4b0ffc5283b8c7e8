// Package bloblog implements an append-only, compactable log of blobs.
//
// Records are laid out back to back from offset 0 with no file header:
//
//	[live u8][self offset u64][record length u64][payload ...]
//
// All integers are little endian. The record length covers the 17-byte
// header plus the payload. A record is deleted by rewriting its live byte
// to 0 ([Log.Tombstone]); its space is reclaimed only by [Log.Compact].
//
// Compaction walks the log once from offset 0 and copies every live record
// down to the next free position, in place. It returns a [Remap] from old
// to new offsets. Handles obtained before compaction must be translated
// through the Remap; the log does not update any external index.
//
// Compaction does not shrink the file. The bytes behind the new logical
// end are covered by a single tombstoned filler record so the file stays
// a valid log; the next append, [Log.Truncate] or [Log.Close] cuts them off.
//
// A Log is not safe for concurrent use.
package bloblog
