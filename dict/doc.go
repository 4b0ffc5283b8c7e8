// Package dict implements two hash tables that share an insertion-order
// list threaded through their entries.
//
//   - [Chained]: separate chaining with a bucket count fixed at
//     construction. It never rehashes.
//   - [Open]: linear probing with tombstoned deletions. The table doubles
//     only when an insert's probe sequence wraps the whole table.
//
// Every live entry sits in exactly one lookup position (bucket chain or
// slot) and exactly one position of the insertion-order list. Removal
// unlinks both before destructors run, so iteration via [Chained.All] or
// [Open.All] never observes a half-removed entry.
//
// Neither table is safe for concurrent use.
package dict
