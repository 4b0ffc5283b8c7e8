// Package resource bounds what background work may consume.
//
// A [Controller] accounts three budgets:
//
//   - cache memory: payload caches reserve bytes before admitting an entry
//     and release them on eviction (non-blocking, fails fast)
//   - upload slots: snapshot transfers acquire a slot per object
//   - I/O bandwidth: compaction waits on a token bucket before copying
//     each record
//
// All methods are safe on a nil *Controller, which means "unlimited".
package resource
