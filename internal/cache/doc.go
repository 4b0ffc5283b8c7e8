// Package cache provides a byte-bounded LRU cache for decoded payloads.
//
// [LRU] charges each entry by its length. When a resource.Controller is
// supplied, every admitted byte is also reserved against the controller's
// memory budget and released on eviction; an entry the budget cannot
// admit is simply not cached.
package cache
