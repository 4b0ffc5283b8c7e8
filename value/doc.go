// Package value defines the scalar handed to every container and the
// capability interfaces containers use to hash and order their keys.
//
// Containers never look inside a key. Identity and ordering come entirely
// from a [KeyPolicy] supplied at construction time, so callers must use the
// same policy for every operation on a given container.
//
// # Built-in Policies
//
//   - [Uint64], [Int64]: identity hash, numeric order
//   - [String], [Bytes]: murmur3 hash, lexicographic order
//   - [Identity]: for [Value] keys, identity hash over the integer view
//
// Custom policies can be assembled from plain functions with [Funcs].
package value
