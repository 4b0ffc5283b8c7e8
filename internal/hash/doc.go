// Package hash provides the CRC32-Castagnoli checksums used for the key
// file trailer and for object uploads.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Streaming, while writing:
//
//	w := hash.NewWriter(dst)
//	w.Write(chunk)
//	sum := w.Sum32()
package hash
