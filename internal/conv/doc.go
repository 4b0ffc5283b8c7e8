// Package conv converts between int and the fixed-width integers of the
// key file, failing with ErrOverflow instead of truncating.
package conv
