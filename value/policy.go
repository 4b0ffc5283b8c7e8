package value

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Hasher hashes keys of type K.
type Hasher[K any] interface {
	Hash(key K) uint64
}

// Comparator orders keys of type K. Compare returns a negative number when
// a sorts before b, zero when they are equal, and a positive number otherwise.
type Comparator[K any] interface {
	Compare(a, b K) int
}

// KeyPolicy is the capability every hash container is parameterized with.
// Keys that compare equal must hash equal.
type KeyPolicy[K any] interface {
	Hasher[K]
	Comparator[K]
}

// HashFunc adapts a function to Hasher.
type HashFunc[K any] func(K) uint64

// Hash implements Hasher.
func (f HashFunc[K]) Hash(key K) uint64 { return f(key) }

// CompareFunc adapts a function to Comparator.
type CompareFunc[K any] func(a, b K) int

// Compare implements Comparator.
func (f CompareFunc[K]) Compare(a, b K) int { return f(a, b) }

type funcPolicy[K any] struct {
	HashFunc[K]
	CompareFunc[K]
}

// Funcs builds a KeyPolicy from a hash and a compare function.
func Funcs[K any](hash func(K) uint64, compare func(a, b K) int) KeyPolicy[K] {
	return funcPolicy[K]{HashFunc: hash, CompareFunc: compare}
}

// Destroy releases ownership of a key or value when a container drops it.
type Destroy[T any] func(T)

// Uint64 is the identity-hash policy for uint64 keys.
type Uint64 struct{}

// Hash returns key unchanged.
func (Uint64) Hash(key uint64) uint64 { return key }

// Compare orders keys numerically.
func (Uint64) Compare(a, b uint64) int { return cmp.Compare(a, b) }

// Int64 is the identity-hash policy for int64 keys.
type Int64 struct{}

// Hash returns the two's complement bits of key.
func (Int64) Hash(key int64) uint64 { return uint64(key) }

// Compare orders keys numerically, negatives first.
func (Int64) Compare(a, b int64) int { return cmp.Compare(a, b) }

// Identity hashes a Value by its integer view and orders it as unsigned.
// The reference view is ignored: every value built with Ref has integer
// view 0, so all of them hash alike and compare equal to each other and to
// Uint(0). Key containers by Ref values with Funcs and a policy of your own.
type Identity struct{}

// Hash returns the integer view of key.
func (Identity) Hash(key Value) uint64 { return key.bits }

// Compare orders the integer views as unsigned numbers.
func (Identity) Compare(a, b Value) int { return cmp.Compare(a.bits, b.bits) }

// String hashes strings with murmur3 and orders them lexicographically.
type String struct{}

// Hash returns the 64-bit murmur3 hash of key.
func (String) Hash(key string) uint64 {
	return murmur3.Sum64([]byte(key))
}

// Compare orders keys bytewise.
func (String) Compare(a, b string) int { return strings.Compare(a, b) }

// Bytes hashes byte slices with murmur3 and orders them lexicographically.
type Bytes struct{}

// Hash returns the 64-bit murmur3 hash of key.
func (Bytes) Hash(key []byte) uint64 { return murmur3.Sum64(key) }

// Compare orders keys bytewise; nil equals an empty slice.
func (Bytes) Compare(a, b []byte) int { return bytes.Compare(a, b) }
