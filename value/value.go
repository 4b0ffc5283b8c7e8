package value

import "strconv"

// Value is a 64-bit scalar that is either an integer or an opaque reference.
//
// It carries no tag telling the two apart. A Value built with Ref reports
// zero from Uint, and a Value built with Int or Uint reports nil from Ref.
type Value struct {
	bits uint64
	ref  any
}

// Uint returns a Value holding u.
func Uint(u uint64) Value { return Value{bits: u} }

// Int returns a Value holding i.
func Int(i int64) Value { return Value{bits: uint64(i)} }

// Ref returns a Value holding the opaque reference p.
func Ref(p any) Value { return Value{ref: p} }

// Uint returns the integer view of v.
func (v Value) Uint() uint64 { return v.bits }

// Int returns the signed integer view of v.
func (v Value) Int() int64 { return int64(v.bits) }

// Ref returns the reference view of v.
func (v Value) Ref() any { return v.ref }

// String implements fmt.Stringer using the integer view.
func (v Value) String() string {
	return strconv.FormatUint(v.bits, 10)
}
