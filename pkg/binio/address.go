// Package binio provides the seekable byte cursor and address types used
// to decode and re-encode offset-linked GameCube asset files.
package binio

import "fmt"

// Pointer is an absolute byte offset from the start of a file or section.
// Zero is the null sentinel for optional fields.
type Pointer uint32

// IsNull reports whether p is the null sentinel.
func (p Pointer) IsNull() bool {
	return p == 0
}

// IsNotNull reports whether p references data.
func (p Pointer) IsNotNull() bool {
	return p != 0
}

// Add returns p advanced by n bytes.
func (p Pointer) Add(n int) Pointer {
	return Pointer(int64(p) + int64(n))
}

// Offset returns the address of element index in a fixed-stride array based at p.
func (p Pointer) Offset(index, stride int) Pointer {
	return p.Add(index * stride)
}

// String returns the pointer as a zero-padded hex offset.
func (p Pointer) String() string {
	return fmt.Sprintf("0x%08X", uint32(p))
}

// AddressRange is the [Start, End) span a record occupied in the stream.
type AddressRange struct {
	Start Pointer
	End   Pointer
}

// RecordStart marks the position before the first byte of a record.
func (a *AddressRange) RecordStart(pos Pointer) {
	a.Start = pos
}

// RecordEnd marks the position after the last byte of a record.
func (a *AddressRange) RecordEnd(pos Pointer) {
	a.End = pos
}

// Range returns the range itself. Records embedding AddressRange get it for free.
func (a AddressRange) Range() AddressRange {
	return a
}

// Size returns End - Start, or 0 for an unpopulated range.
func (a AddressRange) Size() int {
	if a.End < a.Start {
		return 0
	}
	return int(a.End - a.Start)
}

// Contains reports whether p lies inside [Start, End).
func (a AddressRange) Contains(p Pointer) bool {
	return p >= a.Start && p < a.End
}

// String returns the range as "[start, end)".
func (a AddressRange) String() string {
	return fmt.Sprintf("[%s, %s)", a.Start, a.End)
}
