// Package graph reconstructs record graphs from offset-linked binary files.
//
// Records deserialize themselves from a Reader, which resolves embedded
// pointer fields by seeking to each target and materializing the pointee.
// Every materialized record lands in an Arena keyed by its file offset so
// the graph can be walked, diagnosed and re-exported.
package graph

import (
	"fmt"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/pkg/errors"
)

// Graph errors.
var (
	ErrNotImplemented  = errors.New("serialization not implemented")
	ErrCyclicReference = errors.New("cyclic reference")
	ErrTooDeep         = errors.New("record nesting too deep")
)

// Record is any type that can read itself from a Reader.
//
// Deserialize is entered with the cursor at the record's first byte. It reads
// its fixed fields in declared order, records its AddressRange around that
// read, then resolves pointer fields. The cursor position afterwards is
// undefined; Reader.Read restores it to the record's end.
type Record interface {
	Deserialize(r *Reader) error
	Range() binio.AddressRange
}

// Writable is a Record whose write path is implemented.
type Writable interface {
	Record
	Serialize(c *binio.Cursor) error
}

// CanSerialize reports whether rec can be written back.
func CanSerialize(rec Record) bool {
	_, ok := rec.(Writable)
	return ok
}

// Serialize writes rec at the cursor position, or fails with ErrNotImplemented
// if the record type is read-only.
func Serialize(c *binio.Cursor, rec Record) error {
	w, ok := rec.(Writable)
	if !ok {
		return errors.Wrapf(ErrNotImplemented, "%s", KindOf(rec))
	}
	return w.Serialize(c)
}

// KindOf returns the record's type name without package or pointer prefix.
func KindOf(rec Record) string {
	if k, ok := rec.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	name := fmt.Sprintf("%T", rec)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' || name[i] == '*' {
			return name[i+1:]
		}
	}
	return name
}
