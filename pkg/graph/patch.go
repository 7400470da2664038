package graph

import (
	"bytes"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/pkg/errors"
)

// Mismatch is a writable record whose re-serialized bytes differ from the source.
type Mismatch struct {
	Node   NodeID
	Kind   string
	Offset binio.Pointer
	Want   []byte
	Got    []byte
}

// Patch re-serializes every writable record in arena over a copy of data at
// the record's original offset. Read-only records keep their source bytes.
func Patch(data []byte, arena *Arena, opts ...binio.Option) ([]byte, error) {
	w := binio.NewPatcher(data, opts...)
	for _, n := range arena.Nodes() {
		if !CanSerialize(n.Record) {
			continue
		}
		if err := w.Seek(n.Record.Range().Start); err != nil {
			return nil, err
		}
		if err := Serialize(w, n.Record); err != nil {
			return nil, errors.Wrapf(err, "patching %s at %s", n.Kind, n.Offset)
		}
	}
	return w.Bytes(), nil
}

// Verify re-serializes every writable record at its original offset and
// compares the output with the source range. It returns the mismatches and
// the number of records checked.
func Verify(data []byte, arena *Arena, opts ...binio.Option) ([]Mismatch, int, error) {
	var mismatches []Mismatch
	checked := 0
	for _, n := range arena.Nodes() {
		if !CanSerialize(n.Record) {
			continue
		}
		rng := n.Record.Range()
		if int(rng.End) > len(data) {
			return nil, checked, errors.Wrapf(binio.ErrOutOfRange, "%s range %s", n.Kind, rng)
		}

		w := binio.NewWriter(opts...)
		if err := w.Seek(rng.Start); err != nil {
			return nil, checked, err
		}
		if err := Serialize(w, n.Record); err != nil {
			return nil, checked, errors.Wrapf(err, "verifying %s at %s", n.Kind, n.Offset)
		}
		checked++

		var got []byte
		if out := w.Bytes(); int(rng.Start) < len(out) {
			got = out[rng.Start:]
		}
		want := data[rng.Start:rng.End]
		if !bytes.Equal(got, want) {
			mismatches = append(mismatches, Mismatch{
				Node:   n.ID,
				Kind:   n.Kind,
				Offset: n.Offset,
				Want:   append([]byte(nil), want...),
				Got:    append([]byte(nil), got...),
			})
		}
	}
	return mismatches, checked, nil
}
