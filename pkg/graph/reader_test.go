package graph

import (
	"testing"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNodeSize = 12

// testNode: value u32, childCount u32, childrenAbsPtr.
type testNode struct {
	binio.AddressRange
	Value      uint32
	ChildCount uint32
	ChildPtr   binio.Pointer
	Children   []*testNode
}

func (n *testNode) Deserialize(r *Reader) error {
	c := r.Cursor()
	n.RecordStart(c.Pos())
	var err error
	if n.Value, err = c.ReadU32(); err != nil {
		return err
	}
	if n.ChildCount, err = c.ReadU32(); err != nil {
		return err
	}
	if n.ChildPtr, err = c.ReadPointer(); err != nil {
		return err
	}
	n.RecordEnd(c.Pos())

	if n.ChildPtr.IsNull() {
		return nil
	}
	n.Children, err = ReadArray(r, n.ChildPtr, int(n.ChildCount), testNodeSize, func() *testNode { return &testNode{} })
	return err
}

// testLeaf: a single writable u32.
type testLeaf struct {
	binio.AddressRange
	Value uint32
}

func (l *testLeaf) Deserialize(r *Reader) error {
	c := r.Cursor()
	l.RecordStart(c.Pos())
	v, err := c.ReadU32()
	if err != nil {
		return err
	}
	l.Value = v
	l.RecordEnd(c.Pos())
	return nil
}

func (l *testLeaf) Serialize(c *binio.Cursor) error {
	return c.WriteU32(l.Value)
}

// testPair holds two optional pointers to leaves.
type testPair struct {
	binio.AddressRange
	A, B  binio.Pointer
	LeafA *testLeaf
	LeafB *testLeaf
}

func (p *testPair) Deserialize(r *Reader) error {
	c := r.Cursor()
	p.RecordStart(c.Pos())
	var err error
	if p.A, err = c.ReadPointer(); err != nil {
		return err
	}
	if p.B, err = c.ReadPointer(); err != nil {
		return err
	}
	p.RecordEnd(c.Pos())

	newLeaf := func() *testLeaf { return &testLeaf{} }
	if p.LeafA, err = ReadOptional(r, p.A, newLeaf); err != nil {
		return err
	}
	p.LeafB, err = ReadOptional(r, p.B, newLeaf)
	return err
}

func writeNode(t *testing.T, w *binio.Cursor, at binio.Pointer, value, count uint32, children binio.Pointer) {
	t.Helper()
	require.NoError(t, w.Seek(at))
	require.NoError(t, w.WriteU32(value))
	require.NoError(t, w.WriteU32(count))
	require.NoError(t, w.WritePointer(children))
}

func TestReader_HierarchyStride(t *testing.T) {
	w := binio.NewWriter()
	writeNode(t, w, 0x00, 1, 3, 0x20)
	writeNode(t, w, 0x20, 10, 0, 0)
	writeNode(t, w, 0x20+testNodeSize, 11, 1, 0x60)
	writeNode(t, w, 0x20+2*testNodeSize, 12, 0, 0)
	writeNode(t, w, 0x60, 100, 0, 0)

	r := NewReader(binio.NewReader(w.Bytes()))
	root := &testNode{}
	require.NoError(t, r.ReadAt(0, root))

	require.Len(t, root.Children, 3)
	assert.Equal(t, binio.Pointer(0x20), root.Children[0].Start)
	assert.Equal(t, binio.Pointer(0x2C), root.Children[1].Start)
	assert.Equal(t, binio.Pointer(0x38), root.Children[2].Start)
	assert.Equal(t, []uint32{10, 11, 12}, []uint32{root.Children[0].Value, root.Children[1].Value, root.Children[2].Value})
	require.Len(t, root.Children[1].Children, 1)
	assert.Equal(t, uint32(100), root.Children[1].Children[0].Value)

	arena := r.Arena()
	assert.Equal(t, 5, arena.Len())
	assert.Equal(t, []NodeID{0}, arena.Roots())
	rootNode := arena.Node(0)
	assert.Equal(t, "testNode", rootNode.Kind)
	assert.Len(t, rootNode.Children, 3)
	assert.Equal(t, NodeID(0), arena.Node(rootNode.Children[0]).Parent)

	var order []uint32
	require.NoError(t, arena.Walk(func(n *Node, depth int) error {
		order = append(order, n.Record.(*testNode).Value)
		return nil
	}))
	assert.Equal(t, []uint32{1, 10, 11, 100, 12}, order)
}

func TestReader_NullPointerNeverResolved(t *testing.T) {
	w := binio.NewWriter()
	require.NoError(t, w.WritePointer(0))
	require.NoError(t, w.WritePointer(0))

	r := NewReader(binio.NewReader(w.Bytes()))
	called := false
	leaf, err := ReadOptional(r, 0, func() *testLeaf {
		called = true
		return &testLeaf{}
	})
	require.NoError(t, err)
	assert.Nil(t, leaf)
	assert.False(t, called)
	assert.Equal(t, binio.Pointer(0), r.Cursor().Pos())

	pair := &testPair{}
	require.NoError(t, r.Read(pair))
	assert.Nil(t, pair.LeafA)
	assert.Nil(t, pair.LeafB)
	assert.Equal(t, 1, r.Arena().Len())
}

func TestReader_SharedOffsetMaterializedTwice(t *testing.T) {
	w := binio.NewWriter()
	require.NoError(t, w.WritePointer(0x10))
	require.NoError(t, w.WritePointer(0x10))
	require.NoError(t, w.Seek(0x10))
	require.NoError(t, w.WriteU32(42))

	r := NewReader(binio.NewReader(w.Bytes()))
	pair := &testPair{}
	require.NoError(t, r.ReadAt(0, pair))

	require.NotNil(t, pair.LeafA)
	require.NotNil(t, pair.LeafB)
	assert.NotSame(t, pair.LeafA, pair.LeafB)
	assert.Equal(t, uint32(42), pair.LeafB.Value)
	assert.Len(t, r.Arena().At(0x10), 2)
}

func TestReader_CycleDetected(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *binio.Cursor)
		root  binio.Pointer
	}{
		{
			name: "self reference",
			build: func(w *binio.Cursor) {
				writeNode(t, w, 0x10, 1, 1, 0x10)
			},
			root: 0x10,
		},
		{
			name: "two node loop",
			build: func(w *binio.Cursor) {
				writeNode(t, w, 0x10, 1, 1, 0x20)
				writeNode(t, w, 0x20, 2, 1, 0x10)
			},
			root: 0x10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := binio.NewWriter()
			tt.build(w)
			r := NewReader(binio.NewReader(w.Bytes()))
			err := r.ReadAt(tt.root, &testNode{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCyclicReference))
		})
	}
}

func TestReader_MaxDepth(t *testing.T) {
	w := binio.NewWriter()
	writeNode(t, w, 0x10, 0, 1, 0x20)
	writeNode(t, w, 0x20, 1, 1, 0x30)
	writeNode(t, w, 0x30, 2, 0, 0)

	r := NewReader(binio.NewReader(w.Bytes()), WithMaxDepth(2))
	err := r.ReadAt(0x10, &testNode{})
	assert.True(t, errors.Is(err, ErrTooDeep))

	r = NewReader(binio.NewReader(w.Bytes()), WithMaxDepth(3))
	assert.NoError(t, r.ReadAt(0x10, &testNode{}))
}

func TestReader_ReadRestoresEnd(t *testing.T) {
	w := binio.NewWriter()
	writeNode(t, w, 0x00, 1, 1, 0x20)
	writeNode(t, w, 0x20, 2, 0, 0)

	r := NewReader(binio.NewReader(w.Bytes()))
	require.NoError(t, r.Read(&testNode{}))
	assert.Equal(t, binio.Pointer(testNodeSize), r.Cursor().Pos())
}

func TestReader_TruncatedChild(t *testing.T) {
	w := binio.NewWriter()
	writeNode(t, w, 0x00, 1, 2, 0x0C)
	writeNode(t, w, 0x0C, 2, 0, 0)

	r := NewReader(binio.NewReader(w.Bytes()))
	err := r.ReadAt(0, &testNode{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, binio.ErrTruncatedStream) || errors.Is(err, binio.ErrOutOfRange))
}

func TestReadArray_NegativeCount(t *testing.T) {
	r := NewReader(binio.NewReader(nil))
	_, err := ReadArray(r, 0x10, -1, 4, func() *testLeaf { return &testLeaf{} })
	assert.True(t, errors.Is(err, binio.ErrInvalidLength))
}

func TestSerialize_Capability(t *testing.T) {
	assert.True(t, CanSerialize(&testLeaf{}))
	assert.False(t, CanSerialize(&testNode{}))

	err := Serialize(binio.NewWriter(), &testNode{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "testNode")

	w := binio.NewWriter()
	require.NoError(t, Serialize(w, &testLeaf{Value: 7}))
	assert.Equal(t, []byte{0, 0, 0, 7}, w.Bytes())
}

func TestPatchAndVerify(t *testing.T) {
	w := binio.NewWriter()
	require.NoError(t, w.WritePointer(0x10))
	require.NoError(t, w.WritePointer(0x14))
	require.NoError(t, w.Seek(0x10))
	require.NoError(t, w.WriteU32(5))
	require.NoError(t, w.WriteU32(6))
	data := w.Bytes()

	r := NewReader(binio.NewReader(data))
	pair := &testPair{}
	require.NoError(t, r.ReadAt(0, pair))

	mismatches, checked, err := Verify(data, r.Arena())
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Empty(t, mismatches)

	pair.LeafB.Value = 9
	patched, err := Patch(data, r.Arena())
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 9}, patched[0x14:0x18])
	assert.Equal(t, []byte{0, 0, 0, 6}, data[0x14:0x18], "source must not change")

	mismatches, _, err = Verify(data, r.Arena())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, binio.Pointer(0x14), mismatches[0].Offset)
	assert.Equal(t, "testLeaf", mismatches[0].Kind)
}
