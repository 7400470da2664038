package formats

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// VertexControlHeader points at the four vertex-control blocks. Its block
// pointers are relative to the header's own start; zero means absent.
type VertexControlHeader struct {
	binio.AddressRange

	VertexCount uint32
	T1RelPtr    binio.Pointer
	T2RelPtr    binio.Pointer
	T3RelPtr    binio.Pointer
	T4RelPtr    binio.Pointer

	T1 *VertexControlT1
	T2 *VertexControlT2
	T3 *VertexControlT3
	T4 *VertexControlT4

	matrixCount int
}

// NewVertexControlHeader returns a header that will size T4 with matrixCount,
// which lives in the owning model header.
func NewVertexControlHeader(matrixCount int) *VertexControlHeader {
	return &VertexControlHeader{matrixCount: matrixCount}
}

func (h *VertexControlHeader) resolve(rel binio.Pointer) binio.Pointer {
	if rel.IsNull() {
		return 0
	}
	return h.Start.Add(int(rel))
}

func (h *VertexControlHeader) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	h.RecordStart(c.Pos())

	var err error
	if h.VertexCount, err = c.ReadU32(); err != nil {
		return err
	}
	for _, p := range []*binio.Pointer{&h.T1RelPtr, &h.T2RelPtr, &h.T3RelPtr, &h.T4RelPtr} {
		if *p, err = c.ReadPointer(); err != nil {
			return err
		}
	}
	if err = c.ExpectZero("vertexControl.reserved0x14", 12); err != nil {
		return err
	}
	h.RecordEnd(c.Pos())

	vertexCount := int(h.VertexCount)
	if h.T1, err = graph.ReadOptional(r, h.resolve(h.T1RelPtr), func() *VertexControlT1 {
		return NewVertexControlT1(vertexCount)
	}); err != nil {
		return errors.Wrap(err, "T1")
	}
	if h.T2, err = graph.ReadOptional(r, h.resolve(h.T2RelPtr), func() *VertexControlT2 {
		return NewVertexControlT2(vertexCount)
	}); err != nil {
		return errors.Wrap(err, "T2")
	}
	if h.T3, err = graph.ReadOptional(r, h.resolve(h.T3RelPtr), func() *VertexControlT3 {
		return NewVertexControlT3(vertexCount)
	}); err != nil {
		return errors.Wrap(err, "T3")
	}
	if h.T4, err = graph.ReadOptional(r, h.resolve(h.T4RelPtr), func() *VertexControlT4 {
		return NewVertexControlT4(h.matrixCount)
	}); err != nil {
		return errors.Wrap(err, "T4")
	}
	return nil
}

func (h *VertexControlHeader) Serialize(c *binio.Cursor) error {
	if err := c.WriteU32(h.VertexCount); err != nil {
		return err
	}
	for _, p := range []binio.Pointer{h.T1RelPtr, h.T2RelPtr, h.T3RelPtr, h.T4RelPtr} {
		if err := c.WritePointer(p); err != nil {
			return err
		}
	}
	return c.WriteZero(12)
}

// SkinnedVertex is one entry of a T1 block.
type SkinnedVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    uint32
	Unk0x1C  uint32
}

func readSkinnedVertex(c *binio.Cursor) (SkinnedVertex, error) {
	var v SkinnedVertex
	var err error
	if v.Position, err = c.ReadVec3(); err != nil {
		return v, err
	}
	if v.Normal, err = c.ReadVec3(); err != nil {
		return v, err
	}
	if v.Color, err = c.ReadU32(); err != nil {
		return v, err
	}
	v.Unk0x1C, err = c.ReadU32()
	return v, err
}

// VertexControlT1 holds skinned vertices.
type VertexControlT1 struct {
	binio.AddressRange

	Vertices []SkinnedVertex
	Padding  []byte

	vertexCount int
}

// NewVertexControlT1 returns a T1 block of vertexCount entries.
func NewVertexControlT1(vertexCount int) *VertexControlT1 {
	return &VertexControlT1{vertexCount: vertexCount}
}

func (t *VertexControlT1) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	if err := c.Require(t.vertexCount * SkinnedVertexSize); err != nil {
		return err
	}
	var err error
	if t.Vertices, err = binio.ReadFixedArray(c, t.vertexCount, readSkinnedVertex); err != nil {
		return err
	}
	if t.Padding, err = c.ReadFIFOPadding(); err != nil {
		return err
	}

	t.RecordEnd(c.Pos())
	return nil
}

func (t *VertexControlT1) Serialize(c *binio.Cursor) error {
	for _, v := range t.Vertices {
		if err := c.WriteVec3(v.Position); err != nil {
			return err
		}
		if err := c.WriteVec3(v.Normal); err != nil {
			return err
		}
		if err := c.WriteU32(v.Color); err != nil {
			return err
		}
		if err := c.WriteU32(v.Unk0x1C); err != nil {
			return err
		}
	}
	_, err := c.WriteFIFOPadding(t.Padding)
	return err
}

// PositionNormal is one entry of a T2 block.
type PositionNormal struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// VertexControlT2 holds unskinned positions and normals. It is read-only.
type VertexControlT2 struct {
	binio.AddressRange

	Vertices []PositionNormal
	Padding  []byte

	vertexCount int
}

// NewVertexControlT2 returns a T2 block of vertexCount entries.
func NewVertexControlT2(vertexCount int) *VertexControlT2 {
	return &VertexControlT2{vertexCount: vertexCount}
}

func (t *VertexControlT2) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	if err := c.Require(t.vertexCount * 24); err != nil {
		return err
	}
	var err error
	t.Vertices, err = binio.ReadFixedArray(c, t.vertexCount, func(c *binio.Cursor) (PositionNormal, error) {
		var pn PositionNormal
		var err error
		if pn.Position, err = c.ReadVec3(); err != nil {
			return pn, err
		}
		pn.Normal, err = c.ReadVec3()
		return pn, err
	})
	if err != nil {
		return err
	}
	if t.Padding, err = c.ReadFIFOPadding(); err != nil {
		return err
	}

	t.RecordEnd(c.Pos())
	return nil
}

// MatrixWeight is one entry of a T3 block.
type MatrixWeight struct {
	Weight      float32
	MatrixIndex uint16
	Unk0x06     uint16
}

// VertexControlT3 holds per-vertex matrix weights. It is read-only.
type VertexControlT3 struct {
	binio.AddressRange

	Weights []MatrixWeight
	Padding []byte

	vertexCount int
}

// NewVertexControlT3 returns a T3 block of vertexCount entries.
func NewVertexControlT3(vertexCount int) *VertexControlT3 {
	return &VertexControlT3{vertexCount: vertexCount}
}

func (t *VertexControlT3) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	if err := c.Require(t.vertexCount * 8); err != nil {
		return err
	}
	var err error
	t.Weights, err = binio.ReadFixedArray(c, t.vertexCount, func(c *binio.Cursor) (MatrixWeight, error) {
		var w MatrixWeight
		var err error
		if w.Weight, err = c.ReadF32(); err != nil {
			return w, err
		}
		if w.MatrixIndex, err = c.ReadU16(); err != nil {
			return w, err
		}
		w.Unk0x06, err = c.ReadU16()
		return w, err
	})
	if err != nil {
		return err
	}
	if t.Padding, err = c.ReadFIFOPadding(); err != nil {
		return err
	}

	t.RecordEnd(c.Pos())
	return nil
}

// VertexControlT4 holds the matrix index table. Its length is not stored in
// the block; it comes from the model header's matrix count.
type VertexControlT4 struct {
	binio.AddressRange

	MatrixIndices []uint16
	Padding       []byte

	matrixCount int
}

// NewVertexControlT4 returns a T4 block of matrixCount indices.
func NewVertexControlT4(matrixCount int) *VertexControlT4 {
	return &VertexControlT4{matrixCount: matrixCount}
}

func (t *VertexControlT4) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	if err := c.Require(t.matrixCount * 2); err != nil {
		return err
	}
	var err error
	if t.MatrixIndices, err = binio.ReadFixedArray(c, t.matrixCount, (*binio.Cursor).ReadU16); err != nil {
		return err
	}
	if t.Padding, err = c.ReadFIFOPadding(); err != nil {
		return err
	}

	t.RecordEnd(c.Pos())
	return nil
}

func (t *VertexControlT4) Serialize(c *binio.Cursor) error {
	for _, idx := range t.MatrixIndices {
		if err := c.WriteU16(idx); err != nil {
			return err
		}
	}
	_, err := c.WriteFIFOPadding(t.Padding)
	return err
}
