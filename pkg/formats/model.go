package formats

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ModelMagic identifies a model header.
const ModelMagic = "GCMF"

// Model errors.
var ErrInvalidModelMagic = errors.New("invalid model magic: expected 'GCMF'")

// ModelHeader is the root record of a model file. It is read-only.
type ModelHeader struct {
	binio.AddressRange

	Magic                    string
	Attributes               uint32
	Origin                   mgl32.Vec3
	Radius                   float32
	OpaqueMaterialCount      uint16
	TranslucentMaterialCount uint16
	MatrixCount              uint8
	MaterialsAbsPtr          binio.Pointer
	VertexControlAbsPtr      binio.Pointer
	TransformRootAbsPtr      binio.Pointer
	CollisionAbsPtr          binio.Pointer
	CollisionCount           uint32
	Unk0x34                  uint32

	Materials     []*Material
	VertexControl *VertexControlHeader
	TransformRoot *TransformNode
	Collision     []*CollisionTriangle
}

// MaterialCount returns the opaque plus translucent material count.
func (h *ModelHeader) MaterialCount() int {
	return int(h.OpaqueMaterialCount) + int(h.TranslucentMaterialCount)
}

func (h *ModelHeader) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	h.RecordStart(c.Pos())

	var err error
	if h.Magic, err = c.ReadString(4); err != nil {
		return err
	}
	if h.Magic != ModelMagic {
		return errors.Wrapf(ErrInvalidModelMagic, "got %q", h.Magic)
	}
	if h.Attributes, err = c.ReadU32(); err != nil {
		return err
	}
	if h.Origin, err = c.ReadVec3(); err != nil {
		return err
	}
	if h.Radius, err = c.ReadF32(); err != nil {
		return err
	}
	if h.OpaqueMaterialCount, err = c.ReadU16(); err != nil {
		return err
	}
	if h.TranslucentMaterialCount, err = c.ReadU16(); err != nil {
		return err
	}
	if h.MatrixCount, err = c.ReadU8(); err != nil {
		return err
	}
	if err = c.ExpectZero("model.reserved0x1D", 3); err != nil {
		return err
	}
	if h.MaterialsAbsPtr, err = c.ReadPointer(); err != nil {
		return err
	}
	if h.VertexControlAbsPtr, err = c.ReadPointer(); err != nil {
		return err
	}
	if h.TransformRootAbsPtr, err = c.ReadPointer(); err != nil {
		return err
	}
	if h.CollisionAbsPtr, err = c.ReadPointer(); err != nil {
		return err
	}
	if h.CollisionCount, err = c.ReadU32(); err != nil {
		return err
	}
	if h.Unk0x34, err = c.ReadU32(); err != nil {
		return err
	}
	if err = c.ExpectZero("model.reserved0x38", 8); err != nil {
		return err
	}
	h.RecordEnd(c.Pos())

	if h.MaterialCount() > 0 && h.MaterialsAbsPtr.IsNull() {
		return &binio.AssertionError{Field: "model.materialsAbsPtr", Offset: h.Start + 0x20, Want: "non-null", Got: h.MaterialsAbsPtr}
	}
	if h.MaterialsAbsPtr.IsNotNull() {
		h.Materials, err = graph.ReadArray(r, h.MaterialsAbsPtr, h.MaterialCount(), MaterialSize, func() *Material {
			return &Material{}
		})
		if err != nil {
			return errors.Wrap(err, "materials")
		}
	}

	h.VertexControl, err = graph.ReadOptional(r, h.VertexControlAbsPtr, func() *VertexControlHeader {
		return NewVertexControlHeader(int(h.MatrixCount))
	})
	if err != nil {
		return errors.Wrap(err, "vertex control")
	}

	h.TransformRoot, err = graph.ReadOptional(r, h.TransformRootAbsPtr, func() *TransformNode {
		return &TransformNode{}
	})
	if err != nil {
		return errors.Wrap(err, "transform hierarchy")
	}

	if h.CollisionAbsPtr.IsNotNull() {
		if err := r.Cursor().Seek(h.CollisionAbsPtr); err != nil {
			return errors.Wrap(err, "collision")
		}
		count, err := readCount(r.Cursor(), h.CollisionCount, CollisionTriangleSize)
		if err != nil {
			return errors.Wrap(err, "collision")
		}
		h.Collision, err = graph.ReadArray(r, h.CollisionAbsPtr, count, CollisionTriangleSize, func() *CollisionTriangle {
			return &CollisionTriangle{}
		})
		if err != nil {
			return errors.Wrap(err, "collision")
		}
	}
	return nil
}
