package formats

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// TransformNode is one node of a transform hierarchy. Children are a
// fixed-stride array of TransformNodeSize records at ChildrenAbsPtr.
type TransformNode struct {
	binio.AddressRange

	Depth                uint32
	HasChildren          uint32
	ChildCount           uint32
	ChildrenAbsPtr       binio.Pointer
	TopologyAbsPtr       binio.Pointer
	ExtraTransformAbsPtr binio.Pointer
	Unk0x18              uint32
	Unk0x1C              uint32
	Scale                mgl32.Vec3
	Rotation             binio.Rotation3
	Unk0x32              uint16
	Position             mgl32.Vec3
	Unk0x40              [4]uint32

	Children       []*TransformNode
	Topology       *TopologyParameters
	ExtraTransform *ExtraTransform
}

func (n *TransformNode) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	n.RecordStart(c.Pos())

	var err error
	if n.Depth, err = c.ReadU32(); err != nil {
		return err
	}
	flagAt := c.Pos()
	if n.HasChildren, err = c.ReadU32(); err != nil {
		return err
	}
	if n.HasChildren > 1 {
		return &binio.AssertionError{Field: "transform.hasChildren", Offset: flagAt, Want: "0 or 1", Got: n.HasChildren}
	}
	if n.ChildCount, err = c.ReadU32(); err != nil {
		return err
	}
	for _, p := range []*binio.Pointer{&n.ChildrenAbsPtr, &n.TopologyAbsPtr, &n.ExtraTransformAbsPtr} {
		if *p, err = c.ReadPointer(); err != nil {
			return err
		}
	}
	if n.Unk0x18, err = c.ReadU32(); err != nil {
		return err
	}
	if n.Unk0x1C, err = c.ReadU32(); err != nil {
		return err
	}
	if n.Scale, err = c.ReadVec3(); err != nil {
		return err
	}
	if n.Rotation, err = c.ReadRotation3(); err != nil {
		return err
	}
	if n.Unk0x32, err = c.ReadU16(); err != nil {
		return err
	}
	if n.Position, err = c.ReadVec3(); err != nil {
		return err
	}
	for i := range n.Unk0x40 {
		if n.Unk0x40[i], err = c.ReadU32(); err != nil {
			return err
		}
	}
	n.RecordEnd(c.Pos())

	if n.ChildCount > 0 {
		if n.ChildrenAbsPtr.IsNull() {
			return &binio.AssertionError{Field: "transform.childrenAbsPtr", Offset: n.Start + 0x0C, Want: "non-null", Got: n.ChildrenAbsPtr}
		}
		if err := c.Seek(n.ChildrenAbsPtr); err != nil {
			return errors.Wrap(err, "children")
		}
		count, err := readCount(c, n.ChildCount, TransformNodeSize)
		if err != nil {
			return errors.Wrap(err, "children")
		}
		n.Children, err = graph.ReadArray(r, n.ChildrenAbsPtr, count, TransformNodeSize, func() *TransformNode {
			return &TransformNode{}
		})
		if err != nil {
			return errors.Wrap(err, "children")
		}
	}

	if n.Topology, err = graph.ReadOptional(r, n.TopologyAbsPtr, func() *TopologyParameters {
		return &TopologyParameters{}
	}); err != nil {
		return errors.Wrap(err, "topology")
	}
	if n.ExtraTransform, err = graph.ReadOptional(r, n.ExtraTransformAbsPtr, func() *ExtraTransform {
		return &ExtraTransform{}
	}); err != nil {
		return errors.Wrap(err, "extra transform")
	}
	return nil
}

func (n *TransformNode) Serialize(c *binio.Cursor) error {
	for _, v := range []uint32{n.Depth, n.HasChildren, n.ChildCount} {
		if err := c.WriteU32(v); err != nil {
			return err
		}
	}
	for _, p := range []binio.Pointer{n.ChildrenAbsPtr, n.TopologyAbsPtr, n.ExtraTransformAbsPtr} {
		if err := c.WritePointer(p); err != nil {
			return err
		}
	}
	if err := c.WriteU32(n.Unk0x18); err != nil {
		return err
	}
	if err := c.WriteU32(n.Unk0x1C); err != nil {
		return err
	}
	if err := c.WriteVec3(n.Scale); err != nil {
		return err
	}
	if err := c.WriteRotation3(n.Rotation); err != nil {
		return err
	}
	if err := c.WriteU16(n.Unk0x32); err != nil {
		return err
	}
	if err := c.WriteVec3(n.Position); err != nil {
		return err
	}
	for _, v := range n.Unk0x40 {
		if err := c.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

// LocalMatrix composes scale, XYZ rotation and translation.
func (n *TransformNode) LocalMatrix() mgl32.Mat4 {
	deg := n.Rotation.Degrees()
	rot := mgl32.AnglesToQuat(mgl32.DegToRad(deg[0]), mgl32.DegToRad(deg[1]), mgl32.DegToRad(deg[2]), mgl32.XYZ)
	return mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z()).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z()))
}

// Walk visits n and its descendants depth-first with the accumulated world matrix.
func (n *TransformNode) Walk(parent mgl32.Mat4, fn func(node *TransformNode, world mgl32.Mat4)) {
	world := parent.Mul4(n.LocalMatrix())
	fn(n, world)
	for _, child := range n.Children {
		child.Walk(world, fn)
	}
}

// ExtraTransform is an optional secondary transform attached to a node.
type ExtraTransform struct {
	binio.AddressRange

	Position mgl32.Vec3
	Rotation binio.Rotation3
	Unk0x12  uint16
	Scale    mgl32.Vec3
}

func (e *ExtraTransform) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	e.RecordStart(c.Pos())

	var err error
	if e.Position, err = c.ReadVec3(); err != nil {
		return err
	}
	if e.Rotation, err = c.ReadRotation3(); err != nil {
		return err
	}
	if e.Unk0x12, err = c.ReadU16(); err != nil {
		return err
	}
	if e.Scale, err = c.ReadVec3(); err != nil {
		return err
	}

	e.RecordEnd(c.Pos())
	return nil
}

func (e *ExtraTransform) Serialize(c *binio.Cursor) error {
	if err := c.WriteVec3(e.Position); err != nil {
		return err
	}
	if err := c.WriteRotation3(e.Rotation); err != nil {
		return err
	}
	if err := c.WriteU16(e.Unk0x12); err != nil {
		return err
	}
	return c.WriteVec3(e.Scale)
}
