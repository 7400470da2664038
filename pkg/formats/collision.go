package formats

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/go-gl/mathgl/mgl32"
)

// CollisionTriangle is a self-contained collision face: plane, vertices and
// the inward edge normals the runtime uses for point-in-triangle tests.
type CollisionTriangle struct {
	binio.AddressRange

	PlaneDot     float32
	Normal       mgl32.Vec3
	Vertex0      mgl32.Vec3
	Vertex1      mgl32.Vec3
	Vertex2      mgl32.Vec3
	Precomputed0 mgl32.Vec3
	Precomputed1 mgl32.Vec3
	Precomputed2 mgl32.Vec3
}

func (t *CollisionTriangle) fields() []*mgl32.Vec3 {
	return []*mgl32.Vec3{
		&t.Normal,
		&t.Vertex0, &t.Vertex1, &t.Vertex2,
		&t.Precomputed0, &t.Precomputed1, &t.Precomputed2,
	}
}

func (t *CollisionTriangle) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	var err error
	if t.PlaneDot, err = c.ReadF32(); err != nil {
		return err
	}
	for _, v := range t.fields() {
		if *v, err = c.ReadVec3(); err != nil {
			return err
		}
	}

	t.RecordEnd(c.Pos())
	return nil
}

func (t *CollisionTriangle) Serialize(c *binio.Cursor) error {
	if err := c.WriteF32(t.PlaneDot); err != nil {
		return err
	}
	for _, v := range t.fields() {
		if err := c.WriteVec3(*v); err != nil {
			return err
		}
	}
	return nil
}

// Vertices returns the three corners.
func (t *CollisionTriangle) Vertices() [3]mgl32.Vec3 {
	return [3]mgl32.Vec3{t.Vertex0, t.Vertex1, t.Vertex2}
}

// Recompute derives the normal, plane distance and edge normals from the
// vertices. Call it after editing vertices and before re-export.
func (t *CollisionTriangle) Recompute() {
	v := t.Vertices()
	t.Normal = v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Normalize()
	t.PlaneDot = -t.Normal.Dot(v[0])
	t.Precomputed0 = t.Normal.Cross(v[1].Sub(v[0])).Normalize()
	t.Precomputed1 = t.Normal.Cross(v[2].Sub(v[1])).Normalize()
	t.Precomputed2 = t.Normal.Cross(v[0].Sub(v[2])).Normalize()
}

// Contains reports whether p, projected onto the triangle plane, lies inside
// the triangle according to the stored edge normals.
func (t *CollisionTriangle) Contains(p mgl32.Vec3) bool {
	edges := [3]struct{ origin, normal mgl32.Vec3 }{
		{t.Vertex0, t.Precomputed0},
		{t.Vertex1, t.Precomputed1},
		{t.Vertex2, t.Precomputed2},
	}
	for _, e := range edges {
		if p.Sub(e.origin).Dot(e.normal) < 0 {
			return false
		}
	}
	return true
}

// Distance returns the signed distance from p to the triangle plane.
func (t *CollisionTriangle) Distance(p mgl32.Vec3) float32 {
	return t.Normal.Dot(p) + t.PlaneDot
}
