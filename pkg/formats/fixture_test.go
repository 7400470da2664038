package formats

import (
	"testing"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// Fixture layout offsets.
const (
	fxMaterials     = 0x040
	fxVertexControl = 0x080
	fxT1            = 0x0A0
	fxT2            = 0x100
	fxT3            = 0x160
	fxT4            = 0x180
	fxRootNode      = 0x1A0
	fxChildren      = 0x200
	fxTopology      = 0x300
	fxExtra         = 0x360
	fxKeys          = 0x380
	fxCollision     = 0x3C0
	fxEnd           = 0x470

	fxVertexCount = 3
	fxMatrixCount = 5
	fxChildCount  = 3
	fxTriCount    = 2
	fxT4PadByte   = 0xCD
)

type fixtureWriter struct {
	t *testing.T
	w *binio.Cursor
}

func (f *fixtureWriter) seek(p binio.Pointer) {
	f.t.Helper()
	require.NoError(f.t, f.w.Seek(p))
}

func (f *fixtureWriter) u8(v uint8)   { require.NoError(f.t, f.w.WriteU8(v)) }
func (f *fixtureWriter) u16(v uint16) { require.NoError(f.t, f.w.WriteU16(v)) }
func (f *fixtureWriter) i16(v int16)  { require.NoError(f.t, f.w.WriteI16(v)) }
func (f *fixtureWriter) u32(v uint32) { require.NoError(f.t, f.w.WriteU32(v)) }
func (f *fixtureWriter) f32(v float32) {
	require.NoError(f.t, f.w.WriteF32(v))
}
func (f *fixtureWriter) vec3(x, y, z float32) {
	require.NoError(f.t, f.w.WriteVec3(mgl32.Vec3{x, y, z}))
}
func (f *fixtureWriter) zero(n int) { require.NoError(f.t, f.w.WriteZero(n)) }
func (f *fixtureWriter) fill(b byte, n int) {
	for i := 0; i < n; i++ {
		f.u8(b)
	}
}

func (f *fixtureWriter) transformNode(depth, has, count uint32, children, topology, extra binio.Pointer, pos mgl32.Vec3, rotY int16) {
	f.u32(depth)
	f.u32(has)
	f.u32(count)
	f.u32(uint32(children))
	f.u32(uint32(topology))
	f.u32(uint32(extra))
	f.u32(0x11)
	f.u32(0x22)
	f.vec3(1, 1, 1)
	f.i16(0)
	f.i16(rotY)
	f.i16(0)
	f.u16(0x33)
	f.vec3(pos[0], pos[1], pos[2])
	for i := uint32(1); i <= 4; i++ {
		f.u32(i)
	}
}

// buildModelFixture writes a complete model touching every record type.
func buildModelFixture(t *testing.T) []byte {
	t.Helper()
	f := &fixtureWriter{t: t, w: binio.NewWriter()}

	// Model header.
	require.NoError(t, f.w.WriteString(ModelMagic, 4))
	f.u32(0x1)
	f.vec3(1, 2, 3)
	f.f32(10)
	f.u16(1)
	f.u16(1)
	f.u8(fxMatrixCount)
	f.zero(3)
	f.u32(fxMaterials)
	f.u32(fxVertexControl)
	f.u32(fxRootNode)
	f.u32(fxCollision)
	f.u32(fxTriCount)
	f.u32(0xABCD)
	f.zero(8)

	// Materials.
	f.seek(fxMaterials)
	for i, tex := range [][3]int16{{0, -1, -1}, {1, 2, -1}} {
		f.u32(0x10 + uint32(i))
		f.fill(0xFF, 4)
		f.fill(0x80, 4)
		f.fill(0x00, 4)
		for _, idx := range tex {
			f.i16(idx)
		}
		f.u16(0x7)
		f.u32(0x1234)
		f.zero(4)
	}

	// Vertex control header, relative pointers.
	f.seek(fxVertexControl)
	f.u32(fxVertexCount)
	f.u32(fxT1 - fxVertexControl)
	f.u32(fxT2 - fxVertexControl)
	f.u32(fxT3 - fxVertexControl)
	f.u32(fxT4 - fxVertexControl)
	f.zero(12)

	f.seek(fxT1)
	for i := 0; i < fxVertexCount; i++ {
		f.vec3(float32(i), 0, 0)
		f.vec3(0, 1, 0)
		f.u32(0xFFFFFFFF)
		f.u32(uint32(i))
	}

	f.seek(fxT2)
	for i := 0; i < fxVertexCount; i++ {
		f.vec3(0, float32(i), 0)
		f.vec3(0, 0, 1)
	}
	f.zero(fxT3 - (fxT2 + fxVertexCount*24))

	f.seek(fxT3)
	for i := 0; i < fxVertexCount; i++ {
		f.f32(0.5)
		f.u16(uint16(i))
		f.u16(0)
	}
	f.zero(fxT4 - (fxT3 + fxVertexCount*8))

	f.seek(fxT4)
	for i := 0; i < fxMatrixCount; i++ {
		f.u16(uint16(10 + i))
	}
	f.fill(fxT4PadByte, fxRootNode-(fxT4+fxMatrixCount*2))

	// Transform hierarchy.
	f.seek(fxRootNode)
	f.transformNode(0, 1, fxChildCount, fxChildren, fxTopology, fxExtra, mgl32.Vec3{0, 5, 0}, 16384)
	for i := 0; i < fxChildCount; i++ {
		f.seek(binio.Pointer(fxChildren).Offset(i, TransformNodeSize))
		f.transformNode(1, 0, 0, 0, 0, 0, mgl32.Vec3{float32(i + 1), 0, 0}, 0)
	}

	f.seek(fxTopology)
	f.u32(2)
	f.u32(fxKeys)
	f.zero((TopologyCurveCount - 1) * 8)

	f.seek(fxExtra)
	f.vec3(4, 5, 6)
	f.i16(0)
	f.i16(0)
	f.i16(-16384)
	f.u16(0x99)
	f.vec3(2, 2, 2)

	f.seek(fxKeys)
	f.u32(uint32(EasingLinear))
	f.f32(0)
	f.f32(0)
	f.f32(0)
	f.f32(0)
	f.u32(uint32(EasingLinear))
	f.f32(10)
	f.f32(100)
	f.f32(0)
	f.f32(0)

	// Collision.
	f.seek(fxCollision)
	for i := 0; i < fxTriCount; i++ {
		z := float32(i)
		f.f32(-z)
		f.vec3(0, 0, 1)
		f.vec3(0, 0, z)
		f.vec3(1, 0, z)
		f.vec3(0, 1, z)
		f.vec3(0, 1, 0)
		f.vec3(-0.70710677, -0.70710677, 0)
		f.vec3(1, 0, 0)
	}

	data := f.w.Bytes()
	require.Len(t, data, fxEnd)
	return data
}
