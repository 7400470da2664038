package formats

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
)

// NoTexture marks an unused texture slot.
const NoTexture int16 = -1

// Material describes up to three texture stages and their colors.
type Material struct {
	binio.AddressRange

	Flags        uint32
	Color0       [4]uint8
	Color1       [4]uint8
	Color2       [4]uint8
	TextureIndex [3]int16
	Unk0x16      uint16
	Unk0x18      uint32
}

// TextureCount returns the number of used texture slots.
func (m *Material) TextureCount() int {
	n := 0
	for _, idx := range m.TextureIndex {
		if idx != NoTexture {
			n++
		}
	}
	return n
}

func (m *Material) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	m.RecordStart(c.Pos())

	var err error
	if m.Flags, err = c.ReadU32(); err != nil {
		return err
	}
	for _, color := range []*[4]uint8{&m.Color0, &m.Color1, &m.Color2} {
		b, err := c.ReadBytes(4)
		if err != nil {
			return err
		}
		copy(color[:], b)
	}
	for i := range m.TextureIndex {
		if m.TextureIndex[i], err = c.ReadI16(); err != nil {
			return err
		}
	}
	if m.Unk0x16, err = c.ReadU16(); err != nil {
		return err
	}
	if m.Unk0x18, err = c.ReadU32(); err != nil {
		return err
	}
	if err = c.ExpectZero("material.reserved0x1C", 4); err != nil {
		return err
	}

	m.RecordEnd(c.Pos())
	return nil
}

func (m *Material) Serialize(c *binio.Cursor) error {
	if err := c.WriteU32(m.Flags); err != nil {
		return err
	}
	for _, color := range [][4]uint8{m.Color0, m.Color1, m.Color2} {
		if err := c.WriteBytes(color[:]); err != nil {
			return err
		}
	}
	for _, idx := range m.TextureIndex {
		if err := c.WriteI16(idx); err != nil {
			return err
		}
	}
	if err := c.WriteU16(m.Unk0x16); err != nil {
		return err
	}
	if err := c.WriteU32(m.Unk0x18); err != nil {
		return err
	}
	return c.WriteZero(4)
}
