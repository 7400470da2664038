package binio

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// FIFOAlignment is the GX command-stream transfer granularity vertex data is padded to.
const FIFOAlignment = 32

// Cursor is a position-tracking byte stream. A reader cursor is bounded by
// its buffer; a writer cursor grows the buffer on demand so callers can
// seek forward and patch.
type Cursor struct {
	buf       []byte
	pos       int64
	order     binary.ByteOrder
	alignment int
	writable  bool
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithByteOrder sets the byte order. Default is big-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *Cursor) {
		if order != nil {
			c.order = order
		}
	}
}

// WithAlignment sets the block size used by AlignFIFO helpers. Default is FIFOAlignment.
func WithAlignment(n int) Option {
	return func(c *Cursor) {
		if n > 0 {
			c.alignment = n
		}
	}
}

// NewReader returns a read cursor over data positioned at 0.
func NewReader(data []byte, opts ...Option) *Cursor {
	c := &Cursor{buf: data, order: binary.BigEndian, alignment: FIFOAlignment}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWriter returns an empty write cursor.
func NewWriter(opts ...Option) *Cursor {
	c := NewReader(nil, opts...)
	c.writable = true
	return c
}

// NewPatcher returns a write cursor over a copy of data.
func NewPatcher(data []byte, opts ...Option) *Cursor {
	c := NewWriter(opts...)
	c.buf = append([]byte(nil), data...)
	return c
}

// Pos returns the absolute offset from the start of the stream.
func (c *Cursor) Pos() Pointer {
	return Pointer(c.pos)
}

// Len returns the buffer length.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the bytes left after the current position.
func (c *Cursor) Remaining() int {
	if int(c.pos) >= len(c.buf) {
		return 0
	}
	return len(c.buf) - int(c.pos)
}

// Bytes returns the backing buffer.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// ByteOrder returns the configured byte order.
func (c *Cursor) ByteOrder() binary.ByteOrder {
	return c.order
}

// Alignment returns the configured FIFO block size.
func (c *Cursor) Alignment() int {
	return c.alignment
}

// Writable reports whether this is a write cursor.
func (c *Cursor) Writable() bool {
	return c.writable
}

// Seek moves to an absolute offset.
func (c *Cursor) Seek(offset Pointer) error {
	if !c.writable && int(offset) > len(c.buf) {
		return errors.Wrapf(ErrOutOfRange, "seek to %s in %d-byte stream", offset, len(c.buf))
	}
	c.pos = int64(offset)
	return nil
}

// AlignPadding returns the bytes needed to reach the next multiple of block.
func (c *Cursor) AlignPadding(block int) int {
	if block <= 0 {
		return 0
	}
	return (block - int(c.pos%int64(block))) % block
}

// Require fails with ErrTruncatedStream unless n bytes remain. Use it before
// allocating arrays whose length comes from file data.
func (c *Cursor) Require(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "length %d at %s", n, c.Pos())
	}
	if c.Remaining() < n {
		return errors.Wrapf(ErrTruncatedStream, "need %d bytes at %s, have %d", n, c.Pos(), c.Remaining())
	}
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "read of %d bytes at %s", n, c.Pos())
	}
	if c.Remaining() < n {
		return nil, errors.Wrapf(ErrTruncatedStream, "need %d bytes at %s, have %d", n, c.Pos(), c.Remaining())
	}
	b := c.buf[c.pos : c.pos+int64(n)]
	c.pos += int64(n)
	return b, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadString reads a fixed-size field and trims it at the first NUL.
func (c *Cursor) ReadString(n int) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadPointer reads a 32-bit absolute offset.
func (c *Cursor) ReadPointer() (Pointer, error) {
	v, err := c.ReadU32()
	return Pointer(v), err
}

func (c *Cursor) ReadVec2() (mgl32.Vec2, error) {
	var v mgl32.Vec2
	for i := range v {
		f, err := c.ReadF32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func (c *Cursor) ReadVec3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := c.ReadF32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// ReadRotation3 reads three Int16Rotation angles.
func (c *Cursor) ReadRotation3() (Rotation3, error) {
	var r Rotation3
	for i := range r {
		v, err := c.ReadI16()
		if err != nil {
			return r, err
		}
		r[i] = Int16Rotation(v)
	}
	return r, nil
}

// ReadAlign skips to the next multiple of block and returns the skipped bytes
// so records can reproduce them on write.
func (c *Cursor) ReadAlign(block int) ([]byte, error) {
	return c.ReadBytes(c.AlignPadding(block))
}

// ReadFIFOPadding is ReadAlign with the configured alignment.
func (c *Cursor) ReadFIFOPadding() ([]byte, error) {
	return c.ReadAlign(c.alignment)
}

// ReadFixedArray reads count contiguous elements using read.
func ReadFixedArray[T any](c *Cursor, count int, read func(*Cursor) (T, error)) ([]T, error) {
	if count < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "array count %d at %s", count, c.Pos())
	}
	out := make([]T, count)
	for i := range out {
		v, err := read(c)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// ExpectU32 reads a u32 that must equal want.
func (c *Cursor) ExpectU32(field string, want uint32) error {
	at := c.Pos()
	got, err := c.ReadU32()
	if err != nil {
		return err
	}
	if got != want {
		return &AssertionError{Field: field, Offset: at, Want: want, Got: got}
	}
	return nil
}

// ExpectZero reads n bytes that must all be zero.
func (c *Cursor) ExpectZero(field string, n int) error {
	at := c.Pos()
	b, err := c.take(n)
	if err != nil {
		return err
	}
	for _, v := range b {
		if v != 0 {
			return &AssertionError{Field: field, Offset: at, Want: make([]byte, n), Got: append([]byte(nil), b...)}
		}
	}
	return nil
}

func (c *Cursor) put(n int) ([]byte, error) {
	if !c.writable {
		return nil, errors.Errorf("write of %d bytes at %s on read-only cursor", n, c.Pos())
	}
	end := c.pos + int64(n)
	if end > int64(len(c.buf)) {
		if end > int64(cap(c.buf)) {
			grown := make([]byte, end, end*2)
			copy(grown, c.buf)
			c.buf = grown
		} else {
			c.buf = c.buf[:end]
		}
	}
	b := c.buf[c.pos:end]
	c.pos = end
	return b, nil
}

func (c *Cursor) WriteBytes(p []byte) error {
	b, err := c.put(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// WriteString writes s into a fixed-size NUL-padded field.
func (c *Cursor) WriteString(s string, n int) error {
	b, err := c.put(n)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = 0
	}
	copy(b, s)
	return nil
}

func (c *Cursor) WriteU8(v uint8) error {
	b, err := c.put(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (c *Cursor) WriteU16(v uint16) error {
	b, err := c.put(2)
	if err != nil {
		return err
	}
	c.order.PutUint16(b, v)
	return nil
}

func (c *Cursor) WriteU32(v uint32) error {
	b, err := c.put(4)
	if err != nil {
		return err
	}
	c.order.PutUint32(b, v)
	return nil
}

func (c *Cursor) WriteI16(v int16) error {
	return c.WriteU16(uint16(v))
}

func (c *Cursor) WriteI32(v int32) error {
	return c.WriteU32(uint32(v))
}

func (c *Cursor) WriteF32(v float32) error {
	return c.WriteU32(math.Float32bits(v))
}

func (c *Cursor) WritePointer(p Pointer) error {
	return c.WriteU32(uint32(p))
}

func (c *Cursor) WriteVec2(v mgl32.Vec2) error {
	for _, f := range v {
		if err := c.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cursor) WriteVec3(v mgl32.Vec3) error {
	for _, f := range v {
		if err := c.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cursor) WriteRotation3(r Rotation3) error {
	for _, v := range r {
		if err := c.WriteI16(int16(v)); err != nil {
			return err
		}
	}
	return nil
}

// WriteZero writes n zero bytes.
func (c *Cursor) WriteZero(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "zero fill of %d bytes", n)
	}
	return c.WriteBytes(make([]byte, n))
}

// WriteAlign pads to the next multiple of block. The captured bytes are
// reproduced when their length matches the padding needed, zeros otherwise.
// It returns the number of bytes emitted.
func (c *Cursor) WriteAlign(block int, captured []byte) (int, error) {
	n := c.AlignPadding(block)
	if len(captured) == n {
		return n, c.WriteBytes(captured)
	}
	return n, c.WriteZero(n)
}

// WriteFIFOPadding is WriteAlign with the configured alignment.
func (c *Cursor) WriteFIFOPadding(captured []byte) (int, error) {
	return c.WriteAlign(c.alignment, captured)
}
