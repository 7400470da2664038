// Package formats provides the record catalog for GameCube racing-game
// model files: GCMF model headers, materials, vertex control blocks,
// transform hierarchies, topology curves and collision triangles.
//
// Every record implements graph.Record; the ones with a write path also
// implement graph.Writable. Multi-byte values are big-endian unless the
// caller overrides the byte order.
package formats

import (
	"encoding/binary"
	"os"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Fixed record sizes.
const (
	ModelHeaderSize         = 0x40
	MaterialSize            = 0x20
	VertexControlHeaderSize = 0x20
	SkinnedVertexSize       = 0x20
	TransformNodeSize       = 0x50
	ExtraTransformSize      = 0x20
	TopologyParametersSize  = 0x48
	KeyableAttributeSize    = 0x14
	CollisionTriangleSize   = 0x58
)

// Model is a parsed model file: its root header plus the arena of every
// record materialized while resolving it.
type Model struct {
	Header *ModelHeader
	Arena  *graph.Arena
}

type parseConfig struct {
	order     binary.ByteOrder
	alignment int
	maxDepth  int
	log       *zap.Logger
}

// ParseOption configures ParseModel.
type ParseOption func(*parseConfig)

// WithByteOrder overrides the big-endian default.
func WithByteOrder(order binary.ByteOrder) ParseOption {
	return func(c *parseConfig) { c.order = order }
}

// WithAlignment overrides the 32-byte FIFO alignment.
func WithAlignment(n int) ParseOption {
	return func(c *parseConfig) { c.alignment = n }
}

// WithMaxDepth bounds record nesting.
func WithMaxDepth(n int) ParseOption {
	return func(c *parseConfig) { c.maxDepth = n }
}

// WithLogger traces record resolution at debug level.
func WithLogger(log *zap.Logger) ParseOption {
	return func(c *parseConfig) { c.log = log }
}

func newParseConfig(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{
		order:     binary.BigEndian,
		alignment: binio.FIFOAlignment,
		maxDepth:  graph.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CursorOptions returns the cursor options matching opts, for re-export.
func CursorOptions(opts ...ParseOption) []binio.Option {
	cfg := newParseConfig(opts)
	return []binio.Option{binio.WithByteOrder(cfg.order), binio.WithAlignment(cfg.alignment)}
}

// ParseModel parses a decompressed model buffer.
func ParseModel(data []byte, opts ...ParseOption) (*Model, error) {
	if len(data) < ModelHeaderSize {
		return nil, errors.Wrapf(binio.ErrTruncatedStream, "model needs %d bytes, have %d", ModelHeaderSize, len(data))
	}

	cfg := newParseConfig(opts)
	cur := binio.NewReader(data, CursorOptions(opts...)...)
	readerOpts := []graph.ReaderOption{graph.WithMaxDepth(cfg.maxDepth)}
	if cfg.log != nil {
		readerOpts = append(readerOpts, graph.WithLogger(cfg.log))
	}
	r := graph.NewReader(cur, readerOpts...)

	header := &ModelHeader{}
	if err := r.Read(header); err != nil {
		return nil, errors.Wrap(err, "parsing model")
	}
	return &Model{Header: header, Arena: r.Arena()}, nil
}

// ParseModelFile parses a decompressed model file from disk.
func ParseModelFile(path string, opts ...ParseOption) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading model file")
	}
	return ParseModel(data, opts...)
}

// Verify re-serializes every writable record of m and compares it with data.
func (m *Model) Verify(data []byte, opts ...ParseOption) ([]graph.Mismatch, int, error) {
	return graph.Verify(data, m.Arena, CursorOptions(opts...)...)
}

// Export writes every writable record of m back over a copy of data.
func (m *Model) Export(data []byte, opts ...ParseOption) ([]byte, error) {
	return graph.Patch(data, m.Arena, CursorOptions(opts...)...)
}

// Records returns every materialized record of type T in arena order.
func Records[T graph.Record](m *Model) []T {
	var out []T
	for _, n := range m.Arena.Nodes() {
		if rec, ok := n.Record.(T); ok {
			out = append(out, rec)
		}
	}
	return out
}

// readCount validates a file-supplied element count against the bytes left
// before any allocation.
func readCount(c *binio.Cursor, count uint32, elemSize int) (int, error) {
	n := int(count)
	if err := c.Require(n * elemSize); err != nil {
		return 0, errors.Wrapf(err, "%d elements of %d bytes", count, elemSize)
	}
	return n, nil
}
