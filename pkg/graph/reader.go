package graph

import (
	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds record nesting.
const DefaultMaxDepth = 256

// Reader drives deserialization over a single cursor. It is not safe for
// concurrent use: resolving children moves the shared cursor.
type Reader struct {
	cur      *binio.Cursor
	arena    *Arena
	inFlight map[binio.Pointer]struct{}
	stack    []NodeID
	maxDepth int
	log      *zap.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for resolution tracing.
func WithLogger(log *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// NewReader returns a Reader over cur with an empty arena.
func NewReader(cur *binio.Cursor, opts ...ReaderOption) *Reader {
	r := &Reader{
		cur:      cur,
		arena:    NewArena(),
		inFlight: make(map[binio.Pointer]struct{}),
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cursor returns the underlying cursor.
func (r *Reader) Cursor() *binio.Cursor {
	return r.cur
}

// Arena returns the arena of materialized records.
func (r *Reader) Arena() *Arena {
	return r.arena
}

// Depth returns the current record nesting.
func (r *Reader) Depth() int {
	return len(r.stack)
}

// Read deserializes rec at the current position, then seeks to the end of
// its fixed range so linear reading can continue.
func (r *Reader) Read(rec Record) error {
	if err := r.deserialize(r.cur.Pos(), rec); err != nil {
		return err
	}
	return r.cur.Seek(rec.Range().End)
}

// ReadAt seeks to ptr and deserializes rec there. The cursor position
// afterwards is undefined.
func (r *Reader) ReadAt(ptr binio.Pointer, rec Record) error {
	if err := r.cur.Seek(ptr); err != nil {
		return errors.Wrapf(err, "resolving %s", KindOf(rec))
	}
	return r.deserialize(ptr, rec)
}

func (r *Reader) deserialize(at binio.Pointer, rec Record) error {
	kind := KindOf(rec)
	if _, busy := r.inFlight[at]; busy {
		return errors.Wrapf(ErrCyclicReference, "%s at %s re-entered while resolving", kind, at)
	}
	if len(r.stack) >= r.maxDepth {
		return errors.Wrapf(ErrTooDeep, "%s at %s exceeds depth %d", kind, at, r.maxDepth)
	}

	parent := NoParent
	if len(r.stack) > 0 {
		parent = r.stack[len(r.stack)-1]
	}
	id := r.arena.add(at, rec, parent)

	r.inFlight[at] = struct{}{}
	r.stack = append(r.stack, id)
	defer func() {
		delete(r.inFlight, at)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	if err := rec.Deserialize(r); err != nil {
		return errors.Wrapf(err, "%s at %s", kind, at)
	}

	if ce := r.log.Check(zap.DebugLevel, "record"); ce != nil {
		rng := rec.Range()
		ce.Write(
			zap.String("kind", kind),
			zap.Stringer("start", rng.Start),
			zap.Stringer("end", rng.End),
			zap.Int("depth", len(r.stack)-1),
		)
	}
	return nil
}

// ReadOptional materializes a record at ptr, or returns the zero T without
// touching the cursor when ptr is null.
func ReadOptional[T Record](r *Reader, ptr binio.Pointer, newFn func() T) (T, error) {
	var zero T
	if ptr.IsNull() {
		return zero, nil
	}
	rec := newFn()
	if err := r.ReadAt(ptr, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

// ReadArray materializes count records laid out at base + i*stride.
func ReadArray[T Record](r *Reader, base binio.Pointer, count, stride int, newFn func() T) ([]T, error) {
	if count < 0 {
		return nil, errors.Wrapf(binio.ErrInvalidLength, "array count %d at %s", count, base)
	}
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		rec := newFn()
		if err := r.ReadAt(base.Offset(i, stride), rec); err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}
