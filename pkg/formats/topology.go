package formats

import (
	"fmt"

	"github.com/Faultbox/gfztool/pkg/binio"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/pkg/errors"
)

// TopologyCurveCount is the number of animation curves in TopologyParameters.
const TopologyCurveCount = 9

// Curve indices.
const (
	CurveScaleX = iota
	CurveScaleY
	CurveScaleZ
	CurveRotationX
	CurveRotationY
	CurveRotationZ
	CurvePositionX
	CurvePositionY
	CurvePositionZ
)

var curveNames = [TopologyCurveCount]string{
	"scale.x", "scale.y", "scale.z",
	"rotation.x", "rotation.y", "rotation.z",
	"position.x", "position.y", "position.z",
}

// CurveName returns a readable name for curve index i.
func CurveName(i int) string {
	if i < 0 || i >= TopologyCurveCount {
		return fmt.Sprintf("curve%d", i)
	}
	return curveNames[i]
}

// CurveRef is a count + absolute pointer pair addressing keyables.
type CurveRef struct {
	Count  uint32
	AbsPtr binio.Pointer
}

// TopologyParameters holds nine keyframed curves. Only the header of count
// and pointer pairs is written back; the keys are records of their own.
type TopologyParameters struct {
	binio.AddressRange

	Curves [TopologyCurveCount]CurveRef
	Keys   [TopologyCurveCount][]*KeyableAttribute
}

func (t *TopologyParameters) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	t.RecordStart(c.Pos())

	for i := range t.Curves {
		var err error
		if t.Curves[i].Count, err = c.ReadU32(); err != nil {
			return err
		}
		if t.Curves[i].AbsPtr, err = c.ReadPointer(); err != nil {
			return err
		}
	}
	t.RecordEnd(c.Pos())

	for i, ref := range t.Curves {
		if ref.AbsPtr.IsNull() {
			if ref.Count != 0 {
				return &binio.AssertionError{
					Field:  "topology." + CurveName(i) + ".absPtr",
					Offset: t.Start.Add(i*8 + 4),
					Want:   "non-null",
					Got:    ref.AbsPtr,
				}
			}
			continue
		}
		if err := c.Seek(ref.AbsPtr); err != nil {
			return errors.Wrap(err, CurveName(i))
		}
		count, err := readCount(c, ref.Count, KeyableAttributeSize)
		if err != nil {
			return errors.Wrap(err, CurveName(i))
		}
		t.Keys[i], err = graph.ReadArray(r, ref.AbsPtr, count, KeyableAttributeSize, func() *KeyableAttribute {
			return &KeyableAttribute{}
		})
		if err != nil {
			return errors.Wrap(err, CurveName(i))
		}
	}
	return nil
}

func (t *TopologyParameters) Serialize(c *binio.Cursor) error {
	for _, ref := range t.Curves {
		if err := c.WriteU32(ref.Count); err != nil {
			return err
		}
		if err := c.WritePointer(ref.AbsPtr); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate samples curve i at time. Curves without keys return fallback.
func (t *TopologyParameters) Evaluate(i int, time float32, fallback float32) float32 {
	if i < 0 || i >= TopologyCurveCount || len(t.Keys[i]) == 0 {
		return fallback
	}
	return evaluateCurve(t.Keys[i], time)
}

// Easing selects interpolation towards the next key.
type Easing uint32

const (
	EasingConstant Easing = 0
	EasingLinear   Easing = 1
	EasingSmooth   Easing = 2
)

// String returns a readable easing name.
func (e Easing) String() string {
	switch e {
	case EasingConstant:
		return "Constant"
	case EasingLinear:
		return "Linear"
	case EasingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(e))
	}
}

// KeyableAttribute is one curve key.
type KeyableAttribute struct {
	binio.AddressRange

	Easing     Easing
	Time       float32
	Value      float32
	TangentIn  float32
	TangentOut float32
}

func (k *KeyableAttribute) Deserialize(r *graph.Reader) error {
	c := r.Cursor()
	k.RecordStart(c.Pos())

	easing, err := c.ReadU32()
	if err != nil {
		return err
	}
	k.Easing = Easing(easing)
	for _, f := range []*float32{&k.Time, &k.Value, &k.TangentIn, &k.TangentOut} {
		if *f, err = c.ReadF32(); err != nil {
			return err
		}
	}

	k.RecordEnd(c.Pos())
	return nil
}

func (k *KeyableAttribute) Serialize(c *binio.Cursor) error {
	if err := c.WriteU32(uint32(k.Easing)); err != nil {
		return err
	}
	for _, f := range []float32{k.Time, k.Value, k.TangentIn, k.TangentOut} {
		if err := c.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

// evaluateCurve interpolates keys sorted by time. Smooth easing uses a
// cubic Hermite segment built from the out/in tangents.
func evaluateCurve(keys []*KeyableAttribute, time float32) float32 {
	if time <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if time >= last.Time {
		return last.Value
	}
	for i := 0; i < len(keys)-1; i++ {
		a, b := keys[i], keys[i+1]
		if time < a.Time || time >= b.Time {
			continue
		}
		span := b.Time - a.Time
		if span <= 0 {
			return b.Value
		}
		t := (time - a.Time) / span
		switch a.Easing {
		case EasingConstant:
			return a.Value
		case EasingSmooth:
			t2 := t * t
			t3 := t2 * t
			h00 := 2*t3 - 3*t2 + 1
			h10 := t3 - 2*t2 + t
			h01 := -2*t3 + 3*t2
			h11 := t3 - t2
			return h00*a.Value + h10*span*a.TangentOut + h01*b.Value + h11*span*b.TangentIn
		default:
			return a.Value + (b.Value-a.Value)*t
		}
	}
	return last.Value
}
