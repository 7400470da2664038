package binio

import (
	"fmt"
	"math"
)

// RotationStep is the angle covered by one quantization level.
const RotationStep = 180.0 / 32768.0

// Int16Rotation is a fixed-point angle: 32768 levels per 180 degrees.
type Int16Rotation int16

// Degrees decodes the angle into [-180, 180).
func (r Int16Rotation) Degrees() float32 {
	return float32(float64(r) / 32768.0 * 180.0)
}

// EncodeRotation quantizes an angle in degrees. Both -180 and +180 are
// accepted; +180 lands on the top level, 32767.
func EncodeRotation(degrees float32) (Int16Rotation, error) {
	d := float64(degrees)
	if math.IsNaN(d) || d < -180 || d > 180 {
		return 0, &AssertionError{Field: "rotation", Want: "[-180, 180]", Got: degrees}
	}
	v := math.Round(d / 180.0 * 32768.0)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	return Int16Rotation(v), nil
}

// String returns the decoded angle.
func (r Int16Rotation) String() string {
	return fmt.Sprintf("%.3f°", r.Degrees())
}

// Rotation3 is an XYZ Euler rotation in Int16Rotation units.
type Rotation3 [3]Int16Rotation

// Degrees decodes all three axes.
func (r Rotation3) Degrees() [3]float32 {
	return [3]float32{r[0].Degrees(), r[1].Degrees(), r[2].Degrees()}
}

// EncodeRotation3 quantizes three angles.
func EncodeRotation3(x, y, z float32) (Rotation3, error) {
	var r Rotation3
	for i, d := range [3]float32{x, y, z} {
		v, err := EncodeRotation(d)
		if err != nil {
			return r, err
		}
		r[i] = v
	}
	return r, nil
}
