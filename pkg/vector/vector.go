package vector

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Vector errors.
var (
	// ErrValueDomain reports a constructor or parser rejecting its input:
	// too few components, a malformed float, or a wrong field count.
	ErrValueDomain = errors.New("invalid value for geometric type")
)

// Vector2 is a two-component float vector.
type Vector2 [2]float32

// Vector3 is a three-component float vector.
type Vector3 [3]float32

// Vector4 is a four-component float vector.
type Vector4 [4]float32

// Angle is a Euler angle triple (pitch, yaw, roll). It shares the layout of
// Vector3 but is a distinct attribute kind on the wire.
type Angle [3]float32

// Quaternion is a rotation quaternion (x, y, z, w).
type Quaternion [4]float32

// Matrix4 is a 4x4 float matrix in row-major order.
type Matrix4 [16]float32

// NewVector2 builds a Vector2 from its components.
func NewVector2(x, y float32) Vector2 { return Vector2{x, y} }

// NewVector3 builds a Vector3 from its components.
func NewVector3(x, y, z float32) Vector3 { return Vector3{x, y, z} }

// NewVector4 builds a Vector4 from its components.
func NewVector4(x, y, z, w float32) Vector4 { return Vector4{x, y, z, w} }

// NewAngle builds an Angle from pitch, yaw, and roll.
func NewAngle(pitch, yaw, roll float32) Angle { return Angle{pitch, yaw, roll} }

// NewQuaternion builds a Quaternion from its components.
func NewQuaternion(x, y, z, w float32) Quaternion { return Quaternion{x, y, z, w} }

// fromSlice copies n components from src into dst. Extra components are
// ignored; fewer than n is an error.
func fromSlice(dst []float32, src []float32, n int) error {
	if len(src) < n {
		return ErrValueDomain
	}
	copy(dst, src[:n])
	return nil
}

// Vector2FromSlice builds a Vector2 from the first two components of s.
func Vector2FromSlice(s []float32) (Vector2, error) {
	var v Vector2
	err := fromSlice(v[:], s, 2)
	return v, err
}

// Vector3FromSlice builds a Vector3 from the first three components of s.
func Vector3FromSlice(s []float32) (Vector3, error) {
	var v Vector3
	err := fromSlice(v[:], s, 3)
	return v, err
}

// Vector4FromSlice builds a Vector4 from the first four components of s.
func Vector4FromSlice(s []float32) (Vector4, error) {
	var v Vector4
	err := fromSlice(v[:], s, 4)
	return v, err
}

// AngleFromSlice builds an Angle from the first three components of s.
func AngleFromSlice(s []float32) (Angle, error) {
	var a Angle
	err := fromSlice(a[:], s, 3)
	return a, err
}

// QuaternionFromSlice builds a Quaternion from the first four components of s.
func QuaternionFromSlice(s []float32) (Quaternion, error) {
	var q Quaternion
	err := fromSlice(q[:], s, 4)
	return q, err
}

// Matrix4FromSlice builds a Matrix4 from the first sixteen components of s.
func Matrix4FromSlice(s []float32) (Matrix4, error) {
	var m Matrix4
	err := fromSlice(m[:], s, 16)
	return m, err
}

// Component arithmetic. Operations return new values; Normalize mutates in
// place because it is used to repair values loaded from imprecise text forms.

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v[0] + o[0], v[1] + o[1]} }

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v[0] - o[0], v[1] - o[1]} }

// Scale returns v scaled by s.
func (v Vector2) Scale(s float32) Vector2 { return Vector2{v[0] * s, v[1] * s} }

// Div returns v scaled by 1/s.
func (v Vector2) Div(s float32) Vector2 { return v.Scale(1 / s) }

// Length returns the Euclidean length of v.
func (v Vector2) Length() float32 { return length(v[:]) }

// Normalize scales v in place to unit length.
func (v *Vector2) Normalize() { normalize(v[:]) }

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v[0] * s, v[1] * s, v[2] * s}
}

// Div returns v scaled by 1/s.
func (v Vector3) Div(s float32) Vector3 { return v.Scale(1 / s) }

// Length returns the Euclidean length of v.
func (v Vector3) Length() float32 { return length(v[:]) }

// Normalize scales v in place to unit length.
func (v *Vector3) Normalize() { normalize(v[:]) }

// Add returns v + o.
func (v Vector4) Add(o Vector4) Vector4 {
	return Vector4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

// Sub returns v - o.
func (v Vector4) Sub(o Vector4) Vector4 {
	return Vector4{v[0] - o[0], v[1] - o[1], v[2] - o[2], v[3] - o[3]}
}

// Scale returns v scaled by s.
func (v Vector4) Scale(s float32) Vector4 {
	return Vector4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Div returns v scaled by 1/s.
func (v Vector4) Div(s float32) Vector4 { return v.Scale(1 / s) }

// Length returns the Euclidean length of v.
func (v Vector4) Length() float32 { return length(v[:]) }

// Normalize scales v in place to unit length.
func (v *Vector4) Normalize() { normalize(v[:]) }

// Add returns q + o.
func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{q[0] + o[0], q[1] + o[1], q[2] + o[2], q[3] + o[3]}
}

// Sub returns q - o.
func (q Quaternion) Sub(o Quaternion) Quaternion {
	return Quaternion{q[0] - o[0], q[1] - o[1], q[2] - o[2], q[3] - o[3]}
}

// Scale returns q scaled by s.
func (q Quaternion) Scale(s float32) Quaternion {
	return Quaternion{q[0] * s, q[1] * s, q[2] * s, q[3] * s}
}

// Div returns q scaled by 1/s.
func (q Quaternion) Div(s float32) Quaternion { return q.Scale(1 / s) }

// Length returns the Euclidean length of q.
func (q Quaternion) Length() float32 { return length(q[:]) }

// Normalize scales q in place to unit length.
func (q *Quaternion) Normalize() { normalize(q[:]) }

func length(c []float32) float32 {
	var sum float64
	for _, v := range c {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

func normalize(c []float32) {
	l := length(c)
	for i := range c {
		c[i] /= l
	}
}

// String formatting: components space-joined, shortest float32 round-trip
// representation.

// String returns the components space-joined.
func (v Vector2) String() string { return joinFloats(v[:], " ") }

// String returns the components space-joined.
func (v Vector3) String() string { return joinFloats(v[:], " ") }

// String returns the components space-joined.
func (v Vector4) String() string { return joinFloats(v[:], " ") }

// String returns the components space-joined.
func (a Angle) String() string { return joinFloats(a[:], " ") }

// String returns the components space-joined.
func (q Quaternion) String() string { return joinFloats(q[:], " ") }

// String returns the four rows, each space-joined, separated by two spaces.
func (m Matrix4) String() string {
	rows := make([]string, 4)
	for i := 0; i < 4; i++ {
		rows[i] = joinFloats(m[i*4:i*4+4], " ")
	}
	return strings.Join(rows, "  ")
}

func joinFloats(c []float32, sep string) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, sep)
}
