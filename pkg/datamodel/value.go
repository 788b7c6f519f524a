package datamodel

import (
	"time"

	"github.com/source-dmx/dmx-go/pkg/vector"
)

// Kind identifies an attribute value kind. Scalar kinds occupy 1-14 and
// match the binary wire type bytes; the array counterpart of a scalar kind
// is the scalar kind plus KindArrayOffset.
type Kind uint8

// KindArrayOffset is the distance from a scalar kind to its array kind.
const KindArrayOffset = 14

// Scalar kinds.
const (
	KindInvalid Kind = iota
	KindElement
	KindInt
	KindFloat
	KindBool
	KindString
	KindBinary
	KindTime
	KindColor
	KindVector2
	KindVector3
	KindVector4
	KindAngle
	KindQuaternion
	KindMatrix4
)

// Array kinds.
const (
	KindElementArray Kind = KindArrayOffset + iota + 1
	KindIntArray
	KindFloatArray
	KindBoolArray
	KindStringArray
	KindBinaryArray
	KindTimeArray
	KindColorArray
	KindVector2Array
	KindVector3Array
	KindVector4Array
	KindAngleArray
	KindQuaternionArray
	KindMatrix4Array
)

// IsArray reports whether k is an array kind.
func (k Kind) IsArray() bool { return k > KindArrayOffset && k <= KindArrayOffset+KindMatrix4 }

// Base returns the scalar kind underlying an array kind, or k itself.
func (k Kind) Base() Kind {
	if k.IsArray() {
		return k - KindArrayOffset
	}
	return k
}

// Array returns the array kind for a scalar kind, or KindInvalid for kinds
// that have no array counterpart.
func (k Kind) Array() Kind {
	if k >= KindElement && k <= KindMatrix4 {
		return k + KindArrayOffset
	}
	return KindInvalid
}

var kindNames = []string{
	"invalid", "element", "int", "float", "bool", "string", "binary",
	"time", "color", "vector2", "vector3", "vector4", "angle",
	"quaternion", "matrix",
}

// String returns the kind name; array kinds carry an "_array" suffix.
// The names match the type tokens of the keyvalues2 text form.
func (k Kind) String() string {
	if k.IsArray() {
		return kindNames[k.Base()] + "_array"
	}
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// KindOf returns the kind of v, or KindInvalid if v is outside the closed
// set of datamodel value kinds. A bare nil is a null element reference.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil, *Element:
		return KindElement
	case int32:
		return KindInt
	case float32:
		return KindFloat
	case bool:
		return KindBool
	case string:
		return KindString
	case []byte:
		return KindBinary
	case time.Duration:
		return KindTime
	case vector.Color:
		return KindColor
	case vector.Vector2:
		return KindVector2
	case vector.Vector3:
		return KindVector3
	case vector.Vector4:
		return KindVector4
	case vector.Angle:
		return KindAngle
	case vector.Quaternion:
		return KindQuaternion
	case vector.Matrix4:
		return KindMatrix4
	case *ElementArray:
		return KindElementArray
	case []int32:
		return KindIntArray
	case []float32:
		return KindFloatArray
	case []bool:
		return KindBoolArray
	case []string:
		return KindStringArray
	case [][]byte:
		return KindBinaryArray
	case []time.Duration:
		return KindTimeArray
	case []vector.Color:
		return KindColorArray
	case []vector.Vector2:
		return KindVector2Array
	case []vector.Vector3:
		return KindVector3Array
	case []vector.Vector4:
		return KindVector4Array
	case []vector.Angle:
		return KindAngleArray
	case []vector.Quaternion:
		return KindQuaternionArray
	case []vector.Matrix4:
		return KindMatrix4Array
	default:
		return KindInvalid
	}
}

// IsDatamodelType reports whether v belongs to the closed set of legal
// attribute values. Nested arrays and element slices outside ElementArray
// are rejected.
func IsDatamodelType(v any) bool { return KindOf(v) != KindInvalid }

// copyValue returns a copy of v that shares no mutable backing storage with
// the original. Element references and element arrays are returned as-is;
// graph copying is ImportElement's job.
func copyValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...)
	case []int32:
		return append([]int32(nil), t...)
	case []float32:
		return append([]float32(nil), t...)
	case []bool:
		return append([]bool(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case [][]byte:
		out := make([][]byte, len(t))
		for i, b := range t {
			out[i] = append([]byte(nil), b...)
		}
		return out
	case []time.Duration:
		return append([]time.Duration(nil), t...)
	case []vector.Color:
		return append([]vector.Color(nil), t...)
	case []vector.Vector2:
		return append([]vector.Vector2(nil), t...)
	case []vector.Vector3:
		return append([]vector.Vector3(nil), t...)
	case []vector.Vector4:
		return append([]vector.Vector4(nil), t...)
	case []vector.Angle:
		return append([]vector.Angle(nil), t...)
	case []vector.Quaternion:
		return append([]vector.Quaternion(nil), t...)
	case []vector.Matrix4:
		return append([]vector.Matrix4(nil), t...)
	default:
		return v
	}
}
