package datamodel

import (
	"testing"
	"time"

	"github.com/source-dmx/dmx-go/pkg/vector"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		value any
		want  Kind
	}{
		{nil, KindElement},
		{(*Element)(nil), KindElement},
		{int32(1), KindInt},
		{float32(1.5), KindFloat},
		{true, KindBool},
		{"s", KindString},
		{[]byte{1}, KindBinary},
		{5 * time.Minute, KindTime},
		{vector.ColorRed, KindColor},
		{vector.NewVector2(1, 2), KindVector2},
		{vector.NewVector3(1, 2, 3), KindVector3},
		{vector.NewVector4(1, 2, 3, 4), KindVector4},
		{vector.NewAngle(1, 2, 3), KindAngle},
		{vector.NewQuaternion(1, 2, 3, 4), KindQuaternion},
		{vector.Matrix4{}, KindMatrix4},
		{NewElementArray(), KindElementArray},
		{[]int32{1}, KindIntArray},
		{[]float32{1}, KindFloatArray},
		{[]bool{true}, KindBoolArray},
		{[]string{"s"}, KindStringArray},
		{[][]byte{{1}}, KindBinaryArray},
		{[]time.Duration{time.Second}, KindTimeArray},
		{[]vector.Matrix4{{}}, KindMatrix4Array},
	}
	for _, c := range cases {
		if got := KindOf(c.value); got != c.want {
			t.Errorf("KindOf(%T) = %s, want %s", c.value, got, c.want)
		}
	}
}

func TestKindOfRejections(t *testing.T) {
	rejected := []any{
		int(1),      // platform int is not a wire kind
		int64(1),    // ditto
		float64(1),  // ditto
		[]int{1},    // ditto, array form
		[][]int32{}, // nested arrays are forbidden
		[][]string{},
		[]*Element{}, // element sequences must be ElementArray
		map[string]int32{},
		struct{}{},
	}
	for _, v := range rejected {
		if IsDatamodelType(v) {
			t.Errorf("IsDatamodelType(%T) = true, want false", v)
		}
	}
}

func TestKindNames(t *testing.T) {
	cases := map[Kind]string{
		KindElement:      "element",
		KindInt:          "int",
		KindTime:         "time",
		KindMatrix4:      "matrix",
		KindElementArray: "element_array",
		KindIntArray:     "int_array",
		KindMatrix4Array: "matrix_array",
		KindInvalid:      "invalid",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestKindArrayBase(t *testing.T) {
	if KindFloat.Array() != KindFloatArray {
		t.Errorf("KindFloat.Array() = %s", KindFloat.Array())
	}
	if KindFloatArray.Base() != KindFloat {
		t.Errorf("KindFloatArray.Base() = %s", KindFloatArray.Base())
	}
	if !KindFloatArray.IsArray() || KindFloat.IsArray() {
		t.Error("IsArray misclassifies")
	}
	if KindIntArray.Array() != KindInvalid {
		t.Error("array of array must be invalid")
	}
}
