package vector

import (
	"errors"
	"math"
	"testing"
)

func TestFromSlice(t *testing.T) {
	t.Run("Exact", func(t *testing.T) {
		v, err := Vector3FromSlice([]float32{1, 2, 3})
		if err != nil {
			t.Fatalf("Vector3FromSlice failed: %v", err)
		}
		if v != (Vector3{1, 2, 3}) {
			t.Errorf("expected {1 2 3}, got %v", v)
		}
	})

	t.Run("ExtraIgnored", func(t *testing.T) {
		v, err := Vector2FromSlice([]float32{1, 2, 3, 4})
		if err != nil {
			t.Fatalf("Vector2FromSlice failed: %v", err)
		}
		if v != (Vector2{1, 2}) {
			t.Errorf("expected {1 2}, got %v", v)
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		if _, err := Vector4FromSlice([]float32{1, 2, 3}); !errors.Is(err, ErrValueDomain) {
			t.Errorf("expected ErrValueDomain, got %v", err)
		}
	})

	t.Run("Matrix4From15Floats", func(t *testing.T) {
		if _, err := Matrix4FromSlice(make([]float32, 15)); !errors.Is(err, ErrValueDomain) {
			t.Errorf("expected ErrValueDomain, got %v", err)
		}
	})
}

func TestArithmetic(t *testing.T) {
	a := NewVector3(1, 2, 3)
	b := NewVector3(4, 5, 6)

	if a.Add(b) != (Vector3{5, 7, 9}) {
		t.Errorf("Add: got %v", a.Add(b))
	}
	if b.Sub(a) != (Vector3{3, 3, 3}) {
		t.Errorf("Sub: got %v", b.Sub(a))
	}
	if a.Scale(2) != (Vector3{2, 4, 6}) {
		t.Errorf("Scale: got %v", a.Scale(2))
	}
	if (Vector3{2, 4, 6}).Div(2) != a {
		t.Errorf("Div: got %v", Vector3{2, 4, 6}.Div(2))
	}
}

func TestNormalize(t *testing.T) {
	q := NewQuaternion(1, 2, 3, 4)
	q.Normalize()

	if math.Abs(float64(q.Length())-1) > 1e-6 {
		t.Errorf("expected unit length, got %v", q.Length())
	}

	// Direction is preserved.
	want := float64(2) / math.Sqrt(30)
	if math.Abs(float64(q[1])-want) > 1e-6 {
		t.Errorf("expected component %v, got %v", want, q[1])
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Run("Vector3", func(t *testing.T) {
		v := NewVector3(1.5, -2.25, 3)
		got, err := ParseVector3(v.String())
		if err != nil {
			t.Fatalf("ParseVector3 failed: %v", err)
		}
		if got != v {
			t.Errorf("round trip changed value: %v != %v", got, v)
		}
	})

	t.Run("Matrix4", func(t *testing.T) {
		var m Matrix4
		for i := range m {
			m[i] = float32(i)
		}
		s := m.String()
		// Rows joined by two spaces.
		if s != "0 1 2 3  4 5 6 7  8 9 10 11  12 13 14 15" {
			t.Errorf("unexpected string form %q", s)
		}
		got, err := ParseMatrix4(s)
		if err != nil {
			t.Fatalf("ParseMatrix4 failed: %v", err)
		}
		if got != m {
			t.Errorf("round trip changed value")
		}
	})

	t.Run("CommaSeparators", func(t *testing.T) {
		got, err := ParseVector2("1.5, 2.5")
		if err != nil {
			t.Fatalf("ParseVector2 failed: %v", err)
		}
		if got != (Vector2{1.5, 2.5}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("WrongFieldCount", func(t *testing.T) {
		if _, err := ParseVector3("1 2"); !errors.Is(err, ErrValueDomain) {
			t.Errorf("expected ErrValueDomain, got %v", err)
		}
	})

	t.Run("BadFloat", func(t *testing.T) {
		if _, err := ParseVector2("1 x"); !errors.Is(err, ErrValueDomain) {
			t.Errorf("expected ErrValueDomain, got %v", err)
		}
	})
}

func TestColor(t *testing.T) {
	c := ColorBlue
	if c.String() != "0 0 255 255" {
		t.Errorf("unexpected string %q", c.String())
	}

	got, err := ParseColor(c.String())
	if err != nil {
		t.Fatalf("ParseColor failed: %v", err)
	}
	if got != c {
		t.Errorf("round trip changed value: %v != %v", got, c)
	}

	if _, err := ParseColor("0 0 300 255"); !errors.Is(err, ErrValueDomain) {
		t.Errorf("expected ErrValueDomain for out-of-range component, got %v", err)
	}
}
