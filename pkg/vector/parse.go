package vector

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// splitFields splits s on runs of whitespace and commas. Parsing is locale
// independent: a comma is always a separator, never a decimal mark.
func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// parseFloats parses exactly n float components from s.
func parseFloats(s string, n int) ([]float32, error) {
	fields := splitFields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%w: expected %d components, got %d", ErrValueDomain, n, len(fields))
	}
	out := make([]float32, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %q", ErrValueDomain, i, f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// ParseVector2 parses a Vector2 from its string form.
func ParseVector2(s string) (Vector2, error) {
	c, err := parseFloats(s, 2)
	if err != nil {
		return Vector2{}, err
	}
	return Vector2{c[0], c[1]}, nil
}

// ParseVector3 parses a Vector3 from its string form.
func ParseVector3(s string) (Vector3, error) {
	c, err := parseFloats(s, 3)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3{c[0], c[1], c[2]}, nil
}

// ParseVector4 parses a Vector4 from its string form.
func ParseVector4(s string) (Vector4, error) {
	c, err := parseFloats(s, 4)
	if err != nil {
		return Vector4{}, err
	}
	return Vector4{c[0], c[1], c[2], c[3]}, nil
}

// ParseAngle parses an Angle from its string form.
func ParseAngle(s string) (Angle, error) {
	c, err := parseFloats(s, 3)
	if err != nil {
		return Angle{}, err
	}
	return Angle{c[0], c[1], c[2]}, nil
}

// ParseQuaternion parses a Quaternion from its string form.
func ParseQuaternion(s string) (Quaternion, error) {
	c, err := parseFloats(s, 4)
	if err != nil {
		return Quaternion{}, err
	}
	return Quaternion{c[0], c[1], c[2], c[3]}, nil
}

// ParseMatrix4 parses a Matrix4 from its string form. The two-space row
// separator of String is not significant here; any sixteen separated floats
// are accepted.
func ParseMatrix4(s string) (Matrix4, error) {
	c, err := parseFloats(s, 16)
	if err != nil {
		return Matrix4{}, err
	}
	var m Matrix4
	copy(m[:], c)
	return m, nil
}
