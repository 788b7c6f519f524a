package keyvalues2

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

type encoder struct {
	dm      *datamodel.DataModel
	sb      strings.Builder
	refs    map[*datamodel.Element]int
	written map[*datamodel.Element]bool
	writing map[*datamodel.Element]bool
}

func (e *encoder) encode(w io.Writer) error {
	e.refs = make(map[*datamodel.Element]int)
	e.written = make(map[*datamodel.Element]bool)
	e.writing = make(map[*datamodel.Element]bool)

	// Count references so singly-referenced elements inline at their
	// reference site. Materializes every attribute along the way.
	for _, el := range e.dm.AllElements() {
		if el.IsStub() {
			continue
		}
		for _, attr := range el.Attributes() {
			v, err := attr.Get()
			if err != nil {
				return err
			}
			switch t := v.(type) {
			case *datamodel.Element:
				if t != nil && !t.IsStub() {
					e.refs[t]++
				}
			case *datamodel.ElementArray:
				for _, item := range t.Elements() {
					if item != nil && !item.IsStub() {
						e.refs[item]++
					}
				}
			}
		}
	}

	// Root first, then every non-inlined element in registration order.
	if root := e.dm.Root(); root != nil && !root.IsStub() {
		if err := e.element(root, 0); err != nil {
			return err
		}
		e.sb.WriteString("\n")
	}
	for _, el := range e.dm.AllElements() {
		if el.IsStub() || e.written[el] || e.refs[el] == 1 {
			continue
		}
		if err := e.element(el, 0); err != nil {
			return err
		}
		e.sb.WriteString("\n")
	}

	// Singly-referenced elements whose referrer was never written (a
	// reference cycle detached from the root) would otherwise be lost.
	for _, el := range e.dm.AllElements() {
		if el.IsStub() || e.written[el] {
			continue
		}
		if err := e.element(el, 0); err != nil {
			return err
		}
		e.sb.WriteString("\n")
	}

	_, err := io.WriteString(w, e.sb.String())
	return err
}

func (e *encoder) indent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteByte('\t')
	}
}

func (e *encoder) element(el *datamodel.Element, depth int) error {
	e.written[el] = true
	e.writing[el] = true
	defer delete(e.writing, el)

	e.indent(depth)
	e.sb.WriteString(quote(el.ClassName()))
	e.sb.WriteString("\n")
	e.indent(depth)
	e.sb.WriteString("{\n")

	e.indent(depth + 1)
	fmt.Fprintf(&e.sb, "%s %s %s\n", quote("id"), quote("elementid"), quote(el.ID().String()))
	e.indent(depth + 1)
	fmt.Fprintf(&e.sb, "%s %s %s\n", quote("name"), quote("string"), quote(el.Name()))

	for _, attr := range el.Attributes() {
		if err := e.attribute(attr, depth+1); err != nil {
			return err
		}
	}

	e.indent(depth)
	e.sb.WriteString("}\n")
	return nil
}

// inlinable reports whether a referenced element should be written as an
// inline block at this site: referenced exactly once, not yet written, and
// not an ancestor currently being written (cycles fall back to GUID refs).
func (e *encoder) inlinable(el *datamodel.Element) bool {
	return el != nil && !el.IsStub() && e.refs[el] == 1 && !e.written[el] && !e.writing[el]
}

func (e *encoder) attribute(attr *datamodel.Attribute, depth int) error {
	v, err := attr.Get()
	if err != nil {
		return err
	}
	kind := datamodel.KindOf(v)
	if kind == datamodel.KindInvalid {
		return fmt.Errorf("%w: attribute %q holds %T", datamodel.ErrAttributeType, attr.Name(), v)
	}

	switch kind {
	case datamodel.KindElement:
		el, _ := v.(*datamodel.Element)
		if e.inlinable(el) {
			e.indent(depth)
			e.sb.WriteString(quote(attr.Name()))
			e.sb.WriteString(" ")
			return e.inlineElement(el, depth, "")
		}
		e.indent(depth)
		fmt.Fprintf(&e.sb, "%s %s %s\n", quote(attr.Name()), quote("element"), quote(refString(el)))
		return nil

	case datamodel.KindElementArray:
		arr := v.(*datamodel.ElementArray)
		e.indent(depth)
		fmt.Fprintf(&e.sb, "%s %s\n", quote(attr.Name()), quote("element_array"))
		e.indent(depth)
		e.sb.WriteString("[\n")
		items := arr.Elements()
		for i, item := range items {
			sep := ","
			if i == len(items)-1 {
				sep = ""
			}
			if e.inlinable(item) {
				e.indent(depth + 1)
				if err := e.inlineElement(item, depth+1, sep); err != nil {
					return err
				}
			} else {
				e.indent(depth + 1)
				fmt.Fprintf(&e.sb, "%s %s%s\n", quote("element"), quote(refString(item)), sep)
			}
		}
		e.indent(depth)
		e.sb.WriteString("]\n")
		return nil
	}

	if kind.IsArray() {
		entries, err := scalarArrayStrings(kind, v)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", attr.Name(), err)
		}
		e.indent(depth)
		fmt.Fprintf(&e.sb, "%s %s\n", quote(attr.Name()), quote(kind.String()))
		e.indent(depth)
		e.sb.WriteString("[\n")
		for i, s := range entries {
			e.indent(depth + 1)
			e.sb.WriteString(quote(s))
			if i < len(entries)-1 {
				e.sb.WriteString(",")
			}
			e.sb.WriteString("\n")
		}
		e.indent(depth)
		e.sb.WriteString("]\n")
		return nil
	}

	s, err := scalarString(kind, v)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", attr.Name(), err)
	}
	e.indent(depth)
	fmt.Fprintf(&e.sb, "%s %s %s\n", quote(attr.Name()), quote(kind.String()), quote(s))
	return nil
}

// inlineElement writes an element block whose opening class name continues
// the current line; suffix follows the closing brace (a comma for array
// entries).
func (e *encoder) inlineElement(el *datamodel.Element, depth int, suffix string) error {
	e.written[el] = true
	e.writing[el] = true
	defer delete(e.writing, el)

	e.sb.WriteString(quote(el.ClassName()))
	e.sb.WriteString("\n")
	e.indent(depth)
	e.sb.WriteString("{\n")
	e.indent(depth + 1)
	fmt.Fprintf(&e.sb, "%s %s %s\n", quote("id"), quote("elementid"), quote(el.ID().String()))
	e.indent(depth + 1)
	fmt.Fprintf(&e.sb, "%s %s %s\n", quote("name"), quote("string"), quote(el.Name()))
	for _, attr := range el.Attributes() {
		if err := e.attribute(attr, depth+1); err != nil {
			return err
		}
	}
	e.indent(depth)
	e.sb.WriteString("}" + suffix + "\n")
	return nil
}

func refString(el *datamodel.Element) string {
	if el == nil {
		return ""
	}
	return el.ID().String()
}

func quote(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"")
	return "\"" + r.Replace(s) + "\""
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func formatTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 4, 64)
}

func scalarString(kind datamodel.Kind, v any) (string, error) {
	switch kind {
	case datamodel.KindInt:
		return strconv.FormatInt(int64(v.(int32)), 10), nil
	case datamodel.KindFloat:
		return formatFloat(v.(float32)), nil
	case datamodel.KindBool:
		if v.(bool) {
			return "1", nil
		}
		return "0", nil
	case datamodel.KindString:
		return v.(string), nil
	case datamodel.KindBinary:
		return hex.EncodeToString(v.([]byte)), nil
	case datamodel.KindTime:
		return formatTime(v.(time.Duration)), nil
	case datamodel.KindColor:
		return v.(vector.Color).String(), nil
	case datamodel.KindVector2:
		return v.(vector.Vector2).String(), nil
	case datamodel.KindVector3:
		return v.(vector.Vector3).String(), nil
	case datamodel.KindVector4:
		return v.(vector.Vector4).String(), nil
	case datamodel.KindAngle:
		return v.(vector.Angle).String(), nil
	case datamodel.KindQuaternion:
		return v.(vector.Quaternion).String(), nil
	case datamodel.KindMatrix4:
		return v.(vector.Matrix4).String(), nil
	}
	return "", fmt.Errorf("%w: kind %s is not a scalar", datamodel.ErrAttributeType, kind)
}

func scalarArrayStrings(kind datamodel.Kind, v any) ([]string, error) {
	base := kind.Base()
	switch t := v.(type) {
	case []int32:
		return mapStrings(t, base)
	case []float32:
		return mapStrings(t, base)
	case []bool:
		return mapStrings(t, base)
	case []string:
		return mapStrings(t, base)
	case [][]byte:
		return mapStrings(t, base)
	case []time.Duration:
		return mapStrings(t, base)
	case []vector.Color:
		return mapStrings(t, base)
	case []vector.Vector2:
		return mapStrings(t, base)
	case []vector.Vector3:
		return mapStrings(t, base)
	case []vector.Vector4:
		return mapStrings(t, base)
	case []vector.Angle:
		return mapStrings(t, base)
	case []vector.Quaternion:
		return mapStrings(t, base)
	case []vector.Matrix4:
		return mapStrings(t, base)
	}
	return nil, fmt.Errorf("%w: %T is not an array value", datamodel.ErrAttributeType, v)
}

func mapStrings[T any](items []T, base datamodel.Kind) ([]string, error) {
	out := make([]string, len(items))
	for i, item := range items {
		s, err := scalarString(base, item)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
