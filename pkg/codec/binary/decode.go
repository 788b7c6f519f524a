package binary

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

// timeTick is the wire resolution of time values: 1/10000 second.
const timeTick = 100 * time.Microsecond

type decoder struct {
	codec *Codec
	r     *reader
	mode  datamodel.DeferredMode
	dm    *datamodel.DataModel
	els   []*datamodel.Element
}

func (d *decoder) decode(header datamodel.Header) (*datamodel.DataModel, error) {
	if err := d.readStringTable(); err != nil {
		return nil, err
	}

	d.dm = datamodel.New(header.Format, header.FormatVersion)

	nElem, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	if nElem < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", datamodel.ErrUnsupportedFormat, nElem)
	}

	d.els = make([]*datamodel.Element, nElem)
	for i := range d.els {
		if d.els[i], err = d.elementHeader(); err != nil {
			return nil, err
		}
	}
	for _, e := range d.els {
		if err := d.elementBody(e); err != nil {
			return nil, err
		}
	}

	if len(d.els) > 0 {
		if err := d.dm.SetRoot(d.els[0]); err != nil {
			return nil, err
		}
	}
	return d.dm, nil
}

func (d *decoder) readStringTable() error {
	var count int
	if wideStrings(d.codec.version) {
		n, err := d.r.i32()
		if err != nil {
			return err
		}
		count = int(n)
	} else {
		n, err := d.r.u16()
		if err != nil {
			return err
		}
		count = int(n)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative string count %d", datamodel.ErrUnsupportedFormat, count)
	}
	strs := make([]string, count)
	for i := range strs {
		s, err := d.r.cstring()
		if err != nil {
			return err
		}
		strs[i] = s
	}
	d.codec.strings = strs
	return nil
}

// tableString reads a string table index at the version's width.
func (d *decoder) tableString() (string, error) {
	var idx int
	if wideStrings(d.codec.version) {
		n, err := d.r.i32()
		if err != nil {
			return "", err
		}
		idx = int(n)
	} else {
		n, err := d.r.u16()
		if err != nil {
			return "", err
		}
		idx = int(n)
	}
	if idx < 0 || idx >= len(d.codec.strings) {
		return "", fmt.Errorf("%w: string index %d outside table of %d", datamodel.ErrUnsupportedFormat, idx, len(d.codec.strings))
	}
	return d.codec.strings[idx], nil
}

// scalarString reads a string attribute value: inline in v2-v3, by table
// index from v4.
func (d *decoder) scalarString() (string, error) {
	if namesInTable(d.codec.version) {
		return d.tableString()
	}
	return d.r.cstring()
}

func (d *decoder) elementHeader() (*datamodel.Element, error) {
	className, err := d.tableString()
	if err != nil {
		return nil, err
	}
	var name string
	if namesInTable(d.codec.version) {
		name, err = d.tableString()
	} else {
		name, err = d.r.cstring()
	}
	if err != nil {
		return nil, err
	}
	raw, err := d.r.bytes(16)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datamodel.ErrUnsupportedFormat, err)
	}
	return d.dm.CreateElementWithID(className, name, id)
}

func (d *decoder) elementBody(e *datamodel.Element) error {
	nAttr, err := d.r.i32()
	if err != nil {
		return err
	}
	for i := int32(0); i < nAttr; i++ {
		if err := d.attribute(e); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) attribute(e *datamodel.Element) error {
	name, err := d.tableString()
	if err != nil {
		return err
	}
	typePos := d.r.pos
	kindByte, err := d.r.u8()
	if err != nil {
		return err
	}
	kind := datamodel.Kind(kindByte)
	if kind < datamodel.KindElement || kind > datamodel.KindMatrix4Array {
		return fmt.Errorf("%w: attribute %q has unknown type %d", datamodel.ErrUnsupportedFormat, name, kindByte)
	}
	if kind.Base() == datamodel.KindTime && attrVersion(d.codec.version) < 2 {
		return fmt.Errorf("%w: attribute %q: time values require attribute-version 2", datamodel.ErrUnsupportedFormat, name)
	}

	if d.deferrable(kind) {
		n, err := d.r.i32()
		if err != nil {
			return err
		}
		if d.shouldDefer(kind, int(n)) {
			e.SetDeferred(name, kind, int64(typePos))
			return d.skipBody(kind, int(n))
		}
		d.r.pos = typePos + 1 // rewind past the peeked length
	}

	v, err := d.value(kind)
	if err != nil {
		return err
	}
	return e.Set(name, v)
}

// deferrable reports whether the kind may be left at a deferred offset:
// arrays and blobs, except element arrays which wire up ownership eagerly.
func (d *decoder) deferrable(kind datamodel.Kind) bool {
	if d.mode == datamodel.DeferredDisabled {
		return false
	}
	if kind == datamodel.KindBinary {
		return true
	}
	return kind.IsArray() && kind != datamodel.KindElementArray
}

func (d *decoder) shouldDefer(kind datamodel.Kind, n int) bool {
	if d.mode == datamodel.DeferredAlways {
		return true
	}
	if kind == datamodel.KindBinary {
		return n > autoDeferBlobLen
	}
	return n > autoDeferArrayLen
}

// skipBody advances past an undetermined value whose leading count n was
// already consumed.
func (d *decoder) skipBody(kind datamodel.Kind, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", datamodel.ErrUnsupportedFormat, n)
	}
	if kind == datamodel.KindBinary {
		return d.r.skip(n)
	}
	switch kind.Base() {
	case datamodel.KindBool:
		return d.r.skip(n)
	case datamodel.KindInt, datamodel.KindFloat, datamodel.KindTime, datamodel.KindColor:
		return d.r.skip(4 * n)
	case datamodel.KindVector2:
		return d.r.skip(8 * n)
	case datamodel.KindVector3, datamodel.KindAngle:
		return d.r.skip(12 * n)
	case datamodel.KindVector4, datamodel.KindQuaternion:
		return d.r.skip(16 * n)
	case datamodel.KindMatrix4:
		return d.r.skip(64 * n)
	case datamodel.KindString:
		for i := 0; i < n; i++ {
			if _, err := d.r.cstring(); err != nil {
				return err
			}
		}
		return nil
	case datamodel.KindBinary:
		for i := 0; i < n; i++ {
			ln, err := d.r.i32()
			if err != nil {
				return err
			}
			if err := d.r.skip(int(ln)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot skip kind %s", datamodel.ErrUnsupportedFormat, kind)
	}
}

func (d *decoder) elementRef() (*datamodel.Element, error) {
	idx, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	switch {
	case idx == -1:
		return nil, nil
	case idx == -2:
		raw, err := d.r.bytes(16)
		if err != nil {
			return nil, err
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", datamodel.ErrUnsupportedFormat, err)
		}
		return d.dm.CreateStub(id), nil
	case idx >= 0 && int(idx) < len(d.els):
		return d.els[idx], nil
	default:
		return nil, fmt.Errorf("%w: element index %d outside document of %d", datamodel.ErrUnsupportedFormat, idx, len(d.els))
	}
}

func (d *decoder) value(kind datamodel.Kind) (any, error) {
	switch kind {
	case datamodel.KindElement:
		e, err := d.elementRef()
		if err != nil {
			return nil, err
		}
		return e, nil
	case datamodel.KindInt:
		return d.r.i32()
	case datamodel.KindFloat:
		return d.r.f32()
	case datamodel.KindBool:
		b, err := d.r.u8()
		return b != 0, err
	case datamodel.KindString:
		return d.scalarString()
	case datamodel.KindBinary:
		n, err := d.r.i32()
		if err != nil {
			return nil, err
		}
		return d.r.bytes(int(n))
	case datamodel.KindTime:
		ticks, err := d.r.i32()
		return time.Duration(ticks) * timeTick, err
	case datamodel.KindColor:
		raw, err := d.r.bytes(4)
		if err != nil {
			return nil, err
		}
		return vector.Color{R: raw[0], G: raw[1], B: raw[2], A: raw[3]}, nil
	case datamodel.KindVector2:
		c, err := d.r.floats(2)
		if err != nil {
			return nil, err
		}
		return vector.Vector2{c[0], c[1]}, nil
	case datamodel.KindVector3:
		c, err := d.r.floats(3)
		if err != nil {
			return nil, err
		}
		return vector.Vector3{c[0], c[1], c[2]}, nil
	case datamodel.KindVector4:
		c, err := d.r.floats(4)
		if err != nil {
			return nil, err
		}
		return vector.Vector4{c[0], c[1], c[2], c[3]}, nil
	case datamodel.KindAngle:
		c, err := d.r.floats(3)
		if err != nil {
			return nil, err
		}
		return vector.Angle{c[0], c[1], c[2]}, nil
	case datamodel.KindQuaternion:
		c, err := d.r.floats(4)
		if err != nil {
			return nil, err
		}
		return vector.Quaternion{c[0], c[1], c[2], c[3]}, nil
	case datamodel.KindMatrix4:
		c, err := d.r.floats(16)
		if err != nil {
			return nil, err
		}
		return vector.Matrix4FromSlice(c)
	}

	// Array kinds.
	n, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative array length %d", datamodel.ErrUnsupportedFormat, n)
	}
	count := int(n)

	switch kind {
	case datamodel.KindElementArray:
		items := make([]*datamodel.Element, count)
		for i := range items {
			if items[i], err = d.elementRef(); err != nil {
				return nil, err
			}
		}
		return datamodel.NewElementArray(items...), nil
	case datamodel.KindIntArray:
		out := make([]int32, count)
		for i := range out {
			if out[i], err = d.r.i32(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case datamodel.KindFloatArray:
		return d.r.floats(count)
	case datamodel.KindBoolArray:
		out := make([]bool, count)
		for i := range out {
			b, err := d.r.u8()
			if err != nil {
				return nil, err
			}
			out[i] = b != 0
		}
		return out, nil
	case datamodel.KindStringArray:
		out := make([]string, count)
		for i := range out {
			// Array strings are inline in every version.
			if out[i], err = d.r.cstring(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case datamodel.KindBinaryArray:
		out := make([][]byte, count)
		for i := range out {
			ln, err := d.r.i32()
			if err != nil {
				return nil, err
			}
			if out[i], err = d.r.bytes(int(ln)); err != nil {
				return nil, err
			}
		}
		return out, nil
	case datamodel.KindTimeArray:
		out := make([]time.Duration, count)
		for i := range out {
			ticks, err := d.r.i32()
			if err != nil {
				return nil, err
			}
			out[i] = time.Duration(ticks) * timeTick
		}
		return out, nil
	case datamodel.KindColorArray:
		out := make([]vector.Color, count)
		for i := range out {
			raw, err := d.r.bytes(4)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Color{R: raw[0], G: raw[1], B: raw[2], A: raw[3]}
		}
		return out, nil
	case datamodel.KindVector2Array:
		out := make([]vector.Vector2, count)
		for i := range out {
			c, err := d.r.floats(2)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Vector2{c[0], c[1]}
		}
		return out, nil
	case datamodel.KindVector3Array:
		out := make([]vector.Vector3, count)
		for i := range out {
			c, err := d.r.floats(3)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Vector3{c[0], c[1], c[2]}
		}
		return out, nil
	case datamodel.KindVector4Array:
		out := make([]vector.Vector4, count)
		for i := range out {
			c, err := d.r.floats(4)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Vector4{c[0], c[1], c[2], c[3]}
		}
		return out, nil
	case datamodel.KindAngleArray:
		out := make([]vector.Angle, count)
		for i := range out {
			c, err := d.r.floats(3)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Angle{c[0], c[1], c[2]}
		}
		return out, nil
	case datamodel.KindQuaternionArray:
		out := make([]vector.Quaternion, count)
		for i := range out {
			c, err := d.r.floats(4)
			if err != nil {
				return nil, err
			}
			out[i] = vector.Quaternion{c[0], c[1], c[2], c[3]}
		}
		return out, nil
	case datamodel.KindMatrix4Array:
		out := make([]vector.Matrix4, count)
		for i := range out {
			c, err := d.r.floats(16)
			if err != nil {
				return nil, err
			}
			if out[i], err = vector.Matrix4FromSlice(c); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: kind %d", datamodel.ErrUnsupportedFormat, kind)
}
