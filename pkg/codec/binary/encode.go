package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

type encoder struct {
	version int
	buf     bytes.Buffer

	table []string
	index map[string]int
}

// attrRecord is a materialized attribute ready to write.
type attrRecord struct {
	name  string
	kind  datamodel.Kind
	value any
}

// elemRecord pairs an element with its materialized attributes.
type elemRecord struct {
	element *datamodel.Element
	attrs   []attrRecord
}

func (e *encoder) encode(dm *datamodel.DataModel) ([]byte, error) {
	e.index = make(map[string]int)

	// Pass 1: materialize every attribute, validate against the attribute
	// version, and build the string table. Stubs get no element record;
	// references to them serialize as GUIDs.
	var records []elemRecord
	elemIndex := make(map[*datamodel.Element]int)
	for _, el := range dm.AllElements() {
		if el.IsStub() {
			continue
		}
		elemIndex[el] = len(records)
		rec := elemRecord{element: el}

		e.intern(el.ClassName())
		if namesInTable(e.version) {
			e.intern(el.Name())
		}

		for _, attr := range el.Attributes() {
			v, err := attr.Get()
			if err != nil {
				return nil, err
			}
			kind := datamodel.KindOf(v)
			if kind == datamodel.KindInvalid {
				return nil, fmt.Errorf("%w: attribute %q holds %T", datamodel.ErrAttributeType, attr.Name(), v)
			}
			if kind.Base() == datamodel.KindTime && attrVersion(e.version) < 2 {
				return nil, fmt.Errorf("%w: attribute %q: time values require binary version 5",
					datamodel.ErrAttributeType, attr.Name())
			}
			e.intern(attr.Name())
			if kind == datamodel.KindString && namesInTable(e.version) {
				e.intern(v.(string))
			}
			rec.attrs = append(rec.attrs, attrRecord{name: attr.Name(), kind: kind, value: v})
		}
		records = append(records, rec)
	}

	// Serialize the root first so decoders can pick element 0 as the
	// entry point.
	if root := dm.Root(); root != nil {
		if idx, ok := elemIndex[root]; ok && idx != 0 {
			records[0], records[idx] = records[idx], records[0]
			elemIndex[records[0].element] = 0
			elemIndex[records[idx].element] = idx
		}
	}

	e.writeStringTable()

	e.i32(int32(len(records)))
	for _, rec := range records {
		e.stringIndex(rec.element.ClassName())
		if namesInTable(e.version) {
			e.stringIndex(rec.element.Name())
		} else {
			e.cstring(rec.element.Name())
		}
		id := rec.element.ID()
		e.buf.Write(id[:])
	}

	for _, rec := range records {
		e.i32(int32(len(rec.attrs)))
		for _, a := range rec.attrs {
			e.stringIndex(a.name)
			e.u8(byte(a.kind))
			if err := e.value(a.kind, a.value, elemIndex); err != nil {
				return nil, err
			}
		}
	}

	return e.buf.Bytes(), nil
}

func (e *encoder) intern(s string) {
	if _, ok := e.index[s]; ok {
		return
	}
	e.index[s] = len(e.table)
	e.table = append(e.table, s)
}

func (e *encoder) writeStringTable() {
	if wideStrings(e.version) {
		e.i32(int32(len(e.table)))
	} else {
		e.u16(uint16(len(e.table)))
	}
	for _, s := range e.table {
		e.cstring(s)
	}
}

func (e *encoder) u8(b byte) { e.buf.WriteByte(b) }

func (e *encoder) u16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.buf.Write(tmp[:])
}

func (e *encoder) i32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	e.buf.Write(tmp[:])
}

func (e *encoder) f32(v float32) { e.i32(int32(math.Float32bits(v))) }

func (e *encoder) cstring(s string) {
	e.buf.WriteString(s)
	e.buf.WriteByte(0)
}

func (e *encoder) stringIndex(s string) {
	idx := e.index[s]
	if wideStrings(e.version) {
		e.i32(int32(idx))
	} else {
		e.u16(uint16(idx))
	}
}

func (e *encoder) scalarString(s string) {
	if namesInTable(e.version) {
		e.stringIndex(s)
	} else {
		e.cstring(s)
	}
}

func (e *encoder) elementRef(el *datamodel.Element, elemIndex map[*datamodel.Element]int) {
	if el == nil {
		e.i32(-1)
		return
	}
	if idx, ok := elemIndex[el]; ok {
		e.i32(int32(idx))
		return
	}
	// Stubs and dangling references serialize by GUID.
	e.i32(-2)
	id := el.ID()
	e.buf.Write(id[:])
}

func (e *encoder) value(kind datamodel.Kind, v any, elemIndex map[*datamodel.Element]int) error {
	switch kind {
	case datamodel.KindElement:
		el, _ := v.(*datamodel.Element)
		e.elementRef(el, elemIndex)
	case datamodel.KindInt:
		e.i32(v.(int32))
	case datamodel.KindFloat:
		e.f32(v.(float32))
	case datamodel.KindBool:
		if v.(bool) {
			e.u8(1)
		} else {
			e.u8(0)
		}
	case datamodel.KindString:
		e.scalarString(v.(string))
	case datamodel.KindBinary:
		b := v.([]byte)
		e.i32(int32(len(b)))
		e.buf.Write(b)
	case datamodel.KindTime:
		e.i32(int32(v.(time.Duration) / timeTick))
	case datamodel.KindColor:
		c := v.(vector.Color)
		e.buf.Write([]byte{c.R, c.G, c.B, c.A})
	case datamodel.KindVector2:
		x := v.(vector.Vector2)
		e.floats(x[:])
	case datamodel.KindVector3:
		x := v.(vector.Vector3)
		e.floats(x[:])
	case datamodel.KindVector4:
		x := v.(vector.Vector4)
		e.floats(x[:])
	case datamodel.KindAngle:
		a := v.(vector.Angle)
		e.floats(a[:])
	case datamodel.KindQuaternion:
		q := v.(vector.Quaternion)
		e.floats(q[:])
	case datamodel.KindMatrix4:
		m := v.(vector.Matrix4)
		e.floats(m[:])
	case datamodel.KindElementArray:
		arr := v.(*datamodel.ElementArray)
		e.i32(int32(arr.Len()))
		for _, el := range arr.Elements() {
			e.elementRef(el, elemIndex)
		}
	case datamodel.KindIntArray:
		s := v.([]int32)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.i32(x)
		}
	case datamodel.KindFloatArray:
		s := v.([]float32)
		e.i32(int32(len(s)))
		e.floats(s)
	case datamodel.KindBoolArray:
		s := v.([]bool)
		e.i32(int32(len(s)))
		for _, x := range s {
			if x {
				e.u8(1)
			} else {
				e.u8(0)
			}
		}
	case datamodel.KindStringArray:
		s := v.([]string)
		e.i32(int32(len(s)))
		for _, x := range s {
			// Array strings are inline in every version.
			e.cstring(x)
		}
	case datamodel.KindBinaryArray:
		s := v.([][]byte)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.i32(int32(len(x)))
			e.buf.Write(x)
		}
	case datamodel.KindTimeArray:
		s := v.([]time.Duration)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.i32(int32(x / timeTick))
		}
	case datamodel.KindColorArray:
		s := v.([]vector.Color)
		e.i32(int32(len(s)))
		for _, c := range s {
			e.buf.Write([]byte{c.R, c.G, c.B, c.A})
		}
	case datamodel.KindVector2Array:
		s := v.([]vector.Vector2)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	case datamodel.KindVector3Array:
		s := v.([]vector.Vector3)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	case datamodel.KindVector4Array:
		s := v.([]vector.Vector4)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	case datamodel.KindAngleArray:
		s := v.([]vector.Angle)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	case datamodel.KindQuaternionArray:
		s := v.([]vector.Quaternion)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	case datamodel.KindMatrix4Array:
		s := v.([]vector.Matrix4)
		e.i32(int32(len(s)))
		for _, x := range s {
			e.floats(x[:])
		}
	default:
		return fmt.Errorf("%w: kind %d", datamodel.ErrAttributeType, kind)
	}
	return nil
}

func (e *encoder) floats(s []float32) {
	for _, v := range s {
		e.f32(v)
	}
}
