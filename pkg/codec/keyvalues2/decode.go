package keyvalues2

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

// Token kinds.
type tokKind int

const (
	tokEOF tokKind = iota
	tokString
	tokOpenBrace
	tokCloseBrace
	tokOpenBracket
	tokCloseBracket
	tokComma
)

type token struct {
	kind tokKind
	text string
	line int
}

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokString:
		return "string"
	case tokOpenBrace:
		return "'{'"
	case tokCloseBrace:
		return "'}'"
	case tokOpenBracket:
		return "'['"
	case tokCloseBracket:
		return "']'"
	case tokComma:
		return "','"
	default:
		return "unknown"
	}
}

// lexer scans the text body into tokens, tracking line numbers for errors.
type lexer struct {
	src  []byte
	pos  int
	line int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '{':
			l.pos++
			return token{kind: tokOpenBrace, line: l.line}, nil
		case c == '}':
			l.pos++
			return token{kind: tokCloseBrace, line: l.line}, nil
		case c == '[':
			l.pos++
			return token{kind: tokOpenBracket, line: l.line}, nil
		case c == ']':
			l.pos++
			return token{kind: tokCloseBracket, line: l.line}, nil
		case c == ',':
			l.pos++
			return token{kind: tokComma, line: l.line}, nil
		case c == '"':
			return l.quoted()
		default:
			return token{}, fmt.Errorf("%w: line %d: unexpected character %q", datamodel.ErrUnsupportedFormat, l.line, c)
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

func (l *lexer) quoted() (token, error) {
	start := l.line
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: sb.String(), line: start}, nil
		case '\\':
			if l.pos+1 < len(l.src) {
				l.pos++
				sb.WriteByte(l.src[l.pos])
				l.pos++
				continue
			}
			l.pos++
		case '\n':
			l.line++
			sb.WriteByte(c)
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("%w: line %d: unterminated string", datamodel.ErrUnsupportedFormat, start)
}

// Raw parse tree. Elements are materialized only after the whole document
// is parsed, so forward references resolve without provisional stubs.

type rawElement struct {
	className string
	name      string
	id        uuid.UUID
	hasID     bool
	attrs     []rawAttr
	line      int
}

type rawAttr struct {
	name    string
	typ     string
	isArray bool
	value   rawValue
	array   []rawValue
	line    int
}

type rawValue struct {
	scalar string
	child  *rawElement
	ref    uuid.UUID
	isRef  bool
	isNull bool
}

type parser struct {
	lex    *lexer
	peeked *token
}

func (p *parser) next() (token, error) {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) peek() (token, error) {
	if p.peeked == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

func (p *parser) expect(kind tokKind) (token, error) {
	t, err := p.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, fmt.Errorf("%w: line %d: expected %s, got %s", datamodel.ErrUnsupportedFormat, t.line, kind, t.kind)
	}
	return t, nil
}

// document parses the sequence of top-level element blocks. The first
// block is the root.
func (p *parser) document() ([]*rawElement, error) {
	var out []*rawElement
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			break
		}
		if t.kind != tokString {
			return nil, fmt.Errorf("%w: line %d: expected class name, got %s", datamodel.ErrUnsupportedFormat, t.line, t.kind)
		}
		el, err := p.element(t)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: document has no elements", datamodel.ErrUnsupportedFormat)
	}
	return out, nil
}

// element parses a "{...}" block; className is the already-consumed class
// name token.
func (p *parser) element(className token) (*rawElement, error) {
	if _, err := p.expect(tokOpenBrace); err != nil {
		return nil, err
	}
	el := &rawElement{className: className.text, line: className.line}
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokCloseBrace {
			return el, nil
		}
		if t.kind != tokString {
			return nil, fmt.Errorf("%w: line %d: expected attribute name, got %s", datamodel.ErrUnsupportedFormat, t.line, t.kind)
		}
		if err := p.attribute(el, t); err != nil {
			return nil, err
		}
	}
}

func (p *parser) attribute(el *rawElement, name token) error {
	typ, err := p.expect(tokString)
	if err != nil {
		return err
	}

	// The id and name lines are element identity, not attributes.
	if name.text == "id" && typ.text == "elementid" {
		guid, err := p.expect(tokString)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(guid.text)
		if err != nil {
			return fmt.Errorf("%w: line %d: bad element id %q", datamodel.ErrUnsupportedFormat, guid.line, guid.text)
		}
		el.id, el.hasID = id, true
		return nil
	}
	if name.text == "name" && typ.text == "string" {
		v, err := p.expect(tokString)
		if err != nil {
			return err
		}
		el.name = v.text
		return nil
	}

	// Inline child element: the "type" token is actually a class name
	// followed by a block.
	if t, err := p.peek(); err == nil && t.kind == tokOpenBrace {
		child, err := p.element(typ)
		if err != nil {
			return err
		}
		el.attrs = append(el.attrs, rawAttr{
			name:  name.text,
			typ:   "element",
			value: rawValue{child: child},
			line:  name.line,
		})
		return nil
	} else if err != nil {
		return err
	}

	if strings.HasSuffix(typ.text, "_array") {
		entries, err := p.array(strings.TrimSuffix(typ.text, "_array"))
		if err != nil {
			return err
		}
		el.attrs = append(el.attrs, rawAttr{
			name:    name.text,
			typ:     typ.text,
			isArray: true,
			array:   entries,
			line:    name.line,
		})
		return nil
	}

	v, err := p.expect(tokString)
	if err != nil {
		return err
	}
	attr := rawAttr{name: name.text, typ: typ.text, line: name.line}
	if typ.text == "element" {
		attr.value, err = refValue(v)
		if err != nil {
			return err
		}
	} else {
		attr.value = rawValue{scalar: v.text}
	}
	el.attrs = append(el.attrs, attr)
	return nil
}

// array parses a "[...]" entry list. For element arrays each entry is
// either an inline block or an "element" "guid" pair; for scalar arrays
// each entry is a quoted value.
func (p *parser) array(baseType string) ([]rawValue, error) {
	if _, err := p.expect(tokOpenBracket); err != nil {
		return nil, err
	}
	var out []rawValue
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokCloseBracket:
			return out, nil
		case tokComma:
			continue
		case tokString:
			if baseType == "element" {
				if t.text == "element" {
					guid, err := p.expect(tokString)
					if err != nil {
						return nil, err
					}
					v, err := refValue(guid)
					if err != nil {
						return nil, err
					}
					out = append(out, v)
					continue
				}
				// Inline child block.
				child, err := p.element(t)
				if err != nil {
					return nil, err
				}
				out = append(out, rawValue{child: child})
				continue
			}
			out = append(out, rawValue{scalar: t.text})
		default:
			return nil, fmt.Errorf("%w: line %d: unexpected %s in array", datamodel.ErrUnsupportedFormat, t.line, t.kind)
		}
	}
}

func refValue(guid token) (rawValue, error) {
	if guid.text == "" {
		return rawValue{isNull: true}, nil
	}
	id, err := uuid.Parse(guid.text)
	if err != nil {
		return rawValue{}, fmt.Errorf("%w: line %d: bad element reference %q", datamodel.ErrUnsupportedFormat, guid.line, guid.text)
	}
	return rawValue{ref: id, isRef: true}, nil
}

// materialize turns the parse tree into a datamodel: first a create pass
// over every element in document order, then a fill pass so references to
// later elements resolve. GUID references absent from the document become
// stubs.
func materialize(doc []*rawElement, header datamodel.Header) (*datamodel.DataModel, error) {
	dm := datamodel.New(header.Format, header.FormatVersion)

	var all []*rawElement
	var collect func(el *rawElement)
	collect = func(el *rawElement) {
		all = append(all, el)
		for _, a := range el.attrs {
			if a.value.child != nil {
				collect(a.value.child)
			}
			for _, v := range a.array {
				if v.child != nil {
					collect(v.child)
				}
			}
		}
	}
	for _, el := range doc {
		collect(el)
	}

	created := make(map[*rawElement]*datamodel.Element, len(all))
	for _, raw := range all {
		id := raw.id
		if !raw.hasID {
			id = uuid.New()
		}
		el, err := dm.CreateElementWithID(raw.className, raw.name, id)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", raw.line, err)
		}
		created[raw] = el
	}

	for _, raw := range all {
		el := created[raw]
		for _, a := range raw.attrs {
			v, err := attrValue(dm, created, a)
			if err != nil {
				return nil, err
			}
			if err := el.Set(a.name, v); err != nil {
				return nil, fmt.Errorf("line %d: %w", a.line, err)
			}
		}
	}

	if err := dm.SetRoot(created[doc[0]]); err != nil {
		return nil, err
	}
	return dm, nil
}

func resolveRef(dm *datamodel.DataModel, created map[*rawElement]*datamodel.Element, v rawValue) *datamodel.Element {
	switch {
	case v.isNull:
		return nil
	case v.child != nil:
		return created[v.child]
	case v.isRef:
		if el, ok := dm.Element(v.ref); ok {
			return el
		}
		return dm.CreateStub(v.ref)
	default:
		return nil
	}
}

func attrValue(dm *datamodel.DataModel, created map[*rawElement]*datamodel.Element, a rawAttr) (any, error) {
	kind, err := kindFromToken(a.typ)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: unknown attribute type %q", datamodel.ErrUnsupportedFormat, a.line, a.typ)
	}

	if !a.isArray {
		if kind == datamodel.KindElement {
			return resolveRef(dm, created, a.value), nil
		}
		return scalarValue(kind, a.value.scalar, a.line)
	}

	if kind == datamodel.KindElementArray {
		items := make([]*datamodel.Element, len(a.array))
		for i, v := range a.array {
			items[i] = resolveRef(dm, created, v)
		}
		return datamodel.NewElementArray(items...), nil
	}
	return arrayValue(kind, a.array, a.line)
}

// kindTokens maps keyvalues2 type tokens to kinds. The tokens are the Kind
// names, so the table is built from them.
var kindTokens = func() map[string]datamodel.Kind {
	m := make(map[string]datamodel.Kind)
	for k := datamodel.KindElement; k <= datamodel.KindMatrix4Array; k++ {
		m[k.String()] = k
	}
	return m
}()

func kindFromToken(s string) (datamodel.Kind, error) {
	if k, ok := kindTokens[s]; ok {
		return k, nil
	}
	return datamodel.KindInvalid, fmt.Errorf("unknown type token %q", s)
}

func scalarValue(kind datamodel.Kind, s string, line int) (any, error) {
	fail := func(err error) (any, error) {
		return nil, fmt.Errorf("%w: line %d: bad %s value %q: %v", datamodel.ErrUnsupportedFormat, line, kind, s, err)
	}
	switch kind {
	case datamodel.KindInt:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fail(err)
		}
		return int32(n), nil
	case datamodel.KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fail(err)
		}
		return float32(f), nil
	case datamodel.KindBool:
		switch s {
		case "0", "false":
			return false, nil
		case "1", "true":
			return true, nil
		}
		return fail(fmt.Errorf("not a boolean"))
	case datamodel.KindString:
		return s, nil
	case datamodel.KindBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return fail(err)
		}
		return b, nil
	case datamodel.KindTime:
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail(err)
		}
		return time.Duration(math.Round(sec*1e4)) * timeTick, nil
	case datamodel.KindColor:
		c, err := vector.ParseColor(s)
		if err != nil {
			return fail(err)
		}
		return c, nil
	case datamodel.KindVector2:
		v, err := vector.ParseVector2(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	case datamodel.KindVector3:
		v, err := vector.ParseVector3(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	case datamodel.KindVector4:
		v, err := vector.ParseVector4(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	case datamodel.KindAngle:
		v, err := vector.ParseAngle(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	case datamodel.KindQuaternion:
		v, err := vector.ParseQuaternion(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	case datamodel.KindMatrix4:
		v, err := vector.ParseMatrix4(s)
		if err != nil {
			return fail(err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: line %d: type %s is not a scalar", datamodel.ErrUnsupportedFormat, line, kind)
}

func arrayValue(kind datamodel.Kind, entries []rawValue, line int) (any, error) {
	base := kind.Base()
	switch kind {
	case datamodel.KindIntArray:
		out := make([]int32, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(int32)
		}
		return out, nil
	case datamodel.KindFloatArray:
		out := make([]float32, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(float32)
		}
		return out, nil
	case datamodel.KindBoolArray:
		out := make([]bool, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(bool)
		}
		return out, nil
	case datamodel.KindStringArray:
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.scalar
		}
		return out, nil
	case datamodel.KindBinaryArray:
		out := make([][]byte, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.([]byte)
		}
		return out, nil
	case datamodel.KindTimeArray:
		out := make([]time.Duration, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(time.Duration)
		}
		return out, nil
	case datamodel.KindColorArray:
		out := make([]vector.Color, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Color)
		}
		return out, nil
	case datamodel.KindVector2Array:
		out := make([]vector.Vector2, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Vector2)
		}
		return out, nil
	case datamodel.KindVector3Array:
		out := make([]vector.Vector3, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Vector3)
		}
		return out, nil
	case datamodel.KindVector4Array:
		out := make([]vector.Vector4, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Vector4)
		}
		return out, nil
	case datamodel.KindAngleArray:
		out := make([]vector.Angle, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Angle)
		}
		return out, nil
	case datamodel.KindQuaternionArray:
		out := make([]vector.Quaternion, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Quaternion)
		}
		return out, nil
	case datamodel.KindMatrix4Array:
		out := make([]vector.Matrix4, len(entries))
		for i, e := range entries {
			v, err := scalarValue(base, e.scalar, line)
			if err != nil {
				return nil, err
			}
			out[i] = v.(vector.Matrix4)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: line %d: type %s is not an array", datamodel.ErrUnsupportedFormat, line, kind)
}
