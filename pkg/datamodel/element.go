package datamodel

import (
	"fmt"

	"github.com/google/uuid"
)

// Element is a node in the datamodel graph: a GUID identity, a class tag,
// and an ordered map of named attributes. Elements are created through a
// DataModel factory or detached via NewElement and adopted on first use.
//
// A stub element carries only its ID; its attributes live in some other
// document and are supplied by the datamodel's stub resolver on demand.
type Element struct {
	id        uuid.UUID
	name      string
	className string
	owner     *DataModel
	stub      bool

	// attrs holds the attributes; order preserves insertion for stable
	// serialization.
	attrs map[string]*Attribute
	order []string
}

// NewElement creates a detached element with a fresh ID. It joins a
// datamodel when first assigned to an attribute of an owned element.
func NewElement(className, name string) *Element {
	return &Element{
		id:        uuid.New(),
		name:      name,
		className: className,
		attrs:     make(map[string]*Attribute),
	}
}

// ID returns the element's GUID. IDs are stable for the element's lifetime.
func (e *Element) ID() uuid.UUID { return e.id }

// Name returns the display name. Names are labels, not identifiers.
func (e *Element) Name() string { return e.name }

// SetName sets the display name.
func (e *Element) SetName(name string) { e.name = name }

// ClassName returns the semantic class tag, e.g. "DmeModel".
func (e *Element) ClassName() string { return e.className }

// Owner returns the datamodel owning this element, or nil when detached.
func (e *Element) Owner() *DataModel { return e.owner }

// IsStub reports whether this element is known only by its ID.
func (e *Element) IsStub() bool { return e.stub }

// Len returns the number of attributes.
func (e *Element) Len() int { return len(e.order) }

// Attribute returns the named attribute record, if present.
func (e *Element) Attribute(name string) (*Attribute, bool) {
	a, ok := e.attrs[name]
	return a, ok
}

// Attributes returns the attribute records in insertion order.
func (e *Element) Attributes() []*Attribute {
	out := make([]*Attribute, len(e.order))
	for i, name := range e.order {
		out[i] = e.attrs[name]
	}
	return out
}

// Names returns the attribute names in insertion order.
func (e *Element) Names() []string {
	return append([]string(nil), e.order...)
}

// Set creates or overwrites the named attribute. Creating appends to the
// insertion order; overwriting keeps the original position.
func (e *Element) Set(name string, value any) error {
	attr, ok := e.attrs[name]
	if !ok {
		attr = &Attribute{name: name, owner: e}
		if err := attr.Set(value); err != nil {
			return err
		}
		e.attrs[name] = attr
		e.order = append(e.order, name)
		return nil
	}
	return attr.Set(value)
}

// Get returns the named attribute's value, loading deferred state and
// resolving stubs as needed.
func (e *Element) Get(name string) (any, error) {
	attr, ok := e.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on element %s", ErrAttributeNotFound, name, e.id)
	}
	return attr.Get()
}

// Remove deletes the named attribute. Removing is a no-op for absent names.
func (e *Element) Remove(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// SetDeferred installs a deferred attribute at the given source offset.
// It is intended for codec implementations during decode; offset must be
// positive and addresses the encoded value in the codec's retained source.
func (e *Element) SetDeferred(name string, kind Kind, offset int64) *Attribute {
	attr, ok := e.attrs[name]
	if !ok {
		attr = &Attribute{name: name, owner: e}
		e.attrs[name] = attr
		e.order = append(e.order, name)
	}
	attr.kind = kind
	attr.value = nil
	attr.offset = offset
	return attr
}

// Get returns the value of the named attribute on e as type T, failing with
// ErrAttributeType when the stored kind does not match.
func Get[T any](e *Element, name string) (T, error) {
	var zero T
	v, err := e.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: attribute %q holds %T, not %T", ErrAttributeType, name, v, zero)
	}
	return t, nil
}

// GetArray returns the value of the named array attribute on e as []T,
// failing with ErrAttributeType when the stored kind does not match.
func GetArray[T any](e *Element, name string) ([]T, error) {
	return Get[[]T](e, name)
}
