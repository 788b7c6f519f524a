package datamodel

import (
	"fmt"
)

// ElementArray is an ordered sequence of element references. Unlike the
// plain value slices, it carries ownership metadata: once attached to an
// attribute it belongs to that attribute's element and enforces the
// datamodel boundary on every mutation.
type ElementArray struct {
	owner *Element
	items []*Element
}

// NewElementArray builds a detached array over the given elements. The
// array becomes attached when assigned to an attribute; member ownership is
// validated at that point.
func NewElementArray(items ...*Element) *ElementArray {
	return &ElementArray{items: append([]*Element(nil), items...)}
}

// Owner returns the element owning this array, or nil while detached.
func (ea *ElementArray) Owner() *Element { return ea.owner }

// Len returns the number of entries.
func (ea *ElementArray) Len() int { return len(ea.items) }

// At returns the i'th entry without stub resolution. Reads through
// Attribute.Get resolve stubs in place.
func (ea *ElementArray) At(i int) *Element { return ea.items[i] }

// Elements returns a copy of the entries.
func (ea *ElementArray) Elements() []*Element {
	return append([]*Element(nil), ea.items...)
}

// Add appends an element.
func (ea *ElementArray) Add(e *Element) error {
	if err := ea.check(e); err != nil {
		return err
	}
	ea.items = append(ea.items, e)
	return nil
}

// Insert inserts an element at index i.
func (ea *ElementArray) Insert(i int, e *Element) error {
	if err := ea.check(e); err != nil {
		return err
	}
	if i < 0 || i > len(ea.items) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidOperation, i)
	}
	ea.items = append(ea.items, nil)
	copy(ea.items[i+1:], ea.items[i:])
	ea.items[i] = e
	return nil
}

// Set replaces the entry at index i.
func (ea *ElementArray) Set(i int, e *Element) error {
	if err := ea.check(e); err != nil {
		return err
	}
	if i < 0 || i >= len(ea.items) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidOperation, i)
	}
	ea.items[i] = e
	return nil
}

// Clear removes all entries.
func (ea *ElementArray) Clear() { ea.items = ea.items[:0] }

// check enforces the membership rule once the array is attached: entries
// must be nil, stubs, or owned by the same datamodel as the array's owner.
func (ea *ElementArray) check(e *Element) error {
	if e == nil || e.stub || ea.owner == nil || ea.owner.owner == nil {
		return nil
	}
	if e.owner != ea.owner.owner {
		return fmt.Errorf("%w: array entry %s", ErrElementOwnership, e.id)
	}
	return nil
}

// attach binds a detached array to its parent element. Re-attaching to the
// same parent is a no-op; re-parenting an attached array is an error.
func (ea *ElementArray) attach(parent *Element) error {
	if ea.owner == nil {
		ea.owner = parent
		return nil
	}
	if ea.owner == parent {
		return nil
	}
	return fmt.Errorf("%w: element array already attached to element %s", ErrInvalidOperation, ea.owner.id)
}
