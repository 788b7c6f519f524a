package datamodel

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/source-dmx/dmx-go/pkg/log"
)

// Attribute is a named, typed value on an element. Its value is either
// materialized or deferred: a deferred attribute records the offset of its
// encoded form in the source stream and decodes it on first access through
// the datamodel's bound codec.
//
// Attributes are not safe for concurrent mutation. Reading a deferred
// attribute, or reading a stub-bearing element value, transitions state and
// counts as mutation.
type Attribute struct {
	name  string
	owner *Element
	kind  Kind
	value any

	// offset is the position of the encoded value in the codec's retained
	// source. Zero means materialized.
	offset int64
}

// Name returns the attribute name. Names are unique per owning element.
func (a *Attribute) Name() string { return a.name }

// Owner returns the element owning this attribute.
func (a *Attribute) Owner() *Element { return a.owner }

// Kind returns the value kind. For deferred attributes this is the kind
// recorded at decode time; it is valid without triggering a load.
func (a *Attribute) Kind() Kind { return a.kind }

// Deferred reports whether the value is still pending a deferred decode.
func (a *Attribute) Deferred() bool { return a.offset > 0 }

// Set materializes the attribute with value, clearing any deferred offset.
// The value must belong to the closed set of datamodel kinds. Element and
// element-array values are checked against the owning datamodel before any
// state changes: detached elements are adopted, elements owned elsewhere
// fail with ErrElementOwnership.
func (a *Attribute) Set(value any) error {
	kind := KindOf(value)
	if kind == KindInvalid {
		return fmt.Errorf("%w: %q rejects %T", ErrAttributeType, a.name, value)
	}

	dm := a.owner.owner

	switch kind {
	case KindElement:
		e, _ := value.(*Element)
		value = e // normalize bare nil to a typed nil reference
		if e != nil && dm != nil {
			if err := dm.adopt(e); err != nil {
				return err
			}
		}
	case KindElementArray:
		arr := value.(*ElementArray)
		if arr.owner != nil && arr.owner != a.owner {
			return fmt.Errorf("%w: element array already attached to element %s", ErrInvalidOperation, arr.owner.id)
		}
		if dm != nil {
			// Validate every entry before mutating anything.
			for _, e := range arr.items {
				if e == nil || e.stub {
					continue
				}
				if e.owner != nil && e.owner != dm {
					return fmt.Errorf("%w: array entry %s", ErrElementOwnership, e.id)
				}
			}
			for _, e := range arr.items {
				if e == nil || e.stub {
					continue
				}
				if err := dm.adopt(e); err != nil {
					return err
				}
			}
		}
		if err := arr.attach(a.owner); err != nil {
			return err
		}
	}

	a.kind = kind
	a.value = value
	a.offset = 0
	return nil
}

// Get returns the materialized value, performing a deferred load and stub
// substitution first if needed. Stub element references are handed to the
// datamodel's stub resolver; a resolved element replaces the stub in place.
func (a *Attribute) Get() (any, error) {
	if a.Deferred() {
		if err := a.DeferredLoad(); err != nil {
			return nil, err
		}
	}

	dm := a.owner.owner
	if dm == nil {
		return a.value, nil
	}

	switch v := a.value.(type) {
	case *Element:
		if v != nil && v.stub {
			resolved, err := dm.resolveStub(v)
			if err != nil {
				return nil, err
			}
			if resolved != nil {
				a.value = resolved
			}
		}
	case *ElementArray:
		for i, e := range v.items {
			if e == nil || !e.stub {
				continue
			}
			resolved, err := dm.resolveStub(e)
			if err != nil {
				return nil, err
			}
			if resolved != nil {
				v.items[i] = resolved
			}
		}
	}

	return a.value, nil
}

// DeferredLoad decodes the attribute's value from the source stream through
// the bound codec. Calls are serialized by the datamodel's codec mutex. On
// failure the attribute stays deferred, so the load can be retried; calling
// DeferredLoad on a materialized attribute fails with ErrInvalidOperation.
func (a *Attribute) DeferredLoad() error {
	if a.offset == 0 {
		return fmt.Errorf("%w: attribute %q is not deferred", ErrInvalidOperation, a.name)
	}

	dm := a.owner.owner
	if dm == nil || dm.codec == nil {
		return a.codecErr(uuid.Nil, "", errors.New("no codec bound for deferred load"))
	}

	dm.codecMu.Lock()
	defer dm.codecMu.Unlock()

	if dm.disposed {
		return a.codecErr(a.owner.id, dm.codec.Name(), ErrCodecDisposed)
	}

	value, err := dm.codec.DeferredDecodeAttribute(dm, a.offset)
	if err != nil {
		dm.emit(log.Event{
			Op: log.OpError,
			Error: &log.ErrorEventData{
				Context: "deferred decode of " + a.name,
				Message: err.Error(),
			},
		})
		return a.codecErr(a.owner.id, dm.codec.Name(), err)
	}

	dm.emit(log.Event{
		Op: log.OpDeferredDecode,
		Deferred: &log.DeferredEvent{
			Attribute: a.name,
			Owner:     a.owner.id.String(),
			Offset:    a.offset,
		},
	})

	a.value = value
	a.offset = 0
	return nil
}

func (a *Attribute) codecErr(owner uuid.UUID, codec string, err error) error {
	return &CodecError{Attribute: a.name, Owner: owner, Codec: codec, Err: err}
}
