package datamodel

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/source-dmx/dmx-go/pkg/log"
)

// DataModel is the root container of an element graph: a format tag and
// version, a root element, and the registry of every element it owns. A
// datamodel loaded from a stream keeps a back-pointer to the codec that
// produced it for as long as any deferred attribute remains.
//
// Mutation is not synchronized internally; the only internal lock guards
// calls into the bound codec. See the package documentation for the
// concurrency contract.
type DataModel struct {
	format        string
	formatVersion int
	root          *Element

	registry map[uuid.UUID]*Element
	order    []uuid.UUID

	codec    Codec
	codecMu  sync.Mutex
	disposed bool

	stubResolver func(uuid.UUID) *Element
	logger       log.Logger
}

// New creates an empty datamodel with the given format tag and version.
func New(format string, formatVersion int) *DataModel {
	return &DataModel{
		format:        format,
		formatVersion: formatVersion,
		registry:      make(map[uuid.UUID]*Element),
		logger:        log.NoopLogger{},
	}
}

// Format returns the format tag, e.g. "model".
func (dm *DataModel) Format() string { return dm.format }

// FormatVersion returns the format version.
func (dm *DataModel) FormatVersion() int { return dm.formatVersion }

// SetFormat sets the format tag and version written on the next Save.
func (dm *DataModel) SetFormat(format string, version int) {
	dm.format = format
	dm.formatVersion = version
}

// Root returns the graph entry point.
func (dm *DataModel) Root() *Element { return dm.root }

// SetRoot sets the graph entry point, adopting a detached element.
func (dm *DataModel) SetRoot(e *Element) error {
	if e != nil {
		if err := dm.adopt(e); err != nil {
			return err
		}
	}
	dm.root = e
	return nil
}

// Codec returns the codec bound by Load, or nil.
func (dm *DataModel) Codec() Codec { return dm.codec }

// BindCodec binds the codec serving deferred decodes. Load does this for
// callers; codec implementations constructing datamodels do it themselves.
func (dm *DataModel) BindCodec(c Codec) { dm.codec = c }

// SetLogger installs a logger for load, save, deferred-decode, and stub
// resolution events. A nil logger disables logging.
func (dm *DataModel) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	dm.logger = l
}

// SetStubResolver installs the callback used to materialize stub elements
// on first access. A nil resolver leaves stubs unresolved.
func (dm *DataModel) SetStubResolver(f func(uuid.UUID) *Element) {
	dm.stubResolver = f
}

// CreateElement creates an element with a fresh v4 GUID, owned by this
// datamodel.
func (dm *DataModel) CreateElement(className, name string) (*Element, error) {
	return dm.CreateElementWithID(className, name, uuid.New())
}

// CreateElementWithID creates an element with the given ID, failing with
// ErrElementIDInUse on collision.
func (dm *DataModel) CreateElementWithID(className, name string, id uuid.UUID) (*Element, error) {
	if _, exists := dm.registry[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrElementIDInUse, id)
	}
	e := &Element{
		id:        id,
		name:      name,
		className: className,
		owner:     dm,
		attrs:     make(map[string]*Attribute),
	}
	dm.register(e)
	return e, nil
}

// CreateStub creates a stub element known only by id. If the datamodel
// already holds an element with that ID, it is returned instead, so repeated
// references to the same unresolved GUID share one stub.
func (dm *DataModel) CreateStub(id uuid.UUID) *Element {
	if e, ok := dm.registry[id]; ok {
		return e
	}
	e := &Element{id: id, owner: dm, stub: true, attrs: make(map[string]*Attribute)}
	dm.register(e)
	return e
}

// RemoveElement removes e from the registry and detaches it. References to
// e held by other attributes are not rewritten; callers manage them.
func (dm *DataModel) RemoveElement(e *Element) {
	if e == nil || e.owner != dm {
		return
	}
	delete(dm.registry, e.id)
	for i, id := range dm.order {
		if id == e.id {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}
	e.owner = nil
	if dm.root == e {
		dm.root = nil
	}
}

// Element returns the owned element with the given ID.
func (dm *DataModel) Element(id uuid.UUID) (*Element, bool) {
	e, ok := dm.registry[id]
	return e, ok
}

// AllElements returns every owned element in registration order.
func (dm *DataModel) AllElements() []*Element {
	out := make([]*Element, 0, len(dm.order))
	for _, id := range dm.order {
		if e, ok := dm.registry[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Close disposes the datamodel: the bound codec (and any stream it holds)
// is released and the registry discarded. Deferred attributes fail all
// further access after Close.
func (dm *DataModel) Close() error {
	dm.codecMu.Lock()
	defer dm.codecMu.Unlock()

	if dm.disposed {
		return nil
	}
	dm.disposed = true

	var err error
	if dm.codec != nil {
		err = dm.codec.Close()
	}
	dm.root = nil
	dm.registry = make(map[uuid.UUID]*Element)
	dm.order = nil
	return err
}

func (dm *DataModel) register(e *Element) {
	dm.registry[e.id] = e
	dm.order = append(dm.order, e.id)
}

// adopt takes ownership of a detached element and everything reachable from
// it. Validation runs over the whole reachable subgraph before any state
// changes, so ownership conflicts fail without mutating the datamodel.
func (dm *DataModel) adopt(root *Element) error {
	visited := make(map[*Element]bool)
	var pending []*Element

	var walk func(e *Element) error
	walk = func(e *Element) error {
		if e == nil || e.stub || visited[e] {
			return nil
		}
		visited[e] = true
		if e.owner == dm {
			return nil
		}
		if e.owner != nil {
			return fmt.Errorf("%w: element %s", ErrElementOwnership, e.id)
		}
		if existing, ok := dm.registry[e.id]; ok && existing != e {
			return fmt.Errorf("%w: %s", ErrElementIDInUse, e.id)
		}
		pending = append(pending, e)
		for _, name := range e.order {
			switch v := e.attrs[name].value.(type) {
			case *Element:
				if err := walk(v); err != nil {
					return err
				}
			case *ElementArray:
				for _, item := range v.items {
					if err := walk(item); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return err
	}
	for _, e := range pending {
		e.owner = dm
		dm.register(e)
	}
	return nil
}

// resolveStub asks the stub resolver for the element behind a stub. A nil
// result (or absent resolver) leaves the stub in place. A resolved detached
// element is adopted; an element owned elsewhere is rejected.
func (dm *DataModel) resolveStub(stub *Element) (*Element, error) {
	if dm.stubResolver == nil {
		return nil, nil
	}
	resolved := dm.stubResolver(stub.id)
	dm.emit(log.Event{
		Op:   log.OpStubResolve,
		Stub: &log.StubEvent{ID: stub.id.String(), Resolved: resolved != nil},
	})
	if resolved == nil {
		return nil, nil
	}
	if resolved.owner != nil && resolved.owner != dm {
		return nil, fmt.Errorf("%w: resolved element %s", ErrElementOwnership, resolved.id)
	}

	if resolved.owner == nil {
		if resolved.id == stub.id {
			// The resolver rebuilt the element under the stub's own ID:
			// take over the registry slot, then adopt its children.
			resolved.owner = dm
			dm.registry[resolved.id] = resolved
			stub.owner = nil
			for _, name := range resolved.order {
				switch v := resolved.attrs[name].value.(type) {
				case *Element:
					if v != nil {
						if err := dm.adopt(v); err != nil {
							return nil, err
						}
					}
				case *ElementArray:
					for _, item := range v.items {
						if item != nil {
							if err := dm.adopt(item); err != nil {
								return nil, err
							}
						}
					}
				}
			}
		} else {
			if err := dm.adopt(resolved); err != nil {
				return nil, err
			}
		}
	}
	return resolved, nil
}

// emit stamps and forwards a log event.
func (dm *DataModel) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	if ev.Format == "" {
		ev.Format = dm.format
		ev.FormatVersion = dm.formatVersion
	}
	if dm.root != nil {
		ev.DocumentID = dm.root.id.String()
	}
	dm.logger.Log(ev)
}
