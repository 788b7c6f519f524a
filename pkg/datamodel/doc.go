// Package datamodel implements the in-memory object model for DMX element
// graphs and the codec dispatch layer that binds it to the wire encodings.
//
// # Object Model
//
// A DataModel owns a registry of Elements, each identified by a GUID and
// carrying an ordered map of typed Attributes:
//
//	DataModel (format "model" v1)
//	├── registry: id → Element
//	└── root: Element "DmeModel"
//	    ├── "visible"   bool     true
//	    ├── "transform" matrix   ...
//	    └── "children"  element_array [...]
//
// Attribute values belong to a closed set of kinds: element references,
// int32, float32, bool, string, []byte, time.Duration, colors, the
// geometric types of package vector, and homogeneous arrays of each.
// IsDatamodelType is the membership predicate; everything else is rejected
// with ErrAttributeType at assignment.
//
// # Ownership
//
// Elements belong to at most one datamodel for their lifetime. Assigning a
// detached element (or an element array holding detached elements) to an
// attribute adopts the whole reachable subgraph; assigning an element owned
// by a different datamodel fails with ErrElementOwnership before any state
// changes. Use ImportElement to copy across documents.
//
// # Deferred Decoding
//
// A decoder may install a source offset instead of a materialized value for
// bulk data. The first read of such an attribute decodes it through the
// datamodel's bound codec; the Deferred → Materialized transition is
// one-way. Failed loads stay deferred and can be retried.
//
// # Stubs
//
// A reference to a GUID the decoder never saw produces a stub element.
// Reads that encounter a stub consult the datamodel's stub resolver and
// substitute the resolved element in place; without a resolver the stub is
// returned as-is.
//
// # Concurrency
//
// The model is not synchronized for mutation. Concurrent readers are safe
// only once every deferred attribute is materialized and stubs resolved,
// because both paths rewrite state in place. The single internal lock
// serializes DeferredDecodeAttribute calls into the bound codec.
package datamodel
