package datamodel

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Datamodel errors. All are matched with errors.Is; CodecError additionally
// carries context and is matched via errors.As.
var (
	// ErrAttributeType reports a value outside the permitted closed set, or
	// a typed accessor whose type parameter does not match the stored value.
	ErrAttributeType = errors.New("invalid value type for attribute")

	// ErrAttributeNotFound reports access to an attribute name an element
	// does not carry.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrElementOwnership reports an element or element array crossing a
	// datamodel boundary.
	ErrElementOwnership = errors.New("element owned by a different datamodel")

	// ErrElementIDInUse reports an ID collision at element creation or import.
	ErrElementIDInUse = errors.New("element id already in use")

	// ErrCodec is the base error for failures raised by a bound codec.
	// errors.Is(err, ErrCodec) matches any *CodecError.
	ErrCodec = errors.New("codec error")

	// ErrCodecDisposed reports deferred access after the datamodel was closed.
	ErrCodecDisposed = errors.New("codec disposed")

	// ErrCodecNotFound reports a missing registry entry for a requested
	// (encoding, version) pair.
	ErrCodecNotFound = errors.New("no codec registered for encoding")

	// ErrUnsupportedFormat reports a malformed or unrecognized header line.
	ErrUnsupportedFormat = errors.New("unsupported dmx format")

	// ErrInvalidOperation reports misuse of object state, such as
	// re-parenting an attached element array or deferred-loading an
	// attribute that is already materialized.
	ErrInvalidOperation = errors.New("invalid operation")
)

// CodecError wraps an error raised by a codec with the attribute, owning
// element, and codec it occurred in.
type CodecError struct {
	// Attribute is the name of the attribute being decoded, if any.
	Attribute string

	// Owner is the ID of the element owning the attribute.
	Owner uuid.UUID

	// Codec identifies the codec that raised the error.
	Codec string

	// Err is the underlying error.
	Err error
}

// Error returns the formatted error message.
func (e *CodecError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("codec %s: %v", e.Codec, e.Err)
	}
	return fmt.Sprintf("codec %s: attribute %q on element %s: %v", e.Codec, e.Attribute, e.Owner, e.Err)
}

// Unwrap returns the underlying error.
func (e *CodecError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCodec, so errors.Is(err, ErrCodec) matches
// without unwrapping into the codec's own error chain.
func (e *CodecError) Is(target error) bool { return target == ErrCodec }
