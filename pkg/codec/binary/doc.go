// Package binary implements the DMX binary encoding family, versions 2-5.
//
// All versions share one layout after the ASCII header line:
//
//	string table | element headers | element bodies
//
// The string table holds class names and attribute names; element headers
// carry (class, name, GUID) so references by index resolve before any body
// is decoded. Versions differ in two ways: v4 and v5 route element names
// and scalar string values through the string table (v2 and v3 write them
// inline), and v5 widens the table count and indices from 16 to 32 bits.
//
// Version 5 carries attribute-version 2 and is the only binary version that
// can serialize time values; encoding a time attribute at v2-v4 fails with
// datamodel.ErrAttributeType.
//
// # Deferred decoding
//
// Under DeferredAutomatic the decoder skips long arrays and large byte
// blobs, recording the offset of the type byte instead; DeferredAlways
// defers every array and blob. The decoder retains the body bytes for the
// lifetime of the codec instance, and DeferredDecodeAttribute re-reads a
// single value at its recorded offset. Element arrays are always decoded
// eagerly because they wire up ownership.
//
// Import for side effects to register the codec:
//
//	import _ "github.com/source-dmx/dmx-go/pkg/codec/binary"
package binary
