// Package version carries the library version and the embedded manifests
// describing known DMX format tags: which format versions exist and which
// (encoding, encoding-version) pair each one defaults to.
package version

// Version is the dmx-go library version.
const Version = "0.4.1"

// Canonical encoding names.
const (
	// EncodingBinary is the binary encoding family name.
	EncodingBinary = "binary"

	// EncodingKeyValues2 is the keyvalues2 text encoding name.
	EncodingKeyValues2 = "keyvalues2"
)

// LatestBinaryVersion is the newest binary encoding version.
const LatestBinaryVersion = 5
