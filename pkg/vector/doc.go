// Package vector implements the geometric and color value types carried by
// DMX attributes.
//
// All types are plain values: copying is cheap, and equality is the bitwise
// equality of their components. No epsilon is applied when comparing; callers
// that need tolerant comparison (round-trip tests, for example) apply their
// own. A consequence of bitwise comparison is that a component holding NaN
// makes a value compare unequal to itself.
//
// # String form
//
// Every type formats as its components joined by single spaces, using the
// shortest float representation that survives a float32 round trip. Matrix4
// joins its four rows with two spaces. Parsing accepts both whitespace and
// commas as separators regardless of locale; files written by culture
// sensitive writers (decimal commas) are not supported.
package vector
