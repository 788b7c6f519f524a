// Package keyvalues2 implements the DMX keyvalues2 text encoding, version 1.
//
// Elements appear as quoted class-name blocks, attributes as typed triples:
//
//	"DmeModel"
//	{
//		"id" "elementid" "9f3015b7-5f0e-46a4-8d0e-7a4c4e2f3b1a"
//		"name" "string" "root"
//		"visible" "bool" "1"
//		"children" "element_array"
//		[
//			"DmeDag"
//			{
//				...
//			},
//			"element" "d7f2c1aa-1111-2222-3333-444455556666"
//		]
//	}
//
// An element referenced exactly once is inlined at its reference site; the
// root and multiply-referenced elements are written as top-level blocks,
// root first. References use the canonical 8-4-4-4-12 GUID form; a
// reference to a GUID the document never defines decodes to a stub.
//
// The encoding is fully eager: deferred decoding does not apply, and the
// decoder ignores the requested deferred mode. It carries attribute-version
// 2, so time values are legal.
//
// Import for side effects to register the codec:
//
//	import _ "github.com/source-dmx/dmx-go/pkg/codec/keyvalues2"
package keyvalues2
