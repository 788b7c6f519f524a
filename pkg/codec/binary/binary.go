package binary

import (
	"bufio"
	"fmt"
	"io"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
)

// Name is the encoding name in header lines.
const Name = "binary"

// Version bounds of the binary family.
const (
	MinVersion = 2
	MaxVersion = 5
)

// Deferral thresholds for DeferredAutomatic.
const (
	autoDeferArrayLen = 64
	autoDeferBlobLen  = 256
)

func init() {
	for v := MinVersion; v <= MaxVersion; v++ {
		datamodel.RegisterCodec(Name, v, func() datamodel.Codec { return &Codec{} })
	}
}

// Codec is a binary encoder/decoder instance. A decoding instance retains
// the body bytes and string table to serve deferred attribute loads until
// closed.
type Codec struct {
	version int
	body    []byte
	strings []string
}

// attrVersion returns the attribute-version carried by a binary encoding
// version. Only attribute-version 2 admits time values.
func attrVersion(encodingVersion int) int {
	if encodingVersion >= 5 {
		return 2
	}
	return 1
}

// wideStrings reports whether the version uses 32-bit string table count
// and indices.
func wideStrings(encodingVersion int) bool { return encodingVersion >= 5 }

// namesInTable reports whether element names and scalar string values go
// through the string table.
func namesInTable(encodingVersion int) bool { return encodingVersion >= 4 }

// Name returns the codec identity.
func (c *Codec) Name() string { return Name }

// Decode reads the binary body following the header line.
func (c *Codec) Decode(r *bufio.Reader, header datamodel.Header, mode datamodel.DeferredMode) (*datamodel.DataModel, error) {
	if header.EncodingVersion < MinVersion || header.EncodingVersion > MaxVersion {
		return nil, fmt.Errorf("%w: binary version %d", datamodel.ErrUnsupportedFormat, header.EncodingVersion)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", datamodel.ErrUnsupportedFormat, err)
	}
	c.version = header.EncodingVersion
	c.body = body

	d := &decoder{
		codec: c,
		r:     &reader{buf: body},
		mode:  mode,
	}
	dm, err := d.decode(header)
	if err != nil {
		return nil, err
	}
	dm.BindCodec(c)
	return dm, nil
}

// Encode writes the binary body following the header line.
func (c *Codec) Encode(dm *datamodel.DataModel, w io.Writer, encodingVersion int) error {
	if encodingVersion < MinVersion || encodingVersion > MaxVersion {
		return fmt.Errorf("%w: binary version %d", datamodel.ErrUnsupportedFormat, encodingVersion)
	}
	e := &encoder{version: encodingVersion}
	body, err := e.encode(dm)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// DeferredDecodeAttribute decodes the single value whose type byte sits at
// offset in the retained body.
func (c *Codec) DeferredDecodeAttribute(dm *datamodel.DataModel, offset int64) (any, error) {
	if c.body == nil {
		return nil, fmt.Errorf("%w: binary source released", datamodel.ErrCodecDisposed)
	}
	if offset <= 0 || offset >= int64(len(c.body)) {
		return nil, fmt.Errorf("offset %d outside body of %d bytes", offset, len(c.body))
	}
	d := &decoder{
		codec: c,
		r:     &reader{buf: c.body, pos: int(offset)},
		dm:    dm,
	}
	kindByte, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	kind := datamodel.Kind(kindByte)
	if kind == datamodel.KindElement || kind == datamodel.KindElementArray {
		return nil, fmt.Errorf("element values are never deferred (offset %d)", offset)
	}
	return d.value(kind)
}

// Close releases the retained body.
func (c *Codec) Close() error {
	c.body = nil
	c.strings = nil
	return nil
}

// Compile-time interface satisfaction check.
var _ datamodel.Codec = (*Codec)(nil)
