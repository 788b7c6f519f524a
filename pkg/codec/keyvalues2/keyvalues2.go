package keyvalues2

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
)

// Name is the encoding name in header lines.
const Name = "keyvalues2"

// Version is the only keyvalues2 encoding version.
const Version = 1

// timeTick is the resolution time values round to: 1/10000 second, matching
// the binary encoding so cross-encoding round trips agree.
const timeTick = 100 * time.Microsecond

func init() {
	datamodel.RegisterCodec(Name, Version, func() datamodel.Codec { return &Codec{} })
}

// Codec is a keyvalues2 encoder/decoder instance. Decoding is fully eager,
// so the instance retains nothing between calls.
type Codec struct{}

// Name returns the codec identity.
func (c *Codec) Name() string { return Name }

// Decode reads the text body following the header line. The deferred mode
// is ignored: keyvalues2 has no bulk section to defer.
func (c *Codec) Decode(r *bufio.Reader, header datamodel.Header, _ datamodel.DeferredMode) (*datamodel.DataModel, error) {
	if header.EncodingVersion != Version {
		return nil, fmt.Errorf("%w: keyvalues2 version %d", datamodel.ErrUnsupportedFormat, header.EncodingVersion)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", datamodel.ErrUnsupportedFormat, err)
	}

	p := &parser{lex: &lexer{src: body, line: 2}} // line 1 is the header
	doc, err := p.document()
	if err != nil {
		return nil, err
	}

	dm, err := materialize(doc, header)
	if err != nil {
		return nil, err
	}
	dm.BindCodec(c)
	return dm, nil
}

// Encode writes the text body following the header line.
func (c *Codec) Encode(dm *datamodel.DataModel, w io.Writer, encodingVersion int) error {
	if encodingVersion != Version {
		return fmt.Errorf("%w: keyvalues2 version %d", datamodel.ErrUnsupportedFormat, encodingVersion)
	}
	e := &encoder{dm: dm}
	return e.encode(w)
}

// DeferredDecodeAttribute always fails: keyvalues2 decodes eagerly and
// never installs deferred offsets.
func (c *Codec) DeferredDecodeAttribute(*datamodel.DataModel, int64) (any, error) {
	return nil, fmt.Errorf("%w: keyvalues2 has no deferred attributes", datamodel.ErrInvalidOperation)
}

// Close is a no-op; the codec retains no source.
func (c *Codec) Close() error { return nil }

// Compile-time interface satisfaction check.
var _ datamodel.Codec = (*Codec)(nil)
