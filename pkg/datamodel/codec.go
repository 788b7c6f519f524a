package datamodel

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/source-dmx/dmx-go/pkg/log"
)

// DeferredMode controls whether a decoder may install deferred offsets
// instead of materialized values.
type DeferredMode int

const (
	// DeferredDisabled forces the decoder to materialize everything eagerly.
	DeferredDisabled DeferredMode = iota

	// DeferredAutomatic lets the decoder defer large or expensive values.
	DeferredAutomatic

	// DeferredAlways makes the decoder defer whatever it can.
	DeferredAlways
)

// String returns the mode name.
func (m DeferredMode) String() string {
	switch m {
	case DeferredDisabled:
		return "disabled"
	case DeferredAutomatic:
		return "automatic"
	case DeferredAlways:
		return "always"
	default:
		return "unknown"
	}
}

// Codec encodes and decodes datamodels for one wire encoding family. A
// codec instance returned by a registry factory serves a single Decode and
// the deferred loads that follow it, or a single Encode; instances hold the
// retained source for deferred decoding and are released by Close.
type Codec interface {
	// Name returns the codec identity used in headers and diagnostics.
	Name() string

	// Encode writes the element graph body after the header line.
	Encode(dm *DataModel, w io.Writer, encodingVersion int) error

	// Decode reads the body following the header line and produces a
	// datamodel. Per mode, bulk values may be installed as deferred
	// offsets instead of materialized values.
	Decode(r *bufio.Reader, header Header, mode DeferredMode) (*DataModel, error)

	// DeferredDecodeAttribute decodes the single attribute value at the
	// given source offset. The datamodel serializes calls through its
	// codec mutex; implementations need not lock but must not depend on
	// call order across offsets.
	DeferredDecodeAttribute(dm *DataModel, offset int64) (any, error)

	// Close releases the retained source.
	Close() error
}

// Header is the ASCII envelope line common to every DMX encoding.
type Header struct {
	Encoding        string
	EncodingVersion int
	Format          string
	FormatVersion   int
}

// String returns the exact header line, including the trailing newline.
func (h Header) String() string {
	return fmt.Sprintf("<!-- dmx encoding %s %d format %s %d -->\n",
		h.Encoding, h.EncodingVersion, h.Format, h.FormatVersion)
}

// ParseHeader parses a header line. The trailing newline is optional.
func ParseHeader(line string) (Header, error) {
	fields := strings.Fields(strings.TrimSuffix(line, "\n"))
	if len(fields) != 9 ||
		fields[0] != "<!--" || fields[1] != "dmx" ||
		fields[2] != "encoding" || fields[5] != "format" ||
		fields[8] != "-->" {
		return Header{}, fmt.Errorf("%w: bad header line %q", ErrUnsupportedFormat, strings.TrimSpace(line))
	}
	encVer, err := strconv.Atoi(fields[4])
	if err != nil {
		return Header{}, fmt.Errorf("%w: bad encoding version %q", ErrUnsupportedFormat, fields[4])
	}
	fmtVer, err := strconv.Atoi(fields[7])
	if err != nil {
		return Header{}, fmt.Errorf("%w: bad format version %q", ErrUnsupportedFormat, fields[7])
	}
	return Header{
		Encoding:        fields[3],
		EncodingVersion: encVer,
		Format:          fields[6],
		FormatVersion:   fmtVer,
	}, nil
}

// Process-wide codec registry. Codec packages register themselves in init;
// callers blank-import the encodings they need.

type codecKey struct {
	name    string
	version int
}

var (
	registryMu sync.RWMutex
	registry   = make(map[codecKey]func() Codec)
)

// RegisterCodec registers a codec factory under (name, version). Later
// registrations replace earlier ones.
func RegisterCodec(name string, version int, factory func() Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[codecKey{name, version}] = factory
}

// RegisteredVersions returns the registered versions of an encoding,
// ascending.
func RegisteredVersions(name string) []int {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []int
	for k := range registry {
		if k.name == name {
			out = append(out, k.version)
		}
	}
	sort.Ints(out)
	return out
}

func lookupCodec(name string, version int) (func() Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[codecKey{name, version}]
	return f, ok
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Mode controls deferred decoding. The zero value is DeferredDisabled.
	Mode DeferredMode

	// Logger receives load and deferred-decode events. Nil disables logging.
	Logger log.Logger
}

// Load reads a datamodel from r with the given deferred mode. The header
// line selects the codec; an unregistered (encoding, version) pair fails
// with ErrCodecNotFound without reading past the header.
func Load(r io.Reader, mode DeferredMode) (*DataModel, error) {
	return LoadWithOptions(r, LoadOptions{Mode: mode})
}

// LoadWithOptions reads a datamodel from r.
func LoadWithOptions(r io.Reader, opts LoadOptions) (*DataModel, error) {
	cr := &countingReader{r: r}

	// Read the header one byte at a time so nothing past its newline is
	// consumed from r before the codec is resolved.
	var line []byte
	var b [1]byte
	for len(line) == 0 || line[len(line)-1] != '\n' {
		n, err := cr.Read(b[:])
		if n > 0 {
			line = append(line, b[0])
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading header: %v", ErrUnsupportedFormat, err)
		}
	}
	header, err := ParseHeader(string(line))
	if err != nil {
		return nil, err
	}

	factory, ok := lookupCodec(header.Encoding, header.EncodingVersion)
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrCodecNotFound, header.Encoding, header.EncodingVersion)
	}

	br := bufio.NewReader(cr)
	codec := factory()
	dm, err := codec.Decode(br, header, opts.Mode)
	if err != nil {
		return nil, err
	}
	dm.format = header.Format
	dm.formatVersion = header.FormatVersion
	dm.codec = codec
	dm.SetLogger(opts.Logger)

	elements, attributes, deferred := dm.stats()
	dm.emit(log.Event{
		Op:              log.OpLoad,
		Encoding:        header.Encoding,
		EncodingVersion: header.EncodingVersion,
		Decode: &log.DecodeEvent{
			Elements:   elements,
			Attributes: attributes,
			Deferred:   deferred,
			Bytes:      cr.n,
		},
	})
	return dm, nil
}

// Save writes the datamodel to w in the named encoding and version, failing
// with ErrCodecNotFound when no such codec is registered. Whether a value
// kind unsupported by the chosen version is rejected or skipped is the
// codec's decision; errors propagate unchanged.
func (dm *DataModel) Save(w io.Writer, encoding string, version int) error {
	factory, ok := lookupCodec(encoding, version)
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrCodecNotFound, encoding, version)
	}

	header := Header{
		Encoding:        encoding,
		EncodingVersion: version,
		Format:          dm.format,
		FormatVersion:   dm.formatVersion,
	}
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, header.String()); err != nil {
		return err
	}

	codec := factory()
	defer codec.Close()
	if err := codec.Encode(dm, cw, version); err != nil {
		dm.emit(log.Event{
			Op:              log.OpError,
			Encoding:        encoding,
			EncodingVersion: version,
			Error:           &log.ErrorEventData{Context: "encode", Message: err.Error()},
		})
		return err
	}

	elements, attributes, _ := dm.stats()
	dm.emit(log.Event{
		Op:              log.OpSave,
		Encoding:        encoding,
		EncodingVersion: version,
		Encode: &log.EncodeEvent{
			Elements:   elements,
			Attributes: attributes,
			Bytes:      cw.n,
		},
	})
	return nil
}

// stats counts owned elements, attributes, and still-deferred attributes.
func (dm *DataModel) stats() (elements, attributes, deferred int) {
	for _, id := range dm.order {
		e, ok := dm.registry[id]
		if !ok {
			continue
		}
		elements++
		attributes += len(e.order)
		for _, name := range e.order {
			if e.attrs[name].Deferred() {
				deferred++
			}
		}
	}
	return
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
