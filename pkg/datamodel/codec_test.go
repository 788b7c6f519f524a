package datamodel

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeCodec is a hand-rolled codec for exercising dispatch and deferred
// loading without a wire format.
type fakeCodec struct {
	deferredCalls int
	deferredValue any
	deferredErr   error
	encodeErr     error
	closed        bool
}

func (f *fakeCodec) Name() string { return "fake" }

func (f *fakeCodec) Encode(dm *DataModel, w io.Writer, version int) error {
	if f.encodeErr != nil {
		return f.encodeErr
	}
	_, err := fmt.Fprintf(w, "%d elements", len(dm.AllElements()))
	return err
}

func (f *fakeCodec) Decode(r *bufio.Reader, header Header, mode DeferredMode) (*DataModel, error) {
	dm := New(header.Format, header.FormatVersion)
	root, err := dm.CreateElement("DmElement", "root")
	if err != nil {
		return nil, err
	}
	if err := dm.SetRoot(root); err != nil {
		return nil, err
	}
	if mode != DeferredDisabled {
		root.SetDeferred("bulk", KindIntArray, 100)
	}
	dm.BindCodec(f)
	return dm, nil
}

func (f *fakeCodec) DeferredDecodeAttribute(dm *DataModel, offset int64) (any, error) {
	f.deferredCalls++
	if f.deferredErr != nil {
		return nil, f.deferredErr
	}
	return f.deferredValue, nil
}

func (f *fakeCodec) Close() error {
	f.closed = true
	return nil
}

func TestParseHeader(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		h := Header{Encoding: "binary", EncodingVersion: 5, Format: "model", FormatVersion: 1}
		line := h.String()
		if line != "<!-- dmx encoding binary 5 format model 1 -->\n" {
			t.Fatalf("unexpected header line %q", line)
		}
		got, err := ParseHeader(line)
		if err != nil {
			t.Fatalf("ParseHeader failed: %v", err)
		}
		if got != h {
			t.Errorf("round trip changed header: %+v", got)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := []string{
			"",
			"<!-- dmx binary 5 model 1 -->",
			"<!-- dmx encoding binary x format model 1 -->",
			"<!-- dmx encoding binary 5 format model y -->",
			"garbage",
		}
		for _, line := range bad {
			if _, err := ParseHeader(line); !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ParseHeader(%q): expected ErrUnsupportedFormat, got %v", line, err)
			}
		}
	})
}

func TestLoadDispatch(t *testing.T) {
	fake := &fakeCodec{}
	RegisterCodec("faketest", 1, func() Codec { return fake })

	src := "<!-- dmx encoding faketest 1 format scene 3 -->\n"
	dm, err := Load(strings.NewReader(src), DeferredDisabled)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if dm.Format() != "scene" || dm.FormatVersion() != 3 {
		t.Errorf("format not taken from header: %s %d", dm.Format(), dm.FormatVersion())
	}
	if dm.Codec() != fake {
		t.Error("codec not bound")
	}
	if dm.Root() == nil || dm.Root().Name() != "root" {
		t.Error("root not produced")
	}
}

func TestLoadUnknownCodec(t *testing.T) {
	src := "<!-- dmx encoding nosuch 9 format model 1 -->\ntrailing"
	_, err := Load(strings.NewReader(src), DeferredDisabled)
	if !errors.Is(err, ErrCodecNotFound) {
		t.Fatalf("expected ErrCodecNotFound, got %v", err)
	}
}

func TestLoadMalformedHeader(t *testing.T) {
	_, err := Load(strings.NewReader("not a dmx file\n"), DeferredDisabled)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSaveUnknownCodec(t *testing.T) {
	dm := New("model", 1)
	var buf bytes.Buffer
	if err := dm.Save(&buf, "nosuch", 9); !errors.Is(err, ErrCodecNotFound) {
		t.Fatalf("expected ErrCodecNotFound, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("bytes written despite missing codec")
	}
}

func TestSaveWritesHeader(t *testing.T) {
	RegisterCodec("faketest", 1, func() Codec { return &fakeCodec{} })
	dm := New("scene", 3)
	var buf bytes.Buffer
	if err := dm.Save(&buf, "faketest", 1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := "<!-- dmx encoding faketest 1 format scene 3 -->\n0 elements"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestDeferredLoad(t *testing.T) {
	newDeferred := func(t *testing.T, fake *fakeCodec) (*DataModel, *Attribute) {
		t.Helper()
		RegisterCodec("faketest", 1, func() Codec { return fake })
		src := "<!-- dmx encoding faketest 1 format scene 3 -->\n"
		dm, err := Load(strings.NewReader(src), DeferredAutomatic)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		attr, ok := dm.Root().Attribute("bulk")
		if !ok {
			t.Fatal("deferred attribute missing")
		}
		return dm, attr
	}

	t.Run("ExactlyOneDecode", func(t *testing.T) {
		fake := &fakeCodec{deferredValue: []int32{1, 2, 3}}
		_, attr := newDeferred(t, fake)

		if !attr.Deferred() {
			t.Fatal("attribute should start deferred")
		}
		v, err := attr.Get()
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v.([]int32)[2] != 3 {
			t.Errorf("unexpected value %v", v)
		}
		if attr.Deferred() {
			t.Error("offset not cleared after load")
		}
		if _, err := attr.Get(); err != nil {
			t.Fatalf("second Get failed: %v", err)
		}
		if fake.deferredCalls != 1 {
			t.Errorf("expected exactly 1 deferred decode, got %d", fake.deferredCalls)
		}
	})

	t.Run("FailureStaysDeferred", func(t *testing.T) {
		fake := &fakeCodec{deferredErr: errors.New("stream gone")}
		_, attr := newDeferred(t, fake)

		_, err := attr.Get()
		if !errors.Is(err, ErrCodec) {
			t.Fatalf("expected ErrCodec, got %v", err)
		}
		var ce *CodecError
		if !errors.As(err, &ce) {
			t.Fatal("expected *CodecError")
		}
		if ce.Attribute != "bulk" || ce.Codec != "fake" {
			t.Errorf("context missing: %+v", ce)
		}
		if !attr.Deferred() {
			t.Error("failed load must leave the attribute deferred")
		}

		// A retry after the codec recovers succeeds.
		fake.deferredErr = nil
		fake.deferredValue = []int32{9}
		if _, err := attr.Get(); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
	})

	t.Run("LoadOnMaterialized", func(t *testing.T) {
		fake := &fakeCodec{deferredValue: []int32{}}
		_, attr := newDeferred(t, fake)
		if err := attr.DeferredLoad(); err != nil {
			t.Fatalf("DeferredLoad failed: %v", err)
		}
		if err := attr.DeferredLoad(); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation, got %v", err)
		}
	})

	t.Run("SetClearsOffset", func(t *testing.T) {
		fake := &fakeCodec{}
		_, attr := newDeferred(t, fake)
		if err := attr.Set([]int32{5}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if attr.Deferred() {
			t.Error("Set must clear the deferred offset")
		}
		if fake.deferredCalls != 0 {
			t.Errorf("Set must not decode, got %d calls", fake.deferredCalls)
		}
	})

	t.Run("DisposedCodec", func(t *testing.T) {
		fake := &fakeCodec{deferredValue: []int32{}}
		dm, attr := newDeferred(t, fake)
		if err := dm.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if !fake.closed {
			t.Error("codec not released on Close")
		}
		_, err := attr.Get()
		if !errors.Is(err, ErrCodecDisposed) || !errors.Is(err, ErrCodec) {
			t.Errorf("expected disposed CodecError, got %v", err)
		}
	})

	t.Run("DisabledModeDecodesEagerly", func(t *testing.T) {
		fake := &fakeCodec{}
		RegisterCodec("faketest", 1, func() Codec { return fake })
		src := "<!-- dmx encoding faketest 1 format scene 3 -->\n"
		dm, err := Load(strings.NewReader(src), DeferredDisabled)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, ok := dm.Root().Attribute("bulk"); ok {
			t.Error("disabled mode must not produce deferred attributes")
		}
	})
}

func TestRegisteredVersions(t *testing.T) {
	RegisterCodec("vtest", 3, func() Codec { return &fakeCodec{} })
	RegisterCodec("vtest", 1, func() Codec { return &fakeCodec{} })
	got := RegisteredVersions("vtest")
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("unexpected versions %v", got)
	}
}
