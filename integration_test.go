package dmx_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-dmx/dmx-go/pkg/codec/binary"
	"github.com/source-dmx/dmx-go/pkg/codec/keyvalues2"
	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/log"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

const tolerance = 1e-5

// buildModel populates a "model" v1 document with every value kind and a
// two-entry array of each.
func buildModel(t *testing.T) *datamodel.DataModel {
	t.Helper()
	dm := datamodel.New("model", 1)
	root, err := dm.CreateElement("DmeModel", "root")
	require.NoError(t, err)
	require.NoError(t, dm.SetRoot(root))

	blob := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	quat := vector.NewQuaternion(1, 2, 3, 4)
	quat.Normalize()
	var m vector.Matrix4
	for i := range m {
		m[i] = float32(i)
	}

	require.NoError(t, root.Set("int", int32(1)))
	require.NoError(t, root.Set("float", float32(1.5)))
	require.NoError(t, root.Set("bool", true))
	require.NoError(t, root.Set("binary", blob))
	require.NoError(t, root.Set("time", 5*time.Minute))
	require.NoError(t, root.Set("color", vector.ColorBlue))
	require.NoError(t, root.Set("vector2", vector.NewVector2(1, 2)))
	require.NoError(t, root.Set("vector3", vector.NewVector3(1, 2, 3)))
	require.NoError(t, root.Set("angle", vector.NewAngle(1, 2, 3)))
	require.NoError(t, root.Set("vector4", vector.NewVector4(1, 2, 3, 4)))
	require.NoError(t, root.Set("quaternion", quat))
	require.NoError(t, root.Set("matrix", m))

	require.NoError(t, root.Set("int array", []int32{1, 1}))
	require.NoError(t, root.Set("float array", []float32{1.5, 1.5}))
	require.NoError(t, root.Set("bool array", []bool{true, true}))
	require.NoError(t, root.Set("binary array", [][]byte{blob, blob}))
	require.NoError(t, root.Set("time array", []time.Duration{5 * time.Minute, 5 * time.Minute}))
	require.NoError(t, root.Set("color array", []vector.Color{vector.ColorBlue, vector.ColorBlue}))
	require.NoError(t, root.Set("vector2 array", []vector.Vector2{{1, 2}, {1, 2}}))
	require.NoError(t, root.Set("vector3 array", []vector.Vector3{{1, 2, 3}, {1, 2, 3}}))
	require.NoError(t, root.Set("angle array", []vector.Angle{{1, 2, 3}, {1, 2, 3}}))
	require.NoError(t, root.Set("vector4 array", []vector.Vector4{{1, 2, 3, 4}, {1, 2, 3, 4}}))
	require.NoError(t, root.Set("quaternion array", []vector.Quaternion{quat, quat}))
	require.NoError(t, root.Set("matrix array", []vector.Matrix4{m, m}))
	return dm
}

func assertModelEqual(t *testing.T, want, got *datamodel.DataModel) {
	t.Helper()
	require.NotNil(t, got.Root())
	assert.Equal(t, want.Root().ID(), got.Root().ID(), "root id")
	require.Equal(t, want.Root().Names(), got.Root().Names(), "attribute order")

	for _, name := range want.Root().Names() {
		wv, err := want.Root().Get(name)
		require.NoError(t, err)
		gv, err := got.Root().Get(name)
		require.NoError(t, err)
		assertValueEqual(t, name, wv, gv)
	}
}

func assertValueEqual(t *testing.T, name string, want, got any) {
	t.Helper()
	switch w := want.(type) {
	case float32:
		assert.InDelta(t, w, got.(float32), tolerance, name)
	case []float32:
		g := got.([]float32)
		require.Len(t, g, len(w), name)
		for i := range w {
			assert.InDelta(t, w[i], g[i], tolerance, name)
		}
	case vector.Vector2:
		g := got.(vector.Vector2)
		assertComponents(t, name, w[:], g[:])
	case vector.Vector3:
		g := got.(vector.Vector3)
		assertComponents(t, name, w[:], g[:])
	case vector.Vector4:
		g := got.(vector.Vector4)
		assertComponents(t, name, w[:], g[:])
	case vector.Angle:
		g := got.(vector.Angle)
		assertComponents(t, name, w[:], g[:])
	case vector.Quaternion:
		g := got.(vector.Quaternion)
		assertComponents(t, name, w[:], g[:])
	case vector.Matrix4:
		g := got.(vector.Matrix4)
		assertComponents(t, name, w[:], g[:])
	case []vector.Vector2:
		g := got.([]vector.Vector2)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	case []vector.Vector3:
		g := got.([]vector.Vector3)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	case []vector.Vector4:
		g := got.([]vector.Vector4)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	case []vector.Angle:
		g := got.([]vector.Angle)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	case []vector.Quaternion:
		g := got.([]vector.Quaternion)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	case []vector.Matrix4:
		g := got.([]vector.Matrix4)
		require.Len(t, g, len(w), name)
		for i, x := range w {
			assertComponents(t, name, x[:], g[i][:])
		}
	default:
		assert.Equal(t, want, got, name)
	}
}

func assertComponents(t *testing.T, name string, want, got []float32) {
	t.Helper()
	require.Len(t, got, len(want), name)
	for i := range want {
		assert.InDelta(t, want[i], got[i], tolerance, name)
	}
}

func TestPopulateRoundTrip(t *testing.T) {
	dm := buildModel(t)

	t.Run("BinaryV5", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, dm.Save(&buf, binary.Name, 5))
		got, err := datamodel.Load(&buf, datamodel.DeferredDisabled)
		require.NoError(t, err)
		defer got.Close()
		assertModelEqual(t, dm, got)
	})

	t.Run("KeyValues2V1", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, dm.Save(&buf, keyvalues2.Name, keyvalues2.Version))
		got, err := datamodel.Load(&buf, datamodel.DeferredDisabled)
		require.NoError(t, err)
		defer got.Close()
		assertModelEqual(t, dm, got)
	})
}

// TestCrossEncoding re-saves a loaded binary document as keyvalues2 and
// back, checking each decoder accepts the other's output.
func TestCrossEncoding(t *testing.T) {
	dm := buildModel(t)

	var bin bytes.Buffer
	require.NoError(t, dm.Save(&bin, binary.Name, 5))
	fromBin, err := datamodel.Load(&bin, datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer fromBin.Close()

	var kv bytes.Buffer
	require.NoError(t, fromBin.Save(&kv, keyvalues2.Name, keyvalues2.Version))
	fromKV, err := datamodel.Load(&kv, datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer fromKV.Close()

	var bin2 bytes.Buffer
	require.NoError(t, fromKV.Save(&bin2, binary.Name, 5))
	final, err := datamodel.Load(&bin2, datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer final.Close()

	assertModelEqual(t, dm, final)
}

func TestUnknownEncodingVersion(t *testing.T) {
	// The codecs are registered, but not these versions.
	for _, header := range []string{
		"<!-- dmx encoding binary 9 format model 1 -->\n",
		"<!-- dmx encoding keyvalues2 2 format model 1 -->\n",
	} {
		_, err := datamodel.Load(strings.NewReader(header+"trailing bytes"), datamodel.DeferredDisabled)
		require.ErrorIs(t, err, datamodel.ErrCodecNotFound, header)
	}
}

func TestEventLogging(t *testing.T) {
	dm := buildModel(t)

	var events []log.Event
	dm.SetLogger(logFunc(func(ev log.Event) { events = append(events, ev) }))

	var buf bytes.Buffer
	require.NoError(t, dm.Save(&buf, binary.Name, 5))

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, log.OpSave, ev.Op)
	assert.Equal(t, binary.Name, ev.Encoding)
	assert.Equal(t, 5, ev.EncodingVersion)
	assert.Equal(t, "model", ev.Format)
	require.NotNil(t, ev.Encode)
	assert.Equal(t, 1, ev.Encode.Elements)
	assert.Equal(t, int64(buf.Len()), ev.Encode.Bytes)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, dm.Root().ID().String(), ev.DocumentID)
}

// logFunc adapts a function to the log.Logger interface.
type logFunc func(log.Event)

func (f logFunc) Log(ev log.Event) { f(ev) }

func TestDeferredThenSave(t *testing.T) {
	big := make([]float32, 500)
	for i := range big {
		big[i] = float32(i) / 3
	}
	dm := datamodel.New("dmx", 18)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	require.NoError(t, root.Set("samples", big))

	var buf bytes.Buffer
	require.NoError(t, dm.Save(&buf, binary.Name, 5))
	loaded, err := datamodel.Load(&buf, datamodel.DeferredAutomatic)
	require.NoError(t, err)
	defer loaded.Close()

	attr, ok := loaded.Root().Attribute("samples")
	require.True(t, ok)
	require.True(t, attr.Deferred())

	// Saving materializes the deferred value through the bound codec.
	var out bytes.Buffer
	require.NoError(t, loaded.Save(&out, keyvalues2.Name, keyvalues2.Version))
	assert.False(t, attr.Deferred())

	reloaded, err := datamodel.Load(&out, datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer reloaded.Close()
	got, err := datamodel.GetArray[float32](reloaded.Root(), "samples")
	require.NoError(t, err)
	require.Len(t, got, len(big))
	for i := range big {
		assert.InDelta(t, big[i], got[i], tolerance)
	}
}

func TestDisposedDocument(t *testing.T) {
	dm := datamodel.New("dmx", 1)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	require.NoError(t, root.Set("payload", make([]int32, 100)))

	var buf bytes.Buffer
	require.NoError(t, dm.Save(&buf, binary.Name, 5))
	loaded, err := datamodel.Load(&buf, datamodel.DeferredAlways)
	require.NoError(t, err)

	attr, ok := loaded.Root().Attribute("payload")
	require.True(t, ok)
	require.True(t, attr.Deferred())

	require.NoError(t, loaded.Close())
	_, err = attr.Get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, datamodel.ErrCodec))
	assert.True(t, errors.Is(err, datamodel.ErrCodecDisposed))
}
