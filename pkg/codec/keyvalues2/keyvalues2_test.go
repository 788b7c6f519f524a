package keyvalues2_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-dmx/dmx-go/pkg/codec/keyvalues2"
	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/vector"
)

func saveLoad(t *testing.T, dm *datamodel.DataModel) *datamodel.DataModel {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dm.Save(&buf, keyvalues2.Name, keyvalues2.Version))
	got, err := datamodel.Load(&buf, datamodel.DeferredDisabled)
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	dm := datamodel.New("dmx", 1)
	root, err := dm.CreateElement("DmElement", "root")
	require.NoError(t, err)
	require.NoError(t, dm.SetRoot(root))

	var m vector.Matrix4
	for i := range m {
		m[i] = float32(i) / 4
	}
	require.NoError(t, root.Set("int", int32(-12)))
	require.NoError(t, root.Set("float", float32(1.5)))
	require.NoError(t, root.Set("bool", true))
	require.NoError(t, root.Set("string", "with \"quotes\" and\ttabs"))
	require.NoError(t, root.Set("binary", []byte{0xde, 0xad, 0xbe, 0xef}))
	require.NoError(t, root.Set("time", 5*time.Minute))
	require.NoError(t, root.Set("color", vector.ColorBlue))
	require.NoError(t, root.Set("vector3", vector.NewVector3(1, 2, 3)))
	require.NoError(t, root.Set("matrix", m))
	require.NoError(t, root.Set("int array", []int32{1, 2, 3}))
	require.NoError(t, root.Set("string array", []string{"a", "b c", ""}))
	require.NoError(t, root.Set("null ref", (*datamodel.Element)(nil)))

	got := saveLoad(t, dm)
	defer got.Close()

	gr := got.Root()
	require.NotNil(t, gr)
	assert.Equal(t, root.ID(), gr.ID())
	assert.Equal(t, "DmElement", gr.ClassName())
	assert.Equal(t, "root", gr.Name())
	require.Equal(t, root.Names(), gr.Names(), "attribute order")

	for _, name := range []string{"int", "bool", "string", "binary", "time", "color", "int array", "string array"} {
		wv, err := root.Get(name)
		require.NoError(t, err)
		gv, err := gr.Get(name)
		require.NoError(t, err)
		assert.Equal(t, wv, gv, name)
	}

	f, err := datamodel.Get[float32](gr, "float")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-5)

	v3, err := datamodel.Get[vector.Vector3](gr, "vector3")
	require.NoError(t, err)
	assert.InDelta(t, 2, v3[1], 1e-5)

	gm, err := datamodel.Get[vector.Matrix4](gr, "matrix")
	require.NoError(t, err)
	for i := range m {
		assert.InDelta(t, m[i], gm[i], 1e-5)
	}

	nr, err := gr.Get("null ref")
	require.NoError(t, err)
	assert.Nil(t, nr.(*datamodel.Element))
}

func TestInlineAndTopLevel(t *testing.T) {
	dm := datamodel.New("dmx", 1)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	once, _ := dm.CreateElement("DmeOnce", "once")
	twice, _ := dm.CreateElement("DmeTwice", "twice")
	require.NoError(t, root.Set("single", once))
	require.NoError(t, root.Set("first", twice))
	require.NoError(t, root.Set("second", twice))

	var buf bytes.Buffer
	require.NoError(t, dm.Save(&buf, keyvalues2.Name, keyvalues2.Version))
	text := buf.String()

	// The singly-referenced element is inlined, the shared one is a
	// top-level block referenced by GUID.
	assert.Equal(t, 1, strings.Count(text, `"DmeOnce"`))
	assert.Equal(t, 1, strings.Count(text, `"DmeTwice"`))
	assert.Contains(t, text, `"first" "element" "`+twice.ID().String()+`"`)

	got, err := datamodel.Load(strings.NewReader(text), datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer got.Close()

	a, err := datamodel.Get[*datamodel.Element](got.Root(), "first")
	require.NoError(t, err)
	b, err := datamodel.Get[*datamodel.Element](got.Root(), "second")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, twice.ID(), a.ID())

	single, err := datamodel.Get[*datamodel.Element](got.Root(), "single")
	require.NoError(t, err)
	assert.Equal(t, once.ID(), single.ID())
	assert.False(t, single.IsStub())
}

func TestElementArrayRoundTrip(t *testing.T) {
	dm := datamodel.New("dmx", 1)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	a, _ := dm.CreateElement("DmeChild", "a")
	b, _ := dm.CreateElement("DmeChild", "b")
	stub := dm.CreateStub(uuid.New())
	require.NoError(t, root.Set("children", datamodel.NewElementArray(a, b, nil, stub)))
	require.NoError(t, root.Set("favorite", b)) // b referenced twice in total

	got := saveLoad(t, dm)
	defer got.Close()

	arr, err := datamodel.Get[*datamodel.ElementArray](got.Root(), "children")
	require.NoError(t, err)
	require.Equal(t, 4, arr.Len())
	assert.Equal(t, a.ID(), arr.At(0).ID())
	assert.Equal(t, b.ID(), arr.At(1).ID())
	assert.Nil(t, arr.At(2))
	require.NotNil(t, arr.At(3))
	assert.True(t, arr.At(3).IsStub())
	assert.Equal(t, stub.ID(), arr.At(3).ID())

	fav, err := datamodel.Get[*datamodel.Element](got.Root(), "favorite")
	require.NoError(t, err)
	assert.Same(t, fav, arr.At(1))
}

func TestDecodeDocument(t *testing.T) {
	const doc = `<!-- dmx encoding keyvalues2 1 format dmx 1 -->
"DmeModel"
{
	"id" "elementid" "9f3015b7-5f0e-46a4-8d0e-7a4c4e2f3b1a"
	"name" "string" "scene"
	"visible" "bool" "1"
	"scale" "float" "0.5"
	"origin" "vector3" "1 2 3"
	"child" "DmeDag"
	{
		"id" "elementid" "0b126eb4-1a6a-4a30-8f1f-0b2071c1fbd6"
		"name" "string" "dag"
	}
	"external" "element" "d7f2c1aa-1111-2222-3333-444455556666"
	"counts" "int_array"
	[
		"1",
		"2",
		"3"
	]
}
`
	dm, err := datamodel.Load(strings.NewReader(doc), datamodel.DeferredDisabled)
	require.NoError(t, err)
	defer dm.Close()

	root := dm.Root()
	require.NotNil(t, root)
	assert.Equal(t, "DmeModel", root.ClassName())
	assert.Equal(t, "scene", root.Name())
	assert.Equal(t, "9f3015b7-5f0e-46a4-8d0e-7a4c4e2f3b1a", root.ID().String())

	visible, err := datamodel.Get[bool](root, "visible")
	require.NoError(t, err)
	assert.True(t, visible)

	child, err := datamodel.Get[*datamodel.Element](root, "child")
	require.NoError(t, err)
	assert.Equal(t, "DmeDag", child.ClassName())
	assert.False(t, child.IsStub())

	ext, err := datamodel.Get[*datamodel.Element](root, "external")
	require.NoError(t, err)
	assert.True(t, ext.IsStub())
	assert.Equal(t, "d7f2c1aa-1111-2222-3333-444455556666", ext.ID().String())

	counts, err := datamodel.GetArray[int32](root, "counts")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, counts)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"UnterminatedString": "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n\"DmElement\"\n{\n\t\"x\" \"int\" \"1\n}\n",
		"MissingBrace":       "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n\"DmElement\"\n\"odd\"\n",
		"BadGUID":            "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n\"DmElement\"\n{\n\t\"id\" \"elementid\" \"nope\"\n}\n",
		"BadValue":           "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n\"DmElement\"\n{\n\t\"x\" \"int\" \"abc\"\n}\n",
		"UnknownType":        "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n\"DmElement\"\n{\n\t\"x\" \"wobble\" \"1\"\n}\n",
		"Empty":              "<!-- dmx encoding keyvalues2 1 format dmx 1 -->\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := datamodel.Load(strings.NewReader(doc), datamodel.DeferredDisabled)
			require.ErrorIs(t, err, datamodel.ErrUnsupportedFormat)
		})
	}
}

func TestTimeSupported(t *testing.T) {
	// keyvalues2 carries attribute-version 2; time round-trips at the
	// wire resolution of 1/10000 s.
	dm := datamodel.New("dmx", 1)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	require.NoError(t, root.Set("elapsed", 1500*time.Millisecond))
	require.NoError(t, root.Set("laps", []time.Duration{time.Second, 2 * time.Second}))

	got := saveLoad(t, dm)
	defer got.Close()

	elapsed, err := datamodel.Get[time.Duration](got.Root(), "elapsed")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, elapsed)

	laps, err := datamodel.GetArray[time.Duration](got.Root(), "laps")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, laps)
}

func TestCycleFallsBackToReference(t *testing.T) {
	dm := datamodel.New("dmx", 1)
	root, _ := dm.CreateElement("DmElement", "root")
	dm.SetRoot(root)
	a, _ := dm.CreateElement("DmeA", "a")
	b, _ := dm.CreateElement("DmeB", "b")
	require.NoError(t, root.Set("start", a))
	require.NoError(t, a.Set("next", b))
	require.NoError(t, b.Set("back", a)) // a referenced twice, b once

	got := saveLoad(t, dm)
	defer got.Close()

	ga, err := datamodel.Get[*datamodel.Element](got.Root(), "start")
	require.NoError(t, err)
	gb, err := datamodel.Get[*datamodel.Element](ga, "next")
	require.NoError(t, err)
	back, err := datamodel.Get[*datamodel.Element](gb, "back")
	require.NoError(t, err)
	assert.Same(t, ga, back, "cycle must survive the round trip")
}
