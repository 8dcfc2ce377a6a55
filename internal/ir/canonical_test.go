package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	obj := Obj(P("zebra", Int(1)), P("apple", Int(2)), P("mango", Int(3)))

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"mango":3,"zebra":1}`, string(data))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(String("<b>&</b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<b>&</b>"`, string(data))
}

func TestMarshalCanonicalEscapesControlChars(t *testing.T) {
	data, err := MarshalCanonical(String("line1\nline2\ttab\x01"))
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\ttab\u0001"`, string(data))
}

func TestMarshalCanonicalRejectsAbsent(t *testing.T) {
	_, err := MarshalCanonical(Absent{})
	assert.ErrorContains(t, err, "absent marker")

	// Nested absent is rejected too
	_, err = MarshalCanonical(Obj(P("liked", Absent{})))
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": 2.5})
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := Obj(
		P("trace", Array{Int(1), Int(2), Int(3)}),
		P("name", String("counter")),
		P("nested", Obj(P("b", Bool(false)), P("a", Bool(true)))),
	)

	d1, err := MarshalCanonical(obj)
	require.NoError(t, err)
	d2, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "canonical form must be byte-identical across calls")
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (e + U+0301) must serialize identically
	composed := String("café")
	decomposed := String("café")

	d1, err := MarshalCanonical(composed)
	require.NoError(t, err)
	d2, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1D400 encodes as a surrogate pair (leading unit 0xD835), which sorts
	// BEFORE U+FF21 (0xFF21) in UTF-16 code units. UTF-8 byte order would put
	// U+1D400 last - the divergence this comparator exists for.
	obj := Object{
		"\U0001d400": Int(3),
		"Ａ":     Int(2),
		"z":          Int(1),
	}
	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"`+"\U0001d400"+`":3,"`+"Ａ"+`":2}`, string(data))
}
