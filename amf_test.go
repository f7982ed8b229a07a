package amfcodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casio/amfcodec/amf0"
	"github.com/casio/amfcodec/registry"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b, err := Encode(map[string]any{"foo": "bar"})
	require.NoError(t, err)

	v, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, amf0.Object, v.Marker)

	obj := v.Value.(*amf0.ObjectValue)
	got, ok := obj.Get("foo")
	require.True(t, ok)
	require.Equal(t, "bar", got.Value)
}

func TestDecodeAllConcatenatedValues(t *testing.T) {
	first, err := Encode("connect")
	require.NoError(t, err)
	second, err := Encode(1.0)
	require.NoError(t, err)

	values, err := DecodeAll(append(first, second...))
	require.NoError(t, err)
	require.Len(t, values, 2)
	require.Equal(t, "connect", values[0].Value)
	require.Equal(t, 1.0, values[1].Value)
}

func TestRegisterAndDecodeTypedObject(t *testing.T) {
	type point struct {
		X float64
		Y float64
	}
	require.NoError(t, RegisterClass(reflect.TypeOf(point{}), "com.example.Point", registry.Options{}))
	defer UnregisterClass("com.example.Point")

	b, err := Encode(&point{X: 1, Y: 2})
	require.NoError(t, err)

	v, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, amf0.TypedObject, v.Marker)
	require.Equal(t, "com.example.Point", v.Alias)
}
