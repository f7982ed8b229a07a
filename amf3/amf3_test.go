package amf3

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casio/amfcodec/stream"
)

func TestRoundTripPrimitives(t *testing.T) {
	cases := []Value{
		{Marker: NullMarker},
		{Marker: UndefinedMarker},
		{Marker: TrueMarker, Value: true},
		{Marker: FalseMarker, Value: false},
		{Marker: IntegerMarker, Value: int32(42)},
		{Marker: IntegerMarker, Value: int32(-1)},
		{Marker: DoubleMarker, Value: 3.25},
		{Marker: StringMarker, Value: "hello amf3"},
		{Marker: StringMarker, Value: ""},
	}

	for _, c := range cases {
		s := stream.New()
		require.NoError(t, WriteElement(s, c))

		r := stream.FromBytes(s.Bytes())
		got, err := ReadElement(r)
		require.NoError(t, err)
		require.Equal(t, c.Marker, got.Marker)
		if c.Marker == NullMarker || c.Marker == UndefinedMarker {
			continue
		}
		require.Equal(t, c.Value, got.Value)
	}
}

func TestUnsupportedMarkerErrors(t *testing.T) {
	s := stream.New()
	require.NoError(t, s.WriteU8(byte(ObjectMarker)))

	r := stream.FromBytes(s.Bytes())
	_, err := ReadElement(r)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestIntegerSignExtension(t *testing.T) {
	require.Equal(t, int32(-1), signExtendU29(0x1FFFFFFF))
	require.Equal(t, int32(0), signExtendU29(0))
	require.Equal(t, int32(268435455), signExtendU29(0x0FFFFFFF))
}
