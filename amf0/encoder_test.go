package amf0

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casio/amfcodec/registry"
	"github.com/casio/amfcodec/stream"
)

func encodeBytes(t *testing.T, v any) []byte {
	t.Helper()
	s := stream.New()
	defer s.Release()
	require.NoError(t, NewEncoder(s).WriteElement(v))
	out := make([]byte, len(s.Bytes()))
	copy(out, s.Bytes())
	return out
}

func TestEncodeNumberZero(t *testing.T) {
	require.Equal(t, []byte{0x00, 0, 0, 0, 0, 0, 0, 0, 0}, encodeBytes(t, 0.0))
}

func TestEncodeBooleans(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x01}, encodeBytes(t, true))
	require.Equal(t, []byte{0x01, 0x00}, encodeBytes(t, false))
}

func TestEncodeShortString(t *testing.T) {
	got := encodeBytes(t, "hello")
	want := append([]byte{0x02, 0x00, 0x05}, []byte("hello")...)
	require.Equal(t, want, got)
}

func TestEncodeLongString(t *testing.T) {
	big := make([]byte, String16Limit+1)
	for i := range big {
		big[i] = 'a'
	}
	got := encodeBytes(t, string(big))
	require.Equal(t, byte(LongString), got[0])
	require.Len(t, got, 1+4+len(big))
}

func TestEncodeArray(t *testing.T) {
	got := encodeBytes(t, []any{1.0, 2.0, 3.0})
	require.Equal(t, byte(Array), got[0])
}

func TestEncodeObjectFromMap(t *testing.T) {
	got := encodeBytes(t, map[string]any{"a": "b"})
	require.Equal(t, byte(Object), got[0])
	require.Equal(t, byte(ObjectTerm), got[len(got)-1])
}

func TestEncodeMixedArrayFromNonStringMap(t *testing.T) {
	got := encodeBytes(t, map[int]any{1: "x"})
	require.Equal(t, byte(MixedArray), got[0])
}

func TestEncodeDate(t *testing.T) {
	got := encodeBytes(t, &DateValue{Millis: 936835200000, TZOffsetMinutes: 0})
	require.Equal(t, byte(Date), got[0])
	require.Len(t, got, 1+8+2)
}

func TestEncodeSelfReferencingArray(t *testing.T) {
	arr := &ArrayValue{}
	arr.Elements = []Value{{Marker: Array, Value: arr}}

	s := stream.New()
	defer s.Release()
	require.NoError(t, NewEncoder(s).WriteElement(Value{Marker: Array, Value: arr}))

	b := s.Bytes()
	require.Equal(t, byte(Array), b[0])
	// Element body is a Reference back to slot 0.
	tail := b[len(b)-3:]
	require.Equal(t, byte(Reference), tail[0])
}

func TestEncodeOversizedIntegerFails(t *testing.T) {
	s := stream.New()
	defer s.Release()
	err := NewEncoder(s).WriteElement(int64(1) << 62)
	require.Error(t, err)
}

func TestEncodeXMLDocument(t *testing.T) {
	got := encodeBytes(t, XML("<a/>"))
	require.Equal(t, byte(XMLDocument), got[0])

	n := uint32(got[1])<<24 | uint32(got[2])<<16 | uint32(got[3])<<8 | uint32(got[4])
	body := string(got[5 : 5+n])
	require.Contains(t, body, "<?xml")
	require.Contains(t, body, "<a/>")
}

func TestEncodeXMLDocumentPreservesExistingProlog(t *testing.T) {
	got := encodeBytes(t, XML(`<?xml version="1.0"?><a/>`))
	n := uint32(got[1])<<24 | uint32(got[2])<<16 | uint32(got[3])<<8 | uint32(got[4])
	body := string(got[5 : 5+n])
	require.Equal(t, 1, strings.Count(body, "<?xml"))
}

func TestEncodeFuncAsUnsupported(t *testing.T) {
	got := encodeBytes(t, func() {})
	require.Equal(t, []byte{byte(Unsupported)}, got)
}

// TestExternalizableRoundTrip covers encode -> decode -> re-encode for a
// registered class with externalization hooks. The re-encoded bytes must
// match the original exactly: writeValue's TypedObject case has to consult
// the registry and call WriteExternal rather than emitting a plain body.
func TestExternalizableRoundTrip(t *testing.T) {
	type vector struct {
		X, Y float64
	}

	readExternal := func(instance any, src registry.ExternalReader) error {
		p := instance.(*vector)
		x, err := src.ReadDouble()
		if err != nil {
			return err
		}
		y, err := src.ReadDouble()
		if err != nil {
			return err
		}
		p.X, p.Y = x, y
		return nil
	}
	writeExternal := func(instance any, dst registry.ExternalWriter) error {
		p := instance.(*vector)
		if err := dst.WriteDouble(p.X); err != nil {
			return err
		}
		return dst.WriteDouble(p.Y)
	}

	cases := []struct {
		name string
		v    vector
	}{
		{"origin", vector{0, 0}},
		{"positive", vector{3.5, -2.25}},
		{"negative", vector{-1, -1}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			reg := registry.New()
			require.NoError(t, reg.Register(reflect.TypeOf(vector{}), "com.example.Vector", registry.Options{
				ReadExternal:  readExternal,
				WriteExternal: writeExternal,
			}))

			s := stream.New()
			defer s.Release()
			require.NoError(t, NewEncoderWithRegistry(s, reg).WriteElement(&tc.v))
			original := make([]byte, len(s.Bytes()))
			copy(original, s.Bytes())

			r := stream.FromBytes(original)
			defer r.Release()
			decoded, err := NewParserWithRegistry(r, reg).ReadElement()
			require.NoError(t, err)
			require.Equal(t, TypedObject, decoded.Marker)
			require.Equal(t, "com.example.Vector", decoded.Alias)

			out := stream.New()
			defer out.Release()
			require.NoError(t, NewEncoderWithRegistry(out, reg).WriteElement(decoded))

			require.Equal(t, original, out.Bytes())
		})
	}
}
