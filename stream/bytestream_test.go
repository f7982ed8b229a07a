package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.WriteU8(0xAB))
	require.NoError(t, s.WriteU16(0x1234))
	require.NoError(t, s.WriteU32(0xDEADBEEF))
	require.NoError(t, s.WriteDouble(1.5))
	require.NoError(t, s.WriteFloat(2.5))

	r := FromBytes(s.Bytes())
	u8, err := r.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	d, err := r.ReadDouble()
	require.NoError(t, err)
	require.Equal(t, 1.5, d)

	f, err := r.ReadFloat()
	require.NoError(t, err)
	require.Equal(t, float32(2.5), f)
}

func TestReadPastEndFails(t *testing.T) {
	s := FromBytes([]byte{0x01})
	_, err := s.ReadU16()
	require.Error(t, err)
}

func TestSeekTellTruncate(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3, 4, 5})
	require.Equal(t, 0, s.Tell())
	require.NoError(t, s.Seek(3))
	require.Equal(t, 2, s.Remaining())
	require.NoError(t, s.Truncate(3))
	require.Equal(t, 3, s.Len())
	require.Equal(t, 0, s.Remaining())

	require.Error(t, s.Seek(-1))
	require.Error(t, s.Truncate(10))
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := FromBytes([]byte{0x42, 0x43})
	b, err := s.PeekU8()
	require.NoError(t, err)
	require.Equal(t, byte(0x42), b)
	require.Equal(t, 0, s.Tell())

	v, err := s.ReadU8()
	require.NoError(t, err)
	require.Equal(t, byte(0x42), v)
}

func TestReadUTF8(t *testing.T) {
	s := FromBytes([]byte("hello"))
	text, err := s.ReadUTF8(5)
	require.NoError(t, err)
	require.Equal(t, "hello", text)

	bad := FromBytes([]byte{0xff, 0xfe, 0xfd})
	_, err = bad.ReadUTF8(3)
	require.Error(t, err)
}

func TestReadWriteMultibyteISO88591(t *testing.T) {
	s := New()
	require.NoError(t, s.WriteMultibyte("café", "iso-8859-1"))

	r := FromBytes(s.Bytes())
	text, err := r.ReadMultibyte(r.Remaining(), "iso-8859-1")
	require.NoError(t, err)
	require.Equal(t, "café", text)
}

func TestUnknownCharset(t *testing.T) {
	s := New()
	require.Error(t, s.WriteMultibyte("x", "ebcdic"))

	r := FromBytes([]byte{0x00})
	_, err := r.ReadMultibyte(1, "ebcdic")
	require.Error(t, err)
}
