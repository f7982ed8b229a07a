package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCodecErrorClassification(t *testing.T) {
	root := stdErrors.New("root cause")

	pe := &ParseError{Op: "decode.marker", Err: root}
	require.True(t, IsCodecError(pe))
	require.True(t, stdErrors.Is(pe, root))

	var target *ParseError
	require.True(t, stdErrors.As(pe, &target))
	require.Equal(t, "decode.marker", target.Op)

	require.True(t, IsCodecError(&MalformedObject{Op: "decode.object"}))
	require.True(t, IsCodecError(&IndexOutOfRange{Index: 5, Size: 2}))
	require.True(t, IsCodecError(&AliasConflict{Alias: "com.example.Foo"}))
	require.True(t, IsCodecError(&UnresolvedAlias{Alias: "com.example.Foo"}))
	require.True(t, IsCodecError(&OutOfReferenceSlots{Limit: 1 << 16}))
}

func TestIsCodecErrorNegative(t *testing.T) {
	require.False(t, IsCodecError(nil))
	require.False(t, IsCodecError(stdErrors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	root := stdErrors.New("short read")
	wrapped := Wrap("stream.readU8", root)
	require.Error(t, wrapped)
	require.True(t, stdErrors.Is(wrapped, root))
	require.Contains(t, wrapped.Error(), "stream.readU8")

	require.Nil(t, Wrap("noop", nil))
}

func TestErrorMessages(t *testing.T) {
	require.Equal(t, `amf: alias "com.example.Foo" already registered to a different type`, (&AliasConflict{Alias: "com.example.Foo"}).Error())
	require.Equal(t, `amf: unresolved class alias "com.example.Foo"`, (&UnresolvedAlias{Alias: "com.example.Foo"}).Error())
	require.Equal(t, "amf: reference index 5 out of range (table holds 2 entries)", (&IndexOutOfRange{Index: 5, Size: 2}).Error())
	require.Contains(t, (&OutOfReferenceSlots{Limit: 65536}).Error(), "65,536")
}
