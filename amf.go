// Package amfcodec is the host-facing entry point: Encode/Decode a single
// AMF0 value, and register/unregister the TypedObject class aliases that
// RegisterClass and the registry package manage (spec.md §4.2, §4.3).
package amfcodec

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/casio/amfcodec/amf0"
	codecerrors "github.com/casio/amfcodec/internal/errors"
	"github.com/casio/amfcodec/internal/logger"
	"github.com/casio/amfcodec/registry"
	"github.com/casio/amfcodec/stream"
)

// Encode serializes v as a single AMF0 value and returns its wire bytes.
func Encode(v any) ([]byte, error) {
	return EncodeWithRegistry(v, registry.Default())
}

// EncodeWithRegistry is Encode, resolving TypedObject candidates against
// reg instead of the process-wide default registry.
func EncodeWithRegistry(v any, reg *registry.ClassRegistry) ([]byte, error) {
	sessionID := uuid.NewString()
	log := logger.WithSession(logger.Logger(), sessionID, "encode")
	log.Debug().Str("go_type", goTypeName(v)).Msg("encoding value")

	s := stream.New()
	defer s.Release()
	if err := amf0.NewEncoderWithRegistry(s, reg).WriteElement(v); err != nil {
		log.Debug().Err(err).Msg("encode failed")
		return nil, codecerrors.Wrap("amf.encode", err)
	}
	out := make([]byte, len(s.Bytes()))
	copy(out, s.Bytes())
	return out, nil
}

// Decode parses a single AMF0 value from b. Trailing bytes beyond the first
// value are ignored, matching the conventional single-value Unmarshal
// contract the teacher's generic decoder used for RTMP command payloads.
func Decode(b []byte) (amf0.Value, error) {
	return DecodeWithRegistry(b, registry.Default())
}

// DecodeWithRegistry is Decode, resolving TypedObject aliases against reg.
func DecodeWithRegistry(b []byte, reg *registry.ClassRegistry) (amf0.Value, error) {
	sessionID := uuid.NewString()
	log := logger.WithSession(logger.Logger(), sessionID, "decode")
	log.Debug().Int("byte_len", len(b)).Msg("decoding value")

	s := stream.FromBytes(b)
	defer s.Release()
	v, err := amf0.NewParserWithRegistry(s, reg).ReadElement()
	if err != nil {
		log.Debug().Err(err).Msg("decode failed")
		return amf0.Value{}, codecerrors.Wrap("amf.decode", err)
	}
	return v, nil
}

// DecodeAll parses every value concatenated in b, stopping cleanly at
// exhaustion. This is the shape multi-value wire formats built on top of
// AMF0 (RTMP command payloads, AMF remoting bodies) actually need.
func DecodeAll(b []byte) ([]amf0.Value, error) {
	s := stream.FromBytes(b)
	defer s.Release()
	p := amf0.NewParser(s)

	var out []amf0.Value
	for s.Remaining() > 0 {
		v, err := p.ReadElement()
		if err != nil {
			return nil, codecerrors.Wrap("amf.decodeAll", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func goTypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// RegisterClass maps alias to t in the default registry, per spec.md §4.2.
func RegisterClass(t reflect.Type, alias string, opts registry.Options) error {
	return registry.Default().Register(t, alias, opts)
}

// UnregisterClass removes alias's mapping from the default registry, if any.
func UnregisterClass(alias string) {
	registry.Default().Unregister(alias)
}
