// Package amf3 is the escape hatch the AMF0 dispatcher transfers control to
// when it encounters marker 0x11 (spec.md's SwitchAMF3). It is deliberately
// thin: spec.md frames full AMF3 support as "an analogous layer sharing the
// same abstractions" that this repo's hard engineering (the AMF0 codec)
// does not need to reimplement. What it decodes is the handful of AMF3
// primitive markers that actually appear in practice ahead of a full
// object/array/trait implementation — Undefined, Null, Boolean, Integer
// (U29 varint), Double, and String — grounded on
// _examples/other_examples/a9f8a1d5_ssungk-ertmp__pkg-amf-amf_common.go.go
// and its sibling decoder/encoder files.
package amf3

import (
	"fmt"

	codecerrors "github.com/casio/amfcodec/internal/errors"
)

// Marker is an AMF3 type marker.
type Marker byte

const (
	UndefinedMarker Marker = 0x00
	NullMarker      Marker = 0x01
	FalseMarker     Marker = 0x02
	TrueMarker      Marker = 0x03
	IntegerMarker   Marker = 0x04
	DoubleMarker    Marker = 0x05
	StringMarker    Marker = 0x06
	XMLDocMarker    Marker = 0x07
	DateMarker      Marker = 0x08
	ArrayMarker     Marker = 0x09
	ObjectMarker    Marker = 0x0A
	XMLMarker       Marker = 0x0B
	ByteArrayMarker Marker = 0x0C
)

// ErrUnsupportedType is returned for AMF3 markers beyond the primitive
// subset this package implements (Array, Object, XML, ByteArray, and
// anything with a trait table).
var ErrUnsupportedType = fmt.Errorf("amf3: complex type not supported by this codec's AMF3 escape hatch")

// Value is a decoded AMF3 primitive.
type Value struct {
	Marker Marker
	// Value holds a bool, int32, float64, or string depending on Marker;
	// nil for Undefined/Null.
	Value any
}

// byteReader is the minimal stream surface ReadElement needs; amf0.Parser
// satisfies it via its underlying stream.ByteStream.
type byteReader interface {
	ReadU8() (uint8, error)
}

// byteWriter is the symmetric write-side surface.
type byteWriter interface {
	WriteU8(uint8) error
}

// ReadElement reads one AMF3 primitive value (including its leading
// marker) from r.
func ReadElement(r interface {
	byteReader
	ReadDouble() (float64, error)
	ReadUTF8(n int) (string, error)
}) (Value, error) {
	m, err := r.ReadU8()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf3.read.marker", Err: err}
	}
	switch Marker(m) {
	case UndefinedMarker, NullMarker:
		return Value{Marker: Marker(m)}, nil
	case FalseMarker:
		return Value{Marker: FalseMarker, Value: false}, nil
	case TrueMarker:
		return Value{Marker: TrueMarker, Value: true}, nil
	case IntegerMarker:
		n, err := readU29(r)
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: IntegerMarker, Value: signExtendU29(n)}, nil
	case DoubleMarker:
		d, err := r.ReadDouble()
		if err != nil {
			return Value{}, &codecerrors.UnexpectedEof{Op: "amf3.read.double", Err: err}
		}
		return Value{Marker: DoubleMarker, Value: d}, nil
	case StringMarker:
		s, n, err := readU29String(r)
		if err != nil {
			return Value{}, err
		}
		_ = n
		return Value{Marker: StringMarker, Value: s}, nil
	default:
		return Value{}, &codecerrors.ParseError{Op: "amf3.read", Err: ErrUnsupportedType}
	}
}

// WriteElement writes v (including its marker) to w. Only the primitive
// markers ReadElement understands are accepted.
func WriteElement(w interface {
	byteWriter
	WriteDouble(float64) error
	WriteUTF8(string) error
}, v Value) error {
	if err := w.WriteU8(byte(v.Marker)); err != nil {
		return err
	}
	switch v.Marker {
	case UndefinedMarker, NullMarker, FalseMarker, TrueMarker:
		return nil
	case IntegerMarker:
		return writeU29(w, uint32(v.Value.(int32))&0x1FFFFFFF)
	case DoubleMarker:
		return w.WriteDouble(v.Value.(float64))
	case StringMarker:
		s := v.Value.(string)
		if err := writeU29(w, uint32(len(s))<<1|1); err != nil {
			return err
		}
		return w.WriteUTF8(s)
	default:
		return &codecerrors.UnrepresentableValue{Op: "amf3.write", Err: ErrUnsupportedType}
	}
}

// readU29 decodes AMF3's variable-length U29 integer (grounded on
// ssungk-ertmp's decodeU29).
func readU29(r byteReader) (uint32, error) {
	var result uint32
	for i := 0; i < 3; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, &codecerrors.UnexpectedEof{Op: "amf3.read.u29", Err: err}
		}
		if b < 0x80 {
			return (result << 7) | uint32(b), nil
		}
		result = (result << 7) | uint32(b&0x7F)
	}
	b, err := r.ReadU8()
	if err != nil {
		return 0, &codecerrors.UnexpectedEof{Op: "amf3.read.u29", Err: err}
	}
	return (result << 8) | uint32(b), nil
}

func signExtendU29(v uint32) int32 {
	if v&0x10000000 != 0 {
		return int32(v | 0xE0000000)
	}
	return int32(v)
}

func readU29String(r interface {
	byteReader
	ReadUTF8(n int) (string, error)
}) (string, uint32, error) {
	u29, err := readU29(r)
	if err != nil {
		return "", 0, err
	}
	if u29&1 == 0 {
		return "", 0, &codecerrors.ParseError{Op: "amf3.read.string", Err: ErrUnsupportedType}
	}
	length := int(u29 >> 1)
	if length == 0 {
		return "", u29, nil
	}
	s, err := r.ReadUTF8(length)
	if err != nil {
		return "", 0, err
	}
	return s, u29, nil
}

// writeU29 encodes v (already shifted/flagged by the caller) as AMF3's
// variable-length U29 integer.
func writeU29(w byteWriter, v uint32) error {
	switch {
	case v < 0x80:
		return w.WriteU8(byte(v))
	case v < 0x4000:
		if err := w.WriteU8(byte(v>>7 | 0x80)); err != nil {
			return err
		}
		return w.WriteU8(byte(v & 0x7F))
	case v < 0x200000:
		if err := w.WriteU8(byte(v>>14 | 0x80)); err != nil {
			return err
		}
		if err := w.WriteU8(byte(v>>7&0x7F | 0x80)); err != nil {
			return err
		}
		return w.WriteU8(byte(v & 0x7F))
	default:
		if err := w.WriteU8(byte(v>>22 | 0x80)); err != nil {
			return err
		}
		if err := w.WriteU8(byte(v>>15&0x7F | 0x80)); err != nil {
			return err
		}
		if err := w.WriteU8(byte(v>>8&0x7F | 0x80)); err != nil {
			return err
		}
		return w.WriteU8(byte(v))
	}
}
