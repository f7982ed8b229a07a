// Package stream implements ByteStream, the seekable, growable byte buffer
// with big-endian primitive readers/writers and a codepoint-aware string
// interface that the rest of the codec is built on (spec.md §4.1).
//
// ByteStream owns exactly one buffer and one cursor; it does no I/O of its
// own and is not safe for concurrent use, matching the single-threaded,
// single-owner model in spec.md §5.
package stream

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"

	"github.com/casio/amfcodec/internal/bufpool"
	codecerrors "github.com/casio/amfcodec/internal/errors"
)

// ByteStream is a growable, seekable byte buffer with big-endian primitive
// I/O. The zero value is not usable; construct with New or FromBytes.
type ByteStream struct {
	bb  *bytebufferpool.ByteBuffer
	pos int
}

// New returns an empty, writable ByteStream backed by a pooled buffer.
func New() *ByteStream {
	return &ByteStream{bb: bytebufferpool.Get()}
}

// FromBytes returns a ByteStream whose contents are a copy of b, positioned
// at the start, ready for reading.
func FromBytes(b []byte) *ByteStream {
	s := New()
	s.bb.Write(b)
	return s
}

// Release returns the stream's backing buffer to the pool. Callers that
// hold a ByteStream for the lifetime of one encode/decode call should
// Release it when done; Release is not required for correctness, only for
// reuse.
func (s *ByteStream) Release() {
	if s.bb != nil {
		bytebufferpool.Put(s.bb)
		s.bb = nil
	}
}

// Len returns the total number of bytes written to the stream so far.
func (s *ByteStream) Len() int { return s.bb.Len() }

// Remaining returns the number of unread bytes ahead of the cursor.
func (s *ByteStream) Remaining() int { return s.bb.Len() - s.pos }

// Tell returns the current cursor position.
func (s *ByteStream) Tell() int { return s.pos }

// Seek moves the cursor to an absolute offset. Seeking past the end of the
// written data is allowed; seeking before the start is a ParseError. The
// cursor only affects reads: every Write method appends at the end of the
// buffer regardless of it.
func (s *ByteStream) Seek(offset int) error {
	if offset < 0 {
		return &codecerrors.ParseError{Op: "stream.seek", Err: errNegativeOffset(offset)}
	}
	s.pos = offset
	return nil
}

// Truncate discards everything from byte n onward. If the cursor was past
// n, it is pulled back to n.
func (s *ByteStream) Truncate(n int) error {
	if n < 0 || n > s.bb.Len() {
		return &codecerrors.ParseError{Op: "stream.truncate", Err: errBadTruncate(n, s.bb.Len())}
	}
	s.bb.B = s.bb.B[:n]
	if s.pos > n {
		s.pos = n
	}
	return nil
}

// Bytes returns the full written content of the stream (spec.md's
// getvalue()). The returned slice aliases the stream's internal buffer and
// must not be retained past the next mutating call.
func (s *ByteStream) Bytes() []byte { return s.bb.B }

func (s *ByteStream) need(n int) error {
	if s.Remaining() < n {
		return &codecerrors.UnexpectedEof{Op: "stream.read", Err: errShortRead(n, s.Remaining())}
	}
	return nil
}

func (s *ByteStream) readN(n int) ([]byte, error) {
	if err := s.need(n); err != nil {
		return nil, err
	}
	b := s.bb.B[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// PeekU8 returns the next byte without advancing the cursor.
func (s *ByteStream) PeekU8() (byte, error) {
	if err := s.need(1); err != nil {
		return 0, err
	}
	return s.bb.B[s.pos], nil
}

// ReadU8 reads one unsigned byte.
func (s *ByteStream) ReadU8() (uint8, error) {
	b, err := s.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads one signed byte.
func (s *ByteStream) ReadI8() (int8, error) {
	v, err := s.ReadU8()
	return int8(v), err
}

// ReadU16 reads a big-endian unsigned 16-bit integer.
func (s *ByteStream) ReadU16() (uint16, error) {
	b, err := s.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadI16 reads a big-endian signed 16-bit integer.
func (s *ByteStream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian unsigned 32-bit integer.
func (s *ByteStream) ReadU32() (uint32, error) {
	b, err := s.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI32 reads a big-endian signed 32-bit integer.
func (s *ByteStream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

// ReadDouble reads a big-endian IEEE-754 double.
func (s *ByteStream) ReadDouble() (float64, error) {
	b, err := s.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadFloat reads a big-endian IEEE-754 single-precision float.
func (s *ByteStream) ReadFloat() (float32, error) {
	b, err := s.readN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// ReadUTF8 consumes n bytes and validates them as UTF-8, returning the
// decoded text. Invalid sequences fail with EncodingError.
func (s *ByteStream) ReadUTF8(n int) (string, error) {
	b, err := s.readN(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &codecerrors.EncodingError{Op: "stream.readUTF8", Err: errInvalidUTF8}
	}
	return string(b), nil
}

// ReadMultibyte consumes n bytes and decodes them via the named charset
// (at minimum "utf-8" and "iso-8859-1", per spec.md §4.1). Decoding is
// delegated to golang.org/x/text/encoding so additional charsets can be
// added by extending the charset table in charset.go rather than hand
// rolling decode tables.
func (s *ByteStream) ReadMultibyte(n int, charset string) (string, error) {
	raw, err := s.readN(n)
	if err != nil {
		return "", err
	}
	scratch := bufpool.Get(len(raw))
	defer bufpool.Put(scratch)
	copy(scratch, raw)
	text, err := decodeCharset(charset, scratch)
	if err != nil {
		return "", &codecerrors.EncodingError{Op: "stream.readMultibyte", Err: err}
	}
	return text, nil
}

// WriteU8 appends one unsigned byte.
func (s *ByteStream) WriteU8(v uint8) error {
	_, err := s.bb.Write([]byte{v})
	return err
}

// WriteI8 appends one signed byte.
func (s *ByteStream) WriteI8(v int8) error { return s.WriteU8(uint8(v)) }

// WriteU16 appends a big-endian unsigned 16-bit integer.
func (s *ByteStream) WriteU16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := s.bb.Write(b[:])
	return err
}

// WriteI16 appends a big-endian signed 16-bit integer.
func (s *ByteStream) WriteI16(v int16) error { return s.WriteU16(uint16(v)) }

// WriteU32 appends a big-endian unsigned 32-bit integer.
func (s *ByteStream) WriteU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := s.bb.Write(b[:])
	return err
}

// WriteI32 appends a big-endian signed 32-bit integer.
func (s *ByteStream) WriteI32(v int32) error { return s.WriteU32(uint32(v)) }

// WriteDouble appends a big-endian IEEE-754 double.
func (s *ByteStream) WriteDouble(v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	_, err := s.bb.Write(b[:])
	return err
}

// WriteFloat appends a big-endian IEEE-754 single-precision float.
func (s *ByteStream) WriteFloat(v float32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	_, err := s.bb.Write(b[:])
	return err
}

// WriteUTF8 appends s's UTF-8 bytes verbatim (no length prefix; callers that
// need a length-prefixed string use the amf0 package's string encoders).
func (s *ByteStream) WriteUTF8(text string) error {
	_, err := s.bb.WriteString(text)
	return err
}

// WriteMultibyte encodes text via the named charset and appends the result.
func (s *ByteStream) WriteMultibyte(text, charset string) error {
	raw, err := encodeCharset(charset, text)
	if err != nil {
		return &codecerrors.EncodingError{Op: "stream.writeMultibyte", Err: err}
	}
	_, err = s.bb.Write(raw)
	return err
}

// WriteBytes appends raw bytes verbatim.
func (s *ByteStream) WriteBytes(b []byte) error {
	_, err := s.bb.Write(b)
	return err
}
