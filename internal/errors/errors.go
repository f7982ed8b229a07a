// Package errors defines the codec's error kinds and the helpers used to
// classify and wrap them. Every kind named in the spec (ParseError,
// UnexpectedEof, MalformedObject, IndexOutOfRange, EncodingError,
// UnrepresentableValue, AliasConflict, UnresolvedAlias, OutOfReferenceSlots)
// has a concrete Go type here. The stream- and value-level kinds carry the
// operation that failed and the underlying cause; IndexOutOfRange,
// AliasConflict, UnresolvedAlias and OutOfReferenceSlots carry the index,
// alias or limit involved instead.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// codecMarker is implemented by every error kind declared in this package,
// so IsCodecError can classify an error chain without enumerating types.
type codecMarker interface {
	error
	isCodec()
}

// ParseError indicates an unknown or disallowed marker, or any other
// violated structural expectation encountered while reading a value.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("amf: parse error: %s", e.Op)
	}
	return fmt.Sprintf("amf: parse error: %s: %v", e.Op, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) isCodec()      {}

// UnexpectedEof indicates the underlying stream was exhausted mid-value.
type UnexpectedEof struct {
	Op  string
	Err error
}

func (e *UnexpectedEof) Error() string {
	return fmt.Sprintf("amf: unexpected eof: %s: %v", e.Op, e.Err)
}
func (e *UnexpectedEof) Unwrap() error { return e.Err }
func (e *UnexpectedEof) isCodec()      {}

// MalformedObject indicates an object body that did not terminate on a
// zero-length key followed by the ObjectTerm marker.
type MalformedObject struct {
	Op  string
	Err error
}

func (e *MalformedObject) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("amf: malformed object: %s", e.Op)
	}
	return fmt.Sprintf("amf: malformed object: %s: %v", e.Op, e.Err)
}
func (e *MalformedObject) Unwrap() error { return e.Err }
func (e *MalformedObject) isCodec()      {}

// IndexOutOfRange indicates a Reference pointed at a slot that has not been
// populated yet, or past the reference table's high-water mark.
type IndexOutOfRange struct {
	Index int
	Size  int
}

func (e *IndexOutOfRange) Error() string {
	return fmt.Sprintf("amf: reference index %d out of range (table holds %d entries)", e.Index, e.Size)
}
func (e *IndexOutOfRange) isCodec() {}

// EncodingError indicates invalid UTF-8 (or other charset) bytes on read, or
// text that cannot be encoded to the target charset on write.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("amf: encoding error: %s: %v", e.Op, e.Err)
}
func (e *EncodingError) Unwrap() error { return e.Err }
func (e *EncodingError) isCodec()      {}

// UnrepresentableValue indicates a host value with no lossless AMF
// representation (an integer outside the double-safe range, an opaque
// value with no attribute access, and so on).
type UnrepresentableValue struct {
	Op  string
	Err error
}

func (e *UnrepresentableValue) Error() string {
	return fmt.Sprintf("amf: unrepresentable value: %s: %v", e.Op, e.Err)
}
func (e *UnrepresentableValue) Unwrap() error { return e.Err }
func (e *UnrepresentableValue) isCodec()      {}

// AliasConflict indicates the registry already maps the alias to a
// different type than the one being registered.
type AliasConflict struct {
	Alias string
}

func (e *AliasConflict) Error() string {
	return fmt.Sprintf("amf: alias %q already registered to a different type", e.Alias)
}
func (e *AliasConflict) isCodec() {}

// UnresolvedAlias indicates a strict-mode parse encountered a TypedObject
// whose alias has no registered descriptor.
type UnresolvedAlias struct {
	Alias string
}

func (e *UnresolvedAlias) Error() string {
	return fmt.Sprintf("amf: unresolved class alias %q", e.Alias)
}
func (e *UnresolvedAlias) isCodec() {}

// OutOfReferenceSlots indicates a reference table has saturated its 2^16
// entry bound.
type OutOfReferenceSlots struct {
	Limit int
}

func (e *OutOfReferenceSlots) Error() string {
	return fmt.Sprintf("amf: reference table exhausted (limit %s entries)", humanize.Comma(int64(e.Limit)))
}
func (e *OutOfReferenceSlots) isCodec() {}

// Wrap attaches op as a message prefix to cause using
// github.com/pkg/errors.WithMessage; no stack trace is recorded, and cause
// stays reachable through errors.Is/As. Returns nil if cause is nil.
func Wrap(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithMessage(cause, op)
}

// IsCodecError reports whether err is, or wraps, one of this package's
// error kinds.
func IsCodecError(err error) bool {
	if err == nil {
		return false
	}
	var m codecMarker
	return stdErrors.As(err, &m)
}
