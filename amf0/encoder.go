package amf0

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	codecerrors "github.com/casio/amfcodec/internal/errors"
	"github.com/casio/amfcodec/internal/logger"
	"github.com/casio/amfcodec/registry"
	"github.com/casio/amfcodec/stream"
)

// XML wraps a string so Encoder emits it as an AMF0 XMLDocument rather than
// a plain String. Plain strings (even ones that happen to contain markup)
// always encode as String/LongString; XML is the only way a caller asks for
// the XMLDocument marker, per spec.md §9's resolution of that ambiguity.
type XML string

// maxSafeInteger is the largest (and, negated, the smallest) integer a
// float64 can represent without loss, per IEEE-754 double's 53-bit
// mantissa. Encoder rejects integers outside this range rather than
// silently truncate them into Number.
const maxSafeInteger = 1<<53 - 1

var errIntegerOverflowsDouble = fmt.Errorf("integer exceeds the range a Number can carry without loss")
var errUnsupportedGoValue = fmt.Errorf("no AMF0 representation for this Go value")

// Encoder serializes host values onto an AMF0 byte stream. One Encoder
// instance is meant to live for one top-level Encode call: its reference
// table is scoped to that session, per spec.md §4.4.
type Encoder struct {
	out      *stream.ByteStream
	refs     *encodeRefTable
	registry *registry.ClassRegistry
}

// NewEncoder wraps out using the default class registry.
func NewEncoder(out *stream.ByteStream) *Encoder {
	return NewEncoderWithRegistry(out, registry.Default())
}

// NewEncoderWithRegistry wraps out, resolving TypedObject candidates
// against reg instead of the process-wide default.
func NewEncoderWithRegistry(out *stream.ByteStream, reg *registry.ClassRegistry) *Encoder {
	return &Encoder{out: out, refs: newEncodeRefTable(), registry: reg}
}

// WriteElement encodes v, dispatching on its Go type per spec.md §4.3's
// type-fidelity table: bool before any numeric kind, double-safe integers
// and floats as Number, string-keyed maps as Object, other maps as
// MixedArray, slices as Array, time.Time as Date, XML as XMLDocument, and
// registered struct pointers as TypedObject (externalized when the
// registry carries hooks for it).
func (e *Encoder) WriteElement(v any) error {
	switch vv := v.(type) {
	case nil:
		return e.out.WriteU8(byte(Null))
	case Value:
		return e.writeValue(vv)
	case bool:
		return e.writeBoolean(vv)
	case string:
		return e.writeString(vv)
	case XML:
		return e.writeXML(string(vv))
	case time.Time:
		return e.writeDate(&DateValue{Millis: float64(vv.UnixMilli())})
	case *DateValue:
		return e.writeDate(vv)
	case float32:
		return e.writeNumber(float64(vv))
	case float64:
		return e.writeNumber(vv)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return e.writeIntegerKind(vv)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return e.writeSlice(rv)
	case reflect.Map:
		return e.writeMap(rv)
	case reflect.Ptr, reflect.Struct:
		return e.writeObjectLike(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		// Functions, channels, and other opaque values have no AMF0
		// representation; they still serialize, as the single-byte
		// Unsupported marker rather than failing the whole encode.
		return e.out.WriteU8(byte(Unsupported))
	default:
		return &codecerrors.UnrepresentableValue{Op: "amf0.encode", Err: fmt.Errorf("%w: %T", errUnsupportedGoValue, v)}
	}
}

func (e *Encoder) writeIntegerKind(v any) error {
	rv := reflect.ValueOf(v)
	var n int64
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > maxSafeInteger {
			return &codecerrors.UnrepresentableValue{Op: "amf0.encode.number", Err: errIntegerOverflowsDouble}
		}
		return e.writeNumber(float64(u))
	default:
		n = rv.Int()
	}
	if n > maxSafeInteger || n < -maxSafeInteger {
		return &codecerrors.UnrepresentableValue{Op: "amf0.encode.number", Err: errIntegerOverflowsDouble}
	}
	return e.writeNumber(float64(n))
}

func (e *Encoder) writeNumber(v float64) error {
	if err := e.out.WriteU8(byte(Number)); err != nil {
		return err
	}
	return e.out.WriteDouble(v)
}

func (e *Encoder) writeBoolean(v bool) error {
	if err := e.out.WriteU8(byte(Boolean)); err != nil {
		return err
	}
	var b uint8
	if v {
		b = 1
	}
	return e.out.WriteU8(b)
}

// writeString chooses String or LongString by length, per spec.md §8's
// boundary property at 2^16.
func (e *Encoder) writeString(s string) error {
	if len(s) >= String16Limit {
		if err := e.out.WriteU8(byte(LongString)); err != nil {
			return err
		}
		if err := e.out.WriteU32(uint32(len(s))); err != nil {
			return err
		}
		return e.out.WriteUTF8(s)
	}
	if err := e.out.WriteU8(byte(String)); err != nil {
		return err
	}
	if err := e.out.WriteU16(uint16(len(s))); err != nil {
		return err
	}
	return e.out.WriteUTF8(s)
}

const xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>`

// writeXML prefixes s with an XML prolog when it doesn't already carry one,
// matching pyamf's behavior for untyped XML values (spec.md §9).
func (e *Encoder) writeXML(s string) error {
	if !strings.HasPrefix(strings.TrimSpace(s), "<?xml") {
		s = xmlProlog + s
	}
	if err := e.out.WriteU8(byte(XMLDocument)); err != nil {
		return err
	}
	if err := e.out.WriteU32(uint32(len(s))); err != nil {
		return err
	}
	return e.out.WriteUTF8(s)
}

func (e *Encoder) writeDate(d *DateValue) error {
	if err := e.out.WriteU8(byte(Date)); err != nil {
		return err
	}
	if err := e.out.WriteDouble(d.Millis); err != nil {
		return err
	}
	return e.out.WriteI16(d.TZOffsetMinutes)
}

// writeRef checks the reference table for ptr's identity. If already seen,
// it writes a Reference marker and returns (true, nil) so the caller skips
// emitting the body; otherwise it returns (false, nil) and the caller must
// emit the body this time.
func (e *Encoder) writeRef(ptr uintptr) (bool, error) {
	slot, seen, err := e.refs.lookupOrAllocate(ptr)
	if err != nil {
		return false, err
	}
	if !seen {
		return false, nil
	}
	if err := e.out.WriteU8(byte(Reference)); err != nil {
		return false, err
	}
	return true, e.out.WriteU16(uint16(slot))
}

func (e *Encoder) writeSlice(rv reflect.Value) error {
	ptr, hasIdentity := identityOf(rv)
	if hasIdentity {
		if done, err := e.writeRef(ptr); err != nil || done {
			return err
		}
	}
	if err := e.out.WriteU8(byte(Array)); err != nil {
		return err
	}
	if err := e.out.WriteU32(uint32(rv.Len())); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := e.WriteElement(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeMap(rv reflect.Value) error {
	ptr, hasIdentity := identityOf(rv)
	if hasIdentity {
		if done, err := e.writeRef(ptr); err != nil || done {
			return err
		}
	}
	if rv.Type().Key().Kind() != reflect.String {
		return e.writeMixedArrayBody(rv)
	}
	if err := e.out.WriteU8(byte(Object)); err != nil {
		return err
	}
	if err := e.writeProperties(rv); err != nil {
		return err
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeMixedArrayBody(rv reflect.Value) error {
	if err := e.out.WriteU8(byte(MixedArray)); err != nil {
		return err
	}
	if err := e.out.WriteU32(uint32(rv.Len())); err != nil {
		return err
	}
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		if err := e.writeKey(key); err != nil {
			return err
		}
		if err := e.WriteElement(iter.Value().Interface()); err != nil {
			return err
		}
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeProperties(rv reflect.Value) error {
	iter := rv.MapRange()
	for iter.Next() {
		if err := e.writeKey(iter.Key().String()); err != nil {
			return err
		}
		if err := e.WriteElement(iter.Value().Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeKey(key string) error {
	if err := e.out.WriteU16(uint16(len(key))); err != nil {
		return err
	}
	return e.out.WriteUTF8(key)
}

func (e *Encoder) writeObjectEnd() error {
	if err := e.out.WriteU16(0); err != nil {
		return err
	}
	return e.out.WriteU8(byte(ObjectTerm))
}

// writeObjectLike handles struct values and pointers to structs: registered
// types become TypedObject (externalized when the descriptor carries
// hooks), everything else becomes a plain Object built from exported
// fields.
func (e *Encoder) writeObjectLike(rv reflect.Value) error {
	ptr, hasIdentity := identityOf(rv)
	if hasIdentity {
		if done, err := e.writeRef(ptr); err != nil || done {
			return err
		}
	}

	elem := rv
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return e.out.WriteU8(byte(Null))
		}
		elem = rv.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return &codecerrors.UnrepresentableValue{Op: "amf0.encode", Err: fmt.Errorf("%w: %s", errUnsupportedGoValue, rv.Type())}
	}

	desc := e.registry.LookupByType(elem.Type())
	if desc == nil {
		return e.writeStructAsObject(elem)
	}

	if err := e.out.WriteU8(byte(TypedObject)); err != nil {
		return err
	}
	if err := e.writeKey(desc.Alias); err != nil {
		return err
	}
	if desc.Externalizable() {
		logger.Logger().Debug().Str("class_alias", desc.Alias).Msg("writing externalized object body")
		if err := desc.WriteExternal(rv.Interface(), e.out); err != nil {
			return codecerrors.Wrap("amf0.encode.typedobject.external", err)
		}
		return nil
	}
	if err := e.writeStructFields(elem); err != nil {
		return err
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeStructAsObject(elem reflect.Value) error {
	if err := e.out.WriteU8(byte(Object)); err != nil {
		return err
	}
	if err := e.writeStructFields(elem); err != nil {
		return err
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeStructFields(elem reflect.Value) error {
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		if err := e.writeKey(field.Name); err != nil {
			return err
		}
		if err := e.WriteElement(elem.Field(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// writeValue re-emits a previously-decoded Value, preserving whatever
// reference identity its pointer-typed payload carries.
func (e *Encoder) writeValue(v Value) error {
	switch v.Marker {
	case Null, Undefined, Unsupported:
		return e.out.WriteU8(byte(v.Marker))
	case Number:
		return e.writeNumber(v.Value.(float64))
	case Boolean:
		return e.writeBoolean(v.Value.(bool))
	case String, LongString:
		return e.writeString(v.Value.(string))
	case XMLDocument:
		return e.writeXML(v.Value.(string))
	case Date:
		return e.writeDate(v.Value.(*DateValue))
	case Object:
		return e.writeObjectValue(v.Value.(*ObjectValue), "")
	case TypedObject:
		return e.writeTypedObjectValue(v.Value.(*ObjectValue), v.Alias)
	case MixedArray:
		return e.writeMixedArrayValue(v.Value.(*MixedArrayValue))
	case Array:
		return e.writeArrayValue(v.Value.(*ArrayValue))
	default:
		return &codecerrors.UnrepresentableValue{Op: "amf0.encode.value", Err: fmt.Errorf("%w: marker 0x%02x", errUnsupportedGoValue, v.Marker)}
	}
}

// writeTypedObjectValue re-emits a decoded TypedObject. If alias resolves to
// an externalizable descriptor, it writes the marker and alias itself and
// hands the body to WriteExternal, using the instance readTypedObject
// stashed under the "$value" property; otherwise it falls back to the plain
// key/value body writeObjectValue already knows how to emit.
func (e *Encoder) writeTypedObjectValue(o *ObjectValue, alias string) error {
	desc := e.registry.LookupByAlias(alias)
	if desc == nil || !desc.Externalizable() {
		return e.writeObjectValue(o, alias)
	}

	ptr := reflect.ValueOf(o).Pointer()
	if done, err := e.writeRef(ptr); err != nil || done {
		return err
	}
	if err := e.out.WriteU8(byte(TypedObject)); err != nil {
		return err
	}
	if err := e.writeKey(alias); err != nil {
		return err
	}
	instance, ok := o.Get("$value")
	if !ok {
		return &codecerrors.UnrepresentableValue{Op: "amf0.encode.typedobject", Err: fmt.Errorf("externalizable object %q missing its decoded instance", alias)}
	}
	logger.Logger().Debug().Str("class_alias", alias).Msg("re-encoding externalized object body")
	if err := desc.WriteExternal(instance.Value, e.out); err != nil {
		return codecerrors.Wrap("amf0.encode.typedobject.external", err)
	}
	return nil
}

func (e *Encoder) writeObjectValue(o *ObjectValue, alias string) error {
	ptr := reflect.ValueOf(o).Pointer()
	if done, err := e.writeRef(ptr); err != nil || done {
		return err
	}
	if alias != "" {
		if err := e.out.WriteU8(byte(TypedObject)); err != nil {
			return err
		}
		if err := e.writeKey(alias); err != nil {
			return err
		}
	} else if err := e.out.WriteU8(byte(Object)); err != nil {
		return err
	}
	for _, p := range o.Properties {
		if err := e.writeKey(p.Key); err != nil {
			return err
		}
		if err := e.writeValue(p.Value); err != nil {
			return err
		}
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeMixedArrayValue(m *MixedArrayValue) error {
	ptr := reflect.ValueOf(m).Pointer()
	if done, err := e.writeRef(ptr); err != nil || done {
		return err
	}
	if err := e.out.WriteU8(byte(MixedArray)); err != nil {
		return err
	}
	if err := e.out.WriteU32(m.Hint); err != nil {
		return err
	}
	for _, p := range m.Properties {
		if err := e.writeKey(p.Key); err != nil {
			return err
		}
		if err := e.writeValue(p.Value); err != nil {
			return err
		}
	}
	return e.writeObjectEnd()
}

func (e *Encoder) writeArrayValue(a *ArrayValue) error {
	ptr := reflect.ValueOf(a).Pointer()
	if done, err := e.writeRef(ptr); err != nil || done {
		return err
	}
	if err := e.out.WriteU8(byte(Array)); err != nil {
		return err
	}
	if err := e.out.WriteU32(uint32(len(a.Elements))); err != nil {
		return err
	}
	for _, el := range a.Elements {
		if err := e.writeValue(el); err != nil {
			return err
		}
	}
	return nil
}
