// Package amf0 implements the AMF0 wire format: the Value sum type, the
// Encoder that serializes host values to it, and the Parser that
// deserializes it back (spec.md §3, §4.3, §4.4).
package amf0

// Marker is the one-byte type tag that begins every AMF0 value.
type Marker byte

// AMF0 markers, per the Adobe AMF0 file format specification and spec.md's
// data model table.
const (
	Number      Marker = 0x00 // 8 bytes IEEE-754 double, big-endian
	Boolean     Marker = 0x01 // 1 byte, 0 false, non-zero true
	String      Marker = 0x02 // 2-byte length + UTF-8 bytes, length < 2^16
	Object      Marker = 0x03 // ordered key/value body terminated by ObjectTerm
	MovieClip   Marker = 0x04 // reserved, unused
	Null        Marker = 0x05
	Undefined   Marker = 0x06
	Reference   Marker = 0x07 // 2-byte index into the session reference table
	MixedArray  Marker = 0x08 // 4-byte length hint + object body
	ObjectTerm  Marker = 0x09 // sentinel: preceded by an empty-string key
	Array       Marker = 0x0A // 4-byte count + that many inline values
	Date        Marker = 0x0B // 8-byte double millis + 2-byte signed TZ minutes
	LongString  Marker = 0x0C // 4-byte length + UTF-8 bytes, length < 2^32
	Unsupported Marker = 0x0D
	RecordSet   Marker = 0x0E // reserved, unused
	XMLDocument Marker = 0x0F // 4-byte length + UTF-8 document text
	TypedObject Marker = 0x10 // 2-byte alias length + alias bytes + object body
	SwitchAMF3  Marker = 0x11 // remaining stream is AMF3-encoded
)

// String16Limit is the boundary below which a string is encoded with the
// 16-bit-length String form; at or above it, LongString is used instead
// (spec.md §3's invariant and §8's boundary property).
const String16Limit = 1 << 16

// ReferenceLimit is the maximum number of entries a single encode session's
// reference table may hold (spec.md §5). The Parser's reference table does
// not check it.
const ReferenceLimit = 1 << 16

// Value is a decoded AMF0 value: a marker plus its payload. Compound
// payloads (Object, MixedArray, Array, TypedObject, Date) are held as
// pointers so that two Values produced from the same Reference slot share
// identity, exactly as spec.md §3's reference-table invariant requires.
type Value struct {
	Marker Marker
	// Alias names the remote class for TypedObject values; empty for
	// everything else.
	Alias string
	// Value holds the payload appropriate to Marker:
	//   Number               float64
	//   Boolean              bool
	//   String, LongString   string
	//   XMLDocument          string
	//   Object, TypedObject  *ObjectValue
	//   MixedArray           *MixedArrayValue
	//   Array                *ArrayValue
	//   Date                 *DateValue
	//   SwitchAMF3           amf3.Value (the decoded AMF3 primitive)
	//   Null, Undefined,
	//   Unsupported          nil
	// The one exception is the "$value" property the Parser adds to an
	// externalized TypedObject: it is an Unsupported Value whose payload is
	// the instance the ReadExternal hook populated.
	Value any
}

// Property is one ordered key/value pair within an Object or MixedArray
// body. Order is preserved on both encode and decode, per spec.md §3.
type Property struct {
	Key   string
	Value Value
}

// ObjectValue is the ordered key/value body shared by Object and
// TypedObject. It is a pointer type so the reference table can alias it.
type ObjectValue struct {
	Properties []Property
}

// Get returns the value for key and whether it was present.
func (o *ObjectValue) Get(key string) (Value, bool) {
	for _, p := range o.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Set appends or replaces key's value, preserving insertion order for new
// keys.
func (o *ObjectValue) Set(key string, v Value) {
	for i := range o.Properties {
		if o.Properties[i].Key == key {
			o.Properties[i].Value = v
			return
		}
	}
	o.Properties = append(o.Properties, Property{Key: key, Value: v})
}

// MixedArrayValue is an Object-shaped body that also carries the declared
// length hint AMF0's ECMA array wire form includes (spec.md §3).
type MixedArrayValue struct {
	Hint       uint32
	Properties []Property
}

func (m *MixedArrayValue) Get(key string) (Value, bool) {
	for _, p := range m.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

func (m *MixedArrayValue) Set(key string, v Value) {
	for i := range m.Properties {
		if m.Properties[i].Key == key {
			m.Properties[i].Value = v
			return
		}
	}
	m.Properties = append(m.Properties, Property{Key: key, Value: v})
}

// ArrayValue is an ordered sequence of Values (AMF0 Strict Array). It is a
// pointer type so the reference table can alias it, which is what makes
// cyclic graphs ("a list containing itself") representable at all.
type ArrayValue struct {
	Elements []Value
}

// DateValue is milliseconds since the epoch plus the signed timezone
// offset in minutes that accompanies every AMF0 Date on the wire.
// spec.md §9 leaves naive-timestamp timezone handling unresolved; this
// module's encoder emits 0 for it, matching pyamf's behavior (see
// DESIGN.md).
type DateValue struct {
	Millis          float64
	TZOffsetMinutes int16
}
