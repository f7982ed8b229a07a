package amf0

import (
	"fmt"

	"github.com/casio/amfcodec/amf3"
	codecerrors "github.com/casio/amfcodec/internal/errors"
	"github.com/casio/amfcodec/internal/logger"
	"github.com/casio/amfcodec/registry"
	"github.com/casio/amfcodec/stream"
)

var errUnknownMarker = fmt.Errorf("unknown or unsupported AMF0 marker")

// Parser deserializes an AMF0 byte stream back into Values. One Parser
// instance is scoped to one top-level parse: its reference table persists
// across nested ReadElement calls within that parse but not beyond it,
// matching Encoder's session lifetime (spec.md §4.4).
type Parser struct {
	in       *stream.ByteStream
	refs     *decodeRefTable
	registry *registry.ClassRegistry
	// Strict controls TypedObject alias resolution: when true, an unknown
	// alias fails with UnresolvedAlias; when false, it falls back to an
	// anonymous ObjectValue carrying the alias for inspection.
	Strict bool
}

// NewParser wraps in using the default class registry, in non-strict mode.
func NewParser(in *stream.ByteStream) *Parser {
	return NewParserWithRegistry(in, registry.Default())
}

// NewParserWithRegistry wraps in, resolving TypedObject aliases against reg.
func NewParserWithRegistry(in *stream.ByteStream, reg *registry.ClassRegistry) *Parser {
	return &Parser{in: in, refs: newDecodeRefTable(), registry: reg}
}

// ReadType peeks the next marker without consuming the value.
func (p *Parser) ReadType() (Marker, error) {
	m, err := p.in.PeekU8()
	if err != nil {
		return 0, err
	}
	return Marker(m), nil
}

// ReadElement reads one complete AMF0 value, including its leading marker.
func (p *Parser) ReadElement() (Value, error) {
	b, err := p.in.ReadU8()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.marker", Err: err}
	}
	return p.readByMarker(Marker(b))
}

func (p *Parser) readByMarker(m Marker) (Value, error) {
	switch m {
	case Number:
		d, err := p.in.ReadDouble()
		if err != nil {
			return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.number", Err: err}
		}
		return Value{Marker: Number, Value: d}, nil
	case Boolean:
		b, err := p.in.ReadU8()
		if err != nil {
			return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.boolean", Err: err}
		}
		return Value{Marker: Boolean, Value: b != 0}, nil
	case String:
		s, err := p.readShortString()
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: String, Value: s}, nil
	case LongString:
		s, err := p.readLongString()
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: LongString, Value: s}, nil
	case XMLDocument:
		s, err := p.readLongString()
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: XMLDocument, Value: s}, nil
	case Null, Undefined, Unsupported:
		return Value{Marker: m}, nil
	case Reference:
		return p.readReference()
	case Object:
		return p.readObject()
	case MixedArray:
		return p.readMixedArray()
	case Array:
		return p.readArray()
	case Date:
		d, err := p.readDate()
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: Date, Value: d}, nil
	case TypedObject:
		return p.readTypedObject()
	case SwitchAMF3:
		v, err := amf3.ReadElement(p.in)
		if err != nil {
			return Value{}, err
		}
		return Value{Marker: SwitchAMF3, Value: v}, nil
	default:
		return Value{}, &codecerrors.ParseError{Op: "amf0.parse", Err: fmt.Errorf("%w: 0x%02x", errUnknownMarker, byte(m))}
	}
}

func (p *Parser) readShortString() (string, error) {
	n, err := p.in.ReadU16()
	if err != nil {
		return "", &codecerrors.UnexpectedEof{Op: "amf0.parse.string.length", Err: err}
	}
	return p.in.ReadUTF8(int(n))
}

func (p *Parser) readLongString() (string, error) {
	n, err := p.in.ReadU32()
	if err != nil {
		return "", &codecerrors.UnexpectedEof{Op: "amf0.parse.longstring.length", Err: err}
	}
	return p.in.ReadUTF8(int(n))
}

func (p *Parser) readDate() (*DateValue, error) {
	millis, err := p.in.ReadDouble()
	if err != nil {
		return nil, &codecerrors.UnexpectedEof{Op: "amf0.parse.date.millis", Err: err}
	}
	tz, err := p.in.ReadI16()
	if err != nil {
		return nil, &codecerrors.UnexpectedEof{Op: "amf0.parse.date.tz", Err: err}
	}
	return &DateValue{Millis: millis, TZOffsetMinutes: tz}, nil
}

func (p *Parser) readReference() (Value, error) {
	idx, err := p.in.ReadU16()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.reference.index", Err: err}
	}
	target, err := p.refs.at(int(idx))
	if err != nil {
		return Value{}, err
	}
	switch tv := target.(type) {
	case *ObjectValue:
		return Value{Marker: Object, Value: tv}, nil
	case *MixedArrayValue:
		return Value{Marker: MixedArray, Value: tv}, nil
	case *ArrayValue:
		return Value{Marker: Array, Value: tv}, nil
	default:
		return Value{}, &codecerrors.ParseError{Op: "amf0.parse.reference", Err: fmt.Errorf("reference slot %d holds an unexpected type %T", idx, target)}
	}
}

// readPropertyList reads key/value pairs until the empty-key ObjectTerm
// sentinel, appending each to *props as it goes so a Reference encountered
// mid-body (self-reference) can already see the partially-populated
// container via the slot reserved by the caller.
func (p *Parser) readPropertyList(props *[]Property) error {
	for {
		key, err := p.readShortString()
		if err != nil {
			return &codecerrors.UnexpectedEof{Op: "amf0.parse.object.key", Err: err}
		}
		if key == "" {
			term, err := p.in.ReadU8()
			if err != nil {
				return &codecerrors.UnexpectedEof{Op: "amf0.parse.object.term", Err: err}
			}
			if Marker(term) != ObjectTerm {
				return &codecerrors.MalformedObject{Op: "amf0.parse.object.term", Err: fmt.Errorf("expected ObjectTerm, got 0x%02x", term)}
			}
			return nil
		}
		val, err := p.ReadElement()
		if err != nil {
			return codecerrors.Wrap(fmt.Sprintf("amf0.parse.object.value[%s]", key), err)
		}
		*props = append(*props, Property{Key: key, Value: val})
	}
}

func (p *Parser) readObject() (Value, error) {
	obj := &ObjectValue{}
	slot := p.refs.reserve()
	p.refs.fill(slot, obj)
	if err := p.readPropertyList(&obj.Properties); err != nil {
		return Value{}, err
	}
	return Value{Marker: Object, Value: obj}, nil
}

func (p *Parser) readMixedArray() (Value, error) {
	hint, err := p.in.ReadU32()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.mixedarray.hint", Err: err}
	}
	m := &MixedArrayValue{Hint: hint}
	slot := p.refs.reserve()
	p.refs.fill(slot, m)
	if err := p.readPropertyList(&m.Properties); err != nil {
		return Value{}, err
	}
	return Value{Marker: MixedArray, Value: m}, nil
}

func (p *Parser) readArray() (Value, error) {
	count, err := p.in.ReadU32()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.array.count", Err: err}
	}
	arr := &ArrayValue{Elements: make([]Value, 0, count)}
	slot := p.refs.reserve()
	p.refs.fill(slot, arr)
	for i := uint32(0); i < count; i++ {
		el, err := p.ReadElement()
		if err != nil {
			return Value{}, codecerrors.Wrap(fmt.Sprintf("amf0.parse.array.element[%d]", i), err)
		}
		arr.Elements = append(arr.Elements, el)
	}
	return Value{Marker: Array, Value: arr}, nil
}

func (p *Parser) readTypedObject() (Value, error) {
	alias, err := p.readShortString()
	if err != nil {
		return Value{}, &codecerrors.UnexpectedEof{Op: "amf0.parse.typedobject.alias", Err: err}
	}
	desc := p.registry.LookupByAlias(alias)
	if desc == nil {
		if p.Strict {
			return Value{}, &codecerrors.UnresolvedAlias{Alias: alias}
		}
		obj := &ObjectValue{}
		slot := p.refs.reserve()
		p.refs.fill(slot, obj)
		if err := p.readPropertyList(&obj.Properties); err != nil {
			return Value{}, err
		}
		return Value{Marker: TypedObject, Alias: alias, Value: obj}, nil
	}

	obj := &ObjectValue{}
	slot := p.refs.reserve()
	p.refs.fill(slot, obj)

	if desc.Externalizable() {
		instance := desc.NewInstance()
		logger.WithAlias(logger.Logger(), alias).Debug().Msg("reading externalized object body")
		if err := desc.ReadExternal(instance, p.in); err != nil {
			return Value{}, codecerrors.Wrap("amf0.parse.typedobject.external", err)
		}
		obj.Set("$value", Value{Marker: Unsupported, Value: instance})
		return Value{Marker: TypedObject, Alias: alias, Value: obj}, nil
	}

	if err := p.readPropertyList(&obj.Properties); err != nil {
		return Value{}, err
	}
	return Value{Marker: TypedObject, Alias: alias, Value: obj}, nil
}
