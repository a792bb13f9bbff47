// Package proto implements the seeded format interfaces on the protocol
// buffers wire format.
//
// A structure is encoded as a message whose i-th field (in declaration order)
// has field number i+1. Every field is written, including zero values, and
// decoding requires the field numbers to appear in order. Booleans and
// unsigned integers are varints, signed integers are zigzag varints, floats
// are fixed32/fixed64, and strings, byte slices and nested structures are
// length-delimited.
package proto

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"fortio.org/safecast"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/stealthrocket/seeded"
)

// ErrNotMessage is returned when a value other than a structure is written
// or read at the top level.
var ErrNotMessage = errors.New("proto: top-level value must be a structure")

// Marshal encodes v, which must serialize as a structure.
func Marshal(v seeded.Seeded) ([]byte, error) {
	s := &Serializer{}
	if err := v.Serialize(s); err != nil {
		return nil, err
	}
	return s.b, nil
}

// Unmarshal decodes a structure from b using seed.
func Unmarshal[T any](b []byte, seed seeded.Seed[T]) (T, error) {
	return seed.Deserialize(&Deserializer{b: b, root: true})
}

// Serializer appends encoded values to a buffer. The zero value writes a
// top-level message.
type Serializer struct {
	b   []byte
	num protowire.Number
}

// Bytes returns the encoded bytes.
func (s *Serializer) Bytes() []byte { return s.b }

func (s *Serializer) SerializeValue(v any) error {
	if s.num == 0 {
		return ErrNotMessage
	}
	b, err := appendValue(s.b, s.num, reflect.ValueOf(v))
	if err != nil {
		return err
	}
	s.b = b
	return nil
}

func (s *Serializer) SerializeStruct(name string, fields int) (seeded.StructSerializer, error) {
	if fields > int(protowire.MaxValidNumber) {
		return nil, fmt.Errorf("proto: struct %s has too many fields (%d)", name, fields)
	}
	return &structSerializer{parent: s, name: name, len: fields}, nil
}

type structSerializer struct {
	parent *Serializer
	name   string
	len    int
	n      int
	body   []byte
}

func (ss *structSerializer) SerializeField(name string, v any) error {
	if ss.n == ss.len {
		return fmt.Errorf("proto: struct %s declared %d fields, got field %s", ss.name, ss.len, name)
	}
	ss.n++
	fs := &Serializer{b: ss.body, num: protowire.Number(ss.n)}
	if err := seeded.Serialize(fs, v); err != nil {
		return fmt.Errorf("proto: %s.%s: %w", ss.name, name, err)
	}
	ss.body = fs.b
	return nil
}

func (ss *structSerializer) End() error {
	if ss.n != ss.len {
		return fmt.Errorf("proto: struct %s declared %d fields, got %d", ss.name, ss.len, ss.n)
	}
	p := ss.parent
	if p.num == 0 {
		p.b = append(p.b, ss.body...)
	} else {
		p.b = protowire.AppendTag(p.b, p.num, protowire.BytesType)
		p.b = protowire.AppendBytes(p.b, ss.body)
	}
	return nil
}

func appendValue(b []byte, num protowire.Number, v reflect.Value) ([]byte, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return b, fmt.Errorf("proto: cannot encode nil %s", v.Type())
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Bool:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeBool(v.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeZigZag(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		return protowire.AppendVarint(b, v.Uint()), nil
	case reflect.Float32:
		b = protowire.AppendTag(b, num, protowire.Fixed32Type)
		return protowire.AppendFixed32(b, math.Float32bits(float32(v.Float()))), nil
	case reflect.Float64:
		b = protowire.AppendTag(b, num, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(v.Float())), nil
	case reflect.String:
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendString(b, v.String()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b = protowire.AppendTag(b, num, protowire.BytesType)
			return protowire.AppendBytes(b, v.Bytes()), nil
		}
	}
	return b, fmt.Errorf("proto: unsupported type %s", v.Type())
}

// Deserializer decodes values from protocol buffers wire data.
type Deserializer struct {
	b    []byte
	typ  protowire.Type
	root bool
}

// NewDeserializer returns a deserializer reading the top-level message b.
func NewDeserializer(b []byte) *Deserializer {
	return &Deserializer{b: b, root: true}
}

func (d *Deserializer) DeserializeValue(dst any) error {
	if d.root {
		return ErrNotMessage
	}
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("proto: cannot decode into %T", dst)
	}
	return d.decodeValue(ptr.Elem())
}

func (d *Deserializer) decodeValue(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return d.decodeValue(v.Elem())
	case reflect.Bool:
		x, err := d.varint()
		if err != nil {
			return err
		}
		v.SetBool(protowire.DecodeBool(x))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err := d.varint()
		if err != nil {
			return err
		}
		return setInt(v, protowire.DecodeZigZag(x))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, err := d.varint()
		if err != nil {
			return err
		}
		return setUint(v, x)
	case reflect.Float32:
		x, n := protowire.ConsumeFixed32(d.b)
		if err := d.check(protowire.Fixed32Type, n); err != nil {
			return err
		}
		v.SetFloat(float64(math.Float32frombits(x)))
		return nil
	case reflect.Float64:
		x, n := protowire.ConsumeFixed64(d.b)
		if err := d.check(protowire.Fixed64Type, n); err != nil {
			return err
		}
		v.SetFloat(math.Float64frombits(x))
		return nil
	case reflect.String:
		x, err := d.bytes()
		if err != nil {
			return err
		}
		v.SetString(string(x))
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			x, err := d.bytes()
			if err != nil {
				return err
			}
			v.SetBytes(append([]byte(nil), x...))
			return nil
		}
	}
	return fmt.Errorf("proto: unsupported type %s", v.Type())
}

func (d *Deserializer) check(typ protowire.Type, n int) error {
	if d.typ != typ {
		return fmt.Errorf("proto: unexpected wire type %d, expected %d", d.typ, typ)
	}
	if n < 0 {
		return protowire.ParseError(n)
	}
	return nil
}

func (d *Deserializer) varint() (uint64, error) {
	x, n := protowire.ConsumeVarint(d.b)
	return x, d.check(protowire.VarintType, n)
}

func (d *Deserializer) bytes() ([]byte, error) {
	x, n := protowire.ConsumeBytes(d.b)
	return x, d.check(protowire.BytesType, n)
}

func setInt(v reflect.Value, x int64) (err error) {
	switch v.Kind() {
	case reflect.Int:
		_, err = safecast.Conv[int](x)
	case reflect.Int8:
		_, err = safecast.Conv[int8](x)
	case reflect.Int16:
		_, err = safecast.Conv[int16](x)
	case reflect.Int32:
		_, err = safecast.Conv[int32](x)
	}
	if err != nil {
		return fmt.Errorf("proto: %s: %w", v.Type(), err)
	}
	v.SetInt(x)
	return nil
}

func setUint(v reflect.Value, x uint64) (err error) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uintptr:
		_, err = safecast.Conv[uint](x)
	case reflect.Uint8:
		_, err = safecast.Conv[uint8](x)
	case reflect.Uint16:
		_, err = safecast.Conv[uint16](x)
	case reflect.Uint32:
		_, err = safecast.Conv[uint32](x)
	}
	if err != nil {
		return fmt.Errorf("proto: %s: %w", v.Type(), err)
	}
	v.SetUint(x)
	return nil
}

func (d *Deserializer) DeserializeStruct(name string, fields []string, v seeded.StructVisitor) error {
	body := d.b
	if !d.root {
		var err error
		if body, err = d.bytes(); err != nil {
			return fmt.Errorf("proto: expected %s: %w", v.Expecting(), err)
		}
	}
	seq := &seqAccess{b: body, next: 1}
	if err := v.VisitSeq(seq); err != nil {
		return err
	}
	if len(seq.b) != 0 {
		return fmt.Errorf("%w: %d bytes after %s", seeded.ErrTrailingData, len(seq.b), v.Expecting())
	}
	return nil
}

type seqAccess struct {
	b    []byte
	next protowire.Number
}

func (seq *seqAccess) Next() (seeded.Deserializer, bool, error) {
	if len(seq.b) == 0 {
		return nil, false, nil
	}
	num, typ, n := protowire.ConsumeTag(seq.b)
	if n < 0 {
		return nil, false, protowire.ParseError(n)
	}
	if num != seq.next {
		return nil, false, fmt.Errorf("proto: unexpected field number %d, expected %d", num, seq.next)
	}
	m := protowire.ConsumeFieldValue(num, typ, seq.b[n:])
	if m < 0 {
		return nil, false, protowire.ParseError(m)
	}
	d := &Deserializer{b: seq.b[n : n+m], typ: typ}
	seq.b = seq.b[n+m:]
	seq.next++
	return d, true, nil
}
