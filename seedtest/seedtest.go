// Package seedtest records and replays the calls a seeded value makes to a
// format, as a flat list of tokens. It is meant for testing generated seeds
// and seeded views without depending on a concrete encoding.
package seedtest

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stealthrocket/seeded"
)

// Token is one of Struct, Field, Value or StructEnd.
type Token interface {
	token()
}

// Struct begins a structure.
type Struct struct {
	Name string
	Len  int
}

// Field precedes the value of a structure field.
type Field struct {
	Name string
}

// Value is a value serialized without a seeded view.
type Value struct {
	V any
}

// StructEnd completes a structure.
type StructEnd struct{}

func (Struct) token()    {}
func (Field) token()     {}
func (Value) token()     {}
func (StructEnd) token() {}

// Serialize records the tokens v produces.
func Serialize(v seeded.Seeded) ([]Token, error) {
	s := &Serializer{}
	if err := v.Serialize(s); err != nil {
		return s.Tokens, err
	}
	return s.Tokens, nil
}

// Serializer records tokens.
type Serializer struct {
	Tokens []Token
}

func (s *Serializer) SerializeValue(v any) error {
	s.Tokens = append(s.Tokens, Value{V: deref(v)})
	return nil
}

func (s *Serializer) SerializeStruct(name string, fields int) (seeded.StructSerializer, error) {
	s.Tokens = append(s.Tokens, Struct{Name: name, Len: fields})
	return &structSerializer{s: s, name: name, len: fields}, nil
}

type structSerializer struct {
	s    *Serializer
	name string
	len  int
	n    int
}

func (ss *structSerializer) SerializeField(name string, v any) error {
	if ss.n == ss.len {
		return fmt.Errorf("seedtest: struct %s declared %d fields, got field %s", ss.name, ss.len, name)
	}
	ss.n++
	ss.s.Tokens = append(ss.s.Tokens, Field{Name: name})
	return seeded.Serialize(ss.s, v)
}

func (ss *structSerializer) End() error {
	if ss.n != ss.len {
		return fmt.Errorf("seedtest: struct %s declared %d fields, got %d", ss.name, ss.len, ss.n)
	}
	ss.s.Tokens = append(ss.s.Tokens, StructEnd{})
	return nil
}

func deref(v any) any {
	r := reflect.ValueOf(v)
	for r.Kind() == reflect.Pointer && !r.IsNil() {
		r = r.Elem()
	}
	if !r.IsValid() {
		return nil
	}
	return r.Interface()
}

// Deserialize replays tokens into seed. All tokens must be consumed.
func Deserialize[T any](tokens []Token, seed seeded.Seed[T]) (T, error) {
	d := &Deserializer{tokens: tokens}
	v, err := seed.Deserialize(d)
	if err != nil {
		return v, err
	}
	if len(d.tokens) != 0 {
		return v, fmt.Errorf("%w: %d tokens left", seeded.ErrTrailingData, len(d.tokens))
	}
	return v, nil
}

// Deserializer replays tokens.
type Deserializer struct {
	tokens []Token
}

func (d *Deserializer) next() (Token, error) {
	if len(d.tokens) == 0 {
		return nil, fmt.Errorf("seedtest: unexpected end of tokens")
	}
	t := d.tokens[0]
	d.tokens = d.tokens[1:]
	return t, nil
}

func (d *Deserializer) peek() Token {
	if len(d.tokens) == 0 {
		return nil
	}
	return d.tokens[0]
}

func (d *Deserializer) DeserializeValue(dst any) error {
	t, err := d.next()
	if err != nil {
		return err
	}
	v, ok := t.(Value)
	if !ok {
		return fmt.Errorf("seedtest: expected value, got %#v", t)
	}
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("seedtest: cannot decode into %T", dst)
	}
	elem := ptr.Elem()
	if v.V == nil {
		elem.SetZero()
		return nil
	}
	src := reflect.ValueOf(v.V)
	for elem.Kind() == reflect.Pointer && src.Kind() != reflect.Pointer {
		if elem.IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
		}
		elem = elem.Elem()
	}
	if !src.Type().ConvertibleTo(elem.Type()) {
		return fmt.Errorf("seedtest: cannot decode %T into %s", v.V, elem.Type())
	}
	elem.Set(src.Convert(elem.Type()))
	return nil
}

func (d *Deserializer) DeserializeStruct(name string, fields []string, v seeded.StructVisitor) error {
	t, err := d.next()
	if err != nil {
		return err
	}
	s, ok := t.(Struct)
	if !ok || s.Name != name {
		return fmt.Errorf("seedtest: expected %s, got %#v", v.Expecting(), t)
	}
	if err := v.VisitSeq(&seqAccess{d: d}); err != nil {
		return err
	}
	t, err = d.next()
	if err != nil {
		return err
	}
	if _, ok := t.(StructEnd); !ok {
		return fmt.Errorf("%w: expected end of %s, got %#v", seeded.ErrTrailingData, v.Expecting(), t)
	}
	return nil
}

type seqAccess struct {
	d *Deserializer
}

func (seq *seqAccess) Next() (seeded.Deserializer, bool, error) {
	switch seq.d.peek().(type) {
	case nil, StructEnd:
		return nil, false, nil
	case Field:
		seq.d.tokens = seq.d.tokens[1:]
	}
	return seq.d, true, nil
}

// AssertSerTokens fails the test if v does not serialize to want.
func AssertSerTokens(t testing.TB, v seeded.Seeded, want []Token) {
	t.Helper()
	got, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

// AssertDeTokens fails the test if tokens do not decode to want through seed.
func AssertDeTokens[T any](t testing.TB, tokens []Token, seed seeded.Seed[T], want T, opts ...cmp.Option) {
	t.Helper()
	got, err := Deserialize(tokens, seed)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}
