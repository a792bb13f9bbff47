// Package msgpack implements the seeded format interfaces on top of
// MessagePack. Structures are encoded as arrays holding their fields in
// declaration order; field names are not written.
package msgpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/stealthrocket/seeded"
)

// Marshal encodes v.
func Marshal(v seeded.Seeded) ([]byte, error) {
	var b bytes.Buffer
	if err := v.Serialize(NewSerializer(msgpack.NewEncoder(&b))); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes a value from b using seed. The whole input must be
// consumed.
func Unmarshal[T any](b []byte, seed seeded.Seed[T]) (T, error) {
	r := bytes.NewReader(b)
	v, err := seed.Deserialize(NewDeserializer(msgpack.NewDecoder(r)))
	if err != nil {
		return v, err
	}
	if r.Len() != 0 {
		return v, fmt.Errorf("%w: %d bytes", seeded.ErrTrailingData, r.Len())
	}
	return v, nil
}

// Serializer writes values to a MessagePack encoder.
type Serializer struct {
	enc *msgpack.Encoder
}

// NewSerializer returns a serializer writing to enc.
func NewSerializer(enc *msgpack.Encoder) *Serializer {
	return &Serializer{enc: enc}
}

func (s *Serializer) SerializeValue(v any) error {
	return s.enc.Encode(v)
}

func (s *Serializer) SerializeStruct(name string, fields int) (seeded.StructSerializer, error) {
	if err := s.enc.EncodeArrayLen(fields); err != nil {
		return nil, fmt.Errorf("msgpack: struct %s: %w", name, err)
	}
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
		return fmt.Errorf("msgpack: struct %s declared %d fields, got field %s", ss.name, ss.len, name)
	}
	ss.n++
	if err := seeded.Serialize(ss.s, v); err != nil {
		return fmt.Errorf("msgpack: %s.%s: %w", ss.name, name, err)
	}
	return nil
}

func (ss *structSerializer) End() error {
	if ss.n != ss.len {
		return fmt.Errorf("msgpack: struct %s declared %d fields, got %d", ss.name, ss.len, ss.n)
	}
	return nil
}

// Deserializer reads values from a MessagePack decoder.
type Deserializer struct {
	dec *msgpack.Decoder
}

// NewDeserializer returns a deserializer reading from dec.
func NewDeserializer(dec *msgpack.Decoder) *Deserializer {
	return &Deserializer{dec: dec}
}

func (d *Deserializer) DeserializeValue(dst any) error {
	return d.dec.Decode(dst)
}

func (d *Deserializer) DeserializeStruct(name string, fields []string, v seeded.StructVisitor) error {
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("msgpack: struct %s: %w", name, err)
	}
	if n < 0 {
		return fmt.Errorf("msgpack: expected %s, got nil", v.Expecting())
	}
	seq := &seqAccess{d: d, remaining: n}
	if err := v.VisitSeq(seq); err != nil {
		return err
	}
	if seq.remaining != 0 {
		return seeded.InvalidLength(n, v)
	}
	return nil
}

type seqAccess struct {
	d         *Deserializer
	remaining int
}

func (seq *seqAccess) Next() (seeded.Deserializer, bool, error) {
	if seq.remaining == 0 {
		return nil, false, nil
	}
	seq.remaining--
	return seq.d, true, nil
}
