package seeded

// Deserializer is implemented by formats to produce values.
type Deserializer interface {
	// DeserializeValue decodes a value which has no seed into dst, which must
	// be a non-nil pointer.
	DeserializeValue(dst any) error

	// DeserializeStruct decodes a structure named name with the given field
	// names. Fields are handed to the visitor as a sequence, in order.
	DeserializeStruct(name string, fields []string, v StructVisitor) error
}

// Expected describes what a visitor expects to read. The description is
// used in error messages.
type Expected interface {
	Expecting() string
}

// StructVisitor is the untyped form of Visitor, as seen by formats.
type StructVisitor interface {
	Expected
	VisitSeq(seq SeqAccess) error
}

// Visitor consumes the sequence of fields of a structure to produce a T.
type Visitor[T any] interface {
	Expected
	VisitSeq(seq SeqAccess) (T, error)
}

// SeqAccess gives access to the elements of a sequence.
type SeqAccess interface {
	// Next returns a deserializer positioned on the next element. The boolean
	// is false when the sequence is exhausted.
	Next() (Deserializer, bool, error)
}

// DeserializeStruct decodes a structure from d using the typed visitor v.
func DeserializeStruct[T any](d Deserializer, name string, fields []string, v Visitor[T]) (T, error) {
	sv := &structVisitor[T]{v: v}
	err := d.DeserializeStruct(name, fields, sv)
	return sv.out, err
}

type structVisitor[T any] struct {
	v   Visitor[T]
	out T
}

func (sv *structVisitor[T]) Expecting() string { return sv.v.Expecting() }

func (sv *structVisitor[T]) VisitSeq(seq SeqAccess) (err error) {
	sv.out, err = sv.v.VisitSeq(seq)
	return err
}

// NextElement reads the next element of seq without a seed.
func NextElement[T any](seq SeqAccess) (T, bool, error) {
	return NextElementSeed(seq, ValueSeed[T]())
}

// NextElementSeed reads the next element of seq with the given seed. The
// boolean is false when the sequence is exhausted.
func NextElementSeed[T any](seq SeqAccess, seed Seed[T]) (v T, ok bool, err error) {
	d, ok, err := seq.Next()
	if err != nil || !ok {
		return v, false, err
	}
	v, err = seed.Deserialize(d)
	return v, err == nil, err
}
