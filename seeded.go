// Package seeded is the runtime support for code generated by seedgen.
//
// A seed decodes one value using context supplied by the caller (a lookup
// table, a parent reference, a default) instead of relying on the encoded
// bytes alone. A seeded view is the mirror image: it wraps a value and
// serializes it, possibly transforming some fields with the same context.
//
// Generated code only depends on the interfaces declared here. Formats plug
// in by implementing Serializer and Deserializer, see the format/msgpack and
// format/proto packages.
package seeded

// Seed decodes exactly one value of type T.
type Seed[T any] interface {
	Deserialize(d Deserializer) (T, error)
}

// Seeded is a value prepared for serialization.
type Seeded interface {
	Serialize(s Serializer) error
}

// DeSeeder produces seeds for values of type T.
//
// Field markers with an expression, such as //seeded:seed(catalog.Names()),
// expect the expression to evaluate to a DeSeeder when decoding.
type DeSeeder[T any] interface {
	Seed() Seed[T]
}

// SerSeeder produces seeded views of values of type T.
//
// Field markers with an expression expect the expression to evaluate to a
// SerSeeder when encoding.
type SerSeeder[T any] interface {
	Seeded(v *T) Seeded
}

// FnDeSeeder adapts a function returning seeds to the DeSeeder interface.
type FnDeSeeder[T any] func() Seed[T]

// Seed calls f.
func (f FnDeSeeder[T]) Seed() Seed[T] { return f() }

// FnSerSeeder adapts a function returning views to the SerSeeder interface.
type FnSerSeeder[T any] func(v *T) Seeded

// Seeded calls f.
func (f FnSerSeeder[T]) Seeded(v *T) Seeded { return f(v) }

// SeedFunc adapts a decoding function to the Seed interface.
type SeedFunc[T any] func(d Deserializer) (T, error)

// Deserialize calls f.
func (f SeedFunc[T]) Deserialize(d Deserializer) (T, error) { return f(d) }

// SeededFunc adapts an encoding function to the Seeded interface.
type SeededFunc func(s Serializer) error

// Serialize calls f.
func (f SeededFunc) Serialize(s Serializer) error { return f(s) }

// Phantom is a zero-size marker. Generated helper types carry one for each
// type parameter that none of their captured fields mention.
type Phantom[T any] [0]*T

// ValueSeed returns a seed which decodes T without any context, using the
// format's own decoding of the value.
func ValueSeed[T any]() Seed[T] {
	return SeedFunc[T](func(d Deserializer) (v T, err error) {
		err = d.DeserializeValue(&v)
		return
	})
}

// Value returns a view which serializes v without any context. v is usually
// a pointer to the value.
func Value(v any) Seeded {
	return SeededFunc(func(s Serializer) error {
		return s.SerializeValue(v)
	})
}

// PointerSeed turns a seed of T into a seed of *T.
func PointerSeed[T any](seed Seed[T]) Seed[*T] {
	return SeedFunc[*T](func(d Deserializer) (*T, error) {
		v, err := seed.Deserialize(d)
		if err != nil {
			return nil, err
		}
		return &v, nil
	})
}
