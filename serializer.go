package seeded

// Serializer is implemented by formats to receive values.
type Serializer interface {
	// SerializeValue writes a value which has no seeded view. v is usually a
	// pointer to the value.
	SerializeValue(v any) error

	// SerializeStruct begins a structure named name with exactly the given
	// number of fields.
	SerializeStruct(name string, fields int) (StructSerializer, error)
}

// StructSerializer receives the fields of a structure, in declaration order.
type StructSerializer interface {
	// SerializeField writes the next field. v is either a Seeded view or a
	// plain value, as accepted by Serialize.
	SerializeField(name string, v any) error

	// End completes the structure.
	End() error
}

// Serialize writes v to s. Seeded values serialize themselves, any other
// value is handed to s.SerializeValue.
func Serialize(s Serializer, v any) error {
	if sv, ok := v.(Seeded); ok {
		return sv.Serialize(s)
	}
	return s.SerializeValue(v)
}
