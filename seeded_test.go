package seeded_test

import (
	"errors"
	"testing"

	"github.com/stealthrocket/seeded"
	"github.com/stealthrocket/seeded/seedtest"
)

type expected string

func (e expected) Expecting() string { return string(e) }

func TestValueSeed(t *testing.T) {
	v, err := seedtest.Deserialize([]seedtest.Token{seedtest.Value{V: int64(42)}}, seeded.ValueSeed[int64]())
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("want 42, got %d", v)
	}
}

func TestPointerSeed(t *testing.T) {
	tokens := []seedtest.Token{seedtest.Value{V: "hello"}}

	p, err := seedtest.Deserialize(tokens, seeded.PointerSeed(seeded.ValueSeed[string]()))
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || *p != "hello" {
		t.Errorf("want pointer to hello, got %v", p)
	}

	_, err = seedtest.Deserialize(nil, seeded.PointerSeed(seeded.ValueSeed[string]()))
	if err == nil {
		t.Error("expected an error decoding from no tokens")
	}
}

func TestSerialize(t *testing.T) {
	called := false
	view := seeded.SeededFunc(func(s seeded.Serializer) error {
		called = true
		return s.SerializeValue(uint8(7))
	})

	s := &seedtest.Serializer{}
	if err := seeded.Serialize(s, view); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("seeded view was not used")
	}

	x := 3.5
	if err := seeded.Serialize(s, &x); err != nil {
		t.Fatal(err)
	}

	want := []seedtest.Token{seedtest.Value{V: uint8(7)}, seedtest.Value{V: 3.5}}
	if len(s.Tokens) != len(want) {
		t.Fatalf("want %d tokens, got %d", len(want), len(s.Tokens))
	}
	for i := range want {
		if s.Tokens[i] != want[i] {
			t.Errorf("token %d: want %#v, got %#v", i, want[i], s.Tokens[i])
		}
	}
}

func TestFnSeeders(t *testing.T) {
	de := seeded.FnDeSeeder[int](seeded.ValueSeed[int])
	ser := seeded.FnSerSeeder[int](func(v *int) seeded.Seeded { return seeded.Value(v) })

	x := 12
	seedtest.AssertSerTokens(t, ser.Seeded(&x), []seedtest.Token{seedtest.Value{V: 12}})
	seedtest.AssertDeTokens(t, []seedtest.Token{seedtest.Value{V: 12}}, de.Seed(), 12)
}

func TestNextElementSeed(t *testing.T) {
	visitor := seeded.SeedFunc[[]int](func(d seeded.Deserializer) ([]int, error) {
		return seeded.DeserializeStruct[[]int](d, "ints", nil, intsVisitor{})
	})

	tokens := []seedtest.Token{
		seedtest.Struct{Name: "ints", Len: 3},
		seedtest.Value{V: 1},
		seedtest.Value{V: 2},
		seedtest.Value{V: 3},
		seedtest.StructEnd{},
	}
	seedtest.AssertDeTokens(t, tokens, visitor, []int{1, 2, 3})
}

type intsVisitor struct{}

func (intsVisitor) Expecting() string { return "a sequence of ints" }

func (intsVisitor) VisitSeq(seq seeded.SeqAccess) ([]int, error) {
	var out []int
	for {
		v, ok, err := seeded.NextElement[int](seq)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func TestInvalidLength(t *testing.T) {
	err := seeded.InvalidLength(3, expected("struct Point with 2 fields"))

	const want = "seeded: invalid length 3, expected struct Point with 2 fields"
	if err.Error() != want {
		t.Errorf("want %q, got %q", want, err.Error())
	}

	var lengthErr *seeded.InvalidLengthError
	if !errors.As(err, &lengthErr) || lengthErr.Len != 3 {
		t.Errorf("unexpected error: %#v", err)
	}
}
