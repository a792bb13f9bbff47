package proto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/stealthrocket/seeded"
	"github.com/stealthrocket/seeded/examples/inventory"
	"github.com/stealthrocket/seeded/format/proto"
)

var (
	plainDe  = seeded.FnDeSeeder[string](seeded.ValueSeed[string])
	plainSer = seeded.FnSerSeeder[string](func(s *string) seeded.Seeded { return seeded.Value(s) })
)

func roundTrip[T any](t *testing.T, v T) {
	t.Helper()
	in := inventory.Labeled[T]{Label: "label", Value: v}

	b, err := proto.Marshal(inventory.LabeledSeeded(&in, plainSer))
	require.NoError(t, err)

	out, err := proto.Unmarshal(b, inventory.LabeledSeed[T](plainDe))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRoundTripValues(t *testing.T) {
	t.Run("bool", func(t *testing.T) { roundTrip(t, true) })
	t.Run("int8", func(t *testing.T) { roundTrip(t, int8(-100)) })
	t.Run("int64", func(t *testing.T) { roundTrip(t, int64(-1<<40)) })
	t.Run("uint32", func(t *testing.T) { roundTrip(t, uint32(1<<31)) })
	t.Run("float32", func(t *testing.T) { roundTrip(t, float32(0.25)) })
	t.Run("float64", func(t *testing.T) { roundTrip(t, 2.5) })
	t.Run("string", func(t *testing.T) { roundTrip(t, "hello") })
	t.Run("bytes", func(t *testing.T) { roundTrip(t, []byte{1, 2, 3}) })
}

func TestWireFormat(t *testing.T) {
	p := inventory.Point{X: 1, Y: -2}
	b, err := proto.Marshal(inventory.PointSeeded(&p))
	require.NoError(t, err)

	var want []byte
	want = protowire.AppendTag(want, 1, protowire.VarintType)
	want = protowire.AppendVarint(want, protowire.EncodeZigZag(1))
	want = protowire.AppendTag(want, 2, protowire.VarintType)
	want = protowire.AppendVarint(want, protowire.EncodeZigZag(-2))
	assert.Equal(t, want, b)

	got, err := proto.Unmarshal(b, inventory.PointSeed())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestNestedMessage(t *testing.T) {
	catalog := inventory.NewCatalog("nut")
	item := inventory.Item{Name: "nut", Count: 1, Position: inventory.Point{Y: 7}, Anchor: &inventory.Point{}}

	b, err := proto.Marshal(inventory.ItemSeeded(&item, catalog))
	require.NoError(t, err)

	// Position is field 3, a length-delimited message.
	_, _, n := protowire.ConsumeField(b)
	_, _, m := protowire.ConsumeField(b[n:])
	num, typ, _ := protowire.ConsumeTag(b[n+m:])
	assert.Equal(t, protowire.Number(3), num)
	assert.Equal(t, protowire.BytesType, typ)

	got, err := proto.Unmarshal(b, inventory.ItemSeed(catalog))
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestFieldOrder(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 4)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 2)

	_, err := proto.Unmarshal(b, inventory.PointSeed())
	assert.ErrorContains(t, err, "unexpected field number 2, expected 1")
}

func TestMissingField(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 2)

	_, err := proto.Unmarshal(b, inventory.PointSeed())
	var lengthErr *seeded.InvalidLengthError
	require.ErrorAs(t, err, &lengthErr)
	assert.Equal(t, "struct Point with 2 fields", lengthErr.Expected)
}

func TestWireTypeMismatch(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "x")
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)

	_, err := proto.Unmarshal(b, inventory.PointSeed())
	assert.ErrorContains(t, err, "unexpected wire type")
}

func TestOutOfRange(t *testing.T) {
	in := inventory.Labeled[int64]{Label: "big", Value: 300}
	b, err := proto.Marshal(inventory.LabeledSeeded(&in, plainSer))
	require.NoError(t, err)

	_, err = proto.Unmarshal(b, inventory.LabeledSeed[int8](plainDe))
	assert.ErrorContains(t, err, "proto: int8")
}

func TestTopLevelValue(t *testing.T) {
	x := 1
	_, err := proto.Marshal(seeded.Value(&x))
	assert.ErrorIs(t, err, proto.ErrNotMessage)

	_, err = proto.Unmarshal([]byte{0x08, 0x02}, seeded.ValueSeed[int]())
	assert.ErrorIs(t, err, proto.ErrNotMessage)
}

func TestNilField(t *testing.T) {
	item := inventory.Item{Name: "nut"}
	_, err := proto.Marshal(inventory.ItemSeeded(&item, inventory.NewCatalog()))
	assert.ErrorIs(t, err, seeded.ErrNilValue)
}
