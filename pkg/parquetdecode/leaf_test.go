package parquetdecode

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveCasts(t *testing.T) {
	// One nullable column per target type, middle row null. The physical
	// column is what parquet actually stores for the logical type, so the
	// narrowing and reinterpreting casts all get exercised against real
	// pages.
	cases := []struct {
		name   string
		node   parquet.Node
		values [2]parquet.Value
		field  arrow.DataType
		check  func(t *testing.T, arr arrow.Array)
	}{
		{
			name:   "int8",
			node:   parquet.Int(8),
			values: [2]parquet.Value{parquet.Int32Value(-5), parquet.Int32Value(120)},
			field:  arrow.PrimitiveTypes.Int8,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Int8)
				require.Equal(t, int8(-5), a.Value(0))
				require.Equal(t, int8(120), a.Value(2))
			},
		},
		{
			name:   "uint16",
			node:   parquet.Uint(16),
			values: [2]parquet.Value{parquet.Int32Value(0), parquet.Int32Value(65535)},
			field:  arrow.PrimitiveTypes.Uint16,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Uint16)
				require.Equal(t, uint16(0), a.Value(0))
				require.Equal(t, uint16(65535), a.Value(2))
			},
		},
		{
			name:   "uint64",
			node:   parquet.Uint(64),
			values: [2]parquet.Value{parquet.Int64Value(-1), parquet.Int64Value(7)},
			field:  arrow.PrimitiveTypes.Uint64,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Uint64)
				require.Equal(t, uint64(0xffffffffffffffff), a.Value(0))
				require.Equal(t, uint64(7), a.Value(2))
			},
		},
		{
			name:   "bool",
			node:   parquet.Leaf(parquet.BooleanType),
			values: [2]parquet.Value{parquet.BooleanValue(true), parquet.BooleanValue(false)},
			field:  arrow.FixedWidthTypes.Boolean,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Boolean)
				require.True(t, a.Value(0))
				require.False(t, a.Value(2))
			},
		},
		{
			name:   "float64",
			node:   parquet.Leaf(parquet.DoubleType),
			values: [2]parquet.Value{parquet.DoubleValue(1.5), parquet.DoubleValue(-2.25)},
			field:  arrow.PrimitiveTypes.Float64,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Float64)
				require.Equal(t, 1.5, a.Value(0))
				require.Equal(t, -2.25, a.Value(2))
			},
		},
		{
			name:   "string",
			node:   parquet.String(),
			values: [2]parquet.Value{parquet.ByteArrayValue([]byte("hi")), parquet.ByteArrayValue([]byte("yo"))},
			field:  arrow.BinaryTypes.String,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.String)
				require.Equal(t, "hi", a.Value(0))
				require.Equal(t, "yo", a.Value(2))
			},
		},
		{
			name:   "large_binary",
			node:   parquet.Leaf(parquet.ByteArrayType),
			values: [2]parquet.Value{parquet.ByteArrayValue([]byte{1, 2}), parquet.ByteArrayValue([]byte{3})},
			field:  arrow.BinaryTypes.LargeBinary,
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.LargeBinary)
				require.Equal(t, []byte{1, 2}, a.Value(0))
				require.Equal(t, []byte{3}, a.Value(2))
			},
		},
		{
			name:   "fixed_size_binary",
			node:   parquet.Leaf(parquet.FixedLenByteArrayType(2)),
			values: [2]parquet.Value{parquet.FixedLenByteArrayValue([]byte("ab")), parquet.FixedLenByteArrayValue([]byte("cd"))},
			field:  &arrow.FixedSizeBinaryType{ByteWidth: 2},
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.FixedSizeBinary)
				require.Equal(t, []byte("ab"), a.Value(0))
				require.Equal(t, []byte("cd"), a.Value(2))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema := parquet.NewSchema("test", parquet.Group{
				"v": parquet.Optional(tc.node),
			})
			pf := writeRowsFile(t, schema, []parquet.Row{
				{tc.values[0].Level(0, 1, 0)},
				{parquet.NullValue().Level(0, 0, 0)},
				{tc.values[1].Level(0, 1, 0)},
			})

			field := arrow.Field{Name: "v", Type: tc.field, Nullable: true}
			state, arr := decodeOne(t, pf, field)
			require.Equal(t, 0, state.Depth())
			require.Equal(t, 3, arr.Len())
			require.True(t, arr.IsNull(1))
			tc.check(t, arr)
		})
	}
}

func TestRequiredColumnHasNoNulls(t *testing.T) {
	schema := parquet.NewSchema("test", parquet.Group{
		"v": parquet.Int(64),
	})
	pf := writeRowsFile(t, schema, []parquet.Row{
		{parquet.Int64Value(1).Level(0, 0, 0)},
		{parquet.Int64Value(2).Level(0, 0, 0)},
	})

	field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Int64}
	_, arr := decodeOne(t, pf, field)
	require.Equal(t, 0, arr.NullN())
	a := arr.(*array.Int64)
	require.Equal(t, int64(1), a.Value(0))
	require.Equal(t, int64(2), a.Value(1))
}

func TestUint32DualPhysical(t *testing.T) {
	// Logical uint32 shows up as physical INT32 from bit-reinterpreting
	// writers and as physical INT64 from widening ones. Both spellings
	// must decode to the same logical values.
	values := []int64{0, 1, 2147483647, 2147483648, 4294967295}

	decode := func(t *testing.T, schema *parquet.Schema, rows []parquet.Row) *array.Uint32 {
		pf := writeRowsFile(t, schema, rows)
		field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Uint32, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		return arr.(*array.Uint32)
	}

	rows32 := make([]parquet.Row, len(values))
	rows64 := make([]parquet.Row, len(values))
	for i, v := range values {
		rows32[i] = parquet.Row{parquet.Int32Value(int32(uint32(v))).Level(0, 1, 0)}
		rows64[i] = parquet.Row{parquet.Int64Value(v).Level(0, 1, 0)}
	}

	from32 := decode(t, parquet.NewSchema("test", parquet.Group{
		"v": parquet.Optional(parquet.Uint(32)),
	}), rows32)
	from64 := decode(t, parquet.NewSchema("test", parquet.Group{
		"v": parquet.Optional(parquet.Int(64)),
	}), rows64)

	require.Equal(t, from32.Len(), from64.Len())
	for i, v := range values {
		require.Equal(t, uint32(v), from32.Value(i))
		require.Equal(t, from32.Value(i), from64.Value(i))
	}
}

func TestUint32UnsupportedPhysical(t *testing.T) {
	leaves := []LeafColumn{{Type: parquet.ByteArrayType}}
	field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Uint32, Nullable: true}

	_, err := NewColumnIterator(leaves, field, 1)
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestTimestampFromInt96(t *testing.T) {
	// Legacy Impala INT96 timestamps: low two words are nanoseconds within
	// the day, the third is the Julian day. Julian day 2440588 is the unix
	// epoch.
	schema := parquet.NewSchema("test", parquet.Group{
		"ts": parquet.Optional(parquet.Leaf(parquet.Int96Type)),
	})
	pf := writeRowsFile(t, schema, []parquet.Row{
		{parquet.Int96Value(deprecated.Int96{0, 0, 2440588}).Level(0, 1, 0)},
		{parquet.Int96Value(deprecated.Int96{1234567890, 42, 2440588}).Level(0, 1, 0)},
		{parquet.NullValue().Level(0, 0, 0)},
		{parquet.Int96Value(deprecated.Int96{0, 0, 2440587}).Level(0, 1, 0)},
	})

	field := arrow.Field{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Nanosecond}, Nullable: true}
	_, arr := decodeOne(t, pf, field)
	a := arr.(*array.Timestamp)
	require.Equal(t, arrow.Timestamp(0), a.Value(0))
	// 42<<32 | 1234567890 nanoseconds into the epoch day
	require.Equal(t, arrow.Timestamp(181623194322), a.Value(1))
	require.True(t, a.IsNull(2))
	require.Equal(t, arrow.Timestamp(-86400_000_000_000), a.Value(3))
}

func TestTimestampUnsupportedPhysical(t *testing.T) {
	t.Run("int96_non_nanosecond", func(t *testing.T) {
		leaves := []LeafColumn{{Type: parquet.Int96Type}}
		field := arrow.Field{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond}, Nullable: true}
		_, err := NewColumnIterator(leaves, field, 1)
		require.ErrorIs(t, err, ErrNotImplemented)
	})

	t.Run("byte_array", func(t *testing.T) {
		leaves := []LeafColumn{{Type: parquet.ByteArrayType}}
		field := arrow.Field{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Nanosecond}, Nullable: true}
		_, err := NewColumnIterator(leaves, field, 1)
		require.ErrorIs(t, err, ErrNotImplemented)
	})
}

func beBytes(width int, v int64) []byte {
	out := make([]byte, width)
	fill := byte(0)
	if v < 0 {
		fill = 0xff
	}
	for i := range out {
		out[i] = fill
	}
	for i := width - 1; i >= 0 && width-1-i < 8; i-- {
		out[i] = byte(v >> (8 * (width - 1 - i)))
	}
	return out
}

func TestDecimal128(t *testing.T) {
	t.Run("from_int32", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"d": parquet.Optional(parquet.Decimal(2, 9, parquet.Int32Type)),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.Int32Value(1234).Level(0, 1, 0)},
			{parquet.NullValue().Level(0, 0, 0)},
			{parquet.Int32Value(-56).Level(0, 1, 0)},
		})

		field := arrow.Field{Name: "d", Type: &arrow.Decimal128Type{Precision: 9, Scale: 2}, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		d := arr.(*array.Decimal128)
		require.Equal(t, decimal128.FromI64(1234), d.Value(0))
		require.True(t, d.IsNull(1))
		require.Equal(t, decimal128.FromI64(-56), d.Value(2))
	})

	t.Run("from_fixed_len_byte_array", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"d": parquet.Optional(parquet.Decimal(0, 38, parquet.FixedLenByteArrayType(16))),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.FixedLenByteArrayValue(beBytes(16, 1)).Level(0, 1, 0)},
			{parquet.FixedLenByteArrayValue(beBytes(16, -1)).Level(0, 1, 0)},
			{parquet.FixedLenByteArrayValue(beBytes(16, 123456789)).Level(0, 1, 0)},
		})

		field := arrow.Field{Name: "d", Type: &arrow.Decimal128Type{Precision: 38}, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		d := arr.(*array.Decimal128)
		require.Equal(t, decimal128.FromI64(1), d.Value(0))
		require.Equal(t, decimal128.FromI64(-1), d.Value(1))
		require.Equal(t, decimal128.FromI64(123456789), d.Value(2))
	})

	t.Run("oversize_width", func(t *testing.T) {
		leaves := []LeafColumn{{Type: parquet.FixedLenByteArrayType(17)}}
		field := arrow.Field{Name: "d", Type: &arrow.Decimal128Type{Precision: 38}, Nullable: true}
		_, err := NewColumnIterator(leaves, field, 1)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unsupported_physical", func(t *testing.T) {
		leaves := []LeafColumn{{Type: parquet.ByteArrayType}}
		field := arrow.Field{Name: "d", Type: &arrow.Decimal128Type{Precision: 38}, Nullable: true}
		_, err := NewColumnIterator(leaves, field, 1)
		require.ErrorIs(t, err, ErrNotImplemented)
	})
}

func TestDecimal256(t *testing.T) {
	t.Run("from_int64", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"d": parquet.Optional(parquet.Decimal(0, 18, parquet.Int64Type)),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.Int64Value(-987654321).Level(0, 1, 0)},
		})

		field := arrow.Field{Name: "d", Type: &arrow.Decimal256Type{Precision: 76}, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		d := arr.(*array.Decimal256)
		require.Equal(t, decimal256.FromI64(-987654321), d.Value(0))
	})

	t.Run("from_fixed_len_byte_array_16", func(t *testing.T) {
		// widths at or below 16 pass through the 128-bit reinterpretation
		schema := parquet.NewSchema("test", parquet.Group{
			"d": parquet.Optional(parquet.Decimal(0, 38, parquet.FixedLenByteArrayType(16))),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.FixedLenByteArrayValue(beBytes(16, -42)).Level(0, 1, 0)},
		})

		field := arrow.Field{Name: "d", Type: &arrow.Decimal256Type{Precision: 76}, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		d := arr.(*array.Decimal256)
		require.Equal(t, decimal256.FromI64(-42), d.Value(0))
	})

	t.Run("from_fixed_len_byte_array_32", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"d": parquet.Optional(parquet.Decimal(0, 76, parquet.FixedLenByteArrayType(32))),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.FixedLenByteArrayValue(beBytes(32, 42)).Level(0, 1, 0)},
			{parquet.FixedLenByteArrayValue(beBytes(32, -42)).Level(0, 1, 0)},
		})

		field := arrow.Field{Name: "d", Type: &arrow.Decimal256Type{Precision: 76}, Nullable: true}
		_, arr := decodeOne(t, pf, field)
		d := arr.(*array.Decimal256)
		require.Equal(t, decimal256.FromI64(42), d.Value(0))
		require.Equal(t, decimal256.FromI64(-42), d.Value(1))
	})

	t.Run("oversize_width", func(t *testing.T) {
		leaves := []LeafColumn{{Type: parquet.FixedLenByteArrayType(33)}}
		field := arrow.Field{Name: "d", Type: &arrow.Decimal256Type{Precision: 76}, Nullable: true}
		_, err := NewColumnIterator(leaves, field, 1)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestDictionary(t *testing.T) {
	schema := parquet.NewSchema("test", parquet.Group{
		"v": parquet.Optional(parquet.String()),
	})
	pf := writeRowsFile(t, schema, []parquet.Row{
		{parquet.ByteArrayValue([]byte("red")).Level(0, 1, 0)},
		{parquet.ByteArrayValue([]byte("blue")).Level(0, 1, 0)},
		{parquet.NullValue().Level(0, 0, 0)},
		{parquet.ByteArrayValue([]byte("red")).Level(0, 1, 0)},
	})

	field := arrow.Field{
		Name:     "v",
		Type:     &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String},
		Nullable: true,
	}
	state, arr := decodeOne(t, pf, field)
	require.Equal(t, 0, state.Depth())

	dict := arr.(*array.Dictionary)
	require.Equal(t, 4, dict.Len())
	require.True(t, dict.IsNull(2))

	values := dict.Dictionary().(*array.String)
	for i := 0; i < dict.Len(); i++ {
		if dict.IsNull(i) {
			continue
		}
		require.Less(t, dict.GetValueIndex(i), values.Len())
	}
	require.Equal(t, "red", values.Value(dict.GetValueIndex(0)))
	require.Equal(t, "blue", values.Value(dict.GetValueIndex(1)))
	require.Equal(t, "red", values.Value(dict.GetValueIndex(3)))
	// "red" appears twice but is stored once
	require.Equal(t, dict.GetValueIndex(0), dict.GetValueIndex(3))
}

func TestDictionaryIntValues(t *testing.T) {
	schema := parquet.NewSchema("test", parquet.Group{
		"v": parquet.Optional(parquet.Int(64)),
	})
	pf := writeRowsFile(t, schema, []parquet.Row{
		{parquet.Int64Value(100).Level(0, 1, 0)},
		{parquet.Int64Value(200).Level(0, 1, 0)},
		{parquet.Int64Value(100).Level(0, 1, 0)},
	})

	field := arrow.Field{
		Name:     "v",
		Type:     &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.PrimitiveTypes.Int64},
		Nullable: true,
	}
	_, arr := decodeOne(t, pf, field)

	dict := arr.(*array.Dictionary)
	require.Equal(t, 3, dict.Len())
	values := dict.Dictionary().(*array.Int64)
	require.Equal(t, 2, values.Len())
	require.Equal(t, int64(100), values.Value(dict.GetValueIndex(0)))
	require.Equal(t, int64(200), values.Value(dict.GetValueIndex(1)))
	require.Equal(t, int64(100), values.Value(dict.GetValueIndex(2)))
}

func TestDictionaryTemporalValues(t *testing.T) {
	t.Run("date32", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"v": parquet.Optional(parquet.Date()),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.Int32Value(19000).Level(0, 1, 0)},
			{parquet.Int32Value(19001).Level(0, 1, 0)},
			{parquet.Int32Value(19000).Level(0, 1, 0)},
		})

		field := arrow.Field{
			Name:     "v",
			Type:     &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.FixedWidthTypes.Date32},
			Nullable: true,
		}
		_, arr := decodeOne(t, pf, field)

		dict := arr.(*array.Dictionary)
		require.Equal(t, 3, dict.Len())
		values := dict.Dictionary().(*array.Date32)
		require.Equal(t, 2, values.Len())
		require.Equal(t, arrow.Date32(19000), values.Value(dict.GetValueIndex(0)))
		require.Equal(t, arrow.Date32(19001), values.Value(dict.GetValueIndex(1)))
		require.Equal(t, dict.GetValueIndex(0), dict.GetValueIndex(2))
	})

	t.Run("duration", func(t *testing.T) {
		schema := parquet.NewSchema("test", parquet.Group{
			"v": parquet.Optional(parquet.Int(64)),
		})
		pf := writeRowsFile(t, schema, []parquet.Row{
			{parquet.Int64Value(1_000_000_000).Level(0, 1, 0)},
			{parquet.Int64Value(2_000_000_000).Level(0, 1, 0)},
		})

		field := arrow.Field{
			Name:     "v",
			Type:     &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.FixedWidthTypes.Duration_ns},
			Nullable: true,
		}
		_, arr := decodeOne(t, pf, field)

		dict := arr.(*array.Dictionary)
		require.Equal(t, 2, dict.Len())
		values := dict.Dictionary().(*array.Duration)
		require.Equal(t, arrow.Duration(1_000_000_000), values.Value(dict.GetValueIndex(0)))
		require.Equal(t, arrow.Duration(2_000_000_000), values.Value(dict.GetValueIndex(1)))
	})
}

func TestDictionaryUnsupportedValueType(t *testing.T) {
	leaves := []LeafColumn{{Type: parquet.Int64Type}}
	field := arrow.Field{
		Name: "v",
		Type: &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int32,
			ValueType: &arrow.Decimal128Type{Precision: 38},
		},
		Nullable: true,
	}

	_, err := NewColumnIterator(leaves, field, 1)
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestUnsupportedLogicalType(t *testing.T) {
	leaves := []LeafColumn{{Type: parquet.Int32Type}}
	field := arrow.Field{Name: "v", Type: arrow.FixedWidthTypes.Float16, Nullable: true}

	_, err := NewColumnIterator(leaves, field, 1)
	require.ErrorIs(t, err, ErrNotImplemented)
	require.Contains(t, err.Error(), "float16")
}

func TestNullLeaf(t *testing.T) {
	schema := parquet.NewSchema("test", parquet.Group{
		"v": parquet.Optional(parquet.Int(32)),
	})
	pf := writeRowsFile(t, schema, []parquet.Row{
		{parquet.NullValue().Level(0, 0, 0)},
		{parquet.Int32Value(9).Level(0, 1, 0)},
		{parquet.NullValue().Level(0, 0, 0)},
	})

	field := arrow.Field{Name: "v", Type: arrow.Null, Nullable: true}
	state, arr := decodeOne(t, pf, field)
	require.Equal(t, 0, state.Depth())
	require.Equal(t, 3, arr.Len())
	require.Equal(t, 3, arr.NullN())
	_ = arr.(*array.Null)
}
