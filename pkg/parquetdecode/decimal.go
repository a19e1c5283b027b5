package parquetdecode

import (
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
)

// Decimal leaves. Parquet stores decimals as INT32, INT64, or a
// FIXED_LEN_BYTE_ARRAY holding the unscaled integer big-endian in two's
// complement; the dispatcher has already rejected widths the target type
// cannot hold, so the casts here never overflow.

type decimal128Sink struct {
	mem      memory.Allocator
	dt       *arrow.Decimal128Type
	cast     castFunc[decimal128.Num]
	values   []decimal128.Num
	validity validityTracker
}

func newDecimal128Sink(mem memory.Allocator, dt *arrow.Decimal128Type, hint int, cast castFunc[decimal128.Num]) *decimal128Sink {
	return &decimal128Sink{mem: mem, dt: dt, cast: cast, values: make([]decimal128.Num, 0, hint)}
}

func (s *decimal128Sink) Append(v parquet.Value) {
	s.values = append(s.values, s.cast(v))
	s.validity.append(true)
}

func (s *decimal128Sink) AppendNull() {
	s.values = append(s.values, decimal128.Num{})
	s.validity.append(false)
}

func (s *decimal128Sink) NewArray() (arrow.Array, error) {
	b := array.NewDecimal128Builder(s.mem, s.dt)
	defer b.Release()
	b.AppendValues(s.values, s.validity.slice())
	s.values = s.values[:0]
	s.validity.reset()
	return b.NewArray(), nil
}

type decimal256Sink struct {
	mem      memory.Allocator
	dt       *arrow.Decimal256Type
	cast     castFunc[decimal256.Num]
	values   []decimal256.Num
	validity validityTracker
}

func newDecimal256Sink(mem memory.Allocator, dt *arrow.Decimal256Type, hint int, cast castFunc[decimal256.Num]) *decimal256Sink {
	return &decimal256Sink{mem: mem, dt: dt, cast: cast, values: make([]decimal256.Num, 0, hint)}
}

func (s *decimal256Sink) Append(v parquet.Value) {
	s.values = append(s.values, s.cast(v))
	s.validity.append(true)
}

func (s *decimal256Sink) AppendNull() {
	s.values = append(s.values, decimal256.Num{})
	s.validity.append(false)
}

func (s *decimal256Sink) NewArray() (arrow.Array, error) {
	b := array.NewDecimal256Builder(s.mem, s.dt)
	defer b.Release()
	b.AppendValues(s.values, s.validity.slice())
	s.values = s.values[:0]
	s.validity.reset()
	return b.NewArray(), nil
}

func castDecimal128FromInt32(v parquet.Value) decimal128.Num {
	return decimal128.FromI64(int64(v.Int32()))
}

func castDecimal128FromInt64(v parquet.Value) decimal128.Num {
	return decimal128.FromI64(v.Int64())
}

func castDecimal128FromBytes(v parquet.Value) decimal128.Num {
	return decimal128.FromBigInt(bigIntFromBE(v.ByteArray()))
}

func castDecimal256FromInt32(v parquet.Value) decimal256.Num {
	return decimal256.FromI64(int64(v.Int32()))
}

func castDecimal256FromInt64(v parquet.Value) decimal256.Num {
	return decimal256.FromI64(v.Int64())
}

// castDecimal256FromBytes128 widens a byte array that fits a 128-bit
// integer, castDecimal256FromBytes reinterprets the full 256-bit range.
func castDecimal256FromBytes128(v parquet.Value) decimal256.Num {
	return decimal256.FromDecimal128(decimal128.FromBigInt(bigIntFromBE(v.ByteArray())))
}

func castDecimal256FromBytes(v parquet.Value) decimal256.Num {
	return decimal256.FromBigInt(bigIntFromBE(v.ByteArray()))
}

// bigIntFromBE interprets big-endian two's-complement bytes.
func bigIntFromBE(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		shift := new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8)
		n.Sub(n, shift)
	}
	return n
}
