package parquetdecode

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
)

// binarySink feeds variable-length byte values straight into the arrow
// builder matching the target type's offset width. Builders copy the
// bytes on append, so nothing here aliases page memory.
type binarySink struct {
	b        array.Builder
	appendFn func([]byte)
}

func newBinarySink(mem memory.Allocator, dt arrow.DataType, hint int) (*binarySink, error) {
	s := &binarySink{}
	switch dt.ID() {
	case arrow.STRING:
		b := array.NewStringBuilder(mem)
		s.b, s.appendFn = b, func(v []byte) { b.Append(string(v)) }
	case arrow.LARGE_STRING:
		b := array.NewLargeStringBuilder(mem)
		s.b, s.appendFn = b, func(v []byte) { b.Append(string(v)) }
	case arrow.BINARY:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		s.b, s.appendFn = b, b.Append
	case arrow.LARGE_BINARY:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.LargeBinary)
		s.b, s.appendFn = b, b.Append
	default:
		return nil, fmt.Errorf("reading %s as binary: %w", dt, ErrNotImplemented)
	}
	s.b.Reserve(hint)
	return s, nil
}

func (s *binarySink) Append(v parquet.Value) { s.appendFn(v.ByteArray()) }

func (s *binarySink) AppendNull() { s.b.AppendNull() }

func (s *binarySink) NewArray() (arrow.Array, error) { return s.b.NewArray(), nil }

// fixedSizeBinarySink handles FIXED_LEN_BYTE_ARRAY leaves whose logical
// type keeps the bytes as-is.
type fixedSizeBinarySink struct {
	b *array.FixedSizeBinaryBuilder
}

func newFixedSizeBinarySink(mem memory.Allocator, dt *arrow.FixedSizeBinaryType, hint int) *fixedSizeBinarySink {
	b := array.NewFixedSizeBinaryBuilder(mem, dt)
	b.Reserve(hint)
	return &fixedSizeBinarySink{b: b}
}

func (s *fixedSizeBinarySink) Append(v parquet.Value) { s.b.Append(v.ByteArray()) }

func (s *fixedSizeBinarySink) AppendNull() { s.b.AppendNull() }

func (s *fixedSizeBinarySink) NewArray() (arrow.Array, error) { return s.b.NewArray(), nil }
