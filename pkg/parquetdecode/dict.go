package parquetdecode

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
)

// dictSink re-encodes leaf values through an arrow dictionary builder, so
// the decoded column presents (keys, values) with every non-null key
// pointing inside the values array regardless of how the writer encoded
// the page. Builder appends can fail on memo growth; the first failure is
// held and surfaced when the chunk is materialized.
//
// Value-count hints are deliberately not plumbed into this path; see
// newDictSink.
type dictSink struct {
	b        array.DictionaryBuilder
	appendFn func(parquet.Value) error
	err      error
}

// newDictSink validates the dictionary's key width and value type and
// wires the matching append. Unlike every other leaf constructor this one
// takes no capacity hint: value-count propagation for dictionary decodes
// is an acknowledged gap upstream of this package, and guessing a size
// here would paper over it.
func newDictSink(mem memory.Allocator, dt *arrow.DictionaryType) (*dictSink, error) {
	switch dt.IndexType.ID() {
	case arrow.INT8, arrow.UINT8, arrow.INT16, arrow.UINT16, arrow.INT32, arrow.UINT32, arrow.INT64, arrow.UINT64:
	default:
		return nil, fmt.Errorf("dictionary key type %s: %w", dt.IndexType, ErrNotImplemented)
	}

	s := &dictSink{}
	switch dt.ValueType.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.DATE32, arrow.TIME32, arrow.DATE64, arrow.TIME64, arrow.DURATION,
		arrow.STRING, arrow.BINARY, arrow.LARGE_STRING, arrow.LARGE_BINARY,
		arrow.FIXED_SIZE_BINARY:
	default:
		return nil, fmt.Errorf("dictionary value type %s: %w", dt.ValueType, ErrNotImplemented)
	}

	s.b = array.NewDictionaryBuilder(mem, dt)
	switch b := s.b.(type) {
	case *array.Int8DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(int8(v.Int32())) }
	case *array.Int16DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(int16(v.Int32())) }
	case *array.Int32DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.Int32()) }
	case *array.Int64DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.Int64()) }
	case *array.Uint8DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(uint8(v.Int32())) }
	case *array.Uint16DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(uint16(v.Int32())) }
	case *array.Uint32DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(uint32(v.Int32())) }
	case *array.Date32DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(arrow.Date32(v.Int32())) }
	case *array.Time32DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(arrow.Time32(v.Int32())) }
	case *array.Date64DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(arrow.Date64(v.Int64())) }
	case *array.Time64DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(arrow.Time64(v.Int64())) }
	case *array.DurationDictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(arrow.Duration(v.Int64())) }
	case *array.Float32DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.Float()) }
	case *array.Float64DictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.Double()) }
	case *array.BinaryDictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.ByteArray()) }
	case *array.FixedSizeBinaryDictionaryBuilder:
		s.appendFn = func(v parquet.Value) error { return b.Append(v.ByteArray()) }
	default:
		s.b.Release()
		return nil, fmt.Errorf("dictionary value type %s: %w", dt.ValueType, ErrNotImplemented)
	}
	return s, nil
}

func (s *dictSink) Append(v parquet.Value) {
	if s.err != nil {
		return
	}
	s.err = s.appendFn(v)
}

func (s *dictSink) AppendNull() {
	s.b.AppendNull()
}

func (s *dictSink) NewArray() (arrow.Array, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.b.NewArray(), nil
}
