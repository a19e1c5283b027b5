package parquetdecode

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
)

// validityTracker accumulates per-slot validity lazily: it allocates
// nothing until the first null, so fully required columns finish with a
// nil bitmap.
type validityTracker struct {
	valid []bool
	n     int
}

func (t *validityTracker) append(ok bool) {
	if t.valid == nil {
		if ok {
			t.n++
			return
		}
		t.valid = make([]bool, t.n, t.n+16)
		for i := range t.valid {
			t.valid[i] = true
		}
	}
	t.valid = append(t.valid, ok)
}

// slice returns the accumulated validity, nil meaning every slot is valid.
func (t *validityTracker) slice() []bool { return t.valid }

func (t *validityTracker) reset() { *t = validityTracker{} }

type castFunc[T any] func(parquet.Value) T

type finishFunc[T any] func(memory.Allocator, arrow.DataType, []T, []bool) arrow.Array

// primitiveSink accumulates cast values and validity for one fixed-width
// leaf and materializes them through the matching arrow builder.
type primitiveSink[T any] struct {
	mem      memory.Allocator
	dt       arrow.DataType
	cast     castFunc[T]
	finish   finishFunc[T]
	values   []T
	validity validityTracker
}

func newPrimitiveSink[T any](mem memory.Allocator, dt arrow.DataType, hint int, cast castFunc[T], finish finishFunc[T]) *primitiveSink[T] {
	return &primitiveSink[T]{
		mem:    mem,
		dt:     dt,
		cast:   cast,
		finish: finish,
		values: make([]T, 0, hint),
	}
}

func (s *primitiveSink[T]) Append(v parquet.Value) {
	s.values = append(s.values, s.cast(v))
	s.validity.append(true)
}

func (s *primitiveSink[T]) AppendNull() {
	var zero T
	s.values = append(s.values, zero)
	s.validity.append(false)
}

func (s *primitiveSink[T]) NewArray() (arrow.Array, error) {
	arr := s.finish(s.mem, s.dt, s.values, s.validity.slice())
	s.values = s.values[:0]
	s.validity.reset()
	return arr, nil
}

func finishBool(mem memory.Allocator, _ arrow.DataType, values []bool, valid []bool) arrow.Array {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishInt8(mem memory.Allocator, _ arrow.DataType, values []int8, valid []bool) arrow.Array {
	b := array.NewInt8Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishInt16(mem memory.Allocator, _ arrow.DataType, values []int16, valid []bool) arrow.Array {
	b := array.NewInt16Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishInt32(mem memory.Allocator, _ arrow.DataType, values []int32, valid []bool) arrow.Array {
	b := array.NewInt32Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishInt64(mem memory.Allocator, _ arrow.DataType, values []int64, valid []bool) arrow.Array {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishUint8(mem memory.Allocator, _ arrow.DataType, values []uint8, valid []bool) arrow.Array {
	b := array.NewUint8Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishUint16(mem memory.Allocator, _ arrow.DataType, values []uint16, valid []bool) arrow.Array {
	b := array.NewUint16Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishUint32(mem memory.Allocator, _ arrow.DataType, values []uint32, valid []bool) arrow.Array {
	b := array.NewUint32Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishUint64(mem memory.Allocator, _ arrow.DataType, values []uint64, valid []bool) arrow.Array {
	b := array.NewUint64Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishFloat32(mem memory.Allocator, _ arrow.DataType, values []float32, valid []bool) arrow.Array {
	b := array.NewFloat32Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishFloat64(mem memory.Allocator, _ arrow.DataType, values []float64, valid []bool) arrow.Array {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishDate32(mem memory.Allocator, _ arrow.DataType, values []arrow.Date32, valid []bool) arrow.Array {
	b := array.NewDate32Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishDate64(mem memory.Allocator, _ arrow.DataType, values []arrow.Date64, valid []bool) arrow.Array {
	b := array.NewDate64Builder(mem)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishTime32(mem memory.Allocator, dt arrow.DataType, values []arrow.Time32, valid []bool) arrow.Array {
	b := array.NewTime32Builder(mem, dt.(*arrow.Time32Type))
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishTime64(mem memory.Allocator, dt arrow.DataType, values []arrow.Time64, valid []bool) arrow.Array {
	b := array.NewTime64Builder(mem, dt.(*arrow.Time64Type))
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishTimestamp(mem memory.Allocator, dt arrow.DataType, values []arrow.Timestamp, valid []bool) arrow.Array {
	b := array.NewTimestampBuilder(mem, dt.(*arrow.TimestampType))
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

func finishDuration(mem memory.Allocator, dt arrow.DataType, values []arrow.Duration, valid []bool) arrow.Array {
	b := array.NewDurationBuilder(mem, dt.(*arrow.DurationType))
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray()
}

// nullSink counts slots without ever touching value bytes. Both entry
// points only count: even a slot whose definition level would make it
// "valid" holds no decodable value for the null type.
type nullSink struct {
	count int
}

func newNullSink() *nullSink { return &nullSink{} }

func (s *nullSink) Append(parquet.Value) { s.count++ }

func (s *nullSink) AppendNull() { s.count++ }

func (s *nullSink) NewArray() (arrow.Array, error) {
	arr := array.NewNull(s.count)
	s.count = 0
	return arr, nil
}
