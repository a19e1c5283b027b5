// Package parquetdecode reconstructs nested, nullable, dictionary-encoded
// arrow arrays from parquet column chunks. The dispatcher walks the
// logical schema depth-first, pairing each primitive node with one
// flattened leaf column, and reassembles lists, maps, and structs from
// the definition/repetition levels as leaf values stream in.
package parquetdecode

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
)

// LeafColumn is one flattened physical column: a page stream, the
// physical type it was written with, and the total number of values
// (nulls included) expected across its pages. Leaf columns are handed to
// the dispatcher in pre-order schema order. The caller keeps ownership of
// Pages and closes it when done with the iterator.
type LeafColumn struct {
	Pages     parquet.Pages
	Type      parquet.Type
	NumValues int64
}

// Iterator produces one (NestedState, arrow.Array) pair per chunk of
// decoded rows, io.EOF after the last chunk. Returned arrays are owned by
// the caller and must be Released; the state accompanying a fully
// assembled top-level chunk has every context level popped off already.
type Iterator interface {
	Next() (*NestedState, arrow.Array, error)
}

type iterConfig struct {
	chunkSize int64
	mem       memory.Allocator
}

type IterOption func(*iterConfig)

// WithChunkSize caps each yielded chunk at n top-level rows. Without it a
// column decodes as one chunk spanning all rows.
func WithChunkSize(n int64) IterOption {
	return func(c *iterConfig) { c.chunkSize = n }
}

// WithAllocator sets the arrow allocator backing decoded arrays.
func WithAllocator(mem memory.Allocator) IterOption {
	return func(c *iterConfig) { c.mem = mem }
}

// NewColumnIterator decodes one top-level field from its flattened leaf
// columns. The leaves must line up with a pre-order flattening of the
// field's primitive nodes and carry the physical types the file was
// written with; numRows is the top-level row count shared by every column
// of the row group.
func NewColumnIterator(leaves []LeafColumn, field arrow.Field, numRows int64, opts ...IterOption) (Iterator, error) {
	cfg := iterConfig{mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(&cfg)
	}
	return columnsToIterRecursive(leaves, field, nil, numRows, cfg)
}

// columnsToIterRecursive dispatches on the field's type, pushing one
// nesting level and either consuming leaf columns (primitive kinds) or
// recursing (nested kinds). Leaf slices are split by exact leaf counts
// instead of shared and mutated, so misalignment between the leaf,
// physical-type, and value-count inputs is impossible by construction.
func columnsToIterRecursive(leaves []LeafColumn, field arrow.Field, init []Nesting, numRows int64, cfg iterConfig) (Iterator, error) {
	want := LeafCount(field.Type)
	if want == 0 {
		return nil, fmt.Errorf("field %q owns no leaf columns: %w", field.Name, ErrInvalidArgument)
	}
	if len(leaves) != want {
		return nil, fmt.Errorf("field %q needs %d leaf columns, got %d: %w", field.Name, want, len(leaves), ErrInvalidArgument)
	}

	leaf := leaves[0]
	hint := sinkHint(leaf.NumValues, cfg.chunkSize)
	primitive := func(sink columnSink) (Iterator, error) {
		return leafIter{newNestedDecoder(leaf, push(init, PrimitiveNesting(field.Nullable)), sink, numRows, cfg)}, nil
	}

	switch field.Type.ID() {
	case arrow.NULL:
		return primitive(newNullSink())
	case arrow.BOOL:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castBool, finishBool))
	case arrow.INT8:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castInt8, finishInt8))
	case arrow.INT16:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castInt16, finishInt16))
	case arrow.INT32:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castInt32, finishInt32))
	case arrow.INT64:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castInt64, finishInt64))
	case arrow.UINT8:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castUint8, finishUint8))
	case arrow.UINT16:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castUint16, finishUint16))
	case arrow.UINT32:
		// Writers disagree on the physical spelling of unsigned 32-bit:
		// some reinterpret INT32 bits, others widen to INT64.
		switch leaf.Type.Kind() {
		case parquet.Int32:
			return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castUint32FromInt32, finishUint32))
		case parquet.Int64:
			return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castUint32FromInt64, finishUint32))
		default:
			return nil, fmt.Errorf("reading uint32 from parquet %s: %w", leaf.Type, ErrNotImplemented)
		}
	case arrow.UINT64:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castUint64, finishUint64))
	case arrow.FLOAT32:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castFloat32, finishFloat32))
	case arrow.FLOAT64:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castFloat64, finishFloat64))
	case arrow.DATE32:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castDate32, finishDate32))
	case arrow.DATE64:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castDate64, finishDate64))
	case arrow.TIME32:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castTime32, finishTime32))
	case arrow.TIME64:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castTime64, finishTime64))
	case arrow.TIMESTAMP:
		switch leaf.Type.Kind() {
		case parquet.Int64:
			return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castTimestamp, finishTimestamp))
		case parquet.Int96:
			// Legacy Impala/Hive files; the Julian-day encoding only ever
			// carried nanoseconds.
			if field.Type.(*arrow.TimestampType).Unit != arrow.Nanosecond {
				return nil, fmt.Errorf("reading %s from parquet INT96: %w", field.Type, ErrNotImplemented)
			}
			return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castTimestampFromInt96, finishTimestamp))
		default:
			return nil, fmt.Errorf("reading timestamp from parquet %s: %w", leaf.Type, ErrNotImplemented)
		}
	case arrow.DURATION:
		return primitive(newPrimitiveSink(cfg.mem, field.Type, hint, castDuration, finishDuration))

	case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY, arrow.LARGE_BINARY:
		sink, err := newBinarySink(cfg.mem, field.Type, hint)
		if err != nil {
			return nil, err
		}
		return primitive(sink)

	case arrow.FIXED_SIZE_BINARY:
		return primitive(newFixedSizeBinarySink(cfg.mem, field.Type.(*arrow.FixedSizeBinaryType), hint))

	case arrow.DECIMAL128:
		dt := field.Type.(*arrow.Decimal128Type)
		switch leaf.Type.Kind() {
		case parquet.Int32:
			return primitive(newDecimal128Sink(cfg.mem, dt, hint, castDecimal128FromInt32))
		case parquet.Int64:
			return primitive(newDecimal128Sink(cfg.mem, dt, hint, castDecimal128FromInt64))
		case parquet.FixedLenByteArray:
			if n := leaf.Type.Length(); n > 16 {
				return nil, fmt.Errorf("decimal128 from FIXED_LEN_BYTE_ARRAY(%d): %w", n, ErrInvalidArgument)
			}
			return primitive(newDecimal128Sink(cfg.mem, dt, hint, castDecimal128FromBytes))
		default:
			return nil, fmt.Errorf("reading decimal128 from parquet %s: %w", leaf.Type, ErrNotImplemented)
		}

	case arrow.DECIMAL256:
		dt := field.Type.(*arrow.Decimal256Type)
		switch leaf.Type.Kind() {
		case parquet.Int32:
			return primitive(newDecimal256Sink(cfg.mem, dt, hint, castDecimal256FromInt32))
		case parquet.Int64:
			return primitive(newDecimal256Sink(cfg.mem, dt, hint, castDecimal256FromInt64))
		case parquet.FixedLenByteArray:
			switch n := leaf.Type.Length(); {
			case n <= 16:
				return primitive(newDecimal256Sink(cfg.mem, dt, hint, castDecimal256FromBytes128))
			case n <= 32:
				return primitive(newDecimal256Sink(cfg.mem, dt, hint, castDecimal256FromBytes))
			default:
				return nil, fmt.Errorf("decimal256 from FIXED_LEN_BYTE_ARRAY(%d): %w", n, ErrInvalidArgument)
			}
		default:
			return nil, fmt.Errorf("reading decimal256 from parquet %s: %w", leaf.Type, ErrNotImplemented)
		}

	case arrow.DICTIONARY:
		sink, err := newDictSink(cfg.mem, field.Type.(*arrow.DictionaryType))
		if err != nil {
			return nil, err
		}
		return primitive(sink)

	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		elem := field.Type.(arrow.ListLikeType).ElemField()
		inner, err := columnsToIterRecursive(leaves, elem, push(init, ListNesting(field.Nullable)), numRows, cfg)
		if err != nil {
			return nil, err
		}
		return &listIter{typ: field.Type, inner: inner, mem: cfg.mem}, nil

	case arrow.MAP:
		mt := field.Type.(*arrow.MapType)
		entries := arrow.Field{Name: "entries", Type: mt.ValueType()}
		inner, err := columnsToIterRecursive(leaves, entries, push(init, ListNesting(field.Nullable)), numRows, cfg)
		if err != nil {
			return nil, err
		}
		return &mapIter{typ: mt, inner: inner, mem: cfg.mem}, nil

	case arrow.STRUCT:
		st := field.Type.(*arrow.StructType)
		iters := make([]Iterator, st.NumFields())
		rest := leaves
		// Children drain leaf columns from the tail, so walk them in
		// reverse declaration order; filling by index restores it.
		for i := st.NumFields() - 1; i >= 0; i-- {
			child := st.Field(i)
			k := LeafCount(child.Type)
			childLeaves := rest[len(rest)-k:]
			rest = rest[:len(rest)-k]
			it, err := columnsToIterRecursive(childLeaves, child, push(init, StructNesting(field.Nullable)), numRows, cfg)
			if err != nil {
				return nil, err
			}
			iters[i] = it
		}
		return &structIter{typ: st, iters: iters, mem: cfg.mem}, nil

	default:
		return nil, fmt.Errorf("reading %s: %w", field.Type, ErrNotImplemented)
	}
}

// LeafCount returns how many flattened physical leaf columns a subtree of
// the given logical type owns: one for primitives and dictionaries, the
// sum over children for nested types.
func LeafCount(dt arrow.DataType) int {
	switch t := dt.(type) {
	case *arrow.ListType:
		return LeafCount(t.Elem())
	case *arrow.LargeListType:
		return LeafCount(t.Elem())
	case *arrow.FixedSizeListType:
		return LeafCount(t.Elem())
	case *arrow.MapType:
		return LeafCount(t.KeyType()) + LeafCount(t.ItemType())
	case *arrow.StructType:
		n := 0
		for _, f := range t.Fields() {
			n += LeafCount(f.Type)
		}
		return n
	default:
		return 1
	}
}

// columnSink receives per-slot decisions from the level walk for the leaf
// of one column and materializes each finished chunk as an arrow array.
type columnSink interface {
	Append(parquet.Value)
	AppendNull()
	NewArray() (arrow.Array, error)
}

// leafIter strips the Primitive context entry its leaf decode pushed, so
// the state callers see holds only the levels they own.
type leafIter struct {
	dec *nestedDecoder
}

func (it leafIter) Next() (*NestedState, arrow.Array, error) {
	state, arr, err := it.dec.Next()
	if err != nil {
		return nil, nil, err
	}
	state.pop()
	return state, arr, nil
}

func sinkHint(numValues, chunkSize int64) int {
	if numValues < 0 {
		return 0
	}
	if chunkSize > 0 && chunkSize < numValues {
		return int(chunkSize)
	}
	return int(numValues)
}
