package parquetdecode

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// listIter wraps the element iterator of a List, LargeList, or
// FixedSizeList field and assembles each yielded chunk into the outer
// array using the list level its own dispatch pushed.
type listIter struct {
	typ   arrow.DataType
	inner Iterator
	mem   memory.Allocator
}

func (it *listIter) Next() (*NestedState, arrow.Array, error) {
	state, child, err := it.inner.Next()
	if err != nil {
		return nil, nil, err
	}
	arr, err := assembleList(it.mem, it.typ, state, child)
	if err != nil {
		return nil, nil, err
	}
	return state, arr, nil
}

// assembleList pops the list level and wraps the child as its flat
// values. A null row and an empty row both have zero extent in the child;
// the popped validity bit is the only thing telling them apart.
func assembleList(mem memory.Allocator, dt arrow.DataType, state *NestedState, child arrow.Array) (arrow.Array, error) {
	lvl := state.pop()
	if lvl.nesting.Kind != NestingList {
		panic(fmt.Sprintf("list assembler popped a %s level", lvl.nesting.Kind))
	}
	defer child.Release()

	bitmap, nulls := lvl.validityBuffer(mem)
	if bitmap != nil {
		defer bitmap.Release()
	}

	switch dt.(type) {
	case *arrow.FixedSizeListType:
		// The fixed stride makes offsets implicit; the writer is on the
		// hook for padding child slots under null rows.
		data := array.NewData(dt, lvl.length, []*memory.Buffer{bitmap}, []arrow.ArrayData{child.Data()}, nulls, 0)
		defer data.Release()
		return array.MakeFromData(data), nil

	case *arrow.ListType:
		offsets, err := offsets32(lvl.offsets, child.Len())
		if err != nil {
			return nil, err
		}
		obuf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))
		defer obuf.Release()
		data := array.NewData(dt, lvl.length, []*memory.Buffer{bitmap, obuf}, []arrow.ArrayData{child.Data()}, nulls, 0)
		defer data.Release()
		return array.MakeFromData(data), nil

	case *arrow.LargeListType:
		offsets := offsets64(lvl.offsets, child.Len())
		obuf := memory.NewBufferBytes(arrow.Int64Traits.CastToBytes(offsets))
		defer obuf.Release()
		data := array.NewData(dt, lvl.length, []*memory.Buffer{bitmap, obuf}, []arrow.ArrayData{child.Data()}, nulls, 0)
		defer data.Release()
		return array.MakeFromData(data), nil

	default:
		panic(fmt.Sprintf("list assembler applied to %s", dt))
	}
}

// offsets32 closes the recorded slot starts with the final child length
// and narrows to the 32-bit offsets a List array carries.
func offsets32(starts []int64, end int) ([]int32, error) {
	if int64(end) > math.MaxInt32 {
		return nil, fmt.Errorf("list of %d values overflows 32-bit offsets: %w", end, ErrInvalidArgument)
	}
	out := make([]int32, len(starts)+1)
	for i, s := range starts {
		out[i] = int32(s)
	}
	out[len(starts)] = int32(end)
	return out, nil
}

func offsets64(starts []int64, end int) []int64 {
	out := make([]int64, len(starts)+1)
	copy(out, starts)
	out[len(starts)] = int64(end)
	return out
}
