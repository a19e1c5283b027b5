package parquetdecode

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// mapIter is the map flavor of listIter: a map is physically a list of
// key/value entry structs, so the element recursion has already produced
// the entries array and the wrapper only re-tags the result.
type mapIter struct {
	typ   *arrow.MapType
	inner Iterator
	mem   memory.Allocator
}

func (it *mapIter) Next() (*NestedState, arrow.Array, error) {
	state, child, err := it.inner.Next()
	if err != nil {
		return nil, nil, err
	}
	arr, err := assembleMap(it.mem, it.typ, state, child)
	if err != nil {
		return nil, nil, err
	}
	return state, arr, nil
}

// assembleMap pops the list level pushed for the map and builds the Map
// array over the entries child. The entries shape (two-field struct, key
// nullability) is owned by the schema that produced the MapType; it is
// not re-validated here.
func assembleMap(mem memory.Allocator, dt *arrow.MapType, state *NestedState, child arrow.Array) (arrow.Array, error) {
	lvl := state.pop()
	if lvl.nesting.Kind != NestingList {
		panic(fmt.Sprintf("map assembler popped a %s level", lvl.nesting.Kind))
	}
	defer child.Release()

	bitmap, nulls := lvl.validityBuffer(mem)
	if bitmap != nil {
		defer bitmap.Release()
	}

	offsets, err := offsets32(lvl.offsets, child.Len())
	if err != nil {
		return nil, err
	}
	obuf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))
	defer obuf.Release()

	data := array.NewData(dt, lvl.length, []*memory.Buffer{bitmap, obuf}, []arrow.ArrayData{child.Data()}, nulls, 0)
	defer data.Release()
	return array.MakeFromData(data), nil
}
