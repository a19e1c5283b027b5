package parquetdecode

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// structIter zips the per-field iterators of a struct position-wise. All
// fields were built with the same row count and chunk size, so they yield
// the same number of chunks with the same per-chunk lengths and exhaust
// together. Every child state still carries the struct's own level; the
// first child's copy is the one consumed for validity, which is how
// struct nullability stays independent of whatever the individual fields
// decoded.
type structIter struct {
	typ   *arrow.StructType
	iters []Iterator
	mem   memory.Allocator
}

func (it *structIter) Next() (*NestedState, arrow.Array, error) {
	var state *NestedState
	children := make([]arrow.Array, len(it.iters))
	for i, child := range it.iters {
		s, arr, err := child.Next()
		if err != nil {
			for _, c := range children[:i] {
				c.Release()
			}
			return nil, nil, err
		}
		if i == 0 {
			state = s
		}
		children[i] = arr
	}

	arr, err := assembleStruct(it.mem, it.typ, state, children)
	if err != nil {
		return nil, nil, err
	}
	return state, arr, nil
}

func assembleStruct(mem memory.Allocator, dt *arrow.StructType, state *NestedState, children []arrow.Array) (arrow.Array, error) {
	lvl := state.pop()
	if lvl.nesting.Kind != NestingStruct {
		panic(fmt.Sprintf("struct assembler popped a %s level", lvl.nesting.Kind))
	}

	bitmap, nulls := lvl.validityBuffer(mem)
	if bitmap != nil {
		defer bitmap.Release()
	}

	childData := make([]arrow.ArrayData, len(children))
	for i, c := range children {
		childData[i] = c.Data()
		defer c.Release()
	}

	data := array.NewData(dt, lvl.length, []*memory.Buffer{bitmap}, childData, nulls, 0)
	defer data.Release()
	return array.MakeFromData(data), nil
}
