package parquetdecode

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// NestingKind enumerates the shapes a level of the logical schema can take
// once repetition is flattened away. Maps and fixed-size lists share the
// List kind; their difference is reapplied by the assemblers.
type NestingKind uint8

const (
	NestingPrimitive NestingKind = iota
	NestingList
	NestingStruct
)

func (k NestingKind) String() string {
	switch k {
	case NestingPrimitive:
		return "primitive"
	case NestingList:
		return "list"
	case NestingStruct:
		return "struct"
	}
	return "invalid"
}

// Nesting describes one level of nesting in the logical schema, ordered
// root to leaf in the context stack the dispatcher threads downward. The
// dispatcher pushes one entry per level as it recurses; leaf decoders and
// assemblers pop them back off, innermost first, as arrays are finalized.
type Nesting struct {
	Kind     NestingKind
	Nullable bool
}

func PrimitiveNesting(nullable bool) Nesting {
	return Nesting{Kind: NestingPrimitive, Nullable: nullable}
}

func ListNesting(nullable bool) Nesting {
	return Nesting{Kind: NestingList, Nullable: nullable}
}

func StructNesting(nullable bool) Nesting {
	return Nesting{Kind: NestingStruct, Nullable: nullable}
}

// repeated reports whether the level contributes a repetition level to the
// column's encoding.
func (n Nesting) repeated() bool { return n.Kind == NestingList }

// push copies the context and appends one level, leaving the caller's
// stack untouched for sibling walks.
func push(init []Nesting, n Nesting) []Nesting {
	out := make([]Nesting, len(init), len(init)+1)
	copy(out, init)
	return append(out, n)
}

// levelState accumulates the decoded shape of one nesting level for the
// chunk currently in flight.
type levelState struct {
	nesting Nesting
	length  int
	valid   []bool  // nil when the level cannot be null
	offsets []int64 // slot start offsets, list levels only
}

// validityBuffer materializes the accumulated validity as an arrow bitmap,
// returning the null count alongside. A required level yields (nil, 0).
func (l *levelState) validityBuffer(mem memory.Allocator) (*memory.Buffer, int) {
	if l.valid == nil {
		return nil, 0
	}
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(int(bitutil.BytesForBits(int64(len(l.valid)))))
	wr := bitutil.NewBitmapWriter(buf.Bytes(), 0, len(l.valid))
	wr.AppendBools(l.valid)
	wr.Finish()
	nulls := len(l.valid) - bitutil.CountSetBits(buf.Bytes(), 0, len(l.valid))
	return buf, nulls
}

// NestedState is the per-chunk companion threaded through the recursive
// decode: one entry per still-active nesting level, root to leaf. Each
// leaf decoder and composite assembler pops exactly one entry as it
// finalizes its piece of the array, so a fully assembled top-level chunk
// comes back with an empty state.
type NestedState struct {
	levels []*levelState
}

func newNestedState(init []Nesting) *NestedState {
	levels := make([]*levelState, len(init))
	for i, n := range init {
		levels[i] = &levelState{nesting: n}
	}
	return &NestedState{levels: levels}
}

// Depth returns the number of active levels.
func (s *NestedState) Depth() int { return len(s.levels) }

// Len returns the slot count of the innermost active level: the length of
// the array being assembled at that depth.
func (s *NestedState) Len() int {
	if len(s.levels) == 0 {
		return 0
	}
	return s.levels[len(s.levels)-1].length
}

func (s *NestedState) pop() *levelState {
	last := len(s.levels) - 1
	lvl := s.levels[last]
	s.levels = s.levels[:last]
	return lvl
}
