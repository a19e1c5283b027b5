package parquetdecode

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

const valueBatchSize = 1024

// valueReader streams (repetition, definition, value) tuples for one leaf
// column across page boundaries, with one tuple of lookahead so chunk
// boundaries can be detected without consuming the first value of the
// next chunk.
type valueReader struct {
	pages  parquet.Pages
	values parquet.ValueReader
	buf    []parquet.Value
	n      int
	pos    int
	peeked *parquet.Value
}

func newValueReader(pages parquet.Pages) *valueReader {
	return &valueReader{pages: pages, buf: make([]parquet.Value, valueBatchSize)}
}

// peek returns the next tuple without consuming it. io.EOF means the
// column is exhausted.
func (r *valueReader) peek() (parquet.Value, error) {
	if r.peeked == nil {
		v, err := r.read()
		if err != nil {
			return parquet.Value{}, err
		}
		r.peeked = &v
	}
	return *r.peeked, nil
}

// advance consumes the tuple returned by the last peek.
func (r *valueReader) advance() {
	r.peeked = nil
}

func (r *valueReader) read() (parquet.Value, error) {
	for r.pos >= r.n {
		if err := r.fill(); err != nil {
			return parquet.Value{}, err
		}
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *valueReader) fill() error {
	if r.values == nil {
		pg, err := r.pages.ReadPage()
		if err != nil {
			return err
		}
		r.values = pg.Values()
	}
	n, err := r.values.ReadValues(r.buf)
	r.n, r.pos = n, 0
	if err != nil && err != io.EOF {
		return err
	}
	if err == io.EOF || n == 0 {
		// Page exhausted, move on to the next one on the following fill.
		r.values = nil
	}
	return nil
}

// nestedDecoder drives one leaf column: it walks the repetition/definition
// tuple stream, materializes one slot per active nesting level into the
// chunk's NestedState, and feeds leaf decisions into the column's sink.
//
// The level thresholds are derived once from the nesting context. For a
// level at depth d, cumDef[d] and cumRep[d] hold the definition and
// repetition levels contributed by everything above d. A tuple then reads
// as follows: its repetition level selects the depth the tuple starts
// materializing at (everything above is a continuation of already-open
// slots), a nullable level's slot is valid iff the definition level
// clears cumDef[d], and a list level keeps descending iff the definition
// level proves the list has at least one element.
type nestedDecoder struct {
	reader *valueReader
	sink   columnSink
	init   []Nesting

	cumDef []int
	cumRep []int
	maxDef int

	numRows   int64
	chunkSize int64 // 0 means one chunk spanning all rows
	rowsDone  int64
	emitted   bool
	exhausted bool
}

func newNestedDecoder(leaf LeafColumn, init []Nesting, sink columnSink, numRows int64, cfg iterConfig) *nestedDecoder {
	d := &nestedDecoder{
		reader:    newValueReader(leaf.Pages),
		sink:      sink,
		init:      init,
		numRows:   numRows,
		chunkSize: cfg.chunkSize,
	}
	d.cumDef = make([]int, len(init))
	d.cumRep = make([]int, len(init))
	def, rep := 0, 0
	for i, n := range init {
		d.cumDef[i], d.cumRep[i] = def, rep
		if n.Nullable {
			def++
		}
		if n.repeated() {
			def++
			rep++
		}
	}
	d.maxDef = def
	return d
}

func (d *nestedDecoder) Next() (*NestedState, arrow.Array, error) {
	if d.exhausted {
		return nil, nil, io.EOF
	}
	state := newNestedState(d.init)
	target := d.numRows - d.rowsDone
	if d.chunkSize > 0 && d.chunkSize < target {
		target = d.chunkSize
	}

	var rows int64
	for {
		v, err := d.reader.peek()
		if err == io.EOF {
			d.exhausted = true
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading leaf column")
		}
		if v.RepetitionLevel() == 0 {
			if rows >= target {
				break
			}
			rows++
		}
		d.reader.advance()
		d.walk(state, v)
	}

	d.rowsDone += rows
	if d.rowsDone >= d.numRows {
		d.exhausted = true
	}
	if rows == 0 && d.emitted {
		return nil, nil, io.EOF
	}
	d.emitted = true

	arr, err := d.sink.NewArray()
	if err != nil {
		return nil, nil, err
	}
	return state, arr, nil
}

// walk materializes one tuple. Slots are created root to leaf starting at
// the depth selected by the repetition level; descending stops below a
// list level whose definition level says it holds no elements. Struct
// levels never stop the descent: a null struct still materializes null
// slots in every child, keeping sibling lengths aligned.
func (d *nestedDecoder) walk(state *NestedState, v parquet.Value) {
	rep, def := v.RepetitionLevel(), v.DefinitionLevel()
	leaf := len(state.levels) - 1
	for depth := d.startDepth(rep); depth <= leaf; depth++ {
		lvl := state.levels[depth]
		if lvl.nesting.Kind == NestingList {
			lvl.offsets = append(lvl.offsets, int64(state.levels[depth+1].length))
		}
		if lvl.nesting.Nullable {
			lvl.valid = append(lvl.valid, def > d.cumDef[depth])
		}
		lvl.length++
		if lvl.nesting.Kind == NestingList && def < d.cumDef[depth+1] {
			return
		}
		if depth == leaf {
			if def == d.maxDef {
				d.sink.Append(v)
			} else {
				d.sink.AppendNull()
			}
		}
	}
}

// startDepth returns the outermost depth a tuple with the given repetition
// level materializes a new slot at. cumRep is non-decreasing so the first
// depth it clears is the answer; rep 0 always starts a fresh top-level row.
func (d *nestedDecoder) startDepth(rep int) int {
	for depth, r := range d.cumRep {
		if rep <= r {
			return depth
		}
	}
	return len(d.cumRep) - 1
}
