package parquetscan

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/grafana/quiver/pkg/parquetdecode"
)

var tracer = otel.Tracer("pkg/parquetscan")

// selectedField is one projected top-level column and the range of
// flattened leaf columns its subtree owns.
type selectedField struct {
	field     arrow.Field
	leafStart int
	leafCount int
}

// Reader streams arrow records out of a parquet file, row group by row
// group. Columns of one record decode concurrently; records arrive in row
// order. Not safe for concurrent use.
type Reader struct {
	ctx    context.Context
	pf     *parquet.File
	cfg    Options
	schema *arrow.Schema
	fields []selectedField

	rg    int
	iters []parquetdecode.Iterator
	pages []parquet.Pages

	rowsRead atomic.Int64
}

// NewReader derives the arrow schema, applies the column projection, and
// positions the reader before the first row group.
func NewReader(ctx context.Context, pf *parquet.File, cfg Options) (*Reader, error) {
	cfg.applyDefaults()

	full, err := ArrowSchema(pf.Schema())
	if err != nil {
		return nil, errors.Wrap(err, "deriving arrow schema")
	}

	all := make([]selectedField, 0, full.NumFields())
	leaf := 0
	for _, f := range full.Fields() {
		n := parquetdecode.LeafCount(f.Type)
		all = append(all, selectedField{field: f, leafStart: leaf, leafCount: n})
		leaf += n
	}

	selected := all
	if len(cfg.Columns) > 0 {
		selected = selected[:0:0]
		for _, name := range cfg.Columns {
			i := full.FieldIndices(name)
			if len(i) == 0 {
				return nil, errors.Errorf("column %q not in schema", name)
			}
			selected = append(selected, all[i[0]])
		}
	}

	fields := make([]arrow.Field, len(selected))
	for i, s := range selected {
		fields[i] = s.field
	}

	return &Reader{
		ctx:    ctx,
		pf:     pf,
		cfg:    cfg,
		schema: arrow.NewSchema(fields, nil),
		fields: selected,
	}, nil
}

// Schema is the arrow schema of the records Next returns, after
// projection.
func (r *Reader) Schema() *arrow.Schema { return r.schema }

// RowsRead is the total number of rows delivered so far.
func (r *Reader) RowsRead() int64 { return r.rowsRead.Load() }

// Next returns the next record, io.EOF after the last one. The caller
// owns the record and must Release it.
func (r *Reader) Next() (arrow.Record, error) {
	for {
		if r.iters == nil {
			if r.rg >= len(r.pf.RowGroups()) {
				return nil, io.EOF
			}
			if err := r.openRowGroup(r.rg); err != nil {
				metricDecodeErrors.Inc()
				return nil, err
			}
		}

		rec, err := r.pull()
		if err == io.EOF {
			r.closeRowGroup()
			r.rg++
			continue
		}
		if err != nil {
			metricDecodeErrors.Inc()
			return nil, err
		}
		return rec, nil
	}
}

func (r *Reader) openRowGroup(idx int) error {
	rg := r.pf.RowGroups()[idx]
	numRows := rg.NumRows()

	_, span := tracer.Start(r.ctx, "Reader.openRowGroup",
		trace.WithAttributes(
			attribute.Int("rowGroup", idx),
			attribute.Int64("rows", numRows),
		))
	defer span.End()
	level.Debug(r.cfg.Logger).Log("msg", "opening row group", "rowGroup", idx, "rows", numRows)

	chunks := rg.ColumnChunks()
	opts := []parquetdecode.IterOption{parquetdecode.WithAllocator(r.cfg.Allocator)}
	if r.cfg.ChunkSize > 0 {
		opts = append(opts, parquetdecode.WithChunkSize(r.cfg.ChunkSize))
	}

	r.iters = make([]parquetdecode.Iterator, len(r.fields))
	for i, sf := range r.fields {
		leaves := make([]parquetdecode.LeafColumn, sf.leafCount)
		for j := range leaves {
			cc := chunks[sf.leafStart+j]
			pages := cc.Pages()
			r.pages = append(r.pages, pages)
			leaves[j] = parquetdecode.LeafColumn{
				Pages:     pages,
				Type:      cc.Type(),
				NumValues: cc.NumValues(),
			}
		}
		iter, err := parquetdecode.NewColumnIterator(leaves, sf.field, numRows, opts...)
		if err != nil {
			r.closeRowGroup()
			return errors.Wrapf(err, "opening column %q", sf.field.Name)
		}
		r.iters[i] = iter
	}
	return nil
}

// pull assembles one record from the next chunk of every column. All
// columns share the row-group row count and chunk size, so they exhaust
// on the same pull.
func (r *Reader) pull() (arrow.Record, error) {
	cols := make([]arrow.Array, len(r.iters))
	done := make([]bool, len(r.iters))

	g := errgroup.Group{}
	if r.cfg.Parallelism > 0 {
		g.SetLimit(r.cfg.Parallelism)
	}
	for i, iter := range r.iters {
		g.Go(func() error {
			_, arr, err := iter.Next()
			if err == io.EOF {
				done[i] = true
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "decoding column %q", r.fields[i].field.Name)
			}
			cols[i] = arr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseAll(cols)
		return nil, err
	}

	exhausted := 0
	for _, d := range done {
		if d {
			exhausted++
		}
	}
	if exhausted == len(done) {
		return nil, io.EOF
	}
	if exhausted > 0 {
		releaseAll(cols)
		return nil, errors.New("columns fell out of sync at row group boundary")
	}

	numRows := cols[0].Len()
	for i, c := range cols[1:] {
		if c.Len() != numRows {
			releaseAll(cols)
			return nil, errors.Errorf("column %q decoded %d rows, want %d",
				r.fields[i+1].field.Name, c.Len(), numRows)
		}
	}

	rec := array.NewRecord(r.schema, cols, int64(numRows))
	releaseAll(cols)

	r.rowsRead.Add(int64(numRows))
	metricRowsDecoded.Add(float64(numRows))
	metricRecordsAssembled.Inc()
	return rec, nil
}

func (r *Reader) closeRowGroup() {
	for _, p := range r.pages {
		_ = p.Close()
	}
	r.pages = r.pages[:0]
	r.iters = nil
}

// Close releases the page streams of the row group currently open.
func (r *Reader) Close() {
	r.closeRowGroup()
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}
