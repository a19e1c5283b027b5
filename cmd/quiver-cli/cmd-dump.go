package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/dustin/go-humanize"

	"github.com/grafana/quiver/pkg/parquetscan"
)

type dumpCmd struct {
	Path    string   `arg:"" help:"parquet file to decode"`
	Columns []string `help:"top-level columns to decode, all when empty" name:"columns"`
	Chunk   int64    `help:"rows per decoded record, 0 decodes whole row groups" default:"0"`
	Limit   int64    `help:"stop after this many rows, 0 means no limit" default:"0"`
}

func (cmd *dumpCmd) Run() error {
	pf, cr, err := openParquetFile(cmd.Path)
	if err != nil {
		return err
	}

	r, err := parquetscan.NewReader(context.Background(), pf, parquetscan.Options{
		ChunkSize: cmd.Chunk,
		Columns:   cmd.Columns,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	printed := int64(0)
	for cmd.Limit == 0 || printed < cmd.Limit {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if cmd.Limit > 0 && printed+rec.NumRows() > cmd.Limit {
			sliced := rec.NewSlice(0, cmd.Limit-printed)
			rec.Release()
			rec = sliced
		}
		err = array.RecordToJSON(rec, os.Stdout)
		printed += rec.NumRows()
		rec.Release()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "rows: %d, bytes read: %s\n", printed, humanize.Bytes(cr.BytesRead()))
	return nil
}
