package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

type columnsCmd struct {
	Path string `arg:"" help:"parquet file to inspect"`
}

func (cmd *columnsCmd) Run() error {
	pf, _, err := openParquetFile(cmd.Path)
	if err != nil {
		return err
	}

	type colStats struct {
		path       string
		physical   string
		values     int64
		nulls      int64
		compressed int64
	}

	stats := map[int]*colStats{}
	order := []int{}

	for _, rg := range pf.RowGroups() {
		for _, cc := range rg.ColumnChunks() {
			s, ok := stats[cc.Column()]
			if !ok {
				path, _ := columnPath(pf.Root(), "", cc.Column())
				s = &colStats{path: path, physical: cc.Type().String()}
				stats[cc.Column()] = s
				order = append(order, cc.Column())
			}
			s.values += cc.NumValues()

			if cidx, err := cc.ColumnIndex(); err == nil {
				for pg := 0; pg < cidx.NumPages(); pg++ {
					s.nulls += cidx.NullCount(pg)
				}
			}
			if oidx, err := cc.OffsetIndex(); err == nil {
				for pg := 0; pg < oidx.NumPages(); pg++ {
					s.compressed += oidx.CompressedPageSize(pg)
				}
			}
		}
	}

	fmt.Printf("rows: %d, row groups: %d\n\n", pf.NumRows(), len(pf.RowGroups()))

	w := tablewriter.NewWriter(os.Stdout)
	w.Header("column", "physical type", "values", "nulls", "compressed")
	for _, idx := range order {
		s := stats[idx]
		if err := w.Append([]string{
			s.path,
			s.physical,
			strconv.FormatInt(s.values, 10),
			strconv.FormatInt(s.nulls, 10),
			humanize.Bytes(uint64(s.compressed)),
		}); err != nil {
			return err
		}
	}
	return w.Render()
}
