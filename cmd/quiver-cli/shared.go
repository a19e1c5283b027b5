package main

import (
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/grafana/quiver/pkg/parquetscan"
)

// openParquetFile opens a local parquet file behind a counting reader so
// commands can report how many bytes they actually touched.
func openParquetFile(path string) (*parquet.File, *parquetscan.CountingReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening file")
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrap(err, "stating file")
	}

	cr := parquetscan.NewCountingReaderAt(f)
	pf, err := parquet.OpenFile(cr, stat.Size())
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening parquet file")
	}

	return pf, cr, nil
}

// columnPath renders the dotted path of the leaf column with the given
// index, walking the column tree the same way the flattened leaf order
// does.
func columnPath(col *parquet.Column, prefix string, idx int) (string, bool) {
	if col.Leaf() {
		if col.Index() == idx {
			return prefix + col.Name(), true
		}
		return "", false
	}
	if col.Name() != "" {
		prefix += col.Name() + "."
	}
	for _, child := range col.Columns() {
		if path, ok := columnPath(child, prefix, idx); ok {
			return path, true
		}
	}
	return "", false
}
