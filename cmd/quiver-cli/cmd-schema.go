package main

import (
	"fmt"

	"github.com/grafana/quiver/pkg/parquetscan"
)

type schemaCmd struct {
	Path string `arg:"" help:"parquet file to inspect"`
}

func (cmd *schemaCmd) Run() error {
	pf, _, err := openParquetFile(cmd.Path)
	if err != nil {
		return err
	}

	fmt.Println("parquet schema:")
	fmt.Println(pf.Schema().String())

	as, err := parquetscan.ArrowSchema(pf.Schema())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("arrow schema:")
	for _, f := range as.Fields() {
		nullable := ""
		if f.Nullable {
			nullable = ", nullable"
		}
		fmt.Printf("  %s: %s%s\n", f.Name, f.Type, nullable)
	}
	return nil
}
