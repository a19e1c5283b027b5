package main

import (
	"github.com/alecthomas/kong"
)

var cli struct {
	Schema  schemaCmd  `cmd:"" help:"Print the parquet schema of a file and the arrow schema it decodes to."`
	Columns columnsCmd `cmd:"" help:"List the leaf columns of a file with value counts and page sizes."`
	Dump    dumpCmd    `cmd:"" help:"Decode a file to arrow records and print the rows."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("quiver-cli"),
		kong.Description("Inspect and decode parquet files."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
