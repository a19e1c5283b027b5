package parquetscan

import (
	"flag"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Options configures a Reader. The zero value plus
// RegisterFlagsAndApplyDefaults is a working configuration.
type Options struct {
	// ChunkSize caps the number of rows per record. 0 means one record
	// per row group.
	ChunkSize int64 `yaml:"chunk_size"`

	// Parallelism bounds how many columns are decoded concurrently while
	// assembling one record. 0 means one goroutine per selected column.
	Parallelism int `yaml:"parallelism"`

	// Columns projects the scan to the named top-level fields. Empty
	// means all fields.
	Columns []string `yaml:"columns"`

	Allocator memory.Allocator `yaml:"-"`
	Logger    log.Logger       `yaml:"-"`
}

func (cfg *Options) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.ChunkSize = 0
	cfg.Parallelism = 0

	f.Int64Var(&cfg.ChunkSize, prefix+".chunk-size", cfg.ChunkSize, "Maximum rows per decoded record. 0 decodes whole row groups.")
	f.IntVar(&cfg.Parallelism, prefix+".parallelism", cfg.Parallelism, "Number of columns decoded concurrently. 0 means all of them.")
}

// LoadOptions reads Options from a yaml document shaped like the flag
// configuration.
func LoadOptions(r io.Reader) (Options, error) {
	var cfg Options
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Options{}, errors.Wrap(err, "parsing scan options")
	}
	return cfg, nil
}

func (cfg *Options) applyDefaults() {
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
}
