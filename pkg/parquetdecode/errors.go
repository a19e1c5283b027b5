package parquetdecode

import "errors"

// The two error classes the engine originates. Callers distinguish them
// with errors.Is; anything else flowing out of an iterator is an I/O error
// from the underlying page source, passed through unchanged.
var (
	// ErrNotImplemented signals a schema / physical-type combination the
	// engine recognizes but has no decoder for.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidArgument signals a schema that cannot be decoded correctly
	// no matter what, such as a fixed-width byte array wider than the
	// decimal type it is supposed to fill.
	ErrInvalidArgument = errors.New("invalid argument")
)
