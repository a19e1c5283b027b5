package parquetscan

import (
	"io"

	"go.uber.org/atomic"
)

// CountingReaderAt tracks how many bytes a parquet file pulled through an
// io.ReaderAt, which is the closest thing to an I/O cost a local scan has.
type CountingReaderAt struct {
	r io.ReaderAt

	bytesRead atomic.Uint64
}

var _ io.ReaderAt = (*CountingReaderAt)(nil)

func NewCountingReaderAt(r io.ReaderAt) *CountingReaderAt {
	return &CountingReaderAt{r: r}
}

func (c *CountingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.r.ReadAt(p, off)
	c.bytesRead.Add(uint64(n))
	return n, err
}

func (c *CountingReaderAt) BytesRead() uint64 {
	return c.bytesRead.Load()
}
