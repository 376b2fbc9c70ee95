package csvdb

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type Writer struct {
	fw     *os.File
	zw     *gzip.Writer
	writer *csv.Writer
	path   string
	mode   string
}

func newWriter(path, writeMode string) (*Writer, error) {
	flags := 0
	switch writeMode {
	case CWriteModeWrite:
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	default:
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	fw, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	c := new(Writer)
	c.path = path
	c.fw = fw
	ext := filepath.Ext(path)
	if ext == ".gz" || ext == ".gzip" {
		// appending starts a new gzip member, which gzip.Reader reads through
		c.zw = gzip.NewWriter(fw)
		c.writer = csv.NewWriter(c.zw)
		c.mode = cRModeGZip
	} else {
		c.writer = csv.NewWriter(fw)
		c.mode = cRModePlain
	}
	return c, nil
}

func (c *Writer) write(record []string) error {
	return c.writer.Write(record)
}

func (c *Writer) flush() error {
	c.writer.Flush()
	return c.writer.Error()
}

func (c *Writer) close() error {
	var err error
	if c.zw != nil {
		err = c.zw.Close()
		c.zw = nil
	}
	if c.fw != nil {
		if cerr := c.fw.Close(); err == nil {
			err = cerr
		}
		c.fw = nil
	}
	return err
}
