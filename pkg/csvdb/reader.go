package csvdb

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"metaQuery/pkg/utils"

	"github.com/pkg/errors"
)

type Reader struct {
	fr       *os.File
	zr       *gzip.Reader
	reader   *csv.Reader
	values   []string
	err      error
	filename string
	mode     string
}

func newReader(filename string) (*Reader, error) {
	c := new(Reader)
	c.filename = filename
	if err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Reader) open() error {
	if !utils.PathExist(c.filename) {
		return nil
	}

	fr, err := os.Open(c.filename)
	if err != nil {
		return errors.WithStack(err)
	}

	ext := filepath.Ext(c.filename)
	if ext == ".gz" || ext == ".gzip" {
		zr, err := gzip.NewReader(fr)
		if err == io.EOF {
			// an empty gzip file has no header yet
			c.fr = fr
			return nil
		}
		if err != nil {
			fr.Close()
			return errors.WithStack(err)
		}
		c.zr = zr
		c.reader = csv.NewReader(zr)
		c.mode = cRModeGZip
	} else {
		c.reader = csv.NewReader(fr)
		c.mode = cRModePlain
	}
	c.reader.FieldsPerRecord = -1
	c.fr = fr
	return nil
}

func (c *Reader) next() bool {
	if c.reader == nil {
		c.err = io.EOF
		return false
	}
	values, err := c.reader.Read()
	c.err = err
	if err != nil {
		return false
	}
	c.values = values
	return true
}

func (c *Reader) close() {
	if c.zr != nil {
		c.zr.Close()
		c.zr = nil
	}
	if c.fr != nil {
		c.fr.Close()
		c.fr = nil
	}
}
