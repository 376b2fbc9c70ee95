package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"metaQuery/internal/metaquery"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedFormat = errors.New("UnsupportedFormat")
	ErrNoInput           = errors.New("Please upload at least one CSV or Excel file to get started.")
)

// File is one uploaded file.
type File struct {
	Name string
	Data []byte
}

// Load parses every file and concatenates them into one table. A single
// bad file fails the whole batch.
func Load(files []File, provenance string) (*metaquery.Table, error) {
	if len(files) == 0 {
		return nil, ErrNoInput
	}
	tables := make([]*metaquery.Table, 0, len(files))
	for _, f := range files {
		t, err := LoadFile(f, provenance)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return metaquery.Concat(provenance, tables...), nil
}

// LoadFile parses one file and stamps its rows with the file name.
func LoadFile(f File, provenance string) (*metaquery.Table, error) {
	var header []string
	var records [][]string
	var err error

	name := strings.ToLower(f.Name)
	switch {
	case strings.HasSuffix(name, ".csv"):
		header, records, err = readCSV(bytes.NewReader(f.Data))
	case strings.HasSuffix(name, ".csv.gz"):
		var zr *gzip.Reader
		zr, err = gzip.NewReader(bytes.NewReader(f.Data))
		if err == nil {
			defer zr.Close()
			header, records, err = readCSV(zr)
		}
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		header, records, err = readExcel(f.Data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat,
			"%s: Unsupported file format. Please upload CSV or Excel", f.Name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.Name)
	}

	// excelize trims trailing empty header cells, data under them is kept
	for _, rec := range records {
		for len(header) < len(rec) {
			header = append(header, "")
		}
	}
	header = fixHeader(header)
	pos := indexOf(header, provenance)
	if pos < 0 {
		header = append(header, provenance)
		pos = len(header) - 1
	}
	for i, rec := range records {
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rec = rec[:len(header)]
		rec[pos] = f.Name
		records[i] = rec
	}

	logrus.WithFields(logrus.Fields{
		"file":    f.Name,
		"columns": len(header),
		"rows":    len(records),
	}).Debug("File loaded")
	return metaquery.NewTable(header, records, provenance), nil
}

// LoadPaths reads files from disk for the command line.
func LoadPaths(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	// drops a UTF-8 byte order mark, common in spreadsheet exports
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(dec)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("No columns to parse from file")
	}
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	records := make([][]string, 0)
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		if isBlank(line) {
			continue
		}
		records = append(records, line)
	}
	return header, records, nil
}

func readExcel(data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, errors.Wrap(err, "open excel")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("no sheets found")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("No columns to parse from file")
	}
	records := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		records = append(records, r)
	}
	return rows[0], records, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fixHeader names blank headers and suffixes repeated ones the way
// spreadsheet tools do: "Unnamed: 2", "Name.1".
func fixHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	count := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			count[h]++
			name = fmt.Sprintf("%s.%d", h, count[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func indexOf(items []string, s string) int {
	for i, v := range items {
		if v == s {
			return i
		}
	}
	return -1
}
